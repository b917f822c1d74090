package graph

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c360studio/swcgen/artifact"
	"github.com/c360studio/swcgen/requirement"
)

const sensorRequirement = "The software component sensor_swc shall send a temperature value to the software component EMS_swc using a Sender-Receiver communication model, with a transmission period of 10 milliseconds."

func newTestProject() *Project {
	return NewProject("test",
		WithIDGenerator(SequentialIDs()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func sensorSet(t *testing.T) *artifact.Set {
	t.Helper()
	return synthesize(t, sensorRequirement)
}

// synthesize runs one requirement through a fresh extractor and
// synthesizer, as each compiled input is.
func synthesize(t *testing.T, text string) *artifact.Set {
	t.Helper()
	docs := requirement.NewDefaultExtractor().Parse(text)
	require.Len(t, docs, 1)
	return artifact.NewDefaultSynthesizer().Generate(docs)
}

// requireLinksShareInterface checks that every connection and connector
// joins two ports of one interface.
func requireLinksShareInterface(t *testing.T, snap Snapshot) {
	t.Helper()
	iface := make(map[string]string)
	for _, swc := range snap.SWCs {
		for _, port := range swc.Ports {
			iface[port.ID] = port.InterfaceRef
		}
	}
	for _, conn := range snap.Connections {
		require.Equal(t, iface[conn.SourcePortID], iface[conn.TargetPortID], conn.Name)
	}
	for _, comp := range snap.Compositions {
		for _, c := range comp.Connectors {
			require.Equal(t, iface[c.SourcePortID], iface[c.TargetPortID], c.Name)
		}
	}
}

func integrated(t *testing.T, set *artifact.Set) *Project {
	t.Helper()
	p := newTestProject()
	_, err := p.Integrate(set)
	require.NoError(t, err)
	require.True(t, p.Validate().Valid, p.Validate().Errors)
	return p
}

func element(iface, name, typ string) artifact.DataElement {
	return artifact.DataElement{
		Name:                   name,
		InterfaceRef:           iface,
		ApplicationDataTypeRef: typ,
		Category:               "VALUE",
		SwDataDefProps:         artifact.SwDataDefProps{BaseTypeRef: typ, ImplementationDataTypeRef: typ},
	}
}

func ap(swc, runnable, port, el string, typ artifact.AccessType) artifact.AccessPoint {
	return artifact.AccessPoint{
		Name:           "Rte_" + string(typ) + "_" + runnable + "_" + port + "_" + el,
		Type:           typ,
		Access:         artifact.AccessImplicit,
		PortRef:        port,
		DataElementRef: el,
		RunnableName:   runnable,
		SWCName:        swc,
	}
}

// twoInterfaceSet has interface X used by ports on a and b, each port
// accessed by two runnables, and interface Y used by a and c with one
// access point per port.
func twoInterfaceSet() *artifact.Set {
	return &artifact.Set{
		SWCs: []artifact.SWC{{Name: "a_swc"}, {Name: "b_swc"}, {Name: "c_swc"}},
		Interfaces: []artifact.Interface{
			{Name: "XInterface", Type: requirement.InterfaceSenderReceiver, DataElements: []artifact.DataElement{element("XInterface", "Speed", "uint16")}},
			{Name: "YInterface", Type: requirement.InterfaceSenderReceiver, DataElements: []artifact.DataElement{element("YInterface", "Open", "boolean")}},
		},
		Ports: []artifact.Port{
			{Name: "a_X_ProvidedPort", Direction: artifact.PortProvided, InterfaceRef: "XInterface", SWCName: "a_swc"},
			{Name: "b_X_RequiredPort", Direction: artifact.PortRequired, InterfaceRef: "XInterface", SWCName: "b_swc"},
			{Name: "a_Y_ProvidedPort", Direction: artifact.PortProvided, InterfaceRef: "YInterface", SWCName: "a_swc"},
			{Name: "c_Y_RequiredPort", Direction: artifact.PortRequired, InterfaceRef: "YInterface", SWCName: "c_swc"},
		},
		Runnables: []artifact.Runnable{
			{Name: "a_10ms", Period: 10, RunnableType: artifact.RunnablePeriodic, SWCName: "a_swc"},
			{Name: "a_20ms", Period: 20, RunnableType: artifact.RunnablePeriodic, SWCName: "a_swc"},
			{Name: "b_10ms", Period: 10, RunnableType: artifact.RunnablePeriodic, SWCName: "b_swc"},
			{Name: "b_20ms", Period: 20, RunnableType: artifact.RunnablePeriodic, SWCName: "b_swc"},
			{Name: "c_10ms", Period: 10, RunnableType: artifact.RunnablePeriodic, SWCName: "c_swc"},
		},
		AccessPoints: []artifact.AccessPoint{
			ap("a_swc", "a_10ms", "a_X_ProvidedPort", "Speed", artifact.AccessWrite),
			ap("a_swc", "a_20ms", "a_X_ProvidedPort", "Speed", artifact.AccessWrite),
			ap("b_swc", "b_10ms", "b_X_RequiredPort", "Speed", artifact.AccessRead),
			ap("b_swc", "b_20ms", "b_X_RequiredPort", "Speed", artifact.AccessRead),
			ap("a_swc", "a_10ms", "a_Y_ProvidedPort", "Open", artifact.AccessWrite),
			ap("c_swc", "c_10ms", "c_Y_RequiredPort", "Open", artifact.AccessRead),
		},
		Connections: []artifact.Connection{
			{Name: "X_link", SourceSWC: "a_swc", SourcePort: "a_X_ProvidedPort", TargetSWC: "b_swc", TargetPort: "b_X_RequiredPort"},
			{Name: "Y_link", SourceSWC: "a_swc", SourcePort: "a_Y_ProvidedPort", TargetSWC: "c_swc", TargetPort: "c_Y_RequiredPort"},
		},
		ECUComposition: &artifact.ECUComposition{
			Name: "Body",
			SWCInstances: []artifact.SWCInstance{
				{Name: "a_swcInstance", SWCRef: "a_swc"},
				{Name: "b_swcInstance", SWCRef: "b_swc"},
				{Name: "c_swcInstance", SWCRef: "c_swc"},
			},
			Connectors: []artifact.Connector{
				{Name: "X_link", SourceInstance: "a_swcInstance", SourcePort: "a_X_ProvidedPort", TargetInstance: "b_swcInstance", TargetPort: "b_X_RequiredPort"},
				{Name: "Y_link", SourceInstance: "a_swcInstance", SourcePort: "a_Y_ProvidedPort", TargetInstance: "c_swcInstance", TargetPort: "c_Y_RequiredPort"},
			},
		},
	}
}

func portNames(p *Project) []string {
	var names []string
	for _, swc := range p.Snapshot().SWCs {
		for _, port := range swc.Ports {
			names = append(names, port.Name)
		}
	}
	return names
}

func accessPointNames(p *Project) []string {
	var names []string
	for _, swc := range p.Snapshot().SWCs {
		for _, run := range swc.Runnables {
			for _, a := range run.AccessPoints {
				names = append(names, a.Name)
			}
		}
	}
	return names
}
