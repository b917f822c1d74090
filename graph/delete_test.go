package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/swcgen/artifact"
)

func TestDeleteInterface_CascadeCompleteness(t *testing.T) {
	p := integrated(t, twoInterfaceSet())
	before := p.Counts()
	require.Equal(t, 4, before[artifact.KindPort])
	require.Equal(t, 6, before[artifact.KindAccessPoint])

	x, ok := p.InterfaceByName("XInterface")
	require.True(t, ok)
	require.NoError(t, p.DeleteInterface(x.ID))

	after := p.Counts()
	assert.Equal(t, 2, after[artifact.KindPort], "exactly the two X ports go")
	assert.Equal(t, 2, after[artifact.KindAccessPoint], "exactly the four X access points go")
	assert.Equal(t, 1, after[artifact.KindConnection])
	assert.Equal(t, 1, after[artifact.KindConnector])
	assert.Equal(t, 1, after[artifact.KindInterface])
	assert.Equal(t, before[artifact.KindRunnable], after[artifact.KindRunnable])
	assert.Equal(t, before[artifact.KindSWC], after[artifact.KindSWC])
	assert.Equal(t, before[artifact.KindSWCInstance], after[artifact.KindSWCInstance])

	assert.ElementsMatch(t, []string{"a_Y_ProvidedPort", "c_Y_RequiredPort"}, portNames(p))
	assert.ElementsMatch(t, []string{
		"Rte_iWrite_a_10ms_a_Y_ProvidedPort_Open",
		"Rte_iRead_c_10ms_c_Y_RequiredPort_Open",
	}, accessPointNames(p))
	assert.True(t, p.Validate().Valid, p.Validate().Errors)

	assert.ErrorIs(t, p.DeleteInterface(x.ID), ErrNotFound)
}

func TestDeletePort(t *testing.T) {
	p := integrated(t, sensorSet(t))
	sensor, _ := p.SWCByName("sensor_swc")

	require.NoError(t, p.DeletePort(sensor.Ports[0].ID))

	counts := p.Counts()
	assert.Equal(t, 1, counts[artifact.KindPort])
	assert.Equal(t, 1, counts[artifact.KindAccessPoint])
	assert.Equal(t, 0, counts[artifact.KindConnection])
	assert.Equal(t, 0, counts[artifact.KindConnector])
	assert.Equal(t, 2, counts[artifact.KindSWCInstance])
	assert.Equal(t, []string{"Rte_IRead_EMS_10ms_EMS_RequiredPort_Temperature"}, accessPointNames(p))
	assert.True(t, p.Validate().Valid)

	assert.ErrorIs(t, p.DeletePort("port:999"), ErrNotFound)
}

func TestDeleteDataType_MatchesByName(t *testing.T) {
	p := integrated(t, twoInterfaceSet())

	dt, ok := p.DataTypeByName("UINT16")
	require.True(t, ok)
	require.NoError(t, p.DeleteDataType(dt.ID))

	x, _ := p.InterfaceByName("XInterface")
	y, _ := p.InterfaceByName("YInterface")
	assert.Empty(t, x.DataElements)
	assert.Len(t, y.DataElements, 1, "boolean elements stay")

	counts := p.Counts()
	assert.Equal(t, 1, counts[artifact.KindDataType])
	assert.Equal(t, 4, counts[artifact.KindPort], "ports are untouched")
	assert.Equal(t, 2, counts[artifact.KindAccessPoint], "access points on removed elements go")
	assert.True(t, p.Validate().Valid, p.Validate().Errors)
}

func TestDeleteSWCInstance(t *testing.T) {
	p := integrated(t, twoInterfaceSet())
	comp, ok := p.CompositionByName("body")
	require.True(t, ok)

	require.NoError(t, p.DeleteSWCInstance(comp.ID, comp.SWCInstances[1].ID))

	comp, _ = p.CompositionByName("Body")
	assert.Len(t, comp.SWCInstances, 2)
	require.Len(t, comp.Connectors, 1)
	assert.Equal(t, "Y_link", comp.Connectors[0].Name)
	assert.Equal(t, 2, p.Counts()[artifact.KindConnection], "SWC connections are not instance scoped")
	assert.True(t, p.Validate().Valid)

	assert.ErrorIs(t, p.DeleteSWCInstance(comp.ID, "swc_instance:999"), ErrNotFound)
	assert.ErrorIs(t, p.DeleteSWCInstance("ecu_composition:999", comp.SWCInstances[0].ID), ErrNotFound)
}

func TestDeleteECUComposition(t *testing.T) {
	p := integrated(t, sensorSet(t))
	comp, _ := p.CompositionByName(artifact.DefaultECUName)

	require.NoError(t, p.DeleteECUComposition(comp.ID))

	counts := p.Counts()
	assert.Equal(t, 0, counts[artifact.KindECUComposition])
	assert.Equal(t, 0, counts[artifact.KindSWCInstance])
	assert.Equal(t, 0, counts[artifact.KindConnector])
	assert.Equal(t, 2, counts[artifact.KindSWC])
	assert.Equal(t, 1, counts[artifact.KindConnection])
	assert.ErrorIs(t, p.DeleteECUComposition(comp.ID), ErrNotFound)
}

func TestDeleteSWC(t *testing.T) {
	p := integrated(t, sensorSet(t))
	ems, _ := p.SWCByName("EMS_swc")

	require.NoError(t, p.DeleteSWC(ems.ID))

	counts := p.Counts()
	assert.Equal(t, 1, counts[artifact.KindSWC])
	assert.Equal(t, 1, counts[artifact.KindPort])
	assert.Equal(t, 2, counts[artifact.KindRunnable])
	assert.Equal(t, 1, counts[artifact.KindAccessPoint])
	assert.Equal(t, 0, counts[artifact.KindConnection])
	assert.Equal(t, 1, counts[artifact.KindSWCInstance])
	assert.Equal(t, 0, counts[artifact.KindConnector])
	assert.True(t, p.Validate().Valid)
	assert.ErrorIs(t, p.DeleteSWC(ems.ID), ErrNotFound)
}

func TestDeleteRunnableAccessPointConnection(t *testing.T) {
	p := integrated(t, twoInterfaceSet())
	a, _ := p.SWCByName("a_swc")

	require.NoError(t, p.DeleteRunnable(a.Runnables[0].ID))
	assert.Equal(t, 4, p.Counts()[artifact.KindRunnable])
	assert.Equal(t, 4, p.Counts()[artifact.KindAccessPoint], "a_10ms owned two access points")

	a, _ = p.SWCByName("a_swc")
	require.NoError(t, p.DeleteAccessPoint(a.Runnables[0].AccessPoints[0].ID))
	assert.Equal(t, 3, p.Counts()[artifact.KindAccessPoint])

	snap := p.Snapshot()
	require.NoError(t, p.DeleteConnection(snap.Connections[0].ID))
	assert.Equal(t, 1, p.Counts()[artifact.KindConnection])

	assert.True(t, p.Validate().Valid)
	assert.ErrorIs(t, p.DeleteRunnable("runnable:999"), ErrNotFound)
	assert.ErrorIs(t, p.DeleteAccessPoint("access_point:999"), ErrNotFound)
	assert.ErrorIs(t, p.DeleteConnection("connection:999"), ErrNotFound)
}

// Every delete sequence starting from an integrated graph keeps it closed.
func TestReferentialClosure(t *testing.T) {
	steps := []struct {
		name string
		del  func(p *Project) error
	}{
		{"data type", func(p *Project) error {
			dt, _ := p.DataTypeByName("boolean")
			return p.DeleteDataType(dt.ID)
		}},
		{"port", func(p *Project) error {
			b, _ := p.SWCByName("b_swc")
			return p.DeletePort(b.Ports[0].ID)
		}},
		{"instance", func(p *Project) error {
			comp, _ := p.CompositionByName("Body")
			return p.DeleteSWCInstance(comp.ID, comp.SWCInstances[0].ID)
		}},
		{"interface", func(p *Project) error {
			y, _ := p.InterfaceByName("YInterface")
			return p.DeleteInterface(y.ID)
		}},
		{"swc", func(p *Project) error {
			a, _ := p.SWCByName("a_swc")
			return p.DeleteSWC(a.ID)
		}},
		{"composition", func(p *Project) error {
			comp, _ := p.CompositionByName("Body")
			return p.DeleteECUComposition(comp.ID)
		}},
	}

	// Different orders exercise different cascade overlaps.
	orders := [][]int{
		{0, 1, 2, 3, 4, 5},
		{4, 3, 1, 0, 2, 5},
	}
	for _, order := range orders {
		p := integrated(t, twoInterfaceSet())
		for _, i := range order {
			step := steps[i]
			require.NoError(t, step.del(p), step.name)
			result := p.Validate()
			assert.True(t, result.Valid, "after %s: %v", step.name, result.Errors)
		}
	}
}
