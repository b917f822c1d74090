package graph

import (
	"fmt"

	"github.com/c360studio/swcgen/requirement"
)

// ValidationResult is the outcome of a referential check. Errors lists every
// violation found, in graph order.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validate checks every referential invariant of the project graph. It
// reports all violations and never mutates the graph.
func (p *Project) Validate() ValidationResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Validate()
}

// Validate checks a detached snapshot the same way Project.Validate does.
func (s *Snapshot) Validate() ValidationResult {
	v := &validator{snap: s}
	v.index()
	v.checkSWCs()
	v.checkInterfaces()
	v.checkConnections()
	v.checkCompositions()
	return ValidationResult{Valid: len(v.errs) == 0, Errors: v.errs}
}

type validator struct {
	snap *Snapshot
	errs []string

	swcs       map[string]*SWC
	interfaces map[string]*Interface
	elements   map[string]string // data element id -> interface id
	dataTypes  map[string]bool   // name key
}

func (v *validator) report(format string, args ...any) {
	v.errs = append(v.errs, fmt.Sprintf(format, args...))
}

func (v *validator) index() {
	v.swcs = make(map[string]*SWC, len(v.snap.SWCs))
	v.interfaces = make(map[string]*Interface, len(v.snap.Interfaces))
	v.elements = make(map[string]string)
	v.dataTypes = make(map[string]bool, len(v.snap.DataTypes))

	for i := range v.snap.SWCs {
		v.swcs[v.snap.SWCs[i].ID] = &v.snap.SWCs[i]
	}
	for i := range v.snap.Interfaces {
		iface := &v.snap.Interfaces[i]
		v.interfaces[iface.ID] = iface
		for _, de := range iface.DataElements {
			v.elements[de.ID] = iface.ID
		}
	}

	names := make(map[string]string)
	for _, dt := range v.snap.DataTypes {
		key := requirement.NameKey(dt.Name)
		if prev, ok := names[key]; ok {
			v.report("data type name %q duplicates %q", dt.Name, prev)
		}
		names[key] = dt.Name
		v.dataTypes[key] = true
	}
}

func (v *validator) checkSWCs() {
	names := make(map[string]string)
	for i := range v.snap.SWCs {
		swc := &v.snap.SWCs[i]
		key := requirement.ComponentKey(swc.Name)
		if prev, ok := names[key]; ok {
			v.report("SWC name %q duplicates %q", swc.Name, prev)
		}
		names[key] = swc.Name

		portNames := make(map[string]bool)
		for _, port := range swc.Ports {
			if portNames[requirement.NameKey(port.Name)] {
				v.report("SWC %q has duplicate port name %q", swc.Name, port.Name)
			}
			portNames[requirement.NameKey(port.Name)] = true
			if port.SWCID != swc.ID {
				v.report("port %q of SWC %q names owner %q", port.Name, swc.Name, port.SWCID)
			}
			if _, ok := v.interfaces[port.InterfaceRef]; !ok {
				v.report("port %q of SWC %q references missing interface %q", port.Name, swc.Name, port.InterfaceRef)
			}
		}

		for _, run := range swc.Runnables {
			if run.SWCID != swc.ID {
				v.report("runnable %q of SWC %q names owner %q", run.Name, swc.Name, run.SWCID)
			}
			for _, ap := range run.AccessPoints {
				v.checkAccessPoint(swc, &run, ap)
			}
		}
	}
}

func (v *validator) checkAccessPoint(owner *SWC, run *Runnable, ap AccessPoint) {
	swc, ok := v.swcs[ap.SWCID]
	if !ok {
		v.report("access point %q of runnable %q references missing SWC %q", ap.Name, run.Name, ap.SWCID)
		return
	}
	if swc.ID != owner.ID {
		v.report("access point %q of runnable %q names SWC %q instead of its owner %q", ap.Name, run.Name, swc.Name, owner.Name)
	}
	if runnableIndex(swc.Runnables, ap.RunnableID) < 0 {
		v.report("access point %q references runnable %q not owned by SWC %q", ap.Name, ap.RunnableID, swc.Name)
	} else if ap.RunnableID != run.ID {
		v.report("access point %q is held by runnable %q but names runnable %q", ap.Name, run.Name, ap.RunnableID)
	}

	pi := portIndex(swc.Ports, ap.PortRef)
	if pi < 0 {
		v.report("access point %q references port %q not owned by SWC %q", ap.Name, ap.PortRef, swc.Name)
	}
	ifaceID, ok := v.elements[ap.DataElementRef]
	switch {
	case !ok:
		v.report("access point %q references missing data element %q", ap.Name, ap.DataElementRef)
	case pi >= 0 && swc.Ports[pi].InterfaceRef != ifaceID:
		v.report("access point %q references data element %q outside the interface of port %q", ap.Name, ap.DataElementRef, swc.Ports[pi].Name)
	}
}

func (v *validator) checkInterfaces() {
	names := make(map[string]string)
	for _, iface := range v.snap.Interfaces {
		key := requirement.NameKey(iface.Name)
		if prev, ok := names[key]; ok {
			v.report("interface name %q duplicates %q", iface.Name, prev)
		}
		names[key] = iface.Name

		for _, de := range iface.DataElements {
			if !v.dataTypes[requirement.NameKey(de.ApplicationDataTypeRef)] {
				v.report("data element %q of interface %q references missing data type %q", de.Name, iface.Name, de.ApplicationDataTypeRef)
			}
		}
	}
}

// checkEndpoint verifies that a SWC exists and owns the port, and returns
// the port.
func (v *validator) checkEndpoint(what, side, swcID, portID string) (Port, bool) {
	swc, ok := v.swcs[swcID]
	if !ok {
		v.report("%s %s SWC %q is missing", what, side, swcID)
		return Port{}, false
	}
	i := portIndex(swc.Ports, portID)
	if i < 0 {
		v.report("%s %s port %q is not owned by SWC %q", what, side, portID, swc.Name)
		return Port{}, false
	}
	return swc.Ports[i], true
}

// checkLink requires both ends of a connection or connector to use the same
// interface.
func (v *validator) checkLink(what string, source, target Port) {
	if source.InterfaceRef != target.InterfaceRef {
		v.report("%s joins port %q of interface %q to port %q of interface %q",
			what, source.Name, source.InterfaceRef, target.Name, target.InterfaceRef)
	}
}

func (v *validator) checkConnections() {
	for _, conn := range v.snap.Connections {
		what := fmt.Sprintf("connection %q", conn.Name)
		src, ok1 := v.checkEndpoint(what, "source", conn.SourceSWCID, conn.SourcePortID)
		tgt, ok2 := v.checkEndpoint(what, "target", conn.TargetSWCID, conn.TargetPortID)
		if ok1 && ok2 {
			v.checkLink(what, src, tgt)
		}
	}
}

func (v *validator) checkCompositions() {
	for _, comp := range v.snap.Compositions {
		instances := make(map[string]string, len(comp.SWCInstances)) // instance id -> swc id
		for _, inst := range comp.SWCInstances {
			instances[inst.ID] = inst.SWCRef
			if _, ok := v.swcs[inst.SWCRef]; !ok {
				v.report("instance %q of composition %q references missing SWC %q", inst.Name, comp.Name, inst.SWCRef)
			}
		}
		for _, c := range comp.Connectors {
			what := fmt.Sprintf("connector %q of composition %q", c.Name, comp.Name)
			var ends []Port
			for _, end := range []struct{ side, inst, port string }{
				{"source", c.SourceInstanceID, c.SourcePortID},
				{"target", c.TargetInstanceID, c.TargetPortID},
			} {
				swcID, ok := instances[end.inst]
				if !ok {
					v.report("%s %s instance %q is missing", what, end.side, end.inst)
					continue
				}
				if port, ok := v.checkEndpoint(what, end.side, swcID, end.port); ok {
					ends = append(ends, port)
				}
			}
			if len(ends) == 2 {
				v.checkLink(what, ends[0], ends[1])
			}
		}
	}
}
