package graph

import (
	"fmt"
	"slices"

	"github.com/c360studio/swcgen/requirement"
)

// Every delete runs its cascade synchronously under the project lock, then
// re-validates. Residual violations are logged, never returned.

// DeletePort removes a port, every access point referencing it and every
// connection or composition connector using it as an endpoint.
func (p *Project) DeletePort(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	port, owner := p.state.port(id)
	if port == nil {
		return fmt.Errorf("%w: port %s", ErrNotFound, id)
	}
	name := port.Name
	p.state.removePort(owner, id)
	p.checkAfter("delete port", name)
	return nil
}

// DeleteInterface removes an interface and every port, on any SWC, that
// references it, cascading as DeletePort does.
func (p *Project) DeleteInterface(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.state.interfaceIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: interface %s", ErrNotFound, id)
	}
	name := p.state.Interfaces[i].Name
	p.state.Interfaces = slices.Delete(p.state.Interfaces, i, i+1)

	for si := range p.state.SWCs {
		var doomed []string
		for _, port := range p.state.SWCs[si].Ports {
			if port.InterfaceRef == id {
				doomed = append(doomed, port.ID)
			}
		}
		for _, portID := range doomed {
			p.state.removePort(si, portID)
		}
	}

	p.checkAfter("delete interface", name)
	return nil
}

// DeleteDataType removes a data type and every data element whose
// applicationDataTypeRef names it. References are matched by name, not id.
// Access points reading or writing a removed element go with it.
func (p *Project) DeleteDataType(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := slices.IndexFunc(p.state.DataTypes, func(dt DataType) bool { return dt.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: data type %s", ErrNotFound, id)
	}
	name := p.state.DataTypes[i].Name
	key := requirement.NameKey(name)
	p.state.DataTypes = slices.Delete(p.state.DataTypes, i, i+1)

	removed := make(map[string]bool)
	for ii := range p.state.Interfaces {
		iface := &p.state.Interfaces[ii]
		iface.DataElements = slices.DeleteFunc(iface.DataElements, func(de DataElement) bool {
			if requirement.NameKey(de.ApplicationDataTypeRef) == key {
				removed[de.ID] = true
				return true
			}
			return false
		})
	}
	p.state.removeAccessPoints(func(ap AccessPoint) bool { return removed[ap.DataElementRef] })

	p.checkAfter("delete data type", name)
	return nil
}

// DeleteSWCInstance removes an instance from a composition together with
// every connector of that composition naming it as source or target.
func (p *Project) DeleteSWCInstance(compositionID, instanceID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ci := p.state.compositionIndex(compositionID)
	if ci < 0 {
		return fmt.Errorf("%w: composition %s", ErrNotFound, compositionID)
	}
	comp := &p.state.Compositions[ci]
	ii := slices.IndexFunc(comp.SWCInstances, func(inst SWCInstance) bool { return inst.ID == instanceID })
	if ii < 0 {
		return fmt.Errorf("%w: instance %s in composition %s", ErrNotFound, instanceID, comp.Name)
	}
	name := comp.SWCInstances[ii].Name
	comp.removeInstances(func(inst SWCInstance) bool { return inst.ID == instanceID })

	p.checkAfter("delete swc instance", name)
	return nil
}

// DeleteECUComposition removes a composition with its instances and
// connectors.
func (p *Project) DeleteECUComposition(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.state.compositionIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: composition %s", ErrNotFound, id)
	}
	name := p.state.Compositions[i].Name
	p.state.Compositions = slices.Delete(p.state.Compositions, i, i+1)

	p.checkAfter("delete ecu composition", name)
	return nil
}

// DeleteSWC removes a component with its ports, runnables and access
// points, every connection touching it, and every composition instance of
// it along with that instance's connectors.
func (p *Project) DeleteSWC(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.state.swcIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: SWC %s", ErrNotFound, id)
	}
	name := p.state.SWCs[i].Name
	p.state.SWCs = slices.Delete(p.state.SWCs, i, i+1)

	p.state.Connections = slices.DeleteFunc(p.state.Connections, func(c SWCConnection) bool {
		return c.SourceSWCID == id || c.TargetSWCID == id
	})
	for ci := range p.state.Compositions {
		p.state.Compositions[ci].removeInstances(func(inst SWCInstance) bool { return inst.SWCRef == id })
	}

	p.checkAfter("delete swc", name)
	return nil
}

// DeleteRunnable removes a runnable and the access points it owns.
func (p *Project) DeleteRunnable(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for si := range p.state.SWCs {
		swc := &p.state.SWCs[si]
		if ri := runnableIndex(swc.Runnables, id); ri >= 0 {
			name := swc.Runnables[ri].Name
			swc.Runnables = slices.Delete(swc.Runnables, ri, ri+1)
			p.checkAfter("delete runnable", name)
			return nil
		}
	}
	return fmt.Errorf("%w: runnable %s", ErrNotFound, id)
}

// DeleteAccessPoint removes a single access point.
func (p *Project) DeleteAccessPoint(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := p.state.removeAccessPoints(func(ap AccessPoint) bool { return ap.ID == id }); n == 0 {
		return fmt.Errorf("%w: access point %s", ErrNotFound, id)
	}
	p.checkAfter("delete access point", id)
	return nil
}

// DeleteConnection removes a connection between two components.
func (p *Project) DeleteConnection(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := slices.IndexFunc(p.state.Connections, func(c SWCConnection) bool { return c.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: connection %s", ErrNotFound, id)
	}
	name := p.state.Connections[i].Name
	p.state.Connections = slices.Delete(p.state.Connections, i, i+1)

	p.checkAfter("delete connection", name)
	return nil
}

// removePort deletes a port of the SWC at index owner and everything that
// references the port.
func (s *Snapshot) removePort(owner int, id string) {
	swc := &s.SWCs[owner]
	swc.Ports = slices.DeleteFunc(swc.Ports, func(port Port) bool { return port.ID == id })

	s.removeAccessPoints(func(ap AccessPoint) bool { return ap.PortRef == id })
	s.Connections = slices.DeleteFunc(s.Connections, func(c SWCConnection) bool {
		return c.SourcePortID == id || c.TargetPortID == id
	})
	for ci := range s.Compositions {
		comp := &s.Compositions[ci]
		comp.Connectors = slices.DeleteFunc(comp.Connectors, func(c Connector) bool {
			return c.SourcePortID == id || c.TargetPortID == id
		})
	}
}

// removeAccessPoints deletes matching access points across all runnables and
// returns how many were removed.
func (s *Snapshot) removeAccessPoints(match func(AccessPoint) bool) int {
	n := 0
	for si := range s.SWCs {
		for ri := range s.SWCs[si].Runnables {
			run := &s.SWCs[si].Runnables[ri]
			before := len(run.AccessPoints)
			run.AccessPoints = slices.DeleteFunc(run.AccessPoints, match)
			n += before - len(run.AccessPoints)
		}
	}
	return n
}

// removeInstances deletes matching instances and their connectors.
func (c *ECUComposition) removeInstances(match func(SWCInstance) bool) {
	removed := make(map[string]bool)
	c.SWCInstances = slices.DeleteFunc(c.SWCInstances, func(inst SWCInstance) bool {
		if match(inst) {
			removed[inst.ID] = true
			return true
		}
		return false
	})
	if len(removed) == 0 {
		return
	}
	c.Connectors = slices.DeleteFunc(c.Connectors, func(conn Connector) bool {
		return removed[conn.SourceInstanceID] || removed[conn.TargetInstanceID]
	})
}

// checkAfter re-validates after a cascade and logs what is left.
func (p *Project) checkAfter(op, name string) {
	result := p.state.Validate()
	if result.Valid {
		p.logger.Debug("Cascade complete", "op", op, "entity", name, "project", p.state.Name)
		return
	}
	p.logger.Warn("Graph inconsistent after cascade",
		"op", op,
		"entity", name,
		"project", p.state.Name,
		"errors", result.Errors)
}
