package graph

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/c360studio/swcgen/artifact"
	"github.com/c360studio/swcgen/requirement"
)

// Integrate assigns identities to a synthesized set and appends it to the
// project in dependency order: components, runnables, ports, access points,
// interfaces, then data types and elements, then connections and the ECU
// composition. Entities already present by name are reused, so integrating
// the same set twice adds nothing the second time.
//
// Every name-keyed reference in the set is resolved before the graph is
// touched. If any reference cannot be resolved the whole batch is rejected
// with an error wrapping ErrUnresolvedReference and the graph is unchanged.
// The returned counts cover newly added entities only.
func (p *Project) Integrate(set *artifact.Set) (artifact.Counts, error) {
	if set == nil {
		return nil, ErrNilArtifactSet
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	r := newResolver(&p.state, p.newID)
	pl, err := r.resolve(set)
	if err != nil {
		return nil, err
	}

	added := p.state.apply(pl)
	p.logger.Debug("Integrated artifact set",
		"project", p.state.Name,
		"added", added.Total(),
		"swcs", added[artifact.KindSWC],
		"ports", added[artifact.KindPort],
		"access_points", added[artifact.KindAccessPoint])
	return added, nil
}

type pendingElement struct {
	interfaceID string
	element     DataElement
}

type pendingInstance struct {
	compositionID string
	instance      SWCInstance
}

type pendingConnector struct {
	compositionID string
	connector     Connector
}

// plan is a fully identified batch, ready to append.
type plan struct {
	swcs         []SWC
	runnables    []Runnable
	ports        []Port
	accessPoints []AccessPoint
	interfaces   []Interface
	elements     []pendingElement
	dataTypes    []DataType
	connections  []SWCConnection
	compositions []ECUComposition
	instances    []pendingInstance
	connectors   []pendingConnector
}

// resolver maps the set's names to ids, seeded with the live graph and
// extended with every id allocated for the batch.
type resolver struct {
	newID IDGenerator
	errs  []error

	swcs       map[string]string // component key -> id
	interfaces map[string]string // name key -> id
	elements   map[string]string // interface id|name key -> id
	dataTypes  map[string]bool   // name key
	runnables  map[string]string // swc id|name key -> id
	ports      map[string]string // swc id|name key -> id
	portIface  map[string]string // port id -> interface id
	portName   map[string]string // port id -> name
	bindings   map[string]string // swc id|direction|interface id -> port id
	setPorts   map[string]string // swc id|name key in the set -> port id
	apNames    map[string]bool   // runnable id|name key
	conns      map[string]bool   // name key

	compositions map[string]string // name key -> id
	instances    map[string]string // composition id|name key -> id
	instanceSWC  map[string]string // instance id -> swc id
	connectors   map[string]bool   // composition id|name key
}

func newResolver(s *Snapshot, newID IDGenerator) *resolver {
	r := &resolver{
		newID:        newID,
		swcs:         make(map[string]string),
		interfaces:   make(map[string]string),
		elements:     make(map[string]string),
		dataTypes:    make(map[string]bool),
		runnables:    make(map[string]string),
		ports:        make(map[string]string),
		portIface:    make(map[string]string),
		portName:     make(map[string]string),
		bindings:     make(map[string]string),
		setPorts:     make(map[string]string),
		apNames:      make(map[string]bool),
		conns:        make(map[string]bool),
		compositions: make(map[string]string),
		instances:    make(map[string]string),
		instanceSWC:  make(map[string]string),
		connectors:   make(map[string]bool),
	}

	for _, swc := range s.SWCs {
		r.swcs[requirement.ComponentKey(swc.Name)] = swc.ID
		for _, port := range swc.Ports {
			r.ports[scoped(swc.ID, port.Name)] = port.ID
			r.portIface[port.ID] = port.InterfaceRef
			r.portName[port.ID] = port.Name
			if b := binding(swc.ID, port.Direction, port.InterfaceRef); r.bindings[b] == "" {
				r.bindings[b] = port.ID
			}
		}
		for _, run := range swc.Runnables {
			r.runnables[scoped(swc.ID, run.Name)] = run.ID
			for _, ap := range run.AccessPoints {
				r.apNames[scoped(run.ID, ap.Name)] = true
			}
		}
	}
	for _, iface := range s.Interfaces {
		r.interfaces[requirement.NameKey(iface.Name)] = iface.ID
		for _, de := range iface.DataElements {
			r.elements[scoped(iface.ID, de.Name)] = de.ID
		}
	}
	for _, dt := range s.DataTypes {
		r.dataTypes[requirement.NameKey(dt.Name)] = true
	}
	for _, conn := range s.Connections {
		r.conns[requirement.NameKey(conn.Name)] = true
	}
	for _, comp := range s.Compositions {
		r.compositions[requirement.NameKey(comp.Name)] = comp.ID
		for _, inst := range comp.SWCInstances {
			r.instances[scoped(comp.ID, inst.Name)] = inst.ID
			r.instanceSWC[inst.ID] = inst.SWCRef
		}
		for _, c := range comp.Connectors {
			r.connectors[scoped(comp.ID, c.Name)] = true
		}
	}
	return r
}

func scoped(owner, name string) string {
	return owner + "|" + requirement.NameKey(name)
}

func binding(swcID string, dir artifact.PortDirection, ifaceID string) string {
	return swcID + "|" + string(dir) + "|" + ifaceID
}

func (r *resolver) unresolved(format string, args ...any) {
	r.errs = append(r.errs, fmt.Errorf("%w: "+format, append([]any{ErrUnresolvedReference}, args...)...))
}

func (r *resolver) resolve(set *artifact.Set) (*plan, error) {
	pl := &plan{}

	r.resolveSWCs(set, pl)
	r.resolveInterfaces(set, pl)
	r.resolveRunnables(set, pl)
	r.resolvePorts(set, pl)
	r.resolveAccessPoints(set, pl)
	r.resolveConnections(set, pl)
	r.resolveComposition(set, pl)

	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}
	return pl, nil
}

func (r *resolver) swcID(name string) (string, bool) {
	id, ok := r.swcs[requirement.ComponentKey(name)]
	return id, ok
}

func (r *resolver) resolveSWCs(set *artifact.Set, pl *plan) {
	for _, a := range set.SWCs {
		key := requirement.ComponentKey(a.Name)
		if a.Name == "" {
			continue
		}
		if _, ok := r.swcs[key]; ok {
			continue
		}
		id := r.newID(artifact.KindSWC)
		r.swcs[key] = id
		pl.swcs = append(pl.swcs, SWC{
			ID:          id,
			Name:        a.Name,
			Description: a.Description,
			Category:    a.Category,
			Type:        a.Type,
		})
	}
}

// resolveInterfaces handles interfaces, their elements, the flat element
// list and the data types the elements name.
func (r *resolver) resolveInterfaces(set *artifact.Set, pl *plan) {
	newIfaces := make(map[string]int) // interface id -> index in pl.interfaces

	for _, a := range set.Interfaces {
		if a.Name == "" {
			continue
		}
		key := requirement.NameKey(a.Name)
		if _, ok := r.interfaces[key]; ok {
			continue
		}
		ifaceType := a.Type
		if ifaceType == "" {
			ifaceType = requirement.InterfaceSenderReceiver
		}
		id := r.newID(artifact.KindInterface)
		r.interfaces[key] = id
		newIfaces[id] = len(pl.interfaces)
		pl.interfaces = append(pl.interfaces, Interface{ID: id, Name: a.Name, Type: ifaceType})
	}

	addElement := func(ifaceName string, de artifact.DataElement) {
		ifaceID, ok := r.interfaces[requirement.NameKey(ifaceName)]
		if !ok {
			r.unresolved("data element %q references unknown interface %q", de.Name, ifaceName)
			return
		}
		if de.Name == "" {
			return
		}
		key := scoped(ifaceID, de.Name)
		if _, ok := r.elements[key]; ok {
			return
		}
		el := r.newElement(de, pl)
		r.elements[key] = el.ID
		if idx, ok := newIfaces[ifaceID]; ok {
			pl.interfaces[idx].DataElements = append(pl.interfaces[idx].DataElements, el)
			return
		}
		pl.elements = append(pl.elements, pendingElement{interfaceID: ifaceID, element: el})
	}

	for _, a := range set.Interfaces {
		for _, de := range a.DataElements {
			addElement(a.Name, de)
		}
	}
	for _, de := range set.DataElements {
		addElement(de.InterfaceRef, de)
	}
}

// newElement identifies a data element and plans its data type when the
// type is missing.
func (r *resolver) newElement(de artifact.DataElement, pl *plan) DataElement {
	ref := de.ApplicationDataTypeRef
	if ref == "" {
		ref = de.SwDataDefProps.BaseTypeRef
	}
	if ref == "" {
		ref = artifact.DefaultBaseType
	}

	if key := requirement.NameKey(ref); !r.dataTypes[key] {
		r.dataTypes[key] = true
		category := de.Category
		if category == "" {
			category = "VALUE"
		}
		base := de.SwDataDefProps.BaseTypeRef
		if base == "" {
			base = ref
		}
		pl.dataTypes = append(pl.dataTypes, DataType{
			ID:       r.newID(artifact.KindDataType),
			Name:     ref,
			Category: category,
			BaseType: base,
		})
	}

	return DataElement{
		ID:                     r.newID(artifact.KindDataElement),
		Name:                   de.Name,
		ApplicationDataTypeRef: ref,
		Category:               de.Category,
		SwDataDefProps:         de.SwDataDefProps,
	}
}

func (r *resolver) resolveRunnables(set *artifact.Set, pl *plan) {
	for _, a := range set.Runnables {
		swcID, ok := r.swcID(a.SWCName)
		if !ok {
			r.unresolved("runnable %q references unknown SWC %q", a.Name, a.SWCName)
			continue
		}
		key := scoped(swcID, a.Name)
		if _, ok := r.runnables[key]; ok || a.Name == "" {
			continue
		}
		id := r.newID(artifact.KindRunnable)
		r.runnables[key] = id
		pl.runnables = append(pl.runnables, Runnable{
			ID:                       id,
			Name:                     a.Name,
			SWCID:                    swcID,
			RunnableType:             a.RunnableType,
			Period:                   a.Period,
			CanBeInvokedConcurrently: a.CanBeInvokedConcurrently,
		})
	}
}

// resolvePorts binds every set port to one graph port per component,
// direction and interface. A set port that names an existing port of another
// interface gets a new port under the next free qualified name; references
// in the same set follow it through setPorts.
func (r *resolver) resolvePorts(set *artifact.Set, pl *plan) {
	for _, a := range set.Ports {
		swcID, ok := r.swcID(a.SWCName)
		if !ok {
			r.unresolved("port %q references unknown SWC %q", a.Name, a.SWCName)
			continue
		}
		ifaceID, ok := r.interfaces[requirement.NameKey(a.InterfaceRef)]
		if !ok {
			r.unresolved("port %q references unknown interface %q", a.Name, a.InterfaceRef)
			continue
		}
		setKey := scoped(swcID, a.Name)
		if _, ok := r.setPorts[setKey]; ok || a.Name == "" {
			continue
		}

		if id, ok := r.ports[setKey]; ok && r.portIface[id] == ifaceID {
			r.setPorts[setKey] = id
			continue
		}
		b := binding(swcID, a.Direction, ifaceID)
		if id, ok := r.bindings[b]; ok {
			r.setPorts[setKey] = id
			continue
		}

		name := r.freePortName(swcID, a)
		id := r.newID(artifact.KindPort)
		r.ports[scoped(swcID, name)] = id
		r.portIface[id] = ifaceID
		r.portName[id] = name
		r.bindings[b] = id
		r.setPorts[setKey] = id
		pl.ports = append(pl.ports, Port{
			ID:           id,
			Name:         name,
			Direction:    a.Direction,
			InterfaceRef: ifaceID,
			SWCID:        swcID,
		})
	}
}

// freePortName keeps the set's name when the component has no port by that
// name, else qualifies it with the interface stem and a counter if needed.
func (r *resolver) freePortName(swcID string, a artifact.Port) string {
	if _, taken := r.ports[scoped(swcID, a.Name)]; !taken {
		return a.Name
	}
	stem := requirement.InterfaceStem(a.InterfaceRef)
	name := artifact.PortName(a.SWCName, a.Direction, stem)
	for n := 2; ; n++ {
		if _, taken := r.ports[scoped(swcID, name)]; !taken {
			return name
		}
		name = artifact.PortName(a.SWCName, a.Direction, stem+strconv.Itoa(n))
	}
}

// port resolves a port name of a component, preferring the binding made for
// a port of the same name in this set.
func (r *resolver) port(swcID, name string) (string, bool) {
	if id, ok := r.setPorts[scoped(swcID, name)]; ok {
		return id, true
	}
	id, ok := r.ports[scoped(swcID, name)]
	return id, ok
}

// renamed reports the graph name of a port referenced as name, and whether
// it differs.
func (r *resolver) renamed(portID, name string) (string, bool) {
	actual := r.portName[portID]
	return actual, actual != "" && requirement.NameKey(actual) != requirement.NameKey(name)
}

// linkName keeps derived <source>_to_<target> names in step with renamed
// ports. Other names are returned unchanged.
func (r *resolver) linkName(name, srcName, srcPort, tgtName, tgtPort string) string {
	src, srcMoved := r.renamed(srcPort, srcName)
	tgt, tgtMoved := r.renamed(tgtPort, tgtName)
	if (!srcMoved && !tgtMoved) || name != srcName+"_to_"+tgtName {
		return name
	}
	return src + "_to_" + tgt
}

func (r *resolver) resolveAccessPoints(set *artifact.Set, pl *plan) {
	for _, a := range set.AccessPoints {
		swcID, ok := r.swcID(a.SWCName)
		if !ok {
			r.unresolved("access point %q references unknown SWC %q", a.Name, a.SWCName)
			continue
		}
		runID, ok := r.runnables[scoped(swcID, a.RunnableName)]
		if !ok {
			r.unresolved("access point %q references unknown runnable %q of SWC %q", a.Name, a.RunnableName, a.SWCName)
			continue
		}
		portID, ok := r.port(swcID, a.PortRef)
		if !ok {
			r.unresolved("access point %q references unknown port %q of SWC %q", a.Name, a.PortRef, a.SWCName)
			continue
		}
		elementID, ok := r.elements[scoped(r.portIface[portID], a.DataElementRef)]
		if !ok {
			r.unresolved("access point %q references data element %q missing from the interface of port %q", a.Name, a.DataElementRef, a.PortRef)
			continue
		}
		name := a.Name
		if actual, moved := r.renamed(portID, a.PortRef); moved {
			prefix := artifact.AccessPointPrefix(a.Type)
			if name == artifact.AccessPointName(prefix, a.RunnableName, a.PortRef, a.DataElementRef) {
				name = artifact.AccessPointName(prefix, a.RunnableName, actual, a.DataElementRef)
			}
		}
		key := scoped(runID, name)
		if r.apNames[key] || name == "" {
			continue
		}
		r.apNames[key] = true
		pl.accessPoints = append(pl.accessPoints, AccessPoint{
			ID:             r.newID(artifact.KindAccessPoint),
			Name:           name,
			Type:           a.Type,
			Access:         a.Access,
			SWCID:          swcID,
			RunnableID:     runID,
			PortRef:        portID,
			DataElementRef: elementID,
		})
	}
}

// endpoint resolves a SWC name and one of its port names.
func (r *resolver) endpoint(what, swcName, portName string) (swcID, portID string, ok bool) {
	swcID, ok = r.swcID(swcName)
	if !ok {
		r.unresolved("%s references unknown SWC %q", what, swcName)
		return "", "", false
	}
	portID, ok = r.port(swcID, portName)
	if !ok {
		r.unresolved("%s references unknown port %q of SWC %q", what, portName, swcName)
		return "", "", false
	}
	return swcID, portID, true
}

func (r *resolver) resolveConnections(set *artifact.Set, pl *plan) {
	for _, a := range set.Connections {
		what := fmt.Sprintf("connection %q", a.Name)
		srcSWC, srcPort, ok1 := r.endpoint(what, a.SourceSWC, a.SourcePort)
		tgtSWC, tgtPort, ok2 := r.endpoint(what, a.TargetSWC, a.TargetPort)
		if !ok1 || !ok2 {
			continue
		}
		name := r.linkName(a.Name, a.SourcePort, srcPort, a.TargetPort, tgtPort)
		key := requirement.NameKey(name)
		if r.conns[key] || name == "" {
			continue
		}
		r.conns[key] = true
		pl.connections = append(pl.connections, SWCConnection{
			ID:           r.newID(artifact.KindConnection),
			Name:         name,
			SourceSWCID:  srcSWC,
			SourcePortID: srcPort,
			TargetSWCID:  tgtSWC,
			TargetPortID: tgtPort,
		})
	}
}

func (r *resolver) resolveComposition(set *artifact.Set, pl *plan) {
	a := set.ECUComposition
	if a == nil || a.Name == "" {
		return
	}

	compID, exists := r.compositions[requirement.NameKey(a.Name)]
	newComp := -1
	if !exists {
		compID = r.newID(artifact.KindECUComposition)
		r.compositions[requirement.NameKey(a.Name)] = compID
		newComp = len(pl.compositions)
		pl.compositions = append(pl.compositions, ECUComposition{ID: compID, Name: a.Name})
	}

	for _, inst := range a.SWCInstances {
		swcID, ok := r.swcID(inst.SWCRef)
		if !ok {
			r.unresolved("instance %q references unknown SWC %q", inst.Name, inst.SWCRef)
			continue
		}
		key := scoped(compID, inst.Name)
		if _, ok := r.instances[key]; ok || inst.Name == "" {
			continue
		}
		id := r.newID(artifact.KindSWCInstance)
		r.instances[key] = id
		r.instanceSWC[id] = swcID
		instance := SWCInstance{ID: id, Name: inst.Name, SWCRef: swcID}
		if newComp >= 0 {
			pl.compositions[newComp].SWCInstances = append(pl.compositions[newComp].SWCInstances, instance)
		} else {
			pl.instances = append(pl.instances, pendingInstance{compositionID: compID, instance: instance})
		}
	}

	for _, c := range a.Connectors {
		srcInst, srcPort, ok1 := r.instancePort(compID, c.Name, c.SourceInstance, c.SourcePort)
		tgtInst, tgtPort, ok2 := r.instancePort(compID, c.Name, c.TargetInstance, c.TargetPort)
		if !ok1 || !ok2 {
			continue
		}
		name := r.linkName(c.Name, c.SourcePort, srcPort, c.TargetPort, tgtPort)
		key := scoped(compID, name)
		if r.connectors[key] || name == "" {
			continue
		}
		r.connectors[key] = true
		connector := Connector{
			ID:               r.newID(artifact.KindConnector),
			Name:             name,
			SourceInstanceID: srcInst,
			SourcePortID:     srcPort,
			TargetInstanceID: tgtInst,
			TargetPortID:     tgtPort,
		}
		if newComp >= 0 {
			pl.compositions[newComp].Connectors = append(pl.compositions[newComp].Connectors, connector)
		} else {
			pl.connectors = append(pl.connectors, pendingConnector{compositionID: compID, connector: connector})
		}
	}
}

// instancePort resolves an instance of a composition and a port of the SWC
// it instantiates.
func (r *resolver) instancePort(compID, connector, instance, port string) (instID, portID string, ok bool) {
	instID, ok = r.instances[scoped(compID, instance)]
	if !ok {
		r.unresolved("connector %q references unknown instance %q", connector, instance)
		return "", "", false
	}
	portID, ok = r.port(r.instanceSWC[instID], port)
	if !ok {
		r.unresolved("connector %q references unknown port %q of instance %q", connector, port, instance)
		return "", "", false
	}
	return instID, portID, true
}

// apply appends a resolved plan. It cannot fail.
func (s *Snapshot) apply(pl *plan) artifact.Counts {
	added := artifact.Counts{}

	s.SWCs = append(s.SWCs, pl.swcs...)
	added[artifact.KindSWC] = len(pl.swcs)

	for _, run := range pl.runnables {
		i := s.swcIndex(run.SWCID)
		s.SWCs[i].Runnables = append(s.SWCs[i].Runnables, run)
	}
	added[artifact.KindRunnable] = len(pl.runnables)

	for _, port := range pl.ports {
		i := s.swcIndex(port.SWCID)
		s.SWCs[i].Ports = append(s.SWCs[i].Ports, port)
	}
	added[artifact.KindPort] = len(pl.ports)

	for _, ap := range pl.accessPoints {
		i := s.swcIndex(ap.SWCID)
		j := runnableIndex(s.SWCs[i].Runnables, ap.RunnableID)
		s.SWCs[i].Runnables[j].AccessPoints = append(s.SWCs[i].Runnables[j].AccessPoints, ap)
	}
	added[artifact.KindAccessPoint] = len(pl.accessPoints)

	s.Interfaces = append(s.Interfaces, pl.interfaces...)
	added[artifact.KindInterface] = len(pl.interfaces)
	for _, iface := range pl.interfaces {
		added[artifact.KindDataElement] += len(iface.DataElements)
	}
	for _, pe := range pl.elements {
		i := s.interfaceIndex(pe.interfaceID)
		s.Interfaces[i].DataElements = append(s.Interfaces[i].DataElements, pe.element)
	}
	added[artifact.KindDataElement] += len(pl.elements)

	s.DataTypes = append(s.DataTypes, pl.dataTypes...)
	added[artifact.KindDataType] = len(pl.dataTypes)

	s.Connections = append(s.Connections, pl.connections...)
	added[artifact.KindConnection] = len(pl.connections)

	s.Compositions = append(s.Compositions, pl.compositions...)
	added[artifact.KindECUComposition] = len(pl.compositions)
	for _, comp := range pl.compositions {
		added[artifact.KindSWCInstance] += len(comp.SWCInstances)
		added[artifact.KindConnector] += len(comp.Connectors)
	}
	for _, pi := range pl.instances {
		i := s.compositionIndex(pi.compositionID)
		s.Compositions[i].SWCInstances = append(s.Compositions[i].SWCInstances, pi.instance)
	}
	added[artifact.KindSWCInstance] += len(pl.instances)
	for _, pc := range pl.connectors {
		i := s.compositionIndex(pc.compositionID)
		s.Compositions[i].Connectors = append(s.Compositions[i].Connectors, pc.connector)
	}
	added[artifact.KindConnector] += len(pl.connectors)

	return added
}
