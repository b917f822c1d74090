package graph

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/c360studio/swcgen/artifact"
	"github.com/c360studio/swcgen/requirement"
)

// Sentinel errors for graph operations.
var (
	ErrNotFound            = errors.New("entity not found")
	ErrDuplicateName       = errors.New("duplicate name")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrNilArtifactSet      = errors.New("nil artifact set")
	ErrEmptyName           = errors.New("name is required")
)

// Project is the live graph of one project. All operations on a Project are
// serialized by its lock; mutations hold it for the whole cascade.
type Project struct {
	mu     sync.RWMutex
	state  Snapshot
	newID  IDGenerator
	logger *slog.Logger
}

// Option configures a Project.
type Option func(*Project)

// WithLogger sets the logger used for cascade warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Project) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithIDGenerator replaces the uuid based id allocator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(p *Project) {
		if gen != nil {
			p.newID = gen
		}
	}
}

// NewProject creates an empty project graph.
func NewProject(name string, opts ...Option) *Project {
	return Restore(Snapshot{Name: name}, opts...)
}

// Restore rebuilds a project from a snapshot. The snapshot is copied.
func Restore(snap Snapshot, opts ...Option) *Project {
	p := &Project{
		state:  snap.Clone(),
		newID:  uuidGenerator,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the project name.
func (p *Project) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Name
}

// Snapshot returns a deep copy of the current graph.
func (p *Project) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Clone()
}

// Counts returns the number of entities per kind.
func (p *Project) Counts() artifact.Counts {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Counts()
}

// SWCByName looks a component up by name. Suffix spellings of the same
// component (sensor_swc, SensorController) match.
func (p *Project) SWCByName(name string) (SWC, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if i := p.state.swcIndexByName(name); i >= 0 {
		return cloneSWC(p.state.SWCs[i]), true
	}
	return SWC{}, false
}

// InterfaceByName looks an interface up by case-insensitive name.
func (p *Project) InterfaceByName(name string) (Interface, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if i := p.state.interfaceIndexByName(name); i >= 0 {
		iface := p.state.Interfaces[i]
		iface.DataElements = cloneSlice(iface.DataElements)
		return iface, true
	}
	return Interface{}, false
}

// DataTypeByName looks a data type up by case-insensitive name.
func (p *Project) DataTypeByName(name string) (DataType, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if i := p.state.dataTypeIndexByName(name); i >= 0 {
		return p.state.DataTypes[i], true
	}
	return DataType{}, false
}

// CompositionByName looks an ECU composition up by case-insensitive name.
func (p *Project) CompositionByName(name string) (ECUComposition, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if i := p.state.compositionIndexByName(name); i >= 0 {
		comp := p.state.Compositions[i]
		comp.SWCInstances = cloneSlice(comp.SWCInstances)
		comp.Connectors = cloneSlice(comp.Connectors)
		return comp, true
	}
	return ECUComposition{}, false
}

// Lookup helpers on the raw state. Callers hold the lock.

func (s *Snapshot) swcIndexByName(name string) int {
	key := requirement.ComponentKey(name)
	for i := range s.SWCs {
		if requirement.ComponentKey(s.SWCs[i].Name) == key {
			return i
		}
	}
	return -1
}

func (s *Snapshot) swcIndex(id string) int {
	for i := range s.SWCs {
		if s.SWCs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Snapshot) interfaceIndexByName(name string) int {
	key := requirement.NameKey(name)
	for i := range s.Interfaces {
		if requirement.NameKey(s.Interfaces[i].Name) == key {
			return i
		}
	}
	return -1
}

func (s *Snapshot) interfaceIndex(id string) int {
	for i := range s.Interfaces {
		if s.Interfaces[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Snapshot) dataTypeIndexByName(name string) int {
	key := requirement.NameKey(name)
	for i := range s.DataTypes {
		if requirement.NameKey(s.DataTypes[i].Name) == key {
			return i
		}
	}
	return -1
}

func (s *Snapshot) compositionIndexByName(name string) int {
	key := requirement.NameKey(name)
	for i := range s.Compositions {
		if requirement.NameKey(s.Compositions[i].Name) == key {
			return i
		}
	}
	return -1
}

func (s *Snapshot) compositionIndex(id string) int {
	for i := range s.Compositions {
		if s.Compositions[i].ID == id {
			return i
		}
	}
	return -1
}

// port returns the port with the given id and the index of its owner.
func (s *Snapshot) port(id string) (*Port, int) {
	for i := range s.SWCs {
		for j := range s.SWCs[i].Ports {
			if s.SWCs[i].Ports[j].ID == id {
				return &s.SWCs[i].Ports[j], i
			}
		}
	}
	return nil, -1
}

// dataElement returns the data element with the given id.
func (s *Snapshot) dataElement(id string) *DataElement {
	for i := range s.Interfaces {
		for j := range s.Interfaces[i].DataElements {
			if s.Interfaces[i].DataElements[j].ID == id {
				return &s.Interfaces[i].DataElements[j]
			}
		}
	}
	return nil
}

func portIndexByName(ports []Port, name string) int {
	key := requirement.NameKey(name)
	for i := range ports {
		if requirement.NameKey(ports[i].Name) == key {
			return i
		}
	}
	return -1
}

func portIndex(ports []Port, id string) int {
	for i := range ports {
		if ports[i].ID == id {
			return i
		}
	}
	return -1
}

func runnableIndexByName(runnables []Runnable, name string) int {
	key := requirement.NameKey(name)
	for i := range runnables {
		if requirement.NameKey(runnables[i].Name) == key {
			return i
		}
	}
	return -1
}

func runnableIndex(runnables []Runnable, id string) int {
	for i := range runnables {
		if runnables[i].ID == id {
			return i
		}
	}
	return -1
}
