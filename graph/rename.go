package graph

import (
	"fmt"
	"strings"

	"github.com/c360studio/swcgen/requirement"
)

// RenameSWC renames a component. Names are compared the way the synthesizer
// compares them, so another component spelled with a different suffix is a
// duplicate.
func (p *Project) RenameSWC(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.state.swcIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: SWC %s", ErrNotFound, id)
	}
	if j := p.state.swcIndexByName(name); j >= 0 && j != i {
		return fmt.Errorf("%w: SWC %q", ErrDuplicateName, name)
	}
	p.state.SWCs[i].Name = name
	return nil
}

// RenameInterface renames an interface. Ports reference interfaces by id and
// are unaffected.
func (p *Project) RenameInterface(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.state.interfaceIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: interface %s", ErrNotFound, id)
	}
	if j := p.state.interfaceIndexByName(name); j >= 0 && j != i {
		return fmt.Errorf("%w: interface %q", ErrDuplicateName, name)
	}
	p.state.Interfaces[i].Name = name
	return nil
}

// RenameDataType renames a data type and rewrites every data element that
// referenced the old name.
func (p *Project) RenameDataType(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	i := -1
	for k := range p.state.DataTypes {
		if p.state.DataTypes[k].ID == id {
			i = k
			break
		}
	}
	if i < 0 {
		return fmt.Errorf("%w: data type %s", ErrNotFound, id)
	}
	if j := p.state.dataTypeIndexByName(name); j >= 0 && j != i {
		return fmt.Errorf("%w: data type %q", ErrDuplicateName, name)
	}

	oldKey := requirement.NameKey(p.state.DataTypes[i].Name)
	p.state.DataTypes[i].Name = name
	for ii := range p.state.Interfaces {
		elements := p.state.Interfaces[ii].DataElements
		for ei := range elements {
			if requirement.NameKey(elements[ei].ApplicationDataTypeRef) == oldKey {
				elements[ei].ApplicationDataTypeRef = name
			}
		}
	}
	return nil
}
