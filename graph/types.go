// Package graph holds the live project graph: identified architecture
// entities, the integration of synthesized artifact sets, referential
// validation and cascading deletion.
//
// Ownership is by composition. A SWC owns its ports and runnables, a runnable
// owns its access points, an interface owns its data elements and an ECU
// composition owns its instances and connectors. Every other reference is a
// lookup by id, except DataElement.ApplicationDataTypeRef which names a
// DataType by name.
package graph

import (
	"github.com/c360studio/swcgen/artifact"
	"github.com/c360studio/swcgen/requirement"
)

// SWC is a software component of the project.
type SWC struct {
	ID          string               `json:"id" yaml:"id"`
	Name        string               `json:"name" yaml:"name"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Category    artifact.SWCCategory `json:"category,omitempty" yaml:"category,omitempty"`
	Type        string               `json:"type,omitempty" yaml:"type,omitempty"`
	Ports       []Port               `json:"ports" yaml:"ports"`
	Runnables   []Runnable           `json:"runnables" yaml:"runnables"`
}

// Port is owned by a SWC. InterfaceRef holds an interface id.
type Port struct {
	ID           string                 `json:"id" yaml:"id"`
	Name         string                 `json:"name" yaml:"name"`
	Direction    artifact.PortDirection `json:"direction" yaml:"direction"`
	InterfaceRef string                 `json:"interface_ref" yaml:"interface_ref"`
	SWCID        string                 `json:"swc_id" yaml:"swc_id"`
}

// Interface is a port interface with its data elements.
type Interface struct {
	ID           string                    `json:"id" yaml:"id"`
	Name         string                    `json:"name" yaml:"name"`
	Type         requirement.InterfaceType `json:"type" yaml:"type"`
	DataElements []DataElement             `json:"data_elements" yaml:"data_elements"`
}

// DataType is an application data type, referenced by name.
type DataType struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
	BaseType string `json:"base_type" yaml:"base_type"`
}

// DataElement is owned by an interface.
type DataElement struct {
	ID                     string                  `json:"id" yaml:"id"`
	Name                   string                  `json:"name" yaml:"name"`
	ApplicationDataTypeRef string                  `json:"application_data_type_ref" yaml:"application_data_type_ref"`
	Category               string                  `json:"category,omitempty" yaml:"category,omitempty"`
	SwDataDefProps         artifact.SwDataDefProps `json:"sw_data_def_props" yaml:"sw_data_def_props"`
}

// Runnable is owned by a SWC. Period is in milliseconds.
type Runnable struct {
	ID                       string                `json:"id" yaml:"id"`
	Name                     string                `json:"name" yaml:"name"`
	SWCID                    string                `json:"swc_id" yaml:"swc_id"`
	RunnableType             artifact.RunnableType `json:"runnable_type" yaml:"runnable_type"`
	Period                   int                   `json:"period" yaml:"period"`
	CanBeInvokedConcurrently bool                  `json:"can_be_invoked_concurrently" yaml:"can_be_invoked_concurrently"`
	AccessPoints             []AccessPoint         `json:"access_points" yaml:"access_points"`
}

// AccessPoint is owned by a runnable. PortRef and DataElementRef hold ids.
type AccessPoint struct {
	ID             string              `json:"id" yaml:"id"`
	Name           string              `json:"name" yaml:"name"`
	Type           artifact.AccessType `json:"type" yaml:"type"`
	Access         artifact.AccessMode `json:"access" yaml:"access"`
	SWCID          string              `json:"swc_id" yaml:"swc_id"`
	RunnableID     string              `json:"runnable_id" yaml:"runnable_id"`
	PortRef        string              `json:"port_ref" yaml:"port_ref"`
	DataElementRef string              `json:"data_element_ref" yaml:"data_element_ref"`
}

// SWCConnection links a port of one SWC to a port of another.
type SWCConnection struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	SourceSWCID  string `json:"source_swc_id" yaml:"source_swc_id"`
	SourcePortID string `json:"source_port_id" yaml:"source_port_id"`
	TargetSWCID  string `json:"target_swc_id" yaml:"target_swc_id"`
	TargetPortID string `json:"target_port_id" yaml:"target_port_id"`
}

// SWCInstance places a SWC in a composition. SWCRef holds a SWC id.
type SWCInstance struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	SWCRef string `json:"swc_ref" yaml:"swc_ref"`
}

// Connector links ports of two instances of the same composition.
type Connector struct {
	ID               string `json:"id" yaml:"id"`
	Name             string `json:"name" yaml:"name"`
	SourceInstanceID string `json:"source_instance_id" yaml:"source_instance_id"`
	SourcePortID     string `json:"source_port_id" yaml:"source_port_id"`
	TargetInstanceID string `json:"target_instance_id" yaml:"target_instance_id"`
	TargetPortID     string `json:"target_port_id" yaml:"target_port_id"`
}

// ECUComposition groups SWC instances deployed together.
type ECUComposition struct {
	ID           string        `json:"id" yaml:"id"`
	Name         string        `json:"name" yaml:"name"`
	SWCInstances []SWCInstance `json:"swc_instances" yaml:"swc_instances"`
	Connectors   []Connector   `json:"connectors" yaml:"connectors"`
}

// Snapshot is a detached copy of a project graph. It is the unit of
// persistence and export.
type Snapshot struct {
	Name         string           `json:"name" yaml:"name"`
	SWCs         []SWC            `json:"swcs" yaml:"swcs"`
	Interfaces   []Interface      `json:"interfaces" yaml:"interfaces"`
	DataTypes    []DataType       `json:"data_types" yaml:"data_types"`
	Connections  []SWCConnection  `json:"connections" yaml:"connections"`
	Compositions []ECUComposition `json:"compositions" yaml:"compositions"`
}

// Counts returns the number of entities per kind.
func (s *Snapshot) Counts() artifact.Counts {
	c := artifact.Counts{
		artifact.KindSWC:            len(s.SWCs),
		artifact.KindInterface:      len(s.Interfaces),
		artifact.KindDataType:       len(s.DataTypes),
		artifact.KindConnection:     len(s.Connections),
		artifact.KindECUComposition: len(s.Compositions),
	}
	for _, swc := range s.SWCs {
		c[artifact.KindPort] += len(swc.Ports)
		c[artifact.KindRunnable] += len(swc.Runnables)
		for _, r := range swc.Runnables {
			c[artifact.KindAccessPoint] += len(r.AccessPoints)
		}
	}
	for _, iface := range s.Interfaces {
		c[artifact.KindDataElement] += len(iface.DataElements)
	}
	for _, comp := range s.Compositions {
		c[artifact.KindSWCInstance] += len(comp.SWCInstances)
		c[artifact.KindConnector] += len(comp.Connectors)
	}
	return c
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() Snapshot {
	out := Snapshot{
		Name:        s.Name,
		DataTypes:   cloneSlice(s.DataTypes),
		Connections: cloneSlice(s.Connections),
	}
	for _, swc := range s.SWCs {
		out.SWCs = append(out.SWCs, cloneSWC(swc))
	}
	for _, iface := range s.Interfaces {
		iface.DataElements = cloneSlice(iface.DataElements)
		out.Interfaces = append(out.Interfaces, iface)
	}
	for _, comp := range s.Compositions {
		comp.SWCInstances = cloneSlice(comp.SWCInstances)
		comp.Connectors = cloneSlice(comp.Connectors)
		out.Compositions = append(out.Compositions, comp)
	}
	return out
}

func cloneSWC(swc SWC) SWC {
	swc.Ports = cloneSlice(swc.Ports)
	swc.Runnables = cloneSlice(swc.Runnables)
	for i := range swc.Runnables {
		swc.Runnables[i].AccessPoints = cloneSlice(swc.Runnables[i].AccessPoints)
	}
	return swc
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
