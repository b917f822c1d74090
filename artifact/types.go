// Package artifact synthesizes a deduplicated set of architecture artifacts
// from extracted requirements.
//
// Artifacts reference each other by name (ports name their owning component
// and interface, access points name their runnable, port and data element).
// The graph package resolves those names to identities when the set is
// integrated into a project.
package artifact

import "github.com/c360studio/swcgen/requirement"

// Kind names an artifact collection. Kinds are used as count keys and
// metric labels.
type Kind string

// Artifact kinds.
const (
	KindSWC            Kind = "swc"
	KindInterface      Kind = "interface"
	KindDataElement    Kind = "data_element"
	KindDataType       Kind = "data_type"
	KindPort           Kind = "port"
	KindRunnable       Kind = "runnable"
	KindAccessPoint    Kind = "access_point"
	KindConnection     Kind = "connection"
	KindECUComposition Kind = "ecu_composition"
	KindSWCInstance    Kind = "swc_instance"
	KindConnector      Kind = "connector"
)

// Kinds returns every kind in containment order.
func Kinds() []Kind {
	return []Kind{
		KindSWC, KindPort, KindRunnable, KindAccessPoint,
		KindInterface, KindDataElement, KindDataType,
		KindConnection, KindECUComposition, KindSWCInstance, KindConnector,
	}
}

// Counts maps a kind to a number of artifacts.
type Counts map[Kind]int

// Total sums every kind.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// SWCCategory is the component category inferred from requirement wording.
type SWCCategory string

// Component categories.
const (
	CategoryApplication    SWCCategory = "application"
	CategorySensorActuator SWCCategory = "sensor-actuator"
	CategoryComplexDriver  SWCCategory = "complex-driver"
	CategoryService        SWCCategory = "service"
	CategoryECUAbstraction SWCCategory = "ecu-abstraction"
)

// PortDirection is provided or required.
type PortDirection string

// Port directions.
const (
	PortProvided PortDirection = "provided"
	PortRequired PortDirection = "required"
)

// RunnableType is the activation kind of a runnable.
type RunnableType string

// Runnable types.
const (
	RunnableInit     RunnableType = "init"
	RunnablePeriodic RunnableType = "periodic"
	RunnableEvent    RunnableType = "event"
)

// AccessType is the RTE access of an access point.
type AccessType string

// Access point types.
const (
	AccessRead  AccessType = "iRead"
	AccessWrite AccessType = "iWrite"
	AccessCall  AccessType = "iCall"
)

// AccessMode is implicit or explicit RTE access.
type AccessMode string

// Access modes.
const (
	AccessImplicit AccessMode = "implicit"
	AccessExplicit AccessMode = "explicit"
)

// SWC is a synthesized software component.
type SWC struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Category    SWCCategory `json:"category" yaml:"category"`
	Type        string      `json:"type" yaml:"type"`
}

// Interface is a synthesized port interface.
type Interface struct {
	Name         string                    `json:"name" yaml:"name"`
	Type         requirement.InterfaceType `json:"type" yaml:"type"`
	DataElements []DataElement             `json:"data_elements" yaml:"data_elements"`
}

// SwDataDefProps carries the base and implementation type references of a
// data element.
type SwDataDefProps struct {
	BaseTypeRef               string `json:"base_type_ref" yaml:"base_type_ref"`
	ImplementationDataTypeRef string `json:"implementation_data_type_ref" yaml:"implementation_data_type_ref"`
}

// DataElement is a data element of an interface. ApplicationDataTypeRef
// names a data type; the graph creates the type when it is missing.
type DataElement struct {
	Name                   string         `json:"name" yaml:"name"`
	InterfaceRef           string         `json:"interface_ref" yaml:"interface_ref"`
	ApplicationDataTypeRef string         `json:"application_data_type_ref" yaml:"application_data_type_ref"`
	Category               string         `json:"category" yaml:"category"`
	SwDataDefProps         SwDataDefProps `json:"sw_data_def_props" yaml:"sw_data_def_props"`
}

// Port is a synthesized port. SWCName is a temporary foreign key.
type Port struct {
	Name         string        `json:"name" yaml:"name"`
	Direction    PortDirection `json:"direction" yaml:"direction"`
	InterfaceRef string        `json:"interface_ref" yaml:"interface_ref"`
	SWCName      string        `json:"swc_name" yaml:"swc_name"`
}

// Runnable is a synthesized runnable. Period is in milliseconds.
type Runnable struct {
	Name                     string       `json:"name" yaml:"name"`
	Period                   int          `json:"period" yaml:"period"`
	RunnableType             RunnableType `json:"runnable_type" yaml:"runnable_type"`
	CanBeInvokedConcurrently bool         `json:"can_be_invoked_concurrently" yaml:"can_be_invoked_concurrently"`
	SWCName                  string       `json:"swc_name" yaml:"swc_name"`
}

// AccessPoint is a runnable's access to a port's data element.
type AccessPoint struct {
	Name           string     `json:"name" yaml:"name"`
	Type           AccessType `json:"type" yaml:"type"`
	Access         AccessMode `json:"access" yaml:"access"`
	PortRef        string     `json:"port_ref" yaml:"port_ref"`
	DataElementRef string     `json:"data_element_ref" yaml:"data_element_ref"`
	RunnableName   string     `json:"runnable_name" yaml:"runnable_name"`
	SWCName        string     `json:"swc_name" yaml:"swc_name"`
}

// Connection links a provided port to a required port on another component.
type Connection struct {
	Name       string `json:"name" yaml:"name"`
	SourceSWC  string `json:"source_swc" yaml:"source_swc"`
	SourcePort string `json:"source_port" yaml:"source_port"`
	TargetSWC  string `json:"target_swc" yaml:"target_swc"`
	TargetPort string `json:"target_port" yaml:"target_port"`
}

// SWCInstance places a component in an ECU composition.
type SWCInstance struct {
	Name   string `json:"name" yaml:"name"`
	SWCRef string `json:"swc_ref" yaml:"swc_ref"`
}

// Connector links two instances of an ECU composition.
type Connector struct {
	Name           string `json:"name" yaml:"name"`
	SourceInstance string `json:"source_instance" yaml:"source_instance"`
	SourcePort     string `json:"source_port" yaml:"source_port"`
	TargetInstance string `json:"target_instance" yaml:"target_instance"`
	TargetPort     string `json:"target_port" yaml:"target_port"`
}

// ECUComposition is the deployment grouping implied by a requirement batch.
type ECUComposition struct {
	Name         string        `json:"name" yaml:"name"`
	SWCInstances []SWCInstance `json:"swc_instances" yaml:"swc_instances"`
	Connectors   []Connector   `json:"connectors,omitempty" yaml:"connectors,omitempty"`
}

// Set is the synthesizer output. A Set returned by the synthesizer is not
// modified afterwards and may be shared.
type Set struct {
	SWCs           []SWC           `json:"swcs" yaml:"swcs"`
	Interfaces     []Interface     `json:"interfaces" yaml:"interfaces"`
	DataElements   []DataElement   `json:"data_elements" yaml:"data_elements"`
	Ports          []Port          `json:"ports" yaml:"ports"`
	Runnables      []Runnable      `json:"runnables" yaml:"runnables"`
	AccessPoints   []AccessPoint   `json:"access_points" yaml:"access_points"`
	Connections    []Connection    `json:"connections,omitempty" yaml:"connections,omitempty"`
	ECUComposition *ECUComposition `json:"ecu_composition,omitempty" yaml:"ecu_composition,omitempty"`
}

// IsEmpty reports whether the set holds no artifact at all.
func (s *Set) IsEmpty() bool {
	return s == nil || s.Counts().Total() == 0
}

// Counts returns the number of artifacts per kind.
func (s *Set) Counts() Counts {
	c := Counts{}
	if s == nil {
		return c
	}
	c[KindSWC] = len(s.SWCs)
	c[KindInterface] = len(s.Interfaces)
	c[KindDataElement] = len(s.DataElements)
	c[KindPort] = len(s.Ports)
	c[KindRunnable] = len(s.Runnables)
	c[KindAccessPoint] = len(s.AccessPoints)
	c[KindConnection] = len(s.Connections)
	if s.ECUComposition != nil {
		c[KindECUComposition] = 1
		c[KindSWCInstance] = len(s.ECUComposition.SWCInstances)
		c[KindConnector] = len(s.ECUComposition.Connectors)
	}
	return c
}
