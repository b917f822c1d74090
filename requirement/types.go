// Package requirement extracts structured engineering requirements from
// natural-language requirement text.
//
// Extraction is rule based: every candidate unit (one line of input) is run
// through independent pattern families for components, interfaces, signals,
// typed data elements, communication shape, timing and ECU behavior. A unit
// that yields no component, interface or signal is dropped without error.
package requirement

// Category classifies a requirement by keyword heuristics.
type Category string

// Requirement categories.
const (
	CategoryFunctional    Category = "FUNCTIONAL"
	CategoryNonFunctional Category = "NON_FUNCTIONAL"
	CategoryInterface     Category = "INTERFACE"
	CategoryConstraint    Category = "CONSTRAINT"
)

// Priority ranks a requirement by keyword heuristics.
type Priority string

// Requirement priorities.
const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// InterfaceType is the communication paradigm of a port interface.
type InterfaceType string

// Interface types.
const (
	InterfaceSenderReceiver InterfaceType = "sender-receiver"
	InterfaceClientServer   InterfaceType = "client-server"
	InterfaceMode           InterfaceType = "mode-switch"
	InterfaceParameter      InterfaceType = "parameter"
	InterfaceTrigger        InterfaceType = "trigger"
)

// Direction is the data flow direction stated by a requirement.
type Direction string

// Directions. An empty Direction means the text stated none.
const (
	DirectionSend    Direction = "send"
	DirectionReceive Direction = "receive"
	DirectionBoth    Direction = "both"
)

// TimingType is the activation kind of a runnable.
type TimingType string

// Timing types.
const (
	TimingPeriodic TimingType = "periodic"
	TimingEvent    TimingType = "event"
	TimingInit     TimingType = "init"
)

// Time units recognized by the timing family.
const (
	UnitMilliseconds = "ms"
	UnitSeconds      = "s"
)

// Document is one parsed requirement. It is immutable once returned by the
// extractor.
type Document struct {
	ID          string `json:"id" yaml:"id"`
	ShortName   string `json:"short_name" yaml:"short_name"`
	Description string `json:"description" yaml:"description"`
	Source      string `json:"source,omitempty" yaml:"source,omitempty"`

	Category Category `json:"category" yaml:"category"`
	Priority Priority `json:"priority" yaml:"priority"`

	DerivedElements DerivedElements `json:"derived_elements" yaml:"derived_elements"`

	Communication *Communication `json:"communication,omitempty" yaml:"communication,omitempty"`
	Timing        *Timing        `json:"timing,omitempty" yaml:"timing,omitempty"`
	ECUBehavior   *ECUBehavior   `json:"ecu_behavior,omitempty" yaml:"ecu_behavior,omitempty"`
}

// DerivedElements lists candidate entity names in order of first appearance.
type DerivedElements struct {
	SWCs       []string `json:"swcs" yaml:"swcs"`
	Interfaces []string `json:"interfaces" yaml:"interfaces"`
	Signals    []string `json:"signals" yaml:"signals"`
	Ports      []string `json:"ports,omitempty" yaml:"ports,omitempty"`
	Runnables  []string `json:"runnables,omitempty" yaml:"runnables,omitempty"`
}

// IsEmpty reports whether no component, interface or signal was found.
func (d DerivedElements) IsEmpty() bool {
	return len(d.SWCs) == 0 && len(d.Interfaces) == 0 && len(d.Signals) == 0
}

// DataElement is a typed data element named by a requirement.
type DataElement struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// Communication describes the interface shape a requirement implies.
type Communication struct {
	InterfaceType InterfaceType `json:"interface_type" yaml:"interface_type"`
	Direction     Direction     `json:"direction,omitempty" yaml:"direction,omitempty"`
	DataElements  []DataElement `json:"data_elements" yaml:"data_elements"`
}

// Timing is the activation stated by a requirement. Period and Unit are only
// set for periodic timing; Period is expressed in Unit.
type Timing struct {
	Type   TimingType `json:"type" yaml:"type"`
	Period int        `json:"period,omitempty" yaml:"period,omitempty"`
	Unit   string     `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// PeriodMillis returns the period converted to milliseconds.
func (t *Timing) PeriodMillis() int {
	if t == nil {
		return 0
	}
	if t.Unit == UnitSeconds {
		return t.Period * 1000
	}
	return t.Period
}

// ECUBehavior names the ECU a requirement deploys its components to.
type ECUBehavior struct {
	ECUName      string   `json:"ecu_name" yaml:"ecu_name"`
	SWCInstances []string `json:"swc_instances" yaml:"swc_instances"`
}
