package artifact

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/c360studio/swcgen/requirement"
)

// Synthesizer defaults.
const (
	DefaultECUName         = "SystemECU"
	DefaultPeriodMillis    = 100
	DefaultBaseType        = "uint16"
	GenericElementName     = "DataElement"
	GenericElementBaseType = "uint32"
)

// swcTypes maps a component category to its AUTOSAR component type.
var swcTypes = map[SWCCategory]string{
	CategoryApplication:    "ApplicationSwComponentType",
	CategorySensorActuator: "SensorActuatorSwComponentType",
	CategoryComplexDriver:  "ComplexDeviceDriverSwComponentType",
	CategoryService:        "ServiceSwComponentType",
	CategoryECUAbstraction: "EcuAbstractionSwComponentType",
}

// categoryKeywords are scanned in order; the first hit decides.
var categoryKeywords = []struct {
	keywords []string
	category SWCCategory
}{
	{[]string{"sensor", "actuator"}, CategorySensorActuator},
	{[]string{"driver", "hardware"}, CategoryComplexDriver},
	{[]string{"service", "diagnostic"}, CategoryService},
	{[]string{"abstraction", "layer"}, CategoryECUAbstraction},
}

// Config holds synthesizer configuration.
type Config struct {
	// DefaultECU names the composition when no requirement names an ECU.
	DefaultECU string

	// DefaultPeriodMillis is the period of the main runnable when a
	// requirement states no timing.
	DefaultPeriodMillis int
}

// DefaultConfig returns the default synthesizer configuration.
func DefaultConfig() Config {
	return Config{
		DefaultECU:          DefaultECUName,
		DefaultPeriodMillis: DefaultPeriodMillis,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.DefaultECU == "" {
		return fmt.Errorf("DefaultECU is required")
	}
	if c.DefaultPeriodMillis <= 0 {
		return fmt.Errorf("DefaultPeriodMillis must be positive, got %d", c.DefaultPeriodMillis)
	}
	return nil
}

// Synthesizer turns requirements into an artifact Set. It holds no mutable
// state and is safe for concurrent use.
type Synthesizer struct {
	config Config
	logger *slog.Logger
}

// NewSynthesizer creates a Synthesizer. Zero fields select the defaults.
func NewSynthesizer(cfg Config, logger *slog.Logger) (*Synthesizer, error) {
	if cfg.DefaultECU == "" {
		cfg.DefaultECU = DefaultECUName
	}
	if cfg.DefaultPeriodMillis == 0 {
		cfg.DefaultPeriodMillis = DefaultPeriodMillis
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{config: cfg, logger: logger}, nil
}

// MustNewSynthesizer creates a Synthesizer, panicking on invalid config.
func MustNewSynthesizer(cfg Config, logger *slog.Logger) *Synthesizer {
	s, err := NewSynthesizer(cfg, logger)
	if err != nil {
		panic(err)
	}
	return s
}

// NewDefaultSynthesizer creates a Synthesizer with default configuration.
func NewDefaultSynthesizer() *Synthesizer {
	return MustNewSynthesizer(DefaultConfig(), nil)
}

// Generate synthesizes artifacts from requirements in input order. Creation
// is idempotent by name: an artifact that already exists is never appended
// twice, so overlapping requirements do not duplicate entities.
func (s *Synthesizer) Generate(reqs []requirement.Document) *Set {
	b := newBuilder(s.config)
	for i := range reqs {
		b.addRequirement(&reqs[i])
	}
	b.addComposition(reqs)

	s.logger.Debug("Synthesized artifacts",
		"requirements", len(reqs),
		"swcs", len(b.set.SWCs),
		"interfaces", len(b.set.Interfaces),
		"ports", len(b.set.Ports),
		"runnables", len(b.set.Runnables),
		"access_points", len(b.set.AccessPoints))

	return b.set
}

// builder accumulates one Set and the name indexes that make every step
// idempotent.
type builder struct {
	config Config
	set    *Set

	swcs       map[string]int // component key -> index in set.SWCs
	interfaces map[string]int // name key -> index in set.Interfaces

	portNames    map[string]bool   // component key|port key
	portBindings map[string]string // component key|direction|interface key -> port name
	swcPorts     map[string][]int  // component key -> indexes in set.Ports

	runnableNames map[string]bool  // component key|runnable key
	swcRunnables  map[string][]int // component key -> indexes in set.Runnables

	accessPoints map[string]bool // component key|access point key
	connections  map[string]bool // connection name key
}

func newBuilder(cfg Config) *builder {
	return &builder{
		config:        cfg,
		set:           &Set{},
		swcs:          make(map[string]int),
		interfaces:    make(map[string]int),
		portNames:     make(map[string]bool),
		portBindings:  make(map[string]string),
		swcPorts:      make(map[string][]int),
		runnableNames: make(map[string]bool),
		swcRunnables:  make(map[string][]int),
		accessPoints:  make(map[string]bool),
		connections:   make(map[string]bool),
	}
}

// addRequirement runs the per-requirement steps in their fixed order.
func (b *builder) addRequirement(req *requirement.Document) {
	components := b.addComponents(req)
	interfaces := b.addInterfaces(req)
	b.addPorts(req, components, interfaces)
	for _, c := range components {
		b.addRunnables(c, req.Timing)
	}
	for _, c := range components {
		b.addAccessPoints(c)
	}
}

// addComponents appends missing components and returns the set spelling of
// every component the requirement references.
func (b *builder) addComponents(req *requirement.Document) []string {
	category := inferCategory(req.Description)
	var names []string
	seen := make(map[string]bool)
	for _, raw := range req.DerivedElements.SWCs {
		name := requirement.CanonicalSWCName(raw)
		if name == "" {
			continue
		}
		key := requirement.ComponentKey(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		if idx, ok := b.swcs[key]; ok {
			names = append(names, b.set.SWCs[idx].Name)
			continue
		}
		base := requirement.ComponentBase(name)
		b.swcs[key] = len(b.set.SWCs)
		b.set.SWCs = append(b.set.SWCs, SWC{
			Name:        name,
			Description: fmt.Sprintf("%s software component derived from requirement %s", base, req.ID),
			Category:    category,
			Type:        swcTypes[category],
		})
		names = append(names, name)
	}
	return names
}

// addInterfaces appends missing interfaces with their data elements and
// returns the set spelling of every interface the requirement references.
func (b *builder) addInterfaces(req *requirement.Document) []string {
	ifaceType := requirement.InterfaceSenderReceiver
	if req.Communication != nil && req.Communication.InterfaceType != "" {
		ifaceType = req.Communication.InterfaceType
	}

	var names []string
	for _, name := range req.DerivedElements.Interfaces {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := requirement.NameKey(name)
		if idx, ok := b.interfaces[key]; ok {
			names = append(names, b.set.Interfaces[idx].Name)
			continue
		}
		elements := dataElementsFor(req, name)
		b.interfaces[key] = len(b.set.Interfaces)
		b.set.Interfaces = append(b.set.Interfaces, Interface{
			Name:         name,
			Type:         ifaceType,
			DataElements: elements,
		})
		b.set.DataElements = append(b.set.DataElements, elements...)
		names = append(names, name)
	}
	return names
}

// dataElementsFor prefers explicit data elements, then one element per
// signal, then a single generic element.
func dataElementsFor(req *requirement.Document, ifaceName string) []DataElement {
	var out []DataElement
	seen := make(map[string]bool)
	add := func(name, baseType, category string) {
		key := requirement.NameKey(name)
		if name == "" || seen[key] {
			return
		}
		seen[key] = true
		if baseType == "" {
			baseType = DefaultBaseType
		}
		if category == "" {
			category = elementCategory(baseType)
		}
		out = append(out, newDataElement(ifaceName, name, baseType, category))
	}

	switch {
	case req.Communication != nil && len(req.Communication.DataElements) > 0:
		for _, de := range req.Communication.DataElements {
			add(de.Name, de.Type, de.Category)
		}
	case len(req.DerivedElements.Signals) > 0:
		for _, sig := range req.DerivedElements.Signals {
			add(sig, DefaultBaseType, "")
		}
	default:
		add(GenericElementName, GenericElementBaseType, "")
	}
	return out
}

func newDataElement(ifaceName, name, baseType, category string) DataElement {
	return DataElement{
		Name:                   name,
		InterfaceRef:           ifaceName,
		ApplicationDataTypeRef: baseType,
		Category:               category,
		SwDataDefProps: SwDataDefProps{
			BaseTypeRef:               baseType,
			ImplementationDataTypeRef: baseType,
		},
	}
}

func elementCategory(baseType string) string {
	if baseType == "boolean" {
		return "BOOLEAN"
	}
	return "VALUE"
}

// addPorts attaches the requirement's first interface to its components.
func (b *builder) addPorts(req *requirement.Document, components, interfaces []string) {
	if len(components) == 0 || len(interfaces) == 0 {
		return
	}
	iface := interfaces[0]

	var direction requirement.Direction
	if req.Communication != nil {
		direction = req.Communication.Direction
	}

	if len(components) >= 2 {
		sender, receiver := requirement.Roles(components, direction)
		provided := b.addPort(sender, PortProvided, iface)
		required := b.addPort(receiver, PortRequired, iface)
		if provided != "" && required != "" {
			b.addConnection(sender, provided, receiver, required)
		}
		return
	}

	c := components[0]
	switch direction {
	case requirement.DirectionBoth:
		b.addPort(c, PortProvided, iface)
		b.addPort(c, PortRequired, iface)
	case requirement.DirectionReceive:
		b.addPort(c, PortRequired, iface)
	default:
		b.addPort(c, PortProvided, iface)
	}
}

// addPort returns the name of the port binding component, direction and
// interface, creating it when needed. The short name <base>_ProvidedPort is
// used unless another interface already took it on that component.
func (b *builder) addPort(component string, dir PortDirection, iface string) string {
	ckey := requirement.ComponentKey(component)
	binding := ckey + "|" + string(dir) + "|" + requirement.NameKey(iface)
	if name, ok := b.portBindings[binding]; ok {
		return name
	}

	name := PortName(component, dir, "")
	if b.portNames[ckey+"|"+requirement.NameKey(name)] {
		name = PortName(component, dir, requirement.InterfaceStem(iface))
		if b.portNames[ckey+"|"+requirement.NameKey(name)] {
			return ""
		}
	}

	b.portNames[ckey+"|"+requirement.NameKey(name)] = true
	b.portBindings[binding] = name
	b.swcPorts[ckey] = append(b.swcPorts[ckey], len(b.set.Ports))
	b.set.Ports = append(b.set.Ports, Port{
		Name:         name,
		Direction:    dir,
		InterfaceRef: iface,
		SWCName:      component,
	})
	return name
}

// PortName is <base>_ProvidedPort or <base>_RequiredPort, qualified as
// <base>_<stem>_ProvidedPort when stem is set.
func PortName(component string, dir PortDirection, stem string) string {
	name := requirement.ProvidedPortName(component)
	if dir == PortRequired {
		name = requirement.RequiredPortName(component)
	}
	if stem == "" {
		return name
	}
	base := requirement.ComponentBase(component)
	return base + "_" + stem + strings.TrimPrefix(name, base)
}

func (b *builder) addConnection(source, sourcePort, target, targetPort string) {
	name := sourcePort + "_to_" + targetPort
	key := requirement.NameKey(name)
	if b.connections[key] {
		return
	}
	b.connections[key] = true
	b.set.Connections = append(b.set.Connections, Connection{
		Name:       name,
		SourceSWC:  source,
		SourcePort: sourcePort,
		TargetSWC:  target,
		TargetPort: targetPort,
	})
}

// addRunnables gives a component its init runnable and one main runnable
// driven by timing.
func (b *builder) addRunnables(component string, timing *requirement.Timing) {
	b.addRunnable(component, Runnable{
		Name:         requirement.InitRunnableName(component),
		RunnableType: RunnableInit,
	})

	main := Runnable{
		Name:         requirement.MainRunnableName(component, timing),
		RunnableType: RunnablePeriodic,
		Period:       b.config.DefaultPeriodMillis,
	}
	if timing != nil {
		switch timing.Type {
		case requirement.TimingPeriodic:
			main.Period = timing.PeriodMillis()
		case requirement.TimingEvent:
			main.RunnableType = RunnableEvent
			main.Period = 0
		}
	}
	b.addRunnable(component, main)
}

func (b *builder) addRunnable(component string, r Runnable) {
	ckey := requirement.ComponentKey(component)
	key := ckey + "|" + requirement.NameKey(r.Name)
	if b.runnableNames[key] {
		return
	}
	b.runnableNames[key] = true
	r.SWCName = component
	b.swcRunnables[ckey] = append(b.swcRunnables[ckey], len(b.set.Runnables))
	b.set.Runnables = append(b.set.Runnables, r)
}

// addAccessPoints generates one access point per port and non-init runnable
// of the component. Only the first data element of the port's interface is
// accessed.
func (b *builder) addAccessPoints(component string) {
	ckey := requirement.ComponentKey(component)
	for _, pi := range b.swcPorts[ckey] {
		port := b.set.Ports[pi]
		idx, ok := b.interfaces[requirement.NameKey(port.InterfaceRef)]
		if !ok || len(b.set.Interfaces[idx].DataElements) == 0 {
			continue
		}
		element := b.set.Interfaces[idx].DataElements[0].Name

		apType := AccessWrite
		if port.Direction == PortRequired {
			apType = AccessRead
		}
		prefix := AccessPointPrefix(apType)

		for _, ri := range b.swcRunnables[ckey] {
			r := b.set.Runnables[ri]
			if r.RunnableType == RunnableInit {
				continue
			}
			name := AccessPointName(prefix, r.Name, port.Name, element)
			key := ckey + "|" + requirement.NameKey(name)
			if b.accessPoints[key] {
				continue
			}
			b.accessPoints[key] = true
			b.set.AccessPoints = append(b.set.AccessPoints, AccessPoint{
				Name:           name,
				Type:           apType,
				Access:         AccessImplicit,
				PortRef:        port.Name,
				DataElementRef: element,
				RunnableName:   r.Name,
				SWCName:        component,
			})
		}
	}
}

// AccessPointPrefix is the RTE call prefix of an access type.
func AccessPointPrefix(t AccessType) string {
	if t == AccessRead {
		return "IRead"
	}
	return "IWrite"
}

// AccessPointName is Rte_<IWrite|IRead>_<runnable>_<port>_<element>.
func AccessPointName(prefix, runnable, port, element string) string {
	return fmt.Sprintf("Rte_%s_%s_%s_%s", prefix, runnable, port, element)
}

// addComposition derives the ECU composition over the whole batch. The
// first ECU named by any requirement wins.
func (b *builder) addComposition(reqs []requirement.Document) {
	if len(b.set.SWCs) == 0 {
		return
	}
	ecu := b.config.DefaultECU
	for _, req := range reqs {
		if req.ECUBehavior != nil && req.ECUBehavior.ECUName != "" {
			ecu = req.ECUBehavior.ECUName
			break
		}
	}

	comp := &ECUComposition{Name: ecu}
	for _, swc := range b.set.SWCs {
		comp.SWCInstances = append(comp.SWCInstances, SWCInstance{
			Name:   InstanceName(swc.Name),
			SWCRef: swc.Name,
		})
	}
	for _, conn := range b.set.Connections {
		comp.Connectors = append(comp.Connectors, Connector{
			Name:           conn.Name,
			SourceInstance: InstanceName(conn.SourceSWC),
			SourcePort:     conn.SourcePort,
			TargetInstance: InstanceName(conn.TargetSWC),
			TargetPort:     conn.TargetPort,
		})
	}
	b.set.ECUComposition = comp
}

// InstanceName names the composition instance of a component.
func InstanceName(swc string) string {
	return swc + "Instance"
}

func inferCategory(description string) SWCCategory {
	lower := strings.ToLower(description)
	for _, rule := range categoryKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return CategoryApplication
}
