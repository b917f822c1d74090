package requirement

import (
	"fmt"
	"log/slog"
	"strings"
)

// DefaultMinUnitLength is the shortest line treated as a requirement unit.
const DefaultMinUnitLength = 10

// DefaultSource labels documents parsed without an explicit source.
const DefaultSource = "text"

// Config holds extractor configuration.
type Config struct {
	// MinUnitLength is the minimum trimmed line length of a candidate unit.
	MinUnitLength int

	// Source labels every document produced by Parse.
	Source string
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() Config {
	return Config{
		MinUnitLength: DefaultMinUnitLength,
		Source:        DefaultSource,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.MinUnitLength <= 0 {
		return fmt.Errorf("MinUnitLength must be positive, got %d", c.MinUnitLength)
	}
	return nil
}

// Extractor turns raw requirement text into Documents. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	config Config
	logger *slog.Logger
}

// NewExtractor creates an Extractor. A zero MinUnitLength selects the defaults.
func NewExtractor(cfg Config, logger *slog.Logger) (*Extractor, error) {
	if cfg.MinUnitLength == 0 {
		cfg.MinUnitLength = DefaultMinUnitLength
	}
	if cfg.Source == "" {
		cfg.Source = DefaultSource
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{config: cfg, logger: logger}, nil
}

// MustNewExtractor creates an Extractor, panicking on invalid config.
func MustNewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	e, err := NewExtractor(cfg, logger)
	if err != nil {
		panic(err)
	}
	return e
}

// NewDefaultExtractor creates an Extractor with default configuration.
func NewDefaultExtractor() *Extractor {
	return MustNewExtractor(DefaultConfig(), nil)
}

// Parse extracts requirements from text using the configured source label.
func (e *Extractor) Parse(text string) []Document {
	return e.ParseSource(e.config.Source, text)
}

// ParseSource extracts requirements from text, labelling them with source.
// Units without any component, interface or signal are omitted; Parse never
// fails on content.
func (e *Extractor) ParseSource(source, text string) []Document {
	var docs []Document
	for i, unit := range e.Units(text) {
		doc, ok := parseUnit(unit)
		if !ok {
			e.logger.Debug("Skipping requirement unit without entities",
				"source", source, "unit", i+1)
			continue
		}
		n := len(docs) + 1
		doc.ID = fmt.Sprintf("REQ-%03d", n)
		doc.ShortName = fmt.Sprintf("Requirement_%03d", n)
		doc.Source = source
		docs = append(docs, doc)
	}
	return docs
}

// Units splits text into candidate requirement units: trimmed non-empty
// lines of at least MinUnitLength characters.
func (e *Extractor) Units(text string) []string {
	var units []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < e.config.MinUnitLength {
			continue
		}
		units = append(units, line)
	}
	return units
}

// parseUnit runs every pattern family over one unit. It reports false when
// the unit yields no component, interface or signal.
func parseUnit(unit string) (Document, bool) {
	lower := strings.ToLower(unit)

	components := extractComponents(unit)
	interfaces := extractInterfaces(unit, components)
	signals := extractSignals(unit)

	derived := DerivedElements{
		SWCs:       components,
		Interfaces: interfaces,
		Signals:    signals,
	}
	if derived.IsEmpty() {
		return Document{}, false
	}

	elements := extractTypedElements(unit)
	if len(elements) == 0 {
		elements = inferElements(signals)
	}

	doc := Document{
		Description:     unit,
		Category:        classifyCategory(lower),
		Priority:        classifyPriority(lower),
		DerivedElements: derived,
		Timing:          extractTiming(unit),
		ECUBehavior:     extractECU(unit, components),
	}

	direction := extractDirection(lower)
	if len(interfaces) > 0 || len(elements) > 0 {
		doc.Communication = &Communication{
			InterfaceType: extractInterfaceType(lower),
			Direction:     direction,
			DataElements:  elements,
		}
	}

	if len(components) >= 2 && len(interfaces) >= 1 {
		sender, receiver := Roles(components, direction)
		doc.DerivedElements.Ports = []string{ProvidedPortName(sender), RequiredPortName(receiver)}
	}
	for _, c := range components {
		doc.DerivedElements.Runnables = append(doc.DerivedElements.Runnables,
			InitRunnableName(c), MainRunnableName(c, doc.Timing))
	}

	return doc, true
}

// Roles picks the sending and receiving component among the first two
// components. The first component sends unless the text only talks about
// receiving, in which case the first-named component is the receiver.
func Roles(components []string, direction Direction) (sender, receiver string) {
	if len(components) < 2 {
		return "", ""
	}
	if direction == DirectionReceive {
		return components[1], components[0]
	}
	return components[0], components[1]
}
