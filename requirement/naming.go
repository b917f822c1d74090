package requirement

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Name suffixes used by canonical component and interface names.
const (
	SWCSuffix           = "_swc"
	ControllerSuffix    = "Controller"
	PortInterfaceSuffix = "_portinterface"
	InterfaceSuffix     = "Interface"
)

// DefaultInterfaceName is emitted when a unit talks about sending or receiving
// but names no interface.
const DefaultInterfaceName = "DefaultSenderReceiverInterface"

// NameKey is the comparison key for every name lookup: names that differ only
// in case are the same entity.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ComponentBase strips the _swc or Controller suffix from a component name.
func ComponentBase(name string) string {
	switch {
	case hasSuffixFold(name, SWCSuffix):
		return name[:len(name)-len(SWCSuffix)]
	case hasSuffixFold(name, ControllerSuffix) && len(name) > len(ControllerSuffix):
		return name[:len(name)-len(ControllerSuffix)]
	}
	return name
}

// ComponentKey identifies a logical component independent of case and of
// which suffix spelling was used, so sensor_swc and SensorController collide.
func ComponentKey(name string) string {
	return NameKey(ComponentBase(name))
}

// CanonicalComponentName turns a raw matched token into a component name.
// Names ending in _swc or Controller are kept. Names containing "controller"
// elsewhere are re-cased to <Base>Controller. Everything else gets _swc.
// Returns "" when nothing usable remains.
func CanonicalComponentName(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case hasSuffixFold(raw, SWCSuffix):
		return raw
	case strings.HasSuffix(raw, ControllerSuffix):
		return raw
	}
	lower := strings.ToLower(raw)
	if idx := strings.Index(lower, "controller"); idx >= 0 {
		base := raw[:idx] + raw[idx+len("controller"):]
		base = strings.Trim(base, "_- ")
		if base == "" {
			return ""
		}
		return upperFirst(base) + ControllerSuffix
	}
	return raw + SWCSuffix
}

// CanonicalSWCName is the synthesizer's canonicalization: Controller is
// appended unless the name already ends in _swc or Controller.
func CanonicalSWCName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || hasSuffixFold(name, SWCSuffix) || hasSuffixFold(name, ControllerSuffix) {
		return name
	}
	return name + ControllerSuffix
}

// PairInterfaceName is the canonical interface between two components.
func PairInterfaceName(first, second string) string {
	return ComponentBase(first) + "_" + ComponentBase(second) + PortInterfaceSuffix
}

// CanonicalInterfaceName normalizes a free-text interface token to end in
// Interface unless it already ends in _portinterface.
func CanonicalInterfaceName(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case hasSuffixFold(raw, PortInterfaceSuffix), strings.HasSuffix(raw, InterfaceSuffix):
		return raw
	}
	return raw + InterfaceSuffix
}

// InterfaceStem strips interface suffixes, used to disambiguate port names.
func InterfaceStem(name string) string {
	switch {
	case hasSuffixFold(name, PortInterfaceSuffix):
		return name[:len(name)-len(PortInterfaceSuffix)]
	case strings.HasSuffix(name, InterfaceSuffix) && len(name) > len(InterfaceSuffix):
		return name[:len(name)-len(InterfaceSuffix)]
	}
	return name
}

// ProvidedPortName names the provided port of a component.
func ProvidedPortName(component string) string {
	return ComponentBase(component) + "_ProvidedPort"
}

// RequiredPortName names the required port of a component.
func RequiredPortName(component string) string {
	return ComponentBase(component) + "_RequiredPort"
}

// InitRunnableName names the initialization runnable of a component.
func InitRunnableName(component string) string {
	return ComponentBase(component) + "_init"
}

// MainRunnableName names the timing-driven runnable of a component.
func MainRunnableName(component string, timing *Timing) string {
	base := ComponentBase(component)
	if timing != nil {
		switch timing.Type {
		case TimingPeriodic:
			return fmt.Sprintf("%s_%d%s", base, timing.Period, timing.Unit)
		case TimingEvent:
			return base + "_Event"
		}
	}
	return base + "_Main"
}

// TitleCase upper-cases the first letter and lower-cases the rest.
func TitleCase(s string) string {
	if s == "" {
		return s
	}
	return upperFirst(strings.ToLower(s))
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
