package requirement

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// minTokenLength is the shortest raw token accepted as an entity name.
const minTokenLength = 3

const (
	identPattern    = `[A-Za-z][A-Za-z0-9_]*`
	articlePattern  = `(?:(?:a|an|the)\s+)?`
	baseTypePattern = `uint8|uint16|uint32|uint64|int8|int16|int32|int64|boolean|float|double`
	unitPattern     = `(milliseconds?|msecs?|ms|seconds?|secs?|s)\b`
)

// Component name patterns.
var (
	swcSuffixPattern         = regexp.MustCompile(`\b(` + identPattern + `_(?i:swc))\b`)
	controllerPattern        = regexp.MustCompile(`\b(` + identPattern + `Controller)\b`)
	spacedControllerPattern  = regexp.MustCompile(`\b(` + identPattern + `)\s+(?i:controller)\b`)
	softwareComponentPattern = regexp.MustCompile(`(?i)\bsoftware\s+component\s+(` + identPattern + `)`)
	modalVerbPattern         = regexp.MustCompile(`\b(` + identPattern + `)\s+(?i:shall|must|will)\b`)
	implementPattern         = regexp.MustCompile(`(?i)\bimplement(?:s|ed|ing)?\s+` + articlePattern + `(` + identPattern + `)`)
)

// Interface name patterns.
var (
	namedInterfacePattern = regexp.MustCompile(`\b(` + identPattern + `)\s+(?i:interface)\b`)
	viaPattern            = regexp.MustCompile(`(?i)\bvia\s+` + articlePattern + `(` + identPattern + `)`)
	usingInterfacePattern = regexp.MustCompile(`(?i)\busing\s+` + articlePattern + `(` + identPattern + `)\s+interface\b`)
)

// Signal patterns.
var (
	signalPattern      = regexp.MustCompile(`\b(` + identPattern + `)\s+(?i:signals?)\b`)
	sendValuePattern   = regexp.MustCompile(`(?i)\b(?:send|sends|sending|sent|receive|receives|receiving|received)\s+` + articlePattern + `(` + identPattern + `)`)
	dataPattern        = regexp.MustCompile(`\b(` + identPattern + `)\s+(?i:data)\b`)
	valuePattern       = regexp.MustCompile(`\b(` + identPattern + `)\s+(?i:values?)\b`)
	measurementPattern = regexp.MustCompile(`(?i)\b(temperature|pressure|speed|voltage|current)\b`)
)

// Typed data element patterns.
var (
	ofTypePattern     = regexp.MustCompile(`\b(` + identPattern + `)\s+(?i:(?:shall\s+be\s+of\s+|is\s+of\s+|of\s+)?type)\s+(` + baseTypePattern + `)\b`)
	parenTypePattern  = regexp.MustCompile(`\b(` + identPattern + `)\s*\(\s*(` + baseTypePattern + `)\s*\)`)
	prefixTypePattern = regexp.MustCompile(`\b(` + baseTypePattern + `)\s+(` + identPattern + `)`)
)

// Timing patterns, tried in order.
var timingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bevery\s+(\d+)\s*` + unitPattern),
	regexp.MustCompile(`(?i)\b(\d+)\s*` + unitPattern + `\s+period`),
	regexp.MustCompile(`(?i)\bperiod\s+of\s+(\d+)\s*` + unitPattern),
	regexp.MustCompile(`(?i)\btransmission\s+period\s+of\s+(\d+)\s*` + unitPattern),
}

// ECU patterns, tried in order.
var ecuPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bECU\s+(` + identPattern + `)`),
	regexp.MustCompile(`\b(` + identPattern + `)\s+ECU\b`),
	regexp.MustCompile(`\b(` + identPattern + `(?:ControlUnit|Controller))\b`),
}

var (
	eventKeywordPattern = regexp.MustCompile(`(?i)event|trigger`)
	initKeywordPattern  = regexp.MustCompile(`(?i)init|startup`)
)

// stopwords are function words that the greedy identifier patterns pick up
// in front of "shall", "interface", "value" and so on.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "this": true, "that": true, "these": true,
	"those": true, "it": true, "its": true, "they": true, "which": true, "who": true,
	"and": true, "or": true, "not": true, "also": true, "there": true, "then": true,
	"to": true, "from": true, "of": true, "on": true, "in": true, "at": true,
	"by": true, "for": true, "with": true, "via": true, "into": true, "each": true,
	"all": true, "any": true, "shall": true, "must": true, "will": true,
	"should": true, "may": true, "can": true, "be": true, "is": true, "are": true,
	"we": true, "you": true, "he": true, "she": true, "type": true,
}

// genericNouns never name a signal on their own.
var genericNouns = map[string]bool{
	"signal": true, "signals": true, "data": true, "value": true, "values": true,
	"message": true, "messages": true, "information": true, "interface": true,
}

// interfaceNoise never names an interface on their own.
var interfaceNoise = map[string]bool{
	"port": true, "communication": true, "software": true,
}

// candidate is one raw pattern match and its byte offset in the unit.
type candidate struct {
	value string
	pos   int
}

// family extracts raw candidates for one entity category.
type family func(text string) []candidate

// patternFamily returns a family yielding capture group n of every match.
func patternFamily(re *regexp.Regexp, group int) family {
	return func(text string) []candidate {
		var out []candidate
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[2*group], m[2*group+1]
			if start < 0 {
				continue
			}
			out = append(out, candidate{value: text[start:end], pos: start})
		}
		return out
	}
}

// spacedControllerFamily folds the word before a separate "controller"
// into the token, so "engine controller" yields engine_controller.
func spacedControllerFamily(text string) []candidate {
	var out []candidate
	for _, m := range spacedControllerPattern.FindAllStringSubmatchIndex(text, -1) {
		word := text[m[2]:m[3]]
		if stopwords[strings.ToLower(word)] || hasSuffixFold(word, SWCSuffix) {
			continue
		}
		out = append(out, candidate{value: word + "_controller", pos: m[2]})
	}
	return out
}

var componentFamilies = []family{
	patternFamily(swcSuffixPattern, 1),
	patternFamily(controllerPattern, 1),
	spacedControllerFamily,
	patternFamily(softwareComponentPattern, 1),
	patternFamily(modalVerbPattern, 1),
	patternFamily(implementPattern, 1),
}

var interfaceFamilies = []family{
	patternFamily(namedInterfacePattern, 1),
	patternFamily(viaPattern, 1),
	patternFamily(usingInterfacePattern, 1),
}

var signalFamilies = []family{
	patternFamily(signalPattern, 1),
	patternFamily(sendValuePattern, 1),
	patternFamily(dataPattern, 1),
	patternFamily(valuePattern, 1),
	patternFamily(measurementPattern, 1),
}

// union runs every family, orders the candidates by first appearance, drops
// rejected tokens, canonicalizes and removes duplicates by NameKey.
func union(text string, families []family, accept func(string) bool, canon func(string) string) []string {
	var all []candidate
	for _, f := range families {
		all = append(all, f(text)...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].pos < all[j].pos })

	seen := make(map[string]bool)
	var out []string
	for _, c := range all {
		if !accept(c.value) {
			continue
		}
		name := canon(c.value)
		if name == "" {
			continue
		}
		key := NameKey(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

func acceptToken(tok string) bool {
	return len(tok) >= minTokenLength && !stopwords[strings.ToLower(tok)]
}

// extractComponents finds component names in a unit.
func extractComponents(text string) []string {
	return union(text, componentFamilies, acceptToken, CanonicalComponentName)
}

// extractInterfaces finds interface names in a unit given its components.
func extractInterfaces(text string, components []string) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if key := NameKey(name); !seen[key] {
			seen[key] = true
			names = append(names, name)
		}
	}

	if len(components) >= 2 {
		add(PairInterfaceName(components[0], components[1]))
	}

	accept := func(tok string) bool {
		lower := strings.ToLower(tok)
		if strings.Contains(lower, "sender") || strings.Contains(lower, "receiver") {
			return false
		}
		return acceptToken(tok) && !interfaceNoise[lower]
	}
	for _, name := range union(text, interfaceFamilies, accept, CanonicalInterfaceName) {
		add(name)
	}

	if len(names) == 0 {
		lower := strings.ToLower(text)
		if strings.Contains(lower, "send") || strings.Contains(lower, "receive") {
			add(DefaultInterfaceName)
		}
	}
	return names
}

// extractSignals finds signal names in a unit, title-cased.
func extractSignals(text string) []string {
	accept := func(tok string) bool {
		lower := strings.ToLower(tok)
		if genericNouns[lower] || hasSuffixFold(tok, SWCSuffix) || strings.HasSuffix(tok, ControllerSuffix) {
			return false
		}
		return acceptToken(tok)
	}
	return union(text, signalFamilies, accept, TitleCase)
}

// extractTypedElements finds data elements with an explicit base type.
func extractTypedElements(text string) []DataElement {
	type typed struct {
		name, baseType string
		pos            int
	}
	var all []typed
	for _, m := range ofTypePattern.FindAllStringSubmatchIndex(text, -1) {
		all = append(all, typed{name: text[m[2]:m[3]], baseType: text[m[4]:m[5]], pos: m[2]})
	}
	for _, m := range parenTypePattern.FindAllStringSubmatchIndex(text, -1) {
		all = append(all, typed{name: text[m[2]:m[3]], baseType: text[m[4]:m[5]], pos: m[2]})
	}
	for _, m := range prefixTypePattern.FindAllStringSubmatchIndex(text, -1) {
		all = append(all, typed{name: text[m[4]:m[5]], baseType: text[m[2]:m[3]], pos: m[0]})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].pos < all[j].pos })

	seen := make(map[string]bool)
	var out []DataElement
	for _, t := range all {
		if !acceptToken(t.name) || isBaseType(t.name) {
			continue
		}
		key := NameKey(t.name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, DataElement{Name: t.name, Type: t.baseType, Category: typeCategory(t.baseType)})
	}
	return out
}

// inferElements types each signal with the inference table.
func inferElements(signals []string) []DataElement {
	out := make([]DataElement, 0, len(signals))
	for _, s := range signals {
		t := InferBaseType(s)
		out = append(out, DataElement{Name: s, Type: t, Category: typeCategory(t)})
	}
	return out
}

// typeInference maps signal name keywords to base types, first match wins.
var typeInference = []struct {
	keywords []string
	baseType string
}{
	{keywords: []string{"status", "flag"}, baseType: "boolean"},
	{keywords: []string{"speed", "rpm", "temperature", "pressure"}, baseType: "uint16"},
}

// defaultBaseType types signals that match no inference keyword.
const defaultBaseType = "uint16"

// InferBaseType maps a signal name to a base type using typeInference.
func InferBaseType(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range typeInference {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.baseType
			}
		}
	}
	return defaultBaseType
}

func typeCategory(baseType string) string {
	if baseType == "boolean" {
		return "BOOLEAN"
	}
	return "VALUE"
}

func isBaseType(s string) bool {
	switch strings.ToLower(s) {
	case "uint8", "uint16", "uint32", "uint64", "int8", "int16", "int32", "int64",
		"boolean", "float", "double":
		return true
	}
	return false
}

// extractInterfaceType looks up the communication paradigm keyword.
func extractInterfaceType(lower string) InterfaceType {
	switch {
	case strings.Contains(lower, "sender-receiver"), strings.Contains(lower, "sender receiver"):
		return InterfaceSenderReceiver
	case strings.Contains(lower, "client-server"), strings.Contains(lower, "client server"),
		containsWord(lower, "call"), containsWord(lower, "calls"):
		return InterfaceClientServer
	case containsWord(lower, "mode"):
		return InterfaceMode
	case containsWord(lower, "parameter"):
		return InterfaceParameter
	case containsWord(lower, "trigger"):
		return InterfaceTrigger
	}
	return InterfaceSenderReceiver
}

// extractDirection infers the data flow direction from send/receive wording.
func extractDirection(lower string) Direction {
	send := strings.Contains(lower, "send")
	receive := strings.Contains(lower, "receive")
	switch {
	case send && receive:
		return DirectionBoth
	case send:
		return DirectionSend
	case receive:
		return DirectionReceive
	}
	return ""
}

// extractTiming returns the first periodic match, else event or init timing.
func extractTiming(text string) *Timing {
	for _, re := range timingPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		period, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return &Timing{Type: TimingPeriodic, Period: period, Unit: normalizeUnit(m[2])}
	}
	if eventKeywordPattern.MatchString(text) {
		return &Timing{Type: TimingEvent}
	}
	if initKeywordPattern.MatchString(text) {
		return &Timing{Type: TimingInit}
	}
	return nil
}

func normalizeUnit(unit string) string {
	if strings.HasPrefix(strings.ToLower(unit), "m") {
		return UnitMilliseconds
	}
	return UnitSeconds
}

// extractECU returns the first ECU match, with the unit's components as
// instances.
func extractECU(text string, components []string) *ECUBehavior {
	for _, re := range ecuPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if !acceptToken(m[1]) {
				continue
			}
			instances := make([]string, len(components))
			copy(instances, components)
			return &ECUBehavior{ECUName: m[1], SWCInstances: instances}
		}
	}
	return nil
}

func containsWord(lower, word string) bool {
	for _, f := range strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_')
	}) {
		if f == word {
			return true
		}
	}
	return false
}
