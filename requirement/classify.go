package requirement

import "strings"

// Keyword tables for classification, checked in order.
var (
	constraintKeywords    = []string{"constraint", "shall not", "must not", "limit", "maximum", "minimum", "restrict"}
	interfaceKeywords     = []string{"interface", "port", "send", "receive", "communicat"}
	nonFunctionalKeywords = []string{"performance", "latency", "response time", "reliab", "availab", "memory", "cpu", "throughput"}

	highPriorityKeywords = []string{"safety", "critical", "asil"}
	lowPriorityKeywords  = []string{"optional", "nice to have", "if possible"}
)

func classifyCategory(lower string) Category {
	switch {
	case containsAny(lower, constraintKeywords):
		return CategoryConstraint
	case containsAny(lower, interfaceKeywords):
		return CategoryInterface
	case containsAny(lower, nonFunctionalKeywords):
		return CategoryNonFunctional
	}
	return CategoryFunctional
}

func classifyPriority(lower string) Priority {
	switch {
	case containsAny(lower, highPriorityKeywords):
		return PriorityHigh
	case containsAny(lower, lowPriorityKeywords):
		return PriorityLow
	}
	return PriorityMedium
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
