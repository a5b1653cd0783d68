// Package redact strips personally identifiable information from text
// before it leaves the process — transcript archival, summary emails
// and log lines all pass through here when PII filtering is enabled.
package redact

import "regexp"

// Filter replaces PII occurrences with bracketed placeholders. A
// disabled Filter passes text through untouched.
//
// Filter is read-only after construction and safe for concurrent use.
type Filter struct {
	enabled bool
}

// rule pairs a PII pattern with its replacement placeholder. Order
// matters: credit cards must be masked before the looser SSN and phone
// patterns get a chance to chew on digit groups.
type rule struct {
	re          *regexp.Regexp
	replacement string
}

var rules = []rule{
	{regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), "[EMAIL]"},
	{regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`), "[CREDIT_CARD]"},
	{regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`), "[PHONE]"},
	{regexp.MustCompile(`\b\d{3}-?\d{2}-?\d{4}\b`), "[SSN]"},
}

// New returns a Filter. When enabled is false, Apply is the identity.
func New(enabled bool) *Filter {
	return &Filter{enabled: enabled}
}

// Apply masks all recognized PII in text.
func (f *Filter) Apply(text string) string {
	if !f.enabled {
		return text
	}
	for _, r := range rules {
		text = r.re.ReplaceAllString(text, r.replacement)
	}
	return text
}
