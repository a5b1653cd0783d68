package transcript

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/augmentlabs/meetbot/internal/transcript/phonetic"
)

// splitMatchThreshold is the minimum Jaro-Winkler similarity between a
// space-stripped token window and a vocabulary entry for a multi-token
// rewrite. The window must additionally produce the exact same Double
// Metaphone codes as the entry — string similarity alone would let a
// window swallow words adjacent to the mishearing ("Augment list" must
// not collapse into "Augment").
const splitMatchThreshold = 0.70

// Corrector repairs likely mishearings of known vocabulary in spoken
// transcript lines. Speech recognition regularly mangles the wake word
// ("Augmint", "aug mint") and meeting-specific terms; the corrector
// rewrites them to the canonical spelling so trigger detection and
// command matching see clean text.
//
// Only spoken-channel text should pass through here — typed chat is
// taken at face value.
//
// Corrector is read-only after construction and safe for concurrent use.
type Corrector struct {
	matcher    *phonetic.Matcher
	vocabulary []string
	maxWindow  int
}

// NewCorrector builds a Corrector over the given vocabulary. The
// trigger word should always be included; additional entries (product
// names, participant names) improve transcript quality for the
// summarizer too. Window size is derived from the longest vocabulary
// entry, with a minimum of two tokens so split mishearings ("aug
// ment") are still caught.
func NewCorrector(matcher *phonetic.Matcher, vocabulary ...string) *Corrector {
	maxWindow := 2
	for _, v := range vocabulary {
		if n := len(strings.Fields(v)); n > maxWindow {
			maxWindow = n
		}
	}
	return &Corrector{
		matcher:    matcher,
		vocabulary: vocabulary,
		maxWindow:  maxWindow,
	}
}

// Correct returns text with phonetic vocabulary matches rewritten to
// their canonical spelling. Multi-token windows are tried first so a
// split mishearing is consumed whole; remaining tokens go through the
// phonetic matcher one at a time. Text without any match is returned
// unchanged.
func (c *Corrector) Correct(text string) string {
	if len(c.vocabulary) == 0 {
		return text
	}
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return text
	}

	var out []string
	i := 0
	for i < len(tokens) {
		maxN := c.maxWindow
		if i+maxN > len(tokens) {
			maxN = len(tokens) - i
		}

		entity, consumed := c.matchAt(tokens, i, maxN)
		if consumed == 0 {
			out = append(out, tokens[i])
			i++
			continue
		}
		out = append(out, strings.Fields(entity)...)
		i += consumed
	}

	return strings.Join(out, " ")
}

// matchAt tries to match a vocabulary entry starting at tokens[i],
// returning the canonical entry and how many tokens it consumed (0 on
// no match). Windows shrink from maxN down to the single-token case.
func (c *Corrector) matchAt(tokens []string, i, maxN int) (string, int) {
	for n := maxN; n >= 2; n-- {
		joined := strings.ToLower(strings.Join(tokens[i:i+n], ""))
		for _, v := range c.vocabulary {
			target := strings.ToLower(strings.ReplaceAll(v, " ", ""))
			if phonetic.CodesEqual(joined, target) &&
				matchr.JaroWinkler(joined, target, false) >= splitMatchThreshold {
				return v, n
			}
		}
	}
	if entity, _, ok := c.matcher.Match(tokens[i], c.vocabulary); ok {
		return entity, 1
	}
	return "", 0
}
