// Package phonetic matches noisy spoken tokens against a known
// vocabulary using Double Metaphone phonetic encoding combined with
// Jaro-Winkler string similarity.
//
// The algorithm proceeds in two stages:
//
//  1. Phonetic candidate filtering: Double Metaphone codes are computed
//     for each token of the input and each token of every vocabulary
//     entry. An entry whose codes overlap the input's becomes a
//     phonetic candidate ("Augmint" and "Augment" share codes).
//
//  2. Jaro-Winkler ranking: among phonetic candidates, the entry with
//     the highest Jaro-Winkler similarity (case-insensitive, on the
//     original strings) wins, provided it clears the phonetic
//     threshold. When no candidate survives, a fallback pass accepts a
//     pure string-similarity match at a stricter fuzzy threshold.
//
// Multi-word entries and multi-token inputs are supported: scores are
// taken as the best of full-string, space-stripped and pairwise token
// comparisons, so a split mishearing like "aug mint" still ranks well
// against "Augment".
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required
// for a phonetically-matched entry to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when
// no phonetic match is found and the matcher falls back to pure string
// similarity. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// Matcher matches tokens against a vocabulary. Read-only after
// construction and safe for concurrent use.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a Matcher configured with the supplied options.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match finds the vocabulary entry most phonetically similar to word.
// word may be a single token or a space-separated phrase. When matched
// is false, corrected equals word unchanged and confidence is 0.
func (m *Matcher) Match(word string, vocabulary []string) (corrected string, confidence float64, matched bool) {
	if len(vocabulary) == 0 || strings.TrimSpace(word) == "" {
		return word, 0, false
	}

	wordLower := strings.ToLower(strings.TrimSpace(word))
	wordTokens := strings.Fields(wordLower)
	inputCodes := codesForTokens(wordTokens)

	type candidate struct {
		entry    string
		score    float64
		phonetic bool
	}
	var best candidate

	for _, entry := range vocabulary {
		entryLower := strings.ToLower(strings.TrimSpace(entry))
		if entryLower == "" {
			continue
		}
		entryTokens := strings.Fields(entryLower)

		phoneticMatch := codesOverlap(inputCodes, codesForTokens(entryTokens))
		score := bestSimilarity(wordTokens, entryTokens, wordLower, entryLower)

		if phoneticMatch {
			if score >= m.phoneticThreshold {
				if !best.phonetic || score > best.score {
					best = candidate{entry: entry, score: score, phonetic: true}
				}
			}
		} else if !best.phonetic {
			if score >= m.fuzzyThreshold && score > best.score {
				best = candidate{entry: entry, score: score, phonetic: false}
			}
		}
	}

	if best.entry != "" {
		return best.entry, best.score, true
	}
	return word, 0, false
}

// CodesEqual reports whether two strings produce identical Double
// Metaphone code sets. Used for strict whole-phrase comparisons where
// mere code overlap would be too permissive.
func CodesEqual(a, b string) bool {
	ca := codesForTokens(strings.Fields(strings.ToLower(a)))
	cb := codesForTokens(strings.Fields(strings.ToLower(b)))
	if len(ca) != len(cb) {
		return false
	}
	for code := range ca {
		if _, ok := cb[code]; !ok {
			return false
		}
	}
	return true
}

// codesForTokens returns the union of all Double Metaphone codes for
// the given tokens. Empty codes are excluded.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap reports whether the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestSimilarity computes the highest Jaro-Winkler similarity between
// input and entry across three comparisons: the full strings, the
// space-stripped strings, and the best pairwise token score.
func bestSimilarity(inputTokens, entryTokens []string, inputFull, entryFull string) float64 {
	score := matchr.JaroWinkler(inputFull, entryFull, false)

	if len(inputTokens) > 1 || len(entryTokens) > 1 {
		a := strings.Join(inputTokens, "")
		b := strings.Join(entryTokens, "")
		if s := matchr.JaroWinkler(a, b, false); s > score {
			score = s
		}
	}

	for _, it := range inputTokens {
		for _, et := range entryTokens {
			if s := matchr.JaroWinkler(it, et, false); s > score {
				score = s
			}
		}
	}

	return score
}
