// Package dispatch implements the command pipeline that turns meeting
// utterances into bot actions: trigger-word detection, duplicate
// suppression, ordered pattern routing, command handlers and response
// emission. A single dispatcher goroutine consumes the merged event
// stream so command effects are applied strictly in arrival order.
package dispatch

import "strings"

// Trigger detects the wake word inside an utterance and extracts the
// command text that follows it.
//
// Detection is a case-insensitive substring check, not a word-boundary
// match: "augmented reality" wakes a bot triggered on "Augment". That
// is intentional — transcripts are noisy and partial words are common,
// and the extracted remainder still has to match a command pattern
// before anything happens.
type Trigger struct {
	word string
}

// NewTrigger returns a Trigger for the given wake word. The word is
// matched case-insensitively; its original casing only matters for
// user-facing text such as the help and fallback replies.
func NewTrigger(word string) Trigger {
	return Trigger{word: word}
}

// Word returns the trigger word as configured.
func (t Trigger) Word() string { return t.word }

// Extract returns the command text following the first occurrence of
// the trigger word in text, with surrounding whitespace trimmed. The
// second return is false when the trigger word does not occur or when
// nothing but whitespace follows it — in both cases the utterance is
// not a command candidate.
func (t Trigger) Extract(text string) (string, bool) {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, strings.ToLower(t.word))
	if idx < 0 {
		return "", false
	}
	cmd := strings.TrimSpace(text[idx+len(t.word):])
	if cmd == "" {
		return "", false
	}
	return cmd, true
}
