// Package event defines the unified meeting event that both input
// producers (chat polling and live speech transcription) emit into the
// dispatch queue.
package event

import "time"

// Channel identifies where an utterance came from.
type Channel string

const (
	// ChannelChat is a message typed into the meeting chat.
	ChannelChat Channel = "chat"
	// ChannelSpoken is a finalized speech-to-text transcript segment.
	ChannelSpoken Channel = "spoken"
)

// Event is a single utterance observed in the meeting. Both producers
// normalize into this shape before handing off to the dispatcher, so
// downstream code never cares which input path an utterance took.
type Event struct {
	// Speaker is the display name of whoever produced the utterance.
	Speaker string
	// Text is the raw utterance text, unmodified.
	Text string
	// Timestamp is when the utterance was observed.
	Timestamp time.Time
	// Channel records the input path.
	Channel Channel
	// FromAssistant marks utterances produced by the bot itself.
	// The dispatcher drops these so the bot never reacts to its own
	// replies echoed back through the chat poll.
	FromAssistant bool
}
