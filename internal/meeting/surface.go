// Package meeting abstracts the meeting platform connection. The bot
// itself never touches a browser: a bridge process drives Google Meet
// and exposes chat, participants, microphone control and raw meeting
// audio over a WebSocket protocol implemented in the bridge subpackage.
package meeting

import "context"

// ChatMessage is one message read from the meeting chat pane.
type ChatMessage struct {
	// Sender is the display name shown next to the message.
	Sender string `json:"sender"`
	// Text is the message body.
	Text string `json:"text"`
	// FromSelf marks messages the bot posted itself.
	FromSelf bool `json:"from_self"`
}

// Surface is the bot's view of a live meeting. Implementations must be
// safe for concurrent use: the chat poller, the audio consumer and
// command handlers all share one Surface.
type Surface interface {
	// Join connects to the meeting at meetingURL and waits for admission.
	Join(ctx context.Context, meetingURL string) error

	// Leave disconnects from the meeting. Safe to call when not joined.
	Leave(ctx context.Context) error

	// InMeeting reports whether the bot is currently joined.
	InMeeting() bool

	// Participants returns the display names currently in the meeting.
	Participants(ctx context.Context) ([]string, error)

	// ChatMessages returns the messages currently visible in the chat
	// pane, oldest first. The full pane is returned on every call;
	// deduplication is the caller's concern.
	ChatMessages(ctx context.Context) ([]ChatMessage, error)

	// SendChat posts text into the meeting chat.
	SendChat(ctx context.Context, text string) error

	// SetMicMuted mutes or unmutes the bot's microphone.
	SetMicMuted(ctx context.Context, muted bool) error

	// PlayAudio queues 16 kHz mono PCM for playback through the bot's
	// microphone.
	PlayAudio(ctx context.Context, pcm []byte) error

	// AudioFrames returns the stream of mixed meeting audio as 16 kHz
	// mono PCM chunks. The channel closes when the surface disconnects.
	AudioFrames() <-chan []byte
}
