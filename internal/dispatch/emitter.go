package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/augmentlabs/meetbot/internal/event"
)

// Emitter delivers a handler reply back into the meeting.
type Emitter interface {
	Emit(ctx context.Context, ev event.Event, reply string) error
}

// ChatSender posts a message into the meeting chat.
type ChatSender interface {
	SendChat(ctx context.Context, text string) error
}

// Speaker voices a reply into the meeting audio.
type Speaker interface {
	Say(ctx context.Context, text string) error
}

// ChatEmitter sends replies to the meeting chat, and additionally
// speaks them aloud when the command arrived over the spoken channel
// and a speaker is configured. Chat is the channel of record: a speech
// synthesis failure is logged but never fails the emit.
type ChatEmitter struct {
	chat    ChatSender
	speaker Speaker
}

var _ Emitter = (*ChatEmitter)(nil)

// NewChatEmitter returns a ChatEmitter. speaker may be nil to disable
// voice replies.
func NewChatEmitter(chat ChatSender, speaker Speaker) *ChatEmitter {
	return &ChatEmitter{chat: chat, speaker: speaker}
}

// Emit implements [Emitter].
func (e *ChatEmitter) Emit(ctx context.Context, ev event.Event, reply string) error {
	if err := e.chat.SendChat(ctx, reply); err != nil {
		return fmt.Errorf("send chat: %w", err)
	}
	if e.speaker != nil && ev.Channel == event.ChannelSpoken {
		if err := e.speaker.Say(ctx, reply); err != nil {
			slog.Warn("dispatch: voice reply failed", "error", err)
		}
	}
	return nil
}
