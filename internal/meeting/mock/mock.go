// Package mock provides a test double for the meeting.Surface interface.
//
// Use Surface in unit tests to feed scripted chat and participants
// without a live browser driver. All fields are safe to set before
// calling any method; the mock locks around its own state afterwards.
package mock

import (
	"context"
	"sync"

	"github.com/augmentlabs/meetbot/internal/meeting"
)

// Surface is a mock implementation of meeting.Surface.
// Zero values make every call succeed with empty results; set the Err
// fields to inject failures.
type Surface struct {
	mu sync.Mutex

	// --- Configurable state ---

	// ParticipantsResult is returned by Participants.
	ParticipantsResult []string

	// ChatResult is returned by ChatMessages.
	ChatResult []meeting.ChatMessage

	// JoinErr, LeaveErr, ChatErr, SendErr, MuteErr, PlayErr inject
	// errors into the corresponding methods.
	JoinErr, LeaveErr, ChatErr, SendErr, MuteErr, PlayErr error

	// Audio is the channel returned by AudioFrames. Created lazily when
	// nil; tests that push frames should set it explicitly.
	Audio chan []byte

	// --- Recorded state (read after test) ---

	// Joined is the last URL passed to Join; empty after Leave.
	Joined string

	// SentChat records every SendChat text in order.
	SentChat []string

	// MicMuted is the last value passed to SetMicMuted.
	MicMuted bool

	// Played records every PlayAudio buffer in order.
	Played [][]byte

	inMeeting bool
}

var _ meeting.Surface = (*Surface)(nil)

func (s *Surface) Join(_ context.Context, meetingURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.JoinErr != nil {
		return s.JoinErr
	}
	s.Joined = meetingURL
	s.inMeeting = true
	return nil
}

func (s *Surface) Leave(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LeaveErr != nil {
		return s.LeaveErr
	}
	s.Joined = ""
	s.inMeeting = false
	return nil
}

func (s *Surface) InMeeting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inMeeting
}

func (s *Surface) Participants(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ParticipantsResult...), nil
}

func (s *Surface) ChatMessages(context.Context) ([]meeting.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ChatErr != nil {
		return nil, s.ChatErr
	}
	return append([]meeting.ChatMessage(nil), s.ChatResult...), nil
}

func (s *Surface) SendChat(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SendErr != nil {
		return s.SendErr
	}
	s.SentChat = append(s.SentChat, text)
	return nil
}

func (s *Surface) SetMicMuted(_ context.Context, muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MuteErr != nil {
		return s.MuteErr
	}
	s.MicMuted = muted
	return nil
}

func (s *Surface) PlayAudio(_ context.Context, pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PlayErr != nil {
		return s.PlayErr
	}
	s.Played = append(s.Played, append([]byte(nil), pcm...))
	return nil
}

func (s *Surface) AudioFrames() <-chan []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Audio == nil {
		s.Audio = make(chan []byte)
	}
	return s.Audio
}

// SentChatCopy returns a snapshot of recorded chat sends.
func (s *Surface) SentChatCopy() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.SentChat...)
}

// SetChat replaces the scripted chat pane contents.
func (s *Surface) SetChat(messages ...meeting.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ChatResult = messages
}
