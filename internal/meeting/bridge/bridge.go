// Package bridge implements [meeting.Surface] over a WebSocket
// connection to the browser-driver process that actually sits in the
// Google Meet tab.
//
// The wire protocol is deliberately small:
//
//   - Text messages carry JSON. Client → driver frames are requests
//     {"id": n, "method": "...", "params": {...}}; driver → client
//     frames are either responses {"id": n, "result": ..., "error": ...}
//     or unsolicited events {"event": "..."}.
//   - Binary messages carry 16 kHz mono PCM audio: driver → client is
//     captured meeting audio, client → driver is playback audio.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/augmentlabs/meetbot/internal/meeting"
)

// ErrClosed is returned by calls made after the bridge disconnected.
var ErrClosed = errors.New("bridge: connection closed")

const (
	// audioBuffer is the capture-channel depth. At 20 ms frames this
	// absorbs ~5 s of consumer stall before frames are dropped.
	audioBuffer = 256

	defaultCallTimeout = 15 * time.Second
	// joinTimeout covers waiting in the Meet lobby for admission.
	joinTimeout = 2 * time.Minute
)

// Option is a functional option for configuring a Bridge.
type Option func(*Bridge)

// WithSelfName sets the display name the bot appears under in the
// meeting. Chat messages from this sender are flagged FromSelf when the
// driver does not flag them itself. Default: "AI Assistant".
func WithSelfName(name string) Option {
	return func(b *Bridge) { b.selfName = name }
}

// WithCallTimeout overrides the per-request timeout for driver calls.
func WithCallTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.callTimeout = d }
}

// Bridge is the WebSocket client side of the driver protocol.
type Bridge struct {
	conn        *websocket.Conn
	selfName    string
	callTimeout time.Duration

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan rpcResponse

	inMeeting atomic.Bool
	audio     chan []byte
	done      chan struct{}
	once      sync.Once
	wg        sync.WaitGroup
}

var _ meeting.Surface = (*Bridge)(nil)

type rpcRequest struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	ID     uint64          `json:"id"`
	Event  string          `json:"event"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

// Dial connects to the driver at wsURL and starts the read loop. The
// returned Bridge is not yet in a meeting; call Join next.
func Dial(ctx context.Context, wsURL string, opts ...Option) (*Bridge, error) {
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("bridge: dial %s: %w", wsURL, err)
	}
	// Audio frames are large and frequent; the default read limit is
	// too small for them.
	conn.SetReadLimit(1 << 20)

	b := &Bridge{
		conn:        conn,
		selfName:    "AI Assistant",
		callTimeout: defaultCallTimeout,
		pending:     make(map[uint64]chan rpcResponse),
		audio:       make(chan []byte, audioBuffer),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.wg.Add(1)
	go b.readLoop()
	return b, nil
}

// call performs one request/response round trip. result may be nil
// when the caller does not care about the payload.
func (b *Bridge) call(ctx context.Context, method string, params any, result any) error {
	select {
	case <-b.done:
		return ErrClosed
	default:
	}

	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("bridge: marshal params: %w", err)
		}
		raw = data
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	ch := make(chan rpcResponse, 1)
	b.pending[id] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()

	req, err := json.Marshal(rpcRequest{ID: id, Method: method, Params: raw})
	if err != nil {
		return fmt.Errorf("bridge: marshal request: %w", err)
	}
	if err := b.conn.Write(ctx, websocket.MessageText, req); err != nil {
		return fmt.Errorf("bridge: %s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrClosed
	case resp := <-ch:
		if resp.Error != "" {
			return fmt.Errorf("bridge: %s: %s", method, resp.Error)
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("bridge: %s: decode result: %w", method, err)
			}
		}
		return nil
	}
}

// Join implements [meeting.Surface]. It blocks until the driver reports
// the bot was admitted to the meeting.
func (b *Bridge) Join(ctx context.Context, meetingURL string) error {
	ctx, cancel := context.WithTimeout(ctx, joinTimeout)
	defer cancel()

	err := b.call(ctx, "join", map[string]string{"url": meetingURL}, nil)
	if err != nil {
		return err
	}
	b.inMeeting.Store(true)
	slog.Info("bridge: joined meeting", "url", meetingURL)
	return nil
}

// Leave implements [meeting.Surface].
func (b *Bridge) Leave(ctx context.Context) error {
	if !b.inMeeting.Swap(false) {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()
	return b.call(ctx, "leave", nil, nil)
}

// InMeeting implements [meeting.Surface].
func (b *Bridge) InMeeting() bool {
	return b.inMeeting.Load()
}

// Participants implements [meeting.Surface].
func (b *Bridge) Participants(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	var names []string
	if err := b.call(ctx, "participants", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// ChatMessages implements [meeting.Surface]. Messages from the bot's
// own display name are flagged FromSelf even when the driver did not
// flag them.
func (b *Bridge) ChatMessages(ctx context.Context) ([]meeting.ChatMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	var messages []meeting.ChatMessage
	if err := b.call(ctx, "chat_messages", nil, &messages); err != nil {
		return nil, err
	}
	for i := range messages {
		if messages[i].Sender == b.selfName {
			messages[i].FromSelf = true
		}
	}
	return messages, nil
}

// SendChat implements [meeting.Surface].
func (b *Bridge) SendChat(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()
	return b.call(ctx, "send_chat", map[string]string{"text": text}, nil)
}

// SetMicMuted implements [meeting.Surface].
func (b *Bridge) SetMicMuted(ctx context.Context, muted bool) error {
	ctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()
	return b.call(ctx, "set_mic_muted", map[string]bool{"muted": muted}, nil)
}

// PlayAudio implements [meeting.Surface]. Audio goes out as a binary
// frame; the driver handles pacing.
func (b *Bridge) PlayAudio(ctx context.Context, pcm []byte) error {
	select {
	case <-b.done:
		return ErrClosed
	default:
	}
	if err := b.conn.Write(ctx, websocket.MessageBinary, pcm); err != nil {
		return fmt.Errorf("bridge: play audio: %w", err)
	}
	return nil
}

// AudioFrames implements [meeting.Surface].
func (b *Bridge) AudioFrames() <-chan []byte {
	return b.audio
}

// Close tears down the connection. Pending calls fail with ErrClosed
// and the audio channel closes.
func (b *Bridge) Close() error {
	b.once.Do(func() {
		close(b.done)
		b.conn.Close(websocket.StatusNormalClosure, "shutting down")
		b.wg.Wait()
	})
	return nil
}

// readLoop dispatches incoming frames: binary frames feed the audio
// channel, text frames resolve pending calls or surface driver events.
func (b *Bridge) readLoop() {
	defer b.wg.Done()
	defer close(b.audio)

	for {
		typ, data, err := b.conn.Read(context.Background())
		if err != nil {
			select {
			case <-b.done:
			default:
				slog.Warn("bridge: connection lost", "error", err)
				b.inMeeting.Store(false)
			}
			return
		}

		switch typ {
		case websocket.MessageBinary:
			select {
			case b.audio <- data:
			default:
				// Consumer stalled; dropping beats blocking the reader.
			}
		case websocket.MessageText:
			b.handleText(data)
		}
	}
}

// handleText resolves a response to its pending call or logs an event.
func (b *Bridge) handleText(data []byte) {
	var resp rpcResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		slog.Warn("bridge: unparseable frame", "error", err)
		return
	}

	if resp.Event != "" {
		switch resp.Event {
		case "kicked", "meeting_ended":
			slog.Info("bridge: meeting ended by driver", "event", resp.Event)
			b.inMeeting.Store(false)
		default:
			slog.Debug("bridge: driver event", "event", resp.Event)
		}
		return
	}

	b.mu.Lock()
	ch, ok := b.pending[resp.ID]
	b.mu.Unlock()
	if ok {
		ch <- resp
	}
}
