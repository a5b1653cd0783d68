package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

// fakeDriver is a minimal driver implementation serving the bridge
// protocol over a single connection.
type fakeDriver struct {
	participants []string
	chat         []map[string]any
	pushAudio    [][]byte

	t *testing.T
}

func (d *fakeDriver) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			d.t.Errorf("accept: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		ctx := r.Context()
		for _, frame := range d.pushAudio {
			if err := conn.Write(ctx, websocket.MessageBinary, frame); err != nil {
				return
			}
		}

		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			if typ != websocket.MessageText {
				continue
			}

			var req rpcRequest
			if err := json.Unmarshal(data, &req); err != nil {
				d.t.Errorf("bad request frame: %v", err)
				return
			}

			resp := map[string]any{"id": req.ID}
			switch req.Method {
			case "join", "leave", "send_chat", "set_mic_muted":
				// ack only
			case "participants":
				resp["result"] = d.participants
			case "chat_messages":
				resp["result"] = d.chat
			default:
				resp["error"] = "unknown method " + req.Method
			}

			out, _ := json.Marshal(resp)
			if err := conn.Write(ctx, websocket.MessageText, out); err != nil {
				return
			}
		}
	}
}

func startBridge(t *testing.T, driver *fakeDriver, opts ...Option) *Bridge {
	t.Helper()
	driver.t = t

	srv := httptest.NewServer(driver.handler())
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := Dial(ctx, wsURL, opts...)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBridgeJoinAndParticipants(t *testing.T) {
	t.Parallel()

	b := startBridge(t, &fakeDriver{participants: []string{"Sam", "Jo"}})
	ctx := context.Background()

	if b.InMeeting() {
		t.Fatal("InMeeting before Join")
	}
	if err := b.Join(ctx, "https://meet.google.com/abc-defg-hij"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !b.InMeeting() {
		t.Fatal("InMeeting false after Join")
	}

	got, err := b.Participants(ctx)
	if err != nil {
		t.Fatalf("Participants: %v", err)
	}
	if len(got) != 2 || got[0] != "Sam" || got[1] != "Jo" {
		t.Errorf("Participants = %v", got)
	}

	if err := b.Leave(ctx); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if b.InMeeting() {
		t.Error("InMeeting true after Leave")
	}
	// Leaving twice is a no-op.
	if err := b.Leave(ctx); err != nil {
		t.Errorf("second Leave: %v", err)
	}
}

func TestBridgeChatMessagesFlagsSelf(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{chat: []map[string]any{
		{"sender": "Sam", "text": "Augment help"},
		{"sender": "AI Assistant", "text": "Here are the commands"},
	}}
	b := startBridge(t, driver)

	messages, err := b.ChatMessages(context.Background())
	if err != nil {
		t.Fatalf("ChatMessages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if messages[0].FromSelf {
		t.Error("participant message flagged FromSelf")
	}
	if !messages[1].FromSelf {
		t.Error("own message not flagged FromSelf")
	}
}

func TestBridgeUnknownMethodError(t *testing.T) {
	t.Parallel()

	b := startBridge(t, &fakeDriver{})
	err := b.call(context.Background(), "bogus", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown method") {
		t.Fatalf("call error = %v, want driver error", err)
	}
}

func TestBridgeAudioFrames(t *testing.T) {
	t.Parallel()

	frame := bytes.Repeat([]byte{0x01, 0x02}, 160)
	b := startBridge(t, &fakeDriver{pushAudio: [][]byte{frame}})

	select {
	case got := <-b.AudioFrames():
		if !bytes.Equal(got, frame) {
			t.Errorf("frame mismatch: got %d bytes", len(got))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no audio frame received")
	}
}

func TestBridgeCallAfterClose(t *testing.T) {
	t.Parallel()

	b := startBridge(t, &fakeDriver{})
	b.Close()

	if err := b.SendChat(context.Background(), "hello"); err == nil {
		t.Fatal("SendChat after Close succeeded")
	}
}
