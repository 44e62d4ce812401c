package session

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/healthchat/backend/internal/model/chat"
	chatservice "github.com/healthchat/backend/internal/service/chat"
)

type fakeResolver struct {
	reply   string
	release chan struct{}
}

func (f *fakeResolver) Resolve(ctx context.Context, text, sessionID string) (chat.Response, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return chat.Response{}, ctx.Err()
		}
	}
	return chat.Response{Message: f.reply, SessionID: sessionID}, nil
}

type frame struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

func dial(t *testing.T, resolver chatservice.Resolver) *websocket.Conn {
	t.Helper()

	r := chi.NewRouter()
	NewWebSocketHandler(resolver, "Hello", "Sorry").RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read err: %v", err)
	}
	return f
}

func TestSnapshotOnConnect(t *testing.T) {
	conn := dial(t, &fakeResolver{reply: "ok"})

	f := readFrame(t, conn)
	if f.Type != "snapshot" {
		t.Fatalf("expected snapshot, got %s", f.Type)
	}

	var snap chatservice.Snapshot
	if err := json.Unmarshal(f.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.SessionID == "" || snap.SessionID != f.SessionID {
		t.Fatalf("unexpected session id: %q / %q", snap.SessionID, f.SessionID)
	}
	if len(snap.Messages) != 1 || snap.Messages[0].Text != "Hello" || snap.Messages[0].Sender != chat.SenderBot {
		t.Fatalf("expected greeting only, got %+v", snap.Messages)
	}
	if snap.Typing {
		t.Fatal("expected typing false")
	}
}

func TestSendStreamsEvents(t *testing.T) {
	conn := dial(t, &fakeResolver{reply: "Rest and fluids."})
	readFrame(t, conn)

	if err := conn.WriteJSON(inboundMessage{Type: "send", Text: "What are common cold symptoms?"}); err != nil {
		t.Fatalf("write err: %v", err)
	}

	want := []string{"message", "typing", "message", "typing"}
	var events []chatservice.Event
	for _, typ := range want {
		f := readFrame(t, conn)
		if f.Type != typ {
			t.Fatalf("expected %s, got %s", typ, f.Type)
		}
		var evt chatservice.Event
		if err := json.Unmarshal(f.Data, &evt); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		events = append(events, evt)
	}

	if events[0].Message.Sender != chat.SenderUser || events[0].Message.Text != "What are common cold symptoms?" {
		t.Fatalf("unexpected user message: %+v", events[0].Message)
	}
	if !events[1].Typing {
		t.Fatal("expected typing on")
	}
	if events[2].Message.Sender != chat.SenderBot || events[2].Message.Text != "Rest and fluids." {
		t.Fatalf("unexpected bot message: %+v", events[2].Message)
	}
	if events[3].Typing {
		t.Fatal("expected typing off")
	}
}

func TestOverlappingSendReportsError(t *testing.T) {
	resolver := &fakeResolver{reply: "done", release: make(chan struct{})}
	conn := dial(t, resolver)
	readFrame(t, conn)

	conn.WriteJSON(inboundMessage{Type: "send", Text: "first"})
	readFrame(t, conn) // user message
	readFrame(t, conn) // typing on

	conn.WriteJSON(inboundMessage{Type: "send", Text: "second"})
	f := readFrame(t, conn)
	if f.Type != "error" {
		t.Fatalf("expected error frame, got %s", f.Type)
	}

	var data map[string]any
	if err := json.Unmarshal(f.Data, &data); err != nil {
		t.Fatalf("decode error data: %v", err)
	}
	if data["dismissAfterMs"] != float64(toastDismissMs) {
		t.Fatalf("unexpected dismiss delay: %v", data["dismissAfterMs"])
	}
	if data["message"] != chatservice.ErrSendInFlight.Error() {
		t.Fatalf("unexpected error message: %v", data["message"])
	}

	close(resolver.release)
	if f := readFrame(t, conn); f.Type != "message" {
		t.Fatalf("expected bot message, got %s", f.Type)
	}
}

func TestResetAndUnknownType(t *testing.T) {
	conn := dial(t, &fakeResolver{reply: "ok"})
	first := readFrame(t, conn)

	conn.WriteJSON(inboundMessage{Type: "reset"})
	f := readFrame(t, conn)
	if f.Type != "reset" {
		t.Fatalf("expected reset, got %s", f.Type)
	}
	if f.SessionID == first.SessionID {
		t.Fatal("expected a new session id after reset")
	}

	conn.WriteJSON(inboundMessage{Type: "shout"})
	if f := readFrame(t, conn); f.Type != "error" {
		t.Fatalf("expected error for unknown type, got %s", f.Type)
	}
}

func TestEnqueueNeverBlocks(t *testing.T) {
	writer := newConnWriter(nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			writer.enqueue(outgoingMessage{Type: "message", Timestamp: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked without a running writer")
	}

	if len(writer.queue) != 100 {
		t.Fatalf("expected 100 queued frames, got %d", len(writer.queue))
	}
	for i, msg := range writer.queue {
		if msg.Timestamp != int64(i) {
			t.Fatalf("frame %d out of order", i)
		}
	}
}
