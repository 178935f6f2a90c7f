package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"buzz-quiz-service/internal/app"
	"buzz-quiz-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T) (*app.Service, *websocket.Conn) {
	t.Helper()
	library := app.NewQuizLibrary(memory.NewQuizStore(), app.BuiltInQuizzes())
	service := app.NewService(memory.NewMappingStore(), library, nil, app.Options{})
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return service, conn
}

func TestWebSocketPushesInitialState(t *testing.T) {
	_, conn := newTestServer(t)

	msg := readUntil(t, conn, "state")
	var snap app.Snapshot
	if err := json.Unmarshal(msg.Payload, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Mode != app.ModeIdle || snap.Connected || snap.Mapping != "default" {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}
}

func TestWebSocketBuzzerCommands(t *testing.T) {
	service, conn := newTestServer(t)

	send(t, conn, "buzzer.init", map[string]any{"numberOfPlayers": 3, "roundsToWin": 2, "mode": "speed-round"})
	expectAck(t, conn, "buzzer.init")
	send(t, conn, "buzzer.start", nil)
	expectAck(t, conn, "buzzer.start")

	if service.Mode() != app.ModeBuzzer {
		t.Fatalf("expected buzzer mode, got %s", service.Mode())
	}
	snap := service.Snapshot()
	if snap.Buzzer == nil || !snap.Buzzer.IsRunning || len(snap.Buzzer.Players) != 3 {
		t.Fatalf("unexpected buzzer snapshot %+v", snap.Buzzer)
	}
	if snap.Round == nil || !snap.Round.Waiting {
		t.Fatalf("expected round open after start, got %+v", snap.Round)
	}

	// nobody buzzed yet
	send(t, conn, "buzzer.correct", nil)
	expectError(t, conn, "buzzer.correct")
}

func TestWebSocketQuizCommands(t *testing.T) {
	service, conn := newTestServer(t)

	send(t, conn, "quizzes.list", nil)
	ack := expectAck(t, conn, "quizzes.list")
	var listed struct {
		Result []struct {
			ID      string `json:"id"`
			BuiltIn bool   `json:"builtIn"`
		} `json:"result"`
	}
	if err := json.Unmarshal(ack.Payload, &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Result) != 2 || !listed.Result[0].BuiltIn {
		t.Fatalf("expected the built-in quizzes, got %+v", listed.Result)
	}

	send(t, conn, "quiz.init", map[string]any{"quizId": "builtin-general", "players": 2, "names": []string{"Ada"}})
	expectAck(t, conn, "quiz.init")
	send(t, conn, "quiz.start_question", nil)
	expectAck(t, conn, "quiz.start_question")

	state := service.Snapshot().Quiz
	if state == nil || state.PlayerScores[0].Name != "Ada" {
		t.Fatalf("unexpected quiz snapshot %+v", state)
	}

	send(t, conn, "quizzes.delete", map[string]any{"quizId": "builtin-general"})
	expectError(t, conn, "quizzes.delete")
}

func TestWebSocketRejectsUnknownCommands(t *testing.T) {
	_, conn := newTestServer(t)

	send(t, conn, "self.destruct", nil)
	msg := expectError(t, conn, "self.destruct")
	var payload errorPayload
	_ = json.Unmarshal(msg.Payload, &payload)
	if payload.Message != errUnsupportedCommand.Error() {
		t.Fatalf("unexpected error message %q", payload.Message)
	}

	send(t, conn, "buzzer.init", nil)
	expectError(t, conn, "buzzer.init")
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func expectAck(t *testing.T, conn *websocket.Conn, command string) message {
	t.Helper()
	return expectReply(t, conn, "ack", command)
}

func expectError(t *testing.T, conn *websocket.Conn, command string) message {
	t.Helper()
	return expectReply(t, conn, "error", command)
}

// expectReply skips state pushes until the reply to command arrives.
func expectReply(t *testing.T, conn *websocket.Conn, typ, command string) message {
	t.Helper()
	for {
		msg := readNext(t, conn)
		if msg.Type == "state" {
			continue
		}
		var p struct {
			Command string `json:"command"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(msg.Payload, &p)
		if msg.Type != typ || p.Command != command {
			t.Fatalf("expected %s for %s, got %s for %s (%s)", typ, command, msg.Type, p.Command, p.Message)
		}
		return msg
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, typ string) message {
	t.Helper()
	for {
		if msg := readNext(t, conn); msg.Type == typ {
			return msg
		}
	}
}

func readNext(t *testing.T, conn *websocket.Conn) message {
	t.Helper()
	var msg message
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg
}

func TestOutboxStopsWhenWriterExits(t *testing.T) {
	send := make(chan outboundMessage[any], 1)
	done := make(chan struct{})
	out := outbox{send: send, done: done}

	if !out.deliver(outboundMessage[any]{Type: "ack"}) {
		t.Fatalf("expected delivery while the writer runs")
	}

	// buffer full and writer gone: delivery must give up instead of blocking
	close(done)
	delivered := make(chan bool, 1)
	go func() { delivered <- out.deliver(outboundMessage[any]{Type: "ack"}) }()
	select {
	case ok := <-delivered:
		if ok {
			t.Fatalf("expected delivery refused after the writer exited")
		}
	case <-time.After(time.Second):
		t.Fatalf("deliver blocked after the writer exited")
	}
}
