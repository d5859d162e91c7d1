package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"smart-break-quiz/internal/app"
	"smart-break-quiz/internal/domain"
	"smart-break-quiz/internal/infra/memory"
	"smart-break-quiz/internal/leaderboard"
	"smart-break-quiz/internal/metrics"
	"smart-break-quiz/internal/profile"
	"smart-break-quiz/internal/session"
)

// firstOptionCorrect builds question sets whose correct answer is always option 0.
type firstOptionCorrect struct{}

func (firstOptionCorrect) Generate(string) []domain.Question {
	out := make([]domain.Question, 10)
	for i := range out {
		out[i] = domain.Question{Prompt: "q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 0}
	}
	return out
}

type testServer struct {
	*httptest.Server
	profiles *profile.Service
	clock    *session.ManualClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo := memory.NewProfileRepository()
	profiles := profile.NewService(repo, zerolog.Nop())
	board := leaderboard.NewService(repo, 0)
	clock := session.NewManualClock()
	reg := prometheus.NewRegistry()

	service := app.NewGameService(memory.NewSessionStore(), profiles, firstOptionCorrect{}, board, app.Options{
		Session: session.Config{Clock: clock},
		Metrics: metrics.New(reg),
		Logger:  zerolog.Nop(),
	})
	handler := NewRouter(RouterConfig{
		API:      NewAPIHandler(profiles, board, 0),
		WS:       NewWSHandler(service),
		Gatherer: reg,
		Logger:   zerolog.Nop(),
	})
	srv := &testServer{Server: httptest.NewServer(handler), profiles: profiles, clock: clock}
	t.Cleanup(srv.Close)
	return srv
}

func (s *testServer) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + s.URL[len("http"):] + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketPlaysFullSession(t *testing.T) {
	srv := newTestServer(t)
	if _, err := srv.profiles.CreateWithID(context.Background(), "u1", "Лиза"); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	conn := srv.dial(t, "userId=u1&gameId=1")
	_, started := readNext(conn, t, "started")
	if started["phase"] != string(session.PhaseAwaiting) {
		t.Fatalf("expected awaiting phase, got %v", started["phase"])
	}
	if _, ok := started["correctAnswer"]; ok {
		t.Fatalf("correct answer must stay hidden while awaiting")
	}

	for i := 0; i < 10; i++ {
		writeAnswer(t, conn, 0)
		_, result := readUntil(conn, t, "answerResult")
		if result["correct"] != true {
			t.Fatalf("question %d: expected correct answer, got %v", i, result)
		}
		srv.clock.Advance(session.DefaultRevealDelay)
	}

	if err := conn.WriteJSON(map[string]any{"type": "summary"}); err != nil {
		t.Fatalf("write summary: %v", err)
	}
	_, results := readUntil(conn, t, "summary")
	if results["score"] != float64(100) || results["correct"] != float64(10) {
		t.Fatalf("unexpected summary: %v", results)
	}

	if err := conn.WriteJSON(map[string]any{"type": "finish"}); err != nil {
		t.Fatalf("write finish: %v", err)
	}
	_, finished := readUntil(conn, t, "finished")
	summary, _ := finished["summary"].(map[string]any)
	if summary["score"] != float64(100) {
		t.Fatalf("expected score 100, got %v", summary["score"])
	}

	p, err := srv.profiles.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.Points != 100 || p.GamesPlayed != 1 {
		t.Fatalf("profile not updated: %+v", p)
	}
}

func TestWebSocketRejectsEarlyFinishAndBadPayload(t *testing.T) {
	srv := newTestServer(t)
	if _, err := srv.profiles.CreateWithID(context.Background(), "u1", "Лиза"); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	conn := srv.dial(t, "userId=u1&gameId=1")
	readNext(conn, t, "started")

	if err := conn.WriteJSON(map[string]any{"type": "finish"}); err != nil {
		t.Fatalf("write finish: %v", err)
	}
	readUntil(conn, t, "error")

	if err := conn.WriteJSON(map[string]any{"type": "summary"}); err != nil {
		t.Fatalf("write summary: %v", err)
	}
	_, payload := readUntil(conn, t, "error")
	if payload["message"] != domain.ErrSessionNotCompleted.Error() {
		t.Fatalf("unexpected error: %v", payload)
	}

	if err := conn.WriteJSON(map[string]any{"type": "answer", "payload": map[string]any{}}); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	_, payload = readUntil(conn, t, "error")
	if payload["message"] != "invalid answer payload" {
		t.Fatalf("unexpected error: %v", payload)
	}

	writeAnswer(t, conn, 9)
	_, payload = readUntil(conn, t, "error")
	if payload["message"] != domain.ErrOptionOutOfRange.Error() {
		t.Fatalf("unexpected error: %v", payload)
	}
}

func TestWebSocketUnknownProfile(t *testing.T) {
	srv := newTestServer(t)
	conn := srv.dial(t, "userId=ghost&gameId=1")
	_, payload := readNext(conn, t, "error")
	if payload["message"] != domain.ErrProfileNotFound.Error() {
		t.Fatalf("unexpected error: %v", payload)
	}
}

func TestWebSocketRequiresParams(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/ws?userId=u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func writeAnswer(t *testing.T, conn *websocket.Conn, option int) {
	t.Helper()
	msg := map[string]any{"type": "answer", "payload": map[string]any{"option": option}}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write answer: %v", err)
	}
}

// readUntil skips messages until one of type expect arrives.
func readUntil(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	for i := 0; i < 64; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == expect {
			return typ, payload
		}
	}
	t.Fatalf("no %s message received", expect)
	return "", nil
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func TestOutboxStopsWhenWriterIsGone(t *testing.T) {
	send := make(chan outboundMessage[any], 1)
	done := make(chan struct{})
	out := outbox{send: send, done: done}

	if !out.push(errorMessage("first")) {
		t.Fatalf("expected push into a free buffer to succeed")
	}

	close(done)
	pushed := make(chan bool, 1)
	go func() { pushed <- out.push(errorMessage("second")) }()
	select {
	case ok := <-pushed:
		if ok {
			t.Fatalf("expected push to fail once the writer stopped")
		}
	case <-time.After(time.Second):
		t.Fatalf("push blocked on a full buffer after the writer stopped")
	}
}
