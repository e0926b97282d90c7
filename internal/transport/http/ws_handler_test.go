package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nf-quiz-service/internal/app"
	"nf-quiz-service/internal/domain"

	"github.com/gorilla/websocket"
)

func TestWebSocketQuizFlow(t *testing.T) {
	srv := newTestServer(t, app.DefaultQuizConfig())
	token, _ := srv.studentToken(t, "ana@example.edu")

	server := httptest.NewServer(srv.router)
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/quiz?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"type": "start"}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	var paper domain.QuizPaper
	readNext(t, conn, "quiz", &paper)
	if len(paper.Items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(paper.Items))
	}

	if err := conn.WriteJSON(map[string]any{"type": "submit", "payload": answerAll(paper, "right", 15)}); err != nil {
		t.Fatalf("write submit: %v", err)
	}
	var result domain.GradeResult
	readNext(t, conn, "result", &result)
	if result.ScorePct != 100 || !result.Passed {
		t.Fatalf("expected a full score, got %+v", result)
	}
	for _, d := range result.Details {
		if d.TimeBucket != domain.BucketNormal {
			t.Fatalf("expected Normal bucket for 15s, got %s", d.TimeBucket)
		}
	}

	// a second submission is rejected but the socket stays usable
	if err := conn.WriteJSON(map[string]any{"type": "submit", "payload": answerAll(paper, "right", 15)}); err != nil {
		t.Fatalf("write resubmit: %v", err)
	}
	var failure errorPayload
	readNext(t, conn, "error", &failure)
	if failure.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %+v", failure)
	}

	if err := conn.WriteJSON(map[string]any{"type": "dance"}); err != nil {
		t.Fatalf("write unknown: %v", err)
	}
	readNext(t, conn, "error", &failure)
	if failure.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %+v", failure)
	}
}

func TestWebSocketRequiresToken(t *testing.T) {
	srv := newTestServer(t, app.DefaultQuizConfig())
	server := httptest.NewServer(srv.router)
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/quiz"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}

func readNext(t *testing.T, conn *websocket.Conn, expect string, payload any) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != expect {
		t.Fatalf("expected type %s, got %s: %s", expect, msg.Type, msg.Payload)
	}
	if err := json.Unmarshal(msg.Payload, payload); err != nil {
		t.Fatalf("decode %s payload: %v", expect, err)
	}
}
