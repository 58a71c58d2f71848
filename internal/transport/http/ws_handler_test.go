package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocketGenerateAndSubmit(t *testing.T) {
	server := newTestServer(t, 0)
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + tokenFor(t, "u1")
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send(t, conn, "generate", map[string]any{"sourceRef": "https://youtu.be/abc", "count": 2})
	readNext(t, conn, "generating")
	payload := readNext(t, conn, "assessment")
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatalf("expected assessment id, got %+v", payload)
	}

	send(t, conn, "get", map[string]any{"id": id})
	payload = readNext(t, conn, "assessment")
	if payload["completed"] != false {
		t.Fatalf("expected pending assessment, got %+v", payload)
	}

	send(t, conn, "submit", map[string]any{"id": id, "answers": map[string]string{"0": "B", "1": "B"}})
	payload = readNext(t, conn, "result")
	if payload["score"] != float64(2) || payload["total"] != float64(2) {
		t.Fatalf("expected 2/2, got %+v", payload)
	}

	send(t, conn, "submit", map[string]any{"id": id, "answers": map[string]string{}})
	payload = readNext(t, conn, "error")
	if payload["code"] != "already_completed" {
		t.Fatalf("expected already_completed, got %+v", payload)
	}

	send(t, conn, "get", map[string]any{})
	payload = readNext(t, conn, "error")
	if payload["code"] != "invalid_input" {
		t.Fatalf("expected missing id to be invalid_input, got %+v", payload)
	}

	send(t, conn, "dance", nil)
	payload = readNext(t, conn, "error")
	if payload["code"] != "invalid_input" {
		t.Fatalf("expected invalid_input, got %+v", payload)
	}
}

func TestWebSocketRequiresCaller(t *testing.T) {
	server := newTestServer(t, 0)
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected anonymous dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	raw, _ := json.Marshal(payload)
	if err := conn.WriteJSON(inboundMessage{Type: typ, Payload: raw}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(t *testing.T, conn *websocket.Conn, expect string) map[string]any {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%+v)", expect, msg.Type, msg.Payload)
	}
	return msg.Payload
}
