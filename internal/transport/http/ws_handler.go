package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/auth"
	"video-quiz-service/internal/domain"
	"video-quiz-service/internal/logger"
)

// WSHandler exposes the assessment use cases over a single WebSocket per client.
// The caller is resolved by the auth middleware before the upgrade.
type WSHandler struct {
	service  *app.AssessmentService
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AssessmentService, log *logger.Logger) *WSHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type generatePayload struct {
	SourceRef string `json:"sourceRef" validate:"required"`
	Count     int    `json:"count" validate:"min=0,max=20"`
}

type getPayload struct {
	ID string `json:"id" validate:"required"`
}

type submitPayload struct {
	ID      string         `json:"id" validate:"required"`
	Answers map[int]string `json:"answers"`
}

type generatingPayload struct {
	SourceRef string `json:"sourceRef"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades authenticated requests and answers generate, get and submit messages in order.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	callerID := auth.CallerFrom(r.Context())
	if callerID == "" {
		writeError(w, domain.ErrUnauthenticated)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// Single writer; gorilla connections do not allow concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Warn("ws write failed", "caller_id", callerID, "error", err)
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if !push(h.dispatch(r.Context(), callerID, inbound, push)) {
			break
		}
	}

	close(send)
	<-writerDone
}

// dispatch runs one inbound message. The generating acknowledgement is pushed before the
// generator is called so clients can show progress.
func (h *WSHandler) dispatch(ctx context.Context, callerID string, in inboundMessage, push func(outboundMessage[any]) bool) outboundMessage[any] {
	switch in.Type {
	case "generate":
		var p generatePayload
		if err := decodePayload(in.Payload, &p); err != nil {
			return wsError(err)
		}
		push(outboundMessage[any]{Type: "generating", Payload: generatingPayload{SourceRef: p.SourceRef}})
		view, err := h.service.CreateAssessment(ctx, callerID, p.SourceRef, p.Count)
		if err != nil {
			return wsError(err)
		}
		return outboundMessage[any]{Type: "assessment", Payload: view}
	case "get":
		var p getPayload
		if err := decodePayload(in.Payload, &p); err != nil {
			return wsError(err)
		}
		view, err := h.service.GetAssessment(ctx, callerID, p.ID)
		if err != nil {
			return wsError(err)
		}
		return outboundMessage[any]{Type: "assessment", Payload: view}
	case "submit":
		var p submitPayload
		if err := decodePayload(in.Payload, &p); err != nil {
			return wsError(err)
		}
		result, err := h.service.SubmitAssessment(ctx, callerID, p.ID, p.Answers)
		if err != nil {
			return wsError(err)
		}
		return outboundMessage[any]{Type: "result", Payload: result}
	default:
		return wsError(domain.InvalidInput("unsupported message type %q", in.Type))
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return domain.InvalidInput("malformed payload: %v", err)
	}
	return validateRequest(v)
}

func wsError(err error) outboundMessage[any] {
	_, payload := classifyError(err)
	return outboundMessage[any]{Type: "error", Payload: payload}
}
