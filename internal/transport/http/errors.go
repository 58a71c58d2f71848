package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"video-quiz-service/internal/domain"
)

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errorKinds = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{domain.ErrGeneration, http.StatusBadGateway, "generation_failed"},
	{domain.ErrAlreadyCompleted, http.StatusConflict, "already_completed"},
}

// classifyError maps a service error onto a status, a stable code and a client-safe message.
// Internal failures never leak their cause.
func classifyError(err error) (int, errorPayload) {
	for _, kind := range errorKinds {
		if errors.Is(err, kind.err) {
			return kind.status, errorPayload{Code: kind.code, Message: err.Error()}
		}
	}
	return http.StatusInternalServerError, errorPayload{Code: "internal", Message: "internal error"}
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := classifyError(err)
	writeJSON(w, status, errorBody{Error: payload})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
