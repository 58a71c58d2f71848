package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/auth"
	"video-quiz-service/internal/domain"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

// AssessmentHandler serves the REST surface of the assessment use cases.
type AssessmentHandler struct {
	service *app.AssessmentService
}

func NewAssessmentHandler(service *app.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{service: service}
}

// Count zero asks for the configured default.
type createRequest struct {
	SourceRef string `json:"sourceRef" validate:"required"`
	Count     int    `json:"count" validate:"min=0,max=20"`
}

// Answers is checked by the service, after the completed check.
type submitRequest struct {
	Answers map[int]string `json:"answers"`
}

type listResponse struct {
	Items []domain.Summary `json:"items"`
}

func (h *AssessmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.service.CreateAssessment(r.Context(), auth.CallerFrom(r.Context()), req.SourceRef, req.Count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetAssessment(r.Context(), auth.CallerFrom(r.Context()), chi.URLParam(r, "assessmentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *AssessmentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, domain.InvalidInput("limit must be an integer"))
			return
		}
		limit = n
	}
	items, err := h.service.ListAssessments(r.Context(), auth.CallerFrom(r.Context()), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items})
}

func (h *AssessmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.service.SubmitAssessment(r.Context(), auth.CallerFrom(r.Context()), chi.URLParam(r, "assessmentID"), req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return domain.InvalidInput("malformed request body: %v", err)
	}
	return validateRequest(v)
}

func validateRequest(v any) error {
	if err := validate.Struct(v); err != nil {
		return domain.InvalidInput("invalid request: %v", err)
	}
	return nil
}
