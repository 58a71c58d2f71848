package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"video-quiz-service/internal/domain"
)

const maxResponseBytes = 4 << 20

// HTTPCapability calls the generation API over HTTP (POST {baseURL}/generate-mcqs).
type HTTPCapability struct {
	baseURL string
	client  *http.Client
}

// NewHTTPCapability builds a client with a per-call timeout. A nil client uses a fresh
// http.Client with that timeout.
func NewHTTPCapability(baseURL string, timeout time.Duration, client *http.Client) *HTTPCapability {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPCapability{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type generateRequest struct {
	YoutubeURL   string `json:"youtube_url"`
	NumQuestions int    `json:"num_questions"`
	Model        string `json:"model,omitempty"`
}

type generateResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Model   string `json:"model"`
	Data    *struct {
		Questions []RawQuestion `json:"questions"`
	} `json:"data"`
}

func (c *HTTPCapability) Generate(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(generateRequest{
		YoutubeURL:   req.SourceRef,
		NumQuestions: req.QuestionCount,
		Model:        req.Model,
	})
	if err != nil {
		return Response{}, fmt.Errorf("encode generate request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-mcqs", bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Response{}, domain.NewGenerationError(0, "generator unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, domain.NewGenerationError(resp.StatusCode, "read generator response", err)
	}

	var decoded generateResponse
	decodeErr := json.Unmarshal(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := decoded.Error
		if decodeErr != nil || reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return Response{}, domain.NewGenerationError(resp.StatusCode, reason, nil)
	}
	if decodeErr != nil {
		return Response{}, domain.NewGenerationError(resp.StatusCode, "malformed generator response", decodeErr)
	}
	if !decoded.Success {
		reason := decoded.Error
		if reason == "" {
			reason = "generator reported failure"
		}
		return Response{}, domain.NewGenerationError(resp.StatusCode, reason, nil)
	}
	if decoded.Data == nil {
		return Response{}, domain.NewGenerationError(resp.StatusCode, "generator response has no data", nil)
	}
	return Response{Model: decoded.Model, Questions: decoded.Data.Questions}, nil
}
