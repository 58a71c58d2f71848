package http

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/auth"
	"video-quiz-service/internal/generator"
	"video-quiz-service/internal/infra/memory"
	"video-quiz-service/internal/metrics"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T, createLimit int) *httptest.Server {
	t.Helper()
	gen := generator.NewGateway(fixedCapability(), generator.WithModel("test-model"))
	service := app.NewAssessmentService(memory.NewAssessmentStore(), gen, nil, nil)
	router := NewRouter(RouterConfig{
		Service:       service,
		Authenticator: auth.NewJWTAuthenticator(testSecret, ""),
		Metrics:       metrics.New(),
		CreateLimit:   createLimit,
		CreateWindow:  time.Minute,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.NewJWTAuthenticator(testSecret, "").Issue(userID, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

// fixedCapability answers every request with the requested number of questions,
// each with correct label "B".
func fixedCapability() generator.Capability {
	return generator.CapabilityFunc(func(_ context.Context, req generator.Request) (generator.Response, error) {
		out := make([]generator.RawQuestion, req.QuestionCount)
		for i := range out {
			out[i] = generator.RawQuestion{
				Question: fmt.Sprintf("Question %d?", i),
				Options: []generator.RawOption{
					{Label: "A", Text: "first"},
					{Label: "B", Text: "second"},
				},
				CorrectAnswer: "B",
				Explanation:   "second is right",
			}
		}
		return generator.Response{Questions: out}, nil
	})
}
