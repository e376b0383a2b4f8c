package genai

import (
	"errors"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"quizmaster-service/internal/domain"
)

func TestClassifyAPIError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domain.GenerationKind
	}{
		{"unauthorized", &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}, domain.GenerationAuth},
		{"forbidden", &openai.APIError{HTTPStatusCode: http.StatusForbidden}, domain.GenerationAuth},
		{"rate limited", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, domain.GenerationQuota},
		{"server error", &openai.APIError{HTTPStatusCode: http.StatusInternalServerError}, domain.GenerationTransport},
		{"network", errors.New("connection refused"), domain.GenerationTransport},
	}
	for _, tc := range cases {
		got := classifyAPIError(tc.err)
		if domain.GenerationKindOf(got) != tc.want {
			t.Errorf("%s: expected kind %s, got %v", tc.name, tc.want, got)
		}
	}
}

func TestNewClientDefaultsModel(t *testing.T) {
	client := NewClient("test-key", "")
	if client.model != DefaultModel {
		t.Fatalf("expected default model, got %q", client.model)
	}
}
