package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quizmaster-service/internal/domain"
	"quizmaster-service/internal/genai"
)

type stubGenerator struct {
	quiz domain.Quiz
	err  error
}

func (g *stubGenerator) GenerateQuiz(_ context.Context, cfg domain.QuizConfig) (domain.Quiz, error) {
	if g.err != nil {
		return domain.Quiz{}, g.err
	}
	quiz := g.quiz
	quiz.Topic = cfg.Topic
	return quiz, nil
}

type stubExplainer struct {
	explanation string
	err         error
}

func (e *stubExplainer) GenerateExplanation(_ context.Context, question, correctAnswer, userAnswer string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.explanation, nil
}

func newTestServer(generator *stubGenerator, explainer *stubExplainer) *httptest.Server {
	handler := NewHandler(generator, explainer, nil)
	mux := http.NewServeMux()
	handler.Routes(mux)
	return httptest.NewServer(mux)
}

func postJSON(t *testing.T, url string, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func TestGenerateReturnsFlattenedQuiz(t *testing.T) {
	generator := &stubGenerator{quiz: domain.Quiz{
		ID:                "quiz-1",
		Difficulty:        domain.DifficultyEasy,
		QuestionType:      domain.TypeMCQ,
		NumberOfQuestions: 1,
		TotalTime:         600,
		Questions: []domain.Question{{
			Question:      "What is the capital of France?",
			Options:       []string{"Paris", "London"},
			CorrectAnswer: "Paris",
		}},
	}}
	server := newTestServer(generator, &stubExplainer{})
	defer server.Close()

	resp, body := postJSON(t, server.URL+"/quiz/generate",
		`{"topic":"Geography","difficulty":"easy","questionType":"mcq","numberOfQuestions":1,"totalTime":600}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["success"] != true {
		t.Fatalf("expected success=true, got %v", body["success"])
	}
	if body["message"] != "Quiz generated successfully" {
		t.Fatalf("unexpected message %v", body["message"])
	}
	// Quiz fields must be flattened into the top-level object.
	if body["topic"] != "Geography" {
		t.Fatalf("expected flattened topic, got %v", body["topic"])
	}
	questions, ok := body["questions"].([]any)
	if !ok || len(questions) != 1 {
		t.Fatalf("expected 1 flattened question, got %v", body["questions"])
	}
}

func TestGenerateRejectsInvalidConfig(t *testing.T) {
	server := newTestServer(&stubGenerator{}, &stubExplainer{})
	defer server.Close()

	resp, body := postJSON(t, server.URL+"/quiz/generate",
		`{"topic":"x","difficulty":"impossible","questionType":"mcq","numberOfQuestions":1}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body["error"] != true {
		t.Fatalf("expected error=true, got %v", body["error"])
	}
	msg, _ := body["message"].(string)
	if strings.Contains(msg, domain.ErrInvalidConfig.Error()) {
		t.Fatalf("message leaks sentinel prefix: %q", msg)
	}
	if !strings.Contains(msg, "topic must be at least 2 characters long") {
		t.Fatalf("expected topic problem in message, got %q", msg)
	}
}

func TestGenerateErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		kind       domain.GenerationKind
		wantStatus int
		wantMsg    string
	}{
		{"quota", domain.GenerationQuota, http.StatusTooManyRequests, "API rate limit exceeded. Please try again later."},
		{"auth", domain.GenerationAuth, http.StatusInternalServerError, "API configuration error"},
		{"malformed", domain.GenerationMalformed, http.StatusBadGateway, "Failed to generate quiz. Please try again."},
		{"transport", domain.GenerationTransport, http.StatusBadGateway, "Failed to generate quiz. Please try again."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			generator := &stubGenerator{err: domain.NewGenerationError(tc.kind, errors.New("upstream"))}
			server := newTestServer(generator, &stubExplainer{})
			defer server.Close()

			resp, body := postJSON(t, server.URL+"/quiz/generate",
				`{"topic":"Science","difficulty":"easy","questionType":"mcq","numberOfQuestions":5,"totalTime":600}`)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
			if body["message"] != tc.wantMsg {
				t.Fatalf("expected %q, got %v", tc.wantMsg, body["message"])
			}
		})
	}
}

func TestGenerateMethodNotAllowed(t *testing.T) {
	server := newTestServer(&stubGenerator{}, &stubExplainer{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/quiz/generate")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
	if allow := resp.Header.Get("Allow"); allow != http.MethodPost {
		t.Fatalf("expected Allow: POST, got %q", allow)
	}
}

func TestExplanationSuccess(t *testing.T) {
	server := newTestServer(&stubGenerator{}, &stubExplainer{explanation: "Because Paris is the capital."})
	defer server.Close()

	resp, body := postJSON(t, server.URL+"/quiz/explanation",
		`{"question":"Capital of France?","correctAnswer":"Paris","userAnswer":"London"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["explanation"] != "Because Paris is the capital." {
		t.Fatalf("unexpected explanation %v", body["explanation"])
	}
}

func TestExplanationFallsBackOnFailure(t *testing.T) {
	explainer := &stubExplainer{err: errors.New("api down")}
	server := newTestServer(&stubGenerator{}, explainer)
	defer server.Close()

	resp, body := postJSON(t, server.URL+"/quiz/explanation",
		`{"question":"Capital of France?","correctAnswer":"Paris","userAnswer":"London"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("explanation failures must not surface as errors, got %d", resp.StatusCode)
	}
	if body["explanation"] != genai.FallbackExplanation("Paris", "London") {
		t.Fatalf("expected fallback explanation, got %v", body["explanation"])
	}
}

func TestExplanationRejectsMissingFields(t *testing.T) {
	server := newTestServer(&stubGenerator{}, &stubExplainer{})
	defer server.Close()

	resp, body := postJSON(t, server.URL+"/quiz/explanation",
		`{"question":"Capital of France?","correctAnswer":"  ","userAnswer":"London"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body["message"] != "Missing required fields: question, correctAnswer, userAnswer" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

func TestHistoryEmptyWithoutStore(t *testing.T) {
	server := newTestServer(&stubGenerator{}, &stubExplainer{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/quiz/history")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var results []domain.Result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(results))
	}
}
