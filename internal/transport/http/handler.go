package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"quizmaster-service/internal/app"
	"quizmaster-service/internal/domain"
	"quizmaster-service/internal/genai"
)

// Handler exposes the stateless quiz API: generation, explanations, health.
type Handler struct {
	generator app.Generator
	explainer app.Explainer
	history   app.HistoryStore // optional
}

func NewHandler(generator app.Generator, explainer app.Explainer, history app.HistoryStore) *Handler {
	return &Handler{generator: generator, explainer: explainer, history: history}
}

// Routes registers the HTTP surface on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/quiz/generate", h.handleGenerate)
	mux.HandleFunc("/quiz/explanation", h.handleExplanation)
	mux.HandleFunc("/quiz/history", h.handleHistory)
}

type errorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type generateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	domain.Quiz
}

type explanationRequest struct {
	Question      string `json:"question"`
	CorrectAnswer string `json:"correctAnswer"`
	UserAnswer    string `json:"userAnswer"`
}

type explanationResponse struct {
	Success     bool   `json:"success"`
	Explanation string `json:"explanation"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var cfg domain.QuizConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: true, Message: "invalid JSON body"})
		return
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: true, Message: validationMessage(err)})
		return
	}

	quiz, err := h.generator.GenerateQuiz(r.Context(), cfg)
	if err != nil {
		log.Printf("quiz generation: %v", err)
		writeGenerationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Success: true,
		Message: "Quiz generated successfully",
		Quiz:    quiz,
	})
}

func (h *Handler) handleExplanation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req explanationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: true, Message: "invalid JSON body"})
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	req.CorrectAnswer = strings.TrimSpace(req.CorrectAnswer)
	req.UserAnswer = strings.TrimSpace(req.UserAnswer)
	if req.Question == "" || req.CorrectAnswer == "" || req.UserAnswer == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   true,
			Message: "Missing required fields: question, correctAnswer, userAnswer",
		})
		return
	}

	explanation, err := h.explainer.GenerateExplanation(r.Context(), req.Question, req.CorrectAnswer, req.UserAnswer)
	if err != nil {
		// Explanation failures are always recoverable; never a 5xx.
		log.Printf("explanation generation: %v", err)
		explanation = genai.FallbackExplanation(req.CorrectAnswer, req.UserAnswer)
	}
	writeJSON(w, http.StatusOK, explanationResponse{Success: true, Explanation: explanation})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	if h.history == nil {
		writeJSON(w, http.StatusOK, []domain.Result{})
		return
	}
	results, err := h.history.List(r.Context(), 20)
	if err != nil {
		log.Printf("listing history: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: true, Message: "request failed"})
		return
	}
	if results == nil {
		results = []domain.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

// writeGenerationError maps collaborator failure classes to distinct
// user-facing messages.
func writeGenerationError(w http.ResponseWriter, err error) {
	switch domain.GenerationKindOf(err) {
	case domain.GenerationQuota:
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:   true,
			Message: "API rate limit exceeded. Please try again later.",
		})
	case domain.GenerationAuth:
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   true,
			Message: "API configuration error",
		})
	case domain.GenerationMalformed, domain.GenerationTransport:
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:   true,
			Message: "Failed to generate quiz. Please try again.",
		})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: true, Message: "request failed"})
	}
}

// validationMessage keeps the user-facing text while hiding the sentinel
// error prefix.
func validationMessage(err error) string {
	msg := err.Error()
	if cut, ok := strings.CutPrefix(msg, domain.ErrInvalidConfig.Error()+": "); ok {
		return cut
	}
	return msg
}

func writeMethodNotAllowed(w http.ResponseWriter, allowedMethod string) {
	w.Header().Set("Allow", allowedMethod)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: true, Message: "method not allowed"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
