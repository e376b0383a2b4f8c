package genai

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"quizmaster-service/internal/domain"
)

type quizPayload struct {
	Questions []questionPayload `json:"questions"`
}

type questionPayload struct {
	Question      string          `json:"question"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer string          `json:"correctAnswer"`
	Explanation   string          `json:"explanation"`
}

// parseQuizPayload turns the model's raw text into validated questions.
// Markdown code fences are stripped first; models add them despite the
// prompt. Any structural violation is a malformed generation error. A
// correct answer absent from its options is a known generator defect and is
// repaired by substituting the first option, with a logged warning.
func parseQuizPayload(text string, cfg domain.QuizConfig) ([]domain.Question, error) {
	cleaned := stripCodeFences(text)

	var payload quizPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, domain.NewGenerationError(domain.GenerationMalformed,
			fmt.Errorf("parsing quiz payload: %w", err))
	}
	if payload.Questions == nil {
		return nil, domain.NewGenerationError(domain.GenerationMalformed,
			errors.New("missing questions array"))
	}

	questions := make([]domain.Question, 0, len(payload.Questions))
	for i, raw := range payload.Questions {
		options, err := decodeOptions(raw.Options)
		if err != nil {
			return nil, domain.NewGenerationError(domain.GenerationMalformed,
				fmt.Errorf("question %d: %w", i, err))
		}
		if raw.Question == "" || raw.CorrectAnswer == "" || raw.Explanation == "" {
			return nil, domain.NewGenerationError(domain.GenerationMalformed,
				fmt.Errorf("question %d: missing required fields", i))
		}

		question := domain.Question{
			Question:      strings.TrimSpace(raw.Question),
			Options:       options,
			CorrectAnswer: strings.TrimSpace(raw.CorrectAnswer),
			Explanation:   strings.TrimSpace(raw.Explanation),
			Difficulty:    cfg.Difficulty,
			Type:          cfg.QuestionType,
		}
		if !contains(question.Options, question.CorrectAnswer) {
			log.Printf("correct answer not in options for question %d, substituting first option", i)
			question.CorrectAnswer = question.Options[0]
		}
		questions = append(questions, question)
	}
	if len(questions) == 0 {
		return nil, domain.NewGenerationError(domain.GenerationMalformed,
			errors.New("empty questions array"))
	}
	return questions, nil
}

func decodeOptions(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, errors.New("missing options")
	}
	var options []string
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil, errors.New("options is not a list of strings")
	}
	if len(options) < 2 {
		return nil, fmt.Errorf("need at least 2 options, got %d", len(options))
	}
	trimmed := make([]string, len(options))
	for i, opt := range options {
		trimmed[i] = strings.TrimSpace(opt)
	}
	return trimmed, nil
}

// stripCodeFences removes a surrounding ```json ... ``` or ``` ... ``` block.
func stripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	} else {
		return cleaned
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

func contains(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}
