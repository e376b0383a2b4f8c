package memory

import (
	"context"

	"quizmaster-service/internal/genai"
)

// StaticExplainer serves explanations without calling the generative API,
// for tests and keyless runs. Correct answers get the fixed acknowledgement;
// everything else gets the template the API client also falls back to.
type StaticExplainer struct{}

func NewStaticExplainer() *StaticExplainer {
	return &StaticExplainer{}
}

func (StaticExplainer) GenerateExplanation(_ context.Context, _, correctAnswer, userAnswer string) (string, error) {
	if userAnswer == correctAnswer {
		return "Correct! Well done.", nil
	}
	return genai.FallbackExplanation(correctAnswer, userAnswer), nil
}
