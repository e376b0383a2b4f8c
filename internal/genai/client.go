// Package genai implements the quiz generation and explanation collaborator
// on top of an OpenAI-compatible chat completion API.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"quizmaster-service/internal/domain"
)

// DefaultModel is used when the config does not name one.
const DefaultModel = openai.GPT4oMini

// Client talks to the chat completion API. It implements app.Generator and
// app.Explainer.
type Client struct {
	api   *openai.Client
	model string
	now   func() time.Time
}

// NewClient builds a collaborator client for the given API key and model.
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		api:   openai.NewClient(apiKey),
		model: model,
		now:   time.Now,
	}
}

// GenerateQuiz asks the model for quiz content and assembles a validated,
// immutable quiz. Structural problems in the response surface as malformed
// generation errors; a correct answer missing from its options is repaired
// rather than rejected.
func (c *Client) GenerateQuiz(ctx context.Context, cfg domain.QuizConfig) (domain.Quiz, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert quiz generator. Respond with valid JSON only.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildQuizPrompt(cfg),
			},
		},
	})
	if err != nil {
		return domain.Quiz{}, classifyAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return domain.Quiz{}, domain.NewGenerationError(domain.GenerationMalformed, errors.New("empty completion"))
	}

	questions, err := parseQuizPayload(resp.Choices[0].Message.Content, cfg)
	if err != nil {
		return domain.Quiz{}, err
	}

	return domain.Quiz{
		ID:                newQuizID(),
		Topic:             cfg.Topic,
		Difficulty:        cfg.Difficulty,
		QuestionType:      cfg.QuestionType,
		NumberOfQuestions: len(questions),
		TotalTime:         cfg.TotalTime,
		Questions:         questions,
		CreatedAt:         c.now(),
	}, nil
}

// GenerateExplanation asks the model why the correct answer is right and the
// user's is wrong. Equal answers short-circuit without a call, and any API
// failure degrades to the templated fallback rather than an error; the
// explanation surface is never allowed to fail the caller.
func (c *Client) GenerateExplanation(ctx context.Context, question, correctAnswer, userAnswer string) (string, error) {
	if correctAnswer == userAnswer {
		return "Correct! Well done.", nil
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildExplanationPrompt(question, correctAnswer, userAnswer),
			},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		log.Printf("explanation generation failed, using fallback: %v", err)
		return FallbackExplanation(correctAnswer, userAnswer), nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// FallbackExplanation is the templated string used when the collaborator
// cannot produce one.
func FallbackExplanation(correctAnswer, userAnswer string) string {
	return fmt.Sprintf("The correct answer is %q. Your answer %q was incorrect.", correctAnswer, userAnswer)
}

// classifyAPIError maps transport-level failures onto the generation error
// taxonomy so each class gets its own user-facing message.
func classifyAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.NewGenerationError(domain.GenerationAuth, err)
		case http.StatusTooManyRequests:
			return domain.NewGenerationError(domain.GenerationQuota, err)
		}
	}
	return domain.NewGenerationError(domain.GenerationTransport, err)
}

const quizIDCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

func newQuizID() string {
	b := make([]byte, 10)
	for i := range b {
		b[i] = quizIDCharset[rand.Intn(len(quizIDCharset))]
	}
	return string(b)
}
