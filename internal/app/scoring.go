package app

import (
	"context"
	"log"
	"sync"
	"time"

	"quizmaster-service/internal/domain"
)

// Explainer generates a tailored explanation for a question the user got
// wrong or skipped. Implementations must degrade internally where possible;
// any returned error makes the caller fall back to the question's bundled
// explanation.
type Explainer interface {
	GenerateExplanation(ctx context.Context, question, correctAnswer, userAnswer string) (string, error)
}

// correctExplanation is attached to correct answers without any external
// call; there is nothing to explain and the call would cost money.
const correctExplanation = "Correct!"

// Performance message tiers, checked in descending order.
var performanceTiers = []struct {
	threshold int
	message   string
}{
	{90, "Excellent! Outstanding performance!"},
	{80, "Great job! Well done!"},
	{70, "Good work! Keep it up!"},
	{60, "Not bad! Room for improvement."},
}

const performanceFallback = "Keep practicing! You can do better!"

// PerformanceMessageFor selects the first tier whose threshold the
// percentage meets.
func PerformanceMessageFor(percentage int) string {
	for _, tier := range performanceTiers {
		if percentage >= tier.threshold {
			return tier.message
		}
	}
	return performanceFallback
}

// Score derives the result of a completed session: correct count, round-half-
// up percentage, total time, performance message, grade, and per-question
// review entries. Explanations for incorrect and unanswered questions are
// fetched concurrently from the explainer and joined before the result is
// returned; each fetch falls back independently to the question's bundled
// explanation, so one failing call never aborts the batch.
func Score(ctx context.Context, quiz domain.Quiz, session *Session, explainer Explainer) (domain.Result, error) {
	return scoreWithClock(ctx, quiz, session, explainer, time.Now)
}

func scoreWithClock(ctx context.Context, quiz domain.Quiz, session *Session, explainer Explainer, now func() time.Time) (domain.Result, error) {
	if session == nil || !session.Completed() {
		return domain.Result{}, domain.ErrNoActiveSession
	}

	answers := session.Answers()
	totalQuestions := len(quiz.Questions)
	correctAnswers := 0
	timeTaken := 0
	for _, answer := range answers {
		if answer.IsCorrect {
			correctAnswers++
		}
		timeTaken += answer.TimeTaken
	}
	percentage := roundPercent(correctAnswers, totalQuestions)

	reviews := make([]domain.QuestionResult, totalQuestions)
	var wg sync.WaitGroup
	for i, question := range quiz.Questions {
		answer, answered := answers[i]
		review := domain.QuestionResult{
			Question:   question,
			UserAnswer: domain.NotAnswered,
		}
		if answered {
			review.UserAnswer = answer.SelectedAnswer
			review.IsCorrect = answer.IsCorrect
		}

		if review.IsCorrect {
			review.CustomExplanation = correctExplanation
			reviews[i] = review
			continue
		}

		review.CustomExplanation = question.Explanation
		reviews[i] = review
		if explainer == nil {
			continue
		}

		wg.Add(1)
		go func(i int, question domain.Question, userAnswer string) {
			defer wg.Done()
			explanation, err := explainer.GenerateExplanation(ctx, question.Question, question.CorrectAnswer, userAnswer)
			if err != nil {
				log.Printf("explanation for question %d unavailable, using bundled: %v", i, err)
				return
			}
			reviews[i].CustomExplanation = explanation
		}(i, question, review.UserAnswer)
	}
	wg.Wait()

	return domain.Result{
		QuizID:             quiz.ID,
		SessionID:          session.ID(),
		Topic:              quiz.Topic,
		Difficulty:         quiz.Difficulty,
		QuestionType:       quiz.QuestionType,
		TotalQuestions:     totalQuestions,
		CorrectAnswers:     correctAnswers,
		Score:              correctAnswers,
		Percentage:         percentage,
		TimeTaken:          timeTaken,
		PerformanceMessage: PerformanceMessageFor(percentage),
		Grade:              domain.GradeFor(percentage),
		Questions:          reviews,
		CompletedAt:        now(),
		StartTime:          session.StartTime(),
		EndTime:            session.EndTime(),
	}, nil
}
