package domain

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty levels accepted by the generator.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Question types accepted by the generator.
const (
	TypeMCQ       = "mcq"
	TypeTrueFalse = "true-false"
)

// Config limits enforced on both the HTTP surface and the orchestrator.
const (
	MinQuestions = 1
	MaxQuestions = 20
	MinTotalTime = 300
	MaxTotalTime = 3600
)

// NotAnswered is the sentinel user answer recorded for questions left blank.
const NotAnswered = "Not answered"

// Question is a single generated quiz question. CorrectAnswer always matches
// one of Options exactly; the generation client repairs payloads that violate
// this before a Question reaches the rest of the system.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
	Type          string   `json:"type"`
}

// Quiz is an immutable ordered set of questions generated for one config.
type Quiz struct {
	ID                string     `json:"id"`
	Topic             string     `json:"topic"`
	Difficulty        string     `json:"difficulty"`
	QuestionType      string     `json:"questionType"`
	NumberOfQuestions int        `json:"numberOfQuestions"`
	TotalTime         int        `json:"totalTime"` // seconds
	Questions         []Question `json:"questions"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// QuizConfig is the user-supplied request for a new quiz.
type QuizConfig struct {
	Topic             string `json:"topic"`
	Difficulty        string `json:"difficulty"`
	QuestionType      string `json:"questionType"`
	NumberOfQuestions int    `json:"numberOfQuestions"`
	TotalTime         int    `json:"totalTime"` // seconds; 0 means NumberOfQuestions*60
}

// Normalize trims the topic and fills the total time default.
func (c *QuizConfig) Normalize() {
	c.Topic = strings.TrimSpace(c.Topic)
	if c.TotalTime == 0 {
		c.TotalTime = c.NumberOfQuestions * 60
	}
}

// Validate reports every violated constraint; callers must Normalize first.
func (c QuizConfig) Validate() error {
	var problems []string
	if len(c.Topic) < 2 {
		problems = append(problems, "topic must be at least 2 characters long")
	}
	if len(c.Topic) > 100 {
		problems = append(problems, "topic must be at most 100 characters long")
	}
	switch c.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		problems = append(problems, "difficulty must be easy, medium, or hard")
	}
	switch c.QuestionType {
	case TypeMCQ, TypeTrueFalse:
	default:
		problems = append(problems, "question type must be mcq or true-false")
	}
	if c.NumberOfQuestions < MinQuestions || c.NumberOfQuestions > MaxQuestions {
		problems = append(problems, fmt.Sprintf("number of questions must be between %d-%d", MinQuestions, MaxQuestions))
	}
	if c.TotalTime < MinTotalTime || c.TotalTime > MaxTotalTime {
		problems = append(problems, fmt.Sprintf("total time must be between %d-%d seconds", MinTotalTime, MaxTotalTime))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Fingerprint keys deduplication and caching of generation requests.
func (c QuizConfig) Fingerprint() string {
	return fmt.Sprintf("%s|%s|%s|%d", strings.ToLower(c.Topic), c.Difficulty, c.QuestionType, c.NumberOfQuestions)
}

// Answer records a user's submission for one question.
type Answer struct {
	SelectedAnswer string `json:"selectedAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
	TimeTaken      int    `json:"timeTaken"` // seconds
}

// Progress is a snapshot of how far a session has advanced.
type Progress struct {
	Current    int `json:"current"` // 1-based index of the question being viewed
	Total      int `json:"total"`
	Answered   int `json:"answered"`
	Percentage int `json:"percentage"` // answered/total, rounded half up
}

// QuestionResult pairs a question with the user's outcome for review display.
type QuestionResult struct {
	Question
	UserAnswer        string `json:"userAnswer"`
	IsCorrect         bool   `json:"isCorrect"`
	CustomExplanation string `json:"customExplanation"`
}

// Result is the scored, explained outcome of a completed session. It is
// derived once and never mutated afterwards.
type Result struct {
	QuizID             string           `json:"quizId"`
	SessionID          string           `json:"sessionId"`
	Topic              string           `json:"topic"`
	Difficulty         string           `json:"difficulty"`
	QuestionType       string           `json:"questionType"`
	TotalQuestions     int              `json:"totalQuestions"`
	CorrectAnswers     int              `json:"correctAnswers"`
	Score              int              `json:"score"`
	Percentage         int              `json:"percentage"`
	TimeTaken          int              `json:"timeTaken"` // sum of per-answer seconds
	PerformanceMessage string           `json:"performanceMessage"`
	Grade              string           `json:"grade"`
	Questions          []QuestionResult `json:"questions"`
	CompletedAt        time.Time        `json:"completedAt"`
	StartTime          time.Time        `json:"startTime"`
	EndTime            time.Time        `json:"endTime"`
}

// Stats aggregates review entries for the results view.
type Stats struct {
	TotalCorrect    int `json:"totalCorrect"`
	TotalIncorrect  int `json:"totalIncorrect"`
	TotalUnanswered int `json:"totalUnanswered"`
	AverageTime     int `json:"averageTime"` // seconds per question
}

// ComputeStats derives aggregate statistics from a result.
func ComputeStats(r Result) Stats {
	stats := Stats{}
	for _, q := range r.Questions {
		switch {
		case q.UserAnswer == NotAnswered:
			stats.TotalUnanswered++
		case q.IsCorrect:
			stats.TotalCorrect++
		default:
			stats.TotalIncorrect++
		}
	}
	if r.TotalQuestions > 0 {
		stats.AverageTime = roundDiv(r.TimeTaken, r.TotalQuestions)
	}
	return stats
}

// GradeFor maps a percentage to a letter grade.
func GradeFor(percentage int) string {
	switch {
	case percentage >= 95:
		return "A+"
	case percentage >= 90:
		return "A"
	case percentage >= 85:
		return "A-"
	case percentage >= 80:
		return "B+"
	case percentage >= 75:
		return "B"
	case percentage >= 70:
		return "B-"
	case percentage >= 65:
		return "C+"
	case percentage >= 60:
		return "C"
	case percentage >= 55:
		return "C-"
	case percentage >= 50:
		return "D"
	default:
		return "F"
	}
}

// FormatDuration renders a second count as "Ns", "Nm Ns", or "Nh Nm Ns".
func FormatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	mins := seconds / 60
	secs := seconds % 60
	if mins < 60 {
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	return fmt.Sprintf("%dh %dm %ds", mins/60, mins%60, secs)
}

func roundDiv(n, d int) int {
	return (n + d/2) / d
}
