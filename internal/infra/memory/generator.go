package memory

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"quizmaster-service/internal/domain"
)

// StaticGenerator produces quizzes from a built-in question bank. It stands
// in for the generative API in tests, demos, and the play command when no
// API key is configured.
type StaticGenerator struct {
	now func() time.Time
}

func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{now: time.Now}
}

var staticMCQ = []domain.Question{
	{
		Question:      "What is the capital of France?",
		Options:       []string{"Paris", "London", "Rome", "Berlin"},
		CorrectAnswer: "Paris",
		Explanation:   "Paris has been the capital of France since the 10th century.",
	},
	{
		Question:      "Which planet is known as the Red Planet?",
		Options:       []string{"Mars", "Venus", "Jupiter", "Mercury"},
		CorrectAnswer: "Mars",
		Explanation:   "Iron oxide on its surface gives Mars a reddish appearance.",
	},
	{
		Question:      "What is the largest mammal?",
		Options:       []string{"Blue whale", "African elephant", "Giraffe", "Orca"},
		CorrectAnswer: "Blue whale",
		Explanation:   "Blue whales can reach about 30 meters and 180 tonnes.",
	},
	{
		Question:      "Which element has the chemical symbol O?",
		Options:       []string{"Oxygen", "Gold", "Osmium", "Oganesson"},
		CorrectAnswer: "Oxygen",
		Explanation:   "O is oxygen; gold is Au and osmium is Os.",
	},
	{
		Question:      "How many continents are there?",
		Options:       []string{"Seven", "Five", "Six", "Eight"},
		CorrectAnswer: "Seven",
		Explanation:   "The conventional count is seven continents.",
	},
}

var staticTrueFalse = []domain.Question{
	{
		Question:      "The Pacific is the largest ocean on Earth.",
		Options:       []string{"True", "False"},
		CorrectAnswer: "True",
		Explanation:   "The Pacific covers about a third of Earth's surface.",
	},
	{
		Question:      "Sound travels faster in air than in water.",
		Options:       []string{"True", "False"},
		CorrectAnswer: "False",
		Explanation:   "Sound travels roughly four times faster in water.",
	},
	{
		Question:      "The Great Wall of China is visible from the Moon with the naked eye.",
		Options:       []string{"True", "False"},
		CorrectAnswer: "False",
		Explanation:   "It is far too narrow to be seen from that distance.",
	},
	{
		Question:      "Honey never spoils if stored properly.",
		Options:       []string{"True", "False"},
		CorrectAnswer: "True",
		Explanation:   "Sealed honey has been found edible after thousands of years.",
	},
}

// GenerateQuiz cycles the bank to the requested count. The topic only labels
// the quiz; the bank is general knowledge.
func (g *StaticGenerator) GenerateQuiz(_ context.Context, cfg domain.QuizConfig) (domain.Quiz, error) {
	bank := staticMCQ
	if cfg.QuestionType == domain.TypeTrueFalse {
		bank = staticTrueFalse
	}

	questions := make([]domain.Question, 0, cfg.NumberOfQuestions)
	for i := 0; i < cfg.NumberOfQuestions; i++ {
		q := bank[i%len(bank)]
		q.Difficulty = cfg.Difficulty
		q.Type = cfg.QuestionType
		questions = append(questions, q)
	}

	return domain.Quiz{
		ID:                fmt.Sprintf("static-%06d", rand.Intn(1000000)),
		Topic:             cfg.Topic,
		Difficulty:        cfg.Difficulty,
		QuestionType:      cfg.QuestionType,
		NumberOfQuestions: len(questions),
		TotalTime:         cfg.TotalTime,
		Questions:         questions,
		CreatedAt:         g.now(),
	}, nil
}
