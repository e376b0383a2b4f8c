package app

import (
	"math/rand"
	"sync"
	"time"

	"quizmaster-service/internal/domain"
)

// Session tracks one user's attempt at a single quiz: current index,
// per-question answers, and completion. It moves InProgress -> Completed and
// never leaves Completed. The mutex serializes timer ticks against answer
// submissions so the two triggers cannot interleave a transition.
type Session struct {
	mu        sync.Mutex
	id        string
	quiz      domain.Quiz
	startTime time.Time
	endTime   time.Time
	index     int
	answers   map[int]domain.Answer
	completed bool
	now       func() time.Time
}

// StartSession creates a session in progress at question 0 with no answers.
func StartSession(quiz *domain.Quiz) (*Session, error) {
	return startSessionWithClock(quiz, time.Now)
}

// startSessionWithClock allows deterministic timestamps in tests.
func startSessionWithClock(quiz *domain.Quiz, now func() time.Time) (*Session, error) {
	if quiz == nil || len(quiz.Questions) == 0 {
		return nil, domain.ErrInvalidQuiz
	}
	return &Session{
		id:        newSessionID(),
		quiz:      *quiz,
		startTime: now(),
		answers:   make(map[int]domain.Answer),
		now:       now,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Quiz returns the quiz this session is attempting.
func (s *Session) Quiz() domain.Quiz { return s.quiz }

// StartTime returns when the session began.
func (s *Session) StartTime() time.Time { return s.startTime }

// EndTime returns the completion timestamp, zero until completed.
func (s *Session) EndTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endTime
}

// Completed reports whether the session has reached its terminal state.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// CurrentIndex returns the 0-based index of the question being viewed.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// SubmitAnswer records the answer for a question and reports whether it was
// correct. Re-submitting an index overwrites the prior answer. The current
// index does not advance.
func (s *Session) SubmitAnswer(index int, selectedAnswer string, timeTaken int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return false, domain.ErrNoActiveSession
	}
	if index < 0 || index >= len(s.quiz.Questions) {
		return false, domain.ErrInvalidIndex
	}
	if timeTaken < 0 {
		timeTaken = 0
	}
	isCorrect := s.quiz.Questions[index].CorrectAnswer == selectedAnswer
	s.answers[index] = domain.Answer{
		SelectedAnswer: selectedAnswer,
		IsCorrect:      isCorrect,
		TimeTaken:      timeTaken,
	}
	return isCorrect, nil
}

// Next advances to the following question, clamped to the last index. Callers
// wanting complete-on-last must check IsLast first and call Complete; Next
// itself never completes a session. A completed session keeps its index.
func (s *Session) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.completed && s.index < len(s.quiz.Questions)-1 {
		s.index++
	}
	return s.index
}

// Previous moves back one question, clamped to 0. Revisiting an answered
// question is allowed; re-answering overwrites. A completed session keeps
// its index.
func (s *Session) Previous() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.completed && s.index > 0 {
		s.index--
	}
	return s.index
}

// IsLast reports whether the current index is the final question.
func (s *Session) IsLast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index >= len(s.quiz.Questions)-1
}

// Complete transitions the session to its terminal state and stamps the end
// time. Completion is one-shot: a second call finds no active session.
func (s *Session) Complete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return domain.ErrNoActiveSession
	}
	s.completed = true
	s.endTime = s.now()
	return nil
}

// IsAnswered reports whether an answer has been recorded for the index.
func (s *Session) IsAnswered(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.answers[index]
	return ok
}

// Answer returns the recorded answer for an index, if any.
func (s *Session) Answer(index int) (domain.Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, ok := s.answers[index]
	return answer, ok
}

// Answers returns a copy of the recorded answers keyed by question index.
func (s *Session) Answers() map[int]domain.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make(map[int]domain.Answer, len(s.answers))
	for index, answer := range s.answers {
		copied[index] = answer
	}
	return copied
}

// Progress snapshots how far the session has advanced.
func (s *Session) Progress() domain.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.quiz.Questions)
	answered := len(s.answers)
	return domain.Progress{
		Current:    s.index + 1,
		Total:      total,
		Answered:   answered,
		Percentage: roundPercent(answered, total),
	}
}

// roundPercent computes round-half-up(100*part/total).
func roundPercent(part, total int) int {
	if total == 0 {
		return 0
	}
	return (part*100 + total/2) / total
}

const sessionIDCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

func newSessionID() string {
	b := make([]byte, 12)
	for i := range b {
		b[i] = sessionIDCharset[rand.Intn(len(sessionIDCharset))]
	}
	return string(b)
}
