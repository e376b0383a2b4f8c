package app

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizmaster-service/internal/domain"
)

// Generator is the external collaborator that produces quiz content.
type Generator interface {
	GenerateQuiz(ctx context.Context, cfg domain.QuizConfig) (domain.Quiz, error)
}

// HistoryStore persists completed results. Saving is best-effort; a store
// failure never loses the in-process result.
type HistoryStore interface {
	Save(ctx context.Context, result domain.Result) error
	List(ctx context.Context, limit int) ([]domain.Result, error)
}

// QuizService orchestrates one quiz attempt at a time: it requests
// generation, runs the session state machine, drives the countdown timer,
// and assembles results. All state transitions are serialized through one
// mutex (embedded in Session) plus the service's own epoch guard, which
// discards generation responses that arrive after a reset.
type QuizService struct {
	generator Generator
	explainer Explainer
	store     HistoryStore
	now       func() time.Time

	sf           singleflight.Group
	tickInterval time.Duration
	onTick       func(remaining int)
	onComplete   func(result domain.Result)

	mu      sync.Mutex
	epoch   uint64
	quiz    *domain.Quiz
	session *Session
	result  *domain.Result
	timer   *Timer
	history []domain.Result
}

// NewQuizService wires the orchestrator. explainer and store may be nil.
func NewQuizService(generator Generator, explainer Explainer, store HistoryStore) *QuizService {
	return &QuizService{
		generator:    generator,
		explainer:    explainer,
		store:        store,
		now:          time.Now,
		tickInterval: time.Second,
	}
}

// NewQuizServiceForTest is test-only; it shrinks the timer tick interval so
// expiry paths run in milliseconds.
func NewQuizServiceForTest(generator Generator, explainer Explainer, store HistoryStore, tickInterval time.Duration) *QuizService {
	s := NewQuizService(generator, explainer, store)
	s.tickInterval = tickInterval
	return s
}

// SetTickObserver registers a callback receiving the remaining seconds after
// every timer tick. Must be set before StartQuiz.
func (s *QuizService) SetTickObserver(fn func(remaining int)) {
	s.mu.Lock()
	s.onTick = fn
	s.mu.Unlock()
}

// SetCompletionObserver registers a callback invoked with every finalized
// result, whether completion was manual, auto-on-last, or a timer expiry.
// Must be set before StartQuiz.
func (s *QuizService) SetCompletionObserver(fn func(result domain.Result)) {
	s.mu.Lock()
	s.onComplete = fn
	s.mu.Unlock()
}

// GenerateQuiz validates the config, asks the collaborator for content, and
// adopts the quiz as current. Validation rejects before any state mutation.
// Concurrent calls with an identical config collapse into one upstream call.
// A response arriving after ResetQuiz is returned to the caller but not
// applied to service state.
func (s *QuizService) GenerateQuiz(ctx context.Context, cfg domain.QuizConfig) (domain.Quiz, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return domain.Quiz{}, err
	}

	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	value, err, _ := s.sf.Do(cfg.Fingerprint(), func() (interface{}, error) {
		return s.generator.GenerateQuiz(ctx, cfg)
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz := value.(domain.Quiz)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		log.Printf("discarding quiz %s generated before reset", quiz.ID)
		return quiz, nil
	}
	s.quiz = &quiz
	return quiz, nil
}

// StartQuiz begins a fresh session for the given quiz (or the current one
// when quiz is nil) and starts the countdown. A timer expiry completes the
// session exactly once, even if it races a manual completion.
func (s *QuizService) StartQuiz(quiz *domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quiz == nil {
		quiz = s.quiz
	}
	session, err := startSessionWithClock(quiz, s.now)
	if err != nil {
		return err
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.quiz = quiz
	s.session = session
	s.result = nil

	timer := NewTimerWithInterval(quiz.TotalTime, s.tickInterval, func() {
		// Runs on the tick goroutine; CompleteQuiz takes the state lock
		// itself and tolerates an already-completed session.
		if _, err := s.CompleteQuiz(context.Background()); err != nil {
			log.Printf("auto-complete on expiry: %v", err)
		}
	})
	if s.onTick != nil {
		timer.SetTickFunc(s.onTick)
	}
	s.timer = timer
	timer.Start()
	return nil
}

// SubmitAnswer records the answer for a question index and reports
// correctness. The question index does not advance.
func (s *QuizService) SubmitAnswer(index int, selectedAnswer string, timeTaken int) (bool, error) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	if session == nil {
		return false, domain.ErrNoActiveSession
	}
	return session.SubmitAnswer(index, selectedAnswer, timeTaken)
}

// NextQuestion advances to the next question, or completes the quiz when the
// session is already on the last one. The two behaviors are deliberately
// explicit here rather than folded into the session's Next.
func (s *QuizService) NextQuestion(ctx context.Context) (*domain.Result, error) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	if session == nil || session.Completed() {
		return nil, domain.ErrNoActiveSession
	}
	if session.IsLast() {
		result, err := s.CompleteQuiz(ctx)
		if err != nil {
			return nil, err
		}
		return &result, nil
	}
	session.Next()
	return nil, nil
}

// PreviousQuestion moves back one question, clamped to the first.
func (s *QuizService) PreviousQuestion() error {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	if session == nil || session.Completed() {
		return domain.ErrNoActiveSession
	}
	session.Previous()
	return nil
}

// CompleteQuiz finalizes the session, scores it, resolves explanations, and
// appends the result to the in-process history (and the store, best-effort).
// Completion is one-shot: the loser of a race with the timer expiry observes
// ErrNoActiveSession and mutates nothing.
func (s *QuizService) CompleteQuiz(ctx context.Context) (domain.Result, error) {
	s.mu.Lock()
	session := s.session
	quiz := s.quiz
	timer := s.timer
	s.mu.Unlock()
	if session == nil || quiz == nil {
		return domain.Result{}, domain.ErrNoActiveSession
	}
	if err := session.Complete(); err != nil {
		return domain.Result{}, err
	}
	if timer != nil {
		timer.Stop()
	}

	result, err := scoreWithClock(ctx, *quiz, session, s.explainer, s.now)
	if err != nil {
		return domain.Result{}, err
	}

	s.mu.Lock()
	s.result = &result
	s.history = append(s.history, result)
	onComplete := s.onComplete
	s.mu.Unlock()

	if onComplete != nil {
		onComplete(result)
	}
	if s.store != nil {
		if err := s.store.Save(ctx, result); err != nil {
			log.Printf("saving result %s: %v", result.SessionID, err)
		}
	}
	return result, nil
}

// ResetQuiz discards the current quiz, session, and result, returning the
// service to its initial state. In-flight generations are invalidated.
func (s *QuizService) ResetQuiz() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	if s.timer != nil {
		s.timer.Stop()
	}
	s.quiz = nil
	s.session = nil
	s.result = nil
	s.timer = nil
}

// CurrentQuestion returns the question at the session's current index.
func (s *QuizService) CurrentQuestion() (domain.Question, int, error) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	if session == nil {
		return domain.Question{}, 0, domain.ErrNoActiveSession
	}
	index := session.CurrentIndex()
	return session.Quiz().Questions[index], index, nil
}

// IsAnswered reports whether the index has a recorded answer.
func (s *QuizService) IsAnswered(index int) bool {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	if session == nil {
		return false
	}
	return session.IsAnswered(index)
}

// Progress snapshots the active session's progress.
func (s *QuizService) Progress() (domain.Progress, error) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	if session == nil {
		return domain.Progress{}, domain.ErrNoActiveSession
	}
	return session.Progress(), nil
}

// Remaining returns the seconds left on the countdown, 0 with no timer.
func (s *QuizService) Remaining() int {
	s.mu.Lock()
	timer := s.timer
	s.mu.Unlock()
	if timer == nil {
		return 0
	}
	return timer.Remaining()
}

// PauseTimer suspends the countdown without losing remaining time.
func (s *QuizService) PauseTimer() {
	s.mu.Lock()
	timer := s.timer
	s.mu.Unlock()
	if timer != nil {
		timer.Pause()
	}
}

// ResumeTimer continues a paused countdown.
func (s *QuizService) ResumeTimer() {
	s.mu.Lock()
	timer := s.timer
	s.mu.Unlock()
	if timer != nil {
		timer.Resume()
	}
}

// Result returns the most recent result, if the current quiz completed.
func (s *QuizService) Result() (domain.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return domain.Result{}, false
	}
	return *s.result, true
}

// History returns a copy of the results accumulated this process lifetime.
func (s *QuizService) History() []domain.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]domain.Result, len(s.history))
	copy(history, s.history)
	return history
}
