package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"quizmaster-service/internal/app"
	"quizmaster-service/internal/domain"
)

// WSHandler runs interactive play sessions over a websocket. Each connection
// owns its own orchestrator, so one user drives one session; closing the
// connection abandons the attempt and invalidates any pending timer ticks.
type WSHandler struct {
	newService func() *app.QuizService
	upgrader   websocket.Upgrader
}

func NewWSHandler(generator app.Generator, explainer app.Explainer, history app.HistoryStore) *WSHandler {
	return &WSHandler{
		newService: func() *app.QuizService {
			return app.NewQuizService(generator, explainer, history)
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Index          int    `json:"index"`
	SelectedAnswer string `json:"selectedAnswer"`
	TimeTaken      int    `json:"timeTaken"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type questionPayload struct {
	Index     int             `json:"index"`
	Question  domain.Question `json:"question"`
	Progress  domain.Progress `json:"progress"`
	Remaining int             `json:"remaining"`
}

type answerResultPayload struct {
	Index   int  `json:"index"`
	Correct bool `json:"correct"`
}

type tickPayload struct {
	Remaining int `json:"remaining"`
}

type wsErrorPayload struct {
	Message string `json:"message"`
}

// ServePlay upgrades the request and drives a full quiz attempt over the
// connection: start -> question/answer/navigation -> result.
func (h *WSHandler) ServePlay(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	service := h.newService()

	send := make(chan outboundMessage, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// Timer callbacks run on their own goroutine and can race teardown, so
	// push is sealed under a mutex before send is closed; a callback arriving
	// after the seal is dropped instead of hitting a closed channel.
	var pushMu sync.Mutex
	pushSealed := false
	push := func(msg outboundMessage) {
		pushMu.Lock()
		defer pushMu.Unlock()
		if pushSealed {
			return
		}
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	service.SetTickObserver(func(remaining int) {
		push(outboundMessage{Type: "tick", Payload: tickPayload{Remaining: remaining}})
	})
	service.SetCompletionObserver(func(result domain.Result) {
		push(outboundMessage{Type: "result", Payload: result})
	})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if errMsg := h.dispatch(r.Context(), service, inbound, push); errMsg != "" {
			push(outboundMessage{Type: "error", Payload: wsErrorPayload{Message: errMsg}})
		}
	}

	// Stop the timer before sealing so no new callbacks are scheduled, then
	// close the writer channel only once no push can reach it.
	service.ResetQuiz()
	pushMu.Lock()
	pushSealed = true
	pushMu.Unlock()
	close(send)
	<-writerDone
}

// dispatch applies one inbound message and returns a user-facing error
// message, or "" on success.
func (h *WSHandler) dispatch(ctx context.Context, service *app.QuizService, inbound inboundMessage, push func(outboundMessage)) string {
	switch inbound.Type {
	case "start":
		var cfg domain.QuizConfig
		if err := json.Unmarshal(inbound.Payload, &cfg); err != nil {
			return "invalid start payload"
		}
		quiz, err := service.GenerateQuiz(ctx, cfg)
		if err != nil {
			return userMessageFor(err)
		}
		if err := service.StartQuiz(&quiz); err != nil {
			return userMessageFor(err)
		}
		pushCurrentQuestion(service, push)
		return ""

	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return "invalid answer payload"
		}
		correct, err := service.SubmitAnswer(payload.Index, payload.SelectedAnswer, payload.TimeTaken)
		if err != nil {
			return userMessageFor(err)
		}
		push(outboundMessage{Type: "answerResult", Payload: answerResultPayload{Index: payload.Index, Correct: correct}})
		return ""

	case "next":
		result, err := service.NextQuestion(ctx)
		if err != nil {
			return userMessageFor(err)
		}
		if result == nil {
			// plain navigation; completion emits via the observer
			pushCurrentQuestion(service, push)
		}
		return ""

	case "previous":
		if err := service.PreviousQuestion(); err != nil {
			return userMessageFor(err)
		}
		pushCurrentQuestion(service, push)
		return ""

	case "complete":
		if _, err := service.CompleteQuiz(ctx); err != nil {
			return userMessageFor(err)
		}
		return ""

	case "pause":
		service.PauseTimer()
		return ""

	case "resume":
		service.ResumeTimer()
		return ""

	case "reset":
		service.ResetQuiz()
		return ""

	default:
		return "unsupported message type"
	}
}

func pushCurrentQuestion(service *app.QuizService, push func(outboundMessage)) {
	question, index, err := service.CurrentQuestion()
	if err != nil {
		return
	}
	progress, err := service.Progress()
	if err != nil {
		return
	}
	push(outboundMessage{Type: "question", Payload: questionPayload{
		Index:     index,
		Question:  question,
		Progress:  progress,
		Remaining: service.Remaining(),
	}})
}

func userMessageFor(err error) string {
	switch domain.GenerationKindOf(err) {
	case domain.GenerationQuota:
		return "API rate limit exceeded. Please try again later."
	case domain.GenerationAuth:
		return "API configuration error"
	case domain.GenerationTransport, domain.GenerationMalformed:
		return "Failed to generate quiz. Please try again."
	}
	return err.Error()
}
