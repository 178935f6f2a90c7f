package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"buzz-quiz-service/internal/app"
	"buzz-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

var errUnsupportedCommand = errors.New("unsupported command")

// WSHandler serves the host screen: it pushes a state snapshot after every
// change and accepts game commands.
type WSHandler struct {
	service  *app.Service
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.Service) *WSHandler {
	return &WSHandler{
		service: service,
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Command string `json:"command,omitempty"`
	Message string `json:"message"`
}

type ackPayload struct {
	Command string `json:"command"`
	Result  any    `json:"result,omitempty"`
}

type quizInitPayload struct {
	QuizID  string   `json:"quizId"`
	Players int      `json:"players"`
	Names   []string `json:"names"`
}

type quizIDPayload struct {
	QuizID string `json:"quizId"`
}

type lightsPayload struct {
	On [domain.ControllerCount]bool `json:"on"`
}

type debugPayload struct {
	Enabled bool `json:"enabled"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the game service.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.service.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	out := outbox{send: send, done: writerDone}

	// the writer goroutine is the only one touching conn for writes; closing
	// conn on a failed write also ends the read loop
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws: write error: %v", err)
				_ = conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: snap}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		result, err := h.dispatch(r.Context(), inbound)
		reply := outboundMessage[any]{Type: "ack", Payload: ackPayload{Command: inbound.Type, Result: result}}
		if err != nil {
			reply = outboundMessage[any]{Type: "error", Payload: errorPayload{Command: inbound.Type, Message: err.Error()}}
		}
		if !out.deliver(reply) {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// outbox queues messages for the writer goroutine until it exits.
type outbox struct {
	send chan<- outboundMessage[any]
	done <-chan struct{}
}

func (o outbox) deliver(msg outboundMessage[any]) bool {
	select {
	case o.send <- msg:
		return true
	case <-o.done:
		return false
	}
}

func (h *WSHandler) dispatch(ctx context.Context, msg inboundMessage) (any, error) {
	s := h.service
	switch msg.Type {
	case "buzzer.init":
		var cfg domain.BuzzerConfig
		if err := decode(msg.Payload, &cfg); err != nil {
			return nil, err
		}
		return nil, s.InitBuzzer(cfg)
	case "buzzer.start":
		return nil, s.StartBuzzer()
	case "buzzer.pause":
		return nil, s.PauseBuzzer()
	case "buzzer.resume":
		return nil, s.ResumeBuzzer()
	case "buzzer.correct":
		return nil, s.ResolveBuzz(true)
	case "buzzer.wrong":
		return nil, s.ResolveBuzz(false)
	case "buzzer.reset":
		s.ResetBuzzer()
		return nil, nil

	case "quiz.init":
		var p quizInitPayload
		if err := decode(msg.Payload, &p); err != nil {
			return nil, err
		}
		return nil, s.InitQuiz(ctx, p.QuizID, p.Players, p.Names...)
	case "quiz.start_question":
		return nil, s.StartQuestion()
	case "quiz.end_question":
		return nil, s.EndQuestion()
	case "quiz.next":
		return nil, s.NextQuiz()
	case "quiz.leaderboard":
		return nil, s.ShowLeaderboard()
	case "quiz.reset":
		s.ResetQuiz()
		return nil, nil

	case "quizzes.list":
		return s.ListQuizzes(ctx)
	case "quizzes.save":
		var quiz domain.Quiz
		if err := decode(msg.Payload, &quiz); err != nil {
			return nil, err
		}
		return s.SaveQuiz(ctx, quiz)
	case "quizzes.delete":
		var p quizIDPayload
		if err := decode(msg.Payload, &p); err != nil {
			return nil, err
		}
		return nil, s.DeleteQuiz(ctx, p.QuizID)

	case "calibration.start":
		s.StartCalibration()
		return nil, nil
	case "calibration.skip":
		return nil, s.SkipCalibration()
	case "calibration.restart":
		return nil, s.RestartCalibration()
	case "calibration.save":
		return s.SaveCalibration(ctx)
	case "calibration.stop":
		s.StopCalibration()
		return nil, nil
	case "mapping.clear":
		return nil, s.ClearMapping(ctx)

	case "lights":
		var p lightsPayload
		if err := decode(msg.Payload, &p); err != nil {
			return nil, err
		}
		return nil, s.SetLights(p.On)
	case "debug":
		var p debugPayload
		if err := decode(msg.Payload, &p); err != nil {
			return nil, err
		}
		s.SetDebugMode(p.Enabled)
		return nil, nil
	}
	return nil, errUnsupportedCommand
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.New("invalid payload")
	}
	return nil
}
