package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"quizzardo-service/internal/app"
	"quizzardo-service/internal/auth"
	"quizzardo-service/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	auth     auth.Provider
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, provider auth.Provider) *WSHandler {
	return &WSHandler{
		service: service,
		auth:    provider,
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
	QuestionIndex int `json:"questionIndex"`
	Option        int `json:"option"`
}

type signalPayload struct {
	Kind string `json:"kind"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

// ServeWS upgrades the request and runs one participant's session over the socket.
// Closing the socket tears the session down.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	who, err := h.auth.Identify(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	session, err := h.service.OpenSession(ctx, quizID, who)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	log.Printf("session %s opened quiz=%s user=%s", session.ID(), quizID, who.UserID)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		case <-closeSignals:
			return false
		}
	}

	go func() {
		defer close(eventsDone)
		events := session.Events()
		for {
			select {
			case evt, ok := <-events:
				if !ok {
					return
				}
				if !push(outboundMessage[any]{Type: string(evt.Type), Payload: evt.Payload}) {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	var (
		boardCancel func()
		boardDone   chan struct{}
	)

	push(outboundMessage[any]{Type: "session", Payload: session.Snapshot()})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			state, err := h.service.StartSession(ctx, quizID, who.UserID)
			if err != nil {
				push(errorMessage(err))
				continue
			}
			push(outboundMessage[any]{Type: "session", Payload: state})
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				push(errorMessage(errors.New("invalid answer payload")))
				continue
			}
			outcome, err := session.Answer(payload.QuestionIndex, payload.Option)
			if err != nil {
				push(errorMessage(err))
				continue
			}
			if !outcome.Accepted {
				push(outboundMessage[any]{Type: string(domain.EventAnswer), Payload: outcome})
			}
		case "signal":
			var payload signalPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				push(errorMessage(errors.New("invalid signal payload")))
				continue
			}
			if _, err := session.Signal(domain.Signal(payload.Kind)); err != nil {
				push(errorMessage(err))
			}
		case "leaderboard":
			if boardCancel != nil {
				continue
			}
			updates, cancel, err := h.service.SubscribeLeaderboard(ctx, quizID)
			if err != nil {
				push(errorMessage(err))
				continue
			}
			boardCancel = cancel
			boardDone = make(chan struct{})
			go func(done chan struct{}) {
				defer close(done)
				for lb := range updates {
					if !push(outboundMessage[any]{Type: "leaderboard", Payload: lb}) {
						return
					}
				}
			}(boardDone)
		default:
			push(errorMessage(errors.New("unsupported message type")))
		}
	}

	h.service.CloseSession(context.Background(), quizID, who.UserID)
	close(closeSignals)
	<-eventsDone
	if boardCancel != nil {
		boardCancel()
		<-boardDone
	}
	close(send)
	<-writerDone
}
