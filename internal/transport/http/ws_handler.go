package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"smart-break-quiz/internal/app"
	"smart-break-quiz/internal/logging"
)

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origin policy is enforced by the CORS layer
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Option *int `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// ServeWS upgrades the request and plays one session of gameId for userId over
// the connection. Disconnecting before "finish" abandons the session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	gameID := r.URL.Query().Get("gameId")
	if userID == "" || gameID == "" {
		http.Error(w, "missing userId or gameId", http.StatusBadRequest)
		return
	}
	logger := logging.FromContext(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	run, err := h.service.Launch(r.Context(), userID, gameID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err.Error()))
		return
	}
	finished := false
	defer func() {
		if !finished {
			h.service.Close(r.Context(), run.ID)
		}
	}()

	updates, cancel, err := h.service.Subscribe(r.Context(), run.ID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err.Error()))
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	out := outbox{send: send, done: writerDone}

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug().Err(err).Str("session_id", run.ID).Msg("ws write error")
				return
			}
		}
	}()

	started := <-updates
	out.push(outboundMessage[any]{Type: "started", Payload: started})

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for !finished {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var reply outboundMessage[any]
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Option == nil {
				reply = errorMessage("invalid answer payload")
				break
			}
			answer, err := h.service.Answer(r.Context(), run.ID, *payload.Option)
			if err != nil {
				reply = errorMessage(err.Error())
				break
			}
			reply = outboundMessage[any]{Type: "answerResult", Payload: answer}
		case "summary":
			summary, err := h.service.Summary(run.ID)
			if err != nil {
				reply = errorMessage(err.Error())
				break
			}
			reply = outboundMessage[any]{Type: "summary", Payload: summary}
		case "finish":
			result, err := h.service.Finish(r.Context(), run.ID)
			if err != nil {
				reply = errorMessage(err.Error())
				break
			}
			finished = true
			reply = outboundMessage[any]{Type: "finished", Payload: result}
		default:
			reply = errorMessage("unsupported message type")
		}
		if !out.push(reply) {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// outbox queues messages for the connection writer.
type outbox struct {
	send chan<- outboundMessage[any]
	done <-chan struct{}
}

// push reports false once the writer has stopped.
func (o outbox) push(msg outboundMessage[any]) bool {
	select {
	case o.send <- msg:
		return true
	case <-o.done:
		return false
	}
}
