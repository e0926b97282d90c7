package http

import (
	"encoding/json"
	"net/http"

	"nf-quiz-service/internal/app"
	"nf-quiz-service/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const maxMessageBytes = 64 << 10

// WSHandler carries the begin-quiz and submit-answers contracts over one WebSocket.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewWSHandler(service *app.QuizService, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		log:     log,
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
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Serve upgrades an authenticated student request. Clients send "start" with an optional
// scope and "submit" with a submission; replies are "quiz", "result" or "error".
func (h *WSHandler) Serve(c *gin.Context) {
	studentID := claimsFrom(c).AccountID

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	ctx := c.Request.Context()
	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// single writer: gorilla connections allow one concurrent writer
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Warn("ws write failed", zap.String("student_id", studentID), zap.Error(err))
				_ = conn.Close()
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}
	sendError := func(err error) {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Error("ws request failed", zap.String("student_id", studentID), zap.Error(err))
		}
		push(outboundMessage[any]{Type: "error", Payload: errorPayload{Code: status, Message: errorMessage(status, err)}})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var scope domain.Scope
			if len(inbound.Payload) > 0 && string(inbound.Payload) != "null" {
				if err := json.Unmarshal(inbound.Payload, &scope); err != nil {
					sendError(domain.ErrInvalidInput)
					continue
				}
			}
			paper, err := h.service.StartQuiz(ctx, studentID, scope)
			if err != nil {
				sendError(err)
				continue
			}
			push(outboundMessage[any]{Type: "quiz", Payload: paper})
		case "submit":
			var sub domain.Submission
			if err := json.Unmarshal(inbound.Payload, &sub); err != nil {
				sendError(domain.InvalidSubmission("malformed payload"))
				continue
			}
			result, err := h.service.SubmitAnswers(ctx, studentID, sub)
			if err != nil {
				sendError(err)
				continue
			}
			push(outboundMessage[any]{Type: "result", Payload: result})
		default:
			sendError(domain.ErrInvalidInput)
		}
	}

	close(send)
	<-writerDone
}
