package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// streamRequestTimeout bounds the wait for the client's request
	// message after the upgrade.
	streamRequestTimeout = 30 * time.Second

	streamWriteTimeout = 10 * time.Second
)

// Stream stages beyond the pipeline's own.
const (
	StageDone  = "done"
	StageError = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// StreamEvent is one message sent to a stream client. Progress events
// carry Stage and Message; the last event is either StageDone with a
// Result or StageError with Error and Code.
type StreamEvent struct {
	RequestID string              `json:"request_id"`
	Stage     string              `json:"stage"`
	Message   string              `json:"message,omitempty"`
	Result    *TranscriptResponse `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
	Code      int                 `json:"code,omitempty"`
}

// handleStream upgrades to a WebSocket, reads one TranscriptRequest, and
// reports pipeline progress until the run finishes. Closing the socket
// cancels the run.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)
	log := s.logger.With("request_id", requestID)

	conn, err := upgrader.Upgrade(w, r, http.Header{"X-Request-Id": {requestID}})
	if err != nil {
		// Upgrade has already written an error response.
		log.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	send := func(ev StreamEvent) error {
		ev.RequestID = requestID
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		return conn.WriteJSON(ev)
	}
	fail := func(code int, msg string) {
		if err := send(StreamEvent{Stage: StageError, Error: msg, Code: code}); err != nil {
			log.Debug("failed to send stream error", "error", err)
		}
		closeNormal(conn)
	}

	_ = conn.SetReadDeadline(time.Now().Add(streamRequestTimeout))
	var req TranscriptRequest
	if err := conn.ReadJSON(&req); err != nil {
		fail(http.StatusBadRequest, "invalid request message")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		fail(http.StatusBadRequest, validationMessage(err))
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client sends nothing more; a read error means it went away.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	progress := func(stage, message string) {
		if err := send(StreamEvent{Stage: stage, Message: message}); err != nil {
			log.Debug("failed to send progress", "stage", stage, "error", err)
		}
	}

	res, err := s.runner.Run(ctx, req.URL, s.options(req), progress)
	if err != nil {
		code := statusFor(err)
		log.Warn("stream request failed", "status", code, "error", err)
		fail(code, err.Error())
		return
	}

	if err := send(StreamEvent{Stage: StageDone, Result: newResponse(requestID, res)}); err != nil {
		log.Debug("failed to send result", "error", err)
		return
	}
	closeNormal(conn)
}

func closeNormal(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
