package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/strogmv/apiblocks/internal/domain"
	"github.com/strogmv/apiblocks/internal/pkg/errors"
	"github.com/strogmv/apiblocks/internal/pkg/logger"
	"github.com/strogmv/apiblocks/internal/runtime"
	"github.com/strogmv/apiblocks/internal/service"
)

// Stream message types, in the order a client sees them.
const (
	MsgStarted  = "started"
	MsgLine     = "line"
	MsgFinished = "finished"
	MsgError    = "error"
)

// StreamMessage is one server frame on /api/runs/stream.
type StreamMessage struct {
	Type  string         `json:"type"`
	RunID string         `json:"runId,omitempty"`
	Line  *runtime.Line  `json:"line,omitempty"`
	Run   *domain.Run    `json:"run,omitempty"`
	Error map[string]any `json:"error,omitempty"`
}

const writeWait = 10 * time.Second

// stream runs the first WorkspaceRequest a client sends and pushes every
// observation as it happens. Closing the socket cancels the run.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.opts.MaxBodyBytes)
	log := logger.With(r.Context(), s.logger)

	var mu sync.Mutex
	send := func(msg StreamMessage) {
		mu.Lock()
		defer mu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			log.Debug("stream write failed", slog.Any("error", err))
		}
	}

	var req WorkspaceRequest
	if err := conn.ReadJSON(&req); err != nil {
		send(StreamMessage{Type: MsgError, Error: errors.Problem(errors.Wrap(http.StatusBadRequest, "Bad Request", err))})
		return
	}
	if err := validate.Struct(&req); err != nil {
		send(StreamMessage{Type: MsgError, Error: errors.Problem(errors.Wrap(http.StatusBadRequest, "Validation Failed", err))})
		return
	}
	data, format, err := req.Source()
	if err != nil {
		send(StreamMessage{Type: MsgError, Error: errors.Problem(errors.Wrap(http.StatusBadRequest, "Bad Request", err))})
		return
	}

	// The hijacked request's context may end early; keep its values only.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	// Any client frame or close after the request cancels the run.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	run, err := s.runner.RunWorkspace(ctx, data, format, req.Name, service.RunOptions{
		OnStart: func(id string) { send(StreamMessage{Type: MsgStarted, RunID: id}) },
		Sink: runtime.SinkFunc(func(l runtime.Line) {
			line := l
			send(StreamMessage{Type: MsgLine, Line: &line})
		}),
	})
	if err != nil {
		send(StreamMessage{Type: MsgError, Error: errors.Problem(mapError(err))})
		return
	}
	send(StreamMessage{Type: MsgFinished, RunID: run.ID, Run: run})

	mu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(run.Status)),
		time.Now().Add(writeWait))
	mu.Unlock()
}

