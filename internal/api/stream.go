package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"talknote/internal/logging"
	"talknote/internal/workflow"
)

// StatusMessage is pushed over the job stream whenever the job changes.
type StatusMessage struct {
	Type  string `json:"type"`
	JobID string `json:"job_id"`
	StatusResponse
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// handleStream upgrades to a websocket and pushes the job status on every
// change until the job reaches a terminal status.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.Get(r.Context(), id); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	// Reading is required to observe client close frames.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldJobID, id))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var lastSent string
	for {
		job, err := s.store.Get(ctx, id)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("job stream read failed", logging.Error(err))
			}
			return
		}
		stamp := string(job.Status) + "|" + formatTime(job.UpdatedAt)
		if stamp != lastSent {
			msg := StatusMessage{
				Type:           "job_update",
				JobID:          id,
				StatusResponse: FromStatusView(workflow.ViewOf(job)),
				UpdatedAt:      formatTime(job.UpdatedAt),
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug("job stream write failed", logging.Error(err))
				return
			}
			lastSent = stamp
		}
		if job.Status.IsTerminal() {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(job.Status)),
				time.Now().Add(time.Second))
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
