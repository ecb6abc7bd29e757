package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"talknote/internal/config"
	"talknote/internal/ledger"
	"talknote/internal/logging"
	"talknote/internal/services"
	"talknote/internal/workflow"
)

// OwnerHeader carries the caller identity on every owner-scoped request.
const OwnerHeader = "X-Talknote-Owner"

// Submitter accepts jobs for background execution. *workflow.Manager
// satisfies it.
type Submitter interface {
	Submit(ctx context.Context, req workflow.Request) (string, error)
	Active() int
}

// Options wires a Server.
type Options struct {
	Config *config.Config
	Store  *ledger.Store
	Jobs   Submitter
	Hub    *logging.StreamHub
	Logger *slog.Logger
	// StreamInterval is the ledger poll period of the websocket status
	// stream. Defaults to one second.
	StreamInterval time.Duration
}

// Server is the daemon HTTP API.
type Server struct {
	cfg      *config.Config
	store    *ledger.Store
	jobs     Submitter
	hub      *logging.StreamHub
	logger   *slog.Logger
	interval time.Duration
	upgrader websocket.Upgrader
	handler  http.Handler

	listener net.Listener
	server   *http.Server
}

// NewServer builds the API server and its routes.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	interval := opts.StreamInterval
	if interval <= 0 {
		interval = time.Second
	}
	s := &Server{
		cfg:      opts.Config,
		store:    opts.Store,
		jobs:     opts.Jobs,
		hub:      opts.Hub,
		logger:   logging.NewComponentLogger(logger, "api-server"),
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/jobs", s.handleSubmit)
	mux.HandleFunc("GET /api/jobs", s.handleList)
	mux.HandleFunc("DELETE /api/jobs", s.handleHideAll)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleJob)
	mux.HandleFunc("DELETE /api/jobs/{id}", s.handleHide)
	mux.HandleFunc("GET /api/jobs/{id}/status", s.handleStatus)
	mux.HandleFunc("GET /api/jobs/{id}/stream", s.handleStream)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	token := ""
	if s.cfg != nil {
		token = strings.TrimSpace(s.cfg.API.Token)
	}
	s.handler = requestIDMiddleware(authMiddleware(token, mux))
	return s
}

// Handler returns the routed handler, including auth.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured bind address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	bind := ""
	if s.cfg != nil {
		bind = strings.TrimSpace(s.cfg.API.Bind)
	}
	if bind == "" {
		return services.Wrap(services.ErrConfiguration, "api", "start", "api.bind is empty", nil)
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	context.AfterFunc(ctx, s.Stop)

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String(logging.FieldEventType, "api_listening"),
	)
	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeFailure maps an error to a status code and writes it.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "job not found")
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "api_request_failed",
			logging.String("path", r.URL.Path),
			logging.Error(err),
		)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
	if owner == "" {
		s.writeError(w, http.StatusBadRequest, "missing "+OwnerHeader+" header")
		return "", false
	}
	return owner, true
}
