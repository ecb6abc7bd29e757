package workflow

import (
	"context"
	"log/slog"
	"sync"

	"talknote/internal/ledger"
	"talknote/internal/logging"
)

// StatusView is the answer to a status poll.
type StatusView struct {
	Status ledger.Status      `json:"status"`
	Result *ledger.Processing `json:"result"`
	Error  string             `json:"error,omitempty"`
}

// Manager runs submitted jobs in the background, one goroutine per job.
type Manager struct {
	orchestrator *Orchestrator
	store        *ledger.Store
	logger       *slog.Logger

	mu     sync.Mutex
	active int
	wg     sync.WaitGroup
}

// NewManager constructs a manager around an orchestrator.
func NewManager(orchestrator *Orchestrator, store *ledger.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		orchestrator: orchestrator,
		store:        store,
		logger:       logging.NewComponentLogger(logger, "workflow-manager"),
	}
}

// Submit records a pending job and starts it in the background. The job
// keeps running after ctx ends; only context values are carried over.
func (m *Manager) Submit(ctx context.Context, req Request) (string, error) {
	job, err := m.orchestrator.Create(ctx, req)
	if err != nil {
		return "", err
	}
	req.JobID = job.ID

	runCtx := context.WithoutCancel(ctx)
	m.mu.Lock()
	m.active++
	m.mu.Unlock()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			m.mu.Lock()
			m.active--
			m.mu.Unlock()
		}()
		if _, err := m.orchestrator.Run(runCtx, req); err != nil {
			m.logger.Debug("background job ended with error",
				logging.String(logging.FieldJobID, req.JobID),
				logging.Error(err),
			)
		}
	}()

	m.logger.Info("job submitted",
		logging.String(logging.FieldEventType, "job_submitted"),
		logging.String(logging.FieldJobID, job.ID),
		logging.String("owner", job.Owner),
		logging.String("source_kind", string(job.Source.Kind)),
	)
	return job.ID, nil
}

// Status reads the current state of a job from the ledger. Result is set
// only once the job has completed.
func (m *Manager) Status(ctx context.Context, id string) (StatusView, error) {
	return LoadStatus(ctx, m.store, id)
}

// LoadStatus builds a StatusView for id from the ledger.
func LoadStatus(ctx context.Context, store *ledger.Store, id string) (StatusView, error) {
	job, err := store.Get(ctx, id)
	if err != nil {
		return StatusView{}, err
	}
	return ViewOf(job), nil
}

// ViewOf projects a job onto the status poll shape.
func ViewOf(job *ledger.Job) StatusView {
	view := StatusView{Status: job.Status}
	if job.Status == ledger.StatusCompleted {
		result := job.Processing
		view.Result = &result
	}
	if job.Error != nil {
		view.Error = job.Error.Message
	}
	return view
}

// Active returns the number of jobs still running.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Wait blocks until every submitted job has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}
