package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"talknote/internal/api"
	"talknote/internal/config"
	"talknote/internal/ledger"
	"talknote/internal/logging"
)

// Jobs runs submitted jobs in the background. *workflow.Manager satisfies it.
type Jobs interface {
	api.Submitter
	Wait()
}

// Daemon coordinates the API server, the inbox watcher and the job manager
// and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *ledger.Store
	jobs   Jobs
	server *api.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	inbox   *Inbox
	inboxWG sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	ActiveJobs   int
	LedgerPath   string
	LockFilePath string
	APIAddress   string
	InboxDir     string
}

// New constructs a daemon with initialized dependencies. hub may be nil.
func New(cfg *config.Config, store *ledger.Store, jobs Jobs, hub *logging.StreamHub, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || jobs == nil {
		return nil, errors.New("daemon requires config, store, and job manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "daemon"),
		store:  store,
		jobs:   jobs,
		server: api.NewServer(api.Options{
			Config: cfg,
			Store:  store,
			Jobs:   jobs,
			Hub:    hub,
			Logger: logger,
		}),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, fails jobs left over from a previous
// run, and starts the API and the inbox watcher.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another talknote daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.recoverStale(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	if err := d.server.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api: %w", err)
	}
	if dir := strings.TrimSpace(d.cfg.Inbox.Dir); dir != "" {
		inbox, err := NewInbox(dir, d.cfg.Inbox.Owner, d.cfg.Inbox.Extensions, d.jobs, d.logger,
			WithClaimDir(d.cfg.Paths.UploadDir))
		if err != nil {
			d.server.Stop()
			cancel()
			_ = d.lock.Unlock()
			return fmt.Errorf("start inbox: %w", err)
		}
		d.inbox = inbox
		d.inboxWG.Add(1)
		go func() {
			defer d.inboxWG.Done()
			if err := inbox.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				logging.ErrorWithContext(d.logger, "inbox watcher stopped", "inbox_failed", logging.Error(err))
			}
		}()
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("talknote daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.String("api", d.server.Addr()),
	)
	return nil
}

// recoverStale fails every non-terminal job older than the configured
// grace period. No other daemon can be running these jobs while the lock
// is held.
func (d *Daemon) recoverStale(ctx context.Context) error {
	grace := time.Duration(d.cfg.Workflow.StaleJobMinutes) * time.Minute
	count, err := d.store.FailStale(ctx, time.Now().Add(-grace))
	if err != nil {
		return fmt.Errorf("recover stale jobs: %w", err)
	}
	if count > 0 {
		logging.WarnWithContext(d.logger, "failed jobs abandoned by a previous run", "stale_jobs_failed",
			logging.Int64("count", count),
			logging.String(logging.FieldImpact, "these jobs must be resubmitted"),
		)
	}
	return nil
}

// Stop stops accepting work, waits for running jobs to finish and
// releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.inboxWG.Wait()
	d.inbox = nil
	d.server.Stop()
	d.jobs.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("talknote daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close stops the daemon and closes the ledger.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		ActiveJobs:   d.jobs.Active(),
		LedgerPath:   d.store.Path(),
		LockFilePath: d.lockPath,
		APIAddress:   d.server.Addr(),
	}
	if d.inbox != nil {
		status.InboxDir = d.inbox.Dir()
	}
	return status
}
