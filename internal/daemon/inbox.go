package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"talknote/internal/api"
	"talknote/internal/fileutil"
	"talknote/internal/logging"
	"talknote/internal/textutil"
	"talknote/internal/workflow"
)

const defaultSettleInterval = 2 * time.Second

// Inbox watches a drop directory and submits new audio files as jobs.
type Inbox struct {
	dir     string
	owner   string
	allowed map[string]struct{}
	jobs    api.Submitter
	logger  *slog.Logger
	settle  time.Duration
	claim   string

	mu      sync.Mutex
	pending map[string]struct{}
	seen    map[string]struct{}
	wg      sync.WaitGroup
}

// InboxOption customizes an Inbox.
type InboxOption func(*Inbox)

// WithSettleInterval sets how long a file size must stay unchanged before
// the file is submitted.
func WithSettleInterval(d time.Duration) InboxOption {
	return func(i *Inbox) {
		if d > 0 {
			i.settle = d
		}
	}
}

// WithClaimDir moves settled files into dir before submitting them. Claimed
// files belong to their job and are removed when it ends.
func WithClaimDir(dir string) InboxOption {
	return func(i *Inbox) {
		i.claim = strings.TrimSpace(dir)
	}
}

// NewInbox prepares a watcher for dir. Extensions are matched
// case-insensitively, with or without the leading dot.
func NewInbox(dir, owner string, extensions []string, jobs api.Submitter, logger *slog.Logger, opts ...InboxOption) (*Inbox, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("inbox directory is required")
	}
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("inbox owner is required")
	}
	if jobs == nil {
		return nil, fmt.Errorf("inbox requires a job submitter")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	inbox := &Inbox{
		dir:     dir,
		owner:   strings.TrimSpace(owner),
		allowed: allowed,
		jobs:    jobs,
		logger:  logging.NewComponentLogger(logger, "inbox"),
		settle:  defaultSettleInterval,
		pending: make(map[string]struct{}),
		seen:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(inbox)
	}
	return inbox, nil
}

// Dir returns the watched directory.
func (i *Inbox) Dir() string {
	return i.dir
}

// Run watches the directory until ctx ends. In-flight settle waits are
// abandoned on return.
func (i *Inbox) Run(ctx context.Context) error {
	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return fmt.Errorf("create inbox directory: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(i.dir); err != nil {
		return fmt.Errorf("add watch path: %w", err)
	}

	i.logger.Info("inbox watcher started",
		logging.String(logging.FieldEventType, "inbox_start"),
		logging.String("dir", i.dir),
		logging.String("owner", i.owner),
	)
	defer i.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			i.handle(ctx, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			i.logger.Warn("inbox watcher error", logging.Error(err))
		}
	}
}

func (i *Inbox) handle(ctx context.Context, event fsnotify.Event) {
	path := event.Name
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		i.mu.Lock()
		delete(i.seen, path)
		i.mu.Unlock()
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !i.accepts(path) {
		i.logger.Debug("ignoring inbox file", logging.String("path", path))
		return
	}

	i.mu.Lock()
	_, busy := i.pending[path]
	_, done := i.seen[path]
	if busy || done {
		i.mu.Unlock()
		return
	}
	i.pending[path] = struct{}{}
	i.mu.Unlock()

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		defer func() {
			i.mu.Lock()
			delete(i.pending, path)
			i.mu.Unlock()
		}()
		if err := i.waitStable(ctx, path); err != nil {
			if ctx.Err() == nil {
				i.logger.Debug("inbox file vanished before settling", logging.String("path", path), logging.Error(err))
			}
			return
		}
		i.submit(ctx, path)
	}()
}

func (i *Inbox) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	_, ok := i.allowed[strings.ToLower(filepath.Ext(base))]
	return ok
}

// waitStable returns once the file size is non-zero and unchanged across
// one settle interval.
func (i *Inbox) waitStable(ctx context.Context, path string) error {
	ticker := time.NewTicker(i.settle)
	defer ticker.Stop()

	last := int64(-1)
	for {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
		size := info.Size()
		if size > 0 && size == last {
			return nil
		}
		last = size
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (i *Inbox) submit(ctx context.Context, path string) {
	i.mu.Lock()
	i.seen[path] = struct{}{}
	i.mu.Unlock()

	req := workflow.Request{Source: path, Owner: i.owner}
	if i.claim != "" {
		claimed, err := i.claimFile(path)
		if err != nil {
			logging.ErrorWithContext(i.logger, "inbox claim failed", "inbox_claim_failed",
				logging.String("path", path),
				logging.Error(err),
			)
			return
		}
		req.Source = claimed
		req.RemoveSource = true
	}

	id, err := i.jobs.Submit(ctx, req)
	if err != nil {
		i.mu.Lock()
		delete(i.seen, path)
		i.mu.Unlock()
		if req.RemoveSource {
			_ = os.Remove(req.Source)
		}
		logging.ErrorWithContext(i.logger, "inbox submission failed", "inbox_submit_failed",
			logging.String("path", path),
			logging.Error(err),
		)
		return
	}
	i.logger.Info("inbox file submitted",
		logging.String(logging.FieldEventType, "inbox_submitted"),
		logging.String(logging.FieldJobID, id),
		logging.String("path", path),
		logging.String("source", req.Source),
	)
}

func (i *Inbox) claimFile(path string) (string, error) {
	if err := os.MkdirAll(i.claim, 0o755); err != nil {
		return "", fmt.Errorf("create claim directory: %w", err)
	}
	name := textutil.StoredName(path)
	target := filepath.Join(i.claim, uuid.NewString()+"_"+name)
	if err := fileutil.MoveFile(path, target); err != nil {
		return "", fmt.Errorf("move %s: %w", path, err)
	}
	return target, nil
}
