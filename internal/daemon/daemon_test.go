package daemon_test

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"talknote/internal/daemon"
	"talknote/internal/ledger"
	"talknote/internal/testsupport"
	"talknote/internal/workflow"
)

type fakeJobs struct {
	mu       sync.Mutex
	requests []workflow.Request
	waited   bool
}

func (f *fakeJobs) Submit(_ context.Context, req workflow.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return "job-" + filepath.Base(req.Source), nil
}

func (f *fakeJobs) Active() int { return 0 }

func (f *fakeJobs) Wait() {
	f.mu.Lock()
	f.waited = true
	f.mu.Unlock()
}

func (f *fakeJobs) submitted() []workflow.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]workflow.Request(nil), f.requests...)
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	jobs := &fakeJobs{}
	d, err := daemon.New(cfg, store, jobs, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status()
	if !status.Running || status.APIAddress == "" {
		t.Fatalf("unexpected status %+v", status)
	}

	resp, err := http.Get("http://" + status.APIAddress + "/api/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	resp.Body.Close()

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
	if !jobs.waited {
		t.Fatal("expected Stop to drain running jobs")
	}
}

func TestSecondInstanceRefused(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	first, err := daemon.New(cfg, store, &fakeJobs{}, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(first.Stop)

	second, err := daemon.New(cfg, store, &fakeJobs{}, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected lock contention error")
	}
}

func TestStartFailsAbandonedJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	job := testsupport.NewJob(t, store, "alice", "/tmp/a.wav")
	ctx := context.Background()
	if err := store.SetStatus(ctx, job.ID, ledger.StatusTranscribing, nil); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	d, err := daemon.New(cfg, store, &fakeJobs{}, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)

	got, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != ledger.StatusFailed || got.Error == nil || got.Error.Stage != "critical_error" {
		t.Fatalf("expected stale job to fail, got %s %+v", got.Status, got.Error)
	}
}

func TestDaemonStartsInbox(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithInbox())
	store := testsupport.MustOpenLedger(t, cfg)
	d, err := daemon.New(cfg, store, &fakeJobs{}, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)
	if got := d.Status().InboxDir; got != cfg.Inbox.Dir {
		t.Fatalf("inbox dir = %q, want %q", got, cfg.Inbox.Dir)
	}
}

func TestInboxSubmitsSettledAudio(t *testing.T) {
	dir := t.TempDir()
	jobs := &fakeJobs{}
	inbox, err := daemon.NewInbox(dir, "inbox", []string{"mp3", ".WAV"}, jobs, nil, daemon.WithSettleInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewInbox: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- inbox.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher time to register before files appear.
	time.Sleep(100 * time.Millisecond)
	testsupport.WriteFile(t, filepath.Join(dir, "notes.txt"), 10)
	testsupport.WriteFile(t, filepath.Join(dir, ".partial.mp3"), 10)
	testsupport.WriteFile(t, filepath.Join(dir, "Standup.WAV"), 2048)

	deadline := time.Now().Add(5 * time.Second)
	for len(jobs.submitted()) == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	// Allow late duplicate events to surface.
	time.Sleep(200 * time.Millisecond)

	got := jobs.submitted()
	if len(got) != 1 {
		t.Fatalf("expected one submission, got %+v", got)
	}
	if got[0].Owner != "inbox" || filepath.Base(got[0].Source) != "Standup.WAV" || got[0].RemoveSource {
		t.Fatalf("unexpected request %+v", got[0])
	}
}

func TestInboxClaimsIntoUploadDir(t *testing.T) {
	dir := t.TempDir()
	claim := t.TempDir()
	jobs := &fakeJobs{}
	inbox, err := daemon.NewInbox(dir, "inbox", []string{".mp3"}, jobs, nil,
		daemon.WithSettleInterval(20*time.Millisecond), daemon.WithClaimDir(claim))
	if err != nil {
		t.Fatalf("NewInbox: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- inbox.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	time.Sleep(100 * time.Millisecond)
	dropped := filepath.Join(dir, "board meeting.mp3")
	testsupport.WriteFile(t, dropped, 1024)

	deadline := time.Now().Add(5 * time.Second)
	for len(jobs.submitted()) == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	got := jobs.submitted()
	if len(got) != 1 {
		t.Fatalf("expected one submission, got %+v", got)
	}
	req := got[0]
	if filepath.Dir(req.Source) != claim || !strings.HasSuffix(req.Source, "_board_meeting.mp3") || !req.RemoveSource {
		t.Fatalf("unexpected claimed request %+v", req)
	}
	if _, err := os.Stat(dropped); !os.IsNotExist(err) {
		t.Fatalf("expected dropped file to be moved, stat err = %v", err)
	}
}

func TestNewInboxValidation(t *testing.T) {
	if _, err := daemon.NewInbox("", "owner", nil, &fakeJobs{}, nil); err == nil {
		t.Fatal("expected missing dir error")
	}
	if _, err := daemon.NewInbox(t.TempDir(), " ", nil, &fakeJobs{}, nil); err == nil {
		t.Fatal("expected missing owner error")
	}
	if _, err := daemon.NewInbox(t.TempDir(), "owner", nil, nil, nil); err == nil {
		t.Fatal("expected missing submitter error")
	}
}
