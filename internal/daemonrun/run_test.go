package daemonrun

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"talknote/internal/logging"
	"talknote/internal/testsupport"
)

func TestEnsureCurrentLogPointer(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "talknoted-1.log")
	second := filepath.Join(dir, "talknoted-2.log")
	for _, path := range []string{first, second} {
		if err := os.WriteFile(path, []byte(filepath.Base(path)), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := ensureCurrentLogPointer(dir, first); err != nil {
		t.Fatalf("first pointer: %v", err)
	}
	if err := ensureCurrentLogPointer(dir, second); err != nil {
		t.Fatalf("second pointer: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "talknoted.log"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "talknoted-2.log" {
		t.Fatalf("pointer resolves to %q", data)
	}
}

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talknoted.pid")
	if err := writePIDFile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		t.Fatalf("pid file = %q, %v", data, err)
	}
}

func TestRunRequiresCredentials(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.LLM.APIKey = ""
	if err := Run(context.Background(), cfg, Options{}); err == nil {
		t.Fatal("expected missing credential error")
	}
	if err := Run(context.Background(), nil, Options{}); err == nil {
		t.Fatal("expected missing config error")
	}
}

func TestNewOrchestratorWiresJobLogs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	if NewOrchestrator(cfg, store, logging.NewStreamHub(8), logging.NewNop()) == nil {
		t.Fatal("expected orchestrator")
	}
}
