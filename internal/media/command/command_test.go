package command_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"talknote/internal/media/command"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestExecReturnsStdout(t *testing.T) {
	tool := writeScript(t, `echo "out $1"`)
	out, err := command.Exec{}.Run(context.Background(), tool, "arg")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(string(out)) != "out arg" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestExecCarriesStderrOnFailure(t *testing.T) {
	tool := writeScript(t, `echo "codec not supported" >&2; exit 3`)
	_, err := command.Exec{}.Run(context.Background(), tool)
	var cmdErr *command.Error
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected *command.Error, got %v", err)
	}
	if cmdErr.Stderr != "codec not supported" {
		t.Fatalf("unexpected stderr %q", cmdErr.Stderr)
	}
	if cmdErr.NotFound {
		t.Fatal("did not expect NotFound")
	}
}

func TestExecMissingBinary(t *testing.T) {
	_, err := command.Exec{}.Run(context.Background(), "talknote-definitely-missing-tool")
	var cmdErr *command.Error
	if !errors.As(err, &cmdErr) || !cmdErr.NotFound {
		t.Fatalf("expected NotFound error, got %v", err)
	}
}
