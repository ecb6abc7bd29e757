package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDaemonRefusesMissingCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := "[paths]\n" +
		"data_dir = \"" + filepath.Join(base, "data") + "\"\n" +
		"workspace_dir = \"" + filepath.Join(base, "work") + "\"\n" +
		"upload_dir = \"" + filepath.Join(base, "uploads") + "\"\n" +
		"log_dir = \"" + filepath.Join(base, "logs") + "\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCommand()
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--config", configPath})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Fatalf("expected credential error, got %v", err)
	}
}

func TestDaemonRejectsArguments(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"extra"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected argument error")
	}
}
