// Package command runs external media tools behind a replaceable Runner.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a program and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

// Error describes a failed tool invocation.
type Error struct {
	Name     string
	Stderr   string
	NotFound bool
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.NotFound:
		return fmt.Sprintf("%s: binary not found", e.Name)
	case e.Stderr != "":
		return fmt.Sprintf("%s: %v: %s", e.Name, e.Err, e.Stderr)
	default:
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Exec runs commands with os/exec.
type Exec struct{}

// Run executes name with args. A non-zero exit or a missing binary returns
// *Error carrying the trimmed stderr.
func (Exec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &Error{
			Name:     name,
			Stderr:   tail(strings.TrimSpace(stderr.String()), 2000),
			NotFound: errors.Is(err, exec.ErrNotFound),
			Err:      err,
		}
	}
	return stdout.Bytes(), nil
}

// tail keeps the last limit bytes, where ffmpeg prints the actual failure.
func tail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return "..." + s[len(s)-limit:]
}
