package logstream_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"talknote/internal/api"
	"talknote/internal/logs"
	"talknote/internal/logstream"
)

func TestStreamUsesAPIWhenReachable(t *testing.T) {
	var gotJob string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotJob = r.URL.Query().Get("job")
		_ = json.NewEncoder(w).Encode(api.LogStreamResponse{
			Events: []api.LogEvent{{Sequence: 1, Message: "stage started"}, {Sequence: 2, Message: "stage completed"}},
			Next:   3,
		})
	}))
	defer srv.Close()

	client, err := logs.NewStreamClient(srv.URL, "")
	if err != nil {
		t.Fatalf("NewStreamClient: %v", err)
	}

	var messages []string
	printed, err := logstream.Stream(context.Background(), client, "", logstream.Options{Lines: 10, JobID: "job-7"},
		func(evt api.LogEvent) { messages = append(messages, evt.Message) },
		func(string) { t.Fatal("file fallback should not be used") },
	)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !printed || len(messages) != 2 || messages[1] != "stage completed" {
		t.Fatalf("unexpected events printed=%v %v", printed, messages)
	}
	if gotJob != "job-7" {
		t.Fatalf("expected job filter, got %q", gotJob)
	}
}

func TestStreamFallsBackToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talknoted.log")
	if err := os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	var lines []string
	printed, err := logstream.Stream(context.Background(), nil, path, logstream.Options{Lines: 2},
		func(api.LogEvent) { t.Fatal("no API events expected") },
		func(line string) { lines = append(lines, line) },
	)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if !printed || len(lines) != 2 || lines[0] != "two" || lines[1] != "three" {
		t.Fatalf("unexpected lines printed=%v %v", printed, lines)
	}
}

func TestStreamWithoutAPIOrFallback(t *testing.T) {
	_, err := logstream.Stream(context.Background(), nil, "", logstream.Options{}, nil, nil)
	if !logs.IsAPIUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestStreamReturnsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := logs.NewStreamClient(srv.URL, "")
	if err != nil {
		t.Fatalf("NewStreamClient: %v", err)
	}
	path := filepath.Join(t.TempDir(), "talknoted.log")
	if _, err := logstream.Stream(context.Background(), client, path, logstream.Options{}, nil, func(string) {
		t.Fatal("HTTP errors must not fall back to files")
	}); err == nil {
		t.Fatal("expected error")
	}
}
