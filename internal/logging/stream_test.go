package logging

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestStreamHandlerCarriesWithAttrs(t *testing.T) {
	hub := NewStreamHub(100)
	handler := newStreamHandler(slog.NewTextHandler(io.Discard, nil), hub)

	logger := slog.New(handler).
		With(slog.String(FieldComponent, "intel")).
		With(slog.String(FieldJobID, "job-9")).
		With(slog.String(FieldStage, "summarizing"))

	logger.Info("summary chunk", slog.Int("chunk", 2))

	events, _ := hub.Tail(10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	evt := events[0]
	if evt.JobID != "job-9" || evt.Stage != "summarizing" || evt.Component != "intel" {
		t.Fatalf("unexpected event: %+v", evt)
	}
	if evt.Fields["chunk"] != "2" {
		t.Fatalf("expected chunk field, got %v", evt.Fields)
	}
}

func TestStreamHubDropsOldestBeyondCapacity(t *testing.T) {
	hub := NewStreamHub(3)
	for i := 0; i < 5; i++ {
		hub.Publish(LogEvent{Message: "m"})
	}
	events, next := hub.Tail(0)
	if len(events) != 3 {
		t.Fatalf("expected 3 buffered events, got %d", len(events))
	}
	if events[0].Sequence != 3 || next != 5 {
		t.Fatalf("unexpected sequences: first=%d next=%d", events[0].Sequence, next)
	}
}

func TestStreamHubFetchFiltersByJob(t *testing.T) {
	hub := NewStreamHub(10)
	hub.Publish(LogEvent{Message: "a", JobID: "one"})
	hub.Publish(LogEvent{Message: "b", JobID: "two"})
	hub.Publish(LogEvent{Message: "c", JobID: "one"})

	events, next, err := hub.Fetch(context.Background(), 0, "one", false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(events) != 2 || events[1].Message != "c" {
		t.Fatalf("unexpected events: %+v", events)
	}
	if next != 3 {
		t.Fatalf("expected next=3, got %d", next)
	}
}

func TestStreamHubFetchWaitsForEvent(t *testing.T) {
	hub := NewStreamHub(10)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() {
		time.Sleep(20 * time.Millisecond)
		hub.Publish(LogEvent{Message: "late"})
	}()

	events, _, err := hub.Fetch(ctx, 0, "", true)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(events) != 1 || events[0].Message != "late" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestStreamHubFetchReturnsOnCancel(t *testing.T) {
	hub := NewStreamHub(10)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if _, _, err := hub.Fetch(ctx, 0, "", true); err == nil {
		t.Fatal("expected context error")
	}
}
