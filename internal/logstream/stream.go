// Package logstream prints talknote logs from the daemon API, falling back to
// the log files on disk when the daemon is not reachable.
package logstream

import (
	"context"
	"errors"
	"time"

	"talknote/internal/api"
	"talknote/internal/logs"
)

// followWait bounds each file poll in follow mode.
const followWait = time.Second

// Options controls stream behavior.
type Options struct {
	Lines  int
	Follow bool
	JobID  string
}

// Stream emits log events from the API when available and raw lines from
// fallbackPath otherwise. It returns true when anything was emitted.
func Stream(
	ctx context.Context,
	apiClient *logs.StreamClient,
	fallbackPath string,
	opts Options,
	onEvent func(api.LogEvent),
	onLine func(string),
) (bool, error) {
	printed, err := streamAPI(ctx, apiClient, opts, onEvent)
	if err == nil {
		return printed, nil
	}
	if !logs.IsAPIUnavailable(err) {
		return printed, err
	}
	if fallbackPath == "" {
		return false, logs.ErrAPIUnavailable
	}
	return streamFile(ctx, fallbackPath, opts, onLine)
}

func streamAPI(
	ctx context.Context,
	client *logs.StreamClient,
	opts Options,
	onEvent func(api.LogEvent),
) (bool, error) {
	query := logs.StreamQuery{
		Limit: opts.Lines,
		JobID: opts.JobID,
	}
	if query.Limit <= 0 {
		query.Limit = 200
	}

	printed := false
	for {
		resp, err := client.Fetch(ctx, query)
		if err != nil {
			if printed && errors.Is(ctx.Err(), context.Canceled) {
				return printed, nil
			}
			return printed, err
		}
		for _, evt := range resp.Events {
			if onEvent != nil {
				onEvent(evt)
			}
			printed = true
		}
		if !opts.Follow {
			return printed, nil
		}
		if resp.Next > 0 {
			query.Since = resp.Next
		}
		query.Limit = 200
		query.Follow = true
	}
}

func streamFile(ctx context.Context, path string, opts Options, onLine func(string)) (bool, error) {
	limit := opts.Lines
	if limit < 0 {
		limit = 0
	}
	tailOpts := logs.TailOptions{Offset: -1, Limit: limit}
	if limit == 0 {
		tailOpts.Offset = 0
	}

	printed := false
	for {
		result, err := logs.Tail(ctx, path, tailOpts)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return printed, nil
			}
			return printed, err
		}
		for _, line := range result.Lines {
			if onLine != nil {
				onLine(line)
			}
			printed = true
		}
		if !opts.Follow {
			return printed, nil
		}
		if len(result.Lines) == 0 {
			// Tail returns at once while the file does not exist yet.
			select {
			case <-ctx.Done():
				return printed, nil
			case <-time.After(followWait / 4):
			}
		}
		tailOpts = logs.TailOptions{Offset: result.Offset, Follow: true, Wait: followWait}
	}
}
