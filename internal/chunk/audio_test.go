package chunk_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"talknote/internal/chunk"
	"talknote/internal/services"
)

type fakeSegmenter struct {
	duration     float64
	files        []string
	probeCalls   int
	segmentCalls int
	interval     float64
	outDir       string
}

func (f *fakeSegmenter) ProbeDuration(context.Context, string) (float64, error) {
	f.probeCalls++
	return f.duration, nil
}

func (f *fakeSegmenter) SegmentByTime(_ context.Context, _ string, outDir string, interval float64) ([]string, error) {
	f.segmentCalls++
	f.interval = interval
	f.outDir = outDir
	return f.files, nil
}

func writeSized(t *testing.T, path string, size int64) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	if err := file.Truncate(size); err != nil {
		t.Fatalf("truncate %s: %v", path, err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}

func TestSplitAudioSmallFileIsReturnedAsIs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cleaned.mp3")
	writeSized(t, path, 10*1024*1024)

	seg := &fakeSegmenter{}
	got, err := chunk.SplitAudio(context.Background(), seg, path, filepath.Join(dir, "chunks"), 25*1024*1024)
	if err != nil {
		t.Fatalf("SplitAudio: %v", err)
	}
	if len(got) != 1 || got[0] != path {
		t.Fatalf("expected original path, got %v", got)
	}
	if seg.probeCalls != 0 || seg.segmentCalls != 0 {
		t.Fatalf("segmenter should not be called, probe=%d segment=%d", seg.probeCalls, seg.segmentCalls)
	}
}

func TestSplitAudioDividesDurationEvenly(t *testing.T) {
	tests := []struct {
		size      int64
		max       int64
		duration  float64
		wantParts int
	}{
		{size: 60, max: 25, duration: 3600, wantParts: 3},
		{size: 50, max: 25, duration: 100, wantParts: 2},
		{size: 26, max: 25, duration: 90, wantParts: 2},
		{size: 101, max: 10, duration: 1100, wantParts: 11},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_over_%d", tt.size, tt.max), func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "cleaned.mp3")
			writeSized(t, path, tt.size)
			outDir := filepath.Join(dir, "chunks")
			seg := &fakeSegmenter{
				duration: tt.duration,
				files:    []string{filepath.Join(outDir, "part_001.mp3"), filepath.Join(outDir, "part_000.mp3")},
			}

			got, err := chunk.SplitAudio(context.Background(), seg, path, outDir, tt.max)
			if err != nil {
				t.Fatalf("SplitAudio: %v", err)
			}
			want := tt.duration / float64(tt.wantParts)
			if math.Abs(seg.interval-want) > 1e-9 {
				t.Fatalf("interval = %f, want %f", seg.interval, want)
			}
			if seg.outDir != outDir {
				t.Fatalf("unexpected out dir %q", seg.outDir)
			}
			if filepath.Base(got[0]) != "part_000.mp3" || filepath.Base(got[1]) != "part_001.mp3" {
				t.Fatalf("expected name-sorted files, got %v", got)
			}
			if info, err := os.Stat(outDir); err != nil || !info.IsDir() {
				t.Fatalf("expected chunk dir to exist: %v", err)
			}
		})
	}
}

func TestSplitAudioZeroSegmentsIsToolError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cleaned.mp3")
	writeSized(t, path, 100)

	seg := &fakeSegmenter{duration: 60}
	_, err := chunk.SplitAudio(context.Background(), seg, path, filepath.Join(dir, "chunks"), 10)
	if !errors.Is(err, services.ErrToolInvocation) {
		t.Fatalf("expected tool invocation error, got %v", err)
	}
}

func TestSplitAudioMissingFileIsFileSystemError(t *testing.T) {
	_, err := chunk.SplitAudio(context.Background(), &fakeSegmenter{}, filepath.Join(t.TempDir(), "missing.mp3"), t.TempDir(), 10)
	if !errors.Is(err, services.ErrFileSystem) {
		t.Fatalf("expected file system error, got %v", err)
	}
}
