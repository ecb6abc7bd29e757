package audio_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"talknote/internal/config"
	"talknote/internal/media/audio"
	"talknote/internal/media/command"
	"talknote/internal/services"
)

type call struct {
	name string
	args []string
}

type scriptedRunner struct {
	calls   []call
	respond func(name string, args []string) ([]byte, error)
}

func (r *scriptedRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, call{name: name, args: args})
	if r.respond == nil {
		return nil, nil
	}
	return r.respond(name, args)
}

func newAdapter(runner command.Runner) *audio.Adapter {
	cfg := config.Default()
	return audio.New(audio.SettingsFromConfig(&cfg), audio.WithRunner(runner))
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestStandardizeWritesCanonicalFormat(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "converted.mp3")
	runner := &scriptedRunner{respond: func(_ string, args []string) ([]byte, error) {
		touch(t, args[len(args)-1])
		return nil, nil
	}}

	if err := newAdapter(runner).Standardize(context.Background(), "in.wav", out, "64k"); err != nil {
		t.Fatalf("Standardize: %v", err)
	}
	if len(runner.calls) != 1 || runner.calls[0].name != "ffmpeg" {
		t.Fatalf("unexpected calls %+v", runner.calls)
	}
	joined := strings.Join(runner.calls[0].args, " ")
	for _, want := range []string{"-ac 1", "-ar 16000", "-b:a 64k", "loudnorm,highpass=f=200,lowpass=f=3000"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in %q", want, joined)
		}
	}
}

func TestToolFailureCarriesStderr(t *testing.T) {
	runner := &scriptedRunner{respond: func(string, []string) ([]byte, error) {
		return nil, &command.Error{Name: "ffmpeg", Stderr: "Invalid data found when processing input", Err: errors.New("exit status 1")}
	}}

	err := newAdapter(runner).Clean(context.Background(), "a.mp3", filepath.Join(t.TempDir(), "b.mp3"))
	if !errors.Is(err, services.ErrToolInvocation) {
		t.Fatalf("expected tool invocation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestMissingBinaryIsToolError(t *testing.T) {
	runner := &scriptedRunner{respond: func(string, []string) ([]byte, error) {
		return nil, &command.Error{Name: "ffmpeg", NotFound: true, Err: errors.New("executable file not found")}
	}}
	err := newAdapter(runner).Standardize(context.Background(), "a", filepath.Join(t.TempDir(), "b.mp3"), "128k")
	if !errors.Is(err, services.ErrToolInvocation) || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected missing binary tool error, got %v", err)
	}
}

func TestMissingOutputIsToolError(t *testing.T) {
	runner := &scriptedRunner{}
	err := newAdapter(runner).ExtractLeading(context.Background(), "a.mp3", filepath.Join(t.TempDir(), "screening.mp3"), 120, "128k")
	if !errors.Is(err, services.ErrToolInvocation) {
		t.Fatalf("expected tool error for missing output, got %v", err)
	}
}

func TestProbeDuration(t *testing.T) {
	runner := &scriptedRunner{respond: func(name string, _ []string) ([]byte, error) {
		if name != "ffprobe" {
			t.Fatalf("unexpected tool %q", name)
		}
		return []byte(`{"streams":[{"codec_type":"audio"}],"format":{"duration":"3600.0"}}`), nil
	}}
	got, err := newAdapter(runner).ProbeDuration(context.Background(), "x.mp3")
	if err != nil {
		t.Fatalf("ProbeDuration: %v", err)
	}
	if got != 3600 {
		t.Fatalf("expected 3600, got %v", got)
	}
}

func TestProbeDurationRejectsSilentContainer(t *testing.T) {
	runner := &scriptedRunner{respond: func(string, []string) ([]byte, error) {
		return []byte(`{"streams":[{"codec_type":"video"}],"format":{"duration":"10"}}`), nil
	}}
	if _, err := newAdapter(runner).ProbeDuration(context.Background(), "x.mp4"); !errors.Is(err, services.ErrToolInvocation) {
		t.Fatalf("expected tool error, got %v", err)
	}
}

func TestSegmentByTimeReturnsSortedParts(t *testing.T) {
	outDir := t.TempDir()
	runner := &scriptedRunner{respond: func(string, []string) ([]byte, error) {
		for _, name := range []string{"part_002.mp3", "part_000.mp3", "part_001.mp3"} {
			touch(t, filepath.Join(outDir, name))
		}
		return nil, nil
	}}
	files, err := newAdapter(runner).SegmentByTime(context.Background(), "cleaned.mp3", outDir, 600)
	if err != nil {
		t.Fatalf("SegmentByTime: %v", err)
	}
	if len(files) != 3 || filepath.Base(files[0]) != "part_000.mp3" || filepath.Base(files[2]) != "part_002.mp3" {
		t.Fatalf("unexpected files %v", files)
	}
}

func TestFetchMetadata(t *testing.T) {
	runner := &scriptedRunner{respond: func(name string, args []string) ([]byte, error) {
		if name != "yt-dlp" || args[len(args)-1] != "https://example.com/talk" {
			t.Fatalf("unexpected call %s %v", name, args)
		}
		return []byte(`{"title":"Sprint review","description":"team sync","tags":["work"]}`), nil
	}}
	meta, ok := newAdapter(runner).FetchMetadata(context.Background(), "https://example.com/talk")
	if !ok || meta.Title != "Sprint review" {
		t.Fatalf("unexpected metadata %+v ok=%v", meta, ok)
	}
}

func TestFetchMetadataFailureReturnsFalse(t *testing.T) {
	runner := &scriptedRunner{respond: func(string, []string) ([]byte, error) {
		return nil, &command.Error{Name: "yt-dlp", Stderr: "ERROR: Unsupported URL", Err: errors.New("exit status 1")}
	}}
	if _, ok := newAdapter(runner).FetchMetadata(context.Background(), "https://example.com/x"); ok {
		t.Fatal("expected false on tool failure")
	}
}

func TestDownloadFindsExtractedFile(t *testing.T) {
	dir := t.TempDir()
	runner := &scriptedRunner{respond: func(string, []string) ([]byte, error) {
		touch(t, filepath.Join(dir, "download.mp3"))
		return nil, nil
	}}
	path, err := newAdapter(runner).Download(context.Background(), "https://example.com/a", dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Base(path) != "download.mp3" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestDownloadWithoutFileIsFileSystemError(t *testing.T) {
	runner := &scriptedRunner{}
	_, err := newAdapter(runner).Download(context.Background(), "https://example.com/a", t.TempDir())
	if !errors.Is(err, services.ErrFileSystem) {
		t.Fatalf("expected file system error, got %v", err)
	}
}
