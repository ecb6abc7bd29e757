package chunk

import (
	"context"
	"fmt"
	"math"
	"os"
	"slices"

	"talknote/internal/services"
)

// Segmenter is the media capability SplitAudio needs.
type Segmenter interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	SegmentByTime(ctx context.Context, path, outDir string, interval float64) ([]string, error)
}

// SplitAudio returns path unchanged when the file fits in maxBytes. Larger
// files are cut into ceil(size/maxBytes) segments of equal duration written
// under outDir, returned in name order.
func SplitAudio(ctx context.Context, seg Segmenter, path, outDir string, maxBytes int64) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, services.Wrap(services.ErrFileSystem, "audio_processing", "chunk audio", "stat input", err)
	}
	size := info.Size()
	if maxBytes <= 0 || size <= maxBytes {
		return []string{path}, nil
	}

	parts := int(math.Ceil(float64(size) / float64(maxBytes)))
	duration, err := seg.ProbeDuration(ctx, path)
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, services.Wrap(services.ErrToolInvocation, "audio_processing", "chunk audio", fmt.Sprintf("invalid duration %.2fs", duration), nil)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrFileSystem, "audio_processing", "chunk audio", "create chunk directory", err)
	}

	files, err := seg.SegmentByTime(ctx, path, outDir, duration/float64(parts))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, services.Wrap(services.ErrToolInvocation, "audio_processing", "chunk audio", "segmenting produced no files", nil)
	}
	files = slices.Clone(files)
	slices.Sort(files)
	return files, nil
}
