// Package ffmpeg builds ffmpeg argument lists for the audio normalization chain.
package ffmpeg

import (
	"strconv"
	"strings"
)

// Format is the canonical output encoding.
type Format struct {
	SampleRate int
	Channels   int
	Bitrate    string
}

func (f Format) encodeArgs() []string {
	return []string{
		"-vn",
		"-acodec", "libmp3lame",
		"-ac", strconv.Itoa(f.Channels),
		"-ar", strconv.Itoa(f.SampleRate),
		"-b:a", f.Bitrate,
	}
}

// StandardizeArgs re-encodes input to the canonical format, applying filters
// as one -af chain when any are given.
func StandardizeArgs(input, output string, format Format, filters []string) []string {
	args := []string{"-y", "-i", input}
	args = append(args, format.encodeArgs()...)
	if len(filters) > 0 {
		args = append(args, "-af", strings.Join(filters, ","))
	}
	return append(args, output)
}

// CleanArgs applies the silence and noise-gate filter chain.
func CleanArgs(input, output string, filters []string) []string {
	args := []string{"-y", "-i", input}
	if len(filters) > 0 {
		args = append(args, "-af", strings.Join(filters, ","))
	}
	return append(args, output)
}

// ExtractLeadingArgs cuts the first seconds of input into the canonical format.
func ExtractLeadingArgs(input, output string, seconds int, format Format) []string {
	args := []string{"-y", "-i", input, "-t", strconv.Itoa(seconds)}
	args = append(args, format.encodeArgs()...)
	return append(args, output)
}

// SegmentPattern is the file name pattern for time-based segments.
const SegmentPattern = "part_%03d.mp3"

// SegmentArgs splits input into stream-copied segments of interval seconds.
func SegmentArgs(input, pattern string, interval float64) []string {
	return []string{
		"-y", "-i", input,
		"-f", "segment",
		"-segment_time", strconv.FormatFloat(interval, 'f', 3, 64),
		"-c", "copy",
		pattern,
	}
}
