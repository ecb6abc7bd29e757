// Package ytdlp builds yt-dlp invocations and decodes its metadata output.
package ytdlp

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Metadata is the subset of yt-dlp's info JSON used for screening.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Uploader    string   `json:"uploader,omitempty"`
	Duration    float64  `json:"duration,omitempty"`
}

// Empty reports whether the metadata has nothing to classify.
func (m Metadata) Empty() bool {
	return strings.TrimSpace(m.Title) == "" && strings.TrimSpace(m.Description) == "" && len(m.Tags) == 0
}

// MetadataArgs asks yt-dlp for the info JSON without downloading media.
func MetadataArgs(url string) []string {
	return []string{"--skip-download", "--dump-json", "--no-playlist", url}
}

// ParseMetadata decodes yt-dlp --dump-json output.
func ParseMetadata(data []byte) (Metadata, error) {
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("decode yt-dlp metadata: %w", err)
	}
	meta.Title = strings.TrimSpace(meta.Title)
	meta.Description = strings.TrimSpace(meta.Description)
	return meta, nil
}

// DownloadPrefix is the file name prefix for downloaded audio.
const DownloadPrefix = "download"

// DownloadArgs extracts the best audio track of url as mp3 into dir. All of
// yt-dlp's temporary files stay under dir.
func DownloadArgs(url, dir, ffmpegBinary string) []string {
	args := []string{
		"--paths", dir,
		"-f", "bestaudio/best",
		"-x", "--audio-format", "mp3",
		"--no-playlist",
		"-o", filepath.Join(dir, DownloadPrefix+".%(ext)s"),
	}
	if strings.ContainsRune(ffmpegBinary, filepath.Separator) {
		args = append([]string{"--ffmpeg-location", ffmpegBinary}, args...)
	}
	return append(args, url)
}
