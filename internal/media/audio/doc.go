// Package audio adapts ffmpeg, ffprobe, and yt-dlp into the media
// capabilities the pipeline needs: probing, standardizing, cleaning,
// clipping, segmenting, and acquiring remote audio.
//
// Every tool call goes through a command.Runner so tests can replace process
// execution. Tool failures are returned as services.ErrToolInvocation with
// the tool's trimmed stderr attached.
package audio
