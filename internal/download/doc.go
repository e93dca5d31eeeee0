// Package download runs batch downloads over the selected preview rows,
// delegating media fetching to yt-dlp and container conversion to ffmpeg.
package download
