// Package convert wraps ffmpeg for container remuxing and audio re-encoding.
package convert

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// FFmpeg invocation constants
const (
	FFmpegCommand = "ffmpeg"

	// MP3Codec is the encoder used when converting audio to mp3.
	MP3Codec = "libmp3lame"
)

// Service runs ffmpeg conversions. The zero value is usable.
type Service struct{}

// NewService creates an ffmpeg conversion service.
func NewService() *Service {
	return &Service{}
}

// Available reports whether the ffmpeg executable can be found.
func (s *Service) Available() bool {
	_, err := exec.LookPath(FFmpegCommand)
	return err == nil
}

// Remux rewraps inputPath into the container implied by outputPath without
// re-encoding any streams.
func (s *Service) Remux(ctx context.Context, inputPath, outputPath string) error {
	return s.run(ctx, buildRemuxArgs(inputPath, outputPath))
}

// EncodeAudio re-encodes inputPath to mp3 at the given bitrate, dropping any
// video stream.
func (s *Service) EncodeAudio(ctx context.Context, inputPath, outputPath string, bitrateKbps int) error {
	return s.run(ctx, buildEncodeAudioArgs(inputPath, outputPath, bitrateKbps))
}

func (s *Service) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, FFmpegCommand, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, string(output))
	}
	return nil
}

func buildRemuxArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-codec", "copy",
		outputPath,
	}
}

func buildEncodeAudioArgs(inputPath, outputPath string, bitrateKbps int) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-codec:a", MP3Codec,
		"-b:a", strconv.Itoa(bitrateKbps) + "k",
		outputPath,
	}
}
