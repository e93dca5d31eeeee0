package download

import (
	"context"

	"github.com/bluesjamgt/yt-dlp-gui/internal/model"
)

// FetchRequest describes one media fetch for a single item.
type FetchRequest struct {
	URL  string
	Kind model.Kind

	// OutputStem is the absolute destination path without extension.
	// yt-dlp appends the extension it produced.
	OutputStem string

	// HeightLimit caps the video resolution. Zero means no cap.
	HeightLimit int

	EmbedThumbnail bool
	EmbedMetadata  bool

	CoverFormat    string
	SubtitleFormat string

	// WriteSubtitles also downloads subtitles alongside a video fetch.
	WriteSubtitles bool

	// SubtitleLangs lists explicit subtitle languages. Empty means all
	// available languages except live chat.
	SubtitleLangs []string

	// Progress, when set, receives download percentages in [0, 100].
	Progress func(percent float64)
}

// MediaFetcher downloads media for one request. Implemented by the yt-dlp
// backed fetcher; tests substitute fakes.
type MediaFetcher interface {
	Fetch(ctx context.Context, req FetchRequest) error
}

// Converter performs post-download container conversions.
type Converter interface {
	Remux(ctx context.Context, inputPath, outputPath string) error
	EncodeAudio(ctx context.Context, inputPath, outputPath string, bitrateKbps int) error
}
