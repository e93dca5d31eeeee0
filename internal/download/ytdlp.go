package download

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/bluesjamgt/yt-dlp-gui/internal/model"
)

const (
	// downloadSocketTimeout bounds how long yt-dlp waits on a stalled
	// connection.
	downloadSocketTimeout = 20

	// progressInterval is how often yt-dlp reports download progress.
	progressInterval = 500 * time.Millisecond

	// mergeContainer is the container yt-dlp merges video and audio
	// streams into. Other target containers are converted afterwards.
	mergeContainer = "mp4"

	// intermediateAudioFormat is what yt-dlp extracts audio to. MP3
	// targets are re-encoded afterwards.
	intermediateAudioFormat = "m4a"
)

// defaultSubtitleLangs downloads every subtitle track except live chat.
var defaultSubtitleLangs = []string{"all", "-live_chat"}

// fetchOptions are the resolved yt-dlp flag decisions for one request,
// separated from the command builder so they can be inspected directly.
type fetchOptions struct {
	format         string
	mergeContainer string

	extractAudio bool
	audioFormat  string

	skipDownload bool

	writeThumbnail  bool
	thumbnailFormat string

	embedThumbnail bool
	embedMetadata  bool

	writeSubs bool
	subLangs  string
	subFormat string
}

// buildFetchOptions maps a request onto yt-dlp options. Thumbnail and
// metadata embedding apply to both media kinds; subtitle tracks are
// requested for any kind once enabled, not just in subtitle mode.
func buildFetchOptions(req FetchRequest) (fetchOptions, error) {
	var opts fetchOptions

	switch req.Kind {
	case model.KindVideo:
		opts.format = videoFormatSelector(req.HeightLimit)
		opts.mergeContainer = mergeContainer
		opts.embedThumbnail = req.EmbedThumbnail
		opts.embedMetadata = req.EmbedMetadata

	case model.KindAudio:
		opts.format = "bestaudio/best"
		opts.extractAudio = true
		opts.audioFormat = intermediateAudioFormat
		opts.embedThumbnail = req.EmbedThumbnail
		opts.embedMetadata = req.EmbedMetadata

	case model.KindCover:
		opts.skipDownload = true
		opts.writeThumbnail = true
		opts.thumbnailFormat = req.CoverFormat

	case model.KindSubtitle:
		opts.skipDownload = true

	default:
		return fetchOptions{}, fmt.Errorf("unknown download kind: %s", req.Kind)
	}

	if req.WriteSubtitles || req.Kind == model.KindSubtitle {
		opts.writeSubs = true
		opts.subLangs = strings.Join(subtitleLangs(req.SubtitleLangs), ",")
		opts.subFormat = req.SubtitleFormat
	}

	return opts, nil
}

// YtDlpFetcher fetches media through the yt-dlp binary.
type YtDlpFetcher struct{}

// NewYtDlpFetcher creates the yt-dlp backed fetcher.
func NewYtDlpFetcher() *YtDlpFetcher {
	return &YtDlpFetcher{}
}

// Fetch runs one yt-dlp download for the request.
func (f *YtDlpFetcher) Fetch(ctx context.Context, req FetchRequest) error {
	opts, err := buildFetchOptions(req)
	if err != nil {
		return err
	}

	dl := ytdlp.New().
		NoPlaylist().
		SocketTimeout(downloadSocketTimeout).
		Output(req.OutputStem + ".%(ext)s")

	if opts.format != "" {
		dl = dl.Format(opts.format)
	}
	if opts.mergeContainer != "" {
		dl = dl.MergeOutputFormat(opts.mergeContainer)
	}
	if opts.extractAudio {
		dl = dl.ExtractAudio().AudioFormat(opts.audioFormat)
	}
	if opts.skipDownload {
		dl = dl.SkipDownload()
	}
	if opts.writeThumbnail {
		dl = dl.WriteThumbnail().ConvertThumbnails(opts.thumbnailFormat)
	}
	if opts.embedThumbnail {
		dl = dl.EmbedThumbnail()
	}
	if opts.embedMetadata {
		dl = dl.EmbedMetadata()
	}
	if opts.writeSubs {
		dl = dl.WriteSubs().SubLangs(opts.subLangs).ConvertSubs(opts.subFormat)
	}

	if req.Progress != nil {
		dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
			if update.TotalBytes > 0 {
				req.Progress(float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100)
			}
		})
	}

	result, err := dl.Run(ctx, req.URL)
	if err != nil {
		if result != nil && result.Stderr != "" {
			return fmt.Errorf("yt-dlp failed: %w: %s", err, result.Stderr)
		}
		return fmt.Errorf("yt-dlp failed: %w", err)
	}
	return nil
}

// subtitleLangs returns the explicit language list or the default set.
func subtitleLangs(langs []string) []string {
	if len(langs) == 0 {
		return defaultSubtitleLangs
	}
	return langs
}

// videoFormatSelector builds the yt-dlp format expression for a capped video
// download, falling back to the best pre-merged file under the cap.
func videoFormatSelector(heightLimit int) string {
	if heightLimit <= 0 {
		return "bestvideo+bestaudio/best"
	}
	return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", heightLimit, heightLimit)
}
