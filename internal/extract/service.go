// Package extract resolves a URL into preview table rows using yt-dlp's
// metadata dump, without downloading any media.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"github.com/bluesjamgt/yt-dlp-gui/internal/model"
	"github.com/bluesjamgt/yt-dlp-gui/internal/platform"
)

const (
	// metadataSocketTimeout bounds how long yt-dlp waits on a stalled
	// connection during extraction.
	metadataSocketTimeout = 20
)

// channelTabPaths are the channel listing pages that get flat extraction.
// Full extraction of a whole channel would fetch metadata per video.
var channelTabPaths = []string{"/videos", "/shorts", "/streams"}

// Options control a single parse.
type Options struct {
	// PlaylistLimit caps how many playlist entries are resolved. Zero
	// means no cap.
	PlaylistLimit int
}

// ParseResult is the outcome of resolving one URL.
type ParseResult struct {
	Items []*model.Item

	// Heights lists the distinct video heights seen across the resolved
	// formats, descending. Flat extractions usually produce none.
	Heights []int
}

// Service resolves URLs through yt-dlp.
type Service struct{}

// NewService creates an extraction service.
func NewService() *Service {
	return &Service{}
}

// Resolve fetches metadata for url and normalizes it into preview rows. A
// single video becomes one pre-selected row; playlists and channel listings
// become one row per entry.
func (s *Service) Resolve(ctx context.Context, url string, opts Options) (*ParseResult, error) {
	dl := ytdlp.New().
		DumpSingleJSON().
		SkipDownload().
		IgnoreErrors().
		Quiet().
		NoWarnings().
		SocketTimeout(metadataSocketTimeout)

	if IsChannelTabURL(url) {
		dl = dl.FlatPlaylist()
	}
	if opts.PlaylistLimit > 0 {
		dl = dl.PlaylistEnd(opts.PlaylistLimit)
	}

	result, err := dl.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to extract metadata for %s: %w", url, err)
	}

	var meta videoMetadata
	if err := json.Unmarshal([]byte(result.Stdout), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata for %s: %w", url, err)
	}

	return &ParseResult{
		Items:   normalize(&meta),
		Heights: availableHeights(&meta),
	}, nil
}

// availableHeights collects the distinct video heights across the dump,
// including playlist entries, sorted descending.
func availableHeights(meta *videoMetadata) []int {
	seen := make(map[int]struct{})
	collect := func(m *videoMetadata) {
		for _, format := range m.Formats {
			if h := int(format.Height); h > 0 {
				seen[h] = struct{}{}
			}
		}
	}
	collect(meta)
	for _, entry := range meta.Entries {
		if entry != nil {
			collect(entry)
		}
	}

	heights := make([]int, 0, len(seen))
	for h := range seen {
		heights = append(heights, h)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(heights)))
	return heights
}

// IsChannelTabURL reports whether url points at a channel listing page. Those
// are extracted flat because resolving every upload in full is too slow.
func IsChannelTabURL(url string) bool {
	if !strings.Contains(url, "youtube.com/@") {
		return false
	}
	for _, tab := range channelTabPaths {
		if strings.Contains(url, tab) {
			return true
		}
	}
	return false
}

// normalize converts a metadata dump into preview rows.
func normalize(meta *videoMetadata) []*model.Item {
	if !meta.isPlaylist() {
		return []*model.Item{newItem(meta, "", "", true)}
	}

	playlistTitle := platform.SanitizeFilename(meta.Title)
	items := make([]*model.Item, 0, len(meta.Entries))
	for pos, entry := range meta.Entries {
		if entry == nil {
			continue
		}
		index := strconv.Itoa(pos + 1)
		if entry.PlaylistIndex > 0 {
			index = strconv.Itoa(entry.PlaylistIndex)
		}
		it := newItem(entry, playlistTitle, index, false)
		if it.Channel == "" {
			it.Channel = platform.SanitizeFilename(meta.channelName())
		}
		items = append(items, it)
	}
	return items
}

func newItem(meta *videoMetadata, playlistTitle, playlistIndex string, selected bool) *model.Item {
	url := meta.sourceURL()
	if url == "" {
		url = model.UnavailableURL
	}

	contentType := model.ContentVideo
	if playlistTitle != "" || playlistIndex != "" {
		contentType = model.ContentPlaylistVideo
	}

	langs := meta.subtitleLanguages()
	sort.Strings(langs)

	return &model.Item{
		Selected:      selected,
		URL:           url,
		Title:         platform.SanitizeFilename(meta.Title),
		DurationText:  durationText(meta),
		LastDownload:  model.NotDownloaded,
		ID:            meta.ID,
		ContentType:   contentType,
		PlaylistTitle: playlistTitle,
		Channel:       platform.SanitizeFilename(meta.channelName()),
		SubtitleLangs: langs,
		PlaylistIndex: playlistIndex,
	}
}

func durationText(meta *videoMetadata) string {
	if meta.Duration > 0 {
		return model.FormatDuration(int(meta.Duration))
	}
	if meta.LiveStatus == "is_upcoming" || meta.LiveStatus == "is_live" {
		return model.UpcomingDuration
	}
	return model.UnknownDuration
}
