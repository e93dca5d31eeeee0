package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind selects what gets downloaded for an item.
type Kind string

const (
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindCover    Kind = "cover"
	KindSubtitle Kind = "subtitle"
)

// ContentType distinguishes standalone videos from playlist members.
type ContentType string

const (
	ContentVideo         ContentType = "video"
	ContentPlaylistVideo ContentType = "playlist_video"
)

// Display sentinels
const (
	// NotDownloaded is shown in the last-download column for items with no
	// history entry. SelectUndownloaded keys off this value.
	NotDownloaded = "Not downloaded"

	// UnavailableURL marks entries that resolved without a usable URL.
	UnavailableURL = "N/A"

	// UnknownDuration is shown when the extractor reported no duration.
	UnknownDuration = "Unknown"

	// UpcomingDuration is shown for scheduled/live entries.
	UpcomingDuration = "Upcoming"
)

// Item is one row of the preview table: a single resolved media item.
type Item struct {
	Selected      bool
	URL           string
	Title         string // sanitized
	DurationText  string // "mm:ss", UnknownDuration or UpcomingDuration
	LastDownload  string // timestamp from history, or NotDownloaded
	ID            string // stable media identifier, join key into history
	ContentType   ContentType
	PlaylistTitle string // empty for standalone videos
	Channel       string
	SubtitleLangs []string // sorted subtitle language codes
	PlaylistIndex string   // numeric position within a playlist, or empty
}

// HasURL reports whether the item carries a usable source URL.
func (it *Item) HasURL() bool {
	return it.URL != "" && it.URL != UnavailableURL
}

// SubtitleLangsJSON returns the sorted language codes as a JSON array.
func (it *Item) SubtitleLangsJSON() string {
	langs := append([]string(nil), it.SubtitleLangs...)
	sort.Strings(langs)
	data, err := json.Marshal(langs)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// FormatDuration renders whole seconds as "mm:ss". Durations of an hour and
// longer keep a minute count above 59, matching how rows are sorted.
func FormatDuration(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
