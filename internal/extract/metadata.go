package extract

import "encoding/json"

// videoMetadata mirrors the fields of yt-dlp's single-JSON dump that the
// preview table needs. Playlist and channel dumps carry their members in
// Entries; flat extraction leaves most entry fields sparse.
type videoMetadata struct {
	ID            string                     `json:"id"`
	Type          string                     `json:"_type"`
	Title         string                     `json:"title"`
	Duration      float64                    `json:"duration"`
	LiveStatus    string                     `json:"live_status"`
	WebpageURL    string                     `json:"webpage_url"`
	URL           string                     `json:"url"`
	Uploader      string                     `json:"uploader"`
	Channel       string                     `json:"channel"`
	PlaylistIndex int                        `json:"playlist_index"`
	Subtitles     map[string]json.RawMessage `json:"subtitles"`
	Formats       []formatMetadata           `json:"formats"`
	Entries       []*videoMetadata           `json:"entries"`
}

// formatMetadata carries the per-format fields used to offer resolution
// choices beyond the built-in presets.
type formatMetadata struct {
	Height float64 `json:"height"`
}

func (m *videoMetadata) isPlaylist() bool {
	return m.Type == "playlist" || len(m.Entries) > 0
}

func (m *videoMetadata) sourceURL() string {
	if m.WebpageURL != "" {
		return m.WebpageURL
	}
	return m.URL
}

func (m *videoMetadata) channelName() string {
	if m.Channel != "" {
		return m.Channel
	}
	return m.Uploader
}

func (m *videoMetadata) subtitleLanguages() []string {
	if len(m.Subtitles) == 0 {
		return nil
	}
	langs := make([]string, 0, len(m.Subtitles))
	for lang := range m.Subtitles {
		langs = append(langs, lang)
	}
	return langs
}
