package config

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/spf13/viper"
)

// Settings keys in the config file
const (
	KeyDownloadPath      = "download_path"
	KeyEmbedThumbnail    = "embed_thumbnail"
	KeyVideoLimit        = "video_limit"
	KeyAudioQuality      = "audio_quality"
	KeyVideoFormat       = "video_format"
	KeyAudioFormat       = "audio_format"
	KeyCoverFormat       = "cover_format"
	KeySubtitleFormat    = "subtitle_format"
	KeyDownloadSubtitles = "download_subtitles_enabled"
	KeySubtitleLanguage  = "subtitle_language"
	KeyAddTrackNumber    = "add_track_number"
	KeyPlaylistLimit     = "playlist_limit"
	KeyURLHistory        = "url_history"
)

// Default values
const (
	DefaultVideoLimit       = "1440p"
	DefaultAudioQuality     = "320 kbps (Best)"
	DefaultVideoFormat      = "mp4"
	DefaultAudioFormat      = "mp3"
	DefaultCoverFormat      = "webp"
	DefaultSubtitleFormat   = "srt"
	DefaultSubtitleLanguage = "en"
	DefaultEmbedThumbnail   = true
	DefaultAddTrackNumber   = true
	DefaultPlaylistLimit    = 0 // unlimited

	// MaxURLHistory caps the recent-URL list.
	MaxURLHistory = 20
)

// audioQualityLabels in display order. The config file stores the numeric
// code, the UI shows the label.
var audioQualityLabels = []string{
	"320 kbps (Best)",
	"256 kbps",
	"192 kbps",
	"140 kbps",
	"128 kbps",
	"96 kbps",
}

var audioQualityCodes = map[string]string{
	"320 kbps (Best)": "0",
	"256 kbps":        "1",
	"192 kbps":        "2",
	"140 kbps":        "3",
	"128 kbps":        "4",
	"96 kbps":         "5",
}

var audioQualityByCode = func() map[string]string {
	m := make(map[string]string, len(audioQualityCodes))
	for label, code := range audioQualityCodes {
		m[code] = label
	}
	return m
}()

var bitratePattern = regexp.MustCompile(`(\d+)`)

// Settings is the application configuration. AudioQuality holds the human
// label; the numeric code only exists on disk.
type Settings struct {
	DownloadPath      string
	EmbedThumbnail    bool
	VideoLimit        string
	AudioQuality      string
	VideoFormat       string
	AudioFormat       string
	CoverFormat       string
	SubtitleFormat    string
	DownloadSubtitles bool
	SubtitleLanguage  string
	AddTrackNumber    bool
	PlaylistLimit     int
	URLHistory        []string
}

// Store loads and persists Settings from a JSON file. Methods are safe for
// concurrent use by the UI and background workers.
type Store struct {
	mu       sync.Mutex
	v        *viper.Viper
	path     string
	settings Settings
}

// NewStore creates a settings store backed by the JSON file at path. Defaults
// are registered immediately; nothing is read until Load.
func NewStore(path, defaultDownloadPath string) *Store {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault(KeyDownloadPath, defaultDownloadPath)
	v.SetDefault(KeyEmbedThumbnail, DefaultEmbedThumbnail)
	v.SetDefault(KeyVideoLimit, DefaultVideoLimit)
	v.SetDefault(KeyAudioQuality, DefaultAudioQuality)
	v.SetDefault(KeyVideoFormat, DefaultVideoFormat)
	v.SetDefault(KeyAudioFormat, DefaultAudioFormat)
	v.SetDefault(KeyCoverFormat, DefaultCoverFormat)
	v.SetDefault(KeySubtitleFormat, DefaultSubtitleFormat)
	v.SetDefault(KeyDownloadSubtitles, false)
	v.SetDefault(KeySubtitleLanguage, DefaultSubtitleLanguage)
	v.SetDefault(KeyAddTrackNumber, DefaultAddTrackNumber)
	v.SetDefault(KeyPlaylistLimit, DefaultPlaylistLimit)
	v.SetDefault(KeyURLHistory, []string{})

	return &Store{v: v, path: path}
}

// Load reads the config file, back-filling defaults for missing keys and
// ignoring unknown ones. A missing or unparsable file is not fatal: defaults
// are used and the error is returned for logging only.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var loadErr error
	if err := s.v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		loadErr = fmt.Errorf("failed to read config file: %w", err)
	}

	quality := s.v.GetString(KeyAudioQuality)
	if label, ok := audioQualityByCode[quality]; ok {
		quality = label
	} else if _, ok := audioQualityCodes[quality]; !ok {
		quality = DefaultAudioQuality
	}

	s.settings = Settings{
		DownloadPath:      s.v.GetString(KeyDownloadPath),
		EmbedThumbnail:    s.v.GetBool(KeyEmbedThumbnail),
		VideoLimit:        s.v.GetString(KeyVideoLimit),
		AudioQuality:      quality,
		VideoFormat:       s.v.GetString(KeyVideoFormat),
		AudioFormat:       s.v.GetString(KeyAudioFormat),
		CoverFormat:       s.v.GetString(KeyCoverFormat),
		SubtitleFormat:    s.v.GetString(KeySubtitleFormat),
		DownloadSubtitles: s.v.GetBool(KeyDownloadSubtitles),
		SubtitleLanguage:  s.v.GetString(KeySubtitleLanguage),
		AddTrackNumber:    s.v.GetBool(KeyAddTrackNumber),
		PlaylistLimit:     s.v.GetInt(KeyPlaylistLimit),
		URLHistory:        dedupeURLs(s.v.GetStringSlice(KeyURLHistory)),
	}

	return s.copySettingsLocked(), loadErr
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copySettingsLocked()
}

// Update applies fn to the settings under the store lock. It does not persist;
// call Save for that.
func (s *Store) Update(fn func(*Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.settings)
	s.settings.URLHistory = dedupeURLs(s.settings.URLHistory)
}

// Save writes the current settings to disk. The audio quality is stored as
// its numeric code and the URL history is deduplicated and capped.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	quality := s.settings.AudioQuality
	if code, ok := audioQualityCodes[quality]; ok {
		quality = code
	}

	s.v.Set(KeyDownloadPath, s.settings.DownloadPath)
	s.v.Set(KeyEmbedThumbnail, s.settings.EmbedThumbnail)
	s.v.Set(KeyVideoLimit, s.settings.VideoLimit)
	s.v.Set(KeyAudioQuality, quality)
	s.v.Set(KeyVideoFormat, s.settings.VideoFormat)
	s.v.Set(KeyAudioFormat, s.settings.AudioFormat)
	s.v.Set(KeyCoverFormat, s.settings.CoverFormat)
	s.v.Set(KeySubtitleFormat, s.settings.SubtitleFormat)
	s.v.Set(KeyDownloadSubtitles, s.settings.DownloadSubtitles)
	s.v.Set(KeySubtitleLanguage, s.settings.SubtitleLanguage)
	s.v.Set(KeyAddTrackNumber, s.settings.AddTrackNumber)
	s.v.Set(KeyPlaylistLimit, s.settings.PlaylistLimit)
	s.v.Set(KeyURLHistory, dedupeURLs(s.settings.URLHistory))

	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

// RememberURL moves url to the front of the recent-URL list. It is called
// before parsing starts, so failed parses are still remembered. The list is
// persisted immediately.
func (s *Store) RememberURL(url string) error {
	if url == "" {
		return nil
	}
	s.Update(func(cfg *Settings) {
		history := make([]string, 0, len(cfg.URLHistory)+1)
		history = append(history, url)
		for _, u := range cfg.URLHistory {
			if u != url {
				history = append(history, u)
			}
		}
		cfg.URLHistory = history
	})
	return s.Save()
}

// ForgetURL removes url from the recent-URL list and persists the change.
// It reports whether the URL was present.
func (s *Store) ForgetURL(url string) (bool, error) {
	found := false
	s.Update(func(cfg *Settings) {
		history := cfg.URLHistory[:0]
		for _, u := range cfg.URLHistory {
			if u == url {
				found = true
				continue
			}
			history = append(history, u)
		}
		cfg.URLHistory = history
	})
	if !found {
		return false, nil
	}
	return true, s.Save()
}

func (s *Store) copySettingsLocked() Settings {
	cp := s.settings
	cp.URLHistory = append([]string(nil), s.settings.URLHistory...)
	return cp
}

// dedupeURLs removes duplicates keeping first occurrences and caps the list.
func dedupeURLs(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
		if len(out) == MaxURLHistory {
			break
		}
	}
	return out
}

// AudioQualityLabels returns the selectable audio quality labels in order.
func AudioQualityLabels() []string {
	return append([]string(nil), audioQualityLabels...)
}

// AudioBitrateKbps derives the target bitrate from a quality label, e.g.
// "192 kbps" -> 192. Labels without a number fall back to 192.
func AudioBitrateKbps(label string) int {
	match := bitratePattern.FindString(label)
	if match == "" {
		return 192
	}
	var kbps int
	if _, err := fmt.Sscanf(match, "%d", &kbps); err != nil || kbps <= 0 {
		return 192
	}
	return kbps
}

// VideoFormatOptions returns the selectable video containers.
func VideoFormatOptions() []string { return []string{"mp4", "mkv"} }

// AudioFormatOptions returns the selectable audio containers.
func AudioFormatOptions() []string { return []string{"mp3", "m4a"} }

// CoverFormatOptions returns the selectable cover image formats.
func CoverFormatOptions() []string { return []string{"webp"} }

// ResolutionOptions returns the default resolution cap choices.
func ResolutionOptions() []string {
	return []string{"2160p", "1440p", "1080p", "720p", "480p", "360p", "240p", "144p"}
}
