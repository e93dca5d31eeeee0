package download

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bluesjamgt/yt-dlp-gui/internal/config"
	"github.com/bluesjamgt/yt-dlp-gui/internal/model"
)

// fallbackPlaylistDir groups playlist members whose playlist has no title.
const fallbackPlaylistDir = "Videos"

// convertStep is the post-download conversion a plan requires.
type convertStep int

const (
	convertNone convertStep = iota
	convertRemux
	convertEncodeAudio
)

// itemPlan is the resolved filesystem layout for one item download.
type itemPlan struct {
	dir  string
	stem string

	// outputStem is dir/stem, handed to yt-dlp as the extension-less
	// destination.
	outputStem string

	// expectedExt is the extension yt-dlp should produce; finalExt is
	// what the user asked for. They differ when a conversion runs.
	expectedExt string
	finalExt    string

	convert     convertStep
	bitrateKbps int

	// checkOverwrite is false for subtitle downloads, whose output names
	// carry a language tag the plan cannot predict.
	checkOverwrite bool
}

func (p itemPlan) finalPath() string {
	return p.outputStem + "." + p.finalExt
}

// buildPlan computes where an item's download lands and which conversion it
// needs. It is pure; nothing touches the filesystem here.
func buildPlan(item *model.Item, kind model.Kind, settings config.Settings) itemPlan {
	plan := itemPlan{
		dir:            targetDir(item, settings.DownloadPath),
		stem:           fileStem(item, settings.AddTrackNumber),
		checkOverwrite: kind != model.KindSubtitle,
	}
	plan.outputStem = filepath.Join(plan.dir, plan.stem)

	switch kind {
	case model.KindVideo:
		plan.expectedExt = mergeContainer
		plan.finalExt = settings.VideoFormat
		if plan.finalExt == "mkv" {
			plan.convert = convertRemux
		}

	case model.KindAudio:
		plan.expectedExt = intermediateAudioFormat
		plan.finalExt = settings.AudioFormat
		if plan.finalExt == "mp3" {
			plan.convert = convertEncodeAudio
			plan.bitrateKbps = config.AudioBitrateKbps(settings.AudioQuality)
		}

	case model.KindCover:
		plan.expectedExt = settings.CoverFormat
		plan.finalExt = settings.CoverFormat

	case model.KindSubtitle:
		plan.expectedExt = settings.SubtitleFormat
		plan.finalExt = settings.SubtitleFormat
	}

	return plan
}

// targetDir nests downloads under channel and playlist directories.
func targetDir(item *model.Item, root string) string {
	dir := root
	if item.Channel != "" {
		dir = filepath.Join(dir, item.Channel)
	}
	if item.ContentType == model.ContentPlaylistVideo {
		group := item.PlaylistTitle
		if group == "" {
			group = fallbackPlaylistDir
		}
		dir = filepath.Join(dir, group)
	}
	return dir
}

// fileStem returns the filename without extension, prefixing the zero-padded
// track number for numbered playlist members.
func fileStem(item *model.Item, addTrackNumber bool) string {
	stem := item.Title
	if item.ContentType == model.ContentPlaylistVideo && addTrackNumber {
		if index, err := strconv.Atoi(strings.TrimSpace(item.PlaylistIndex)); err == nil {
			stem = fmt.Sprintf("%02d - %s", index, stem)
		}
	}
	return stem
}
