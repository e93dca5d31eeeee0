package ui

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/bluesjamgt/yt-dlp-gui/internal/config"
	"github.com/bluesjamgt/yt-dlp-gui/internal/download"
	"github.com/bluesjamgt/yt-dlp-gui/internal/extract"
	"github.com/bluesjamgt/yt-dlp-gui/internal/history"
	"github.com/bluesjamgt/yt-dlp-gui/internal/model"
	"github.com/bluesjamgt/yt-dlp-gui/internal/platform"
)

// UI constants
const (
	WindowWidth  = 980
	WindowHeight = 720

	SubtitleAllLanguages = "all"

	// Sort direction markers on the preview header buttons
	ArrowAscending  = " ▲"
	ArrowDescending = " ▼"
)

// Kind labels shown on the download type radio
const (
	KindLabelVideo     = "Video"
	KindLabelAudio     = "Audio"
	KindLabelCover     = "Cover"
	KindLabelSubtitles = "Subtitles"
)

var kindByLabel = map[string]model.Kind{
	KindLabelVideo:     model.KindVideo,
	KindLabelAudio:     model.KindAudio,
	KindLabelCover:     model.KindCover,
	KindLabelSubtitles: model.KindSubtitle,
}

// RootUI is the main window: settings form on top, preview table in the
// middle, activity log at the bottom.
type RootUI struct {
	window fyne.Window

	settings     *config.Store
	historyStore *history.Store
	extractor    *extract.Service
	orchestrator *download.Orchestrator
	table        *model.Table
	logs         *LogBuffer

	urlEntry  *widget.SelectEntry
	parseBtn  *widget.Button
	forgetBtn *widget.Button

	kindRadio          *widget.RadioGroup
	resolutionSelect   *widget.Select
	qualitySelect      *widget.Select
	videoFormatSelect  *widget.Select
	audioFormatSelect  *widget.Select
	pathEntry          *widget.Entry
	embedCheck         *widget.Check
	trackNumberCheck   *widget.Check
	subtitleCheck      *widget.Check
	subtitleLangSelect *widget.Select
	playlistLimitEntry *widget.Entry

	itemList    *widget.List
	sortButtons map[model.Column]*widget.Button

	downloadBtn *widget.Button
	cancelBtn   *widget.Button
	progressBar *widget.ProgressBar
	statusLabel *widget.Label
	logLabel    *widget.Label

	parseMu sync.Mutex
	parsing bool
}

// NewRootUI builds the main window content and wires the services together.
func NewRootUI(window fyne.Window, settings *config.Store, historyStore *history.Store, extractor *extract.Service, orchestrator *download.Orchestrator) *RootUI {
	ui := &RootUI{
		window:       window,
		settings:     settings,
		historyStore: historyStore,
		extractor:    extractor,
		orchestrator: orchestrator,
		table:        model.NewTable(),
		logs:         NewLogBuffer(DefaultLogLines),
		sortButtons:  make(map[model.Column]*widget.Button),
	}

	orchestrator.SetLogCallback(ui.appendLog)
	orchestrator.SetProgressCallback(ui.onBatchProgress)
	orchestrator.SetItemProgressCallback(ui.onItemProgress)
	orchestrator.SetFinishedCallback(ui.onBatchFinished)

	ui.setupUI()
	ui.applySettings(settings.Get())
	return ui
}

// PromptOverwrite bridges the orchestrator's overwrite question onto a modal
// dialog. It blocks the batch worker until the user answers.
func (ui *RootUI) PromptOverwrite(path string) (download.Decision, bool) {
	type answer struct {
		decision   download.Decision
		applyToAll bool
	}
	answers := make(chan answer, 1)

	fyne.Do(func() {
		applyAll := widget.NewCheck("Apply to all remaining files", nil)
		content := container.NewVBox(
			widget.NewLabel(fmt.Sprintf("%s already exists.", filepath.Base(path))),
			applyAll,
		)
		confirm := dialog.NewCustomConfirm("File exists", "Replace", "Skip", content, func(replace bool) {
			decision := download.DecisionSkip
			if replace {
				decision = download.DecisionReplace
			}
			answers <- answer{decision: decision, applyToAll: applyAll.Checked}
		}, ui.window)
		confirm.Show()
	})

	a := <-answers
	return a.decision, a.applyToAll
}

func (ui *RootUI) setupUI() {
	ui.buildURLRow()
	ui.buildOptionsForm()
	ui.buildPreviewTable()
	ui.buildStatusRow()

	urlRow := container.NewBorder(nil, nil, nil,
		container.NewHBox(ui.forgetBtn, ui.parseBtn), ui.urlEntry)

	header := container.NewHBox()
	for _, column := range []model.Column{model.ColumnTitle, model.ColumnDuration, model.ColumnLastDownload} {
		header.Add(ui.sortButtons[column])
	}
	header.Add(widget.NewButton("All", func() { ui.table.SelectAll(); ui.refreshTable() }))
	header.Add(widget.NewButton("None", func() { ui.table.DeselectAll(); ui.refreshTable() }))
	header.Add(widget.NewButton("New only", func() { ui.table.SelectUndownloaded(); ui.refreshTable() }))
	header.Add(widget.NewButton("Refresh", ui.refreshHistoryColumn))

	ui.logLabel = widget.NewLabel("")
	ui.logLabel.Wrapping = fyne.TextWrapWord
	logScroll := container.NewVScroll(ui.logLabel)
	logScroll.SetMinSize(fyne.NewSize(0, 120))

	statusRow := container.NewBorder(nil, nil, nil,
		container.NewHBox(ui.downloadBtn, ui.cancelBtn),
		container.NewVBox(ui.statusLabel, ui.progressBar))

	top := container.NewVBox(urlRow, ui.optionsForm(), header)
	bottom := container.NewVBox(statusRow, logScroll)

	content := container.NewBorder(top, bottom, nil, nil, ui.itemList)
	ui.window.SetContent(content)
	ui.window.Resize(fyne.NewSize(WindowWidth, WindowHeight))
}

func (ui *RootUI) buildURLRow() {
	ui.urlEntry = widget.NewSelectEntry(nil)
	ui.urlEntry.SetPlaceHolder("Paste a video, playlist or channel URL")
	ui.urlEntry.OnSubmitted = func(string) { ui.onParseClick() }

	ui.parseBtn = widget.NewButton("Parse", ui.onParseClick)
	ui.forgetBtn = widget.NewButton("Forget", ui.onForgetURL)
}

func (ui *RootUI) buildOptionsForm() {
	ui.kindRadio = widget.NewRadioGroup(
		[]string{KindLabelVideo, KindLabelAudio, KindLabelCover, KindLabelSubtitles},
		func(selected string) {
			// Subtitle mode implies subtitle downloads.
			if selected == KindLabelSubtitles && ui.subtitleCheck != nil {
				ui.subtitleCheck.SetChecked(true)
			}
		})
	ui.kindRadio.Horizontal = true
	ui.kindRadio.SetSelected(KindLabelVideo)

	ui.resolutionSelect = widget.NewSelect(config.ResolutionOptions(), nil)
	ui.qualitySelect = widget.NewSelect(config.AudioQualityLabels(), nil)
	ui.videoFormatSelect = widget.NewSelect(config.VideoFormatOptions(), nil)
	ui.audioFormatSelect = widget.NewSelect(config.AudioFormatOptions(), nil)

	ui.pathEntry = widget.NewEntry()
	ui.embedCheck = widget.NewCheck("Embed thumbnail and metadata", nil)
	ui.trackNumberCheck = widget.NewCheck("Number playlist tracks", nil)

	ui.subtitleLangSelect = widget.NewSelect([]string{SubtitleAllLanguages}, nil)
	ui.subtitleCheck = widget.NewCheck("Download subtitles", func(checked bool) {
		if checked {
			ui.subtitleLangSelect.Enable()
		} else {
			ui.subtitleLangSelect.Disable()
		}
	})
	ui.subtitleLangSelect.Disable()

	ui.playlistLimitEntry = widget.NewEntry()
	ui.playlistLimitEntry.SetPlaceHolder("0 = no limit")
}

func (ui *RootUI) optionsForm() fyne.CanvasObject {
	browseBtn := widget.NewButton("Browse", ui.onBrowseFolder)
	openBtn := widget.NewButton("Open", func() {
		if err := platform.OpenFolder(ui.pathEntry.Text); err != nil {
			ui.appendLog(fmt.Sprintf("Failed to open folder: %v", err))
		}
	})
	pathRow := container.NewBorder(nil, nil, nil, container.NewHBox(browseBtn, openBtn), ui.pathEntry)

	saveBtn := widget.NewButton("Save settings", ui.onSaveSettings)

	left := widget.NewForm(
		widget.NewFormItem("Type", ui.kindRadio),
		widget.NewFormItem("Resolution", ui.resolutionSelect),
		widget.NewFormItem("Audio quality", ui.qualitySelect),
		widget.NewFormItem("Save to", pathRow),
	)
	right := widget.NewForm(
		widget.NewFormItem("Video format", ui.videoFormatSelect),
		widget.NewFormItem("Audio format", ui.audioFormatSelect),
		widget.NewFormItem("Playlist limit", ui.playlistLimitEntry),
		widget.NewFormItem("Subtitles", container.NewBorder(nil, nil, ui.subtitleCheck, nil, ui.subtitleLangSelect)),
	)
	checks := container.NewHBox(ui.embedCheck, ui.trackNumberCheck, saveBtn)

	return container.NewVBox(container.NewGridWithColumns(2, left, right), checks)
}

func (ui *RootUI) buildPreviewTable() {
	ui.itemList = widget.NewList(
		func() int { return ui.table.Len() },
		func() fyne.CanvasObject {
			check := widget.NewCheck("", nil)
			title := widget.NewLabel("")
			title.Truncation = fyne.TextTruncateEllipsis
			duration := widget.NewLabel("")
			last := widget.NewLabel("")
			return container.NewBorder(nil, nil, check, container.NewHBox(duration, last), title)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			ui.updateRow(id, obj)
		},
	)

	for column, label := range map[model.Column]string{
		model.ColumnTitle:        "Title",
		model.ColumnDuration:     "Duration",
		model.ColumnLastDownload: "Last download",
	} {
		col := column
		base := label
		btn := widget.NewButton(base, func() {
			ui.table.SortBy(col)
			ui.updateSortArrows()
			ui.refreshTable()
		})
		ui.sortButtons[col] = btn
	}
}

func (ui *RootUI) updateRow(id widget.ListItemID, obj fyne.CanvasObject) {
	item := ui.table.Item(id)
	if item == nil {
		return
	}

	border := obj.(*fyne.Container)
	// Border layout order: center, left, right.
	title := border.Objects[0].(*widget.Label)
	check := border.Objects[1].(*widget.Check)
	trailing := border.Objects[2].(*fyne.Container)
	duration := trailing.Objects[0].(*widget.Label)
	last := trailing.Objects[1].(*widget.Label)

	title.SetText(item.Title)
	duration.SetText(item.DurationText)
	last.SetText(item.LastDownload)

	check.OnChanged = nil
	check.SetChecked(item.Selected)
	check.OnChanged = func(selected bool) {
		ui.table.SetSelected(id, selected)
		ui.refreshSubtitleLanguages()
	}
}

func (ui *RootUI) buildStatusRow() {
	ui.downloadBtn = widget.NewButton("Download", ui.onDownloadClick)
	ui.cancelBtn = widget.NewButton("Cancel", func() { ui.orchestrator.Cancel() })
	ui.cancelBtn.Disable()
	ui.progressBar = widget.NewProgressBar()
	ui.statusLabel = widget.NewLabel("Ready")
}

// applySettings pushes loaded settings into the widgets.
func (ui *RootUI) applySettings(settings config.Settings) {
	ui.urlEntry.SetOptions(settings.URLHistory)
	ui.resolutionSelect.SetSelected(settings.VideoLimit)
	ui.qualitySelect.SetSelected(settings.AudioQuality)
	ui.videoFormatSelect.SetSelected(settings.VideoFormat)
	ui.audioFormatSelect.SetSelected(settings.AudioFormat)
	ui.pathEntry.SetText(settings.DownloadPath)
	ui.embedCheck.SetChecked(settings.EmbedThumbnail)
	ui.trackNumberCheck.SetChecked(settings.AddTrackNumber)
	ui.subtitleCheck.SetChecked(settings.DownloadSubtitles)
	ui.playlistLimitEntry.SetText(strconv.Itoa(settings.PlaylistLimit))
	if settings.SubtitleLanguage != "" {
		ui.subtitleLangSelect.SetSelected(settings.SubtitleLanguage)
	}
}

// collectSettings reads the widgets back into the settings store.
func (ui *RootUI) collectSettings() config.Settings {
	limit, err := strconv.Atoi(strings.TrimSpace(ui.playlistLimitEntry.Text))
	if err != nil || limit < 0 {
		limit = 0
	}

	ui.settings.Update(func(cfg *config.Settings) {
		cfg.DownloadPath = strings.TrimSpace(ui.pathEntry.Text)
		cfg.VideoLimit = ui.resolutionSelect.Selected
		cfg.AudioQuality = ui.qualitySelect.Selected
		cfg.VideoFormat = ui.videoFormatSelect.Selected
		cfg.AudioFormat = ui.audioFormatSelect.Selected
		cfg.EmbedThumbnail = ui.embedCheck.Checked
		cfg.AddTrackNumber = ui.trackNumberCheck.Checked
		cfg.DownloadSubtitles = ui.subtitleCheck.Checked
		cfg.SubtitleLanguage = ui.subtitleLangSelect.Selected
		cfg.PlaylistLimit = limit
	})
	return ui.settings.Get()
}

func (ui *RootUI) onSaveSettings() {
	ui.collectSettings()
	if err := ui.settings.Save(); err != nil {
		ui.appendLog(fmt.Sprintf("Failed to save settings: %v", err))
		return
	}
	ui.appendLog("Settings saved")
}

func (ui *RootUI) onBrowseFolder() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		ui.pathEntry.SetText(uri.Path())
	}, ui.window)
}

func (ui *RootUI) onForgetURL() {
	current := strings.TrimSpace(ui.urlEntry.Text)
	if current == "" {
		return
	}
	found, err := ui.settings.ForgetURL(current)
	if err != nil {
		ui.appendLog(fmt.Sprintf("Failed to update URL history: %v", err))
		return
	}
	if found {
		ui.urlEntry.SetOptions(ui.settings.Get().URLHistory)
		ui.urlEntry.SetText("")
	}
}

func (ui *RootUI) onParseClick() {
	rawURL := strings.TrimSpace(ui.urlEntry.Text)
	if rawURL == "" {
		ui.appendLog("Enter a URL to parse")
		return
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		ui.appendLog(fmt.Sprintf("Invalid URL: %v", err))
		return
	}

	ui.parseMu.Lock()
	if ui.parsing {
		ui.parseMu.Unlock()
		ui.appendLog("A parse is already running")
		return
	}
	ui.parsing = true
	ui.parseMu.Unlock()

	if err := ui.settings.RememberURL(rawURL); err != nil {
		log.Printf("Failed to remember URL: %v", err)
	}
	ui.urlEntry.SetOptions(ui.settings.Get().URLHistory)

	settings := ui.collectSettings()
	ui.parseBtn.Disable()
	ui.statusLabel.SetText("Parsing...")
	ui.appendLog(fmt.Sprintf("Parsing %s", rawURL))

	go func() {
		result, err := ui.extractor.Resolve(context.Background(), rawURL, extract.Options{
			PlaylistLimit: settings.PlaylistLimit,
		})

		fyne.Do(func() {
			ui.parseMu.Lock()
			ui.parsing = false
			ui.parseMu.Unlock()
			ui.parseBtn.Enable()

			if err != nil {
				ui.statusLabel.SetText("Parse failed")
				ui.appendLog(fmt.Sprintf("Parse failed: %v", err))
				return
			}

			ui.table.Populate(result.Items)
			ui.table.RefreshHistory(ui.historyStore.Lookup)
			ui.mergeResolutionOptions(result.Heights)
			ui.updateSortArrows()
			ui.refreshSubtitleLanguages()
			ui.refreshTable()
			ui.statusLabel.SetText(fmt.Sprintf("%d item(s) found", len(result.Items)))
			ui.appendLog(fmt.Sprintf("Found %d item(s)", len(result.Items)))
		})
	}()
}

func (ui *RootUI) onDownloadClick() {
	selected := ui.table.Selected()
	if len(selected) == 0 {
		ui.appendLog("Select at least one item first")
		return
	}

	kind, ok := kindByLabel[ui.kindRadio.Selected]
	if !ok {
		kind = model.KindVideo
	}

	settings := ui.collectSettings()

	var subtitleLangs []string
	if lang := ui.subtitleLangSelect.Selected; lang != "" && lang != SubtitleAllLanguages {
		subtitleLangs = []string{lang}
	}

	batchID, err := ui.orchestrator.Start(selected, kind, settings, subtitleLangs)
	if err != nil {
		ui.appendLog(fmt.Sprintf("Cannot start batch: %v", err))
		return
	}

	ui.downloadBtn.Disable()
	ui.cancelBtn.Enable()
	ui.progressBar.SetValue(0)
	ui.statusLabel.SetText(fmt.Sprintf("Downloading %d item(s)", len(selected)))
	log.Printf("Started batch %s with %d item(s)", batchID, len(selected))
}

func (ui *RootUI) onBatchProgress(done, total int) {
	fyne.Do(func() {
		if total > 0 {
			ui.progressBar.SetValue(float64(done) / float64(total))
		}
		ui.statusLabel.SetText(fmt.Sprintf("Processed %d of %d", done, total))
	})
}

func (ui *RootUI) onItemProgress(title string, percent float64) {
	fyne.Do(func() {
		ui.statusLabel.SetText(fmt.Sprintf("%s: %.0f%%", title, percent))
	})
}

func (ui *RootUI) onBatchFinished(result download.Result) {
	fyne.Do(func() {
		ui.downloadBtn.Enable()
		ui.cancelBtn.Disable()
		ui.statusLabel.SetText(fmt.Sprintf("%s: %d downloaded, %d skipped, %d failed",
			result.State, result.Downloaded, result.Skipped, result.Failed))
		ui.table.RefreshHistory(ui.historyStore.Lookup)
		ui.refreshTable()
	})
}

func (ui *RootUI) refreshHistoryColumn() {
	ui.table.RefreshHistory(ui.historyStore.Lookup)
	ui.refreshTable()
}

// refreshSubtitleLanguages rebuilds the language choices from the selected
// rows, keeping the current choice when it is still available.
func (ui *RootUI) refreshSubtitleLanguages() {
	current := ui.subtitleLangSelect.Selected
	options := append([]string{SubtitleAllLanguages}, ui.table.SubtitleLanguages()...)
	ui.subtitleLangSelect.Options = options

	keep := false
	for _, option := range options {
		if option == current {
			keep = true
			break
		}
	}
	if keep {
		ui.subtitleLangSelect.SetSelected(current)
	} else {
		ui.subtitleLangSelect.SetSelected(SubtitleAllLanguages)
	}
	ui.subtitleLangSelect.Refresh()
}

// mergeResolutionOptions extends the preset resolution choices with heights
// observed in the parsed formats, keeping the list sorted high to low.
func (ui *RootUI) mergeResolutionOptions(heights []int) {
	if len(heights) == 0 {
		return
	}

	current := ui.resolutionSelect.Selected
	seen := make(map[int]struct{})
	merged := make([]int, 0, len(heights))

	for _, option := range ui.resolutionSelect.Options {
		if h, err := strconv.Atoi(strings.TrimSuffix(option, "p")); err == nil {
			seen[h] = struct{}{}
			merged = append(merged, h)
		}
	}
	for _, h := range heights {
		if _, ok := seen[h]; !ok {
			seen[h] = struct{}{}
			merged = append(merged, h)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(merged)))

	options := make([]string, len(merged))
	for i, h := range merged {
		options[i] = fmt.Sprintf("%dp", h)
	}
	ui.resolutionSelect.Options = options
	ui.resolutionSelect.SetSelected(current)
	ui.resolutionSelect.Refresh()
}

func (ui *RootUI) updateSortArrows() {
	column, direction := ui.table.SortState()
	labels := map[model.Column]string{
		model.ColumnTitle:        "Title",
		model.ColumnDuration:     "Duration",
		model.ColumnLastDownload: "Last download",
	}
	for col, btn := range ui.sortButtons {
		text := labels[col]
		if col == column {
			if direction == model.SortAscending {
				text += ArrowAscending
			} else {
				text += ArrowDescending
			}
		}
		btn.SetText(text)
	}
}

func (ui *RootUI) refreshTable() {
	ui.itemList.Refresh()
}

// appendLog adds a line to the activity pane. Safe to call from any
// goroutine.
func (ui *RootUI) appendLog(message string) {
	ui.logs.Append(message)
	fyne.Do(func() {
		ui.logLabel.SetText(ui.logs.String())
	})
}
