package download

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/bluesjamgt/yt-dlp-gui/internal/config"
	"github.com/bluesjamgt/yt-dlp-gui/internal/model"
	"github.com/bluesjamgt/yt-dlp-gui/internal/platform"
)

const batchIDPrefix = "batch-"

// HistoryRecorder persists a successful download for an item identifier.
type HistoryRecorder interface {
	Record(id string) error
}

// Result summarizes a finished batch.
type Result struct {
	State      model.BatchState
	Downloaded int
	Skipped    int
	Failed     int
}

// Orchestrator processes download batches one item at a time on a background
// worker. Cancellation is observed between items; the fetch in flight is
// allowed to finish.
type Orchestrator struct {
	fetcher   MediaFetcher
	converter Converter
	history   HistoryRecorder
	prompt    PromptFunc

	mu      sync.Mutex
	state   model.BatchState
	batchID string

	cancelRequested atomic.Bool

	onLog          func(string)
	onItemProgress func(title string, percent float64)
	onProgress     func(done, total int)
	onFinished     func(Result)
}

// NewOrchestrator creates a batch orchestrator.
func NewOrchestrator(fetcher MediaFetcher, converter Converter, history HistoryRecorder, prompt PromptFunc) *Orchestrator {
	return &Orchestrator{
		fetcher:   fetcher,
		converter: converter,
		history:   history,
		prompt:    prompt,
		state:     model.BatchIdle,
	}
}

// SetPrompt sets the overwrite prompt consulted during batches. It must be
// called before the first Start.
func (o *Orchestrator) SetPrompt(prompt PromptFunc) {
	o.prompt = prompt
}

// SetLogCallback sets the callback receiving human-readable batch log lines.
func (o *Orchestrator) SetLogCallback(callback func(string)) {
	o.onLog = callback
}

// SetItemProgressCallback sets the callback receiving per-item download
// percentages.
func (o *Orchestrator) SetItemProgressCallback(callback func(title string, percent float64)) {
	o.onItemProgress = callback
}

// SetProgressCallback sets the callback receiving processed/total counts.
func (o *Orchestrator) SetProgressCallback(callback func(done, total int)) {
	o.onProgress = callback
}

// SetFinishedCallback sets the callback invoked once per batch with its
// final result.
func (o *Orchestrator) SetFinishedCallback(callback func(Result)) {
	o.onFinished = callback
}

// State returns the current batch state.
func (o *Orchestrator) State() model.BatchState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Start launches a batch over the given items. It fails when a batch is
// already running or when there is nothing to do.
func (o *Orchestrator) Start(items []*model.Item, kind model.Kind, settings config.Settings, subtitleLangs []string) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("no items selected")
	}

	o.mu.Lock()
	if o.state.IsActive() {
		o.mu.Unlock()
		return "", fmt.Errorf("a download batch is already running")
	}
	o.state = model.BatchRunning
	o.batchID = generateBatchID()
	batchID := o.batchID
	o.mu.Unlock()

	o.cancelRequested.Store(false)

	go o.run(items, kind, settings, subtitleLangs)

	return batchID, nil
}

// Cancel requests that the running batch stops after the item in flight.
func (o *Orchestrator) Cancel() {
	if !o.State().IsActive() {
		return
	}
	o.cancelRequested.Store(true)
	o.logf("Cancellation requested, finishing the current item")
}

func (o *Orchestrator) run(items []*model.Item, kind model.Kind, settings config.Settings, subtitleLangs []string) {
	ctx := context.Background()
	policy := NewOverwritePolicy(o.prompt)

	var result Result
	total := len(items)

	for i, item := range items {
		if o.cancelRequested.Load() {
			result.State = model.BatchCancelled
			o.logf("Batch cancelled with %d of %d items left", total-i, total)
			o.finish(result)
			return
		}

		switch o.processItem(ctx, item, kind, settings, subtitleLangs, policy) {
		case outcomeDownloaded:
			result.Downloaded++
		case outcomeSkipped:
			result.Skipped++
		case outcomeFailed:
			result.Failed++
		}

		o.reportProgress(i+1, total)
	}

	result.State = model.BatchCompleted
	o.logf("Batch finished: %d downloaded, %d skipped, %d failed", result.Downloaded, result.Skipped, result.Failed)
	o.finish(result)
}

type outcome int

const (
	outcomeDownloaded outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (o *Orchestrator) processItem(ctx context.Context, item *model.Item, kind model.Kind, settings config.Settings, subtitleLangs []string, policy *OverwritePolicy) outcome {
	if !item.HasURL() {
		o.logf("Skipping %s: no downloadable URL", item.Title)
		return outcomeSkipped
	}

	plan := buildPlan(item, kind, settings)

	if err := platform.CreateDirectoryIfNotExists(plan.dir); err != nil {
		o.logf("Failed to create %s: %v", plan.dir, err)
		return outcomeFailed
	}

	if plan.checkOverwrite && fileExists(plan.finalPath()) {
		if policy.Decide(plan.finalPath()) == DecisionSkip {
			o.logf("Skipping %s: file already exists", item.Title)
			return outcomeSkipped
		}
	}

	req := FetchRequest{
		URL:            item.URL,
		Kind:           kind,
		OutputStem:     plan.outputStem,
		HeightLimit:    parseHeightLimit(settings.VideoLimit),
		EmbedThumbnail: settings.EmbedThumbnail,
		EmbedMetadata:  settings.EmbedThumbnail,
		CoverFormat:    settings.CoverFormat,
		SubtitleFormat: settings.SubtitleFormat,
		SubtitleLangs:  subtitleLangs,
		WriteSubtitles: settings.DownloadSubtitles,
	}
	if o.onItemProgress != nil {
		title := item.Title
		req.Progress = func(percent float64) {
			o.onItemProgress(title, percent)
		}
	}

	o.logf("Downloading %s", item.Title)
	if err := o.fetcher.Fetch(ctx, req); err != nil {
		o.logf("Download failed for %s: %v", item.Title, err)
		return outcomeFailed
	}

	if kind == model.KindVideo || kind == model.KindAudio {
		if err := o.reconcile(ctx, plan); err != nil {
			o.logf("Post-processing failed for %s: %v", item.Title, err)
			return outcomeFailed
		}
	}

	if err := o.history.Record(item.ID); err != nil {
		o.logf("Failed to record history for %s: %v", item.Title, err)
	}

	o.logf("Finished %s", item.Title)
	return outcomeDownloaded
}

// reconcile locates the file yt-dlp produced and converts or renames it into
// the requested container. The source file is removed only after a conversion
// succeeded.
func (o *Orchestrator) reconcile(ctx context.Context, plan itemPlan) error {
	finalPath := plan.finalPath()

	source := ""
	for _, candidate := range []string{
		plan.outputStem + "." + plan.expectedExt,
		finalPath,
		plan.outputStem + ".webm",
	} {
		if fileExists(candidate) {
			source = candidate
			break
		}
	}
	if source == "" {
		return fmt.Errorf("downloaded file not found for %s", plan.stem)
	}
	if source == finalPath {
		return nil
	}

	switch plan.convert {
	case convertRemux:
		if err := o.converter.Remux(ctx, source, finalPath); err != nil {
			return err
		}
	case convertEncodeAudio:
		if err := o.converter.EncodeAudio(ctx, source, finalPath, plan.bitrateKbps); err != nil {
			return err
		}
	default:
		// Same container under a different extension, a rename suffices.
		return os.Rename(source, finalPath)
	}

	return os.Remove(source)
}

func (o *Orchestrator) finish(result Result) {
	o.mu.Lock()
	o.state = result.State
	o.mu.Unlock()

	if o.onFinished != nil {
		o.onFinished(result)
	}
}

func (o *Orchestrator) reportProgress(done, total int) {
	if o.onProgress != nil {
		o.onProgress(done, total)
	}
}

func (o *Orchestrator) logf(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	log.Print(message)
	if o.onLog != nil {
		o.onLog(message)
	}
}

// parseHeightLimit converts a "1440p" style label into a pixel height. Labels
// that do not parse mean no cap.
func parseHeightLimit(label string) int {
	height, err := strconv.Atoi(strings.TrimSuffix(label, "p"))
	if err != nil || height <= 0 {
		return 0
	}
	return height
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func generateBatchID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return batchIDPrefix + id.String()
}
