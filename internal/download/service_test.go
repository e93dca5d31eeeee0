package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bluesjamgt/yt-dlp-gui/internal/config"
	"github.com/bluesjamgt/yt-dlp-gui/internal/model"
)

type fakeFetcher struct {
	mu         sync.Mutex
	requests   []FetchRequest
	produceExt string
	failURLs   map[string]bool
	block      chan struct{}
	started    chan struct{}
}

func (f *fakeFetcher) Fetch(_ context.Context, req FetchRequest) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.failURLs[req.URL] {
		return fmt.Errorf("fetch failed for %s", req.URL)
	}
	if f.produceExt != "" {
		return os.WriteFile(req.OutputStem+"."+f.produceExt, []byte("media"), 0644)
	}
	return nil
}

func (f *fakeFetcher) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeConverter struct {
	mu           sync.Mutex
	remuxCalls   int
	encodeCalls  int
	lastBitrate  int
	writeOutputs bool
	fail         bool
}

func (c *fakeConverter) Remux(_ context.Context, _, outputPath string) error {
	c.mu.Lock()
	c.remuxCalls++
	c.mu.Unlock()
	return c.produce(outputPath)
}

func (c *fakeConverter) EncodeAudio(_ context.Context, _, outputPath string, bitrateKbps int) error {
	c.mu.Lock()
	c.encodeCalls++
	c.lastBitrate = bitrateKbps
	c.mu.Unlock()
	return c.produce(outputPath)
}

func (c *fakeConverter) produce(outputPath string) error {
	if c.fail {
		return fmt.Errorf("conversion failed")
	}
	if c.writeOutputs {
		return os.WriteFile(outputPath, []byte("converted"), 0644)
	}
	return nil
}

type fakeRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *fakeRecorder) Record(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	return nil
}

func (r *fakeRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func runBatch(t *testing.T, o *Orchestrator, items []*model.Item, kind model.Kind, settings config.Settings) Result {
	t.Helper()

	done := make(chan Result, 1)
	o.SetFinishedCallback(func(r Result) { done <- r })

	if _, err := o.Start(items, kind, settings, nil); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case result := <-done:
		return result
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not finish")
		return Result{}
	}
}

func TestBatchVideoDownload(t *testing.T) {
	settings := testSettings()
	settings.DownloadPath = t.TempDir()

	fetcher := &fakeFetcher{produceExt: "mp4"}
	converter := &fakeConverter{}
	recorder := &fakeRecorder{}
	o := NewOrchestrator(fetcher, converter, recorder, nil)

	items := []*model.Item{
		{ID: "v1", Title: "One", URL: "https://w/1", Channel: "Chan"},
	}

	result := runBatch(t, o, items, model.KindVideo, settings)

	if result.State != model.BatchCompleted {
		t.Fatalf("state = %s, expected completed", result.State)
	}
	if result.Downloaded != 1 || result.Skipped != 0 || result.Failed != 0 {
		t.Errorf("result = %+v", result)
	}
	if converter.remuxCalls != 0 || converter.encodeCalls != 0 {
		t.Error("mp4 target should not invoke the converter")
	}
	if got := recorder.recorded(); len(got) != 1 || got[0] != "v1" {
		t.Errorf("history = %v, expected [v1]", got)
	}

	finalPath := filepath.Join(settings.DownloadPath, "Chan", "One.mp4")
	if _, err := os.Stat(finalPath); err != nil {
		t.Errorf("expected downloaded file at %s: %v", finalPath, err)
	}
}

func TestBatchAudioConversion(t *testing.T) {
	settings := testSettings()
	settings.DownloadPath = t.TempDir()
	settings.AudioFormat = "mp3"
	settings.AudioQuality = "192 kbps"

	fetcher := &fakeFetcher{produceExt: "m4a"}
	converter := &fakeConverter{writeOutputs: true}
	recorder := &fakeRecorder{}
	o := NewOrchestrator(fetcher, converter, recorder, nil)

	items := []*model.Item{{ID: "a1", Title: "Song", URL: "https://w/1"}}

	result := runBatch(t, o, items, model.KindAudio, settings)

	if result.Downloaded != 1 {
		t.Fatalf("result = %+v", result)
	}
	if converter.encodeCalls != 1 || converter.lastBitrate != 192 {
		t.Errorf("expected one encode at 192 kbps, got %d at %d", converter.encodeCalls, converter.lastBitrate)
	}

	stem := filepath.Join(settings.DownloadPath, "Song")
	if _, err := os.Stat(stem + ".mp3"); err != nil {
		t.Errorf("final mp3 missing: %v", err)
	}
	if _, err := os.Stat(stem + ".m4a"); !os.IsNotExist(err) {
		t.Error("intermediate m4a should be removed after a successful conversion")
	}
}

func TestConversionFailureKeepsIntermediate(t *testing.T) {
	settings := testSettings()
	settings.DownloadPath = t.TempDir()
	settings.AudioFormat = "mp3"

	fetcher := &fakeFetcher{produceExt: "m4a"}
	converter := &fakeConverter{fail: true}
	recorder := &fakeRecorder{}
	o := NewOrchestrator(fetcher, converter, recorder, nil)

	items := []*model.Item{{ID: "a1", Title: "Song", URL: "https://w/1"}}

	result := runBatch(t, o, items, model.KindAudio, settings)

	if result.Failed != 1 {
		t.Fatalf("result = %+v, expected one failure", result)
	}
	if len(recorder.recorded()) != 0 {
		t.Error("failed items must not be recorded in history")
	}
	if _, err := os.Stat(filepath.Join(settings.DownloadPath, "Song.m4a")); err != nil {
		t.Error("intermediate file should survive a failed conversion")
	}
}

func TestWebmFallbackRename(t *testing.T) {
	settings := testSettings()
	settings.DownloadPath = t.TempDir()

	fetcher := &fakeFetcher{produceExt: "webm"}
	o := NewOrchestrator(fetcher, &fakeConverter{}, &fakeRecorder{}, nil)

	items := []*model.Item{{ID: "v1", Title: "Clip", URL: "https://w/1"}}

	result := runBatch(t, o, items, model.KindVideo, settings)

	if result.Downloaded != 1 {
		t.Fatalf("result = %+v", result)
	}
	if _, err := os.Stat(filepath.Join(settings.DownloadPath, "Clip.mp4")); err != nil {
		t.Errorf("webm download should be renamed to the target container: %v", err)
	}
	if _, err := os.Stat(filepath.Join(settings.DownloadPath, "Clip.webm")); !os.IsNotExist(err) {
		t.Error("webm source should be gone after the rename")
	}
}

func TestOverwritePromptAppliesToAll(t *testing.T) {
	settings := testSettings()
	settings.DownloadPath = t.TempDir()

	// Both target files already exist.
	for _, name := range []string{"One.mp4", "Two.mp4"} {
		if err := os.WriteFile(filepath.Join(settings.DownloadPath, name), []byte("old"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	promptCalls := 0
	prompt := func(string) (Decision, bool) {
		promptCalls++
		return DecisionSkip, true
	}

	fetcher := &fakeFetcher{produceExt: "mp4"}
	o := NewOrchestrator(fetcher, &fakeConverter{}, &fakeRecorder{}, prompt)

	items := []*model.Item{
		{ID: "v1", Title: "One", URL: "https://w/1"},
		{ID: "v2", Title: "Two", URL: "https://w/2"},
	}

	result := runBatch(t, o, items, model.KindVideo, settings)

	if result.Skipped != 2 {
		t.Fatalf("result = %+v, expected both items skipped", result)
	}
	if promptCalls != 1 {
		t.Errorf("prompt called %d times, apply-to-all should ask once", promptCalls)
	}
	if fetcher.requestCount() != 0 {
		t.Error("skipped items must not be fetched")
	}
}

func TestUnavailableURLSkipped(t *testing.T) {
	settings := testSettings()
	settings.DownloadPath = t.TempDir()

	fetcher := &fakeFetcher{produceExt: "mp4"}
	o := NewOrchestrator(fetcher, &fakeConverter{}, &fakeRecorder{}, nil)

	items := []*model.Item{
		{ID: "v1", Title: "Gone", URL: model.UnavailableURL},
		{ID: "v2", Title: "Here", URL: "https://w/2"},
	}

	result := runBatch(t, o, items, model.KindVideo, settings)

	if result.Skipped != 1 || result.Downloaded != 1 {
		t.Fatalf("result = %+v", result)
	}
	if fetcher.requestCount() != 1 {
		t.Errorf("only the item with a URL should be fetched, got %d fetches", fetcher.requestCount())
	}
}

func TestFetchFailureContinuesBatch(t *testing.T) {
	settings := testSettings()
	settings.DownloadPath = t.TempDir()

	fetcher := &fakeFetcher{
		produceExt: "mp4",
		failURLs:   map[string]bool{"https://w/1": true},
	}
	recorder := &fakeRecorder{}
	o := NewOrchestrator(fetcher, &fakeConverter{}, recorder, nil)

	items := []*model.Item{
		{ID: "v1", Title: "Bad", URL: "https://w/1"},
		{ID: "v2", Title: "Good", URL: "https://w/2"},
	}

	result := runBatch(t, o, items, model.KindVideo, settings)

	if result.Failed != 1 || result.Downloaded != 1 {
		t.Fatalf("result = %+v, one failure must not stop the batch", result)
	}
	if got := recorder.recorded(); len(got) != 1 || got[0] != "v2" {
		t.Errorf("history = %v, expected only the successful item", got)
	}
}

func TestStartWhileRunningFails(t *testing.T) {
	settings := testSettings()
	settings.DownloadPath = t.TempDir()

	fetcher := &fakeFetcher{produceExt: "mp4", block: make(chan struct{})}
	o := NewOrchestrator(fetcher, &fakeConverter{}, &fakeRecorder{}, nil)

	done := make(chan Result, 1)
	o.SetFinishedCallback(func(r Result) { done <- r })

	items := []*model.Item{{ID: "v1", Title: "One", URL: "https://w/1"}}
	if _, err := o.Start(items, model.KindVideo, settings, nil); err != nil {
		t.Fatal(err)
	}

	if _, err := o.Start(items, model.KindVideo, settings, nil); err == nil {
		t.Error("second Start while running should fail")
	}

	close(fetcher.block)
	<-done

	if o.State() != model.BatchCompleted {
		t.Errorf("state = %s after finish", o.State())
	}
}

func TestCancelBetweenItems(t *testing.T) {
	settings := testSettings()
	settings.DownloadPath = t.TempDir()

	fetcher := &fakeFetcher{
		produceExt: "mp4",
		block:      make(chan struct{}, 2),
		started:    make(chan struct{}, 2),
	}
	o := NewOrchestrator(fetcher, &fakeConverter{}, &fakeRecorder{}, nil)

	done := make(chan Result, 1)
	o.SetFinishedCallback(func(r Result) { done <- r })

	items := []*model.Item{
		{ID: "v1", Title: "One", URL: "https://w/1"},
		{ID: "v2", Title: "Two", URL: "https://w/2"},
	}
	if _, err := o.Start(items, model.KindVideo, settings, nil); err != nil {
		t.Fatal(err)
	}

	// Cancel while the first item is in flight, then let it finish.
	<-fetcher.started
	o.Cancel()
	fetcher.block <- struct{}{}
	fetcher.block <- struct{}{}

	result := <-done

	if result.State != model.BatchCancelled {
		t.Fatalf("state = %s, expected cancelled", result.State)
	}
	if fetcher.requestCount() != 1 {
		t.Errorf("in-flight item finishes but no further item starts, got %d fetches", fetcher.requestCount())
	}
	if result.Downloaded != 1 {
		t.Errorf("result = %+v, the in-flight item should complete", result)
	}
}

func TestStartWithNoItemsFails(t *testing.T) {
	o := NewOrchestrator(&fakeFetcher{}, &fakeConverter{}, &fakeRecorder{}, nil)
	if _, err := o.Start(nil, model.KindVideo, testSettings(), nil); err == nil {
		t.Error("empty selection should fail fast")
	}
}
