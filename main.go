package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"fyne.io/fyne/v2/app"
	"github.com/lrstanley/go-ytdlp"

	"github.com/bluesjamgt/yt-dlp-gui/internal/config"
	"github.com/bluesjamgt/yt-dlp-gui/internal/convert"
	"github.com/bluesjamgt/yt-dlp-gui/internal/download"
	"github.com/bluesjamgt/yt-dlp-gui/internal/extract"
	"github.com/bluesjamgt/yt-dlp-gui/internal/history"
	"github.com/bluesjamgt/yt-dlp-gui/internal/platform"
	"github.com/bluesjamgt/yt-dlp-gui/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.bluesjamgt.yt-dlp-gui"
	AppName = "yt-dlp GUI"

	ConfigFileName  = "config.json"
	HistoryFileName = "download_history.json"
)

func main() {
	fmt.Printf("%s v%s starting...\n", AppName, version)

	// Download yt-dlp if it is not already present. Nothing works
	// without it.
	ytdlp.MustInstall(context.Background(), nil)

	myApp := app.NewWithID(AppID)
	myApp.Settings().SetTheme(ui.NewCompactTheme())

	myWindow := myApp.NewWindow(fmt.Sprintf("%s v%s", AppName, version))

	// Config and history live next to the executable so the whole
	// installation stays portable.
	baseDir := platform.ExecutableDir()

	downloadsDir, err := platform.DefaultDownloadsDir()
	if err != nil {
		log.Printf("Failed to resolve the downloads directory: %v", err)
		downloadsDir = baseDir
	}

	settings := config.NewStore(filepath.Join(baseDir, ConfigFileName), downloadsDir)
	if _, err := settings.Load(); err != nil {
		log.Printf("Using default settings: %v", err)
	}

	historyStore := history.NewStore(filepath.Join(baseDir, HistoryFileName))
	if err := historyStore.Load(); err != nil {
		log.Printf("Starting with empty download history: %v", err)
	}

	if err := platform.CreateDirectoryIfNotExists(settings.Get().DownloadPath); err != nil {
		log.Printf("Failed to ensure downloads dir: %v", err)
	}

	converter := convert.NewService()
	if !converter.Available() {
		log.Printf("ffmpeg not found, container conversions will fail")
	}

	orchestrator := download.NewOrchestrator(download.NewYtDlpFetcher(), converter, historyStore, nil)

	rootUI := ui.NewRootUI(myWindow, settings, historyStore, extract.NewService(), orchestrator)
	orchestrator.SetPrompt(rootUI.PromptOverwrite)

	myWindow.ShowAndRun()
}
