package ui

import (
	"context"
	"log"
	"sync"

	"toonzip/config"
	"toonzip/downloader"
	"toonzip/models"

	"fyne.io/fyne/v2"
)

// AppState holds what the views share: the window for dialogs, the
// settings the next run will use and the single download job.
type AppState struct {
	App    fyne.App
	Window fyne.Window
	Runner *downloader.JobRunner

	mu         sync.Mutex
	cfg        *config.Config
	configPath string
	reporter   downloader.Reporter

	// OnJobUpdated is called on the fyne goroutine whenever the job
	// changes status.
	OnJobUpdated []func(job downloader.Job)
}

// NewAppState creates the shared state. configPath is the file cfg was
// loaded from; empty means the default location.
func NewAppState(app fyne.App, window fyne.Window, cfg *config.Config, configPath string) *AppState {
	state := &AppState{
		App:        app,
		Window:     window,
		cfg:        cfg,
		configPath: configPath,
		reporter:   downloader.NopReporter{},
	}

	state.Runner = downloader.NewJobRunner(state.run)
	state.Runner.SetCallback(func(job downloader.Job) {
		fyne.Do(func() {
			for _, callback := range state.OnJobUpdated {
				callback(job)
			}
		})
	})
	return state
}

// Config returns a copy of the current settings.
func (s *AppState) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.cfg
}

// UpdateConfig changes the settings used by the next run.
func (s *AppState) UpdateConfig(change func(cfg *config.Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	change(s.cfg)
}

// ConfigPath returns the file the settings were loaded from, or the default
// config file when none was given.
func (s *AppState) ConfigPath() (string, error) {
	if s.configPath != "" {
		return s.configPath, nil
	}
	return config.DefaultConfigPath()
}

// SaveConfig writes the current settings to ConfigPath and returns the path.
func (s *AppState) SaveConfig() (string, error) {
	path, err := s.ConfigPath()
	if err != nil {
		return "", err
	}

	cfg := s.Config()
	if err := cfg.Save(path); err != nil {
		return "", err
	}
	log.Printf("[UI] Configuration saved to %s", path)
	return path, nil
}

// SetReporter sets the sink that receives the events of every run.
func (s *AppState) SetReporter(reporter downloader.Reporter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reporter = reporter
}

// run is the JobRunner's RunFunc. Each run gets its own copy of the
// settings so edits made while downloading apply to the next run only.
func (s *AppState) run(ctx context.Context, listingURL string) (models.RunSummary, error) {
	s.mu.Lock()
	cfg := *s.cfg
	reporter := s.reporter
	s.mu.Unlock()

	manager, err := downloader.NewDefaultManager(&cfg, reporter)
	if err != nil {
		log.Printf("[UI] Cannot create downloader: %v", err)
		return models.RunSummary{}, err
	}
	return manager.Run(ctx, listingURL)
}
