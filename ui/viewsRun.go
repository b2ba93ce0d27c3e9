package ui

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"golang.design/x/clipboard"

	"toonzip/config"
	"toonzip/downloader"
	"toonzip/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

var (
	clipboardOnce sync.Once
	clipboardErr  error
)

// RunView is the main card: URL entry, run settings, start/stop, progress
// and the log of the current run.
type RunView struct {
	Card    fyne.CanvasObject
	LogCard fyne.CanvasObject

	state *AppState

	urlEntry     *widget.Entry
	pasteButton  *widget.Button
	startButton  *widget.Button
	stopButton   *widget.Button
	outputLabel  *widget.Label
	outputButton *widget.Button
	freshCheck   *widget.Check
	jpegCheck    *widget.Check

	titleLabel  *widget.Label
	statusLabel *widget.Label
	progressBar *widget.ProgressBar

	logLabel  *widget.Label
	logScroll *container.Scroll
	logLines  []string
}

func NewRunView(state *AppState) *RunView {
	view := &RunView{state: state}
	cfg := state.Config()

	view.urlEntry = widget.NewEntry()
	view.urlEntry.SetPlaceHolder("https://example.com/comic/...")
	view.urlEntry.OnSubmitted = func(string) {
		view.onStart()
	}

	view.pasteButton = widget.NewButton("Paste", view.onPaste)
	view.startButton = widget.NewButton("Start", view.onStart)
	view.startButton.Importance = widget.HighImportance
	view.stopButton = widget.NewButton("Stop", view.onStop)
	view.stopButton.Disable()

	view.outputLabel = widget.NewLabel(cfg.Output)
	view.outputLabel.Truncation = fyne.TextTruncateEllipsis
	view.outputButton = widget.NewButton("Choose...", view.onChooseOutput)

	view.freshCheck = widget.NewCheck("Start over (delete an existing comic folder)", func(on bool) {
		state.UpdateConfig(func(c *config.Config) { c.Fresh = on })
	})
	view.freshCheck.SetChecked(cfg.Fresh)

	view.jpegCheck = widget.NewCheck("Convert images to JPEG", func(on bool) {
		state.UpdateConfig(func(c *config.Config) { c.ConvertJPEG = on })
	})
	view.jpegCheck.SetChecked(cfg.ConvertJPEG)

	view.titleLabel = NewBoldLabel("No comic yet")
	view.titleLabel.Truncation = fyne.TextTruncateEllipsis
	view.statusLabel = widget.NewLabel("Idle")
	view.progressBar = widget.NewProgressBar()
	view.progressBar.TextFormatter = func() string {
		return fmt.Sprintf("%.0f / %.0f episodes", view.progressBar.Value, view.progressBar.Max)
	}

	view.logLabel = widget.NewLabel("")
	view.logLabel.Wrapping = fyne.TextWrapWord
	view.logScroll = container.NewScroll(view.logLabel)

	urlRow := container.NewBorder(nil, nil, widget.NewLabel("Listing URL"), view.pasteButton, view.urlEntry)
	outputRow := container.NewBorder(nil, nil, widget.NewLabel("Save to"), view.outputButton, view.outputLabel)
	buttons := container.NewHBox(view.startButton, view.stopButton)

	view.Card = NewCardWithHeader("Download", container.NewVBox(
		urlRow,
		outputRow,
		container.NewGridWithColumns(2, view.freshCheck, view.jpegCheck),
		buttons,
		NewSeparator(),
		view.titleLabel,
		view.progressBar,
		view.statusLabel,
	))
	view.LogCard = NewCardWithHeader("Log", view.logScroll)

	state.SetReporter(&guiReporter{view: view})
	state.OnJobUpdated = append(state.OnJobUpdated, view.onJobUpdated)
	return view
}

func (v *RunView) onPaste() {
	clipboardOnce.Do(func() {
		clipboardErr = clipboard.Init()
	})
	if clipboardErr != nil {
		log.Printf("[UI] Clipboard unavailable: %v", clipboardErr)
		dialog.ShowError(fmt.Errorf("clipboard unavailable: %w", clipboardErr), v.state.Window)
		return
	}

	text := strings.TrimSpace(string(clipboard.Read(clipboard.FmtText)))
	if text == "" {
		dialog.ShowInformation("Paste", "The clipboard does not contain any text", v.state.Window)
		return
	}
	v.urlEntry.SetText(text)
}

func (v *RunView) onStart() {
	listingURL, ok := ValidateRunInputWithDialog(v)
	if !ok {
		return
	}

	v.logLines = nil
	v.logLabel.SetText("")
	v.titleLabel.SetText("Looking for episodes...")
	v.progressBar.Max = 1
	v.progressBar.SetValue(0)

	if err := v.state.Runner.Start(listingURL); err != nil {
		dialog.ShowError(err, v.state.Window)
	}
}

func (v *RunView) onStop() {
	if err := v.state.Runner.Stop(); err != nil {
		log.Printf("[UI] Stop ignored: %v", err)
	}
}

func (v *RunView) onChooseOutput() {
	folderDialog := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, v.state.Window)
			return
		}
		if uri == nil {
			return
		}

		path := uri.Path()
		v.state.UpdateConfig(func(c *config.Config) { c.Output = path })
		v.outputLabel.SetText(path)
		log.Printf("[UI] Output folder set to %s", path)
	}, v.state.Window)

	cfg := v.state.Config()
	start, err := cfg.OutputDir()
	if err != nil || start == "." {
		start, err = os.UserHomeDir()
	}
	if err == nil {
		if dir, err := storage.ListerForURI(storage.NewFileURI(start)); err == nil {
			folderDialog.SetLocation(dir)
		}
	}

	folderDialog.Show()
}

// onJobUpdated runs on the fyne goroutine.
func (v *RunView) onJobUpdated(job downloader.Job) {
	running := job.Status == downloader.StatusRunning || job.Status == downloader.StatusCancelling

	setEnabled(v.startButton, !running)
	setEnabled(v.urlEntry, !running)
	setEnabled(v.outputButton, !running)
	setEnabled(v.stopButton, job.Status == downloader.StatusRunning)

	switch job.Status {
	case downloader.StatusRunning:
		v.statusLabel.SetText("Downloading...")
	case downloader.StatusCancelling:
		v.statusLabel.SetText("Stopping after the episodes in progress...")
	case downloader.StatusFailed:
		v.statusLabel.SetText("Failed: " + job.Error.Error())
	case downloader.StatusCancelled:
		v.statusLabel.SetText("Stopped. " + summaryText(job.Summary))
	case downloader.StatusCompleted:
		v.statusLabel.SetText("Done. " + summaryText(job.Summary))
	}
}

func (v *RunView) appendLog(msg string) {
	stamp := time.Now().Format("15:04:05")
	v.logLines = append(v.logLines, stamp+"  "+msg)
	if len(v.logLines) > maxLogLines {
		v.logLines = v.logLines[len(v.logLines)-maxLogLines:]
	}
	v.logLabel.SetText(strings.Join(v.logLines, "\n"))
	v.logScroll.ScrollToBottom()
}

type disableable interface {
	Enable()
	Disable()
}

func setEnabled(w disableable, on bool) {
	if on {
		w.Enable()
	} else {
		w.Disable()
	}
}

func summaryText(s models.RunSummary) string {
	text := fmt.Sprintf("%d/%d episodes, %d skipped, %d images in %s.",
		s.Completed, s.Episodes, s.Skipped, s.Images, s.Elapsed.Round(time.Second))
	if s.ArchivePath != "" {
		text += " Archive: " + s.ArchivePath
	}
	return text
}

// guiReporter forwards run events from the download workers to the widgets.
type guiReporter struct {
	view *RunView
}

func (r *guiReporter) Log(msg string) {
	fyne.Do(func() {
		r.view.appendLog(msg)
	})
}

func (r *guiReporter) Progress(done, total int) {
	fyne.Do(func() {
		if total < 1 {
			total = 1
		}
		r.view.progressBar.Max = float64(total)
		r.view.progressBar.SetValue(float64(done))
	})
}

func (r *guiReporter) Title(title string) {
	fyne.Do(func() {
		r.view.titleLabel.SetText(title)
	})
}

func (r *guiReporter) Done(summary models.RunSummary) {
	fyne.Do(func() {
		if summary.Comic.Title != "" {
			r.view.titleLabel.SetText(summary.Comic.DirName())
		}
	})
}
