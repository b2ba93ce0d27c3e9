package ui

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/nxadm/tail"

	"toonzip/config"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

const (
	initialLinesToShow = 1000 // Show last 1000 lines initially
	linesPerScroll     = 500  // Load 500 more lines when scrolling up
	tailFlushInterval  = 250 * time.Millisecond
)

// logView holds the lines shown in the log window. Every field is only
// touched on the fyne goroutine.
type logView struct {
	label  *widget.Label
	scroll *container.Scroll
	info   *widget.Label

	older     []string // lines above the loaded window
	displayed []string
	filter    string
	follow    bool
}

func (v *logView) render() {
	lines := v.displayed
	if v.filter != "" {
		query := strings.ToLower(v.filter)
		var filtered []string
		for _, line := range lines {
			if strings.Contains(strings.ToLower(line), query) {
				filtered = append(filtered, line)
			}
		}
		if len(filtered) == 0 {
			v.label.SetText(fmt.Sprintf("No results found for: %s\n(Searching only in loaded lines)", v.filter))
			return
		}
		lines = filtered
	}

	v.label.SetText(strings.Join(lines, "\n"))
	if v.follow && v.filter == "" {
		v.scroll.ScrollToBottom()
	}
}

func (v *logView) updateInfo() {
	v.info.SetText(fmt.Sprintf("Showing %d lines (%d older lines available). New lines appear while the window is open.",
		len(v.displayed), len(v.older)))
}

func (v *logView) loadMore() bool {
	if len(v.older) == 0 {
		return false
	}
	start := len(v.older) - linesPerScroll
	if start < 0 {
		start = 0
	}
	v.displayed = append(append([]string{}, v.older[start:]...), v.displayed...)
	v.older = v.older[:start]
	return true
}

func (v *logView) append(lines []string) {
	v.displayed = append(v.displayed, lines...)
}

// ShowLogWindow opens the application log. The existing content is read
// once, then new lines are followed with tail until the window closes.
func ShowLogWindow(toonApp fyne.App) {
	logFilePath, err := config.LogFilePath()
	if err != nil {
		log.Printf("[UI] Cannot locate the log file: %v", err)
		return
	}

	logWindow := toonApp.NewWindow("toonzip log")
	logWindow.Resize(fyne.NewSize(800, 600))

	view := &logView{
		label:  widget.NewLabel("Loading log file..."),
		info:   widget.NewLabel(""),
		follow: true,
	}
	view.label.Wrapping = fyne.TextWrapWord
	view.scroll = container.NewScroll(view.label)

	searchEntry := widget.NewEntry()
	searchEntry.SetPlaceHolder("Search in loaded lines...")
	searchEntry.OnSubmitted = func(query string) {
		view.filter = strings.TrimSpace(query)
		view.render()
	}

	searchButton := widget.NewButton("Search", func() {
		view.filter = strings.TrimSpace(searchEntry.Text)
		view.render()
	})

	clearButton := widget.NewButton("Clear Search", func() {
		searchEntry.SetText("")
		view.filter = ""
		view.render()
	})

	followCheck := widget.NewCheck("Follow", func(on bool) {
		view.follow = on
		if on {
			view.scroll.ScrollToBottom()
		}
	})
	followCheck.SetChecked(true)

	openDirButton := widget.NewButton("Open Log Directory", func() {
		openDirectory(filepath.Dir(logFilePath), logWindow)
	})

	loadMoreButton := widget.NewButton("Load More Lines", func() {
		if !view.loadMore() {
			dialog.ShowInformation("Info", "All available lines are already loaded", logWindow)
			return
		}
		view.updateInfo()
		view.render()
	})

	searchBox := container.NewBorder(nil, nil, nil,
		container.NewHBox(searchButton, clearButton, loadMoreButton, followCheck, openDirButton),
		searchEntry)

	content := container.NewBorder(
		container.NewVBox(searchBox, view.info),
		nil, nil, nil,
		view.scroll,
	)
	logWindow.SetContent(content)

	stop := make(chan struct{})
	var once sync.Once
	logWindow.SetOnClosed(func() {
		once.Do(func() { close(stop) })
	})
	logWindow.Show()

	go func() {
		lines, offset, err := readLogLines(logFilePath)
		if err != nil {
			fyne.Do(func() {
				view.label.SetText(fmt.Sprintf("Failed to open log file: %v", err))
			})
			return
		}

		fyne.Do(func() {
			if len(lines) > initialLinesToShow {
				view.older = lines[:len(lines)-initialLinesToShow]
				lines = lines[len(lines)-initialLinesToShow:]
			}
			view.displayed = lines
			view.updateInfo()
			view.render()
		})

		followLog(logFilePath, offset, view, stop)
	}()
}

// readLogLines reads the whole log and returns the offset where following
// should resume.
func readLogLines(path string) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading log file: %w", err)
	}

	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, err
	}
	return lines, offset, nil
}

// followLog streams lines written after offset into view until stop is
// closed. Lines are flushed in batches so a busy download does not flood
// the UI thread.
func followLog(path string, offset int64, view *logView, stop <-chan struct{}) {
	t, err := tail.TailFile(path, tail.Config{
		Location: &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
		ReOpen:   true,
		Follow:   true,
		Logger:   tail.DiscardingLogger,
	})
	if err != nil {
		log.Printf("[UI] Log follow unavailable: %v", err)
		return
	}
	defer t.Cleanup()
	defer t.Stop()

	ticker := time.NewTicker(tailFlushInterval)
	defer ticker.Stop()

	var pending []string
	for {
		select {
		case <-stop:
			return
		case line, ok := <-t.Lines:
			if !ok {
				return
			}
			if line.Err != nil {
				continue
			}
			pending = append(pending, line.Text)
		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}
			batch := pending
			pending = nil
			fyne.Do(func() {
				view.append(batch)
				view.updateInfo()
				view.render()
			})
		}
	}
}

// openDirectory opens the file manager to the specified directory
func openDirectory(path string, parent fyne.Window) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("explorer", path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		dialog.ShowError(fmt.Errorf("unsupported operating system"), parent)
		return
	}

	if err := cmd.Start(); err != nil {
		dialog.ShowError(fmt.Errorf("failed to open directory: %v", err), parent)
	}
}
