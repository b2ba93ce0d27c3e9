package cmd

import (
	"io"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"toonzip/config"
	"toonzip/models"
)

// consoleReporter renders run progress as a single mpb bar. Log lines reach
// the terminal through the standard logger, which is pointed at the bar
// container while it is visible so they print above the bar.
type consoleReporter struct {
	p *mpb.Progress

	mu      sync.Mutex
	bar     *mpb.Bar
	title   string
	restore func()
}

func newConsoleReporter(out io.Writer) *consoleReporter {
	return &consoleReporter{
		p: mpb.New(
			mpb.WithWidth(52),
			mpb.WithOutput(out),
			mpb.WithRefreshRate(120*time.Millisecond),
		),
		title: "episodes",
	}
}

func (r *consoleReporter) Log(string) {}

func (r *consoleReporter) Title(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.title = title
}

func (r *consoleReporter) Progress(done, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar == nil {
		r.bar = r.p.New(int64(total),
			mpb.BarStyle().Rbound("]"),
			mpb.PrependDecorators(
				decor.Name(r.title+"  "),
			),
			mpb.AppendDecorators(
				decor.Percentage(decor.WCSyncWidth),
				decor.CountersNoUnit(" | %d/%d episodes", decor.WCSyncWidth),
				decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncWidth),
			),
		)
		r.restore = config.SetConsoleOutput(r.p)
	}

	r.bar.SetCurrent(int64(done))
}

func (r *consoleReporter) Done(summary models.RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.restore != nil {
		r.restore()
		r.restore = nil
	}
	if r.bar == nil {
		return
	}
	if summary.Cancelled {
		r.bar.Abort(false)
		return
	}
	r.bar.SetTotal(-1, true)
}

// Close waits for the bar to finish rendering.
func (r *consoleReporter) Close() {
	r.mu.Lock()
	if r.restore != nil {
		r.restore()
		r.restore = nil
	}
	if r.bar != nil && !r.bar.Completed() {
		r.bar.Abort(false)
	}
	r.mu.Unlock()

	r.p.Wait()
}
