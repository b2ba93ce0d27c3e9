package downloader

import (
	"context"
	"time"

	"toonzip/models"
)

// Browser is one headless page driven by a single worker. Implementations
// are not safe for concurrent use; every worker owns its own Browser.
type Browser interface {
	// Navigate loads url and waits for the document body.
	Navigate(url string) error

	// HTML returns a snapshot of the current document.
	HTML() (string, error)

	// ScrollToBottom scrolls the window to the end of the document.
	ScrollToBottom() error

	// ScrollHeight returns document.body.scrollHeight.
	ScrollHeight() (int64, error)

	// WaitPresent waits until at least one element matches selector.
	WaitPresent(selector string, timeout time.Duration) error

	// ClickPage clicks the pagination button whose attr equals token.
	ClickPage(attr, token string, timeout time.Duration) error

	// MarkReference remembers the first element matching selector so a
	// later WaitReferenceStale can detect that the page re-rendered.
	// It reports false when nothing matched.
	MarkReference(selector string) (bool, error)

	// WaitReferenceStale waits until the marked element is detached.
	WaitReferenceStale(timeout time.Duration) error

	Close()
}

// BrowserFactory starts a new browser session. A failure means the browser
// could not be launched at all.
type BrowserFactory func(ctx context.Context) (Browser, error)

// Image is a downloaded image body with the metadata needed to name it.
type Image struct {
	URL         string
	ContentType string
	Body        []byte
}

// ImageFetcher downloads a single image.
type ImageFetcher interface {
	Fetch(ctx context.Context, imageURL, referer string) (*Image, error)
}

// Reporter receives user-facing run events. Implementations must be safe for
// concurrent use because episode workers report in parallel.
type Reporter interface {
	Log(msg string)
	Progress(done, total int)
	Title(title string)
	Done(summary models.RunSummary)
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) Log(string)             {}
func (NopReporter) Progress(int, int)      {}
func (NopReporter) Title(string)           {}
func (NopReporter) Done(models.RunSummary) {}
