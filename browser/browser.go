// Package browser wraps the controlled-browser primitive behind a small
// capability interface so the session manager and the extraction pipeline can
// be exercised against fakes.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout signals that a bounded DOM wait expired.
	ErrTimeout = errors.New("browser: wait timed out")
	// ErrNotFound signals that a structurally optional element is absent.
	ErrNotFound = errors.New("browser: element not found")
)

// Cookie mirrors the fields persisted in the session artifact file.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	Secure   bool    `json:"secure"`
	HTTPOnly bool    `json:"httpOnly"`
}

// Session is one live browser session. Sessions are not safe for concurrent
// use — each extraction job owns its own.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)

	// WaitPresent blocks until at least one element matches selector or the
	// timeout expires (ErrTimeout).
	WaitPresent(ctx context.Context, selector string, timeout time.Duration) error

	// WaitTexts collects the trimmed inner text of every element matching
	// selector, in document order, waiting up to timeout for at least one
	// non-empty match (ErrTimeout otherwise).
	WaitTexts(ctx context.Context, selector string, timeout time.Duration) ([]string, error)

	// ClickText scrolls the first span with exactly the given text into view
	// and clicks it, falling back to a scripted click when the natural click
	// is intercepted. Returns ErrNotFound when no such span exists.
	ClickText(ctx context.Context, text string) error

	// SectionHTML locates a heading by text match and returns the outer HTML
	// of its structural ancestor container, or ErrNotFound.
	SectionHTML(ctx context.Context, heading string) (string, error)

	// ImageSources returns the src of every element matching selector.
	ImageSources(ctx context.Context, selector string) ([]string, error)

	Cookies(ctx context.Context) ([]Cookie, error)
	SetCookies(ctx context.Context, cookies []Cookie) error

	Close()
}

// Launcher starts browser sessions. A Launch error means the browser process
// itself could not be started — an environment failure, fatal to the job.
type Launcher interface {
	Launch(ctx context.Context, headless bool) (Session, error)
}
