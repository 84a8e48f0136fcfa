package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"car-tracker/utils"
)

const defaultNavSettle = 2 * time.Second

// ChromeLauncher starts Chrome sessions via chromedp.
type ChromeLauncher struct {
	bin        string
	navTimeout time.Duration
	logger     *utils.Logger
}

// NewChromeLauncher creates a launcher. When bin is empty the Chrome binary
// is discovered from PATH and the usual install locations.
func NewChromeLauncher(bin string, navTimeoutSec int, logger *utils.Logger) *ChromeLauncher {
	if bin == "" {
		bin = findChromeBinary()
	}
	if navTimeoutSec <= 0 {
		navTimeoutSec = 60
	}
	return &ChromeLauncher{
		bin:        bin,
		navTimeout: time.Duration(navTimeoutSec) * time.Second,
		logger:     logger,
	}
}

// Launch starts a Chrome process in the requested visibility mode. A failure
// here means the environment cannot run a browser at all.
func (l *ChromeLauncher) Launch(ctx context.Context, headless bool) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if l.bin != "" {
		opts = append(opts, chromedp.ExecPath(l.bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	// Run with no actions forces the browser process to start now, so an
	// unusable environment surfaces here instead of mid-extraction.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome (headless=%v): %w", headless, err)
	}

	l.logger.Debug("[browser] Chrome started (headless=%v, bin=%q)", headless, l.bin)

	return &chromeSession{
		ctx:        browserCtx,
		navTimeout: l.navTimeout,
		cancels:    []context.CancelFunc{cancelBrowser, cancelAlloc},
	}, nil
}

type chromeSession struct {
	ctx        context.Context
	navTimeout time.Duration
	cancels    []context.CancelFunc
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tctx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()

	err := chromedp.Run(tctx,
		chromedp.Navigate(url),
		chromedp.Sleep(defaultNavSettle),
	)
	return mapTimeout(err)
}

func (s *chromeSession) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var title string
	err := chromedp.Run(s.ctx, chromedp.Title(&title))
	return title, err
}

func (s *chromeSession) WaitPresent(ctx context.Context, selector string, timeout time.Duration) error {
	_, err := s.waitCollect(ctx, fmt.Sprintf(`
		(function() {
			return document.querySelectorAll(%q).length > 0 ? ['present'] : [];
		})()
	`, selector), timeout)
	return err
}

func (s *chromeSession) WaitTexts(ctx context.Context, selector string, timeout time.Duration) ([]string, error) {
	return s.waitCollect(ctx, fmt.Sprintf(`
		(function() {
			var els = document.querySelectorAll(%q);
			var out = [];
			for (var i = 0; i < els.length; i++) {
				var text = (els[i].innerText || '').trim();
				if (text) out.push(text);
			}
			return out;
		})()
	`, selector), timeout)
}

// waitCollect polls the expression every half second until it yields at least
// one string or the budget runs out.
func (s *chromeSession) waitCollect(ctx context.Context, js string, timeout time.Duration) ([]string, error) {
	deadline := time.Now().Add(timeout)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var texts []string
		if err := chromedp.Run(s.ctx, chromedp.Evaluate(js, &texts)); err != nil {
			return nil, mapTimeout(err)
		}
		if len(texts) > 0 {
			return texts, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func (s *chromeSession) ClickText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var found bool
	scrollJS := fmt.Sprintf(`
		(function() {
			var spans = document.querySelectorAll('span');
			for (var i = 0; i < spans.length; i++) {
				if ((spans[i].textContent || '').trim() === %q) {
					spans[i].scrollIntoView({block: 'center'});
					return true;
				}
			}
			return false;
		})()
	`, text)

	if err := chromedp.Run(s.ctx, chromedp.Evaluate(scrollJS, &found)); err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	tctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	xpath := fmt.Sprintf(`//span[normalize-space(text())=%q]`, text)
	if err := chromedp.Run(tctx, chromedp.Click(xpath, chromedp.BySearch)); err != nil {
		// Natural click intercepted by an overlay — fall back to a scripted one.
		clickJS := fmt.Sprintf(`
			(function() {
				var spans = document.querySelectorAll('span');
				for (var i = 0; i < spans.length; i++) {
					if ((spans[i].textContent || '').trim() === %q) {
						spans[i].click();
						return true;
					}
				}
				return false;
			})()
		`, text)
		if err := chromedp.Run(s.ctx, chromedp.Evaluate(clickJS, &found)); err != nil {
			return err
		}
	}

	return chromedp.Run(s.ctx, chromedp.Sleep(time.Second))
}

func (s *chromeSession) SectionHTML(ctx context.Context, heading string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Climb from the heading until an ancestor holds several text rows —
	// the marketplace has no semantic container for the details section.
	js := fmt.Sprintf(`
		(function() {
			var nodes = document.querySelectorAll('h2, div[role="heading"], span[role="heading"], span');
			for (var i = 0; i < nodes.length; i++) {
				var text = (nodes[i].textContent || '').trim();
				if (text !== %q) continue;
				var node = nodes[i];
				for (var up = 0; up < 6 && node.parentElement; up++) {
					node = node.parentElement;
					if (node.querySelectorAll('span[dir="auto"]').length > 2) {
						return node.outerHTML;
					}
				}
			}
			return '';
		})()
	`, heading)

	var html string
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(js, &html)); err != nil {
		return "", err
	}
	if html == "" {
		return "", ErrNotFound
	}
	return html, nil
}

func (s *chromeSession) ImageSources(ctx context.Context, selector string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	js := fmt.Sprintf(`
		(function() {
			var imgs = document.querySelectorAll(%q);
			var out = [];
			for (var i = 0; i < imgs.length; i++) {
				var src = imgs[i].src || '';
				if (src.indexOf('http') === 0) out.push(src);
			}
			return out;
		})()
	`, selector)

	var srcs []string
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(js, &srcs)); err != nil {
		return nil, err
	}
	return srcs, nil
}

func (s *chromeSession) Cookies(ctx context.Context) ([]Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cookies []Cookie
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(cctx context.Context) error {
		raw, err := network.GetCookies().Do(cctx)
		if err != nil {
			return err
		}
		for _, c := range raw {
			cookies = append(cookies, Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				Secure:   c.Secure,
				HTTPOnly: c.HTTPOnly,
			})
		}
		return nil
	}))
	return cookies, err
}

func (s *chromeSession) SetCookies(ctx context.Context, cookies []Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return chromedp.Run(s.ctx, chromedp.ActionFunc(func(cctx context.Context) error {
		for _, c := range cookies {
			p := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithSecure(c.Secure).
				WithHTTPOnly(c.HTTPOnly)
			if c.Expires > 0 {
				exp := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
				p = p.WithExpires(&exp)
			}
			if err := p.Do(cctx); err != nil {
				return fmt.Errorf("set cookie %q: %w", c.Name, err)
			}
		}
		return nil
	}))
}

func (s *chromeSession) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

func mapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
