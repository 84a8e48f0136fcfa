package marketplace

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"car-tracker/browser"
	"car-tracker/config"
	"car-tracker/utils"
)

// Mode is the browser visibility mode of a session manager.
type Mode string

const (
	ModeHeadless Mode = "headless"
	ModeVisible  Mode = "visible"
)

// LoginPrompter blocks until a human has finished the interactive login.
// The wait is intentionally unbounded: credentials and 2FA happen outside
// automation's control.
type LoginPrompter interface {
	AwaitCompletion()
}

// StdinPrompter waits for Enter on standard input.
type StdinPrompter struct {
	logger *utils.Logger
}

func NewStdinPrompter(logger *utils.Logger) *StdinPrompter {
	return &StdinPrompter{logger: logger}
}

func (p *StdinPrompter) AwaitCompletion() {
	p.logger.Info("[login] Please log in manually in the browser window.")
	p.logger.Info("[login] Press Enter once you are fully logged in (including 2FA)...")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
}

// SessionManager maintains a durable authenticated session: it restores the
// saved cookie jar when possible and falls back to an interactive login,
// switching the browser to a visible mode for the human step.
type SessionManager struct {
	launcher browser.Launcher
	prompter LoginPrompter
	cfg      *config.Config
	logger   *utils.Logger

	sess browser.Session
	mode Mode
}

// NewSessionManager creates a manager. Call Start before EnsureLoggedIn.
func NewSessionManager(launcher browser.Launcher, prompter LoginPrompter,
	cfg *config.Config, logger *utils.Logger) *SessionManager {
	mode := ModeVisible
	if cfg.Headless {
		mode = ModeHeadless
	}
	return &SessionManager{
		launcher: launcher,
		prompter: prompter,
		cfg:      cfg,
		logger:   logger,
		mode:     mode,
	}
}

// Start launches the browser in the configured visibility mode. A failure is
// an environment failure and is fatal to the job.
func (m *SessionManager) Start(ctx context.Context) error {
	sess, err := m.launcher.Launch(ctx, m.mode == ModeHeadless)
	if err != nil {
		return err
	}
	m.sess = sess
	return nil
}

// Session returns the live browser session for the extraction pipeline. Only
// valid between Start and Close; the session may have been replaced if an
// interactive login forced a visible restart.
func (m *SessionManager) Session() browser.Session {
	return m.sess
}

// Mode reports the current visibility mode, so the headless-to-visible
// transition during interactive login is observable.
func (m *SessionManager) Mode() Mode {
	return m.mode
}

// Close releases the underlying browser session.
func (m *SessionManager) Close() {
	if m.sess != nil {
		m.sess.Close()
		m.sess = nil
	}
}

// EnsureLoggedIn verifies the session, restoring saved cookies first and
// falling back to an interactive login. It reports false rather than failing
// on anything except environment-level errors (a browser that cannot be
// restarted for the visible login step).
func (m *SessionManager) EnsureLoggedIn(ctx context.Context) (bool, error) {
	if m.sess == nil {
		return false, fmt.Errorf("session manager not started")
	}

	if m.loadCookies(ctx) && m.verifyLogin(ctx) {
		m.logger.Info("[login] Restored saved session")
		return true, nil
	}

	// The human has to see the page to complete credentials and 2FA.
	if m.mode == ModeHeadless {
		m.logger.Info("[login] Saved session invalid — restarting browser in visible mode")
		if err := m.restartVisible(ctx); err != nil {
			return false, fmt.Errorf("restart browser for interactive login: %w", err)
		}
	}

	if err := m.sess.Navigate(ctx, m.cfg.BaseURL); err != nil {
		m.logger.Warn("[login] Could not open login page: %v", err)
	}
	m.prompter.AwaitCompletion()

	if !m.verifyLogin(ctx) {
		m.logger.Warn("[login] Verification failed after interactive login")
		return false, nil
	}

	if err := m.saveCookies(ctx); err != nil {
		m.logger.Warn("[login] Could not persist session cookies: %v", err)
	} else {
		m.logger.Info("[login] Session saved")
	}
	return true, nil
}

// verifyLogin navigates to the site root and checks for the login-only DOM
// marker within a bounded wait. Any error counts as "not verified".
func (m *SessionManager) verifyLogin(ctx context.Context) bool {
	if err := m.sess.Navigate(ctx, m.cfg.BaseURL); err != nil {
		m.logger.Debug("[login] Verification navigate failed: %v", err)
		return false
	}

	timeout := time.Duration(m.cfg.WaitTimeoutSec) * time.Second
	if err := m.sess.WaitPresent(ctx, loginMarkerSelector, timeout); err != nil {
		m.logger.Debug("[login] Marker %q not found: %v", loginMarkerSelector, err)
		return false
	}
	return true
}

// restartVisible swaps the headless session for a visible one, discarding all
// in-flight browser state. Not retried: a second failure would fail the same
// way.
func (m *SessionManager) restartVisible(ctx context.Context) error {
	m.sess.Close()
	m.sess = nil

	sess, err := m.launcher.Launch(ctx, false)
	if err != nil {
		return err
	}
	m.sess = sess
	m.mode = ModeVisible
	return nil
}

// loadCookies restores the session artifact into the browser. Returns false
// when no artifact exists or it cannot be applied.
func (m *SessionManager) loadCookies(ctx context.Context) bool {
	data, err := os.ReadFile(m.cfg.CookieFile)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn("[login] Could not read cookie file: %v", err)
		}
		return false
	}

	var cookies []browser.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		m.logger.Warn("[login] Corrupt cookie file %s: %v", m.cfg.CookieFile, err)
		return false
	}
	if len(cookies) == 0 {
		return false
	}

	if err := m.sess.SetCookies(ctx, cookies); err != nil {
		m.logger.Warn("[login] Could not apply saved cookies: %v", err)
		return false
	}
	return true
}

// saveCookies overwrites the session artifact wholesale — last login wins.
// The write goes through a temp file and rename so a crash never leaves a
// half-written jar.
func (m *SessionManager) saveCookies(ctx context.Context) error {
	cookies, err := m.sess.Cookies(ctx)
	if err != nil {
		return fmt.Errorf("read cookies: %w", err)
	}

	data, err := json.Marshal(cookies)
	if err != nil {
		return fmt.Errorf("marshal cookies: %w", err)
	}

	dir := filepath.Dir(m.cfg.CookieFile)
	tmp, err := os.CreateTemp(dir, ".cookies-*")
	if err != nil {
		return fmt.Errorf("create temp cookie file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cookies: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp cookie file: %w", err)
	}
	return os.Rename(tmp.Name(), m.cfg.CookieFile)
}
