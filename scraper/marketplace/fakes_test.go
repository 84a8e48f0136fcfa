package marketplace

import (
	"context"
	"errors"
	"time"

	"car-tracker/browser"
)

var errOutOfSessions = errors.New("fake launcher: no more sessions")

// fakeSession scripts the browser capability for tests.
type fakeSession struct {
	title       string
	texts       []string
	textsErr    error
	sectionHTML string
	sectionErr  error
	images      []string
	imagesErr   error
	cookies     []browser.Cookie

	navErr         error
	waitPresentErr error
	clickErr       error
	setCookiesErr  error

	navigated  []string
	clicked    []string
	setCookies []browser.Cookie
	closed     bool
}

func (f *fakeSession) Navigate(_ context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return f.navErr
}

func (f *fakeSession) Title(context.Context) (string, error) {
	return f.title, nil
}

func (f *fakeSession) WaitPresent(context.Context, string, time.Duration) error {
	return f.waitPresentErr
}

func (f *fakeSession) WaitTexts(context.Context, string, time.Duration) ([]string, error) {
	return f.texts, f.textsErr
}

func (f *fakeSession) ClickText(_ context.Context, text string) error {
	f.clicked = append(f.clicked, text)
	return f.clickErr
}

func (f *fakeSession) SectionHTML(context.Context, string) (string, error) {
	return f.sectionHTML, f.sectionErr
}

func (f *fakeSession) ImageSources(context.Context, string) ([]string, error) {
	return f.images, f.imagesErr
}

func (f *fakeSession) Cookies(context.Context) ([]browser.Cookie, error) {
	return f.cookies, nil
}

func (f *fakeSession) SetCookies(_ context.Context, cookies []browser.Cookie) error {
	f.setCookies = append(f.setCookies, cookies...)
	return f.setCookiesErr
}

func (f *fakeSession) Close() { f.closed = true }

// fakeLauncher hands out scripted sessions and records visibility modes.
type fakeLauncher struct {
	sessions   []*fakeSession
	launchErr  error
	visibleErr error

	headlessArgs []bool
	next         int
}

func (l *fakeLauncher) Launch(_ context.Context, headless bool) (browser.Session, error) {
	l.headlessArgs = append(l.headlessArgs, headless)
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	if !headless && l.visibleErr != nil {
		return nil, l.visibleErr
	}
	if l.next >= len(l.sessions) {
		return nil, errOutOfSessions
	}
	sess := l.sessions[l.next]
	l.next++
	return sess, nil
}

type fakePrompter struct {
	called bool
}

func (p *fakePrompter) AwaitCompletion() { p.called = true }
