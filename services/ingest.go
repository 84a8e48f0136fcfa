package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"car-tracker/browser"
	"car-tracker/config"
	"car-tracker/models"
	"car-tracker/scraper/marketplace"
	"car-tracker/storage"
	"car-tracker/tracker"
	"car-tracker/utils"
)

// ErrEmptyURL rejects submissions without a listing URL.
var ErrEmptyURL = errors.New("services: url is required")

// IngestService is the orchestrator: it turns a submitted listing URL into an
// asynchronous extraction job and publishes the job's progress into the
// tracker. Each job owns its own browser session.
type IngestService struct {
	store    storage.CarStore
	launcher browser.Launcher
	prompter marketplace.LoginPrompter
	tracker  *tracker.Tracker
	cfg      *config.Config
	logger   *utils.Logger

	pool     *utils.WorkerPool
	inflight *utils.URLSet
}

// NewIngestService wires the orchestrator together.
func NewIngestService(store storage.CarStore, launcher browser.Launcher,
	prompter marketplace.LoginPrompter, trk *tracker.Tracker,
	cfg *config.Config, logger *utils.Logger) *IngestService {
	return &IngestService{
		store:    store,
		launcher: launcher,
		prompter: prompter,
		tracker:  trk,
		cfg:      cfg,
		logger:   logger,
		pool:     utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		inflight: utils.NewURLSet(),
	}
}

// Submit validates the URL, rejects duplicates (stored or in flight) before
// any job exists, and otherwise returns a job id immediately while the
// extraction proceeds in the background.
func (s *IngestService) Submit(url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", ErrEmptyURL
	}

	// The in-flight set serializes duplicate checks across concurrent
	// submissions of the same URL.
	if !s.inflight.Add(url) {
		return "", storage.ErrDuplicateURL
	}

	existing, err := s.store.FindByURL(url)
	if err != nil {
		s.inflight.Remove(url)
		return "", err
	}
	if existing != nil {
		s.inflight.Remove(url)
		return "", storage.ErrDuplicateURL
	}

	jobID := uuid.NewString()
	s.tracker.Create(jobID)
	s.logger.Info("[ingest] Job %s accepted for %s", jobID, url)

	s.pool.Submit(func() {
		defer s.inflight.Remove(url)
		s.runJob(jobID, url)
	})

	return jobID, nil
}

// Poll returns the latest progress snapshot for a job.
func (s *IngestService) Poll(jobID string) (tracker.Snapshot, bool) {
	return s.tracker.Get(jobID)
}

// Wait blocks until every accepted job has finished. Used on shutdown and in
// tests; callers normally only poll.
func (s *IngestService) Wait() {
	s.pool.Wait()
}

func (s *IngestService) runJob(jobID, url string) {
	ctx := context.Background()
	fail := func(msg string) {
		s.logger.Error("[ingest] Job %s failed: %s", jobID, msg)
		s.tracker.Advance(jobID, tracker.StateError, msg, nil)
	}

	s.tracker.Advance(jobID, tracker.StateCheckingDuplicate, "checking for an existing record", nil)
	if existing, err := s.store.FindByURL(url); err != nil {
		fail("store lookup failed: " + err.Error())
		return
	} else if existing != nil {
		fail("listing is already tracked")
		return
	}

	s.tracker.Advance(jobID, tracker.StateScraperInit, "starting browser session", nil)
	mgr := marketplace.NewSessionManager(s.launcher, s.prompter, s.cfg, s.logger)
	if err := mgr.Start(ctx); err != nil {
		fail("browser could not be started: " + err.Error())
		return
	}
	defer mgr.Close()

	s.tracker.Advance(jobID, tracker.StateLoggingIn, "verifying marketplace session", nil)
	ok, err := mgr.EnsureLoggedIn(ctx)
	if err != nil {
		fail("login aborted: " + err.Error())
		return
	}
	if !ok {
		fail("could not log in to the marketplace")
		return
	}

	s.tracker.Advance(jobID, tracker.StateFetching, "extracting listing data", nil)
	ext := marketplace.NewExtractor(mgr.Session(), s.cfg, s.logger)
	car, err := ext.Extract(ctx, url, func(partial models.Car) {
		s.tracker.Advance(jobID, tracker.StateFetching, "extracting listing data", &partial)
	})
	if err != nil {
		fail("extraction failed: " + err.Error())
		return
	}

	s.tracker.Advance(jobID, tracker.StateSaving, "saving listing", car)
	if err := s.store.Insert(car); err != nil {
		if errors.Is(err, storage.ErrDuplicateURL) {
			fail("listing is already tracked")
		} else {
			fail("save failed: " + err.Error())
		}
		return
	}

	s.logger.Info("[ingest] Job %s complete — %s (%s)", jobID, car.Title, car.Price)
	s.tracker.Advance(jobID, tracker.StateComplete, "listing saved", car)
}
