// Package marketplace drives the session-gated marketplace: keeping an
// authenticated browser session alive and extracting structured listing data
// from individual car listing pages.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"car-tracker/browser"
	"car-tracker/config"
	"car-tracker/models"
	"car-tracker/utils"
)

const (
	// loginMarkerSelector only renders for authenticated users.
	loginMarkerSelector = `[aria-label="Facebook"]`

	// contentSelector matches the flat pool of text nodes the listing page
	// renders its facts into. The obfuscated class is the only stable hook.
	contentSelector = `div[role="main"] span[class*="x193iq5w"][dir="auto"]`

	// photoSelector matches the gallery images of a listing.
	photoSelector = `div[role="main"] img[alt*="Marketplace"]`

	aboutHeading = "About this vehicle"
	seeMoreText  = "See more"
)

// Extractor runs the staged extraction pipeline against one loaded listing
// page. Every stage is best-effort except the text-pool collection: a page
// with zero content elements fails the pipeline as a whole.
type Extractor struct {
	sess   browser.Session
	cfg    *config.Config
	logger *utils.Logger
}

// NewExtractor creates an Extractor bound to a logged-in browser session.
func NewExtractor(sess browser.Session, cfg *config.Config, logger *utils.Logger) *Extractor {
	return &Extractor{sess: sess, cfg: cfg, logger: logger}
}

// Extract navigates to the listing and runs the pipeline stages in order:
// title, description expansion, text-pool classification, details table,
// image harvesting. The progress callback receives a copy of the car after
// each data-bearing stage.
func (e *Extractor) Extract(ctx context.Context, url string, progress func(models.Car)) (*models.Car, error) {
	car := &models.Car{
		URL:        url,
		Status:     models.StatusNew,
		Price:      models.PriceNotFound,
		Location:   models.LocationNotFound,
		TimePosted: models.TimeUnknown,
	}

	if err := e.sess.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("load listing %s: %w", url, err)
	}
	e.randomDelay()

	// Stage 1: page title.
	if title, err := e.sess.Title(ctx); err == nil {
		car.Title = cleanTitle(title)
		e.logger.Debug("[marketplace] Title: %s", car.Title)
	} else {
		e.logger.Warn("[marketplace] Could not read page title: %v", err)
	}
	report(progress, car)

	// Stage 2: expand the truncated description. A listing without the
	// control simply has a short description.
	if err := e.sess.ClickText(ctx, seeMoreText); err != nil {
		if errors.Is(err, browser.ErrNotFound) {
			e.logger.Debug("[marketplace] No %q control on this listing", seeMoreText)
		} else {
			e.logger.Warn("[marketplace] Could not expand description: %v", err)
		}
	}

	// Stage 3: classify the text pool. This is the one infrastructural
	// stage — no text elements means the page never rendered for us.
	texts, err := e.sess.WaitTexts(ctx, contentSelector, e.waitTimeout())
	if err != nil {
		return nil, fmt.Errorf("collect listing text: %w", err)
	}
	e.logger.Debug("[marketplace] Collected %d text nodes", len(texts))

	cls := Classify(texts, e.cfg.RegionCode)
	car.Price = cls.Price
	car.TimePosted = cls.TimePosted
	car.Location = cls.Location
	car.Mileage = cls.Mileage
	car.Description = cls.Description
	report(progress, car)

	// Stage 4: the "About this vehicle" table. Missing on plenty of
	// listings; that just leaves the map empty.
	if html, err := e.sess.SectionHTML(ctx, aboutHeading); err == nil {
		about, perr := ParseAbout(html, aboutHeading)
		if perr != nil {
			e.logger.Warn("[marketplace] Details section unreadable: %v", perr)
		} else if len(about) > 0 {
			car.About = about
			e.logger.Debug("[marketplace] Details rows: %d", len(about))
		}
	} else if errors.Is(err, browser.ErrNotFound) {
		e.logger.Debug("[marketplace] No %q section", aboutHeading)
	} else {
		e.logger.Warn("[marketplace] Could not read details section: %v", err)
	}
	report(progress, car)

	// Stage 5: photos.
	if srcs, err := e.sess.ImageSources(ctx, photoSelector); err == nil {
		car.Images = FilterImages(srcs)
		e.logger.Debug("[marketplace] Harvested %d images", len(car.Images))
		if e.cfg.DownloadImages && len(car.Images) > 0 {
			e.downloadImages(car.Title, car.Images)
		}
	} else {
		e.logger.Warn("[marketplace] Image harvest failed: %v", err)
	}
	report(progress, car)

	return car, nil
}

func (e *Extractor) waitTimeout() time.Duration {
	if e.cfg.WaitTimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(e.cfg.WaitTimeoutSec) * time.Second
}

func report(progress func(models.Car), car *models.Car) {
	if progress != nil {
		progress(*car.Clone())
	}
}

// randomDelay spaces page interactions by a randomized interval around the
// configured rate limit, so the session doesn't hammer the site at machine
// speed. A zero rate limit disables the delay.
func (e *Extractor) randomDelay() {
	base := time.Duration(e.cfg.RateLimitMs) * time.Millisecond
	if base <= 0 {
		return
	}
	time.Sleep(base/2 + time.Duration(rand.Int63n(int64(base))))
}
