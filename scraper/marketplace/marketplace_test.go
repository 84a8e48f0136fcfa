package marketplace

import (
	"context"
	"errors"
	"strings"
	"testing"

	"car-tracker/browser"
	"car-tracker/config"
	"car-tracker/models"
	"car-tracker/utils"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		CookieFile:     t.TempDir() + "/cookies.json",
		BaseURL:        "https://marketplace.test",
		RegionCode:     "OH",
		WaitTimeoutSec: 1,
		Headless:       true,
		RateLimitMs:    0, // no politeness delay in tests
	}
}

func TestExtractFullListing(t *testing.T) {
	description := strings.Repeat("Well maintained, one owner. ", 11)
	sess := &fakeSession{
		title: "Marketplace - 2015 Honda Civic | Facebook",
		texts: []string{
			"2015 Honda Civic",
			"$12,500",
			"Listed 2 days ago in Columbus, OH",
			"45,000 miles",
			description,
		},
		sectionHTML: aboutFixture,
		images: []string{
			"https://cdn.example.com/thumb.jpg",
			"https://cdn.example.com/1.jpg",
			"https://cdn.example.com/2.jpg",
		},
	}

	var updates []models.Car
	ext := NewExtractor(sess, testConfig(t), utils.NewLogger(false))
	car, err := ext.Extract(context.Background(), "https://marketplace.test/item/1", func(partial models.Car) {
		updates = append(updates, partial)
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if car.Title != "2015 Honda Civic" {
		t.Errorf("title: got %q", car.Title)
	}
	if car.Price != "$12,500" {
		t.Errorf("price: got %q", car.Price)
	}
	if car.Location != "Columbus, OH" {
		t.Errorf("location: got %q", car.Location)
	}
	if car.TimePosted != "2 days ago" {
		t.Errorf("time posted: got %q", car.TimePosted)
	}
	if car.Mileage != "45,000 miles" {
		t.Errorf("mileage: got %q", car.Mileage)
	}
	if car.Description != description {
		t.Errorf("description: got %q", car.Description)
	}
	if car.About[models.AboutTransmission] != "Automatic transmission" {
		t.Errorf("about transmission: got %q", car.About[models.AboutTransmission])
	}
	if len(car.Images) != 2 {
		t.Errorf("images: got %d, want 2 (leading thumbnail dropped)", len(car.Images))
	}
	if car.Status != models.StatusNew {
		t.Errorf("status: got %q, want %q", car.Status, models.StatusNew)
	}

	if len(sess.clicked) != 1 || sess.clicked[0] != seeMoreText {
		t.Errorf("expected one %q click, got %v", seeMoreText, sess.clicked)
	}
	if len(updates) < 3 {
		t.Errorf("expected progressive updates, got %d", len(updates))
	}
	last := updates[len(updates)-1]
	if last.Price != "$12,500" || len(last.Images) != 2 {
		t.Errorf("last update should carry the full record, got %+v", last)
	}
}

func TestExtractDegradesMissingFieldsToSentinels(t *testing.T) {
	sess := &fakeSession{
		title:      "Marketplace - Mystery Item | Facebook",
		texts:      []string{"just one plain string"},
		sectionErr: browser.ErrNotFound,
		clickErr:   browser.ErrNotFound,
	}

	ext := NewExtractor(sess, testConfig(t), utils.NewLogger(false))
	car, err := ext.Extract(context.Background(), "https://marketplace.test/item/2", nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if car.Price != models.PriceNotFound {
		t.Errorf("price: got %q, want sentinel", car.Price)
	}
	if car.Location != models.LocationNotFound {
		t.Errorf("location: got %q, want sentinel", car.Location)
	}
	if car.TimePosted != models.TimeUnknown {
		t.Errorf("time posted: got %q, want %q", car.TimePosted, models.TimeUnknown)
	}
	if car.Mileage != "" {
		t.Errorf("mileage: got %q, want empty", car.Mileage)
	}
	if car.Description != "just one plain string" {
		t.Errorf("description: got %q", car.Description)
	}
	if len(car.About) != 0 {
		t.Errorf("about: got %v, want empty", car.About)
	}
}

func TestExtractFailsWhenTextPoolEmpty(t *testing.T) {
	sess := &fakeSession{
		title:    "Marketplace - Gone | Facebook",
		textsErr: browser.ErrTimeout,
	}

	ext := NewExtractor(sess, testConfig(t), utils.NewLogger(false))
	_, err := ext.Extract(context.Background(), "https://marketplace.test/item/3", nil)
	if !errors.Is(err, browser.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestExtractFailsOnNavigationTimeout(t *testing.T) {
	sess := &fakeSession{navErr: browser.ErrTimeout}

	ext := NewExtractor(sess, testConfig(t), utils.NewLogger(false))
	_, err := ext.Extract(context.Background(), "https://marketplace.test/item/4", nil)
	if !errors.Is(err, browser.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}
