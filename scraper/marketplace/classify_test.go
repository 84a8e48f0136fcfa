package marketplace

import (
	"strings"
	"testing"

	"car-tracker/models"
)

func TestClassifyPriceFirstMatch(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		want  string
	}{
		{"dollar", []string{"2015 Honda Civic", "$12,500", "$9,000"}, "$12,500"},
		{"euro", []string{"€8.900", "more text"}, "€8.900"},
		{"no currency", []string{"2015 Honda Civic", "Columbus, OH"}, models.PriceNotFound},
		{"empty pool", nil, models.PriceNotFound},
		{"currency mid-string ignored", []string{"was $15,000 new", "$12,500"}, "$12,500"},
	}

	for _, tt := range tests {
		got := classifyPrice(tt.texts)
		if got != tt.want {
			t.Errorf("%s: classifyPrice = %q; want %q", tt.name, got, tt.want)
		}
	}
}

func TestClassifyListedLine(t *testing.T) {
	texts := []string{
		"$12,500",
		"Listed 2 days ago in Columbus, OH",
		"45,000 miles",
	}

	age, location := classifyListed(texts, "OH")
	if age != "2 days ago" {
		t.Errorf("age: got %q, want %q", age, "2 days ago")
	}
	if location != "Columbus, OH" {
		t.Errorf("location: got %q, want %q", location, "Columbus, OH")
	}
}

func TestClassifyListedFallbackRegion(t *testing.T) {
	texts := []string{"$12,500", "Dayton, OH", "some description"}

	age, location := classifyListed(texts, "OH")
	if age != models.TimeUnknown {
		t.Errorf("age: got %q, want %q", age, models.TimeUnknown)
	}
	if location != "Dayton, OH" {
		t.Errorf("location: got %q, want %q", location, "Dayton, OH")
	}
}

func TestClassifyListedRegionIsConfigurable(t *testing.T) {
	texts := []string{"Sacramento, CA"}

	_, location := classifyListed(texts, "CA")
	if location != "Sacramento, CA" {
		t.Errorf("location: got %q, want %q", location, "Sacramento, CA")
	}

	_, location = classifyListed(texts, "OH")
	if location != models.LocationNotFound {
		t.Errorf("location with wrong region: got %q, want sentinel", location)
	}
}

func TestClassifyMileageCaseInsensitive(t *testing.T) {
	tests := []struct {
		texts []string
		want  string
	}{
		{[]string{"45,000 miles"}, "45,000 miles"},
		{[]string{"Driven 45,000 Miles"}, "Driven 45,000 Miles"},
		{[]string{"no odometer info"}, ""},
	}

	for _, tt := range tests {
		got := classifyMileage(tt.texts)
		if got != tt.want {
			t.Errorf("classifyMileage(%v) = %q; want %q", tt.texts, got, tt.want)
		}
	}
}

func TestClassifyDescriptionLongestWinsFirstOnTie(t *testing.T) {
	texts := []string{"short", "aaaa", "bbbb", "the longest string here"}

	got := classifyDescription(texts)
	if got != "the longest string here" {
		t.Errorf("got %q, want longest string", got)
	}

	tied := []string{"aaaa", "bbbb"}
	if got := classifyDescription(tied); got != "aaaa" {
		t.Errorf("tie: got %q, want first occurrence %q", got, "aaaa")
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	texts := []string{"$12,500", "Listed 2 days ago in Columbus, OH", "45,000 miles", "desc"}

	first := Classify(texts, "OH")
	for i := 0; i < 5; i++ {
		if Classify(texts, "OH") != first {
			t.Fatal("Classify must be deterministic over a fixed text pool")
		}
	}
}

func TestClassifyFullListing(t *testing.T) {
	description := strings.Repeat("Well maintained, one owner. ", 11) // ~300 chars

	texts := []string{
		"2015 Honda Civic",
		"$12,500",
		"Listed 2 days ago in Columbus, OH",
		"45,000 miles",
		description,
	}

	cls := Classify(texts, "OH")
	if cls.Price != "$12,500" {
		t.Errorf("price: got %q", cls.Price)
	}
	if cls.TimePosted != "2 days ago" {
		t.Errorf("time posted: got %q", cls.TimePosted)
	}
	if cls.Location != "Columbus, OH" {
		t.Errorf("location: got %q", cls.Location)
	}
	if cls.Mileage != "45,000 miles" {
		t.Errorf("mileage: got %q", cls.Mileage)
	}
	if cls.Description != description {
		t.Errorf("description: got %q", cls.Description)
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Marketplace - 2015 Honda Civic | Facebook", "2015 Honda Civic"},
		{"Marketplace - 2015 Honda Civic", "2015 Honda Civic"},
		{"2015 Honda Civic", "2015 Honda Civic"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := cleanTitle(tt.in); got != tt.want {
			t.Errorf("cleanTitle(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
