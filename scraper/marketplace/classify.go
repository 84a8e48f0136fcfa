package marketplace

import (
	"regexp"
	"strings"

	"car-tracker/models"
)

// The listing page exposes no semantic markup — price, location, age, mileage
// and description all arrive as one flat pool of text nodes under the primary
// content selector. Each classifier below scans the ordered pool
// independently; conflicts (a long string that is also the price) resolve by
// each field taking its own first match.

var currencyMarkers = []string{"$", "€", "£", "฿"}

// listedRe matches the "Listed 2 days ago in Columbus, OH" line.
var listedRe = regexp.MustCompile(`^Listed\s+(.+?)\s+in\s+(.+)$`)

// Classified holds the fields derived from one listing's text pool.
type Classified struct {
	Price       string
	TimePosted  string
	Location    string
	Mileage     string
	Description string
}

// Classify runs every field classifier over the ordered text pool. The region
// code backs the location fallback when no "Listed … in …" line exists.
func Classify(texts []string, region string) Classified {
	age, location := classifyListed(texts, region)
	return Classified{
		Price:       classifyPrice(texts),
		TimePosted:  age,
		Location:    location,
		Mileage:     classifyMileage(texts),
		Description: classifyDescription(texts),
	}
}

// classifyPrice returns the first string starting with a currency marker.
func classifyPrice(texts []string) string {
	for _, text := range texts {
		for _, marker := range currencyMarkers {
			if strings.HasPrefix(text, marker) {
				return text
			}
		}
	}
	return models.PriceNotFound
}

// classifyListed parses posting age and location from the "Listed … in …"
// line. Without one, the first string carrying a trailing region code becomes
// the location and the age degrades to unknown.
func classifyListed(texts []string, region string) (age, location string) {
	for _, text := range texts {
		if m := listedRe.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		}
	}

	regionRe := regexp.MustCompile(`,\s*` + regexp.QuoteMeta(region) + `$`)
	for _, text := range texts {
		if regionRe.MatchString(text) {
			return models.TimeUnknown, text
		}
	}
	return models.TimeUnknown, models.LocationNotFound
}

// classifyMileage returns the first string mentioning miles.
func classifyMileage(texts []string) string {
	for _, text := range texts {
		if strings.Contains(strings.ToLower(text), "miles") {
			return text
		}
	}
	return ""
}

// classifyDescription returns the longest string; ties keep the earliest.
func classifyDescription(texts []string) string {
	longest := ""
	for _, text := range texts {
		if len(text) > len(longest) {
			longest = text
		}
	}
	return longest
}

// cleanTitle strips the boilerplate the site wraps around the listing name.
func cleanTitle(title string) string {
	title = strings.TrimPrefix(title, "Marketplace - ")
	title = strings.TrimSuffix(title, " | Facebook")
	return strings.TrimSpace(title)
}
