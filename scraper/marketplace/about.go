package marketplace

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"car-tracker/models"
)

// aboutMatchers classify a details row by substring against its lower-cased
// text. Order matters: "35 MPG combined" must not land on mileage.
var aboutMatchers = []struct {
	key    string
	substr string
}{
	{models.AboutMPG, "mpg"},
	{models.AboutFuelType, "fuel type"},
	{models.AboutSafety, "safety"},
	{models.AboutTransmission, "transmission"},
	{models.AboutColor, "color"},
	{models.AboutMileage, "mile"},
}

// ParseAbout extracts the attribute rows of the details section. The section
// HTML comes from the live page, so rows are plain text spans with no labels;
// unmatched rows are kept under detail_N keys so nothing is dropped silently.
func ParseAbout(sectionHTML, heading string) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sectionHTML))
	if err != nil {
		return nil, fmt.Errorf("parse details section: %w", err)
	}

	about := make(map[string]string)
	seen := make(map[string]struct{})
	overflow := 0

	doc.Find(`span[dir="auto"]`).Each(func(_ int, sel *goquery.Selection) {
		// Leaf spans only — nested wrappers repeat their children's text.
		if sel.Find(`span[dir="auto"]`).Length() > 0 {
			return
		}

		text := strings.TrimSpace(sel.Text())
		if text == "" || text == heading {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}

		key := classifyAboutRow(text)
		if _, taken := about[key]; key == "" || taken {
			overflow++
			key = fmt.Sprintf("detail_%d", overflow)
		}
		about[key] = text
	})

	return about, nil
}

func classifyAboutRow(text string) string {
	lower := strings.ToLower(text)
	for _, m := range aboutMatchers {
		if strings.Contains(lower, m.substr) {
			return m.key
		}
	}
	return ""
}
