package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"car-tracker/models"
)

// WriteCSV streams the tracked cars as CSV, one row per car. The About map is
// flattened to key=value pairs and image URLs are joined so the export stays
// one row per listing.
func WriteCSV(w io.Writer, cars []*models.Car) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{
		"id", "title", "price", "location", "time_posted", "mileage",
		"status", "url", "about", "images", "created_at",
	}); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, c := range cars {
		row := []string{
			c.ID,
			c.Title,
			c.Price,
			c.Location,
			c.TimePosted,
			c.Mileage,
			c.Status,
			c.URL,
			flattenAbout(c.About),
			strings.Join(c.Images, " "),
			c.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func flattenAbout(about map[string]string) string {
	if len(about) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(about))
	for _, key := range []string{
		models.AboutMileage, models.AboutTransmission, models.AboutColor,
		models.AboutSafety, models.AboutFuelType, models.AboutMPG,
	} {
		if v, ok := about[key]; ok {
			pairs = append(pairs, key+"="+v)
		}
	}
	var details []string
	for key := range about {
		if strings.HasPrefix(key, "detail_") {
			details = append(details, key)
		}
	}
	sort.Strings(details)
	for _, key := range details {
		pairs = append(pairs, key+"="+about[key])
	}
	return strings.Join(pairs, "; ")
}
