package services

import (
	"regexp"
	"strconv"
	"strings"

	"car-tracker/models"
	"car-tracker/utils"
)

// priceRegexp captures the numeric part of a stored price ("$12,500").
var priceRegexp = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)

// InsightService computes summary analytics over the tracked cars.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate builds the report. Sentinel prices and locations stay out of the
// numeric stats and groupings.
func (s *InsightService) Generate(cars []*models.Car) *models.InsightReport {
	report := &models.InsightReport{
		ByStatus:   make(map[string]int),
		ByLocation: make(map[string]int),
	}

	if len(cars) == 0 {
		return report
	}

	report.TotalCars = len(cars)

	var priced []*models.Car
	for _, c := range cars {
		if c.Status != "" {
			report.ByStatus[c.Status]++
		}
		if c.Location != "" && c.Location != models.LocationNotFound {
			report.ByLocation[c.Location]++
		}
		if len(c.Images) > 0 {
			report.WithImages++
		}
		if parsePrice(c.Price) > 0 {
			priced = append(priced, c)
		}
	}

	if len(priced) > 0 {
		report.MinPrice = parsePrice(priced[0].Price)
		report.MaxPrice = parsePrice(priced[0].Price)
		var total float64
		for _, c := range priced {
			price := parsePrice(c.Price)
			total += price
			if price < report.MinPrice {
				report.MinPrice = price
			}
			if price >= report.MaxPrice {
				report.MaxPrice = price
				report.MostExpensive = c
			}
		}
		report.AveragePrice = round2(total / float64(len(priced)))
	}

	return report
}

// parsePrice extracts the numeric value from a price string like "$12,500".
// Sentinels and unparseable strings yield 0.
func parsePrice(raw string) float64 {
	cleaned := strings.ReplaceAll(raw, ",", "")
	match := priceRegexp.FindString(cleaned)
	if match == "" {
		return 0
	}
	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return val
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
