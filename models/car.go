package models

import "time"

// Sentinel values used when a field cannot be determined from the page.
const (
	PriceNotFound    = "Price not found"
	LocationNotFound = "Location not found"
	TimeUnknown      = "unknown"
)

// StatusNew is the status assigned to freshly extracted cars. The status set
// is open — callers may write their own lifecycle labels (contacted, viewed,
// rejected, ...).
const StatusNew = "new"

// Fixed keys for the "About this vehicle" attribute table. Rows that match
// none of these are kept under synthetic detail_N keys.
const (
	AboutMileage      = "mileage"
	AboutTransmission = "transmission"
	AboutColor        = "color"
	AboutSafety       = "safety"
	AboutFuelType     = "fuel_type"
	AboutMPG          = "mpg"
)

// Car is one tracked marketplace listing.
type Car struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Price       string            `json:"price"`
	Location    string            `json:"location"`
	TimePosted  string            `json:"time_posted"`
	Mileage     string            `json:"mileage,omitempty"`
	Description string            `json:"description"`
	About       map[string]string `json:"about,omitempty"`
	Images      []string          `json:"images,omitempty"`
	URL         string            `json:"url"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Clone returns a deep copy so concurrent readers never share the About map
// or Images slice with the extraction worker.
func (c *Car) Clone() *Car {
	if c == nil {
		return nil
	}
	dup := *c
	if c.About != nil {
		dup.About = make(map[string]string, len(c.About))
		for k, v := range c.About {
			dup.About[k] = v
		}
	}
	if c.Images != nil {
		dup.Images = append([]string(nil), c.Images...)
	}
	return &dup
}

// InsightReport holds the computed analytics over the tracked cars.
type InsightReport struct {
	TotalCars     int            `json:"total_cars"`
	ByStatus      map[string]int `json:"by_status"`
	ByLocation    map[string]int `json:"by_location"`
	AveragePrice  float64        `json:"average_price"`
	MinPrice      float64        `json:"min_price"`
	MaxPrice      float64        `json:"max_price"`
	MostExpensive *Car           `json:"most_expensive,omitempty"`
	WithImages    int            `json:"with_images"`
}
