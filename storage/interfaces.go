package storage

import (
	"errors"

	"car-tracker/models"
)

var (
	// ErrDuplicateURL signals an insert for a URL that is already tracked.
	ErrDuplicateURL = errors.New("storage: url already tracked")
	// ErrNotFound signals an update or delete for an unknown car id.
	ErrNotFound = errors.New("storage: car not found")
)

// CarStore is the interface any persistence backend must satisfy.
type CarStore interface {
	// Insert persists a new car. A duplicate source URL is rejected with
	// ErrDuplicateURL, never merged.
	Insert(car *models.Car) error

	// FindByURL returns the car tracked under url, or nil when none exists.
	FindByURL(url string) (*models.Car, error)

	UpdateStatus(id, status string) error
	Delete(id string) error

	// ListAll returns every tracked car, newest first.
	ListAll() ([]*models.Car, error)

	Close() error
}
