package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"car-tracker/models"
	"car-tracker/utils"
)

// PostgresStore persists tracked cars to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use store.
func NewPostgresStore(dsn string, retry *utils.RetryConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(context.Background(), "postgres-ping", db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS cars (
			id          TEXT        PRIMARY KEY,
			title       TEXT        NOT NULL DEFAULT '',
			price       TEXT        NOT NULL DEFAULT '',
			location    TEXT        NOT NULL DEFAULT '',
			time_posted TEXT        NOT NULL DEFAULT '',
			mileage     TEXT        NOT NULL DEFAULT '',
			description TEXT        NOT NULL DEFAULT '',
			about       JSONB       NOT NULL DEFAULT '{}',
			images      JSONB       NOT NULL DEFAULT '[]',
			url         TEXT        UNIQUE NOT NULL,
			status      TEXT        NOT NULL DEFAULT 'new',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_cars_status     ON cars(status);
		CREATE INDEX IF NOT EXISTS idx_cars_created_at ON cars(created_at);
	`)
	return err
}

// Insert persists a new car, assigning an id and timestamps when missing.
func (ps *PostgresStore) Insert(car *models.Car) error {
	if car.ID == "" {
		car.ID = uuid.NewString()
	}
	if car.Status == "" {
		car.Status = models.StatusNew
	}
	now := time.Now()
	if car.CreatedAt.IsZero() {
		car.CreatedAt = now
	}
	car.UpdatedAt = now

	about, err := json.Marshal(car.About)
	if err != nil {
		return fmt.Errorf("postgres: marshal about: %w", err)
	}
	if car.About == nil {
		about = []byte("{}")
	}
	images, err := json.Marshal(car.Images)
	if err != nil {
		return fmt.Errorf("postgres: marshal images: %w", err)
	}
	if car.Images == nil {
		images = []byte("[]")
	}

	res, err := ps.db.Exec(`
		INSERT INTO cars (id, title, price, location, time_posted, mileage,
		                  description, about, images, url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (url) DO NOTHING
	`, car.ID, car.Title, car.Price, car.Location, car.TimePosted, car.Mileage,
		car.Description, about, images, car.URL, car.Status, car.CreatedAt, car.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: insert rows affected: %w", err)
	}
	if affected == 0 {
		return ErrDuplicateURL
	}
	return nil
}

// FindByURL returns the car tracked under url, or nil when none exists.
func (ps *PostgresStore) FindByURL(url string) (*models.Car, error) {
	row := ps.db.QueryRow(selectCars+` WHERE url = $1`, url)

	car, err := scanCar(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find by url: %w", err)
	}
	return car, nil
}

// UpdateStatus changes the lifecycle label of a tracked car.
func (ps *PostgresStore) UpdateStatus(id, status string) error {
	res, err := ps.db.Exec(`
		UPDATE cars SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("postgres: update status: %w", err)
	}
	return checkAffected(res)
}

// Delete removes a tracked car.
func (ps *PostgresStore) Delete(id string) error {
	res, err := ps.db.Exec(`DELETE FROM cars WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete: %w", err)
	}
	return checkAffected(res)
}

// ListAll returns every tracked car, newest first.
func (ps *PostgresStore) ListAll() ([]*models.Car, error) {
	rows, err := ps.db.Query(selectCars + ` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list: %w", err)
	}
	defer rows.Close()

	var cars []*models.Car
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		cars = append(cars, car)
	}
	return cars, rows.Err()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

const selectCars = `
	SELECT id, title, price, location, time_posted, mileage, description,
	       about, images, url, status, created_at, updated_at
	FROM cars`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCar(row rowScanner) (*models.Car, error) {
	car := &models.Car{}
	var about, images []byte

	if err := row.Scan(
		&car.ID, &car.Title, &car.Price, &car.Location, &car.TimePosted,
		&car.Mileage, &car.Description, &about, &images, &car.URL,
		&car.Status, &car.CreatedAt, &car.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(about, &car.About); err != nil {
		return nil, fmt.Errorf("unmarshal about: %w", err)
	}
	if err := json.Unmarshal(images, &car.Images); err != nil {
		return nil, fmt.Errorf("unmarshal images: %w", err)
	}
	return car, nil
}

func checkAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
