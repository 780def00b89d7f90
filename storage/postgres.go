package storage

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"tidbyt.dev/nearby/model"
)

type PSQLStorage struct {
	db *sql.DB
}

// Creates a new Postgres Storage using the provided connection string.
//
// If clearDB is true, the database will be cleared on startup. You
// probably only want this for testing.
func NewPSQLStorage(connStr string, clearDB bool) (*PSQLStorage, error) {

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if clearDB {
		_, err = db.Exec(`DROP TABLE IF EXISTS settings;`)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("clearing db: %w", err)
		}
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER NOT NULL CHECK (id = 1),
    address TEXT NOT NULL,
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    max_walk_minutes INTEGER NOT NULL,
    max_departures_per_station INTEGER NOT NULL,
    min_minutes INTEGER NOT NULL,
    max_minutes INTEGER NOT NULL,
    show_platform BOOLEAN NOT NULL,
    selected_stations TEXT[] NOT NULL,
    language TEXT NOT NULL,
    PRIMARY KEY (id)
);`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating settings table: %w", err)
	}

	return &PSQLStorage{db: db}, nil
}

func (s *PSQLStorage) LoadSettings() (*model.Settings, error) {
	settings := &model.Settings{}
	err := s.db.QueryRow(`
SELECT
    address,
    latitude,
    longitude,
    max_walk_minutes,
    max_departures_per_station,
    min_minutes,
    max_minutes,
    show_platform,
    selected_stations,
    language
FROM settings
WHERE id = 1`).Scan(
		&settings.Address,
		&settings.Latitude,
		&settings.Longitude,
		&settings.MaxWalkMinutes,
		&settings.MaxDeparturesPerStation,
		&settings.MinMinutes,
		&settings.MaxMinutes,
		&settings.ShowPlatform,
		pq.Array(&settings.SelectedStations),
		&settings.Language,
	)
	if err == sql.ErrNoRows {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	return withDefaults(settings), nil
}

func (s *PSQLStorage) WriteSettings(settings *model.Settings) error {
	selected := settings.SelectedStations
	if selected == nil {
		selected = []string{}
	}

	_, err := s.db.Exec(`
INSERT INTO settings (
    id,
    address,
    latitude,
    longitude,
    max_walk_minutes,
    max_departures_per_station,
    min_minutes,
    max_minutes,
    show_platform,
    selected_stations,
    language
) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
    address = EXCLUDED.address,
    latitude = EXCLUDED.latitude,
    longitude = EXCLUDED.longitude,
    max_walk_minutes = EXCLUDED.max_walk_minutes,
    max_departures_per_station = EXCLUDED.max_departures_per_station,
    min_minutes = EXCLUDED.min_minutes,
    max_minutes = EXCLUDED.max_minutes,
    show_platform = EXCLUDED.show_platform,
    selected_stations = EXCLUDED.selected_stations,
    language = EXCLUDED.language`,
		settings.Address,
		settings.Latitude,
		settings.Longitude,
		settings.MaxWalkMinutes,
		settings.MaxDeparturesPerStation,
		settings.MinMinutes,
		settings.MaxMinutes,
		settings.ShowPlatform,
		pq.Array(selected),
		settings.Language,
	)
	if err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}

	return nil
}

func (s *PSQLStorage) Close() error {
	return s.db.Close()
}
