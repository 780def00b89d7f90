package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"tidbyt.dev/nearby/model"
)

type SQLiteConfig struct {
	OnDisk    bool
	Directory string
}

type SQLiteStorage struct {
	SQLiteConfig

	db *sql.DB
}

func NewSQLiteStorage(cfg ...SQLiteConfig) (*SQLiteStorage, error) {
	onDisk := false
	directory := ""
	if len(cfg) > 0 {
		onDisk = cfg[0].OnDisk
		directory = cfg[0].Directory
	}

	sourceName := ":memory:"
	if onDisk {
		sourceName = directory + "/nearby.db"
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER NOT NULL CHECK (id = 1),
    address TEXT NOT NULL,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    max_walk_minutes INTEGER NOT NULL,
    max_departures_per_station INTEGER NOT NULL,
    min_minutes INTEGER NOT NULL,
    max_minutes INTEGER NOT NULL,
    show_platform BOOLEAN NOT NULL,
    language TEXT NOT NULL,
PRIMARY KEY (id)
);

CREATE TABLE IF NOT EXISTS selected_station (
    station_id TEXT NOT NULL,
    position INTEGER NOT NULL,
PRIMARY KEY (station_id)
);`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating settings table: %w", err)
	}

	return &SQLiteStorage{
		SQLiteConfig: SQLiteConfig{
			OnDisk:    onDisk,
			Directory: directory,
		},
		db: db,
	}, nil
}

func (s *SQLiteStorage) LoadSettings() (*model.Settings, error) {
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
		&settings.Language,
	)
	if err == sql.ErrNoRows {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	rows, err := s.db.Query(`SELECT station_id FROM selected_station ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("listing selected stations: %w", err)
	}
	defer rows.Close()

	settings.SelectedStations = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning selected station: %w", err)
		}
		settings.SelectedStations = append(settings.SelectedStations, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing selected stations: %w", err)
	}

	return withDefaults(settings), nil
}

func (s *SQLiteStorage) WriteSettings(settings *model.Settings) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
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
    language
) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    address = excluded.address,
    latitude = excluded.latitude,
    longitude = excluded.longitude,
    max_walk_minutes = excluded.max_walk_minutes,
    max_departures_per_station = excluded.max_departures_per_station,
    min_minutes = excluded.min_minutes,
    max_minutes = excluded.max_minutes,
    show_platform = excluded.show_platform,
    language = excluded.language`,
		settings.Address,
		settings.Latitude,
		settings.Longitude,
		settings.MaxWalkMinutes,
		settings.MaxDeparturesPerStation,
		settings.MinMinutes,
		settings.MaxMinutes,
		settings.ShowPlatform,
		settings.Language,
	)
	if err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}

	_, err = tx.Exec(`DELETE FROM selected_station`)
	if err != nil {
		return fmt.Errorf("clearing selected stations: %w", err)
	}

	seen := map[string]bool{}
	for i, id := range settings.SelectedStations {
		if seen[id] {
			continue
		}
		seen[id] = true
		_, err = tx.Exec(`INSERT INTO selected_station (station_id, position) VALUES (?, ?)`, id, i)
		if err != nil {
			return fmt.Errorf("writing selected station %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
