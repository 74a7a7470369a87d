// Package store database for preferences, photo metadata, and schedule
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"
)

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{db: db}

	if err := database.createTable(); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	if err := database.seedPrefs(); err != nil {
		return nil, fmt.Errorf("failed to seed preferences: %w", err)
	}

	return database, nil
}

func (d *Database) createTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS preferences (
		key   TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (key)
	);
	CREATE TABLE IF NOT EXISTS photo_meta (
		source       TEXT NOT NULL,
		photo_id     TEXT NOT NULL,
		width        INTEGER NOT NULL,
		height       INTEGER NOT NULL,
		photographer TEXT NOT NULL DEFAULT '',
		lat          REAL,
		lon          REAL,
		PRIMARY KEY (source, photo_id)
	);
	CREATE TABLE IF NOT EXISTS schedule (
		singleton INTEGER NOT NULL DEFAULT 1 CHECK (singleton = 1),
		enabled INTEGER NOT NULL,
		start   TEXT NOT NULL,
		end     TEXT NOT NULL,
		PRIMARY KEY (singleton)
	);
	`
	_, err := d.db.Exec(query)
	return err
}

func (d *Database) seedPrefs() error {
	const stmt = `INSERT OR IGNORE INTO preferences (key, value) VALUES (?, ?)`
	for _, p := range Prefs {
		if _, err := d.db.Exec(stmt, p.Key, p.Default); err != nil {
			return fmt.Errorf("seed %s: %w", p.Key, err)
		}
	}
	return nil
}

func (d *Database) GetPref(key string) (string, error) {
	var value string
	err := d.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("preference %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get preference %s: %w", key, err)
	}
	return value, nil
}

// GetPrefs returns every stored preference
func (d *Database) GetPrefs() (map[string]string, error) {
	rows, err := d.db.Query(`SELECT key, value FROM preferences`)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return prefs, nil
}

func (d *Database) SetPref(key, value string) error {
	const stmt = `
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := d.db.Exec(stmt, key, value); err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}

// GetBool reads a boolean preference. Missing or unreadable values are false.
func (d *Database) GetBool(key string) bool {
	value, err := d.GetPref(key)
	if err != nil {
		slog.Warn("unable to read preference", "key", key, "error", err)
		return false
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("preference is not a bool", "key", key, "value", value)
		return false
	}
	return b
}

// GetInt reads an integer preference, returning def when missing or invalid
func (d *Database) GetInt(key string, def int) int {
	value, err := d.GetPref(key)
	if err != nil {
		return def
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("preference is not an int", "key", key, "value", value)
		return def
	}
	return i
}

func (d *Database) GetString(key string, def string) string {
	value, err := d.GetPref(key)
	if err != nil {
		return def
	}
	return value
}

func (d *Database) GetPhotoMeta(source, photoID string) (*PhotoMeta, error) {
	const query = `
		SELECT width, height, photographer, lat, lon
		FROM photo_meta
		WHERE source = ? AND photo_id = ?
	`
	m := &PhotoMeta{Source: source, PhotoID: photoID}
	var lat, lon sql.NullFloat64
	err := d.db.QueryRow(query, source, photoID).Scan(&m.Width, &m.Height, &m.Photographer, &lat, &lon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("photo meta %s/%s: %w", source, photoID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get photo meta: %w", err)
	}
	if lat.Valid && lon.Valid {
		m.Lat = &lat.Float64
		m.Lon = &lon.Float64
	}
	return m, nil
}

func (d *Database) UpsertPhotoMeta(m *PhotoMeta) error {
	const stmt = `
		INSERT INTO photo_meta (source, photo_id, width, height, photographer, lat, lon)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, photo_id) DO UPDATE SET
			width        = excluded.width,
			height       = excluded.height,
			photographer = excluded.photographer,
			lat          = excluded.lat,
			lon          = excluded.lon
	`
	var lat, lon sql.NullFloat64
	if m.Lat != nil && m.Lon != nil {
		lat = sql.NullFloat64{Float64: *m.Lat, Valid: true}
		lon = sql.NullFloat64{Float64: *m.Lon, Valid: true}
	}
	_, err := d.db.Exec(stmt, m.Source, m.PhotoID, m.Width, m.Height, m.Photographer, lat, lon)
	if err != nil {
		return fmt.Errorf("upsert photo meta: %w", err)
	}
	return nil
}

// PhotoMetaIDs lists the cached photo identifiers of a source
func (d *Database) PhotoMetaIDs(source string) ([]string, error) {
	rows, err := d.db.Query(`SELECT photo_id FROM photo_meta WHERE source = ?`, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query photo meta: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan photo meta: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return ids, nil
}

func (d *Database) DeletePhotoMeta(source, photoID string) error {
	_, err := d.db.Exec(`DELETE FROM photo_meta WHERE source = ? AND photo_id = ?`, source, photoID)
	if err != nil {
		return fmt.Errorf("failed to delete photo meta: %w", err)
	}
	return nil
}

func (d *Database) GetSchedule() (*Schedule, error) {
	const query = `
		SELECT enabled,
		       start,
		       end
		FROM schedule
		WHERE singleton = 1
	`

	var enabled bool
	var start, end string

	err := d.db.QueryRow(query).Scan(&enabled, &start, &end)
	if err == sql.ErrNoRows {
		// Bootstrap defaults if no schedule row exists yet
		defaults := &Schedule{
			Enabled: true,
			Start:   "06:00",
			End:     "23:00",
		}
		if err := d.UpsertSchedule(defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	return &Schedule{
		Enabled: enabled,
		Start:   start,
		End:     end,
	}, nil
}

func (d *Database) UpsertSchedule(s *Schedule) error {
	const stmt = `
		INSERT INTO schedule (
			singleton,
			enabled,
			start,
			end
		) VALUES (1, ?, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			enabled = excluded.enabled,
			start   = excluded.start,
			end     = excluded.end
	`

	_, err := d.db.Exec(
		stmt,
		boolToInt(s.Enabled),
		s.Start,
		s.End,
	)
	if err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (d *Database) Close() error {
	return d.db.Close()
}
