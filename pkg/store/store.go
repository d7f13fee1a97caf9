// Package store persists per-guild playback preferences in SQLite.
package store

import (
	"database/sql"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
)

// Store holds per-guild settings that survive restarts. Queue contents are
// deliberately not persisted.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the settings database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	schema := `
	CREATE TABLE IF NOT EXISTS guild_settings (
		guild_id       TEXT PRIMARY KEY,
		volume_percent INTEGER NOT NULL DEFAULT 50,
		updated_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize database")
	}
	return &Store{db: db}, nil
}

// VolumePercent returns the guild's saved volume and whether one exists.
func (s *Store) VolumePercent(guildID string) (int, bool, error) {
	var v int
	err := s.db.QueryRow(
		"SELECT volume_percent FROM guild_settings WHERE guild_id = ?", guildID).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to query guild settings")
	}
	return v, true, nil
}

// SetVolumePercent saves the guild's volume preference.
func (s *Store) SetVolumePercent(guildID string, percent int) error {
	_, err := s.db.Exec(`
		INSERT INTO guild_settings (guild_id, volume_percent, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(guild_id) DO UPDATE SET
			volume_percent = excluded.volume_percent,
			updated_at = CURRENT_TIMESTAMP`,
		guildID, percent)
	return errors.Wrap(err, "failed to save guild settings")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
