// ===============================
// internal/database/migrations.go - Catalog Schema
// ===============================

package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
)

// RunMigrations creates the catalog schema if absent. Every statement uses
// IF NOT EXISTS so concurrent process starts are safe; any failure is
// returned to the caller, which aborts startup.
func RunMigrations(db *sqlx.DB) error {
	log.Println("🔧 Running catalog migrations...")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			version VARCHAR(255) UNIQUE NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations := []Migration{
		{
			Version: "001_initial_catalog_schema",
			Query: `
				-- Dramas: catalog titles
				CREATE TABLE IF NOT EXISTS dramas (
					id TEXT PRIMARY KEY,
					title TEXT NOT NULL,
					description TEXT,
					thumbnail TEXT NOT NULL,
					lang TEXT DEFAULT 'uz',
					upload_date TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
				);

				-- Episodes: playable units, cascade-deleted with their drama
				CREATE TABLE IF NOT EXISTS episodes (
					id TEXT PRIMARY KEY,
					drama_id TEXT NOT NULL REFERENCES dramas(id) ON DELETE CASCADE,
					season TEXT,
					episode TEXT,
					video_id TEXT,
					upload_date TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
				);

				-- Likes: at most one per (drama, user)
				CREATE TABLE IF NOT EXISTS likes (
					drama_id TEXT NOT NULL REFERENCES dramas(id) ON DELETE CASCADE,
					user_id TEXT NOT NULL,
					PRIMARY KEY (drama_id, user_id)
				);

				-- Comments: newest-first display order
				CREATE TABLE IF NOT EXISTS comments (
					id TEXT PRIMARY KEY,
					drama_id TEXT NOT NULL REFERENCES dramas(id) ON DELETE CASCADE,
					user_name TEXT,
					text TEXT NOT NULL,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
				);
			`,
		},
		{
			Version: "002_catalog_indexes",
			Query: `
				CREATE INDEX IF NOT EXISTS idx_dramas_upload_date ON dramas(upload_date DESC NULLS LAST);
				CREATE INDEX IF NOT EXISTS idx_episodes_drama ON episodes(drama_id, season, episode);
				CREATE INDEX IF NOT EXISTS idx_comments_drama_created ON comments(drama_id, created_at DESC);
			`,
		},
	}

	for _, migration := range migrations {
		if err := applyMigration(db, migration); err != nil {
			return err
		}
	}

	log.Println("✅ Catalog migrations completed")
	return nil
}

// Migration is one versioned schema step.
type Migration struct {
	Version string
	Query   string
}

func applyMigration(db *sqlx.DB, migration Migration) error {
	var count int
	err := db.Get(&count, "SELECT COUNT(*) FROM migrations WHERE version = $1", migration.Version)
	if err != nil {
		return fmt.Errorf("failed to check migration %s: %w", migration.Version, err)
	}
	if count > 0 {
		return nil
	}

	if _, err := db.Exec(migration.Query); err != nil {
		return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
	}

	// Recording the version is best-effort idempotent under concurrent starts
	if _, err := db.Exec(
		"INSERT INTO migrations (version) VALUES ($1) ON CONFLICT (version) DO NOTHING",
		migration.Version); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
	}

	log.Printf("   • Applied migration %s", migration.Version)
	return nil
}
