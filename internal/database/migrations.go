package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "analysis history",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS analyses (
    id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    url TEXT,
    label TEXT NOT NULL CHECK(label IN ('credible', 'not-credible')),
    confidence REAL NOT NULL,
    keywords TEXT,
    topic TEXT NOT NULL,
    verification_url TEXT NOT NULL,
    analyzed_at TEXT DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_analyses_analyzed_at ON analyses(analyzed_at);
CREATE INDEX IF NOT EXISTS idx_analyses_label ON analyses(label);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "related articles per analysis",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS analysis_related (
    analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    title TEXT NOT NULL,
    url TEXT NOT NULL,
    PRIMARY KEY (analysis_id, position)
);
`)
			if err != nil {
				return err
			}
			// Column additions are not idempotent in SQLite; skip when already present.
			var n int
			if err := tx.QueryRow(
				`SELECT COUNT(*) FROM pragma_table_info('analyses') WHERE name = 'related_error'`,
			).Scan(&n); err != nil {
				return err
			}
			if n == 0 {
				_, err = tx.Exec(`ALTER TABLE analyses ADD COLUMN related_error TEXT`)
			}
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
