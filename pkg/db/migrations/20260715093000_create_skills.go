package migrations

import (
	"database/sql"

	"github.com/kieranklaassen/agentskills/pkg/db"
	"github.com/pkg/errors"
)

// Migration20260715093000CreateSkills creates the skills table. A row holds
// either an inline instruction body (content) or a zip archive of skills
// (data); both may be NULL for metadata-only rows.
func Migration20260715093000CreateSkills() db.Migration {
	return db.Migration{
		Version:     20260715093000,
		Description: "Create skills table",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS skills (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					description TEXT NOT NULL,
					license TEXT,
					compatibility TEXT,
					content TEXT,
					data BLOB,
					metadata TEXT,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)
			`); err != nil {
				return errors.Wrap(err, "failed to create skills table")
			}
			return nil
		},
		Down: func(tx *sql.Tx) error {
			if _, err := tx.Exec("DROP TABLE IF EXISTS skills"); err != nil {
				return errors.Wrap(err, "failed to drop skills table")
			}
			return nil
		},
	}
}
