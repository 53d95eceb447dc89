package migrations

import (
	"database/sql"

	"github.com/kieranklaassen/agentskills/pkg/db"
	"github.com/pkg/errors"
)

// Migration20260802141500AddSkillsNameIndex indexes skills by name for the
// lookup queries used by the store.
func Migration20260802141500AddSkillsNameIndex() db.Migration {
	return db.Migration{
		Version:     20260802141500,
		Description: "Add index on skills.name",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_skills_name ON skills(name)
			`); err != nil {
				return errors.Wrap(err, "failed to create skills name index")
			}
			return nil
		},
		Down: func(tx *sql.Tx) error {
			if _, err := tx.Exec("DROP INDEX IF EXISTS idx_skills_name"); err != nil {
				return errors.Wrap(err, "failed to drop skills name index")
			}
			return nil
		},
	}
}
