// Package migrations contains all database migrations for the skill store.
// Migrations use Rails-style timestamp versioning (YYYYMMDDHHmmss).
package migrations

import (
	"github.com/kieranklaassen/agentskills/pkg/db"
)

// All returns all registered migrations in the correct order.
// New migrations should be added to this list.
func All() []db.Migration {
	return []db.Migration{
		Migration20260715093000CreateSkills(),
		Migration20260802141500AddSkillsNameIndex(),
	}
}
