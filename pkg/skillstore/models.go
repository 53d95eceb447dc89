package skillstore

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// JSONField is a generic type for handling JSON marshaling/unmarshaling in database
type JSONField[T any] struct {
	Data T
}

// Scan implements the sql.Scanner interface for reading from database
func (j *JSONField[T]) Scan(value any) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.Errorf("cannot scan %T into JSONField", value)
		}
		bytes = []byte(str)
	}

	return json.Unmarshal(bytes, &j.Data)
}

// Value implements the driver.Valuer interface for writing to database
func (j JSONField[T]) Value() (driver.Value, error) {
	return json.Marshal(j.Data)
}

// dbSkillRecord represents the skills table structure
type dbSkillRecord struct {
	ID            string                    `db:"id"`
	Name          string                    `db:"name"`
	Description   string                    `db:"description"`
	License       *string                   `db:"license"` // NULL in database
	Compatibility *string                   `db:"compatibility"`
	Content       *string                   `db:"content"`
	Data          []byte                    `db:"data"`
	Metadata      JSONField[map[string]any] `db:"metadata"`
	CreatedAt     time.Time                 `db:"created_at"`
	UpdatedAt     time.Time                 `db:"updated_at"`
}

func fromSkillRecord(rec SkillRecord) dbSkillRecord {
	return dbSkillRecord{
		ID:            rec.ID,
		Name:          rec.Name,
		Description:   rec.Description,
		License:       nullable(rec.License),
		Compatibility: nullable(rec.Compatibility),
		Content:       nullable(rec.Content),
		Data:          rec.Data,
		Metadata:      JSONField[map[string]any]{Data: rec.Metadata},
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}

func (dbr dbSkillRecord) toSkillRecord() SkillRecord {
	return SkillRecord{
		ID:            dbr.ID,
		Name:          dbr.Name,
		Description:   dbr.Description,
		License:       fromNullable(dbr.License),
		Compatibility: fromNullable(dbr.Compatibility),
		Content:       fromNullable(dbr.Content),
		Data:          dbr.Data,
		Metadata:      dbr.Metadata.Data,
		CreatedAt:     dbr.CreatedAt,
		UpdatedAt:     dbr.UpdatedAt,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fromNullable(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
