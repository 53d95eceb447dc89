// Package skillstore persists skills in SQLite and serves them back as
// database loader records. Rows hold either an inline instruction body or
// a zip archive of skills.
package skillstore

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kieranklaassen/agentskills/pkg/db"
	"github.com/kieranklaassen/agentskills/pkg/db/migrations"
	"github.com/kieranklaassen/agentskills/pkg/skills"
	"github.com/kieranklaassen/agentskills/pkg/telemetry"
)

// SkillRecord is a stored skill row. Content and Data are mutually
// exclusive in practice; when both are set, Data wins and the row is
// served as an archive.
type SkillRecord struct {
	ID            string
	Name          string
	Description   string
	License       string
	Compatibility string
	Content       string
	Data          []byte
	Metadata      map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SkillName implements skills.Record.
func (r SkillRecord) SkillName() string { return r.Name }

// SkillDescription implements skills.Record.
func (r SkillRecord) SkillDescription() string { return r.Description }

// SkillID implements skills.IdentifiedRecord.
func (r SkillRecord) SkillID() any { return r.ID }

// SkillLicense implements skills.LicensedRecord.
func (r SkillRecord) SkillLicense() string { return r.License }

// SkillCompatibility implements skills.CompatibleRecord.
func (r SkillRecord) SkillCompatibility() string { return r.Compatibility }

// SkillMetadata implements skills.AnnotatedRecord.
func (r SkillRecord) SkillMetadata() map[string]any { return r.Metadata }

// contentRecord serves a row's inline body through skills.ContentRecord.
type contentRecord struct {
	SkillRecord
}

func (r contentRecord) SkillContent() string { return r.Content }

// dataRecord serves a row's archive blob through skills.DataRecord.
type dataRecord struct {
	SkillRecord
}

func (r dataRecord) SkillData() []byte { return r.Data }

// Store is a SQLite-backed skill store.
type Store struct {
	dbPath string
	db     *sqlx.DB
}

// Open opens or creates the skill database at dbPath and applies pending
// migrations.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	sqlDB, err := db.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	runner := db.NewMigrationRunner(sqlDB)
	if err := runner.Run(ctx, migrations.All()); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "failed to run migrations")
	}

	return &Store{dbPath: dbPath, db: sqlDB}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path this store was opened with.
func (s *Store) Path() string {
	return s.dbPath
}

// Put inserts or updates a record by ID. Records without an ID get a
// generated one, written back to rec. created_at is preserved on update.
func (s *Store) Put(ctx context.Context, rec *SkillRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	query := `
		INSERT INTO skills (
			id, name, description, license, compatibility,
			content, data, metadata, created_at, updated_at
		) VALUES (
			:id, :name, :description, :license, :compatibility,
			:content, :data, :metadata, :created_at, :updated_at
		)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			license = excluded.license,
			compatibility = excluded.compatibility,
			content = excluded.content,
			data = excluded.data,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`
	_, err := s.db.NamedExecContext(ctx, query, fromSkillRecord(*rec))
	return errors.Wrap(err, "failed to save skill record")
}

// Get retrieves a record by ID.
func (s *Store) Get(ctx context.Context, id string) (*SkillRecord, error) {
	var dbRecord dbSkillRecord

	query := `SELECT id, name, description, license, compatibility,
		content, data, metadata, created_at, updated_at
		FROM skills WHERE id = ?`
	err := s.db.GetContext(ctx, &dbRecord, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Errorf("skill record not found: %s", id)
		}
		return nil, errors.Wrap(err, "failed to load skill record")
	}

	rec := dbRecord.toSkillRecord()
	return &rec, nil
}

// Delete removes a record by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM skills WHERE id = ?", id)
	return errors.Wrap(err, "failed to delete skill record")
}

// List returns all records ordered by name.
func (s *Store) List(ctx context.Context) ([]SkillRecord, error) {
	var dbRecords []dbSkillRecord

	query := `SELECT id, name, description, license, compatibility,
		content, data, metadata, created_at, updated_at
		FROM skills ORDER BY name, id`
	if err := s.db.SelectContext(ctx, &dbRecords, query); err != nil {
		return nil, errors.Wrap(err, "failed to list skill records")
	}

	records := make([]SkillRecord, 0, len(dbRecords))
	for _, dbr := range dbRecords {
		records = append(records, dbr.toSkillRecord())
	}
	return records, nil
}

// Records implements skills.RecordSource. Rows carrying an archive blob
// come back as data records, everything else as content records.
func (s *Store) Records(ctx context.Context) ([]skills.Record, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]skills.Record, 0, len(list))
	for _, rec := range list {
		if len(rec.Data) > 0 {
			records = append(records, dataRecord{rec})
		} else {
			records = append(records, contentRecord{rec})
		}
	}
	return records, nil
}

// ImportZip stores each skill found in an archive as its own data record.
// Every row's blob is a standalone archive holding just that skill, so a
// single record round-trips through the database loader on its own. The
// archive must contain at least one top-level skill entry.
func (s *Store) ImportZip(ctx context.Context, archivePath string) ([]SkillRecord, error) {
	var imported []SkillRecord
	err := telemetry.WithSpan(ctx, "skillstore.import_zip", func(ctx context.Context) error {
		var err error
		imported, err = s.importZip(ctx, archivePath)
		telemetry.SetAttributes(ctx, attribute.Int("skills.imported", len(imported)))
		return err
	}, attribute.String("archive", archivePath))
	if err != nil {
		return nil, err
	}
	return imported, nil
}

func (s *Store) importZip(ctx context.Context, archivePath string) ([]SkillRecord, error) {
	data, err := os.ReadFile(archivePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read archive %s", archivePath)
	}

	base := filepath.Base(archivePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	src := skills.NewZipLoaderFromBytes(name, data)
	contained, err := src.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(contained) == 0 {
		return nil, errors.Errorf("no skills found in archive %s", archivePath)
	}

	imported := make([]SkillRecord, 0, len(contained))
	for _, sk := range contained {
		blob, err := packSingleSkill(src, sk)
		if err != nil {
			return nil, err
		}

		rec := SkillRecord{
			Name:          sk.Name,
			Description:   sk.Description,
			License:       sk.License,
			Compatibility: sk.Compatibility,
			Metadata:      annotationsOnly(sk.Metadata),
			Data:          blob,
		}
		if err := s.Put(ctx, &rec); err != nil {
			return nil, err
		}
		imported = append(imported, rec)
	}
	return imported, nil
}

// packSingleSkill repacks one skill's entries from a source archive into a
// standalone blob, normalized under a <name>/ top-level directory. Entry
// extraction goes through the zip loader so its size cap applies.
func packSingleSkill(src *skills.ZipLoader, sk *skills.Skill) ([]byte, error) {
	resources, err := sk.Resources()
	if err != nil {
		return nil, err
	}

	rels := make([]string, 0, len(resources)+1)
	rels = append(rels, skills.SkillFileName)
	for _, r := range resources {
		rels = append(rels, r.Rel)
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, rel := range rels {
		data, err := src.ReadFile(sk.Name, rel)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to extract %s for skill %s", rel, sk.Name)
		}
		entry, err := w.Create(sk.Name + "/" + rel)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create archive entry for %s", rel)
		}
		if _, err := entry.Write(data); err != nil {
			return nil, errors.Wrapf(err, "failed to write archive entry for %s", rel)
		}
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finalize skill archive")
	}
	return buf.Bytes(), nil
}

// ImportDir stores every skill found under dir as a content record,
// one row per skill. Invalid skills are skipped the same way the
// filesystem loader skips them.
func (s *Store) ImportDir(ctx context.Context, dir string) ([]SkillRecord, error) {
	var imported []SkillRecord
	err := telemetry.WithSpan(ctx, "skillstore.import_dir", func(ctx context.Context) error {
		var err error
		imported, err = s.importDir(ctx, dir)
		telemetry.SetAttributes(ctx, attribute.Int("skills.imported", len(imported)))
		return err
	}, attribute.String("dir", dir))
	if err != nil {
		return nil, err
	}
	return imported, nil
}

func (s *Store) importDir(ctx context.Context, dir string) ([]SkillRecord, error) {
	list, err := skills.NewFSLoader(dir).List(ctx)
	if err != nil {
		return nil, err
	}

	imported := make([]SkillRecord, 0, len(list))
	for _, sk := range list {
		content, err := sk.Content()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read content for skill %s", sk.Name)
		}

		rec := SkillRecord{
			Name:          sk.Name,
			Description:   sk.Description,
			License:       sk.License,
			Compatibility: sk.Compatibility,
			Content:       content,
			Metadata:      annotationsOnly(sk.Metadata),
		}
		if err := s.Put(ctx, &rec); err != nil {
			return nil, err
		}
		imported = append(imported, rec)
	}
	return imported, nil
}

// annotationsOnly strips the core fields already stored in columns,
// keeping just the extra front matter keys.
func annotationsOnly(meta map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range meta {
		switch k {
		case "name", "description", "license", "compatibility":
			continue
		}
		out[k] = v
	}
	return out
}
