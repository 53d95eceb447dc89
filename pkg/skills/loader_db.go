package skills

import (
	"context"
	"fmt"

	"github.com/kieranklaassen/agentskills/pkg/logger"
	"github.com/pkg/errors"
)

// Record is the minimal surface a stored row must expose to become a skill.
// Optional capabilities are declared through the narrower interfaces below;
// the loader type-asserts for each one instead of reflecting on fields.
type Record interface {
	SkillName() string
	SkillDescription() string
}

// ContentRecord supplies the full instruction body inline.
type ContentRecord interface {
	Record
	SkillContent() string
}

// DataRecord supplies a packed skill as a zip archive blob. The archive's
// sole skill is unpacked, with the record's own fields taking precedence
// over the packed front matter.
type DataRecord interface {
	Record
	SkillData() []byte
}

// IdentifiedRecord exposes a stable identifier used in the skill path
// ("database:<id>"). Records without one fall back to "database:<name>".
type IdentifiedRecord interface {
	Record
	SkillID() any
}

// LicensedRecord exposes an optional license string.
type LicensedRecord interface {
	Record
	SkillLicense() string
}

// CompatibleRecord exposes an optional compatibility note.
type CompatibleRecord interface {
	Record
	SkillCompatibility() string
}

// AnnotatedRecord exposes additional metadata merged into the skill's
// metadata map. Core keys (name, description, license, compatibility)
// always win over annotations.
type AnnotatedRecord interface {
	Record
	SkillMetadata() map[string]any
}

// RecordSource produces the records a DatabaseLoader turns into skills.
type RecordSource interface {
	Records(ctx context.Context) ([]Record, error)
}

// Reloader is implemented by record sources that cache rows themselves.
// DatabaseLoader.Reload propagates to it before clearing its own cache.
type Reloader interface {
	Reload()
}

type staticRecords []Record

func (r staticRecords) Records(context.Context) ([]Record, error) {
	return r, nil
}

// DatabaseLoader adapts database-style records into skills. Records that
// fail validation are skipped with a warning. Duplicate names keep the
// first record.
type DatabaseLoader struct {
	cachingLoader
	source RecordSource
}

// NewDatabaseLoader creates a loader over a fixed record slice.
func NewDatabaseLoader(records []Record) *DatabaseLoader {
	return NewDatabaseLoaderSource(staticRecords(records))
}

// NewDatabaseLoaderSource creates a loader over a live record source.
func NewDatabaseLoaderSource(source RecordSource) *DatabaseLoader {
	l := &DatabaseLoader{source: source}
	l.fill = l.scan
	return l
}

func (l *DatabaseLoader) scan(ctx context.Context) ([]*Skill, error) {
	records, err := l.source.Records(ctx)
	if err != nil {
		return nil, &LoadError{Source: "record source", Err: err}
	}

	log := logger.G(ctx)
	found := []*Skill{}
	seen := make(map[string]bool)

	for _, rec := range records {
		s, err := skillFromRecord(ctx, rec)
		if err != nil {
			log.WithError(err).WithField("skill", rec.SkillName()).Warn("skipping invalid skill record")
			continue
		}
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		found = append(found, s)
	}

	return found, nil
}

// Reload clears the cached listing, first asking the record source to drop
// its own cache when it has one.
func (l *DatabaseLoader) Reload() {
	if r, ok := l.source.(Reloader); ok {
		r.Reload()
	}
	l.cachingLoader.Reload()
}

func skillFromRecord(ctx context.Context, rec Record) (*Skill, error) {
	recordPath := databasePathPrefix + rec.SkillName()
	if ir, ok := rec.(IdentifiedRecord); ok {
		recordPath = fmt.Sprintf("%s%v", databasePathPrefix, ir.SkillID())
	}

	if dr, ok := rec.(DataRecord); ok {
		return skillFromArchiveRecord(ctx, rec, dr.SkillData(), recordPath)
	}

	meta := map[string]any{}
	if ar, ok := rec.(AnnotatedRecord); ok {
		for k, v := range ar.SkillMetadata() {
			meta[k] = v
		}
	}
	meta["name"] = rec.SkillName()
	meta["description"] = rec.SkillDescription()
	if lr, ok := rec.(LicensedRecord); ok && lr.SkillLicense() != "" {
		meta["license"] = lr.SkillLicense()
	}
	if cr, ok := rec.(CompatibleRecord); ok && cr.SkillCompatibility() != "" {
		meta["compatibility"] = cr.SkillCompatibility()
	}

	var opts []Option
	if cr, ok := rec.(ContentRecord); ok {
		opts = append(opts, WithContent(cr.SkillContent()))
	}

	return NewFromMetadata(recordPath, meta, opts...)
}

// skillFromArchiveRecord unpacks a binary record's zip blob and rebuilds
// its sole skill under the record's database path. Record fields override
// the packed front matter; packed values fill whatever the record leaves
// blank.
func skillFromArchiveRecord(ctx context.Context, rec Record, data []byte, recordPath string) (*Skill, error) {
	sub := NewZipLoaderFromBytes(recordPath, data)
	list, err := sub.List(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read archive from record %s", rec.SkillName())
	}
	if len(list) == 0 {
		return nil, errors.Errorf("archive from record %s contains no skills", rec.SkillName())
	}
	sole := list[0]

	content, err := sole.Content()
	if err != nil {
		return nil, err
	}
	resources, err := sole.Resources()
	if err != nil {
		return nil, err
	}

	meta := make(map[string]any, len(sole.Metadata)+4)
	for k, v := range sole.Metadata {
		meta[k] = v
	}
	if ar, ok := rec.(AnnotatedRecord); ok {
		for k, v := range ar.SkillMetadata() {
			meta[k] = v
		}
	}

	name := rec.SkillName()
	if name == "" {
		name = sole.Name
	}
	description := rec.SkillDescription()
	if description == "" {
		description = sole.Description
	}
	meta["name"] = name
	meta["description"] = description
	if lr, ok := rec.(LicensedRecord); ok && lr.SkillLicense() != "" {
		meta["license"] = lr.SkillLicense()
	}
	if cr, ok := rec.(CompatibleRecord); ok && cr.SkillCompatibility() != "" {
		meta["compatibility"] = cr.SkillCompatibility()
	}

	return NewFromMetadata(recordPath, meta, WithContent(content), WithResources(resources))
}
