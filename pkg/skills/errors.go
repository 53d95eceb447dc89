package skills

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ParseError reports a skill document whose front matter could not be
// parsed: the opening delimiter is missing, the block is unterminated, or
// the YAML is invalid.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse skill at %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// InvalidSkillError reports every validation failure for a single skill.
// Loaders catch it per record, log a warning, and keep going.
type InvalidSkillError struct {
	Name     string
	Problems []string
}

func (e *InvalidSkillError) Error() string {
	name := e.Name
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("invalid skill %s: %s", name, strings.Join(e.Problems, "; "))
}

// NotFoundError reports a strict lookup miss.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("skill %q not found", e.Name)
}

// LoadError reports an unreadable or corrupt skill source, such as a
// missing zip archive or a failing record source.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load skills from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsInvalidSkill reports whether err is an InvalidSkillError.
func IsInvalidSkill(err error) bool {
	var inv *InvalidSkillError
	return errors.As(err, &inv)
}

// IsParseError reports whether err is a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsLoadError reports whether err is a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
