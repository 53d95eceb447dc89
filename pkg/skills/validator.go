package skills

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// MaxNameLength is the maximum skill name length.
	MaxNameLength = 64
	// MaxDescriptionLength is the maximum description length.
	MaxDescriptionLength = 1024
	// MaxLicenseLength is the maximum license string length.
	MaxLicenseLength = 128
	// MaxCompatibilityLength is the maximum compatibility string length.
	MaxCompatibilityLength = 500
)

var namePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Validate checks a skill against the naming and metadata rules and returns
// every problem found. Checks are independent: a skill with several issues
// reports all of them. An empty slice means the skill is valid.
func Validate(s *Skill) []string {
	var problems []string

	if s.Name == "" {
		problems = append(problems, "name is required")
	} else {
		if len(s.Name) > MaxNameLength {
			problems = append(problems, fmt.Sprintf("name exceeds %d characters", MaxNameLength))
		}
		if !namePattern.MatchString(s.Name) {
			problems = append(problems, "name must be lowercase letters, digits and single hyphens")
		}
	}

	if s.Description == "" {
		problems = append(problems, "description is required")
	} else if len(s.Description) > MaxDescriptionLength {
		problems = append(problems, fmt.Sprintf("description exceeds %d characters", MaxDescriptionLength))
	}

	if len(s.License) > MaxLicenseLength {
		problems = append(problems, fmt.Sprintf("license exceeds %d characters", MaxLicenseLength))
	}

	if len(s.Compatibility) > MaxCompatibilityLength {
		problems = append(problems, fmt.Sprintf("compatibility exceeds %d characters", MaxCompatibilityLength))
	}

	if s.Name != "" && s.Path != "" && !pathIsVirtual(s.Path) {
		base := filepath.Base(s.Path)
		if strings.HasSuffix(base, ".md") {
			// single-file skill: the name must match the file stem
			if stem := strings.TrimSuffix(base, ".md"); stem != s.Name {
				problems = append(problems, fmt.Sprintf("name %q must match file name %q", s.Name, base))
			}
		} else if !s.Virtual() && base != s.Name {
			problems = append(problems, fmt.Sprintf("name %q must match directory name %q", s.Name, base))
		}
	}

	return problems
}

// Validate returns every validation problem for the skill.
func (s *Skill) Validate() []string {
	return Validate(s)
}
