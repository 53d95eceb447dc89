package skills

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateValid(t *testing.T) {
	tests := []struct {
		name  string
		skill *Skill
	}{
		{"minimal", &Skill{Name: "my-skill", Description: "Does things"}},
		{"single token", &Skill{Name: "skill", Description: "d"}},
		{"digits", &Skill{Name: "skill-v2", Description: "d"}},
		{"all optional fields", &Skill{
			Name:          "full-skill",
			Description:   "d",
			License:       "Apache-2.0",
			Compatibility: "Requires network access",
		}},
		{"name at limit", &Skill{Name: strings.Repeat("a", MaxNameLength), Description: "d"}},
		{"description at limit", &Skill{Name: "s", Description: strings.Repeat("d", MaxDescriptionLength)}},
		{"license at limit", &Skill{Name: "s", Description: "d", License: strings.Repeat("l", MaxLicenseLength)}},
		{"compatibility at limit", &Skill{Name: "s", Description: "d", Compatibility: strings.Repeat("c", MaxCompatibilityLength)}},
		{"matching directory", &Skill{Name: "my-skill", Description: "d", Path: "/skills/my-skill"}},
		{"database path", &Skill{Name: "my-skill", Description: "d", Path: "database:42"}},
		{"zip path", &Skill{Name: "my-skill", Description: "d", Path: "zip:/tmp/a.zip:my-skill/SKILL.md"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Validate(tt.skill))
		})
	}
}

func TestValidateName(t *testing.T) {
	t.Run("required", func(t *testing.T) {
		problems := Validate(&Skill{Description: "d"})
		assert.Equal(t, []string{"name is required"}, problems)
	})

	t.Run("too long", func(t *testing.T) {
		problems := Validate(&Skill{Name: strings.Repeat("a", MaxNameLength+1), Description: "d"})
		assert.Contains(t, problems, "name exceeds 64 characters")
	})

	t.Run("pattern", func(t *testing.T) {
		for _, name := range []string{
			"Invalid-Name",
			"has_underscore",
			"-leading-hyphen",
			"trailing-hyphen-",
			"double--hyphen",
			"with space",
		} {
			problems := Validate(&Skill{Name: name, Description: "d"})
			assert.Contains(t, problems, "name must be lowercase letters, digits and single hyphens", "name %q", name)
		}
	})

	t.Run("length and pattern accumulate", func(t *testing.T) {
		problems := Validate(&Skill{Name: strings.Repeat("A", MaxNameLength+1), Description: "d"})
		assert.Len(t, problems, 2)
	})
}

func TestValidateDescription(t *testing.T) {
	t.Run("required", func(t *testing.T) {
		problems := Validate(&Skill{Name: "s"})
		assert.Equal(t, []string{"description is required"}, problems)
	})

	t.Run("too long", func(t *testing.T) {
		problems := Validate(&Skill{Name: "s", Description: strings.Repeat("d", MaxDescriptionLength+1)})
		assert.Equal(t, []string{"description exceeds 1024 characters"}, problems)
	})
}

func TestValidateOptionalFields(t *testing.T) {
	t.Run("license too long", func(t *testing.T) {
		problems := Validate(&Skill{Name: "s", Description: "d", License: strings.Repeat("l", MaxLicenseLength+1)})
		assert.Equal(t, []string{"license exceeds 128 characters"}, problems)
	})

	t.Run("compatibility too long", func(t *testing.T) {
		problems := Validate(&Skill{Name: "s", Description: "d", Compatibility: strings.Repeat("c", MaxCompatibilityLength+1)})
		assert.Equal(t, []string{"compatibility exceeds 500 characters"}, problems)
	})
}

func TestValidateAccumulates(t *testing.T) {
	problems := Validate(&Skill{})
	assert.Equal(t, []string{"name is required", "description is required"}, problems)
}

func TestValidatePathAgreement(t *testing.T) {
	t.Run("directory mismatch", func(t *testing.T) {
		problems := Validate(&Skill{Name: "my-skill", Description: "d", Path: "/skills/other-dir"})
		assert.Equal(t, []string{`name "my-skill" must match directory name "other-dir"`}, problems)
	})

	t.Run("file stem mismatch", func(t *testing.T) {
		problems := Validate(&Skill{Name: "my-skill", Description: "d", Path: "/skills/renamed.md", virtual: true})
		assert.Equal(t, []string{`name "my-skill" must match file name "renamed.md"`}, problems)
	})

	t.Run("file stem match", func(t *testing.T) {
		problems := Validate(&Skill{Name: "my-skill", Description: "d", Path: "/skills/my-skill.md", virtual: true})
		assert.Empty(t, problems)
	})

	t.Run("virtual skills skip the directory check", func(t *testing.T) {
		problems := Validate(&Skill{Name: "my-skill", Description: "d", Path: "/skills/anywhere", virtual: true})
		assert.Empty(t, problems)
	})

	t.Run("no path no check", func(t *testing.T) {
		problems := Validate(&Skill{Name: "my-skill", Description: "d"})
		assert.Empty(t, problems)
	})
}

func TestSkillValid(t *testing.T) {
	assert.True(t, (&Skill{Name: "ok", Description: "d"}).Valid())
	assert.False(t, (&Skill{Name: "Bad Name", Description: "d"}).Valid())
}
