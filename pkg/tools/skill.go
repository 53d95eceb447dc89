package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/kieranklaassen/agentskills/pkg/logger"
	"github.com/kieranklaassen/agentskills/pkg/skills"
	tooltypes "github.com/kieranklaassen/agentskills/pkg/types/tools"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// SkillTool exposes a skill collection to the model. Loading a skill
// returns its full instructions; loading a resource returns a bundled file.
// Anything the model can act on comes back as result text, never as an
// error.
type SkillTool struct {
	loader skills.Loader

	mu      sync.Mutex
	desc    string
	descFor []*skills.Skill
}

// SkillInput defines the input parameters for the skill tool
type SkillInput struct {
	Command   string `json:"command,omitempty" jsonschema:"description=The name of the skill to load"`
	SkillName string `json:"skill_name,omitempty" jsonschema:"description=Alias for command"`
	Resource  string `json:"resource,omitempty" jsonschema:"description=Relative path of a bundled file to load from the skill"`
	Arguments string `json:"arguments,omitempty" jsonschema:"description=Free-form arguments recorded alongside the invocation"`
}

// skillName resolves the requested skill, preferring command over the
// skill_name alias.
func (in SkillInput) skillName() string {
	if in.Command != "" {
		return in.Command
	}
	return in.SkillName
}

// SkillToolResult represents the result of a skill or resource load
type SkillToolResult struct {
	skillName string
	resource  string
	content   string
	path      string
	virtual   bool
	resources []skills.Resource
	size      int64
	loaded    bool
	err       string
}

// NewSkillTool creates a skill tool over the given loader.
func NewSkillTool(loader skills.Loader) *SkillTool {
	return &SkillTool{loader: loader}
}

// Name returns the tool name
func (t *SkillTool) Name() string {
	return "skill"
}

const skillToolPreamble = `When users ask you to perform tasks, check whether one of the available skills below can complete the task more effectively. Skills provide specialized instructions and bundled supporting files that load on demand.

# Usage
- Load a skill by name: {"command": "pdf-processing"}
- Load a bundled file from a skill: {"command": "pdf-processing", "resource": "scripts/extract.py"}

## Important
- When a skill is relevant, load it BEFORE answering from your own knowledge
- Only load skills listed below
- Treat skill files as read-only reference material; copy them out before modifying
- Loading a skill again is harmless and returns the same instructions

`

// Description returns the usage preamble plus the current skill listing.
// The listing reflects the loader's cached collection and is re-rendered
// after a reload.
func (t *SkillTool) Description() string {
	ctx := context.Background()
	list, err := t.loader.List(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to list skills for tool description")
		list = nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.desc != "" && sameListing(t.descFor, list) {
		return t.desc
	}
	t.desc = renderDescription(list)
	t.descFor = list
	return t.desc
}

func sameListing(a, b []*skills.Skill) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func renderDescription(list []*skills.Skill) string {
	var sb strings.Builder
	sb.WriteString(skillToolPreamble)

	if len(list) == 0 {
		sb.WriteString("No skills available\n")
		return sb.String()
	}

	sorted := append([]*skills.Skill{}, list...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	sb.WriteString("<available_skills>\n")
	for _, s := range sorted {
		sb.WriteString("  <skill>\n")
		sb.WriteString(fmt.Sprintf("    <name>%s</name>\n", xmlEscape(s.Name)))
		sb.WriteString(fmt.Sprintf("    <description>%s</description>\n", xmlEscape(s.Description)))
		sb.WriteString("  </skill>\n")
	}
	sb.WriteString("</available_skills>\n")
	return sb.String()
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// GenerateSchema generates the JSON schema for the tool's input
func (t *SkillTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[SkillInput]()
}

// ValidateInput rejects malformed parameters. Unknown skill names pass
// validation so Execute can answer with the available listing.
func (t *SkillTool) ValidateInput(parameters string) error {
	var input SkillInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return errors.Wrap(err, "invalid input")
	}

	if input.skillName() == "" {
		return errors.New("command is required")
	}

	return nil
}

// TracingKVs returns tracing key-value pairs for observability
func (t *SkillTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	var input SkillInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return nil, err
	}

	kvs := []attribute.KeyValue{
		attribute.String("skill.name", input.skillName()),
	}
	if input.Resource != "" {
		kvs = append(kvs, attribute.String("skill.resource", input.Resource))
	}
	return kvs, nil
}

// Execute loads a skill or one of its resources.
func (t *SkillTool) Execute(ctx context.Context, parameters string) tooltypes.ToolResult {
	var input SkillInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return &SkillToolResult{err: errors.Wrap(err, "invalid input").Error()}
	}

	name := input.skillName()
	if name == "" {
		return &SkillToolResult{err: "command is required"}
	}

	log := logger.G(ctx).WithField("skill", name)
	if input.Arguments != "" {
		log = log.WithField("arguments", input.Arguments)
	}

	skill, err := t.loader.Find(ctx, name)
	if err != nil {
		return &SkillToolResult{skillName: name, err: errors.Wrap(err, "failed to load skills").Error()}
	}
	if skill == nil {
		log.Debug("skill not found")
		return &SkillToolResult{
			skillName: name,
			content:   t.notFoundText(ctx, name),
		}
	}

	if input.Resource != "" {
		log.WithField("resource", input.Resource).Debug("loading skill resource")
		return t.loadResource(skill, input.Resource)
	}

	log.Debug("loading skill")
	return t.loadSkill(ctx, skill, input.Arguments)
}

func (t *SkillTool) notFoundText(ctx context.Context, name string) string {
	list, err := t.loader.List(ctx)
	if err != nil || len(list) == 0 {
		return fmt.Sprintf("Skill '%s' not found. No skills available", name)
	}

	names := make([]string, 0, len(list))
	for _, s := range list {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return fmt.Sprintf("Skill '%s' not found. Available skills: %s", name, strings.Join(names, ", "))
}

func (t *SkillTool) loadSkill(ctx context.Context, skill *skills.Skill, arguments string) tooltypes.ToolResult {
	content, err := skill.Content()
	if err != nil {
		return &SkillToolResult{
			skillName: skill.Name,
			err:       errors.Wrapf(err, "failed to load content for skill '%s'", skill.Name).Error(),
		}
	}

	resources, err := skill.Resources()
	if err != nil {
		logger.G(ctx).WithError(err).WithField("skill", skill.Name).Warn("failed to list skill resources")
		resources = nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Skill: %s\n", skill.Name))
	if !skill.Virtual() {
		sb.WriteString(fmt.Sprintf("\nThe skill directory is located at: %s\n", skill.Path))
	}
	if content != "" {
		sb.WriteString("\n" + strings.TrimRight(content, "\n") + "\n")
	}
	if arguments != "" {
		sb.WriteString(fmt.Sprintf("\nArguments: %s\n", arguments))
	}
	appendResourceSection(&sb, "Available Scripts", resources, skills.KindScript)
	appendResourceSection(&sb, "Available References", resources, skills.KindReference)
	appendResourceSection(&sb, "Available Assets", resources, skills.KindAsset)
	if len(resources) > 0 {
		sb.WriteString(fmt.Sprintf("\nLoad any of these files with: {\"command\": %q, \"resource\": \"<path>\"}\n", skill.Name))
	}

	return &SkillToolResult{
		skillName: skill.Name,
		content:   sb.String(),
		path:      skill.Path,
		virtual:   skill.Virtual(),
		resources: resources,
		loaded:    true,
	}
}

func appendResourceSection(sb *strings.Builder, title string, resources []skills.Resource, kind skills.ResourceKind) {
	var matched []skills.Resource
	for _, r := range resources {
		if r.Kind == kind {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return
	}

	sb.WriteString(fmt.Sprintf("\n## %s\n", title))
	for _, r := range matched {
		sb.WriteString(fmt.Sprintf("- %s\n", r.Rel))
	}
}

func (t *SkillTool) loadResource(skill *skills.Skill, rel string) tooltypes.ToolResult {
	if err := skills.CheckResourcePath(rel); err != nil {
		return &SkillToolResult{
			skillName: skill.Name,
			resource:  rel,
			content:   fmt.Sprintf("invalid resource path '%s': the path must stay inside the skill directory", rel),
		}
	}
	if skill.Virtual() {
		return &SkillToolResult{
			skillName: skill.Name,
			resource:  rel,
			content:   fmt.Sprintf("cannot load resources from virtual skills: skill '%s' has no files on disk", skill.Name),
		}
	}

	data, err := skill.ReadResource(rel)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &SkillToolResult{
				skillName: skill.Name,
				resource:  rel,
				content:   resourceMissText(skill, rel),
			}
		}
		return &SkillToolResult{
			skillName: skill.Name,
			resource:  rel,
			err:       err.Error(),
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Resource: %s (from skill '%s')\n\n", rel, skill.Name))
	sb.Write(data)

	return &SkillToolResult{
		skillName: skill.Name,
		resource:  rel,
		content:   sb.String(),
		size:      int64(len(data)),
		loaded:    true,
	}
}

// resourceMissText names the paths that would have worked, so a typo'd
// request is still actionable for the model.
func resourceMissText(skill *skills.Skill, rel string) string {
	resources, err := skill.Resources()
	if err != nil || len(resources) == 0 {
		return fmt.Sprintf("Resource '%s' not found in skill '%s'. No resources available", rel, skill.Name)
	}

	rels := make([]string, 0, len(resources))
	for _, r := range resources {
		rels = append(rels, r.Rel)
	}
	return fmt.Sprintf("Resource '%s' not found in skill '%s'. Available resources: %s", rel, skill.Name, strings.Join(rels, ", "))
}

// GetResult returns the rendered result text
func (r *SkillToolResult) GetResult() string {
	return r.content
}

// GetError returns the error string
func (r *SkillToolResult) GetError() string {
	return r.err
}

// IsError returns true if there was an error
func (r *SkillToolResult) IsError() bool {
	return r.err != ""
}

// AssistantFacing returns the content to be fed to the model
func (r *SkillToolResult) AssistantFacing() string {
	return tooltypes.StringifyToolResult(r.content, r.err)
}

// StructuredData returns structured metadata for rendering
func (r *SkillToolResult) StructuredData() tooltypes.StructuredToolResult {
	result := tooltypes.StructuredToolResult{
		ToolName:  "skill",
		Success:   !r.IsError(),
		Timestamp: time.Now(),
	}

	if r.IsError() {
		result.Error = r.GetError()
		return result
	}
	if !r.loaded {
		return result
	}

	if r.resource != "" {
		result.Metadata = &tooltypes.SkillResourceMetadata{
			SkillName: r.skillName,
			Resource:  r.resource,
			Size:      r.size,
		}
		return result
	}

	entries := make([]tooltypes.ResourceEntry, 0, len(r.resources))
	for _, res := range r.resources {
		entries = append(entries, tooltypes.ResourceEntry{
			Rel:  res.Rel,
			Kind: string(res.Kind),
			Size: res.Size,
		})
	}
	result.Metadata = &tooltypes.SkillMetadata{
		SkillName:     r.skillName,
		Path:          r.path,
		Virtual:       r.virtual,
		ResourceCount: len(entries),
		Resources:     entries,
	}
	return result
}

// Loader returns the loader backing this tool.
func (t *SkillTool) Loader() skills.Loader {
	return t.loader
}
