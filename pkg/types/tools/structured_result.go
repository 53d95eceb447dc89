package tools

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/pkg/errors"
)

// StructuredToolResult represents a tool's execution result with structured metadata
type StructuredToolResult struct {
	ToolName  string       `json:"toolName"`
	Success   bool         `json:"success"`
	Error     string       `json:"error,omitempty"`
	Metadata  ToolMetadata `json:"metadata,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// rawStructuredToolResult is used for JSON marshaling/unmarshaling
type rawStructuredToolResult struct {
	ToolName     string          `json:"toolName"`
	Success      bool            `json:"success"`
	Error        string          `json:"error,omitempty"`
	MetadataType string          `json:"metadataType,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// MarshalJSON implements custom JSON marshaling for StructuredToolResult
func (s StructuredToolResult) MarshalJSON() ([]byte, error) {
	raw := rawStructuredToolResult{
		ToolName:  s.ToolName,
		Success:   s.Success,
		Error:     s.Error,
		Timestamp: s.Timestamp,
	}

	if s.Metadata != nil {
		raw.MetadataType = s.Metadata.ToolType()

		metadataBytes, err := json.Marshal(s.Metadata)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal metadata")
		}
		raw.Metadata = metadataBytes
	}

	return json.Marshal(raw)
}

// metadataTypeRegistry maps metadata type strings to their corresponding Go types
var metadataTypeRegistry = map[string]reflect.Type{
	"skill":          reflect.TypeOf(SkillMetadata{}),
	"skill_resource": reflect.TypeOf(SkillResourceMetadata{}),
}

// UnmarshalJSON implements custom JSON unmarshaling for StructuredToolResult
func (s *StructuredToolResult) UnmarshalJSON(data []byte) error {
	var raw rawStructuredToolResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.ToolName = raw.ToolName
	s.Success = raw.Success
	s.Error = raw.Error
	s.Timestamp = raw.Timestamp

	if raw.MetadataType != "" && len(raw.Metadata) > 0 {
		metadataType, exists := metadataTypeRegistry[raw.MetadataType]
		if !exists {
			// Unknown metadata type, leave as nil
			return nil
		}

		metadataPtr := reflect.New(metadataType)
		if err := json.Unmarshal(raw.Metadata, metadataPtr.Interface()); err != nil {
			return errors.Wrapf(err, "failed to unmarshal metadata of type %s", raw.MetadataType)
		}

		s.Metadata = metadataPtr.Elem().Interface().(ToolMetadata)
	}

	return nil
}

// ToolMetadata is a marker interface for tool-specific metadata structures
type ToolMetadata interface {
	ToolType() string
}

// Skill tool metadata structures

// SkillMetadata records a skill load: which skill, where it lives, and the
// resources it advertises.
type SkillMetadata struct {
	SkillName     string          `json:"skillName"`
	Path          string          `json:"path,omitempty"`
	Virtual       bool            `json:"virtual,omitempty"`
	ResourceCount int             `json:"resourceCount,omitempty"`
	Resources     []ResourceEntry `json:"resources,omitempty"`
}

// ResourceEntry is a single bundled file in a skill load result.
type ResourceEntry struct {
	Rel  string `json:"rel"`
	Kind string `json:"kind"`
	Size int64  `json:"size"`
}

func (m SkillMetadata) ToolType() string { return "skill" }

// SkillResourceMetadata records a resource load from within a skill.
type SkillResourceMetadata struct {
	SkillName string `json:"skillName"`
	Resource  string `json:"resource"`
	Size      int64  `json:"size"`
}

func (m SkillResourceMetadata) ToolType() string { return "skill_resource" }

// ExtractMetadata is a helper that handles both pointer and value type assertions
// This is necessary because JSON unmarshaling creates value types, while
// direct creation uses pointer types
func ExtractMetadata(metadata ToolMetadata, target interface{}) bool {
	if metadata == nil {
		return false
	}

	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Ptr || targetValue.IsNil() {
		return false
	}

	targetElem := targetValue.Elem()
	metadataValue := reflect.ValueOf(metadata)

	// If metadata is a pointer, dereference it
	if metadataValue.Kind() == reflect.Ptr && !metadataValue.IsNil() {
		metadataValue = metadataValue.Elem()
	}

	// Check if the types match (comparing the base types, not pointer vs value)
	if targetElem.Type() != metadataValue.Type() {
		return false
	}

	// Set the target to the metadata value
	targetElem.Set(metadataValue)
	return true
}
