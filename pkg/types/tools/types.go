// Package tools defines the contract between model-facing tools and the
// rest of the system: the Tool interface, result framing, and the typed
// metadata attached to structured results.
package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel/attribute"
)

// Tool is a single operation a model can invoke. Parameters arrive as the
// raw JSON string the model produced; ValidateInput runs before Execute and
// rejects malformed input without executing anything.
type Tool interface {
	GenerateSchema() *jsonschema.Schema
	Name() string
	Description() string
	ValidateInput(parameters string) error
	Execute(ctx context.Context, parameters string) ToolResult
	TracingKVs(parameters string) ([]attribute.KeyValue, error)
}

// ToolResult is the outcome of a tool invocation. AssistantFacing renders
// the text handed back to the model; StructuredData carries typed metadata
// for logging and inspection.
type ToolResult interface {
	GetResult() string
	GetError() string
	IsError() bool
	AssistantFacing() string
	StructuredData() StructuredToolResult
}

// BaseToolResult is a minimal ToolResult for failures that happen before a
// tool-specific result exists, such as validation errors or unknown tools.
type BaseToolResult struct {
	ToolName string
	Result   string
	Error    string
}

func (r BaseToolResult) GetResult() string { return r.Result }

func (r BaseToolResult) GetError() string { return r.Error }

func (r BaseToolResult) IsError() bool { return r.Error != "" }

func (r BaseToolResult) AssistantFacing() string {
	return StringifyToolResult(r.Result, r.Error)
}

func (r BaseToolResult) StructuredData() StructuredToolResult {
	return StructuredToolResult{
		ToolName:  r.ToolName,
		Success:   !r.IsError(),
		Error:     r.Error,
		Timestamp: time.Now(),
	}
}

// StringifyToolResult wraps a result and optional error in the framing the
// model reads. The result section is always present; an empty result
// renders as "(No output)".
func StringifyToolResult(result, errMsg string) string {
	out := ""
	if errMsg != "" {
		out = fmt.Sprintf(`<error>
%s
</error>
`, errMsg)
	}
	if result == "" {
		result = "(No output)"
	}
	out += fmt.Sprintf(`<result>
%s
</result>
`, result)
	return out
}
