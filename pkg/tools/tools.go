// Package tools implements the model-facing tool layer: JSON schema
// generation, the tool registry, and traced execution.
package tools

import (
	"context"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/kieranklaassen/agentskills/pkg/logger"
	"github.com/kieranklaassen/agentskills/pkg/telemetry"
	tooltypes "github.com/kieranklaassen/agentskills/pkg/types/tools"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T

	return reflector.Reflect(v)
}

// Registry holds constructed tools by name, preserving registration order.
type Registry struct {
	byName map[string]tooltypes.Tool
	order  []string
}

// NewRegistry builds a registry from the given tools. Duplicate names keep
// the first registration.
func NewRegistry(ts ...tooltypes.Tool) *Registry {
	r := &Registry{byName: make(map[string]tooltypes.Tool, len(ts))}
	for _, t := range ts {
		name := t.Name()
		if _, exists := r.byName[name]; exists {
			continue
		}
		r.byName[name] = t
		r.order = append(r.order, name)
	}
	return r
}

// Get returns the named tool.
func (r *Registry) Get(name string) (tooltypes.Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []tooltypes.Tool {
	out := make([]tooltypes.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string{}, r.order...)
}

var tracer = telemetry.Tracer("agentskills.tools")

// RunTool validates and executes a registered tool by name inside a span.
// Unknown tools and validation failures come back as error results.
func RunTool(ctx context.Context, registry *Registry, toolName string, parameters string) tooltypes.ToolResult {
	tool, ok := registry.Get(toolName)
	if !ok {
		return tooltypes.BaseToolResult{
			ToolName: toolName,
			Error:    fmt.Sprintf("unknown tool: %s", toolName),
		}
	}

	kvs, err := tool.TracingKVs(parameters)
	if err != nil {
		logger.G(ctx).WithError(err).Error("failed to get tracing kvs")
	}

	ctx, span := tracer.Start(
		ctx,
		fmt.Sprintf("tools.run_tool.%s", toolName),
		trace.WithAttributes(kvs...),
	)
	defer span.End()

	if err := tool.ValidateInput(parameters); err != nil {
		return tooltypes.BaseToolResult{
			ToolName: toolName,
			Error:    err.Error(),
		}
	}
	result := tool.Execute(ctx, parameters)

	if result.IsError() {
		span.SetStatus(codes.Error, result.GetError())
		span.RecordError(errors.New(result.GetError()))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return result
}
