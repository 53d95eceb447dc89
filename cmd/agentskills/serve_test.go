package main

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kieranklaassen/agentskills/pkg/skills"
	"github.com/kieranklaassen/agentskills/pkg/tools"
)

type serveTestRecord struct {
	name        string
	description string
	content     string
}

func (r serveTestRecord) SkillName() string        { return r.name }
func (r serveTestRecord) SkillDescription() string { return r.description }
func (r serveTestRecord) SkillContent() string     { return r.content }

// errorLoader fails every lookup. Used to exercise the hard-failure path.
type errorLoader struct{}

func (errorLoader) List(context.Context) ([]*skills.Skill, error) {
	return nil, errors.New("skill backend offline")
}

func (errorLoader) Find(context.Context, string) (*skills.Skill, error) {
	return nil, errors.New("skill backend offline")
}

func (errorLoader) Get(context.Context, string) (*skills.Skill, error) {
	return nil, errors.New("skill backend offline")
}

func (errorLoader) Exists(context.Context, string) (bool, error) {
	return false, errors.New("skill backend offline")
}

func (errorLoader) Reload() {}

func newServeTestLoader() skills.Loader {
	return skills.NewDatabaseLoader([]skills.Record{
		serveTestRecord{
			name:        "db-skill",
			description: "A database backed skill",
			content:     "# DB Skill\n\nStored instructions.",
		},
	})
}

func TestNewSkillServer(t *testing.T) {
	srv, err := newSkillServer(newServeTestLoader())
	require.NoError(t, err)
	assert.NotNil(t, srv)
}

func newTestHandler(loader skills.Loader) server.ToolHandlerFunc {
	skillTool := tools.NewSkillTool(loader)
	return skillToolHandler(tools.NewRegistry(skillTool), skillTool.Name())
}

func TestSkillToolHandler(t *testing.T) {
	handler := newTestHandler(newServeTestLoader())

	t.Run("loads a skill", func(t *testing.T) {
		request := mcp.CallToolRequest{}
		request.Params.Name = "skill"
		request.Params.Arguments = map[string]any{"command": "db-skill"}

		result, err := handler(context.Background(), request)
		require.NoError(t, err)
		assert.False(t, result.IsError)

		text, ok := result.Content[0].(mcp.TextContent)
		require.True(t, ok)
		assert.Contains(t, text.Text, "# Skill: db-skill")
		assert.Contains(t, text.Text, "Stored instructions.")
	})

	t.Run("unknown skill is a conversational miss", func(t *testing.T) {
		request := mcp.CallToolRequest{}
		request.Params.Name = "skill"
		request.Params.Arguments = map[string]any{"command": "absent"}

		result, err := handler(context.Background(), request)
		require.NoError(t, err)
		assert.False(t, result.IsError)

		text, ok := result.Content[0].(mcp.TextContent)
		require.True(t, ok)
		assert.Contains(t, text.Text, "Skill 'absent' not found")
	})

	t.Run("missing command fails validation", func(t *testing.T) {
		request := mcp.CallToolRequest{}
		request.Params.Name = "skill"
		request.Params.Arguments = map[string]any{}

		result, err := handler(context.Background(), request)
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("loader failure is an error result", func(t *testing.T) {
		failing := newTestHandler(errorLoader{})

		request := mcp.CallToolRequest{}
		request.Params.Name = "skill"
		request.Params.Arguments = map[string]any{"command": "db-skill"}

		result, err := failing(context.Background(), request)
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}
