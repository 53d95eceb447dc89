package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kieranklaassen/agentskills/pkg/logger"
	"github.com/kieranklaassen/agentskills/pkg/presenter"
	"github.com/kieranklaassen/agentskills/pkg/skills"
	"github.com/kieranklaassen/agentskills/pkg/telemetry"
	"github.com/kieranklaassen/agentskills/pkg/tools"
	"github.com/kieranklaassen/agentskills/pkg/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve skills to MCP clients over stdio",
	Long: `Start an MCP (Model Context Protocol) server on stdio exposing the skill
tool. Any MCP client gets the skill listing in the tool description and
loads instructions and bundled files on demand. Stdout carries the
protocol; logs go to stderr.

Examples:
  agentskills serve --skills-dir ./skills
  agentskills serve --skills-dir ./skills --db ~/.agentskills/skills.db`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getSourceConfigFromFlags(cmd)
		runServeCommand(ctx, config)
	},
}

func init() {
	addSourceFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServeCommand(ctx context.Context, config *SourceConfig) {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Stdout belongs to the protocol once the server starts.
	logger.SetLogOutput(os.Stderr)
	logger.SetLogLevel(viper.GetString("log_level"))

	shutdownTracer, err := initTracing(ctx)
	if err != nil {
		presenter.Error(err, "Failed to initialize tracing")
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		shutdownTracer(shutdownCtx)
	}()

	loader, cleanup, err := config.resolveLoader(ctx)
	if err != nil {
		presenter.Error(err, "Failed to configure skill sources")
		os.Exit(1)
	}
	defer cleanup()

	srv, err := newSkillServer(loader)
	if err != nil {
		presenter.Error(err, "Failed to set up MCP server")
		os.Exit(1)
	}

	serverErr := make(chan error, 1)
	go func() {
		stdio := server.NewStdioServer(srv)
		stdio.SetErrorLogger(log.New(os.Stderr, "", log.LstdFlags))
		serverErr <- stdio.Listen(ctx, os.Stdin, os.Stdout)
	}()

	logger.G(ctx).Info("MCP server listening on stdio")

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			presenter.Error(err, "MCP server failed")
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	logger.G(ctx).Info("MCP server stopped")
}

// newSkillServer builds an MCP server exposing the skill tool over the
// given loader. The skill listing is rendered into the tool description at
// registration time.
func newSkillServer(loader skills.Loader) (*server.MCPServer, error) {
	skillTool := tools.NewSkillTool(loader)
	registry := tools.NewRegistry(skillTool)

	schema, err := json.Marshal(skillTool.GenerateSchema())
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal tool schema")
	}

	srv := server.NewMCPServer("agentskills", version.Get().Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	srv.AddTool(
		mcp.NewToolWithRawSchema(skillTool.Name(), skillTool.Description(), schema),
		skillToolHandler(registry, skillTool.Name()),
	)

	return srv, nil
}

// skillToolHandler adapts tool calls to the MCP handler contract. Requests
// run through the registry so input validation and tracing apply. Tool-level
// failures become error results, never handler errors.
func skillToolHandler(registry *tools.Registry, toolName string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		params, err := json.Marshal(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		ctx, span := tracer.Start(ctx, "mcp.tool_call")
		defer span.End()

		telemetry.AddEvent(ctx, "tool_execution_start",
			attribute.String("tool_name", toolName),
		)
		result := tools.RunTool(ctx, registry, toolName, string(params))
		telemetry.AddEvent(ctx, "tool_execution_complete",
			attribute.String("tool_name", toolName),
			attribute.String("result", result.AssistantFacing()),
		)

		if result.IsError() {
			return mcp.NewToolResultError(result.GetError()), nil
		}
		return mcp.NewToolResultText(result.GetResult()), nil
	}
}
