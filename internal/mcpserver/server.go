// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes raido migration tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/inspect"
	"github.com/starford/raido/internal/journal"
	"github.com/starford/raido/internal/rewrite"
	"github.com/starford/raido/internal/rules"
	"github.com/starford/raido/internal/storage"
)

// Server wraps the MCP server with raido tools.
type Server struct {
	mcp        *server.MCPServer
	store      storage.Provider
	logger     *slog.Logger
	opts       rewrite.Options
	insertions []rewrite.Insertion
	journal    journal.Recorder // nil when no journal is attached
}

// New creates a new MCP server with all raido tools registered.
// insertions are the server's configured rules; tools accept an inline
// override. rec may be nil; runs are then not journaled.
func New(store storage.Provider, logger *slog.Logger, opts rewrite.Options, insertions []rewrite.Insertion, rec journal.Recorder) *Server {
	if opts.Pattern == "" {
		opts.Pattern = "*.md"
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:      store,
		logger:     logger,
		opts:       opts,
		insertions: insertions,
		journal:    rec,
	}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the documents a migration would consider, in the order it would process them."),
		mcp.WithString("folder", mcp.Description("Optional folder to restrict the listing to (empty for the whole vault)")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("inspect_document",
		mcp.WithDescription("Inspect one document: derived slug, front-matter keys, field presence, YAML validity."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. posts/2014-01-30-change-data.md)")),
	), s.inspectDocument)

	s.mcp.AddTool(mcp.NewTool("plan_migration",
		mcp.WithDescription("Dry-run the migration and return the full report as JSON. "+
			"No file is written. Rules MUST follow the rule format; read it first via "+
			"the get_rule_contract tool or the raido://rule-format resource."),
		mcp.WithString("rules_yaml", mcp.Description("Optional inline rule set overriding the server's configured rules")),
	), s.planMigration)

	s.mcp.AddTool(mcp.NewTool("apply_migration",
		mcp.WithDescription("Run the migration for real and return the full report as JSON. "+
			"Rewrites matching documents in place (atomically); run plan_migration first."),
		mcp.WithString("rules_yaml", mcp.Description("Optional inline rule set overriding the server's configured rules")),
	), s.applyMigration)

	s.mcp.AddTool(mcp.NewTool("get_rule_contract",
		mcp.WithDescription("Returns the canonical raido rule format contract. "+
			"Call this before submitting rules_yaml to plan_migration or apply_migration."),
	), s.getRuleContract)

	// Resource: rule format contract.
	s.mcp.AddResource(
		mcp.NewResource("raido://rule-format", "Rule Format Contract",
			mcp.WithResourceDescription("Canonical rule file format for front-matter migrations."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRuleFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// field returns the header key the configured rules establish, for the
// inspect_document census. Empty when the server has no configured rules.
func (s *Server) field() string {
	if len(s.insertions) == 0 {
		return ""
	}
	return s.insertions[0].Field
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = strings.Trim(f, "/")
	}

	paths, err := s.store.List(s.opts.Pattern)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var out []string
	for _, p := range paths {
		if folder != "" && !strings.HasPrefix(p, folder+"/") {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return mcp.NewToolResultText("no matching documents"), nil
	}
	return mcp.NewToolResultText(strings.Join(out, "\n")), nil
}

func (s *Server) inspectDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	report, err := inspect.Describe(path, data, s.field())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) planMigration(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runMigration(ctx, req, true)
}

func (s *Server) applyMigration(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runMigration(ctx, req, false)
}

func (s *Server) runMigration(ctx context.Context, req mcp.CallToolRequest, dryRun bool) (*mcp.CallToolResult, error) {
	insertions := s.insertions
	if raw, err := req.RequireString("rules_yaml"); err == nil && raw != "" {
		set, parseErr := rules.Parse([]byte(raw))
		if parseErr != nil {
			return mcp.NewToolResultError(parseErr.Error()), nil
		}
		insertions = set.Insertions()
	}
	if len(insertions) == 0 {
		return mcp.NewToolResultError("no rules configured: pass rules_yaml or start the server with a rule source"), nil
	}

	opts := s.opts
	opts.DryRun = dryRun
	eng := rewrite.New(s.store, s.logger, opts)
	report, err := eng.RewriteAll(ctx, insertions)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if s.journal != nil {
		if recErr := s.journal.RecordRun(report); recErr != nil {
			s.logger.Warn("mcp: journal record failed", slog.String("error", recErr.Error()))
		}
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRuleContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RuleFormatContract), nil
}

func (s *Server) readRuleFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "raido://rule-format",
			MIMEType: "text/markdown",
			Text:     RuleFormatContract,
		},
	}, nil
}
