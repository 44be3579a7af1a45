package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/raido/internal/rewrite"
	"github.com/starford/raido/internal/rules"
	"github.com/starford/raido/internal/storage"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(store, logger, rewrite.Options{Pattern: "*.md"}, []rewrite.Insertion{rules.Redirect("https://example.com", "")}, nil)
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we test
	// through the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "inspect_document":
		result, err = srv.inspectDocument(ctx, req)
	case "plan_migration":
		result, err = srv.planMigration(ctx, req)
	case "apply_migration":
		result, err = srv.applyMigration(ctx, req)
	case "get_rule_contract":
		result, err = srv.getRuleContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListDocuments(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("b.md", []byte("---\n---\n"))
	_ = store.Write("posts/a.md", []byte("---\n---\n"))
	_ = store.Write("notes.txt", []byte("not a doc"))

	r := callTool(t, srv, "list_documents", map[string]interface{}{})
	text := resultText(r)
	if text != "b.md\nposts/a.md" {
		t.Errorf("list = %q", text)
	}

	r = callTool(t, srv, "list_documents", map[string]interface{}{"folder": "posts"})
	if text := resultText(r); text != "posts/a.md" {
		t.Errorf("filtered list = %q", text)
	}
}

func TestInspectDocument(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("2014-01-30-change-data.md", []byte("---\nlayout: post\n---\nbody\n"))

	r := callTool(t, srv, "inspect_document", map[string]interface{}{"path": "2014-01-30-change-data.md"})
	if r.IsError {
		t.Fatalf("inspect error: %s", resultText(r))
	}
	var report map[string]interface{}
	if err := json.Unmarshal([]byte(resultText(r)), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report["slug"] != "change-data" {
		t.Errorf("slug = %v", report["slug"])
	}
	if report["has_field"] != false {
		t.Errorf("has_field = %v", report["has_field"])
	}
}

func TestInspectDocumentMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "inspect_document", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestPlanThenApplyMigration(t *testing.T) {
	srv, store := testServer(t)
	original := "---\ntitle: t\n---\n"
	_ = store.Write("post.md", []byte(original))

	r := callTool(t, srv, "plan_migration", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("plan error: %s", resultText(r))
	}
	var plan rewrite.Report
	if err := json.Unmarshal([]byte(resultText(r)), &plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if !plan.DryRun || plan.Rewritten() != 1 {
		t.Errorf("plan = dry_run %v, rewritten %d", plan.DryRun, plan.Rewritten())
	}
	data, _ := store.Read("post.md")
	if string(data) != original {
		t.Fatalf("plan modified the vault: %q", data)
	}

	r = callTool(t, srv, "apply_migration", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("apply error: %s", resultText(r))
	}
	data, _ = store.Read("post.md")
	if !strings.Contains(string(data), "redirect_to:") {
		t.Errorf("apply did not rewrite: %q", data)
	}
}

func TestMigrationWithInlineRules(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("post.md", []byte("---\ntitle: t\n---\n"))

	rulesYAML := "rules:\n  - field: moved_to\n    lines:\n      - \"moved_to: https://new.example.com/{{slug}}\"\n"
	r := callTool(t, srv, "apply_migration", map[string]interface{}{"rules_yaml": rulesYAML})
	if r.IsError {
		t.Fatalf("apply error: %s", resultText(r))
	}
	data, _ := store.Read("post.md")
	if !strings.Contains(string(data), "moved_to: https://new.example.com/post") {
		t.Errorf("inline rules not applied: %q", data)
	}
}

func TestMigrationRejectsBadRules(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "plan_migration", map[string]interface{}{"rules_yaml": "rules: []"})
	if !r.IsError {
		t.Error("expected error for empty rule set")
	}
}

func TestGetRuleContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_rule_contract", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "{{slug}}") || !strings.Contains(text, "redirect_to") {
		t.Errorf("contract missing expected content: %q", text)
	}
}
