package mcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/doc-extractor/internal/batch"
	"github.com/a3tai/doc-extractor/internal/config"
	"github.com/a3tai/doc-extractor/internal/descriptions"
	"github.com/a3tai/doc-extractor/internal/document"
	"github.com/a3tai/doc-extractor/internal/extraction"
	"github.com/a3tai/doc-extractor/internal/logger"
	"github.com/a3tai/doc-extractor/internal/metrics"
	"github.com/a3tai/doc-extractor/internal/report"
	"github.com/a3tai/doc-extractor/internal/security"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	loader    document.Loader
	engine    *extraction.Engine
	sandbox   *security.Sandbox
	formatter *report.TableFormatter
	log       *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used by the server and the extraction engine.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics records batch runs started through the server.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithClock replaces time.Now for report timestamps and output names.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates a new MCP server instance. Document paths supplied by
// clients are confined to cfg.DocumentDirectory.
func NewServer(cfg *config.Config, loader document.Loader, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if loader == nil {
		return nil, fmt.Errorf("document loader cannot be nil")
	}

	sandbox, err := security.NewSandbox(cfg.DocumentDirectory)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		loader:    loader,
		sandbox:   sandbox,
		formatter: report.NewTableFormatter(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	base := s.log
	s.log = base.With("mcp")
	s.engine = extraction.NewEngine(extraction.WithLogger(base), extraction.WithClock(s.now))

	s.mcpServer = server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractDocumentTool := mcp.NewTool(
		"extract_document",
		mcp.WithDescription(descriptions.GetToolDescription("extract_document")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF, DOCX or DOC file"),
		),
		mcp.WithString("keywords",
			mcp.Description("Comma-separated keywords (defaults to the configured keywords)"),
		),
	)
	s.mcpServer.AddTool(extractDocumentTool, s.handleExtractDocument)

	extractBatchTool := mcp.NewTool(
		"extract_batch",
		mcp.WithDescription(descriptions.GetToolDescription("extract_batch")),
		mcp.WithString("paths",
			mcp.Description("Comma-separated document paths, processed in order"),
		),
		mcp.WithString("directory",
			mcp.Description("Directory to process when paths is empty (defaults to the document directory)"),
		),
		mcp.WithString("keywords",
			mcp.Description("Comma-separated keywords (defaults to the configured keywords)"),
		),
		mcp.WithString("write_output",
			mcp.Description("Set to true to save the table in the output directory"),
		),
	)
	s.mcpServer.AddTool(extractBatchTool, s.handleExtractBatch)

	listDocumentsTool := mcp.NewTool(
		"list_documents",
		mcp.WithDescription(descriptions.GetToolDescription("list_documents")),
		mcp.WithString("directory",
			mcp.Description("Directory to search (defaults to the document directory)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional file name filter"),
		),
	)
	s.mcpServer.AddTool(listDocumentsTool, s.handleListDocuments)

	validateDocumentTool := mcp.NewTool(
		"validate_document",
		mcp.WithDescription(descriptions.GetToolDescription("validate_document")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the document to validate"),
		),
	)
	s.mcpServer.AddTool(validateDocumentTool, s.handleValidateDocument)
}

func (s *Server) handleExtractDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.resolveDocument(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	keywords, err := s.keywordsArg(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pages, err := s.loader.Load(ctx, doc)
	if err != nil {
		s.log.LogDocumentFailed(doc.Name, err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := s.engine.ExtractDocument(doc, pages, keywords)
	s.log.LogDocument(doc.Name, res.FoundCount(), len(res.Errors), len(res.Warnings),
		time.Duration(res.ElapsedSeconds*float64(time.Second)))

	return mcp.NewToolResultText(s.formatter.RenderReport(res, keywords, s.now())), nil
}

func (s *Server) handleExtractBatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	docs, err := s.batchDocuments(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(docs) == 0 {
		return mcp.NewToolResultError("no supported documents to process"), nil
	}

	keywords, err := s.keywordsArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	coordinator := batch.NewCoordinator(s.loader, s.engine,
		batch.WithLogger(s.log),
		batch.WithMetrics(s.metrics),
		batch.WithClock(s.now),
	)
	result := coordinator.Run(ctx, docs, keywords)
	table := s.formatter.Render(result)

	var b strings.Builder
	b.WriteString(table)
	fmt.Fprintf(&b, "\nProcessed %d of %d document(s)\n", result.DocumentCount(), result.Requested)

	if boolArg(args, "write_output") {
		path := filepath.Join(s.config.OutputDirectory, report.BatchFilename(s.now(), "txt"))
		if err := report.WriteFile(path, []byte(table), s.config.Overwrite); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		fmt.Fprintf(&b, "Output written to: %s\n", path)
	}

	if len(result.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	directory := stringArg(args, "directory")
	dir, err := s.sandbox.ResolveDirectory(directory)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := stringArg(args, "query")
	docs, err := document.Discover(dir, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(docs) == 0 {
		text := fmt.Sprintf("No documents found in directory: %s", dir)
		if query != "" {
			text += fmt.Sprintf(" matching query: %s", query)
		}
		return mcp.NewToolResultText(text), nil
	}

	return mcp.NewToolResultText(formatDocumentList(dir, query, docs)), nil
}

func (s *Server) handleValidateDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.resolveDocument(path)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Document validation failed for %s: %v", path, err)), nil
	}

	pages, err := s.loader.Load(ctx, doc)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Document validation failed for %s: %v", doc.Path, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Document %s is valid and readable (%s, %d page(s))",
		doc.Path, strings.ToUpper(string(doc.Format)), len(pages))), nil
}

// resolveDocument confines path to the document directory.
func (s *Server) resolveDocument(path string) (document.Document, error) {
	resolved, err := s.sandbox.Resolve(path)
	if err != nil {
		return document.Document{}, err
	}
	return document.FromPath(resolved)
}

// batchDocuments selects documents from the comma-separated "paths"
// argument, falling back to discovering the "directory" argument.
func (s *Server) batchDocuments(args map[string]any) ([]document.Document, error) {
	if paths := splitList(stringArg(args, "paths")); len(paths) > 0 {
		docs := make([]document.Document, 0, len(paths))
		for _, p := range paths {
			resolved, err := s.sandbox.Resolve(p)
			if err != nil {
				return nil, err
			}
			docs = append(docs, document.Reference(resolved))
		}
		return docs, nil
	}

	dir, err := s.sandbox.ResolveDirectory(stringArg(args, "directory"))
	if err != nil {
		return nil, err
	}
	return document.Discover(dir, "")
}

// keywordsArg parses the "keywords" argument, falling back to the
// configured keywords.
func (s *Server) keywordsArg(args map[string]any) ([]string, error) {
	if kws := extraction.NormalizeKeywords(splitList(stringArg(args, "keywords"))); len(kws) > 0 {
		return kws, extraction.ValidateKeywords(kws)
	}
	return extraction.NormalizeKeywords(s.config.Keywords), nil
}

// Run serves MCP over stdin/stdout until ctx is cancelled or stdin closes.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP over the given streams.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.log.Info().
		Str("document_dir", s.sandbox.Root()).
		Str("output_dir", s.config.OutputDirectory).
		Msg("Starting MCP server in stdio mode")

	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// Formatting helpers
func formatDocumentList(dir, query string, docs []document.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d document(s) in directory: %s\n", len(docs), dir)
	if query != "" {
		fmt.Fprintf(&b, "Search query: %s\n", query)
	}
	b.WriteString("\nFiles:\n")

	for i, doc := range docs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, doc.Name)
		fmt.Fprintf(&b, "   Path: %s\n", doc.Path)
		fmt.Fprintf(&b, "   Format: %s\n", strings.ToUpper(string(doc.Format)))
		fmt.Fprintf(&b, "   Size: %d bytes\n", doc.Size)
	}
	return b.String()
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func boolArg(args map[string]any, key string) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
