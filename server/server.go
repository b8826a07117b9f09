// Package server implements the MCP server that exposes algorithm and
// certificate checks to agents.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/nox-hq/certguard/core"
	"github.com/nox-hq/certguard/core/algorithm"
	"github.com/nox-hq/certguard/core/constraints"
	"github.com/nox-hq/certguard/core/report"
	"github.com/nox-hq/certguard/core/trust"
)

const (
	// maxOutputBytes is the maximum response size before truncation (1 MB).
	maxOutputBytes = 1 << 20
)

// Server is the certguard MCP server.
type Server struct {
	version      string
	engine       *core.Engine
	limiter      *RateLimiter
	allowedPaths []string

	mu   sync.RWMutex
	last *trust.VerifyResult
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimiter bounds the rate of tool calls.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) { s.limiter = rl }
}

// WithAllowedPaths restricts check_chain_file to files under the given
// roots. With no roots any path is allowed.
func WithAllowedPaths(paths []string) Option {
	return func(s *Server) {
		resolved := make([]string, 0, len(paths))
		for _, p := range paths {
			abs, err := filepath.Abs(p)
			if err == nil {
				resolved = append(resolved, abs)
			}
		}
		s.allowedPaths = resolved
	}
}

// New creates a new MCP server backed by engine.
func New(version string, engine *core.Engine, opts ...Option) *Server {
	s := &Server{version: version, engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve starts the MCP server on stdio and blocks until the client disconnects.
func (s *Server) Serve() error {
	srv := mcpserver.NewMCPServer(
		"certguard",
		s.version,
		mcpserver.WithRecovery(),
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithResourceCapabilities(false, false),
	)

	s.registerTools(srv)
	s.registerResources(srv)

	return mcpserver.ServeStdio(srv)
}

func (s *Server) registerTools(srv *mcpserver.MCPServer) {
	srv.AddTool(
		mcp.NewTool("check_algorithm",
			mcp.WithDescription("Classify an algorithm name as accepted, weak or disabled under the loaded policy"),
			mcp.WithString("name",
				mcp.Description("Algorithm name, e.g. SHA1withRSA or AES/GCM/NoPadding"),
				mcp.Required(),
			),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleCheckAlgorithm,
	)

	srv.AddTool(
		mcp.NewTool("decompose",
			mcp.WithDescription("Split a composite algorithm name into its element tokens"),
			mcp.WithString("name",
				mcp.Description("Algorithm name to decompose"),
				mcp.Required(),
			),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleDecompose,
	)

	srv.AddTool(
		mcp.NewTool("check_certificate",
			mcp.WithDescription("Verify a PEM certificate chain, leaf first, against the trust policy"),
			mcp.WithString("pem",
				mcp.Description("PEM-encoded certificates, leaf first"),
				mcp.Required(),
			),
			mcp.WithString("variant",
				mcp.Description("Validation variant: generic, code_signing, tsa_server, tls_server or tls_client"),
			),
			mcp.WithString("format",
				mcp.Description("Output format: json, sarif or text"),
				mcp.Enum("json", "sarif", "text"),
				mcp.DefaultString("json"),
			),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleCheckCertificate,
	)

	srv.AddTool(
		mcp.NewTool("check_chain_file",
			mcp.WithDescription("Verify a PEM chain file on disk against the trust policy"),
			mcp.WithString("path",
				mcp.Description("Absolute path to the PEM chain file"),
				mcp.Required(),
			),
			mcp.WithString("variant",
				mcp.Description("Validation variant"),
			),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		s.handleCheckChainFile,
	)
}

func (s *Server) registerResources(srv *mcpserver.MCPServer) {
	srv.AddResource(
		mcp.NewResource("certguard://policy", "Algorithm policy",
			mcp.WithResourceDescription("Expanded disabled and legacy algorithm policy entries"),
			mcp.WithMIMEType("application/json"),
		),
		s.handleResourcePolicy,
	)

	srv.AddResource(
		mcp.NewResource("certguard://last-result", "Last verification",
			mcp.WithResourceDescription("Result of the most recent certificate check"),
			mcp.WithMIMEType("application/json"),
		),
		s.handleResourceLastResult,
	)
}

// isPathAllowed checks if the given path is under one of the allowed roots.
func (s *Server) isPathAllowed(path string) error {
	if len(s.allowedPaths) == 0 {
		return nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve path: %w", err)
	}

	for _, allowed := range s.allowedPaths {
		rel, err := filepath.Rel(allowed, abs)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(rel, "..") {
			return nil
		}
	}

	return fmt.Errorf("path %q is outside allowed workspaces", path)
}

// throttle returns a tool error result when the rate limit is exceeded.
func (s *Server) throttle() *mcp.CallToolResult {
	if s.limiter.Allow() {
		return nil
	}
	return mcp.NewToolResultError("rate limit exceeded, retry later")
}

func (s *Server) handleCheckAlgorithm(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if r := s.throttle(); r != nil {
		return r, nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("missing required argument: name"), nil
	}

	rep, err := s.engine.CheckAlgorithm(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep)
}

func (s *Server) handleDecompose(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if r := s.throttle(); r != nil {
		return r, nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("missing required argument: name"), nil
	}
	return jsonResult(map[string]any{
		"name":     name,
		"elements": algorithm.Decompose(name).Sorted(),
		"one_hash": algorithm.DecomposeOneHash(name).Sorted(),
	})
}

func (s *Server) handleCheckCertificate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if r := s.throttle(); r != nil {
		return r, nil
	}
	data, err := request.RequireString("pem")
	if err != nil {
		return mcp.NewToolResultError("missing required argument: pem"), nil
	}
	chain, err := trust.ParseCertificatesPEM([]byte(data))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	variant := parseVariant(request.GetString("variant", ""))
	result := s.engine.CheckChain(chain, variant, time.Time{}, "request")
	s.remember(result)

	reporter, err := report.New(request.GetString("format", "json"), s.version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := reporter.Generate([]trust.VerifyResult{result})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report generation failed: %v", err)), nil
	}
	return mcp.NewToolResultText(truncate(string(out))), nil
}

func (s *Server) handleCheckChainFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if r := s.throttle(); r != nil {
		return r, nil
	}
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("missing required argument: path"), nil
	}
	if err := s.isPathAllowed(path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := s.engine.CheckChainFiles(ctx, []string{path}, parseVariant(request.GetString("variant", "")))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("check failed: %v", err)), nil
	}
	s.remember(results[0])

	summary := report.Summarize(results)
	status := "passed"
	if summary.Failed > 0 {
		status = "failed"
	}
	return mcp.NewToolResultText(fmt.Sprintf("Check %s: %d violations, %d warnings",
		status, len(results[0].Violations), summary.Warnings)), nil
}

// Resource handlers.

type policyView struct {
	Property string   `json:"property"`
	Entries  []string `json:"entries"`
}

func (s *Server) handleResourcePolicy(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	view := map[string]policyView{
		"disabled": {s.engine.DisabledPolicy().Property(), s.engine.DisabledPolicy().Entries()},
		"legacy":   {s.engine.LegacyPolicy().Property(), s.engine.LegacyPolicy().Entries()},
	}
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding policy: %w", err)
	}
	return textResource(request, data), nil
}

func (s *Server) handleResourceLastResult(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	if last == nil {
		return nil, fmt.Errorf("no check results available")
	}

	data, err := report.NewJSONReporter(s.version).Generate([]trust.VerifyResult{*last})
	if err != nil {
		return nil, fmt.Errorf("generating result JSON: %w", err)
	}
	return textResource(request, data), nil
}

func (s *Server) remember(r trust.VerifyResult) {
	s.mu.Lock()
	s.last = &r
	s.mu.Unlock()
}

func textResource(request mcp.ReadResourceRequest, data []byte) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     truncate(string(data)),
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(truncate(string(data))), nil
}

// parseVariant maps an empty string to the engine default.
func parseVariant(s string) constraints.Variant {
	if s == "" {
		return ""
	}
	return constraints.ParseVariant(s)
}

// truncate limits output to maxOutputBytes, appending a truncation notice if needed.
func truncate(s string) string {
	if len(s) <= maxOutputBytes {
		return s
	}
	return s[:maxOutputBytes] + "\n... [truncated: output exceeded 1MB limit]"
}
