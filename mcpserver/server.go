// Package mcpserver exposes the provider registry to MCP clients over stdio.
//
// Tools:
//   - list_providers: the configured providers, without secrets
//   - test_provider: run a health check and record it as the last test
//   - list_models: enumerate a provider's models
//   - detect_provider: suggest a kind and base URL for a pasted URL
//
// Failures are reported as tool results with IsError set so the client's
// model can read them. Protocol errors are reserved for malformed requests.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"llmkeyring/i18n"
	"llmkeyring/provider"
	"llmkeyring/registry"
)

const serverName = "llmkeyring"

// Registry is the subset of *registry.Registry the tools use.
type Registry interface {
	Providers() []provider.Provider
	DefaultID() string
	Resolve(query string) (provider.Provider, error)
	Test(ctx context.Context, id string) (provider.TestResult, error)
	ListModels(ctx context.Context, id string) (provider.ModelsResult, error)
}

type Server struct {
	reg    Registry
	msgs   i18n.Localizer
	logger *slog.Logger
	mcp    *server.MCPServer
}

func New(reg Registry, msgs i18n.Localizer, logger *slog.Logger, version string) *Server {
	if msgs == nil {
		msgs = i18n.English
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		reg:    reg,
		msgs:   msgs,
		logger: logger,
		mcp:    server.NewMCPServer(serverName, version, server.WithToolCapabilities(false), server.WithRecovery()),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying server, for in-process transports.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves requests from in and writes responses to out until ctx
// is cancelled or in is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	s.logger.Debug("mcp server listening on stdio")

	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("list_providers",
			mcp.WithDescription("READ-ONLY: List configured LLM providers in display order with kind, base URL, auth mode and last test result. API keys are never returned."),
		),
		s.handleListProviders,
	)

	s.mcp.AddTool(
		mcp.NewTool("test_provider",
			mcp.WithDescription("Run a health check against one provider's API and record the result as its last test."),
			mcp.WithString("provider",
				mcp.Required(),
				mcp.Description("Provider id, id prefix or name"),
			),
		),
		s.handleTestProvider,
	)

	s.mcp.AddTool(
		mcp.NewTool("list_models",
			mcp.WithDescription("READ-ONLY: List the model ids a provider currently serves."),
			mcp.WithString("provider",
				mcp.Required(),
				mcp.Description("Provider id, id prefix or name"),
			),
		),
		s.handleListModels,
	)

	s.mcp.AddTool(
		mcp.NewTool("detect_provider",
			mcp.WithDescription("READ-ONLY: Suggest a provider kind and canonical base URL for an API URL, based on its host."),
			mcp.WithString("url",
				mcp.Required(),
				mcp.Description("Any URL on the vendor's API host"),
			),
		),
		s.handleDetectProvider,
	)
}

type lastTestView struct {
	Status  provider.TestStatus `json:"status"`
	At      *time.Time          `json:"at,omitempty"`
	Message string              `json:"message,omitempty"`
}

type providerView struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Kind         string            `json:"kind"`
	KindName     string            `json:"kindName"`
	BaseURL      string            `json:"baseURL"`
	DefaultModel string            `json:"defaultModel,omitempty"`
	Enabled      bool              `json:"enabled"`
	Default      bool              `json:"default"`
	Auth         provider.AuthType `json:"auth"`
	LastTest     lastTestView      `json:"lastTest"`
}

func (s *Server) view(p provider.Provider, defaultID string) providerView {
	auth := provider.AuthNone
	if p.Auth.IsBearer() {
		auth = provider.AuthBearer
	}
	return providerView{
		ID:           p.ID,
		Name:         p.Name,
		Kind:         string(p.Kind),
		KindName:     s.msgs.Text(p.Kind.DisplayKey()),
		BaseURL:      p.BaseURL,
		DefaultModel: p.DefaultModel,
		Enabled:      p.Enabled,
		Default:      p.ID == defaultID,
		Auth:         auth,
		LastTest: lastTestView{
			Status:  p.LastTest.Status,
			At:      p.LastTest.At,
			Message: p.LastTest.Message,
		},
	}
}

func (s *Server) handleListProviders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	defaultID := s.reg.DefaultID()
	list := s.reg.Providers()

	views := make([]providerView, 0, len(list))
	for _, p := range list {
		views = append(views, s.view(p, defaultID))
	}
	return jsonResult(map[string]any{"providers": views})
}

func (s *Server) handleTestProvider(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("provider")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.reg.Resolve(query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.reg.Test(ctx, p.ID)
	if err != nil {
		s.logger.Warn("mcp test_provider failed", "id", p.ID, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Debug("mcp test_provider", "id", p.ID, "status", res.Status)

	return jsonResult(map[string]any{
		"id":      p.ID,
		"name":    p.Name,
		"status":  res.Status,
		"message": res.Message,
	})
}

func (s *Server) handleListModels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("provider")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.reg.Resolve(query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.reg.ListModels(ctx, p.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(res.Models) == 0 {
		return mcp.NewToolResultError(res.Message), nil
	}
	return jsonResult(map[string]any{
		"id":     p.ID,
		"name":   p.Name,
		"models": res.Models,
	})
}

func (s *Server) handleDetectProvider(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sug, ok := provider.SuggestKindAndBase(raw)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no known vendor for %q", raw)), nil
	}
	return jsonResult(map[string]any{
		"kind":     sug.Kind,
		"kindName": s.msgs.Text(sug.Kind.DisplayKey()),
		"baseURL":  sug.BaseURL,
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

var _ Registry = (*registry.Registry)(nil)
