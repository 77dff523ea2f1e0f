// Copyright 2025 MakeMCP Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package internal

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/makemcp/gateway/internal/mcperr"
	"github.com/makemcp/gateway/pkg/auth"
	"github.com/makemcp/gateway/pkg/core"
	"github.com/makemcp/gateway/pkg/dispatch"
	"github.com/makemcp/gateway/pkg/sources"
)

// Version is the gateway build version, set by cmd/makemcp's build flags.
var Version = "dev"

// sessionIDContextKeyType is unexported so the session id can only be set
// through withSessionID, preventing context key collisions.
type sessionIDContextKeyType struct{}

var sessionIDContextKey = sessionIDContextKeyType{}

func withSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey, id)
}

func sessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDContextKey).(string)
	return id, ok
}

// RunSource builds the MCP server for source under cfg and serves it over
// the configured transport. It is installed as sources.Run by init, so
// every Source's CLI command reaches it without pkg/sources importing
// this package.
//
// The tool registry is not compiled once at startup: per §4.5, a spec's
// own fetch (an auth-gated OpenAPI document) or introspection call (a
// GraphQL endpoint requiring credentials) may depend on per-request
// headers, so compilation is deferred to each session's first tool call
// and run against that session's own captured headers (sessionCompiler,
// below). The one exception is the registry used to advertise the
// process's static tool list (registry, below): mcp-go has no notion of
// a per-session tools/list, so that one compile still runs eagerly,
// using only cfg's own static headers, purely to name the tools.
func RunSource(ctx context.Context, source sources.Source, cfg sources.Config) error {
	sessionCompiler := func(headers map[string]string) (*core.ToolRegistry, error) {
		sessionCfg := cfg
		sessionCfg.CustomHeaders = mergeHeaders(cfg.CustomHeaders, headers)
		descriptors, err := source.Compile(ctx, sessionCfg)
		if err != nil {
			return nil, err
		}
		return core.NewToolRegistry(descriptors), nil
	}

	registry, err := sessionCompiler(nil)
	if err != nil {
		return err
	}
	engine := dispatch.NewEngine(nil)
	sessions := core.NewSessionRegistry()

	mcpServer := buildMCPServer(registry, sessions, engine, sessionCompiler)

	switch cfg.Transport {
	case core.TransportTypeHTTP:
		addr := ":" + cfg.Port
		httpServer := server.NewStreamableHTTPServer(mcpServer, server.WithHTTPContextFunc(newHTTPContextFunc(sessions)))
		if mw := bearerMiddlewareFromEnv(); mw != nil {
			defer mw.Close()
			log.Printf("Starting as http MCP server on %s (bearer auth enabled)...", addr)
			return http.ListenAndServe(addr, mw.Middleware(httpServer))
		}
		log.Printf("Starting as http MCP server on %s...", addr)
		return httpServer.Start(addr)

	case core.TransportTypeSSE:
		addr := ":" + cfg.Port
		sseServer := server.NewSSEServer(mcpServer, server.WithSSEContextFunc(newHTTPContextFunc(sessions)))
		log.Printf("Starting as sse MCP server on %s...", addr)
		return sseServer.Start(addr)

	case core.TransportTypeStdio, "":
		log.Println("Starting as stdio MCP server...")
		if err := server.ServeStdio(mcpServer); err != nil {
			log.Printf("Server error: %v\n", err)
			return err
		}
		return nil

	default:
		return fmt.Errorf("unsupported transport type: %s", cfg.Transport)
	}
}

// mergeHeaders overlays overrides onto base, overrides winning on key
// conflicts. Used to layer a session's captured inbound headers on top of
// a source's static, config-time custom headers before a per-session
// compile.
func mergeHeaders(base, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// buildMCPServer registers every statically-compiled tool against an
// mcp-go server (the only tool list the protocol lets it advertise), each
// bound to a handler that resolves the calling session's own lazily
// compiled registry (if any) and dispatches through engine.
func buildMCPServer(registry *core.ToolRegistry, sessions *core.SessionRegistry, engine *dispatch.Engine, compiler core.RegistryCompiler) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"makemcp-gateway",
		Version,
		server.WithToolCapabilities(true),
	)
	handler := newToolHandler(registry, sessions, engine, compiler)
	for _, descriptor := range registry.All() {
		mcpServer.AddTool(toMcpGoTool(descriptor.Tool), handler)
		log.Printf("Registered tool: %s", descriptor.Tool.Name)
	}
	return mcpServer
}

// newToolHandler builds the mcp-go CallToolRequest handler shared by every
// registered tool. On the http/sse transports it resolves the calling
// session and compiles (or reuses the already-compiled) session-specific
// registry via EnsureRegistry, so the spec load/introspection behind it
// sees that session's own captured headers. stdio has no per-request
// transport to carry a session id, so it always dispatches against the
// process-wide fallback registry compiled at startup.
func newToolHandler(fallback *core.ToolRegistry, sessions *core.SessionRegistry, engine *dispatch.Engine, compiler core.RegistryCompiler) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		registry := fallback
		var headers map[string]string

		if sessionID, ok := sessionIDFromContext(ctx); ok {
			if state, found := sessions.Get(sessionID); found {
				headers = state.Headers
				sessionRegistry, err := state.EnsureRegistry(compiler)
				if err != nil {
					return errorResult(mcperr.Wrap(mcperr.InternalError, "failed to compile tools for this session", err)), nil
				}
				registry = sessionRegistry
			}
		}

		descriptor, ok := registry.Get(request.Params.Name)
		if !ok {
			return errorResult(mcperr.Newf(mcperr.MethodNotFound, "unknown tool %q", request.Params.Name)), nil
		}

		output, err := engine.Invoke(ctx, descriptor, request.GetArguments(), headers)
		if err != nil {
			return errorResult(err), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: output}},
		}, nil
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: err.Error()}},
	}
}

func toMcpGoTool(tool core.McpTool) mcp.Tool {
	return mcp.Tool{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: mcp.ToolInputSchema{
			Type:       tool.InputSchema.Type,
			Properties: tool.InputSchema.Properties,
			Required:   tool.InputSchema.Required,
		},
		Annotations: mcp.ToolAnnotation{
			Title:           tool.Annotations.Title,
			ReadOnlyHint:    tool.Annotations.ReadOnlyHint,
			DestructiveHint: tool.Annotations.DestructiveHint,
			IdempotentHint:  tool.Annotations.IdempotentHint,
			OpenWorldHint:   tool.Annotations.OpenWorldHint,
		},
	}
}

// newHTTPContextFunc mints or resumes a session keyed by the inbound
// Mcp-Session-Id header (falling back to a fresh id when absent) and
// caches every inbound header on it. No registry is compiled here: the
// first call to newToolHandler for this session triggers that session's
// own compile, against these headers, via SessionState.EnsureRegistry.
// Sessions are never evicted; this is a known limitation for
// long-running, high-churn deployments.
func newHTTPContextFunc(sessions *core.SessionRegistry) func(context.Context, *http.Request) context.Context {
	return func(ctx context.Context, r *http.Request) context.Context {
		sessionID := r.Header.Get("Mcp-Session-Id")
		if sessionID == "" {
			sessionID = uuid.New().String()
		}

		headers := make(map[string]string, len(r.Header))
		for name := range r.Header {
			headers[name] = r.Header.Get(name)
		}

		if _, exists := sessions.Get(sessionID); !exists {
			sessions.Open(core.NewSessionState(sessionID, headers))
		}

		return withSessionID(ctx, sessionID)
	}
}

// bearerMiddlewareFromEnv builds inbound JWT Bearer validation from
// environment variables, mirroring the HEADER_* env convention used for
// upstream custom headers. Returns nil when neither key source is
// configured, leaving the gateway open as before.
func bearerMiddlewareFromEnv() *auth.BearerAuthMiddleware {
	jwksURI := os.Getenv("AUTH_JWKS_URI")
	publicKey := os.Getenv("AUTH_PUBLIC_KEY")
	if jwksURI == "" && publicKey == "" {
		return nil
	}

	cacheTTL := 300
	if raw := os.Getenv("AUTH_CACHE_TTL"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			cacheTTL = parsed
		}
	}

	cfg := &auth.BearerAuthConfig{
		Enabled:        true,
		JWKSUri:        jwksURI,
		PublicKey:      publicKey,
		Algorithm:      os.Getenv("AUTH_ALGORITHM"),
		Issuer:         os.Getenv("AUTH_ISSUER"),
		Audience:       os.Getenv("AUTH_AUDIENCE"),
		RequiredScopes: sources.SplitCSV(os.Getenv("AUTH_SCOPES")),
		Required:       os.Getenv("AUTH_REQUIRED") == "true",
		CacheTTL:       cacheTTL,
	}

	mw, err := auth.NewBearerAuthMiddleware(cfg)
	if err != nil {
		log.Printf("bearer auth disabled: %v", err)
		return nil
	}
	return mw
}
