package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/statetree"
	httpAdapter "github.com/aretw0/statetree/internal/adapters/http"
	mcpAdapter "github.com/aretw0/statetree/internal/adapters/mcp"
	"github.com/aretw0/statetree/internal/config"
)

// MCPOptions controls the MCP server.
type MCPOptions struct {
	// Transport is "stdio" (default) or "sse".
	Transport string
	// Addr is the listen address of the SSE transport.
	Addr string
}

// ServeMCP exposes the sessions of every area to agents over MCP.
func ServeMCP(cfg config.Config, opts MCPOptions) error {
	logger, err := createLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	engine, backend, err := createEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	srv := mcpAdapter.NewServer(engine, statetree.Version, mcpAdapter.WithLogger(logger))

	switch opts.Transport {
	case "", "stdio":
		// Stdout carries JSON-RPC; logs already go to stderr.
		logger.Info("Starting MCP Server (Stdio)")
		return srv.ServeStdio()
	case "sse":
		sigCtx := NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		if err := backend.Ping(sigCtx); err != nil {
			return err
		}
		logger.Info("Starting MCP Server (SSE)", "addr", opts.Addr)
		return httpAdapter.ListenAndServe(sigCtx, opts.Addr, srv.SSEHandler(baseURL(opts.Addr)), logger)
	}
	return fmt.Errorf("unknown transport %q: supported are stdio and sse", opts.Transport)
}

// baseURL turns a listen address into the URL clients reach it at.
func baseURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
