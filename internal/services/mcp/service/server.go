// Package service hosts the oracle MCP server.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/oppajeom/oppajeom/internal/core/hexagram/catalog"
	"github.com/oppajeom/oppajeom/internal/services/mcp/domain"
)

const (
	serverName    = "oppajeom"
	serverVersion = "0.1.0"
)

// Server exposes the hexagram tools over MCP.
type Server struct {
	mcpServer *mcp.Server
}

// New registers the tools against c, or the embedded catalog when c is nil.
func New(c *catalog.Catalog) (*Server, error) {
	if c == nil {
		var err error
		if c, err = catalog.Default(); err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	mcp.AddTool(mcpServer, domain.CastHexagramTool(), domain.CastHexagramHandler(c))
	mcp.AddTool(mcpServer, domain.LookupHexagramTool(), domain.LookupHexagramHandler(c))
	mcp.AddTool(mcpServer, domain.WeeklyFocusTool(), domain.WeeklyFocusHandler(c))
	return &Server{mcpServer: mcpServer}, nil
}

// Serve runs on stdio until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
