package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/lukman83/storefront/internal/storefront"
)

const (
	serverName    = "storefront"
	serverVersion = "1.0.0"
)

func newServer(sf *storefront.Storefront) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)
	registerTools(s, &tools{sf: sf})
	return s
}

// Serve starts the MCP stdio server with all tools registered.
func Serve(sf *storefront.Storefront) error {
	return server.ServeStdio(newServer(sf))
}
