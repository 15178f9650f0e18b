// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mres-project/mres/internal/contract"
)

// NewMCPServer initializes and configures the MRES MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"MRES Resilience Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	s.AddTool(mcp.NewTool("compute_rrl",
		mcp.WithDescription("Compute per-building Resilience Readiness Levels from the indicator tables of a directory. Lower is more resilient."),
		mcp.WithString("dir", mcp.Description("Directory holding <hazard>_indicators.csv files (defaults to the server working directory).")),
		mcp.WithString("hazards", mcp.Description("Comma separated hazards (heat, seismic, wind, flood). Defaults to all.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of scores returned per hazard.")),
	), h.handleComputeRRL)

	s.AddTool(mcp.NewTool("merge_rrl",
		mcp.WithDescription("Merge RRL scores into the exposure GeoJSON of a directory as <hazard>_rrl feature properties."),
		mcp.WithString("dir", mcp.Description("Directory holding the exposure file and indicator tables.")),
		mcp.WithString("hazards", mcp.Description("Comma separated hazards. Defaults to all.")),
		mcp.WithBoolean("dry_run", mcp.Description("Compute and report without writing the exposure file. Defaults to true.")),
		mcp.WithString("exposure_output", mcp.Description("Write the updated collection here instead of in place.")),
	), h.handleMergeRRL)

	s.AddTool(mcp.NewTool("list_fields",
		mcp.WithDescription("List the required indicator fields, their ranges and the RRL formula per hazard."),
		mcp.WithString("hazards", mcp.Description("Comma separated hazards. Defaults to all.")),
	), h.handleListFields)

	return s
}

// StartMCPServer starts the MRES MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
