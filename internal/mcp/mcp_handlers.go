package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mres-project/mres/core"
	"github.com/mres-project/mres/core/rrl"
	"github.com/mres-project/mres/internal/contract"
	"github.com/mres-project/mres/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// scoresResult is the payload of compute_rrl.
type scoresResult struct {
	Hazards []schema.HazardResult          `json:"hazards"`
	Scores  []schema.EnrichedBuildingScore `json:"scores"`
}

// configFor applies the common dir and hazards arguments to a copy of the base config.
func (h *toolHandler) configFor(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if d := request.GetString("dir", ""); d != "" {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("invalid dir: %w", err)
		}
		cfg.Dir = abs
	}
	if s := request.GetString("hazards", ""); s != "" {
		hazards, err := contract.ParseHazards(s)
		if err != nil {
			return nil, err
		}
		cfg.Hazards = hazards
	}
	return cfg, nil
}

func (h *toolHandler) handleComputeRRL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}

	out, err := core.GetScoreResults(core.WithSuppressProgress(ctx), cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}
	out = core.LimitScores(out, cfg.ResultLimit)

	jsonData, _ := json.MarshalIndent(scoresResult{
		Hazards: out.Hazards,
		Scores:  schema.EnrichScores(out.AllScores()),
	}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleMergeRRL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	cfg.DryRun = request.GetBool("dry_run", true)
	if o := request.GetString("exposure_output", ""); o != "" {
		cfg.ExposureOutput = o
	}

	out, err := core.GetMergeResults(core.WithSuppressProgress(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("merge failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(out, "", "  ")
	if failed := out.FailedHazards(); len(failed) > 0 {
		return mcp.NewToolResultError(fmt.Sprintf("%v: %v\n%s", core.ErrHazardsFailed, failed, jsonData)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListFields(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hazards, err := contract.ParseHazards(request.GetString("hazards", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	var defs []schema.FieldDefinition
	for _, def := range rrl.Definitions() {
		if slices.Contains(hazards, def.Hazard) {
			defs = append(defs, def)
		}
	}

	jsonData, _ := json.MarshalIndent(defs, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
