package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/pario-ai/pokegate/pkg/client"
	"github.com/pario-ai/pokegate/pkg/models"
)

type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

type tool struct {
	def    ToolDefinition
	handle toolHandler
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

var tools = []tool{
	{
		def: ToolDefinition{
			Name:        "pokegate_details",
			Description: "Fetch the full reference record of a Pokémon by name or national dex number.",
			InputSchema: map[string]any{
				"type":     "object",
				"required": []string{"name"},
				"properties": map[string]any{
					"name": stringProp("Pokémon name or id, e.g. pikachu or 25"),
				},
			},
		},
		handle: handleDetails,
	},
	{
		def: ToolDefinition{
			Name:        "pokegate_insight",
			Description: "Generate a strategic insight for a Pokémon. Falls back to a template when generation fails.",
			InputSchema: map[string]any{
				"type":     "object",
				"required": []string{"name"},
				"properties": map[string]any{
					"name":   stringProp("Pokémon name or id"),
					"lang":   stringProp("pt, en or es (optional, defaults to pt)"),
					"format": stringProp("markdown, html or text (optional, defaults to markdown)"),
					"model":  stringProp("model alias (optional)"),
				},
			},
		},
		handle: handleInsight,
	},
	{
		def: ToolDefinition{
			Name:        "pokegate_batch",
			Description: "Look up several Pokémon at once and report which names could not be resolved.",
			InputSchema: map[string]any{
				"type":     "object",
				"required": []string{"names"},
				"properties": map[string]any{
					"names": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Pokémon names or ids",
					},
				},
			},
		},
		handle: handleBatch,
	},
	{
		def: ToolDefinition{
			Name:        "pokegate_metrics",
			Description: "Show gateway counters: requests, cache hits and misses, generation errors and fallbacks.",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		},
		handle: handleMetrics,
	},
	{
		def: ToolDefinition{
			Name:        "pokegate_audit_search",
			Description: "Search audited insight resolutions with optional filters.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"pokemon": stringProp("Filter by Pokémon name (optional)"),
					"source":  stringProp("ai or fallback (optional)"),
					"since":   stringProp("Start date in YYYY-MM-DD format (optional)"),
				},
			},
		},
		handle: handleAuditSearch,
	},
}

func toolDefinitions() []ToolDefinition {
	defs := make([]ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = t.def
	}
	return defs
}

func toolByName(name string) (tool, bool) {
	for _, t := range tools {
		if t.def.Name == name {
			return t, true
		}
	}
	return tool{}, false
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}

// gatewayError renders a failed gateway call for the model.
func gatewayError(action string, err error) ToolCallResult {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return errorResult(action + ": " + apiErr.Message)
	}
	return errorResult(action + ": " + err.Error())
}

type nameArgs struct {
	Name string `json:"name"`
}

func handleDetails(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args nameArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	if strings.TrimSpace(args.Name) == "" {
		return errorResult("name is required")
	}
	raw, err := s.gw.Details(ctx, args.Name)
	if err != nil {
		return gatewayError("Error fetching details", err)
	}
	var p models.Pokemon
	if err := json.Unmarshal(raw, &p); err != nil {
		return errorResult("Error decoding details: " + err.Error())
	}
	return textResult(formatPokemon(p))
}

type insightArgs struct {
	Name   string `json:"name"`
	Lang   string `json:"lang"`
	Format string `json:"format"`
	Model  string `json:"model"`
}

func handleInsight(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args insightArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	if strings.TrimSpace(args.Name) == "" {
		return errorResult("name is required")
	}
	res, err := s.gw.Insight(ctx, args.Name, client.InsightQuery{
		Lang:   args.Lang,
		Format: args.Format,
		Model:  args.Model,
	})
	if err != nil {
		return gatewayError("Error generating insight", err)
	}
	return textResult(formatInsight(res))
}

type batchArgs struct {
	Names []string `json:"names"`
}

func handleBatch(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args batchArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	if len(args.Names) == 0 {
		return errorResult("names must be a non-empty list")
	}
	out, err := s.gw.Batch(ctx, args.Names)
	if err != nil {
		return gatewayError("Error running batch", err)
	}
	return textResult(formatBatch(out))
}

func handleMetrics(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	snap, err := s.gw.Metrics(ctx)
	if err != nil {
		return gatewayError("Error fetching metrics", err)
	}
	return textResult(formatMetrics(snap))
}

type auditSearchArgs struct {
	Pokemon string `json:"pokemon"`
	Source  string `json:"source"`
	Since   string `json:"since"`
}

func handleAuditSearch(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	if s.auditor == nil {
		return textResult("Audit logging is not configured.")
	}
	var args auditSearchArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}

	opts := models.AuditQueryOpts{
		Pokemon: strings.ToLower(args.Pokemon),
		Source:  models.InsightSource(args.Source),
		Limit:   50,
	}
	if args.Since != "" {
		t, err := time.Parse("2006-01-02", args.Since)
		if err != nil {
			return errorResult("Invalid since date (use YYYY-MM-DD): " + err.Error())
		}
		opts.Since = t
	}

	records, err := s.auditor.Query(ctx, opts)
	if err != nil {
		return errorResult("Error searching audit log: " + err.Error())
	}
	return textResult(formatAuditRecords(records))
}
