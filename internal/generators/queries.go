package generators

import (
	"context"
	"strings"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
	"ProspectPilot/internal/signals"
)

type queriesResult struct {
	Queries []string `json:"queries"`
}

var _ signals.QueryPlanner = (*Generators)(nil)

// Queries proposes 3-6 search queries for a company and mode, falling back
// to the deterministic per-mode set.
func (g *Generators) Queries(ctx context.Context, s domain.RequestSettings, company, mode, instruction string) []string {
	mode = signals.NormalizeMode(mode)
	system := strings.Join([]string{
		"You generate web news search queries.",
		`Return JSON only: {"queries":["..."]}.`,
		"Each query is short, precise and likely to surface top stories.",
		"Honor the user instruction exactly, including site:, AND/OR, quoted phrases and time hints.",
		"No commentary.",
	}, "\n")
	if instruction == "" {
		instruction = "(none)"
	}
	user := strings.Join([]string{
		"Company: " + company,
		"Mode: " + mode,
		"UserInstruction: " + instruction,
		"",
		"Rules:",
		"- 3 to 6 queries only.",
		"- Quote the company name when helpful.",
		"- Prefer boolean operators and site: filters when relevant.",
		`- Avoid filler words like "latest" or "news".`,
	}, "\n")

	out, _ := generate(ctx, g, s, "news_queries", queriesSchema, ports.JSONRequest{System: system, User: user}, queriesResult{})
	queries := signals.CleanQueries(out.Queries)
	if len(queries) == 0 {
		return signals.FallbackQueries(company, mode)
	}
	return queries
}
