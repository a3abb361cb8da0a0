package generators

import (
	"context"
	"strings"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

type summariesResult struct {
	Summaries []*string `json:"summaries"`
}

// HeadlineSummaries attaches one neutral 18-28 word summary to each item that
// does not already carry one. Items keep their order; missing summaries stay empty.
func (g *Generators) HeadlineSummaries(ctx context.Context, s domain.RequestSettings, company string, items []domain.SignalItem) []domain.SignalItem {
	if len(items) == 0 {
		return items
	}
	pending := false
	for _, it := range items {
		if it.Summary == "" {
			pending = true
			break
		}
	}
	if !pending {
		return items
	}

	system := strings.Join([]string{
		"You are a news desk assistant.",
		"Given headlines about a target company, write one neutral summary per headline, 18 to 28 words each.",
		`Return JSON only: {"summaries":["..."]}.`,
		"Plain text only.",
	}, "\n")
	titles := domain.Titles(items)
	if len(titles) > domain.MaxNews {
		titles = titles[:domain.MaxNews]
	}
	user := marshal(map[string]any{"company": company, "headlines": titles})

	out, _ := generate(ctx, g, s, "headline_summaries", summariesSchema, ports.JSONRequest{System: system, User: user}, summariesResult{})

	result := make([]domain.SignalItem, len(items))
	copy(result, items)
	for i := range result {
		if result[i].Summary != "" || i >= len(out.Summaries) || out.Summaries[i] == nil {
			continue
		}
		result[i].Summary = strings.TrimSpace(*out.Summaries[i])
	}
	return result
}
