package generators

import (
	"context"
	"strings"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

const maxActivitySnippets = 15

type itemsResult struct {
	Items []string `json:"items"`
}

// Insights extracts at most domain.MaxInsights neutral bullets from recent activity.
func (g *Generators) Insights(ctx context.Context, s domain.RequestSettings, profile domain.ProfileSnapshot) []string {
	posts := cleanList(profile.Posts, maxActivitySnippets, 0)
	if len(posts) == 0 {
		return []string{}
	}

	industry := s.Vendor.IndustryHint
	if industry == "" {
		industry = "the seller's industry"
	}
	system := strings.Join([]string{
		"You analyze a person's professional network activity: posts, comments, likes, reposts and shares.",
		"Return up to 4 concrete insights about themes, interests, tools or markets they care about, in chronological order.",
		"Each bullet is at most 18 words, neutral and specific. Never state facts the snippets do not show.",
		`Output JSON only: {"items":["...","..."]}.`,
		"When the context is broad, prefer insights relevant to " + industry + ".",
	}, "\n")
	user := marshal(map[string]any{
		"profile": map[string]string{
			"name":    profile.Name,
			"role":    profile.Role,
			"company": profile.Company,
		},
		"activity_snippets": posts,
	})

	out, _ := generate(ctx, g, s, "insights", itemsSchema, ports.JSONRequest{System: system, User: user}, itemsResult{Items: []string{}})
	return cleanList(out.Items, domain.MaxInsights, 0)
}
