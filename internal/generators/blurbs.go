package generators

import (
	"context"
	"strings"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

const (
	maxBlurbs    = 3
	maxBlurbSize = 100
)

type blurbsResult struct {
	Blurbs []string `json:"blurbs"`
}

// BackgroundBlurbs condenses background lines into at most three one-sentence
// company blurbs of at most 100 characters.
func (g *Generators) BackgroundBlurbs(ctx context.Context, s domain.RequestSettings, company string, lines []string) []string {
	lines = cleanList(lines, domain.MaxBackgroundLines, 0)
	if len(lines) == 0 {
		return []string{}
	}
	system := "You write extremely concise one-sentence company blurbs, each at most 100 characters, without numbering. Return JSON only: {\"blurbs\":[\"...\"]}."
	user := "Current company: " + orFallback(company, "(unknown)") + "\nBackground lines:\n" + strings.Join(lines, "\n") + "\n\nReturn up to 3 distinct company blurbs."

	out, _ := generate(ctx, g, s, "background_blurbs", blurbsSchema, ports.JSONRequest{System: system, User: user}, blurbsResult{Blurbs: []string{}})
	return cleanList(out.Blurbs, maxBlurbs, maxBlurbSize)
}
