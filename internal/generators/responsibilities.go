package generators

import (
	"context"
	"fmt"
	"strings"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

type textResult struct {
	Text string `json:"text"`
}

// Responsibilities ranks the prospect's likely responsibilities by relevance
// to the vendor. It is never empty when role or company is known.
func (g *Generators) Responsibilities(ctx context.Context, s domain.RequestSettings, profile domain.ProfileSnapshot, company string) string {
	role := strings.TrimSpace(profile.Role)
	var text string
	if role != "" {
		out, _ := generate(ctx, g, s, "responsibilities", textSchema, responsibilitiesRequest(s.Vendor, role, company, profile.Experiences), textResult{})
		text = strings.TrimSpace(out.Text)
	}
	if text == "" && (role != "" || strings.TrimSpace(company) != "") {
		return FallbackResponsibilities(role, company)
	}
	return text
}

// FallbackResponsibilities is the generic, role-relevant list used when the
// model produced nothing.
func FallbackResponsibilities(role, company string) string {
	var who []string
	for _, part := range []string{role, company} {
		if part = strings.TrimSpace(part); part != "" {
			who = append(who, part)
		}
	}
	return strings.Join([]string{
		"Job Responsibilities (with Confidence Levels):",
		"1) Prospects and qualifies opportunities aligned to ICP; runs discovery and pain qualification. [High]",
		"2) Leads product demos, value mapping, and objection handling; collaborates with SEs. [Medium]",
		"3) Builds multi-threaded relationships with economic and technical buyers; navigates procurement. [Medium]",
		"4) Forecasts pipeline, updates CRM hygiene, and manages deal stages to close. [High]",
		"5) Partners with Marketing/CS on handoffs, pilots, and expansions; gathers customer feedback. [Medium]",
		"",
		"Target: " + strings.Join(who, " — "),
	}, "\n")
}

func responsibilitiesRequest(v domain.VendorContext, role, company string, background []string) ports.JSONRequest {
	industry := v.IndustryHint
	if industry == "" {
		industry = "the vendor's industry"
	}
	system := strings.Join([]string{
		"You are a sales intelligence analyst.",
		`Return JSON only: {"text":"..."} where text holds the complete answer.`,
		"Plain text inside text: no Markdown, no bold, no headers.",
		"Separate numbered items with one blank line.",
		"Prioritize relevance to " + industry + ".",
	}, "\n")

	var bg strings.Builder
	if len(background) == 0 {
		bg.WriteString("None provided")
	}
	for i, line := range background {
		fmt.Fprintf(&bg, "%d. %s\n", i+1, line)
	}

	vendorName := v.Name
	if vendorName == "" {
		vendorName = "our solution"
	}
	user := fmt.Sprintf(`Assess this person's likely responsibilities and buying influence for %q.

Job title: %s
Company: %s
Previous experience (most recent first):
%s
Vendor context:
- What we sell: %s
- Value props: %s
- Outcomes: %s
- Industry hint: %s

List 5 to 8 concrete responsibilities ordered by relevance to the vendor context.
Give each a confidence percentage and one line of reasoning tied to the inputs.
Label inferred items "Guess" and say why the guess is reasonable.`,
		vendorName, role, orDash(company), strings.TrimSpace(bg.String()),
		orDash(v.Pitch), joinFirst(v.ValueProps, 5), joinFirst(v.Outcomes, 5), orDash(v.IndustryHint))

	return ports.JSONRequest{System: system, User: user}
}
