package generators

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

// Fit is the classifier verdict. Known is false when the model gave no level,
// in which case callers derive fit from the role instead.
type Fit struct {
	Level       domain.FitLevel
	Confidence  float64
	Reasoning   string
	Notes       string
	SummaryLine string
	Known       bool
}

// Badge renders "{Level} Fit".
func (f Fit) Badge() string {
	return f.Level.Badge()
}

// Summary renders "Confidence N% — reasoning", omitting the prefix when confidence is zero.
func (f Fit) Summary() string {
	text := f.Reasoning
	if text == "" {
		text = f.SummaryLine
	}
	if f.Confidence > 0 {
		return fmt.Sprintf("Confidence %g%% — %s", f.Confidence, text)
	}
	return text
}

type fitResult struct {
	FitLevel    string      `json:"fitLevel"`
	Confidence  json.Number `json:"confidence"`
	Reasoning   string      `json:"reasoning"`
	Notes       string      `json:"notes"`
	SummaryLine string      `json:"summaryLine"`
}

// ClassifyFit judges buying authority from the responsibilities text.
func (g *Generators) ClassifyFit(ctx context.Context, s domain.RequestSettings, responsibilities, role, company string) Fit {
	if strings.TrimSpace(responsibilities) == "" {
		return Fit{}
	}

	system := strings.Join([]string{
		"You are a B2B sales intelligence expert.",
		"Return JSON only with these fields:",
		`{"fitLevel":"Low|Medium|High|Highest","confidence":NUMBER,"reasoning":"...","notes":"...","summaryLine":"Fit: [Level] → Reasoning: ..."}`,
		"Plain text values, no Markdown.",
	}, "\n")
	user := strings.Join([]string{
		"Decide whether this person is a potential buyer based on their responsibilities.",
		"1) Do they hold buying authority, influence or budget control?",
		"2) Classify fit as Low, Medium, High or Highest.",
		"3) Cite evidence from the responsibilities.",
		"4) Say whether this is strong reasoning or an educated guess.",
		"5) Finish the summaryLine as: Fit: [Level] → Reasoning: ...",
		"",
		"Role: " + role,
		"Company: " + company,
		"",
		"Job Responsibilities:",
		responsibilities,
	}, "\n")

	out, _ := generate(ctx, g, s, "fit", fitSchema, ports.JSONRequest{System: system, User: user}, fitResult{})

	level := strings.TrimSpace(out.FitLevel)
	confidence, _ := out.Confidence.Float64()
	return Fit{
		Level:       domain.NormalizeFitLevel(level),
		Confidence:  confidence,
		Reasoning:   strings.TrimSpace(out.Reasoning),
		Notes:       strings.TrimSpace(out.Notes),
		SummaryLine: strings.TrimSpace(out.SummaryLine),
		Known:       level != "",
	}
}
