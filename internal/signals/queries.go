package signals

import (
	"context"
	"fmt"
	"strings"

	"ProspectPilot/internal/domain"
)

// MaxQueries caps how many search queries one feed fetch may issue.
const MaxQueries = 6

// Modes understood by the query planner.
const (
	ModeFinancial    = "financial"
	ModeProduct      = "product"
	ModeHiring       = "hiring"
	ModeRisk         = "risk"
	ModeExec         = "exec"
	ModePartnerships = "partnerships"
	ModeGeneric      = "generic"
)

// QueryPlanner proposes targeted search queries for a company and mode.
type QueryPlanner interface {
	Queries(ctx context.Context, settings domain.RequestSettings, company, mode, instruction string) []string
}

var fallbackTemplates = map[string][]string{
	ModeFinancial: {
		`"%s" earnings OR results OR revenue OR guidance`,
		`"%s" profit OR loss OR outlook`,
		`"%s" funding OR acquisition OR IPO OR merger`,
	},
	ModeProduct: {
		`"%s" product launch OR feature OR AI`,
		`"%s" roadmap OR release OR update`,
		`"%s" integration OR partnership`,
	},
	ModeHiring: {
		`"%s" hiring OR layoffs OR headcount`,
		`"%s" new office OR expansion`,
		`"%s" appoints OR joins as`,
	},
	ModeRisk: {
		`"%s" lawsuit OR investigation OR breach`,
		`"%s" recall OR outage OR fine`,
		`"%s" downgrade OR warning`,
	},
	ModeExec: {
		`"%s" CEO OR CFO OR CTO interview`,
		`"%s" appoints OR steps down`,
		`"%s" keynote OR conference`,
	},
	ModePartnerships: {
		`"%s" partnership OR alliance`,
		`"%s" integration OR collaboration`,
		`"%s" signs agreement OR contract`,
	},
	ModeGeneric: {
		`"%s" announcement`,
		`"%s" interview OR CEO`,
		`"%s" partnership OR expansion`,
	},
}

// NormalizeMode maps unknown modes to ModeGeneric.
func NormalizeMode(mode string) string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if _, ok := fallbackTemplates[mode]; ok {
		return mode
	}
	return ModeGeneric
}

// FallbackQueries is the deterministic query set for a mode.
func FallbackQueries(company, mode string) []string {
	templates := fallbackTemplates[NormalizeMode(mode)]
	out := make([]string, 0, len(templates))
	for _, tpl := range templates {
		out = append(out, fmt.Sprintf(tpl, company))
	}
	return out
}

// CleanQueries trims, dedupes case-insensitively and caps at MaxQueries.
func CleanQueries(queries []string) []string {
	out := make([]string, 0, MaxQueries)
	seen := map[string]struct{}{}
	for _, q := range queries {
		q = strings.TrimSpace(q)
		key := strings.ToLower(q)
		if q == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
		if len(out) == MaxQueries {
			break
		}
	}
	return out
}

// DefaultInstruction is used when the request does not carry one.
func DefaultInstruction(industry string) string {
	if strings.TrimSpace(industry) == "" {
		return "Prioritize items relevant to the seller's industry"
	}
	return "Prioritize items relevant to " + industry
}
