package domain

import (
	"regexp"
	"strings"
	"time"
)

// Field caps applied to every EnrichmentRecord.
const (
	MaxInsights    = 4
	MaxNews        = 8
	MaxFinancial   = 8
	MaxPlanBullets = 5
)

// FitLevel is the buying-likelihood category.
type FitLevel string

const (
	FitLow     FitLevel = "Low"
	FitMedium  FitLevel = "Medium"
	FitHigh    FitLevel = "High"
	FitHighest FitLevel = "Highest"
)

// ParseFitLevel maps free-form model output onto the fixed vocabulary.
// The boolean is false when nothing recognizable was found.
func ParseFitLevel(s string) (FitLevel, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSpace(strings.TrimSuffix(s, "fit"))
	switch s {
	case "low":
		return FitLow, true
	case "medium", "med", "moderate":
		return FitMedium, true
	case "high":
		return FitHigh, true
	case "highest", "very high":
		return FitHighest, true
	}
	return FitMedium, false
}

// NormalizeFitLevel is ParseFitLevel with the safe Medium default.
func NormalizeFitLevel(s string) FitLevel {
	level, _ := ParseFitLevel(s)
	return level
}

// Badge renders the level as "{Level} Fit".
func (l FitLevel) Badge() string {
	return string(NormalizeFitLevel(string(l))) + " Fit"
}

// ValidBadges lists the only values a record's badge may hold.
var ValidBadges = []string{"Low Fit", "Medium Fit", "High Fit", "Highest Fit"}

// NormalizeBadge coerces any badge text into ValidBadges.
func NormalizeBadge(s string) string {
	return NormalizeFitLevel(s).Badge()
}

// RecommendationFor returns the recommended next step for a fit level.
func RecommendationFor(level FitLevel) string {
	switch level {
	case FitHighest:
		return "Drive budget & timeline. Propose a pilot."
	case FitHigh:
		return "Lead with ROI and proof. Align stakeholders."
	case FitMedium:
		return "Nurture & find a champion. Propose short discovery."
	case FitLow:
		return "Create an internal champion."
	default:
		return "Propose short discovery."
	}
}

// RoleFit is the rule-based classification derived from a role title.
type RoleFit struct {
	Level          FitLevel
	Summary        string
	Recommendation string
}

var (
	reProcurement  = regexp.MustCompile(`procurement|purchas|sourcing|buyer`)
	reFinance      = regexp.MustCompile(`finance|cfo|fp&a|controller`)
	rePractitioner = regexp.MustCompile(`engineer|developer|analyst|tester|designer`)
	reSenior       = regexp.MustCompile(`chief|c[io]o|vp|head|director`)
)

// FitFromRole classifies a prospect from the role alone.
func FitFromRole(role string) RoleFit {
	r := strings.ToLower(role)
	senior := reSenior.MatchString(r)
	switch {
	case reProcurement.MatchString(r):
		return RoleFit{FitHigh, "Direct buyer persona.", "Lead with ROI & risk reduction."}
	case reFinance.MatchString(r):
		level := FitMedium
		if senior {
			level = FitHigh
		}
		return RoleFit{level, "Budget owner focus.", "Quantify savings & payback."}
	case rePractitioner.MatchString(r):
		return RoleFit{FitLow, "Practitioner; limited authority.", "Create an internal champion."}
	case senior:
		return RoleFit{FitHigh, "Potential stakeholder.", "Propose short discovery."}
	default:
		return RoleFit{FitMedium, "Potential stakeholder.", "Propose short discovery."}
	}
}

// ActionPlan is the seller-facing next-step plan.
type ActionPlan struct {
	Paragraph string   `json:"paragraph"`
	Bullets   []string `json:"bullets"`
	CTALine   string   `json:"cta_line"`
}

// Reasons carries diagnostics that explain degraded sections.
type Reasons struct {
	NoCompany  bool     `json:"noCompany"`
	NoRole     bool     `json:"noRole,omitempty"`
	Fallbacks  []string `json:"fallbacks,omitempty"`
	NewsEngine string   `json:"newsEngine,omitempty"`
}

// EnrichmentRecord is the aggregate enrichment for one (profile, vendor) pair.
type EnrichmentRecord struct {
	ID                string       `json:"id,omitempty"`
	ProfileURL        string       `json:"profileUrl"`
	Role              string       `json:"role"`
	Company           string       `json:"company"`
	News              []SignalItem `json:"news"`
	Financial         []SignalItem `json:"financial"`
	Responsibilities  string       `json:"responsibilities"`
	Insights          []string     `json:"insights"`
	FitSummary        string       `json:"fitSummary"`
	FitBadge          string       `json:"fitBadge"`
	RecommendedAction string       `json:"recommendedAction"`
	ActionPlan        ActionPlan   `json:"actionPlan"`
	Background        []string     `json:"background"`
	Reasons           Reasons      `json:"reasons"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// Normalize enforces field caps, the badge vocabulary and non-nil lists.
func (r EnrichmentRecord) Normalize() EnrichmentRecord {
	r.News = capItems(r.News, MaxNews)
	r.Financial = capItems(r.Financial, MaxFinancial)
	r.Insights = capStrings(r.Insights, MaxInsights)
	r.ActionPlan.Bullets = capStrings(r.ActionPlan.Bullets, MaxPlanBullets)
	r.Background = capStrings(r.Background, MaxBackgroundLines)
	r.FitBadge = NormalizeBadge(r.FitBadge)
	return r
}

// Stale reports whether the record must be recomputed for the given snapshot.
func (r EnrichmentRecord) Stale(now time.Time, window time.Duration, role, company string) bool {
	if now.Sub(r.CreatedAt) >= window {
		return true
	}
	return changed(r.Role, role) || changed(r.Company, company)
}

// An empty current value means the scrape missed the field, not that it changed.
func changed(stored, current string) bool {
	current = strings.TrimSpace(current)
	return current != "" && !strings.EqualFold(strings.TrimSpace(stored), current)
}

func capItems(items []SignalItem, n int) []SignalItem {
	if items == nil {
		return []SignalItem{}
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}

func capStrings(items []string, n int) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it) == "" {
			continue
		}
		out = append(out, it)
		if len(out) == n {
			break
		}
	}
	return out
}
