package generators

import (
	"context"
	"strings"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

// BriefFit is the fit verdict passed into the brief.
type BriefFit struct {
	Badge             string `json:"badge"`
	Summary           string `json:"summary"`
	RecommendedAction string `json:"recommendedAction"`
}

// BriefInput carries the signals the brief is allowed to use.
type BriefInput struct {
	Profile          domain.ProfileSnapshot
	Company          string
	Responsibilities string
	Insights         []string
	News             []domain.SignalItem
	Financial        []domain.SignalItem
	Background       []string
	Fit              BriefFit
}

// Brief produces the two-page prospect/account brief. Fields the model does
// not fill stay empty; identity fields default to the profile values.
func (g *Generators) Brief(ctx context.Context, s domain.RequestSettings, in BriefInput) domain.Brief {
	company := orFallback(in.Company, in.Profile.Company)
	identity := domain.ProspectIntel{
		ProspectName:     in.Profile.Name,
		ProspectTitle:    in.Profile.Role,
		ProspectCompany:  company,
		ProspectLocation: in.Profile.Location,
	}

	system := strings.Join([]string{
		"You generate concise, sales-ready prospect and account briefs.",
		"Page 1 is Prospect Intel, page 2 is Account Intel; they help a rep personalize outreach and prepare discovery.",
		"Keep every section short and scannable; prefer lists.",
		"Never invent facts. When data is missing leave the field as an empty string or [].",
		"Return JSON only with exactly the fields of the template.",
	}, "\n")
	user := strings.Join([]string{
		"Return JSON strictly in this shape:",
		`{"page1":{"prospect_name":"","prospect_title":"","prospect_company":"","prospect_location":"","prospect_role_summary":"","prospect_experience":[],"prospect_skills":[],"prospect_connections_or_activity":[],"hooks":[]},` +
			`"page2":{"company_overview":"","company_recent_news":[],"company_challenges":[],"company_tech_stack":[],"company_metrics":"","company_sales_opportunity":"","discovery_questions":[]}}`,
		"",
		"hooks are personalization angles for outreach. company_sales_opportunity is the angle for the seller.",
		"",
		"Input JSON:",
		marshal(map[string]any{
			"profile": identity,
			"signals": map[string]any{
				"responsibilities": in.Responsibilities,
				"insights":         in.Insights,
				"news":             in.News,
				"financial":        in.Financial,
				"background":       in.Background,
				"fit":              in.Fit,
			},
		}),
	}, "\n")

	out, _ := generate(ctx, g, s, "brief", briefSchema, ports.JSONRequest{System: system, User: user}, domain.Brief{Page1: identity})
	return normalizeBrief(out, identity)
}

func normalizeBrief(b domain.Brief, identity domain.ProspectIntel) domain.Brief {
	p1 := &b.Page1
	p1.ProspectName = orFallback(strings.TrimSpace(p1.ProspectName), identity.ProspectName)
	p1.ProspectTitle = orFallback(strings.TrimSpace(p1.ProspectTitle), identity.ProspectTitle)
	p1.ProspectCompany = orFallback(strings.TrimSpace(p1.ProspectCompany), identity.ProspectCompany)
	p1.ProspectLocation = orFallback(strings.TrimSpace(p1.ProspectLocation), identity.ProspectLocation)
	p1.RoleSummary = strings.TrimSpace(p1.RoleSummary)
	p1.Experience = cleanList(p1.Experience, 0, 0)
	p1.Skills = cleanList(p1.Skills, 0, 0)
	p1.ConnectionsOrActivity = cleanList(p1.ConnectionsOrActivity, 0, 0)
	p1.Hooks = cleanList(p1.Hooks, 0, 0)

	p2 := &b.Page2
	p2.CompanyOverview = strings.TrimSpace(p2.CompanyOverview)
	p2.RecentNews = cleanList(p2.RecentNews, 0, 0)
	p2.Challenges = cleanList(p2.Challenges, 0, 0)
	p2.TechStack = cleanList(p2.TechStack, 0, 0)
	p2.Metrics = strings.TrimSpace(p2.Metrics)
	p2.SalesOpportunity = strings.TrimSpace(p2.SalesOpportunity)
	p2.DiscoveryQuestions = cleanList(p2.DiscoveryQuestions, 0, 0)
	return b
}
