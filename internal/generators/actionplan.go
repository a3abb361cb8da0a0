package generators

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

const (
	maxPlanParagraph = 800
	maxPlanCTA       = 240
	planTemperature  = 0.15
)

// PlanInput gathers every signal the action plan fuses.
type PlanInput struct {
	Profile          domain.ProfileSnapshot
	Company          string
	Responsibilities string
	Insights         []string
	News             []domain.SignalItem
	Financial        []domain.SignalItem
	Background       []string
	Fit              domain.FitLevel
}

type planResult struct {
	Paragraph string   `json:"paragraph"`
	Bullets   []string `json:"bullets"`
	CTALine   string   `json:"cta_line"`
}

// ActionPlan writes a seller-facing paragraph, 3-5 imperative bullets and one
// internal CTA sentence.
func (g *Generators) ActionPlan(ctx context.Context, s domain.RequestSettings, in PlanInput) domain.ActionPlan {
	system := strings.Join([]string{
		"You are a senior B2B sales strategist explaining to the vendor team how to sell to this prospect. Return JSON only.",
		"The system prompt carries a CRITICAL VENDOR CONTEXT block; treat it as ground truth. Never ask for vendor fields and never invent customers.",
		"Write for the seller, never the prospect: third person about the prospect, imperative bullets, no greetings or sign-offs.",
		"Tie vendor value_props and outcomes to this prospect's role, responsibilities, activity and company news.",
		"Bullets: 3 to 5, each starting with a strong verb, 10 to 16 words.",
		"If the contact may not be the buyer, include a referral or multithreading bullet aimed at vendor.personas.",
		"Reference only integrations, proof_points or case_studies present in the vendor block.",
		"Include one crisp discovery question tied to the role or company signals.",
		"cta_line is one internal next step for the seller, at most 140 characters; use vendor.cta_preference and include booking_url when present.",
		`Output exactly: {"paragraph":"80-120 words","bullets":["..."],"cta_line":"..."}`,
	}, "\n")

	user := marshal(map[string]any{
		"fit_badge": string(in.Fit),
		"profile": map[string]string{
			"name":     in.Profile.Name,
			"role":     in.Profile.Role,
			"company":  in.Company,
			"location": in.Profile.Location,
		},
		"signals": map[string]any{
			"responsibilities": in.Responsibilities,
			"insights":         in.Insights,
			"news":             domain.Titles(in.News),
			"financial":        domain.Titles(in.Financial),
			"background":       in.Background,
		},
	})

	out, ok := generate(ctx, g, s, "action_plan", planSchema, ports.JSONRequest{System: system, User: user, Temperature: planTemperature}, planResult{})
	plan := domain.ActionPlan{
		Paragraph: domain.Truncate(strings.TrimSpace(out.Paragraph), maxPlanParagraph),
		Bullets:   cleanList(out.Bullets, domain.MaxPlanBullets, 0),
		CTALine:   domain.Truncate(strings.TrimSpace(out.CTALine), maxPlanCTA),
	}
	if !ok || len(plan.Bullets) == 0 {
		return FallbackActionPlan(s.Vendor, in)
	}
	return plan
}

// FallbackActionPlan is a deterministic plan built only from known fields.
func FallbackActionPlan(v domain.VendorContext, in PlanInput) domain.ActionPlan {
	company := in.Company
	if company == "" {
		company = "the account"
	}
	role := in.Profile.Role
	if role == "" {
		role = "this contact"
	}

	bullets := []string{
		fmt.Sprintf("Map the buying committee at %s and confirm who owns budget for this problem.", company),
	}
	switch in.Fit {
	case domain.FitHigh, domain.FitHighest:
		valueProp := "the core value proposition"
		if vp := cleanList(v.ValueProps, 1, 0); len(vp) > 0 {
			valueProp = vp[0]
		}
		bullets = append(bullets, fmt.Sprintf("Open with %s framed around outcomes that matter to a %s.", valueProp, role))
	default:
		persona := "the economic buyer"
		if p := cleanList(v.Personas, 1, 0); len(p) > 0 {
			persona = p[0]
		}
		bullets = append(bullets, fmt.Sprintf("Ask %s for a referral to %s to multithread the opportunity early.", orFallback(in.Profile.FirstName(), "the prospect"), persona))
	}
	bullets = append(bullets, fmt.Sprintf("Prepare one discovery question on current priorities for a %s at %s.", role, company))

	cta := v.CTA()
	if v.BookingURL != "" {
		cta += " via " + v.BookingURL
	}
	valueProp := "a clear business outcome"
	if vp := cleanList(v.ValueProps, 1, 0); len(vp) > 0 {
		valueProp = vp[0]
	}
	paragraph := fmt.Sprintf("Position %s with the %s at %s by tying the first conversation to %s.",
		orFallback(v.Name, "your offer"), orFallback(in.Profile.Role, "buying team"), company, valueProp)
	return domain.ActionPlan{
		Paragraph: domain.Truncate(paragraph, maxPlanParagraph),
		Bullets:   bullets,
		CTALine:   domain.Truncate("Prep a 15-minute discovery outline, then "+lowerFirst(cta)+".", maxPlanCTA),
	}
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

func orFallback(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
