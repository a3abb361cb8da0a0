package generators

import (
	"context"
	"strings"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

const (
	maxFollowUps   = 3
	maxChatHistory = 14
)

// ChatInput is one assistant turn: scraped context, collected facts and recent history.
type ChatInput struct {
	Context   domain.ProfileSnapshot
	History   []domain.ChatTurn
	Collected map[string]any
}

// NoVendorReply is returned when the seller has not configured a company name.
func NoVendorReply() domain.ChatReply {
	return domain.ChatReply{
		Reply:     "No vendor profile found. Please set at least your company name in the vendor profile.",
		FollowUps: []string{"Open Vendor Profile", "What info do you need from me?"},
		Updates:   map[string]any{},
	}
}

// ChatReply answers the operator's question from the profile and vendor context.
func (g *Generators) ChatReply(ctx context.Context, s domain.RequestSettings, in ChatInput) domain.ChatReply {
	v := s.Vendor
	if strings.TrimSpace(v.Name) == "" {
		return NoVendorReply()
	}

	history := in.History
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}
	collected := in.Collected
	if collected == nil {
		collected = map[string]any{}
	}

	system := strings.Join([]string{
		"You are a proactive sales copilot embedded next to a professional profile. Address the operator as 'Boss'.",
		"Keep OUR COMPANY (the seller) and THEIR COMPANY (the prospect in ctx.company) clearly separate.",
		"OUR COMPANY: " + v.Name + " - " + v.Pitch,
		"Vendor value props: " + joinFirst(v.ValueProps, 5),
		"Vendor outcomes: " + joinFirst(v.Outcomes, 5),
		"Industry hint: " + orDash(v.IndustryHint),
		"Answer directly from ctx and the vendor context. Ask at most one short follow-up question, only when the answer is impossible without it.",
		"Never invent facts. Keep answers sales-useful: crisp bullets or a short paragraph, plain text.",
		"Suggest at most 3 quick actions as followups. Put any facts the operator told you into updates.",
		`Return JSON only: {"reply":"...","followups":["..."],"updates":{}}.`,
	}, "\n")
	user := marshal(map[string]any{
		"ctx":       in.Context,
		"collected": collected,
		"vendor": map[string]any{
			"name":             v.Name,
			"pitch":            v.Pitch,
			"valueProps":       v.ValueProps,
			"outcomes":         v.Outcomes,
			"customerExamples": v.CustomerExamples,
			"industryHint":     v.IndustryHint,
		},
		"history": history,
	})

	fallback := domain.ChatReply{
		Reply:     "Ask me anything about this person or their company. I answer directly from the profile and our vendor context.",
		FollowUps: []string{"Show recent company news", "Summarize responsibilities", "What are their current challenges?"},
		Updates:   map[string]any{},
	}
	out, _ := generate(ctx, g, s, "chat", chatSchema, ports.JSONRequest{System: system, User: user}, fallback)

	out.Reply = strings.TrimSpace(out.Reply)
	out.FollowUps = cleanList(out.FollowUps, maxFollowUps, 0)
	if out.Updates == nil {
		out.Updates = map[string]any{}
	}
	return out
}

// ChatGreeting is the opening turn of a new session.
func ChatGreeting(profile domain.ProfileSnapshot) domain.ChatReply {
	target := orFallback(strings.TrimSpace(profile.Name), "this person")
	company := orFallback(strings.TrimSpace(profile.Company), "their company")
	return domain.ChatReply{
		Reply:     "Hey Boss. Ask me anything about " + target + " or " + company + "; I answer directly from the profile and our vendor context.",
		FollowUps: []string{"Yes, quick brief", "Recent company news", "What are their current challenges?"},
		Updates:   map[string]any{},
	}
}
