package generators

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

var manyBlankLines = regexp.MustCompile(`\n{3,}`)

// EmailInput carries the signals an outreach email may draw on.
type EmailInput struct {
	Profile          domain.ProfileSnapshot
	Company          string
	Tone             string
	Responsibilities string
	Insights         []string
	News             []domain.SignalItem
	Financial        []domain.SignalItem
	Background       []string
}

type emailResult struct {
	Email string `json:"email"`
}

// Email drafts a 120-150 word first-touch email. Only vendor-approved customer
// examples may be named; the CTA preference is used verbatim.
func (g *Generators) Email(ctx context.Context, s domain.RequestSettings, in EmailInput) string {
	v := s.Vendor
	tone := in.Tone
	if tone == "" {
		tone = v.Tone
	}
	if tone == "" {
		tone = "Professional"
	}
	firstName := in.Profile.FirstName()
	vendorName := orFallback(v.Name, "our platform")
	industry := orFallback(v.IndustryHint, "your industry")
	examples := cleanList(v.CustomerExamples, 4, 0)

	opening := firstName + ","
	if firstName == "" {
		opening = "Hi there,"
	}
	system := strings.Join([]string{
		"You are a senior SDR writing a concise, friendly first-touch prospecting email.",
		`Return JSON only: {"email":"..."}. No other fields, no Markdown, no emojis.`,
		"Length: 120 to 150 words.",
		"Tone: " + tone + ", clear, specific, value-led.",
		"Start with `" + opening + "`.",
		"Derive the opening problem from the responsibilities, news and financial signals for the prospect's role.",
		"When responsibility signals are thin, phrase cautiously.",
		"Only name peer companies listed in customerExamples. If none are listed, say 'other leaders in " + industry + "' instead of naming anyone.",
		"Refer to the offering as " + vendorName + " and use its pitch once.",
		"Emphasize at most 2 value props tied to outcomes.",
		"Use this CTA preference verbatim in the closing ask: " + v.CTA() + ".",
		"Booking URL to include once in the CTA: " + orFallback(v.BookingURL, "(none)") + ".",
		"Website to reference once in the body: " + orFallback(v.Website, "(none)") + ".",
		"End with one friendly, time-bound ask for a 15-20 minute call next week, or invite a referral if they are not the right person.",
		"No placeholders. Do not claim to have read articles. Do not invent metrics, tools or customers.",
		"Close with 'Best,'.",
	}, "\n")
	user := marshal(map[string]any{
		"profile": map[string]string{
			"firstName": firstName,
			"fullName":  in.Profile.Name,
			"role":      in.Profile.Role,
			"company":   in.Company,
			"location":  in.Profile.Location,
		},
		"signals": map[string]any{
			"responsibilities": in.Responsibilities,
			"insights":         in.Insights,
			"news":             domain.Titles(in.News),
			"financial":        domain.Titles(in.Financial),
			"background":       in.Background,
		},
		"vendor": map[string]any{
			"name":             vendorName,
			"pitch":            v.Pitch,
			"valueProps":       cleanList(v.ValueProps, 5, 0),
			"outcomes":         cleanList(v.Outcomes, 5, 0),
			"customerExamples": examples,
			"industryHint":     v.IndustryHint,
		},
	})

	out, _ := generate(ctx, g, s, "email", emailSchema, ports.JSONRequest{System: system, User: user}, emailResult{})
	body := strings.TrimSpace(out.Email)
	if body == "" {
		body = fallbackEmail(v, in, opening)
	}
	return FinishEmail(body, v)
}

// FinishEmail normalizes escaped whitespace and guarantees the CTA, website,
// booking link and signature each appear once. Additions go above the closing.
func FinishEmail(body string, v domain.VendorContext) string {
	body = strings.ReplaceAll(body, "\r", "")
	body = strings.ReplaceAll(body, `\n`, "\n")
	body = strings.ReplaceAll(body, `\t`, "\t")
	body = manyBlankLines.ReplaceAllString(body, "\n\n")
	body = strings.TrimSpace(body)

	head, closing := splitClosing(body)
	cta := v.CTA()
	if !strings.Contains(strings.ToLower(body), strings.ToLower(cta)) {
		head += "\n\n" + cta + "?"
	}
	if website := strings.TrimSpace(v.Website); website != "" && !strings.Contains(body, website) {
		head += "\n\nMore about us: " + website
	}
	if booking := strings.TrimSpace(v.BookingURL); booking != "" && !strings.Contains(body, booking) {
		head += "\n\nQuick scheduling link: " + booking
	}
	signature := strings.TrimSpace(strings.ReplaceAll(v.Signature, `\n`, "\n"))
	if signature != "" && !strings.Contains(body, signature) {
		if closing == "" {
			closing = "Best,"
		}
		closing += "\n" + signature
	}
	if closing == "" {
		return strings.TrimSpace(head)
	}
	return strings.TrimSpace(head + "\n\n" + closing)
}

func splitClosing(body string) (head, closing string) {
	if strings.HasPrefix(body, "Best,") {
		return "", body
	}
	if i := strings.LastIndex(body, "\nBest,"); i >= 0 {
		return strings.TrimSpace(body[:i]), strings.TrimSpace(body[i+1:])
	}
	return body, ""
}

func fallbackEmail(v domain.VendorContext, in EmailInput, opening string) string {
	company := orFallback(in.Company, "your team")
	vendorName := orFallback(v.Name, "our platform")
	industry := orFallback(v.IndustryHint, "your industry")

	var b strings.Builder
	b.WriteString(opening + "\n\n")
	if in.Profile.Role != "" {
		fmt.Fprintf(&b, "Is it fair to say that, as %s at %s, your focus includes getting more from the tools and processes your team already has?\n\n", in.Profile.Role, company)
	} else {
		fmt.Fprintf(&b, "I am reaching out because teams at %s often face the challenges we help with.\n\n", company)
	}
	fmt.Fprintf(&b, "%s", vendorName)
	if v.Pitch != "" {
		fmt.Fprintf(&b, " is %s", strings.TrimSuffix(v.Pitch, "."))
	}
	b.WriteString(".")
	if vp := cleanList(v.ValueProps, 2, 0); len(vp) > 0 {
		fmt.Fprintf(&b, " We help teams %s", strings.Join(vp, " and "))
		if oc := cleanList(v.Outcomes, 1, 0); len(oc) > 0 {
			fmt.Fprintf(&b, " to improve %s", oc[0])
		}
		b.WriteString(".")
	}
	fmt.Fprintf(&b, " Other leaders in %s use this approach to move faster.\n\n", industry)
	fmt.Fprintf(&b, "%s? Open to 15 minutes Tue or Wed afternoon next week? If someone else owns this, I would appreciate a pointer.\n\nBest,", v.CTA())
	return b.String()
}
