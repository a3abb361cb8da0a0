package domain

import (
	"encoding/json"
	"strings"
)

const (
	defaultTone = "Professional"
	defaultCTA  = "Book a demo"
)

// VendorContext is the seller-side configuration that biases every generator.
// It is loaded once per request and read-only afterwards.
type VendorContext struct {
	Name             string   `json:"name" yaml:"name"`
	Website          string   `json:"website" yaml:"website"`
	Pitch            string   `json:"pitch" yaml:"pitch"`
	ValueProps       []string `json:"valueProps" yaml:"valueProps"`
	Outcomes         []string `json:"outcomes" yaml:"outcomes"`
	Personas         []string `json:"personas" yaml:"personas"`
	ICPIndustries    []string `json:"icpIndustries" yaml:"icpIndustries"`
	PainPoints       []string `json:"painPoints" yaml:"painPoints"`
	Integrations     []string `json:"integrations" yaml:"integrations"`
	ProofPoints      []string `json:"proofPoints" yaml:"proofPoints"`
	CaseStudies      []string `json:"caseStudies" yaml:"caseStudies"`
	CustomerExamples []string `json:"customerExamples" yaml:"customerExamples"`
	Tone             string   `json:"tone" yaml:"tone"`
	CTAPreference    string   `json:"ctaPreference" yaml:"ctaPreference"`
	BookingURL       string   `json:"bookingUrl" yaml:"bookingUrl"`
	Signature        string   `json:"signature" yaml:"signature"`
	IndustryHint     string   `json:"industryHint" yaml:"industryHint"`
}

// DefaultVendor is used when no vendor profile can be loaded.
func DefaultVendor() VendorContext {
	return VendorContext{
		Name:          "Your company",
		Pitch:         "What do you sell",
		ValueProps:    []string{"Value proposition"},
		Outcomes:      []string{"Your product/Service business result"},
		Tone:          defaultTone,
		CTAPreference: defaultCTA,
		IndustryHint:  "Industry",
	}
}

// Merge overlays non-empty fields of override onto v.
func (v VendorContext) Merge(override VendorContext) VendorContext {
	pickS := func(base, o string) string {
		if strings.TrimSpace(o) != "" {
			return o
		}
		return base
	}
	pickL := func(base, o []string) []string {
		if len(o) > 0 {
			return o
		}
		return base
	}

	v.Name = pickS(v.Name, override.Name)
	v.Website = pickS(v.Website, override.Website)
	v.Pitch = pickS(v.Pitch, override.Pitch)
	v.ValueProps = pickL(v.ValueProps, override.ValueProps)
	v.Outcomes = pickL(v.Outcomes, override.Outcomes)
	v.Personas = pickL(v.Personas, override.Personas)
	v.ICPIndustries = pickL(v.ICPIndustries, override.ICPIndustries)
	v.PainPoints = pickL(v.PainPoints, override.PainPoints)
	v.Integrations = pickL(v.Integrations, override.Integrations)
	v.ProofPoints = pickL(v.ProofPoints, override.ProofPoints)
	v.CaseStudies = pickL(v.CaseStudies, override.CaseStudies)
	v.CustomerExamples = pickL(v.CustomerExamples, override.CustomerExamples)
	v.Tone = pickS(v.Tone, override.Tone)
	v.CTAPreference = pickS(v.CTAPreference, override.CTAPreference)
	v.BookingURL = pickS(v.BookingURL, override.BookingURL)
	v.Signature = pickS(v.Signature, override.Signature)
	v.IndustryHint = pickS(v.IndustryHint, override.IndustryHint)
	return v
}

// CTA returns the configured call-to-action preference or the default.
func (v VendorContext) CTA() string {
	if cta := strings.TrimSpace(v.CTAPreference); cta != "" {
		return cta
	}
	return defaultCTA
}

// PromptBlock renders the clamped ground-truth JSON block injected into every system prompt.
func (v VendorContext) PromptBlock() string {
	tone := v.Tone
	if tone == "" {
		tone = defaultTone
	}
	block := struct {
		Name          string   `json:"name"`
		Website       string   `json:"website"`
		Pitch         string   `json:"pitch"`
		ValueProps    []string `json:"value_props"`
		Outcomes      []string `json:"outcomes"`
		Personas      []string `json:"personas"`
		Pains         []string `json:"pains"`
		Integrations  []string `json:"integrations"`
		ProofPoints   []string `json:"proof_points"`
		CaseStudies   []string `json:"case_studies"`
		Tone          string   `json:"tone"`
		CTAPreference string   `json:"cta_preference"`
		BookingURL    string   `json:"booking_url"`
		Signature     string   `json:"signature"`
		Industry      string   `json:"industry"`
	}{
		Name:          v.Name,
		Website:       v.Website,
		Pitch:         Truncate(v.Pitch, 400),
		ValueProps:    clamp(v.ValueProps, 3),
		Outcomes:      clamp(v.Outcomes, 3),
		Personas:      clamp(v.Personas, 3),
		Pains:         clamp(v.PainPoints, 3),
		Integrations:  clamp(v.Integrations, 3),
		ProofPoints:   clamp(v.ProofPoints, 3),
		CaseStudies:   clamp(v.CaseStudies, 3),
		Tone:          tone,
		CTAPreference: v.CTA(),
		BookingURL:    v.BookingURL,
		Signature:     Truncate(v.Signature, 800),
		Industry:      v.IndustryHint,
	}
	raw, err := json.Marshal(block)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func clamp(items []string, n int) []string {
	out := make([]string, 0, n)
	for _, it := range items {
		if it = strings.TrimSpace(it); it == "" {
			continue
		}
		out = append(out, it)
		if len(out) == n {
			break
		}
	}
	return out
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
