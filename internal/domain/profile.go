package domain

import (
	"regexp"
	"strings"
)

// MaxBackgroundLines caps experience + education lines carried into generators.
const MaxBackgroundLines = 12

var (
	companyTail = regexp.MustCompile(`[|•–—\-]+.*$`)
	spaces      = regexp.MustCompile(`\s+`)
)

// ProfileSnapshot is the scraped view of one profile page. It is immutable for
// the duration of one enrichment request.
type ProfileSnapshot struct {
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Posts       []string `json:"posts"`
	Experiences []string `json:"experiences"`
	Education   []string `json:"education"`
	URL         string   `json:"pageUrl"`
}

// ResolvedCompany returns the cleaned company name, falling back to the
// second " — " segment of the first experience line that has one.
func (p ProfileSnapshot) ResolvedCompany() string {
	if company := NormalizeCompany(p.Company); company != "" {
		return company
	}
	for _, line := range p.Experiences {
		parts := splitNonEmpty(line, " — ")
		if len(parts) >= 2 {
			return NormalizeCompany(parts[1])
		}
	}
	return ""
}

// Background merges experiences and education, capped at MaxBackgroundLines.
func (p ProfileSnapshot) Background() []string {
	out := make([]string, 0, len(p.Experiences)+len(p.Education))
	out = append(out, p.Experiences...)
	out = append(out, p.Education...)
	if len(out) > MaxBackgroundLines {
		out = out[:MaxBackgroundLines]
	}
	return out
}

// FirstName returns the first whitespace separated token of the name.
func (p ProfileSnapshot) FirstName() string {
	fields := strings.Fields(p.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// NormalizeCompany collapses whitespace and drops trailing "| tagline" style suffixes.
func NormalizeCompany(s string) string {
	s = spaces.ReplaceAllString(s, " ")
	s = companyTail.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
