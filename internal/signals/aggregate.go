// Package signals turns a company name into deduplicated, source-diverse
// headline lists using pluggable fetch strategies.
package signals

import (
	"regexp"
	"strings"

	"ProspectPilot/internal/domain"
)

// MaxPerHost bounds how many items one source host may contribute.
const MaxPerHost = 2

var financialPattern = regexp.MustCompile(`(?i)(earnings|results|revenue|guidance|profit|loss|funding|acquisition|acquires|merger|ipo|m&a)`)

// Aggregate drops items with blank or repeated normalized titles, keeps at most
// MaxPerHost items per host and stops at limit (limit <= 0 means no cap).
func Aggregate(items []domain.SignalItem, limit int) []domain.SignalItem {
	out := make([]domain.SignalItem, 0, len(items))
	seen := map[string]struct{}{}
	perHost := map[string]int{}

	for _, it := range items {
		it.Title = strings.TrimSpace(it.Title)
		key := it.Key()
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		host := it.Host()
		if host != "" && perHost[host] >= MaxPerHost {
			continue
		}
		seen[key] = struct{}{}
		if host != "" {
			perHost[host]++
		}
		out = append(out, it)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// FilterFinancial keeps items whose title mentions a financial event, each
// clipped to maxWords words.
func FilterFinancial(items []domain.SignalItem, maxWords int) []domain.SignalItem {
	out := make([]domain.SignalItem, 0, len(items))
	for _, it := range items {
		if !financialPattern.MatchString(it.Title) {
			continue
		}
		it.Title = clipWords(it.Title, maxWords)
		out = append(out, it)
	}
	return out
}

func clipWords(s string, n int) string {
	words := strings.Fields(s)
	if n <= 0 || len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}
