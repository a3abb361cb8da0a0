package domain

import (
	"encoding/json"
	"net/url"
	"strings"
)

// SignalItem is a single externally sourced headline with optional link.
type SignalItem struct {
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	URL     string `json:"url,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Key is the deduplication key: the lowercase, whitespace-collapsed title.
func (s SignalItem) Key() string {
	return strings.ToLower(strings.Join(strings.Fields(s.Title), " "))
}

// Host returns the source host, deriving it from the URL when Source is empty.
func (s SignalItem) Host() string {
	if s.Source != "" {
		return strings.ToLower(strings.TrimPrefix(s.Source, "www."))
	}
	return HostOf(s.URL)
}

// UnmarshalJSON accepts either a bare string title or a {title,url} object.
func (s *SignalItem) UnmarshalJSON(data []byte) error {
	var title string
	if err := json.Unmarshal(data, &title); err == nil {
		*s = SignalItem{Title: title}
		return nil
	}
	type plain SignalItem
	var item plain
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*s = SignalItem(item)
	return nil
}

// HostOf returns the lowercase host of rawURL without a leading "www.".
func HostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
}

// Titles projects items to their titles.
func Titles(items []SignalItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}
