package domain

import "time"

// Peer is a suggested colleague of the prospect to multithread the deal.
type Peer struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Synthesized bool   `json:"synthesized,omitempty"`
}

// PeerCandidate is one people-search result with the card text used for scoring.
type PeerCandidate struct {
	Peer
	Text string
}

// ProspectIntel is page one of the account brief.
type ProspectIntel struct {
	ProspectName          string   `json:"prospect_name"`
	ProspectTitle         string   `json:"prospect_title"`
	ProspectCompany       string   `json:"prospect_company"`
	ProspectLocation      string   `json:"prospect_location"`
	RoleSummary           string   `json:"prospect_role_summary"`
	Experience            []string `json:"prospect_experience"`
	Skills                []string `json:"prospect_skills"`
	ConnectionsOrActivity []string `json:"prospect_connections_or_activity"`
	Hooks                 []string `json:"hooks"`
}

// AccountIntel is page two of the account brief.
type AccountIntel struct {
	CompanyOverview    string   `json:"company_overview"`
	RecentNews         []string `json:"company_recent_news"`
	Challenges         []string `json:"company_challenges"`
	TechStack          []string `json:"company_tech_stack"`
	Metrics            string   `json:"company_metrics"`
	SalesOpportunity   string   `json:"company_sales_opportunity"`
	DiscoveryQuestions []string `json:"discovery_questions"`
}

// Brief is the two-section structured account brief.
type Brief struct {
	Page1 ProspectIntel `json:"page1"`
	Page2 AccountIntel  `json:"page2"`
}

// EmailDraft is a generated first-touch email.
type EmailDraft struct {
	ID         string    `json:"id,omitempty"`
	ProfileURL string    `json:"profileUrl"`
	Name       string    `json:"name"`
	Company    string    `json:"company"`
	Tone       string    `json:"tone"`
	Body       string    `json:"draft"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ChatTurn is one message of an assistant conversation.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatReply is the assistant's structured answer.
type ChatReply struct {
	Reply     string         `json:"reply"`
	FollowUps []string       `json:"followups"`
	Updates   map[string]any `json:"updates"`
}

// Activity is a single profile view recorded in the activity log.
type Activity struct {
	ProfileURL string    `json:"profileUrl"`
	Name       string    `json:"name"`
	Company    string    `json:"company"`
	Event      string    `json:"event"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RequestSettings is resolved once at request entry and passed down explicitly.
type RequestSettings struct {
	UserID      string
	AccessToken string
	Model       string
	Debug       bool
	NewsEngine  string
	NewsMode    string
	Instruction string
	Vendor      VendorContext
}
