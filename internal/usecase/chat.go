package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/generators"
)

// ErrUnknownSession is returned for a chat id that was never opened or has expired.
var ErrUnknownSession = errors.New("unknown chat session")

type chatSession struct {
	mu        sync.Mutex
	context   domain.ProfileSnapshot
	history   []domain.ChatTurn
	collected map[string]any
	touched   time.Time
}

// ChatSessions holds assistant conversations in process memory.
type ChatSessions struct {
	mu       sync.Mutex
	sessions map[string]*chatSession
	now      func() time.Time
}

// NewChatSessions returns an empty session table.
func NewChatSessions() *ChatSessions {
	return &ChatSessions{sessions: map[string]*chatSession{}, now: time.Now}
}

func (c *ChatSessions) open(profile domain.ProfileSnapshot, greeting domain.ChatReply) string {
	id := uuid.NewString()
	c.mu.Lock()
	c.sessions[id] = &chatSession{
		context:   profile,
		history:   []domain.ChatTurn{{Role: "assistant", Content: greeting.Reply}},
		collected: map[string]any{},
		touched:   c.now(),
	}
	c.mu.Unlock()
	return id
}

func (c *ChatSessions) get(id string) (*chatSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[id]
	if ok {
		sess.touched = c.now()
	}
	return sess, ok
}

// Len reports the number of open sessions.
func (c *ChatSessions) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// Sweep drops sessions idle for at least idle and returns how many were removed.
func (c *ChatSessions) Sweep(now time.Time, idle time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id, sess := range c.sessions {
		if now.Sub(sess.touched) >= idle {
			delete(c.sessions, id)
			removed++
		}
	}
	return removed
}

// ChatInit opens a session for the profile and returns its id and greeting.
func (o *Outreach) ChatInit(_ context.Context, s domain.RequestSettings, profile domain.ProfileSnapshot) (string, domain.ChatReply) {
	greeting := generators.ChatGreeting(profile)
	if strings.TrimSpace(s.Vendor.Name) == "" {
		greeting = generators.NoVendorReply()
	}
	return o.sessions.open(profile, greeting), greeting
}

// ChatTalk answers one operator message. Updates from the reply are merged
// into the session's collected facts.
func (o *Outreach) ChatTalk(ctx context.Context, s domain.RequestSettings, sessionID, message string) (domain.ChatReply, error) {
	sess, ok := o.sessions.get(sessionID)
	if !ok {
		return domain.ChatReply{}, ErrUnknownSession
	}

	// One turn at a time per session keeps history ordered.
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.history = append(sess.history, domain.ChatTurn{Role: "user", Content: strings.TrimSpace(message)})
	in := generators.ChatInput{
		Context:   sess.context,
		History:   append([]domain.ChatTurn(nil), sess.history...),
		Collected: copyMap(sess.collected),
	}

	var reply domain.ChatReply
	if o.gen != nil {
		reply = o.gen.ChatReply(ctx, s, in)
	} else {
		reply = generators.NoVendorReply()
	}

	for k, v := range reply.Updates {
		sess.collected[k] = v
	}
	sess.history = append(sess.history, domain.ChatTurn{Role: "assistant", Content: reply.Reply})
	return reply, nil
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
