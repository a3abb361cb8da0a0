package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/infrastructure/storage"
	"ProspectPilot/internal/usecase"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeResult(w, "ok")
}

func (s *Server) handleSettings(w http.ResponseWriter, _ *http.Request) {
	paired := s.pairing != nil && s.pairing.Paired()
	writeResult(w, map[string]any{"paired": paired, "model": s.defaults.Model})
}

func (s *Server) handlePair(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if !decode(w, r, &body) {
		return
	}
	if s.pairing == nil {
		writeError(w, http.StatusServiceUnavailable, "not available: pairing is not configured")
		return
	}

	userID, err := s.pairing.Pair(r.Context(), body.Code)
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrCodeClaimed):
		writeError(w, http.StatusBadRequest, "invalid or already-used code")
	case err != nil:
		s.warn("pairing failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeResult(w, map[string]string{"userId": userID})
	}
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var body struct {
		requestOptions
		Profile domain.ProfileSnapshot `json:"profile"`
		Refresh bool                   `json:"refresh"`
	}
	settings, ok := s.begin(w, r, &body, &body.requestOptions)
	if !ok {
		return
	}
	writeResult(w, s.enricher.Enrich(r.Context(), settings, body.Profile, usecase.EnrichOptions{Refresh: body.Refresh}))
}

func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		requestOptions
		usecase.EmailRequest
	}
	settings, ok := s.begin(w, r, &body, &body.requestOptions)
	if !ok {
		return
	}
	writeResult(w, s.outreach.Email(r.Context(), settings, body.EmailRequest))
}

func (s *Server) handleLatestDraft(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	draft, err := s.outreach.LatestDraft(r.Context(), q.Get("url"), q.Get("name"), q.Get("company"))
	if err != nil {
		s.warn("latest draft lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "draft lookup failed")
		return
	}
	writeResult(w, map[string]any{"draft": draft})
}

func (s *Server) handlePeers(w http.ResponseWriter, r *http.Request) {
	var body struct {
		requestOptions
		Profile domain.ProfileSnapshot `json:"profile"`
		Limit   int                    `json:"limit"`
	}
	settings, ok := s.begin(w, r, &body, &body.requestOptions)
	if !ok {
		return
	}
	writeResult(w, s.outreach.Peers(r.Context(), settings, body.Profile, body.Limit))
}

func (s *Server) handleBrief(w http.ResponseWriter, r *http.Request) {
	var body struct {
		requestOptions
		usecase.BriefRequest
	}
	settings, ok := s.begin(w, r, &body, &body.requestOptions)
	if !ok {
		return
	}
	writeResult(w, s.outreach.Brief(r.Context(), settings, body.BriefRequest))
}

func (s *Server) handleBlurbs(w http.ResponseWriter, r *http.Request) {
	var body struct {
		requestOptions
		Company string   `json:"company"`
		Lines   []string `json:"lines"`
	}
	settings, ok := s.begin(w, r, &body, &body.requestOptions)
	if !ok {
		return
	}
	writeResult(w, map[string]any{"blurbs": s.outreach.BackgroundBlurbs(r.Context(), settings, body.Company, body.Lines)})
}

func (s *Server) handleChatInit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		requestOptions
		Profile domain.ProfileSnapshot `json:"profile"`
	}
	settings, ok := s.begin(w, r, &body, &body.requestOptions)
	if !ok {
		return
	}
	id, greeting := s.outreach.ChatInit(r.Context(), settings, body.Profile)
	writeResult(w, map[string]any{"sessionId": id, "reply": greeting})
}

func (s *Server) handleChatTalk(w http.ResponseWriter, r *http.Request) {
	var body struct {
		requestOptions
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}
	settings, ok := s.begin(w, r, &body, &body.requestOptions)
	if !ok {
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := s.outreach.ChatTalk(r.Context(), settings, body.SessionID, body.Message)
	if errors.Is(err, usecase.ErrUnknownSession) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeResult(w, reply)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		requestOptions
		domain.Activity
	}
	settings, ok := s.begin(w, r, &body, &body.requestOptions)
	if !ok {
		return
	}
	if body.ProfileURL == "" {
		writeError(w, http.StatusBadRequest, "profileUrl is required")
		return
	}
	s.outreach.RecordActivity(r.Context(), settings, body.Activity)
	writeResult(w, map[string]bool{"recorded": true})
}

// begin decodes the body and resolves settings, writing the error response
// itself when either step fails.
func (s *Server) begin(w http.ResponseWriter, r *http.Request, body any, opts *requestOptions) (domain.RequestSettings, bool) {
	if !decode(w, r, body) {
		return domain.RequestSettings{}, false
	}
	settings, err := s.settings(r, *opts)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "not available: "+err.Error())
		return domain.RequestSettings{}, false
	}
	return settings, true
}

func (s *Server) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
