// Package httpapi exposes the enrichment and outreach use cases to the
// browser extension over JSON/HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
	"ProspectPilot/internal/usecase"
)

const maxBodyBytes = 1 << 20

// Enricher runs the enrichment aggregator.
type Enricher interface {
	Enrich(ctx context.Context, s domain.RequestSettings, profile domain.ProfileSnapshot, opts usecase.EnrichOptions) usecase.Result
}

// OutreachService is the set of outreach use cases served over HTTP.
type OutreachService interface {
	Email(ctx context.Context, s domain.RequestSettings, req usecase.EmailRequest) domain.EmailDraft
	LatestDraft(ctx context.Context, profileURL, name, company string) (*domain.EmailDraft, error)
	Peers(ctx context.Context, s domain.RequestSettings, profile domain.ProfileSnapshot, limit int) []domain.Peer
	Brief(ctx context.Context, s domain.RequestSettings, req usecase.BriefRequest) domain.Brief
	BackgroundBlurbs(ctx context.Context, s domain.RequestSettings, company string, lines []string) []string
	ChatInit(ctx context.Context, s domain.RequestSettings, profile domain.ProfileSnapshot) (string, domain.ChatReply)
	ChatTalk(ctx context.Context, s domain.RequestSettings, sessionID, message string) (domain.ChatReply, error)
	RecordActivity(ctx context.Context, s domain.RequestSettings, activity domain.Activity)
}

// Pairing is the device pairing state of this service.
type Pairing interface {
	ports.TokenSource
	Paired() bool
	Pair(ctx context.Context, code string) (string, error)
}

// Defaults seed RequestSettings when a request does not override them.
type Defaults struct {
	Model      string
	NewsEngine string
	NewsMode   string
	Debug      bool
}

// Deps wires the server.
type Deps struct {
	Enricher Enricher
	Outreach OutreachService
	Pairing  Pairing
	Vendors  ports.VendorSource
	Metrics  http.Handler
	Defaults Defaults
	Logger   *slog.Logger
}

// Server routes extension requests to the use cases.
type Server struct {
	enricher Enricher
	outreach OutreachService
	pairing  Pairing
	vendors  ports.VendorSource
	metrics  http.Handler
	defaults Defaults
	logger   *slog.Logger
}

// New constructs the HTTP server.
func New(deps Deps) *Server {
	return &Server{
		enricher: deps.Enricher,
		outreach: deps.Outreach,
		pairing:  deps.Pairing,
		vendors:  deps.Vendors,
		metrics:  deps.Metrics,
		defaults: deps.Defaults,
		logger:   deps.Logger,
	}
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/settings", s.handleSettings)
	mux.HandleFunc("POST /v1/pair", s.handlePair)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	mux.Handle("POST /v1/enrich", s.paired(s.handleEnrich))
	mux.Handle("POST /v1/email", s.paired(s.handleEmail))
	mux.Handle("GET /v1/email/draft", s.paired(s.handleLatestDraft))
	mux.Handle("POST /v1/peers", s.paired(s.handlePeers))
	mux.Handle("POST /v1/brief", s.paired(s.handleBrief))
	mux.Handle("POST /v1/background/summarize", s.paired(s.handleBlurbs))
	mux.Handle("POST /v1/chat/init", s.paired(s.handleChatInit))
	mux.Handle("POST /v1/chat/talk", s.paired(s.handleChatTalk))
	mux.Handle("POST /v1/activity", s.paired(s.handleActivity))

	return s.logged(mux)
}

// Serve runs the handler on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler, readTimeout, writeTimeout time.Duration, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	if logger != nil {
		logger.Info("http server listening", "addr", addr)
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
}

type envelope struct {
	OK     bool   `json:"ok"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// requestOptions are the per-request overrides every body may carry.
type requestOptions struct {
	Model       string `json:"model"`
	NewsEngine  string `json:"newsEngine"`
	NewsMode    string `json:"newsMode"`
	Instruction string `json:"instruction"`
}

func (s *Server) paired(next func(http.ResponseWriter, *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.pairing == nil || !s.pairing.Paired() {
			writeError(w, http.StatusServiceUnavailable, "not available: service is not paired")
			return
		}
		next(w, r)
	})
}

// settings resolves the request's model, token and vendor context once.
func (s *Server) settings(r *http.Request, opts requestOptions) (domain.RequestSettings, error) {
	token, err := s.pairing.AccessToken(r.Context())
	if err != nil {
		return domain.RequestSettings{}, err
	}
	settings := domain.RequestSettings{
		UserID:      s.pairing.UserID(),
		AccessToken: token,
		Model:       firstNonEmpty(opts.Model, s.defaults.Model),
		Debug:       s.defaults.Debug,
		NewsEngine:  firstNonEmpty(opts.NewsEngine, s.defaults.NewsEngine),
		NewsMode:    firstNonEmpty(opts.NewsMode, s.defaults.NewsMode),
		Instruction: strings.TrimSpace(opts.Instruction),
		Vendor:      domain.DefaultVendor(),
	}
	if s.vendors != nil {
		settings.Vendor = s.vendors.Load(r.Context(), settings.UserID)
	}
	return settings, nil
}

func (s *Server) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		if s.logger != nil {
			s.logger.Debug("http request",
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"elapsed", time.Since(start))
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeResult(w http.ResponseWriter, result any) {
	writeJSON(w, http.StatusOK, envelope{OK: true, Result: result})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{OK: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
