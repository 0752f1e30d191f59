// Package httpapi exposes the catalog and advisor over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"pcadvisor/internal/catalog"
	"pcadvisor/internal/model"
	"pcadvisor/internal/respond"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	maxChatBody     = 16 << 10
	maxEstimateBody = 64 << 10
	maxIngestBody   = 32 << 20
)

// Advisor is the orchestrator surface used by the AI routes.
type Advisor interface {
	Chat(ctx context.Context, query string) string
	LegacyEstimate(ctx context.Context, req model.LegacyEstimateRequest) string
	Estimate(ctx context.Context, req model.EstimateRequest) model.EstimateResult
}

// IngestPublisher forwards crawler batches to the ingest topic.
type IngestPublisher interface {
	PublishIngest(ctx context.Context, batch model.IngestBatch) error
}

// Options configures the server. AIRatePerSec <= 0 disables the AI route
// limiter.
type Options struct {
	AIRatePerSec float64
	AIBurst      int
}

// Server holds the handlers' dependencies.
type Server struct {
	store    catalog.Store
	advisor  Advisor
	ingest   IngestPublisher
	limiter  *rate.Limiter
	validate *validator.Validate
}

// NewServer builds a server. A nil ingest publisher leaves POST /api/ingest
// unregistered.
func NewServer(store catalog.Store, adv Advisor, ingest IngestPublisher, opts Options) *Server {
	s := &Server{
		store:    store,
		advisor:  adv,
		ingest:   ingest,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	if opts.AIRatePerSec > 0 {
		burst := opts.AIBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.AIRatePerSec), burst)
	}
	return s
}

// RegisterRoutes wires every route on r.
func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Use(requestLogger)
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	r.HandleFunc("/api/parts", s.partsHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/parts/compare", s.compareHandler).Methods(http.MethodGet)

	ai := r.NewRoute().Subrouter()
	ai.Use(s.limit)
	ai.HandleFunc("/api/chat", s.chatHandler).Methods(http.MethodPost)
	ai.HandleFunc("/api/estimate", s.estimateHandler).Methods(http.MethodPost)

	if s.ingest != nil {
		r.HandleFunc("/api/ingest", s.ingestHandler).Methods(http.MethodPost)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			respond.Error(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogger tags each response with an X-Request-ID and logs it.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		log.Info().Str("request_id", id).Str("method", r.Method).Str("path", r.URL.Path).
			Int("status", rec.status).Dur("elapsed", time.Since(start)).Msg("http request")
	})
}
