// Package advisor answers component questions and builds full-system
// estimates by grounding a language model on catalog reads.
package advisor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pcadvisor/internal/catalog"
	"pcadvisor/internal/gemini"
	"pcadvisor/internal/model"
	"pcadvisor/internal/prompt"
	"pcadvisor/internal/retrieval"
)

const (
	// NoIntent is returned when a chat message names no known category.
	NoIntent = "어떤 종류의 부품을 찾으시는지 명확하지 않아요. (예: CPU 추천해줘)"

	DefaultChatLimit     = 5
	DefaultLegacyLimit   = 3
	DefaultEstimateLimit = 5
)

// Generator produces model text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, timeout time.Duration) (string, error)
}

// Recorder receives one audit event per gateway call.
type Recorder interface {
	Record(ctx context.Context, ev model.EstimateRecorded) error
}

// NopRecorder drops every event.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, model.EstimateRecorded) error { return nil }

// Options tunes retrieval sizes and the gateway timeout. Zero values take
// the defaults.
type Options struct {
	Timeout       time.Duration
	ChatLimit     int
	LegacyLimit   int
	EstimateLimit int
}

func (o Options) withDefaults() Options {
	if o.ChatLimit <= 0 {
		o.ChatLimit = DefaultChatLimit
	}
	if o.LegacyLimit <= 0 {
		o.LegacyLimit = DefaultLegacyLimit
	}
	if o.EstimateLimit <= 0 {
		o.EstimateLimit = DefaultEstimateLimit
	}
	return o
}

// Service is stateless across calls and safe for concurrent use.
type Service struct {
	builder  *retrieval.Builder
	gen      Generator
	recorder Recorder
	opts     Options
}

// NewService wires the orchestrator. A nil recorder discards events.
func NewService(store catalog.Store, digests retrieval.Digester, gen Generator, rec Recorder, opts Options) *Service {
	if rec == nil {
		rec = NopRecorder{}
	}
	return &Service{
		builder:  retrieval.NewBuilder(store, digests),
		gen:      gen,
		recorder: rec,
		opts:     opts.withDefaults(),
	}
}

// Chat answers a single-component question. It calls the model only when
// the message names a category and the catalog has parts for it.
func (s *Service) Chat(ctx context.Context, query string) string {
	c, ok := ExtractCategory(query)
	if !ok {
		return NoIntent
	}
	contract := chatContract(c, s.opts.ChatLimit)
	pc := s.builder.Build(ctx, contract.Retrieval)
	if pc.Empty() {
		return fmt.Sprintf("%s 카테고리의 부품 정보를 찾을 수 없어요.", c.Label())
	}
	ev := model.EstimateRecorded{Category: c.Label()}
	return invoke(ctx, s, contract, pc, prompt.Request{Query: query}, ev)
}

// LegacyEstimate writes a free-text build from the most reviewed parts of
// each main category.
func (s *Service) LegacyEstimate(ctx context.Context, req model.LegacyEstimateRequest) string {
	contract := legacyEstimateContract(req, s.opts.LegacyLimit)
	pc := s.builder.Build(ctx, contract.Retrieval)
	return invoke(ctx, s, contract, pc, prompt.Request{}, model.EstimateRecorded{})
}

// Estimate returns a structured build priced in units of 10,000 KRW. It
// always returns a document; failures yield the fallback.
func (s *Service) Estimate(ctx context.Context, req model.EstimateRequest) model.EstimateResult {
	req = req.WithDefaults()
	summary := req.Summary()
	contract := estimateContract(summary, s.opts.EstimateLimit)
	pc := s.builder.Build(ctx, contract.Retrieval)
	ev := model.EstimateRecorded{Summary: &summary}
	return invoke(ctx, s, contract, pc, prompt.Request{Requirements: prompt.EstimateRequirements(req)}, ev)
}

// invoke renders the prompt, makes the single gateway attempt, records the
// call and normalizes the reply.
func invoke[T any](ctx context.Context, s *Service, c Contract[T], pc retrieval.PromptContext, req prompt.Request, ev model.EstimateRecorded) T {
	text := prompt.Build(c.Template, pc, req)

	start := time.Now()
	reply, err := s.gen.Generate(ctx, text, s.opts.Timeout)
	elapsed := time.Since(start)

	ev.ID = uuid.NewString()
	ev.Flow = c.Flow
	ev.Outcome = "ok"
	ev.DurationMs = elapsed.Milliseconds()
	ev.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	if err != nil {
		ge := gemini.Classify(err)
		ev.Outcome = ge.Kind.String()
		log.Warn().Err(err).Str("flow", c.Flow).Str("kind", ge.Kind.String()).
			Dur("elapsed", elapsed).Msg("advisor: generation failed")
	} else {
		log.Info().Str("flow", c.Flow).Int("context_lines", pc.LineCount()).
			Dur("elapsed", elapsed).Msg("advisor: generated")
	}

	if rerr := s.recorder.Record(ctx, ev); rerr != nil {
		log.Error().Err(rerr).Str("event_id", ev.ID).Msg("advisor: failed to record event")
	}
	return c.Normalize(reply, err)
}
