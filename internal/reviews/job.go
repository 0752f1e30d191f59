package reviews

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"pcadvisor/internal/model"
)

// Store is the review table the job reads from and writes back to.
type Store interface {
	PendingReviews(ctx context.Context, afterID int64, limit int) ([]model.Review, error)
	SetReviewSummary(ctx context.Context, reviewID int64, summary string) error
}

// Result counts one pass.
type Result struct {
	Summarized int
	Skipped    int
	Failed     int
}

// Job summarizes reviews that have no summary yet. Passes walk the pending
// reviews by ID and start over after reaching the end, so reviews that keep
// failing never hold back newer ones.
type Job struct {
	store     Store
	gen       TextGenerator
	batchSize int

	mu     sync.Mutex
	cursor int64 // highest review ID handled by the current sweep
}

func NewJob(store Store, gen TextGenerator, batchSize int) *Job {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Job{store: store, gen: gen, batchSize: batchSize}
}

// RunOnce processes the next batch after the cursor. A review that fails to
// summarize or save is counted and retried on the next sweep.
func (j *Job) RunOnce(ctx context.Context) (Result, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var res Result
	pending, err := j.store.PendingReviews(ctx, j.cursor, j.batchSize)
	if err == nil && len(pending) == 0 && j.cursor > 0 {
		j.cursor = 0
		pending, err = j.store.PendingReviews(ctx, 0, j.batchSize)
	}
	if err != nil {
		return res, fmt.Errorf("reviews: load pending: %w", err)
	}
	if len(pending) < j.batchSize {
		defer func() { j.cursor = 0 }()
	}
	for _, rv := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		j.cursor = max(j.cursor, rv.ID)
		if strings.TrimSpace(rv.RawText) == "" {
			res.Skipped++
			continue
		}
		summary, err := Summarize(ctx, j.gen, rv.RawText)
		if err != nil {
			log.Warn().Err(err).Int64("review_id", rv.ID).Msg("reviews: summarize failed")
			res.Failed++
			continue
		}
		if err := j.store.SetReviewSummary(ctx, rv.ID, summary); err != nil {
			log.Warn().Err(err).Int64("review_id", rv.ID).Msg("reviews: save failed")
			res.Failed++
			continue
		}
		res.Summarized++
	}
	log.Info().Int("summarized", res.Summarized).Int("skipped", res.Skipped).Int("failed", res.Failed).
		Msg("reviews: pass complete")
	return res, nil
}

// Schedule runs the job on spec (standard cron or @every syntax) until ctx
// ends. Overlapping runs are skipped.
func (j *Job) Schedule(ctx context.Context, spec string) (*rcron.Cron, error) {
	c := rcron.New(rcron.WithChain(rcron.SkipIfStillRunning(rcron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() {
		if _, err := j.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("reviews: scheduled pass failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("reviews: schedule %q: %w", spec, err)
	}
	c.Start()
	log.Info().Str("schedule", spec).Msg("reviews: scheduler started")

	go func() {
		<-ctx.Done()
		select {
		case <-c.Stop().Done():
		case <-time.After(5 * time.Second):
			log.Warn().Msg("reviews: stop timeout waiting for running pass")
		}
	}()
	return c, nil
}
