// Package curated commits validated parts to the catalog and describes each
// commit as a PartAccepted event.
package curated

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"pcadvisor/internal/model"
	"pcadvisor/internal/specsum"
)

// Upserter persists one part keyed by its link and returns its ID.
type Upserter interface {
	UpsertPart(ctx context.Context, p model.Part) (int64, error)
}

// Marker records the dedupe key of a committed part.
type Marker interface {
	Add(ctx context.Context, key string) error
}

// Writer is the curated catalog writer.
type Writer struct {
	store Upserter
	mark  Marker
	now   func() time.Time
}

// NewWriter returns a writer. mark may be nil.
func NewWriter(store Upserter, mark Marker) *Writer {
	return &Writer{store: store, mark: mark, now: time.Now}
}

// Write upserts parts one by one. A failed part is logged and skipped, and
// stays unmarked so a later crawl retries it. The returned events cover the
// committed parts only. The error is non-nil only when the context ends.
func (w *Writer) Write(ctx context.Context, parts []model.Part) ([]model.PartAccepted, error) {
	events := make([]model.PartAccepted, 0, len(parts))
	for _, p := range parts {
		if err := ctx.Err(); err != nil {
			return events, err
		}
		id, err := w.store.UpsertPart(ctx, p)
		if err != nil {
			log.Error().Err(err).Str("link", p.Link).Msg("curated: upsert failed, skipping part")
			continue
		}
		if w.mark != nil {
			if err := w.mark.Add(ctx, p.DedupeKey()); err != nil {
				log.Warn().Err(err).Str("link", p.Link).Msg("curated: dedupe mark failed")
			}
		}
		events = append(events, model.PartAccepted{
			PartID:       id,
			Category:     p.Category,
			Link:         p.Link,
			Manufacturer: p.Manufacturer,
			Specs:        specsum.Flatten(p.Specs),
			Timestamp:    w.now().UTC().Format(time.RFC3339Nano),
		})
	}
	return events, nil
}
