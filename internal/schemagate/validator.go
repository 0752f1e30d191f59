// Package schemagate validates crawler batches before they reach the catalog.
package schemagate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"pcadvisor/internal/model"
)

const (
	batchSize  = 100
	maxWorkers = 16
)

// Rejection records a rejected part with the reason.
type Rejection struct {
	Scope  string `json:"scope"`  // "part:<link>" or "part#<index>" when the link is missing
	Reason string `json:"reason"` // e.g. "price failed gt"
}

// Deduper reports whether a part's dedupe key was probably committed
// before. It never records keys; the curated writer does after a commit.
type Deduper interface {
	Exists(ctx context.Context, key string) bool
}

// Gate validates and deduplicates crawler rows.
type Gate struct {
	validate *validator.Validate
	dedupe   Deduper
}

// New returns a gate. A nil deduper accepts every valid row.
func New(dedupe Deduper) *Gate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Gate{validate: v, dedupe: dedupe}
}

// ValidatePart checks one row and converts it to a catalog part. reason is
// empty when the row is valid.
func (g *Gate) ValidatePart(in model.PartIngest) (p model.Part, reason string) {
	if err := g.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return model.Part{}, fmt.Sprintf("%s failed %s", verrs[0].Field(), verrs[0].Tag())
		}
		return model.Part{}, err.Error()
	}

	c, ok := model.ParseCategory(in.Category)
	if !ok {
		return model.Part{}, fmt.Sprintf("unknown category %q", in.Category)
	}

	specs, err := specsObject(in.Specs)
	if err != nil {
		return model.Part{}, err.Error()
	}

	return model.Part{
		Name:         strings.TrimSpace(in.Name),
		Category:     c,
		Price:        in.Price,
		Link:         in.Link,
		ImgSrc:       in.ImgSrc,
		Manufacturer: strings.TrimSpace(in.Manufacturer),
		WarrantyInfo: in.WarrantyInfo,
		ReviewCount:  in.ReviewCount,
		StarRating:   in.StarRating,
		Specs:        specs,
	}, ""
}

// specsObject returns the compacted specs object, or "" when absent.
func specsObject(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] != '{' {
		return "", errors.New("specs is not a JSON object")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", fmt.Errorf("specs is not valid JSON: %w", err)
	}
	return buf.String(), nil
}

// Process validates every row of the batch in parallel. Invalid rows are
// rejected individually. Rows already committed at the same link and price,
// or repeated within the batch, are skipped without a rejection.
func (g *Gate) Process(ctx context.Context, batch model.IngestBatch) (valid []model.Part, rejections []Rejection) {
	valid = []model.Part{}
	rejections = []Rejection{}
	rows := batch.Parts
	if len(rows) == 0 {
		return valid, rejections
	}

	workers := (len(rows) + batchSize - 1) / batchSize
	if workers > maxWorkers {
		workers = maxWorkers
	}

	type chunk struct {
		offset int
		rows   []model.PartIngest
	}
	chunks := make(chan chunk, workers)
	results := make(chan chunkResult, workers)
	keys := &batchKeys{seen: make(map[string]bool, len(rows))}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range chunks {
				results <- g.processChunk(ctx, batch.BatchID, c.offset, c.rows, keys)
			}
		}()
	}

	go func() {
		for i := 0; i < len(rows); i += batchSize {
			end := min(i+batchSize, len(rows))
			chunks <- chunk{offset: i, rows: rows[i:end]}
		}
		close(chunks)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		valid = append(valid, r.parts...)
		rejections = append(rejections, r.rejections...)
	}
	return valid, rejections
}

type chunkResult struct {
	parts      []model.Part
	rejections []Rejection
}

// batchKeys collapses repeated rows within one batch.
type batchKeys struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (b *batchKeys) first(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seen[key] {
		return false
	}
	b.seen[key] = true
	return true
}

func (g *Gate) processChunk(ctx context.Context, batchID string, offset int, rows []model.PartIngest, keys *batchKeys) chunkResult {
	var res chunkResult
	for i, row := range rows {
		p, reason := g.ValidatePart(row)
		if reason != "" {
			scope := "part:" + row.Link
			if row.Link == "" {
				scope = fmt.Sprintf("part#%d", offset+i)
			}
			res.rejections = append(res.rejections, Rejection{Scope: scope, Reason: reason})
			log.Debug().Str("batch_id", batchID).Str("scope", scope).Str("reason", reason).Msg("schemagate: rejected part")
			continue
		}
		key := p.DedupeKey()
		if !keys.first(key) || (g.dedupe != nil && g.dedupe.Exists(ctx, key)) {
			log.Debug().Str("batch_id", batchID).Str("link", p.Link).Msg("schemagate: duplicate part, skipping")
			continue
		}
		res.parts = append(res.parts, p)
	}
	return res
}
