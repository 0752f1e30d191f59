// Package jsonl loads a catalog snapshot from JSONL files for local runs.
package jsonl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"pcadvisor/internal/catalog"
	"pcadvisor/internal/model"
)

// record is one line of a catalog export. Specs is kept as raw JSON so both
// objects and pre-encoded strings are accepted.
type record struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Price        int             `json:"price"`
	Link         string          `json:"link"`
	ImgSrc       string          `json:"img_src"`
	Manufacturer string          `json:"manufacturer"`
	WarrantyInfo string          `json:"warranty_info"`
	ReviewCount  int             `json:"review_count"`
	StarRating   float64         `json:"star_rating"`
	Specs        json.RawMessage `json:"specs"`
}

// Stats describes what a load read.
type Stats struct {
	Files      int                    `json:"files"`
	Parts      int                    `json:"parts"`
	Skipped    int                    `json:"skipped"`
	ByCategory map[model.Category]int `json:"-"`
}

// CategoryCounts keys ByCategory by storage label.
func (s Stats) CategoryCounts() map[string]int {
	out := make(map[string]int, len(s.ByCategory))
	for c, n := range s.ByCategory {
		out[c.Label()] = n
	}
	return out
}

// Load reads every *.jsonl file in dataDir in name order. Lines that fail to
// parse or carry an unknown category are counted as skipped. Records without
// an id get sequential ids after the largest explicit one.
func Load(ctx context.Context, dataDir string) ([]model.Part, Stats, error) {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl"))
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to list files: %w", err)
	}
	sort.Strings(files)

	stats := Stats{ByCategory: map[model.Category]int{}}
	parts := []model.Part{}
	var maxID int64
	var unnumbered []int

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, Stats{}, err
		}
		fileData, err := os.ReadFile(file)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("read %s: %w", file, err)
		}
		stats.Files++

		lines := strings.Split(string(fileData), "\n")
		for n, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			p, err := parseLine(line)
			if err != nil {
				stats.Skipped++
				log.Debug().Str("file", file).Int("line", n+1).Err(err).Msg("jsonl: skipping line")
				continue
			}
			if p.ID == 0 {
				unnumbered = append(unnumbered, len(parts))
			} else if p.ID > maxID {
				maxID = p.ID
			}
			parts = append(parts, p)
			stats.ByCategory[p.Category]++
		}
	}

	for _, i := range unnumbered {
		maxID++
		parts[i].ID = maxID
	}
	stats.Parts = len(parts)
	return parts, stats, nil
}

// Open loads dataDir into an in-memory catalog store.
func Open(ctx context.Context, dataDir string) (*catalog.MemoryStore, Stats, error) {
	parts, stats, err := Load(ctx, dataDir)
	if err != nil {
		return nil, Stats{}, err
	}
	log.Info().Str("dir", dataDir).Int("files", stats.Files).Int("parts", stats.Parts).
		Int("skipped", stats.Skipped).Msg("jsonl: catalog loaded")
	return catalog.NewMemoryStore(parts), stats, nil
}

func parseLine(line string) (model.Part, error) {
	var r record
	if err := json.Unmarshal([]byte(line), &r); err != nil {
		return model.Part{}, err
	}
	c, ok := model.ParseCategory(r.Category)
	if !ok {
		return model.Part{}, fmt.Errorf("unknown category %q", r.Category)
	}
	return model.Part{
		ID:           r.ID,
		Name:         r.Name,
		Category:     c,
		Price:        r.Price,
		Link:         r.Link,
		ImgSrc:       r.ImgSrc,
		Manufacturer: r.Manufacturer,
		WarrantyInfo: r.WarrantyInfo,
		ReviewCount:  r.ReviewCount,
		StarRating:   r.StarRating,
		Specs:        specText(r.Specs),
	}, nil
}

// specText returns the blob text: objects verbatim, JSON strings unquoted,
// null or absent as empty.
func specText(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return trimmed
}
