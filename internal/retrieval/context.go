// Package retrieval assembles bounded grounding text from catalog reads.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"pcadvisor/internal/catalog"
	"pcadvisor/internal/filter"
	"pcadvisor/internal/model"
	"pcadvisor/internal/specsum"
)

// Digester resolves the spec digest of a part.
type Digester interface {
	Digest(p model.Part) string
}

// DigestFunc adapts a function to Digester.
type DigestFunc func(p model.Part) string

func (f DigestFunc) Digest(p model.Part) string { return f(p) }

// PlainDigests summarizes without caching.
var PlainDigests = DigestFunc(func(p model.Part) string {
	return specsum.Summarize(p.Category, p.Specs)
})

// LineRenderer renders one part as a single context line.
type LineRenderer func(p model.Part, digest string) string

// ChatLine lists name, price in won, and the spec digest.
func ChatLine(p model.Part, digest string) string {
	return fmt.Sprintf("제품명: %s, 가격: %d원, 스펙: %s", p.Name, p.Price, digest)
}

// PopularityLine lists name and price in won with review statistics.
func PopularityLine(p model.Part, _ string) string {
	return fmt.Sprintf("- %s: %d원 (리뷰: %d개, 별점: %.1f)", p.Name, p.Price, p.ReviewCount, p.StarRating)
}

// ManwonLine lists name and price truncated to units of 10,000 won.
func ManwonLine(p model.Part, _ string) string {
	return fmt.Sprintf("- %s: %d만원", p.Name, p.Price/10000)
}

// Block holds the rendered lines of one category.
type Block struct {
	Category model.Category
	Lines    []string
}

// PromptContext is the ordered set of category blocks fed to a prompt.
type PromptContext struct {
	Blocks []Block
}

// Empty reports whether no category produced any line.
func (pc PromptContext) Empty() bool { return len(pc.Blocks) == 0 }

// LineCount is the number of rendered records across blocks.
func (pc PromptContext) LineCount() int {
	n := 0
	for _, b := range pc.Blocks {
		n += len(b.Lines)
	}
	return n
}

// Lines joins every line with newlines, without category headers.
func (pc PromptContext) Lines() string {
	var lines []string
	for _, b := range pc.Blocks {
		lines = append(lines, b.Lines...)
	}
	return strings.Join(lines, "\n")
}

// Sectioned renders each block under a "[label]" header.
func (pc PromptContext) Sectioned() string {
	var sb strings.Builder
	for _, b := range pc.Blocks {
		sb.WriteString("\n[")
		sb.WriteString(b.Category.Label())
		sb.WriteString("]\n")
		for _, line := range b.Lines {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Request selects what to retrieve.
type Request struct {
	Categories  []model.Category
	PerCategory int
	Sort        model.Sort
	Line        LineRenderer
}

// Builder runs one bounded catalog read per category.
type Builder struct {
	store   catalog.Store
	digests Digester
}

// NewBuilder returns a Builder. A nil digester falls back to PlainDigests.
func NewBuilder(store catalog.Store, digests Digester) *Builder {
	if digests == nil {
		digests = PlainDigests
	}
	return &Builder{store: store, digests: digests}
}

// Build returns at most PerCategory lines per category in the requested sort
// order. Categories with no rows, or whose read fails, are left out.
func (b *Builder) Build(ctx context.Context, req Request) PromptContext {
	line := req.Line
	if line == nil {
		line = ChatLine
	}
	var pc PromptContext
	if req.PerCategory <= 0 {
		return pc
	}

	for _, c := range req.Categories {
		page, err := b.store.Query(ctx, catalog.Query{
			Predicate: filter.In(filter.FieldCategory, c.Label()),
			Sort:      req.Sort,
			Limit:     req.PerCategory,
		})
		if err != nil {
			log.Warn().Err(err).Str("category", c.Label()).Msg("retrieval: category read failed, skipping")
			continue
		}
		if len(page.Parts) == 0 {
			continue
		}

		parts := page.Parts
		if len(parts) > req.PerCategory {
			parts = parts[:req.PerCategory]
		}
		block := Block{Category: c, Lines: make([]string, 0, len(parts))}
		for _, p := range parts {
			block.Lines = append(block.Lines, line(p, b.digests.Digest(p)))
		}
		pc.Blocks = append(pc.Blocks, block)
	}
	return pc
}
