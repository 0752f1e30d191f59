// Package normalize turns raw model replies into the shapes the API returns.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"

	"pcadvisor/internal/gemini"
	"pcadvisor/internal/model"
)

const (
	// Note is attached to every structured estimate.
	Note = "가격은 만원 단위 예시이며 실제 시세와 다를 수 있습니다."

	GatewayFailed     = "AI 응답 생성에 실패했습니다."
	textFailurePrefix = "AI 응답 생성 중 오류가 발생했습니다: "
	malformedDetail   = "응답을 생성할 수 없습니다."
)

// Text returns the reply verbatim, or a fixed failure sentence when the
// gateway call failed.
func Text(text string, err error) string {
	if err == nil {
		return text
	}
	return textFailurePrefix + detail(err)
}

func detail(err error) string {
	ge := gemini.Classify(err)
	switch ge.Kind {
	case gemini.KindStatus:
		return fmt.Sprintf("HTTP %d", ge.StatusCode)
	case gemini.KindMalformed:
		return malformedDetail
	}
	if ge.Err != nil {
		return ge.Err.Error()
	}
	return ge.Error()
}

// Estimate parses a structured estimate reply. It never fails: unusable
// replies produce a fallback document with empty items and zero total.
func Estimate(text string, err error, summary model.EstimateSummary) model.EstimateResult {
	if err != nil {
		return Fallback(summary, GatewayFailed)
	}

	doc, perr := decode(Strip(text))
	if perr != nil {
		log.Warn().Err(perr).Int("reply_bytes", len(text)).Msg("normalize: unparseable estimate")
		return Fallback(summary, "오류 발생: "+perr.Error())
	}

	items := make([]model.EstimateItem, 0, len(doc.Items))
	var sum float64
	for _, it := range doc.Items {
		items = append(items, model.EstimateItem{Category: it.Category, Name: it.Name, Price: it.Price.value})
		sum += it.Price.value
	}

	total := sum
	if math.IsInf(total, 0) {
		total = 0
	}
	if doc.Total.set {
		total = doc.Total.value
	}
	return model.EstimateResult{
		Summary:   summary,
		Items:     items,
		Total:     total,
		Reasoning: doc.Reasoning,
		Note:      Note,
	}
}

// Fallback is the estimate returned when no usable reply exists.
func Fallback(summary model.EstimateSummary, reasoning string) model.EstimateResult {
	return model.EstimateResult{
		Summary:   summary,
		Items:     []model.EstimateItem{},
		Total:     0,
		Reasoning: reasoning,
		Note:      Note,
	}
}

// Strip removes a surrounding markdown code fence and, if the remainder
// still does not open with '{', keeps only the outermost {...} span.
func Strip(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	if !strings.HasPrefix(s, "{") {
		start := strings.Index(s, "{")
		end := strings.LastIndex(s, "}")
		if start >= 0 && end > start {
			s = s[start : end+1]
		}
	}
	return s
}

type estimateDoc struct {
	Items     []estimateItem `json:"items"`
	Total     flexNumber     `json:"total"`
	Reasoning string         `json:"reasoning"`
}

type estimateItem struct {
	Category string     `json:"cat"`
	Name     string     `json:"name"`
	Price    flexNumber `json:"price"`
}

// decode strictly decodes s, retrying once on a repaired copy.
func decode(s string) (estimateDoc, error) {
	doc, err := decodeStrict(s)
	if err == nil {
		return doc, nil
	}
	repaired, rerr := jsonrepair.JSONRepair(s)
	if rerr != nil {
		return estimateDoc{}, err
	}
	doc, rerr = decodeStrict(repaired)
	if rerr != nil {
		return estimateDoc{}, err
	}
	log.Debug().Msg("normalize: estimate reply repaired")
	return doc, nil
}

func decodeStrict(s string) (estimateDoc, error) {
	var doc estimateDoc
	dec := json.NewDecoder(strings.NewReader(s))
	if err := dec.Decode(&doc); err != nil {
		return estimateDoc{}, err
	}
	if dec.More() {
		return estimateDoc{}, fmt.Errorf("unexpected data after estimate object")
	}
	return doc, nil
}

// flexNumber accepts a finite JSON number or numeric string. Anything else,
// including null, NaN and infinities, leaves it unset with a zero value.
type flexNumber struct {
	value float64
	set   bool
}

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*f = flexNumber{}
		return nil
	}
	*f = flexNumber{value: v, set: true}
	return nil
}
