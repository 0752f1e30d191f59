// Package reviews fills in AI summaries for crawled community reviews.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// MaxInputRunes bounds the review text sent to the model.
const MaxInputRunes = 15000

var ErrEmptySummary = errors.New("reviews: empty summary")

// TextGenerator turns a prompt into model text.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GenAI is a TextGenerator backed by the Gemini SDK.
type GenAI struct {
	cli   *genai.Client
	model string
}

func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("reviews: genai client: %w", err)
	}
	return &GenAI{cli: cli, model: model}, nil
}

func (g *GenAI) GenerateText(ctx context.Context, prompt string) (string, error) {
	temperature := float32(0.5)
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{Temperature: &temperature},
	)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptySummary
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// Prompt builds the summarization prompt for one review.
func Prompt(text string) string {
	return "당신은 PC 부품 전문 리뷰어입니다. 다음 사용자 리뷰를 읽고, " +
		"제품의 핵심 장점, 단점, 성능 관련 언급, 최종 결론을 3~5줄로 요약해주세요. " +
		"'요약:' 같은 머리말 없이 요약 내용만 작성하세요.\n\n" +
		"--- 리뷰 원본 ---\n" + Truncate(text, MaxInputRunes) + "\n\n--- 요약 ---\n"
}

// Truncate keeps at most n runes of s.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Summarize asks gen for a summary of text.
func Summarize(ctx context.Context, gen TextGenerator, text string) (string, error) {
	out, err := gen.GenerateText(ctx, Prompt(text))
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptySummary
	}
	return out, nil
}
