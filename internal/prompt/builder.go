// Package prompt assembles model prompts from a template, retrieved context
// and the user's request.
package prompt

import (
	"strconv"
	"strings"

	"pcadvisor/internal/retrieval"
)

// TemplateKind selects the response contract a prompt asks for.
type TemplateKind int

const (
	// FreeText asks for prose; the reply is not validated.
	FreeText TemplateKind = iota
	// StructuredEstimate asks for a bare JSON estimate document.
	StructuredEstimate
)

func (k TemplateKind) String() string {
	switch k {
	case FreeText:
		return "free_text"
	case StructuredEstimate:
		return "structured_estimate"
	}
	return "unknown"
}

// ContextStyle selects how retrieved blocks are rendered.
type ContextStyle int

const (
	// Flat lists every line without category headers.
	Flat ContextStyle = iota
	// Sectioned groups lines under "[category]" headers.
	Sectioned
)

// Template is the fixed part of a prompt.
type Template struct {
	Kind         TemplateKind
	Persona      string
	Instructions []string
	ContextTitle string
	ContextStyle ContextStyle
	Schema       string // StructuredEstimate only
	Footer       string
}

// Request is the per-call part of a prompt.
type Request struct {
	Query        string   // literal user text, FreeText only
	Requirements []string // parameter lines, StructuredEstimate only
}

// Build renders the prompt. It never truncates the context.
func Build(t Template, pc retrieval.PromptContext, req Request) string {
	context := pc.Lines()
	if t.ContextStyle == Sectioned {
		context = pc.Sectioned()
	}
	if t.Kind == StructuredEstimate {
		return buildStructured(t, context, req)
	}
	return buildFreeText(t, context, req)
}

func buildFreeText(t Template, context string, req Request) string {
	var sb strings.Builder
	sb.WriteString("# 페르소나\n")
	sb.WriteString(t.Persona)
	sb.WriteString("\n\n# 지시사항\n")
	for i, ins := range t.Instructions {
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		sb.WriteString(ins)
		sb.WriteString("\n")
	}
	sb.WriteString("\n---\n## ")
	sb.WriteString(t.ContextTitle)
	sb.WriteString(" ##\n")
	sb.WriteString(context)
	sb.WriteString("\n---\n")
	if req.Query != "" {
		sb.WriteString("\n# 사용자 질문\n")
		sb.WriteString(req.Query)
		sb.WriteString("\n")
	}
	if t.Footer != "" {
		sb.WriteString("\n")
		sb.WriteString(t.Footer)
		sb.WriteString("\n")
	}
	return sb.String()
}

func buildStructured(t Template, context string, req Request) string {
	var sb strings.Builder
	sb.WriteString(t.Persona)
	sb.WriteString("\n")
	for _, ins := range t.Instructions {
		sb.WriteString(ins)
		sb.WriteString("\n")
	}
	sb.WriteString("\n요구사항:\n")
	for _, r := range req.Requirements {
		sb.WriteString("- ")
		sb.WriteString(r)
		sb.WriteString("\n")
	}
	sb.WriteString("- ")
	sb.WriteString(t.ContextTitle)
	sb.WriteString(": ")
	sb.WriteString(context)
	sb.WriteString("\n\n반드시 아래 스키마로만 응답:\n")
	sb.WriteString(t.Schema)
	sb.WriteString("\n")
	if t.Footer != "" {
		sb.WriteString(t.Footer)
		sb.WriteString("\n")
	}
	return sb.String()
}
