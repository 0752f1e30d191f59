package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a gateway failure.
type Kind int

const (
	KindNetwork   Kind = iota + 1 // transport error or timeout
	KindStatus                    // non-2xx response
	KindMalformed                 // missing or unparseable candidate text
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

// Error is the failure returned by Client.Generate.
type Error struct {
	Kind       Kind
	StatusCode int // KindStatus only
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("gemini: HTTP %d", e.StatusCode)
	case KindMalformed:
		return fmt.Sprintf("gemini: malformed response: %v", e.Err)
	}
	return fmt.Sprintf("gemini: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline.
func (e *Error) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// Classify returns the failure class of err, wrapping foreign errors as
// network failures.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	return &Error{Kind: KindNetwork, Err: err}
}

// GenerateRequest is the generateContent request envelope.
type GenerateRequest struct {
	Contents []Content `json:"contents"`
}

// GenerateResponse is the subset of the generateContent response we read.
type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	Content *Content `json:"content"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

func newRequest(prompt string) GenerateRequest {
	return GenerateRequest{Contents: []Content{{Parts: []Part{{Text: prompt}}}}}
}

// FirstText returns candidates[0].content.parts[0].text; ok is false when
// any level is missing or the text is empty.
func (r GenerateResponse) FirstText() (string, bool) {
	if len(r.Candidates) == 0 {
		return "", false
	}
	c := r.Candidates[0].Content
	if c == nil || len(c.Parts) == 0 || c.Parts[0].Text == "" {
		return "", false
	}
	return c.Parts[0].Text, true
}
