// Package gemini is the client for the external generateContent endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL        = "https://generativelanguage.googleapis.com"
	DefaultModel          = "gemini-2.5-flash"
	DefaultConnectTimeout = 30 * time.Second
	DefaultTimeout        = 60 * time.Second
)

// Config configures a Client. Zero values take the defaults above;
// RatePerSecond <= 0 disables outbound pacing.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	ConnectTimeout time.Duration
	Timeout        time.Duration
	RatePerSecond  float64
	Burst          int
}

// Client issues single-attempt generateContent calls.
type Client struct {
	endpoint   string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a client with a dialer bounded by the connect timeout and
// an overall per-call timeout.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		MaxIdleConns:        16,
		IdleConnTimeout:     90 * time.Second,
	}

	c := &Client{
		endpoint: fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(cfg.BaseURL, "/"), cfg.Model),
		apiKey:   cfg.APIKey,
		timeout:  cfg.Timeout,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return c
}

// Generate sends prompt and returns the first candidate's first text part.
// timeout bounds the whole call including any pacing wait; <= 0 uses the
// configured default. Failures are always *Error.
func (c *Client) Generate(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &Error{Kind: KindNetwork, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	body, err := json.Marshal(newRequest(prompt))
	if err != nil {
		return "", &Error{Kind: KindNetwork, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindNetwork, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.URL.RawQuery = url.Values{"key": {c.apiKey}}.Encode()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Err: redactKey(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Warn().Int("status", resp.StatusCode).Str("body", string(snippet)).
			Dur("elapsed", time.Since(start)).Msg("gemini: non-success status")
		return "", &Error{Kind: KindStatus, StatusCode: resp.StatusCode}
	}

	var out GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if ctx.Err() != nil {
			return "", &Error{Kind: KindNetwork, Err: ctx.Err()}
		}
		return "", &Error{Kind: KindMalformed, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	text, ok := out.FirstText()
	if !ok {
		return "", &Error{Kind: KindMalformed, Err: errors.New("no candidate text")}
	}

	log.Debug().Dur("elapsed", time.Since(start)).Int("prompt_bytes", len(prompt)).
		Int("reply_bytes", len(text)).Msg("gemini: generated")
	return text, nil
}

// redactKey strips the query string, which carries the API key, from
// url.Error messages.
func redactKey(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if u, perr := url.Parse(uerr.URL); perr == nil {
			u.RawQuery = ""
			return &url.Error{Op: uerr.Op, URL: u.String(), Err: uerr.Err}
		}
	}
	return err
}
