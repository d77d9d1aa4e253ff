// Package advisory talks to the external risk oracle: per-record security
// audits and a short global threat briefing.
//
// The client never fails. Transport errors, throttling, timeouts and
// malformed answers are logged and replaced with fixed fallback values, so
// callers can attach whatever comes back without checking for errors.
package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dmitrijs2005/cyphervault/internal/client/models"
	"github.com/dmitrijs2005/cyphervault/internal/logging"
	"golang.org/x/time/rate"
)

const (
	BriefingEmpty   = "Global threat levels elevated. All systems green."
	BriefingOffline = "Threat monitoring offline. Maintain active defense."

	briefingPrompt = "Give a short, 2-sentence 'cybersecurity threat brief' for today. Sound professional and high-tech."
	briefingSystem = "You are a lead security analyst for CypherVault. Your tone is urgent, technical, and precise."

	fallbackScore = 50

	DefaultTimeout = 20 * time.Second
)

var (
	ErrUnavailable       = errors.New("advisory service unavailable")
	ErrMalformedResponse = errors.New("malformed advisory response")
)

// FallbackAudit is attached when an audit cannot be obtained.
func FallbackAudit() models.AdvisoryResult {
	return models.AdvisoryResult{
		Score:           fallbackScore,
		Vulnerabilities: []string{"Audit connection failed"},
		Recommendations: []string{"Check manual encryption settings"},
	}
}

// Oracle is the remote model. GenerateJSON must answer with a JSON object
// of the shape {score, vulnerabilities, recommendations}.
type Oracle interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	GenerateText(ctx context.Context, prompt, systemInstruction string) (string, error)
}

// Client calls an Oracle and turns every failure into a fallback value. It
// is safe for concurrent use.
type Client struct {
	oracle  Oracle
	limiter *rate.Limiter
	timeout time.Duration
	logger  logging.Logger
}

// Option configures a Client in NewClient.
type Option func(*Client)

// WithTimeout bounds every oracle call. The default is DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRateLimit caps oracle calls per minute. Zero or negative disables the cap.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)
	}
}

// WithLogger sets where recovered failures are reported.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient wraps oracle. A nil oracle is allowed: every call then falls back.
func NewClient(oracle Oracle, opts ...Option) *Client {
	c := &Client{
		oracle:  oracle,
		limiter: rate.NewLimiter(rate.Inf, 0),
		timeout: DefaultTimeout,
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func auditPrompt(site, loginName string) string {
	return fmt.Sprintf("Perform a theoretical security audit for a login entry for %q with username %q. "+
		"Assess common threats for this specific service and provide a risk score (1-100).", site, loginName)
}

// AuditRecord returns the oracle's assessment for a site/login pair, or
// FallbackAudit on any failure.
func (c *Client) AuditRecord(ctx context.Context, site, loginName string) models.AdvisoryResult {
	res, err := c.audit(ctx, site, loginName)
	if err != nil {
		c.logger.Warn(ctx, "audit failed, using fallback", "site", site, "error", err)
		return FallbackAudit()
	}
	return res
}

func (c *Client) audit(ctx context.Context, site, loginName string) (models.AdvisoryResult, error) {
	raw, err := c.call(ctx, func(ctx context.Context) (string, error) {
		return c.oracle.GenerateJSON(ctx, auditPrompt(site, loginName))
	})
	if err != nil {
		return models.AdvisoryResult{}, err
	}
	return parseAudit(raw)
}

// GlobalBriefing returns a short threat summary. An empty answer becomes
// BriefingEmpty and a failure BriefingOffline.
func (c *Client) GlobalBriefing(ctx context.Context) string {
	text, err := c.call(ctx, func(ctx context.Context) (string, error) {
		return c.oracle.GenerateText(ctx, briefingPrompt, briefingSystem)
	})
	if err != nil {
		c.logger.Warn(ctx, "briefing failed, using fallback", "error", err)
		return BriefingOffline
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return BriefingEmpty
	}
	return text
}

func (c *Client) call(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	if c.oracle == nil {
		return "", ErrUnavailable
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limited: %v", ErrUnavailable, err)
	}

	out, err := fn(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

func parseAudit(raw string) (models.AdvisoryResult, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var payload struct {
		Score           *float64 `json:"score"`
		Vulnerabilities []string `json:"vulnerabilities"`
		Recommendations []string `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		return models.AdvisoryResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if payload.Score == nil {
		return models.AdvisoryResult{}, fmt.Errorf("%w: missing score", ErrMalformedResponse)
	}

	res := models.AdvisoryResult{
		Score:           int(math.Round(min(max(*payload.Score, 1), 100))),
		Vulnerabilities: payload.Vulnerabilities,
		Recommendations: payload.Recommendations,
	}
	if res.Vulnerabilities == nil {
		res.Vulnerabilities = []string{}
	}
	if res.Recommendations == nil {
		res.Recommendations = []string{}
	}
	return res, nil
}
