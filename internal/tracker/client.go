// Package tracker contains the HTTP collaborators that pull live records
// from Zendesk and Jira on behalf of a customer. Both clients share one
// transport: a retrying HTTP client (429 and 5xx are retried with backoff
// honoring Retry-After), a token-bucket limiter for outbound pacing, and
// gjson for picking fields out of large payloads without full decoding.
package tracker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// maxBody caps how much of a single API response is read.
const maxBody = 32 << 20

// maxPages bounds pagination in case a server keeps handing out cursors.
const maxPages = 1000

// Options tunes the shared transport. Zero values fall back to defaults.
type Options struct {
	Timeout      time.Duration // per attempt
	RateRPS      float64       // outbound requests per second
	MaxRetries   int           // retries after the first attempt
	PageSize     int           // records requested per page
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// BaseURL overrides the host derived from the customer's credentials.
	BaseURL string
	// Logger receives retry diagnostics; defaults to the global logger.
	Logger *zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.RateRPS <= 0 {
		o.RateRPS = 5
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.PageSize <= 0 {
		o.PageSize = 100
	}
	if o.RetryWaitMin <= 0 {
		o.RetryWaitMin = time.Second
	}
	if o.RetryWaitMax <= 0 {
		o.RetryWaitMax = 30 * time.Second
	}
	return o
}

// APIError is returned when the remote system answers with a non-2xx
// status after retries are exhausted or for non-retryable statuses.
type APIError struct {
	Status int
	URL    string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.URL, e.Status, e.Body)
}

type client struct {
	http     *retryablehttp.Client
	limiter  *rate.Limiter
	user     string
	password string
}

func newClient(user, password string, opts Options) *client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.MaxRetries
	rc.RetryWaitMin = opts.RetryWaitMin
	rc.RetryWaitMax = opts.RetryWaitMax
	rc.HTTPClient.Timeout = opts.Timeout

	l := log.Logger
	if opts.Logger != nil {
		l = *opts.Logger
	}
	rc.Logger = leveledLogger{l: l.With().Str("component", "tracker").Logger()}

	burst := int(opts.RateRPS)
	if burst < 1 {
		burst = 1
	}
	return &client{
		http:     rc,
		limiter:  rate.NewLimiter(rate.Limit(opts.RateRPS), burst),
		user:     user,
		password: password,
	}
}

// getJSON performs an authenticated GET and returns the validated JSON body.
func (c *client) getJSON(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, URL: url, Body: snippet(body)}
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s: response is not valid JSON", url)
	}
	return body, nil
}

func snippet(b []byte) string {
	const n = 200
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// leveledLogger adapts zerolog to retryablehttp.LeveledLogger.
type leveledLogger struct{ l zerolog.Logger }

func (z leveledLogger) Error(msg string, kv ...interface{}) { z.l.Error().Fields(kv).Msg(msg) }
func (z leveledLogger) Info(msg string, kv ...interface{})  { z.l.Debug().Fields(kv).Msg(msg) }
func (z leveledLogger) Debug(msg string, kv ...interface{}) { z.l.Trace().Fields(kv).Msg(msg) }
func (z leveledLogger) Warn(msg string, kv ...interface{})  { z.l.Warn().Fields(kv).Msg(msg) }
