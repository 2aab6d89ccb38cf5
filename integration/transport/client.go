package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/pixbridge/integration"
	"github.com/marcelsud/pixbridge/integration/envelope"
	"github.com/marcelsud/pixbridge/integration/signature"
	"github.com/rs/zerolog"
)

const (
	UserAgent = "DMCCryptoPIX/1.0"
	Source    = "DMCCryptoPIX"

	// BackoffBase is multiplied by the failed attempt number: 1s, 2s, 3s...
	BackoffBase = time.Second

	// maxResponseBytes caps how much of a response body is read
	maxResponseBytes = 4 << 20
)

// AttemptObserver is told about every network attempt, successful or not
type AttemptObserver interface {
	ObserveAttempt(ctx context.Context, attempt int, elapsed time.Duration, err error)
}

// ObserverFunc adapts a plain function to AttemptObserver
type ObserverFunc func(ctx context.Context, attempt int, elapsed time.Duration, err error)

func (f ObserverFunc) ObserveAttempt(ctx context.Context, attempt int, elapsed time.Duration, err error) {
	f(ctx, attempt, elapsed, err)
}

// SleepFunc waits d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

/* Client is the HTTP implementation of integration.Transport
 * Attempts of one Send are strictly sequential and each owns its own timeout
 */
type Client struct {
	httpClient  *http.Client
	backoffBase time.Duration
	sleep       SleepFunc
	now         func() time.Time
	observer    AttemptObserver
	logger      zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithBackoffBase(d time.Duration) Option {
	return func(c *Client) { c.backoffBase = d }
}

// WithSleep replaces the backoff wait, tests use it to record delays
func WithSleep(sleep SleepFunc) Option {
	return func(c *Client) { c.sleep = sleep }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithObserver(o AttemptObserver) Option {
	return func(c *Client) { c.observer = o }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a transport with linear backoff
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{},
		backoffBase: BackoffBase,
		sleep:       sleepContext,
		now:         time.Now,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

/* Send calls cfg.APIURL up to cfg.MaxRetries+1 times
 * A nil payload, typed or not, is sent as GET; anything else is POSTed as JSON
 * Between failed attempts it waits backoffBase * attempt
 * Returns the decoded body of the first 2xx response or the last error
 */
func (c *Client) Send(ctx context.Context, cfg integration.EndpointConfig, payload any) (json.RawMessage, error) {
	hasBody := !isNil(payload)
	var body []byte
	if hasBody {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling payload: %w", err)
		}
	}

	attempts := cfg.Attempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		start := c.now()
		result, err := c.attempt(ctx, cfg, body, hasBody, attempt)
		if c.observer != nil {
			c.observer.ObserveAttempt(ctx, attempt, c.now().Sub(start), err)
		}
		if err == nil {
			return result, nil
		}
		lastErr = err

		c.logger.Debug().Err(err).Str("url", cfg.APIURL).Int("attempt", attempt).Int("attempts", attempts).Msg("attempt failed")

		// The caller gave up, do not spend the remaining attempts
		if ctx.Err() != nil {
			return nil, lastErr
		}

		if attempt < attempts {
			if err := c.sleep(ctx, c.backoffBase*time.Duration(attempt)); err != nil {
				return nil, lastErr
			}
		}
	}

	return nil, lastErr
}

// isNil reports an absent payload: untyped nil or a nil pointer, slice, map or interface
func isNil(payload any) bool {
	if payload == nil {
		return true
	}
	v := reflect.ValueOf(payload)
	switch v.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func (c *Client) attempt(ctx context.Context, cfg integration.EndpointConfig, body []byte, hasBody bool, attempt int) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, cfg.AttemptTimeout())
	defer cancel()

	method := http.MethodGet
	var reader io.Reader
	if hasBody {
		method = http.MethodPost
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, cfg.APIURL, reader)
	if err != nil {
		return nil, &integration.TransportError{Attempt: attempt, Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &integration.TransportError{Attempt: attempt, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &integration.HTTPStatusError{
			Attempt:    attempt,
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &integration.TransportError{Attempt: attempt, Err: fmt.Errorf("reading response: %w", err)}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(raw) {
		return nil, &integration.TransportError{Attempt: attempt, Err: fmt.Errorf("decoding response: invalid JSON")}
	}

	return json.RawMessage(raw), nil
}

/* Notify posts a webhook envelope to cfg.WebhookURL in a single attempt
 * When cfg.WebhookSecret is set the request is signed (Standard Webhooks)
 */
func (c *Client) Notify(ctx context.Context, cfg integration.EndpointConfig, event string, data any) error {
	now := c.now()
	env, err := envelope.New(event, data, now)
	if err != nil {
		return fmt.Errorf("building envelope: %w", err)
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}

	notifyCtx, cancel := context.WithTimeout(ctx, cfg.AttemptTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(notifyCtx, http.MethodPost, cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Event-Type", event)
	req.Header.Set("X-Source", Source)

	if cfg.WebhookSecret != "" {
		if err := sign(req, cfg.WebhookSecret, now, body); err != nil {
			return err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &integration.TransportError{Attempt: 1, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &integration.HTTPStatusError{Attempt: 1, StatusCode: resp.StatusCode, Status: statusText(resp)}
	}
	return nil
}

func sign(req *http.Request, encodedSecret string, now time.Time, body []byte) error {
	secret, err := signature.ParseSecret(encodedSecret)
	if err != nil {
		return fmt.Errorf("parsing webhook secret: %w", err)
	}

	msgID := "msg_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	sig, err := signature.Sign(secret, msgID, now, body)
	if err != nil {
		return fmt.Errorf("signing webhook: %w", err)
	}

	req.Header.Set(signature.HeaderID, msgID)
	req.Header.Set(signature.HeaderTimestamp, strconv.FormatInt(now.Unix(), 10))
	req.Header.Set(signature.HeaderSignature, sig)
	return nil
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
