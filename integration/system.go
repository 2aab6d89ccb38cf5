package integration

import (
	"fmt"
	"net/url"
	"time"

	"github.com/marcelsud/pixbridge/integration/signature"
)

const (
	// DefaultTimeout bounds a single attempt when the config leaves Timeout unset
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is applied by input boundaries that can tell "unset" from 0
	DefaultMaxRetries = 3
)

/* EndpointConfig describes how to reach one external system
 * APIURL is the full target, the dispatcher never appends paths to it
 */
type EndpointConfig struct {
	APIURL        string
	APIKey        string
	WebhookURL    string
	WebhookSecret string // Optional Standard Webhooks secret (whsec_ prefix)
	Timeout       time.Duration
	MaxRetries    int // 0 means a single attempt
}

// AttemptTimeout returns the per-attempt timeout, falling back to DefaultTimeout
func (c EndpointConfig) AttemptTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// Attempts returns the total number of network attempts a dispatch may make
func (c EndpointConfig) Attempts() int {
	if c.MaxRetries < 0 {
		return 1
	}
	return c.MaxRetries + 1
}

// Validate performs the strict checks used by the HTTP API and preset loader
func (c EndpointConfig) Validate() error {
	if c.APIURL == "" {
		return ErrMissingAPIURL
	}
	if err := validateAbsoluteURL(c.APIURL); err != nil {
		return fmt.Errorf("invalid api_url: %w", err)
	}
	if c.WebhookURL != "" {
		if err := validateAbsoluteURL(c.WebhookURL); err != nil {
			return fmt.Errorf("invalid webhook_url: %w", err)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if c.WebhookSecret != "" {
		if _, err := signature.ParseSecret(c.WebhookSecret); err != nil {
			return fmt.Errorf("invalid webhook_secret: %w", err)
		}
	}
	return nil
}

/* System is a registered integration target
 * Uses value semantics: the registry hands out copies, never shared pointers
 */
type System struct {
	Name   string
	Kind   Kind
	Config EndpointConfig
	Active bool
}

// Validate checks the system and its endpoint configuration
func (s System) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if err := s.Kind.Validate(); err != nil {
		return err
	}
	if err := s.Config.Validate(); err != nil {
		return err
	}
	return nil
}

func validateAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", raw)
	}
	return nil
}
