package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marcelsud/pixbridge/integration"
)

// ErrMissingPixCode is returned when a provider answers generate_pix without a code
var ErrMissingPixCode = errors.New("response has no pixCode")

// GeneratePix asks the provider for a PIX copy-and-paste code
type GeneratePix struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

func (GeneratePix) Action() string { return ActionGeneratePix }

func (r GeneratePix) MarshalJSON() ([]byte, error) {
	type fields GeneratePix
	return json.Marshal(struct {
		Action string `json:"action"`
		fields
	}{r.Action(), fields(r)})
}

// ValidatePayment asks the provider whether a PIX code was paid
type ValidatePayment struct {
	PixCode string `json:"pixCode"`
}

func (ValidatePayment) Action() string { return ActionValidatePayment }

func (r ValidatePayment) MarshalJSON() ([]byte, error) {
	type fields ValidatePayment
	return json.Marshal(struct {
		Action string `json:"action"`
		fields
	}{r.Action(), fields(r)})
}

// PixProviderConfig describes the PIX provider to integrate
type PixProviderConfig struct {
	ProviderName  string
	APIURL        string
	APIKey        string
	WebhookURL    string
	WebhookSecret string
	Timeout       time.Duration
	MaxRetries    int
}

// Payment wraps the pix_provider system
type Payment struct {
	registry Registry
}

func NewPayment(registry Registry) *Payment {
	return &Payment{registry: registry}
}

// IntegratePixProvider registers (or replaces) the active pix_provider system
func (p *Payment) IntegratePixProvider(cfg PixProviderConfig) error {
	return register(p.registry, PixProviderID, cfg.ProviderName, integration.API, integration.EndpointConfig{
		APIURL:        cfg.APIURL,
		APIKey:        cfg.APIKey,
		WebhookURL:    cfg.WebhookURL,
		WebhookSecret: cfg.WebhookSecret,
		Timeout:       cfg.Timeout,
		MaxRetries:    cfg.MaxRetries,
	})
}

// GeneratePixCode returns the pixCode field of the provider's answer
func (p *Payment) GeneratePixCode(ctx context.Context, amount float64, description string) (string, error) {
	result, err := p.registry.Dispatch(ctx, PixProviderID, GeneratePix{Amount: amount, Description: description})
	if err != nil {
		return "", fmt.Errorf("generating pix code: %w", err)
	}

	var body struct {
		PixCode string `json:"pixCode"`
	}
	if err := json.Unmarshal(result, &body); err != nil {
		return "", fmt.Errorf("decoding pix code: %w", err)
	}
	if body.PixCode == "" {
		return "", ErrMissingPixCode
	}
	return body.PixCode, nil
}

// ValidatePixPayment returns the provider's answer untouched
func (p *Payment) ValidatePixPayment(ctx context.Context, pixCode string) (json.RawMessage, error) {
	result, err := p.registry.Dispatch(ctx, PixProviderID, ValidatePayment{PixCode: pixCode})
	if err != nil {
		return nil, fmt.Errorf("validating pix payment: %w", err)
	}
	return result, nil
}
