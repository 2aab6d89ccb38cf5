package presets

import (
	"fmt"
	"time"

	"github.com/marcelsud/pixbridge/integration"
)

/* Preset is a pre-filled endpoint for a well-known provider
 * Quick setup turns it into an active System keyed by the preset's Key
 */
type Preset struct {
	Key           string
	Name          string
	Kind          integration.Kind
	APIURL        string
	WebhookURL    string
	WebhookSecret string
	Timeout       time.Duration
	MaxRetries    int
}

// Validate checks the preset would produce a valid System
func (p Preset) Validate() error {
	if p.Key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if err := p.System("").Validate(); err != nil {
		return fmt.Errorf("invalid preset %s: %w", p.Key, err)
	}
	return nil
}

// System builds the active System for this preset with apiKey filled in
func (p Preset) System(apiKey string) integration.System {
	return integration.System{
		Name: p.Name,
		Kind: p.Kind,
		Config: integration.EndpointConfig{
			APIURL:        p.APIURL,
			APIKey:        apiKey,
			WebhookURL:    p.WebhookURL,
			WebhookSecret: p.WebhookSecret,
			Timeout:       p.Timeout,
			MaxRetries:    p.MaxRetries,
		},
		Active: true,
	}
}

// Builtins returns the presets every catalog starts with
func Builtins() []Preset {
	return []Preset{
		{
			Key:        "mercadoPago",
			Name:       "Mercado Pago",
			Kind:       integration.API,
			APIURL:     "https://api.mercadopago.com/v1",
			Timeout:    15 * time.Second,
			MaxRetries: 3,
		},
		{
			Key:        "pagSeguro",
			Name:       "PagSeguro",
			Kind:       integration.API,
			APIURL:     "https://ws.sandbox.pagseguro.uol.com.br",
			Timeout:    15 * time.Second,
			MaxRetries: 3,
		},
		{
			Key:        "binance",
			Name:       "Binance",
			Kind:       integration.API,
			APIURL:     "https://api.binance.com/api/v3",
			Timeout:    10 * time.Second,
			MaxRetries: 2,
		},
		{
			Key:        "supabase",
			Name:       "Supabase",
			Kind:       integration.Database,
			APIURL:     "https://your-project.supabase.co/rest/v1",
			Timeout:    10 * time.Second,
			MaxRetries: 2,
		},
	}
}
