package adapter

import (
	"context"
	"encoding/json"

	"github.com/marcelsud/pixbridge/integration"
)

/* Registry is the slice of integration.Registry the adapters use
 * Adapters keep no state of their own; every adapter built over the same
 * Registry reads and writes the same entries
 */
type Registry interface {
	Register(id string, system integration.System) error
	Dispatch(ctx context.Context, id string, payload any) (json.RawMessage, error)
}

// Request is a typed adapter call, serialised as {"action": Action(), ...fields}
type Request interface {
	json.Marshaler
	Action() string
}

// Action names sent in the request body
const (
	ActionGeneratePix     = "generate_pix"
	ActionValidatePayment = "validate_payment"
	ActionGetPrices       = "get_prices"
	ActionExecuteOrder    = "execute_order"
	ActionSyncUser        = "sync_user"
	ActionGetUser         = "get_user"
)

// Well-known registry ids
const (
	PixProviderID    = "pix_provider"
	CryptoExchangeID = "crypto_exchange"
	ExternalDBID     = "external_db"
)

func register(r Registry, id, name string, kind integration.Kind, cfg integration.EndpointConfig) error {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = integration.DefaultMaxRetries
	}
	return r.Register(id, integration.System{
		Name:   name,
		Kind:   kind,
		Config: cfg,
		Active: true,
	})
}
