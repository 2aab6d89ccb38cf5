package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcelsud/pixbridge/integration"
)

// Side of an exchange order
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

func (s Side) Validate() error {
	switch s {
	case Buy, Sell:
		return nil
	default:
		return fmt.Errorf("invalid order side %q: must be buy or sell", string(s))
	}
}

// GetPrices asks the exchange for current quotes
type GetPrices struct {
	Symbols []string `json:"symbols"`
}

func (GetPrices) Action() string { return ActionGetPrices }

func (r GetPrices) MarshalJSON() ([]byte, error) {
	type fields GetPrices
	return json.Marshal(struct {
		Action string `json:"action"`
		fields
	}{r.Action(), fields(r)})
}

// Order is an execute_order request; Price is omitted for market orders
type Order struct {
	Symbol string   `json:"symbol"`
	Side   Side     `json:"side"`
	Amount float64  `json:"amount"`
	Price  *float64 `json:"price,omitempty"`
}

func (Order) Action() string { return ActionExecuteOrder }

func (r Order) MarshalJSON() ([]byte, error) {
	type fields Order
	return json.Marshal(struct {
		Action string `json:"action"`
		fields
	}{r.Action(), fields(r)})
}

func (r Order) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("order symbol is required")
	}
	if r.Amount <= 0 {
		return fmt.Errorf("order amount must be positive")
	}
	return r.Side.Validate()
}

// ExchangeConfig describes the crypto exchange to integrate
type ExchangeConfig struct {
	ExchangeName string
	APIURL       string
	APIKey       string
	Timeout      time.Duration
	MaxRetries   int
}

// Exchange wraps the crypto_exchange system
type Exchange struct {
	registry Registry
}

func NewExchange(registry Registry) *Exchange {
	return &Exchange{registry: registry}
}

// IntegrateExchange registers (or replaces) the active crypto_exchange system
func (e *Exchange) IntegrateExchange(cfg ExchangeConfig) error {
	return register(e.registry, CryptoExchangeID, cfg.ExchangeName, integration.API, integration.EndpointConfig{
		APIURL:     cfg.APIURL,
		APIKey:     cfg.APIKey,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
	})
}

func (e *Exchange) GetRealTimePrices(ctx context.Context, symbols []string) (json.RawMessage, error) {
	if symbols == nil {
		symbols = []string{}
	}
	result, err := e.registry.Dispatch(ctx, CryptoExchangeID, GetPrices{Symbols: symbols})
	if err != nil {
		return nil, fmt.Errorf("getting prices: %w", err)
	}
	return result, nil
}

// ExecuteOrder validates the order locally before it reaches the exchange
func (e *Exchange) ExecuteOrder(ctx context.Context, order Order) (json.RawMessage, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	result, err := e.registry.Dispatch(ctx, CryptoExchangeID, order)
	if err != nil {
		return nil, fmt.Errorf("executing order: %w", err)
	}
	return result, nil
}
