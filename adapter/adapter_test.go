package adapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marcelsud/pixbridge/adapter"
	"github.com/marcelsud/pixbridge/adapter/mocks"
	"github.com/marcelsud/pixbridge/integration"
	"github.com/marcelsud/pixbridge/integration/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPayment_MockPay(t *testing.T) {
	var method string
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pixCode":"ABC123"}`))
	}))
	defer server.Close()

	registry := integration.NewRegistry(transport.NewClient())
	require.NoError(t, registry.Register(adapter.PixProviderID, integration.System{
		Name:   "MockPay",
		Kind:   integration.API,
		Config: integration.EndpointConfig{APIURL: server.URL, Timeout: 5 * time.Second, MaxRetries: 1},
		Active: true,
	}))
	payment := adapter.NewPayment(registry)

	code, err := payment.GeneratePixCode(context.Background(), 100.0, "")

	require.NoError(t, err)
	assert.Equal(t, "ABC123", code)
	assert.Equal(t, http.MethodPost, method)
	assert.JSONEq(t, `{"action":"generate_pix","amount":100}`, string(body))
}

func TestPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("integrate registers an active api system with default retries", func(t *testing.T) {
		registry := mocks.NewRegistry(t)
		registry.On("Register", adapter.PixProviderID, integration.System{
			Name: "Mercado Pago",
			Kind: integration.API,
			Config: integration.EndpointConfig{
				APIURL:     "https://api.mercadopago.com/v1",
				APIKey:     "key",
				WebhookURL: "https://hooks.example.com/pix",
				MaxRetries: integration.DefaultMaxRetries,
			},
			Active: true,
		}).Return(nil)

		err := adapter.NewPayment(registry).IntegratePixProvider(adapter.PixProviderConfig{
			ProviderName: "Mercado Pago",
			APIURL:       "https://api.mercadopago.com/v1",
			APIKey:       "key",
			WebhookURL:   "https://hooks.example.com/pix",
		})
		require.NoError(t, err)
	})

	t.Run("description is sent when given", func(t *testing.T) {
		registry := mocks.NewRegistry(t)
		registry.On("Dispatch", ctx, adapter.PixProviderID, adapter.GeneratePix{Amount: 42.5, Description: "coffee"}).
			Return(json.RawMessage(`{"pixCode":"XYZ"}`), nil)

		code, err := adapter.NewPayment(registry).GeneratePixCode(ctx, 42.5, "coffee")
		require.NoError(t, err)
		assert.Equal(t, "XYZ", code)
	})

	t.Run("missing pixCode is an error", func(t *testing.T) {
		registry := mocks.NewRegistry(t)
		registry.On("Dispatch", ctx, adapter.PixProviderID, mock.Anything).Return(json.RawMessage(`{"status":"ok"}`), nil)

		_, err := adapter.NewPayment(registry).GeneratePixCode(ctx, 1, "")
		require.ErrorIs(t, err, adapter.ErrMissingPixCode)
	})

	t.Run("dispatch errors keep their type", func(t *testing.T) {
		registry := mocks.NewRegistry(t)
		registry.On("Dispatch", ctx, adapter.PixProviderID, mock.Anything).
			Return(nil, &integration.NotFoundError{ID: adapter.PixProviderID})

		_, err := adapter.NewPayment(registry).GeneratePixCode(ctx, 1, "")

		var notFound *integration.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("validate returns the raw answer", func(t *testing.T) {
		registry := mocks.NewRegistry(t)
		registry.On("Dispatch", ctx, adapter.PixProviderID, adapter.ValidatePayment{PixCode: "ABC123"}).
			Return(json.RawMessage(`{"paid":true}`), nil)

		result, err := adapter.NewPayment(registry).ValidatePixPayment(ctx, "ABC123")
		require.NoError(t, err)
		assert.JSONEq(t, `{"paid":true}`, string(result))
	})
}

func TestExchange(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit retries are kept", func(t *testing.T) {
		registry := mocks.NewRegistry(t)
		registry.On("Register", adapter.CryptoExchangeID, mock.MatchedBy(func(s integration.System) bool {
			return s.Name == "Binance" && s.Kind == integration.API && s.Active && s.Config.MaxRetries == 2
		})).Return(nil)

		err := adapter.NewExchange(registry).IntegrateExchange(adapter.ExchangeConfig{
			ExchangeName: "Binance",
			APIURL:       "https://api.binance.com/api/v3",
			MaxRetries:   2,
		})
		require.NoError(t, err)
	})

	t.Run("prices", func(t *testing.T) {
		registry := mocks.NewRegistry(t)
		registry.On("Dispatch", ctx, adapter.CryptoExchangeID, adapter.GetPrices{Symbols: []string{"BTC", "ETH"}}).
			Return(json.RawMessage(`{"BTC":1}`), nil)

		result, err := adapter.NewExchange(registry).GetRealTimePrices(ctx, []string{"BTC", "ETH"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"BTC":1}`, string(result))
	})

	t.Run("invalid side never reaches the registry", func(t *testing.T) {
		registry := mocks.NewRegistry(t)

		_, err := adapter.NewExchange(registry).ExecuteOrder(ctx, adapter.Order{Symbol: "BTC", Side: "hold", Amount: 1})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "buy or sell")
		registry.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("order", func(t *testing.T) {
		price := 350000.0
		order := adapter.Order{Symbol: "BTC", Side: adapter.Buy, Amount: 0.01, Price: &price}
		registry := mocks.NewRegistry(t)
		registry.On("Dispatch", ctx, adapter.CryptoExchangeID, order).Return(json.RawMessage(`{"orderId":7}`), nil)

		result, err := adapter.NewExchange(registry).ExecuteOrder(ctx, order)
		require.NoError(t, err)
		assert.JSONEq(t, `{"orderId":7}`, string(result))
	})
}

func TestDatabase(t *testing.T) {
	ctx := context.Background()

	t.Run("integrate registers a database system", func(t *testing.T) {
		registry := mocks.NewRegistry(t)
		registry.On("Register", adapter.ExternalDBID, mock.MatchedBy(func(s integration.System) bool {
			return s.Kind == integration.Database && s.Name == "supabase" && s.Active
		})).Return(nil)

		err := adapter.NewDatabase(registry).IntegrateDatabase(adapter.DatabaseConfig{
			DBName: "supabase",
			APIURL: "https://your-project.supabase.co/rest/v1",
		})
		require.NoError(t, err)
	})

	t.Run("sync", func(t *testing.T) {
		data := map[string]any{"name": "Ana"}
		registry := mocks.NewRegistry(t)
		registry.On("Dispatch", ctx, adapter.ExternalDBID, adapter.SyncUser{UserID: "u1", Data: data}).
			Return(json.RawMessage(`null`), nil)

		require.NoError(t, adapter.NewDatabase(registry).SyncUserData(ctx, "u1", data))
	})

	t.Run("sync failure is wrapped", func(t *testing.T) {
		registry := mocks.NewRegistry(t)
		registry.On("Dispatch", ctx, adapter.ExternalDBID, mock.Anything).
			Return(nil, &integration.InactiveError{ID: adapter.ExternalDBID})

		err := adapter.NewDatabase(registry).SyncUserData(ctx, "u1", nil)

		var inactive *integration.InactiveError
		require.ErrorAs(t, err, &inactive)
		assert.Contains(t, err.Error(), "syncing user u1")
	})

	t.Run("get", func(t *testing.T) {
		registry := mocks.NewRegistry(t)
		registry.On("Dispatch", ctx, adapter.ExternalDBID, adapter.GetUser{UserID: "u1"}).
			Return(json.RawMessage(`{"name":"Ana"}`), nil)

		result, err := adapter.NewDatabase(registry).GetUserData(ctx, "u1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"Ana"}`, string(result))
	})
}

func TestRequests_JSON(t *testing.T) {
	price := 10.5
	tests := []struct {
		name string
		req  adapter.Request
		want string
	}{
		{"generate pix", adapter.GeneratePix{Amount: 100}, `{"action":"generate_pix","amount":100}`},
		{"validate payment", adapter.ValidatePayment{PixCode: "ABC"}, `{"action":"validate_payment","pixCode":"ABC"}`},
		{"get prices", adapter.GetPrices{Symbols: []string{"BTC"}}, `{"action":"get_prices","symbols":["BTC"]}`},
		{"market order", adapter.Order{Symbol: "BTC", Side: adapter.Sell, Amount: 2}, `{"action":"execute_order","symbol":"BTC","side":"sell","amount":2}`},
		{"limit order", adapter.Order{Symbol: "BTC", Side: adapter.Buy, Amount: 2, Price: &price}, `{"action":"execute_order","symbol":"BTC","side":"buy","amount":2,"price":10.5}`},
		{"sync user", adapter.SyncUser{UserID: "u1", Data: map[string]int{"a": 1}}, `{"action":"sync_user","userId":"u1","data":{"a":1}}`},
		{"get user", adapter.GetUser{UserID: "u1"}, `{"action":"get_user","userId":"u1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.req)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}

func TestFunctions(t *testing.T) {
	ctx := context.Background()
	double := func(ctx context.Context, args ...any) (any, error) {
		return args[0].(int) * 2, nil
	}

	t.Run("execute runs the registered function", func(t *testing.T) {
		funcs := adapter.NewFunctions(zerolog.Nop())
		funcs.Register("double", double)

		result, err := funcs.Execute(ctx, "double", 21)
		require.NoError(t, err)
		assert.Equal(t, 42, result)
	})

	t.Run("unknown name", func(t *testing.T) {
		funcs := adapter.NewFunctions(zerolog.Nop())

		_, err := funcs.Execute(ctx, "missing")

		var notFound *integration.FunctionNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "missing", notFound.Name)
	})

	t.Run("function errors are logged and returned", func(t *testing.T) {
		var logs bytes.Buffer
		funcs := adapter.NewFunctions(zerolog.New(&logs))
		boom := errors.New("boom")
		funcs.Register("fail", func(ctx context.Context, args ...any) (any, error) { return nil, boom })

		_, err := funcs.Execute(ctx, "fail")

		require.ErrorIs(t, err, boom)
		assert.Contains(t, logs.String(), "fail")
	})

	t.Run("names keep registration order and remove works", func(t *testing.T) {
		funcs := adapter.NewFunctions(zerolog.Nop())
		funcs.Register("b", double)
		funcs.Register("a", double)
		funcs.Register("b", double)
		funcs.Register("c", double)

		assert.Equal(t, []string{"b", "a", "c"}, funcs.Names())

		funcs.Remove("a")
		funcs.Remove("never")
		assert.Equal(t, []string{"b", "c"}, funcs.Names())

		_, err := funcs.Execute(ctx, "a")
		var notFound *integration.FunctionNotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}
