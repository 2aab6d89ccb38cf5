package presets_test

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/marcelsud/pixbridge/integration"
	"github.com/marcelsud/pixbridge/presets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func writePresets(t *testing.T, content string) string {
	t.Helper()

	tmpFile, err := os.CreateTemp(t.TempDir(), "presets-*.yaml")
	require.NoError(t, err)
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())

	return tmpFile.Name()
}

func TestBuiltins(t *testing.T) {
	loader := presets.NewLoader()

	tests := []struct {
		key        string
		name       string
		kind       integration.Kind
		apiURL     string
		timeout    time.Duration
		maxRetries int
	}{
		{"mercadoPago", "Mercado Pago", integration.API, "https://api.mercadopago.com/v1", 15 * time.Second, 3},
		{"pagSeguro", "PagSeguro", integration.API, "https://ws.sandbox.pagseguro.uol.com.br", 15 * time.Second, 3},
		{"binance", "Binance", integration.API, "https://api.binance.com/api/v3", 10 * time.Second, 2},
		{"supabase", "Supabase", integration.Database, "https://your-project.supabase.co/rest/v1", 10 * time.Second, 2},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			p, err := loader.Get(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.name, p.Name)
			assert.Equal(t, tt.kind, p.Kind)
			assert.Equal(t, tt.apiURL, p.APIURL)
			assert.Equal(t, tt.timeout, p.Timeout)
			assert.Equal(t, tt.maxRetries, p.MaxRetries)
			assert.NoError(t, p.Validate())
		})
	}

	t.Run("list order", func(t *testing.T) {
		var keys []string
		for _, p := range loader.List() {
			keys = append(keys, p.Key)
		}
		assert.Equal(t, []string{"mercadoPago", "pagSeguro", "binance", "supabase"}, keys)
	})
}

func TestLoader_Load(t *testing.T) {
	t.Run("success - file entries extend and override the built-ins", func(t *testing.T) {
		path := writePresets(t, `
presets:
  - key: "mockPay"
    name: "MockPay"
    api_url: "https://mock/pix"
    timeout_ms: 5000
    max_retries: 1
  - key: "binance"
    name: "Binance Testnet"
    api_url: "https://testnet.binance.vision/api/v3"
    max_retries: 0
`)

		loader := presets.NewLoader()
		require.NoError(t, loader.Load(path))

		mockPay, err := loader.Get("mockPay")
		require.NoError(t, err)
		assert.Equal(t, integration.API, mockPay.Kind)
		assert.Equal(t, 5*time.Second, mockPay.Timeout)
		assert.Equal(t, 1, mockPay.MaxRetries)

		binance, err := loader.Get("binance")
		require.NoError(t, err)
		assert.Equal(t, "Binance Testnet", binance.Name)
		assert.Equal(t, 0, binance.MaxRetries)

		list := loader.List()
		require.Len(t, list, 5)
		assert.Equal(t, "binance", list[2].Key)
		assert.Equal(t, "mockPay", list[4].Key)
	})

	t.Run("success - unset retries default to three and name to key", func(t *testing.T) {
		loader := presets.NewLoader()
		require.NoError(t, loader.Parse([]byte(`
presets:
  - key: "hooks"
    kind: "webhook"
    api_url: "https://hooks.example.com"
`)))

		p, err := loader.Get("hooks")
		require.NoError(t, err)
		assert.Equal(t, "hooks", p.Name)
		assert.Equal(t, integration.Webhook, p.Kind)
		assert.Equal(t, integration.DefaultMaxRetries, p.MaxRetries)
		assert.Zero(t, p.Timeout)
	})

	t.Run("error - file not found", func(t *testing.T) {
		err := presets.NewLoader().Load("nonexistent.yaml")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading presets file")
	})

	t.Run("error - invalid YAML", func(t *testing.T) {
		err := presets.NewLoader().Load(writePresets(t, `invalid yaml content: [[[`))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing presets YAML")
	})

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing key", "presets:\n  - api_url: \"https://a\"\n", "key cannot be empty"},
		{"unknown kind", "presets:\n  - key: x\n    kind: ftp\n    api_url: \"https://a\"\n", "invalid kind for preset x"},
		{"relative url", "presets:\n  - key: x\n    api_url: \"/pix\"\n", "invalid api_url"},
		{"negative retries", "presets:\n  - key: x\n    api_url: \"https://a\"\n    max_retries: -1\n", "max_retries cannot be negative"},
		{"bad secret", "presets:\n  - key: x\n    api_url: \"https://a\"\n    webhook_secret: nope\n", "invalid webhook_secret"},
	}
	for _, tt := range tests {
		t.Run("error - "+tt.name, func(t *testing.T) {
			loader := presets.NewLoader()
			err := loader.Parse([]byte(tt.content))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Len(t, loader.List(), 4)
		})
	}

	t.Run("error - an invalid entry leaves the catalog untouched", func(t *testing.T) {
		loader := presets.NewLoader()
		err := loader.Parse([]byte(`
presets:
  - key: "good"
    api_url: "https://good"
  - key: "bad"
`))

		require.Error(t, err)
		assert.False(t, loader.Exists("good"))
	})
}

func TestLoader_Get(t *testing.T) {
	_, err := presets.NewLoader().Get("nonexistent")

	require.ErrorIs(t, err, presets.ErrNotFound)
	assert.Contains(t, err.Error(), "nonexistent")
}

// registryMock records Register calls
type registryMock struct {
	mock.Mock
}

func (m *registryMock) Register(id string, system integration.System) error {
	return m.Called(id, system).Error(0)
}

func TestLoader_QuickSetup(t *testing.T) {
	t.Run("registers the preset under its key with the api key", func(t *testing.T) {
		registry := &registryMock{}
		registry.On("Register", "binance", integration.System{
			Name: "Binance",
			Kind: integration.API,
			Config: integration.EndpointConfig{
				APIURL:     "https://api.binance.com/api/v3",
				APIKey:     "secret-key",
				Timeout:    10 * time.Second,
				MaxRetries: 2,
			},
			Active: true,
		}).Return(nil)

		system, err := presets.NewLoader().QuickSetup(registry, "binance", "secret-key")

		require.NoError(t, err)
		assert.True(t, system.Active)
		registry.AssertExpectations(t)
	})

	t.Run("against a real registry", func(t *testing.T) {
		registry := integration.NewRegistry(nil)

		_, err := presets.NewLoader().QuickSetup(registry, "supabase", "anon")
		require.NoError(t, err)

		system, ok := registry.Get("supabase")
		require.True(t, ok)
		assert.Equal(t, integration.Database, system.Kind)
		assert.Equal(t, "anon", system.Config.APIKey)
	})

	t.Run("unknown preset", func(t *testing.T) {
		registry := &registryMock{}

		_, err := presets.NewLoader().QuickSetup(registry, "paypal", "k")

		require.ErrorIs(t, err, presets.ErrNotFound)
		registry.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("registry failure is wrapped", func(t *testing.T) {
		registry := &registryMock{}
		registry.On("Register", "binance", mock.Anything).Return(errors.New("boom"))

		_, err := presets.NewLoader().QuickSetup(registry, "binance", "k")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "registering preset binance")
	})
}
