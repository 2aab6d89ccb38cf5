package integration

import "fmt"

/* Kind classifies an external system
 * It only affects presentation and presets, dispatch is identical for every kind
 */
type Kind int

const (
	API Kind = iota + 1
	Webhook
	Database
	Service
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case API:
		return "api"
	case Webhook:
		return "webhook"
	case Database:
		return "database"
	case Service:
		return "service"
	default:
		return "unknown"
	}
}

// NewKind creates a Kind from a string
func NewKind(s string) Kind {
	switch s {
	case "api":
		return API
	case "webhook":
		return Webhook
	case "database":
		return Database
	case "service":
		return Service
	default:
		return API
	}
}

// Validate checks if the kind is valid
func (k Kind) Validate() error {
	if k < API || k > Service {
		return fmt.Errorf("invalid kind: %d", k)
	}
	return nil
}

// MarshalText encodes the kind by name so JSON and YAML stay readable
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText rejects unknown names instead of silently defaulting
func (k *Kind) UnmarshalText(text []byte) error {
	kind := NewKind(string(text))
	if kind.String() != string(text) {
		return fmt.Errorf("invalid kind: %q", string(text))
	}
	*k = kind
	return nil
}
