package presets

import (
	"fmt"

	"github.com/marcelsud/pixbridge/integration"
)

// Registerer is what QuickSetup needs from a registry
type Registerer interface {
	Register(id string, system integration.System) error
}

// QuickSetup registers the preset under its own key as an active system using apiKey
func (l *Loader) QuickSetup(registry Registerer, key, apiKey string) (integration.System, error) {
	preset, err := l.Get(key)
	if err != nil {
		return integration.System{}, err
	}

	system := preset.System(apiKey)
	if err := registry.Register(preset.Key, system); err != nil {
		return integration.System{}, fmt.Errorf("registering preset %s: %w", key, err)
	}
	return system, nil
}
