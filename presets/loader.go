package presets

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/marcelsud/pixbridge/integration"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned for a preset key the catalog does not hold
var ErrNotFound = errors.New("preset not found")

/* Loader holds the preset catalog: the built-ins plus anything read from presets.yaml
 * A file entry with a built-in key replaces that preset in place
 */

// Config represents the structure of presets.yaml
type Config struct {
	Presets []PresetConfig `yaml:"presets"`
}

// PresetConfig represents a single preset in the YAML file
type PresetConfig struct {
	Key           string `yaml:"key"`
	Name          string `yaml:"name"`
	Kind          string `yaml:"kind"`
	APIURL        string `yaml:"api_url"`
	WebhookURL    string `yaml:"webhook_url"`
	WebhookSecret string `yaml:"webhook_secret"`
	TimeoutMS     int    `yaml:"timeout_ms"`  // Default: 10000
	MaxRetries    *int   `yaml:"max_retries"` // Default: 3; 0 means a single attempt
}

type Loader struct {
	presets map[string]Preset
	order   []string
}

// NewLoader creates a catalog seeded with the built-in presets
func NewLoader() *Loader {
	l := &Loader{presets: make(map[string]Preset)}
	for _, p := range Builtins() {
		l.put(p)
	}
	return l
}

// Load reads and parses a presets.yaml file into the catalog
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading presets file: %w", err)
	}
	return l.Parse(data)
}

// Parse adds the presets in a YAML document; nothing is added unless every entry is valid
func (l *Loader) Parse(data []byte) error {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing presets YAML: %w", err)
	}

	parsed := make([]Preset, 0, len(config.Presets))
	for _, pc := range config.Presets {
		preset, err := pc.preset()
		if err != nil {
			return err
		}
		if err := preset.Validate(); err != nil {
			return fmt.Errorf("validating preset: %w", err)
		}
		parsed = append(parsed, preset)
	}

	for _, p := range parsed {
		l.put(p)
	}
	return nil
}

func (pc PresetConfig) preset() (Preset, error) {
	kind := integration.API
	if pc.Kind != "" {
		if err := kind.UnmarshalText([]byte(pc.Kind)); err != nil {
			return Preset{}, fmt.Errorf("invalid kind for preset %s: %w", pc.Key, err)
		}
	}

	maxRetries := integration.DefaultMaxRetries
	if pc.MaxRetries != nil {
		maxRetries = *pc.MaxRetries
	}

	name := pc.Name
	if name == "" {
		name = pc.Key
	}

	return Preset{
		Key:           pc.Key,
		Name:          name,
		Kind:          kind,
		APIURL:        pc.APIURL,
		WebhookURL:    pc.WebhookURL,
		WebhookSecret: pc.WebhookSecret,
		Timeout:       time.Duration(pc.TimeoutMS) * time.Millisecond,
		MaxRetries:    maxRetries,
	}, nil
}

func (l *Loader) put(p Preset) {
	if _, exists := l.presets[p.Key]; !exists {
		l.order = append(l.order, p.Key)
	}
	l.presets[p.Key] = p
}

// Get retrieves a preset by its key
func (l *Loader) Get(key string) (Preset, error) {
	preset, exists := l.presets[key]
	if !exists {
		return Preset{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return preset, nil
}

// List returns all presets, built-ins first
func (l *Loader) List() []Preset {
	presets := make([]Preset, 0, len(l.order))
	for _, key := range l.order {
		presets = append(presets, l.presets[key])
	}
	return presets
}

// Exists checks if a preset key exists
func (l *Loader) Exists(key string) bool {
	_, exists := l.presets[key]
	return exists
}
