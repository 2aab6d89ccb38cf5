package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcelsud/pixbridge/integration"
)

// SyncUser pushes a user's data to the external database
type SyncUser struct {
	UserID string `json:"userId"`
	Data   any    `json:"data"`
}

func (SyncUser) Action() string { return ActionSyncUser }

func (r SyncUser) MarshalJSON() ([]byte, error) {
	type fields SyncUser
	return json.Marshal(struct {
		Action string `json:"action"`
		fields
	}{r.Action(), fields(r)})
}

// GetUser reads a user's data from the external database
type GetUser struct {
	UserID string `json:"userId"`
}

func (GetUser) Action() string { return ActionGetUser }

func (r GetUser) MarshalJSON() ([]byte, error) {
	type fields GetUser
	return json.Marshal(struct {
		Action string `json:"action"`
		fields
	}{r.Action(), fields(r)})
}

// DatabaseConfig describes the external database; it is reached over its HTTP API only
type DatabaseConfig struct {
	DBName     string
	APIURL     string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// Database wraps the external_db system
type Database struct {
	registry Registry
}

func NewDatabase(registry Registry) *Database {
	return &Database{registry: registry}
}

// IntegrateDatabase registers (or replaces) the active external_db system
func (d *Database) IntegrateDatabase(cfg DatabaseConfig) error {
	return register(d.registry, ExternalDBID, cfg.DBName, integration.Database, integration.EndpointConfig{
		APIURL:     cfg.APIURL,
		APIKey:     cfg.APIKey,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
	})
}

func (d *Database) SyncUserData(ctx context.Context, userID string, data any) error {
	if _, err := d.registry.Dispatch(ctx, ExternalDBID, SyncUser{UserID: userID, Data: data}); err != nil {
		return fmt.Errorf("syncing user %s: %w", userID, err)
	}
	return nil
}

func (d *Database) GetUserData(ctx context.Context, userID string) (json.RawMessage, error) {
	result, err := d.registry.Dispatch(ctx, ExternalDBID, GetUser{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", userID, err)
	}
	return result, nil
}
