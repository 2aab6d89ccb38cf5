package integration

import (
	"context"
	"encoding/json"
)

// Reader exposes the registered systems
type Reader interface {
	Get(id string) (System, bool)
	Entries() []Entry
}

// Writer changes the registered systems
type Writer interface {
	Register(id string, system System) error
	Unregister(id string)
}

// Dispatcher calls registered systems
type Dispatcher interface {
	Dispatch(ctx context.Context, id string, payload any) (json.RawMessage, error)
	SendWebhook(ctx context.Context, id, event string, data any)
}

// UseCase is everything an outer layer (HTTP, CLI) needs from a registry
type UseCase interface {
	Reader
	Writer
	Dispatcher
}

var _ UseCase = (*Registry)(nil)
