package adapter

import (
	"context"
	"sync"

	"github.com/marcelsud/pixbridge/integration"
	"github.com/rs/zerolog"
)

// Func is a custom integration function
type Func func(ctx context.Context, args ...any) (any, error)

// Functions is a named set of custom integration functions
type Functions struct {
	mu     sync.RWMutex
	funcs  map[string]Func
	order  []string
	logger zerolog.Logger
}

func NewFunctions(logger zerolog.Logger) *Functions {
	return &Functions{
		funcs:  make(map[string]Func),
		logger: logger,
	}
}

// Register adds fn under name, replacing any function already there
func (f *Functions) Register(name string, fn Func) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.funcs[name]; !exists {
		f.order = append(f.order, name)
	}
	f.funcs[name] = fn
}

// Execute runs the function registered under name
func (f *Functions) Execute(ctx context.Context, name string, args ...any) (any, error) {
	f.mu.RLock()
	fn, ok := f.funcs[name]
	f.mu.RUnlock()

	if !ok {
		return nil, &integration.FunctionNotFoundError{Name: name}
	}

	result, err := fn(ctx, args...)
	if err != nil {
		f.logger.Error().Err(err).Str("function", name).Msg("custom function failed")
		return nil, err
	}
	return result, nil
}

// Names lists registered functions in registration order
func (f *Functions) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, len(f.order))
	copy(names, f.order)
	return names
}

func (f *Functions) Remove(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.funcs[name]; !ok {
		return
	}
	delete(f.funcs, name)
	for i, n := range f.order {
		if n == name {
			f.order = append(f.order[:i:i], f.order[i+1:]...)
			break
		}
	}
}
