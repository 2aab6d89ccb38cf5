package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// DeviceIDKey lives outside the cache prefix so Clear never rotates the device id
const DeviceIDKey = "dmccrypto_device_id"

// DeviceID returns the persisted per-device identifier, creating it on first use
func (s *Store) DeviceID(ctx context.Context) (string, error) {
	id, ok, err := s.backend.Get(ctx, DeviceIDKey)
	if err != nil {
		return "", fmt.Errorf("reading device id: %w", err)
	}
	if ok && id != "" {
		return id, nil
	}

	id = uuid.New().String()
	if err := s.backend.Set(ctx, DeviceIDKey, id, 0); err != nil {
		return "", fmt.Errorf("storing device id: %w", err)
	}
	return id, nil
}
