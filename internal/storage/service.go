// Package storage exposes JSON-typed key-value persistence on top of a
// persistence.Engine.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/neogan74/intent/internal/logger"
	"github.com/neogan74/intent/internal/metrics"
	"github.com/neogan74/intent/internal/persistence"
)

// Fixed keys of the persisted state layout.
const (
	KeyCrimes        = "crimes_data"
	KeySelectedTheme = "selectedTheme"
)

var jsonNull = []byte("null")

// Service serializes values to JSON and stores them under string keys.
type Service struct {
	engine persistence.Engine
	log    logger.Logger
}

// New creates a storage service over engine.
func New(engine persistence.Engine, log logger.Logger) *Service {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Service{engine: engine, log: log}
}

// Get decodes the value stored under key into out. It reports false when the
// key is absent (or holds JSON null), leaving out untouched.
func (s *Service) Get(ctx context.Context, key string, out any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	raw, err := s.engine.Get(key)
	if errors.Is(err, persistence.ErrKeyNotFound) {
		s.record("get", "not_found")
		return false, nil
	}
	if err != nil {
		return false, s.fail("get", key, err)
	}
	if isNull(raw) {
		s.record("get", "not_found")
		return false, nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return false, s.fail("get", key, fmt.Errorf("decode: %w", err))
	}

	s.record("get", "success")
	return true, nil
}

// Set encodes value as JSON and writes it under key.
func (s *Service) Set(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return s.fail("set", key, fmt.Errorf("encode: %w", err))
	}

	if err := s.engine.Set(key, data); err != nil {
		return s.fail("set", key, err)
	}

	s.record("set", "success")
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Service) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.engine.Delete(key); err != nil {
		return s.fail("remove", key, err)
	}

	s.record("remove", "success")
	return nil
}

// Clear removes every key in the underlying engine.
func (s *Service) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.engine.Clear(); err != nil {
		return s.fail("clear", "", err)
	}

	s.log.Info("Storage cleared")
	s.record("clear", "success")
	return nil
}

// GetMultiple returns the raw JSON stored under each key. Absent keys map to
// a nil RawMessage.
func (s *Service) GetMultiple(ctx context.Context, keys []string) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values, err := s.engine.BatchGet(keys)
	if err != nil {
		return nil, s.fail("get_multiple", "", err)
	}

	result := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		raw, ok := values[key]
		if !ok || isNull(raw) {
			result[key] = nil
			continue
		}
		if !json.Valid(raw) {
			return nil, s.fail("get_multiple", key, fmt.Errorf("decode: invalid JSON"))
		}
		result[key] = json.RawMessage(raw)
	}

	s.record("get_multiple", "success")
	return result, nil
}

// SetMultiple encodes and writes every pair. Whether the write is atomic
// across keys depends on the engine; callers must not rely on it.
func (s *Service) SetMultiple(ctx context.Context, values map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	items := make(map[string][]byte, len(values))
	for key, value := range values {
		data, err := json.Marshal(value)
		if err != nil {
			return s.fail("set_multiple", key, fmt.Errorf("encode: %w", err))
		}
		items[key] = data
	}

	if err := s.engine.BatchSet(items); err != nil {
		return s.fail("set_multiple", "", err)
	}

	s.record("set_multiple", "success")
	return nil
}

// RemoveMultiple deletes every key in one engine batch. Absent keys are
// ignored.
func (s *Service) RemoveMultiple(ctx context.Context, keys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	if err := s.engine.BatchDelete(keys); err != nil {
		return s.fail("remove_multiple", "", err)
	}

	s.record("remove_multiple", "success")
	return nil
}

// GetAllKeys lists every stored key in lexical order.
func (s *Service) GetAllKeys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys, err := s.engine.List("")
	if err != nil {
		return nil, s.fail("get_all_keys", "", err)
	}
	sort.Strings(keys)

	s.record("get_all_keys", "success")
	return keys, nil
}

// HasKey reports whether key holds a value. It never fails: internal errors
// are logged and reported as false.
func (s *Service) HasKey(ctx context.Context, key string) bool {
	if ctx.Err() != nil {
		return false
	}

	raw, err := s.engine.Get(key)
	if errors.Is(err, persistence.ErrKeyNotFound) {
		return false
	}
	if err != nil {
		s.log.Warn("Failed to check storage key",
			logger.String("key", key),
			logger.Error(err))
		s.record("has_key", "error")
		return false
	}
	return !isNull(raw)
}

func (s *Service) fail(op, key string, err error) error {
	s.log.Error("Storage operation failed",
		logger.String("operation", op),
		logger.String("key", key),
		logger.Error(err))
	s.record(op, "error")
	return &Error{Op: op, Key: key, Err: err}
}

func (s *Service) record(op, status string) {
	metrics.StorageOperationsTotal.WithLabelValues(op, status).Inc()
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), jsonNull)
}
