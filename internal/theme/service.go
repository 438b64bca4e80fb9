package theme

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neogan74/intent/internal/logger"
	"github.com/neogan74/intent/internal/metrics"
	"github.com/neogan74/intent/internal/storage"
)

// UnknownThemeError is returned when selecting a key outside the catalog.
type UnknownThemeError struct {
	Key string
}

func (e *UnknownThemeError) Error() string {
	return fmt.Sprintf("unknown theme '%s'", e.Key)
}

// IsUnknownTheme reports whether err is an UnknownThemeError.
func IsUnknownTheme(err error) bool {
	var e *UnknownThemeError
	return errors.As(err, &e)
}

// Store is the slice of the storage service the theme service uses.
type Store interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Service reads and writes the selected theme.
type Service struct {
	store Store
	log   logger.Logger
}

// NewService creates a theme service over store.
func NewService(store Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Service{store: store, log: log}
}

// Current returns the selected theme. A missing, unreadable or unknown
// selection falls back to the default theme.
func (s *Service) Current(ctx context.Context) Theme {
	var key string
	found, err := s.store.Get(ctx, storage.KeySelectedTheme, &key)
	if err != nil {
		s.log.Warn("Failed to load selected theme, using default",
			logger.String("default", DefaultKey),
			logger.Error(err))
		return Default()
	}
	if !found {
		return Default()
	}

	t, ok := Lookup(key)
	if !ok {
		s.log.Warn("Stored theme is unknown, using default",
			logger.String("theme", key),
			logger.String("default", DefaultKey))
		return Default()
	}
	return t
}

// Select stores key as the selected theme and returns it.
func (s *Service) Select(ctx context.Context, key string) (Theme, error) {
	key = strings.TrimSpace(key)
	t, ok := Lookup(key)
	if !ok {
		return Theme{}, &UnknownThemeError{Key: key}
	}

	if err := s.store.Set(ctx, storage.KeySelectedTheme, key); err != nil {
		s.log.Error("Failed to save selected theme",
			logger.String("theme", key),
			logger.Error(err))
		return Theme{}, fmt.Errorf("select theme %s: %w", key, err)
	}

	metrics.ThemeSelectionsTotal.WithLabelValues(key).Inc()
	s.log.Info("Theme selected", logger.String("theme", key))
	return t, nil
}
