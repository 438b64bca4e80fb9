package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/neogan74/intent/internal/logger"
	"github.com/neogan74/intent/internal/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var errDisk = errors.New("disk on fire")

// faultyEngine fails the operations named in failOn.
type faultyEngine struct {
	*persistence.MemoryEngine
	failOn map[string]bool
}

func newFaultyEngine(ops ...string) *faultyEngine {
	failOn := make(map[string]bool, len(ops))
	for _, op := range ops {
		failOn[op] = true
	}
	return &faultyEngine{MemoryEngine: persistence.NewMemoryEngine(), failOn: failOn}
}

func (f *faultyEngine) Get(key string) ([]byte, error) {
	if f.failOn["get"] {
		return nil, errDisk
	}
	return f.MemoryEngine.Get(key)
}

func (f *faultyEngine) Set(key string, value []byte) error {
	if f.failOn["set"] {
		return errDisk
	}
	return f.MemoryEngine.Set(key, value)
}

func (f *faultyEngine) Delete(key string) error {
	if f.failOn["delete"] {
		return errDisk
	}
	return f.MemoryEngine.Delete(key)
}

func (f *faultyEngine) List(prefix string) ([]string, error) {
	if f.failOn["list"] {
		return nil, errDisk
	}
	return f.MemoryEngine.List(prefix)
}

func (f *faultyEngine) BatchGet(keys []string) (map[string][]byte, error) {
	if f.failOn["batch_get"] {
		return nil, errDisk
	}
	return f.MemoryEngine.BatchGet(keys)
}

func (f *faultyEngine) BatchSet(items map[string][]byte) error {
	if f.failOn["batch_set"] {
		return errDisk
	}
	return f.MemoryEngine.BatchSet(items)
}

func (f *faultyEngine) BatchDelete(keys []string) error {
	if f.failOn["batch_delete"] {
		return errDisk
	}
	return f.MemoryEngine.BatchDelete(keys)
}

func (f *faultyEngine) Clear() error {
	if f.failOn["clear"] {
		return errDisk
	}
	return f.MemoryEngine.Clear()
}

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestService(engine persistence.Engine) *Service {
	return New(engine, logger.NewNop())
}

func TestService_SetGet(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(persistence.NewMemoryEngine())

	require.NoError(t, svc.Set(ctx, "sample", sample{Name: "burglary", Count: 2}))

	var got sample
	found, err := svc.Get(ctx, "sample", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sample{Name: "burglary", Count: 2}, got)
}

func TestService_GetMissing(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(persistence.NewMemoryEngine())

	var got []sample
	found, err := svc.Get(ctx, KeyCrimes, &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestService_GetNullIsAbsent(t *testing.T) {
	ctx := context.Background()
	engine := persistence.NewMemoryEngine()
	require.NoError(t, engine.Set(KeySelectedTheme, []byte("null")))
	svc := newTestService(engine)

	var theme string
	found, err := svc.Get(ctx, KeySelectedTheme, &theme)
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, svc.HasKey(ctx, KeySelectedTheme))
}

func TestService_GetCorruptValue(t *testing.T) {
	ctx := context.Background()
	engine := persistence.NewMemoryEngine()
	require.NoError(t, engine.Set(KeyCrimes, []byte("{not json")))
	svc := newTestService(engine)

	var got []sample
	_, err := svc.Get(ctx, KeyCrimes, &got)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestService_Remove(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(persistence.NewMemoryEngine())

	require.NoError(t, svc.Set(ctx, "k", "v"))
	require.NoError(t, svc.Remove(ctx, "k"))
	assert.False(t, svc.HasKey(ctx, "k"))

	// removing an absent key succeeds
	assert.NoError(t, svc.Remove(ctx, "k"))
}

func TestService_Clear(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(persistence.NewMemoryEngine())

	require.NoError(t, svc.Set(ctx, KeyCrimes, []sample{}))
	require.NoError(t, svc.Set(ctx, KeySelectedTheme, "dark"))
	require.NoError(t, svc.Clear(ctx))

	keys, err := svc.GetAllKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestService_Multiple(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(persistence.NewMemoryEngine())

	require.NoError(t, svc.SetMultiple(ctx, map[string]any{
		KeySelectedTheme: "ocean",
		"counter":        7,
	}))

	values, err := svc.GetMultiple(ctx, []string{KeySelectedTheme, "counter", "missing"})
	require.NoError(t, err)
	require.Len(t, values, 3)

	var theme string
	require.NoError(t, json.Unmarshal(values[KeySelectedTheme], &theme))
	assert.Equal(t, "ocean", theme)
	assert.JSONEq(t, "7", string(values["counter"]))
	assert.Nil(t, values["missing"])
}

func TestService_RemoveMultiple(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(persistence.NewMemoryEngine())

	require.NoError(t, svc.SetMultiple(ctx, map[string]any{
		KeySelectedTheme: "ocean",
		KeyCrimes:        []sample{{Name: "a"}},
		"scratch":        true,
	}))

	require.NoError(t, svc.RemoveMultiple(ctx, []string{KeyCrimes, "scratch", "missing"}))
	require.NoError(t, svc.RemoveMultiple(ctx, nil))

	keys, err := svc.GetAllKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{KeySelectedTheme}, keys)
}

func TestService_GetAllKeysAndHasKey(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(persistence.NewMemoryEngine())

	require.NoError(t, svc.Set(ctx, KeySelectedTheme, "dark"))
	require.NoError(t, svc.Set(ctx, KeyCrimes, []sample{}))

	keys, err := svc.GetAllKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyCrimes, KeySelectedTheme}, keys)

	assert.True(t, svc.HasKey(ctx, KeyCrimes))
	assert.False(t, svc.HasKey(ctx, "missing"))
}

func TestService_Failures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		failOn  string
		call    func(svc *Service) error
		message string
	}{
		{
			name:   "get",
			failOn: "get",
			call: func(svc *Service) error {
				var v string
				_, err := svc.Get(ctx, "k", &v)
				return err
			},
			message: "failed to read data from storage",
		},
		{
			name:    "set",
			failOn:  "set",
			call:    func(svc *Service) error { return svc.Set(ctx, "k", "v") },
			message: "failed to save data to storage",
		},
		{
			name:    "remove",
			failOn:  "delete",
			call:    func(svc *Service) error { return svc.Remove(ctx, "k") },
			message: "failed to remove data from storage",
		},
		{
			name:    "clear",
			failOn:  "clear",
			call:    func(svc *Service) error { return svc.Clear(ctx) },
			message: "failed to clear storage",
		},
		{
			name:   "get multiple",
			failOn: "batch_get",
			call: func(svc *Service) error {
				_, err := svc.GetMultiple(ctx, []string{"k"})
				return err
			},
			message: "failed to read multiple items from storage",
		},
		{
			name:    "set multiple",
			failOn:  "batch_set",
			call:    func(svc *Service) error { return svc.SetMultiple(ctx, map[string]any{"k": 1}) },
			message: "failed to save multiple items to storage",
		},
		{
			name:    "remove multiple",
			failOn:  "batch_delete",
			call:    func(svc *Service) error { return svc.RemoveMultiple(ctx, []string{"k"}) },
			message: "failed to remove multiple items from storage",
		},
		{
			name:   "get all keys",
			failOn: "list",
			call: func(svc *Service) error {
				_, err := svc.GetAllKeys(ctx)
				return err
			},
			message: "failed to retrieve storage keys",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newFaultyEngine(tt.failOn))
			err := tt.call(svc)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrStorage)
			assert.ErrorIs(t, err, errDisk)
			assert.True(t, IsStorageError(err))
			assert.Equal(t, tt.message, err.Error())
			assert.NotContains(t, err.Error(), "disk on fire")
		})
	}
}

func TestService_FailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	svc := New(newFaultyEngine("set"), logger.FromZap(zap.New(core)))

	err := svc.Set(context.Background(), KeyCrimes, []sample{})
	require.Error(t, err)

	entries := logs.FilterMessage("Storage operation failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, KeyCrimes, entries[0].ContextMap()["key"])
	assert.Equal(t, "disk on fire", entries[0].ContextMap()["error"])
}

func TestService_HasKeyNeverFails(t *testing.T) {
	svc := newTestService(newFaultyEngine("get"))
	assert.False(t, svc.HasKey(context.Background(), KeyCrimes))
}

func TestService_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newTestService(persistence.NewMemoryEngine())
	err := svc.Set(ctx, "k", "v")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, svc.HasKey(ctx, "k"))
}
