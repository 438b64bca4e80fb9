package persistence

import (
	"sort"
	"strings"
	"sync"
)

// MemoryEngine is an in-memory implementation of Engine
type MemoryEngine struct {
	mu     sync.RWMutex
	kvData map[string][]byte
}

// NewMemoryEngine creates a new in-memory persistence engine
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{
		kvData: make(map[string][]byte),
	}
}

func (m *MemoryEngine) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if val, ok := m.kvData[key]; ok {
		return append([]byte(nil), val...), nil
	}
	return nil, ErrKeyNotFound
}

func (m *MemoryEngine) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.kvData[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryEngine) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.kvData, key)
	return nil
}

func (m *MemoryEngine) List(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.kvData))
	for key := range m.kvData {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryEngine) BatchGet(keys []string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if val, ok := m.kvData[key]; ok {
			result[key] = append([]byte(nil), val...)
		}
	}
	return result, nil
}

func (m *MemoryEngine) BatchSet(items map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, value := range items {
		m.kvData[key] = append([]byte(nil), value...)
	}
	return nil
}

func (m *MemoryEngine) BatchDelete(keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.kvData, key)
	}
	return nil
}

func (m *MemoryEngine) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.kvData = make(map[string][]byte)
	return nil
}

func (m *MemoryEngine) Close() error {
	return nil
}

func (m *MemoryEngine) Backup(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return writeSnapshot(path, m.kvData)
}

func (m *MemoryEngine) Restore(path string) error {
	kv, err := readSnapshot(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.kvData = kv
	return nil
}
