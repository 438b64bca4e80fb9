package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const snapshotVersion = 1

// snapshot is the portable backup format used by engines without a native
// backup stream. Values are base64 encoded by encoding/json.
type snapshot struct {
	Version int               `json:"version"`
	KV      map[string][]byte `json:"kv"`
}

func writeSnapshot(path string, kv map[string][]byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	data, err := json.Marshal(snapshot{Version: snapshotVersion, KV: kv})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

func readSnapshot(path string) (map[string][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version: %d", snap.Version)
	}
	if snap.KV == nil {
		snap.KV = make(map[string][]byte)
	}
	return snap.KV, nil
}
