package persistence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/neogan74/intent/internal/logger"
)

const kvPrefix = "kv:"

const gcInterval = 5 * time.Minute

// BadgerEngine implements Engine using BadgerDB
type BadgerEngine struct {
	db        *badger.DB
	log       logger.Logger
	stopGC    chan struct{}
	closeOnce sync.Once
}

// NewBadgerEngine creates a new BadgerDB persistence engine
func NewBadgerEngine(dataDir string, syncWrites bool, log logger.Logger) (*BadgerEngine, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	opts := badger.DefaultOptions(dataDir)
	opts.SyncWrites = syncWrites
	opts.Logger = nil

	// The crime collection is a single small blob; keep the footprint small.
	opts.ValueLogFileSize = 16 << 20
	opts.MemTableSize = 8 << 20
	opts.NumMemtables = 2
	opts.NumLevelZeroTables = 2
	opts.NumLevelZeroTablesStall = 4
	opts.Compression = options.Snappy

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	engine := &BadgerEngine{
		db:     db,
		log:    log,
		stopGC: make(chan struct{}),
	}

	go engine.runGarbageCollection()

	log.Info("BadgerDB persistence engine initialized",
		logger.String("data_dir", dataDir),
		logger.Bool("sync_writes", syncWrites))

	return engine, nil
}

func (b *BadgerEngine) runGarbageCollection() {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopGC:
			return
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				b.log.Warn("BadgerDB garbage collection failed", logger.Error(err))
			}
		}
	}
}

func (b *BadgerEngine) Get(key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(kvPrefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	return value, err
}

func (b *BadgerEngine) Set(key string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(kvPrefix+key), value)
	})
}

func (b *BadgerEngine) Delete(key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(kvPrefix + key))
	})
}

func (b *BadgerEngine) List(prefix string) ([]string, error) {
	keys := []string{}
	searchPrefix := []byte(kvPrefix + prefix)

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(searchPrefix); it.ValidForPrefix(searchPrefix); it.Next() {
			keys = append(keys, strings.TrimPrefix(string(it.Item().Key()), kvPrefix))
		}
		return nil
	})
	return keys, err
}

func (b *BadgerEngine) BatchGet(keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	err := b.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get([]byte(kvPrefix + key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[key] = value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (b *BadgerEngine) BatchSet(items map[string][]byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		for key, value := range items {
			if err := txn.Set([]byte(kvPrefix+key), value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerEngine) BatchDelete(keys []string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete([]byte(kvPrefix + key)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerEngine) Clear() error {
	return b.db.DropPrefix([]byte(kvPrefix))
}

func (b *BadgerEngine) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.stopGC)
		err = b.db.Close()
	})
	return err
}

func (b *BadgerEngine) Backup(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	if _, err := b.db.Backup(file, 0); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	b.log.Info("Backup completed successfully", logger.String("path", path))
	return nil
}

func (b *BadgerEngine) Restore(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	// Load merges, so drop the live keys first to replace the contents
	if err := b.db.DropPrefix([]byte(kvPrefix)); err != nil {
		return fmt.Errorf("failed to clear store before restore: %w", err)
	}
	if err := b.db.Load(file, 256); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	b.log.Info("Restore completed successfully", logger.String("path", path))
	return nil
}
