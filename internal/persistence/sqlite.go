package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neogan74/intent/internal/logger"
	_ "modernc.org/sqlite"
)

const sqliteFileName = "intent.db"

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
)`

// SQLiteEngine implements Engine on a single SQLite table.
type SQLiteEngine struct {
	db  *sql.DB
	log logger.Logger
}

// NewSQLiteEngine opens (creating if needed) dataDir/intent.db.
func NewSQLiteEngine(dataDir string, log logger.Logger) (*SQLiteEngine, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(filepath.Clean(dataDir), sqliteFileName)
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	log.Info("SQLite persistence engine initialized", logger.String("path", path))

	return &SQLiteEngine{db: db, log: log}, nil
}

func (s *SQLiteEngine) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteEngine) Set(key string, value []byte) error {
	return setRow(s.db, key, value)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func setRow(db execer, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteEngine) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteEngine) List(prefix string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT key FROM kv WHERE substr(key, 1, length(?)) = ? ORDER BY key`,
		prefix, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *SQLiteEngine) BatchGet(keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		value, err := s.Get(key)
		if errors.Is(err, ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result[key] = value
	}
	return result, nil
}

func (s *SQLiteEngine) BatchSet(items map[string][]byte) error {
	return s.inTx(func(tx *sql.Tx) error {
		for key, value := range items {
			if err := setRow(tx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteEngine) BatchDelete(keys []string) error {
	return s.inTx(func(tx *sql.Tx) error {
		for _, key := range keys {
			if _, err := tx.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
				return fmt.Errorf("delete %q: %w", key, err)
			}
		}
		return nil
	})
}

func (s *SQLiteEngine) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM kv`); err != nil {
		return fmt.Errorf("clear kv: %w", err)
	}
	return nil
}

func (s *SQLiteEngine) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteEngine) Backup(path string) error {
	rows, err := s.db.Query(`SELECT key, value FROM kv`)
	if err != nil {
		return fmt.Errorf("backup query: %w", err)
	}
	defer rows.Close()

	kv := make(map[string][]byte)
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("backup scan: %w", err)
		}
		kv[key] = value
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("backup rows: %w", err)
	}

	if err := writeSnapshot(path, kv); err != nil {
		return err
	}

	s.log.Info("Backup completed successfully", logger.String("path", path))
	return nil
}

func (s *SQLiteEngine) Restore(path string) error {
	kv, err := readSnapshot(path)
	if err != nil {
		return err
	}

	err = s.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM kv`); err != nil {
			return fmt.Errorf("clear kv: %w", err)
		}
		for key, value := range kv {
			if err := setRow(tx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	s.log.Info("Restore completed successfully", logger.String("path", path))
	return nil
}

func (s *SQLiteEngine) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
