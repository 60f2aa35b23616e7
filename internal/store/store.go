// Package store writes decoded records into DuckDB. Each layout's
// storage_name maps to one table holding the serialized record plus layout
// provenance, created on first use.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/weftlabs/weft/internal/model"
)

// DefaultQueryTimeout bounds each insert transaction.
const DefaultQueryTimeout = 30 * time.Second

var tableNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store manages the DuckDB connection used for record persistence.
type Store struct {
	db           *sql.DB
	mu           sync.Mutex
	logger       *zap.Logger
	QueryTimeout time.Duration
}

// Open opens or creates a DuckDB database. An empty path selects an
// in-memory database, used by tests and dry runs.
func Open(dbPath string, logger *zap.Logger, queryTimeout ...time.Duration) (*Store, error) {
	dsn := ""
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
		dsn = dbPath
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}

	qt := DefaultQueryTimeout
	if len(queryTimeout) > 0 && queryTimeout[0] > 0 {
		qt = queryTimeout[0]
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{db: db, logger: logger, QueryTimeout: qt}, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// ensureTable creates the destination table when it does not exist yet.
// Table names come from layout files, so only plain identifiers pass.
func (s *Store) ensureTable(ctx context.Context, table string) error {
	if !tableNameRE.MatchString(table) {
		return fmt.Errorf("storage name %q is not a valid table name", table)
	}
	// The record column holds the serialized JSON object; DuckDB can cast
	// it on the query side when structured access is needed.
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		layout         VARCHAR NOT NULL,
		layout_version INTEGER NOT NULL,
		source_file    VARCHAR,
		record         VARCHAR NOT NULL,
		ingested_at    TIMESTAMP DEFAULT current_timestamp
	)`, table))
	return err
}

// InsertBatch appends decoded records into the named table in a single
// transaction. If the batch fails it is retried record-by-record so one bad
// record does not drop the rest; the number of stored records is returned.
func (s *Store) InsertBatch(table, layoutName string, layoutVersion int, sourceFile string, records []*model.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.QueryTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureTable(ctx, table); err != nil {
		return 0, err
	}

	if err := s.insertTx(ctx, table, layoutName, layoutVersion, sourceFile, records); err == nil {
		return len(records), nil
	}

	// Batch failed — retry record-by-record to salvage what we can.
	stored := 0
	for i, r := range records {
		if err := s.insertTx(ctx, table, layoutName, layoutVersion, sourceFile, []*model.Record{r}); err != nil {
			s.logger.Warn("dropping record",
				zap.String("table", table),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		stored++
	}
	if stored < len(records) {
		return stored, fmt.Errorf("stored %d/%d records into %s", stored, len(records), table)
	}
	return stored, nil
}

func (s *Store) insertTx(ctx context.Context, table, layoutName string, layoutVersion int, sourceFile string, records []*model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (layout, layout_version, source_file, record) VALUES (?, ?, ?, ?)`, table))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		doc, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("record marshal: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, layoutName, layoutVersion, sourceFile, string(doc)); err != nil {
			return fmt.Errorf("record insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Count returns the number of records stored in a table, or 0 when the table
// does not exist yet. Used by the health endpoint and tests.
func (s *Store) Count(table string) (int64, error) {
	if !tableNameRE.MatchString(table) {
		return 0, fmt.Errorf("storage name %q is not a valid table name", table)
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.QueryTimeout)
	defer cancel()

	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) > 0 FROM information_schema.tables WHERE table_name = ?`, table).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, table)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
