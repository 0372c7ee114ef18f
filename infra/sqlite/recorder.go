package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mstgnz/shurjopay/infra/logger"
	"github.com/mstgnz/shurjopay/provider"
)

const maxRetries = 3

// Recorder keeps an audit trail of gateway exchanges in a local SQLite file
type Recorder struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewRecorder opens (or creates) the database at dbPath
func NewRecorder(dbPath string) (*Recorder, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_timeout=20000&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	r := &Recorder{db: db, path: dbPath}
	if err := r.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite exchange store initialized", logger.LogContext{
		Fields: map[string]any{"path": dbPath},
	})
	return r, nil
}

func (r *Recorder) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS gateway_exchanges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		operation TEXT NOT NULL,
		url TEXT NOT NULL,
		order_id TEXT,
		status_code INTEGER NOT NULL,
		request_body TEXT,
		response_body TEXT,
		outcome TEXT NOT NULL,
		error TEXT,
		duration_ms INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_exchanges_order_id ON gateway_exchanges(order_id);
	CREATE INDEX IF NOT EXISTS idx_exchanges_created_at ON gateway_exchanges(created_at);
	`

	_, err := r.db.Exec(query)
	return err
}

// retryOperation retries operations that hit SQLITE_BUSY with exponential backoff
func (r *Recorder) retryOperation(operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		if !isBusy(err) {
			return err
		}

		lastErr = err
		if attempt < maxRetries {
			time.Sleep(time.Duration(10*(1<<attempt)) * time.Millisecond)
		}
	}

	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// Record implements provider.ExchangeRecorder
func (r *Recorder) Record(ctx context.Context, exchange provider.Exchange) error {
	if exchange.Timestamp.IsZero() {
		exchange.Timestamp = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.retryOperation(func() error {
		_, err := r.db.ExecContext(ctx, `
		INSERT INTO gateway_exchanges
			(request_id, provider, operation, url, order_id, status_code,
			 request_body, response_body, outcome, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			exchange.RequestID,
			exchange.Provider,
			exchange.Operation,
			exchange.URL,
			exchange.OrderID,
			exchange.StatusCode,
			exchange.RequestBody,
			exchange.ResponseBody,
			string(exchange.Outcome),
			exchange.Error,
			exchange.Duration.Milliseconds(),
			exchange.Timestamp.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to record exchange: %w", err)
		}
		return nil
	})
}

// Recent returns the newest exchanges first
func (r *Recorder) Recent(ctx context.Context, limit int) ([]provider.Exchange, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.query(ctx, `WHERE 1 = 1 ORDER BY id DESC LIMIT ?`, limit)
}

// ByOrderID returns every exchange for an order, oldest first
func (r *Recorder) ByOrderID(ctx context.Context, orderID string) ([]provider.Exchange, error) {
	return r.query(ctx, `WHERE order_id = ? ORDER BY id ASC`, orderID)
}

func (r *Recorder) query(ctx context.Context, clause string, args ...any) ([]provider.Exchange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var exchanges []provider.Exchange
	err := r.retryOperation(func() error {
		rows, err := r.db.QueryContext(ctx, `
		SELECT request_id, provider, operation, url, COALESCE(order_id, ''), status_code,
			COALESCE(request_body, ''), COALESCE(response_body, ''), outcome,
			COALESCE(error, ''), duration_ms, created_at
		FROM gateway_exchanges `+clause, args...)
		if err != nil {
			return fmt.Errorf("failed to query exchanges: %w", err)
		}
		defer rows.Close()

		exchanges = exchanges[:0]
		for rows.Next() {
			var (
				e        provider.Exchange
				outcome  string
				duration int64
			)
			if err := rows.Scan(&e.RequestID, &e.Provider, &e.Operation, &e.URL, &e.OrderID, &e.StatusCode,
				&e.RequestBody, &e.ResponseBody, &outcome, &e.Error, &duration, &e.Timestamp); err != nil {
				return fmt.Errorf("failed to scan row: %w", err)
			}
			e.Outcome = provider.Outcome(outcome)
			e.Duration = time.Duration(duration) * time.Millisecond
			exchanges = append(exchanges, e)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return exchanges, nil
}

// Prune deletes exchanges recorded before the cutoff and returns how many went
func (r *Recorder) Prune(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	err := r.retryOperation(func() error {
		result, err := r.db.ExecContext(ctx, `DELETE FROM gateway_exchanges WHERE created_at < ?`, before.UTC())
		if err != nil {
			return fmt.Errorf("failed to prune exchanges: %w", err)
		}
		removed, err = result.RowsAffected()
		return err
	})
	return removed, err
}

// Close closes the database connection
func (r *Recorder) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database is reachable
func (r *Recorder) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
