// pkg/connector/connector.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/ddos-prep/pkg/converter"
	"github.com/David-Botos/ddos-prep/pkg/model"
)

// DatabaseConnector defines the interface for raw dataset sources
type DatabaseConnector interface {
	// DB returns the underlying database connection
	DB() *sqlx.DB

	// Validate verifies the connection and read access
	Validate(ctx context.Context) error

	// Close closes the connection and releases resources
	Close() error

	// QueryFrame runs query and returns the full result as a frame
	QueryFrame(ctx context.Context, query string) (*model.Frame, error)
}

// ConnStats contains standardized connection statistics
type ConnStats struct {
	OpenConnections int
	InUse           int
	Idle            int
	MaxOpenConns    int
	WaitCount       int64
	WaitDuration    time.Duration
}

// GetConnectionStats returns connection pool statistics for logging
func GetConnectionStats(db *sql.DB) ConnStats {
	stats := db.Stats()
	return ConnStats{
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		MaxOpenConns:    stats.MaxOpenConnections,
		WaitCount:       stats.WaitCount,
		WaitDuration:    stats.WaitDuration,
	}
}

// LogConnectionStats logs connection pool statistics
func LogConnectionStats(logger *zap.Logger, name string, db *sql.DB) {
	stats := GetConnectionStats(db)
	logger.Debug("Connection pool stats",
		zap.String("database", name),
		zap.Int("open_connections", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle),
		zap.Int("max_open", stats.MaxOpenConns),
		zap.Int64("wait_count", stats.WaitCount),
		zap.Duration("wait_duration", stats.WaitDuration),
	)
}

// PingWithTimeout attempts to ping a database with a timeout
func PingWithTimeout(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- db.PingContext(pingCtx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-pingCtx.Done():
		return fmt.Errorf("ping timed out after %v: %w", timeout, pingCtx.Err())
	}
}

// ApplyConnectionSettings configures database connection pool settings
func ApplyConnectionSettings(db *sql.DB, maxOpen, maxIdle int, maxLifetime, maxIdleTime time.Duration) {
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime > 0 {
		db.SetConnMaxLifetime(maxLifetime)
	}
	if maxIdleTime > 0 {
		db.SetConnMaxIdleTime(maxIdleTime)
	}
}

// rowSource is the subset of *sqlx.Rows used to build a frame
type rowSource interface {
	Columns() ([]string, error)
	Next() bool
	SliceScan() ([]interface{}, error)
	Err() error
}

// scanFrame drains rows into a frame, converting every value to text
func scanFrame(rows rowSource, conv *converter.TypeConverter) (*model.Frame, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var data [][]string
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(data), err)
		}
		cells, err := conv.RowToText(values)
		if err != nil {
			return nil, fmt.Errorf("failed to convert row %d: %w", len(data), err)
		}
		data = append(data, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return model.NewFrame(columns, data)
}

// queryFrame runs query on db with a timeout and scans the whole result
func queryFrame(
	ctx context.Context,
	db *sqlx.DB,
	conv *converter.TypeConverter,
	logger *zap.Logger,
	query string,
	timeout time.Duration,
) (*model.Frame, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	if types, err := rows.ColumnTypes(); err == nil {
		for _, ct := range types {
			logger.Debug("Source column",
				zap.String("name", ct.Name()),
				zap.String("type", ct.DatabaseTypeName()),
				zap.Bool("numeric", converter.IsNumericType(ct.DatabaseTypeName())))
		}
	}

	frame, err := scanFrame(rows, conv)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded source rows",
		zap.Int("rows", frame.Len()),
		zap.Int("columns", len(frame.Columns)),
		zap.Duration("duration", time.Since(start)))
	return frame, nil
}
