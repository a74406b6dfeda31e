// pkg/ingestion/source.go
package ingestion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/ddos-prep/pkg/config"
	"github.com/David-Botos/ddos-prep/pkg/connector"
	"github.com/David-Botos/ddos-prep/pkg/model"
)

// Source yields the raw labeled dataset
type Source interface {
	Load(ctx context.Context) (*model.Frame, error)
}

// CSVSource reads the dataset from a local CSV export
type CSVSource struct {
	Path string
}

// Load reads the file
func (s CSVSource) Load(ctx context.Context) (*model.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadCSV(s.Path)
}

// Querier runs a query and returns its rows as a frame
type Querier interface {
	QueryFrame(ctx context.Context, query string) (*model.Frame, error)
}

// SQLSource reads the dataset with a single query
type SQLSource struct {
	Querier Querier
	Query   string
}

// Load runs the query
func (s SQLSource) Load(ctx context.Context) (*model.Frame, error) {
	frame, err := s.Querier.QueryFrame(ctx, s.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset from query: %w", err)
	}
	return frame, nil
}

// OpenSource builds the source selected by cfg. The returned close func
// releases any database connection and is never nil.
func OpenSource(ctx context.Context, cfg config.Config, logger *zap.Logger) (Source, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Source.Kind {
	case config.SourceCSV, "":
		return CSVSource{Path: cfg.Ingestion.SourcePath}, noop, nil
	case config.SourcePostgres, config.SourceSnowflake:
		conn, err := connector.NewConnectorFactory(cfg.Source, logger).Create(ctx)
		if err != nil {
			return nil, noop, err
		}
		return SQLSource{Querier: conn, Query: cfg.Source.Query}, conn.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}
