// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/ddos-prep/pkg/config"
)

// ConnectorFactory creates the connector selected by the source config.
// Credentials come from the POSTGRES_* / SNOWFLAKE_* environment.
type ConnectorFactory struct {
	cfg    config.SourceConfig
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg config.SourceConfig, logger *zap.Logger) *ConnectorFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// Create opens and validates the configured database connector
func (f *ConnectorFactory) Create(ctx context.Context) (DatabaseConnector, error) {
	var (
		conn DatabaseConnector
		err  error
	)

	switch f.cfg.Kind {
	case config.SourcePostgres:
		conn, err = f.CreatePostgresConnector(ctx)
	case config.SourceSnowflake:
		conn, err = f.CreateSnowflakeConnector(ctx)
	default:
		return nil, fmt.Errorf("source kind %q has no database connector", f.cfg.Kind)
	}
	if err != nil {
		return nil, err
	}

	if err := conn.Validate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to validate %s connector: %w", f.cfg.Kind, err)
	}
	return conn, nil
}

// CreateSnowflakeConnector creates a new Snowflake connector
func (f *ConnectorFactory) CreateSnowflakeConnector(ctx context.Context) (*SnowflakeConnector, error) {
	f.logger.Info("Creating Snowflake connector")

	sfCfg, err := config.LoadSnowflakeConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load Snowflake configuration: %w", err)
	}

	connector, err := NewSnowflakeConnector(ctx, sfCfg, f.cfg.QueryTimeout, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Snowflake connector: %w", err)
	}

	return connector, nil
}

// CreatePostgresConnector creates a new PostgreSQL connector
func (f *ConnectorFactory) CreatePostgresConnector(ctx context.Context) (*PostgresConnector, error) {
	f.logger.Info("Creating PostgreSQL connector", zap.String("driver", f.cfg.Driver))

	pgCfg, err := config.LoadPostgresConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load PostgreSQL configuration: %w", err)
	}

	connector, err := NewPostgresConnector(ctx, pgCfg, f.cfg.Driver, f.cfg.QueryTimeout, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connector: %w", err)
	}

	return connector, nil
}
