package db

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"nftmarket/pkg/config"
)

//go:embed schema.sql
var embeddedSchema string

// Connect opens the pool, pings it and applies the schema unless disabled.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is not set")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnIdleTime = cfg.MaxIdleTime

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectLimit)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	zap.L().Info("Connected to PostgreSQL")

	if cfg.ApplySchema {
		schemaCtx, cancelSchema := context.WithTimeout(ctx, 30*time.Second)
		defer cancelSchema()
		if err := ApplySchema(schemaCtx, pool, cfg.SchemaPath); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return pool, nil
}

// ApplySchema executes the schema file at path, or the schema compiled into
// the binary when path is empty.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool, path string) error {
	sql := embeddedSchema
	source := "embedded schema"
	if path != "" {
		bytes, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read schema file: %w", err)
		}
		sql = string(bytes)
		source = path
	}

	sql = strings.TrimSpace(sql)
	if sql == "" {
		return fmt.Errorf("schema is empty: %s", source)
	}

	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	zap.L().With(zap.String("source", source)).Info("Schema applied")
	return nil
}

// Schema returns the schema compiled into the binary.
func Schema() string {
	return embeddedSchema
}
