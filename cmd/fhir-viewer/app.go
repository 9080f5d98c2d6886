package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ehr/fhirviewer/internal/config"
	"github.com/ehr/fhirviewer/internal/domain/catalog"
	"github.com/ehr/fhirviewer/internal/platform/db"
	"github.com/ehr/fhirviewer/internal/platform/fhir"
	"github.com/ehr/fhirviewer/internal/platform/store"
)

const appName = "fhir-viewer"

// app holds everything a command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	store   *store.Store
	catalog *catalog.Service
	pool    *pgxpool.Pool
	redis   *store.RedisCache
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newApp wires the configured definition source, the optional Redis tier and
// the catalog service. logOut receives structured logs.
func newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: newLogger(cfg, logOut)}

	src, err := a.openSource(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []store.Option{store.WithCacheSize(cfg.CacheSize), store.WithLogger(a.logger)}
	if cfg.RedisURL != "" {
		a.redis, err = store.NewRedisCache(ctx, cfg.RedisURL, cfg.RedisTTL)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, store.WithRawCache(a.redis))
		a.logger.Info().Msg("redis raw definition cache enabled")
	}

	policy := fhir.DefaultInheritancePolicy()
	if cfg.PolicyFile != "" {
		policy, err = fhir.LoadInheritancePolicy(cfg.PolicyFile)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	a.store = store.New(src, fhir.NewNormalizer(), opts...)
	a.catalog = catalog.NewService(a.store, policy, cfg.DescriptionLimit, a.logger)
	return a, nil
}

func (a *app) openSource(ctx context.Context) (store.Source, error) {
	switch a.cfg.DefinitionSource {
	case config.SourceS3:
		a.logger.Info().Str("bucket", a.cfg.S3Bucket).Str("prefix", a.cfg.S3Prefix).Msg("using s3 definition source")
		src, err := store.NewS3Source(ctx, store.S3Config{
			Bucket: a.cfg.S3Bucket,
			Prefix: a.cfg.S3Prefix,
			Region: a.cfg.AWSRegion,
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourcePostgres:
		pool, err := a.openPool(ctx)
		if err != nil {
			return nil, err
		}
		a.logger.Info().Msg("using postgres definition source")
		return store.NewPGSource(pool), nil
	default:
		a.logger.Info().Str("dir", a.cfg.DataDir).Msg("using file definition source")
		return store.NewFileSource(a.cfg.DataDir), nil
	}
}

func (a *app) openPool(ctx context.Context) (*pgxpool.Pool, error) {
	if a.pool != nil {
		return a.pool, nil
	}
	if a.cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:      a.cfg.DatabaseURL,
		MaxConns: a.cfg.DBMaxConns,
		MinConns: a.cfg.DBMinConns,
		AppName:  appName,
	})
	if err != nil {
		return nil, err
	}
	a.pool = pool
	return pool, nil
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("closing redis")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func stderrApp(ctx context.Context) (*app, error) {
	return newApp(ctx, os.Stderr)
}
