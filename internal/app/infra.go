package app

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/hqdung24/Nestjs-auth/internal/config"
	"github.com/hqdung24/Nestjs-auth/internal/db"
	"github.com/hqdung24/Nestjs-auth/internal/logger"
	"github.com/hqdung24/Nestjs-auth/internal/redis"
)

type Infra struct {
	DB    *sql.DB
	Redis *redis.Client // nil when no REDIS_ADDR is configured
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	sqlDB, err := sql.Open("postgres", cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := db.RunMigration(ctx, sqlDB); err != nil {
		return nil, err
	}

	logger.Info("database ready", nil)

	infra := &Infra{DB: sqlDB}

	if cfg.RedisAddr != "" {
		redisClient, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		logger.Info("redis ready", nil)
		infra.Redis = redisClient
	}

	return infra, nil
}
