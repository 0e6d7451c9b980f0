// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/memoria/internal/app/schema"
	"github.com/dalemusser/memoria/internal/app/system/indexes"
	"github.com/dalemusser/memoria/internal/app/system/validators"
	"github.com/dalemusser/memoria/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// ConnectDB opens the MongoDB client and, when redis_addr is set, the Redis
// client used for entry locks. Both are pinged before returning.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(cctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool", appCfg.MongoMaxPoolSize))

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		Jobs:          workers.NewRunner(logger),
	}

	if appCfg.RedisAddr == "" {
		logger.Warn("redis_addr not set; entry locks are process-local")
		return deps, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     appCfg.RedisAddr,
		Password: appCfg.RedisPassword,
		DB:       appCfg.RedisDB,
	})
	if err := rdb.Ping(cctx).Err(); err != nil {
		_ = rdb.Close()
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr), zap.Int("db", appCfg.RedisDB))
	deps.Redis = rdb

	return deps, nil
}

// EnsureSchema creates the collections with their $jsonSchema validators and
// then the indexes. Validators go first so a fresh database never accepts a
// document the engine would reject.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	reg := schema.Default()

	if err := validators.EnsureAll(ctx, deps.MongoDatabase, reg); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase, reg); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	logger.Info("schema ensured", zap.Int("departments", len(reg.Departments())))
	return nil
}
