// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/memoria/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys are loaded from config files (mongo_uri), environment
// variables (MEMORIA_MONGO_URI) and flags (--mongo_uri).
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "memoria", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},
	{Name: "session_key", Default: "", Desc: "Session signing key shared with the identity provider"},
	{Name: "session_name", Default: "memoria-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Locks
	{Name: "redis_addr", Default: "", Desc: "Redis address for distributed locks (blank uses in-process locks)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "lock_ttl", Default: "10s", Desc: "How long a crashed lock holder can block others"},

	{Name: "bulk_workers", Default: 4, Desc: "Concurrent workers per bulk request"},
	{Name: "audit_log_entries", Default: "all", Desc: "Entry audit logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "rate_limit", Default: 120, Desc: "Write requests per caller per window (0 disables)"},
	{Name: "rate_limit_window", Default: "1m", Desc: "Rate limit window"},

	{Name: "stats_refresh_interval", Default: "1m", Desc: "How often entry count gauges are refreshed (0 disables)"},

	{Name: "superadmin_user_id", Default: "", Desc: "Identity-provider user id that is always treated as superadmin"},
}

// LoadConfig loads WAFFLE core config and memoria's app config. Precedence is
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MEMORIA", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),
		LockTTL:       appValues.Duration("lock_ttl", 10*time.Second),

		BulkWorkers:     appValues.Int("bulk_workers"),
		AuditLogEntries: appValues.String("audit_log_entries"),

		RateLimit:       appValues.Int("rate_limit"),
		RateLimitWindow: appValues.Duration("rate_limit_window", time.Minute),

		StatsRefreshInterval: appValues.Duration("stats_refresh_interval", time.Minute),

		SuperAdminUserID: appValues.String("superadmin_user_id"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects configurations that would fail later in a less
// obvious way.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(appCfg)
}

func validateApp(appCfg AppConfig) error {
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must not be empty")
	}
	if appCfg.BulkWorkers < 1 {
		return fmt.Errorf("bulk_workers must be at least 1, got %d", appCfg.BulkWorkers)
	}
	if appCfg.LockTTL <= 0 {
		return fmt.Errorf("lock_ttl must be positive, got %s", appCfg.LockTTL)
	}
	if appCfg.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %d", appCfg.RateLimit)
	}
	if appCfg.RateLimit > 0 && appCfg.RateLimitWindow <= 0 {
		return fmt.Errorf("rate_limit_window must be positive when rate_limit is set")
	}
	if appCfg.StatsRefreshInterval < 0 {
		return fmt.Errorf("stats_refresh_interval must not be negative")
	}
	switch appCfg.AuditLogEntries {
	case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
	default:
		return fmt.Errorf("audit_log_entries must be one of all, db, log, off; got %q", appCfg.AuditLogEntries)
	}
	return nil
}
