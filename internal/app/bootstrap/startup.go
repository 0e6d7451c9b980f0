// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/memoria/internal/app/system/auth"
	"github.com/dalemusser/memoria/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after the database is ready and before the handler is
// built: store timeout overrides and the session store used to read the
// identity provider's cookie.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("tiers", n))
	}

	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return err
	}

	if appCfg.SuperAdminUserID != "" {
		auth.SuperAdminID = appCfg.SuperAdminUserID
		logger.Info("superadmin configured", zap.String("user_id", appCfg.SuperAdminUserID))
	}
	return nil
}
