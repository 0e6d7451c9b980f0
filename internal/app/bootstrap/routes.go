// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/memoria/internal/app/features/auditlog"
	entriesfeature "github.com/dalemusser/memoria/internal/app/features/entries"
	healthfeature "github.com/dalemusser/memoria/internal/app/features/health"
	rejectionreasonsfeature "github.com/dalemusser/memoria/internal/app/features/rejectionreasons"
	schoolyearsfeature "github.com/dalemusser/memoria/internal/app/features/schoolyears"
	statisticsfeature "github.com/dalemusser/memoria/internal/app/features/statistics"
	userinfofeature "github.com/dalemusser/memoria/internal/app/features/userinfo"
	"github.com/dalemusser/memoria/internal/app/schema"
	auditstore "github.com/dalemusser/memoria/internal/app/store/audit"
	entrystore "github.com/dalemusser/memoria/internal/app/store/entries"
	ownershipstore "github.com/dalemusser/memoria/internal/app/store/ownership"
	reasonstore "github.com/dalemusser/memoria/internal/app/store/rejectionreasons"
	schoolyearstore "github.com/dalemusser/memoria/internal/app/store/schoolyears"
	"github.com/dalemusser/memoria/internal/app/system/auditlog"
	"github.com/dalemusser/memoria/internal/app/system/auth"
	"github.com/dalemusser/memoria/internal/app/system/locks"
	"github.com/dalemusser/memoria/internal/app/system/metrics"
	"github.com/dalemusser/memoria/internal/app/system/notify"
	"github.com/dalemusser/memoria/internal/app/system/ratelimit"
	"github.com/dalemusser/memoria/internal/app/system/tasks"
	"github.com/dalemusser/memoria/internal/app/yearbook"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler assembles the yearbook engine from the stores in deps and
// mounts its feature routers. WAFFLE calls it after Startup, so the session
// store is ready.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc, m := buildService(appCfg, deps, logger)

	var limiter *ratelimit.Limiter
	if appCfg.RateLimit > 0 {
		limiter = ratelimit.New(appCfg.RateLimit, appCfg.RateLimitWindow)
	}

	if deps.Jobs != nil {
		deps.Jobs.Add(tasks.EntryGaugeJob(svc, m, logger, appCfg.StatsRefreshInterval))
		deps.Jobs.Start()
	}

	r := chi.NewRouter()

	// Loads the SessionUser into context when the cookie says signed in.
	r.Use(auth.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", m.Handler())

	entriesHandler := entriesfeature.NewHandler(svc, logger)
	r.Mount("/entries", entriesfeature.Routes(entriesHandler, limiter))

	schoolYearsHandler := schoolyearsfeature.NewHandler(svc, logger)
	r.Mount("/school-years", schoolyearsfeature.Routes(schoolYearsHandler))

	reasonsHandler := rejectionreasonsfeature.NewHandler(svc, logger)
	r.Mount("/rejection-reasons", rejectionreasonsfeature.Routes(reasonsHandler))

	statsHandler := statisticsfeature.NewHandler(svc, logger)
	r.Mount("/statistics", statisticsfeature.Routes(statsHandler))

	meHandler := userinfofeature.NewHandler(svc, logger)
	r.Mount("/me", userinfofeature.Routes(meHandler))

	auditHandler := auditlogfeature.NewHandler(svc, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler))

	return r, nil
}

// buildService wires the stores, audit logger, locker and metrics into a
// yearbook.Service. Redis locks are used when a client is configured.
func buildService(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*yearbook.Service, *metrics.Metrics) {
	db := deps.MongoDatabase
	reg := schema.Default()
	m := metrics.New()

	var locker locks.Locker = locks.NewLocal()
	if deps.Redis != nil {
		locker = locks.NewRedis(deps.Redis, appCfg.LockTTL)
	}

	audits := auditstore.New(db)

	svc := yearbook.New(yearbook.Deps{
		Registry:    reg,
		Entries:     entrystore.New(db, reg),
		Ownership:   ownershipstore.New(db),
		SchoolYears: schoolyearstore.New(db, logger),
		Reasons:     reasonstore.New(db),
		Audit:       audits,
		AuditLog:    auditlog.New(audits, logger, appCfg.AuditLogEntries, m),
		Notifier:    notify.NewLog(logger),
		Locker:      locker,
		Metrics:     m,
		Logger:      logger,
		BulkWorkers: appCfg.BulkWorkers,
	})
	return svc, m
}
