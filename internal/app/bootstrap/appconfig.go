// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds memoria's app-level configuration. WAFFLE's CoreConfig
// covers ports, TLS, logging and CORS; everything specific to the yearbook
// engine lives here and is passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie written by the identity provider.
	SessionKey    string
	SessionName   string
	SessionDomain string

	// Redis backs the distributed entry locks. A blank address means every
	// lock is process-local, which is only safe with a single replica.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration

	BulkWorkers int

	// AuditLogEntries is one of all, db, log or off.
	AuditLogEntries string

	// Write requests allowed per caller per RateLimitWindow. Zero disables.
	RateLimit       int
	RateLimitWindow time.Duration

	// StatsRefreshInterval is how often the entry gauges are recomputed.
	// Zero disables the job.
	StatsRefreshInterval time.Duration

	// SuperAdminUserID is promoted to superadmin whenever it signs in.
	SuperAdminUserID string
}
