// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/memoria/internal/app/system/workers"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the back-end connections opened by ConnectDB.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is nil when redis_addr is blank.
	Redis redis.UniversalClient

	// Jobs runs background work; BuildHandler adds jobs and Shutdown stops it.
	Jobs *workers.Runner
}
