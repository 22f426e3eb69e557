// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/taskquest/internal/app/integrations/nlclassify"
	"github.com/dalemusser/taskquest/internal/app/integrations/places"
	"github.com/dalemusser/taskquest/internal/app/integrations/textgen"
	"github.com/dalemusser/taskquest/internal/app/integrations/weather"
	"github.com/dalemusser/taskquest/internal/app/system/ratelimit"
	"github.com/dalemusser/taskquest/internal/app/system/tasks"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
// Everything here is created in ConnectDB and released in Shutdown.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Blobs     storage.Store
	Scheduler *tasks.Scheduler
	Limiter   *ratelimit.LoginLimiter
	// ProxyLimiter throttles the third-party proxy endpoints; nil disables it.
	ProxyLimiter *ratelimit.Limiter

	Weather    *weather.Client
	Places     *places.Client
	Classifier *nlclassify.Client
	TextGen    *textgen.Client
}
