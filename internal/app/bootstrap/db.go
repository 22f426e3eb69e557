// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/taskquest/internal/app/integrations/nlclassify"
	"github.com/dalemusser/taskquest/internal/app/integrations/places"
	"github.com/dalemusser/taskquest/internal/app/integrations/textgen"
	"github.com/dalemusser/taskquest/internal/app/integrations/weather"
	"github.com/dalemusser/taskquest/internal/app/system/indexes"
	"github.com/dalemusser/taskquest/internal/app/system/ratelimit"
	"github.com/dalemusser/taskquest/internal/app/system/tasks"
	"github.com/dalemusser/taskquest/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB and builds the other backends the handlers
// depend on: object storage, the API clients, the login limiter and the job
// scheduler. Anything created before a failure is released again.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (deps DBDeps, err error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize).
		SetAppName("taskquest")

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	defer func() {
		if err != nil {
			_ = client.Disconnect(context.Background())
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.DefaultPing*5)
	defer cancel()
	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize),
	)

	blobs, err := newBlobStore(ctx, appCfg)
	if err != nil {
		return DBDeps{}, err
	}
	logger.Info("object storage ready", zap.String("type", appCfg.StorageType))

	classifier, err := nlclassify.New(ctx, nlclassify.Config{
		BaseURL: appCfg.NLBaseURL,
		APIKey:  appCfg.NLAPIKey,
		UseADC:  appCfg.NLUseADC,
		Timeout: appCfg.IntegrationTimeout,
	})
	if err != nil {
		return DBDeps{}, fmt.Errorf("nlclassify client: %w", err)
	}
	placesClient, err := places.New(places.Config{
		BaseURL: appCfg.PlacesBaseURL,
		APIKey:  appCfg.PlacesAPIKey,
		Timeout: appCfg.IntegrationTimeout,
	})
	if err != nil {
		return DBDeps{}, fmt.Errorf("places client: %w", err)
	}
	gen, err := textgen.New(ctx, textgen.Config{
		APIKey:  appCfg.TextGenAPIKey,
		Model:   appCfg.TextGenModel,
		BaseURL: appCfg.TextGenBaseURL,
		Timeout: appCfg.IntegrationTimeout,
	})
	if err != nil {
		return DBDeps{}, fmt.Errorf("textgen client: %w", err)
	}

	loc, err := time.LoadLocation(appCfg.ReminderTimeZone)
	if err != nil {
		return DBDeps{}, fmt.Errorf("reminder time zone: %w", err)
	}

	var proxyLimiter *ratelimit.Limiter
	if appCfg.ProxyRateLimit > 0 {
		proxyLimiter = ratelimit.New(appCfg.ProxyRateLimit, appCfg.ProxyRateWindow)
	}

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		Blobs:         blobs,
		Scheduler:     tasks.NewScheduler(loc, logger),
		Limiter: ratelimit.NewLoginLimiter(
			appCfg.LoginIPLimit, appCfg.LoginIPWindow,
			appCfg.LoginEmailLimit, appCfg.LoginEmailWindow,
		),
		Weather: weather.New(weather.Config{
			BaseURL: appCfg.WeatherBaseURL,
			APIKey:  appCfg.WeatherAPIKey,
			Units:   appCfg.WeatherUnits,
			Timeout: appCfg.IntegrationTimeout,
		}),
		Places:       placesClient,
		ProxyLimiter: proxyLimiter,
		Classifier:   classifier,
		TextGen:      gen,
	}, nil
}

// newBlobStore builds the object store for uploads. Credentials for S3 come
// from the default AWS chain; a custom endpoint implies path-style addressing.
func newBlobStore(ctx context.Context, appCfg AppConfig) (storage.Store, error) {
	switch appCfg.StorageType {
	case "s3":
		s, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:       appCfg.StorageS3Bucket,
			Region:       appCfg.StorageS3Region,
			Prefix:       appCfg.StorageS3Prefix,
			Endpoint:     appCfg.StorageS3Endpoint,
			UsePathStyle: appCfg.StorageS3Endpoint != "",
		})
		if err != nil {
			return nil, fmt.Errorf("s3 storage: %w", err)
		}
		return s, nil
	case "local", "":
		s, err := storage.NewLocal(storage.LocalConfig{BasePath: appCfg.StorageLocalPath})
		if err != nil {
			return nil, fmt.Errorf("local storage: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage type %q", appCfg.StorageType)
}

// EnsureSchema creates the collection indexes the stores rely on.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	logger.Info("indexes ensured")
	return nil
}
