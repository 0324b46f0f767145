package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"travel-journal/internal/cache"
	"travel-journal/internal/config"
	"travel-journal/internal/media"
	"travel-journal/internal/platform/database"
	rabbitmqClient "travel-journal/internal/platform/rabbitmq"
	redisClient "travel-journal/internal/platform/redis"
	"travel-journal/internal/worker"
)

type App struct {
	Config *config.Config
	Logger *zap.SugaredLogger
	DB     *gorm.DB

	// Redis and MQConn are nil when their section is not configured.
	Redis  *redis.Client
	MQConn *amqp.Connection

	MediaStore    media.Store
	MediaPolicy   *media.Policy
	MediaCleaner  media.Cleaner
	EntryCache    *cache.EntryCache
	CleanupWorker *worker.MediaCleanupWorker

	StartedAt time.Time
}

func New(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	app := &App{
		Config:    cfg,
		Logger:    logger,
		StartedAt: time.Now(),
	}

	db, err := database.New(ctx, cfg.Database.Driver, cfg.DSN())
	if err != nil {
		return nil, err
	}
	app.DB = db
	if err := database.Migrate(db); err != nil {
		_ = app.Close()
		return nil, err
	}

	store, err := NewMediaStore(ctx, cfg.Media)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.MediaStore = store
	app.MediaPolicy = NewMediaPolicy(store, cfg.Media)

	if cfg.Redis.Addr != "" {
		redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.Redis = redisCli
		app.EntryCache = cache.NewEntryCache(
			redisCli,
			time.Duration(cfg.Redis.EntryTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.EntryDirtyTTLSeconds)*time.Second,
		)
	} else {
		logger.Infow("redis not configured, entry cache disabled")
	}

	if cfg.RabbitMQ.URL != "" {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.App.Name, cfg.RabbitMQ.MediaCleanupQueue)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.MQConn = mqConn
		app.MediaCleaner = rabbitmqClient.NewMediaCleanupPublisher(mqConn, cfg.RabbitMQ.MediaCleanupQueue)

		cleanupWorker := worker.NewMediaCleanupWorker(mqConn, app.MediaPolicy, cfg.RabbitMQ.MediaCleanupQueue, logger)
		if err := cleanupWorker.Start(ctx); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("start media cleanup worker failed: %w", err)
		}
		app.CleanupWorker = cleanupWorker
	} else {
		logger.Infow("rabbitmq not configured, media cleanup runs inline")
		app.MediaCleaner = media.NewDirectCleaner(app.MediaPolicy)
	}

	return app, nil
}

// NewMediaStore opens the backend named by cfg.Backend.
func NewMediaStore(ctx context.Context, cfg config.MediaConfig) (media.Store, error) {
	switch cfg.Backend {
	case "filesystem":
		return media.NewFileSystemStore(cfg.UploadDir)
	case "s3":
		return media.NewS3Store(ctx, media.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Prefix:    cfg.S3Prefix,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unsupported media backend %q", cfg.Backend)
	}
}

func NewMediaPolicy(store media.Store, cfg config.MediaConfig) *media.Policy {
	return media.NewPolicy(
		store,
		cfg.PublicPrefix,
		media.ProfileRule(cfg.ProfileMaxBytes),
		media.EntryRule(cfg.EntryMaxBytes, cfg.EntryMaxFiles),
	)
}

func (a *App) Close() error {
	var errs []error
	if a.CleanupWorker != nil {
		a.CleanupWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
