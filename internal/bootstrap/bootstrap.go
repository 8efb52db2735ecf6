// Package bootstrap builds the pieces shared by the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/jwalitptl/scheduling-api/internal/config"
	"github.com/jwalitptl/scheduling-api/internal/email"
	"github.com/jwalitptl/scheduling-api/internal/repository"
	"github.com/jwalitptl/scheduling-api/internal/repository/memory"
	"github.com/jwalitptl/scheduling-api/internal/repository/postgres"
	"github.com/jwalitptl/scheduling-api/internal/service/notification"
	"github.com/jwalitptl/scheduling-api/pkg/logger"
	"github.com/jwalitptl/scheduling-api/pkg/messaging/kafka"
	"github.com/jwalitptl/scheduling-api/pkg/messaging/redis"
)

func NewLogger(cfg config.LoggingConfig, service string) *logger.Logger {
	log := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Level),
		Format: cfg.Format,
		Output: os.Stdout,
	})
	return log.WithFields(map[string]interface{}{"service": service})
}

// OpenStore connects the configured storage driver. The postgres schema is
// applied when database.migrate is set.
func OpenStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.NewStore(), nil
	case "postgres":
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
			log.Info("database schema applied")
		}
		return postgres.NewStore(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// NewNotifier builds the configured reminder channel. The returned close
// func releases broker connections.
func NewNotifier(ctx context.Context, cfg *config.Config, log *logger.Logger) (notification.Notifier, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Notifier.Channel {
	case notification.ChannelLog:
		return notification.NewLogNotifier(log), noop, nil
	case notification.ChannelEmail:
		svc := email.NewSMTPService(email.Config{
			Host:     cfg.Notifier.SMTP.Host,
			Port:     cfg.Notifier.SMTP.Port,
			Username: cfg.Notifier.SMTP.Username,
			Password: cfg.Notifier.SMTP.Password,
			From:     cfg.Notifier.SMTP.From,
		})
		return notification.NewEmailNotifier(svc), noop, nil
	case notification.ChannelRedis:
		broker, err := redis.NewRedisBroker(ctx, redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return notification.NewBrokerNotifier(broker, cfg.Redis.Channel), broker.Close, nil
	case notification.ChannelKafka:
		broker, err := kafka.NewKafkaBroker(cfg.Kafka.Brokers)
		if err != nil {
			return nil, nil, err
		}
		return notification.NewBrokerNotifier(broker, cfg.Kafka.Topic), broker.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown notifier channel %q", cfg.Notifier.Channel)
	}
}
