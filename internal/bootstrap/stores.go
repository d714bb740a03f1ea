package bootstrap

import (
	"github.com/pulsehq/analytics-backend/internal/event"
	"github.com/pulsehq/analytics-backend/internal/live"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideEventStore(db *gorm.DB) *event.Store {
	return event.NewStore(db)
}

func ProvideLiveStore(redisClient *redis.Client, cfg *Config) *live.Store {
	return live.NewStore(redisClient, int64(cfg.LoadCapacity))
}

func RunMigrations(eventStore *event.Store) error {
	return eventStore.Migrate()
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideEventStore,
		ProvideLiveStore,
	),
	fx.Invoke(RunMigrations),
)
