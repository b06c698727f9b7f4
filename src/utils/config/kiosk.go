package config

import (
	"time"

	"github.com/spf13/viper"
)

type Kiosk struct {
	// Id of the shared marketplace object holding the kiosk. Also the primary key of the cached reserve row
	MarketplaceId string

	// Walrus aggregator used to build download urls. Empty means datasets are streamed through the backend
	AggregatorUrl string

	// Cron spec of the snapshot sync, e.g. "@every 30s"
	SyncSchedule string

	// Run one sync cycle right after start, without waiting for the schedule
	SyncOnStart bool

	// Maximum time a single sync cycle may take
	SyncTimeout time.Duration

	// How long a formatted price is served from memory. 0 disables caching
	PriceCacheTTL time.Duration

	// Number of sync cycles used to compute the average sync duration
	MonitorHistorySize int

	// Health check fails when the last successful sync is older than this
	HealthMaxSyncAge time.Duration
}

func setKioskDefaults() {
	viper.SetDefault("Kiosk.MarketplaceId", "")
	viper.SetDefault("Kiosk.AggregatorUrl", "")
	viper.SetDefault("Kiosk.SyncSchedule", "@every 30s")
	viper.SetDefault("Kiosk.SyncOnStart", "true")
	viper.SetDefault("Kiosk.SyncTimeout", "1m")
	viper.SetDefault("Kiosk.PriceCacheTTL", "5s")
	viper.SetDefault("Kiosk.MonitorHistorySize", "30")
	viper.SetDefault("Kiosk.HealthMaxSyncAge", "5m")
}
