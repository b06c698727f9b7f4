package kiosk

import (
	"context"

	"github.com/sonar-protocol/kiosk-syncer/src/utils/config"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/model"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/monitoring"
	monitor_kiosk "github.com/sonar-protocol/kiosk-syncer/src/utils/monitoring/kiosk"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/publisher"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/sui"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/task"
)

type Controller struct {
	*task.Task
}

// Scheduled snapshot sync with monitoring and optional Redis notifications
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)
	self.Task = task.NewTask(config, "kiosk-controller")

	// SQL database
	db, err := model.NewConnection(self.Ctx, config, "kiosk-syncer")
	if err != nil {
		return
	}

	// Monitoring
	monitor := monitor_kiosk.NewMonitor().
		WithMaxHistorySize(config.Kiosk.MonitorHistorySize).
		WithSyncHealthCheck(config.Kiosk.HealthMaxSyncAge)
	server := monitoring.NewServer(config).
		WithMonitor(monitor)

	// Copies the marketplace object into the database
	syncer := NewSyncer(config).
		WithChainReader(sui.NewClient(&config.Sui)).
		WithDB(db).
		WithMonitor(monitor)

	// Notifies other services about new snapshots
	var publisherTask *task.Task
	if config.Redis.Enabled {
		events := make(chan *SnapshotEvent, 1)
		syncer.WithOutputChannel(events)

		publisherTask = publisher.NewRedisPublisher[*SnapshotEvent](config, "kiosk-redis-publisher").
			WithInputChannel(events).
			WithMonitor(monitor).
			Task
	}

	// Setup everything, will start upon calling Controller.Start()
	self.Task.
		WithSubtask(syncer.Task).
		WithSubtask(server.Task).
		WithConditionalSubtask(config.Redis.Enabled, publisherTask)

	return
}

// Runs a single sync cycle without scheduling. Cancelling ctx aborts the cycle
func SyncOnce(ctx context.Context, config *config.Config) (outcome SyncOutcome, err error) {
	syncer := NewSyncer(config).
		WithChainReader(sui.NewClient(&config.Sui)).
		WithMonitor(monitor_kiosk.NewMonitor())

	db, err := model.NewConnection(ctx, config, "kiosk-sync-once")
	if err != nil {
		return
	}
	defer func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}()
	syncer.WithDB(db)

	syncCtx, cancel := context.WithTimeout(ctx, config.Kiosk.SyncTimeout)
	defer cancel()

	return syncer.SyncToDatabase(syncCtx), nil
}
