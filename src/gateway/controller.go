package gateway

import (
	"github.com/sonar-protocol/kiosk-syncer/src/utils/config"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/model"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/monitoring"
	monitor_kiosk "github.com/sonar-protocol/kiosk-syncer/src/utils/monitoring/kiosk"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/task"
)

type Controller struct {
	*task.Task
}

func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)
	self.Task = task.NewTask(config, "gateway-controller")

	// SQL database
	db, err := model.NewConnection(self.Ctx, config, "kiosk-gateway")
	if err != nil {
		return
	}

	// Monitoring, sync age isn't checked here
	monitor := monitor_kiosk.NewMonitor()
	monitoringServer := monitoring.NewServer(config).
		WithMonitor(monitor)

	// Price and access endpoints
	server := NewServer(config, db).
		WithMonitor(monitor)

	self.Task.
		WithSubtask(server.Task).
		WithSubtask(monitoringServer.Task)

	return
}
