package gateway

import (
	"context"
	"net/http"

	"github.com/sonar-protocol/kiosk-syncer/src/kiosk"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/config"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/monitoring"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/task"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Rest API serving kiosk prices and access grants
type Server struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine

	monitor monitoring.Monitor
	price   *kiosk.PriceService
	access  *kiosk.AccessService
}

func NewServer(config *config.Config, db *gorm.DB) (self *Server) {
	self = new(Server)

	self.Task = task.NewTask(config, "gateway").
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	self.price = kiosk.NewPriceService(config, db)
	self.access = kiosk.NewAccessService(config, db)

	if !config.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	self.Router = gin.New()
	self.Router.Use(
		gin.Recovery(),
		self.requestId(),
		self.requestContext(),
		self.accessLog(),
	)

	v1 := self.Router.Group("v1")
	{
		kioskGroup := v1.Group("kiosk")
		kioskGroup.GET("price", self.onGetPrice)
		kioskGroup.POST("access", self.session(), self.onPostAccess)
	}

	self.httpServer = &http.Server{
		Addr:    config.Gateway.RESTListenAddress,
		Handler: self.Router,
	}

	return
}

func (self *Server) WithMonitor(monitor monitoring.Monitor) *Server {
	self.monitor = monitor
	self.price.WithMonitor(monitor)
	self.access.WithMonitor(monitor)
	return self
}

func (self *Server) run() (err error) {
	self.Log.WithField("address", self.Config.Gateway.RESTListenAddress).Info("Starting gateway")
	err = self.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		self.Log.WithError(err).Error("Failed to start REST server")
		return
	}
	return nil
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown REST server")
		return
	}
}
