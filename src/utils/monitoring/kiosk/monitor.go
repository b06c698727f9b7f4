package monitor_kiosk

import (
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/sonar-protocol/kiosk-syncer/src/utils/monitoring/report"

	"github.com/gammazero/deque"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Stores and computes monitor counters
type Monitor struct {
	Report report.Report

	collector *Collector

	// Health of the snapshot sync, checked only if the process runs it
	isSyncChecked bool
	maxSyncAge    time.Duration

	// Durations of the last sync cycles, in milliseconds
	mtx           sync.Mutex
	historySize   int
	SyncDurations *deque.Deque[int64]
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)

	self.Report = report.Report{
		Run:            &report.RunReport{},
		Kiosk:          &report.KioskReport{},
		Gateway:        &report.GatewayReport{},
		RedisPublisher: &report.RedisPublisherReport{},
	}

	// Initialization
	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())

	self.collector = NewCollector().WithMonitor(self)

	return self.WithMaxHistorySize(30)
}

func (self *Monitor) WithMaxHistorySize(maxHistorySize int) *Monitor {
	if maxHistorySize < 1 {
		maxHistorySize = 1
	}

	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.historySize = maxHistorySize
	self.SyncDurations = deque.New[int64](self.historySize)

	return self
}

// Health fails when no sync succeeded within maxSyncAge
func (self *Monitor) WithSyncHealthCheck(maxSyncAge time.Duration) *Monitor {
	self.isSyncChecked = maxSyncAge > 0
	self.maxSyncAge = maxSyncAge
	return self
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

// Updates the sliding window of sync durations
func (self *Monitor) OnSyncFinished(duration time.Duration) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	self.SyncDurations.PushBack(duration.Milliseconds())
	if self.SyncDurations.Len() > self.historySize {
		self.SyncDurations.PopFront()
	}

	var sum int64
	for i := 0; i < self.SyncDurations.Len(); i++ {
		sum += self.SyncDurations.At(i)
	}

	self.Report.Kiosk.State.LastSyncDurationMs.Store(duration.Milliseconds())
	self.Report.Kiosk.State.AverageSyncDurationMs.Store(round(float64(sum) / float64(self.SyncDurations.Len())))
}

func (self *Monitor) upForSeconds() uint64 {
	return uint64(time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load())
}

func (self *Monitor) IsOK() bool {
	if !self.isSyncChecked {
		return true
	}

	now := time.Now()
	if now.Sub(time.Unix(self.Report.Run.State.StartTimestamp.Load(), 0)) < self.maxSyncAge {
		// Give the first cycles some time
		return true
	}

	lastSynced := self.Report.Kiosk.State.LastSyncedTimestamp.Load()
	return now.Sub(time.Unix(lastSynced, 0)) < self.maxSyncAge
}

func (self *Monitor) OnGetState(c *gin.Context) {
	self.Report.Run.State.UpForSeconds.Store(self.upForSeconds())
	c.JSON(http.StatusOK, &self.Report)
}

func (self *Monitor) OnGetHealth(c *gin.Context) {
	if self.IsOK() {
		c.Status(http.StatusOK)
	} else {
		c.Status(http.StatusServiceUnavailable)
	}
}
