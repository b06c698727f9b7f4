package kiosk

import (
	"context"
	"errors"
	"time"

	"github.com/sonar-protocol/kiosk-syncer/src/utils/config"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/monitoring"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/task"

	"go.uber.org/atomic"
	"gorm.io/gorm"
)

type SyncMonitor interface {
	monitoring.Monitor
	OnSyncFinished(duration time.Duration)
}

// Periodically copies the on-chain kiosk state into the database
type Syncer struct {
	*task.Task

	reader  *Reader
	store   *Store
	monitor SyncMonitor
	output  chan *SnapshotEvent

	// Set while a cycle runs, overlapping cycles are skipped
	isSyncing *atomic.Bool

	now func() time.Time
}

func NewSyncer(config *config.Config) (self *Syncer) {
	self = new(Syncer)
	self.isSyncing = atomic.NewBool(false)
	self.now = time.Now

	self.Task = task.NewTask(config, "kiosk-syncer").
		WithSubtaskFunc(self.runOnStart).
		WithCronSubtaskFunc(config.Kiosk.SyncSchedule, self.runCycle)

	return
}

func (self *Syncer) WithChainReader(chain ChainReader) *Syncer {
	self.reader = NewReader(self.Config, chain)
	return self
}

func (self *Syncer) WithDB(db *gorm.DB) *Syncer {
	self.store = NewStore(db)
	return self
}

func (self *Syncer) WithMonitor(monitor SyncMonitor) *Syncer {
	self.monitor = monitor
	return self
}

// Snapshots of successful syncs are sent here. Sending blocks, the channel is closed when the syncer stops
func (self *Syncer) WithOutputChannel(v chan *SnapshotEvent) *Syncer {
	self.output = v
	self.WithOnAfterStop(func() {
		close(v)
	})
	return self
}

func (self *Syncer) WithClock(now func() time.Time) *Syncer {
	self.now = now
	return self
}

func (self *Syncer) runOnStart() error {
	if !self.Config.Kiosk.SyncOnStart {
		return nil
	}
	return self.runCycle()
}

// Single scheduled cycle. Never fails, problems are logged and counted
func (self *Syncer) runCycle() error {
	if !self.isSyncing.CompareAndSwap(false, true) {
		self.Log.Warn("Previous sync still running, skipping cycle")
		self.monitor.GetReport().Kiosk.State.SyncsOverlapped.Inc()
		return nil
	}
	defer self.isSyncing.Store(false)

	ctx, cancel := context.WithTimeout(self.Ctx, self.Config.Kiosk.SyncTimeout)
	defer cancel()

	outcome := self.SyncToDatabase(ctx)
	if !outcome.IsUpdated() || self.output == nil {
		return nil
	}

	select {
	case <-self.Ctx.Done():
	case self.output <- NewSnapshotEvent(self.Config.Kiosk.MarketplaceId, outcome.Snapshot, outcome.SyncedAt):
	}
	return nil
}

// Reads the snapshot from the chain and upserts it. Failures skip the cycle, the stored snapshot stays untouched.
func (self *Syncer) SyncToDatabase(ctx context.Context) (outcome SyncOutcome) {
	start := time.Now()
	report := self.monitor.GetReport().Kiosk
	log := self.Log.WithField("id", self.Config.Kiosk.MarketplaceId)

	defer func() {
		self.monitor.OnSyncFinished(time.Since(start))
		if !outcome.IsUpdated() {
			report.State.SyncsSkipped.Inc()
		}
	}()

	snapshot, err := self.reader.FetchMarketplaceSnapshot(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to read kiosk snapshot, skipping sync")
		report.Errors.ChainUnavailable.Inc()
		return Skipped("chain unavailable", err)
	}

	if snapshot.CirculatingSupply.IsNegative() {
		log.WithField("circulating_supply", snapshot.CirculatingSupply).
			Warn("Negative circulating supply, reward pool and liquidity vault exceed total supply")
		report.State.NegativeCirculatingSupply.Inc()
	}

	now := self.now()
	_, err = self.store.UpsertSnapshot(ctx, self.Config.Kiosk.MarketplaceId, snapshot, now)
	if err != nil {
		log.WithError(err).Error("Failed to store kiosk snapshot, skipping sync")
		report.Errors.StoreFailures.Inc()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Skipped("sync timeout", err)
		}
		return Skipped("store error", err)
	}

	report.State.SyncsUpdated.Inc()
	report.State.LastSyncedTimestamp.Store(now.Unix())
	report.State.CurrentTier.Store(snapshot.CurrentTier)

	log.WithField("price", snapshot.CurrentPrice).
		WithField("tier", snapshot.CurrentTier).
		WithField("override", snapshot.PriceOverride.IsSome()).
		Info("Kiosk snapshot synced")

	return Updated(snapshot, now)
}
