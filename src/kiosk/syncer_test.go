package kiosk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sonar-protocol/kiosk-syncer/src/utils/config"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/model"
	monitor_kiosk "github.com/sonar-protocol/kiosk-syncer/src/utils/monitoring/kiosk"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/sui"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

func TestSyncerTestSuite(t *testing.T) {
	suite.Run(t, new(SyncerTestSuite))
}

type SyncerTestSuite struct {
	suite.Suite
	ctx     context.Context
	cancel  context.CancelFunc
	config  *config.Config
	db      *gorm.DB
	chain   *fakeChain
	monitor *monitor_kiosk.Monitor
	syncer  *Syncer
	now     time.Time
}

func (s *SyncerTestSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.config = newTestConfig()
	s.db = newTestDB(s.T(), s.ctx, s.config)
	s.chain = &fakeChain{}
	s.monitor = monitor_kiosk.NewMonitor()
	s.now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	s.syncer = NewSyncer(s.config).
		WithChainReader(s.chain).
		WithDB(s.db).
		WithMonitor(s.monitor).
		WithClock(func() time.Time { return s.now })
}

func (s *SyncerTestSuite) TearDownTest() {
	closeTestDB(s.db)
	s.cancel()
}

func (s *SyncerTestSuite) reserve() *model.KioskReserve {
	var out model.KioskReserve
	require.Nil(s.T(), s.db.Where("id = ?", testMarketplaceId).Take(&out).Error)
	return &out
}

func (s *SyncerTestSuite) TestScenarioUpsert() {
	s.chain.set(marketplaceObject(scenarioFields), nil)

	outcome := s.syncer.SyncToDatabase(s.ctx)
	require.True(s.T(), outcome.IsUpdated())
	require.Nil(s.T(), outcome.Err)

	reserve := s.reserve()
	require.Equal(s.T(), "4200000000000000", reserve.SonarBalance.String())
	require.Equal(s.T(), "3200000000000000", reserve.SuiBalance.String())
	require.Equal(s.T(), "800000000", reserve.CurrentPrice.String())
	require.True(s.T(), reserve.PriceOverride.Valid)
	require.Equal(s.T(), "750000000", reserve.PriceOverride.Decimal.String())
	require.Equal(s.T(), int32(2), reserve.CurrentTier)
	require.Equal(s.T(), "25000000000000000", reserve.CirculatingSupply.String())
	require.True(s.T(), s.now.Equal(reserve.LastSyncedAt))

	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Kiosk.State.SyncsUpdated.Load())
	require.Equal(s.T(), int32(2), s.monitor.GetReport().Kiosk.State.CurrentTier.Load())
}

func (s *SyncerTestSuite) TestIdempotent() {
	s.chain.set(marketplaceObject(scenarioFields), nil)

	require.True(s.T(), s.syncer.SyncToDatabase(s.ctx).IsUpdated())
	first := s.now

	s.now = s.now.Add(30 * time.Second)
	require.True(s.T(), s.syncer.SyncToDatabase(s.ctx).IsUpdated())

	require.Equal(s.T(), int64(1), countRows(s.T(), s.db, model.TableKioskReserve))
	reserve := s.reserve()
	require.True(s.T(), s.now.Equal(reserve.LastSyncedAt))
	require.False(s.T(), first.Equal(reserve.LastSyncedAt))
}

func (s *SyncerTestSuite) TestOverrideRemoved() {
	s.chain.set(marketplaceObject(scenarioFields), nil)
	require.True(s.T(), s.syncer.SyncToDatabase(s.ctx).IsUpdated())

	s.chain.set(marketplaceObject(noOverrideFields), nil)
	require.True(s.T(), s.syncer.SyncToDatabase(s.ctx).IsUpdated())

	reserve := s.reserve()
	require.False(s.T(), reserve.PriceOverride.Valid)
	require.Equal(s.T(), "700", reserve.CirculatingSupply.String())
}

func (s *SyncerTestSuite) TestChainFailureKeepsSnapshot() {
	s.chain.set(marketplaceObject(scenarioFields), nil)
	require.True(s.T(), s.syncer.SyncToDatabase(s.ctx).IsUpdated())
	synced := s.now

	for _, failure := range []struct {
		object *sui.ObjectData
		err    error
	}{
		{nil, errors.New("connection refused")},
		{nil, sui.ErrObjectNotFound},
		{nil, nil},
		{&sui.ObjectData{ObjectId: testMarketplaceId}, nil},
		{marketplaceObject(`{"reward_pool": "1"}`), nil},
		{&sui.ObjectData{Content: &sui.ObjectContent{DataType: sui.DataTypePackage}}, nil},
	} {
		s.now = s.now.Add(time.Minute)
		s.chain.set(failure.object, failure.err)

		outcome := s.syncer.SyncToDatabase(s.ctx)
		require.False(s.T(), outcome.IsUpdated())
		require.Nil(s.T(), outcome.Snapshot)
		require.True(s.T(), errors.Is(outcome.Err, ErrChainUnavailable))
		require.NotEmpty(s.T(), outcome.Reason)
	}

	reserve := s.reserve()
	require.True(s.T(), synced.Equal(reserve.LastSyncedAt))
	require.Equal(s.T(), "800000000", reserve.CurrentPrice.String())
	require.Equal(s.T(), uint64(6), s.monitor.GetReport().Kiosk.Errors.ChainUnavailable.Load())
	require.Equal(s.T(), uint64(6), s.monitor.GetReport().Kiosk.State.SyncsSkipped.Load())
}

func (s *SyncerTestSuite) TestStoreFailureIsSkipped() {
	s.chain.set(marketplaceObject(scenarioFields), nil)
	require.Nil(s.T(), s.db.Migrator().DropTable(&model.KioskReserve{}))

	outcome := s.syncer.SyncToDatabase(s.ctx)
	require.False(s.T(), outcome.IsUpdated())
	require.True(s.T(), errors.Is(outcome.Err, ErrStore))
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Kiosk.Errors.StoreFailures.Load())
}

func (s *SyncerTestSuite) TestNegativeSupplyIsCounted() {
	s.chain.set(marketplaceObject(`{
		"treasury_cap": {"fields": {"total_supply": "10"}},
		"reward_pool": "20",
		"liquidity_vault": "30",
		"kiosk": {"fields": {"base_sonar_price": "1", "current_tier": 1, "sonar_reserve": "0", "sui_reserve": "0"}}
	}`), nil)

	require.True(s.T(), s.syncer.SyncToDatabase(s.ctx).IsUpdated())
	require.Equal(s.T(), "-40", s.reserve().CirculatingSupply.String())
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Kiosk.State.NegativeCirculatingSupply.Load())
}

func (s *SyncerTestSuite) TestOverlappingCycleIsSkipped() {
	s.chain.set(marketplaceObject(scenarioFields), nil)
	s.chain.blockReads()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.syncer.runCycle()
	}()

	require.Eventually(s.T(), func() bool {
		return s.chain.numCalls() == 1
	}, 5*time.Second, 10*time.Millisecond)

	// Returns right away, the first cycle still holds the guard
	require.Nil(s.T(), s.syncer.runCycle())
	require.Equal(s.T(), 1, s.chain.numCalls())
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Kiosk.State.SyncsOverlapped.Load())

	s.chain.unblockReads()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.Fail(s.T(), "first cycle didn't finish")
	}

	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Kiosk.State.SyncsUpdated.Load())

	// Guard is released afterwards
	require.Nil(s.T(), s.syncer.runCycle())
	require.Equal(s.T(), uint64(2), s.monitor.GetReport().Kiosk.State.SyncsUpdated.Load())
	require.Equal(s.T(), uint64(1), s.monitor.GetReport().Kiosk.State.SyncsOverlapped.Load())
}

func (s *SyncerTestSuite) TestEventCarriesStoredTimestamp() {
	s.chain.set(marketplaceObject(scenarioFields), nil)

	// Every reading of the clock moves it forward
	var ticks time.Duration
	clock := func() time.Time {
		ticks += time.Second
		return s.now.Add(ticks)
	}

	output := make(chan *SnapshotEvent, 1)
	syncer := NewSyncer(s.config).
		WithChainReader(s.chain).
		WithDB(s.db).
		WithMonitor(s.monitor).
		WithOutputChannel(output).
		WithClock(clock)

	require.Nil(s.T(), syncer.runCycle())

	event := <-output
	require.True(s.T(), s.reserve().LastSyncedAt.Equal(event.SyncedAt))
}

func (s *SyncerTestSuite) TestSyncOnStartPublishesEvent() {
	s.chain.set(marketplaceObject(scenarioFields), nil)
	s.config.Kiosk.SyncOnStart = true
	s.config.Kiosk.SyncSchedule = "@every 1h"

	output := make(chan *SnapshotEvent, 1)
	syncer := NewSyncer(s.config).
		WithChainReader(s.chain).
		WithDB(s.db).
		WithMonitor(s.monitor).
		WithOutputChannel(output).
		WithClock(func() time.Time { return s.now })
	require.Nil(s.T(), syncer.Start())

	select {
	case event := <-output:
		require.Equal(s.T(), testMarketplaceId, event.MarketplaceId)
		require.Equal(s.T(), "800000000", event.CurrentPrice.String())
		v, ok := event.PriceOverride.Get()
		require.True(s.T(), ok)
		require.True(s.T(), decimal.NewFromInt(750000000).Equal(v))

		buf, err := event.MarshalBinary()
		require.Nil(s.T(), err)
		require.Contains(s.T(), string(buf), `"circulating_supply":"25000000000000000"`)
		require.Contains(s.T(), string(buf), `"price_override":"750000000"`)
	case <-time.After(5 * time.Second):
		require.Fail(s.T(), "no snapshot event")
	}

	syncer.StopWait()

	// Closed after stop
	_, ok := <-output
	require.False(s.T(), ok)
}

func (s *SyncerTestSuite) TestScheduledCycles() {
	s.chain.set(marketplaceObject(scenarioFields), nil)
	s.config.Kiosk.SyncOnStart = false
	s.config.Kiosk.SyncSchedule = "@every 1s"

	syncer := NewSyncer(s.config).
		WithChainReader(s.chain).
		WithDB(s.db).
		WithMonitor(s.monitor)
	require.Nil(s.T(), syncer.Start())

	require.Eventually(s.T(), func() bool {
		return s.monitor.GetReport().Kiosk.State.SyncsUpdated.Load() >= 2
	}, 5*time.Second, 50*time.Millisecond)

	syncer.StopWait()
	require.Equal(s.T(), int64(1), countRows(s.T(), s.db, model.TableKioskReserve))
}
