package kiosk

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/sonar-protocol/kiosk-syncer/src/utils/config"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/model"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/sui"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testMarketplaceId = "0xmarketplace"

const scenarioFields = `{
	"id": {"id": "0xmarketplace"},
	"treasury_cap": {"fields": {"total_supply": "100000000000000000"}},
	"reward_pool": "70000000000000000",
	"liquidity_vault": "5000000000000000",
	"kiosk": {
		"fields": {
			"base_sonar_price": "800000000",
			"price_override": {"fields": {"some": "750000000"}},
			"current_tier": 2,
			"sonar_reserve": "4200000000000000",
			"sui_reserve": "3200000000000000",
			"sui_cut_percentage": 20
		}
	}
}`

const noOverrideFields = `{
	"treasury_cap": {"fields": {"total_supply": "1000"}},
	"reward_pool": "100",
	"liquidity_vault": "200",
	"kiosk": {
		"fields": {
			"base_sonar_price": "1000000000",
			"price_override": null,
			"current_tier": 1,
			"sonar_reserve": "500",
			"sui_reserve": "600",
			"sui_cut_percentage": 0
		}
	}
}`

func marketplaceObject(fields string) *sui.ObjectData {
	return &sui.ObjectData{
		ObjectId: testMarketplaceId,
		Version:  "1",
		Owner:    &sui.ObjectOwner{Kind: "Shared"},
		Content: &sui.ObjectContent{
			DataType: sui.DataTypeMoveObject,
			Type:     "0x1::marketplace::Marketplace",
			Fields:   json.RawMessage(fields),
		},
	}
}

// Returns canned objects
type fakeChain struct {
	mtx    sync.Mutex
	object *sui.ObjectData
	err    error
	calls  int

	// Reads wait until it's closed, when set
	release chan struct{}
}

func (self *fakeChain) set(object *sui.ObjectData, err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.object = object
	self.err = err
}

func (self *fakeChain) blockReads() {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.release = make(chan struct{})
}

func (self *fakeChain) unblockReads() {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	close(self.release)
	self.release = nil
}

func (self *fakeChain) numCalls() int {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.calls
}

func (self *fakeChain) GetSharedObject(ctx context.Context, id string) (*sui.ObjectData, error) {
	self.mtx.Lock()
	self.calls++
	release := self.release
	self.mtx.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.object, self.err
}

func newTestConfig() *config.Config {
	c := config.Default()
	c.Kiosk.MarketplaceId = testMarketplaceId
	c.Kiosk.PriceCacheTTL = 0
	c.Kiosk.AggregatorUrl = ""
	c.Database.Driver = config.DriverSqlite
	c.Database.Name = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	return c
}

func newTestDB(t *testing.T, ctx context.Context, c *config.Config) *gorm.DB {
	db, err := model.NewConnection(ctx, c, "kiosk-test")
	require.Nil(t, err)
	return db
}

func closeTestDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	var n int64
	require.Nil(t, db.Table(table).Count(&n).Error)
	return n
}
