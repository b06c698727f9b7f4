package kiosk

import (
	"context"
	"time"

	"github.com/sonar-protocol/kiosk-syncer/src/utils/config"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/logger"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/model"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/monitoring"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Reference rate of SUI, not derived from the reserves
const SuiPrice = "1000000000"

const priceCacheKey = "price"

type ReserveBalance struct {
	Sonar string `json:"sonar"`
	Sui   string `json:"sui"`
}

// Amounts are decimal strings, they don't fit into a float without losing precision
type PriceResponse struct {
	SonarPrice        string         `json:"sonar_price"`
	SuiPrice          string         `json:"sui_price"`
	ReserveBalance    ReserveBalance `json:"reserve_balance"`
	CurrentTier       int32          `json:"current_tier"`
	CirculatingSupply string         `json:"circulating_supply"`
	PriceOverride     *string        `json:"price_override"`
	OverrideActive    bool           `json:"override_active"`
	LastSyncedAt      time.Time      `json:"last_synced_at"`
}

func NewPriceResponse(reserve *model.KioskReserve) *PriceResponse {
	out := &PriceResponse{
		SonarPrice: reserve.CurrentPrice.String(),
		SuiPrice:   SuiPrice,
		ReserveBalance: ReserveBalance{
			Sonar: reserve.SonarBalance.String(),
			Sui:   reserve.SuiBalance.String(),
		},
		CurrentTier:       reserve.CurrentTier,
		CirculatingSupply: reserve.CirculatingSupply.String(),
		LastSyncedAt:      reserve.LastSyncedAt.UTC(),
	}

	if reserve.PriceOverride.Valid {
		v := reserve.PriceOverride.Decimal.String()
		out.PriceOverride = &v
		out.OverrideActive = true
	}

	return out
}

// Copy that shares no memory with the receiver
func (self *PriceResponse) clone() *PriceResponse {
	out := *self
	if self.PriceOverride != nil {
		v := *self.PriceOverride
		out.PriceOverride = &v
	}
	return &out
}

// Serves the stored kiosk snapshot
type PriceService struct {
	config  *config.Config
	log     *logrus.Entry
	store   *Store
	monitor monitoring.Monitor

	// Nil when caching is disabled
	cache *cache.Cache

	now func() time.Time
}

func NewPriceService(config *config.Config, db *gorm.DB) (self *PriceService) {
	self = new(PriceService)
	self.config = config
	self.log = logger.NewSublogger("kiosk-price")
	self.store = NewStore(db)
	self.now = time.Now

	if config.Kiosk.PriceCacheTTL > 0 {
		self.cache = cache.New(config.Kiosk.PriceCacheTTL, 2*config.Kiosk.PriceCacheTTL)
	}

	return
}

func (self *PriceService) WithMonitor(monitor monitoring.Monitor) *PriceService {
	self.monitor = monitor
	return self
}

func (self *PriceService) WithClock(now func() time.Time) *PriceService {
	self.now = now
	return self
}

// Returns the current price. A default snapshot is stored if nothing was synced yet
func (self *PriceService) FetchKioskPrice(ctx context.Context) (out *PriceResponse, err error) {
	if self.monitor != nil {
		self.monitor.GetReport().Gateway.State.PriceQueries.Inc()
	}

	if self.cache != nil {
		cached, ok := self.cache.Get(priceCacheKey)
		if ok {
			if self.monitor != nil {
				self.monitor.GetReport().Gateway.State.PriceCacheHits.Inc()
			}
			// Callers may modify the response
			return cached.(*PriceResponse).clone(), nil
		}
	}

	reserve, err := self.store.GetOrCreateReserve(ctx, self.config.Kiosk.MarketplaceId, self.now())
	if err != nil {
		self.log.WithError(err).Error("Failed to get kiosk reserve")
		if self.monitor != nil {
			self.monitor.GetReport().Gateway.Errors.PriceQueryFailures.Inc()
		}
		return
	}

	out = NewPriceResponse(reserve)

	if self.cache != nil {
		self.cache.SetDefault(priceCacheKey, out.clone())
	}

	return
}
