package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const TableKioskReserve = "kiosk_reserves"

// Default values of a reserve that was never synced
var (
	DefaultKioskPrice = decimal.New(1, 9)
	DefaultKioskTier  = int32(1)
)

// Cached snapshot of the on-chain kiosk. One row per marketplace object, replaced in place.
type KioskReserve struct {
	// Marketplace object id
	Id string `gorm:"primaryKey;type:text" json:"id"`

	SonarBalance      decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"sonar_balance"`
	SuiBalance        decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"sui_balance"`
	CurrentPrice      decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"current_price"`
	CurrentTier       int32           `gorm:"not null" json:"current_tier"`
	CirculatingSupply decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"circulating_supply"`

	// Null when no administrator override is set
	PriceOverride decimal.NullDecimal `gorm:"type:numeric(78,0)" json:"price_override"`

	LastSyncedAt time.Time `gorm:"not null" json:"last_synced_at"`
}

func (KioskReserve) TableName() string {
	return TableKioskReserve
}

func NewDefaultKioskReserve(marketplaceId string, now time.Time) *KioskReserve {
	return &KioskReserve{
		Id:                marketplaceId,
		SonarBalance:      decimal.Zero,
		SuiBalance:        decimal.Zero,
		CurrentPrice:      DefaultKioskPrice,
		CurrentTier:       DefaultKioskTier,
		CirculatingSupply: decimal.Zero,
		LastSyncedAt:      now,
	}
}
