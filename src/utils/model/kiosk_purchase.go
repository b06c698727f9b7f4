package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const TableKioskPurchase = "kiosk_purchases"

// Confirmed purchase of a dataset paid with the kiosk token.
// Rows are written by the purchase confirmation flow, here they are only read.
type KioskPurchase struct {
	Id          string          `gorm:"primaryKey;type:text" json:"id"`
	UserAddress string          `gorm:"not null;index:idx_kiosk_purchases_user_dataset,priority:1" json:"user_address"`
	DatasetId   string          `gorm:"not null;index:idx_kiosk_purchases_user_dataset,priority:2" json:"dataset_id"`
	SonarAmount decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"sonar_amount"`
	TxDigest    string          `gorm:"type:text" json:"tx_digest"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

func (KioskPurchase) TableName() string {
	return TableKioskPurchase
}

func (self *KioskPurchase) BeforeCreate(tx *gorm.DB) error {
	if self.Id == "" {
		self.Id = uuid.NewString()
	}
	return nil
}
