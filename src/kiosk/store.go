package kiosk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sonar-protocol/kiosk-syncer/src/utils/logger"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Columns replaced by a snapshot sync, everything but the primary key
var reserveSyncColumns = []string{
	"sonar_balance",
	"sui_balance",
	"current_price",
	"current_tier",
	"circulating_supply",
	"price_override",
	"last_synced_at",
}

// Database access of the kiosk. Every error wraps ErrStore
type Store struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewStore(db *gorm.DB) (self *Store) {
	self = new(Store)
	self.db = db
	self.log = logger.NewSublogger("kiosk-store")
	return
}

func storeError(err error) error {
	return fmt.Errorf("%w: %w", ErrStore, err)
}

// Inserts or replaces the reserve row in a single statement
func (self *Store) UpsertSnapshot(ctx context.Context, marketplaceId string, snapshot *Snapshot, now time.Time) (out *model.KioskReserve, err error) {
	out = &model.KioskReserve{
		Id:                marketplaceId,
		SonarBalance:      snapshot.SonarBalance,
		SuiBalance:        snapshot.SuiBalance,
		CurrentPrice:      snapshot.CurrentPrice,
		CurrentTier:       snapshot.CurrentTier,
		CirculatingSupply: snapshot.CirculatingSupply,
		LastSyncedAt:      now,
	}

	if v, ok := snapshot.PriceOverride.Get(); ok {
		out.PriceOverride = decimal.NullDecimal{Decimal: v, Valid: true}
	}

	err = self.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(reserveSyncColumns),
		}).
		Create(out).
		Error
	if err != nil {
		self.log.WithError(err).WithField("id", marketplaceId).Error("Failed to upsert kiosk reserve")
		return nil, storeError(err)
	}

	return
}

func (self *Store) GetReserve(ctx context.Context, marketplaceId string) (out *model.KioskReserve, err error) {
	out = new(model.KioskReserve)
	err = self.db.WithContext(ctx).
		Where("id = ?", marketplaceId).
		Take(out).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err)
	}
	return
}

// Returns the reserve row, creating it with default values first if it doesn't exist.
// Concurrent callers end up with the same single row.
func (self *Store) GetOrCreateReserve(ctx context.Context, marketplaceId string, now time.Time) (out *model.KioskReserve, err error) {
	out, err = self.GetReserve(ctx, marketplaceId)
	if err != nil || out != nil {
		return
	}

	err = self.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(model.NewDefaultKioskReserve(marketplaceId, now)).
		Error
	if err != nil {
		self.log.WithError(err).WithField("id", marketplaceId).Error("Failed to create default kiosk reserve")
		return nil, storeError(err)
	}

	self.log.WithField("id", marketplaceId).Info("Created default kiosk reserve")

	// Re-read, a concurrent sync or reader may have won the insert
	out, err = self.GetReserve(ctx, marketplaceId)
	if err != nil {
		return
	}
	if out == nil {
		return nil, storeError(fmt.Errorf("reserve %s disappeared", marketplaceId))
	}
	return
}

// Most recent purchase of the dataset by the user, nil if there's none.
// Purchase status isn't checked.
func (self *Store) LatestPurchase(ctx context.Context, userAddress, datasetId string) (out *model.KioskPurchase, err error) {
	out = new(model.KioskPurchase)
	err = self.db.WithContext(ctx).
		Where("user_address = ? AND dataset_id = ?", userAddress, datasetId).
		Order("created_at DESC").
		Take(out).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err)
	}
	return
}

func (self *Store) GetDataset(ctx context.Context, datasetId string) (out *model.Dataset, err error) {
	out = new(model.Dataset)
	err = self.db.WithContext(ctx).
		Where("id = ?", datasetId).
		Take(out).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err)
	}
	return
}

func (self *Store) GetDatasetBlob(ctx context.Context, datasetId string) (out *model.DatasetBlob, err error) {
	out = new(model.DatasetBlob)
	err = self.db.WithContext(ctx).
		Where("dataset_id = ?", datasetId).
		Take(out).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err)
	}
	return
}

func (self *Store) CreateAccessLog(ctx context.Context, log *model.AccessLog) (err error) {
	err = self.db.WithContext(ctx).
		Create(log).
		Error
	if err != nil {
		self.log.WithError(err).
			WithField("user", log.UserAddress).
			WithField("dataset", log.DatasetId).
			WithField("action", log.Action).
			Error("Failed to write access log")
		return storeError(err)
	}
	return
}
