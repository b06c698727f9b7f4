package kiosk

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Kiosk state read from the chain. Amounts are integers in the smallest unit
type Snapshot struct {
	CurrentPrice      decimal.Decimal
	SonarBalance      decimal.Decimal
	SuiBalance        decimal.Decimal
	CurrentTier       int32
	CirculatingSupply decimal.Decimal
	PriceOverride     Option[decimal.Decimal]
	SuiCutPercentage  uint64
}

type SyncOutcomeKind int

const (
	SyncOutcomeSkipped SyncOutcomeKind = iota
	SyncOutcomeUpdated
)

// Result of a single sync cycle. Snapshot and SyncedAt are set only when updated, Reason only when skipped
type SyncOutcome struct {
	Kind     SyncOutcomeKind
	Snapshot *Snapshot
	Reason   string
	Err      error

	// Value stored in last_synced_at
	SyncedAt time.Time
}

func Updated(snapshot *Snapshot, syncedAt time.Time) SyncOutcome {
	return SyncOutcome{Kind: SyncOutcomeUpdated, Snapshot: snapshot, SyncedAt: syncedAt}
}

func Skipped(reason string, err error) SyncOutcome {
	return SyncOutcome{Kind: SyncOutcomeSkipped, Reason: reason, Err: err}
}

func (self SyncOutcome) IsUpdated() bool {
	return self.Kind == SyncOutcomeUpdated
}

func (self SyncOutcome) String() string {
	if self.IsUpdated() {
		return "updated"
	}
	return "skipped: " + self.Reason
}

// Published after every successful sync
type SnapshotEvent struct {
	MarketplaceId     string                  `json:"marketplace_id"`
	CurrentPrice      decimal.Decimal         `json:"current_price"`
	SonarBalance      decimal.Decimal         `json:"sonar_balance"`
	SuiBalance        decimal.Decimal         `json:"sui_balance"`
	CurrentTier       int32                   `json:"current_tier"`
	CirculatingSupply decimal.Decimal         `json:"circulating_supply"`
	PriceOverride     Option[decimal.Decimal] `json:"price_override"`
	SyncedAt          time.Time               `json:"synced_at"`
}

func NewSnapshotEvent(marketplaceId string, snapshot *Snapshot, syncedAt time.Time) *SnapshotEvent {
	return &SnapshotEvent{
		MarketplaceId:     marketplaceId,
		CurrentPrice:      snapshot.CurrentPrice,
		SonarBalance:      snapshot.SonarBalance,
		SuiBalance:        snapshot.SuiBalance,
		CurrentTier:       snapshot.CurrentTier,
		CirculatingSupply: snapshot.CirculatingSupply,
		PriceOverride:     snapshot.PriceOverride,
		SyncedAt:          syncedAt.UTC(),
	}
}

func (self *SnapshotEvent) MarshalBinary() ([]byte, error) {
	return json.Marshal(self)
}
