package report

import (
	"go.uber.org/atomic"
)

type KioskErrors struct {
	ChainUnavailable atomic.Uint64 `json:"chain_unavailable"`
	StoreFailures    atomic.Uint64 `json:"store_failures"`
}

type KioskState struct {
	SyncsUpdated atomic.Uint64 `json:"syncs_updated"`
	SyncsSkipped atomic.Uint64 `json:"syncs_skipped"`

	// Cycles that didn't start because the previous one was still running
	SyncsOverlapped atomic.Uint64 `json:"syncs_overlapped"`

	LastSyncedTimestamp   atomic.Int64   `json:"last_synced_timestamp"`
	LastSyncDurationMs    atomic.Int64   `json:"last_sync_duration_ms"`
	AverageSyncDurationMs atomic.Float64 `json:"average_sync_duration_ms"`

	CurrentTier               atomic.Int32  `json:"current_tier"`
	NegativeCirculatingSupply atomic.Uint64 `json:"negative_circulating_supply"`
}

type KioskReport struct {
	State  KioskState  `json:"state"`
	Errors KioskErrors `json:"errors"`
}
