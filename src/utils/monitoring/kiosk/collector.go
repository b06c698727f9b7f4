package monitor_kiosk

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	// Run
	UpForSeconds *prometheus.Desc

	// Kiosk errors
	ChainUnavailable *prometheus.Desc
	StoreFailures    *prometheus.Desc

	// Kiosk state
	SyncsUpdated              *prometheus.Desc
	SyncsSkipped              *prometheus.Desc
	SyncsOverlapped           *prometheus.Desc
	LastSyncedTimestamp       *prometheus.Desc
	AverageSyncDurationMs     *prometheus.Desc
	CurrentTier               *prometheus.Desc
	NegativeCirculatingSupply *prometheus.Desc

	// Gateway
	PriceQueries       *prometheus.Desc
	PriceCacheHits     *prometheus.Desc
	PriceQueryFailures *prometheus.Desc
	GrantsIssued       *prometheus.Desc
	GrantsDenied       *prometheus.Desc
	GrantsFailed       *prometheus.Desc
	AuditLogFailures   *prometheus.Desc
	AuthFailures       *prometheus.Desc

	// Redis publisher
	MessagesPublished         *prometheus.Desc
	PublishErrors             *prometheus.Desc
	PublishPersistentFailures *prometheus.Desc
}

func NewCollector() *Collector {
	return &Collector{
		UpForSeconds: prometheus.NewDesc("up_for_seconds", "", nil, nil),

		ChainUnavailable: prometheus.NewDesc("kiosk_chain_unavailable", "Sync cycles skipped because the chain couldn't be read", nil, nil),
		StoreFailures:    prometheus.NewDesc("kiosk_store_failures", "", nil, nil),

		SyncsUpdated:              prometheus.NewDesc("kiosk_syncs_updated", "", nil, nil),
		SyncsSkipped:              prometheus.NewDesc("kiosk_syncs_skipped", "", nil, nil),
		SyncsOverlapped:           prometheus.NewDesc("kiosk_syncs_overlapped", "", nil, nil),
		LastSyncedTimestamp:       prometheus.NewDesc("kiosk_last_synced_timestamp", "", nil, nil),
		AverageSyncDurationMs:     prometheus.NewDesc("kiosk_average_sync_duration_ms", "", nil, nil),
		CurrentTier:               prometheus.NewDesc("kiosk_current_tier", "", nil, nil),
		NegativeCirculatingSupply: prometheus.NewDesc("kiosk_negative_circulating_supply", "Snapshots with circulating supply below zero", nil, nil),

		PriceQueries:       prometheus.NewDesc("gateway_price_queries", "", nil, nil),
		PriceCacheHits:     prometheus.NewDesc("gateway_price_cache_hits", "", nil, nil),
		PriceQueryFailures: prometheus.NewDesc("gateway_price_query_failures", "", nil, nil),
		GrantsIssued:       prometheus.NewDesc("gateway_grants_issued", "", nil, nil),
		GrantsDenied:       prometheus.NewDesc("gateway_grants_denied", "", nil, nil),
		GrantsFailed:       prometheus.NewDesc("gateway_grants_failed", "", nil, nil),
		AuditLogFailures:   prometheus.NewDesc("gateway_audit_log_failures", "", nil, nil),
		AuthFailures:       prometheus.NewDesc("gateway_auth_failures", "", nil, nil),

		MessagesPublished:         prometheus.NewDesc("redis_publisher_messages_published", "", nil, nil),
		PublishErrors:             prometheus.NewDesc("redis_publisher_errors", "", nil, nil),
		PublishPersistentFailures: prometheus.NewDesc("redis_publisher_persistent_failures", "", nil, nil),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	// Run
	ch <- self.UpForSeconds

	// Kiosk
	ch <- self.ChainUnavailable
	ch <- self.StoreFailures
	ch <- self.SyncsUpdated
	ch <- self.SyncsSkipped
	ch <- self.SyncsOverlapped
	ch <- self.LastSyncedTimestamp
	ch <- self.AverageSyncDurationMs
	ch <- self.CurrentTier
	ch <- self.NegativeCirculatingSupply

	// Gateway
	ch <- self.PriceQueries
	ch <- self.PriceCacheHits
	ch <- self.PriceQueryFailures
	ch <- self.GrantsIssued
	ch <- self.GrantsDenied
	ch <- self.GrantsFailed
	ch <- self.AuditLogFailures
	ch <- self.AuthFailures

	// Redis publisher
	ch <- self.MessagesPublished
	ch <- self.PublishErrors
	ch <- self.PublishPersistentFailures
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	r := self.monitor.GetReport()

	// Run
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(self.monitor.upForSeconds()))

	// Kiosk
	ch <- prometheus.MustNewConstMetric(self.ChainUnavailable, prometheus.CounterValue, float64(r.Kiosk.Errors.ChainUnavailable.Load()))
	ch <- prometheus.MustNewConstMetric(self.StoreFailures, prometheus.CounterValue, float64(r.Kiosk.Errors.StoreFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.SyncsUpdated, prometheus.CounterValue, float64(r.Kiosk.State.SyncsUpdated.Load()))
	ch <- prometheus.MustNewConstMetric(self.SyncsSkipped, prometheus.CounterValue, float64(r.Kiosk.State.SyncsSkipped.Load()))
	ch <- prometheus.MustNewConstMetric(self.SyncsOverlapped, prometheus.CounterValue, float64(r.Kiosk.State.SyncsOverlapped.Load()))
	ch <- prometheus.MustNewConstMetric(self.LastSyncedTimestamp, prometheus.GaugeValue, float64(r.Kiosk.State.LastSyncedTimestamp.Load()))
	ch <- prometheus.MustNewConstMetric(self.AverageSyncDurationMs, prometheus.GaugeValue, r.Kiosk.State.AverageSyncDurationMs.Load())
	ch <- prometheus.MustNewConstMetric(self.CurrentTier, prometheus.GaugeValue, float64(r.Kiosk.State.CurrentTier.Load()))
	ch <- prometheus.MustNewConstMetric(self.NegativeCirculatingSupply, prometheus.CounterValue, float64(r.Kiosk.State.NegativeCirculatingSupply.Load()))

	// Gateway
	ch <- prometheus.MustNewConstMetric(self.PriceQueries, prometheus.CounterValue, float64(r.Gateway.State.PriceQueries.Load()))
	ch <- prometheus.MustNewConstMetric(self.PriceCacheHits, prometheus.CounterValue, float64(r.Gateway.State.PriceCacheHits.Load()))
	ch <- prometheus.MustNewConstMetric(self.PriceQueryFailures, prometheus.CounterValue, float64(r.Gateway.Errors.PriceQueryFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.GrantsIssued, prometheus.CounterValue, float64(r.Gateway.State.GrantsIssued.Load()))
	ch <- prometheus.MustNewConstMetric(self.GrantsDenied, prometheus.CounterValue, float64(r.Gateway.State.GrantsDenied.Load()))
	ch <- prometheus.MustNewConstMetric(self.GrantsFailed, prometheus.CounterValue, float64(r.Gateway.State.GrantsFailed.Load()))
	ch <- prometheus.MustNewConstMetric(self.AuditLogFailures, prometheus.CounterValue, float64(r.Gateway.Errors.AuditLogFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.AuthFailures, prometheus.CounterValue, float64(r.Gateway.Errors.AuthFailures.Load()))

	// Redis publisher
	ch <- prometheus.MustNewConstMetric(self.MessagesPublished, prometheus.CounterValue, float64(r.RedisPublisher.State.MessagesPublished.Load()))
	ch <- prometheus.MustNewConstMetric(self.PublishErrors, prometheus.CounterValue, float64(r.RedisPublisher.Errors.Publish.Load()))
	ch <- prometheus.MustNewConstMetric(self.PublishPersistentFailures, prometheus.CounterValue, float64(r.RedisPublisher.Errors.PersistentFailure.Load()))
}
