package report

import (
	"go.uber.org/atomic"
)

type GatewayErrors struct {
	PriceQueryFailures atomic.Uint64 `json:"price_query_failures"`
	AuditLogFailures   atomic.Uint64 `json:"audit_log_failures"`
	AuthFailures       atomic.Uint64 `json:"auth_failures"`
}

type GatewayState struct {
	PriceQueries   atomic.Uint64 `json:"price_queries"`
	PriceCacheHits atomic.Uint64 `json:"price_cache_hits"`

	GrantsIssued atomic.Uint64 `json:"grants_issued"`
	GrantsDenied atomic.Uint64 `json:"grants_denied"`
	GrantsFailed atomic.Uint64 `json:"grants_failed"`
}

type GatewayReport struct {
	State  GatewayState  `json:"state"`
	Errors GatewayErrors `json:"errors"`
}
