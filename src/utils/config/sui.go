package config

import (
	"time"

	"github.com/spf13/viper"
)

type Sui struct {
	// Full node JSON-RPC endpoint
	RpcUrl string

	// Time limit for requests. The timeout includes connection time, any
	// redirects, and reading the response body
	RequestTimeout time.Duration

	// Maximum amount of time a dial will wait for a connect to complete.
	DialerTimeout time.Duration

	// Interval between keep-alive probes for an active network connection.
	DialerKeepAlive time.Duration

	// Maximum amount of time an idle (keep-alive) connection will remain idle before closing itself.
	IdleConnTimeout time.Duration

	// Maximum amount of time waiting to wait for a TLS handshake
	TLSHandshakeTimeout time.Duration

	// Time in which max num of requests is enforced
	LimiterInterval time.Duration

	// Max num requests to the node per interval
	LimiterBurstSize int

	// Max time a single query is retried, 0 is no limit
	BackoffMaxElapsedTime time.Duration

	// Max time between query retries
	BackoffMaxInterval time.Duration
}

func setSuiDefaults() {
	viper.SetDefault("Sui.RpcUrl", "https://fullnode.testnet.sui.io:443")
	viper.SetDefault("Sui.RequestTimeout", "10s")
	viper.SetDefault("Sui.DialerTimeout", "10s")
	viper.SetDefault("Sui.DialerKeepAlive", "15s")
	viper.SetDefault("Sui.IdleConnTimeout", "31s")
	viper.SetDefault("Sui.TLSHandshakeTimeout", "10s")
	viper.SetDefault("Sui.LimiterInterval", "100ms")
	viper.SetDefault("Sui.LimiterBurstSize", "5")
	viper.SetDefault("Sui.BackoffMaxElapsedTime", "20s")
	viper.SetDefault("Sui.BackoffMaxInterval", "5s")
}
