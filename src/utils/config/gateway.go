package config

import (
	"time"

	"github.com/spf13/viper"
)

type Gateway struct {
	// REST API address. Serves the kiosk price and access grants
	RESTListenAddress string

	// Maximum time a request may take
	ServerRequestTimeout time.Duration

	// HS256 secret of the session tokens. Empty disables session checks and the address is taken from the request body
	JwtSecret string

	// Claim holding the wallet address. Subject is used when the claim is missing
	JwtAddressClaim string
}

func setGatewayDefaults() {
	viper.SetDefault("Gateway.RESTListenAddress", "0.0.0.0:4000")
	viper.SetDefault("Gateway.ServerRequestTimeout", "30s")
	viper.SetDefault("Gateway.JwtSecret", "")
	viper.SetDefault("Gateway.JwtAddressClaim", "address")
}
