package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

type ConfigTestSuite struct {
	suite.Suite
}

func (s *ConfigTestSuite) SetupTest() {
	// Viper keeps the state of the previously read file
	viper.Reset()
}

func (s *ConfigTestSuite) TestDefaults() {
	config := Default()
	require.NotNil(s.T(), config)
	require.Equal(s.T(), DriverPostgres, config.Database.Driver)
	require.Equal(s.T(), "@every 30s", config.Kiosk.SyncSchedule)
	require.Equal(s.T(), 5*time.Second, config.Kiosk.PriceCacheTTL)
	require.Equal(s.T(), "address", config.Gateway.JwtAddressClaim)
	require.False(s.T(), config.Redis.Enabled)
}

func (s *ConfigTestSuite) TestEnvOverride() {
	s.T().Setenv("KIOSK_KIOSK_MARKETPLACE_ID", "0xmarket")
	s.T().Setenv("KIOSK_KIOSK_AGGREGATOR_URL", "https://aggregator.example")
	s.T().Setenv("KIOSK_SUI_REQUEST_TIMEOUT", "3s")

	config, err := Load("")
	require.Nil(s.T(), err)
	require.Equal(s.T(), "0xmarket", config.Kiosk.MarketplaceId)
	require.Equal(s.T(), "https://aggregator.example", config.Kiosk.AggregatorUrl)
	require.Equal(s.T(), 3*time.Second, config.Sui.RequestTimeout)
	require.Nil(s.T(), config.Validate())
}

func (s *ConfigTestSuite) TestEnvFile() {
	dir := s.T().TempDir()
	filename := filepath.Join(dir, "test.env")
	err := os.WriteFile(filename, []byte("KIOSK_KIOSK_MARKETPLACE_ID=0xfromfile\n"), 0o600)
	require.Nil(s.T(), err)

	s.T().Setenv("KIOSK_ENV_FILE", filename)
	defer os.Unsetenv("KIOSK_KIOSK_MARKETPLACE_ID")

	config, err := Load("")
	require.Nil(s.T(), err)
	require.Equal(s.T(), "0xfromfile", config.Kiosk.MarketplaceId)
}

func (s *ConfigTestSuite) TestJsonFile() {
	dir := s.T().TempDir()
	filename := filepath.Join(dir, "config.json")
	err := os.WriteFile(filename, []byte(`{"Kiosk": {"MarketplaceId": "0xjson", "SyncSchedule": "@every 1m"}, "Database": {"Driver": "sqlite"}}`), 0o600)
	require.Nil(s.T(), err)

	config, err := Load(filename)
	require.Nil(s.T(), err)
	require.Equal(s.T(), "0xjson", config.Kiosk.MarketplaceId)
	require.Equal(s.T(), "@every 1m", config.Kiosk.SyncSchedule)
	require.Equal(s.T(), DriverSqlite, config.Database.Driver)
}

func (s *ConfigTestSuite) TestValidate() {
	config := Default()
	config.Kiosk.MarketplaceId = ""
	require.NotNil(s.T(), config.Validate())

	config.Kiosk.MarketplaceId = "0xmarket"
	config.Database.Driver = "mysql"
	require.NotNil(s.T(), config.Validate())
}
