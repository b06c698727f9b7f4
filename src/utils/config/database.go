package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

type Database struct {
	// postgres or sqlite
	Driver string

	Port     uint16
	Host     string
	User     string
	Password string

	// Database name. For sqlite it's the DSN passed to the driver, e.g. file:kiosk.db
	Name        string
	SslMode     string
	PingTimeout time.Duration

	// TLS, either paths or PEM contents
	ClientKey      string
	ClientCert     string
	CaCert         string
	ClientKeyPath  string
	ClientCertPath string
	CaCertPath     string

	// Connection pool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	// Migrations are run with this user. Empty disables migrations
	MigrationUser     string
	MigrationPassword string

	// Queries slower than this are logged
	SlowThreshold time.Duration
}

func setDatabaseDefaults() {
	viper.SetDefault("Database.Driver", DriverPostgres)
	viper.SetDefault("Database.Port", "5432")
	viper.SetDefault("Database.Host", "127.0.0.1")
	viper.SetDefault("Database.User", "postgres")
	viper.SetDefault("Database.Password", "postgres")
	viper.SetDefault("Database.Name", "sonar")
	viper.SetDefault("Database.SslMode", "disable")
	viper.SetDefault("Database.PingTimeout", "15s")
	viper.SetDefault("Database.MaxOpenConns", "10")
	viper.SetDefault("Database.MaxIdleConns", "2")
	viper.SetDefault("Database.ConnMaxIdleTime", "10m")
	viper.SetDefault("Database.ConnMaxLifetime", "1h")
	viper.SetDefault("Database.MigrationUser", "postgres")
	viper.SetDefault("Database.MigrationPassword", "postgres")
	viper.SetDefault("Database.SlowThreshold", "500ms")
}
