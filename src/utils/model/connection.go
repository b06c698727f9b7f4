package model

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/sonar-protocol/kiosk-syncer/src/utils/build_info"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/config"
	l "github.com/sonar-protocol/kiosk-syncer/src/utils/logger"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/model/sql_migrations"

	"github.com/glebarez/sqlite"
	migrate "github.com/rubenv/sql-migrate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

func Connect(ctx context.Context, dbConfig *config.Database, username, password, applicationName string) (self *gorm.DB, err error) {
	log := l.NewSublogger("db")

	logger := logger.New(log,
		logger.Config{
			SlowThreshold:             dbConfig.SlowThreshold,
			LogLevel:                  logger.Error,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	switch dbConfig.Driver {
	case config.DriverSqlite:
		dialector = sqlite.Open(dbConfig.Name)
	case config.DriverPostgres:
		var dsn string
		dsn, err = postgresDsn(dbConfig, username, password, applicationName)
		if err != nil {
			return
		}
		dialector = postgres.Open(dsn)
	default:
		err = fmt.Errorf("unsupported database driver: %s", dbConfig.Driver)
		return
	}

	self, err = gorm.Open(dialector, &gorm.Config{Logger: logger})
	if err != nil {
		return
	}

	err = self.Use(tracing.NewPlugin(tracing.WithoutMetrics()))
	if err != nil {
		return
	}

	db, err := self.DB()
	if err != nil {
		return
	}

	if dbConfig.Driver == config.DriverSqlite {
		// Single writer, also keeps in-memory databases alive
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(dbConfig.MaxOpenConns)
		db.SetMaxIdleConns(dbConfig.MaxIdleConns)
		db.SetConnMaxIdleTime(dbConfig.ConnMaxIdleTime)
		db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)
	}

	err = ping(ctx, dbConfig, self)
	if err != nil {
		return
	}

	return
}

func postgresDsn(dbConfig *config.Database, username, password, applicationName string) (dsn string, err error) {
	dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=%s/sonar/%s",
		dbConfig.Host,
		dbConfig.Port,
		username,
		password,
		dbConfig.Name,
		dbConfig.SslMode,
		applicationName,
		build_info.Version,
	)

	if dbConfig.CaCertPath != "" && dbConfig.ClientKeyPath != "" && dbConfig.ClientCertPath != "" {
		dsn += fmt.Sprintf(" sslcert=%s sslkey=%s sslrootcert=%s", dbConfig.ClientCertPath, dbConfig.ClientKeyPath, dbConfig.CaCertPath)
		return
	}

	if dbConfig.ClientKey == "" || dbConfig.ClientCert == "" || dbConfig.CaCert == "" {
		return
	}

	// Certificates passed as variables are written to files, the driver accepts only paths.
	// Files stay for the lifetime of the process, connections are reopened by the pool.
	var keyFile, certFile, caFile string
	keyFile, err = writeTemp("key.pem", dbConfig.ClientKey)
	if err != nil {
		return
	}
	certFile, err = writeTemp("cert.pem", dbConfig.ClientCert)
	if err != nil {
		return
	}
	caFile, err = writeTemp("ca.pem", dbConfig.CaCert)
	if err != nil {
		return
	}

	dsn += fmt.Sprintf(" sslcert=%s sslkey=%s sslrootcert=%s", certFile, keyFile, caFile)
	return
}

func writeTemp(pattern, content string) (name string, err error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return
	}
	defer f.Close()

	err = f.Chmod(0o600)
	if err != nil {
		return
	}

	_, err = f.WriteString(content)
	if err != nil {
		return
	}
	return f.Name(), nil
}

func NewConnection(ctx context.Context, config *config.Config, applicationName string) (self *gorm.DB, err error) {
	err = Migrate(ctx, config)
	if err != nil {
		return
	}

	self, err = Connect(ctx, &config.Database, config.Database.User, config.Database.Password, applicationName)
	if err != nil {
		return
	}

	err = autoMigrate(config, self)
	if err != nil {
		return
	}

	return
}

// Sqlite databases have no migration files, schema comes from the models
func autoMigrate(c *config.Config, db *gorm.DB) (err error) {
	if c.Database.Driver != config.DriverSqlite {
		return
	}

	log := l.NewSublogger("db-migrate")
	for _, model := range MigrateModels {
		err = db.AutoMigrate(model)
		if err != nil {
			return
		}
	}
	log.WithField("num", len(MigrateModels)).Debug("Auto migrated models")
	return
}

func Migrate(ctx context.Context, c *config.Config) (err error) {
	log := l.NewSublogger("db-migrate")

	if c.Database.Driver != config.DriverPostgres {
		return
	}

	if c.Database.MigrationUser == "" || c.Database.MigrationPassword == "" {
		log.Info("Migration user not set, skipping migrations")
		return
	}

	// Run migrations
	migrations := &migrate.HttpFileSystemMigrationSource{
		FileSystem: http.FS(sql_migrations.FS),
	}

	// Use special migration user
	self, err := Connect(ctx, &c.Database, c.Database.MigrationUser, c.Database.MigrationPassword, "migration")
	if err != nil {
		return
	}

	db, err := self.DB()
	if err != nil {
		return
	}
	defer db.Close()

	n, err := migrate.Exec(db, "postgres", migrations, migrate.Up)
	if err != nil {
		return
	}

	log.WithField("num", n).Info("Applied migrations")

	c.Database.MigrationUser = ""
	c.Database.MigrationPassword = ""

	return
}

func ping(ctx context.Context, dbConfig *config.Database, db *gorm.DB) (err error) {
	if dbConfig.PingTimeout < 0 {
		// Ping disabled
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbConfig.PingTimeout)
	defer cancel()

	err = sqlDB.PingContext(dbCtx)
	if err != nil {
		return
	}
	return
}
