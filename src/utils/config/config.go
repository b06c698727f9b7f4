package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Prefix of every environment variable read by the configuration
const ENV_PREFIX = "KIOSK_"

// Config stores global configuration
type Config struct {
	// Is development mode on
	IsDevelopment bool

	// REST API address. API used for monitoring etc.
	RESTListenAddress string

	// Maximum time a command will be closing before stop is forced.
	StopTimeout time.Duration

	// Logging level
	LogLevel string

	Database Database
	Sui      Sui
	Kiosk    Kiosk
	Gateway  Gateway
	Redis    Redis
	Profiler Profiler
}

func setDefaults() {
	viper.SetDefault("IsDevelopment", "false")
	viper.SetDefault("RESTListenAddress", ":7777")
	viper.SetDefault("LogLevel", "DEBUG")
	viper.SetDefault("StopTimeout", "30s")

	setDatabaseDefaults()
	setSuiDefaults()
	setKioskDefaults()
	setGatewayDefaults()
	setRedisDefaults()
	setProfilerDefaults()
}

func Default() (config *Config) {
	config, _ = Load("")
	return
}

// Visits every field and registers upper snake case ENV name for it
// Works with embedded structs
func BindEnv(path []string, val reflect.Value) {
	if val.Kind() != reflect.Struct {
		key := strings.Join(path, ".")
		env := ENV_PREFIX + strcase.ToScreamingSnake(strings.Join(path, "_"))
		err := viper.BindEnv(key, env)
		if err != nil {
			panic(err)
		}
		return
	}

	// Iterates over struct fields
	for i := 0; i < val.NumField(); i++ {
		newPath := make([]string, len(path))
		copy(newPath, path)
		newPath = append(newPath, val.Type().Field(i).Name)
		BindEnv(newPath, val.Field(i))
	}
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// Puts variables from the .env file (KIOSK_ENV_FILE overrides the path) into the process environment.
// Variables already set are not overwritten.
func loadEnvFile() (err error) {
	filename := os.Getenv(ENV_PREFIX + "ENV_FILE")
	if filename == "" {
		filename = ".env"
	}

	err = godotenv.Load(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return
}

// Load configuration from file and env
func Load(filename string) (config *Config, err error) {
	err = loadEnvFile()
	if err != nil {
		return nil, err
	}

	viper.SetConfigType("json")

	setDefaults()

	BindEnv([]string{}, reflect.ValueOf(Config{}))

	// Empty filename means we use default values
	if filename != "" {
		var content []byte
		/* #nosec */
		content, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}

		err = viper.ReadConfig(bytes.NewBuffer(content))
		if err != nil {
			return nil, err
		}
	}

	config = new(Config)
	err = viper.Unmarshal(config, viper.DecodeHook(decodeHook()))
	if err != nil {
		return nil, err
	}

	return
}

// Validate checks values that have no sensible default
func (self *Config) Validate() error {
	if self.Kiosk.MarketplaceId == "" {
		return errors.New("kiosk marketplace id is not set")
	}
	switch self.Database.Driver {
	case DriverPostgres, DriverSqlite:
	default:
		return errors.New("unsupported database driver: " + self.Database.Driver)
	}
	return nil
}
