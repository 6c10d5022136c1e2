package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	GeoFile         string `mapstructure:"GEO_FILE" validate:"required"`
	MongoURL        string `mapstructure:"MONGO_URL" validate:"required"`
	MongoDatabase   string `mapstructure:"MONGO_DATABASE" validate:"required"`
	MongoCollection string `mapstructure:"MONGO_COLLECTION" validate:"required"`
	MongoFilter     string `mapstructure:"MONGO_FILTER"`

	Workers       int           `mapstructure:"WORKERS" validate:"min=1,max=256"`
	RecordTimeout time.Duration `mapstructure:"RECORD_TIMEOUT" validate:"min=0"`
	UpdateRetries int           `mapstructure:"UPDATE_RETRIES" validate:"min=0,max=20"`

	StrictMultiGeometry bool `mapstructure:"STRICT_MULTIGEOMETRY"`
	Geodesic            bool `mapstructure:"GEODESIC"`
	LinearScan          bool `mapstructure:"LINEAR_SCAN"`
	FailOnImportErrors  bool `mapstructure:"FAIL_ON_IMPORT_ERRORS"`

	RedisUrl string        `mapstructure:"REDIS_URL"`
	CacheTTL time.Duration `mapstructure:"CACHE_TTL" validate:"min=0"`
	DBUrl    string        `mapstructure:"DB_URL"`
	Port     string        `mapstructure:"PORT"`

	EnrichInterval time.Duration `mapstructure:"ENRICH_INTERVAL" validate:"min=0"`
	LogFile        string        `mapstructure:"LOG_FILE"`
}

func LoadConfig() (c Config, err error) {
	// Get environment type from ENV variable or use development as default
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	return load(viper.New(), fmt.Sprintf(".env.%s", env), ".")
}

func load(v *viper.Viper, name, path string) (c Config, err error) {
	setDefaults(v)

	v.SetConfigName(name)
	v.SetConfigType("env")
	v.AddConfigPath(path)

	// Environment variables take precedence over config file
	v.AutomaticEnv()

	// Continue even if file is not found
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	if err := validator.New().Struct(c); err != nil {
		return c, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GEO_FILE", "")
	v.SetDefault("MONGO_URL", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "")
	v.SetDefault("MONGO_COLLECTION", "")
	v.SetDefault("MONGO_FILTER", "")
	v.SetDefault("WORKERS", 1)
	v.SetDefault("RECORD_TIMEOUT", DefaultRecordTimeout)
	v.SetDefault("UPDATE_RETRIES", 3)
	v.SetDefault("STRICT_MULTIGEOMETRY", false)
	v.SetDefault("GEODESIC", false)
	v.SetDefault("LINEAR_SCAN", false)
	v.SetDefault("FAIL_ON_IMPORT_ERRORS", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", DefaultCacheTTL)
	v.SetDefault("DB_URL", "")
	v.SetDefault("PORT", "")
	v.SetDefault("ENRICH_INTERVAL", time.Duration(0))
	v.SetDefault("LOG_FILE", "geoenrich.log")
}
