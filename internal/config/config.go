package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/nguyentranbao-ct/meritflow/internal/models"
)

const (
	BackendCloudant = "cloudant"
	BackendMongoDB  = "mongodb"
)

type Config struct {
	Log         LogConfig        `envPrefix:"LOG_"`
	Server      ServerConfig     `envPrefix:"SERVER_"`
	Store       StoreConfig      `envPrefix:"STORE_"`
	Cloudant    CloudantConfig   `envPrefix:"CLOUDANT_"`
	Mongo       MongoConfig      `envPrefix:"MONGO_"`
	Collections CollectionConfig `envPrefix:"COLLECTION_"`
	Kafka       KafkaConfig      `envPrefix:"KAFKA_"`
	Seed        SeedConfig       `envPrefix:"SEED_"`
}

type LogConfig struct {
	Level       string `env:"LEVEL" envDefault:"info"`
	Development bool   `env:"DEVELOPMENT" envDefault:"false"`
}

type ServerConfig struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	CORSPattern string `env:"CORS_PATTERN" envDefault:".*"`
}

type StoreConfig struct {
	Backend string `env:"BACKEND" envDefault:"cloudant"`
}

type CloudantConfig struct {
	URL    string `env:"URL"`
	APIKey string `env:"APIKEY"`
	IAMURL string `env:"IAM_URL" envDefault:"https://iam.cloud.ibm.com/identity/token"`
	// Timeout bounds every outbound call, including the token exchange.
	Timeout          time.Duration `env:"TIMEOUT" envDefault:"30s"`
	TokenRefreshSkew time.Duration `env:"TOKEN_REFRESH_SKEW" envDefault:"60s"`
}

type MongoConfig struct {
	URI      string        `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database string        `env:"DATABASE" envDefault:"meritflow"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

type CollectionConfig struct {
	Courses         string `env:"COURSES" envDefault:"courses"`
	WorkEvents      string `env:"WORK_EVENTS" envDefault:"work_events"`
	Kudos           string `env:"KUDOS" envDefault:"kudos"`
	GrowthRecos     string `env:"GROWTH_RECOS" envDefault:"growth_recos"`
	PulseAggregates string `env:"PULSE" envDefault:"pulse_aggregates"`
}

// For returns the collection holding entity, or "" when none is configured.
func (c CollectionConfig) For(entity models.Entity) string {
	switch entity {
	case models.EntityCourse:
		return c.Courses
	case models.EntityWorkEvent:
		return c.WorkEvents
	case models.EntityKudos:
		return c.Kudos
	case models.EntityGrowthReco:
		return c.GrowthRecos
	case models.EntityPulse:
		return c.PulseAggregates
	}
	return ""
}

type KafkaConfig struct {
	Enabled  bool     `env:"ENABLED" envDefault:"false"`
	Brokers  []string `env:"BROKERS" envSeparator:","`
	Topic    string   `env:"TOPIC" envDefault:"kudos-events"`
	ClientID string   `env:"CLIENT_ID" envDefault:"meritflow"`
}

type SeedConfig struct {
	InputDir    string `env:"INPUT_DIR" envDefault:"./Dataset"`
	OutputDir   string `env:"OUTPUT_DIR" envDefault:"./cloudant_seed_json"`
	Concurrency int    `env:"CONCURRENCY" envDefault:"4"`
	// RulesFile overrides the built-in conversion rules when set.
	RulesFile string `env:"RULES_FILE"`
}

// ConfigError reports mandatory settings that are missing or invalid.
type ConfigError struct {
	Missing []string
	Reason  string
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("config: missing %s", strings.Join(e.Missing, ", "))
	}
	return "config: " + e.Reason
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateStore checks the settings needed to reach the selected document
// store backend.
func (c *Config) ValidateStore() error {
	switch c.Store.Backend {
	case BackendCloudant:
		var missing []string
		if c.Cloudant.URL == "" {
			missing = append(missing, "CLOUDANT_URL")
		}
		if c.Cloudant.APIKey == "" {
			missing = append(missing, "CLOUDANT_APIKEY")
		}
		if len(missing) > 0 {
			return &ConfigError{Missing: missing}
		}
	case BackendMongoDB:
		if c.Mongo.URI == "" {
			return &ConfigError{Missing: []string{"MONGO_URI"}}
		}
	default:
		return &ConfigError{Reason: fmt.Sprintf("unknown STORE_BACKEND %q", c.Store.Backend)}
	}
	return nil
}

// ValidateSeed checks the settings used by the conversion and seeding commands.
func (c *Config) ValidateSeed() error {
	if c.Seed.InputDir == "" || c.Seed.OutputDir == "" {
		return &ConfigError{Missing: []string{"SEED_INPUT_DIR", "SEED_OUTPUT_DIR"}}
	}
	if c.Seed.Concurrency < 1 {
		return &ConfigError{Reason: "SEED_CONCURRENCY must be positive"}
	}
	return nil
}
