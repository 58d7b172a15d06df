package config

import (
	"errors"
	"testing"
	"time"

	"github.com/nguyentranbao-ct/meritflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CLOUDANT_URL", "https://acct.cloudant.example")
	t.Setenv("CLOUDANT_APIKEY", "secret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendCloudant, cfg.Store.Backend)
	assert.Equal(t, "https://iam.cloud.ibm.com/identity/token", cfg.Cloudant.IAMURL)
	assert.Equal(t, 30*time.Second, cfg.Cloudant.Timeout)
	assert.Equal(t, "work_events", cfg.Collections.WorkEvents)
	assert.Equal(t, "pulse_aggregates", cfg.Collections.PulseAggregates)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "./Dataset", cfg.Seed.InputDir)
	assert.NoError(t, cfg.ValidateStore())
	assert.NoError(t, cfg.ValidateSeed())
}

func TestValidateStore(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		missing []string
		wantErr bool
	}{
		{
			name:    "cloudant without credentials",
			cfg:     Config{Store: StoreConfig{Backend: BackendCloudant}},
			missing: []string{"CLOUDANT_URL", "CLOUDANT_APIKEY"},
			wantErr: true,
		},
		{
			name:    "cloudant without key",
			cfg:     Config{Store: StoreConfig{Backend: BackendCloudant}, Cloudant: CloudantConfig{URL: "https://x"}},
			missing: []string{"CLOUDANT_APIKEY"},
			wantErr: true,
		},
		{
			name: "mongodb",
			cfg:  Config{Store: StoreConfig{Backend: BackendMongoDB}, Mongo: MongoConfig{URI: "mongodb://db"}},
		},
		{
			name:    "unknown backend",
			cfg:     Config{Store: StoreConfig{Backend: "couch"}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateStore()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.missing, cfgErr.Missing)
		})
	}
}

func TestValidateSeed(t *testing.T) {
	cfg := Config{Seed: SeedConfig{InputDir: "in", OutputDir: "out", Concurrency: 0}}
	assert.EqualError(t, cfg.ValidateSeed(), "config: SEED_CONCURRENCY must be positive")
}

func TestCollectionFor(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "courses", cfg.Collections.For(models.EntityCourse))
	assert.Equal(t, "growth_recos", cfg.Collections.For(models.EntityGrowthReco))
	assert.Equal(t, "", cfg.Collections.For(models.Entity("payroll")))
}
