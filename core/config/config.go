package config

import (
	"fmt"
	"reflect"
	"strings"

	"netsync/core/database"
	"netsync/core/events"
	"netsync/core/logger"
	"netsync/core/remote"
	"netsync/core/server"
	"netsync/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the snapshot and report bucket.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Remote selects the system-of-record binding.
	Remote remote.Config `mapstructure:"remote"`
	// Sync holds the reconciliation switches.
	Sync Sync `mapstructure:"sync"`
	// Events holds configuration for report publishing.
	Events events.Config `mapstructure:"events"`
}

// Sync holds the reconciliation switches applied to every run.
type Sync struct {
	// DryRun previews runs without mutating the system of record.
	DryRun bool `mapstructure:"dry_run" default:"false"`
	// CreateMissing creates local records absent remotely.
	CreateMissing bool `mapstructure:"create_missing" default:"true"`
	// UpdateExisting patches remote objects whose fields differ.
	UpdateExisting bool `mapstructure:"update_existing" default:"true"`
	// Cleanup deletes remote objects without local counterpart.
	Cleanup bool `mapstructure:"cleanup" default:"false"`
	// Parallel is the number of devices reconciled at once.
	Parallel int `mapstructure:"parallel" default:"4"`
	// Profile is the path of the YAML sync profile; empty uses defaults.
	Profile string `mapstructure:"profile" default:""`
	// SnapshotPrefix is the bucket prefix of device snapshots.
	SnapshotPrefix string `mapstructure:"snapshot_prefix" default:"snapshots/"`
	// ReportPrefix is the bucket prefix of archived reports.
	ReportPrefix string `mapstructure:"report_prefix" default:"reports/"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// a missing .env is normal in production
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, Config{}, "")

	// SYNC_DRY_RUN -> sync.dry_run
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	switch c.Remote.Backend {
	case "sql", "memory":
	default:
		return fmt.Errorf("unknown remote backend %q", c.Remote.Backend)
	}
	if c.Sync.Parallel < 1 {
		return fmt.Errorf("sync.parallel must be at least 1, got %d", c.Sync.Parallel)
	}
	return nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// registering every key, even with an empty default, lets AutomaticEnv find it
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
