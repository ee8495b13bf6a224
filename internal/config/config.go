package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/socstudy-cli/internal/export"
	"github.com/KaramelBytes/socstudy-cli/internal/logging"
	"github.com/KaramelBytes/socstudy-cli/internal/publish"
	"github.com/KaramelBytes/socstudy-cli/internal/source"
	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

// AppDir is the per-user directory under $HOME.
const AppDir = ".socstudy"

// Global configuration structure.
type Global struct {
	WorkspacesDir string `mapstructure:"workspaces_dir" yaml:"workspaces_dir"`

	// Study database
	SQLitePath     string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	PostgresDSN    string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
	PostgresDriver string `mapstructure:"postgres_driver" yaml:"postgres_driver"`

	// Measurement filter
	MeasurementActivities []string `mapstructure:"measurement_activities" yaml:"measurement_activities"`
	MeasurementUnits      string   `mapstructure:"measurement_units" yaml:"measurement_units"`

	ControlPolicy string   `mapstructure:"control_policy" yaml:"control_policy"`
	Palette       []string `mapstructure:"palette" yaml:"palette"`

	ExportFormat string `mapstructure:"export_format" yaml:"export_format"`
	ExportDir    string `mapstructure:"export_dir" yaml:"export_dir"`

	// Artifact publishing
	PublishDriver string `mapstructure:"publish_driver" yaml:"publish_driver"`
	PublishFSRoot string `mapstructure:"publish_fs_root" yaml:"publish_fs_root"`
	S3Bucket      string `mapstructure:"s3_bucket" yaml:"s3_bucket"`
	S3Region      string `mapstructure:"s3_region" yaml:"s3_region"`
	S3Endpoint    string `mapstructure:"s3_endpoint" yaml:"s3_endpoint"`
	S3PathStyle   bool   `mapstructure:"s3_path_style" yaml:"s3_path_style"`

	ServeAddr string `mapstructure:"serve_addr" yaml:"serve_addr"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
}

func appDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, AppDir), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.socstudy/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := appDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from .env, file, env and defaults.
// Precedence: env (including .env) > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// .env never overrides variables already set in the process
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SOCSTUDY")
	v.AutomaticEnv()

	v.SetDefault("workspaces_dir", "")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("postgres_driver", source.DriverPgx)
	v.SetDefault("measurement_activities", source.DefaultFilter().Activities)
	v.SetDefault("measurement_units", source.DefaultFilter().Units)
	v.SetDefault("control_policy", study.ControlFirstMatch.String())
	v.SetDefault("palette", []string{})
	v.SetDefault("export_format", export.FormatCSV)
	v.SetDefault("export_dir", "exports")
	v.SetDefault("publish_driver", "")
	v.SetDefault("publish_fs_root", "")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_path_style", false)
	v.SetDefault("serve_addr", ":8080")
	v.SetDefault("log_level", "warn")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := appDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.WorkspacesDir == "" {
		dir, err := appDir()
		if err != nil {
			return nil, err
		}
		c.WorkspacesDir = filepath.Join(dir, "studies")
	}
	return &c, nil
}

// Filter returns the measurement filter.
func (c *Global) Filter() source.Filter {
	return source.Filter{Activities: c.MeasurementActivities, Units: c.MeasurementUnits}
}

// Policy parses control_policy.
func (c *Global) Policy() (study.ControlPolicy, error) {
	return study.ParseControlPolicy(c.ControlPolicy)
}

// Publish returns the publish store config. ok is false when publishing is
// disabled.
func (c *Global) Publish() (cfg publish.Config, ok bool) {
	if c.PublishDriver == "" || c.PublishDriver == "none" {
		return publish.Config{}, false
	}
	return publish.Config{
		Driver: publish.Driver(c.PublishDriver),
		FSRoot: c.PublishFSRoot,
		S3: publish.S3Config{
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
			Endpoint:  c.S3Endpoint,
			PathStyle: c.S3PathStyle,
		},
	}, true
}

// setters maps config keys to validated assignments.
var setters = map[string]func(c *Global, val string) error{
	"workspaces_dir": func(c *Global, v string) error { c.WorkspacesDir = v; return nil },
	"sqlite_path":    func(c *Global, v string) error { c.SQLitePath = v; return nil },
	"postgres_dsn":   func(c *Global, v string) error { c.PostgresDSN = v; return nil },
	"postgres_driver": func(c *Global, v string) error {
		switch v {
		case source.DriverPgx, source.DriverPostgres:
			c.PostgresDriver = v
			return nil
		}
		return fmt.Errorf("invalid postgres_driver: %s (use pgx or postgres)", v)
	},
	"measurement_activities": func(c *Global, v string) error { c.MeasurementActivities = splitList(v); return nil },
	"measurement_units":      func(c *Global, v string) error { c.MeasurementUnits = v; return nil },
	"control_policy": func(c *Global, v string) error {
		p, err := study.ParseControlPolicy(v)
		if err != nil {
			return err
		}
		c.ControlPolicy = p.String()
		return nil
	},
	"palette": func(c *Global, v string) error { c.Palette = splitList(v); return nil },
	"export_format": func(c *Global, v string) error {
		f, err := export.ParseFormat(v)
		if err != nil {
			return err
		}
		c.ExportFormat = f
		return nil
	},
	"export_dir": func(c *Global, v string) error { c.ExportDir = v; return nil },
	"publish_driver": func(c *Global, v string) error {
		switch v {
		case "", "none", string(publish.DriverFS), string(publish.DriverMemory), string(publish.DriverS3):
			c.PublishDriver = v
			return nil
		}
		return fmt.Errorf("invalid publish_driver: %s (use none, fs, memory or s3)", v)
	},
	"publish_fs_root": func(c *Global, v string) error { c.PublishFSRoot = v; return nil },
	"s3_bucket":       func(c *Global, v string) error { c.S3Bucket = v; return nil },
	"s3_region":       func(c *Global, v string) error { c.S3Region = v; return nil },
	"s3_endpoint":     func(c *Global, v string) error { c.S3Endpoint = v; return nil },
	"s3_path_style": func(c *Global, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid bool for s3_path_style: %v", v)
		}
		c.S3PathStyle = b
		return nil
	},
	"serve_addr": func(c *Global, v string) error { c.ServeAddr = v; return nil },
	"log_level": func(c *Global, v string) error {
		if _, err := logging.ParseLevel(v); err != nil {
			return err
		}
		c.LogLevel = v
		return nil
	},
}

// Set assigns one key from its string form.
func (c *Global) Set(key, val string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown key: %s", key)
	}
	return set(c, val)
}

// Keys lists every settable key in order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
