// Package config loads catgraph settings from a TOML file and the
// environment.
//
// The file lives at $XDG_CONFIG_HOME/catgraph/config.toml, falling back to
// ~/.config/catgraph/config.toml. Every field is optional:
//
//	[store]
//	driver = "sqlite"          # or "mongo"
//	path = "/var/lib/catgraph/catgraph.db"
//	mongo_uri = "mongodb://localhost:27017"
//	mongo_database = "catgraph"
//
//	[cache]
//	backend = "file"           # "redis" or "none"
//	dir = "/tmp/catgraph-cache"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[analysis]
//	workers = 0                # 0 uses every CPU
//	sample_size = 5
//
//	[server]
//	addr = ":8080"
//
// Environment variables override the file: CATGRAPH_DB (store path),
// CATGRAPH_STORE (driver), CATGRAPH_MONGO_URI, CATGRAPH_REDIS_ADDR and
// CATGRAPH_ADDR.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	cgerrors "github.com/matzehuels/catgraph/pkg/errors"
)

const appName = "catgraph"

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Environment variables read by [Load].
const (
	EnvDB        = "CATGRAPH_DB"
	EnvStore     = "CATGRAPH_STORE"
	EnvMongoURI  = "CATGRAPH_MONGO_URI"
	EnvRedisAddr = "CATGRAPH_REDIS_ADDR"
	EnvAddr      = "CATGRAPH_ADDR"
)

// Config is the full set of settings.
type Config struct {
	Store    StoreConfig    `toml:"store"`
	Cache    CacheConfig    `toml:"cache"`
	Analysis AnalysisConfig `toml:"analysis"`
	Server   ServerConfig   `toml:"server"`
}

// StoreConfig selects and addresses the category store.
type StoreConfig struct {
	Driver        string `toml:"driver" validate:"oneof=sqlite mongo"`
	Path          string `toml:"path" validate:"required_if=Driver sqlite"`
	MongoURI      string `toml:"mongo_uri" validate:"required_if=Driver mongo"`
	MongoDatabase string `toml:"mongo_database" validate:"required_if=Driver mongo"`
}

// CacheConfig selects the analysis report cache.
type CacheConfig struct {
	Backend   string   `toml:"backend" validate:"oneof=file redis none"`
	Dir       string   `toml:"dir" validate:"required_if=Backend file"`
	RedisAddr string   `toml:"redis_addr" validate:"required_if=Backend redis"`
	TTL       Duration `toml:"ttl"`
}

// AnalysisConfig holds defaults for analysis runs.
type AnalysisConfig struct {
	Workers    int `toml:"workers" validate:"min=0"`
	SampleSize int `toml:"sample_size" validate:"min=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr" validate:"required"`
}

// Duration is a time.Duration written as a string such as "90m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:        DriverSQLite,
			Path:          filepath.Join(dataDir(), appName+".db"),
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: appName,
		},
		Cache: CacheConfig{
			Backend:   CacheFile,
			Dir:       CacheDir(),
			RedisAddr: "localhost:6379",
			TTL:       Duration{24 * time.Hour},
		},
		Analysis: AnalysisConfig{SampleSize: 5},
		Server:   ServerConfig{Addr: ":8080"},
	}
}

// Load reads settings from path, or from [DefaultPath] when path is empty,
// and applies environment overrides.
//
// A missing file at the default location yields the defaults. A missing file
// named explicitly is FILE_NOT_FOUND. Malformed TOML, unknown keys and out of
// range values are INVALID_INPUT.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	switch {
	case os.IsNotExist(err):
		if explicit {
			return nil, cgerrors.Wrap(cgerrors.ErrCodeFileNotFound, err, "config %s", path)
		}
		cfg = Default()
	case err != nil:
		return nil, cgerrors.Wrap(cgerrors.ErrCodeInvalidInput, err, "config %s", path)
	default:
		if keys := md.Undecoded(); len(keys) > 0 {
			names := make([]string, len(keys))
			for i, k := range keys {
				names[i] = k.String()
			}
			return nil, cgerrors.New(cgerrors.ErrCodeInvalidInput, "config %s: unknown keys %s", path, strings.Join(names, ", "))
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Store.Path, EnvDB)
	set(&c.Store.Driver, EnvStore)
	set(&c.Store.MongoURI, EnvMongoURI)
	set(&c.Cache.RedisAddr, EnvRedisAddr)
	set(&c.Server.Addr, EnvAddr)
}

// Validate checks enumerations and ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return cgerrors.New(cgerrors.ErrCodeInvalidInput, "%s", describe(fields[0]))
		}
		return cgerrors.Wrap(cgerrors.ErrCodeInvalidInput, err, "validate config")
	}
	if c.Cache.TTL.Duration < 0 {
		return cgerrors.New(cgerrors.ErrCodeInvalidInput, "cache.ttl must not be negative")
	}
	return nil
}

// validate names fields by their TOML keys so messages match the file.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// describe renders a field error as "store.driver must be one of ...".
func describe(fe validator.FieldError) string {
	_, key, _ := strings.Cut(fe.Namespace(), ".")
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of %s, got %q", key, strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "required":
		return key + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", key, strings.ToLower(strings.Replace(fe.Param(), " ", " is ", 1)))
	case "min":
		return fmt.Sprintf("%s must be at least %s, got %v", key, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s is invalid", key)
	}
}

// Write encodes c as TOML to path, creating parent directories.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}

// =============================================================================
// Paths
// =============================================================================

// DefaultPath returns the config file location using XDG standard
// (~/.config/catgraph/config.toml).
func DefaultPath() string {
	return filepath.Join(xdg("XDG_CONFIG_HOME", ".config"), appName, "config.toml")
}

// CacheDir returns the cache directory using XDG standard (~/.cache/catgraph/).
func CacheDir() string {
	return filepath.Join(xdg("XDG_CACHE_HOME", ".cache"), appName)
}

func dataDir() string {
	return filepath.Join(xdg("XDG_DATA_HOME", filepath.Join(".local", "share")), appName)
}

func xdg(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(home, fallback)
}
