// Package config loads the process configuration from a YAML file and
// MENUSYNC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Store    StoreConfig    `mapstructure:"store"`
	Table    TableConfig    `mapstructure:"table"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Deferred DeferredConfig `mapstructure:"deferred"`
}

type LogConfig struct {
	Backend string `mapstructure:"backend"` // slog | zap | logrus
	Level   string `mapstructure:"level"`
}

// CacheConfig selects the cache provider. ristretto and bigcache cannot hold
// entries without expiry, so they are paired with Durable through a split
// provider that keeps the discount overlay there.
type CacheConfig struct {
	Provider   string        `mapstructure:"provider"` // redis | ttlcache | ristretto | bigcache
	Durable    string        `mapstructure:"durable"`  // redis | ttlcache
	Codec      string        `mapstructure:"codec"`    // json | msgpack | cbor
	ViewTTL    time.Duration `mapstructure:"view_ttl"`
	MaxPayload int           `mapstructure:"max_payload"`
	GenStore   string        `mapstructure:"gen_store"` // local | redis
	Namespace  string        `mapstructure:"namespace"`

	Redis     RedisConfig     `mapstructure:"redis"`
	TTLCache  TTLCacheConfig  `mapstructure:"ttlcache"`
	Ristretto RistrettoConfig `mapstructure:"ristretto"`
	Bigcache  BigcacheConfig  `mapstructure:"bigcache"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type TTLCacheConfig struct {
	Capacity uint64 `mapstructure:"capacity"`
}

type RistrettoConfig struct {
	NumCounters int64 `mapstructure:"num_counters"`
	MaxCost     int64 `mapstructure:"max_cost"`
	BufferItems int64 `mapstructure:"buffer_items"`
}

type BigcacheConfig struct {
	LifeWindow   time.Duration `mapstructure:"life_window"`
	CleanWindow  time.Duration `mapstructure:"clean_window"`
	MaxEntrySize int           `mapstructure:"max_entry_size"`
	HardMaxMB    int           `mapstructure:"hard_max_mb"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // memory | postgres
	DSN    string `mapstructure:"dsn"`
}

type TableConfig struct {
	Source          string `mapstructure:"source"` // csv | sheets
	Path            string `mapstructure:"path"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	Range           string `mapstructure:"range"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type SyncConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Lock     string        `mapstructure:"lock"` // local | redis
	LockKey  string        `mapstructure:"lock_key"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

type DeferredConfig struct {
	Workers     int           `mapstructure:"workers"`
	Queue       int           `mapstructure:"queue"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{Backend: "slog", Level: "info"},
		Cache: CacheConfig{
			Provider:  "ttlcache",
			Durable:   "ttlcache",
			Codec:     "json",
			ViewTTL:   100 * time.Second,
			GenStore:  "local",
			Namespace: "menusync",
			Redis:     RedisConfig{Addr: "localhost:6379"},
			Ristretto: RistrettoConfig{NumCounters: 1e5, MaxCost: 64 << 20, BufferItems: 64},
			Bigcache:  BigcacheConfig{LifeWindow: 100 * time.Second, MaxEntrySize: 4096},
		},
		Store: StoreConfig{Driver: "memory"},
		Table: TableConfig{Source: "csv", Path: "menu.csv", Range: "A1:G100"},
		Sync:  SyncConfig{Interval: 15 * time.Second, Lock: "local", LockTTL: 5 * time.Minute},
		Deferred: DeferredConfig{
			Workers:     2,
			Queue:       1024,
			MaxAttempts: 5,
			Backoff:     100 * time.Millisecond,
		},
	}
}

// Load reads configuration from path (or ./config.yaml when path is empty)
// and environment variables. Environment variables use the prefix "MENUSYNC"
// and the dot in keys becomes an underscore: "cache.redis.addr" is read
// from MENUSYNC_CACHE_REDIS_ADDR. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("MENUSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if err := oneOf("log.backend", c.Log.Backend, "slog", "zap", "logrus"); err != nil {
		return err
	}
	if err := oneOf("cache.provider", c.Cache.Provider, "redis", "ttlcache", "ristretto", "bigcache"); err != nil {
		return err
	}
	if err := oneOf("cache.durable", c.Cache.Durable, "redis", "ttlcache"); err != nil {
		return err
	}
	if err := oneOf("cache.codec", c.Cache.Codec, "json", "msgpack", "cbor"); err != nil {
		return err
	}
	if err := oneOf("cache.gen_store", c.Cache.GenStore, "local", "redis"); err != nil {
		return err
	}
	if err := oneOf("store.driver", c.Store.Driver, "memory", "postgres"); err != nil {
		return err
	}
	if c.Store.Driver == "postgres" && c.Store.DSN == "" {
		return errors.New("config: store.dsn is required for postgres")
	}
	if err := oneOf("table.source", c.Table.Source, "csv", "sheets"); err != nil {
		return err
	}
	if c.Table.Source == "sheets" && c.Table.SpreadsheetID == "" {
		return errors.New("config: table.spreadsheet_id is required for sheets")
	}
	if err := oneOf("sync.lock", c.Sync.Lock, "local", "redis"); err != nil {
		return err
	}
	if c.Sync.Interval <= 0 {
		return errors.New("config: sync.interval must be positive")
	}
	if c.Cache.ViewTTL <= 0 {
		return errors.New("config: cache.view_ttl must be positive")
	}
	return nil
}

// UsesRedis reports whether any component needs a Redis client.
func (c *Config) UsesRedis() bool {
	return c.Cache.Provider == "redis" || c.Cache.Durable == "redis" ||
		c.Cache.GenStore == "redis" || c.Sync.Lock == "redis"
}

func oneOf(key, val string, allowed ...string) error {
	for _, a := range allowed {
		if val == a {
			return nil
		}
	}
	return fmt.Errorf("config: %s must be one of %s, got %q", key, strings.Join(allowed, "|"), val)
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string(nil), parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
