package config

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr      string
		PublicURL string
	}
	Debrid struct {
		Token     string
		BaseURL   string
		Timeout   time.Duration
		RateLimit float64
		Burst     int
	}
	WebDAV struct {
		Username     string
		Password     string
		PasswordHash string
		Mode         string
	}
	Ingest struct {
		SettleDelay time.Duration
	}
	Listing struct {
		RecentLimit int
		MaxEntries  int
		CacheWindow time.Duration
	}
	Redirect struct {
		Freshness time.Duration
	}
	Cache struct {
		Backend string
	}
	Database struct {
		Path string
	}
	Redis struct {
		Addr      string
		Password  string
		DB        int
		KeyPrefix string
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
	Log struct {
		Level      string
		File       string
		MaxSize    int
		MaxBackups int
		MaxAge     int
		Compress   bool
	}
}

// Cache backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("CASTMAGNET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.publicurl", "http://localhost:8080")
	v.SetDefault("debrid.token", "")
	v.SetDefault("debrid.baseurl", "https://api.real-debrid.com/rest/1.0")
	v.SetDefault("debrid.timeout", 30*time.Second)
	v.SetDefault("debrid.ratelimit", 4.0)
	v.SetDefault("debrid.burst", 4)
	v.SetDefault("webdav.username", "admin")
	v.SetDefault("webdav.password", "")
	v.SetDefault("webdav.passwordhash", "")
	v.SetDefault("webdav.mode", "redirect")
	v.SetDefault("ingest.settledelay", 2*time.Second)
	v.SetDefault("listing.recentlimit", 20)
	v.SetDefault("listing.maxentries", 5)
	v.SetDefault("listing.cachewindow", 7*24*time.Hour)
	v.SetDefault("redirect.freshness", 48*time.Hour)
	v.SetDefault("cache.backend", BackendSQLite)
	v.SetDefault("database.path", "data/castmagnet.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.keyprefix", "castmagnet:link:")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "castmagnet/links")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.maxsize", 100)
	v.SetDefault("log.maxbackups", 3)
	v.SetDefault("log.maxage", 28)
	v.SetDefault("log.compress", true)
}

// Validate reports the first missing or inconsistent setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Debrid.Token) == "" {
		return errors.New("debrid token is required (CASTMAGNET_DEBRID_TOKEN)")
	}
	if c.WebDAV.Password == "" && c.WebDAV.PasswordHash == "" {
		return errors.New("webdav password or password hash is required")
	}

	switch c.WebDAV.Mode {
	case "redirect":
		// the redirect URL embeds the shared credentials
		if c.WebDAV.Password == "" {
			return errors.New("webdav mode redirect needs the plain webdav password")
		}
		u, err := url.Parse(c.Server.PublicURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("server public url %q must be absolute", c.Server.PublicURL)
		}
	case "direct":
	default:
		return fmt.Errorf("unknown webdav mode %q", c.WebDAV.Mode)
	}

	switch c.Cache.Backend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis addr is required for the redis cache backend")
		}
	case BackendS3:
		if c.Storage.Bucket == "" {
			return errors.New("storage bucket is required for the s3 cache backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	if c.Listing.RecentLimit < c.Listing.MaxEntries {
		return fmt.Errorf("listing recent limit (%d) must be at least max entries (%d)", c.Listing.RecentLimit, c.Listing.MaxEntries)
	}
	return nil
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
