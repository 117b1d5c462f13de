package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	HTTPAddr string

	MongoURI      string
	MongoDatabase string

	CountriesAPIURL     string
	ExchangeRatesAPIURL string
	SourceTimeout       time.Duration

	CacheImagePath  string
	SummaryRenderer string
	QuickChartURL   string
	RenderTimeout   time.Duration

	MergeWorkers    int
	RefreshInterval time.Duration

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RefreshLockTTL time.Duration

	LogLevel  string
	LogFormat string
}

const (
	RendererQuickChart = "quickchart"
	RendererLocal      = "local"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("MONGO_DB", "countries_api")
	v.SetDefault("SOURCE_TIMEOUT", "15s")
	v.SetDefault("CACHE_IMAGE_PATH", "./cache/summary.png")
	v.SetDefault("SUMMARY_RENDERER", RendererQuickChart)
	v.SetDefault("QUICKCHART_URL", "https://quickchart.io/chart")
	v.SetDefault("RENDER_TIMEOUT", "20s")
	v.SetDefault("MERGE_WORKERS", 4)
	v.SetDefault("REFRESH_INTERVAL", "0s")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REFRESH_LOCK_TTL", "2m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Load reads the optional .env file at envFile and builds the configuration
// from the environment. Missing source URLs are not an error here; the
// refresh reports them when it runs.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		HTTPAddr:            v.GetString("HTTP_ADDR"),
		MongoURI:            getMongoURI(v),
		MongoDatabase:       v.GetString("MONGO_DB"),
		CountriesAPIURL:     v.GetString("EXTERNAL_COUNTRIES_API"),
		ExchangeRatesAPIURL: v.GetString("EXCHANGE_RATES_API"),
		SourceTimeout:       v.GetDuration("SOURCE_TIMEOUT"),
		CacheImagePath:      v.GetString("CACHE_IMAGE_PATH"),
		SummaryRenderer:     v.GetString("SUMMARY_RENDERER"),
		QuickChartURL:       v.GetString("QUICKCHART_URL"),
		RenderTimeout:       v.GetDuration("RENDER_TIMEOUT"),
		MergeWorkers:        v.GetInt("MERGE_WORKERS"),
		RefreshInterval:     v.GetDuration("REFRESH_INTERVAL"),
		RedisAddr:           v.GetString("REDIS_ADDR"),
		RedisPassword:       v.GetString("REDIS_PASSWORD"),
		RedisDB:             v.GetInt("REDIS_DB"),
		RefreshLockTTL:      v.GetDuration("REFRESH_LOCK_TTL"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SourceTimeout <= 0 {
		return fmt.Errorf("SOURCE_TIMEOUT must be positive, got %s", c.SourceTimeout)
	}
	if c.MergeWorkers <= 0 {
		return fmt.Errorf("MERGE_WORKERS must be positive, got %d", c.MergeWorkers)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("REFRESH_INTERVAL must not be negative, got %s", c.RefreshInterval)
	}
	switch c.SummaryRenderer {
	case RendererQuickChart, RendererLocal:
	default:
		return fmt.Errorf("SUMMARY_RENDERER must be %q or %q, got %q", RendererQuickChart, RendererLocal, c.SummaryRenderer)
	}
	return nil
}

// SourcesConfigured reports whether both upstream endpoints are set.
func (c *Config) SourcesConfigured() bool {
	return c.CountriesAPIURL != "" && c.ExchangeRatesAPIURL != ""
}

// getMongoURI prefers MONGO_URI and otherwise builds one from the
// MONGO_HOST/MONGO_PORT/MONGO_USER/MONGO_PASS variables.
func getMongoURI(v *viper.Viper) string {
	if uri := v.GetString("MONGO_URI"); uri != "" {
		return uri
	}

	host := v.GetString("MONGO_HOST")
	if host == "" {
		host = "localhost"
	}
	port := v.GetString("MONGO_PORT")
	if port == "" {
		port = "27017"
	}

	u := url.URL{Scheme: "mongodb", Host: net.JoinHostPort(host, port)}
	if user := v.GetString("MONGO_USER"); user != "" {
		// credentials are percent-escaped, so '@', ':' and '/' survive
		u.User = url.UserPassword(user, v.GetString("MONGO_PASS"))
	}
	return u.String()
}
