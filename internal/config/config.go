package config

import (
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site" mapstructure:"site"`
	HTTP    HTTPConfig    `yaml:"http" mapstructure:"http"`
	Listing ListingConfig `yaml:"listing" mapstructure:"listing"`
	Detail  DetailConfig  `yaml:"detail" mapstructure:"detail"`
	Rank    RankConfig    `yaml:"rank" mapstructure:"rank"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SiteConfig describes the storefront and its listing endpoints.
type SiteConfig struct {
	Origin      string `yaml:"origin" mapstructure:"origin"`
	LandingURL  string `yaml:"landing_url" mapstructure:"landing_url"`
	FeedURL     string `yaml:"feed_url" mapstructure:"feed_url"`
	BrowseURL   string `yaml:"browse_url" mapstructure:"browse_url"`
	ChannelID   string `yaml:"channel_id" mapstructure:"channel_id"`
	Marketplace string `yaml:"marketplace" mapstructure:"marketplace"`
	Language    string `yaml:"language" mapstructure:"language"`
	Path        string `yaml:"path" mapstructure:"path"`
	Gender      string `yaml:"gender" mapstructure:"gender"`
}

// HTTPConfig configures both HTTP clients.
type HTTPConfig struct {
	UserAgent          string  `yaml:"user_agent" mapstructure:"user_agent"`
	AcceptLanguage     string  `yaml:"accept_language" mapstructure:"accept_language"`
	ListingTimeoutSecs int     `yaml:"listing_timeout_secs" mapstructure:"listing_timeout_secs"`
	DetailTimeoutSecs  int     `yaml:"detail_timeout_secs" mapstructure:"detail_timeout_secs"`
	MaxAttempts        int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	HostRPS            float64 `yaml:"host_rps" mapstructure:"host_rps"`
	HostBurst          int     `yaml:"host_burst" mapstructure:"host_burst"`
	CircuitThreshold   int     `yaml:"circuit_threshold" mapstructure:"circuit_threshold"`
	CircuitResetSecs   int     `yaml:"circuit_reset_secs" mapstructure:"circuit_reset_secs"`
}

// ListingConfig configures catalog assembly.
type ListingConfig struct {
	Sources  []string `yaml:"sources" mapstructure:"sources"`
	PageSize int      `yaml:"page_size" mapstructure:"page_size"`
	DelayMS  int      `yaml:"delay_ms" mapstructure:"delay_ms"`
	MaxPages int      `yaml:"max_pages" mapstructure:"max_pages"`
}

// DetailConfig configures the detail page pass.
type DetailConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
	DelayMS int `yaml:"delay_ms" mapstructure:"delay_ms"`
}

// RankConfig configures the ranked views.
type RankConfig struct {
	ReviewThreshold int `yaml:"review_threshold" mapstructure:"review_threshold"`
	TopN            int `yaml:"top_n" mapstructure:"top_n"`
	ExpensiveN      int `yaml:"expensive_n" mapstructure:"expensive_n"`
}

// OutputConfig configures the output files.
type OutputConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	Format      string `yaml:"format" mapstructure:"format"`
	CatalogFile string `yaml:"catalog_file" mapstructure:"catalog_file"`
	RankingFile string `yaml:"ranking_file" mapstructure:"ranking_file"`
}

// StoreConfig configures the snapshot backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// KnownSources lists the listing strategies in their default order.
var KnownSources = []string{"feed", "browse", "page_state"}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("site.origin", "https://www.nike.com")
	v.SetDefault("site.landing_url", "https://www.nike.com/ph/w")
	v.SetDefault("site.feed_url", "https://api.nike.com/product_feed/rollup_threads/v2")
	v.SetDefault("site.browse_url", "https://api.nike.com/cic/browse/v2")
	v.SetDefault("site.channel_id", "d9a5bc42-4b9c-4976-858a-f159cf99c647")
	v.SetDefault("site.marketplace", "PH")
	v.SetDefault("site.language", "en-PH")
	v.SetDefault("site.path", "/ph/w")
	v.SetDefault("site.gender", "Women")
	v.SetDefault("http.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("http.accept_language", "en-PH,en;q=0.9")
	v.SetDefault("http.listing_timeout_secs", 30)
	v.SetDefault("http.detail_timeout_secs", 20)
	v.SetDefault("http.max_attempts", 1)
	v.SetDefault("http.host_rps", 10.0)
	v.SetDefault("http.host_burst", 10)
	v.SetDefault("http.circuit_threshold", 25)
	v.SetDefault("http.circuit_reset_secs", 30)
	v.SetDefault("listing.sources", KnownSources)
	v.SetDefault("listing.page_size", 60)
	v.SetDefault("listing.delay_ms", 600)
	v.SetDefault("listing.max_pages", 500)
	v.SetDefault("detail.workers", 4)
	v.SetDefault("detail.delay_ms", 500)
	v.SetDefault("rank.review_threshold", 150)
	v.SetDefault("rank.top_n", 20)
	v.SetDefault("rank.expensive_n", 10)
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.format", "csv")
	v.SetDefault("output.catalog_file", "products_data.csv")
	v.SetDefault("output.ranking_file", "top_20_rating_review.csv")
	v.SetDefault("store.driver", "none")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on: "run" needs every
// stage, "rank" only the ranking and output settings, "report" a store.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "run":
		errs = append(errs, c.validateListing()...)
		errs = append(errs, c.validateDetail()...)
		errs = append(errs, c.validateRank()...)
		errs = append(errs, c.validateOutput()...)
		errs = append(errs, c.validateStore()...)
	case "rank":
		errs = append(errs, c.validateRank()...)
		errs = append(errs, c.validateOutput()...)
	case "report":
		errs = append(errs, c.validateStore()...)
		if c.Store.Driver == "none" || c.Store.Driver == "" {
			errs = append(errs, "store.driver is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateListing() []string {
	var errs []string
	if c.Site.LandingURL == "" && c.Site.FeedURL == "" && c.Site.BrowseURL == "" {
		errs = append(errs, "site: at least one listing url is required")
	}
	if len(c.Listing.Sources) == 0 {
		errs = append(errs, "listing.sources must not be empty")
	}
	for _, name := range c.Listing.Sources {
		if !slices.Contains(KnownSources, name) {
			errs = append(errs, "listing.sources: unknown source "+name)
		}
	}
	if c.Listing.PageSize < 1 || c.Listing.PageSize > 200 {
		errs = append(errs, "listing.page_size must be between 1 and 200")
	}
	if c.Listing.DelayMS < 0 {
		errs = append(errs, "listing.delay_ms must be >= 0")
	}
	if c.HTTP.ListingTimeoutSecs <= 0 || c.HTTP.DetailTimeoutSecs <= 0 {
		errs = append(errs, "http timeouts must be > 0")
	}
	if c.HTTP.MaxAttempts < 1 {
		errs = append(errs, "http.max_attempts must be >= 1")
	}
	return errs
}

func (c *Config) validateDetail() []string {
	var errs []string
	if c.Detail.Workers < 1 || c.Detail.Workers > 32 {
		errs = append(errs, "detail.workers must be between 1 and 32")
	}
	if c.Detail.DelayMS < 0 {
		errs = append(errs, "detail.delay_ms must be >= 0")
	}
	return errs
}

func (c *Config) validateRank() []string {
	var errs []string
	if c.Rank.ReviewThreshold < 0 {
		errs = append(errs, "rank.review_threshold must be >= 0")
	}
	if c.Rank.TopN < 0 || c.Rank.ExpensiveN < 0 {
		errs = append(errs, "rank.top_n and rank.expensive_n must be >= 0")
	}
	return errs
}

func (c *Config) validateOutput() []string {
	var errs []string
	switch strings.ToLower(c.Output.Format) {
	case "", "csv", "xlsx":
	default:
		errs = append(errs, "output.format must be csv or xlsx")
	}
	if c.Output.CatalogFile == "" || c.Output.RankingFile == "" {
		errs = append(errs, "output file names are required")
	}
	return errs
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "", "none", "sqlite":
		return nil
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required for postgres"}
		}
		return nil
	default:
		return []string{"store.driver must be none, sqlite, or postgres"}
	}
}

// ListingDelay is the spacing between listing requests.
func (c *Config) ListingDelay() time.Duration {
	return time.Duration(c.Listing.DelayMS) * time.Millisecond
}

// DetailDelay is the pause each worker takes after a detail request.
func (c *Config) DetailDelay() time.Duration {
	return time.Duration(c.Detail.DelayMS) * time.Millisecond
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
