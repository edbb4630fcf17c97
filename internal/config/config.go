package config

import (
	"fmt"
	"time"
)

// Fetch strategy names accepted by fetcher sections.
const (
	StrategyHTTP    = "http"
	StrategyBrowser = "browser"
)

// Media provider names accepted by media.provider.
const (
	MediaProviderS3         = "s3"
	MediaProviderCloudinary = "cloudinary"
	MediaProviderNone       = "none"
)

type Config struct {
	Site                SiteConfig          `yaml:"site"`
	HTTP                HTTPConfig          `yaml:"http"`
	Backoff             BackoffConfig       `yaml:"backoff"`
	RateLimit           RateLimitConfig     `yaml:"rate_limit"`
	RobotsCacheTTLHours int                 `yaml:"robots_cache_ttl_hours"`
	Browser             BrowserConfig       `yaml:"browser"`
	Pagination          PaginationConfig    `yaml:"pagination"`
	SelectorsFile       string              `yaml:"selectors_file"`
	Normalize           NormalizeConfig     `yaml:"normalize"`
	Storage             StorageConfig       `yaml:"storage"`
	Media               MediaConfig         `yaml:"media"`
	Scheduler           SchedulerConfig     `yaml:"scheduler"`
	Observability       ObservabilityConfig `yaml:"observability"`
}

type SiteConfig struct {
	// ListingURL is the category page the listing run starts from.
	ListingURL string `yaml:"listing_url"`
	// ListingStrategy and DetailStrategy select the fetcher per page kind.
	ListingStrategy string `yaml:"listing_strategy"`
	DetailStrategy  string `yaml:"detail_strategy"`
}

type HTTPConfig struct {
	UserAgent                 string `yaml:"user_agent"`
	ConnectTimeoutMS          int    `yaml:"connect_timeout_ms"`
	TotalTimeoutMS            int    `yaml:"total_timeout_ms"`
	MaxRetries                int    `yaml:"max_retries"`
	MaxIdleConnections        int    `yaml:"max_idle_connections"`
	MaxIdleConnectionsPerHost int    `yaml:"max_idle_connections_per_host"`
	IdleConnectionTimeoutS    int    `yaml:"idle_connection_timeout_s"`
}

type BackoffConfig struct {
	MinMS     int `yaml:"min_ms"`
	MaxMS     int `yaml:"max_ms"`
	JitterPct int `yaml:"jitter_pct"`
}

type RateLimitConfig struct {
	MaxConcurrentPerHost int `yaml:"max_concurrent_per_host"`
	RPM                  int `yaml:"rpm"`
}

type BrowserConfig struct {
	// ChromePath overrides rod's own browser lookup when set.
	ChromePath   string `yaml:"chrome_path"`
	Headless     bool   `yaml:"headless"`
	PageTimeoutS int    `yaml:"page_timeout_s"`
	// WaitSelector is the DOM node that must appear before scrolling starts.
	WaitSelector string `yaml:"wait_selector"`
	// ScrollStepDelayMS is the pause between scroll steps while the page
	// height is still growing.
	ScrollStepDelayMS int `yaml:"scroll_step_delay_ms"`
	// ScrollStableSamples is how many consecutive unchanged height samples
	// end the scroll loop.
	ScrollStableSamples int `yaml:"scroll_stable_samples"`
	ScrollTimeoutS      int `yaml:"scroll_timeout_s"`
}

type PaginationConfig struct {
	MaxPages int `yaml:"max_pages"`
	// StopOnKnownChainPages ends the walk after this many consecutive pages
	// where every card is already stored.
	StopOnKnownChainPages int `yaml:"stop_on_known_chain_pages"`
}

type NormalizeConfig struct {
	StripBlocks      []string `yaml:"strip_blocks"`
	TrimNBSP         bool     `yaml:"trim_nbsp"`
	CollapseSpaces   bool     `yaml:"collapse_spaces"`
	MaxPreviewChars  int      `yaml:"max_preview_chars"`
	SummarySentences int      `yaml:"summary_sentences"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	// DSN is usually left empty here and supplied via DATABASE_URL.
	DSN               string `yaml:"dsn"`
	CommandTimeoutMS  int    `yaml:"command_timeout_ms"`
	BackfillBatchSize int    `yaml:"backfill_batch_size"`
}

type MediaConfig struct {
	Provider   string           `yaml:"provider"`
	S3         S3Config         `yaml:"s3"`
	Cloudinary CloudinaryConfig `yaml:"cloudinary"`
}

type S3Config struct {
	// Endpoint selects a MinIO-style deployment; empty means AWS S3.
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	KeyPrefix string `yaml:"key_prefix"`
	// AccessKey/SecretKey are filled from the environment, not YAML.
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

type CloudinaryConfig struct {
	Folder string `yaml:"folder"`
	// URL is the cloudinary:// credential string, filled from the environment.
	URL string `yaml:"-"`
}

type SchedulerConfig struct {
	Mode      string `yaml:"mode"`
	IntervalS int    `yaml:"interval_s"`
	CronExpr  string `yaml:"cron_expr"`
}

type ObservabilityConfig struct {
	LogPath  string `yaml:"log_path"`
	LogLevel string `yaml:"log_level"`
}

func validStrategy(s string) bool {
	return s == StrategyHTTP || s == StrategyBrowser
}

func (c *Config) Validate() error {
	if c.Site.ListingURL == "" {
		return fmt.Errorf("site.listing_url is required")
	}
	if !validStrategy(c.Site.ListingStrategy) {
		return fmt.Errorf("site.listing_strategy must be 'http' or 'browser'")
	}
	if !validStrategy(c.Site.DetailStrategy) {
		return fmt.Errorf("site.detail_strategy must be 'http' or 'browser'")
	}
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.ConnectTimeoutMS <= 0 {
		return fmt.Errorf("http.connect_timeout_ms must be > 0")
	}
	if c.HTTP.TotalTimeoutMS <= 0 {
		return fmt.Errorf("http.total_timeout_ms must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Backoff.MinMS <= 0 {
		return fmt.Errorf("backoff.min_ms must be > 0")
	}
	if c.Backoff.MaxMS <= 0 {
		return fmt.Errorf("backoff.max_ms must be > 0")
	}
	if c.Backoff.MinMS > c.Backoff.MaxMS {
		return fmt.Errorf("backoff.min_ms must be <= backoff.max_ms")
	}
	if c.Backoff.JitterPct < 0 || c.Backoff.JitterPct > 100 {
		return fmt.Errorf("backoff.jitter_pct must be between 0 and 100")
	}
	if c.RateLimit.MaxConcurrentPerHost <= 0 {
		return fmt.Errorf("rate_limit.max_concurrent_per_host must be > 0")
	}
	if c.RateLimit.RPM <= 0 {
		return fmt.Errorf("rate_limit.rpm must be > 0")
	}
	if c.RobotsCacheTTLHours <= 0 {
		return fmt.Errorf("robots_cache_ttl_hours must be > 0")
	}
	if c.needsBrowser() {
		if c.Browser.PageTimeoutS <= 0 {
			return fmt.Errorf("browser.page_timeout_s must be > 0")
		}
		if c.Browser.ScrollStepDelayMS <= 0 {
			return fmt.Errorf("browser.scroll_step_delay_ms must be > 0")
		}
		if c.Browser.ScrollStableSamples <= 0 {
			return fmt.Errorf("browser.scroll_stable_samples must be > 0")
		}
		if c.Browser.ScrollTimeoutS <= 0 {
			return fmt.Errorf("browser.scroll_timeout_s must be > 0")
		}
	}
	if c.Pagination.MaxPages <= 0 {
		return fmt.Errorf("pagination.max_pages must be > 0")
	}
	if c.Pagination.StopOnKnownChainPages <= 0 {
		return fmt.Errorf("pagination.stop_on_known_chain_pages must be > 0")
	}
	if c.SelectorsFile == "" {
		return fmt.Errorf("selectors_file is required")
	}
	if c.Normalize.MaxPreviewChars <= 0 {
		return fmt.Errorf("normalize.max_preview_chars must be > 0")
	}
	if c.Normalize.SummarySentences <= 0 {
		return fmt.Errorf("normalize.summary_sentences must be > 0")
	}
	if c.Storage.Driver != "postgres" {
		return fmt.Errorf("storage.driver must be 'postgres'")
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage dsn is required (set DATABASE_URL or storage.dsn)")
	}
	if c.Storage.CommandTimeoutMS <= 0 {
		return fmt.Errorf("storage.command_timeout_ms must be > 0")
	}
	if c.Storage.BackfillBatchSize <= 0 {
		return fmt.Errorf("storage.backfill_batch_size must be > 0")
	}
	switch c.Media.Provider {
	case MediaProviderNone:
	case MediaProviderS3:
		if c.Media.S3.Bucket == "" {
			return fmt.Errorf("media.s3.bucket is required")
		}
		if c.Media.S3.AccessKey == "" || c.Media.S3.SecretKey == "" {
			return fmt.Errorf("s3 credentials are required (set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY)")
		}
	case MediaProviderCloudinary:
		if c.Media.Cloudinary.URL == "" {
			return fmt.Errorf("cloudinary credentials are required (set CLOUDINARY_URL)")
		}
	default:
		return fmt.Errorf("media.provider must be 's3', 'cloudinary' or 'none'")
	}
	switch c.Scheduler.Mode {
	case "oneshot":
	case "interval":
		if c.Scheduler.IntervalS <= 0 {
			return fmt.Errorf("scheduler.interval_s must be > 0 when mode is 'interval'")
		}
	case "cron":
		if c.Scheduler.CronExpr == "" {
			return fmt.Errorf("scheduler.cron_expr must be set when mode is 'cron'")
		}
	default:
		return fmt.Errorf("scheduler.mode must be 'interval', 'cron' or 'oneshot'")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	return nil
}

func (c *Config) needsBrowser() bool {
	return c.Site.ListingStrategy == StrategyBrowser || c.Site.DetailStrategy == StrategyBrowser
}

// Getters
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.HTTP.ConnectTimeoutMS) * time.Millisecond
}

func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetIdleConnectionTimeout() time.Duration {
	return time.Duration(c.HTTP.IdleConnectionTimeoutS) * time.Second
}

func (c *Config) GetBackoffMin() time.Duration {
	return time.Duration(c.Backoff.MinMS) * time.Millisecond
}

func (c *Config) GetBackoffMax() time.Duration {
	return time.Duration(c.Backoff.MaxMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetSchedulerInterval() time.Duration {
	return time.Duration(c.Scheduler.IntervalS) * time.Second
}

func (c *Config) GetRobotsCacheTTL() time.Duration {
	return time.Duration(c.RobotsCacheTTLHours) * time.Hour
}

func (c *Config) GetBrowserPageTimeout() time.Duration {
	return time.Duration(c.Browser.PageTimeoutS) * time.Second
}

func (c *Config) GetScrollStepDelay() time.Duration {
	return time.Duration(c.Browser.ScrollStepDelayMS) * time.Millisecond
}

func (c *Config) GetScrollTimeout() time.Duration {
	return time.Duration(c.Browser.ScrollTimeoutS) * time.Second
}
