package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App     App     `mapstructure:"app"`
	AI      AI      `mapstructure:"ai"`
	Search  Search  `mapstructure:"search"`
	Fetch   Fetch   `mapstructure:"fetch"`
	Extract Extract `mapstructure:"extract"`
	Domains Domains `mapstructure:"domains"`
}

// App holds general application configuration
type App struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// AI holds model-service configuration (OpenRouter, OpenAI-compatible)
type AI struct {
	APIKey           string  `mapstructure:"api_key"`
	BaseURL          string  `mapstructure:"base_url"`
	Model            string  `mapstructure:"model"`
	ElaborationModel string  `mapstructure:"elaboration_model"`
	Temperature      float64 `mapstructure:"temperature"`
	Timeout          string  `mapstructure:"timeout"`
}

// Search holds search provider and aggregation configuration
type Search struct {
	APIKey          string `mapstructure:"api_key"`   // Google Custom Search API key
	SearchID        string `mapstructure:"search_id"` // Custom Search Engine ID
	ResultsPerQuery int    `mapstructure:"results_per_query"`
	MaxArticles     int    `mapstructure:"max_articles"` // Total URL processing cap per run
	MaxRetries      int    `mapstructure:"max_retries"`
	BackoffSeconds  int    `mapstructure:"backoff_seconds"` // Base for exponential backoff between API retries
	QueryDelay      string `mapstructure:"query_delay"`     // Pause between refined-query calls
}

// Fetch holds HTML retrieval configuration
type Fetch struct {
	Timeout        string `mapstructure:"timeout"`
	MaxRetries     int    `mapstructure:"max_retries"`
	BackoffSeconds int    `mapstructure:"backoff_seconds"` // Base for linear backoff between fetch attempts
	HeadlessOn     bool   `mapstructure:"headless_enabled"`
	HeadlessTotal  string `mapstructure:"headless_timeout"` // Page-load cap for the rendering fallback
	HeadlessSettle string `mapstructure:"headless_settle"`  // Post-load delay before serializing the DOM
	ExecPath       string `mapstructure:"headless_exec_path"`
}

// Extract holds content extraction configuration
type Extract struct {
	MinContentLength int `mapstructure:"min_content_length"`
}

// Domains holds trusted- and blocked-domain policy
type Domains struct {
	TrustedGeneral []string            `mapstructure:"trusted_general"`
	TrustedByTopic map[string][]string `mapstructure:"trusted_by_topic"`    // keyword trigger -> extra domains
	TrustedByPlace map[string][]string `mapstructure:"trusted_by_location"` // location keyword -> extra domains
	AlwaysArticle  []string            `mapstructure:"always_article"`      // domains exempt from the homepage heuristic
	LowQualityNews []string            `mapstructure:"low_quality_news"`    // skipped for news-flavored queries
	Priority       map[string]int      `mapstructure:"priority"`            // domain -> trust score for news ranking
}

// QueryDelayDuration returns the parsed inter-query pause, with a safe floor.
func (s Search) QueryDelayDuration() time.Duration {
	d, err := time.ParseDuration(s.QueryDelay)
	if err != nil || d < 0 {
		return time.Second
	}
	return d
}

// TimeoutDuration returns the parsed per-attempt fetch timeout.
func (f Fetch) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(f.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// HeadlessTimeoutDuration returns the parsed page-load cap for headless rendering.
func (f Fetch) HeadlessTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(f.HeadlessTotal)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// HeadlessSettleDuration returns the parsed post-load settle delay.
func (f Fetch) HeadlessSettleDuration() time.Duration {
	d, err := time.ParseDuration(f.HeadlessSettle)
	if err != nil || d < 0 {
		return 4 * time.Second
	}
	return d
}

var globalConfig *Config

// Load loads the configuration from defaults, an optional config file,
// a .env file, and environment variables.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".livesearch")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the cached configuration. Intended for tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")

	viper.SetDefault("ai.base_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("ai.model", "nousresearch/deephermes-3-mistral-24b-preview:free")
	viper.SetDefault("ai.elaboration_model", "")
	viper.SetDefault("ai.temperature", 0.2)
	viper.SetDefault("ai.timeout", "60s")

	viper.SetDefault("search.results_per_query", 5)
	viper.SetDefault("search.max_articles", 10)
	viper.SetDefault("search.max_retries", 2)
	viper.SetDefault("search.backoff_seconds", 3)
	viper.SetDefault("search.query_delay", "1s")

	viper.SetDefault("fetch.timeout", "15s")
	viper.SetDefault("fetch.max_retries", 2)
	viper.SetDefault("fetch.backoff_seconds", 1)
	viper.SetDefault("fetch.headless_enabled", false)
	viper.SetDefault("fetch.headless_timeout", "30s")
	viper.SetDefault("fetch.headless_settle", "4s")
	viper.SetDefault("fetch.headless_exec_path", "")

	viper.SetDefault("extract.min_content_length", 250)

	viper.SetDefault("domains.trusted_general", []string{
		"wikipedia.org", "reuters.com", "apnews.com", "bbc.com", "nytimes.com",
		"wsj.com", "forbes.com", "bloomberg.com", "techcrunch.com", "theverge.com",
		"wired.com", "arstechnica.com", "medium.com", "github.com",
		"stackoverflow.com", "reddit.com",
	})
	viper.SetDefault("domains.trusted_by_topic", map[string][]string{
		"cricket": {
			"espncricinfo.com", "cricbuzz.com", "iplt20.com", "sportskeeda.com",
			"sportstar.thehindu.com", "cricketworld.com",
		},
		"ipl": {
			"espncricinfo.com", "cricbuzz.com", "iplt20.com", "bcci.tv",
		},
	})
	viper.SetDefault("domains.trusted_by_location", map[string][]string{
		"lucknow": {
			"timesofindia.indiatimes.com", "hindustantimes.com", "indianexpress.com",
			"amarujala.com", "jagran.com", "ndtv.com", "thehindu.com",
			"dainikbhaskar.com", "patrika.com",
		},
	})
	viper.SetDefault("domains.always_article", []string{
		"amarujala.com", "jagran.com", "dainikbhaskar.com",
	})
	viper.SetDefault("domains.low_quality_news", []string{
		"facebook.com", "instagram.com", "twitter.com", "x.com", "pinterest.com",
		"newsbytesapp.com", "latestly.com", "republicworld.com", "opindia.com",
		"oneindia.com", "wionews.com", "dnaindia.com", "ibtimes.co.in",
	})
	viper.SetDefault("domains.priority", map[string]int{
		"timesofindia.indiatimes.com": 10,
		"hindustantimes.com":          9,
		"indianexpress.com":           9,
		"amarujala.com":               9,
		"jagran.com":                  9,
		"ndtv.com":                    8,
		"thehindu.com":                8,
		"bbc.com":                     7,
		"reuters.com":                 7,
		"apnews.com":                  7,
		"espncricinfo.com":            10,
		"cricbuzz.com":                10,
	})
}

// bindEnvironmentVariables binds the legacy flat environment variable
// names so a plain .env keeps working without the section prefixes.
func bindEnvironmentVariables() {
	_ = viper.BindEnv("search.api_key", "SEARCH_API_KEY", "GOOGLE_API_KEY")
	_ = viper.BindEnv("search.search_id", "SEARCH_SEARCH_ID", "CUSTOM_SEARCH_ENGINE_ID")
	_ = viper.BindEnv("ai.api_key", "AI_API_KEY", "OPENROUTER_API_KEY")
	_ = viper.BindEnv("ai.model", "AI_MODEL", "DEFAULT_MODEL_NAME")
	_ = viper.BindEnv("ai.elaboration_model", "AI_ELABORATION_MODEL", "ELABORATION_MODEL_NAME")
	_ = viper.BindEnv("extract.min_content_length", "EXTRACT_MIN_CONTENT_LENGTH", "MIN_CONTENT_LENGTH")
	_ = viper.BindEnv("search.results_per_query", "SEARCH_RESULTS_PER_QUERY", "RESULTS_PER_API_CALL")
	_ = viper.BindEnv("search.max_articles", "SEARCH_MAX_ARTICLES", "TOTAL_URLS_TO_PROCESS_LIMIT")
	_ = viper.BindEnv("fetch.headless_enabled", "FETCH_HEADLESS_ENABLED", "HEADLESS_ENABLED")
	_ = viper.BindEnv("fetch.headless_exec_path", "FETCH_HEADLESS_EXEC_PATH", "HEADLESS_DRIVER_PATH")
}
