package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Search    SearchConfig    `mapstructure:"search"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Databases DatabasesConfig `mapstructure:"databases"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains server-wide settings.
type GeneralConfig struct {
	Listen    string `mapstructure:"listen"`
	Debug     bool   `mapstructure:"debug"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// ProvidersConfig contains LLM provider configurations.
type ProvidersConfig struct {
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

// OpenAIConfig configures the completion provider.
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int64         `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SearchConfig selects and configures the web search provider.
type SearchConfig struct {
	Provider     string        `mapstructure:"provider"` // serper or brave
	SerperAPIKey string        `mapstructure:"serper_api_key"`
	BraveAPIKey  string        `mapstructure:"brave_api_key"`
	MaxResults   int           `mapstructure:"max_results"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// ScrapeConfig bounds the crawl engine and the per-page fetcher.
type ScrapeConfig struct {
	Fetcher     string        `mapstructure:"fetcher"` // http or chromedp
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxChars    int           `mapstructure:"max_chars"`
	UserAgent   string        `mapstructure:"user_agent"`
}

// ChatConfig bounds the conversation driver.
type ChatConfig struct {
	MaxSteps     int    `mapstructure:"max_steps"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

// DatabasesConfig groups storage backends.
type DatabasesConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig describes the conversation store connection.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN assembles a postgres connection string, preferring the explicit URL.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (databases.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// RedisConfig describes the optional search cache connection.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port, or empty when redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" || r.Port == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

// TelemetryConfig controls metrics and tracing.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// LoadConfig reads configuration from the given file path (or ./config.yaml
// when empty) and the ASKWEB_* environment, returning the merged result.
// Missing config files are not fatal: env plus defaults is a valid setup.
func LoadConfig(path string) *Config {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/askweb")
	}

	v.SetEnvPrefix("ASKWEB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			log.Fatalf("failed to read config %s: %v", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.listen", ":8080")
	v.SetDefault("general.debug", false)

	v.SetDefault("providers.openai.model", "gpt-4o-mini")
	v.SetDefault("providers.openai.temperature", 0.2)
	v.SetDefault("providers.openai.max_tokens", 4096)
	v.SetDefault("providers.openai.timeout", 60*time.Second)

	v.SetDefault("search.provider", "serper")
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.cache_ttl", 5*time.Minute)

	v.SetDefault("scrape.fetcher", "http")
	v.SetDefault("scrape.concurrency", 5)
	v.SetDefault("scrape.timeout", 15*time.Second)
	v.SetDefault("scrape.max_chars", 20000)
	v.SetDefault("scrape.user_agent", "askweb/1.0 (+https://github.com/mohammad-safakhou/askweb)")

	v.SetDefault("chat.max_steps", 10)

	v.SetDefault("databases.postgres.sslmode", "disable")
	v.SetDefault("databases.redis.db", 0)

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.service_name", "askweb")
}
