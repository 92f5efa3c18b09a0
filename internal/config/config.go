// config - источник загрузки конфигурации digest-proxy.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string           `yaml:"env" env:"ENV" env-default:"local"`
	HTTP       HTTPConfig       `yaml:"http"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Aggregator AggregatorConfig `yaml:"aggregator"`
	CORS       CORSConfig       `yaml:"cors"`
	Timeouts   TimeoutConfig    `yaml:"timeouts"`
}

// HTTPConfig — публичный REST-сервер прокси.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50070"`
}

func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// MetricsConfig — отдельный HTTP для Prometheus.
type MetricsConfig struct {
	Host string `yaml:"host" env:"METRICS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"METRICS_PORT" env-default:"50075"`
}

func (m MetricsConfig) Addr() string { return net.JoinHostPort(m.Host, m.Port) }

// UpstreamConfig — FreshRSS-совместимый (Google Reader API) апстрим.
type UpstreamConfig struct {
	// BaseURL — корень API, например "https://rss.example.com/api/greader.php".
	// Хвостовые слэши срезаются при загрузке.
	BaseURL string `yaml:"base_url" env:"FRESHRSS_BASE_URL"`
	// AuthToken — токен для заголовка "Authorization: GoogleLogin auth=...".
	AuthToken string `yaml:"auth_token" env:"FRESHRSS_API_TOKEN"`
	// Timeout — ограничение на один HTTP-вызов к апстриму.
	Timeout time.Duration `yaml:"timeout" env:"UPSTREAM_TIMEOUT" env-default:"10s"`
}

// AggregatorConfig — параметры движка агрегации.
type AggregatorConfig struct {
	// MaxConcurrent — верхняя граница одновременных загрузок лент;
	// эффективная граница — min(MaxConcurrent, размер батча).
	MaxConcurrent int `yaml:"max_concurrent" env:"AGG_MAX_CONCURRENT" env-default:"10"`
	// RetryAttempts — число дополнительных попыток после первой.
	RetryAttempts int `yaml:"retry_attempts" env:"AGG_RETRY_ATTEMPTS" env-default:"2"`
	// CacheTTL — время жизни записи в кэше агрегатов.
	CacheTTL time.Duration `yaml:"cache_ttl" env:"AGG_CACHE_TTL" env-default:"300s"`
	// DefaultN — количество элементов на ленту по умолчанию.
	DefaultN int `yaml:"default_n" env:"AGG_DEFAULT_N" env-default:"1"`
	// DefaultLimit — размер страницы по умолчанию.
	DefaultLimit int `yaml:"default_limit" env:"AGG_DEFAULT_LIMIT" env-default:"50"`
}

// CORSConfig — допустимые источники для браузерных клиентов.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

// TimeoutConfig — общий дедлайн обработки запроса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE" env-default:"60s"`
}

// MustLoad — паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return normalize(&cfg), nil
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return normalize(&cfg), nil
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return normalize(&cfg), nil
}

// normalize приводит значения к рабочему виду после загрузки.
func normalize(cfg *Config) *Config {
	cfg.Upstream.BaseURL = strings.TrimRight(cfg.Upstream.BaseURL, "/")

	return cfg
}
