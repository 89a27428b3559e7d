package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del terminal.
type Config struct {
	Feed     FeedConfig     `yaml:"feed"`
	Caches   CachesConfig   `yaml:"caches"`
	Prefetch PrefetchConfig `yaml:"prefetch"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// FeedConfig controla la ventana de retención y el backfill.
type FeedConfig struct {
	HorizonHours int `yaml:"horizon_hours"`  // retención de eventos en memoria
	PageLimit    int `yaml:"page_limit"`     // tamaño de página de backfill
	MinVisible   int `yaml:"min_visible"`    // por debajo, auto-backfill
	MaxAutoPages int `yaml:"max_auto_pages"` // tope de páginas automáticas por filtro
	BookDepth    int `yaml:"book_depth"`     // niveles por lado del snapshot
}

// CachesConfig controla TTLs y reintentos de los fetches de enriquecimiento.
// Analytics y books usan valores distintos: la staleness tolerable de un
// orderbook es mucho menor que la de unas analíticas de wallet.
type CachesConfig struct {
	AnalyticsTTLSeconds   int `yaml:"analytics_ttl_seconds"`
	AnalyticsGraceSeconds int `yaml:"analytics_grace_seconds"`
	BookTTLSeconds        int `yaml:"book_ttl_seconds"`
	BookGraceSeconds      int `yaml:"book_grace_seconds"`
	RetryAttempts         int `yaml:"retry_attempts"` // reintentos de "still computing"
	RetryDelayMillis      int `yaml:"retry_delay_ms"`
}

// PrefetchConfig dimensiona el warmer de caché.
type PrefetchConfig struct {
	Workers  int `yaml:"workers"`
	BatchCap int `yaml:"batch_cap"`
}

// APIConfig contiene los base URLs y credenciales de las APIs.
type APIConfig struct {
	HashdiveBase string `yaml:"hashdive_base"`
	HashdiveKey  string `yaml:"hashdive_key"` // normalmente via HASHDIVE_API_KEY
	CLOBBase     string `yaml:"clob_base"`
	PushURL      string `yaml:"push_url"`
}

// StorageConfig controla el journal de eventos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, ":memory:", o "off" para deshabilitar
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Horizon devuelve el horizonte de retención como time.Duration.
func (c *Config) Horizon() time.Duration {
	return time.Duration(c.Feed.HorizonHours) * time.Hour
}

// AnalyticsTTL devuelve el TTL de la caché de analytics.
func (c *Config) AnalyticsTTL() time.Duration {
	return time.Duration(c.Caches.AnalyticsTTLSeconds) * time.Second
}

// AnalyticsGrace devuelve la ventana de gracia de force-refresh de analytics.
func (c *Config) AnalyticsGrace() time.Duration {
	return time.Duration(c.Caches.AnalyticsGraceSeconds) * time.Second
}

// BookTTL devuelve el TTL de la caché de orderbooks.
func (c *Config) BookTTL() time.Duration {
	return time.Duration(c.Caches.BookTTLSeconds) * time.Second
}

// BookGrace devuelve la ventana de gracia de force-refresh de books.
func (c *Config) BookGrace() time.Duration {
	return time.Duration(c.Caches.BookGraceSeconds) * time.Second
}

// RetryDelay devuelve la espera entre reintentos de "still computing".
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Caches.RetryDelayMillis) * time.Millisecond
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HASHDIVE_API_KEY"); v != "" {
		cfg.API.HashdiveKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Feed.HorizonHours <= 0 {
		cfg.Feed.HorizonHours = 24
	}
	if cfg.Feed.PageLimit <= 0 {
		cfg.Feed.PageLimit = 500
	}
	if cfg.Feed.MinVisible <= 0 {
		cfg.Feed.MinVisible = 10
	}
	if cfg.Feed.MaxAutoPages <= 0 {
		cfg.Feed.MaxAutoPages = 5
	}
	if cfg.Feed.BookDepth <= 0 {
		cfg.Feed.BookDepth = 10
	}
	if cfg.Caches.AnalyticsTTLSeconds <= 0 {
		cfg.Caches.AnalyticsTTLSeconds = 300
	}
	if cfg.Caches.AnalyticsGraceSeconds <= 0 {
		cfg.Caches.AnalyticsGraceSeconds = 5
	}
	if cfg.Caches.BookTTLSeconds <= 0 {
		cfg.Caches.BookTTLSeconds = 10
	}
	if cfg.Caches.BookGraceSeconds <= 0 {
		cfg.Caches.BookGraceSeconds = 2
	}
	if cfg.Caches.RetryAttempts <= 0 {
		cfg.Caches.RetryAttempts = 6
	}
	if cfg.Caches.RetryDelayMillis <= 0 {
		cfg.Caches.RetryDelayMillis = 1500
	}
	if cfg.Prefetch.Workers <= 0 {
		cfg.Prefetch.Workers = 2
	}
	if cfg.Prefetch.BatchCap <= 0 {
		cfg.Prefetch.BatchCap = 20
	}
	if cfg.API.HashdiveBase == "" {
		cfg.API.HashdiveBase = "https://hashdive.com/api"
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.PushURL == "" {
		cfg.API.PushURL = "wss://hashdive.com/ws/events"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "whaleterm.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
