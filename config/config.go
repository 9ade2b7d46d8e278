package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del trader.
type Config struct {
	Trading   TradingConfig   `yaml:"trading"`
	Scanner   ScannerConfig   `yaml:"scanner"`
	API       APIConfig       `yaml:"api"`
	Oracle    OracleConfig    `yaml:"oracle"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// TradingConfig contiene los parámetros de capital y riesgo. Los seis
// primeros campos son obligatorios: sin ellos el trader no arranca.
type TradingConfig struct {
	BankrollUSDC        float64 `yaml:"bankroll_usdc"`
	MispricingThreshold float64 `yaml:"mispricing_threshold"`
	MaxKellyFraction    float64 `yaml:"max_kelly_fraction"`
	IntervalSeconds     int     `yaml:"interval_seconds"`
	MaxPositions        int     `yaml:"max_positions"`
	StopLossBankroll    float64 `yaml:"stop_loss_bankroll"`

	MinBalanceUSDC float64 `yaml:"min_balance_usdc"`
}

// ScannerConfig controla el fetch de mercados.
type ScannerConfig struct {
	MarketLimit    int     `yaml:"market_limit"`
	MinVolume24h   float64 `yaml:"min_volume_24h"`
	MaxLLMAnalyses int     `yaml:"max_llm_analyses"` // tope de mercados por ciclo que pasan por el oráculo
}

// APIConfig contiene los base URLs y credenciales del exchange.
type APIConfig struct {
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
	APIKey    string `yaml:"-"` // POLYMARKET_API_KEY, solo por entorno
}

// OracleConfig configura el LLM de fair value y el servicio de research.
type OracleConfig struct {
	BaseURL      string  `yaml:"base_url"`
	ResearchBase string  `yaml:"research_base"`
	Model        string  `yaml:"model"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	APIKey       string  `yaml:"-"` // ANTHROPIC_API_KEY, solo por entorno
}

// RateLimitConfig controla la ventana deslizante de envío de órdenes.
type RateLimitConfig struct {
	MaxOrders     int `yaml:"max_orders"`
	WindowSeconds int `yaml:"window_seconds"`
}

// StorageConfig controla dónde se persiste el estado.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
	Dir string `yaml:"dir"` // directorio para los archivos JSON en dry-run
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe, aplica overrides de entorno, defaults, y valida los campos
// obligatorios. Un campo obligatorio ausente es un error de arranque.
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

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return &cfg, nil
}

// ScanInterval devuelve el intervalo entre ciclos como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Trading.IntervalSeconds) * time.Second
}

// RateWindow devuelve la ventana del rate limiter como time.Duration.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

// validate comprueba los campos sin default razonable. Fail-fast: mejor no
// arrancar que operar con un bankroll o un stop loss en cero.
func (c *Config) validate() error {
	switch {
	case c.Trading.BankrollUSDC <= 0:
		return fmt.Errorf("trading.bankroll_usdc is required and must be positive")
	case c.Trading.MispricingThreshold <= 0 || c.Trading.MispricingThreshold >= 1:
		return fmt.Errorf("trading.mispricing_threshold is required and must be in (0,1)")
	case c.Trading.MaxKellyFraction <= 0 || c.Trading.MaxKellyFraction > 1:
		return fmt.Errorf("trading.max_kelly_fraction is required and must be in (0,1]")
	case c.Trading.IntervalSeconds <= 0:
		return fmt.Errorf("trading.interval_seconds is required and must be positive")
	case c.Trading.MaxPositions <= 0:
		return fmt.Errorf("trading.max_positions is required and must be positive")
	case c.Trading.StopLossBankroll <= 0:
		return fmt.Errorf("trading.stop_loss_bankroll is required and must be positive")
	case c.Trading.StopLossBankroll >= c.Trading.BankrollUSDC:
		return fmt.Errorf("trading.stop_loss_bankroll must be below trading.bankroll_usdc")
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("POLYMARKET_API_KEY"); v != "" {
		cfg.API.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores opcionales tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Trading.MinBalanceUSDC <= 0 {
		cfg.Trading.MinBalanceUSDC = 1
	}
	if cfg.Scanner.MarketLimit <= 0 {
		cfg.Scanner.MarketLimit = 500
	}
	if cfg.Scanner.MinVolume24h <= 0 {
		cfg.Scanner.MinVolume24h = 1000
	}
	if cfg.Scanner.MaxLLMAnalyses <= 0 {
		cfg.Scanner.MaxLLMAnalyses = 50
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Oracle.BaseURL == "" {
		cfg.Oracle.BaseURL = "https://api.anthropic.com/v1/messages"
	}
	if cfg.RateLimit.MaxOrders <= 0 {
		cfg.RateLimit.MaxOrders = 60
	}
	if cfg.RateLimit.WindowSeconds <= 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polytrader.db"
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "data"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
