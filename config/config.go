package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot.
type Config struct {
	Stream  StreamConfig  `yaml:"stream"`
	API     APIConfig     `yaml:"api"`
	Markets MarketsConfig `yaml:"markets"`
	Staking StakingConfig `yaml:"staking"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`

	// Credenciales — solo desde variables de entorno, nunca del YAML.
	Credentials Credentials `yaml:"-"`
}

// StreamConfig controla la conexión al Exchange Stream API.
type StreamConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	ReconnectSeconds      int    `yaml:"reconnect_seconds"`
	StatusIntervalSeconds int    `yaml:"status_interval_seconds"`
}

// APIConfig contiene los base URLs del API REST (betting + login).
type APIConfig struct {
	BettingBase string `yaml:"betting_base"`
	LoginBase   string `yaml:"login_base"`
}

// MarketsConfig controla qué mercados se cargan al arrancar.
type MarketsConfig struct {
	EventTypeID string `yaml:"event_type_id"` // "2" = tenis
	MarketType  string `yaml:"market_type"`   // MATCH_ODDS
	MaxMarkets  int    `yaml:"max_markets"`
}

// StakingConfig controla la estrategia de apuestas.
type StakingConfig struct {
	InitialBalance    float64 `yaml:"initial_balance"`
	Percentage        float64 `yaml:"percentage"` // fracción del balance por apuesta
	Commission        float64 `yaml:"commission"` // comisión del exchange sobre ganancias
	MinStake          float64 `yaml:"min_stake"`
	Policy            string  `yaml:"policy"` // direct | aggressive
	TestTargetOdds    float64 `yaml:"test_target_odds"`
	TestOddsTolerance float64 `yaml:"test_odds_tolerance"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN       string `yaml:"dsn"`        // ruta al archivo SQLite, o ":memory:"
	EventsDir string `yaml:"events_dir"` // directorio de logs JSONL por evento
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Credentials son las credenciales de Betfair cargadas del entorno.
type Credentials struct {
	AppKey   string
	Username string
	Password string
	CertFile string
	KeyFile  string
	Session  string // token ya emitido; si está presente se omite el login
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las credenciales vienen exclusivamente de variables de entorno.
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

// ReconnectDelay devuelve el delay de reconexión como time.Duration.
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Stream.ReconnectSeconds) * time.Second
}

// StatusInterval devuelve cada cuánto se imprime el reporte de estado.
func (c *Config) StatusInterval() time.Duration {
	return time.Duration(c.Stream.StatusIntervalSeconds) * time.Second
}

// StreamAddr devuelve host:port del stream.
func (c *Config) StreamAddr() string {
	return fmt.Sprintf("%s:%d", c.Stream.Host, c.Stream.Port)
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	cfg.Credentials = Credentials{
		AppKey:   os.Getenv("BETFAIR_APP_KEY"),
		Username: os.Getenv("BETFAIR_USERNAME"),
		Password: os.Getenv("BETFAIR_PASSWORD"),
		CertFile: os.Getenv("BETFAIR_CERT_FILE"),
		KeyFile:  os.Getenv("BETFAIR_KEY_FILE"),
		Session:  os.Getenv("BETFAIR_SESSION"),
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Stream.Host == "" {
		cfg.Stream.Host = "stream-api.betfair.com"
	}
	if cfg.Stream.Port <= 0 {
		cfg.Stream.Port = 443
	}
	if cfg.Stream.ReconnectSeconds <= 0 {
		cfg.Stream.ReconnectSeconds = 20
	}
	if cfg.Stream.StatusIntervalSeconds <= 0 {
		cfg.Stream.StatusIntervalSeconds = 60
	}
	if cfg.API.BettingBase == "" {
		cfg.API.BettingBase = "https://api.betfair.com/exchange/betting/rest/v1.0"
	}
	if cfg.API.LoginBase == "" {
		cfg.API.LoginBase = "https://identitysso-cert.betfair.com/api"
	}
	if cfg.Markets.EventTypeID == "" {
		cfg.Markets.EventTypeID = "2"
	}
	if cfg.Markets.MarketType == "" {
		cfg.Markets.MarketType = "MATCH_ODDS"
	}
	if cfg.Markets.MaxMarkets <= 0 {
		cfg.Markets.MaxMarkets = 100
	}
	if cfg.Staking.InitialBalance <= 0 {
		cfg.Staking.InitialBalance = 100
	}
	if cfg.Staking.Percentage <= 0 {
		cfg.Staking.Percentage = 0.10
	}
	if cfg.Staking.Commission <= 0 {
		cfg.Staking.Commission = 0.05
	}
	if cfg.Staking.MinStake <= 0 {
		cfg.Staking.MinStake = 1.0
	}
	if cfg.Staking.Policy == "" {
		cfg.Staking.Policy = "direct"
	}
	if cfg.Staking.TestTargetOdds <= 0 {
		cfg.Staking.TestTargetOdds = 1.5
	}
	if cfg.Staking.TestOddsTolerance <= 0 {
		cfg.Staking.TestOddsTolerance = 0.05
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "underdog.db"
	}
	if cfg.Storage.EventsDir == "" {
		cfg.Storage.EventsDir = "events"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
