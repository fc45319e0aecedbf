package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App          App          `mapstructure:",squash"`
	Server       Server       `mapstructure:",squash"`
	Database     Database     `mapstructure:",squash"`
	Redis        Redis        `mapstructure:",squash"`
	Meta         Meta         `mapstructure:",squash"`
	Auth         Auth         `mapstructure:",squash"`
	RateLimit    RateLimit    `mapstructure:",squash"`
	Enrichment   Enrichment   `mapstructure:",squash"`
	TokenRefresh TokenRefresh `mapstructure:",squash"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Server struct {
	Host           string   `mapstructure:"host"`
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	// TrustedProxies são os CIDRs dos proxies reversos autorizados a informar X-Forwarded-For
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type Database struct {
	DSN      string `mapstructure:"-"`
	Driver   string `mapstructure:"database_driver"`
	Password string `mapstructure:"database_password"`
	URL      string `mapstructure:"database_url"`
	User     string `mapstructure:"database_user"`
}

type Redis struct {
	URL string `mapstructure:"redis_url"`
}

type Meta struct {
	BaseURL           string        `mapstructure:"meta_base_url"`
	Version           string        `mapstructure:"meta_version"`
	URL               string        `mapstructure:"-"`
	AppID             string        `mapstructure:"meta_app_id"`
	AppSecret         string        `mapstructure:"meta_app_secret"`
	RequestTimeout    time.Duration `mapstructure:"meta_request_timeout"`
	RequestsPerSecond float64       `mapstructure:"meta_requests_per_second"`
	RequestBurst      int           `mapstructure:"meta_request_burst"`
}

// Auth guarda o segredo HS256 do provedor de identidade que emite os bearer tokens
type Auth struct {
	Secret string `mapstructure:"auth_secret"`
}

type RateLimit struct {
	Store       string        `mapstructure:"rate_limit_store"`
	ProxyMax    int           `mapstructure:"proxy_rate_limit_max"`
	ProxyWindow time.Duration `mapstructure:"proxy_rate_limit_window"`
	AuthMax     int           `mapstructure:"auth_rate_limit_max"`
	AuthWindow  time.Duration `mapstructure:"auth_rate_limit_window"`
	SweepCron   string        `mapstructure:"rate_limit_sweep_cron"`
}

type Enrichment struct {
	DatePreset     string        `mapstructure:"enrichment_date_preset"`
	MaxConcurrency int           `mapstructure:"enrichment_max_concurrency"`
	ItemTimeout    time.Duration `mapstructure:"enrichment_item_timeout"`
	Deadline       time.Duration `mapstructure:"enrichment_deadline"`
}

type TokenRefresh struct {
	CronSchedule string        `mapstructure:"token_refresh_cron"`
	Threshold    time.Duration `mapstructure:"token_refresh_threshold"`
	Enabled      bool          `mapstructure:"token_refresh_enabled"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 8000)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	viper.SetDefault("TRUSTED_PROXIES", "")

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/insights?sslmode=disable")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")

	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")

	viper.SetDefault("META_BASE_URL", "https://graph.facebook.com")
	viper.SetDefault("META_VERSION", "v22.0")
	viper.SetDefault("META_APP_ID", "your_app_id")
	viper.SetDefault("META_APP_SECRET", "")
	viper.SetDefault("META_REQUEST_TIMEOUT", "15s")
	viper.SetDefault("META_REQUESTS_PER_SECOND", 20)
	viper.SetDefault("META_REQUEST_BURST", 20)

	viper.SetDefault("AUTH_SECRET", "your_secret_key")

	// memory mantém os contadores no processo; redis compartilha entre réplicas
	viper.SetDefault("RATE_LIMIT_STORE", "memory")
	viper.SetDefault("PROXY_RATE_LIMIT_MAX", 60)
	viper.SetDefault("PROXY_RATE_LIMIT_WINDOW", "60s")
	viper.SetDefault("AUTH_RATE_LIMIT_MAX", 20)
	viper.SetDefault("AUTH_RATE_LIMIT_WINDOW", "60s")
	viper.SetDefault("RATE_LIMIT_SWEEP_CRON", "*/5 * * * *") // A cada 5 minutos

	viper.SetDefault("ENRICHMENT_DATE_PRESET", "last_7d")
	viper.SetDefault("ENRICHMENT_MAX_CONCURRENCY", 10)
	viper.SetDefault("ENRICHMENT_ITEM_TIMEOUT", "10s")
	viper.SetDefault("ENRICHMENT_DEADLINE", "25s")

	viper.SetDefault("TOKEN_REFRESH_CRON", "0 3 * * *")  // Todos os dias às 3h da manhã
	viper.SetDefault("TOKEN_REFRESH_THRESHOLD", "168h") // Tokens que expiram nos próximos 7 dias
	viper.SetDefault("TOKEN_REFRESH_ENABLED", false)

	viper.SetDefault("LOG_LEVEL", "debug")
}

func NewConfig() (*Config, error) {
	loadEnvFile() // ONLY LOCAL

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Usando variáveis carregadas pelo godotenv (viper não conseguiu ler .env):", err)
	} else {
		logrus.Info("Arquivo .env lido pelo Viper com sucesso")
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.Meta.URL = fmt.Sprintf("%s/%s", config.Meta.BaseURL, config.Meta.Version)

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	return config, nil
}

// Validate verifica combinações de configuração que impediriam o proxy de funcionar
func (c *Config) Validate() error {
	if c.RateLimit.ProxyMax <= 0 || c.RateLimit.AuthMax <= 0 {
		return fmt.Errorf("config: limites de requisição devem ser positivos")
	}

	if c.RateLimit.ProxyWindow <= 0 || c.RateLimit.AuthWindow <= 0 {
		return fmt.Errorf("config: janelas de rate limit devem ser positivas")
	}

	switch c.RateLimit.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: RATE_LIMIT_STORE inválido: %q (valores aceitos: memory, redis)", c.RateLimit.Store)
	}

	if c.Enrichment.MaxConcurrency <= 0 {
		c.Enrichment.MaxConcurrency = 1
	}

	if c.Meta.RequestsPerSecond <= 0 {
		return fmt.Errorf("config: META_REQUESTS_PER_SECOND deve ser positivo")
	}

	return nil
}

// Função auxiliar para carregar o arquivo .env usando godotenv
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Não foi possível obter o diretório atual:", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
		filepath.Join(cwd, "../../.env"),
	}

	for _, location := range locations {
		err := godotenv.Load(location)
		if err == nil {
			logrus.Info("Arquivo .env carregado com sucesso de:", location)
			return
		}
	}

	logrus.Warn("Não foi possível carregar o arquivo .env de nenhuma localização conhecida")
}
