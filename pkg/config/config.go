package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Ledger       LedgerConfig
	Agent        AgentConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FACTUREX_APP_ENV" required:"true"`
	Port         string `envconfig:"FACTUREX_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FACTUREX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FACTUREX_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FACTUREX_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FACTUREX_DB_DSN"`
	Driver string `envconfig:"FACTUREX_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FACTUREX_DB_HOST"`
	LegacyPort     int    `envconfig:"FACTUREX_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FACTUREX_DB_USER"`
	LegacyPassword string `envconfig:"FACTUREX_DB_PASSWORD"`
	LegacyName     string `envconfig:"FACTUREX_DB_NAME"`
	LegacySSLMode  string `envconfig:"FACTUREX_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FACTUREX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FACTUREX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FACTUREX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FACTUREX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FACTUREX_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FACTUREX_REDIS_ADDR"`
	Password     string        `envconfig:"FACTUREX_REDIS_PASSWORD"`
	DB           int           `envconfig:"FACTUREX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FACTUREX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FACTUREX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FACTUREX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FACTUREX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FACTUREX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FACTUREX_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FACTUREX_AUTO_MIGRATE" default:"false"`
}

// LedgerConfig carries the money-handling defaults applied when an
// organization has no stored override.
type LedgerConfig struct {
	RateUSDToCDF        string        `envconfig:"FACTUREX_RATE_USD_CDF" default:"2200"`
	RateUSDToCNY        string        `envconfig:"FACTUREX_RATE_USD_CNY" default:"6.95"`
	TransferFeePercent  string        `envconfig:"FACTUREX_TRANSFER_FEE_PERCENT" default:"5"`
	OrderFeePercent     string        `envconfig:"FACTUREX_ORDER_FEE_PERCENT" default:"15"`
	PartnerFeePercent   string        `envconfig:"FACTUREX_PARTNER_FEE_PERCENT" default:"3"`
	BalanceWriteRetries int           `envconfig:"FACTUREX_BALANCE_WRITE_RETRIES" default:"1"`
	IdempotencyTTL      time.Duration `envconfig:"FACTUREX_IDEMPOTENCY_TTL" default:"24h"`
}

type AgentConfig struct {
	PendingTTL         time.Duration `envconfig:"FACTUREX_AGENT_PENDING_TTL" default:"5m"`
	MinConfidence      string        `envconfig:"FACTUREX_AGENT_MIN_CONFIDENCE" default:"0.3"`
	DefaultAccountName string        `envconfig:"FACTUREX_AGENT_DEFAULT_ACCOUNT" default:"Cash Bureau"`
	MessageRateLimit   int           `envconfig:"FACTUREX_AGENT_MESSAGE_RATE_LIMIT" default:"30"`
	MessageRateWindow  time.Duration `envconfig:"FACTUREX_AGENT_MESSAGE_RATE_WINDOW" default:"1m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
