package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable this service reads.
	EnvPrefix = "QRSHOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App     AppConfig
	Service ServiceConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Ledger  LedgerConfig
	Cron    CronConfig
	Flags   FeatureFlagsConfig
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
	Env          string `envconfig:"QRSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"QRSHOP_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"QRSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"QRSHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"QRSHOP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"QRSHOP_DB_DSN"`
	Driver string `envconfig:"QRSHOP_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"QRSHOP_DB_HOST"`
	Port     int    `envconfig:"QRSHOP_DB_PORT" default:"5432"`
	User     string `envconfig:"QRSHOP_DB_USER"`
	Password string `envconfig:"QRSHOP_DB_PASSWORD"`
	Name     string `envconfig:"QRSHOP_DB_NAME"`
	SSLMode  string `envconfig:"QRSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"QRSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QRSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QRSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QRSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.Host == "" || db.User == "" || db.Name == "" {
		return fmt.Errorf("database DSN or host/user/name settings are required")
	}
	db.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(db.User),
		url.QueryEscape(db.Password),
		db.Host,
		db.Port,
		db.Name,
		db.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"QRSHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"QRSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"QRSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"QRSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QRSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QRSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QRSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QRSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QRSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"QRSHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"QRSHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"QRSHOP_JWT_EXPIRATION_MINUTES" default:"60"`
}

// LedgerConfig tunes the balance ledger and the reward distributor.
type LedgerConfig struct {
	SpinCostPoints      int64         `envconfig:"QRSHOP_SPIN_COST_POINTS" default:"100"`
	ProfileCacheTTL     time.Duration `envconfig:"QRSHOP_PROFILE_CACHE_TTL" default:"5m"`
	HistoryPageLimit    int           `envconfig:"QRSHOP_HISTORY_PAGE_LIMIT" default:"20"`
	HistoryPageMax      int           `envconfig:"QRSHOP_HISTORY_PAGE_MAX" default:"50"`
	PendingTxTTL        time.Duration `envconfig:"QRSHOP_PENDING_TX_TTL" default:"24h"`
	NotificationMaxAge  time.Duration `envconfig:"QRSHOP_NOTIFICATION_MAX_AGE" default:"720h"`
	IdempotencyTTL      time.Duration `envconfig:"QRSHOP_IDEMPOTENCY_TTL" default:"168h"`
	IdempotencyTTLShort time.Duration `envconfig:"QRSHOP_IDEMPOTENCY_TTL_SHORT" default:"24h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"QRSHOP_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"QRSHOP_CRON_LOCK_TTL" default:"55m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"QRSHOP_AUTO_MIGRATE" default:"false"`
}
