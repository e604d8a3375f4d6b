package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "KINBECH_APP_ENV"
	EnvPort      = "KINBECH_APP_PORT"
	EnvDBDSN     = "KINBECH_DB_DSN"
	EnvRedisURL  = "KINBECH_REDIS_URL"
	EnvJWTSecret = "KINBECH_JWT_SECRET"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Orders       OrdersConfig
	Gateways     GatewayConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"KINBECH_APP_ENV" required:"true"`
	Port         string `envconfig:"KINBECH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KINBECH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KINBECH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KINBECH_DB_DSN"`
	Driver string `envconfig:"KINBECH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KINBECH_DB_HOST"`
	LegacyPort     int    `envconfig:"KINBECH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KINBECH_DB_USER"`
	LegacyPassword string `envconfig:"KINBECH_DB_PASSWORD"`
	LegacyName     string `envconfig:"KINBECH_DB_NAME"`
	LegacySSLMode  string `envconfig:"KINBECH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KINBECH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KINBECH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KINBECH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KINBECH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("either KINBECH_DB_DSN or KINBECH_DB_HOST/USER/NAME must be set")
	}
	userInfo := url.User(d.LegacyUser)
	if d.LegacyPassword != "" {
		userInfo = url.UserPassword(d.LegacyUser, d.LegacyPassword)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:     d.LegacyName,
		RawQuery: "sslmode=" + d.LegacySSLMode,
	}
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"KINBECH_REDIS_URL"`
	Address      string        `envconfig:"KINBECH_REDIS_ADDR"`
	Password     string        `envconfig:"KINBECH_REDIS_PASSWORD"`
	DB           int           `envconfig:"KINBECH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KINBECH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KINBECH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KINBECH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KINBECH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KINBECH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KINBECH_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KINBECH_JWT_ISSUER" default:"kinbech"`
	ExpirationMinutes int    `envconfig:"KINBECH_JWT_EXPIRATION_MINUTES" default:"60"`
}

type OrdersConfig struct {
	// PendingTTL is the window a PENDING order has before the expiry sweep
	// cancels it and restores its stock.
	PendingTTL    time.Duration `envconfig:"KINBECH_ORDER_PENDING_TTL" default:"30m"`
	SweepInterval time.Duration `envconfig:"KINBECH_ORDER_SWEEP_INTERVAL" default:"1m"`
	SweepLockKey  string        `envconfig:"KINBECH_ORDER_SWEEP_LOCK_KEY" default:"kinbech:cron:order-expiry"`
	SweepLockTTL  time.Duration `envconfig:"KINBECH_ORDER_SWEEP_LOCK_TTL" default:"5m"`
}

type GatewayConfig struct {
	EsewaProductCode string `envconfig:"KINBECH_ESEWA_PRODUCT_CODE" default:"EPAYTEST"`
	EsewaSecret      string `envconfig:"KINBECH_ESEWA_SECRET"`
	EsewaBaseURL     string `envconfig:"KINBECH_ESEWA_BASE_URL" default:"https://rc-epay.esewa.com.np"`
	KhaltiSecretKey  string `envconfig:"KINBECH_KHALTI_SECRET_KEY"`
	KhaltiBaseURL    string `envconfig:"KINBECH_KHALTI_BASE_URL" default:"https://a.khalti.com"`
	ReturnBaseURL    string `envconfig:"KINBECH_GATEWAY_RETURN_BASE_URL" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"KINBECH_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"KINBECH_AUTO_MIGRATE" default:"false"`
}
