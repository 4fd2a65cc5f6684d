package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "GREENLOOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "GREENLOOP_DB_DSN"
	EnvDBHost = "GREENLOOP_DB_HOST"
	EnvDBUser = "GREENLOOP_DB_USER"
	EnvDBName = "GREENLOOP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Rewards RewardsConfig
	Wallet  WalletConfig
	Outbox  OutboxConfig
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
	Env          string `envconfig:"GREENLOOP_APP_ENV" required:"true"`
	Port         string `envconfig:"GREENLOOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GREENLOOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GREENLOOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GREENLOOP_DB_DSN"`
	Driver string `envconfig:"GREENLOOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GREENLOOP_DB_HOST"`
	LegacyPort     int    `envconfig:"GREENLOOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GREENLOOP_DB_USER"`
	LegacyPassword string `envconfig:"GREENLOOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"GREENLOOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"GREENLOOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GREENLOOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GREENLOOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GREENLOOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GREENLOOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"GREENLOOP_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GREENLOOP_REDIS_URL"`
	Address      string        `envconfig:"GREENLOOP_REDIS_ADDR"`
	Password     string        `envconfig:"GREENLOOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"GREENLOOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GREENLOOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GREENLOOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GREENLOOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GREENLOOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GREENLOOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type RewardsConfig struct {
	// PointsPerUnit is how many points buy one currency unit of cashback.
	PointsPerUnit int `envconfig:"GREENLOOP_REWARDS_POINTS_PER_UNIT" default:"19"`
}

type WalletConfig struct {
	DefaultGateway string `envconfig:"GREENLOOP_WALLET_DEFAULT_GATEWAY" default:"manual"`
}

type OutboxConfig struct {
	Channel        string `envconfig:"GREENLOOP_OUTBOX_CHANNEL" default:"greenloop.events"`
	BatchSize      int    `envconfig:"GREENLOOP_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"GREENLOOP_OUTBOX_POLL_INTERVAL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"GREENLOOP_OUTBOX_MAX_ATTEMPTS" default:"10"`
	MetricsPort    string `envconfig:"GREENLOOP_OUTBOX_METRICS_PORT" default:"9090"`
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
