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
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Schemes      SchemesConfig
	Idempotency  IdempotencyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Schemes.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PROMOSCHEMES_APP_ENV" required:"true"`
	Port         string `envconfig:"PROMOSCHEMES_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PROMOSCHEMES_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"PROMOSCHEMES_LOG_FORMAT"`
	LogWarnStack bool   `envconfig:"PROMOSCHEMES_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PROMOSCHEMES_DB_DSN"`

	LegacyHost     string `envconfig:"PROMOSCHEMES_DB_HOST"`
	LegacyPort     int    `envconfig:"PROMOSCHEMES_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PROMOSCHEMES_DB_USER"`
	LegacyPassword string `envconfig:"PROMOSCHEMES_DB_PASSWORD"`
	LegacyName     string `envconfig:"PROMOSCHEMES_DB_NAME"`
	LegacySSLMode  string `envconfig:"PROMOSCHEMES_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PROMOSCHEMES_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PROMOSCHEMES_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PROMOSCHEMES_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROMOSCHEMES_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"PROMOSCHEMES_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PROMOSCHEMES_REDIS_URL"`
	Address      string        `envconfig:"PROMOSCHEMES_REDIS_ADDR"`
	Password     string        `envconfig:"PROMOSCHEMES_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROMOSCHEMES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROMOSCHEMES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROMOSCHEMES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROMOSCHEMES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROMOSCHEMES_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROMOSCHEMES_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PROMOSCHEMES_AUTO_MIGRATE" default:"false"`
}

// SchemesConfig tunes rule evaluation.
type SchemesConfig struct {
	// StrictLookups makes the apply hook skip a scheme whose item-group expansion
	// failed instead of treating its item scope as unrestricted.
	StrictLookups bool   `envconfig:"PROMOSCHEMES_SCHEMES_STRICT_LOOKUPS" default:"true"`
	OverlapLimit  int    `envconfig:"PROMOSCHEMES_SCHEMES_OVERLAP_LIMIT" default:"50"`
	Timezone      string `envconfig:"PROMOSCHEMES_SCHEMES_TIMEZONE" default:"UTC"`
}

// Location resolves the timezone used to compute the evaluation date.
func (s SchemesConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(s.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvSchemesTimezone, name, err)
	}
	return loc, nil
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"PROMOSCHEMES_IDEMPOTENCY_TTL" default:"24h"`
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
