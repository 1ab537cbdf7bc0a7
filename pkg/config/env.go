package config

// EnvPrefix is handed to envconfig; every field carries an explicit name so it is
// only used for error messages.
const EnvPrefix = "PROMOSCHEMES"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv          = "PROMOSCHEMES_APP_ENV"
	EnvPort            = "PROMOSCHEMES_APP_PORT"
	EnvLogLevel        = "PROMOSCHEMES_LOG_LEVEL"
	EnvDBDSN           = "PROMOSCHEMES_DB_DSN"
	EnvDBHost          = "PROMOSCHEMES_DB_HOST"
	EnvDBUser          = "PROMOSCHEMES_DB_USER"
	EnvDBName          = "PROMOSCHEMES_DB_NAME"
	EnvDBPassword      = "PROMOSCHEMES_DB_PASSWORD"
	EnvRedisURL        = "PROMOSCHEMES_REDIS_URL"
	EnvStrictLookups   = "PROMOSCHEMES_SCHEMES_STRICT_LOOKUPS"
	EnvSchemesTimezone = "PROMOSCHEMES_SCHEMES_TIMEZONE"
	EnvIdempotencyTTL  = "PROMOSCHEMES_IDEMPOTENCY_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
