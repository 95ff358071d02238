package config

// EnvPrefix is empty because every variable carries the VELURE_ prefix in its
// envconfig tag already.
const EnvPrefix = ""

const (
	AppEnvDev   = "development"
	AppEnvProd  = "production"
	AppEnvLocal = "local"
)

const (
	EnvAppEnv               = "VELURE_APP_ENV"
	EnvDBDSN                = "VELURE_DB_DSN"
	EnvDBHost               = "VELURE_DB_HOST"
	EnvDBUser               = "VELURE_DB_USER"
	EnvDBName               = "VELURE_DB_NAME"
	EnvURLCacheTTL          = "VELURE_URL_CACHE_TTL"
	EnvURLCacheSafetyMargin = "VELURE_URL_CACHE_SAFETY_MARGIN"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
