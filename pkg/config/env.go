package config

// EnvPrefix is passed to envconfig; individual fields carry fully qualified
// names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "WARETRACK_APP_ENV"
	EnvPort       = "WARETRACK_APP_PORT"
	EnvDBDSN      = "WARETRACK_DB_DSN"
	EnvDBHost     = "WARETRACK_DB_HOST"
	EnvDBUser     = "WARETRACK_DB_USER"
	EnvDBName     = "WARETRACK_DB_NAME"
	EnvRedisURL   = "WARETRACK_REDIS_URL"
	EnvJWTSecret  = "WARETRACK_JWT_SECRET"
	EnvJWTIssuer  = "WARETRACK_JWT_ISSUER"
	EnvJWTExpMins = "WARETRACK_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
