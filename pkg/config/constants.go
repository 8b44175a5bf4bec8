package config

// EnvPrefix is passed to envconfig; individual fields carry explicit
// IMPULSOS_-prefixed names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "IMPULSOS_APP_ENV"
	EnvPort       = "IMPULSOS_APP_PORT"
	EnvDBDSN      = "IMPULSOS_DB_DSN"
	EnvDBHost     = "IMPULSOS_DB_HOST"
	EnvDBUser     = "IMPULSOS_DB_USER"
	EnvDBName     = "IMPULSOS_DB_NAME"
	EnvRedisURL   = "IMPULSOS_REDIS_URL"
	EnvJWTSecret  = "IMPULSOS_JWT_SECRET"
	EnvJWTIssuer  = "IMPULSOS_JWT_ISSUER"
	EnvJWTExpMins = "IMPULSOS_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
