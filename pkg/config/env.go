package config

// EnvPrefix is empty: variable names are read verbatim from the envconfig tags.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv        = "APP_ENV"
	EnvPort          = "APP_PORT"
	EnvBaseURL       = "APP_BASE_URL"
	EnvDBDSN         = "DATABASE_URL"
	EnvDBHost        = "DB_HOST"
	EnvDBUser        = "DB_USER"
	EnvDBName        = "DB_NAME"
	EnvRedisURL      = "REDIS_URL"
	EnvSessionSecret = "SESSION_SECRET"
	EnvSendgridKey   = "SENDGRID_API_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
