package config

const (
	EnvPrefix = "facturex"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "FACTUREX_APP_ENV"
	EnvPort     = "FACTUREX_APP_PORT"
	EnvDBDSN    = "FACTUREX_DB_DSN"
	EnvDBHost   = "FACTUREX_DB_HOST"
	EnvDBUser   = "FACTUREX_DB_USER"
	EnvDBName   = "FACTUREX_DB_NAME"
	EnvRedisURL = "FACTUREX_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
