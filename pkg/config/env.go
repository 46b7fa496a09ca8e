package config

const (
	EnvPrefix = "URBANCART"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "URBANCART_APP_ENV"
	EnvPort      = "URBANCART_APP_PORT"
	EnvDBDSN     = "URBANCART_DB_DSN"
	EnvDBHost    = "URBANCART_DB_HOST"
	EnvDBUser    = "URBANCART_DB_USER"
	EnvDBName    = "URBANCART_DB_NAME"
	EnvRedisURL  = "URBANCART_REDIS_URL"
	EnvJWTSecret = "URBANCART_JWT_SECRET"
	EnvJWTIssuer = "URBANCART_JWT_ISSUER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
