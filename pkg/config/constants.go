package config

// EnvPrefix is passed to envconfig when processing the environment.
const EnvPrefix = "glados"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "GLADOS_DB_DSN"
	EnvDBHost = "GLADOS_DB_HOST"
	EnvDBUser = "GLADOS_DB_USER"
	EnvDBName = "GLADOS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
