package config

// EnvPrefix is applied by envconfig when resolving variables without an
// explicit envconfig tag.
const EnvPrefix = "FLIPEARN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "FLIPEARN_DB_DSN"
	EnvDBHost = "FLIPEARN_DB_HOST"
	EnvDBUser = "FLIPEARN_DB_USER"
	EnvDBName = "FLIPEARN_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
