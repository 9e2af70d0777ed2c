package config

const (
	// EnvPrefix scopes all envconfig lookups.
	EnvPrefix = "AGROVET"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "AGROVET_DB_DSN"
	EnvDBHost = "AGROVET_DB_HOST"
	EnvDBUser = "AGROVET_DB_USER"
	EnvDBName = "AGROVET_DB_NAME"
)

var componentDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
