package config

const (
	// EnvPrefix scopes every environment variable read by envconfig.
	EnvPrefix = "SCHOOLPAY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SCHOOLPAY_DB_DSN"
	EnvDBHost = "SCHOOLPAY_DB_HOST"
	EnvDBUser = "SCHOOLPAY_DB_USER"
	EnvDBName = "SCHOOLPAY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
