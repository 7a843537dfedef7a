package config

// EnvPrefix namespaces every environment variable read by envconfig.
const EnvPrefix = "SHIFTPAY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "SHIFTPAY_DB_DSN"
	EnvDBHost = "SHIFTPAY_DB_HOST"
	EnvDBUser = "SHIFTPAY_DB_USER"
	EnvDBName = "SHIFTPAY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
