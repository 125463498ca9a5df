package config

import "time"

// EnvPrefix is handed to envconfig; every field carries an explicit name so the
// prefix only matters for unnamed fields.
const EnvPrefix = "PHARMALINK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	OrdersStoreMemory = "memory"
	OrdersStoreSQL    = "sql"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	maxSimulatedLatency = 5 * time.Second
)

const (
	EnvAppEnv        = "PHARMALINK_APP_ENV"
	EnvPort          = "PHARMALINK_APP_PORT"
	EnvLogLevel      = "PHARMALINK_LOG_LEVEL"
	EnvDBDSN         = "PHARMALINK_DB_DSN"
	EnvDBDriver      = "PHARMALINK_DB_DRIVER"
	EnvDBHost        = "PHARMALINK_DB_HOST"
	EnvDBUser        = "PHARMALINK_DB_USER"
	EnvDBName        = "PHARMALINK_DB_NAME"
	EnvRedisURL      = "PHARMALINK_REDIS_URL"
	EnvJWTSecret     = "PHARMALINK_JWT_SECRET"
	EnvOrdersStore   = "PHARMALINK_ORDERS_STORE"
	EnvOrdersLatency = "PHARMALINK_ORDERS_SIMULATED_LATENCY"
	EnvBackendURL    = "PHARMALINK_BACKEND_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
