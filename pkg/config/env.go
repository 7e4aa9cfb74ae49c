package config

const EnvPrefix = "JOYERIA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "JOYERIA_APP_ENV"
	EnvPort     = "JOYERIA_APP_PORT"
	EnvLogLevel = "JOYERIA_LOG_LEVEL"

	EnvDBDSN    = "JOYERIA_DB_DSN"
	EnvDBDriver = "JOYERIA_DB_DRIVER"
	EnvDBHost   = "JOYERIA_DB_HOST"
	EnvDBUser   = "JOYERIA_DB_USER"
	EnvDBName   = "JOYERIA_DB_NAME"

	EnvRedisURL = "JOYERIA_REDIS_URL"

	EnvJWTSecret  = "JOYERIA_JWT_SECRET"
	EnvJWTIssuer  = "JOYERIA_JWT_ISSUER"
	EnvJWTExpMins = "JOYERIA_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "JOYERIA_GCP_PROJECT_ID"
	EnvGCSBucket    = "JOYERIA_GCS_BUCKET_NAME"

	EnvPubSubOrdersTopic = "JOYERIA_PUBSUB_ORDERS_TOPIC"

	EnvShopLocalDeliveryCost = "JOYERIA_SHOP_LOCAL_DELIVERY_COST"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
