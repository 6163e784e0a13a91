package config

// EnvPrefix is the envconfig namespace for every storefront variable.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	StorageDriverGCS  = "gcs"
	StorageDriverS3   = "s3"
	StorageDriverNone = "none"
)

const (
	EnvAppEnv                 = "STOREFRONT_APP_ENV"
	EnvPort                   = "STOREFRONT_APP_PORT"
	EnvLogLevel               = "STOREFRONT_LOG_LEVEL"
	EnvDBDSN                  = "STOREFRONT_DB_DSN"
	EnvDBDriver               = "STOREFRONT_DB_DRIVER"
	EnvDBHost                 = "STOREFRONT_DB_HOST"
	EnvDBUser                 = "STOREFRONT_DB_USER"
	EnvDBName                 = "STOREFRONT_DB_NAME"
	EnvUseSQLite              = "STOREFRONT_USE_SQLITE"
	EnvRedisURL               = "STOREFRONT_REDIS_URL"
	EnvJWTSecret              = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer              = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins             = "STOREFRONT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "STOREFRONT_REFRESH_TOKEN_TTL_MINUTES"
	EnvRazorpayKeyID          = "STOREFRONT_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret      = "STOREFRONT_RAZORPAY_KEY_SECRET"
	EnvStorageDriver          = "STOREFRONT_STORAGE_DRIVER"
	EnvGCSBucket              = "STOREFRONT_GCS_BUCKET_NAME"
	EnvKafkaBrokers           = "STOREFRONT_KAFKA_BROKERS"
	EnvESAddresses            = "STOREFRONT_ES_ADDRESSES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
