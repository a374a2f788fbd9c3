package config

// EnvPrefix is empty because every field declares its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	GatewayStripe = "stripe"
	GatewaySquare = "square"
)

const (
	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"
	EnvCORS     = "STOREFRONT_CORS_ALLOWED_ORIGINS"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer = "STOREFRONT_JWT_ISSUER"

	EnvCheckoutCurrency  = "STOREFRONT_CHECKOUT_CURRENCY"
	EnvCheckoutCountries = "STOREFRONT_CHECKOUT_ALLOWED_COUNTRIES"
	EnvCheckoutGuest     = "STOREFRONT_CHECKOUT_ALLOW_GUEST"
	EnvCheckoutBaseURL   = "STOREFRONT_CHECKOUT_BASE_URL"
	EnvCheckoutGateway   = "STOREFRONT_CHECKOUT_GATEWAY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
