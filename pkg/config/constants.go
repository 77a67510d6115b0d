package config

const EnvPrefix = "UPSELLKIT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv    = "UPSELLKIT_APP_ENV"
	EnvPort      = "UPSELLKIT_APP_PORT"
	EnvDBDSN     = "UPSELLKIT_DB_DSN"
	EnvDBHost    = "UPSELLKIT_DB_HOST"
	EnvDBUser    = "UPSELLKIT_DB_USER"
	EnvDBName    = "UPSELLKIT_DB_NAME"
	EnvRedisURL  = "UPSELLKIT_REDIS_URL"
	EnvJWTSecret = "UPSELLKIT_JWT_SECRET"
	EnvJWTIssuer = "UPSELLKIT_JWT_ISSUER"
	EnvJWTExp    = "UPSELLKIT_JWT_EXPIRATION_MINUTES"

	EnvShopifyShop      = "UPSELLKIT_SHOPIFY_SHOP"
	EnvShopifyToken     = "UPSELLKIT_SHOPIFY_ACCESS_TOKEN"
	EnvShopifyAPIKey    = "UPSELLKIT_SHOPIFY_API_KEY"
	EnvShopifyAPISecret = "UPSELLKIT_SHOPIFY_API_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
