package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Shopify      ShopifyConfig
	Enrichment   EnrichmentConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"UPSELLKIT_APP_ENV" required:"true"`
	Port         string `envconfig:"UPSELLKIT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"UPSELLKIT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"UPSELLKIT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"UPSELLKIT_DB_DSN"`
	Driver string `envconfig:"UPSELLKIT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"UPSELLKIT_DB_HOST"`
	LegacyPort     int    `envconfig:"UPSELLKIT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"UPSELLKIT_DB_USER"`
	LegacyPassword string `envconfig:"UPSELLKIT_DB_PASSWORD"`
	LegacyName     string `envconfig:"UPSELLKIT_DB_NAME"`
	LegacySSLMode  string `envconfig:"UPSELLKIT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"UPSELLKIT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"UPSELLKIT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"UPSELLKIT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"UPSELLKIT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"UPSELLKIT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"UPSELLKIT_REDIS_ADDR"`
	Password     string        `envconfig:"UPSELLKIT_REDIS_PASSWORD"`
	DB           int           `envconfig:"UPSELLKIT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"UPSELLKIT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"UPSELLKIT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"UPSELLKIT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"UPSELLKIT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"UPSELLKIT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"UPSELLKIT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"UPSELLKIT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"UPSELLKIT_JWT_EXPIRATION_MINUTES" required:"true"`
}

// ShopifyConfig carries the Admin API credentials for the installed shop and
// the app credentials used to verify checkout session tokens.
type ShopifyConfig struct {
	Shop        string        `envconfig:"UPSELLKIT_SHOPIFY_SHOP" required:"true"`
	AccessToken string        `envconfig:"UPSELLKIT_SHOPIFY_ACCESS_TOKEN" required:"true"`
	APIKey      string        `envconfig:"UPSELLKIT_SHOPIFY_API_KEY" required:"true"`
	APISecret   string        `envconfig:"UPSELLKIT_SHOPIFY_API_SECRET" required:"true"`
	APIVersion  string        `envconfig:"UPSELLKIT_SHOPIFY_API_VERSION" default:"2024-10"`
	BaseURL     string        `envconfig:"UPSELLKIT_SHOPIFY_BASE_URL"`
	HTTPTimeout time.Duration `envconfig:"UPSELLKIT_SHOPIFY_HTTP_TIMEOUT" default:"10s"`
}

// AdminURL returns the GraphQL endpoint for the configured shop. BaseURL
// overrides the host, which keeps the client pointable at a test server.
func (s ShopifyConfig) AdminURL() string {
	base := s.BaseURL
	if base == "" {
		base = "https://" + s.Shop
	}
	return fmt.Sprintf("%s/admin/api/%s/graphql.json", strings.TrimRight(base, "/"), s.APIVersion)
}

type EnrichmentConfig struct {
	FanOutLimit int           `envconfig:"UPSELLKIT_ENRICH_FANOUT_LIMIT" default:"4"`
	CacheTTL    time.Duration `envconfig:"UPSELLKIT_ENRICH_CACHE_TTL" default:"5m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"UPSELLKIT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"UPSELLKIT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
