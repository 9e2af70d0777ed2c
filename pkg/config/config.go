package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	FeatureFlags  FeatureFlagsConfig
	AuthRateLimit AuthRateLimitConfig
	Checkout      CheckoutConfig
	PayPal        PayPalConfig
	Paymob        PaymobConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	StockWorker   StockWorkerConfig
	StateSync     StateSyncConfig
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
	Env          string `envconfig:"AGROVET_APP_ENV" required:"true"`
	Port         string `envconfig:"AGROVET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AGROVET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGROVET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AGROVET_DB_DSN"`
	Driver string `envconfig:"AGROVET_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"AGROVET_DB_HOST"`
	Port     int    `envconfig:"AGROVET_DB_PORT" default:"5432"`
	User     string `envconfig:"AGROVET_DB_USER"`
	Password string `envconfig:"AGROVET_DB_PASSWORD"`
	Name     string `envconfig:"AGROVET_DB_NAME"`
	SSLMode  string `envconfig:"AGROVET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGROVET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGROVET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGROVET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGROVET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AGROVET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AGROVET_REDIS_ADDR"`
	Password     string        `envconfig:"AGROVET_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGROVET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGROVET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGROVET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGROVET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGROVET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGROVET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"AGROVET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AGROVET_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"AGROVET_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AGROVET_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AGROVET_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AGROVET_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AGROVET_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AGROVET_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AGROVET_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AGROVET_AUTO_MIGRATE" default:"false"`
}

// AuthRateLimitConfig throttles the credential endpoints per IP and email.
type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"AGROVET_AUTH_RL_LOGIN_WINDOW" default:"5m"`
	LoginIPLimit       int           `envconfig:"AGROVET_AUTH_RL_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit    int           `envconfig:"AGROVET_AUTH_RL_LOGIN_EMAIL_LIMIT" default:"8"`
	RegisterWindow     time.Duration `envconfig:"AGROVET_AUTH_RL_REGISTER_WINDOW" default:"15m"`
	RegisterIPLimit    int           `envconfig:"AGROVET_AUTH_RL_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"AGROVET_AUTH_RL_REGISTER_EMAIL_LIMIT" default:"4"`
}

// CheckoutConfig tunes the payment callback guard slots.
type CheckoutConfig struct {
	GuardTTL               time.Duration `envconfig:"AGROVET_CHECKOUT_GUARD_TTL" default:"90s"`
	CreatedMarkerRetention time.Duration `envconfig:"AGROVET_CHECKOUT_CREATED_RETENTION" default:"5m"`
	DraftTTL               time.Duration `envconfig:"AGROVET_CHECKOUT_DRAFT_TTL" default:"1h"`
}

type PayPalConfig struct {
	BaseURL      string `envconfig:"AGROVET_PAYPAL_BASE_URL" default:"https://api-m.sandbox.paypal.com"`
	ClientID     string `envconfig:"AGROVET_PAYPAL_CLIENT_ID"`
	ClientSecret string `envconfig:"AGROVET_PAYPAL_CLIENT_SECRET"`
	Currency     string `envconfig:"AGROVET_PAYPAL_CURRENCY" default:"USD"`
}

type PaymobConfig struct {
	BaseURL             string `envconfig:"AGROVET_PAYMOB_BASE_URL" default:"https://accept.paymob.com/api"`
	APIKey              string `envconfig:"AGROVET_PAYMOB_API_KEY"`
	HMACSecret          string `envconfig:"AGROVET_PAYMOB_HMAC_SECRET"`
	CardIntegrationID   int    `envconfig:"AGROVET_PAYMOB_CARD_INTEGRATION_ID"`
	WalletIntegrationID int    `envconfig:"AGROVET_PAYMOB_WALLET_INTEGRATION_ID"`
	IframeID            string `envconfig:"AGROVET_PAYMOB_IFRAME_ID"`
	Currency            string `envconfig:"AGROVET_PAYMOB_CURRENCY" default:"EGP"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"AGROVET_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"AGROVET_PUBSUB_ORDERS_TOPIC" default:"agrovet-order-events"`
}

type StockWorkerConfig struct {
	Interval          time.Duration `envconfig:"AGROVET_STOCK_WORKER_INTERVAL" default:"15m"`
	LowStockThreshold int           `envconfig:"AGROVET_STOCK_LOW_THRESHOLD" default:"5"`
}

// StateSyncConfig tunes the background cart/favorites mirror writes.
type StateSyncConfig struct {
	MaxRetries   int           `envconfig:"AGROVET_STATE_SYNC_MAX_RETRIES" default:"3"`
	RetryBackoff time.Duration `envconfig:"AGROVET_STATE_SYNC_RETRY_BACKOFF" default:"250ms"`
	WriteTimeout time.Duration `envconfig:"AGROVET_STATE_SYNC_WRITE_TIMEOUT" default:"10s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range componentDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
