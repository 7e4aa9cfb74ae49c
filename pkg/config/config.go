package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Shop          ShopConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if !cfg.DB.IsSQLite() && !cfg.DB.IsPostgres() {
		return nil, fmt.Errorf("unsupported %s %q", EnvDBDriver, cfg.DB.Driver)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"JOYERIA_APP_ENV" required:"true"`
	Port         string   `envconfig:"JOYERIA_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"JOYERIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"JOYERIA_LOG_WARN_STACK" default:"false"`
	LogFormat    string   `envconfig:"JOYERIA_LOG_FORMAT"`
	CORSOrigins  []string `envconfig:"JOYERIA_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"JOYERIA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"JOYERIA_DB_DSN"`
	Driver string `envconfig:"JOYERIA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"JOYERIA_DB_HOST"`
	Port     int    `envconfig:"JOYERIA_DB_PORT" default:"5432"`
	User     string `envconfig:"JOYERIA_DB_USER"`
	Password string `envconfig:"JOYERIA_DB_PASSWORD"`
	Name     string `envconfig:"JOYERIA_DB_NAME"`
	SSLMode  string `envconfig:"JOYERIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"JOYERIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"JOYERIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"JOYERIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"JOYERIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	TxMaxAttempts   int           `envconfig:"JOYERIA_DB_TX_MAX_ATTEMPTS" default:"3"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

func (db DBConfig) IsPostgres() bool {
	driver := strings.TrimSpace(db.Driver)
	return driver == "" || strings.EqualFold(driver, DBDriverPostgres)
}

type RedisConfig struct {
	URL          string        `envconfig:"JOYERIA_REDIS_URL"`
	Address      string        `envconfig:"JOYERIA_REDIS_ADDR"`
	Password     string        `envconfig:"JOYERIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"JOYERIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"JOYERIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"JOYERIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"JOYERIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"JOYERIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"JOYERIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"JOYERIA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"JOYERIA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"JOYERIA_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"JOYERIA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"JOYERIA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"JOYERIA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"JOYERIA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"JOYERIA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"JOYERIA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"JOYERIA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"JOYERIA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"JOYERIA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate        bool `envconfig:"JOYERIA_AUTO_MIGRATE" default:"false"`
	AdminRegistration  bool `envconfig:"JOYERIA_FEATURE_ADMIN_REGISTRATION" default:"false"`
	PublishOrderEvents bool `envconfig:"JOYERIA_FEATURE_PUBLISH_ORDER_EVENTS" default:"true"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"JOYERIA_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"JOYERIA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"JOYERIA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"JOYERIA_GCS_BUCKET_NAME" required:"true"`
	PublicBaseURL string `envconfig:"JOYERIA_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	APIBaseURL    string `envconfig:"JOYERIA_GCS_API_BASE_URL" default:"https://storage.googleapis.com"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"JOYERIA_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes converts the configured megabyte limit into bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(m.MaxUploadMB) << 20
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"JOYERIA_PUBSUB_ORDERS_TOPIC" default:"joyeria-order-events"`
	OrdersSubscription string `envconfig:"JOYERIA_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"JOYERIA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"JOYERIA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"JOYERIA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type ShopConfig struct {
	Currency             string          `envconfig:"JOYERIA_SHOP_CURRENCY" default:"MXN"`
	LocalDeliveryCost    decimal.Decimal `envconfig:"JOYERIA_SHOP_LOCAL_DELIVERY_COST" default:"60"`
	NationalShippingCost decimal.Decimal `envconfig:"JOYERIA_SHOP_NATIONAL_SHIPPING_COST" default:"150"`
	WhatsAppNumber       string          `envconfig:"JOYERIA_SHOP_WHATSAPP_NUMBER"`
	LowStockThreshold    int             `envconfig:"JOYERIA_SHOP_LOW_STOCK_THRESHOLD" default:"2"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"JOYERIA_CRON_INTERVAL" default:"1h"`
	PendingOrderMaxAge  time.Duration `envconfig:"JOYERIA_CRON_PENDING_ORDER_MAX_AGE" default:"72h"`
	OutboxRetentionDays int           `envconfig:"JOYERIA_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
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
