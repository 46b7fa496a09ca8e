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
	PasswordReset PasswordResetConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	CORS          CORSConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Razorpay      RazorpayConfig
	Email         EmailConfig
	Kafka         KafkaConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate checks settings that only make sense together.
func (c *Config) validate() error {
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("URBANCART_KAFKA_BROKERS is required when kafka is enabled")
	}
	if (c.Razorpay.KeyID == "") != (c.Razorpay.KeySecret == "") {
		return fmt.Errorf("URBANCART_RAZORPAY_KEY_ID and URBANCART_RAZORPAY_KEY_SECRET must be set together")
	}
	if c.Razorpay.DeliveryFee < 0 {
		return fmt.Errorf("URBANCART_DELIVERY_FEE must not be negative")
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"URBANCART_APP_ENV" required:"true"`
	Port         string `envconfig:"URBANCART_APP_PORT" required:"true"`
	ServiceName  string `envconfig:"URBANCART_SERVICE_NAME" default:"urbancart-backend"`
	LogLevel     string `envconfig:"URBANCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"URBANCART_LOG_WARN_STACK" default:"false"`
	// Debug relaxes cookie attributes for local http frontends.
	Debug   bool   `envconfig:"URBANCART_DEBUG" default:"false"`
	SiteURL string `envconfig:"URBANCART_SITE_URL" default:"https://urbancart.com"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"URBANCART_DB_DSN"`
	Driver string `envconfig:"URBANCART_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"URBANCART_DB_HOST"`
	Port     int    `envconfig:"URBANCART_DB_PORT" default:"5432"`
	User     string `envconfig:"URBANCART_DB_USER"`
	Password string `envconfig:"URBANCART_DB_PASSWORD"`
	Name     string `envconfig:"URBANCART_DB_NAME"`
	SSLMode  string `envconfig:"URBANCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"URBANCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"URBANCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"URBANCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"URBANCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"URBANCART_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"URBANCART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"URBANCART_REDIS_ADDR"`
	Password     string        `envconfig:"URBANCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"URBANCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"URBANCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"URBANCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"URBANCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"URBANCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"URBANCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"URBANCART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"URBANCART_JWT_ISSUER" default:"urbancart"`
	AccessTTLMinutes  int    `envconfig:"URBANCART_JWT_ACCESS_TTL_MINUTES" default:"15"`
	RefreshTTLMinutes int    `envconfig:"URBANCART_JWT_REFRESH_TTL_MINUTES" default:"1440"`
}

// AccessTTL returns the access token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	if j.AccessTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.AccessTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"URBANCART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"URBANCART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"URBANCART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"URBANCART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"URBANCART_ARGON_KEY_LEN" default:"32"`
}

type PasswordResetConfig struct {
	// Secret signs reset tokens. Falls back to the JWT secret when empty.
	Secret     string `envconfig:"URBANCART_PASSWORD_RESET_SECRET"`
	TTLMinutes int    `envconfig:"URBANCART_PASSWORD_RESET_TTL_MINUTES" default:"60"`
}

func (p PasswordResetConfig) TTL() time.Duration {
	if p.TTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(p.TTLMinutes) * time.Minute
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"URBANCART_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"URBANCART_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"URBANCART_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"URBANCART_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"URBANCART_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"URBANCART_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	ResetWindow        time.Duration `envconfig:"URBANCART_AUTH_RATE_LIMIT_RESET_WINDOW" default:"15m"`
	ResetEmailLimit    int           `envconfig:"URBANCART_AUTH_RATE_LIMIT_RESET_EMAIL_LIMIT" default:"3"`
	ResetIPLimit       int           `envconfig:"URBANCART_AUTH_RATE_LIMIT_RESET_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"URBANCART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"URBANCART_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"URBANCART_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"URBANCART_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"URBANCART_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"URBANCART_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"URBANCART_GCS_BUCKET_NAME"`
	PublicBaseURL string `envconfig:"URBANCART_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	MaxUploadMB   int    `envconfig:"URBANCART_MAX_UPLOAD_MB" default:"10"`
}

// Enabled reports whether media storage has been configured.
func (g GCSConfig) Enabled() bool {
	return strings.TrimSpace(g.BucketName) != ""
}

type RazorpayConfig struct {
	KeyID       string `envconfig:"URBANCART_RAZORPAY_KEY_ID"`
	KeySecret   string `envconfig:"URBANCART_RAZORPAY_KEY_SECRET"`
	Currency    string `envconfig:"URBANCART_RAZORPAY_CURRENCY" default:"INR"`
	DeliveryFee int64  `envconfig:"URBANCART_DELIVERY_FEE" default:"45"`
}

type EmailConfig struct {
	SMTPHost     string        `envconfig:"URBANCART_SMTP_HOST" default:"smtp-relay.brevo.com"`
	SMTPPort     int           `envconfig:"URBANCART_SMTP_PORT" default:"587"`
	SMTPUser     string        `envconfig:"URBANCART_SMTP_USER"`
	SMTPPassword string        `envconfig:"URBANCART_SMTP_PASSWORD"`
	SSL          bool          `envconfig:"URBANCART_SMTP_SSL" default:"false"`
	FromEmail    string        `envconfig:"URBANCART_EMAIL_FROM" default:"no-reply@urbancart.com"`
	FromName     string        `envconfig:"URBANCART_EMAIL_FROM_NAME" default:"Urbancart"`
	Timeout      time.Duration `envconfig:"URBANCART_SMTP_TIMEOUT" default:"10s"`
}

type KafkaConfig struct {
	Enabled    bool     `envconfig:"URBANCART_KAFKA_ENABLED" default:"false"`
	Brokers    []string `envconfig:"URBANCART_KAFKA_BROKERS"`
	OrderTopic string   `envconfig:"URBANCART_KAFKA_ORDER_TOPIC" default:"urbancart.orders"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = "file:urbancart.db?cache=shared"
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range legacyDBEnvVars {
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
