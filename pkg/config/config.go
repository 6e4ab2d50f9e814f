package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	DB       DBConfig
	Redis    RedisConfig
	Identity IdentityConfig
	Eventing EventingConfig
	GCP      GCPConfig
	PubSub   PubSubConfig
	Outbox   OutboxConfig
	Stripe   StripeConfig
	Sendgrid SendgridConfig
	Limits   RateLimitConfig
	Flags    FeatureFlagsConfig
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
	Env          string `envconfig:"FLIPEARN_APP_ENV" required:"true"`
	Port         string `envconfig:"FLIPEARN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FLIPEARN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLIPEARN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FLIPEARN_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FLIPEARN_DB_DSN"`
	Driver string `envconfig:"FLIPEARN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FLIPEARN_DB_HOST"`
	LegacyPort     int    `envconfig:"FLIPEARN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FLIPEARN_DB_USER"`
	LegacyPassword string `envconfig:"FLIPEARN_DB_PASSWORD"`
	LegacyName     string `envconfig:"FLIPEARN_DB_NAME"`
	LegacySSLMode  string `envconfig:"FLIPEARN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FLIPEARN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FLIPEARN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FLIPEARN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLIPEARN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLIPEARN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FLIPEARN_REDIS_ADDR"`
	Password     string        `envconfig:"FLIPEARN_REDIS_PASSWORD"`
	DB           int           `envconfig:"FLIPEARN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FLIPEARN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLIPEARN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLIPEARN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLIPEARN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FLIPEARN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// IdentityConfig describes the external identity provider: the key used to
// verify its access tokens, the shared secret on its webhook, and the email
// allow-list that grants the admin role.
type IdentityConfig struct {
	JWTSecret     string `envconfig:"FLIPEARN_IDENTITY_JWT_SECRET" required:"true"`
	JWTIssuer     string `envconfig:"FLIPEARN_IDENTITY_JWT_ISSUER" required:"true"`
	WebhookSecret string `envconfig:"FLIPEARN_IDENTITY_WEBHOOK_SECRET"`
	AdminEmails   string `envconfig:"FLIPEARN_ADMIN_EMAILS"`
}

// AdminEmailList returns the normalized admin email allow-list.
func (i IdentityConfig) AdminEmailList() []string {
	if strings.TrimSpace(i.AdminEmails) == "" {
		return nil
	}
	parts := strings.Split(i.AdminEmails, ",")
	emails := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(p)); trimmed != "" {
			emails = append(emails, trimmed)
		}
	}
	return emails
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"FLIPEARN_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	WebhookIdempotencyTTL time.Duration `envconfig:"FLIPEARN_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FLIPEARN_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"FLIPEARN_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FLIPEARN_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"FLIPEARN_PUBSUB_NOTIFICATION_TOPIC" default:"fe-notification-events"`
	NotificationSubscription string `envconfig:"FLIPEARN_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FLIPEARN_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FLIPEARN_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FLIPEARN_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"FLIPEARN_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"FLIPEARN_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"FLIPEARN_STRIPE_ENV" default:"test"`
	CheckoutSuccessURL string `envconfig:"FLIPEARN_STRIPE_CHECKOUT_SUCCESS_URL"`
	CheckoutCancelURL  string `envconfig:"FLIPEARN_STRIPE_CHECKOUT_CANCEL_URL"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SendgridConfig struct {
	APIKey      string `envconfig:"FLIPEARN_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"FLIPEARN_SENDGRID_FROM_EMAIL"`
	SupportEmail string `envconfig:"FLIPEARN_SUPPORT_EMAIL" default:"support@flipearn.app"`
}

type RateLimitConfig struct {
	Window    time.Duration `envconfig:"FLIPEARN_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit   int           `envconfig:"FLIPEARN_RATE_LIMIT_IP" default:"120"`
	UserLimit int           `envconfig:"FLIPEARN_RATE_LIMIT_USER" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FLIPEARN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FLIPEARN_AUTO_MIGRATE" default:"false"`
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
