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
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	Session       SessionConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Invitations   InvitationConfig
	Sendgrid      SendgridConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	cfg.App.BaseURL = strings.TrimRight(cfg.App.BaseURL, "/")
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"APP_ENV" default:"development"`
	Port         string   `envconfig:"APP_PORT" default:"5000"`
	BaseURL      string   `envconfig:"APP_BASE_URL" default:"http://localhost:5000"`
	CORSOrigins  []string `envconfig:"APP_CORS_ORIGINS" default:"http://localhost:5173"`
	LogLevel     string   `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "dev")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "prod")
}

type ServiceConfig struct {
	Kind string `envconfig:"SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"DATABASE_URL"`
	Driver string `envconfig:"DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DB_HOST"`
	LegacyPort     int    `envconfig:"DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DB_USER"`
	LegacyPassword string `envconfig:"DB_PASSWORD"`
	LegacyName     string `envconfig:"DB_NAME"`
	LegacySSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL" required:"true"`
	Address      string        `envconfig:"REDIS_ADDR"`
	Password     string        `envconfig:"REDIS_PASSWORD"`
	DB           int           `envconfig:"REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig drives the signed session cookie.
type SessionConfig struct {
	Secret     string        `envconfig:"SESSION_SECRET" required:"true"`
	Issuer     string        `envconfig:"SESSION_ISSUER" default:"sprinklerhub"`
	TTL        time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	CookieName string        `envconfig:"SESSION_COOKIE_NAME" default:"connect.sid"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	InvitationWindow   time.Duration `envconfig:"AUTH_RATE_LIMIT_INVITATION_WINDOW" default:"1m"`
	InvitationIPLimit  int           `envconfig:"AUTH_RATE_LIMIT_INVITATION_IP_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite            bool `envconfig:"USE_SQLITE" default:"false"`
	AutoMigrate          bool `envconfig:"AUTO_MIGRATE" default:"false"`
	AllowSupplierSignup  bool `envconfig:"FEATURE_ALLOW_SUPPLIER_SIGNUP" default:"false"`
	EmailDeliveryEnabled bool `envconfig:"FEATURE_EMAIL_DELIVERY" default:"true"`
}

// InvitationConfig bounds the tradie invitation workflow.
type InvitationConfig struct {
	TokenTTL         time.Duration `envconfig:"INVITATION_TOKEN_TTL" default:"168h"`
	DailyLimitPerPM  int           `envconfig:"INVITATION_DAILY_LIMIT" default:"50"`
	EmailHourlyLimit int           `envconfig:"INVITATION_EMAIL_HOURLY_LIMIT" default:"5"`
	StaleCancelAfter time.Duration `envconfig:"INVITATION_STALE_CANCEL_AFTER" default:"720h"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"SENDGRID_FROM_EMAIL" default:"noreply@sprinklerhub.com.au"`
	FromName    string `envconfig:"SENDGRID_FROM_NAME" default:"SprinklerHub"`
}

// Enabled reports whether outbound email can be attempted.
func (s SendgridConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

type CronConfig struct {
	NotificationRetention time.Duration `envconfig:"CRON_NOTIFICATION_RETENTION" default:"720h"`
	GuestCartRetention    time.Duration `envconfig:"CRON_GUEST_CART_RETENTION" default:"168h"`
	Interval              time.Duration `envconfig:"CRON_INTERVAL" default:"24h"`
	MetricsAddr           string        `envconfig:"CRON_METRICS_ADDR"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.Driver == "sqlite" {
		db.DSN = "file:sprinklerhub.db?_foreign_keys=on"
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
