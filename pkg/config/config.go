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
	WorkSuite    WorkSuiteConfig
	Payroll      PayrollConfig
	Sync         SyncConfig
	FeatureFlags FeatureFlagsConfig
	InternalAPI  InternalAPIConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Payroll.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHIFTPAY_APP_ENV" required:"true"`
	Port         string `envconfig:"SHIFTPAY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHIFTPAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHIFTPAY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHIFTPAY_DB_DSN"`
	Driver string `envconfig:"SHIFTPAY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHIFTPAY_DB_HOST"`
	LegacyPort     int    `envconfig:"SHIFTPAY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHIFTPAY_DB_USER"`
	LegacyPassword string `envconfig:"SHIFTPAY_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHIFTPAY_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHIFTPAY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHIFTPAY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHIFTPAY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHIFTPAY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHIFTPAY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHIFTPAY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHIFTPAY_REDIS_ADDR"`
	Password     string        `envconfig:"SHIFTPAY_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHIFTPAY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHIFTPAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHIFTPAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHIFTPAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHIFTPAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHIFTPAY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// WorkSuiteConfig configures the external workforce platform client.
// Page size and page cap are operational guards, not protocol constants.
type WorkSuiteConfig struct {
	BaseURL      string        `envconfig:"SHIFTPAY_WORKSUITE_BASE_URL" required:"true"`
	APIKey       string        `envconfig:"SHIFTPAY_WORKSUITE_API_KEY" required:"true"`
	PageSize     int           `envconfig:"SHIFTPAY_WORKSUITE_PAGE_SIZE" default:"100"`
	MaxUserPages int           `envconfig:"SHIFTPAY_WORKSUITE_MAX_USER_PAGES" default:"10"`
	HTTPTimeout  time.Duration `envconfig:"SHIFTPAY_WORKSUITE_HTTP_TIMEOUT" default:"15s"`
	MaxRetries   int           `envconfig:"SHIFTPAY_WORKSUITE_MAX_RETRIES" default:"3"`
	RetryBackoff time.Duration `envconfig:"SHIFTPAY_WORKSUITE_RETRY_BACKOFF" default:"500ms"`
}

// PayrollConfig pins the biweekly calendar. ReferenceDate is a known pay date
// whose payroll group is A; every other pay date's group is derived from it.
type PayrollConfig struct {
	ReferenceDate string `envconfig:"SHIFTPAY_PAYROLL_REFERENCE_DATE" default:"2025-01-03"`
	PayWeekday    string `envconfig:"SHIFTPAY_PAYROLL_PAY_WEEKDAY" default:"Friday"`
}

func (p PayrollConfig) validate() error {
	if _, err := time.Parse("2006-01-02", p.ReferenceDate); err != nil {
		return fmt.Errorf("invalid payroll reference date %q: %w", p.ReferenceDate, err)
	}
	switch strings.ToLower(p.PayWeekday) {
	case "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday":
		return nil
	}
	return fmt.Errorf("invalid pay weekday %q", p.PayWeekday)
}

// Reference returns the parsed reference pay date at UTC midnight.
func (p PayrollConfig) Reference() time.Time {
	t, _ := time.Parse("2006-01-02", p.ReferenceDate)
	return t.UTC()
}

// Weekday returns the configured pay weekday.
func (p PayrollConfig) Weekday() time.Weekday {
	switch strings.ToLower(p.PayWeekday) {
	case "monday":
		return time.Monday
	case "tuesday":
		return time.Tuesday
	case "wednesday":
		return time.Wednesday
	case "thursday":
		return time.Thursday
	case "saturday":
		return time.Saturday
	case "sunday":
		return time.Sunday
	default:
		return time.Friday
	}
}

type SyncConfig struct {
	ReconcileInterval time.Duration `envconfig:"SHIFTPAY_SYNC_RECONCILE_INTERVAL" default:"1h"`
	ReconcileWindow   time.Duration `envconfig:"SHIFTPAY_SYNC_RECONCILE_WINDOW" default:"360h"`
	LockTTL           time.Duration `envconfig:"SHIFTPAY_SYNC_LOCK_TTL" default:"55m"`
	WebhookDedupeTTL  time.Duration `envconfig:"SHIFTPAY_SYNC_WEBHOOK_DEDUPE_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHIFTPAY_AUTO_MIGRATE" default:"false"`
}

// InternalAPIConfig guards mutating routes behind a shared key. This is
// transport plumbing, not a user authentication system. A zero rate limit
// disables throttling.
type InternalAPIConfig struct {
	Key             string        `envconfig:"SHIFTPAY_INTERNAL_API_KEY"`
	RateLimit       int           `envconfig:"SHIFTPAY_INTERNAL_API_RATE_LIMIT" default:"120"`
	RateLimitWindow time.Duration `envconfig:"SHIFTPAY_INTERNAL_API_RATE_WINDOW" default:"1m"`
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
