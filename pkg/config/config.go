package config

import (
	"fmt"
	"net/url"
	"regexp"
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
	Procurement   ProcurementConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Bootstrap     BootstrapConfig
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
	if err := cfg.Procurement.CompilePatterns(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GLADOS_APP_ENV" required:"true"`
	Port         string `envconfig:"GLADOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GLADOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GLADOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GLADOS_DB_DSN"`
	Driver string `envconfig:"GLADOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GLADOS_DB_HOST"`
	LegacyPort     int    `envconfig:"GLADOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GLADOS_DB_USER"`
	LegacyPassword string `envconfig:"GLADOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"GLADOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"GLADOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GLADOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GLADOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GLADOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GLADOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GLADOS_REDIS_URL"`
	Address      string        `envconfig:"GLADOS_REDIS_ADDR"`
	Password     string        `envconfig:"GLADOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"GLADOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GLADOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GLADOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GLADOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GLADOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GLADOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GLADOS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GLADOS_JWT_ISSUER" default:"glados"`
	ExpirationMinutes int    `envconfig:"GLADOS_JWT_EXPIRATION_MINUTES" default:"480"`
}

type PasswordConfig struct {
	MinLength        int `envconfig:"GLADOS_PASSWORD_MIN_LENGTH" default:"8"`
	ArgonMemoryKB    int `envconfig:"GLADOS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GLADOS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GLADOS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GLADOS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GLADOS_ARGON_KEY_LEN" default:"32"`
}

// ProcurementConfig carries the immutable domain knobs: the validation
// patterns for project and product numbers.
type ProcurementConfig struct {
	ProjectNumberPattern string `envconfig:"GLADOS_PROJECT_NUMBER_PATTERN" default:"^P\\d{7}$"`
	ProductNumberPattern string `envconfig:"GLADOS_PRODUCT_NUMBER_PATTERN" default:"^M\\d{7}$"`

	projectNumberRegex *regexp.Regexp
	productNumberRegex *regexp.Regexp
}

// CompilePatterns compiles the configured validation regexes.
func (p *ProcurementConfig) CompilePatterns() error {
	projectRegex, err := regexp.Compile(p.ProjectNumberPattern)
	if err != nil {
		return fmt.Errorf("compiling project number pattern: %w", err)
	}
	productRegex, err := regexp.Compile(p.ProductNumberPattern)
	if err != nil {
		return fmt.Errorf("compiling product number pattern: %w", err)
	}
	p.projectNumberRegex = projectRegex
	p.productNumberRegex = productRegex
	return nil
}

// ValidProjectNumber reports whether the value matches the configured pattern.
func (p ProcurementConfig) ValidProjectNumber(value string) bool {
	if p.projectNumberRegex == nil {
		return value != ""
	}
	return p.projectNumberRegex.MatchString(value)
}

// ValidProductNumber reports whether the value matches the configured pattern.
// An empty product number is always allowed; the field is optional.
func (p ProcurementConfig) ValidProductNumber(value string) bool {
	if value == "" {
		return true
	}
	if p.productNumberRegex == nil {
		return true
	}
	return p.productNumberRegex.MatchString(value)
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"GLADOS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"GLADOS_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"GLADOS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GLADOS_AUTO_MIGRATE" default:"false"`
}

// BootstrapConfig controls first-start provisioning. When the system user
// password is set, the api binary creates the system user if it is missing.
type BootstrapConfig struct {
	SystemUserPassword string `envconfig:"GLADOS_SYSTEM_USER_PASSWORD"`
}

type CronConfig struct {
	NotificationRetention time.Duration `envconfig:"GLADOS_CRON_NOTIFICATION_RETENTION" default:"720h"`
	TickInterval          time.Duration `envconfig:"GLADOS_CRON_TICK_INTERVAL" default:"1h"`
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
