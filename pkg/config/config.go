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
	AuthRateLimit AuthRateLimitConfig
	Ledger        LedgerConfig
	Sweep         SweepConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"IMPULSOS_APP_ENV" required:"true"`
	Port         string `envconfig:"IMPULSOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"IMPULSOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"IMPULSOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"IMPULSOS_DB_DSN"`
	Driver string `envconfig:"IMPULSOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"IMPULSOS_DB_HOST"`
	LegacyPort     int    `envconfig:"IMPULSOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"IMPULSOS_DB_USER"`
	LegacyPassword string `envconfig:"IMPULSOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"IMPULSOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"IMPULSOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"IMPULSOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"IMPULSOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"IMPULSOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"IMPULSOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"IMPULSOS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"IMPULSOS_REDIS_ADDR"`
	Password     string        `envconfig:"IMPULSOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"IMPULSOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"IMPULSOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"IMPULSOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"IMPULSOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"IMPULSOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"IMPULSOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"IMPULSOS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"IMPULSOS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"IMPULSOS_JWT_EXPIRATION_MINUTES" default:"10080"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"IMPULSOS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"IMPULSOS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"IMPULSOS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"IMPULSOS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"IMPULSOS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"IMPULSOS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"IMPULSOS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"IMPULSOS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"IMPULSOS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"IMPULSOS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"IMPULSOS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// LedgerConfig carries fallbacks used when the settings table has no value
// for a tunable. The settings table remains the source of truth at runtime.
type LedgerConfig struct {
	DefaultExpiryDays     int `envconfig:"IMPULSOS_DEFAULT_TOKEN_EXPIRY_DAYS" default:"180"`
	ReferralRewardTokens  int `envconfig:"IMPULSOS_REFERRAL_REWARD_TOKENS" default:"100"`
	ReferredBonusTokens   int `envconfig:"IMPULSOS_REFERRED_BONUS_TOKENS" default:"50"`
	ExpiringSoonDays      int `envconfig:"IMPULSOS_EXPIRING_SOON_DAYS" default:"30"`
	TokensPerEuro         int `envconfig:"IMPULSOS_TOKENS_PER_EURO" default:"10"`
	HistoryDefaultLimit   int `envconfig:"IMPULSOS_HISTORY_DEFAULT_LIMIT" default:"100"`
	AdminListDefaultLimit int `envconfig:"IMPULSOS_ADMIN_LIST_DEFAULT_LIMIT" default:"100"`
}

type SweepConfig struct {
	Interval  time.Duration `envconfig:"IMPULSOS_SWEEP_INTERVAL" default:"1h"`
	BatchSize int           `envconfig:"IMPULSOS_SWEEP_BATCH_SIZE" default:"500"`
	LockTTL   time.Duration `envconfig:"IMPULSOS_SWEEP_LOCK_TTL" default:"2h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"IMPULSOS_AUTO_MIGRATE" default:"false"`
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
