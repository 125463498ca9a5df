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
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Password PasswordConfig
	Orders   OrdersConfig
	Catalog  CatalogConfig
	Backend  BackendConfig
	Toasts   ToastsConfig
	Search   SearchConfig
	Session  SessionConfig
	HTTP     HTTPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Orders.Store == OrdersStoreSQL {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Orders.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PHARMALINK_APP_ENV" required:"true"`
	Port         string `envconfig:"PHARMALINK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PHARMALINK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PHARMALINK_LOG_WARN_STACK" default:"false"`
	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout time.Duration `envconfig:"PHARMALINK_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN         string `envconfig:"PHARMALINK_DB_DSN"`
	Driver      string `envconfig:"PHARMALINK_DB_DRIVER" default:"postgres"`
	AutoMigrate bool   `envconfig:"PHARMALINK_DB_AUTO_MIGRATE" default:"false"`

	LegacyHost     string `envconfig:"PHARMALINK_DB_HOST"`
	LegacyPort     int    `envconfig:"PHARMALINK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PHARMALINK_DB_USER"`
	LegacyPassword string `envconfig:"PHARMALINK_DB_PASSWORD"`
	LegacyName     string `envconfig:"PHARMALINK_DB_NAME"`
	LegacySSLMode  string `envconfig:"PHARMALINK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PHARMALINK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PHARMALINK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PHARMALINK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PHARMALINK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional: when neither URL nor address is set, persisted
// session state lives in process memory.
type RedisConfig struct {
	URL          string        `envconfig:"PHARMALINK_REDIS_URL"`
	Address      string        `envconfig:"PHARMALINK_REDIS_ADDR"`
	Password     string        `envconfig:"PHARMALINK_REDIS_PASSWORD"`
	DB           int           `envconfig:"PHARMALINK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PHARMALINK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PHARMALINK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PHARMALINK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PHARMALINK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PHARMALINK_REDIS_WRITE_TIMEOUT" default:"5s"`
	StateTTL     time.Duration `envconfig:"PHARMALINK_REDIS_STATE_TTL" default:"720h"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"PHARMALINK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PHARMALINK_JWT_ISSUER" default:"pharmalink"`
	ExpirationMinutes int    `envconfig:"PHARMALINK_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AuthConfig drives dashboard login. When Backend.BaseURL is set, credentials
// are checked by the remote API; otherwise against the local accounts file.
type AuthConfig struct {
	AccountsFile    string        `envconfig:"PHARMALINK_AUTH_ACCOUNTS_FILE" default:"data/pharmacists.yaml"`
	LoginRateLimit  int           `envconfig:"PHARMALINK_AUTH_LOGIN_RATE_LIMIT" default:"10"`
	LoginRateWindow time.Duration `envconfig:"PHARMALINK_AUTH_LOGIN_RATE_WINDOW" default:"1m"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PHARMALINK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PHARMALINK_ARGON_TIME" default:"1"`
	ArgonParallelism int `envconfig:"PHARMALINK_ARGON_PARALLELISM" default:"4"`
	ArgonSaltLen     int `envconfig:"PHARMALINK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PHARMALINK_ARGON_KEY_LEN" default:"32"`
}

type OrdersConfig struct {
	Store            string        `envconfig:"PHARMALINK_ORDERS_STORE" default:"memory"`
	NumberPrefix     string        `envconfig:"PHARMALINK_ORDERS_NUMBER_PREFIX" default:"CMD"`
	SimulatedLatency time.Duration `envconfig:"PHARMALINK_ORDERS_SIMULATED_LATENCY" default:"500ms"`
}

func (o OrdersConfig) validate() error {
	switch o.Store {
	case OrdersStoreMemory, OrdersStoreSQL:
	default:
		return fmt.Errorf("%s must be one of %q or %q", EnvOrdersStore, OrdersStoreMemory, OrdersStoreSQL)
	}
	if o.SimulatedLatency < 0 || o.SimulatedLatency > maxSimulatedLatency {
		return fmt.Errorf("%s must be within [0, %s]", EnvOrdersLatency, maxSimulatedLatency)
	}
	return nil
}

type CatalogConfig struct {
	SeedFile         string        `envconfig:"PHARMALINK_CATALOG_SEED_FILE" default:"data/catalog.yaml"`
	SimulatedLatency time.Duration `envconfig:"PHARMALINK_CATALOG_SIMULATED_LATENCY" default:"300ms"`
}

// BackendConfig points at the remote pharmacy API. When BaseURL is empty the
// YAML catalog serves pharmacy reads instead.
type BackendConfig struct {
	BaseURL      string        `envconfig:"PHARMALINK_BACKEND_BASE_URL"`
	Timeout      time.Duration `envconfig:"PHARMALINK_BACKEND_TIMEOUT" default:"10s"`
	RatePerSec   float64       `envconfig:"PHARMALINK_BACKEND_RATE_PER_SEC" default:"10"`
	RateBurst    int           `envconfig:"PHARMALINK_BACKEND_RATE_BURST" default:"20"`
	APIToken     string        `envconfig:"PHARMALINK_BACKEND_API_TOKEN"`
	AuthLoginURL string        `envconfig:"PHARMALINK_BACKEND_AUTH_LOGIN_PATH" default:"/auth/login/"`
}

type ToastsConfig struct {
	DefaultDuration time.Duration `envconfig:"PHARMALINK_TOASTS_DEFAULT_DURATION" default:"5s"`
}

type SearchConfig struct {
	Debounce time.Duration `envconfig:"PHARMALINK_SEARCH_DEBOUNCE" default:"300ms"`
}

// SessionConfig bounds how long an idle browser session keeps its in-memory
// containers. Persisted slices outlive eviction.
type SessionConfig struct {
	IdleTimeout   time.Duration `envconfig:"PHARMALINK_SESSION_IDLE_TIMEOUT" default:"30m"`
	SweepInterval time.Duration `envconfig:"PHARMALINK_SESSION_SWEEP_INTERVAL" default:"1m"`
}

type HTTPConfig struct {
	CORSOrigins  []string      `envconfig:"PHARMALINK_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	ReadTimeout  time.Duration `envconfig:"PHARMALINK_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"PHARMALINK_HTTP_WRITE_TIMEOUT" default:"30s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, DBDriverSQLite) {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
