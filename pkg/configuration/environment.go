package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/tanzim-io/tanzim-sdk/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"tanzim"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

// ScopeCacheOptions control the in-process ancestor-chain cache.
type ScopeCacheOptions struct {
	Enabled       bool          `env:"SCOPE_CACHE_ENABLED" envDefault:"true"`
	TTL           time.Duration `env:"SCOPE_CACHE_TTL" envDefault:"5m"`
	SweepInterval time.Duration `env:"SCOPE_CACHE_SWEEP_INTERVAL" envDefault:"60s"`
}

// RetryOptions bound retries of transient store failures. Logical failures
// (validation, authorization) are never retried.
type RetryOptions struct {
	MaxAttempts     uint64        `env:"DB_RETRY_MAX_ATTEMPTS" envDefault:"4"`
	InitialInterval time.Duration `env:"DB_RETRY_INITIAL_INTERVAL" envDefault:"100ms"`
	MaxInterval     time.Duration `env:"DB_RETRY_MAX_INTERVAL" envDefault:"2s"`
}

type Configuration struct {
	Database   DatabaseOptions
	ScopeCache ScopeCacheOptions
	Retry      RetryOptions

	HealthProbeInterval time.Duration `env:"HEALTH_PROBE_INTERVAL" envDefault:"30s"`
	MigrationsDir       string        `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	ServerPort          int           `env:"PORT" envDefault:"3200"`
	GoAppEnvironment    string        `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress       string        `env:"-"`
	PageSize            int           `env:"PAGE_SIZE" envDefault:"25"`
	MaxPageSize         int           `env:"MAX_PAGE_SIZE" envDefault:"100"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"error"`
	LogPath             string        `env:"LOG_PATH" envDefault:"./logs/app.log"`
	MetricsPath         string        `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
	Origin              string        `env:"ORIGIN" envDefault:"http://localhost:3200"`
	RequestIDHeader     string        `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	// Surfacing internal error details is gated on development mode.
	ExposeInternalErrors bool `env:"EXPOSE_INTERNAL_ERRORS" envDefault:"false"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return nil
}

func (c *Configuration) validate() error {
	if c.ScopeCache.TTL <= 0 {
		return fmt.Errorf("SCOPE_CACHE_TTL must be positive, got %s", c.ScopeCache.TTL)
	}
	if c.ScopeCache.SweepInterval <= 0 {
		return fmt.Errorf("SCOPE_CACHE_SWEEP_INTERVAL must be positive, got %s", c.ScopeCache.SweepInterval)
	}
	if c.Retry.MaxAttempts == 0 {
		return fmt.Errorf("DB_RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if c.HealthProbeInterval <= 0 {
		return fmt.Errorf("HEALTH_PROBE_INTERVAL must be positive, got %s", c.HealthProbeInterval)
	}
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
		c.logFile = nil
	}
}
