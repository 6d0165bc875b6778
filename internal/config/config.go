package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppPort  string `envconfig:"APP_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	MySQLHost string `envconfig:"MYSQL_HOST" default:"mysql"`
	MySQLPort string `envconfig:"MYSQL_PORT" default:"3306"`
	MySQLDB   string `envconfig:"MYSQL_DB" default:"microfinance"`
	MySQLUser string `envconfig:"MYSQL_USER" default:"microfinance"`
	MySQLPass string `envconfig:"MYSQL_PASS" default:"microfinance"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"redis:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`

	IdempTTLSecs int `envconfig:"IDEMPOTENCY_TTL_SECONDS" default:"300"`

	// LockBackend is "redis" for multi-instance deployments or "local".
	LockBackend string        `envconfig:"LOCK_BACKEND" default:"redis"`
	LockTTL     time.Duration `envconfig:"LOCK_TTL" default:"30s"`
	LockWait    time.Duration `envconfig:"LOCK_WAIT" default:"10s"`

	IntentTimeout   time.Duration `envconfig:"INTENT_TIMEOUT" default:"3m"`
	ExpirySweepSpec string        `envconfig:"EXPIRY_SWEEP_SPEC" default:"@every 1m"`

	// read as MPESA_*
	Mpesa Mpesa
}

// Mpesa holds Daraja credentials. They are checked when a push is made, not
// at startup, so the rest of the service runs without them.
type Mpesa struct {
	BaseURL        string        `envconfig:"BASE_URL" default:"https://sandbox.safaricom.co.ke"`
	ConsumerKey    string        `envconfig:"CONSUMER_KEY"`
	ConsumerSecret string        `envconfig:"CONSUMER_SECRET"`
	ShortCode      string        `envconfig:"SHORTCODE"`
	PassKey        string        `envconfig:"PASSKEY"`
	CallbackURL    string        `envconfig:"CALLBACK_URL"`
	Timeout        time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.LockBackend {
	case "redis", "local":
	default:
		return fmt.Errorf("invalid LOCK_BACKEND %q (want redis or local)", c.LockBackend)
	}
	if c.IntentTimeout <= 0 {
		return errors.New("INTENT_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
