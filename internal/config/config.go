// Package config reads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/bonus-distribution/backend/internal/auth"
	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/bonus-distribution/backend/internal/models"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete service configuration.
type Config struct {
	APIURL           string        `envconfig:"API_URL" required:"true"`
	Port             int           `envconfig:"PORT" default:"8080"`
	AdminAddress     string        `envconfig:"ADMIN_ADDRESS" required:"true"`
	DBDriver         string        `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN            string        `envconfig:"DB_DSN" default:"data/bonus.db"`
	LogFormat        string        `envconfig:"LOG_FORMAT"`
	GinMode          string        `envconfig:"GIN_MODE" default:"release"`
	CORSAllowOrigins string        `envconfig:"CORS_ALLOW_ORIGINS"`
	EnablePprof      bool          `envconfig:"ENABLE_PPROF" default:"false"`
	AuthMode         string        `envconfig:"AUTH_MODE" default:"jwt"`
	JWTSecret        string        `envconfig:"JWT_SECRET"`
	JWTIssuer        string        `envconfig:"JWT_ISSUER"`
	VerifierAttester string        `envconfig:"VERIFIER_ATTESTER"`
	MaxCiphertext    int           `envconfig:"MAX_CIPHERTEXT_BYTES" default:"4096"`
	TemplatesFile    string        `envconfig:"TEMPLATES_FILE"`
	ShutdownTimeout  time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// Load reads an optional .env file from the working directory and then
// the environment. Variables already set in the environment take precedence
// over the .env file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("could not read .env file: %w", err)
	}

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Validate checks values that envconfig cannot check by itself.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: API_URL must be an absolute URL, got %q", ErrInvalidConfig, c.APIURL)
	}

	if _, err := ledger.ParsePrincipal(c.AdminAddress); err != nil {
		return fmt.Errorf("%w: ADMIN_ADDRESS: %w", ErrInvalidConfig, err)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: PORT must be between 1 and 65535", ErrInvalidConfig)
	}

	switch c.DBDriver {
	case models.DriverSQLite, models.DriverPostgres:
	default:
		return fmt.Errorf("%w: DB_DRIVER must be %q or %q", ErrInvalidConfig, models.DriverSQLite, models.DriverPostgres)
	}

	switch c.LogFormat {
	case "", "human", "json":
	default:
		return fmt.Errorf("%w: LOG_FORMAT must be \"human\" or \"json\"", ErrInvalidConfig)
	}

	switch c.AuthMode {
	case auth.ModeJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("%w: JWT_SECRET is required when AUTH_MODE is %q", ErrInvalidConfig, auth.ModeJWT)
		}
	case auth.ModeHeader:
	default:
		return fmt.Errorf("%w: AUTH_MODE must be %q or %q", ErrInvalidConfig, auth.ModeJWT, auth.ModeHeader)
	}

	if c.VerifierAttester != "" && !common.IsHexAddress(c.VerifierAttester) {
		return fmt.Errorf("%w: VERIFIER_ATTESTER is not an address", ErrInvalidConfig)
	}

	if c.MaxCiphertext < 1 {
		return fmt.Errorf("%w: MAX_CIPHERTEXT_BYTES must be positive", ErrInvalidConfig)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: SHUTDOWN_TIMEOUT must be positive", ErrInvalidConfig)
	}

	return nil
}

// Admin returns the parsed admin principal. It must only be called on a
// validated configuration.
func (c Config) Admin() ledger.Principal {
	p, _ := ledger.ParsePrincipal(c.AdminAddress)
	return p
}

// CORSOrigins returns the allowed CORS origins.
func (c Config) CORSOrigins() []string {
	return strings.Fields(c.CORSAllowOrigins)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
