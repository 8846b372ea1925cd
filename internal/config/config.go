// Package config reads account credentials and runtime settings from the
// process environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"twikitmcp/internal/constants"
	"twikitmcp/internal/utils"
)

// Credentials are the four account secrets passed verbatim to the platform
// login call. Any of them may be empty; interpreting them is the platform's job.
type Credentials struct {
	Username   string
	Email      string
	Password   string
	TOTPSecret string
}

// Account names the credential set, used to key persisted sessions.
func (c Credentials) Account() string {
	if c.Username != "" {
		return c.Username
	}
	if c.Email != "" {
		return c.Email
	}
	return constants.DefaultAccountName
}

// RedisConfig is only consulted when Host is set.
type RedisConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

type Config struct {
	Credentials    Credentials
	Locale         string
	SessionPath    string
	SessionKey     string
	GatewayURL     string
	GatewayTimeout time.Duration
	Transport      string
	HTTPAddr       string
	HTTPToken      string
	AllowedOrigins []string
	Redis          RedisConfig
	AuditEnabled   bool
}

// LoadCredentials reads the credential variables once.
func LoadCredentials() Credentials {
	return Credentials{
		Username:   os.Getenv(constants.EnvUsername),
		Email:      os.Getenv(constants.EnvEmail),
		Password:   os.Getenv(constants.EnvPassword),
		TOTPSecret: os.Getenv(constants.EnvTOTPSecret),
	}
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	sessionPath := utils.GetEnv(constants.EnvSessionPath, "")
	if sessionPath == "" {
		p, err := DefaultSessionPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve session path: %w", err)
		}
		sessionPath = p
	}

	timeout := constants.DefaultGatewayTimeout
	if secs := utils.GetEnvInt(constants.EnvGatewayTimeout, 0); secs != 0 {
		timeout = time.Duration(secs) * time.Second
	}

	cfg := &Config{
		Credentials:    LoadCredentials(),
		Locale:         utils.GetEnv(constants.EnvLocale, constants.DefaultLocale),
		SessionPath:    sessionPath,
		SessionKey:     os.Getenv(constants.EnvSessionKey),
		GatewayURL:     utils.GetEnv(constants.EnvGatewayURL, constants.DefaultGatewayURL),
		GatewayTimeout: timeout,
		Transport:      utils.GetEnv(constants.EnvTransport, constants.TransportStdio),
		HTTPAddr:       utils.GetEnv(constants.EnvHTTPAddr, constants.DefaultHTTPAddr),
		HTTPToken:      os.Getenv(constants.EnvHTTPToken),
		AllowedOrigins: utils.GetEnvList(constants.EnvAllowedOrigins),
		Redis: RedisConfig{
			Host:     utils.GetEnv(constants.EnvRedisHost, ""),
			Port:     utils.GetEnv(constants.EnvRedisPort, "6379"),
			Username: utils.GetEnv(constants.EnvRedisUser, ""),
			Password: utils.GetEnv(constants.EnvRedisPassword, ""),
		},
		AuditEnabled: utils.GetEnvBool(constants.EnvAudit, true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Transport {
	case constants.TransportStdio, constants.TransportHTTP:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q",
			constants.EnvTransport, constants.TransportStdio, constants.TransportHTTP, c.Transport)
	}
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("%s must be > 0", constants.EnvGatewayTimeout)
	}
	if c.GatewayURL == "" {
		return fmt.Errorf("%s cannot be empty", constants.EnvGatewayURL)
	}
	if c.Transport == constants.TransportHTTP {
		if c.HTTPAddr == "" {
			return fmt.Errorf("%s cannot be empty", constants.EnvHTTPAddr)
		}
		// The endpoint posts and sends DMs as the configured account.
		if c.HTTPToken == "" {
			return fmt.Errorf("%s is required for %s transport", constants.EnvHTTPToken, constants.TransportHTTP)
		}
	}
	return nil
}

// DefaultSessionPath is ~/.mcp-twikit-tools/cookies.json.
func DefaultSessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.SessionDirName, constants.SessionFileName), nil
}
