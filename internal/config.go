package internal

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/bbp/internal/parser"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app" toml:"app"`
	Books   BooksConfig       `yaml:"books" toml:"books"`
	HTTP    HTTPConfig        `yaml:"http" toml:"http"`
	Catalog CatalogConfig     `yaml:"catalog" toml:"catalog"`
	Auth    AuthConfig        `yaml:"auth" toml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Books.Validate(); err != nil {
		return err
	}
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	TCP      TCPConfig  `yaml:"tcp" toml:"tcp"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.TCP.Validate()
}

// TCPConfig holds the protocol listener address.
type TCPConfig struct {
	Host string `yaml:"host" toml:"host"`
	Port int    `yaml:"port" toml:"port"`
}

// Address returns the listener address.
func (c *TCPConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate validates the TCP configuration.
func (c *TCPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// BooksConfig holds the books directory and the book opened at startup.
// An empty Default starts the server with no active book.
type BooksConfig struct {
	Dir     string `yaml:"dir" toml:"dir"`
	Default string `yaml:"default" toml:"default"`
}

// Validate validates the books configuration.
func (c *BooksConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Default, validation.Match(parser.BookNamePattern())),
	)
}

// HTTPConfig holds the optional catalog HTTP server configuration.
type HTTPConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	Port    int  `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.When(c.Enabled, validation.Required, validation.Min(1), validation.Max(65535))),
	)
}

// CatalogConfig holds the SQLite catalog location.
type CatalogConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the HTTP API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			TCP: TCPConfig{
				Host: "",
				Port: 7777,
			},
		},
		Books: BooksConfig{
			Dir:     "./books",
			Default: "bbp",
		},
		HTTP: HTTPConfig{
			Enabled: false,
			Port:    8080,
		},
		Catalog: CatalogConfig{
			Path: "./books/catalog.sqlite",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
