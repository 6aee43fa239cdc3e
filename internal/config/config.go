package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
	"gopkg.in/yaml.v3"
)

// ErrMissing is returned by Validate when a required setting is absent.
var ErrMissing = errors.New("required configuration missing")

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	VotesAPI VotesAPIConfig `yaml:"votes_api"`
	Poll     PollConfig     `yaml:"poll"`
	Log      LogConfig      `yaml:"log"`
	Frontend FrontendConfig `yaml:"frontend"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	Host           string   `yaml:"host"`
	MaxConnections int      `yaml:"max_connections"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// VotesAPIConfig locates the remote vote-counting service polled for results.
type VotesAPIConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type PollConfig struct {
	ShortDelay time.Duration `yaml:"short_delay"`
	LongDelay  time.Duration `yaml:"long_delay"`
	// RequestTimeout bounds a single fetch. Zero means no timeout.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type FrontendConfig struct {
	Dir string `yaml:"dir"`
}

// envVars is the process environment surface. Values here override the YAML file.
type envVars struct {
	Port         string `env:"PORT"`
	VotesAPIHost string `env:"VOTES_API_HOST"`
	VotesAPIPort string `env:"VOTES_API_PORT"`
	LogLevel     string `env:"LOG_LEVEL"`
	LogFormat    string `env:"LOG_FORMAT"`
	FrontendDir  string `env:"FRONTEND_DIR"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
		},
		Poll: PollConfig{
			ShortDelay: time.Second,
			LongDelay:  5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Frontend: FrontendConfig{
			Dir: "internal/frontend/static",
		},
	}
}

// Load reads the YAML file at path on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns the defaults when path is empty
// or the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return defaultConfig(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultConfig(), nil
	}
	return cfg, err
}

// ApplyEnv overlays environment variables (and a .env file in the working
// directory, when present) onto cfg.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	var vars envVars
	if err := env.Load(&vars, nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}

	overlay(&c.Server.Port, vars.Port)
	overlay(&c.VotesAPI.Host, vars.VotesAPIHost)
	overlay(&c.VotesAPI.Port, vars.VotesAPIPort)
	overlay(&c.Log.Level, vars.LogLevel)
	overlay(&c.Log.Format, vars.LogFormat)
	overlay(&c.Frontend.Dir, vars.FrontendDir)
	return nil
}

func overlay(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// Validate checks the settings the relay cannot start without.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"PORT", c.Server.Port},
		{"VOTES_API_HOST", c.VotesAPI.Host},
		{"VOTES_API_PORT", c.VotesAPI.Port},
	}
	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}

	if err := checkPort("PORT", c.Server.Port); err != nil {
		return err
	}
	if err := checkPort("VOTES_API_PORT", c.VotesAPI.Port); err != nil {
		return err
	}
	if c.Poll.ShortDelay <= 0 || c.Poll.LongDelay <= 0 {
		return errors.New("poll delays must be positive")
	}
	if c.Poll.RequestTimeout < 0 {
		return errors.New("poll.request_timeout must not be negative")
	}
	return nil
}

func checkPort(name, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("%s must be a port number, got %q", name, value)
	}
	return nil
}

// ListenAddr is the address the relay's HTTP server binds.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

// ResultsEndpoint is the host:port of the vote-counting service.
func (c *Config) ResultsEndpoint() string {
	return net.JoinHostPort(c.VotesAPI.Host, c.VotesAPI.Port)
}
