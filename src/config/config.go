package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"market-sync/src/models"

	"gopkg.in/yaml.v3"
)

// Endpoint modes accepted in the endpoints section.
const (
	ModeSimulated = "simulated"
	ModeRelayed   = "relayed"
	ModeExternal  = "external"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file. The result is read-only
// for the lifetime of the process.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse builds a Config from raw YAML, applies defaults and environment
// overrides, then validates.
func Parse(data []byte) (*Config, error) {
	modelConfig := Defaults()
	if err := yaml.Unmarshal(data, modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: modelConfig}
	config.applyEnv(os.LookupEnv)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Defaults returns the baseline configuration that YAML values overlay.
func Defaults() *models.MConfig {
	return &models.MConfig{
		Name:     "market-sync",
		Host:     "0.0.0.0",
		Port:     3001,
		GrpcPort: 50061,
		LogLevel: "INFO",
		Endpoints: models.MEndpointsConfig{
			Ticker:  models.MEndpointConfig{Mode: ModeExternal},
			Chatbot: models.MEndpointConfig{Mode: ModeSimulated},
		},
		Network: models.MNetworkConfig{
			RequestTimeout: 10,
		},
		PriceFeed: models.MPriceFeedConfig{
			BaseURL:   "https://api.coingecko.com/api/v3",
			APIKeyEnv: "COINGECKO_API_KEY",
			Currency:  "usd",
		},
		TickerStream: models.MTickerStreamConfig{
			Enabled:    true,
			IntervalMs: 2000,
		},
	}
}

// -----------------------------------------------------------------------------

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("USE_ACTUAL_SERVER"); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.UseActualServer = b
		}
	}
	if v, ok := lookup("REMOTE_SERVER_1"); ok {
		c.RemoteServers.Server1 = strings.TrimSpace(v)
	}
	if v, ok := lookup("REMOTE_SERVER_2"); ok {
		c.RemoteServers.Server2 = strings.TrimSpace(v)
	}
	if v, ok := lookup("REMOTE_SERVER_3"); ok {
		c.RemoteServers.Server3 = strings.TrimSpace(v)
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation. Empty remote servers are
// allowed here: they only fail the requests that need them.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort < 0 || c.GrpcPort > 65535 {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}

	endpoints := map[string]models.MEndpointConfig{
		"chart":   c.Endpoints.Chart,
		"news":    c.Endpoints.News,
		"ticker":  c.Endpoints.Ticker,
		"chatbot": c.Endpoints.Chatbot,
	}
	for name, ep := range endpoints {
		switch ep.Mode {
		case "", ModeSimulated, ModeRelayed:
		case ModeExternal:
			if name != "ticker" {
				return fmt.Errorf("endpoint %s does not support mode %q", name, ep.Mode)
			}
		default:
			return fmt.Errorf("endpoint %s has unknown mode %q", name, ep.Mode)
		}
		switch ep.Server {
		case "", "server1", "server2", "server3":
		default:
			return fmt.Errorf("endpoint %s references unknown server %q", name, ep.Server)
		}
	}

	if c.TickerStream.Enabled && c.TickerStream.IntervalMs <= 0 {
		return fmt.Errorf("ticker stream interval must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// ResolveMode returns the effective mode of an endpoint: its explicit mode, or the
// global use_actual_server switch when none is set.
func (c *Config) ResolveMode(ep models.MEndpointConfig) string {
	if ep.Mode != "" {
		return ep.Mode
	}
	if c.UseActualServer {
		return ModeRelayed
	}
	return ModeSimulated
}
