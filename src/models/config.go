package models

// MConfig Structure
type MConfig struct {
	Name            string               `yaml:"name"`
	Host            string               `yaml:"host"`
	Port            int                  `yaml:"port"`
	LogLevel        string               `yaml:"log_level"`
	LogFile         string               `yaml:"log_file"`
	GrpcHost        string               `yaml:"grpc_host"`
	GrpcPort        int                  `yaml:"grpc_port"`
	CorsOrigins     []string             `yaml:"cors_origins"`
	UseActualServer bool                 `yaml:"use_actual_server"`
	RemoteServers   MRemoteServersConfig `yaml:"remote_servers"`
	Endpoints       MEndpointsConfig     `yaml:"endpoints"`
	Network         MNetworkConfig       `yaml:"network"`
	PriceFeed       MPriceFeedConfig     `yaml:"price_feed"`
	TickerStream    MTickerStreamConfig  `yaml:"ticker_stream"`
}

// MRemoteServersConfig is the ordered list of upstream base URLs.
// An empty string means the slot is unconfigured.
type MRemoteServersConfig struct {
	Server1 string `yaml:"server1"`
	Server2 string `yaml:"server2"`
	Server3 string `yaml:"server3"`
}

type MEndpointsConfig struct {
	Chart   MEndpointConfig `yaml:"chart"`
	News    MEndpointConfig `yaml:"news"`
	Ticker  MEndpointConfig `yaml:"ticker"`
	Chatbot MEndpointConfig `yaml:"chatbot"`
}

// MEndpointConfig selects the serving mode of one endpoint family.
// Mode is one of "simulated", "relayed", "external" or empty (inherit).
type MEndpointConfig struct {
	Mode   string `yaml:"mode"`
	Server string `yaml:"server"`
}

type MNetworkConfig struct {
	Proxies        []string `yaml:"proxies"`
	RequestTimeout int      `yaml:"timeout"`
	UserAgent      string   `yaml:"user_agent"`
}

type MPriceFeedConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Currency  string `yaml:"currency"`
}

type MTickerStreamConfig struct {
	Enabled    bool `yaml:"enabled"`
	IntervalMs int  `yaml:"interval_ms"`
}

// -----------------------------------------------------------------------------

// Server looks up a remote server slot by its config key ("server1".."server3").
func (r MRemoteServersConfig) Server(key string) string {
	switch key {
	case "", "server1":
		return r.Server1
	case "server2":
		return r.Server2
	case "server3":
		return r.Server3
	}
	return ""
}
