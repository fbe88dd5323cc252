package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const EnvPrefix = "SYNTHIA"

type Config struct {
	ListenAddr        string        `mapstructure:"listen_addr" json:"listen_addr"`
	ExternalIP        string        `mapstructure:"external_ip" json:"external_ip"`
	HTTPListenAddress string        `mapstructure:"http_listen_address" json:"http_listen_address"`
	RootPath          string        `mapstructure:"root_path" json:"root_path"`
	KeyName           string        `mapstructure:"key_name" json:"key_name"`
	DBPath            string        `mapstructure:"db_path" json:"db_path"`
	CompactDBOnInit   bool          `mapstructure:"compact_db_on_init" json:"compact_db_on_init"`
	PinTimeout        time.Duration `mapstructure:"pin_timeout" json:"pin_timeout"`
	AwaitPin          bool          `mapstructure:"await_pin" json:"await_pin"`
	EnableP2P         bool          `mapstructure:"enable_p2p" json:"enable_p2p"`
	BootstrapPeers    []string      `mapstructure:"bootstrap_peers" json:"bootstrap_peers"`
	LogLevel          string        `mapstructure:"log_level" json:"log_level"`
	LogFormat         string        `mapstructure:"log_format" json:"log_format"`
}

type P2PConfig struct {
	Port           int      `json:"port"`
	ExternalIP     string   `json:"external_ip"`
	BootstrapPeers []string `json:"bootstrap_peers"`
}

func DefaultConfig() *Config {
	return &Config{
		ListenAddr:        "0.0.0.0:30007",
		ExternalIP:        "",
		HTTPListenAddress: "127.0.0.1:8043",
		RootPath:          ".synthia",
		KeyName:           "synthia-p2p-key",
		DBPath:            "",
		PinTimeout:        30 * time.Second,
		AwaitPin:          true,
		EnableP2P:         false,
		LogLevel:          "info",
		LogFormat:         "console",
	}
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("external_ip", def.ExternalIP)
	v.SetDefault("http_listen_address", def.HTTPListenAddress)
	v.SetDefault("root_path", def.RootPath)
	v.SetDefault("key_name", def.KeyName)
	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("compact_db_on_init", def.CompactDBOnInit)
	v.SetDefault("pin_timeout", def.PinTimeout)
	v.SetDefault("await_pin", def.AwaitPin)
	v.SetDefault("enable_p2p", def.EnableP2P)
	v.SetDefault("bootstrap_peers", []string{})
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
}

// NewViper returns a viper instance with the config defaults and the
// SYNTHIA_ environment overrides applied.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// GetConfig reads the config file at path. With an empty path config.json
// is looked up in the working directory and defaults are used when it does
// not exist.
func GetConfig(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.SetConfigType("json")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the config, reporting every problem at once.
func (c Config) Validate() error {
	var result *multierror.Error
	if _, err := c.P2PConfig(); err != nil {
		result = multierror.Append(result, err)
	}
	if _, _, err := net.SplitHostPort(c.HTTPListenAddress); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid http listen address %q: %w", c.HTTPListenAddress, err))
	}
	if c.PinTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("pin timeout must be positive, got %s", c.PinTimeout))
	}
	if c.EnableP2P && strings.TrimSpace(c.KeyName) == "" {
		result = multierror.Append(result, errors.New("key name cannot be empty when p2p is enabled"))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("invalid log format %q, expected console or json", c.LogFormat))
	}
	return result.ErrorOrNil()
}

// P2PConfig derives the p2p settings from the listen address.
func (c Config) P2PConfig() (*P2PConfig, error) {
	_, p, err := net.SplitHostPort(c.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid listen address %q: %w", c.ListenAddr, err)
	}
	port, err := cast.ToIntE(p)
	if err != nil {
		return nil, fmt.Errorf("invalid listen port %q: %w", p, err)
	}
	return &P2PConfig{
		Port:           port,
		ExternalIP:     c.ExternalIP,
		BootstrapPeers: c.BootstrapPeers,
	}, nil
}
