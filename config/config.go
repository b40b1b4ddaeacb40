package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Client  ClientConfig  `mapstructure:"client"`
	Storage StorageConfig `mapstructure:"storage"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	WSURL   string `mapstructure:"ws_url"`
	AuthURL string `mapstructure:"auth_url"`
}

type ClientConfig struct {
	DisplayName    string        `mapstructure:"display_name"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	LogCapacity    int           `mapstructure:"log_capacity"`
	EventBuffer    int           `mapstructure:"event_buffer"`
}

// StorageConfig points at the sqlite file holding device settings. An empty path keeps everything in memory.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// MonitorConfig enables the prometheus endpoint when Address is set.
type MonitorConfig struct {
	Address string `mapstructure:"address"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

var defaults = map[string]interface{}{
	"server.ws_url":          "ws://localhost:8080/ws",
	"server.auth_url":        "http://localhost:8080/api",
	"client.display_name":    "",
	"client.reconnect_delay": 2 * time.Second,
	"client.log_capacity":    200,
	"client.event_buffer":    256,
	"storage.path":           "gameclient.db",
	"monitor.address":        "",
	"logging.level":          "info",
}

// flag name -> config key
var flagKeys = map[string]string{
	"ws-url":          "server.ws_url",
	"auth-url":        "server.auth_url",
	"name":            "client.display_name",
	"reconnect-delay": "client.reconnect_delay",
	"storage":         "storage.path",
	"metrics-addr":    "monitor.address",
	"log-level":       "logging.level",
}

// Flags returns the command-line flags that override config file and environment values.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("gameclient", pflag.ContinueOnError)
	fs.String("config", ".", "directory containing config.yaml")
	fs.String("ws-url", "", "game server websocket url")
	fs.String("auth-url", "", "authentication service base url")
	fs.String("name", "", "display name")
	fs.Duration("reconnect-delay", 0, "delay between reconnection attempts")
	fs.String("storage", "", "sqlite file for device settings")
	fs.String("metrics-addr", "", "address for the prometheus endpoint")
	fs.String("log-level", "", "log level")
	return fs
}

// LoadConfig reads config.yaml from path (optional), GAMECLIENT_* environment variables and
// any flags that were explicitly set.
func LoadConfig(path string, flags *pflag.FlagSet) (config *Config, err error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("GAMECLIENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err = v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	err = v.Unmarshal(&config)
	return
}
