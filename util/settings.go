package util

import (
	"crypto/rand"
	"fmt"
	"reflect"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const ENV_PREFIX = "LIGHT_SWITCH"

var Config = viper.New()

var config_listeners []func()

func RegisterNewConfigListener(new_listener func()) {
	for _, listener := range config_listeners {
		if reflect.ValueOf(new_listener).Pointer() == reflect.ValueOf(listener).Pointer() {
			Logger.Warn().Msg("config listener already registered")
			return
		}
	}
	config_listeners = append(config_listeners, new_listener)
}

func OnNewConfig() {
	for _, listener := range config_listeners {
		listener()
	}
}

func GetRandString(n int) string {
	const letterBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, n)
	for i := range b {
		randBytes := make([]byte, 1)
		if _, err := rand.Read(randBytes); err != nil {
			b[i] = letterBytes[i%len(letterBytes)]
		} else {
			b[i] = letterBytes[int(randBytes[0])%len(letterBytes)]
		}
	}
	return string(b)
}

func setDefaults() {
	Config.SetDefault("Log_level", "info")
	// mqtt
	Config.SetDefault("Broker_URI", "tcp://mqtt")
	Config.SetDefault("Cleansess", false)
	Config.SetDefault("Id_base", "light_switch")
	Config.SetDefault("Username", "")
	Config.SetDefault("Password", "")
	Config.SetDefault("Topic_base", "light_switch")
	Config.SetDefault("Discovery_prefix", "homeassistant")
	// device controller
	Config.SetDefault("Controller.host", "192.168.31.161")
	Config.SetDefault("Controller.port", 11315)
	Config.SetDefault("Controller.read_buffer", 4096)
	Config.SetDefault("Controller.dial_timeout", "0s")
	Config.SetDefault("Controller.io_timeout", "0s")
	Config.SetDefault("Settle_delay", "1s")
	Config.SetDefault("Queue_size", 4)
	Config.SetDefault("Devices", map[string]string{
		"living_room_chandelier": "00090A01010101",
		"living_room_spot_light": "00090701010102",
	})
	// monitor
	Config.SetDefault("Details_port", 8080)
}

func SetupConfig() {
	Config.SetEnvPrefix(ENV_PREFIX)
	Config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults()

	// config file
	Config.SetConfigName("light_switch")
	Config.AddConfigPath("/")
	Config.AddConfigPath("./")
	Config.AddConfigPath("./config")
	Config.AddConfigPath("/etc")
	Config.AddConfigPath("/light_switch")
	Config.AddConfigPath("/light_switch/config")

	err := Config.ReadInConfig()
	if err != nil {
		Logger.Error().Msgf("unable to read config file: %v", fmt.Errorf("%v", err))
	}

	// environment variables
	Config.AutomaticEnv()

	// watch for changes
	Config.WatchConfig()
	Config.OnConfigChange(func(e fsnotify.Event) {
		Logger.Info().Msgf("Config file changed: %v", e.Name)
		Logger.Debug().Msgf("Config Additional Info: %v", e.String())
		OnNewConfig()
	})
}
