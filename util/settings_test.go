package util

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// resetConfig drops values set by other tests so defaults are observable.
func resetConfig() {
	Config = viper.New()
}

func TestGetRandStringVariousLengths(t *testing.T) {
	tests := []struct {
		name   string
		length int
	}{
		{"Zero length", 0},
		{"Single character", 1},
		{"Small string", 5},
		{"Large string", 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetRandString(tt.length)

			if len(result) != tt.length {
				t.Errorf("GetRandString(%d) = length %d, expected %d", tt.length, len(result), tt.length)
			}
		})
	}
}

func TestRegisterNewConfigListener(t *testing.T) {
	config_listeners = []func(){}

	called1 := false
	called2 := false

	listener1 := func() { called1 = true }
	listener2 := func() { called2 = true }

	RegisterNewConfigListener(listener1)
	RegisterNewConfigListener(listener2)

	if len(config_listeners) != 2 {
		t.Errorf("Expected 2 listeners, got %d", len(config_listeners))
	}

	RegisterNewConfigListener(listener1) // Should not add duplicate

	if len(config_listeners) != 2 {
		t.Errorf("Expected 2 listeners after duplicate addition, got %d", len(config_listeners))
	}

	OnNewConfig()

	if !called1 || !called2 {
		t.Error("OnNewConfig should call all registered listeners")
	}
}

func TestOnNewConfigOrder(t *testing.T) {
	config_listeners = []func(){}

	var order []string
	RegisterNewConfigListener(func() { order = append(order, "logging") })
	RegisterNewConfigListener(func() { order = append(order, "model") })
	RegisterNewConfigListener(func() { order = append(order, "mqtt") })

	OnNewConfig()

	if len(order) != 3 || order[0] != "logging" || order[1] != "model" || order[2] != "mqtt" {
		t.Errorf("listeners ran as %v, expected registration order", order)
	}
}

func TestSetupConfigDefaults(t *testing.T) {
	resetConfig()
	SetupConfig()

	if Config.GetString("Broker_URI") == "" {
		t.Error("Broker_URI default should not be empty")
	}
	if got := Config.GetString("controller.host"); got != "192.168.31.161" {
		t.Errorf("controller.host default = %s, expected 192.168.31.161", got)
	}
	if got := Config.GetInt("controller.port"); got != 11315 {
		t.Errorf("controller.port default = %d, expected 11315", got)
	}
	if got := Config.GetInt("controller.read_buffer"); got != 4096 {
		t.Errorf("controller.read_buffer default = %d, expected 4096", got)
	}
	if got := Config.GetDuration("settle_delay"); got != time.Second {
		t.Errorf("settle_delay default = %v, expected 1s", got)
	}
	if got := Config.GetDuration("controller.io_timeout"); got != 0 {
		t.Errorf("controller.io_timeout default = %v, expected 0", got)
	}
	devices := Config.GetStringMapString("devices")
	if devices["living_room_chandelier"] != "00090A01010101" {
		t.Errorf("devices default = %v, expected the chandelier id", devices)
	}
	if Config.GetString("topic_base") != "light_switch" {
		t.Errorf("topic_base default = %s, expected light_switch", Config.GetString("topic_base"))
	}
}

func TestSetupConfigEnvironmentVariables(t *testing.T) {
	resetConfig()
	t.Setenv("LIGHT_SWITCH_CONTROLLER_HOST", "10.0.0.42")

	SetupConfig()

	if got := Config.GetString("controller.host"); got != "10.0.0.42" {
		t.Errorf("controller.host = %s, expected value from LIGHT_SWITCH_CONTROLLER_HOST", got)
	}
}

func TestSetupConfigFileSearch(t *testing.T) {
	content := `
controller:
  host: 10.1.1.1
  port: 9000
settle_delay: 250ms
switches:
  - name: living_room_chandelier
    usr_data_sn: "1738310883024"
    phone_num: "13652388"
    destination_id: "0A010101"
    source_id: "00fefc"
`
	expectedName := "light_switch.yaml"
	if err := os.WriteFile(expectedName, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	defer func() { _ = os.Remove(expectedName) }() //nolint:errcheck // test cleanup

	resetConfig()
	SetupConfig()

	if got := Config.GetString("controller.host"); got != "10.1.1.1" {
		t.Errorf("controller.host = %s, expected 10.1.1.1", got)
	}
	if got := Config.GetInt("controller.port"); got != 9000 {
		t.Errorf("controller.port = %d, expected 9000", got)
	}
	if got := Config.GetDuration("settle_delay"); got != 250*time.Millisecond {
		t.Errorf("settle_delay = %v, expected 250ms", got)
	}

	var m Model
	if err := m.BuildModel(); err != nil {
		t.Fatalf("BuildModel() returned error: %v", err)
	}
	if len(m.Switches) != 1 || m.Switches[0].DestinationID != "0A010101" {
		t.Errorf("Switches = %+v, expected the configured chandelier", m.Switches)
	}
}
