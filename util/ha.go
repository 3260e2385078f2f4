package util

import (
	"encoding/json"
	"fmt"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/elijahnyp/light_switch/state"
)

type HAAvdvertisementAvailability struct {
	Topic               string `json:"topic"`                 // : "light_switch/online"
	PayloadAvailable    string `json:"payload_available"`     // : "online"
	PayloadNotAvailable string `json:"payload_not_available"` // : "offline"
}

type HADeviceSpec struct {
	Name         string   `json:"name"` // : "Living Room Controller"
	Identifiers  []string `json:"ids"`  // : ["light_switch"]
	Manufacturer string   `json:"mf,omitempty"`
	Model        string   `json:"mdl,omitempty"`
}

type HAAdvertisement struct { //nolint:govet // struct layout optimized for JSON field order
	HAAvdvertisementAvailability []HAAvdvertisementAvailability `json:"availability"`
	Device                       HADeviceSpec                   `json:"device"`
	UniqueID                     string                         `json:"uniq_id"`       // "light_switch-living_room_chandelier"
	Name                         string                         `json:"name"`          // : "living_room_chandelier"
	CommandTopic                 string                         `json:"command_topic"` // : "light_switch/living_room_chandelier/set"
	StateTopic                   string                         `json:"state_topic"`   // : "light_switch/living_room_chandelier/state"
	PayloadOn                    string                         `json:"payload_on"`
	PayloadOff                   string                         `json:"payload_off"`
	StateOn                      string                         `json:"state_on"`
	StateOff                     string                         `json:"state_off"`
	DeviceClass                  string                         `json:"device_class"` // : "switch"
	Optimistic                   bool                           `json:"optimistic"`
	Retain                       bool                           `json:"retain"`
	Qos                          int                            `json:"qos"`
}

func (ha HAAdvertisement) ToJson() string {
	data, err := json.Marshal(ha)
	if err != nil {
		Logger.Error().Msgf("Error marshalling HAAdvertisement: %v", err)
		return ""
	}
	return string(data)
}

func ConstructHAAdvertisement(name, commandTopic, stateTopic, availabilityTopic string) HAAdvertisement {
	return HAAdvertisement{
		Name:         name,
		CommandTopic: commandTopic,
		StateTopic:   stateTopic,
		PayloadOn:    state.PayloadOn,
		PayloadOff:   state.PayloadOff,
		StateOn:      state.PayloadOn,
		StateOff:     state.PayloadOff,
		HAAvdvertisementAvailability: []HAAvdvertisementAvailability{
			{
				Topic:               availabilityTopic,
				PayloadAvailable:    PayloadOnline,
				PayloadNotAvailable: PayloadOffline,
			},
		},
		Qos: 0,
		// state is only reported once the controller confirms it
		Optimistic:  false,
		Retain:      false,
		UniqueID:    "light_switch-" + name,
		DeviceClass: "switch",
		Device: HADeviceSpec{
			Name:         "light_switch_controller",
			Identifiers:  []string{"light_switch_controller"},
			Manufacturer: "light_switch",
			Model:        "tcp controller",
		},
	}
}

// DiscoveryTopic is the Home Assistant MQTT discovery config topic for a switch.
func DiscoveryTopic(name string) string {
	return fmt.Sprintf("%s/switch/%s/config", Config.GetString("discovery_prefix"), name)
}

func AdvertiseHA(m Model, client MQTT.Client) {
	for _, sw := range m.Switches {
		if _, err := m.Devices.Lookup(sw.Name); err != nil {
			continue
		}
		ha := ConstructHAAdvertisement(sw.Name, m.CommandTopic(sw.Name), m.StateTopic(sw.Name), AvailabilityTopic())
		if token := client.Publish(DiscoveryTopic(sw.Name), 0, true, ha.ToJson()); token.Wait() && token.Error() != nil {
			Logger.Error().Msgf("Error Publishing: %v", fmt.Errorf("%v", token.Error()))
		}
	}
}
