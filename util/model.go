package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/elijahnyp/light_switch/switchctl"
)

// ControllerEndpoint is where the device controller listens.
type ControllerEndpoint struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	ReadBuffer  int           `mapstructure:"read_buffer"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	IOTimeout   time.Duration `mapstructure:"io_timeout"`
}

type Model struct {
	Switches   []switchctl.Config    `mapstructure:"switches"`
	Devices    switchctl.DeviceTable
	Controller ControllerEndpoint
	TopicBase  string
}

func (m *Model) BuildModel() error {
	var next Model
	if err := Config.UnmarshalKey("switches", &next.Switches); err != nil {
		Logger.Error().Msgf("error unmarshaling switches: %v", err)
		return fmt.Errorf("unmarshal switches: %w", err)
	}
	next.Devices = switchctl.DeviceTable(Config.GetStringMapString("devices"))
	next.Controller = ControllerEndpoint{
		Host:        Config.GetString("controller.host"),
		Port:        Config.GetInt("controller.port"),
		ReadBuffer:  Config.GetInt("controller.read_buffer"),
		DialTimeout: Config.GetDuration("controller.dial_timeout"),
		IOTimeout:   Config.GetDuration("controller.io_timeout"),
	}
	next.TopicBase = strings.TrimSuffix(Config.GetString("topic_base"), "/")
	*m = next
	return nil
}

func (m Model) CommandTopic(name string) string {
	return m.TopicBase + "/" + name + "/set"
}

func (m Model) StateTopic(name string) string {
	return m.TopicBase + "/" + name + "/state"
}

// FindSwitchByCommandTopic returns the switch a command topic belongs to.
func (m Model) FindSwitchByCommandTopic(topic string) string {
	for _, sw := range m.Switches {
		if m.CommandTopic(sw.Name) == topic {
			return sw.Name
		}
	}
	return ""
}

func (m Model) FindSwitch(name string) (switchctl.Config, bool) {
	for _, sw := range m.Switches {
		if sw.Name == name {
			return sw, true
		}
	}
	return switchctl.Config{}, false
}

func (m Model) SubscribeTopics() []string {
	var topics []string
	for _, sw := range m.Switches {
		topics = append(topics, m.CommandTopic(sw.Name))
	}
	return topics
}
