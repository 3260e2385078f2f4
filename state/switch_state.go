package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	PayloadOn  = "ON"
	PayloadOff = "OFF"
)

var ErrBadPayload = errors.New("unrecognised switch payload")

// SwitchState is a point in time view of one switch.
type SwitchState struct {
	LastChange time.Time `json:"last_change"`
	Name       string    `json:"name"`
	DeviceID   string    `json:"device_id"`
	On         bool      `json:"on"`
}

func (s SwitchState) Payload() string {
	return Payload(s.On)
}

func Payload(on bool) string {
	if on {
		return PayloadOn
	}
	return PayloadOff
}

// ParsePayload accepts ON/OFF in any case, along with true/false and 1/0.
func ParsePayload(payload string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(payload)) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrBadPayload, payload)
}
