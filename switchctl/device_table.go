package switchctl

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownDevice = errors.New("unknown device")

// DeviceTable maps a logical switch name to its hardware device id. It is
// never written after construction, so sharing it between controllers is safe.
type DeviceTable map[string]string

// DefaultDeviceTable returns the lights known to ship with the controller.
func DefaultDeviceTable() DeviceTable {
	return DeviceTable{
		"living_room_chandelier": "00090A01010101",
		"living_room_spot_light": "00090701010102",
	}
}

func (t DeviceTable) Lookup(name string) (string, error) {
	id, ok := t[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDevice, name)
	}
	return id, nil
}

func (t DeviceTable) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
