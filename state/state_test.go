package state

import (
	"context"
	"errors"
	"testing"
	"time"
)

// Mock implementations for testing interfaces

type MockSwitch struct {
	name string
	on   bool
}

func (m *MockSwitch) Name() string { return m.name }
func (m *MockSwitch) IsOn() bool   { return m.on }
func (m *MockSwitch) Snapshot() SwitchState {
	return SwitchState{Name: m.name, On: m.on}
}

type MockNotifier struct {
	seen []SwitchState
}

func (m *MockNotifier) StateChanged(_ context.Context, s SwitchState) {
	m.seen = append(m.seen, s)
}

func TestSwitch_Interface(t *testing.T) {
	var sw Switch = &MockSwitch{name: "living_room_chandelier", on: true}

	if sw.Name() != "living_room_chandelier" {
		t.Errorf("Name() = %s, expected 'living_room_chandelier'", sw.Name())
	}
	if !sw.IsOn() {
		t.Error("IsOn() should be true")
	}
	if snap := sw.Snapshot(); snap.Name != sw.Name() || !snap.On {
		t.Errorf("Snapshot() = %+v, expected name and on state to match", snap)
	}
}

func TestNotifiers_FanOut(t *testing.T) {
	first := &MockNotifier{}
	second := &MockNotifier{}
	calls := 0
	fn := NotifierFunc(func(_ context.Context, s SwitchState) { calls++ })

	all := Notifiers{first, nil, second, fn}
	all.StateChanged(context.Background(), SwitchState{Name: "living_room_spot_light", On: true})

	if len(first.seen) != 1 || len(second.seen) != 1 {
		t.Errorf("expected each notifier to see one change, got %d and %d", len(first.seen), len(second.seen))
	}
	if calls != 1 {
		t.Errorf("NotifierFunc called %d times, expected 1", calls)
	}
	if first.seen[0].Name != "living_room_spot_light" {
		t.Errorf("notifier saw %s, expected living_room_spot_light", first.seen[0].Name)
	}
}

func TestPayload(t *testing.T) {
	if Payload(true) != "ON" {
		t.Errorf("Payload(true) = %s, expected ON", Payload(true))
	}
	if Payload(false) != "OFF" {
		t.Errorf("Payload(false) = %s, expected OFF", Payload(false))
	}
	s := SwitchState{On: true, LastChange: time.Now()}
	if s.Payload() != "ON" {
		t.Errorf("SwitchState.Payload() = %s, expected ON", s.Payload())
	}
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		payload  string
		expected bool
		wantErr  bool
	}{
		{"ON", true, false},
		{"on", true, false},
		{" On\n", true, false},
		{"true", true, false},
		{"1", true, false},
		{"OFF", false, false},
		{"off", false, false},
		{"false", false, false},
		{"0", false, false},
		{"toggle", false, true},
		{"", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			got, err := ParsePayload(tt.payload)
			if tt.wantErr {
				if !errors.Is(err, ErrBadPayload) {
					t.Errorf("ParsePayload(%q) error = %v, expected ErrBadPayload", tt.payload, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePayload(%q) returned error: %v", tt.payload, err)
			}
			if got != tt.expected {
				t.Errorf("ParsePayload(%q) = %v, expected %v", tt.payload, got, tt.expected)
			}
		})
	}
}
