package state

import "context"

// Switch is what the host integration sees of a controllable light.
type Switch interface {
	Name() string
	IsOn() bool
	Snapshot() SwitchState
}

// Notifier is told about every confirmed state change.
type Notifier interface {
	StateChanged(ctx context.Context, s SwitchState)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(ctx context.Context, s SwitchState)

func (f NotifierFunc) StateChanged(ctx context.Context, s SwitchState) {
	f(ctx, s)
}

// Notifiers fans a change out to several notifiers in order.
type Notifiers []Notifier

func (n Notifiers) StateChanged(ctx context.Context, s SwitchState) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.StateChanged(ctx, s)
		}
	}
}
