package switchctl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/elijahnyp/light_switch/state"
	"github.com/elijahnyp/light_switch/transport"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultSettleDelay is how long the device gets to react before its status
// is queried.
const DefaultSettleDelay = time.Second

var ErrMissingField = errors.New("missing required switch field")

// Config is the per-switch record supplied by the host configuration.
type Config struct {
	Name          string `mapstructure:"name" json:"name"`
	UsrDataSN     string `mapstructure:"usr_data_sn" json:"usr_data_sn"`
	PhoneNum      string `mapstructure:"phone_num" json:"phone_num"`
	DestinationID string `mapstructure:"destination_id" json:"destination_id"`
	SourceID      string `mapstructure:"source_id" json:"source_id"`
}

func (c Config) Validate() error {
	fields := []struct{ key, value string }{
		{"name", c.Name},
		{"usr_data_sn", c.UsrDataSN},
		{"phone_num", c.PhoneNum},
		{"destination_id", c.DestinationID},
		{"source_id", c.SourceID},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.key)
		}
	}
	return nil
}

// Identity is the immutable addressing information of one switch.
type Identity struct {
	Name          string `json:"name"`
	DeviceID      string `json:"device_id"`
	DestinationID string `json:"destination_id"`
	SourceID      string `json:"source_id"`
	UsrDataSN     string `json:"usr_data_sn"`
	PhoneNum      string `json:"phone_num"`
}

// Outcome records what happened during one TurnOn/TurnOff interaction.
type Outcome struct {
	InteractionID string
	Command       transport.Result
	Status        transport.Result
	Intent        Intent
	StatusSent    bool
	Committed     bool
	On            bool
}

// Controller drives the command then status-query exchange for a single
// switch and holds the last confirmed on/off state.
//
// State only changes after both the command and the status query come back
// with a response. Anything else leaves it as it was.
type Controller struct {
	sender   transport.Sender
	notifier state.Notifier
	sleep    func(ctx context.Context, d time.Duration) error
	logger   zerolog.Logger
	id       Identity
	settle   time.Duration

	mu         sync.RWMutex
	lastChange time.Time
	on         bool
}

type Option func(*Controller)

func WithNotifier(n state.Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) { c.settle = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithInitialState seeds the confirmed state, used when a controller is
// rebuilt after a configuration reload.
func WithInitialState(on bool, lastChange time.Time) Option {
	return func(c *Controller) {
		c.on = on
		c.lastChange = lastChange
	}
}

func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) { c.sleep = fn }
}

// New builds a controller for cfg.Name. The name must be present in table.
func New(cfg Config, table DeviceTable, sender transport.Sender, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	deviceID, err := table.Lookup(cfg.Name)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, errors.New("switch controller requires a sender")
	}

	c := &Controller{
		id: Identity{
			Name:          cfg.Name,
			DeviceID:      deviceID,
			DestinationID: cfg.DestinationID,
			SourceID:      cfg.SourceID,
			UsrDataSN:     cfg.UsrDataSN,
			PhoneNum:      cfg.PhoneNum,
		},
		sender: sender,
		settle: DefaultSettleDelay,
		sleep:  sleepContext,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("switch", cfg.Name).Str("device_id", deviceID).Logger()
	return c, nil
}

func (c *Controller) Name() string { return c.id.Name }

func (c *Controller) Identity() Identity { return c.id }

func (c *Controller) IsOn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.on
}

func (c *Controller) Snapshot() state.SwitchState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return state.SwitchState{
		Name:       c.id.Name,
		DeviceID:   c.id.DeviceID,
		On:         c.on,
		LastChange: c.lastChange,
	}
}

func (c *Controller) TurnOn(ctx context.Context) Outcome {
	return c.Apply(ctx, IntentTurnOn)
}

func (c *Controller) TurnOff(ctx context.Context) Outcome {
	return c.Apply(ctx, IntentTurnOff)
}

// Apply runs one full interaction for intent. Callers must not run two
// interactions for the same controller at once; Worker takes care of that.
func (c *Controller) Apply(ctx context.Context, intent Intent) Outcome {
	out := Outcome{
		InteractionID: uuid.NewString(),
		Intent:        intent,
		On:            c.IsOn(),
	}
	log := c.logger.With().Str("interaction", out.InteractionID).Str("intent", intent.String()).Logger()

	log.Debug().Str("action", string(intent.Action())).Msg("sending device command")
	out.Command = c.sender.Send(ctx, NewSetStateCommand(c.id, intent.Action()))
	if !out.Command.OK() {
		log.Warn().Str("result", out.Command.Kind.String()).Msg("device command failed, state unchanged")
		return out
	}
	log.Debug().Msg("device command sent")

	if err := c.sleep(ctx, c.settle); err != nil {
		log.Warn().Err(err).Msg("interaction cancelled while waiting for device, state unchanged")
		return out
	}

	log.Debug().Msg("querying device status")
	out.StatusSent = true
	out.Status = c.sender.Send(ctx, NewQueryStatusCommand(c.id))
	if !out.Status.OK() {
		log.Warn().Str("result", out.Status.Kind.String()).Msg("status query failed after command was sent, state unchanged")
		return out
	}
	log.Debug().Msg("device status received")

	c.mu.Lock()
	c.on = intent.Target()
	c.lastChange = time.Now()
	c.mu.Unlock()

	out.Committed = true
	out.On = intent.Target()
	log.Info().Bool("on", out.On).Msg("switch state confirmed")

	if c.notifier != nil {
		c.notifier.StateChanged(ctx, c.Snapshot())
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ state.Switch = (*Controller)(nil)
