package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/elijahnyp/light_switch/state"
	"github.com/elijahnyp/light_switch/switchctl"
	"github.com/elijahnyp/light_switch/transport"
	. "github.com/elijahnyp/light_switch/util"
)

const publishTimeout = 5 * time.Second

var (
	modelMu sync.RWMutex
	model   Model

	fleetMu     sync.RWMutex
	fleet       *switchctl.Fleet
	fleetCancel context.CancelFunc
	fleetDone   chan struct{}

	// root context for fleet workers, replaced in main
	rootCtx = context.Background()
)

func currentModel() Model {
	modelMu.RLock()
	defer modelMu.RUnlock()
	return model
}

func loadModel() {
	var next Model
	if err := next.BuildModel(); err != nil {
		Logger.Error().Msgf("Error building model: %v", err)
		return
	}
	modelMu.Lock()
	model = next
	modelMu.Unlock()
	Logger.Info().Msgf("model loaded with %d switches", len(next.Switches))
}

func currentFleet() *switchctl.Fleet {
	fleetMu.RLock()
	defer fleetMu.RUnlock()
	return fleet
}

func newSender(m Model) *transport.Client {
	c := transport.NewClient(m.Controller.Host, m.Controller.Port)
	if m.Controller.ReadBuffer > 0 {
		c.ReadBufferSize = m.Controller.ReadBuffer
	}
	c.DialTimeout = m.Controller.DialTimeout
	c.IOTimeout = m.Controller.IOTimeout
	c.Logger = Component("transport").With().Str("addr", c.Addr).Logger()
	return c
}

// stopFleet cancels the running workers and waits for them to exit.
func stopFleet() {
	fleetMu.RLock()
	cancel, done := fleetCancel, fleetDone
	fleetMu.RUnlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// rebuildFleet replaces the running fleet with one matching the current
// model. Confirmed state is carried over for switches that remain.
func rebuildFleet() {
	m := currentModel()
	stopFleet()

	next, errs := switchctl.BuildFleet(m.Switches, m.Devices, newSender(m), Config.GetInt("queue_size"), currentFleet(),
		switchctl.WithNotifier(stateNotifier),
		switchctl.WithSettleDelay(Config.GetDuration("settle_delay")),
		switchctl.WithLogger(Component("switchctl")),
	)
	for _, err := range errs {
		Logger.Error().Err(err).Msg("switch skipped")
	}

	ctx, cancel := context.WithCancel(rootCtx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := next.Run(ctx); err != nil {
			Logger.Error().Err(err).Msg("switch workers stopped")
		}
	}()

	fleetMu.Lock()
	fleet, fleetCancel, fleetDone = next, cancel, done
	fleetMu.Unlock()
	Logger.Info().Msgf("%d switches ready", next.Len())
}

var errNoFleet = errors.New("switches not ready")

func submitIntent(name string, on bool) (<-chan switchctl.Outcome, error) {
	f := currentFleet()
	if f == nil {
		return nil, errNoFleet
	}
	return f.Submit(name, switchctl.IntentFor(on))
}

// publishState pushes a retained ON/OFF to the switch's state topic.
func publishState(_ context.Context, s state.SwitchState) {
	topic := currentModel().StateTopic(s.Name)
	if err := Publish(topic, true, s.Payload(), publishTimeout); err != nil {
		Logger.Warn().Err(err).Msgf("unable to publish state for %s", s.Name)
	}
}

func publishAllStates() {
	f := currentFleet()
	if f == nil {
		return
	}
	for _, s := range f.Snapshots() {
		publishState(context.Background(), s)
	}
}

var stateNotifier = state.Notifiers{
	state.NotifierFunc(publishState),
	state.NotifierFunc(broadcastState),
}

func subscribeCommandTopics() {
	ClearMQTTSubscriptions()
	for _, topic := range currentModel().SubscribeTopics() {
		RegisterMQTTSubscription(topic, receiver)
	}
}

func receiver(client MQTT.Client, message MQTT.Message) {
	Logger.Debug().Msgf("Message Received on topic %s", message.Topic())
	name := currentModel().FindSwitchByCommandTopic(message.Topic())
	if name == "" {
		Logger.Debug().Msgf("topic %s not found in model.  Fix subscription or add to model", message.Topic())
		return
	}
	on, err := state.ParsePayload(string(message.Payload()))
	if err != nil {
		Logger.Warn().Err(err).Msgf("ignoring command for %s", name)
		return
	}
	if _, err := submitIntent(name, on); err != nil {
		Logger.Warn().Err(err).Msgf("unable to queue command for %s", name)
	}
}

func main() {
	LogInit("trace")
	SetupConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCtx = ctx

	RegisterNewConfigListener(func() { LogInit(Config.GetString("log_level")) })
	RegisterNewConfigListener(loadModel)
	RegisterNewConfigListener(rebuildFleet)
	RegisterNewConfigListener(subscribeCommandTopics)
	RegisterMQTTConnectHook("haadvertise", func(client MQTT.Client) {
		AdvertiseHA(currentModel(), client)
	})
	RegisterMQTTConnectHook("states", func(client MQTT.Client) {
		go publishAllStates()
	})
	RegisterNewConfigListener(MqttInit)
	OnNewConfig()

	monitor := NewMonitorServer()
	monitor.AddHandler("/ws", ServeWebSocket)
	monitor.AddHandler("/api/status", APISystemStatus)
	monitor.AddHandler("/api/switch", APISwitch)
	if err := monitor.Start(); err != nil {
		Logger.Error().Msgf("Error starting monitor server: %v", err)
	}
	RegisterNewConfigListener(func() { monitor.Restart() })

	Logger.Info().Msg("ready")
	go OnlinePinger(ctx)
	go HAAdvertiser(ctx)

	<-ctx.Done()
	Logger.Info().Msg("shutting down")
	stopFleet()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := monitor.Shutdown(shutdownCtx); err != nil {
		Logger.Warn().Err(err).Msg("error shutting down monitor server")
	}
	if Client != nil && Client.IsConnected() {
		if err := Publish(AvailabilityTopic(), true, PayloadOffline, publishTimeout); err != nil {
			Logger.Warn().Err(err).Msg("unable to publish offline")
		}
		Client.Disconnect(1000)
	}
}

// OnlinePinger keeps the availability topic fresh.
func OnlinePinger(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := Publish(AvailabilityTopic(), true, PayloadOnline, publishTimeout); err != nil {
			Logger.Error().Msgf("Error publishing online message: %v", err)
		}
	}
}

// HAAdvertiser - advertises Home Assistant discovery messages every 5 minutes
func HAAdvertiser(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if Client != nil && Client.IsConnected() {
			Logger.Debug().Msg("Advertising Home Assistant discovery messages")
			AdvertiseHA(currentModel(), Client)
		}
	}
}
