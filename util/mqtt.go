package util

import (
	"errors"
	"fmt"
	"strings"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

var Client MQTT.Client

var subscriptions map[string]MQTT.MessageHandler

var connectHandlers map[string]func(MQTT.Client)

var ErrNotConnected = errors.New("mqtt client not connected")

// AvailabilityTopic is where online/offline is announced for every switch.
func AvailabilityTopic() string {
	return strings.TrimSuffix(Config.GetString("topic_base"), "/") + "/online"
}

var connectHandler MQTT.OnConnectHandler = func(client MQTT.Client) {
	Logger.Info().Msg("Connected")
	subscribe()
	client.Publish(AvailabilityTopic(), 0, true, PayloadOnline).Wait()
	if connectHandlers == nil {
		connectHandlers = make(map[string]func(client MQTT.Client))
	}
	for _, handler := range connectHandlers {
		handler(client)
	}
}

func RegisterMQTTConnectHook(name string, handler func(MQTT.Client)) {
	if connectHandlers == nil {
		connectHandlers = make(map[string]func(client MQTT.Client))
	}
	if handler == nil {
		delete(connectHandlers, name)
	} else {
		connectHandlers[name] = handler
	}
}

func subscribe() {
	if subscriptions == nil {
		subscriptions = make(map[string]MQTT.MessageHandler)
	}
	for topic, handler := range subscriptions {
		if token := Client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
			Logger.Error().Msgf("Error Subscribing to %s: %v", topic, fmt.Errorf("%v", token.Error()))
		}
	}
}

func RegisterMQTTSubscription(topic string, handler MQTT.MessageHandler) {
	if subscriptions == nil {
		subscriptions = make(map[string]MQTT.MessageHandler)
	}
	if handler == nil {
		delete(subscriptions, topic)
	} else {
		subscriptions[topic] = handler
	}
}

// ClearMQTTSubscriptions drops every registered subscription, unsubscribing
// from the broker when connected.
func ClearMQTTSubscriptions() {
	if Client != nil && Client.IsConnected() && len(subscriptions) > 0 {
		topics := make([]string, 0, len(subscriptions))
		for topic := range subscriptions {
			topics = append(topics, topic)
		}
		if token := Client.Unsubscribe(topics...); token.Wait() && token.Error() != nil {
			Logger.Warn().Msgf("Error unsubscribing: %v", token.Error())
		}
	}
	subscriptions = make(map[string]MQTT.MessageHandler)
}

// Publish sends payload and waits up to timeout for the broker to accept it.
func Publish(topic string, retained bool, payload interface{}, timeout time.Duration) error {
	if Client == nil || !Client.IsConnected() {
		return ErrNotConnected
	}
	token := Client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish to %s: timed out after %v", topic, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func receiver(client MQTT.Client, message MQTT.Message) {
	Logger.Warn().Msgf("Received message on %v but no handler", message.Topic())
}

var connectLostHandler MQTT.ConnectionLostHandler = func(client MQTT.Client, err error) {
	Logger.Info().Msgf("Connect lost: %v", err)
}

func MqttInit() {
	opts := MQTT.NewClientOptions()
	opts.AddBroker(Config.GetString("broker_uri"))
	opts.SetClientID(Config.GetString("id_base") + "_" + GetRandString((6)))
	opts.SetUsername(Config.GetString("username"))
	opts.SetPassword(Config.GetString("password"))
	opts.SetCleanSession(Config.GetBool("cleansess"))
	opts.SetAutoReconnect(true)
	opts.SetWill(AvailabilityTopic(), PayloadOffline, 0, true)
	opts.OnConnectionLost = connectLostHandler
	opts.OnConnect = connectHandler
	opts.SetDefaultPublishHandler(receiver)

	if Client != nil {
		Logger.Debug().Msg("Client exists - destroying")
		if Client.IsConnected() {
			Client.Disconnect(1000)
		}
		Client = nil
	}

	Client = MQTT.NewClient(opts)

	if token := Client.Connect(); token.Wait() && token.Error() != nil {
		panic(token.Error())
	}
}
