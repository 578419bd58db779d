package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/Qetrox/esp32-gps-follower/pkg/events"
	"github.com/Qetrox/esp32-gps-follower/pkg/log"
)

// Mirror republishes accepted fixes to an MQTT broker as retained messages,
// so dashboards and home automation see the last known position immediately
// on subscribe. The mirror is best effort: publish failures are logged and
// the HTTP path is never held up by the broker.
type Mirror struct {
	client paho.Client
	broker *events.Broker
	topic  string
	logger zerolog.Logger

	sub  events.Subscriber
	done chan struct{}
	once sync.Once
}

// NewMirror connects to the broker and subscribes to the event stream.
func NewMirror(brokerURL, topic string, broker *events.Broker) (*Mirror, error) {
	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID("gpsfollower-server").
		SetAutoReconnect(true)

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}

	m := &Mirror{
		client: client,
		broker: broker,
		topic:  topic,
		logger: log.WithComponent("mqtt"),
		sub:    broker.Subscribe(),
		done:   make(chan struct{}),
	}
	go m.run()

	m.logger.Info().Str("broker", brokerURL).Str("topic", topic).Msg("fix mirror started")
	return m, nil
}

func (m *Mirror) run() {
	defer close(m.done)
	for event := range m.sub {
		if event.Type != events.EventFixUpdated || event.Fix == nil {
			continue
		}
		payload, err := json.Marshal(event.Fix)
		if err != nil {
			continue
		}
		// QoS 0 retained: only the newest position matters.
		token := m.client.Publish(m.topic, 0, true, payload)
		if token.Wait() && token.Error() != nil {
			m.logger.Warn().Err(token.Error()).Msg("publish failed")
		}
	}
}

// Stop unsubscribes and disconnects from the broker.
func (m *Mirror) Stop() {
	m.once.Do(func() {
		m.broker.Unsubscribe(m.sub)
		<-m.done
		m.client.Disconnect(250)
	})
}
