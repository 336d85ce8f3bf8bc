package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/allbin/protoboard"
)

// Options configures a RealPublisher
type Options struct {
	Broker   string
	ClientID string
	Prefix   string
	QoS      byte
	Logger   *zap.SugaredLogger
}

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
	topics Topics
	qos    byte
	log    *zap.SugaredLogger
}

// NewRealPublisher creates a publisher connected to the configured broker.
func NewRealPublisher(o Options) (*RealPublisher, error) {
	log := o.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	topics := NewTopics(o.Prefix)

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(topics.Status, StatusOffline, o.QoS, true).
		SetOnConnectHandler(func(c paho.Client) {
			log.Infow("MQTT connected", "broker", o.Broker)
			c.Publish(topics.Status, o.QoS, true, StatusOnline)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warnw("MQTT connection lost", "broker", o.Broker, "error", err)
		})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &RealPublisher{client: client, topics: topics, qos: o.QoS, log: log}, nil
}

// PublishState sends the device state, retained so late subscribers see it
func (p *RealPublisher) PublishState(update protoboard.Update) error {
	payload, err := FormatStatePayload(update, time.Now())
	if err != nil {
		return fmt.Errorf("format state payload: %w", err)
	}
	return p.publish(p.topics.State, true, payload)
}

// PublishNotice sends a reset outcome
func (p *RealPublisher) PublishNotice(notice protoboard.Notice, at time.Time) error {
	payload, err := FormatNoticePayload(notice, at)
	if err != nil {
		return fmt.Errorf("format notice payload: %w", err)
	}
	return p.publish(p.topics.Notice, false, payload)
}

func (p *RealPublisher) publish(topic string, retained bool, payload []byte) error {
	token := p.client.Publish(topic, p.qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close announces the publisher offline and disconnects from the broker.
func (p *RealPublisher) Close() error {
	token := p.client.Publish(p.topics.Status, p.qos, true, StatusOffline)
	token.WaitTimeout(time.Second)
	p.client.Disconnect(1000)
	return nil
}
