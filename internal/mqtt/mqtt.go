// Package mqtt forwards panel updates to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/allbin/protoboard"
)

// Topics are the topics published under a prefix
type Topics struct {
	// State carries the device state after every change, retained
	State string
	// Notice carries reset outcomes
	Notice string
	// Status is online/offline, the offline value set as last will
	Status string
}

// NewTopics derives the topics from prefix
func NewTopics(prefix string) Topics {
	return Topics{
		State:  prefix + "/state",
		Notice: prefix + "/notice",
		Status: prefix + "/status",
	}
}

// Status payloads
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Publisher publishes panel updates to MQTT.
type Publisher interface {
	// PublishState sends the state carried by update
	PublishState(update protoboard.Update) error

	// PublishNotice sends a reset outcome
	PublishNotice(notice protoboard.Notice, at time.Time) error

	// Close disconnects from the broker.
	Close() error
}

// StatePayload is the JSON body of a state message
type StatePayload struct {
	Timestamp     string   `json:"timestamp"`
	Connected     bool     `json:"connected"`
	Port          string   `json:"port,omitempty"`
	LEDs          [4]bool  `json:"leds"`
	Confirmed     [4]bool  `json:"confirmed"`
	Counter       uint64   `json:"counter"`
	SensorBlocked bool     `json:"sensor_blocked"`
	ResetPending  bool     `json:"reset_pending"`
	Events        []string `json:"events,omitempty"`
}

// NoticePayload is the JSON body of a notice message
type NoticePayload struct {
	Timestamp string `json:"timestamp"`
	Notice    string `json:"notice"`
}

// FormatStatePayload creates the JSON payload for a state message
func FormatStatePayload(u protoboard.Update, at time.Time) ([]byte, error) {
	p := StatePayload{
		Timestamp:     at.UTC().Format(time.RFC3339),
		Connected:     u.Connected,
		Port:          u.Port,
		Counter:       u.State.Counter,
		SensorBlocked: u.State.SensorBlocked,
		ResetPending:  u.Pending,
	}
	for i, led := range u.State.LEDs {
		p.LEDs[i] = led.Value
		p.Confirmed[i] = led.Confirmed
	}
	for _, e := range u.Entries {
		p.Events = append(p.Events, e.Label)
	}
	return json.Marshal(p)
}

// FormatNoticePayload creates the JSON payload for a notice message
func FormatNoticePayload(n protoboard.Notice, at time.Time) ([]byte, error) {
	return json.Marshal(NoticePayload{
		Timestamp: at.UTC().Format(time.RFC3339),
		Notice:    n.String(),
	})
}
