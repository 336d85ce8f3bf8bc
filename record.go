package protoboard

import (
	"fmt"
	"strconv"
	"time"
)

// Record types as stored in the event log
const (
	RecordLedOn         = "LED_ON"
	RecordLedOff        = "LED_OFF"
	RecordSensorBlocked = "SENSOR_BLOQUEADO"
	RecordSensorFree    = "SENSOR_LIBRE"
	RecordCounterReset  = "RESET_CONTADOR"
	RecordCounterChange = "CONTADOR_CAMBIO"
)

// Record details
const (
	DetailSensor  = "SENSOR_IR"
	DetailCounter = "CONTADOR"
)

// Record origins
const (
	OriginApp    = "APP"
	OriginWeb    = "WEB"
	OriginDevice = "CIRCUITO"
)

// Record is a persisted view of something that happened to the board
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Detail    string    `json:"detail"`
	Origin    string    `json:"origin"`
	Value     string    `json:"value"`
}

// LEDDetail names an LED channel (0-based index) in the event log
func LEDDetail(index int) string {
	return fmt.Sprintf("LED%d", index+1)
}

func ledRecord(now time.Time, index int, on bool, origin string) Record {
	typ := RecordLedOff
	if on {
		typ = RecordLedOn
	}
	return Record{Timestamp: now, Type: typ, Detail: LEDDetail(index), Origin: origin, Value: bit(on)}
}

func counterRecord(now time.Time, typ string, counter uint64, origin string) Record {
	return Record{Timestamp: now, Type: typ, Detail: DetailCounter, Origin: origin, Value: strconv.FormatUint(counter, 10)}
}

func bit(on bool) string {
	if on {
		return "1"
	}
	return "0"
}
