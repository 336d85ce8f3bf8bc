package model

import "time"

// Command types
const (
	CommandTypeLED    = "LED"
	CommandTypeSystem = "SYSTEM"
)

// Command actions
const (
	ActionOn     = "ON"
	ActionOff    = "OFF"
	ActionToggle = "TOGGLE"
	ActionReset  = "RESET"
)

// Command is a request queued by the web channel for the panel to run.
type Command struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	DeviceID  string    `gorm:"size:100;index" json:"device_id,omitempty"`
	Type      string    `gorm:"size:16;not null" json:"tipo"`
	Detail    string    `gorm:"size:50;not null" json:"detalle"`
	Action    string    `gorm:"size:16;not null" json:"accion"`
	Sent      bool      `gorm:"index;not null" json:"enviada"`
	CreatedAt time.Time `json:"created_at"`
}

// DeviceState is the last value reported for one detail of a device.
type DeviceState struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DeviceID  string    `gorm:"size:100;uniqueIndex:idx_device_detail" json:"device_id"`
	Detail    string    `gorm:"size:50;uniqueIndex:idx_device_detail;not null" json:"detalle"`
	Value     string    `gorm:"size:20;not null" json:"valor"`
	UpdatedAt time.Time `json:"updated_at"`
}
