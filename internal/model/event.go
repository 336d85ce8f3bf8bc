package model

import "time"

// Event is one row of the board's event log.
type Event struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	Type      string    `gorm:"size:32;not null" json:"type"`
	Detail    string    `gorm:"size:32;not null" json:"detail"`
	Origin    string    `gorm:"size:16;not null" json:"origin"`
	Value     string    `gorm:"size:50;not null" json:"value"`
	RemoteIP  string    `gorm:"size:45" json:"remote_ip,omitempty"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
}

// Export is a rendered history file.
type Export struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	Format    string    `gorm:"size:8;not null" json:"format"`
	Size      int       `json:"size"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
