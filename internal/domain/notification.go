package domain

import (
	"fmt"
	"time"
)

type NotificationLevel string

const (
	LevelInfo    NotificationLevel = "info"
	LevelSuccess NotificationLevel = "success"
	LevelWarning NotificationLevel = "warning"
	LevelError   NotificationLevel = "error"
	LevelAlert   NotificationLevel = "alert"
)

const (
	// ReadyAlertDuration is how long a "table is ready" alert stays on screen
	ReadyAlertDuration = 8 * time.Second
	// ErrorAlertDuration is how long a failed-submission alert stays on screen
	ErrorAlertDuration = 6 * time.Second
	TransientDuration  = 4 * time.Second
)

// Notification is a user-facing, non-blocking message
type Notification struct {
	ID          string
	Level       NotificationLevel
	Title       string
	Message     string
	OrderID     string
	TableID     string
	TableNumber int
	Duration    time.Duration
	Persistent  bool
	Origin      string
	CreatedAt   time.Time
}

// TableLabel is the label staff use for a table
func TableLabel(number int) string {
	return fmt.Sprintf("MESA %d", number)
}
