package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleWaiter   Role = "WAITER"
	RoleKitchen  Role = "KITCHEN"
	RoleAdmin    Role = "ADMIN"
	RoleDelivery Role = "DELIVERY"
)

// ParseRole accepts the login screen roles; COOK is an alias for KITCHEN
func ParseRole(raw string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "WAITER":
		return RoleWaiter, nil
	case "KITCHEN", "COOK":
		return RoleKitchen, nil
	case "ADMIN":
		return RoleAdmin, nil
	case "DELIVERY":
		return RoleDelivery, nil
	}
	return "", ErrInvalidRole
}

type View string

const (
	ViewWaiter   View = "waiter"
	ViewKitchen  View = "kitchen"
	ViewAdmin    View = "admin"
	ViewDelivery View = "delivery"
)

// CanView reports whether the role's navigation offers the view. This is view
// selection only, not access control.
func (r Role) CanView(v View) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleWaiter:
		return v == ViewWaiter || v == ViewDelivery
	case RoleKitchen:
		return v == ViewKitchen || v == ViewDelivery
	case RoleDelivery:
		return v == ViewDelivery
	}
	return false
}

// DefaultView is the view a role lands on after login
func (r Role) DefaultView() View {
	switch r {
	case RoleKitchen:
		return ViewKitchen
	case RoleAdmin:
		return ViewAdmin
	case RoleDelivery:
		return ViewDelivery
	default:
		return ViewWaiter
	}
}

type User struct {
	Username string
	Role     Role
}

// TerminalSession is the registry record of a logged-in terminal user
type TerminalSession struct {
	ID           int
	Name         string
	Role         Role
	Status       SessionStatus
	LastSeen     time.Time
	OrdersPlaced int
	CreatedAt    time.Time
}

type SessionStatus string

const (
	SessionStatusOnline  SessionStatus = "online"
	SessionStatusOffline SessionStatus = "offline"
)

// NewTerminalSession creates a new online session record
func NewTerminalSession(name string, role Role) (*TerminalSession, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}

	return &TerminalSession{
		Name:      name,
		Role:      role,
		Status:    SessionStatusOnline,
		LastSeen:  time.Now(),
		CreatedAt: time.Now(),
	}, nil
}

// UpdateHeartbeat updates the session's last seen timestamp
func (s *TerminalSession) UpdateHeartbeat() {
	s.LastSeen = time.Now()
	s.Status = SessionStatusOnline
}

// SetOffline marks the session as offline
func (s *TerminalSession) SetOffline() {
	s.Status = SessionStatusOffline
}

func (s *TerminalSession) IncrementOrdersPlaced() {
	s.OrdersPlaced++
}

// IsOnline checks if the session is considered online based on last heartbeat
func (s *TerminalSession) IsOnline(heartbeatTimeout time.Duration) bool {
	if s.Status == SessionStatusOffline {
		return false
	}
	return time.Since(s.LastSeen) <= heartbeatTimeout
}

var (
	ErrInvalidRole = errors.New("role must be one of WAITER, KITCHEN, ADMIN, DELIVERY")
	ErrNoSession   = errors.New("no active session")
)
