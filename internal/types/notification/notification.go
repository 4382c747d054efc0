package notification

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	TypeMilestoneUnlocked NotificationType = "milestone_unlocked"
	TypeLevelUp           NotificationType = "level_up"
	TypeStreakRisk        NotificationType = "streak_risk"
)

type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusFailed  NotificationStatus = "failed"
)

type Notification struct {
	ID        uuid.UUID          `json:"id" db:"id"`
	UserID    uuid.UUID          `json:"user_id" db:"user_id"`
	Type      NotificationType   `json:"type" db:"type"`
	Status    NotificationStatus `json:"status" db:"status"`
	Title     string             `json:"title" db:"title"`
	Body      string             `json:"body" db:"body"`
	Data      map[string]any     `json:"data" db:"data"`
	IsRead    bool               `json:"is_read" db:"is_read"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	SentAt    *time.Time         `json:"sent_at,omitempty" db:"sent_at"`
}

type DeviceToken struct {
	Token    string `json:"token" db:"token"`
	Platform string `json:"platform" db:"platform"`
}

// Preferences controls delivery per user. DeviceTokens is loaded
// alongside for the dispatcher.
type Preferences struct {
	UserID       uuid.UUID     `json:"user_id" db:"user_id"`
	PushEnabled  bool          `json:"push_enabled" db:"push_enabled"`
	DeviceTokens []DeviceToken `json:"device_tokens,omitempty"`
}

type CreateNotificationRequest struct {
	UserID uuid.UUID        `json:"user_id" validate:"required"`
	Type   NotificationType `json:"type" validate:"required"`
	Title  string           `json:"title"`
	Body   string           `json:"body"`
	Data   map[string]any   `json:"data"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
}

type ListResponse struct {
	Notifications []*Notification `json:"notifications"`
	UnreadCount   int             `json:"unread_count"`
}
