package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"accountabuddyAPI/internal/types/notification"
)

type NotificationService struct {
	db         *pgxpool.Pool
	dispatcher *NotificationDispatcher
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	service := &NotificationService{db: db}
	service.dispatcher = NewNotificationDispatcher(service)
	return service
}

// SetPushProvider injects the real FCM provider from main.go. Without
// one, notifications stay in-app only.
func (s *NotificationService) SetPushProvider(provider PushNotificationProvider) {
	s.dispatcher.SetPushProvider(provider)
}

// Stop drains the push dispatcher. Called on shutdown.
func (s *NotificationService) Stop() {
	s.dispatcher.Stop()
}

// CreateNotification stores the notification and queues it for push
// delivery when the user has push enabled.
func (s *NotificationService) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	dataJSON, _ := json.Marshal(req.Data)

	notif := &notification.Notification{}
	var dataStr []byte
	err := s.db.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, type, status, title, body, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, NOW())
		RETURNING id, user_id, type, status, title, body, data, is_read, created_at, sent_at
	`, uuid.New(), req.UserID, req.Type, notification.StatusPending, req.Title, req.Body, dataJSON).Scan(
		&notif.ID, &notif.UserID, &notif.Type, &notif.Status,
		&notif.Title, &notif.Body, &dataStr, &notif.IsRead,
		&notif.CreatedAt, &notif.SentAt,
	)
	if err != nil {
		return nil, storeErr("failed to create notification", err)
	}
	if err := unmarshalData(dataStr, &notif.Data); err != nil {
		log.Printf("NotificationService: bad data payload on %s: %v", notif.ID, err)
	}

	prefs, err := s.getPreferences(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	s.dispatcher.Dispatch(notif, prefs)
	return notif, nil
}

// GetNotifications returns the newest notifications for a user along
// with the unread count.
func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit int) (*notification.ListResponse, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, type, status, title, body, data, is_read, created_at, sent_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, storeErr("failed to fetch notifications", err)
	}
	defer rows.Close()

	var list []*notification.Notification
	for rows.Next() {
		n := &notification.Notification{}
		var dataStr []byte
		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Status, &n.Title, &n.Body,
			&dataStr, &n.IsRead, &n.CreatedAt, &n.SentAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if err := unmarshalData(dataStr, &n.Data); err != nil {
			log.Printf("NotificationService: bad data payload on %s: %v", n.ID, err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("failed to read notification rows", err)
	}

	unread, err := s.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &notification.ListResponse{Notifications: list, UnreadCount: unread}, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false
	`, userID).Scan(&count)
	if err != nil {
		return 0, storeErr("failed to count unread notifications", err)
	}
	return count, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2
	`, notificationID, userID)
	if err != nil {
		return storeErr("failed to mark notification as read", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification %s not found for user", notificationID)
	}
	return nil
}

func (s *NotificationService) RegisterDevice(ctx context.Context, userID uuid.UUID, req *notification.RegisterDeviceRequest) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO device_tokens (user_id, token, platform, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, token) DO UPDATE SET platform = $3
	`, userID, req.Token, req.Platform)
	if err != nil {
		return storeErr("failed to register device", err)
	}
	return nil
}

func (s *NotificationService) getPreferences(ctx context.Context, userID uuid.UUID) (*notification.Preferences, error) {
	prefs := &notification.Preferences{UserID: userID, PushEnabled: true}

	err := s.db.QueryRow(ctx, `
		SELECT push_enabled FROM notification_preferences WHERE user_id = $1
	`, userID).Scan(&prefs.PushEnabled)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, storeErr("failed to load preferences", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT token, platform FROM device_tokens WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, storeErr("failed to load device tokens", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		prefs.DeviceTokens = append(prefs.DeviceTokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("failed to read device token rows", err)
	}

	return prefs, nil
}

// unmarshalData decodes the jsonb data column; a NULL column is an
// empty map, not an error.
func unmarshalData(raw []byte, out *map[string]any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (s *NotificationService) markAsSent(ctx context.Context, id uuid.UUID) {
	s.db.Exec(ctx, `UPDATE notifications SET status = $1, sent_at = NOW() WHERE id = $2`,
		notification.StatusSent, id)
}

func (s *NotificationService) markAsFailed(ctx context.Context, id uuid.UUID) {
	s.db.Exec(ctx, `UPDATE notifications SET status = $1 WHERE id = $2`,
		notification.StatusFailed, id)
}
