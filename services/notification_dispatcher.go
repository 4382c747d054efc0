package services

import (
	"context"
	"log"
	"sync"
	"time"

	"accountabuddyAPI/internal/types/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

// NotificationDispatcher pushes stored notifications to devices from a
// small worker pool so engine calls never block on FCM.
type NotificationDispatcher struct {
	service      *NotificationService
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *dispatchJob
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

type dispatchJob struct {
	notification *notification.Notification
	preferences  *notification.Preferences
}

func NewNotificationDispatcher(service *NotificationService) *NotificationDispatcher {
	dispatcher := &NotificationDispatcher{
		service:  service,
		workers:  5,
		jobQueue: make(chan *dispatchJob, 100),
		stopChan: make(chan struct{}),
	}

	for i := 0; i < dispatcher.workers; i++ {
		dispatcher.wg.Add(1)
		go dispatcher.worker()
	}

	return dispatcher
}

// SetPushProvider injects the real FCM provider from main.go.
func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(job *dispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notif := job.notification
	prefs := job.preferences

	if prefs.PushEnabled && len(prefs.DeviceTokens) > 0 && d.pushProvider != nil {
		err := d.pushProvider.SendPush(ctx, prefs.DeviceTokens, notif.Title, notif.Body, notif.Data)
		if err != nil {
			log.Printf("Push failed for user %s: %v", notif.UserID, err)
			d.service.markAsFailed(ctx, notif.ID)
			return
		}
	}

	d.service.markAsSent(ctx, notif.ID)
}

// Dispatch queues a notification for delivery.
func (d *NotificationDispatcher) Dispatch(notif *notification.Notification, prefs *notification.Preferences) {
	job := &dispatchJob{notification: notif, preferences: prefs}

	select {
	case d.jobQueue <- job:
	default:
		log.Printf("Failed to queue notification %s: queue full", notif.ID)
	}
}

// Stop drains the worker pool.
func (d *NotificationDispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
}

// MockPushProvider is used in tests instead of a live FCM client.
type MockPushProvider struct{}

func (m *MockPushProvider) SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error {
	log.Printf("MOCK PUSH: %d devices: %s - %s", len(tokens), title, body)
	return nil
}
