package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"learnplanning/internal/models"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
)

// ErrSubscriptionExpired is returned when a push subscription is no longer
// valid (410 Gone from the push service).
var ErrSubscriptionExpired = errors.New("push subscription expired")

// PushConfig holds the VAPID credentials for the push service. The keys are
// passed in explicitly at construction; nothing is configured at import time.
type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string // mailto: contact required by the push protocol
}

// PushPayload is the JSON document delivered to the browser. Data carries an
// opaque payload the client uses to deep-link.
type PushPayload struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	URL   string                 `json:"url,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// PushSender delivers one encoded message to one subscription
type PushSender interface {
	Send(ctx context.Context, sub *models.PushSubscription, message []byte) error
}

// SubscriptionResult is the delivery outcome for a single subscription
type SubscriptionResult struct {
	SubscriptionID string `json:"subscription_id"`
	Endpoint       string `json:"endpoint"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
}

// SendResult aggregates delivery outcomes for one user. Success is false
// only when the subscriptions could not be read; individual delivery
// failures are reported per subscription and in Delivered/Total.
type SendResult struct {
	Success   bool                 `json:"success"`
	Message   string               `json:"message"`
	Delivered int                  `json:"delivered"`
	Total     int                  `json:"total"`
	Results   []SubscriptionResult `json:"results,omitempty"`
}

// PushService sends web push notifications to all registered subscriptions
// of a user.
type PushService struct {
	db     *gorm.DB
	sender PushSender
	public string
}

// NewPushService creates a push service delivering through the web push
// protocol with the given VAPID credentials.
func NewPushService(db *gorm.DB, cfg PushConfig) *PushService {
	return &PushService{
		db:     db,
		sender: &webpushSender{cfg: cfg},
		public: cfg.VAPIDPublicKey,
	}
}

// NewPushServiceWithSender creates a push service with a custom sender.
// Used by tests and by callers wanting a different transport.
func NewPushServiceWithSender(db *gorm.DB, sender PushSender) *PushService {
	return &PushService{db: db, sender: sender}
}

// VAPIDPublicKey returns the public key browsers need to subscribe
func (s *PushService) VAPIDPublicKey() string {
	return s.public
}

// SendToUser delivers a push message to every subscription registered for
// the user. Absence of subscriptions is not an error. Deliveries run
// concurrently and independently; one endpoint's failure does not prevent
// delivery to, or reporting for, the others. Not idempotent: calling twice
// sends twice.
func (s *PushService) SendToUser(ctx context.Context, userID, title, body string, data map[string]interface{}) (*SendResult, error) {
	var subs []models.PushSubscription
	if err := s.db.Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to load push subscriptions: %w", err)
	}

	if len(subs) == 0 {
		return &SendResult{Success: true, Message: "no subscriptions"}, nil
	}

	payload := PushPayload{Title: title, Body: body, Data: data}
	if url, ok := data["url"].(string); ok {
		payload.URL = url
	}
	message, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode push payload: %w", err)
	}

	results := make([]SubscriptionResult, len(subs))
	var wg sync.WaitGroup
	for i := range subs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub := &subs[i]
			results[i] = SubscriptionResult{SubscriptionID: sub.ID, Endpoint: sub.Endpoint}

			err := s.sendWithRetry(ctx, sub, message)
			if err == nil {
				results[i].Success = true
				return
			}
			results[i].Error = err.Error()

			if errors.Is(err, ErrSubscriptionExpired) {
				// The endpoint is gone for good; drop the subscription so
				// future sends stop attempting it.
				if derr := s.db.Delete(&models.PushSubscription{}, "id = ?", sub.ID).Error; derr != nil {
					log.Printf("Warning: Failed to delete expired subscription %s: %v", sub.ID, derr)
				}
			}
		}(i)
	}
	wg.Wait()

	delivered := 0
	for _, r := range results {
		if r.Success {
			delivered++
		}
	}

	return &SendResult{
		Success:   true,
		Message:   fmt.Sprintf("delivered %d of %d", delivered, len(subs)),
		Delivered: delivered,
		Total:     len(subs),
		Results:   results,
	}, nil
}

// sendWithRetry retries transient delivery failures with bounded fibonacci
// backoff. Expired subscriptions are not retried.
func (s *PushService) sendWithRetry(ctx context.Context, sub *models.PushSubscription, message []byte) error {
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.sender.Send(ctx, sub, message)
		if err == nil || errors.Is(err, ErrSubscriptionExpired) {
			return err
		}
		return retry.RetryableError(err)
	})
}

// webpushSender delivers messages over the web push protocol
type webpushSender struct {
	cfg PushConfig
}

func (w *webpushSender) Send(ctx context.Context, sub *models.PushSubscription, message []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, message, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		VAPIDPublicKey:  w.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: w.cfg.VAPIDPrivateKey,
		Subscriber:      w.cfg.Subscriber,
		TTL:             86400,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		return ErrSubscriptionExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	return nil
}
