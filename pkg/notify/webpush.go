// pkg/notify/webpush.go
package notify

import (
	"context"
	"errors"
	"io"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/hydrapp/hydration-reminder/pkg/config"
	"github.com/hydrapp/hydration-reminder/pkg/db"
)

// ErrPushNotConfigured means the VAPID key pair is absent. It is a
// deployment problem, not a delivery failure, and must not count against
// any subscription.
var ErrPushNotConfigured = errors.New("web push VAPID keys are not configured")

type SendOptions struct {
	TTLSeconds int
	Urgency    string // "low", "normal" or "high"
}

type SendResult struct {
	StatusCode int
}

// Sender is the push transport boundary. The real implementation talks to
// the browser push services; tests substitute a fake.
type Sender interface {
	Send(ctx context.Context, sub *db.PushSubscription, payload []byte, opts SendOptions) (SendResult, error)
}

// WebPushSender delivers through the Web Push protocol with VAPID
// authentication.
type WebPushSender struct {
	publicKey  string
	privateKey string
	subscriber string
}

func NewWebPushSender(cfg config.PushConfig) *WebPushSender {
	return &WebPushSender{
		publicKey:  cfg.VAPIDPublicKey,
		privateKey: cfg.VAPIDPrivateKey,
		subscriber: cfg.Subscriber,
	}
}

// Configured reports whether the VAPID key pair is present.
func (s *WebPushSender) Configured() bool {
	return s.publicKey != "" && s.privateKey != ""
}

func (s *WebPushSender) Send(ctx context.Context, sub *db.PushSubscription, payload []byte, opts SendOptions) (SendResult, error) {
	if !s.Configured() {
		return SendResult{}, ErrPushNotConfigured
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             opts.TTLSeconds,
		Urgency:         parseUrgency(opts.Urgency),
	})
	if err != nil {
		return SendResult{}, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return SendResult{StatusCode: resp.StatusCode}, nil
}

func parseUrgency(value string) webpush.Urgency {
	switch value {
	case "low":
		return webpush.UrgencyLow
	case "high":
		return webpush.UrgencyHigh
	default:
		return webpush.UrgencyNormal
	}
}
