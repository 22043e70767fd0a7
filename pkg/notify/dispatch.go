// pkg/notify/dispatch.go
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hydrapp/hydration-reminder/pkg/db"
	"github.com/hydrapp/hydration-reminder/pkg/logger"
)

// DeliveryResult is the settled outcome for one subscription. Every
// subscription handed to Dispatch yields exactly one.
type DeliveryResult struct {
	SubscriptionID uint
	Endpoint       string
	Success        bool
	StatusCode     int
	Permanent      bool
	Err            error
}

// Dispatch sends the payload to every subscription concurrently. One
// endpoint's failure never blocks or fails the others; the returned slice
// has one entry per input subscription, in order.
func Dispatch(ctx context.Context, sender Sender, subs []db.PushSubscription, payload Payload, opts SendOptions) []DeliveryResult {
	body, err := json.Marshal(payload)
	if err != nil {
		results := make([]DeliveryResult, len(subs))
		for i := range subs {
			results[i] = DeliveryResult{
				SubscriptionID: subs[i].ID,
				Endpoint:       subs[i].Endpoint,
				Err:            fmt.Errorf("marshal payload: %w", err),
			}
		}
		return results
	}

	results := make([]DeliveryResult, len(subs))
	var wg sync.WaitGroup
	for i := range subs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub := &subs[i]
			defer func() {
				if r := recover(); r != nil {
					results[i] = DeliveryResult{
						SubscriptionID: sub.ID,
						Endpoint:       sub.Endpoint,
						Err:            fmt.Errorf("send panicked: %v", r),
					}
				}
			}()
			results[i] = sendOne(ctx, sender, sub, body, opts)
		}(i)
	}
	wg.Wait()
	return results
}

func sendOne(ctx context.Context, sender Sender, sub *db.PushSubscription, body []byte, opts SendOptions) DeliveryResult {
	result := DeliveryResult{SubscriptionID: sub.ID, Endpoint: sub.Endpoint}

	res, err := sender.Send(ctx, sub, body, opts)
	if err != nil {
		result.Err = err
		return result
	}
	result.StatusCode = res.StatusCode
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		result.Success = true
		return result
	}
	result.Permanent = isPermanentStatus(res.StatusCode)
	result.Err = fmt.Errorf("push service returned status %d", res.StatusCode)
	return result
}

// isPermanentStatus marks transport responses that will never succeed for
// this endpoint: the channel is gone, unknown, or the request is
// malformed. Everything else (429, 5xx) is worth retrying on a later tick.
func isPermanentStatus(code int) bool {
	switch code {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusGone:
		return true
	}
	return false
}

// RecordOutcomes feeds delivery results back into the subscription store.
// A configuration error is reported once and skips bookkeeping entirely:
// missing VAPID keys are not the subscription's fault.
func RecordOutcomes(results []DeliveryResult, now time.Time) (sent, failed int) {
	warnedConfig := false
	for _, r := range results {
		if r.Success {
			if err := db.MarkSuccess(r.SubscriptionID, now); err != nil {
				logger.Error("failed to record delivery success", "subscription_id", r.SubscriptionID, "error", err)
			}
			sent++
			continue
		}
		failed++
		if errors.Is(r.Err, ErrPushNotConfigured) {
			if !warnedConfig {
				logger.Error("push transport not configured, skipping failure bookkeeping", "error", r.Err)
				warnedConfig = true
			}
			continue
		}
		message := "delivery failed"
		if r.Err != nil {
			message = r.Err.Error()
		}
		if r.Permanent {
			logger.Warn("permanent delivery failure", "subscription_id", r.SubscriptionID, "status", r.StatusCode, "error", message)
		} else {
			logger.Debug("transient delivery failure", "subscription_id", r.SubscriptionID, "status", r.StatusCode, "error", message)
		}
		if err := db.MarkFailure(r.SubscriptionID, message); err != nil {
			logger.Error("failed to record delivery failure", "subscription_id", r.SubscriptionID, "error", err)
		}
	}
	return sent, failed
}
