// pkg/db/subscriptions.go
package db

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"gorm.io/gorm"
)

var (
	ErrInvalidSubscription  = errors.New("subscription is missing endpoint or key material")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// ValidateSubscription rejects malformed registrations before they enter
// the store. The endpoint must be an absolute https URL and both encryption
// keys are mandatory.
func ValidateSubscription(endpoint, p256dh, auth string) error {
	if endpoint == "" || p256dh == "" || auth == "" {
		return ErrInvalidSubscription
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: invalid endpoint %q", ErrInvalidSubscription, endpoint)
	}
	return nil
}

// UpsertSubscription registers a push endpoint for a user. Re-registering
// the same endpoint updates the record in place and reactivates it. An
// endpoint previously claimed by a different user (shared browser profile)
// is handed over: the old record is deleted and replaced.
func UpsertSubscription(userID uint, endpoint, p256dh, auth string) (*PushSubscription, error) {
	if err := ValidateSubscription(endpoint, p256dh, auth); err != nil {
		return nil, err
	}

	var existing PushSubscription
	err := DB.Where("endpoint = ?", endpoint).First(&existing).Error
	switch {
	case err == nil && existing.UserID == userID:
		existing.P256dh = p256dh
		existing.Auth = auth
		existing.IsActive = true
		existing.FailedAttempts = 0
		existing.LastError = ""
		if err := DB.Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	case err == nil:
		if err := DB.Delete(&existing).Error; err != nil {
			return nil, err
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	sub := PushSubscription{
		UserID:   userID,
		Endpoint: endpoint,
		P256dh:   p256dh,
		Auth:     auth,
		IsActive: true,
	}
	if err := DB.Create(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListActiveSubscriptions returns every subscription the scheduler should
// consider: active and under the hard failure ceiling, with the owning
// user preloaded so preferences are available without extra queries.
func ListActiveSubscriptions() ([]PushSubscription, error) {
	var subs []PushSubscription
	err := DB.Preload("User").
		Where("is_active = ? AND failed_attempts < ?", true, HardFailureCeiling).
		Find(&subs).Error
	return subs, err
}

// MarkSuccess resets the failure bookkeeping after a delivery succeeded.
func MarkSuccess(subscriptionID uint, sentAt time.Time) error {
	res := DB.Model(&PushSubscription{}).Where("id = ?", subscriptionID).Updates(map[string]any{
		"failed_attempts":        0,
		"last_error":             "",
		"is_active":              true,
		"last_notification_sent": sentAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// MarkFailure increments the failure counter and records the error. The
// subscription is deactivated once the counter reaches the threshold;
// failure classification only affects logging, not this transition.
func MarkFailure(subscriptionID uint, message string) error {
	var sub PushSubscription
	if err := DB.First(&sub, subscriptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubscriptionNotFound
		}
		return err
	}
	sub.FailedAttempts++
	sub.LastError = message
	if sub.FailedAttempts >= DeactivateThreshold {
		sub.IsActive = false
	}
	return DB.Save(&sub).Error
}

// DeleteSubscription removes a user's registration for one endpoint.
func DeleteSubscription(userID uint, endpoint string) error {
	res := DB.Where("user_id = ? AND endpoint = ?", userID, endpoint).Delete(&PushSubscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// DeleteStaleSubscriptions is the daily maintenance sweep: it removes
// subscriptions that have been inactive beyond the retention window or
// have accumulated failures past the hard ceiling.
func DeleteStaleSubscriptions(now time.Time, olderThanDays, failureCeiling int) (int64, error) {
	cutoff := now.AddDate(0, 0, -olderThanDays)
	res := DB.Where("(is_active = ? AND updated_at < ?) OR failed_attempts >= ?",
		false, cutoff, failureCeiling).Delete(&PushSubscription{})
	return res.RowsAffected, res.Error
}
