package db

import (
	"errors"
	"testing"
	"time"
)

const (
	testEndpoint = "https://push.example.com/sub/abc123"
	testP256dh   = "BPk9XzQ"
	testAuth     = "c2VjcmV0"
)

func TestValidateSubscription(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		p256dh   string
		auth     string
		wantErr  bool
	}{
		{"valid", testEndpoint, testP256dh, testAuth, false},
		{"missing endpoint", "", testP256dh, testAuth, true},
		{"missing p256dh", testEndpoint, "", testAuth, true},
		{"missing auth", testEndpoint, testP256dh, "", true},
		{"non-https endpoint", "http://push.example.com/sub", testP256dh, testAuth, true},
		{"relative endpoint", "/sub/abc", testP256dh, testAuth, true},
		{"garbage endpoint", "::::", testP256dh, testAuth, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubscription(tt.endpoint, tt.p256dh, tt.auth)
			if tt.wantErr && !errors.Is(err, ErrInvalidSubscription) {
				t.Fatalf("expected ErrInvalidSubscription, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected valid subscription, got %v", err)
			}
		})
	}
}

func TestUpsertSubscriptionSameOwnerUpdatesInPlace(t *testing.T) {
	setupDB(t, "subs_upsert_same")
	user := createTestUser(t, "same@example.com")

	first, err := UpsertSubscription(user.ID, testEndpoint, testP256dh, testAuth)
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// Simulate accumulated failures, then re-register the same endpoint.
	for i := 0; i < 3; i++ {
		if err := MarkFailure(first.ID, "boom"); err != nil {
			t.Fatalf("mark failure: %v", err)
		}
	}

	second, err := UpsertSubscription(user.ID, testEndpoint, "new-p256dh", "new-auth")
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected in-place update, got new record %d != %d", second.ID, first.ID)
	}
	if second.P256dh != "new-p256dh" || second.Auth != "new-auth" {
		t.Errorf("expected keys to be refreshed, got %q/%q", second.P256dh, second.Auth)
	}
	if !second.IsActive || second.FailedAttempts != 0 || second.LastError != "" {
		t.Errorf("expected re-registration to reset failure state, got %+v", second)
	}

	var count int64
	if err := DB.Model(&PushSubscription{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one subscription row, got %d", count)
	}
}

func TestUpsertSubscriptionEndpointClaimedByOtherUser(t *testing.T) {
	setupDB(t, "subs_upsert_claim")
	alice := createTestUser(t, "alice@example.com")
	bob := createTestUser(t, "bob@example.com")

	old, err := UpsertSubscription(alice.ID, testEndpoint, testP256dh, testAuth)
	if err != nil {
		t.Fatalf("alice upsert failed: %v", err)
	}

	claimed, err := UpsertSubscription(bob.ID, testEndpoint, testP256dh, testAuth)
	if err != nil {
		t.Fatalf("bob upsert failed: %v", err)
	}
	if claimed.ID == old.ID {
		t.Errorf("expected a fresh record after handover")
	}
	if claimed.UserID != bob.ID {
		t.Errorf("expected endpoint to belong to bob, got user %d", claimed.UserID)
	}

	var count int64
	if err := DB.Model(&PushSubscription{}).Where("endpoint = ?", testEndpoint).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected the old record to be deleted, got %d rows", count)
	}
}

func TestMarkSuccessResetsFailureState(t *testing.T) {
	setupDB(t, "subs_mark_success")
	user := createTestUser(t, "success@example.com")
	sub, err := UpsertSubscription(user.ID, testEndpoint, testP256dh, testAuth)
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	// Drive the record all the way to deactivated, then succeed once.
	for i := 0; i < DeactivateThreshold; i++ {
		if err := MarkFailure(sub.ID, "unreachable"); err != nil {
			t.Fatalf("mark failure: %v", err)
		}
	}

	sentAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if err := MarkSuccess(sub.ID, sentAt); err != nil {
		t.Fatalf("mark success: %v", err)
	}

	var got PushSubscription
	if err := DB.First(&got, sub.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.FailedAttempts != 0 {
		t.Errorf("expected failed attempts reset to 0, got %d", got.FailedAttempts)
	}
	if got.LastError != "" {
		t.Errorf("expected last error cleared, got %q", got.LastError)
	}
	if !got.IsActive {
		t.Errorf("expected subscription active after success")
	}
	if got.LastNotificationSent == nil || !got.LastNotificationSent.Equal(sentAt) {
		t.Errorf("expected last notification sent %v, got %v", sentAt, got.LastNotificationSent)
	}
}

func TestMarkFailureDeactivatesAtThreshold(t *testing.T) {
	setupDB(t, "subs_mark_failure")
	user := createTestUser(t, "failure@example.com")
	sub, err := UpsertSubscription(user.ID, testEndpoint, testP256dh, testAuth)
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	for i := 1; i <= DeactivateThreshold; i++ {
		if err := MarkFailure(sub.ID, "endpoint gone"); err != nil {
			t.Fatalf("mark failure %d: %v", i, err)
		}
		var got PushSubscription
		if err := DB.First(&got, sub.ID).Error; err != nil {
			t.Fatalf("reload: %v", err)
		}
		if got.FailedAttempts != i {
			t.Fatalf("expected %d failed attempts, got %d", i, got.FailedAttempts)
		}
		wantActive := i < DeactivateThreshold
		if got.IsActive != wantActive {
			t.Errorf("after failure %d: expected active=%v, got %v", i, wantActive, got.IsActive)
		}
		if got.LastError != "endpoint gone" {
			t.Errorf("expected last error recorded, got %q", got.LastError)
		}
	}
}

func TestListActiveSubscriptionsExcludesOverCeiling(t *testing.T) {
	setupDB(t, "subs_list_active")
	user := createTestUser(t, "list@example.com")

	healthy, err := UpsertSubscription(user.ID, testEndpoint, testP256dh, testAuth)
	if err != nil {
		t.Fatalf("upsert healthy: %v", err)
	}
	deactivated, err := UpsertSubscription(user.ID, "https://push.example.com/sub/dead", testP256dh, testAuth)
	if err != nil {
		t.Fatalf("upsert deactivated: %v", err)
	}
	for i := 0; i < DeactivateThreshold; i++ {
		if err := MarkFailure(deactivated.ID, "gone"); err != nil {
			t.Fatalf("mark failure: %v", err)
		}
	}
	overCeiling, err := UpsertSubscription(user.ID, "https://push.example.com/sub/ceiling", testP256dh, testAuth)
	if err != nil {
		t.Fatalf("upsert over ceiling: %v", err)
	}
	if err := DB.Model(&PushSubscription{}).Where("id = ?", overCeiling.ID).
		Updates(map[string]any{"failed_attempts": HardFailureCeiling, "is_active": true}).Error; err != nil {
		t.Fatalf("force failure count: %v", err)
	}

	subs, err := ListActiveSubscriptions()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != healthy.ID {
		t.Fatalf("expected only the healthy subscription, got %+v", subs)
	}
	if subs[0].User.ID != user.ID {
		t.Errorf("expected owner preloaded, got user %+v", subs[0].User)
	}
}

func TestDeleteStaleSubscriptions(t *testing.T) {
	setupDB(t, "subs_cleanup")
	user := createTestUser(t, "cleanup@example.com")

	fresh, err := UpsertSubscription(user.ID, testEndpoint, testP256dh, testAuth)
	if err != nil {
		t.Fatalf("upsert fresh: %v", err)
	}
	staleInactive, err := UpsertSubscription(user.ID, "https://push.example.com/sub/stale", testP256dh, testAuth)
	if err != nil {
		t.Fatalf("upsert stale: %v", err)
	}
	overFailed, err := UpsertSubscription(user.ID, "https://push.example.com/sub/failed", testP256dh, testAuth)
	if err != nil {
		t.Fatalf("upsert over-failed: %v", err)
	}

	now := time.Now().UTC()
	longAgo := now.AddDate(0, 0, -(StaleRetentionDays + 5))
	if err := DB.Model(&PushSubscription{}).Where("id = ?", staleInactive.ID).
		Updates(map[string]any{"is_active": false, "updated_at": longAgo}).Error; err != nil {
		t.Fatalf("age stale subscription: %v", err)
	}
	if err := DB.Model(&PushSubscription{}).Where("id = ?", overFailed.ID).
		Updates(map[string]any{"failed_attempts": HardFailureCeiling}).Error; err != nil {
		t.Fatalf("force failure count: %v", err)
	}

	deleted, err := DeleteStaleSubscriptions(now, StaleRetentionDays, HardFailureCeiling)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	var remaining []PushSubscription
	if err := DB.Find(&remaining).Error; err != nil {
		t.Fatalf("list remaining: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != fresh.ID {
		t.Errorf("expected only the fresh subscription to survive, got %+v", remaining)
	}
}
