// pkg/db/models.go
package db

import (
	"time"

	"gorm.io/datatypes"
)

// Reminder frequency values stored on the user record. Absence or an
// unknown value falls back to FrequencyEveryHour.
const (
	FrequencyEveryMinuteTest = "every_minute_test"
	FrequencyEvery30Min      = "every_30_min"
	FrequencyEveryHour       = "every_hour"
	FrequencyEvery2Hours     = "every_2_hours"
)

const (
	// DeactivateThreshold flips a subscription inactive once its failure
	// counter reaches it.
	DeactivateThreshold = 5
	// HardFailureCeiling makes a subscription eligible for hard deletion
	// by the daily cleanup sweep.
	HardFailureCeiling = 10
	// StaleRetentionDays is how long an inactive subscription is kept
	// before cleanup removes it.
	StaleRetentionDays = 30
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`

	NotificationsEnabled bool   `gorm:"not null;default:true"`
	WindowStartHour      int    `gorm:"not null;default:8"`
	WindowEndHour        int    `gorm:"not null;default:22"`
	Frequency            string `gorm:"not null;default:every_hour"`
	Timezone             string `gorm:"not null;default:''"` // empty means the deployment reference zone
	DailyGoalML          int    `gorm:"not null;default:2000"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Preferences is the slice of the user record the scheduler reads.
type Preferences struct {
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	WindowStartHour      int    `json:"windowStartHour"`
	WindowEndHour        int    `json:"windowEndHour"`
	Frequency            string `json:"frequency"`
	Timezone             string `json:"timezone"`
	DailyGoalML          int    `json:"dailyGoalMl"`
}

func (u *User) Preferences() Preferences {
	return Preferences{
		NotificationsEnabled: u.NotificationsEnabled,
		WindowStartHour:      u.WindowStartHour,
		WindowEndHour:        u.WindowEndHour,
		Frequency:            u.Frequency,
		Timezone:             u.Timezone,
		DailyGoalML:          u.DailyGoalML,
	}
}

type Session struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"uniqueIndex;not null"`
	UserID    uint   `gorm:"index;not null"`
	ExpiresAt time.Time
	CreatedAt time.Time
}

// PushSubscription is one browser/device registration for push delivery.
// A user may hold several, one per device.
type PushSubscription struct {
	ID       uint   `gorm:"primaryKey"`
	UserID   uint   `gorm:"index;uniqueIndex:idx_owner_endpoint"`
	User     User   `gorm:"constraint:OnDelete:CASCADE"`
	Endpoint string `gorm:"not null;index;uniqueIndex:idx_owner_endpoint"`
	P256dh   string `gorm:"not null"`
	Auth     string `gorm:"not null"`

	IsActive             bool `gorm:"not null;default:true"`
	FailedAttempts       int  `gorm:"not null;default:0"`
	LastNotificationSent *time.Time
	LastError            string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type WaterLog struct {
	ID       uint      `gorm:"primaryKey"`
	UserID   uint      `gorm:"index;index:idx_user_logged"`
	AmountML int       `gorm:"not null"`
	LoggedAt time.Time `gorm:"not null;index:idx_user_logged"`

	CreatedAt time.Time
}

// TickReport records the aggregate outcome of one scheduler tick that had
// at least one due subscription.
type TickReport struct {
	ID          uint   `gorm:"primaryKey"`
	Mode        string `gorm:"not null"`
	DueCount    int    `gorm:"not null;default:0"`
	SentCount   int    `gorm:"not null;default:0"`
	FailedCount int    `gorm:"not null;default:0"`
	Outcomes    datatypes.JSON
	StartedAt   time.Time `gorm:"not null"`
	DurationMS  int64     `gorm:"not null;default:0"`
}
