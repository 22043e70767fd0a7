// pkg/db/users.go
package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrInvalidPreferences = errors.New("invalid preferences")
)

const SessionTTL = 30 * 24 * time.Hour

func CreateUser(email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: malformed email", ErrInvalidCredentials)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password too short", ErrInvalidCredentials)
	}

	var count int64
	if err := DB.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := User{
		Email:                email,
		PasswordHash:         string(hash),
		NotificationsEnabled: true,
		WindowStartHour:      8,
		WindowEndHour:        22,
		Frequency:            FrequencyEveryHour,
		DailyGoalML:          2000,
	}
	if err := DB.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func AuthenticateUser(email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user User
	if err := DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func CreateSession(userID uint, now time.Time) (*Session, error) {
	session := Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(SessionTTL),
	}
	if err := DB.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func UserBySessionToken(token string, now time.Time) (*User, error) {
	var session Session
	if err := DB.Where("token = ?", token).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.ExpiresAt.Before(now) {
		return nil, ErrSessionNotFound
	}
	var user User
	if err := DB.First(&user, session.UserID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func DeleteSession(token string) error {
	return DB.Where("token = ?", token).Delete(&Session{}).Error
}

func GetUser(userID uint) (*User, error) {
	var user User
	if err := DB.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePreferences validates and saves the notification settings for a
// user. The every-minute frequency is a development aid and is only
// accepted when allowTestFrequency is set (accounts listed in config).
func UpdatePreferences(userID uint, prefs Preferences, allowTestFrequency bool) error {
	if err := validatePreferences(prefs, allowTestFrequency); err != nil {
		return err
	}
	return DB.Model(&User{}).Where("id = ?", userID).Updates(map[string]any{
		"notifications_enabled": prefs.NotificationsEnabled,
		"window_start_hour":     prefs.WindowStartHour,
		"window_end_hour":       prefs.WindowEndHour,
		"frequency":             prefs.Frequency,
		"timezone":              prefs.Timezone,
		"daily_goal_ml":         prefs.DailyGoalML,
	}).Error
}

func validatePreferences(prefs Preferences, allowTestFrequency bool) error {
	if prefs.WindowStartHour < 0 || prefs.WindowStartHour > 23 {
		return fmt.Errorf("%w: window start hour %d out of range", ErrInvalidPreferences, prefs.WindowStartHour)
	}
	if prefs.WindowEndHour < 0 || prefs.WindowEndHour > 23 {
		return fmt.Errorf("%w: window end hour %d out of range", ErrInvalidPreferences, prefs.WindowEndHour)
	}
	switch prefs.Frequency {
	case FrequencyEvery30Min, FrequencyEveryHour, FrequencyEvery2Hours:
	case FrequencyEveryMinuteTest:
		if !allowTestFrequency {
			return fmt.Errorf("%w: frequency %q is restricted to test accounts", ErrInvalidPreferences, prefs.Frequency)
		}
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidPreferences, prefs.Frequency)
	}
	if prefs.Timezone != "" {
		if _, err := time.LoadLocation(prefs.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", ErrInvalidPreferences, prefs.Timezone)
		}
	}
	if prefs.DailyGoalML < 0 {
		return fmt.Errorf("%w: daily goal must not be negative", ErrInvalidPreferences)
	}
	return nil
}
