// pkg/db/waterlogs.go
package db

import (
	"errors"
	"fmt"
	"time"
)

const MaxAmountML = 5000

var ErrWaterLogNotFound = errors.New("water log not found")

func CreateWaterLog(userID uint, amountML int, loggedAt time.Time) (*WaterLog, error) {
	if amountML <= 0 || amountML > MaxAmountML {
		return nil, fmt.Errorf("amount must be between 1 and %d ml, got %d", MaxAmountML, amountML)
	}
	if loggedAt.IsZero() {
		loggedAt = time.Now().UTC()
	}
	log := WaterLog{
		UserID:   userID,
		AmountML: amountML,
		LoggedAt: loggedAt,
	}
	if err := DB.Create(&log).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

func ListWaterLogs(userID uint, from, to time.Time) ([]WaterLog, error) {
	query := DB.Where("user_id = ?", userID)
	if !from.IsZero() {
		query = query.Where("logged_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("logged_at < ?", to)
	}
	var logs []WaterLog
	err := query.Order("logged_at DESC").Find(&logs).Error
	return logs, err
}

// DeleteWaterLog removes one entry, owner-checked so users cannot delete
// each other's logs by guessing ids.
func DeleteWaterLog(userID, logID uint) error {
	res := DB.Where("user_id = ? AND id = ?", userID, logID).Delete(&WaterLog{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWaterLogNotFound
	}
	return nil
}

type DailyTotal struct {
	Day     string `json:"day"` // YYYY-MM-DD in the user's zone
	TotalML int    `json:"totalMl"`
}

// DailyTotals aggregates intake per local calendar day for the last N
// days, most recent first. Days without entries are included with a zero
// total so charts have a continuous axis. Bucketing happens in Go to stay
// portable between sqlite and postgres date functions.
func DailyTotals(userID uint, days int, loc *time.Location, now time.Time) ([]DailyTotal, error) {
	if days <= 0 {
		days = 7
	}
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	startDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -(days - 1))

	logs, err := ListWaterLogs(userID, startDay.UTC(), time.Time{})
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]int, days)
	for _, l := range logs {
		day := l.LoggedAt.In(loc).Format("2006-01-02")
		byDay[day] += l.AmountML
	}

	totals := make([]DailyTotal, 0, days)
	for i := 0; i < days; i++ {
		day := startDay.AddDate(0, 0, days-1-i).Format("2006-01-02")
		totals = append(totals, DailyTotal{Day: day, TotalML: byDay[day]})
	}
	return totals, nil
}
