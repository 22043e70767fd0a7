// pkg/notify/payload.go
package notify

import "time"

const (
	TagReminder     = "hydration-reminder"
	TagTestReminder = "test-hydration-reminder"

	ActionLogWater = "log-water"
	ActionSnooze   = "snooze"
)

// Payload is the JSON bag the service worker receives. It is built fresh
// per send and never persisted.
type Payload struct {
	Title              string   `json:"title"`
	Body               string   `json:"body"`
	Tag                string   `json:"tag"`
	RequireInteraction bool     `json:"requireInteraction"`
	Silent             bool     `json:"silent"`
	Data               Data     `json:"data"`
	Actions            []Action `json:"actions"`
}

type Data struct {
	URL       string `json:"url"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
	IsTest    bool   `json:"isTest"`
}

type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// BuildReminderPayload constructs the canonical reminder. The test variant
// keeps the exact action set of the real one so click handling is
// exercised identically, but requires interaction so a manual tester can
// observe the click path deterministically.
func BuildReminderPayload(test bool, now time.Time) Payload {
	p := Payload{
		Title: "Time to drink water",
		Body:  "Stay hydrated! Log a glass when you're done.",
		Tag:   TagReminder,
		Data: Data{
			URL:       "/",
			Action:    ActionLogWater,
			Timestamp: now.UnixMilli(),
		},
		Actions: []Action{
			{Action: ActionLogWater, Title: "Log water"},
			{Action: ActionSnooze, Title: "Snooze"},
		},
	}
	if test {
		p.Title = "Test reminder"
		p.Body = "This is a test hydration reminder."
		p.Tag = TagTestReminder
		p.RequireInteraction = true
		p.Data.IsTest = true
	}
	return p
}
