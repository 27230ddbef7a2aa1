// Package events defines the roster event payloads published through the outbox.
package events

import "time"

// SignupRecorded is emitted when a student is enrolled in an activity.
type SignupRecorded struct {
	SignupID   string    `json:"signup_id"`
	ActivityID int64     `json:"activity_id"`
	Activity   string    `json:"activity"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SignupRemoved is emitted when a student is unregistered from an activity.
type SignupRemoved struct {
	ActivityID int64     `json:"activity_id"`
	Activity   string    `json:"activity"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}
