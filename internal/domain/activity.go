package domain

import "time"

// Activity is a named extracurricular offering stored in PostgreSQL.
// MaxParticipants is nil when enrollment is unbounded.
type Activity struct {
	ID              int64
	Name            string
	Description     string
	Schedule        string
	MaxParticipants *int32
	CreatedAt       time.Time
}

// Signup is a student's enrollment record in one activity.
type Signup struct {
	ID         int64
	ActivityID int64
	Email      string
	CreatedAt  time.Time
}

// ActivityRoster pairs an activity with its current participant emails.
type ActivityRoster struct {
	Activity     Activity
	Participants []string
}
