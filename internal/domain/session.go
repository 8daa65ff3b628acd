package domain

import "time"

// Session tracks question usage for one (user, session) pair. It is
// quota accounting only, not authentication: the rolling-24h question
// count is summed across all of a user's sessions.
type Session struct {
	ID             int64
	UserID         string
	SessionID      string
	QuestionCount  int
	TotalEnterance int
	CreatedAt      time.Time
	LastEnterance  time.Time
}
