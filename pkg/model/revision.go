package model

import "time"

// Revision records one persisted snapshot. Only the latest snapshot is kept;
// revisions are the audit trail of when it was written and how large it was.
type Revision struct {
	ID        string    `json:"id"`
	Tick      int64     `json:"tick"`
	Resources int       `json:"resources"`
	Events    int       `json:"events"`
	SavedAt   time.Time `json:"saved_at"`
}
