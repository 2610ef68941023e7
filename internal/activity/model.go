package activity

import "time"

// Entry is one row of the activity log, joined with the actor's profile.
type Entry struct {
	ID         int64
	ActorID    string
	ActorName  string
	ActorEmail string
	Action     string
	Entity     string
	EntityID   string
	Meta       map[string]any
	OccurredAt time.Time
}

// Filters narrow the activity listing.
type Filters struct {
	Page   int
	Actor  string
	Entity string
	Action string
	From   time.Time
	To     time.Time
}
