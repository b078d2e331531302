package schema

import "time"

// ActivityEntry records the first and last activity of one entity
// (typically a unique identity) inside a report interval.
type ActivityEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FirstDate time.Time `json:"first_date"`
	LastDate  time.Time `json:"last_date"`
}

// ActivityList is an unordered set of activity entries, used for
// demographic analyses such as contributor aging and attraction.
type ActivityList []ActivityEntry
