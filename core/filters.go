package core

import (
	"fmt"
	"time"

	"github.com/vizpulse/vizpulse/schema"
)

// Filters scope a metric run: the report interval, the bucketing period
// and the optional dimension and entity filters. All conditions combine
// conjunctively. The interval is half open, [Start, End).
type Filters struct {
	Start  time.Time
	End    time.Time
	Period schema.Period

	// DateKind picks commit date vs author date for SCM events.
	DateKind schema.DateKind

	// Dimension filters. Empty means unfiltered.
	Repository   string
	Organization string

	// Entity filters.
	Branches     []string
	PathPrefixes []string
	NoMerges     bool

	// Person include/exclude lists of identity names. With both given
	// the effective set is InPersons minus OutPersons. Role selects the
	// event field the lists apply to; Kind selects raw person records
	// vs alias-resolved identities.
	InPersons   []string
	OutPersons  []string
	PersonsRole schema.ActorRole
	PersonsKind schema.PeopleKind
}

// Validate rejects filters no query should be composed from.
func (f Filters) Validate() error {
	if !f.Period.Valid() {
		return fmt.Errorf("unknown period %q", string(f.Period))
	}
	if f.Start.IsZero() || f.End.IsZero() {
		return fmt.Errorf("filter interval is not set")
	}
	if f.Start.After(f.End) {
		return fmt.Errorf("filter start %s after end %s",
			f.Start.Format(time.DateOnly), f.End.Format(time.DateOnly))
	}
	return nil
}

// DateArg formats a timestamp as a query argument understood by every
// supported backend.
func DateArg(t time.Time) string {
	return t.Format(time.DateTime)
}
