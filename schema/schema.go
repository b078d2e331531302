// Package schema has shared models, enums and table maps for all parts of vizpulse.
package schema

// DataSourceKind identifies a family of collector databases.
type DataSourceKind string

// Supported datasource families.
const (
	SCMSource DataSourceKind = "scm" // commits, branches, file actions
	ITSSource DataSourceKind = "its" // issues and issue changes
	MLSSource DataSourceKind = "mls" // mailing list messages
	SCRSource DataSourceKind = "scr" // code review / pull requests
)

// AllDataSources lists every supported datasource family in report order.
var AllDataSources = []DataSourceKind{SCMSource, ITSSource, MLSSource, SCRSource}

// Valid reports whether k names a known datasource family.
func (k DataSourceKind) Valid() bool {
	switch k {
	case SCMSource, ITSSource, MLSSource, SCRSource:
		return true
	}
	return false
}

// DatabaseBackend represents the database engine hosting collector data.
type DatabaseBackend string

// Supported database backends.
const (
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	SQLiteBackend     DatabaseBackend = "sqlite"
)

// Valid reports whether b names a known backend.
func (b DatabaseBackend) Valid() bool {
	switch b {
	case MySQLBackend, PostgreSQLBackend, SQLiteBackend:
		return true
	}
	return false
}

// ActorRole selects which person field of an event a filter or grouping
// applies to. It is a closed set so that adding a role is a compile-time
// visible change.
type ActorRole int

// Actor roles for SCM and review events.
const (
	Authors ActorRole = iota // authors of commits / submitters of changes
	Committers
	AllActors // authors and committers combined
)

func (r ActorRole) String() string {
	switch r {
	case Authors:
		return "authors"
	case Committers:
		return "committers"
	case AllActors:
		return "all"
	}
	return "unknown"
}

// PeopleKind selects between raw person records as stored by the collector
// and alias-merged unique identities. Person-grouping metrics must use
// UniqueIdentities to avoid counting one contributor once per alias.
type PeopleKind int

// People kinds.
const (
	RawPeople PeopleKind = iota
	UniqueIdentities
)

func (k PeopleKind) String() string {
	if k == UniqueIdentities {
		return "upeople"
	}
	return "people"
}

// DateKind selects between the commit date and the author date of an SCM
// event. Git keeps both and they can diverge, e.g. a commit authored weeks
// before it lands on a release branch.
type DateKind int

// Date kinds for SCM events.
const (
	CommitDate DateKind = iota
	AuthorDate
)

func (d DateKind) String() string {
	if d == AuthorDate {
		return "author"
	}
	return "commit"
}
