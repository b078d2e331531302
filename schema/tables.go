package schema

// Table maps name the relational tables and key columns each datasource
// family was populated with by its collector. They are configuration, not
// constants: collector deployments rename tables or host the identities
// tables in a separate schema, so every map can be overridden from the
// config file. The zero value is not usable; use the Default* constructors.

// IdentityTables names the alias-resolution tables shared by all
// datasource families. Prefix qualifies them when they live in a separate
// identities database ("acme_identities" renders "acme_identities.upeople").
type IdentityTables struct {
	Prefix        string `mapstructure:"prefix"`
	UPeople       string `mapstructure:"upeople"`
	PeopleUPeople string `mapstructure:"people_upeople"`
	Enrollments   string `mapstructure:"enrollments"`
	Organizations string `mapstructure:"organizations"`
}

// DefaultIdentityTables returns the collector-default identity table names.
func DefaultIdentityTables() IdentityTables {
	return IdentityTables{
		UPeople:       "upeople",
		PeopleUPeople: "people_upeople",
		Enrollments:   "upeople_companies",
		Organizations: "companies",
	}
}

// Qualified returns name prefixed with the identities schema when one is
// configured.
func (it IdentityTables) Qualified(name string) string {
	if it.Prefix == "" {
		return name
	}
	return it.Prefix + "." + name
}

// SCMTables names the source code management tables (CVSAnalY layout).
type SCMTables struct {
	SCMLog       string `mapstructure:"scmlog"`
	People       string `mapstructure:"people"`
	Actions      string `mapstructure:"actions"`
	Branches     string `mapstructure:"branches"`
	FileLinks    string `mapstructure:"file_links"`
	Repositories string `mapstructure:"repositories"`

	Identities IdentityTables `mapstructure:"identities"`
}

// DefaultSCMTables returns the collector-default SCM table names.
func DefaultSCMTables() SCMTables {
	return SCMTables{
		SCMLog:       "scmlog",
		People:       "people",
		Actions:      "actions",
		Branches:     "branches",
		FileLinks:    "file_links",
		Repositories: "repositories",
		Identities:   DefaultIdentityTables(),
	}
}

// ITSTables names the issue tracking tables (Bicho layout).
type ITSTables struct {
	Issues   string `mapstructure:"issues"`
	Changes  string `mapstructure:"changes"`
	Trackers string `mapstructure:"trackers"`
	People   string `mapstructure:"people"`

	Identities IdentityTables `mapstructure:"identities"`
}

// DefaultITSTables returns the collector-default ITS table names.
func DefaultITSTables() ITSTables {
	return ITSTables{
		Issues:     "issues",
		Changes:    "changes",
		Trackers:   "trackers",
		People:     "people",
		Identities: DefaultIdentityTables(),
	}
}

// MLSTables names the mailing list tables (MailingListStats layout).
type MLSTables struct {
	Messages       string `mapstructure:"messages"`
	MessagesPeople string `mapstructure:"messages_people"`
	People         string `mapstructure:"people"`
	MailingLists   string `mapstructure:"mailing_lists"`

	Identities IdentityTables `mapstructure:"identities"`
}

// DefaultMLSTables returns the collector-default MLS table names.
func DefaultMLSTables() MLSTables {
	return MLSTables{
		Messages:       "messages",
		MessagesPeople: "messages_people",
		People:         "people",
		MailingLists:   "mailing_lists",
		Identities:     DefaultIdentityTables(),
	}
}

// SCRTables names the code review tables (pull request collector layout).
type SCRTables struct {
	PullRequests string `mapstructure:"pull_requests"`
	People       string `mapstructure:"people"`
	Repositories string `mapstructure:"repositories"`

	Identities IdentityTables `mapstructure:"identities"`
}

// DefaultSCRTables returns the collector-default review table names.
func DefaultSCRTables() SCRTables {
	return SCRTables{
		PullRequests: "pull_requests",
		People:       "people",
		Repositories: "repositories",
		Identities:   DefaultIdentityTables(),
	}
}
