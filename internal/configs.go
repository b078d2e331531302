package internal

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/vizpulse/vizpulse/schema"
)

// Default values for configuration.
const (
	DefaultLookbackDays  = 365
	DefaultResultLimit   = 10
	DefaultTopWindowDays = 0 // whole report interval
	MaxResultLimit       = 1000
)

// TimeFormat is the default time representation for flags.
var TimeFormat = time.DateOnly

// Config holds the runtime configuration for a report run.
// Fields set directly by simple flags remain the same (e.g., ResultLimit).
// Fields that require complex parsing (dates, source lists, table
// overrides) are set by the ProcessAndValidate function after flags are
// read.
type Config struct {
	Backend       schema.DatabaseBackend           // Database flavor shared by every connection
	DSNs          map[schema.DataSourceKind]string // Connection string per active data source
	TrackingDSN   string                           // Optional run tracking database
	Sources       []schema.DataSourceKind          // Data sources to report on, in output order
	Period        schema.Period                    // Time series bucketing
	StartTime     time.Time                        // Start of the report interval
	EndTime       time.Time                        // End of the report interval, exclusive
	Destination   string                           // Directory the JSON files are written to
	ResultLimit   int                              // Maximum entries in top lists
	WindowDays    []int                            // Trailing windows for top lists, 0 is the whole interval
	AuthorDate    bool                             // Bucket commits on author date instead of commit date
	NoMerges      bool                             // Drop merge commits from commit metrics
	Identities    schema.PeopleKind                // Raw people vs alias-resolved identities
	ClosedStates  []string                         // Issue states counted as closed
	Repositories  []string                         // Per-repository report items
	Organizations []string                         // Per-organization report items
	Parquet       bool                             // Also export run history as parquet
	RScript       string                           // Optional post-processing script
	Verbose       bool

	// Table names per family, collector defaults overlaid with the
	// config file's tables section.
	SCMTables schema.SCMTables
	ITSTables schema.ITSTables
	MLSTables schema.MLSTables
	SCRTables schema.SCRTables
}

// ConfigRawInput holds the raw string inputs from flags that require
// parsing or validation. These fields are bound directly to Cobra's flags.
type ConfigRawInput struct {
	BackendStr       string `mapstructure:"backend"`
	SCMDSN           string `mapstructure:"scm-db-connect"`
	ITSDSN           string `mapstructure:"its-db-connect"`
	MLSDSN           string `mapstructure:"mls-db-connect"`
	SCRDSN           string `mapstructure:"scr-db-connect"`
	TrackingDSN      string `mapstructure:"tracking-db-connect"`
	SourcesStr       string `mapstructure:"sources"`
	PeriodStr        string `mapstructure:"period"`
	StartTimeStr     string `mapstructure:"start"`
	EndTimeStr       string `mapstructure:"end"`
	Destination      string `mapstructure:"destdir"`
	ResultLimit      int    `mapstructure:"limit"`
	WindowDaysStr    string `mapstructure:"windows"`
	AuthorDate       bool   `mapstructure:"author-date"`
	NoMerges         bool   `mapstructure:"no-merges"`
	RawPeople        bool   `mapstructure:"raw-people"`
	ClosedStatesStr  string `mapstructure:"closed-states"`
	RepositoriesStr  string `mapstructure:"repositories"`
	OrganizationsStr string `mapstructure:"organizations"`
	Parquet          bool   `mapstructure:"parquet"`
	RScript          string `mapstructure:"rscript"`
	Verbose          bool   `mapstructure:"verbose"`

	// Tables holds the table name overrides from the config file's
	// tables section. Empty fields keep the collector defaults.
	Tables TablesRawInput `mapstructure:"tables"`
}

// TablesRawInput groups the per-family table name overrides.
type TablesRawInput struct {
	SCM schema.SCMTables `mapstructure:"scm"`
	ITS schema.ITSTables `mapstructure:"its"`
	MLS schema.MLSTables `mapstructure:"mls"`
	SCR schema.SCRTables `mapstructure:"scr"`
}

// splitCSV returns the trimmed, non-empty elements of a comma list.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseFlagTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// ProcessAndValidate performs all complex parsing and validation on the
// raw inputs and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	// --- 1. ResultLimit Validation ---
	if input.ResultLimit <= 0 || input.ResultLimit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.ResultLimit)
	}
	cfg.ResultLimit = input.ResultLimit

	// --- 2. Backend Validation ---
	cfg.Backend = schema.DatabaseBackend(strings.ToLower(input.BackendStr))
	if !cfg.Backend.Valid() {
		return fmt.Errorf("invalid backend '%s'. must be mysql, postgresql, sqlite", input.BackendStr)
	}

	// --- 3. Period Validation ---
	cfg.Period = schema.Period(strings.ToLower(input.PeriodStr))
	if !cfg.Period.Valid() {
		return fmt.Errorf("invalid period '%s'. must be year, month, week", input.PeriodStr)
	}

	// --- 4. Data Source Selection and DSNs ---
	dsns := map[schema.DataSourceKind]string{
		schema.SCMSource: input.SCMDSN,
		schema.ITSSource: input.ITSDSN,
		schema.MLSSource: input.MLSDSN,
		schema.SCRSource: input.SCRDSN,
	}
	// cloned, the explicit-selection path truncates and refills in place
	requested := append([]schema.DataSourceKind(nil), schema.AllDataSources...)
	if input.SourcesStr != "" {
		requested = requested[:0]
		for _, s := range splitCSV(input.SourcesStr) {
			kind := schema.DataSourceKind(strings.ToLower(s))
			if !kind.Valid() {
				return fmt.Errorf("invalid data source '%s'. must be scm, its, mls, scr", s)
			}
			requested = append(requested, kind)
		}
	}
	cfg.Sources = nil
	cfg.DSNs = map[schema.DataSourceKind]string{}
	for _, kind := range requested {
		if dsns[kind] == "" {
			if input.SourcesStr != "" {
				return fmt.Errorf("data source %s requested but no connection string given", kind)
			}
			continue // source not configured, skip it
		}
		cfg.Sources = append(cfg.Sources, kind)
		cfg.DSNs[kind] = dsns[kind]
	}
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("no data sources configured, set at least one connection string")
	}
	cfg.TrackingDSN = input.TrackingDSN

	// --- 5. Date Parsing and Time Range Validation ---

	// Set defaults if strings are empty
	cfg.EndTime = time.Now()
	cfg.StartTime = cfg.EndTime.Add(-DefaultLookbackDays * 24 * time.Hour)

	if input.StartTimeStr != "" {
		t, err := parseFlagTime(input.StartTimeStr)
		if err != nil {
			return fmt.Errorf("invalid start date format for '%s'. must be %s or RFC3339: %v", input.StartTimeStr, TimeFormat, err)
		}
		cfg.StartTime = t
	}
	if input.EndTimeStr != "" {
		t, err := parseFlagTime(input.EndTimeStr)
		if err != nil {
			return fmt.Errorf("invalid end date format for '%s'. must be %s or RFC3339: %v", input.EndTimeStr, TimeFormat, err)
		}
		cfg.EndTime = t
	}
	if cfg.StartTime.After(cfg.EndTime) {
		return fmt.Errorf("start time (%s) cannot be after end time (%s)", cfg.StartTime.Format(TimeFormat), cfg.EndTime.Format(TimeFormat))
	}

	// --- 6. Top List Windows ---
	cfg.WindowDays = []int{DefaultTopWindowDays}
	if input.WindowDaysStr != "" {
		cfg.WindowDays = cfg.WindowDays[:0]
		for _, s := range splitCSV(input.WindowDaysStr) {
			var days int
			if _, err := fmt.Sscanf(s, "%d", &days); err != nil || days < 0 {
				return fmt.Errorf("invalid top window '%s'. must be a non-negative day count", s)
			}
			cfg.WindowDays = append(cfg.WindowDays, days)
		}
	}

	// --- 7. Entity and Dimension Filters ---
	cfg.AuthorDate = input.AuthorDate
	cfg.NoMerges = input.NoMerges
	cfg.Identities = schema.UniqueIdentities
	if input.RawPeople {
		cfg.Identities = schema.RawPeople
	}
	cfg.ClosedStates = splitCSV(input.ClosedStatesStr)
	cfg.Repositories = splitCSV(input.RepositoriesStr)
	cfg.Organizations = splitCSV(input.OrganizationsStr)

	// --- 8. Table Name Overrides ---
	cfg.SCMTables = mergeSCMTables(input.Tables.SCM)
	cfg.ITSTables = mergeITSTables(input.Tables.ITS)
	cfg.MLSTables = mergeMLSTables(input.Tables.MLS)
	cfg.SCRTables = mergeSCRTables(input.Tables.SCR)

	// --- 9. Destination Resolution ---
	dest, err := filepath.Abs(input.Destination)
	if err != nil {
		return err
	}
	cfg.Destination = dest

	cfg.Parquet = input.Parquet
	cfg.RScript = input.RScript
	cfg.Verbose = input.Verbose

	return nil
}

// pick returns the override when one is set, the default otherwise.
func pick(def, override string) string {
	if override != "" {
		return override
	}
	return def
}

func mergeIdentityTables(o schema.IdentityTables) schema.IdentityTables {
	d := schema.DefaultIdentityTables()
	return schema.IdentityTables{
		Prefix:        o.Prefix, // defaults to same-schema, no prefix
		UPeople:       pick(d.UPeople, o.UPeople),
		PeopleUPeople: pick(d.PeopleUPeople, o.PeopleUPeople),
		Enrollments:   pick(d.Enrollments, o.Enrollments),
		Organizations: pick(d.Organizations, o.Organizations),
	}
}

func mergeSCMTables(o schema.SCMTables) schema.SCMTables {
	d := schema.DefaultSCMTables()
	return schema.SCMTables{
		SCMLog:       pick(d.SCMLog, o.SCMLog),
		People:       pick(d.People, o.People),
		Actions:      pick(d.Actions, o.Actions),
		Branches:     pick(d.Branches, o.Branches),
		FileLinks:    pick(d.FileLinks, o.FileLinks),
		Repositories: pick(d.Repositories, o.Repositories),
		Identities:   mergeIdentityTables(o.Identities),
	}
}

func mergeITSTables(o schema.ITSTables) schema.ITSTables {
	d := schema.DefaultITSTables()
	return schema.ITSTables{
		Issues:     pick(d.Issues, o.Issues),
		Changes:    pick(d.Changes, o.Changes),
		Trackers:   pick(d.Trackers, o.Trackers),
		People:     pick(d.People, o.People),
		Identities: mergeIdentityTables(o.Identities),
	}
}

func mergeMLSTables(o schema.MLSTables) schema.MLSTables {
	d := schema.DefaultMLSTables()
	return schema.MLSTables{
		Messages:       pick(d.Messages, o.Messages),
		MessagesPeople: pick(d.MessagesPeople, o.MessagesPeople),
		People:         pick(d.People, o.People),
		MailingLists:   pick(d.MailingLists, o.MailingLists),
		Identities:     mergeIdentityTables(o.Identities),
	}
}

func mergeSCRTables(o schema.SCRTables) schema.SCRTables {
	d := schema.DefaultSCRTables()
	return schema.SCRTables{
		PullRequests: pick(d.PullRequests, o.PullRequests),
		People:       pick(d.People, o.People),
		Repositories: pick(d.Repositories, o.Repositories),
		Identities:   mergeIdentityTables(o.Identities),
	}
}
