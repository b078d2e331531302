package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vizpulse/vizpulse/schema"
)

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		BackendStr:   "mysql",
		SCMDSN:       "root:@tcp(localhost:3306)/cvsanaly",
		PeriodStr:    "month",
		StartTimeStr: "2014-01-01",
		EndTimeStr:   "2014-07-01",
		Destination:  "report",
		ResultLimit:  DefaultResultLimit,
	}
}

func TestProcessAndValidate(t *testing.T) {
	var cfg Config
	require.NoError(t, ProcessAndValidate(&cfg, validInput()))

	assert.Equal(t, schema.MySQLBackend, cfg.Backend)
	assert.Equal(t, schema.Month, cfg.Period)
	assert.Equal(t, []schema.DataSourceKind{schema.SCMSource}, cfg.Sources)
	assert.Equal(t, time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC), cfg.StartTime)
	assert.Equal(t, time.Date(2014, time.July, 1, 0, 0, 0, 0, time.UTC), cfg.EndTime)
	assert.Equal(t, schema.UniqueIdentities, cfg.Identities)
	assert.Equal(t, []int{DefaultTopWindowDays}, cfg.WindowDays)
	assert.True(t, cfg.EndTime.After(cfg.StartTime))
}

func TestProcessAndValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *ConfigRawInput)
		wantErr string
	}{
		{
			name:    "zero limit",
			mutate:  func(in *ConfigRawInput) { in.ResultLimit = 0 },
			wantErr: "limit must be greater than 0",
		},
		{
			name:    "limit too large",
			mutate:  func(in *ConfigRawInput) { in.ResultLimit = MaxResultLimit + 1 },
			wantErr: "limit must be greater than 0",
		},
		{
			name:    "bad backend",
			mutate:  func(in *ConfigRawInput) { in.BackendStr = "oracle" },
			wantErr: "invalid backend",
		},
		{
			name:    "bad period",
			mutate:  func(in *ConfigRawInput) { in.PeriodStr = "quarter" },
			wantErr: "invalid period",
		},
		{
			name:    "bad source name",
			mutate:  func(in *ConfigRawInput) { in.SourcesStr = "scm,wiki" },
			wantErr: "invalid data source",
		},
		{
			name:    "source without dsn",
			mutate:  func(in *ConfigRawInput) { in.SourcesStr = "scm,its" },
			wantErr: "no connection string given",
		},
		{
			name:    "no sources at all",
			mutate:  func(in *ConfigRawInput) { in.SCMDSN = "" },
			wantErr: "no data sources configured",
		},
		{
			name:    "bad start date",
			mutate:  func(in *ConfigRawInput) { in.StartTimeStr = "01/02/2014" },
			wantErr: "invalid start date format",
		},
		{
			name:    "bad end date",
			mutate:  func(in *ConfigRawInput) { in.EndTimeStr = "yesterday" },
			wantErr: "invalid end date format",
		},
		{
			name: "inverted interval",
			mutate: func(in *ConfigRawInput) {
				in.StartTimeStr = "2015-01-01"
				in.EndTimeStr = "2014-01-01"
			},
			wantErr: "cannot be after end time",
		},
		{
			name:    "negative window",
			mutate:  func(in *ConfigRawInput) { in.WindowDaysStr = "365,-7" },
			wantErr: "invalid top window",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(in)
			var cfg Config
			err := ProcessAndValidate(&cfg, in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProcessAndValidateSourceSelection(t *testing.T) {
	in := validInput()
	in.ITSDSN = "root:@tcp(localhost:3306)/bicho"
	in.SCRDSN = "root:@tcp(localhost:3306)/pullpo"
	in.SourcesStr = "scr,its"

	var cfg Config
	require.NoError(t, ProcessAndValidate(&cfg, in))

	assert.Equal(t, []schema.DataSourceKind{schema.SCRSource, schema.ITSSource}, cfg.Sources)
	assert.NotContains(t, cfg.DSNs, schema.SCMSource)

	// explicit selection must leave the shared family list untouched
	assert.Equal(t,
		[]schema.DataSourceKind{schema.SCMSource, schema.ITSSource, schema.MLSSource, schema.SCRSource},
		schema.AllDataSources)
}

func TestProcessAndValidateDefaultsToConfiguredSources(t *testing.T) {
	in := validInput()
	in.MLSDSN = "root:@tcp(localhost:3306)/mlstats"

	var cfg Config
	require.NoError(t, ProcessAndValidate(&cfg, in))

	assert.Equal(t, []schema.DataSourceKind{schema.SCMSource, schema.MLSSource}, cfg.Sources)
}

func TestProcessAndValidateLists(t *testing.T) {
	in := validInput()
	in.RepositoriesStr = "git://a.git, git://b.git"
	in.OrganizationsStr = "ACME"
	in.ClosedStatesStr = "Fixed,Done"
	in.WindowDaysStr = "0, 365"
	in.RawPeople = true

	var cfg Config
	require.NoError(t, ProcessAndValidate(&cfg, in))

	assert.Equal(t, []string{"git://a.git", "git://b.git"}, cfg.Repositories)
	assert.Equal(t, []string{"ACME"}, cfg.Organizations)
	assert.Equal(t, []string{"Fixed", "Done"}, cfg.ClosedStates)
	assert.Equal(t, []int{0, 365}, cfg.WindowDays)
	assert.Equal(t, schema.RawPeople, cfg.Identities)
}

func TestProcessAndValidateTableDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, ProcessAndValidate(&cfg, validInput()))

	assert.Equal(t, schema.DefaultSCMTables(), cfg.SCMTables)
	assert.Equal(t, schema.DefaultITSTables(), cfg.ITSTables)
	assert.Equal(t, schema.DefaultMLSTables(), cfg.MLSTables)
	assert.Equal(t, schema.DefaultSCRTables(), cfg.SCRTables)
}

func TestProcessAndValidateTableOverrides(t *testing.T) {
	in := validInput()
	in.Tables.SCM.SCMLog = "commit_log"
	in.Tables.SCM.Identities.Prefix = "acme_ids"
	in.Tables.ITS.Issues = "tickets"

	var cfg Config
	require.NoError(t, ProcessAndValidate(&cfg, in))

	assert.Equal(t, "commit_log", cfg.SCMTables.SCMLog)
	assert.Equal(t, "people", cfg.SCMTables.People)
	assert.Equal(t, "acme_ids", cfg.SCMTables.Identities.Prefix)
	assert.Equal(t, "acme_ids.upeople", cfg.SCMTables.Identities.Qualified("upeople"))
	assert.Equal(t, "tickets", cfg.ITSTables.Issues)
	assert.Equal(t, "changes", cfg.ITSTables.Changes)
	assert.Equal(t, schema.DefaultMLSTables(), cfg.MLSTables)
}

func TestProcessAndValidateDefaultInterval(t *testing.T) {
	in := validInput()
	in.StartTimeStr = ""
	in.EndTimeStr = ""

	var cfg Config
	require.NoError(t, ProcessAndValidate(&cfg, in))

	assert.WithinDuration(t, time.Now(), cfg.EndTime, time.Minute)
	assert.Equal(t, DefaultLookbackDays*24*time.Hour, cfg.EndTime.Sub(cfg.StartTime))
}
