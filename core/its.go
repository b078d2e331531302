package core

import (
	"fmt"

	"github.com/vizpulse/vizpulse/core/build"
	"github.com/vizpulse/vizpulse/schema"
)

// DefaultClosedStates are the issue status values counted as closed when
// the tracker configuration does not override them.
var DefaultClosedStates = []string{"CLOSED", "RESOLVED"}

// ITS computes issue tracking metrics over a tickets database.
type ITS struct {
	querier      Querier
	dialect      build.Dialect
	tables       schema.ITSTables
	closedStates []string
}

var _ DataSource = &ITS{} // Compile-time check

// NewITS returns the ITS datasource. closedStates may be nil to use
// DefaultClosedStates; trackers disagree on terminal status names.
func NewITS(q Querier, d build.Dialect, tables schema.ITSTables, closedStates []string) *ITS {
	if len(closedStates) == 0 {
		closedStates = DefaultClosedStates
	}
	return &ITS{querier: q, dialect: d, tables: tables, closedStates: closedStates}
}

// Kind identifies the datasource family.
func (t *ITS) Kind() schema.DataSourceKind { return schema.ITSSource }

func (t *ITS) issuesTable() string  { return tref(t.tables.Issues, "i") }
func (t *ITS) changesTable() string { return tref(t.tables.Changes, "ch") }

// issueChangeJoin links status changes back to their issues, needed when
// a changes-based metric filters on issue attributes.
func (t *ITS) issueChangeJoin() build.Cond {
	return build.Cond{
		Tables: []string{t.issuesTable()},
		Filters: []build.Filter{
			{Expr: "ch.issue_id = i.id", Requires: []string{t.changesTable(), t.issuesTable()}},
		},
	}
}

// closedCond keeps only status transitions into a closed state.
func (t *ITS) closedCond() build.Cond {
	args := append([]any{"status"}, stringArgs(t.closedStates)...)
	return build.Cond{
		Filters: []build.Filter{{
			Expr: fmt.Sprintf("ch.field = ? AND ch.new_value IN (%s)",
				placeholders(len(t.closedStates))),
			Args:     args,
			Requires: []string{t.changesTable()},
		}},
	}
}

func (t *ITS) trackerCond(url string, needsIssues bool) build.Cond {
	trackers := tref(t.tables.Trackers, "trk")
	cond := build.Cond{
		Tables: []string{trackers},
		Filters: []build.Filter{
			{Expr: "i.tracker_id = trk.id", Requires: []string{t.issuesTable(), trackers}},
			{Expr: "trk.url = ?", Args: []any{url}, Requires: []string{trackers}},
		},
	}
	if needsIssues {
		cond.Tables = append([]string{t.issuesTable()}, cond.Tables...)
	}
	return cond
}

// conds builds the filter conditions for metrics based on one of the two
// event tables. Branch, path and merge filters have no issue-tracker
// meaning and are ignored.
func (t *ITS) conds(baseTable, personCol string, changeBased bool) condsFunc {
	return func(f Filters, dateExpr string) ([]build.Condition, error) {
		conds := []build.Condition{periodCond(f, dateExpr, baseTable)}
		if changeBased {
			conds = append(conds, t.issueChangeJoin())
		}
		if f.Repository != "" {
			conds = append(conds, t.trackerCond(f.Repository, changeBased))
		}
		if f.Organization != "" {
			conds = append(conds, organizationCond(
				t.tables.Identities, personCol, dateExpr, f.Organization, baseTable))
		}
		persons := personsConds(t.tables.Identities, t.tables.People, "id", []string{personCol}, f, baseTable)
		return append(conds, persons...), nil
	}
}

func (t *ITS) metric(id, name, desc, column, base, dateExpr, personCol string, changeBased bool, extra ...build.Condition) *queryMetric {
	return &queryMetric{
		info:       MetricInfo{ID: id, Name: name, Description: desc},
		source:     schema.ITSSource,
		querier:    t.querier,
		dialect:    t.dialect,
		column:     column,
		requires:   []string{base},
		baseTables: []string{base},
		dateOf:     staticDate(dateExpr),
		conds:      t.conds(base, personCol, changeBased),
		extra:      extra,
	}
}

// Metrics returns the ITS metric catalog.
func (t *ITS) Metrics() []Metric {
	ident := t.tables.Identities
	openerJoin := identityJoinCond(ident, "i.submitted_by", "pup", "up", t.issuesTable())
	closerJoin := identityJoinCond(ident, "ch.changed_by", "pup", "up", t.changesTable())
	pup := tref(ident.Qualified(ident.PeopleUPeople), "pup")

	opened := t.metric("opened", "Opened issues",
		"Issues submitted in the interval",
		"count(distinct(i.id))", t.issuesTable(), "i.submitted_on", "i.submitted_by", false)
	openers := t.metric("openers", "Issue openers",
		"Distinct issue submitters, alias-resolved",
		"count(distinct(pup.upeople_id))", t.issuesTable(), "i.submitted_on", "i.submitted_by", false, openerJoin)
	openers.requires = []string{pup}
	closed := t.metric("closed", "Closed issues",
		"Issues moved to a closed state in the interval",
		"count(distinct(ch.issue_id))", t.changesTable(), "ch.changed_on", "ch.changed_by", true, t.closedCond())
	closers := t.metric("closers", "Issue closers",
		"Distinct people closing issues, alias-resolved",
		"count(distinct(pup.upeople_id))", t.changesTable(), "ch.changed_on", "ch.changed_by", true, t.closedCond(), closerJoin)
	closers.requires = []string{pup}

	// closed/opened with the historical sentinel: zero when nothing was
	// opened, unlike reshape.PercentageOf which errors
	bmi := &derivedMetric{
		info: MetricInfo{ID: "bmi_its", Name: "Issues BMI",
			Description: "Ratio of closed to opened issues"},
		source: schema.ITSSource,
		terms:  []Metric{closed, opened},
		fn: func(vals map[string]float64) float64 {
			if vals["opened"] == 0 {
				return 0
			}
			return vals["closed"] / vals["opened"]
		},
	}

	return []Metric{opened, openers, closed, closers, bmi}
}
