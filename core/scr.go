package core

import (
	"fmt"

	"github.com/vizpulse/vizpulse/core/build"
	"github.com/vizpulse/vizpulse/schema"
)

// SCR computes code review metrics over a pull request database.
type SCR struct {
	querier Querier
	dialect build.Dialect
	tables  schema.SCRTables
}

var _ DataSource = &SCR{} // Compile-time check

// NewSCR returns the SCR datasource.
func NewSCR(q Querier, d build.Dialect, tables schema.SCRTables) *SCR {
	return &SCR{querier: q, dialect: d, tables: tables}
}

// Kind identifies the datasource family.
func (r *SCR) Kind() schema.DataSourceKind { return schema.SCRSource }

func (r *SCR) prTable() string { return tref(r.tables.PullRequests, "pr") }

func (r *SCR) repositoryCond(name string) build.Cond {
	repos := tref(r.tables.Repositories, "rep")
	return build.Cond{
		Tables: []string{repos},
		Filters: []build.Filter{
			{Expr: "pr.repo_id = rep.id", Requires: []string{r.prTable(), repos}},
			{Expr: "rep.name = ?", Args: []any{name}, Requires: []string{repos}},
		},
	}
}

func scrRoleColumns(role schema.ActorRole) ([]string, error) {
	switch role {
	case schema.Authors:
		return []string{"pr.user_id"}, nil
	case schema.Committers:
		return []string{"pr.merged_by_id"}, nil
	case schema.AllActors:
		return []string{"pr.user_id", "pr.merged_by_id"}, nil
	}
	return nil, fmt.Errorf("unknown actor role %d", int(role))
}

func (r *SCR) conds(f Filters, dateExpr string) ([]build.Condition, error) {
	conds := []build.Condition{periodCond(f, dateExpr, r.prTable())}
	if f.Repository != "" {
		conds = append(conds, r.repositoryCond(f.Repository))
	}
	if f.Organization != "" {
		conds = append(conds, organizationCond(
			r.tables.Identities, "pr.user_id", dateExpr, f.Organization, r.prTable()))
	}
	cols, err := scrRoleColumns(f.PersonsRole)
	if err != nil {
		return nil, err
	}
	persons := personsConds(r.tables.Identities, r.tables.People, "id", cols, f, r.prTable())
	return append(conds, persons...), nil
}

// notNullCond pins a lifecycle date, e.g. merged_at for merged reviews.
func (r *SCR) notNullCond(col string) build.Cond {
	return build.Cond{Filters: []build.Filter{{
		Expr:     col + " IS NOT NULL",
		Requires: []string{r.prTable()},
	}}}
}

// nullCond is the inverse: abandoned reviews closed without a merge.
func (r *SCR) nullCond(col string) build.Cond {
	return build.Cond{Filters: []build.Filter{{
		Expr:     col + " IS NULL",
		Requires: []string{r.prTable()},
	}}}
}

func (r *SCR) metric(id, name, desc, column, dateExpr string, extra ...build.Condition) *queryMetric {
	return &queryMetric{
		info:       MetricInfo{ID: id, Name: name, Description: desc},
		source:     schema.SCRSource,
		querier:    r.querier,
		dialect:    r.dialect,
		column:     column,
		requires:   []string{r.prTable()},
		baseTables: []string{r.prTable()},
		dateOf:     staticDate(dateExpr),
		conds:      r.conds,
		extra:      extra,
	}
}

func (r *SCR) ranked(m *queryMetric, personCol string) *rankedMetric {
	join := identityJoinCond(r.tables.Identities, personCol, "pup", "up", r.prTable())
	up := tref(r.tables.Identities.Qualified(r.tables.Identities.UPeople), "up")
	return &rankedMetric{queryMetric: m, top: topSpec{
		tables:   join.Tables,
		filters:  join.Filters,
		idExpr:   "up.id",
		nameExpr: "up.identifier",
		requires: []string{up},
	}}
}

// Metrics returns the SCR metric catalog.
func (r *SCR) Metrics() []Metric {
	count := "count(distinct(pr.id))"

	submitted := r.metric("submitted", "Submitted reviews",
		"Review processes submitted in the interval",
		count, "pr.created_at")
	newReviews := r.metric("new", "New reviews",
		"Review processes started in the interval and still open",
		count, "pr.created_at", r.nullCond("pr.closed_at"))
	merged := r.metric("merged", "Merged changes",
		"Changes merged into the source code",
		count, "pr.merged_at", r.notNullCond("pr.merged_at"))
	abandoned := r.metric("abandoned", "Abandoned reviews",
		"Review processes closed without a merge",
		count, "pr.closed_at",
		r.notNullCond("pr.closed_at"), r.nullCond("pr.merged_at"))
	closed := r.metric("closed", "Closed reviews",
		"Review processes closed in the interval, merged or not",
		count, "pr.closed_at", r.notNullCond("pr.closed_at"))

	timetoClose := r.metric("timeto_close_avg_days", "Days to close",
		"Average days from submission to close, over reviews closed in the interval",
		fmt.Sprintf("AVG(%s)", r.dialect.DateDiffDaysExpr("pr.created_at", "pr.closed_at")),
		"pr.closed_at", r.notNullCond("pr.closed_at"))
	timetoMerge := r.metric("timeto_merge_avg_days", "Days to merge",
		"Average days from submission to merge, over reviews merged in the interval",
		fmt.Sprintf("AVG(%s)", r.dialect.DateDiffDaysExpr("pr.created_at", "pr.merged_at")),
		"pr.merged_at", r.notNullCond("pr.merged_at"))

	pending := &derivedMetric{
		info: MetricInfo{ID: "pending", Name: "Pending reviews",
			Description: "Submitted minus merged minus abandoned"},
		source: schema.SCRSource,
		terms:  []Metric{submitted, merged, abandoned},
		fn: func(vals map[string]float64) float64 {
			return vals["submitted"] - vals["merged"] - vals["abandoned"]
		},
	}
	// review efficiency with the historical sentinel: zero when nothing
	// was submitted, unlike reshape.PercentageOf which errors
	bmi := &derivedMetric{
		info: MetricInfo{ID: "bmi_scr", Name: "Review BMI",
			Description: "Ratio of finished (merged plus abandoned) to submitted reviews"},
		source: schema.SCRSource,
		terms:  []Metric{merged, abandoned, submitted},
		fn: func(vals map[string]float64) float64 {
			if vals["submitted"] == 0 {
				return 0
			}
			return (vals["merged"] + vals["abandoned"]) / vals["submitted"]
		},
	}

	return []Metric{
		r.ranked(submitted, "pr.user_id"),
		newReviews,
		r.ranked(merged, "pr.merged_by_id"),
		abandoned,
		r.ranked(closed, "pr.user_id"),
		pending,
		bmi,
		timetoClose,
		timetoMerge,
	}
}
