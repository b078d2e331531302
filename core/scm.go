package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/vizpulse/vizpulse/core/build"
	"github.com/vizpulse/vizpulse/core/reshape"
	"github.com/vizpulse/vizpulse/schema"
)

// SCM computes source code management metrics over a commit database.
type SCM struct {
	querier Querier
	dialect build.Dialect
	tables  schema.SCMTables
}

var _ DataSource = &SCM{} // Compile-time check

// NewSCM returns the SCM datasource over the given connection and table
// configuration.
func NewSCM(q Querier, d build.Dialect, tables schema.SCMTables) *SCM {
	return &SCM{querier: q, dialect: d, tables: tables}
}

// Kind identifies the datasource family.
func (s *SCM) Kind() schema.DataSourceKind { return schema.SCMSource }

func (s *SCM) logTable() string { return tref(s.tables.SCMLog, "s") }

func (s *SCM) upeopleTable(alias string) string {
	return tref(s.tables.Identities.Qualified(s.tables.Identities.UPeople), alias)
}

func (s *SCM) peopleUPeopleTable(alias string) string {
	return tref(s.tables.Identities.Qualified(s.tables.Identities.PeopleUPeople), alias)
}

// dateExpr maps the filter's date kind onto the scmlog columns. Git keeps
// both dates and collector rows carry them side by side.
func (s *SCM) dateExpr(kind schema.DateKind) string {
	if kind == schema.AuthorDate {
		return "s.author_date"
	}
	return "s.date"
}

// roleColumn maps an actor role onto the scmlog person column.
func roleColumn(role schema.ActorRole) string {
	if role == schema.Committers {
		return "s.committer_id"
	}
	return "s.author_id"
}

func roleColumns(role schema.ActorRole) ([]string, error) {
	switch role {
	case schema.Authors:
		return []string{"s.author_id"}, nil
	case schema.Committers:
		return []string{"s.committer_id"}, nil
	case schema.AllActors:
		return []string{"s.author_id", "s.committer_id"}, nil
	}
	return nil, fmt.Errorf("unknown actor role %d", int(role))
}

func (s *SCM) repositoryCond(name string) build.Cond {
	repos := tref(s.tables.Repositories, "r")
	return build.Cond{
		Tables: []string{repos},
		Filters: []build.Filter{
			{Expr: "r.id = s.repository_id", Requires: []string{repos, s.logTable()}},
			{Expr: "r.name = ?", Args: []any{name}, Requires: []string{repos}},
		},
	}
}

func (s *SCM) branchesCond(names []string) build.Cond {
	actions := tref(s.tables.Actions, "a")
	branches := tref(s.tables.Branches, "b")
	return build.Cond{
		Tables: []string{actions, branches},
		Filters: []build.Filter{
			{Expr: "a.commit_id = s.id", Requires: []string{actions, s.logTable()}},
			{Expr: "a.branch_id = b.id", Requires: []string{actions, branches}},
			{Expr: fmt.Sprintf("b.name IN (%s)", placeholders(len(names))),
				Args: stringArgs(names), Requires: []string{branches}},
		},
	}
}

func (s *SCM) pathsCond(prefixes []string) build.Cond {
	fileLinks := tref(s.tables.FileLinks, "fl")
	exprs := make([]string, len(prefixes))
	args := make([]any, len(prefixes))
	for i, p := range prefixes {
		exprs[i] = "fl.file_path LIKE ?"
		args[i] = p + "%"
	}
	return build.Cond{
		Tables: []string{fileLinks},
		Filters: []build.Filter{
			{Expr: "fl.commit_id = s.id", Requires: []string{fileLinks, s.logTable()}},
			{Expr: "(" + strings.Join(exprs, " OR ") + ")", Args: args, Requires: []string{fileLinks}},
		},
	}
}

// nomergesCond drops merge commits. Merges touch no files directly, so
// any commit with a file action is a non-merge.
func (s *SCM) nomergesCond() build.Cond {
	actions := tref(s.tables.Actions, "a")
	return build.Cond{
		Tables: []string{actions},
		Filters: []build.Filter{
			{Expr: "a.commit_id = s.id", Requires: []string{actions, s.logTable()}},
		},
	}
}

func (s *SCM) filterConds(f Filters, dateExpr string) ([]build.Condition, error) {
	conds := []build.Condition{periodCond(f, dateExpr, s.logTable())}
	if f.Repository != "" {
		conds = append(conds, s.repositoryCond(f.Repository))
	}
	if f.Organization != "" {
		conds = append(conds, organizationCond(
			s.tables.Identities, roleColumn(f.PersonsRole), dateExpr, f.Organization, s.logTable()))
	}
	if len(f.Branches) > 0 {
		conds = append(conds, s.branchesCond(f.Branches))
	}
	if len(f.PathPrefixes) > 0 {
		conds = append(conds, s.pathsCond(f.PathPrefixes))
	}
	if f.NoMerges {
		conds = append(conds, s.nomergesCond())
	}
	cols, err := roleColumns(f.PersonsRole)
	if err != nil {
		return nil, err
	}
	persons := personsConds(s.tables.Identities, s.tables.People, "id", cols, f, s.logTable())
	return append(conds, persons...), nil
}

func (s *SCM) metric(id, name, desc, column string, requires []string, extra ...build.Condition) *queryMetric {
	return &queryMetric{
		info:       MetricInfo{ID: id, Name: name, Description: desc},
		source:     schema.SCMSource,
		querier:    s.querier,
		dialect:    s.dialect,
		column:     column,
		requires:   requires,
		baseTables: []string{s.logTable()},
		dateOf:     func(f Filters) string { return s.dateExpr(f.DateKind) },
		conds:      s.filterConds,
		extra:      extra,
	}
}

// Metrics returns the SCM metric catalog.
func (s *SCM) Metrics() []Metric {
	authorJoin := identityJoinCond(s.tables.Identities, "s.author_id", "pup", "up", s.logTable())
	committerJoin := identityJoinCond(s.tables.Identities, "s.committer_id", "pup_c", "up_c", s.logTable())
	actions := s.nomergesCond()

	ncommits := s.metric("ncommits", "Commits",
		"Commits recorded in the interval",
		"count(distinct(s.id))", []string{s.logTable()})
	nauthors := s.metric("nauthors", "Authors",
		"Distinct commit authors, alias-resolved",
		"count(distinct(pup.upeople_id))",
		[]string{s.peopleUPeopleTable("pup")}, authorJoin)
	ncommitters := s.metric("ncommitters", "Committers",
		"Distinct committers, alias-resolved",
		"count(distinct(pup_c.upeople_id))",
		[]string{s.peopleUPeopleTable("pup_c")}, committerJoin)
	nbranches := s.metric("nbranches", "Branches",
		"Distinct branches receiving commits",
		"count(distinct(a.branch_id))", []string{tref(s.tables.Actions, "a")}, actions)
	nfiles := s.metric("nfiles", "Files",
		"Distinct files touched by commits",
		"count(distinct(a.file_id))", []string{tref(s.tables.Actions, "a")}, actions)
	nrepositories := s.metric("nrepositories", "Repositories",
		"Distinct repositories receiving commits",
		"count(distinct(s.repository_id))", []string{s.logTable()})

	return []Metric{
		&rankedMetric{queryMetric: ncommits, top: topSpec{
			tables:   authorJoin.Tables,
			filters:  authorJoin.Filters,
			idExpr:   "up.id",
			nameExpr: "up.identifier",
			requires: []string{s.upeopleTable("up")},
		}},
		nauthors,
		ncommitters,
		nbranches,
		nfiles,
		nrepositories,
	}
}

// Activity returns per-author first and last commit dates inside the
// filter interval, for demographic analyses.
func (s *SCM) Activity(ctx context.Context, f Filters) (schema.ActivityList, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	dateExpr := s.dateExpr(f.DateKind)
	conds, err := s.filterConds(f, dateExpr)
	if err != nil {
		return nil, err
	}
	up := s.upeopleTable("up")
	b := build.NewBuilder(s.dialect).
		FromTables(s.logTable()).
		Apply(identityJoinCond(s.tables.Identities, "s.author_id", "pup", "up", s.logTable())).
		Apply(conds...).
		SelectField("up.id", "id", up).
		SelectField("up.identifier", "name", up).
		SelectField(fmt.Sprintf("MIN(%s)", dateExpr), "first_date", s.logTable()).
		SelectField(fmt.Sprintf("MAX(%s)", dateExpr), "last_date", s.logTable()).
		GroupBy("up.id", "up.identifier").
		OrderBy("name")
	query, args, err := b.Render()
	if err != nil {
		return nil, err
	}
	raw, err := s.querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return reshape.ToActivityList(raw)
}
