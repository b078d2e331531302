package core

import (
	"fmt"
	"strings"

	"github.com/vizpulse/vizpulse/core/build"
	"github.com/vizpulse/vizpulse/schema"
)

// Shared semantic conditions. The datasource families differ in table
// names and person columns but resolve identities and window periods the
// same way, so the join shapes live here and the factories bind them to
// their tables.

func tref(table, alias string) string { return table + " " + alias }

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(names []string) []any {
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	return args
}

// periodCond windows an event date to the half-open filter interval.
func periodCond(f Filters, dateExpr, baseTable string) build.Cond {
	return build.Cond{
		Filters: []build.Filter{{
			Expr:     fmt.Sprintf("%s >= ? AND %s < ?", dateExpr, dateExpr),
			Args:     []any{DateArg(f.Start), DateArg(f.End)},
			Requires: []string{baseTable},
		}},
	}
}

// identityJoinCond resolves a person column to unique identities via the
// people-to-identity mapping, under the given aliases.
func identityJoinCond(ident schema.IdentityTables, personCol, pupAlias, upAlias, baseTable string) build.Cond {
	pup := tref(ident.Qualified(ident.PeopleUPeople), pupAlias)
	up := tref(ident.Qualified(ident.UPeople), upAlias)
	return build.Cond{
		Tables: []string{pup, up},
		Filters: []build.Filter{
			{Expr: fmt.Sprintf("%s = %s.people_id", personCol, pupAlias), Requires: []string{baseTable, pup}},
			{Expr: fmt.Sprintf("%s.upeople_id = %s.id", pupAlias, upAlias), Requires: []string{pup, up}},
		},
	}
}

// organizationCond attributes events to an organization through the
// time-bounded enrollment window containing the event date.
func organizationCond(ident schema.IdentityTables, personCol, dateExpr, name, baseTable string) build.Cond {
	pup := tref(ident.Qualified(ident.PeopleUPeople), "pup_o")
	enr := tref(ident.Qualified(ident.Enrollments), "enr")
	org := tref(ident.Qualified(ident.Organizations), "org")
	return build.Cond{
		Tables: []string{pup, enr, org},
		Filters: []build.Filter{
			{Expr: fmt.Sprintf("%s = pup_o.people_id", personCol), Requires: []string{baseTable, pup}},
			{Expr: "pup_o.upeople_id = enr.upeople_id", Requires: []string{pup, enr}},
			{Expr: fmt.Sprintf("%s >= enr.init AND %s < enr.end", dateExpr, dateExpr), Requires: []string{enr}},
			{Expr: "enr.company_id = org.id", Requires: []string{enr, org}},
			{Expr: "org.name = ?", Args: []any{name}, Requires: []string{org}},
		},
	}
}

// personsConds filters events by include/exclude person lists via
// subselects, so they compose with any metric join without changing row
// multiplicity. Include and exclude are independent; together they mean
// include minus exclude. personCols carries one event column per actor
// role in play; peopleIDCol is the people-table key those columns refer
// to (numeric id for SCM/ITS, email address for MLS).
func personsConds(ident schema.IdentityTables, peopleTable, peopleIDCol string, personCols []string, f Filters, baseTable string) []build.Condition {
	if len(f.InPersons) == 0 && len(f.OutPersons) == 0 {
		return nil
	}

	var sub string
	if f.PersonsKind == schema.UniqueIdentities {
		sub = fmt.Sprintf(
			"SELECT pup_f.people_id FROM %s, %s WHERE pup_f.upeople_id = up_f.id AND up_f.identifier IN (%%s)",
			tref(ident.Qualified(ident.PeopleUPeople), "pup_f"),
			tref(ident.Qualified(ident.UPeople), "up_f"))
	} else {
		sub = fmt.Sprintf("SELECT p_f.%s FROM %s WHERE p_f.name IN (%%s)",
			peopleIDCol, tref(peopleTable, "p_f"))
	}

	listCond := func(names []string, negate bool) build.Cond {
		inner := fmt.Sprintf(sub, placeholders(len(names)))
		op, joiner := "IN", " OR "
		if negate {
			// excluding any role membership keeps only events where no
			// role matches
			op, joiner = "NOT IN", " AND "
		}
		exprs := make([]string, len(personCols))
		var args []any
		for i, col := range personCols {
			exprs[i] = fmt.Sprintf("%s %s (%s)", col, op, inner)
			args = append(args, stringArgs(names)...)
		}
		return build.Cond{Filters: []build.Filter{{
			Expr:     "(" + strings.Join(exprs, joiner) + ")",
			Args:     args,
			Requires: []string{baseTable},
		}}}
	}

	var out []build.Condition
	if len(f.InPersons) > 0 {
		out = append(out, listCond(f.InPersons, false))
	}
	if len(f.OutPersons) > 0 {
		out = append(out, listCond(f.OutPersons, true))
	}
	return out
}
