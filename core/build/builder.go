package build

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vizpulse/vizpulse/schema"
)

// PeriodYearColumn is the output column holding the bucket year in
// evolutionary queries. The sub-period column is named after the period
// itself ("month", "week").
const PeriodYearColumn = "year"

type builderMode int

const (
	modeUnset builderMode = iota
	modeAggregate
	modeEvolutionary
)

// Builder assembles one SELECT statement. Every piece added declares the
// tables it references; Render verifies those tables were joined and
// refuses to emit SQL otherwise. Composition errors are sticky: the first
// one is kept and reported by Render, so call sites can chain freely.
//
// Render is a pure function of the builder state. Calling it twice yields
// identical SQL and arguments.
type Builder struct {
	dialect Dialect

	mode       builderMode
	period     schema.Period
	periodDate string

	fields     []Field
	fieldSet   map[string]bool
	tables     []string
	tableSet   map[string]bool
	filters    []Filter
	filterSet  map[string]bool
	groupBy    []string
	orderBy    []string
	limit      int
	distinct   bool
	composeErr error
}

// NewBuilder returns an empty builder for the given dialect.
func NewBuilder(d Dialect) *Builder {
	return &Builder{
		dialect:   d,
		fieldSet:  make(map[string]bool),
		tableSet:  make(map[string]bool),
		filterSet: make(map[string]bool),
	}
}

// Dialect returns the dialect the builder renders for.
func (b *Builder) Dialect() Dialect { return b.dialect }

func (b *Builder) fail(format string, args ...any) *Builder {
	if b.composeErr == nil {
		b.composeErr = fmt.Errorf(format, args...)
	}
	return b
}

// SelectField adds a select expression under an output name. Reusing a
// name is a composition error: two metrics would silently shadow each
// other in the result map.
func (b *Builder) SelectField(expr, name string, requires ...string) *Builder {
	if b.fieldSet[name] {
		return b.fail("duplicate field name %q", name)
	}
	b.fieldSet[name] = true
	b.fields = append(b.fields, Field{Expr: expr, Name: name, Requires: requires})
	return b
}

// FromTables joins tables, deduplicating repeats. Join order follows
// first insertion so rendered SQL is stable.
func (b *Builder) FromTables(tables ...string) *Builder {
	for _, t := range tables {
		if b.tableSet[t] {
			continue
		}
		b.tableSet[t] = true
		b.tables = append(b.tables, t)
	}
	return b
}

// Where adds a filter condition with its bound arguments. Conditions are
// a set: repeating an identical condition, as overlapping semantic
// conditions do for shared join clauses, keeps only the first.
func (b *Builder) Where(expr string, args []any, requires ...string) *Builder {
	key := fmt.Sprintf("%s|%v", expr, args)
	if b.filterSet[key] {
		return b
	}
	b.filterSet[key] = true
	b.filters = append(b.filters, Filter{Expr: expr, Args: args, Requires: requires})
	return b
}

// Apply folds conditions into the builder.
func (b *Builder) Apply(conds ...Condition) *Builder {
	for _, c := range conds {
		if c != nil {
			c.ApplyTo(b)
		}
	}
	return b
}

// Aggregate marks the query as a whole-interval aggregate. Incompatible
// with GroupByPeriod.
func (b *Builder) Aggregate() *Builder {
	switch b.mode {
	case modeEvolutionary:
		return b.fail("cannot aggregate a period-grouped query")
	default:
		b.mode = modeAggregate
	}
	return b
}

// GroupByPeriod buckets the query by the period of dateExpr, selecting
// the bucket key columns and ordering ascending. Incompatible with
// Aggregate.
func (b *Builder) GroupByPeriod(p schema.Period, dateExpr string, requires ...string) *Builder {
	if b.mode == modeAggregate {
		return b.fail("cannot period-group an aggregate query")
	}
	if b.mode == modeEvolutionary {
		return b.fail("query already grouped by period")
	}
	if !p.Valid() {
		return b.fail("unknown period %q", string(p))
	}
	b.mode = modeEvolutionary
	b.period = p
	b.periodDate = dateExpr

	yearExpr, subExpr := b.dialect.PeriodKeyExprs(p, dateExpr)
	b.SelectField(yearExpr, PeriodYearColumn, requires...)
	b.groupBy = append(b.groupBy, yearExpr)
	b.orderBy = append(b.orderBy, yearExpr)
	if p != schema.Year {
		b.SelectField(subExpr, string(p), requires...)
		b.groupBy = append(b.groupBy, subExpr)
		b.orderBy = append(b.orderBy, subExpr)
	}
	return b
}

// GroupBy adds a plain grouping expression.
func (b *Builder) GroupBy(exprs ...string) *Builder {
	b.groupBy = append(b.groupBy, exprs...)
	return b
}

// OrderBy adds ordering expressions, applied after any period ordering.
func (b *Builder) OrderBy(exprs ...string) *Builder {
	b.orderBy = append(b.orderBy, exprs...)
	return b
}

// Distinct deduplicates result rows.
func (b *Builder) Distinct() *Builder {
	b.distinct = true
	return b
}

// Limit caps the row count. Zero means no limit.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// Period returns the grouping period, or empty when not period-grouped.
func (b *Builder) Period() schema.Period { return b.period }

func (b *Builder) missingTables(requires []string) []string {
	var missing []string
	for _, t := range requires {
		if !b.tableSet[t] {
			missing = append(missing, t)
		}
	}
	return missing
}

// Render emits the SQL text and its ordered arguments. It fails on any
// recorded composition error, on references to unjoined tables and on
// structurally empty queries.
func (b *Builder) Render() (string, []any, error) {
	if b.composeErr != nil {
		return "", nil, b.composeErr
	}
	if len(b.fields) == 0 {
		return "", nil, fmt.Errorf("query selects no fields")
	}
	if len(b.tables) == 0 {
		return "", nil, fmt.Errorf("query joins no tables")
	}
	for _, f := range b.fields {
		if missing := b.missingTables(f.Requires); len(missing) > 0 {
			return "", nil, fmt.Errorf("field %q references unjoined tables %s",
				f.Name, strings.Join(missing, ", "))
		}
	}
	for _, f := range b.filters {
		if missing := b.missingTables(f.Requires); len(missing) > 0 {
			return "", nil, fmt.Errorf("filter %q references unjoined tables %s",
				f.Expr, strings.Join(missing, ", "))
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if b.distinct {
		sb.WriteString("DISTINCT ")
	}
	for i, f := range b.fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		if f.Expr == f.Name {
			sb.WriteString(f.Expr)
		} else {
			fmt.Fprintf(&sb, "%s AS %s", f.Expr, f.Name)
		}
	}
	sb.WriteString(" FROM ")
	sb.WriteString(strings.Join(b.tables, ", "))

	var args []any
	if len(b.filters) > 0 {
		sb.WriteString(" WHERE ")
		for i, f := range b.filters {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			sb.WriteString(f.Expr)
			args = append(args, f.Args...)
		}
	}
	if len(b.groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.groupBy, ", "))
	}
	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.limit))
	}

	return b.dialect.Rebind(sb.String()), args, nil
}
