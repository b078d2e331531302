package build

import (
	"fmt"
	"strings"

	"github.com/vizpulse/vizpulse/schema"
)

// Dialect abstracts the SQL functions that differ between supported
// backends: period bucket keys, date arithmetic and placeholder style.
// Weeks are ISO weeks on every backend so bucket keys agree with the
// gap-filling layer across year boundaries.
type Dialect interface {
	// Name returns a short dialect label for logs and errors.
	Name() string

	// PeriodKeyExprs returns the select expressions for the year and
	// sub-period key of the bucket containing dateExpr. For yearly
	// grouping the sub expression is the constant 1.
	PeriodKeyExprs(p schema.Period, dateExpr string) (yearExpr, subExpr string)

	// DateDiffDaysExpr returns an expression for whole days from one
	// date expression to another.
	DateDiffDaysExpr(from, to string) string

	// Rebind converts ?-style placeholders to the backend's style.
	Rebind(query string) string
}

// DialectFor returns the dialect for a database backend.
func DialectFor(backend schema.DatabaseBackend) (Dialect, error) {
	switch backend {
	case schema.MySQLBackend:
		return mysqlDialect{}, nil
	case schema.PostgreSQLBackend:
		return postgresDialect{}, nil
	case schema.SQLiteBackend:
		return sqliteDialect{}, nil
	}
	return nil, fmt.Errorf("no dialect for backend %q", string(backend))
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) PeriodKeyExprs(p schema.Period, dateExpr string) (string, string) {
	switch p {
	case schema.Year:
		return fmt.Sprintf("YEAR(%s)", dateExpr), "1"
	case schema.Month:
		return fmt.Sprintf("YEAR(%s)", dateExpr), fmt.Sprintf("MONTH(%s)", dateExpr)
	case schema.Week:
		// mode 3 weeks are ISO weeks; YEARWEEK packs the ISO year in
		// the upper digits
		return fmt.Sprintf("YEARWEEK(%s, 3) DIV 100", dateExpr),
			fmt.Sprintf("WEEK(%s, 3)", dateExpr)
	}
	return fmt.Sprintf("YEAR(%s)", dateExpr), "1"
}

func (mysqlDialect) DateDiffDaysExpr(from, to string) string {
	return fmt.Sprintf("DATEDIFF(%s, %s)", to, from)
}

func (mysqlDialect) Rebind(query string) string { return query }

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) PeriodKeyExprs(p schema.Period, dateExpr string) (string, string) {
	switch p {
	case schema.Year:
		return fmt.Sprintf("EXTRACT(YEAR FROM %s)::int", dateExpr), "1"
	case schema.Month:
		return fmt.Sprintf("EXTRACT(YEAR FROM %s)::int", dateExpr),
			fmt.Sprintf("EXTRACT(MONTH FROM %s)::int", dateExpr)
	case schema.Week:
		return fmt.Sprintf("EXTRACT(ISOYEAR FROM %s)::int", dateExpr),
			fmt.Sprintf("EXTRACT(WEEK FROM %s)::int", dateExpr)
	}
	return fmt.Sprintf("EXTRACT(YEAR FROM %s)::int", dateExpr), "1"
}

func (postgresDialect) DateDiffDaysExpr(from, to string) string {
	return fmt.Sprintf("(EXTRACT(EPOCH FROM (%s - %s)) / 86400)::int", to, from)
}

// Rebind rewrites ? placeholders to $1..$n. Composed queries never carry
// literal question marks outside placeholders.
func (postgresDialect) Rebind(query string) string {
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) PeriodKeyExprs(p schema.Period, dateExpr string) (string, string) {
	switch p {
	case schema.Year:
		return fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER)", dateExpr), "1"
	case schema.Month:
		return fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER)", dateExpr),
			fmt.Sprintf("CAST(strftime('%%m', %s) AS INTEGER)", dateExpr)
	case schema.Week:
		// %G/%V are the ISO week-year and week number
		return fmt.Sprintf("CAST(strftime('%%G', %s) AS INTEGER)", dateExpr),
			fmt.Sprintf("CAST(strftime('%%V', %s) AS INTEGER)", dateExpr)
	}
	return fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER)", dateExpr), "1"
}

func (sqliteDialect) DateDiffDaysExpr(from, to string) string {
	return fmt.Sprintf("CAST(julianday(%s) - julianday(%s) AS INTEGER)", to, from)
}

func (sqliteDialect) Rebind(query string) string { return query }
