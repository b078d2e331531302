// Package build composes parameterized SQL queries for metric extraction.
//
// Queries are assembled from independent pieces: selected fields, joined
// tables and filter conditions, each declaring the tables it needs. The
// builder deduplicates tables, keeps values out of the SQL text and fails
// fast on inconsistent compositions instead of emitting broken queries.
package build

// Field is a select expression with an output name.
type Field struct {
	Expr     string
	Name     string
	Requires []string
}

// Filter is a WHERE condition with its bound arguments.
type Filter struct {
	Expr     string
	Args     []any
	Requires []string
}

// Condition contributes tables, fields and filters to a builder. Semantic
// conditions such as period windows or person in/out lists implement it so
// metric queries can be composed from reusable pieces.
type Condition interface {
	ApplyTo(b *Builder)
}

// Cond is a plain data Condition.
type Cond struct {
	Tables  []string
	Fields  []Field
	Filters []Filter
}

// ApplyTo adds the condition's tables, fields and filters to b.
func (c Cond) ApplyTo(b *Builder) {
	b.FromTables(c.Tables...)
	for _, f := range c.Fields {
		b.SelectField(f.Expr, f.Name, f.Requires...)
	}
	for _, f := range c.Filters {
		b.Where(f.Expr, f.Args, f.Requires...)
	}
}
