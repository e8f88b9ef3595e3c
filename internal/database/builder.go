package database

import (
	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// Builder returns a Postgres statement builder. Placeholders ($1..$n) are
// numbered by the builder as predicates and assignments are added, so values
// are never interpolated into statement text.
func Builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.Postgres)
}

// Filter collects predicates that are AND-ed together into a WHERE clause.
// The same Filter can be applied to a COUNT query and to the page query.
type Filter struct {
	preds []*entsql.Predicate
}

// Add appends an arbitrary predicate.
func (f *Filter) Add(p *entsql.Predicate) *Filter {
	f.preds = append(f.preds, p)
	return f
}

func (f *Filter) EQ(column string, value any) *Filter {
	return f.Add(entsql.EQ(column, value))
}

// ContainsFold adds a case-insensitive substring match that succeeds when any
// of the columns contains search.
func (f *Filter) ContainsFold(search string, columns ...string) *Filter {
	if len(columns) == 0 {
		return f
	}
	ors := make([]*entsql.Predicate, 0, len(columns))
	for _, c := range columns {
		ors = append(ors, entsql.ContainsFold(c, search))
	}
	if len(ors) == 1 {
		return f.Add(ors[0])
	}
	return f.Add(entsql.Or(ors...))
}

func (f *Filter) Empty() bool {
	return len(f.preds) == 0
}

// Apply adds the conjunction of every collected predicate to the selector.
func (f *Filter) Apply(s *entsql.Selector) *entsql.Selector {
	if f.Empty() {
		return s
	}
	return s.Where(entsql.And(f.preds...))
}

// CountAs renders COUNT(*) AS alias, restricted by FILTER (WHERE p) when p
// is not nil.
func CountAs(alias string, p *entsql.Predicate) entsql.Querier {
	return entsql.ExprFunc(func(b *entsql.Builder) {
		b.WriteString("COUNT(*)")
		if p != nil {
			b.WriteString(" FILTER (WHERE ").Join(p).WriteString(")")
		}
		b.WriteString(" AS ").Ident(alias)
	})
}

// Patch collects the SET assignments of a sparse update.
type Patch struct {
	columns []string
	values  []any
	nulls   []string
}

// Set assigns value to column.
func (p *Patch) Set(column string, value any) *Patch {
	p.columns = append(p.columns, column)
	p.values = append(p.values, value)
	return p
}

// SetNull assigns NULL to column.
func (p *Patch) SetNull(column string) *Patch {
	p.nulls = append(p.nulls, column)
	return p
}

// Len is the number of assignments, NULL ones included.
func (p *Patch) Len() int {
	return len(p.columns) + len(p.nulls)
}

// Apply writes the assignments into an UPDATE builder.
func (p *Patch) Apply(u *entsql.UpdateBuilder) *entsql.UpdateBuilder {
	for _, c := range p.nulls {
		u.SetNull(c)
	}
	for i, c := range p.columns {
		u.Set(c, p.values[i])
	}
	return u
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Apply sets LIMIT/OFFSET on the selector.
func (p Page) Apply(s *entsql.Selector) *entsql.Selector {
	return s.Limit(p.Size).Offset(p.Offset())
}

// TotalPages is ceil(total / size), and 0 for an empty result.
func TotalPages(total, size int) int {
	if size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
