package storage

import "strings"

// Filter is a composable set of parameterized predicates over the fines
// table. Filters only ever build `?`-bound fragments; caller input never
// reaches the SQL text itself.
type Filter struct {
	clauses []string
	args    []any
}

// ByYear restricts to fines issued in the given calendar year. A year of
// zero or below is the "all years" sentinel and produces no predicate; the
// sentinel never escapes this package.
func ByYear(year int) Filter {
	if year <= 0 {
		return Filter{}
	}
	return Filter{clauses: []string{"f.year_issued = ?"}, args: []any{year}}
}

// ByFirm restricts to fines against the named firm or individual.
func ByFirm(name string) Filter {
	return Filter{clauses: []string{"f.firm_individual = ?"}, args: []any{name}}
}

// BySector restricts to fines whose firm category equals the named sector.
func BySector(name string) Filter {
	return Filter{clauses: []string{"f.firm_category = ?"}, args: []any{name}}
}

// ByCategory restricts to fines whose breach category list contains the
// named category.
func ByCategory(name string) Filter {
	return Filter{
		clauses: []string{"EXISTS (SELECT 1 FROM json_each(f.breach_categories) je WHERE je.value = ?)"},
		args:    []any{name},
	}
}

// And combines two filters into one conjunction.
func (f Filter) And(g Filter) Filter {
	return Filter{
		clauses: append(append([]string{}, f.clauses...), g.clauses...),
		args:    append(append([]any{}, f.args...), g.args...),
	}
}

// where renders the filter as a WHERE clause plus bound arguments. An empty
// filter renders as the empty string so callers can append it unconditionally.
func (f Filter) where() (string, []any) {
	if len(f.clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(f.clauses, " AND "), f.args
}
