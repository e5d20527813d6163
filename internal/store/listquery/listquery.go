// Package listquery builds the filtered, paginated list queries shared by
// every report board: a date range, keyword matches, key filters and a page.
package listquery

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DateMode decides how a date range with only one bound is applied.
type DateMode int

const (
	// OpenEnded uses >= for a lone start and <= for a lone end.
	OpenEnded DateMode = iota
	// ExactSingle matches the single given date exactly.
	ExactSingle
)

// Match is one column/term pair of an OR group.
type Match struct {
	Column string
	Term   string
}

// Query accumulates WHERE conditions over a FROM clause. Empty filter values
// are skipped, so callers can pass raw request values through.
type Query struct {
	from    string
	where   []string
	args    []any
	orderBy string
}

// New starts a query over from, which may include joins.
func New(from string) *Query {
	return &Query{from: from}
}

// Where adds a raw condition with its arguments.
func (q *Query) Where(cond string, args ...any) *Query {
	q.where = append(q.where, cond)
	q.args = append(q.args, args...)
	return q
}

// Eq adds col = v.
func (q *Query) Eq(col string, v any) *Query {
	return q.Where(col+" = ?", v)
}

// EqInt adds col = *v when v is set.
func (q *Query) EqInt(col string, v *int64) *Query {
	if v == nil {
		return q
	}
	return q.Eq(col, *v)
}

// Like adds col LIKE %term% when term is not empty.
func (q *Query) Like(col, term string) *Query {
	if term == "" {
		return q
	}
	return q.Where(col+" LIKE ?", "%"+term+"%")
}

// AnyLike ORs together LIKE matches for the non-empty terms.
func (q *Query) AnyLike(matches ...Match) *Query {
	var parts []string
	var args []any
	for _, m := range matches {
		if m.Term == "" {
			continue
		}
		parts = append(parts, m.Column+" LIKE ?")
		args = append(args, "%"+m.Term+"%")
	}
	if len(parts) == 0 {
		return q
	}
	if len(parts) == 1 {
		return q.Where(parts[0], args...)
	}
	return q.Where("("+strings.Join(parts, " OR ")+")", args...)
}

// DateRange filters col by the YYYY-MM-DD bounds. Both bounds give BETWEEN;
// a single bound is applied according to mode.
func (q *Query) DateRange(col, from, to string, mode DateMode) *Query {
	switch {
	case from != "" && to != "":
		return q.Where(col+" BETWEEN ? AND ?", from, to)
	case from != "":
		if mode == ExactSingle {
			return q.Eq(col, from)
		}
		return q.Where(col+" >= ?", from)
	case to != "":
		if mode == ExactSingle {
			return q.Eq(col, to)
		}
		return q.Where(col+" <= ?", to)
	}
	return q
}

// ExistsIn adds an EXISTS membership test: the subquery must select rows of
// a child table correlated to the parent, and %s is replaced by the
// placeholder list for ids. Nothing is added when ids is empty.
func (q *Query) ExistsIn(subquery string, ids []int64) *Query {
	if len(ids) == 0 {
		return q
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return q.Where("EXISTS ("+fmt.Sprintf(subquery, Placeholders(len(ids)))+")", args...)
}

// ExistsLike adds an EXISTS test whose subquery takes a single LIKE argument.
func (q *Query) ExistsLike(subquery, term string) *Query {
	if term == "" {
		return q
	}
	return q.Where("EXISTS ("+subquery+")", "%"+term+"%")
}

// OrderBy sets the ORDER BY clause.
func (q *Query) OrderBy(clause string) *Query {
	q.orderBy = clause
	return q
}

func (q *Query) whereClause() string {
	if len(q.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.where, " AND ")
}

// CountSQL returns the COUNT(*) statement and its arguments.
func (q *Query) CountSQL() (string, []any) {
	return "SELECT COUNT(*) FROM " + q.from + q.whereClause(), q.args
}

// SelectSQL returns the page statement for the given columns and its arguments.
func (q *Query) SelectSQL(columns string, p Page) (string, []any) {
	s := "SELECT " + columns + " FROM " + q.from + q.whereClause()
	if q.orderBy != "" {
		s += " ORDER BY " + q.orderBy
	}
	args := append([]any{}, q.args...)
	if p.Limit > 0 {
		s += " LIMIT ? OFFSET ?"
		args = append(args, p.Limit, p.Offset())
	}
	return s, args
}

// Run executes the count and the page query concurrently. scan is called
// once per row of the page, from a single goroutine.
func (q *Query) Run(ctx context.Context, db *sql.DB, columns string, p Page, scan func(*sql.Rows) error) (int, error) {
	var total int
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		countSQL, args := q.CountSQL()
		if err := db.QueryRowContext(gctx, countSQL, args...).Scan(&total); err != nil {
			return fmt.Errorf("count: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		selectSQL, args := q.SelectSQL(columns, p)
		rows, err := db.QueryContext(gctx, selectSQL, args...)
		if err != nil {
			return fmt.Errorf("select: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			if err := scan(rows); err != nil {
				return err
			}
		}
		return rows.Err()
	})

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return total, nil
}

// Placeholders returns "?, ?, ?" for n arguments.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
