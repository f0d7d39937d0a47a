// Package memory is an in-process gateway used for local development and
// tests. Each call holds the store mutex only for its own duration.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pollhub/internal/gateway"
)

type Op string

const (
	OpInsert Op = "insert"
	OpSelect Op = "select"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// FaultFunc is consulted before every operation; a non-nil error aborts it
// without touching the data.
type FaultFunc func(op Op, table string) error

type Gateway struct {
	mu      sync.Mutex
	tables  map[string][]gateway.Record
	uniques map[string][][]string
	fault   FaultFunc
}

func New(constraints ...gateway.UniqueConstraint) *Gateway {
	g := &Gateway{
		tables:  make(map[string][]gateway.Record),
		uniques: make(map[string][][]string),
	}
	for _, c := range constraints {
		g.uniques[c.Table] = append(g.uniques[c.Table], c.Columns)
	}
	return g
}

// SetFault installs (or clears, with nil) a fault hook.
func (g *Gateway) SetFault(fn FaultFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fault = fn
}

// Len reports the number of rows in table.
func (g *Gateway) Len(table string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tables[table])
}

func (g *Gateway) Insert(ctx context.Context, table string, rec gateway.Record) (gateway.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.check(OpInsert, table); err != nil {
		return nil, err
	}

	row := clone(rec)
	for _, cols := range g.uniques[table] {
		if g.conflicts(table, cols, row, -1) {
			return nil, fmt.Errorf("%s(%s): %w", table, strings.Join(cols, ","), gateway.ErrUniqueViolation)
		}
	}
	g.tables[table] = append(g.tables[table], row)
	return clone(row), nil
}

func (g *Gateway) Select(ctx context.Context, table string, q gateway.Query) ([]gateway.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.check(OpSelect, table); err != nil {
		return nil, err
	}

	var out []gateway.Record
	for _, row := range g.tables[table] {
		if matches(row, q.Filter) {
			out = append(out, clone(row))
		}
	}

	if len(q.OrderBy) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range q.OrderBy {
				c := compare(out[i][o.Column], out[j][o.Column])
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (g *Gateway) Update(ctx context.Context, table string, f gateway.Filter, changes gateway.Record) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.check(OpUpdate, table); err != nil {
		return 0, err
	}

	rows := g.tables[table]
	var idx []int
	for i, row := range rows {
		if matches(row, f) {
			idx = append(idx, i)
		}
	}

	updated := make(map[int]gateway.Record, len(idx))
	for _, i := range idx {
		next := clone(rows[i])
		for k, v := range changes {
			next[k] = v
		}
		for _, cols := range g.uniques[table] {
			if g.conflicts(table, cols, next, i) {
				return 0, fmt.Errorf("%s(%s): %w", table, strings.Join(cols, ","), gateway.ErrUniqueViolation)
			}
		}
		updated[i] = next
	}
	for i, row := range updated {
		rows[i] = row
	}
	return int64(len(idx)), nil
}

func (g *Gateway) Delete(ctx context.Context, table string, f gateway.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.check(OpDelete, table); err != nil {
		return 0, err
	}

	rows := g.tables[table]
	kept := rows[:0]
	var n int64
	for _, row := range rows {
		if matches(row, f) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	g.tables[table] = kept
	return n, nil
}

func (g *Gateway) check(op Op, table string) error {
	if g.fault == nil {
		return nil
	}
	return g.fault(op, table)
}

// conflicts reports whether row collides with another row of table on cols.
// skip is the index of the row being replaced, or -1.
func (g *Gateway) conflicts(table string, cols []string, row gateway.Record, skip int) bool {
	for _, c := range cols {
		if row[c] == nil {
			return false
		}
	}
	for i, other := range g.tables[table] {
		if i == skip {
			continue
		}
		same := true
		for _, c := range cols {
			if !equal(other[c], row[c]) {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}

func matches(row gateway.Record, f gateway.Filter) bool {
	for k, want := range f {
		if !equal(row[k], want) {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}

func compare(a, b any) int {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case int:
		if bv, ok := b.(int); ok {
			return av - bv
		}
	case int64:
		if bv, ok := b.(int64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	}
	switch {
	case a == nil && b != nil:
		return -1
	case a != nil && b == nil:
		return 1
	}
	return 0
}

func clone(r gateway.Record) gateway.Record {
	out := make(gateway.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
