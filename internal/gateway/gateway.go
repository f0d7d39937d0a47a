// Package gateway defines the generic persistence contract the repositories
// are written against: insert, select, update and delete over a named table
// with conjunctive equality filters.
package gateway

import (
	"context"
	"errors"
)

// Record is one row. Keys are column names.
type Record map[string]any

// Filter is a conjunction of column = value predicates. A nil value matches
// NULL / absent columns.
type Filter map[string]any

type Order struct {
	Column string
	Desc   bool
}

type Query struct {
	Filter  Filter
	OrderBy []Order
	Limit   int
}

var (
	// ErrUniqueViolation is returned by Insert and Update when a declared
	// unique constraint would be broken.
	ErrUniqueViolation = errors.New("gateway: unique constraint violated")
)

type Gateway interface {
	Insert(ctx context.Context, table string, rec Record) (Record, error)
	Select(ctx context.Context, table string, q Query) ([]Record, error)
	Update(ctx context.Context, table string, f Filter, changes Record) (int64, error)
	Delete(ctx context.Context, table string, f Filter) (int64, error)
}

// Counter is implemented by gateways that can group and count server-side.
// Keys of the result are the distinct non-null values of column.
type Counter interface {
	CountBy(ctx context.Context, table string, f Filter, column string) (map[string]int64, error)
}

// Transactor is implemented by gateways that can run several calls
// atomically. fn receives a gateway bound to the transaction; returning an
// error rolls everything back.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx Gateway) error) error
}

// Table names shared by the repositories and the schemas.
const (
	TableUsers       = "users"
	TablePolls       = "polls"
	TablePollOptions = "poll_options"
	TableVotes       = "votes"
)

// UniqueConstraint names columns whose combined value must be unique.
// Rows with any nil column in the set never conflict.
type UniqueConstraint struct {
	Table   string
	Columns []string
}

// Constraints mirrors the UNIQUE indexes of the SQL schemas for gateways that
// have to enforce them on their own.
var Constraints = []UniqueConstraint{
	{Table: TableUsers, Columns: []string{"id"}},
	{Table: TableUsers, Columns: []string{"email"}},
	{Table: TablePolls, Columns: []string{"id"}},
	{Table: TablePollOptions, Columns: []string{"id"}},
	{Table: TableVotes, Columns: []string{"id"}},
	{Table: TableVotes, Columns: []string{"poll_id", "dedupe_key"}},
}
