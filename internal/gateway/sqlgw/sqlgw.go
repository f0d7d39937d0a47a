// Package sqlgw implements the gateway on a relational database. Statements
// are built with goqu and executed through sqlx, so the same code serves
// PostgreSQL (pgx) and SQLite (modernc).
package sqlgw

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"pollhub/internal/gateway"
	"pollhub/internal/platform/database"
)

type Gateway struct {
	db      *sqlx.DB
	ex      sqlx.ExtContext
	dialect goqu.DialectWrapper
}

// New wraps db. dialect is database.Postgres or database.SQLite.
func New(db *sqlx.DB, dialect string) (*Gateway, error) {
	var name string
	switch dialect {
	case database.Postgres:
		name = "postgres"
	case database.SQLite:
		name = "sqlite3"
	default:
		return nil, fmt.Errorf("sqlgw: unsupported dialect %q", dialect)
	}
	return &Gateway{db: db, ex: db, dialect: goqu.Dialect(name)}, nil
}

// InTx runs fn against a gateway bound to one database transaction. Calls
// made on a gateway that is already inside a transaction join it.
func (g *Gateway) InTx(ctx context.Context, fn func(tx gateway.Gateway) error) error {
	if g.db == nil {
		return fn(g)
	}

	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&Gateway{ex: tx, dialect: g.dialect}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (g *Gateway) Insert(ctx context.Context, table string, rec gateway.Record) (gateway.Record, error) {
	query, args, err := g.dialect.Insert(table).Rows(goqu.Record(rec)).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	if _, err := g.ex.ExecContext(ctx, query, args...); err != nil {
		return nil, translate(table, err)
	}

	out := make(gateway.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out, nil
}

func (g *Gateway) Select(ctx context.Context, table string, q gateway.Query) ([]gateway.Record, error) {
	ds := g.dialect.From(table).Prepared(true)
	if len(q.Filter) > 0 {
		ds = ds.Where(goqu.Ex(q.Filter))
	}
	for _, o := range q.OrderBy {
		if o.Desc {
			ds = ds.OrderAppend(goqu.I(o.Column).Desc())
		} else {
			ds = ds.OrderAppend(goqu.I(o.Column).Asc())
		}
	}
	if q.Limit > 0 {
		ds = ds.Limit(uint(q.Limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := g.ex.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []gateway.Record
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		out = append(out, gateway.Record(row))
	}
	return out, rows.Err()
}

func (g *Gateway) Update(ctx context.Context, table string, f gateway.Filter, changes gateway.Record) (int64, error) {
	ds := g.dialect.Update(table).Set(goqu.Record(changes)).Prepared(true)
	if len(f) > 0 {
		ds = ds.Where(goqu.Ex(f))
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, err
	}

	res, err := g.ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translate(table, err)
	}
	return res.RowsAffected()
}

func (g *Gateway) Delete(ctx context.Context, table string, f gateway.Filter) (int64, error) {
	ds := g.dialect.Delete(table).Prepared(true)
	if len(f) > 0 {
		ds = ds.Where(goqu.Ex(f))
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, err
	}

	res, err := g.ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountBy runs SELECT column, COUNT(*) ... GROUP BY column.
func (g *Gateway) CountBy(ctx context.Context, table string, f gateway.Filter, column string) (map[string]int64, error) {
	ds := g.dialect.From(table).
		Select(goqu.C(column), goqu.COUNT(goqu.Star()).As("n")).
		GroupBy(goqu.C(column)).
		Prepared(true)
	if len(f) > 0 {
		ds = ds.Where(goqu.Ex(f))
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := g.ex.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var key *string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		if key != nil {
			out[*key] = n
		}
	}
	return out, rows.Err()
}

func translate(table string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", table, gateway.ErrUniqueViolation)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch code := liteErr.Code(); {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case code&0xff == sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
		}
	}
	return false
}
