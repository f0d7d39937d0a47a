// Package firestoregw stores gateway tables as Cloud Firestore collections.
// Every record must carry a string "id", used as the document id.
package firestoregw

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pollhub/internal/gateway"
)

// uniqueCollection holds one marker document per claimed unique key.
const uniqueCollection = "_unique_keys"

type Gateway struct {
	client  *firestore.Client
	uniques map[string][][]string
}

func New(client *firestore.Client, constraints ...gateway.UniqueConstraint) *Gateway {
	g := &Gateway{client: client, uniques: make(map[string][][]string)}
	for _, c := range constraints {
		// the document id already enforces uniqueness of "id"
		if len(c.Columns) == 1 && c.Columns[0] == "id" {
			continue
		}
		g.uniques[c.Table] = append(g.uniques[c.Table], c.Columns)
	}
	return g
}

func (g *Gateway) Insert(ctx context.Context, table string, rec gateway.Record) (gateway.Record, error) {
	id, ok := rec["id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("firestoregw: %s record without string id", table)
	}

	err := g.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, key := range g.uniqueKeys(table, rec) {
			marker := g.client.Collection(uniqueCollection).Doc(key)
			if err := tx.Create(marker, map[string]any{"table": table, "id": id}); err != nil {
				return err
			}
		}
		return tx.Create(g.client.Collection(table).Doc(id), map[string]any(rec))
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, fmt.Errorf("%s: %w", table, gateway.ErrUniqueViolation)
		}
		return nil, err
	}

	out := make(gateway.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out, nil
}

func (g *Gateway) Select(ctx context.Context, table string, q gateway.Query) ([]gateway.Record, error) {
	docs, err := g.query(table, q).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]gateway.Record, 0, len(docs))
	for _, doc := range docs {
		out = append(out, gateway.Record(doc.Data()))
	}
	return out, nil
}

// Update applies changes to every matching document inside one transaction.
// Unique columns are not expected to change after insert.
func (g *Gateway) Update(ctx context.Context, table string, f gateway.Filter, changes gateway.Record) (int64, error) {
	for _, cols := range g.uniques[table] {
		for _, c := range cols {
			if _, touched := changes[c]; touched {
				return 0, fmt.Errorf("firestoregw: updating unique column %s.%s is not supported", table, c)
			}
		}
	}

	var n int64
	err := g.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		n = 0
		docs, err := tx.Documents(g.query(table, gateway.Query{Filter: f})).GetAll()
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if err := tx.Set(doc.Ref, map[string]any(changes), firestore.MergeAll); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// Delete removes matching documents and their unique markers atomically.
func (g *Gateway) Delete(ctx context.Context, table string, f gateway.Filter) (int64, error) {
	var n int64
	err := g.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		n = 0
		docs, err := tx.Documents(g.query(table, gateway.Query{Filter: f})).GetAll()
		if err != nil {
			return err
		}
		for _, doc := range docs {
			for _, key := range g.uniqueKeys(table, doc.Data()) {
				if err := tx.Delete(g.client.Collection(uniqueCollection).Doc(key)); err != nil {
					return err
				}
			}
			if err := tx.Delete(doc.Ref); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

func (g *Gateway) query(table string, q gateway.Query) firestore.Query {
	query := g.client.Collection(table).Query
	for k, v := range q.Filter {
		query = query.Where(k, "==", v)
	}
	for _, o := range q.OrderBy {
		dir := firestore.Asc
		if o.Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(o.Column, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return query
}

// uniqueKeys derives marker ids for every constraint whose columns are all set.
func (g *Gateway) uniqueKeys(table string, rec map[string]any) []string {
	var keys []string
	for _, cols := range g.uniques[table] {
		parts := []string{table}
		complete := true
		for _, c := range cols {
			v, ok := rec[c]
			if !ok || v == nil {
				complete = false
				break
			}
			parts = append(parts, c+"="+fmt.Sprint(v))
		}
		if !complete {
			continue
		}
		sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
		keys = append(keys, hex.EncodeToString(sum[:]))
	}
	return keys
}
