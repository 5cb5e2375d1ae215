// Package docstore is a small document-store abstraction: named collections of JSON/BSON documents
// addressed by filter. Two drivers exist: SQLite (JSON1 documents, used for local runs and tests) and
// MongoDB. Every document carries a string "_id" and a "createdAt" timestamp; listings come back
// newest first.
package docstore

import (
	"context"
	"errors"
	"regexp"
)

var (
	ErrNotFound  = errors.New("docstore: document not found")
	ErrDuplicate = errors.New("docstore: duplicate key")
)

type Op int

const (
	OpEq Op = iota
	OpNe
)

type Cond struct {
	Field string
	Op    Op
	Value any
}

func Eq(field string, v any) Cond { return Cond{Field: field, Op: OpEq, Value: v} }
func Ne(field string, v any) Cond { return Cond{Field: field, Op: OpNe, Value: v} }

// Filter is a conjunction of conditions. An empty filter matches every document.
type Filter []Cond

func Where(conds ...Cond) Filter { return Filter(conds) }

func ByID(id string) Filter { return Filter{Eq("_id", id)} }

// Fields is a set of top-level fields to overwrite.
type Fields map[string]any

type Collection interface {
	// Insert stores doc, which must encode an "_id" string. ErrDuplicate on key clashes.
	Insert(ctx context.Context, doc any) error
	// FindOne decodes the oldest match into out, or returns ErrNotFound.
	FindOne(ctx context.Context, f Filter, out any) error
	// Find decodes every match, newest first, into out (a pointer to a slice).
	Find(ctx context.Context, f Filter, out any) error
	// UpdateOne sets fields on the oldest match and reports how many documents matched (0 or 1).
	UpdateOne(ctx context.Context, f Filter, set Fields) (int64, error)
	UpdateMany(ctx context.Context, f Filter, set Fields) (int64, error)
	// DeleteOne removes the oldest match and reports how many documents were removed.
	DeleteOne(ctx context.Context, f Filter) (int64, error)
	Count(ctx context.Context, f Filter) (int64, error)
}

type Store interface {
	Collection(name string) Collection
	// EnsureUnique makes field unique within collection.
	EnsureUnique(ctx context.Context, collection, field string) error
	Ping(ctx context.Context) error
	Close() error
}

var reName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

func validName(s string) bool { return reName.MatchString(s) }

func checkFilter(f Filter) error {
	for _, c := range f {
		if !validName(c.Field) {
			return errors.New("docstore: invalid field name " + c.Field)
		}
	}
	return nil
}

func checkFields(set Fields) error {
	if len(set) == 0 {
		return errors.New("docstore: empty update")
	}
	for k := range set {
		if !validName(k) || k == "_id" {
			return errors.New("docstore: invalid update field " + k)
		}
	}
	return nil
}
