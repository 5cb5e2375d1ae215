package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps every collection in one table of JSON documents and filters with JSON1.
type SQLiteStore struct {
	DB *sqlx.DB
}

func OpenSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite has a single writer, and every ":memory:" connection is its own database.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{DB: db}, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS documents(
  seq        INTEGER PRIMARY KEY AUTOINCREMENT,
  collection TEXT NOT NULL,
  id         TEXT NOT NULL,
  body       TEXT NOT NULL CHECK (json_valid(body)),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_id ON documents(collection, id);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, seq);
`
	_, err := db.Exec(schema)
	return err
}

func (s *SQLiteStore) Collection(name string) Collection {
	return &sqliteCollection{db: s.DB, name: name}
}

func (s *SQLiteStore) EnsureUnique(ctx context.Context, collection, field string) error {
	if !validName(collection) || !validName(field) {
		return errors.Errorf("docstore: invalid unique index %s.%s", collection, field)
	}
	if field == "_id" {
		return nil
	}
	// Partial-index predicates must be literals; both names are validated above.
	stmt := fmt.Sprintf(
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_%s_%s ON documents(json_extract(body, '$.%s')) WHERE collection = '%s'`,
		collection, field, field, collection)
	_, err := s.DB.ExecContext(ctx, stmt)
	return mapSQLiteErr(err)
}

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *SQLiteStore) Close() error { return s.DB.Close() }

type sqliteCollection struct {
	db   *sqlx.DB
	name string
}

func mapSQLiteErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return errors.WithMessage(ErrDuplicate, err.Error())
	}
	return err
}

// where builds the predicate for f. Values are compared as JSON so booleans, numbers and
// strings keep their types: json_extract('true','$') is 1, same as a stored true.
func (c *sqliteCollection) where(f Filter) (string, []any, error) {
	if err := checkFilter(f); err != nil {
		return "", nil, err
	}
	var b strings.Builder
	b.WriteString(`collection = ?`)
	args := []any{c.name}
	for _, cond := range f {
		op := " IS "
		if cond.Op == OpNe {
			op = " IS NOT "
		}
		if id, ok := cond.Value.(string); ok && cond.Field == "_id" {
			b.WriteString(` AND id` + op + `?`)
			args = append(args, id)
			continue
		}
		raw, err := json.Marshal(cond.Value)
		if err != nil {
			return "", nil, errors.Wrapf(err, "docstore: encode filter value for %s", cond.Field)
		}
		b.WriteString(` AND json_extract(body, ?)` + op + `json_extract(?, '$')`)
		args = append(args, "$."+cond.Field, string(raw))
	}
	return b.String(), args, nil
}

func (c *sqliteCollection) Insert(ctx context.Context, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "docstore: encode document")
	}
	var head struct {
		ID any `json:"_id"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return errors.Wrap(err, "docstore: document must be an object")
	}
	id, ok := head.ID.(string)
	if !ok || id == "" {
		return errors.New("docstore: document has no string _id")
	}
	_, err = c.db.ExecContext(ctx, `
	  INSERT INTO documents(collection, id, body, created_at)
	  VALUES(?, ?, ?, CURRENT_TIMESTAMP)
	`, c.name, id, string(body))
	return mapSQLiteErr(err)
}

func (c *sqliteCollection) FindOne(ctx context.Context, f Filter, out any) error {
	where, args, err := c.where(f)
	if err != nil {
		return err
	}
	var body string
	if err := c.db.GetContext(ctx, &body, `SELECT body FROM documents WHERE `+where+` ORDER BY seq LIMIT 1`, args...); err != nil {
		return mapSQLiteErr(err)
	}
	return errors.Wrap(json.Unmarshal([]byte(body), out), "docstore: decode document")
}

func (c *sqliteCollection) Find(ctx context.Context, f Filter, out any) error {
	where, args, err := c.where(f)
	if err != nil {
		return err
	}
	var bodies []string
	if err := c.db.SelectContext(ctx, &bodies, `SELECT body FROM documents WHERE `+where+` ORDER BY seq DESC`, args...); err != nil {
		return mapSQLiteErr(err)
	}
	arr := "[" + strings.Join(bodies, ",") + "]"
	return errors.Wrap(json.Unmarshal([]byte(arr), out), "docstore: decode documents")
}

// setExpr renders json_set(body, path, json(value), ...) with a stable key order.
func setExpr(set Fields) (string, []any, error) {
	if err := checkFields(set); err != nil {
		return "", nil, err
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(`json_set(body`)
	args := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		raw, err := json.Marshal(set[k])
		if err != nil {
			return "", nil, errors.Wrapf(err, "docstore: encode update value for %s", k)
		}
		b.WriteString(`, ?, json(?)`)
		args = append(args, "$."+k, string(raw))
	}
	b.WriteString(`)`)
	return b.String(), args, nil
}

func (c *sqliteCollection) update(ctx context.Context, f Filter, set Fields, one bool) (int64, error) {
	expr, setArgs, err := setExpr(set)
	if err != nil {
		return 0, err
	}
	where, whereArgs, err := c.where(f)
	if err != nil {
		return 0, err
	}
	target := where
	if one {
		target = `seq = (SELECT seq FROM documents WHERE ` + where + ` ORDER BY seq LIMIT 1)`
	}
	res, err := c.db.ExecContext(ctx,
		`UPDATE documents SET body = `+expr+`, updated_at = CURRENT_TIMESTAMP WHERE `+target,
		append(setArgs, whereArgs...)...)
	if err != nil {
		return 0, mapSQLiteErr(err)
	}
	return res.RowsAffected()
}

func (c *sqliteCollection) UpdateOne(ctx context.Context, f Filter, set Fields) (int64, error) {
	return c.update(ctx, f, set, true)
}

func (c *sqliteCollection) UpdateMany(ctx context.Context, f Filter, set Fields) (int64, error) {
	return c.update(ctx, f, set, false)
}

func (c *sqliteCollection) DeleteOne(ctx context.Context, f Filter) (int64, error) {
	where, args, err := c.where(f)
	if err != nil {
		return 0, err
	}
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM documents WHERE seq = (SELECT seq FROM documents WHERE `+where+` ORDER BY seq LIMIT 1)`, args...)
	if err != nil {
		return 0, mapSQLiteErr(err)
	}
	return res.RowsAffected()
}

func (c *sqliteCollection) Count(ctx context.Context, f Filter) (int64, error) {
	where, args, err := c.where(f)
	if err != nil {
		return 0, err
	}
	var n int64
	err = c.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM documents WHERE `+where, args...)
	return n, mapSQLiteErr(err)
}
