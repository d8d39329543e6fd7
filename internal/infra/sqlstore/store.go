package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aalvaropc/tether/internal/domain"
)

// Record is an entity with the secondary columns the table indexes.
type Record interface {
	EntityID() string
	IndexName() string
	IndexKind() string
}

var tableName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Store is a Repository over one table: id, name, kind, doc, updated_at.
type Store[T Record] struct {
	db    *sql.DB
	table string
}

type Option func(*options)

type options struct {
	uniqueName bool
}

// WithUniqueName makes the name column unique. Saving a second entity with
// the same name fails with domain.KindAlreadyExists.
func WithUniqueName() Option {
	return func(o *options) { o.uniqueName = true }
}

// New creates the table if needed. The caller owns db.
func New[T Record](ctx context.Context, db *sql.DB, table string, opts ...Option) (*Store[T], error) {
	if !tableName.MatchString(table) {
		return nil, &domain.OpError{Op: "sqlstore.new", Kind: domain.KindInvalidConfig, Path: table, Err: errors.New("invalid table name")}
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	unique := ""
	if o.uniqueName {
		unique = "UNIQUE "
	}
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		doc TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE %[2]sINDEX IF NOT EXISTS idx_%[1]s_name ON %[1]s(name);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_kind ON %[1]s(kind);
	`, table, unique)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, dbError("sqlstore.migrate", table, err)
	}
	return &Store[T]{db: db, table: table}, nil
}

func (s *Store[T]) Save(ctx context.Context, v T) (T, error) {
	var zero T
	id := v.EntityID()
	if strings.TrimSpace(id) == "" {
		return zero, &domain.OpError{Op: "sqlstore.save", Kind: domain.KindValidation, Err: errors.New("entity id is empty")}
	}

	doc, err := json.Marshal(v)
	if err != nil {
		return zero, &domain.OpError{Op: "sqlstore.save", Kind: domain.KindProcessing, Path: id, Err: err}
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (id, name, kind, doc, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		kind = excluded.kind,
		doc = excluded.doc,
		updated_at = excluded.updated_at
	`, s.table)

	_, err = s.db.ExecContext(ctx, query, id, v.IndexName(), v.IndexKind(), string(doc), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return zero, dbError("sqlstore.save", id, err)
	}
	return decode[T](doc)
}

func (s *Store[T]) FindByID(ctx context.Context, id string) (T, bool, error) {
	var zero T
	var doc string
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE id = ?`, s.table), id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, dbError("sqlstore.find", id, err)
	}

	v, err := decode[T]([]byte(doc))
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (s *Store[T]) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.table), id)
	if err != nil {
		return false, dbError("sqlstore.delete", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, dbError("sqlstore.delete", id, err)
	}
	return n > 0, nil
}

// FindAll returns every row ordered by id.
func (s *Store[T]) FindAll(ctx context.Context) ([]T, error) {
	return s.query(ctx, "sqlstore.findall", fmt.Sprintf(`SELECT doc FROM %s ORDER BY id`, s.table))
}

// FindByKind uses the kind index, e.g. resources of one type or users of one role.
func (s *Store[T]) FindByKind(ctx context.Context, kind string) ([]T, error) {
	return s.query(ctx, "sqlstore.findbykind", fmt.Sprintf(`SELECT doc FROM %s WHERE kind = ? ORDER BY id`, s.table), kind)
}

func (s *Store[T]) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&n); err != nil {
		return 0, dbError("sqlstore.count", "", err)
	}
	return n, nil
}

func (s *Store[T]) query(ctx context.Context, op, query string, args ...any) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(op, "", err)
	}
	defer func() { _ = rows.Close() }()

	var out []T
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, dbError(op, "", err)
		}
		v, err := decode[T]([]byte(doc))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(op, "", err)
	}
	return out, nil
}

func decode[T any](doc []byte) (T, error) {
	var v T
	if err := json.Unmarshal(doc, &v); err != nil {
		return v, &domain.OpError{Op: "sqlstore.decode", Kind: domain.KindProcessing, Err: err}
	}
	return v, nil
}

// dbError classifies driver errors. modernc reports constraint failures in
// the message text.
func dbError(op, path string, err error) error {
	kind := domain.KindDatabase
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		kind = domain.KindAlreadyExists
	}
	return &domain.OpError{Op: op, Kind: kind, Path: path, Err: err}
}
