package db

import (
	"context"

	"github.com/udovin/gosql"
)

// Object represents an object from store.
type Object interface {
	// ObjectID should return sequential ID of object.
	ObjectID() int64
}

// ObjectPtr represents mutable pointer to object.
type ObjectPtr[T any] interface {
	*T
	Object
	// SetObjectID should update sequential ID of object.
	SetObjectID(int64)
}

// FindObjectsOption represents option for FindObjects.
type FindObjectsOption interface {
	applyFindObjects(*FindQuery)
}

// FindQuery represents query for FindObjects.
type FindQuery struct {
	// Where contains filter expression.
	Where gosql.BoolExpr
	// OrderBy contains columns for sorting.
	OrderBy []any
	// Limit contains maximal amount of returned rows.
	Limit int
}

func (q FindQuery) applyFindObjects(to *FindQuery) {
	if q.Where != nil {
		to.Where = q.Where
	}
	if q.OrderBy != nil {
		to.OrderBy = q.OrderBy
	}
	if q.Limit != 0 {
		to.Limit = q.Limit
	}
}

type limitOption int

func (o limitOption) applyFindObjects(q *FindQuery) {
	q.Limit = int(o)
}

// WithLimit limits amount of returned rows.
func WithLimit(limit int) FindObjectsOption {
	return limitOption(limit)
}

// ObjectROStore represents read-only store for objects.
type ObjectROStore[T any] interface {
	// LoadObjects should load all objects from store.
	LoadObjects(ctx context.Context) (Rows[T], error)
	// FindObjects should find objects with specified query.
	FindObjects(ctx context.Context, options ...FindObjectsOption) (Rows[T], error)
}

// ObjectStore represents persistent store for objects.
type ObjectStore[T any, TPtr ObjectPtr[T]] interface {
	ObjectROStore[T]
	// CreateObject should create a new object and update its ID.
	CreateObject(ctx context.Context, object TPtr) error
	// UpdateObject should update object with ID.
	UpdateObject(ctx context.Context, object TPtr) error
	// DeleteObject should delete existing object from the store.
	DeleteObject(ctx context.Context, id int64) error
}

type objectStore[T any, TPtr ObjectPtr[T]] struct {
	db      *gosql.DB
	id      string
	table   string
	columns []string
}

func (s *objectStore[T, TPtr]) LoadObjects(ctx context.Context) (Rows[T], error) {
	builder := s.db.Select(s.table)
	builder.SetNames(s.columns...)
	builder.SetOrderBy(gosql.Ascending(s.id))
	query, values := s.db.Build(builder)
	rows, err := GetRunner(ctx, s.db).QueryContext(ctx, query, values...)
	if err != nil {
		return nil, err
	}
	if err := checkColumns(rows, s.columns); err != nil {
		_ = rows.Close()
		return nil, err
	}
	return newRowReader[T](rows), nil
}

func (s *objectStore[T, TPtr]) FindObjects(
	ctx context.Context, options ...FindObjectsOption,
) (Rows[T], error) {
	var query FindQuery
	for _, option := range options {
		option.applyFindObjects(&query)
	}
	builder := s.db.Select(s.table)
	builder.SetNames(s.columns...)
	if query.Where != nil {
		builder.SetWhere(query.Where)
	}
	if query.OrderBy != nil {
		builder.SetOrderBy(query.OrderBy...)
	}
	rawQuery, values := s.db.Build(builder)
	rows, err := GetRunner(ctx, s.db).QueryContext(ctx, rawQuery, values...)
	if err != nil {
		return nil, err
	}
	if err := checkColumns(rows, s.columns); err != nil {
		_ = rows.Close()
		return nil, err
	}
	var reader Rows[T] = newRowReader[T](rows)
	if query.Limit > 0 {
		reader = &limitRows[T]{Rows: reader, limit: query.Limit}
	}
	return reader, nil
}

func (s *objectStore[T, TPtr]) CreateObject(ctx context.Context, object TPtr) error {
	var id int64
	if err := insertRow(ctx, s.db, *object, &id, s.id, s.table); err != nil {
		return err
	}
	object.SetObjectID(id)
	return nil
}

func (s *objectStore[T, TPtr]) UpdateObject(ctx context.Context, object TPtr) error {
	return updateRow(ctx, s.db, *object, object.ObjectID(), s.id, s.table)
}

func (s *objectStore[T, TPtr]) DeleteObject(ctx context.Context, id int64) error {
	return deleteRow(ctx, s.db, id, s.id, s.table)
}

// NewObjectStore creates a new store for objects of specified type.
func NewObjectStore[T any, TPtr ObjectPtr[T]](
	id, table string, db *gosql.DB,
) ObjectStore[T, TPtr] {
	return &objectStore[T, TPtr]{
		db:      db,
		id:      id,
		table:   table,
		columns: getColumns[T](),
	}
}
