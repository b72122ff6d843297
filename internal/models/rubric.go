package models

import (
	"context"

	"github.com/udovin/gosql"

	"github.com/hackdesk/hackdesk/internal/db"
)

// Rubric represents a judging criterion of hackathon.
type Rubric struct {
	baseObject
	// HackathonID contains ID of hackathon.
	HackathonID int64 `db:"hackathon_id"`
	// Title contains human readable name of criterion.
	Title string `db:"title"`
	// Weight contains multiplier applied to criterion score.
	Weight float64 `db:"weight"`
	// MaxScore contains maximal allowed score value.
	MaxScore float64 `db:"max_score"`
}

// Clone creates copy of rubric.
func (o Rubric) Clone() Rubric {
	return o
}

// RubricEvent represents a rubric event.
type RubricEvent struct {
	baseEvent
	Rubric
}

// Object returns event rubric.
func (e RubricEvent) Object() Rubric {
	return e.Rubric
}

// SetObject sets event rubric.
func (e *RubricEvent) SetObject(o Rubric) {
	e.Rubric = o
}

// RubricStore represents store for rubrics.
type RubricStore struct {
	cachedStore[Rubric, RubricEvent, *Rubric, *RubricEvent]
	byHackathon *btreeIndex[int64, Rubric, *Rubric]
}

// FindByHackathon returns rubrics by hackathon ID.
func (s *RubricStore) FindByHackathon(ctx context.Context, hackathonID ...int64) (db.Rows[Rubric], error) {
	s.mutex.RLock()
	return btreeIndexFind(
		s.byHackathon,
		s.objects.Iter(),
		s.mutex.RLocker(),
		hackathonID,
		0,
	), nil
}

// NewRubricStore creates a new instance of RubricStore.
func NewRubricStore(
	db *gosql.DB, table, eventTable string,
) *RubricStore {
	impl := &RubricStore{
		byHackathon: newBTreeIndex(func(o Rubric) (int64, bool) { return o.HackathonID, true }, lessInt64),
	}
	impl.cachedStore = makeCachedStore[Rubric, RubricEvent](
		db, table, eventTable, impl, impl.byHackathon,
	)
	return impl
}
