package models

import (
	"context"

	"github.com/udovin/gosql"

	"github.com/hackdesk/hackdesk/internal/db"
)

// Judge represents a judge of hackathon.
type Judge struct {
	baseObject
	// HackathonID contains ID of hackathon.
	HackathonID int64 `db:"hackathon_id"`
	// AccountID contains ID of account.
	AccountID int64 `db:"account_id"`
	// CreateTime contains time when judge was assigned.
	CreateTime int64 `db:"create_time"`
}

// Clone creates copy of judge.
func (o Judge) Clone() Judge {
	return o
}

// JudgeEvent represents a judge event.
type JudgeEvent struct {
	baseEvent
	Judge
}

// Object returns event judge.
func (e JudgeEvent) Object() Judge {
	return e.Judge
}

// SetObject sets event judge.
func (e *JudgeEvent) SetObject(o Judge) {
	e.Judge = o
}

// JudgeStore represents store for judges.
type JudgeStore struct {
	cachedStore[Judge, JudgeEvent, *Judge, *JudgeEvent]
	byHackathon        *btreeIndex[int64, Judge, *Judge]
	byHackathonAccount *btreeIndex[pair[int64, int64], Judge, *Judge]
}

// FindByHackathon returns judges by hackathon ID.
func (s *JudgeStore) FindByHackathon(ctx context.Context, hackathonID ...int64) (db.Rows[Judge], error) {
	s.mutex.RLock()
	return btreeIndexFind(
		s.byHackathon,
		s.objects.Iter(),
		s.mutex.RLocker(),
		hackathonID,
		0,
	), nil
}

// GetByHackathonAccount returns judge by hackathon and account.
//
// If account is not a judge of hackathon then sql.ErrNoRows
// will be returned.
func (s *JudgeStore) GetByHackathonAccount(
	ctx context.Context, hackathonID int64, accountID int64,
) (Judge, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return btreeIndexGet(
		s.byHackathonAccount, s.objects.Iter(), makePair(hackathonID, accountID),
	)
}

// NewJudgeStore creates a new instance of JudgeStore.
func NewJudgeStore(
	db *gosql.DB, table, eventTable string,
) *JudgeStore {
	impl := &JudgeStore{
		byHackathon: newBTreeIndex(func(o Judge) (int64, bool) { return o.HackathonID, true }, lessInt64),
		byHackathonAccount: newBTreeIndex(func(o Judge) (pair[int64, int64], bool) {
			return makePair(o.HackathonID, o.AccountID), true
		}, lessPairInt64),
	}
	impl.cachedStore = makeCachedStore[Judge, JudgeEvent](
		db, table, eventTable, impl, impl.byHackathon, impl.byHackathonAccount,
	)
	return impl
}
