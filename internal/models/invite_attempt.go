package models

import (
	"context"

	"github.com/udovin/gosql"

	"github.com/hackdesk/hackdesk/internal/db"
)

// InviteAttempt represents an attempt to join team by invite code.
//
// Attempts are persisted to survive restarts of server, which
// makes brute force of invite codes infeasible.
type InviteAttempt struct {
	baseObject
	// AccountID contains ID of account.
	AccountID int64 `db:"account_id"`
	// RealIP contains real IP of user.
	RealIP string `db:"real_ip"`
	// CreateTime contains time of attempt.
	CreateTime int64 `db:"create_time"`
}

// Clone creates copy of invite attempt.
func (o InviteAttempt) Clone() InviteAttempt {
	return o
}

// InviteAttemptEvent represents an invite attempt event.
type InviteAttemptEvent struct {
	baseEvent
	InviteAttempt
}

// Object returns event invite attempt.
func (e InviteAttemptEvent) Object() InviteAttempt {
	return e.InviteAttempt
}

// SetObject sets event invite attempt.
func (e *InviteAttemptEvent) SetObject(o InviteAttempt) {
	e.InviteAttempt = o
}

// InviteAttemptStore represents store for invite attempts.
type InviteAttemptStore struct {
	baseStore[InviteAttempt, InviteAttemptEvent, *InviteAttempt, *InviteAttemptEvent]
}

// GetCountAttempts returns amount of recent attempts made by account.
//
// Only attempts made after window time are counted.
func (s *InviteAttemptStore) GetCountAttempts(
	ctx context.Context, accountID int64, window int64, limit int,
) (int, error) {
	attempts, err := s.Find(ctx, db.FindQuery{
		Where:   gosql.Column("account_id").Equal(accountID),
		OrderBy: []any{gosql.Descending("id")},
		Limit:   limit,
	})
	if err != nil {
		return 0, err
	}
	defer func() { _ = attempts.Close() }()
	var count int
	for attempts.Next() {
		if attempts.Row().CreateTime >= window {
			count++
		}
	}
	return count, attempts.Err()
}

// NewInviteAttemptStore creates a new instance of InviteAttemptStore.
func NewInviteAttemptStore(
	db *gosql.DB, table, eventTable string,
) *InviteAttemptStore {
	impl := &InviteAttemptStore{}
	impl.baseStore = makeBaseStore[InviteAttempt, InviteAttemptEvent](db, table, eventTable)
	return impl
}
