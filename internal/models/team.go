package models

import (
	"context"
	"crypto/rand"

	"github.com/udovin/gosql"

	"github.com/hackdesk/hackdesk/internal/db"
)

// Team represents a team of hackathon.
type Team struct {
	baseObject
	// HackathonID contains ID of hackathon.
	HackathonID int64 `db:"hackathon_id"`
	// Name contains team name.
	Name string `db:"name"`
	// Description contains team description.
	Description NString `db:"description"`
	// InviteCode contains code used for joining the team.
	InviteCode string `db:"invite_code"`
	// CreateTime contains time when team was created.
	CreateTime int64 `db:"create_time"`
}

// Clone creates copy of team.
func (o Team) Clone() Team {
	return o
}

// InviteCodeLength contains exact length of team invite code.
const InviteCodeLength = 8

const inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateInviteCode generates a new value for team invite code.
func (o *Team) GenerateInviteCode() error {
	bytes := make([]byte, InviteCodeLength)
	if _, err := rand.Read(bytes); err != nil {
		return err
	}
	code := make([]byte, InviteCodeLength)
	for i, b := range bytes {
		code[i] = inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)]
	}
	o.InviteCode = string(code)
	return nil
}

// TeamEvent represents a team event.
type TeamEvent struct {
	baseEvent
	Team
}

// Object returns event team.
func (e TeamEvent) Object() Team {
	return e.Team
}

// SetObject sets event team.
func (e *TeamEvent) SetObject(o Team) {
	e.Team = o
}

// TeamStore represents store for teams.
type TeamStore struct {
	cachedStore[Team, TeamEvent, *Team, *TeamEvent]
	byHackathon  *btreeIndex[int64, Team, *Team]
	byInviteCode *btreeIndex[string, Team, *Team]
}

// FindByHackathon returns teams by hackathon ID.
func (s *TeamStore) FindByHackathon(ctx context.Context, hackathonID ...int64) (db.Rows[Team], error) {
	s.mutex.RLock()
	return btreeIndexFind(
		s.byHackathon,
		s.objects.Iter(),
		s.mutex.RLocker(),
		hackathonID,
		0,
	), nil
}

// GetByInviteCode returns team by invite code.
//
// If there is no team with specified code then sql.ErrNoRows
// will be returned.
func (s *TeamStore) GetByInviteCode(ctx context.Context, code string) (Team, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return btreeIndexGet(s.byInviteCode, s.objects.Iter(), code)
}

// NewTeamStore creates a new instance of TeamStore.
func NewTeamStore(
	db *gosql.DB, table, eventTable string,
) *TeamStore {
	impl := &TeamStore{
		byHackathon: newBTreeIndex(func(o Team) (int64, bool) { return o.HackathonID, true }, lessInt64),
		byInviteCode: newBTreeIndex(func(o Team) (string, bool) {
			return o.InviteCode, len(o.InviteCode) > 0
		}, lessString),
	}
	impl.cachedStore = makeCachedStore[Team, TeamEvent](
		db, table, eventTable, impl, impl.byHackathon, impl.byInviteCode,
	)
	return impl
}
