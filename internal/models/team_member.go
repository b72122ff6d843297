package models

import (
	"context"
	"fmt"

	"github.com/udovin/gosql"

	"github.com/hackdesk/hackdesk/internal/db"
)

// MemberKind represents kind of team member.
type MemberKind int

const (
	// LeaderMember represents team leader.
	LeaderMember MemberKind = 1
	// RegularMember represents regular team member.
	RegularMember MemberKind = 2
)

// String returns string representation.
func (k MemberKind) String() string {
	switch k {
	case LeaderMember:
		return "leader"
	case RegularMember:
		return "regular"
	default:
		return fmt.Sprintf("MemberKind(%d)", k)
	}
}

func (k MemberKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MemberKind) UnmarshalText(data []byte) error {
	switch s := string(data); s {
	case "leader":
		*k = LeaderMember
	case "regular":
		*k = RegularMember
	default:
		return fmt.Errorf("unsupported kind: %q", s)
	}
	return nil
}

// TeamMember represents a member of team.
type TeamMember struct {
	baseObject
	// TeamID contains ID of team.
	TeamID int64 `db:"team_id"`
	// AccountID contains ID of account.
	AccountID int64 `db:"account_id"`
	// Kind contains kind of member.
	Kind MemberKind `db:"kind"`
	// CreateTime contains time when member joined the team.
	CreateTime int64 `db:"create_time"`
}

// Clone creates copy of team member.
func (o TeamMember) Clone() TeamMember {
	return o
}

// TeamMemberEvent represents a team member event.
type TeamMemberEvent struct {
	baseEvent
	TeamMember
}

// Object returns event team member.
func (e TeamMemberEvent) Object() TeamMember {
	return e.TeamMember
}

// SetObject sets event team member.
func (e *TeamMemberEvent) SetObject(o TeamMember) {
	e.TeamMember = o
}

// TeamMemberStore represents store for team members.
type TeamMemberStore struct {
	cachedStore[TeamMember, TeamMemberEvent, *TeamMember, *TeamMemberEvent]
	byTeam    *btreeIndex[int64, TeamMember, *TeamMember]
	byAccount *btreeIndex[int64, TeamMember, *TeamMember]
}

// FindByTeam returns members by team ID.
func (s *TeamMemberStore) FindByTeam(ctx context.Context, teamID ...int64) (db.Rows[TeamMember], error) {
	s.mutex.RLock()
	return btreeIndexFind(
		s.byTeam,
		s.objects.Iter(),
		s.mutex.RLocker(),
		teamID,
		0,
	), nil
}

// FindByAccount returns members by account ID.
func (s *TeamMemberStore) FindByAccount(ctx context.Context, accountID ...int64) (db.Rows[TeamMember], error) {
	s.mutex.RLock()
	return btreeIndexFind(
		s.byAccount,
		s.objects.Iter(),
		s.mutex.RLocker(),
		accountID,
		0,
	), nil
}

// NewTeamMemberStore creates a new instance of TeamMemberStore.
func NewTeamMemberStore(
	db *gosql.DB, table, eventTable string,
) *TeamMemberStore {
	impl := &TeamMemberStore{
		byTeam:    newBTreeIndex(func(o TeamMember) (int64, bool) { return o.TeamID, true }, lessInt64),
		byAccount: newBTreeIndex(func(o TeamMember) (int64, bool) { return o.AccountID, true }, lessInt64),
	}
	impl.cachedStore = makeCachedStore[TeamMember, TeamMemberEvent](
		db, table, eventTable, impl, impl.byTeam, impl.byAccount,
	)
	return impl
}
