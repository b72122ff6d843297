package managers

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/udovin/gosql"
	"golang.org/x/time/rate"

	"github.com/hackdesk/hackdesk/internal/core"
	"github.com/hackdesk/hackdesk/internal/db"
	"github.com/hackdesk/hackdesk/internal/models"
)

var (
	// ErrInviteCodeInvalid means that code cannot be a valid invite code.
	ErrInviteCodeInvalid = fmt.Errorf("invalid invite code")
	// ErrTooManyAttempts means that account exceeded join attempt limit.
	ErrTooManyAttempts = fmt.Errorf("too many join attempts")
	// ErrTeamNotFound means that there is no team with specified code.
	ErrTeamNotFound = fmt.Errorf("team not found")
	// ErrTeamFull means that team reached maximal amount of members.
	ErrTeamFull = fmt.Errorf("team is full")
	// ErrAlreadyInTeam means that account is already a member of team.
	ErrAlreadyInTeam = fmt.Errorf("already in team")
)

const (
	inviteAttemptWindow = 10 * time.Minute
	inviteAttemptLimit  = 10
)

type TeamManager struct {
	core           *core.Core
	teams          *models.TeamStore
	members        *models.TeamMemberStore
	inviteAttempts *models.InviteAttemptStore
	limiters       map[int64]*rate.Limiter
	mutex          sync.Mutex
}

func NewTeamManager(core *core.Core) *TeamManager {
	return &TeamManager{
		core:           core,
		teams:          core.Teams,
		members:        core.TeamMembers,
		inviteAttempts: core.InviteAttempts,
		limiters:       map[int64]*rate.Limiter{},
	}
}

// CreateTeam creates team with leader member and invite code.
//
// Team object, leader membership and invite code are written in
// a single transaction.
func (m *TeamManager) CreateTeam(
	ctx *HackathonContext, team *models.Team,
) (models.TeamMember, error) {
	account := ctx.Account
	if account == nil {
		return models.TeamMember{}, fmt.Errorf("account is required")
	}
	if ctx.TeamMember != nil {
		return models.TeamMember{}, ErrAlreadyInTeam
	}
	if err := team.GenerateInviteCode(); err != nil {
		return models.TeamMember{}, err
	}
	now := models.GetNow(ctx).Unix()
	team.HackathonID = ctx.Hackathon.ID
	team.CreateTime = now
	member := models.TeamMember{
		AccountID:  account.ID,
		Kind:       models.LeaderMember,
		CreateTime: now,
	}
	if err := m.core.WrapTx(ctx, func(ctx context.Context) error {
		if err := m.teams.Create(ctx, team); err != nil {
			return err
		}
		member.TeamID = team.ID
		return m.members.Create(ctx, &member)
	}, sqlRepeatableRead); err != nil {
		return models.TeamMember{}, err
	}
	return member, nil
}

// ResetInviteCode generates new invite code for team.
func (m *TeamManager) ResetInviteCode(
	ctx context.Context, team models.Team,
) (models.Team, error) {
	if err := (&team).GenerateInviteCode(); err != nil {
		return models.Team{}, err
	}
	if err := m.teams.Update(ctx, team); err != nil {
		return models.Team{}, err
	}
	return team, nil
}

// JoinByCode adds account to team by invite code.
//
// Codes of wrong length are rejected before any store lookup.
// Attempts are rate limited both in process and persistently.
func (m *TeamManager) JoinByCode(
	ctx *HackathonContext, code string, realIP string,
) (models.TeamMember, error) {
	account := ctx.Account
	if account == nil {
		return models.TeamMember{}, fmt.Errorf("account is required")
	}
	if len(code) != models.InviteCodeLength {
		return models.TeamMember{}, ErrInviteCodeInvalid
	}
	if !m.getLimiter(account.ID).Allow() {
		return models.TeamMember{}, ErrTooManyAttempts
	}
	now := models.GetNow(ctx)
	window := now.Add(-inviteAttemptWindow).Unix()
	count, err := m.inviteAttempts.GetCountAttempts(
		ctx, account.ID, window, inviteAttemptLimit+1,
	)
	if err != nil {
		return models.TeamMember{}, err
	}
	if count >= inviteAttemptLimit {
		return models.TeamMember{}, ErrTooManyAttempts
	}
	attempt := models.InviteAttempt{
		AccountID:  account.ID,
		RealIP:     realIP,
		CreateTime: now.Unix(),
	}
	if err := m.inviteAttempts.Create(ctx, &attempt); err != nil {
		return models.TeamMember{}, err
	}
	team, err := m.teams.GetByInviteCode(ctx, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.TeamMember{}, ErrTeamNotFound
		}
		return models.TeamMember{}, err
	}
	if team.HackathonID != ctx.Hackathon.ID {
		return models.TeamMember{}, ErrTeamNotFound
	}
	if ctx.TeamMember != nil {
		return models.TeamMember{}, ErrAlreadyInTeam
	}
	member := models.TeamMember{
		TeamID:     team.ID,
		AccountID:  account.ID,
		Kind:       models.RegularMember,
		CreateTime: now.Unix(),
	}
	maxTeamSize := ctx.HackathonConfig.MaxTeamSize
	if err := m.core.WrapTx(ctx, func(ctx context.Context) error {
		count, err := m.getMemberCount(ctx, team.ID)
		if err != nil {
			return err
		}
		if maxTeamSize > 0 && count >= maxTeamSize {
			return ErrTeamFull
		}
		return m.members.Create(ctx, &member)
	}, sqlRepeatableRead); err != nil {
		return models.TeamMember{}, err
	}
	return member, nil
}

// LeaveTeam removes member from team.
//
// Team without members is deleted together with last member.
func (m *TeamManager) LeaveTeam(
	ctx *HackathonContext, member models.TeamMember,
) error {
	return m.core.WrapTx(ctx, func(ctx context.Context) error {
		count, err := m.getMemberCount(ctx, member.TeamID)
		if err != nil {
			return err
		}
		if err := m.members.Delete(ctx, member.ID); err != nil {
			return err
		}
		if count <= 1 {
			return m.teams.Delete(ctx, member.TeamID)
		}
		return nil
	}, sqlRepeatableRead)
}

// getMemberCount counts members inside current transaction.
func (m *TeamManager) getMemberCount(ctx context.Context, teamID int64) (int, error) {
	memberRows, err := m.members.Find(ctx, db.FindQuery{
		Where: gosql.Column("team_id").Equal(teamID),
	})
	if err != nil {
		return 0, err
	}
	members, err := db.CollectRows(memberRows)
	if err != nil {
		return 0, err
	}
	return len(members), nil
}

func (m *TeamManager) getLimiter(accountID int64) *rate.Limiter {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	limiter, ok := m.limiters[accountID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Second), 3)
		m.limiters[accountID] = limiter
	}
	return limiter
}

var sqlRepeatableRead = gosql.WithIsolation(sql.LevelRepeatableRead)
