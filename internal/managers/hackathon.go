package managers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hackdesk/hackdesk/internal/core"
	"github.com/hackdesk/hackdesk/internal/db"
	"github.com/hackdesk/hackdesk/internal/models"
	"github.com/hackdesk/hackdesk/internal/perms"
)

type HackathonManager struct {
	hackathons   *models.HackathonStore
	judges       *models.JudgeStore
	rubrics      *models.RubricStore
	applications *models.ApplicationStore
	teamMembers  *models.TeamMemberStore
	teams        *models.TeamStore
	settings     *models.SettingStore
}

func NewHackathonManager(core *core.Core) *HackathonManager {
	return &HackathonManager{
		hackathons:   core.Hackathons,
		judges:       core.Judges,
		rubrics:      core.Rubrics,
		applications: core.Applications,
		teamMembers:  core.TeamMembers,
		teams:        core.Teams,
		settings:     core.Settings,
	}
}

func addHackathonManagerPermissions(permissions perms.PermissionSet) {
	permissions.AddPermission(
		perms.ObserveHackathonRole,
		perms.UpdateHackathonRole,
		perms.ObserveRubricsRole,
		perms.ObserveRubricRole,
		perms.CreateRubricRole,
		perms.UpdateRubricRole,
		perms.DeleteRubricRole,
		perms.ObserveJudgesRole,
		perms.CreateJudgeRole,
		perms.DeleteJudgeRole,
		perms.ObserveTeamsRole,
		perms.ObserveTeamRole,
		perms.ObserveTeamInviteCodeRole,
		perms.DeleteTeamMemberRole,
		perms.ObserveApplicationsRole,
		perms.ObserveApplicationRole,
		perms.ReviewApplicationRole,
		perms.ObserveScoresRole,
		perms.ObserveScoreRole,
		perms.UpdateScoreRole,
		perms.DeleteScoreRole,
		perms.ObserveProjectsRole,
		perms.ObserveProjectRole,
		perms.ObserveLeaderboardRole,
		perms.ObserveFullLeaderboardRole,
		perms.ObserveGalleryRole,
	)
}

func addHackathonJudgePermissions(
	permissions perms.PermissionSet, stage HackathonStage, config models.HackathonConfig,
) {
	permissions.AddPermission(
		perms.ObserveHackathonRole,
		perms.ObserveRubricsRole,
		perms.ObserveRubricRole,
		perms.ObserveTeamsRole,
		perms.ObserveTeamRole,
		perms.ObserveProjectsRole,
		perms.ObserveProjectRole,
		perms.ObserveScoresRole,
		perms.ObserveScoreRole,
		perms.ObserveLeaderboardRole,
		perms.ObserveFullLeaderboardRole,
	)
	if config.JudgingOpen {
		permissions.AddPermission(
			perms.CreateScoreRole,
			perms.UpdateScoreRole,
		)
	}
}

func addHackathonParticipantPermissions(
	permissions perms.PermissionSet, stage HackathonStage, config models.HackathonConfig,
) {
	permissions.AddPermission(
		perms.ObserveHackathonRole,
		perms.ObserveTeamRole,
		perms.ObserveApplicationRole,
	)
	switch stage {
	case HackathonNotStarted, HackathonStarted:
		permissions.AddPermission(
			perms.CreateTeamRole,
			perms.JoinTeamRole,
			perms.LeaveTeamRole,
			perms.UpdateTeamRole,
			perms.ResetTeamInviteCodeRole,
		)
	}
	if stage == HackathonStarted {
		permissions.AddPermission(
			perms.CreateProjectRole,
			perms.UpdateProjectRole,
			perms.SubmitProjectRole,
			perms.ObserveProjectRole,
		)
	}
}

func (m *HackathonManager) BuildContext(ctx *AccountContext, hackathon models.Hackathon) (*HackathonContext, error) {
	config, err := hackathon.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("unable to build hackathon context: %w", err)
	}
	c := HackathonContext{
		AccountContext:  ctx,
		Hackathon:       hackathon,
		HackathonConfig: config,
		Permissions:     ctx.Permissions.Clone(),
		Stage:           HackathonNotPlanned,
		Now:             models.GetNow(ctx),
	}
	now := c.Now.Unix()
	if config.BeginTime != 0 {
		c.Stage = HackathonNotStarted
		if now >= int64(config.BeginTime) {
			c.Stage = HackathonStarted
		}
		if config.EndTime != 0 && now >= int64(config.EndTime) {
			c.Stage = HackathonFinished
		}
	}
	if config.GalleryOpen {
		c.Permissions.AddPermission(
			perms.ObserveGalleryRole,
			perms.ObserveLeaderboardRole,
		)
	}
	if account := ctx.Account; account != nil {
		if hackathon.OwnerID != 0 && account.ID == int64(hackathon.OwnerID) {
			c.Permissions.AddPermission(perms.DeleteHackathonRole)
			addHackathonManagerPermissions(c.Permissions)
		}
		if judge, err := m.judges.GetByHackathonAccount(ctx, hackathon.ID, account.ID); err == nil {
			c.Judge = &judge
			addHackathonJudgePermissions(c.Permissions, c.Stage, config)
		} else if err != sql.ErrNoRows {
			return nil, fmt.Errorf("unable to build hackathon context: %w", err)
		}
		if application, err := m.applications.GetByHackathonAccount(ctx, hackathon.ID, account.ID); err == nil {
			c.Application = &application
			if application.Status == models.AcceptedApplication {
				addHackathonParticipantPermissions(c.Permissions, c.Stage, config)
			}
		} else if err != sql.ErrNoRows {
			return nil, fmt.Errorf("unable to build hackathon context: %w", err)
		}
		if member, err := m.getTeamMember(ctx, hackathon.ID, account.ID); err == nil {
			c.TeamMember = &member
		} else if err != sql.ErrNoRows {
			return nil, fmt.Errorf("unable to build hackathon context: %w", err)
		}
		// User can possibly apply for hackathon.
		if c.Application == nil &&
			m.registrationOpen(config, now) &&
			ctx.HasPermission(perms.CreateApplicationRole) {
			c.Permissions.AddPermission(perms.ObserveHackathonRole)
		}
	}
	return &c, nil
}

func (m *HackathonManager) registrationOpen(config models.HackathonConfig, now int64) bool {
	if config.RegistrationBeginTime != 0 && now < int64(config.RegistrationBeginTime) {
		return false
	}
	if config.RegistrationEndTime != 0 && now >= int64(config.RegistrationEndTime) {
		return false
	}
	return true
}

// RegistrationOpen reports that registration window contains given time.
func (c *HackathonContext) RegistrationOpen() bool {
	config := c.HackathonConfig
	now := c.Now.Unix()
	if config.RegistrationBeginTime != 0 && now < int64(config.RegistrationBeginTime) {
		return false
	}
	if config.RegistrationEndTime != 0 && now >= int64(config.RegistrationEndTime) {
		return false
	}
	return true
}

func (m *HackathonManager) getTeamMember(
	ctx context.Context, hackathonID int64, accountID int64,
) (models.TeamMember, error) {
	memberRows, err := m.teamMembers.FindByAccount(ctx, accountID)
	if err != nil {
		return models.TeamMember{}, err
	}
	members, err := db.CollectRows(memberRows)
	if err != nil {
		return models.TeamMember{}, err
	}
	for _, member := range members {
		team, err := m.teams.Get(ctx, member.TeamID)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return models.TeamMember{}, err
		}
		if team.HackathonID == hackathonID {
			return member, nil
		}
	}
	return models.TeamMember{}, sql.ErrNoRows
}

type HackathonStage int

const (
	HackathonNotPlanned HackathonStage = iota
	HackathonNotStarted
	HackathonStarted
	HackathonFinished
)

type HackathonContext struct {
	*AccountContext
	Hackathon       models.Hackathon
	HackathonConfig models.HackathonConfig
	Judge           *models.Judge
	Application     *models.Application
	TeamMember      *models.TeamMember
	Permissions     perms.PermissionSet
	Stage           HackathonStage
	Now             time.Time
}

func (c *HackathonContext) HasPermission(name string) bool {
	return c.Permissions.HasPermission(name)
}

var (
	_ context.Context   = (*HackathonContext)(nil)
	_ perms.Permissions = (*HackathonContext)(nil)
)
