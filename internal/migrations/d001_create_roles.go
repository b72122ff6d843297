package migrations

import (
	"context"

	"github.com/udovin/gosql"

	"github.com/hackdesk/hackdesk/internal/models"
	"github.com/hackdesk/hackdesk/internal/perms"
)

func init() {
	Data.AddMigration("001_create_roles", d001{})
}

type d001 struct{}

func (m d001) Apply(ctx context.Context, db *gosql.DB) error {
	roleStore := models.NewRoleStore(db, "hackdesk_role", "hackdesk_role_event")
	roleEdgeStore := models.NewRoleEdgeStore(db, "hackdesk_role_edge", "hackdesk_role_edge_event")
	roles := map[string]int64{}
	create := func(name string) error {
		role := models.Role{Name: name}
		if err := roleStore.Create(ctx, &role); err != nil {
			return err
		}
		roles[role.Name] = role.ID
		return nil
	}
	join := func(child, parent string) error {
		edge := models.RoleEdge{
			RoleID:  roles[parent],
			ChildID: roles[child],
		}
		return roleEdgeStore.Create(ctx, &edge)
	}
	allRoles := perms.GetBuiltInRoles()
	allGroups := []string{
		"guest_group",
		"pending_user_group",
		"active_user_group",
		"blocked_user_group",
		"judge_group",
		"organizer_group",
		"admin_group",
	}
	for _, role := range allRoles {
		if err := create(role); err != nil {
			return err
		}
	}
	for _, role := range allGroups {
		if err := create(role); err != nil {
			return err
		}
	}
	for _, role := range []string{
		perms.LoginRole,
		perms.RegisterRole,
		perms.StatusRole,
		perms.ObserveUserRole,
		perms.ObserveHackathonsRole,
		perms.ObserveGalleryRole,
		perms.ObserveLeaderboardRole,
		perms.ConsumeTokenRole,
	} {
		if err := join(role, "guest_group"); err != nil {
			return err
		}
	}
	for _, role := range []string{
		perms.LoginRole,
		perms.LogoutRole,
		perms.StatusRole,
		perms.ObserveUserRole,
		perms.ObserveHackathonsRole,
		perms.ObserveGalleryRole,
		perms.ObserveLeaderboardRole,
		perms.ConsumeTokenRole,
	} {
		if err := join(role, "pending_user_group"); err != nil {
			return err
		}
	}
	for _, role := range []string{
		perms.LoginRole,
		perms.LogoutRole,
		perms.StatusRole,
		perms.ObserveUserRole,
		perms.ObserveHackathonsRole,
		perms.ObserveHackathonRole,
		perms.ObserveGalleryRole,
		perms.ObserveLeaderboardRole,
		perms.CreateApplicationRole,
		perms.UpdateApplicationRole,
		perms.SubmitApplicationRole,
		perms.ObserveApplicationRole,
		perms.CreateTeamRole,
		perms.ObserveTeamRole,
		perms.JoinTeamRole,
		perms.LeaveTeamRole,
		perms.ObserveProjectRole,
		perms.CreateProjectRole,
		perms.UpdateProjectRole,
		perms.SubmitProjectRole,
		perms.ConsumeTokenRole,
	} {
		if err := join(role, "active_user_group"); err != nil {
			return err
		}
	}
	for _, role := range []string{
		perms.LoginRole,
		perms.LogoutRole,
		perms.StatusRole,
		perms.ObserveUserRole,
		perms.ObserveHackathonsRole,
		perms.ObserveGalleryRole,
	} {
		if err := join(role, "blocked_user_group"); err != nil {
			return err
		}
	}
	for _, role := range []string{
		perms.ObserveRubricsRole,
		perms.ObserveTeamsRole,
		perms.ObserveProjectsRole,
		perms.ObserveScoresRole,
		perms.CreateScoreRole,
		perms.UpdateScoreRole,
		perms.ObserveFullLeaderboardRole,
	} {
		if err := join(role, "judge_group"); err != nil {
			return err
		}
	}
	for _, role := range []string{
		perms.CreateHackathonRole,
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
		perms.ObserveTeamInviteCodeRole,
		perms.DeleteTeamMemberRole,
		perms.ObserveApplicationsRole,
		perms.ReviewApplicationRole,
		perms.ObserveScoresRole,
		perms.ObserveScoreRole,
		perms.DeleteScoreRole,
		perms.ObserveProjectsRole,
		perms.ObserveFullLeaderboardRole,
	} {
		if err := join(role, "organizer_group"); err != nil {
			return err
		}
	}
	for _, role := range allRoles {
		if err := join(role, "admin_group"); err != nil {
			return err
		}
	}
	return nil
}

func (m d001) Unapply(ctx context.Context, db *gosql.DB) error {
	return nil
}
