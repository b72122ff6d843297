package perms

import (
	"sort"
)

const (
	// LoginRole represents name of role for login action.
	LoginRole = "login"
	// LogoutRole represents name of role for logout action.
	LogoutRole = "logout"
	// RegisterRole represents name of role for register action.
	RegisterRole = "register"
	// StatusRole represents name of role for status check.
	StatusRole = "status"
	// ObserveSettingsRole represents name of role for observing settings.
	ObserveSettingsRole = "observe_settings"
	// CreateSettingRole represents name of role for creating new setting.
	CreateSettingRole = "create_setting"
	// UpdateSettingRole represents name of role for updating setting.
	UpdateSettingRole = "update_setting"
	// DeleteSettingRole represents name of role for deleting setting.
	DeleteSettingRole = "delete_setting"
	// ObserveRolesRole represents name of role for observing roles.
	ObserveRolesRole = "observe_roles"
	// CreateRoleRole represents name of role for creating new role.
	CreateRoleRole = "create_role"
	// DeleteRoleRole represents name of role for deleting role.
	DeleteRoleRole = "delete_role"
	// ObserveRoleRolesRole represents name of role for observing role roles.
	ObserveRoleRolesRole = "observe_role_roles"
	// CreateRoleRoleRole represents name of role for creating new role role.
	CreateRoleRoleRole = "create_role_role"
	// DeleteRoleRoleRole represents name of role for deleting role role.
	DeleteRoleRoleRole = "delete_role_role"
	// ObserveUserRolesRole represents name of role for observing user roles.
	ObserveUserRolesRole = "observe_user_roles"
	// CreateUserRoleRole represents name of role for attaching role to user.
	CreateUserRoleRole = "create_user_role"
	// DeleteUserRoleRole represents name of role for detaching role from user.
	DeleteUserRoleRole = "delete_user_role"
	// ObserveUserRole represents name of role for observing user.
	ObserveUserRole = "observe_user"
	// UpdateUserRole represents name of role for updating user.
	UpdateUserRole = "update_user"
	// ObserveUserEmailRole represents name of role for observing user email.
	ObserveUserEmailRole = "observe_user_email"
	// ObserveUserFirstNameRole represents name of role for observing
	// user first name.
	ObserveUserFirstNameRole = "observe_user_first_name"
	// ObserveUserLastNameRole represents name of role for observing
	// user last name.
	ObserveUserLastNameRole = "observe_user_last_name"
	// ObserveUserSessionsRole represents name of role for observing
	// user sessions.
	ObserveUserSessionsRole = "observe_user_sessions"
	// UpdateUserPasswordRole represents name of role for updating
	// user password.
	UpdateUserPasswordRole = "update_user_password"
	// UpdateUserEmailRole represents name of role for updating user email.
	UpdateUserEmailRole = "update_user_email"
	// UpdateUserFirstNameRole represents name of role for updating
	// user first name.
	UpdateUserFirstNameRole = "update_user_first_name"
	// UpdateUserLastNameRole represents name of role for updating
	// user last name.
	UpdateUserLastNameRole = "update_user_last_name"
	// UpdateUserStatusRole represents name of role for updating user status.
	UpdateUserStatusRole = "update_user_status"
	// ResetPasswordRole represents name of role for reseting password.
	ResetPasswordRole = "reset_password"
	// ObserveSessionRole represents role for observing session.
	ObserveSessionRole = "observe_session"
	// DeleteSessionRole represents role for deleting session.
	DeleteSessionRole = "delete_session"
	// ObserveHackathonsRole represents role for observing hackathon list.
	ObserveHackathonsRole = "observe_hackathons"
	// ObserveHackathonRole represents role for observing hackathon.
	ObserveHackathonRole = "observe_hackathon"
	// CreateHackathonRole represents role for creating hackathon.
	CreateHackathonRole = "create_hackathon"
	// UpdateHackathonRole represents role for updating hackathon.
	UpdateHackathonRole = "update_hackathon"
	// UpdateHackathonOwnerRole represents role for updating hackathon owner.
	UpdateHackathonOwnerRole = "update_hackathon_owner"
	// DeleteHackathonRole represents role for deleting hackathon.
	DeleteHackathonRole = "delete_hackathon"
	// ObserveRubricsRole represents role for observing rubric list.
	ObserveRubricsRole = "observe_rubrics"
	// ObserveRubricRole represents role for observing rubric.
	ObserveRubricRole = "observe_rubric"
	// CreateRubricRole represents role for creating rubric.
	CreateRubricRole = "create_rubric"
	// UpdateRubricRole represents role for updating rubric.
	UpdateRubricRole = "update_rubric"
	// DeleteRubricRole represents role for deleting rubric.
	DeleteRubricRole = "delete_rubric"
	// ObserveJudgesRole represents role for observing judge list.
	ObserveJudgesRole = "observe_judges"
	// CreateJudgeRole represents role for assigning judge.
	CreateJudgeRole = "create_judge"
	// DeleteJudgeRole represents role for removing judge.
	DeleteJudgeRole = "delete_judge"
	// ObserveTeamsRole represents role for observing team list.
	ObserveTeamsRole = "observe_teams"
	// ObserveTeamRole represents role for observing team.
	ObserveTeamRole = "observe_team"
	// CreateTeamRole represents role for creating team.
	CreateTeamRole = "create_team"
	// UpdateTeamRole represents role for updating team.
	UpdateTeamRole = "update_team"
	// DeleteTeamRole represents role for deleting team.
	DeleteTeamRole = "delete_team"
	// ObserveTeamInviteCodeRole represents role for observing
	// team invite code.
	ObserveTeamInviteCodeRole = "observe_team_invite_code"
	// ResetTeamInviteCodeRole represents role for regenerating
	// team invite code.
	ResetTeamInviteCodeRole = "reset_team_invite_code"
	// JoinTeamRole represents role for joining team by invite code.
	JoinTeamRole = "join_team"
	// LeaveTeamRole represents role for leaving team.
	LeaveTeamRole = "leave_team"
	// DeleteTeamMemberRole represents role for removing team member.
	DeleteTeamMemberRole = "delete_team_member"
	// ObserveApplicationsRole represents role for observing
	// application list.
	ObserveApplicationsRole = "observe_applications"
	// ObserveApplicationRole represents role for observing application.
	ObserveApplicationRole = "observe_application"
	// CreateApplicationRole represents role for creating application.
	CreateApplicationRole = "create_application"
	// UpdateApplicationRole represents role for updating application.
	UpdateApplicationRole = "update_application"
	// SubmitApplicationRole represents role for submitting application.
	SubmitApplicationRole = "submit_application"
	// ReviewApplicationRole represents role for reviewing application.
	ReviewApplicationRole = "review_application"
	// ObserveScoresRole represents role for observing score list.
	ObserveScoresRole = "observe_scores"
	// ObserveScoreRole represents role for observing score.
	ObserveScoreRole = "observe_score"
	// CreateScoreRole represents role for creating score.
	CreateScoreRole = "create_score"
	// UpdateScoreRole represents role for updating score.
	UpdateScoreRole = "update_score"
	// DeleteScoreRole represents role for deleting score.
	DeleteScoreRole = "delete_score"
	// ObserveLeaderboardRole represents role for observing leaderboard.
	ObserveLeaderboardRole = "observe_leaderboard"
	// ObserveFullLeaderboardRole represents role for observing
	// leaderboard with per judge details.
	ObserveFullLeaderboardRole = "observe_full_leaderboard"
	// ObserveProjectsRole represents role for observing project list.
	ObserveProjectsRole = "observe_projects"
	// ObserveProjectRole represents role for observing project.
	ObserveProjectRole = "observe_project"
	// CreateProjectRole represents role for creating project.
	CreateProjectRole = "create_project"
	// UpdateProjectRole represents role for updating project.
	UpdateProjectRole = "update_project"
	// SubmitProjectRole represents role for submitting project.
	SubmitProjectRole = "submit_project"
	// DeleteProjectRole represents role for deleting project.
	DeleteProjectRole = "delete_project"
	// ObserveGalleryRole represents role for observing project gallery.
	ObserveGalleryRole = "observe_gallery"
	// ObserveFileContentRole represents role for observing file content.
	ObserveFileContentRole = "observe_file_content"
	// ConsumeTokenRole represents role for consuming token.
	ConsumeTokenRole = "consume_token"
	// ObserveAccountsRole represents role for observing accounts.
	ObserveAccountsRole = "observe_accounts"
)

var builtInRoles = map[string]struct{}{
	LoginRole:                  {},
	LogoutRole:                 {},
	RegisterRole:               {},
	StatusRole:                 {},
	ObserveSettingsRole:        {},
	CreateSettingRole:          {},
	UpdateSettingRole:          {},
	DeleteSettingRole:          {},
	ObserveRolesRole:           {},
	CreateRoleRole:             {},
	DeleteRoleRole:             {},
	ObserveRoleRolesRole:       {},
	CreateRoleRoleRole:         {},
	DeleteRoleRoleRole:         {},
	ObserveUserRolesRole:       {},
	CreateUserRoleRole:         {},
	DeleteUserRoleRole:         {},
	ObserveUserRole:            {},
	UpdateUserRole:             {},
	ObserveUserEmailRole:       {},
	ObserveUserFirstNameRole:   {},
	ObserveUserLastNameRole:    {},
	ObserveUserSessionsRole:    {},
	UpdateUserPasswordRole:     {},
	UpdateUserEmailRole:        {},
	UpdateUserFirstNameRole:    {},
	UpdateUserLastNameRole:     {},
	UpdateUserStatusRole:       {},
	ResetPasswordRole:          {},
	ObserveSessionRole:         {},
	DeleteSessionRole:          {},
	ObserveHackathonsRole:      {},
	ObserveHackathonRole:       {},
	CreateHackathonRole:        {},
	UpdateHackathonRole:        {},
	UpdateHackathonOwnerRole:   {},
	DeleteHackathonRole:        {},
	ObserveRubricsRole:         {},
	ObserveRubricRole:          {},
	CreateRubricRole:           {},
	UpdateRubricRole:           {},
	DeleteRubricRole:           {},
	ObserveJudgesRole:          {},
	CreateJudgeRole:            {},
	DeleteJudgeRole:            {},
	ObserveTeamsRole:           {},
	ObserveTeamRole:            {},
	CreateTeamRole:             {},
	UpdateTeamRole:             {},
	DeleteTeamRole:             {},
	ObserveTeamInviteCodeRole:  {},
	ResetTeamInviteCodeRole:    {},
	JoinTeamRole:               {},
	LeaveTeamRole:              {},
	DeleteTeamMemberRole:       {},
	ObserveApplicationsRole:    {},
	ObserveApplicationRole:     {},
	CreateApplicationRole:      {},
	UpdateApplicationRole:      {},
	SubmitApplicationRole:      {},
	ReviewApplicationRole:      {},
	ObserveScoresRole:          {},
	ObserveScoreRole:           {},
	CreateScoreRole:            {},
	UpdateScoreRole:            {},
	DeleteScoreRole:            {},
	ObserveLeaderboardRole:     {},
	ObserveFullLeaderboardRole: {},
	ObserveProjectsRole:        {},
	ObserveProjectRole:         {},
	CreateProjectRole:          {},
	UpdateProjectRole:          {},
	SubmitProjectRole:          {},
	DeleteProjectRole:          {},
	ObserveGalleryRole:         {},
	ObserveFileContentRole:     {},
	ConsumeTokenRole:           {},
	ObserveAccountsRole:        {},
}

// GetBuiltInRoles returns all built-in roles.
func GetBuiltInRoles() []string {
	var roles []string
	for role := range builtInRoles {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// IsBuiltInRole returns flag that role is built-in.
func IsBuiltInRole(name string) bool {
	_, ok := builtInRoles[name]
	return ok
}
