package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hackdesk/hackdesk/internal/managers"
	"github.com/hackdesk/hackdesk/internal/models"
	"github.com/hackdesk/hackdesk/internal/perms"
)

func (v *View) registerTeamHandlers(g *echo.Group) {
	g.GET(
		"/v0/hackathons/:hackathon/teams", v.observeTeams,
		v.extractAuth(v.sessionAuth, v.guestAuth), v.extractHackathon,
		v.requirePermission(perms.ObserveTeamsRole),
	)
	g.POST(
		"/v0/hackathons/:hackathon/teams", v.createTeam,
		v.extractAuth(v.sessionAuth), v.extractHackathon,
		v.requirePermission(perms.CreateTeamRole),
	)
	g.POST(
		"/v0/hackathons/:hackathon/teams/join", v.joinTeam,
		v.extractAuth(v.sessionAuth), v.extractHackathon,
		v.requirePermission(perms.JoinTeamRole),
	)
	g.GET(
		"/v0/hackathons/:hackathon/teams/:team", v.observeTeam,
		v.extractAuth(v.sessionAuth, v.guestAuth),
		v.extractHackathon, v.extractTeam,
		v.requirePermission(perms.ObserveTeamRole),
	)
	g.PATCH(
		"/v0/hackathons/:hackathon/teams/:team", v.updateTeam,
		v.extractAuth(v.sessionAuth), v.extractHackathon, v.extractTeam,
		v.requirePermission(perms.UpdateTeamRole),
	)
	g.DELETE(
		"/v0/hackathons/:hackathon/teams/:team", v.deleteTeam,
		v.extractAuth(v.sessionAuth), v.extractHackathon, v.extractTeam,
		v.requirePermission(perms.DeleteTeamRole),
	)
	g.POST(
		"/v0/hackathons/:hackathon/teams/:team/leave", v.leaveTeam,
		v.extractAuth(v.sessionAuth), v.extractHackathon, v.extractTeam,
		v.requirePermission(perms.LeaveTeamRole),
	)
	g.POST(
		"/v0/hackathons/:hackathon/teams/:team/invite-code",
		v.resetTeamInviteCode,
		v.extractAuth(v.sessionAuth), v.extractHackathon, v.extractTeam,
		v.requirePermission(perms.ResetTeamInviteCodeRole),
	)
	g.GET(
		"/v0/hackathons/:hackathon/teams/:team/members", v.observeTeamMembers,
		v.extractAuth(v.sessionAuth, v.guestAuth),
		v.extractHackathon, v.extractTeam,
		v.requirePermission(perms.ObserveTeamRole),
	)
	g.DELETE(
		"/v0/hackathons/:hackathon/teams/:team/members/:member",
		v.deleteTeamMember,
		v.extractAuth(v.sessionAuth),
		v.extractHackathon, v.extractTeam, v.extractTeamMember,
		v.requirePermission(perms.DeleteTeamMemberRole),
	)
}

type Team struct {
	ID          int64  `json:"id"`
	HackathonID int64  `json:"hackathon_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InviteCode  string `json:"invite_code,omitempty"`
	CreateTime  int64  `json:"create_time,omitempty"`
}

type Teams struct {
	Teams []Team `json:"teams"`
}

type TeamMember struct {
	ID        int64  `json:"id"`
	TeamID    int64  `json:"team_id"`
	AccountID int64  `json:"account_id"`
	Kind      string `json:"kind"`
	User      *User  `json:"user,omitempty"`
}

type TeamMembers struct {
	Members []TeamMember `json:"members"`
}

// ownTeam reports that the account is a member of given team.
func ownTeam(ctx *managers.HackathonContext, team models.Team) bool {
	return ctx.TeamMember != nil && ctx.TeamMember.TeamID == team.ID
}

func teamLeader(ctx *managers.HackathonContext, team models.Team) bool {
	return ownTeam(ctx, team) && ctx.TeamMember.Kind == models.LeaderMember
}

func makeTeam(
	ctx *managers.HackathonContext, team models.Team,
) Team {
	resp := Team{
		ID:          team.ID,
		HackathonID: team.HackathonID,
		Name:        team.Name,
		Description: string(team.Description),
		CreateTime:  team.CreateTime,
	}
	if ownTeam(ctx, team) ||
		ctx.HasPermission(perms.ObserveTeamInviteCodeRole) {
		resp.InviteCode = team.InviteCode
	}
	return resp
}

func (v *View) makeTeamMember(c echo.Context, member models.TeamMember) TeamMember {
	resp := TeamMember{
		ID:        member.ID,
		TeamID:    member.TeamID,
		AccountID: member.AccountID,
		Kind:      member.Kind.String(),
	}
	if user, err := v.core.Users.GetByAccount(
		getContext(c), member.AccountID,
	); err == nil {
		resp.User = getPtr(User{ID: user.ID, Login: user.Login})
	}
	return resp
}

func (v *View) observeTeams(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	if err := syncStore(c, v.core.Teams); err != nil {
		return err
	}
	teams, err := v.core.Teams.FindByHackathon(
		getContext(c), hackathonCtx.Hackathon.ID,
	)
	if err != nil {
		return err
	}
	defer func() { _ = teams.Close() }()
	var resp Teams
	for teams.Next() {
		resp.Teams = append(resp.Teams, makeTeam(hackathonCtx, teams.Row()))
	}
	if err := teams.Err(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (v *View) observeTeam(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	team, ok := c.Get(teamKey).(models.Team)
	if !ok {
		return fmt.Errorf("team not extracted")
	}
	return c.JSON(http.StatusOK, makeTeam(hackathonCtx, team))
}

type updateTeamForm struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (f updateTeamForm) Update(c echo.Context, team *models.Team) error {
	errors := errorFields{}
	if f.Name != nil {
		if len(*f.Name) < 2 {
			errors["name"] = errorField{
				Message: localize(c, "Name is too short."),
			}
		} else if len(*f.Name) > 64 {
			errors["name"] = errorField{
				Message: localize(c, "Name is too long."),
			}
		}
		team.Name = *f.Name
	}
	if f.Description != nil {
		if len(*f.Description) > 1024 {
			errors["description"] = errorField{
				Message: localize(c, "Description is too long."),
			}
		}
		team.Description = NString(*f.Description)
	}
	if len(errors) > 0 {
		return &errorResponse{
			Code:          http.StatusBadRequest,
			Message:       localize(c, "Form has invalid fields."),
			InvalidFields: errors,
		}
	}
	return nil
}

type createTeamForm updateTeamForm

func (f *createTeamForm) Update(c echo.Context, team *models.Team) error {
	if f.Name == nil {
		return &errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Form has invalid fields."),
			InvalidFields: errorFields{
				"name": errorField{
					Message: localize(c, "Name is required."),
				},
			},
		}
	}
	return (*updateTeamForm)(f).Update(c, team)
}

func (v *View) createTeam(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	if !hackathonCtx.RegistrationOpen() {
		return errorResponse{
			Code:    http.StatusForbidden,
			Message: localize(c, "Registration is closed."),
		}
	}
	var form createTeamForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return c.NoContent(http.StatusBadRequest)
	}
	var team models.Team
	if err := form.Update(c, &team); err != nil {
		return err
	}
	if _, err := v.teams.CreateTeam(hackathonCtx, &team); err != nil {
		if err == managers.ErrAlreadyInTeam {
			return errorResponse{
				Code:    http.StatusBadRequest,
				Message: localize(c, "Account already has a team."),
			}
		}
		return err
	}
	resp := makeTeam(hackathonCtx, team)
	// Creator becomes the leader and can always see the invite code.
	resp.InviteCode = team.InviteCode
	return c.JSON(http.StatusCreated, resp)
}

func (v *View) updateTeam(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	team, ok := c.Get(teamKey).(models.Team)
	if !ok {
		return fmt.Errorf("team not extracted")
	}
	if !teamLeader(hackathonCtx, team) &&
		!hackathonCtx.HasPermission(perms.DeleteTeamMemberRole) {
		return errorResponse{
			Code:    http.StatusForbidden,
			Message: localize(c, "Account missing permissions."),
		}
	}
	var form updateTeamForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return c.NoContent(http.StatusBadRequest)
	}
	if err := form.Update(c, &team); err != nil {
		return err
	}
	if err := v.core.Teams.Update(getContext(c), team); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, makeTeam(hackathonCtx, team))
}

func (v *View) deleteTeam(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	team, ok := c.Get(teamKey).(models.Team)
	if !ok {
		return fmt.Errorf("team not extracted")
	}
	if err := v.core.Teams.Delete(getContext(c), team.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, makeTeam(hackathonCtx, team))
}

type joinTeamForm struct {
	InviteCode string `json:"invite_code"`
}

func (v *View) joinTeam(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	if !hackathonCtx.RegistrationOpen() {
		return errorResponse{
			Code:    http.StatusForbidden,
			Message: localize(c, "Registration is closed."),
		}
	}
	var form joinTeamForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return c.NoContent(http.StatusBadRequest)
	}
	if err := syncStore(c, v.core.Teams); err != nil {
		return err
	}
	member, err := v.teams.JoinByCode(hackathonCtx, form.InviteCode, c.RealIP())
	if err != nil {
		switch err {
		case managers.ErrInviteCodeInvalid:
			return errorResponse{
				Code:    http.StatusBadRequest,
				Message: localize(c, "Invalid invite code."),
			}
		case managers.ErrTooManyAttempts:
			return errorResponse{
				Code:    http.StatusTooManyRequests,
				Message: localize(c, "Too many join attempts."),
			}
		case managers.ErrTeamNotFound:
			return errorResponse{
				Code:    http.StatusNotFound,
				Message: localize(c, "Team not found."),
			}
		case managers.ErrAlreadyInTeam:
			return errorResponse{
				Code:    http.StatusBadRequest,
				Message: localize(c, "Account already has a team."),
			}
		case managers.ErrTeamFull:
			return errorResponse{
				Code:    http.StatusBadRequest,
				Message: localize(c, "Team is full."),
			}
		}
		return err
	}
	return c.JSON(http.StatusCreated, v.makeTeamMember(c, member))
}

func (v *View) leaveTeam(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	team, ok := c.Get(teamKey).(models.Team)
	if !ok {
		return fmt.Errorf("team not extracted")
	}
	if !ownTeam(hackathonCtx, team) {
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Account is not a member of this team."),
		}
	}
	member := *hackathonCtx.TeamMember
	if err := v.teams.LeaveTeam(hackathonCtx, member); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v.makeTeamMember(c, member))
}

func (v *View) resetTeamInviteCode(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	team, ok := c.Get(teamKey).(models.Team)
	if !ok {
		return fmt.Errorf("team not extracted")
	}
	if !teamLeader(hackathonCtx, team) &&
		!hackathonCtx.HasPermission(perms.ObserveTeamInviteCodeRole) {
		return errorResponse{
			Code:    http.StatusForbidden,
			Message: localize(c, "Account missing permissions."),
		}
	}
	team, err := v.teams.ResetInviteCode(getContext(c), team)
	if err != nil {
		return err
	}
	resp := makeTeam(hackathonCtx, team)
	resp.InviteCode = team.InviteCode
	return c.JSON(http.StatusOK, resp)
}

func (v *View) observeTeamMembers(c echo.Context) error {
	team, ok := c.Get(teamKey).(models.Team)
	if !ok {
		return fmt.Errorf("team not extracted")
	}
	if err := syncStore(c, v.core.TeamMembers); err != nil {
		return err
	}
	members, err := v.core.TeamMembers.FindByTeam(getContext(c), team.ID)
	if err != nil {
		return err
	}
	defer func() { _ = members.Close() }()
	var resp TeamMembers
	for members.Next() {
		resp.Members = append(resp.Members, v.makeTeamMember(c, members.Row()))
	}
	if err := members.Err(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (v *View) deleteTeamMember(c echo.Context) error {
	member, ok := c.Get(teamMemberKey).(models.TeamMember)
	if !ok {
		return fmt.Errorf("team member not extracted")
	}
	if err := v.core.TeamMembers.Delete(getContext(c), member.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v.makeTeamMember(c, member))
}

func (v *View) extractTeam(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("team"), 10, 64)
		if err != nil {
			c.Logger().Warn(err)
			return errorResponse{
				Code:    http.StatusBadRequest,
				Message: localize(c, "Invalid team ID."),
			}
		}
		if err := syncStore(c, v.core.Teams); err != nil {
			return err
		}
		team, err := v.core.Teams.Get(getContext(c), id)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
		if !ok {
			return fmt.Errorf("hackathon not extracted")
		}
		if err == sql.ErrNoRows ||
			team.HackathonID != hackathonCtx.Hackathon.ID {
			return errorResponse{
				Code:    http.StatusNotFound,
				Message: localize(c, "Team not found."),
			}
		}
		c.Set(teamKey, team)
		return next(c)
	}
}

func (v *View) extractTeamMember(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("member"), 10, 64)
		if err != nil {
			c.Logger().Warn(err)
			return errorResponse{
				Code:    http.StatusBadRequest,
				Message: localize(c, "Invalid member ID."),
			}
		}
		if err := syncStore(c, v.core.TeamMembers); err != nil {
			return err
		}
		member, err := v.core.TeamMembers.Get(getContext(c), id)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		team, ok := c.Get(teamKey).(models.Team)
		if !ok {
			return fmt.Errorf("team not extracted")
		}
		if err == sql.ErrNoRows || member.TeamID != team.ID {
			return errorResponse{
				Code:    http.StatusNotFound,
				Message: localize(c, "Member not found."),
			}
		}
		c.Set(teamMemberKey, member)
		return next(c)
	}
}
