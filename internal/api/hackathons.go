package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hackdesk/hackdesk/internal/db"
	"github.com/hackdesk/hackdesk/internal/managers"
	"github.com/hackdesk/hackdesk/internal/models"
	"github.com/hackdesk/hackdesk/internal/perms"
)

func (v *View) registerHackathonHandlers(g *echo.Group) {
	g.GET(
		"/v0/hackathons", v.observeHackathons,
		v.extractAuth(v.sessionAuth, v.guestAuth),
		v.requirePermission(perms.ObserveHackathonsRole),
	)
	g.POST(
		"/v0/hackathons", v.createHackathon,
		v.extractAuth(v.sessionAuth),
		v.requirePermission(perms.CreateHackathonRole),
	)
	g.GET(
		"/v0/hackathons/:hackathon", v.observeHackathon,
		v.extractAuth(v.sessionAuth, v.guestAuth), v.extractHackathon,
		v.requirePermission(perms.ObserveHackathonRole),
	)
	g.PATCH(
		"/v0/hackathons/:hackathon", v.updateHackathon,
		v.extractAuth(v.sessionAuth), v.extractHackathon,
		v.requirePermission(perms.UpdateHackathonRole),
	)
	g.DELETE(
		"/v0/hackathons/:hackathon", v.deleteHackathon,
		v.extractAuth(v.sessionAuth), v.extractHackathon,
		v.requirePermission(perms.DeleteHackathonRole),
	)
}

type HackathonState struct {
	Stage string `json:"stage"`
	// Judge is set when the account judges this hackathon.
	Judge *Judge `json:"judge,omitempty"`
	// Application is set when the account applied for this hackathon.
	Application *Application `json:"application,omitempty"`
}

type Hackathon struct {
	ID                    int64           `json:"id"`
	Title                 string          `json:"title"`
	BeginTime             NInt64          `json:"begin_time,omitempty"`
	EndTime               NInt64          `json:"end_time,omitempty"`
	RegistrationBeginTime NInt64          `json:"registration_begin_time,omitempty"`
	RegistrationEndTime   NInt64          `json:"registration_end_time,omitempty"`
	MaxTeamSize           int             `json:"max_team_size,omitempty"`
	JudgingOpen           bool            `json:"judging_open"`
	GalleryOpen           bool            `json:"gallery_open"`
	Permissions           []string        `json:"permissions,omitempty"`
	State                 *HackathonState `json:"state,omitempty"`
}

type Hackathons struct {
	Hackathons []Hackathon `json:"hackathons"`
}

var hackathonPermissions = []string{
	perms.UpdateHackathonRole,
	perms.UpdateHackathonOwnerRole,
	perms.DeleteHackathonRole,
	perms.ObserveRubricsRole,
	perms.CreateRubricRole,
	perms.UpdateRubricRole,
	perms.DeleteRubricRole,
	perms.ObserveJudgesRole,
	perms.CreateJudgeRole,
	perms.DeleteJudgeRole,
	perms.ObserveTeamsRole,
	perms.CreateTeamRole,
	perms.JoinTeamRole,
	perms.ObserveApplicationsRole,
	perms.CreateApplicationRole,
	perms.ReviewApplicationRole,
	perms.ObserveScoresRole,
	perms.CreateScoreRole,
	perms.UpdateScoreRole,
	perms.DeleteScoreRole,
	perms.ObserveLeaderboardRole,
	perms.ObserveFullLeaderboardRole,
	perms.ObserveProjectsRole,
	perms.CreateProjectRole,
	perms.ObserveGalleryRole,
}

func makeHackathonStage(stage managers.HackathonStage) string {
	switch stage {
	case managers.HackathonNotPlanned:
		return "not_planned"
	case managers.HackathonNotStarted:
		return "not_started"
	case managers.HackathonStarted:
		return "started"
	case managers.HackathonFinished:
		return "finished"
	default:
		return "unknown"
	}
}

func makeHackathon(
	hackathon models.Hackathon, permissions perms.Permissions,
) Hackathon {
	resp := Hackathon{ID: hackathon.ID, Title: hackathon.Title}
	if config, err := hackathon.GetConfig(); err == nil {
		resp.BeginTime = config.BeginTime
		resp.EndTime = config.EndTime
		resp.RegistrationBeginTime = config.RegistrationBeginTime
		resp.RegistrationEndTime = config.RegistrationEndTime
		resp.MaxTeamSize = config.MaxTeamSize
		resp.JudgingOpen = config.JudgingOpen
		resp.GalleryOpen = config.GalleryOpen
	}
	for _, permission := range hackathonPermissions {
		if permissions.HasPermission(permission) {
			resp.Permissions = append(resp.Permissions, permission)
		}
	}
	if hackathonCtx, ok := permissions.(*managers.HackathonContext); ok {
		state := HackathonState{
			Stage: makeHackathonStage(hackathonCtx.Stage),
		}
		if judge := hackathonCtx.Judge; judge != nil {
			state.Judge = getPtr(makeJudge(*judge, nil))
		}
		if application := hackathonCtx.Application; application != nil {
			state.Application = getPtr(makeApplication(*application, hackathonCtx))
		}
		resp.State = &state
	}
	return resp
}

type hackathonFilter struct {
	Query string `query:"q"`
}

func (f hackathonFilter) Filter(hackathon models.Hackathon) bool {
	if len(f.Query) > 0 {
		switch {
		case strings.HasPrefix(fmt.Sprint(hackathon.ID), f.Query):
		case strings.Contains(hackathon.Title, f.Query):
		default:
			return false
		}
	}
	return true
}

func (v *View) observeHackathons(c echo.Context) error {
	accountCtx, ok := c.Get(accountCtxKey).(*managers.AccountContext)
	if !ok {
		return fmt.Errorf("account not extracted")
	}
	var filter hackathonFilter
	if err := c.Bind(&filter); err != nil {
		c.Logger().Warn(err)
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Invalid filter."),
		}
	}
	if err := syncStore(c, v.core.Hackathons); err != nil {
		return err
	}
	var resp Hackathons
	hackathons, err := v.core.Hackathons.ReverseAll(getContext(c), 0, 0)
	if err != nil {
		return err
	}
	defer func() { _ = hackathons.Close() }()
	for hackathons.Next() {
		hackathon := hackathons.Row()
		if !filter.Filter(hackathon) {
			continue
		}
		hackathonCtx, err := v.hackathons.BuildContext(accountCtx, hackathon)
		if err != nil {
			return err
		}
		if hackathonCtx.HasPermission(perms.ObserveHackathonRole) {
			resp.Hackathons = append(
				resp.Hackathons,
				makeHackathon(hackathon, hackathonCtx),
			)
		}
	}
	if err := hackathons.Err(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (v *View) observeHackathon(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	return c.JSON(
		http.StatusOK,
		makeHackathon(hackathonCtx.Hackathon, hackathonCtx),
	)
}

type updateHackathonForm struct {
	Title                 *string `json:"title" form:"title"`
	BeginTime             *NInt64 `json:"begin_time" form:"begin_time"`
	EndTime               *NInt64 `json:"end_time" form:"end_time"`
	RegistrationBeginTime *NInt64 `json:"registration_begin_time" form:"registration_begin_time"`
	RegistrationEndTime   *NInt64 `json:"registration_end_time" form:"registration_end_time"`
	MaxTeamSize           *int    `json:"max_team_size" form:"max_team_size"`
	JudgingOpen           *bool   `json:"judging_open" form:"judging_open"`
	GalleryOpen           *bool   `json:"gallery_open" form:"gallery_open"`
	OwnerID               *int64  `json:"owner_id" form:"owner_id"`
}

func (f *updateHackathonForm) Update(
	c echo.Context, hackathon *models.Hackathon,
) error {
	errors := errorFields{}
	if f.Title != nil {
		if len(*f.Title) < 4 {
			errors["title"] = errorField{
				Message: localize(c, "Title is too short."),
			}
		} else if len(*f.Title) > 64 {
			errors["title"] = errorField{
				Message: localize(c, "Title is too long."),
			}
		}
		hackathon.Title = *f.Title
	}
	config, err := hackathon.GetConfig()
	if err != nil {
		return err
	}
	if f.BeginTime != nil {
		config.BeginTime = *f.BeginTime
	}
	if f.EndTime != nil {
		config.EndTime = *f.EndTime
	}
	if config.BeginTime != 0 && config.EndTime != 0 &&
		config.EndTime < config.BeginTime {
		errors["end_time"] = errorField{
			Message: localize(c, "End time cannot be before begin time."),
		}
	}
	if f.RegistrationBeginTime != nil {
		config.RegistrationBeginTime = *f.RegistrationBeginTime
	}
	if f.RegistrationEndTime != nil {
		config.RegistrationEndTime = *f.RegistrationEndTime
	}
	if f.MaxTeamSize != nil {
		if *f.MaxTeamSize < 0 {
			errors["max_team_size"] = errorField{
				Message: localize(c, "Max team size cannot be negative."),
			}
		}
		config.MaxTeamSize = *f.MaxTeamSize
	}
	if f.JudgingOpen != nil {
		config.JudgingOpen = *f.JudgingOpen
	}
	if f.GalleryOpen != nil {
		config.GalleryOpen = *f.GalleryOpen
	}
	if err := hackathon.SetConfig(config); err != nil {
		errors["config"] = errorField{
			Message: localize(c, "Invalid config."),
		}
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

type createHackathonForm updateHackathonForm

func (f *createHackathonForm) Update(
	c echo.Context, hackathon *models.Hackathon,
) error {
	if f.Title == nil {
		return &errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Form has invalid fields."),
			InvalidFields: errorFields{
				"title": errorField{
					Message: localize(c, "Title is required."),
				},
			},
		}
	}
	return (*updateHackathonForm)(f).Update(c, hackathon)
}

func (v *View) createHackathon(c echo.Context) error {
	accountCtx, ok := c.Get(accountCtxKey).(*managers.AccountContext)
	if !ok {
		return fmt.Errorf("account not extracted")
	}
	var form createHackathonForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return c.NoContent(http.StatusBadRequest)
	}
	var hackathon models.Hackathon
	if err := form.Update(c, &hackathon); err != nil {
		return err
	}
	if config, err := hackathon.GetConfig(); err == nil && config.JudgingOpen {
		// A new hackathon has no rubric to judge by.
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Judging cannot open without rubric."),
		}
	}
	if account := accountCtx.Account; account != nil {
		hackathon.OwnerID = NInt64(account.ID)
	}
	if err := v.core.Hackathons.Create(getContext(c), &hackathon); err != nil {
		return err
	}
	return c.JSON(
		http.StatusCreated,
		makeHackathon(hackathon, accountCtx),
	)
}

func (v *View) updateHackathon(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	hackathon := hackathonCtx.Hackathon
	var form updateHackathonForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return c.NoContent(http.StatusBadRequest)
	}
	if err := form.Update(c, &hackathon); err != nil {
		return err
	}
	if form.JudgingOpen != nil && *form.JudgingOpen {
		count, err := v.getRubricCount(c, hackathon.ID)
		if err != nil {
			return err
		}
		if count == 0 {
			return errorResponse{
				Code:    http.StatusBadRequest,
				Message: localize(c, "Judging cannot open without rubric."),
			}
		}
	}
	var missingPermissions []string
	if form.OwnerID != nil {
		if !hackathonCtx.HasPermission(perms.UpdateHackathonOwnerRole) {
			missingPermissions = append(missingPermissions, perms.UpdateHackathonOwnerRole)
		} else {
			account, err := v.core.Accounts.Get(getContext(c), *form.OwnerID)
			if err != nil {
				if err == sql.ErrNoRows {
					return errorResponse{
						Code:    http.StatusBadRequest,
						Message: localize(c, "User not found."),
					}
				}
				return err
			}
			if account.Kind != models.UserAccountKind {
				return errorResponse{
					Code:    http.StatusBadRequest,
					Message: localize(c, "User not found."),
				}
			}
			hackathon.OwnerID = models.NInt64(*form.OwnerID)
		}
	}
	if len(missingPermissions) > 0 {
		return errorResponse{
			Code:               http.StatusForbidden,
			Message:            localize(c, "Account missing permissions."),
			MissingPermissions: missingPermissions,
		}
	}
	if err := v.core.Hackathons.Update(getContext(c), hackathon); err != nil {
		return err
	}
	return c.JSON(
		http.StatusOK,
		makeHackathon(hackathon, hackathonCtx),
	)
}

func (v *View) deleteHackathon(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	hackathon := hackathonCtx.Hackathon
	if err := v.core.Hackathons.Delete(getContext(c), hackathon.ID); err != nil {
		return err
	}
	return c.JSON(
		http.StatusOK,
		makeHackathon(hackathon, hackathonCtx),
	)
}

func (v *View) getRubricCount(c echo.Context, hackathonID int64) (int, error) {
	if err := syncStore(c, v.core.Rubrics); err != nil {
		return 0, err
	}
	rubricRows, err := v.core.Rubrics.FindByHackathon(getContext(c), hackathonID)
	if err != nil {
		return 0, err
	}
	rubrics, err := db.CollectRows(rubricRows)
	if err != nil {
		return 0, err
	}
	return len(rubrics), nil
}

func (v *View) extractHackathon(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("hackathon"), 10, 64)
		if err != nil {
			c.Logger().Warn(err)
			return errorResponse{
				Code:    http.StatusBadRequest,
				Message: localize(c, "Invalid hackathon ID."),
			}
		}
		if err := syncStore(c, v.core.Hackathons); err != nil {
			return err
		}
		hackathon, err := v.core.Hackathons.Get(getContext(c), id)
		if err != nil {
			if err == sql.ErrNoRows {
				return errorResponse{
					Code:    http.StatusNotFound,
					Message: localize(c, "Hackathon not found."),
				}
			}
			return err
		}
		accountCtx, ok := c.Get(accountCtxKey).(*managers.AccountContext)
		if !ok {
			return fmt.Errorf("account not extracted")
		}
		// Context depends on judge, application and membership caches.
		for _, store := range []any{
			v.core.Judges, v.core.Applications, v.core.TeamMembers,
		} {
			if err := syncStore(c, store); err != nil {
				return err
			}
		}
		hackathonCtx, err := v.hackathons.BuildContext(accountCtx, hackathon)
		if err != nil {
			return err
		}
		c.Set(hackathonCtxKey, hackathonCtx)
		c.Set(permissionCtxKey, hackathonCtx)
		return next(c)
	}
}
