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

func (v *View) registerApplicationHandlers(g *echo.Group) {
	g.GET(
		"/v0/hackathons/:hackathon/applications", v.observeApplications,
		v.extractAuth(v.sessionAuth), v.extractHackathon,
		v.requirePermission(perms.ObserveApplicationsRole),
	)
	g.POST(
		"/v0/hackathons/:hackathon/applications", v.createApplication,
		v.extractAuth(v.sessionAuth), v.extractHackathon,
		v.requirePermission(perms.CreateApplicationRole),
	)
	g.GET(
		"/v0/hackathons/:hackathon/applications/:application",
		v.observeApplication,
		v.extractAuth(v.sessionAuth),
		v.extractHackathon, v.extractApplication,
		v.requirePermission(perms.ObserveApplicationRole),
	)
	g.PATCH(
		"/v0/hackathons/:hackathon/applications/:application",
		v.updateApplication,
		v.extractAuth(v.sessionAuth),
		v.extractHackathon, v.extractApplication,
		v.requirePermission(perms.UpdateApplicationRole),
	)
	g.POST(
		"/v0/hackathons/:hackathon/applications/:application/submit",
		v.submitApplication,
		v.extractAuth(v.sessionAuth),
		v.extractHackathon, v.extractApplication,
		v.requirePermission(perms.SubmitApplicationRole),
	)
	g.POST(
		"/v0/hackathons/:hackathon/applications/:application/resolve",
		v.resolveApplication,
		v.extractAuth(v.sessionAuth),
		v.extractHackathon, v.extractApplication,
		v.requirePermission(perms.ReviewApplicationRole),
	)
}

type Application struct {
	ID          int64   `json:"id"`
	HackathonID int64   `json:"hackathon_id"`
	AccountID   int64   `json:"account_id"`
	Status      string  `json:"status"`
	Bio         string  `json:"bio,omitempty"`
	Motivation  string  `json:"motivation,omitempty"`
	Experience  string  `json:"experience,omitempty"`
	CreateTime  int64   `json:"create_time,omitempty"`
	SubmitTime  NInt64  `json:"submit_time,omitempty"`
	User        *User   `json:"user,omitempty"`
}

type Applications struct {
	Applications []Application `json:"applications"`
}

func makeApplication(
	application models.Application, ctx *managers.HackathonContext,
) Application {
	resp := Application{
		ID:          application.ID,
		HackathonID: application.HackathonID,
		AccountID:   application.AccountID,
		Status:      application.Status.String(),
		CreateTime:  application.CreateTime,
		SubmitTime:  application.SubmitTime,
	}
	own := ctx.Account != nil && ctx.Account.ID == application.AccountID
	if own || ctx.HasPermission(perms.ReviewApplicationRole) {
		if answers, err := application.GetAnswers(); err == nil {
			resp.Bio = answers.Bio
			resp.Motivation = answers.Motivation
			resp.Experience = answers.Experience
		}
	}
	return resp
}

type applicationFilter struct {
	Status string `query:"status"`
}

func (f applicationFilter) Filter(application models.Application) bool {
	if len(f.Status) > 0 && application.Status.String() != f.Status {
		return false
	}
	return true
}

func (v *View) observeApplications(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	var filter applicationFilter
	if err := c.Bind(&filter); err != nil {
		c.Logger().Warn(err)
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Invalid filter."),
		}
	}
	if err := syncStore(c, v.core.Applications); err != nil {
		return err
	}
	ctx := getContext(c)
	applications, err := v.core.Applications.FindByHackathon(
		ctx, hackathonCtx.Hackathon.ID,
	)
	if err != nil {
		return err
	}
	defer func() { _ = applications.Close() }()
	var resp Applications
	for applications.Next() {
		application := applications.Row()
		if !filter.Filter(application) {
			continue
		}
		applicationResp := makeApplication(application, hackathonCtx)
		if user, err := v.core.Users.GetByAccount(ctx, application.AccountID); err == nil {
			applicationResp.User = getPtr(User{ID: user.ID, Login: user.Login})
		}
		resp.Applications = append(resp.Applications, applicationResp)
	}
	if err := applications.Err(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (v *View) observeApplication(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	application, ok := c.Get(applicationKey).(models.Application)
	if !ok {
		return fmt.Errorf("application not extracted")
	}
	return c.JSON(http.StatusOK, makeApplication(application, hackathonCtx))
}

type updateApplicationForm struct {
	Bio        *string `json:"bio"`
	Motivation *string `json:"motivation"`
	Experience *string `json:"experience"`
}

func (f updateApplicationForm) Update(
	c echo.Context, application *models.Application,
) error {
	errors := errorFields{}
	answers, err := application.GetAnswers()
	if err != nil {
		return err
	}
	if f.Bio != nil {
		if len(*f.Bio) > 4096 {
			errors["bio"] = errorField{
				Message: localize(c, "Answer is too long."),
			}
		}
		answers.Bio = *f.Bio
	}
	if f.Motivation != nil {
		if len(*f.Motivation) > 4096 {
			errors["motivation"] = errorField{
				Message: localize(c, "Answer is too long."),
			}
		}
		answers.Motivation = *f.Motivation
	}
	if f.Experience != nil {
		if len(*f.Experience) > 4096 {
			errors["experience"] = errorField{
				Message: localize(c, "Answer is too long."),
			}
		}
		answers.Experience = *f.Experience
	}
	if len(errors) > 0 {
		return &errorResponse{
			Code:          http.StatusBadRequest,
			Message:       localize(c, "Form has invalid fields."),
			InvalidFields: errors,
		}
	}
	return application.SetAnswers(answers)
}

func (v *View) createApplication(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	account := hackathonCtx.Account
	if account == nil {
		return fmt.Errorf("account not extracted")
	}
	if !hackathonCtx.RegistrationOpen() {
		return errorResponse{
			Code:    http.StatusForbidden,
			Message: localize(c, "Registration is closed."),
		}
	}
	if hackathonCtx.Application != nil {
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Application already exists."),
		}
	}
	var form updateApplicationForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return c.NoContent(http.StatusBadRequest)
	}
	application := models.Application{
		HackathonID: hackathonCtx.Hackathon.ID,
		AccountID:   account.ID,
		Status:      models.DraftApplication,
		CreateTime:  getNow(c).Unix(),
	}
	if err := form.Update(c, &application); err != nil {
		return err
	}
	if err := v.core.Applications.Create(getContext(c), &application); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, makeApplication(application, hackathonCtx))
}

func (v *View) updateApplication(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	application, ok := c.Get(applicationKey).(models.Application)
	if !ok {
		return fmt.Errorf("application not extracted")
	}
	if account := hackathonCtx.Account; account == nil ||
		account.ID != application.AccountID {
		return errorResponse{
			Code:    http.StatusForbidden,
			Message: localize(c, "Account missing permissions."),
		}
	}
	if application.Status != models.DraftApplication {
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Application is already submitted."),
		}
	}
	var form updateApplicationForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return c.NoContent(http.StatusBadRequest)
	}
	if err := form.Update(c, &application); err != nil {
		return err
	}
	if err := v.core.Applications.Update(getContext(c), application); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, makeApplication(application, hackathonCtx))
}

func (v *View) submitApplication(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	application, ok := c.Get(applicationKey).(models.Application)
	if !ok {
		return fmt.Errorf("application not extracted")
	}
	if account := hackathonCtx.Account; account == nil ||
		account.ID != application.AccountID {
		return errorResponse{
			Code:    http.StatusForbidden,
			Message: localize(c, "Account missing permissions."),
		}
	}
	if application.Status != models.DraftApplication {
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Application is already submitted."),
		}
	}
	if !hackathonCtx.RegistrationOpen() {
		return errorResponse{
			Code:    http.StatusForbidden,
			Message: localize(c, "Registration is closed."),
		}
	}
	application.Status = models.SubmittedApplication
	application.SubmitTime = NInt64(getNow(c).Unix())
	if err := v.core.Applications.Update(getContext(c), application); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, makeApplication(application, hackathonCtx))
}

type resolveApplicationForm struct {
	Status models.ApplicationStatus `json:"status"`
}

func (v *View) resolveApplication(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	application, ok := c.Get(applicationKey).(models.Application)
	if !ok {
		return fmt.Errorf("application not extracted")
	}
	var form resolveApplicationForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return c.NoContent(http.StatusBadRequest)
	}
	switch form.Status {
	case models.AcceptedApplication,
		models.RejectedApplication,
		models.WaitlistedApplication:
	default:
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Invalid application status."),
		}
	}
	if application.Status == models.DraftApplication {
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Application is not submitted."),
		}
	}
	application.Status = form.Status
	if err := v.core.Applications.Update(getContext(c), application); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, makeApplication(application, hackathonCtx))
}

func (v *View) extractApplication(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("application"), 10, 64)
		if err != nil {
			c.Logger().Warn(err)
			return errorResponse{
				Code:    http.StatusBadRequest,
				Message: localize(c, "Invalid application ID."),
			}
		}
		if err := syncStore(c, v.core.Applications); err != nil {
			return err
		}
		application, err := v.core.Applications.Get(getContext(c), id)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
		if !ok {
			return fmt.Errorf("hackathon not extracted")
		}
		if err == sql.ErrNoRows ||
			application.HackathonID != hackathonCtx.Hackathon.ID {
			return errorResponse{
				Code:    http.StatusNotFound,
				Message: localize(c, "Application not found."),
			}
		}
		own := hackathonCtx.Account != nil &&
			hackathonCtx.Account.ID == application.AccountID
		if !own && !hackathonCtx.HasPermission(perms.ReviewApplicationRole) {
			return errorResponse{
				Code:    http.StatusNotFound,
				Message: localize(c, "Application not found."),
			}
		}
		c.Set(applicationKey, application)
		return next(c)
	}
}
