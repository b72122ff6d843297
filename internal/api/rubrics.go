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

func (v *View) registerRubricHandlers(g *echo.Group) {
	g.GET(
		"/v0/hackathons/:hackathon/rubrics", v.observeRubrics,
		v.extractAuth(v.sessionAuth, v.guestAuth), v.extractHackathon,
		v.requirePermission(perms.ObserveRubricsRole),
	)
	g.POST(
		"/v0/hackathons/:hackathon/rubrics", v.createRubric,
		v.extractAuth(v.sessionAuth), v.extractHackathon,
		v.requirePermission(perms.CreateRubricRole),
	)
	g.GET(
		"/v0/hackathons/:hackathon/rubrics/:rubric", v.observeRubric,
		v.extractAuth(v.sessionAuth, v.guestAuth),
		v.extractHackathon, v.extractRubric,
		v.requirePermission(perms.ObserveRubricRole),
	)
	g.PATCH(
		"/v0/hackathons/:hackathon/rubrics/:rubric", v.updateRubric,
		v.extractAuth(v.sessionAuth), v.extractHackathon, v.extractRubric,
		v.requirePermission(perms.UpdateRubricRole),
	)
	g.DELETE(
		"/v0/hackathons/:hackathon/rubrics/:rubric", v.deleteRubric,
		v.extractAuth(v.sessionAuth), v.extractHackathon, v.extractRubric,
		v.requirePermission(perms.DeleteRubricRole),
	)
}

type Rubric struct {
	ID          int64   `json:"id"`
	HackathonID int64   `json:"hackathon_id"`
	Title       string  `json:"title"`
	Weight      float64 `json:"weight"`
	MaxScore    float64 `json:"max_score"`
}

type Rubrics struct {
	Rubrics []Rubric `json:"rubrics"`
}

func makeRubric(rubric models.Rubric) Rubric {
	return Rubric{
		ID:          rubric.ID,
		HackathonID: rubric.HackathonID,
		Title:       rubric.Title,
		Weight:      rubric.Weight,
		MaxScore:    rubric.MaxScore,
	}
}

func (v *View) observeRubrics(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	if err := syncStore(c, v.core.Rubrics); err != nil {
		return err
	}
	rubrics, err := v.core.Rubrics.FindByHackathon(
		getContext(c), hackathonCtx.Hackathon.ID,
	)
	if err != nil {
		return err
	}
	defer func() { _ = rubrics.Close() }()
	var resp Rubrics
	for rubrics.Next() {
		resp.Rubrics = append(resp.Rubrics, makeRubric(rubrics.Row()))
	}
	if err := rubrics.Err(); err != nil {
		return err
	}
	sortFunc(resp.Rubrics, rubricLess)
	return c.JSON(http.StatusOK, resp)
}

func (v *View) observeRubric(c echo.Context) error {
	rubric, ok := c.Get(rubricKey).(models.Rubric)
	if !ok {
		return fmt.Errorf("rubric not extracted")
	}
	return c.JSON(http.StatusOK, makeRubric(rubric))
}

type updateRubricForm struct {
	Title    *string  `json:"title"`
	Weight   *float64 `json:"weight"`
	MaxScore *float64 `json:"max_score"`
}

func (f updateRubricForm) Update(
	c echo.Context, rubric *models.Rubric,
) error {
	errors := errorFields{}
	if f.Title != nil {
		if len(*f.Title) == 0 {
			errors["title"] = errorField{
				Message: localize(c, "Title is too short."),
			}
		} else if len(*f.Title) > 64 {
			errors["title"] = errorField{
				Message: localize(c, "Title is too long."),
			}
		}
		rubric.Title = *f.Title
	}
	if f.Weight != nil {
		if *f.Weight < 0 {
			errors["weight"] = errorField{
				Message: localize(c, "Weight cannot be negative."),
			}
		}
		rubric.Weight = *f.Weight
	}
	if f.MaxScore != nil {
		if *f.MaxScore <= 0 {
			errors["max_score"] = errorField{
				Message: localize(c, "Max score should be positive."),
			}
		}
		rubric.MaxScore = *f.MaxScore
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

type createRubricForm updateRubricForm

func (f *createRubricForm) Update(
	c echo.Context, rubric *models.Rubric,
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
	if f.MaxScore == nil {
		return &errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Form has invalid fields."),
			InvalidFields: errorFields{
				"max_score": errorField{
					Message: localize(c, "Max score is required."),
				},
			},
		}
	}
	return (*updateRubricForm)(f).Update(c, rubric)
}

func (v *View) createRubric(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	var form createRubricForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return c.NoContent(http.StatusBadRequest)
	}
	rubric := models.Rubric{
		HackathonID: hackathonCtx.Hackathon.ID,
		Weight:      1,
	}
	if err := form.Update(c, &rubric); err != nil {
		return err
	}
	if err := v.core.Rubrics.Create(getContext(c), &rubric); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, makeRubric(rubric))
}

func (v *View) updateRubric(c echo.Context) error {
	rubric, ok := c.Get(rubricKey).(models.Rubric)
	if !ok {
		return fmt.Errorf("rubric not extracted")
	}
	var form updateRubricForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return c.NoContent(http.StatusBadRequest)
	}
	if err := form.Update(c, &rubric); err != nil {
		return err
	}
	if err := v.core.Rubrics.Update(getContext(c), rubric); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, makeRubric(rubric))
}

func (v *View) deleteRubric(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	rubric, ok := c.Get(rubricKey).(models.Rubric)
	if !ok {
		return fmt.Errorf("rubric not extracted")
	}
	if hackathonCtx.HackathonConfig.JudgingOpen {
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Cannot delete rubric while judging is open."),
		}
	}
	if err := v.core.Rubrics.Delete(getContext(c), rubric.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, makeRubric(rubric))
}

func (v *View) extractRubric(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("rubric"), 10, 64)
		if err != nil {
			c.Logger().Warn(err)
			return errorResponse{
				Code:    http.StatusBadRequest,
				Message: localize(c, "Invalid rubric ID."),
			}
		}
		if err := syncStore(c, v.core.Rubrics); err != nil {
			return err
		}
		rubric, err := v.core.Rubrics.Get(getContext(c), id)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
		if !ok {
			return fmt.Errorf("hackathon not extracted")
		}
		if err == sql.ErrNoRows ||
			rubric.HackathonID != hackathonCtx.Hackathon.ID {
			return errorResponse{
				Code:    http.StatusNotFound,
				Message: localize(c, "Rubric not found."),
			}
		}
		c.Set(rubricKey, rubric)
		return next(c)
	}
}

func rubricLess(l, r Rubric) bool {
	return l.ID < r.ID
}
