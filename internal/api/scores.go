package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hackdesk/hackdesk/internal/managers"
	"github.com/hackdesk/hackdesk/internal/models"
	"github.com/hackdesk/hackdesk/internal/perms"
)

func (v *View) registerScoreHandlers(g *echo.Group) {
	g.GET(
		"/v0/hackathons/:hackathon/scores", v.observeScores,
		v.extractAuth(v.sessionAuth), v.extractHackathon,
		v.requirePermission(perms.ObserveScoresRole),
	)
	g.POST(
		"/v0/hackathons/:hackathon/teams/:team/scores", v.submitScore,
		v.extractAuth(v.sessionAuth), v.extractHackathon, v.extractTeam,
		v.requirePermission(perms.CreateScoreRole),
	)
	g.POST(
		"/v0/hackathons/:hackathon/scores", v.overrideScore,
		v.extractAuth(v.sessionAuth), v.extractHackathon,
		v.requirePermission(perms.UpdateScoreRole),
	)
	g.DELETE(
		"/v0/hackathons/:hackathon/scores/:score", v.deleteScore,
		v.extractAuth(v.sessionAuth), v.extractHackathon,
		v.requirePermission(perms.DeleteScoreRole),
	)
}

type Score struct {
	ID          int64   `json:"id"`
	HackathonID int64   `json:"hackathon_id"`
	TeamID      int64   `json:"team_id"`
	JudgeID     int64   `json:"judge_id"`
	RubricID    int64   `json:"rubric_id"`
	Value       float64 `json:"value"`
}

type Scores struct {
	Scores []Score `json:"scores"`
}

func makeScore(score models.Score) Score {
	return Score{
		ID:          score.ID,
		HackathonID: score.HackathonID,
		TeamID:      score.TeamID,
		JudgeID:     score.JudgeID,
		RubricID:    score.RubricID,
		Value:       score.Value,
	}
}

type scoreFilter struct {
	TeamID  int64 `query:"team_id"`
	JudgeID int64 `query:"judge_id"`
}

func (f scoreFilter) Filter(score models.Score) bool {
	if f.TeamID != 0 && score.TeamID != f.TeamID {
		return false
	}
	if f.JudgeID != 0 && score.JudgeID != f.JudgeID {
		return false
	}
	return true
}

func (v *View) observeScores(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	var filter scoreFilter
	if err := c.Bind(&filter); err != nil {
		c.Logger().Warn(err)
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Invalid filter."),
		}
	}
	if err := syncStore(c, v.core.Scores); err != nil {
		return err
	}
	scores, err := v.core.Scores.FindByHackathon(
		getContext(c), hackathonCtx.Hackathon.ID,
	)
	if err != nil {
		return err
	}
	defer func() { _ = scores.Close() }()
	var resp Scores
	for scores.Next() {
		score := scores.Row()
		if !filter.Filter(score) {
			continue
		}
		// A judge without review permissions sees only own scores.
		if !hackathonCtx.HasPermission(perms.ReviewApplicationRole) {
			if judge := hackathonCtx.Judge; judge == nil ||
				judge.ID != score.JudgeID {
				continue
			}
		}
		resp.Scores = append(resp.Scores, makeScore(score))
	}
	if err := scores.Err(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

type submitScoreForm struct {
	RubricID int64   `json:"rubric_id"`
	Value    float64 `json:"value"`
}

func (v *View) submitScore(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	team, ok := c.Get(teamKey).(models.Team)
	if !ok {
		return fmt.Errorf("team not extracted")
	}
	var form submitScoreForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return c.NoContent(http.StatusBadRequest)
	}
	if err := syncStore(c, v.core.Rubrics); err != nil {
		return err
	}
	score, err := v.judging.SubmitScore(
		hackathonCtx, team.ID, form.RubricID, form.Value,
	)
	if err != nil {
		return makeScoreError(c, err)
	}
	return c.JSON(http.StatusCreated, makeScore(score))
}

type overrideScoreForm struct {
	JudgeID  int64   `json:"judge_id"`
	TeamID   int64   `json:"team_id"`
	RubricID int64   `json:"rubric_id"`
	Value    float64 `json:"value"`
}

func (v *View) overrideScore(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	var form overrideScoreForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return c.NoContent(http.StatusBadRequest)
	}
	for _, store := range []any{v.core.Rubrics, v.core.Teams} {
		if err := syncStore(c, store); err != nil {
			return err
		}
	}
	score, err := v.judging.OverrideScore(
		hackathonCtx, form.JudgeID, form.TeamID, form.RubricID, form.Value,
	)
	if err != nil {
		return makeScoreError(c, err)
	}
	return c.JSON(http.StatusOK, makeScore(score))
}

func (v *View) deleteScore(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	id, err := strconv.ParseInt(c.Param("score"), 10, 64)
	if err != nil {
		c.Logger().Warn(err)
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Invalid score ID."),
		}
	}
	if err := v.judging.DeleteScore(hackathonCtx, id); err != nil {
		return makeScoreError(c, err)
	}
	return c.JSON(http.StatusOK, nil)
}

func makeScoreError(c echo.Context, err error) error {
	switch err {
	case managers.ErrJudgingClosed:
		return errorResponse{
			Code:    http.StatusForbidden,
			Message: localize(c, "Judging is closed."),
		}
	case managers.ErrScoreOutOfRange:
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Score is out of range."),
		}
	case managers.ErrRubricNotFound:
		return errorResponse{
			Code:    http.StatusNotFound,
			Message: localize(c, "Rubric not found."),
		}
	case managers.ErrTeamNotFound:
		return errorResponse{
			Code:    http.StatusNotFound,
			Message: localize(c, "Team not found."),
		}
	case managers.ErrScoreNotFound:
		return errorResponse{
			Code:    http.StatusNotFound,
			Message: localize(c, "Score not found."),
		}
	}
	return err
}
