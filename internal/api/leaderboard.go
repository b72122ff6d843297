package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hackdesk/hackdesk/internal/managers"
	"github.com/hackdesk/hackdesk/internal/perms"
)

func (v *View) registerLeaderboardHandlers(g *echo.Group) {
	g.GET(
		"/v0/hackathons/:hackathon/leaderboard", v.observeLeaderboard,
		v.extractAuth(v.sessionAuth, v.guestAuth), v.extractHackathon,
		v.requirePermission(perms.ObserveLeaderboardRole),
	)
}

type LeaderboardSheet struct {
	Judge    Judge   `json:"judge"`
	Scores   []Score `json:"scores"`
	Total    float64 `json:"total"`
	Complete bool    `json:"complete"`
}

type LeaderboardRow struct {
	Team       Team               `json:"team"`
	Project    *Project           `json:"project,omitempty"`
	Sheets     []LeaderboardSheet `json:"sheets,omitempty"`
	Total      float64            `json:"total"`
	SheetCount int                `json:"sheet_count"`
	Place      int                `json:"place"`
}

type Leaderboard struct {
	Rows  []LeaderboardRow `json:"rows"`
	Stage string           `json:"stage"`
}

type leaderboardFilter struct {
	OnlySubmitted bool `query:"only_submitted"`
}

func (v *View) observeLeaderboard(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	var filter leaderboardFilter
	if err := c.Bind(&filter); err != nil {
		c.Logger().Warn(err)
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Invalid filter."),
		}
	}
	for _, store := range []any{
		v.core.Teams, v.core.Rubrics, v.core.Judges,
		v.core.Scores, v.core.Projects,
	} {
		if err := syncStore(c, store); err != nil {
			return err
		}
	}
	leaderboard, err := v.leaderboards.BuildLeaderboard(
		hackathonCtx, managers.BuildLeaderboardOptions{
			OnlySubmitted: filter.OnlySubmitted,
		},
	)
	if err != nil {
		return err
	}
	resp := Leaderboard{
		Stage: makeHackathonStage(leaderboard.Stage),
	}
	for _, row := range leaderboard.Rows {
		resp.Rows = append(resp.Rows, v.makeLeaderboardRow(c, hackathonCtx, row))
	}
	return c.JSON(http.StatusOK, resp)
}

func (v *View) makeLeaderboardRow(
	c echo.Context, ctx *managers.HackathonContext, row managers.LeaderboardRow,
) LeaderboardRow {
	resp := LeaderboardRow{
		Team:       makeTeam(ctx, row.Team),
		Total:      row.Total,
		SheetCount: row.SheetCount,
		Place:      row.Place,
	}
	if row.Project != nil {
		resp.Project = getPtr(makeProject(*row.Project))
	}
	for _, sheet := range row.Sheets {
		sheetResp := LeaderboardSheet{
			Judge:    v.makeHackathonJudge(c, sheet.Judge),
			Total:    sheet.Total,
			Complete: sheet.Complete,
		}
		for _, score := range sheet.Scores {
			sheetResp.Scores = append(sheetResp.Scores, makeScore(score))
		}
		resp.Sheets = append(resp.Sheets, sheetResp)
	}
	return resp
}
