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

func (v *View) registerJudgeHandlers(g *echo.Group) {
	g.GET(
		"/v0/hackathons/:hackathon/judges", v.observeJudges,
		v.extractAuth(v.sessionAuth, v.guestAuth), v.extractHackathon,
		v.requirePermission(perms.ObserveJudgesRole),
	)
	g.POST(
		"/v0/hackathons/:hackathon/judges", v.createJudge,
		v.extractAuth(v.sessionAuth), v.extractHackathon,
		v.requirePermission(perms.CreateJudgeRole),
	)
	g.DELETE(
		"/v0/hackathons/:hackathon/judges/:judge", v.deleteJudge,
		v.extractAuth(v.sessionAuth), v.extractHackathon, v.extractJudge,
		v.requirePermission(perms.DeleteJudgeRole),
	)
}

type Judge struct {
	ID        int64 `json:"id"`
	AccountID int64 `json:"account_id"`
	User      *User `json:"user,omitempty"`
}

type Judges struct {
	Judges []Judge `json:"judges"`
}

func makeJudge(judge models.Judge, user *User) Judge {
	return Judge{
		ID:        judge.ID,
		AccountID: judge.AccountID,
		User:      user,
	}
}

func (v *View) makeHackathonJudge(c echo.Context, judge models.Judge) Judge {
	var userResp *User
	if user, err := v.core.Users.GetByAccount(
		getContext(c), judge.AccountID,
	); err == nil {
		userResp = getPtr(User{ID: user.ID, Login: user.Login})
	}
	return makeJudge(judge, userResp)
}

func (v *View) observeJudges(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	if err := syncStore(c, v.core.Judges); err != nil {
		return err
	}
	judges, err := v.core.Judges.FindByHackathon(
		getContext(c), hackathonCtx.Hackathon.ID,
	)
	if err != nil {
		return err
	}
	defer func() { _ = judges.Close() }()
	var resp Judges
	for judges.Next() {
		resp.Judges = append(resp.Judges, v.makeHackathonJudge(c, judges.Row()))
	}
	if err := judges.Err(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

type createJudgeForm struct {
	AccountID *int64  `json:"account_id"`
	Login     *string `json:"login"`
}

func (v *View) createJudge(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	var form createJudgeForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return c.NoContent(http.StatusBadRequest)
	}
	if err := syncStore(c, v.core.Users); err != nil {
		return err
	}
	ctx := getContext(c)
	var accountID int64
	switch {
	case form.AccountID != nil:
		account, err := v.core.Accounts.Get(ctx, *form.AccountID)
		if err != nil {
			if err == sql.ErrNoRows {
				return errorResponse{
					Code:    http.StatusBadRequest,
					Message: localize(c, "User not found."),
				}
			}
			return err
		}
		accountID = account.ID
	case form.Login != nil:
		user, err := v.core.Users.GetByLogin(ctx, *form.Login)
		if err != nil {
			if err == sql.ErrNoRows {
				return errorResponse{
					Code:    http.StatusBadRequest,
					Message: localize(c, "User not found."),
				}
			}
			return err
		}
		accountID = user.AccountID
	default:
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Form has invalid fields."),
		}
	}
	if _, err := v.core.Judges.GetByHackathonAccount(
		ctx, hackathonCtx.Hackathon.ID, accountID,
	); err != sql.ErrNoRows {
		if err != nil {
			return err
		}
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Judge already exists."),
		}
	}
	judge := models.Judge{
		HackathonID: hackathonCtx.Hackathon.ID,
		AccountID:   accountID,
		CreateTime:  getNow(c).Unix(),
	}
	if err := v.core.Judges.Create(ctx, &judge); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v.makeHackathonJudge(c, judge))
}

func (v *View) deleteJudge(c echo.Context) error {
	judge, ok := c.Get(judgeKey).(models.Judge)
	if !ok {
		return fmt.Errorf("judge not extracted")
	}
	if err := v.core.Judges.Delete(getContext(c), judge.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v.makeHackathonJudge(c, judge))
}

func (v *View) extractJudge(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("judge"), 10, 64)
		if err != nil {
			c.Logger().Warn(err)
			return errorResponse{
				Code:    http.StatusBadRequest,
				Message: localize(c, "Invalid judge ID."),
			}
		}
		if err := syncStore(c, v.core.Judges); err != nil {
			return err
		}
		judge, err := v.core.Judges.Get(getContext(c), id)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
		if !ok {
			return fmt.Errorf("hackathon not extracted")
		}
		if err == sql.ErrNoRows ||
			judge.HackathonID != hackathonCtx.Hackathon.ID {
			return errorResponse{
				Code:    http.StatusNotFound,
				Message: localize(c, "Judge not found."),
			}
		}
		c.Set(judgeKey, judge)
		return next(c)
	}
}
