package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hackdesk/hackdesk/internal/managers"
	"github.com/hackdesk/hackdesk/internal/models"
	"github.com/hackdesk/hackdesk/internal/perms"
)

// registerSessionHandlers registers handlers for session management.
func (v *View) registerSessionHandlers(g *echo.Group) {
	g.POST(
		"/v0/login", v.loginAccount,
		v.extractAuth(v.userAuth),
		v.requirePermission(perms.LoginRole),
	)
	g.POST(
		"/v0/logout", v.logoutAccount,
		v.extractAuth(v.sessionAuth),
		v.requirePermission(perms.LogoutRole),
	)
	g.DELETE(
		"/v0/sessions/:session", v.deleteSession,
		v.extractAuth(v.sessionAuth), v.extractSession,
		v.requirePermission(perms.DeleteSessionRole),
	)
}

// Session represents session.
type Session struct {
	ID         int64  `json:"id"`
	CreateTime int64  `json:"create_time,omitempty"`
	ExpireTime int64  `json:"expire_time,omitempty"`
	RealIP     string `json:"real_ip,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
}

// Sessions represents sessions response.
type Sessions struct {
	Sessions []Session `json:"sessions"`
}

func makeSession(session models.Session) Session {
	return Session{
		ID:         session.ID,
		CreateTime: session.CreateTime,
		ExpireTime: session.ExpireTime,
		RealIP:     session.RealIP,
		UserAgent:  session.UserAgent,
	}
}

const sessionDuration = 90 * 24 * time.Hour

// loginAccount creates a new session for account.
func (v *View) loginAccount(c echo.Context) error {
	accountCtx, ok := c.Get(accountCtxKey).(*managers.AccountContext)
	if !ok {
		return fmt.Errorf("account not extracted")
	}
	if user := accountCtx.User; user != nil {
		if user.Status == models.BlockedUser {
			return errorResponse{
				Code:    http.StatusForbidden,
				Message: localize(c, "Account is blocked."),
			}
		}
	}
	session := models.Session{
		AccountID:  accountCtx.Account.ID,
		CreateTime: getNow(c).Unix(),
		ExpireTime: getNow(c).Add(sessionDuration).Unix(),
		RealIP:     c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
	}
	if err := session.GenerateSecret(); err != nil {
		return err
	}
	if err := v.core.Sessions.Create(getContext(c), &session); err != nil {
		return err
	}
	cookie := session.Cookie()
	cookie.Name = sessionCookie
	cookie.Path = "/"
	c.SetCookie(&cookie)
	return c.JSON(http.StatusCreated, makeSession(session))
}

// logoutAccount removes current session.
func (v *View) logoutAccount(c echo.Context) error {
	session := c.Get(authSessionKey).(models.Session)
	if err := v.core.Sessions.Delete(getContext(c), session.ID); err != nil {
		return err
	}
	cookie := http.Cookie{Name: sessionCookie, Path: "/"}
	c.SetCookie(&cookie)
	return c.JSON(http.StatusOK, nil)
}

func (v *View) deleteSession(c echo.Context) error {
	session, ok := c.Get(sessionKey).(models.Session)
	if !ok {
		return fmt.Errorf("session not extracted")
	}
	if err := v.core.Sessions.Delete(getContext(c), session.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, makeSession(session))
}

func (v *View) extractSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("session"), 10, 64)
		if err != nil {
			c.Logger().Warn(err)
			return errorResponse{
				Code:    http.StatusBadRequest,
				Message: localize(c, "Invalid session ID."),
			}
		}
		if err := syncStore(c, v.core.Sessions); err != nil {
			return err
		}
		session, err := v.core.Sessions.Get(getContext(c), id)
		if err != nil {
			if err == sql.ErrNoRows {
				return errorResponse{
					Code:    http.StatusNotFound,
					Message: localize(c, "Session not found."),
				}
			}
			return err
		}
		accountCtx, ok := c.Get(accountCtxKey).(*managers.AccountContext)
		if !ok {
			return fmt.Errorf("account not extracted")
		}
		if account := accountCtx.Account; account == nil ||
			account.ID != session.AccountID {
			if !accountCtx.HasPermission(perms.ObserveSessionRole) {
				return errorResponse{
					Code:    http.StatusNotFound,
					Message: localize(c, "Session not found."),
				}
			}
		}
		c.Set(sessionKey, session)
		return next(c)
	}
}
