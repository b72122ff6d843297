package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"
	"unicode"

	"github.com/labstack/echo/v4"

	"github.com/hackdesk/hackdesk/internal/managers"
	"github.com/hackdesk/hackdesk/internal/models"
	"github.com/hackdesk/hackdesk/internal/perms"
	"github.com/hackdesk/hackdesk/internal/pkg/logs"
)

// registerUserHandlers registers handlers for user management.
func (v *View) registerUserHandlers(g *echo.Group) {
	g.POST(
		"/v0/register", v.registerUser,
		v.extractAuth(v.sessionAuth, v.guestAuth),
		v.requirePermission(perms.RegisterRole),
	)
	g.GET(
		"/v0/status", v.status,
		v.extractAuth(v.sessionAuth, v.guestAuth),
		v.requirePermission(perms.StatusRole),
	)
	g.GET(
		"/v0/users/:user", v.observeUser,
		v.extractAuth(v.sessionAuth, v.guestAuth), v.extractUser,
		v.requirePermission(perms.ObserveUserRole),
	)
	g.PATCH(
		"/v0/users/:user", v.updateUser,
		v.extractAuth(v.sessionAuth), v.extractUser,
		v.requirePermission(perms.UpdateUserRole),
	)
	g.POST(
		"/v0/users/:user/password", v.updateUserPassword,
		v.extractAuth(v.sessionAuth), v.extractUser,
		v.requirePermission(perms.UpdateUserPasswordRole),
	)
	g.GET(
		"/v0/users/:user/sessions", v.observeUserSessions,
		v.extractAuth(v.sessionAuth), v.extractUser,
		v.requirePermission(perms.ObserveUserSessionsRole),
	)
	g.POST(
		"/v0/password-reset", v.resetUserPassword,
		v.extractAuth(v.guestAuth),
		v.requirePermission(perms.ResetPasswordRole),
	)
}

// User represents user.
type User struct {
	ID          int64    `json:"id"`
	Login       string   `json:"login"`
	Status      string   `json:"status,omitempty"`
	Email       string   `json:"email,omitempty"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// Status represents current authorization status.
type Status struct {
	Session     *Session `json:"session,omitempty"`
	User        *User    `json:"user,omitempty"`
	Permissions []string `json:"permissions"`
	Locale      string   `json:"locale,omitempty"`
}

var userPermissions = []string{
	perms.UpdateUserRole,
	perms.UpdateUserPasswordRole,
	perms.UpdateUserEmailRole,
	perms.UpdateUserStatusRole,
	perms.ObserveUserSessionsRole,
}

func makeUser(user models.User, permissions perms.Permissions) User {
	resp := User{ID: user.ID, Login: user.Login}
	if permissions.HasPermission(perms.ObserveUserEmailRole) {
		resp.Email = string(user.Email)
	}
	if permissions.HasPermission(perms.ObserveUserFirstNameRole) {
		resp.FirstName = string(user.FirstName)
	}
	if permissions.HasPermission(perms.ObserveUserLastNameRole) {
		resp.LastName = string(user.LastName)
	}
	for _, permission := range userPermissions {
		if permissions.HasPermission(permission) {
			resp.Permissions = append(resp.Permissions, permission)
		}
	}
	return resp
}

func (v *View) getUserPermissions(
	ctx *managers.AccountContext, user models.User,
) perms.PermissionSet {
	permissions := ctx.Permissions.Clone()
	if account := ctx.Account; account != nil && account.ID == user.AccountID {
		permissions.AddPermission(
			perms.ObserveUserEmailRole,
			perms.ObserveUserFirstNameRole,
			perms.ObserveUserLastNameRole,
			perms.ObserveUserSessionsRole,
			perms.UpdateUserRole,
			perms.UpdateUserPasswordRole,
			perms.UpdateUserEmailRole,
			perms.UpdateUserFirstNameRole,
			perms.UpdateUserLastNameRole,
		)
	}
	return permissions
}

var loginRegexp = regexp.MustCompile(
	`^[a-zA-Z]([a-zA-Z0-9_\-])*[a-zA-Z0-9]$`,
)

var emailRegexp = regexp.MustCompile(
	"^[a-zA-Z0-9_.+\\-]+@[a-zA-Z0-9\\-]+(\\.[a-zA-Z0-9\\-]+)+$",
)

func validateLogin(c echo.Context, errors errorFields, login string) {
	if len(login) < 3 {
		errors["login"] = errorField{
			Message: localize(c, "Login is too short."),
		}
	} else if len(login) > 20 {
		errors["login"] = errorField{
			Message: localize(c, "Login is too long."),
		}
	} else if !loginRegexp.MatchString(login) {
		errors["login"] = errorField{
			Message: localize(c, "Login has invalid format."),
		}
	}
}

func validateEmail(c echo.Context, errors errorFields, email string) {
	if len(email) < 3 {
		errors["email"] = errorField{
			Message: localize(c, "Email is too short."),
		}
	} else if len(email) > 254 {
		errors["email"] = errorField{
			Message: localize(c, "Email is too long."),
		}
	} else if !emailRegexp.MatchString(email) {
		errors["email"] = errorField{
			Message: localize(c, "Email has invalid format."),
		}
	}
}

func validatePassword(c echo.Context, errors errorFields, password string) {
	if len(password) < 6 {
		errors["password"] = errorField{
			Message: localize(c, "Password is too short."),
		}
	} else if len(password) > 32 {
		errors["password"] = errorField{
			Message: localize(c, "Password is too long."),
		}
	}
}

type registerUserForm struct {
	Login     string  `json:"login"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (f registerUserForm) Update(
	c echo.Context, user *models.User, store *models.UserStore,
) error {
	errors := errorFields{}
	validateLogin(c, errors, f.Login)
	validateEmail(c, errors, f.Email)
	validatePassword(c, errors, f.Password)
	if f.FirstName != nil && len(*f.FirstName) > 0 {
		validateUserName(c, errors, *f.FirstName, "first_name")
	}
	if f.LastName != nil && len(*f.LastName) > 0 {
		validateUserName(c, errors, *f.LastName, "last_name")
	}
	if len(errors) > 0 {
		return errorResponse{
			Code:          http.StatusBadRequest,
			Message:       localize(c, "Form has invalid fields."),
			InvalidFields: errors,
		}
	}
	if _, err := store.GetByLogin(getContext(c), f.Login); err != sql.ErrNoRows {
		if err != nil {
			return err
		}
		return errorResponse{
			Code: http.StatusBadRequest,
			Message: localize(
				c, "User with login \"{login}\" already exists.",
				replaceField("login", f.Login),
			),
		}
	}
	user.Login = f.Login
	user.Email = NString(f.Email)
	if f.FirstName != nil {
		user.FirstName = NString(*f.FirstName)
	}
	if f.LastName != nil {
		user.LastName = NString(*f.LastName)
	}
	return store.SetPassword(user, f.Password)
}

func validateUserName(c echo.Context, errors errorFields, name string, field string) {
	if len(name) < 2 {
		errors[field] = errorField{
			Message: localize(c, "Name is too short."),
		}
		return
	}
	if len(name) > 32 {
		errors[field] = errorField{
			Message: localize(c, "Name is too long."),
		}
		return
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && r != '-' && r != '\'' && r != ' ' {
			errors[field] = errorField{
				Message: localize(c, "Name has invalid format."),
			}
			return
		}
	}
}

func (v *View) registerUser(c echo.Context) error {
	var form registerUserForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Invalid form."),
		}
	}
	if err := syncStore(c, v.core.Users); err != nil {
		return err
	}
	var user models.User
	if err := form.Update(c, &user, v.core.Users); err != nil {
		return err
	}
	user.Status = models.PendingUser
	if v.mail == nil {
		// Without mail delivery there is no way to confirm an email.
		user.Status = models.ActiveUser
	}
	var token models.Token
	if err := v.core.WrapTx(getContext(c), func(ctx context.Context) error {
		account := models.Account{Kind: models.UserAccountKind}
		if err := v.core.Accounts.Create(ctx, &account); err != nil {
			return err
		}
		user.AccountID = account.ID
		if err := v.core.Users.Create(ctx, &user); err != nil {
			return err
		}
		if user.Status == models.PendingUser {
			token = models.Token{
				AccountID:  account.ID,
				Kind:       models.ConfirmEmailToken,
				CreateTime: getNow(c).Unix(),
				ExpireTime: getNow(c).Add(3 * 24 * time.Hour).Unix(),
			}
			if err := token.SetConfig(models.ConfirmEmailTokenConfig{
				Email: string(user.Email),
			}); err != nil {
				return err
			}
			if err := token.GenerateSecret(); err != nil {
				return err
			}
			return v.core.Tokens.Create(ctx, &token)
		}
		return nil
	}, sqlRepeatableRead); err != nil {
		return err
	}
	if token.ID != 0 && v.mail != nil {
		if err := v.mail.SendMail(
			string(user.Email),
			localize(c, "Email confirmation"),
			fmt.Sprintf("Token ID: %d, secret: %s", token.ID, token.Secret),
		); err != nil {
			c.Logger().Error("Unable to send confirmation email", err)
		}
	}
	return c.JSON(http.StatusCreated, User{
		ID:    user.ID,
		Login: user.Login,
	})
}

func (v *View) status(c echo.Context) error {
	status := Status{}
	if session, ok := c.Get(authSessionKey).(models.Session); ok {
		status.Session = getPtr(makeSession(session))
	}
	accountCtx, ok := c.Get(accountCtxKey).(*managers.AccountContext)
	if !ok {
		return fmt.Errorf("account not extracted")
	}
	if user := accountCtx.User; user != nil {
		permissions := v.getUserPermissions(accountCtx, *user)
		status.User = getPtr(makeUser(*user, permissions))
	}
	status.Permissions = accountCtx.GetPermissions()
	status.Locale = getLocale(c).Name()
	return c.JSON(http.StatusOK, status)
}

func (v *View) observeUser(c echo.Context) error {
	user, ok := c.Get(userKey).(models.User)
	if !ok {
		return fmt.Errorf("user not extracted")
	}
	accountCtx, ok := c.Get(accountCtxKey).(*managers.AccountContext)
	if !ok {
		return fmt.Errorf("account not extracted")
	}
	permissions := v.getUserPermissions(accountCtx, user)
	return c.JSON(http.StatusOK, makeUser(user, permissions))
}

type updateUserForm struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (v *View) updateUser(c echo.Context) error {
	user, ok := c.Get(userKey).(models.User)
	if !ok {
		return fmt.Errorf("user not extracted")
	}
	accountCtx, ok := c.Get(accountCtxKey).(*managers.AccountContext)
	if !ok {
		return fmt.Errorf("account not extracted")
	}
	permissions := v.getUserPermissions(accountCtx, user)
	var form updateUserForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Invalid form."),
		}
	}
	errors := errorFields{}
	var missingPermissions []string
	if form.FirstName != nil {
		if !permissions.HasPermission(perms.UpdateUserFirstNameRole) {
			missingPermissions = append(missingPermissions, perms.UpdateUserFirstNameRole)
		} else if len(*form.FirstName) > 0 {
			validateUserName(c, errors, *form.FirstName, "first_name")
		}
	}
	if form.LastName != nil {
		if !permissions.HasPermission(perms.UpdateUserLastNameRole) {
			missingPermissions = append(missingPermissions, perms.UpdateUserLastNameRole)
		} else if len(*form.LastName) > 0 {
			validateUserName(c, errors, *form.LastName, "last_name")
		}
	}
	if len(missingPermissions) > 0 {
		return errorResponse{
			Code:               http.StatusForbidden,
			Message:            localize(c, "Account missing permissions."),
			MissingPermissions: missingPermissions,
		}
	}
	if len(errors) > 0 {
		return errorResponse{
			Code:          http.StatusBadRequest,
			Message:       localize(c, "Form has invalid fields."),
			InvalidFields: errors,
		}
	}
	if form.FirstName != nil {
		user.FirstName = NString(*form.FirstName)
	}
	if form.LastName != nil {
		user.LastName = NString(*form.LastName)
	}
	if err := v.core.Users.Update(getContext(c), user); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, makeUser(user, permissions))
}

type updatePasswordForm struct {
	OldPassword string `json:"old_password"`
	Password    string `json:"password"`
}

func (v *View) updateUserPassword(c echo.Context) error {
	user, ok := c.Get(userKey).(models.User)
	if !ok {
		return fmt.Errorf("user not extracted")
	}
	accountCtx, ok := c.Get(accountCtxKey).(*managers.AccountContext)
	if !ok {
		return fmt.Errorf("account not extracted")
	}
	var form updatePasswordForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Invalid form."),
		}
	}
	errors := errorFields{}
	validatePassword(c, errors, form.Password)
	if len(errors) > 0 {
		return errorResponse{
			Code:          http.StatusBadRequest,
			Message:       localize(c, "Form has invalid fields."),
			InvalidFields: errors,
		}
	}
	if account := accountCtx.Account; account != nil && account.ID == user.AccountID {
		if !v.core.Users.CheckPassword(user, form.OldPassword) {
			return errorResponse{
				Code:    http.StatusBadRequest,
				Message: localize(c, "Invalid password."),
			}
		}
	}
	if err := v.core.Users.SetPassword(&user, form.Password); err != nil {
		return err
	}
	if err := v.core.Users.Update(getContext(c), user); err != nil {
		return err
	}
	permissions := v.getUserPermissions(accountCtx, user)
	return c.JSON(http.StatusOK, makeUser(user, permissions))
}

func (v *View) observeUserSessions(c echo.Context) error {
	user, ok := c.Get(userKey).(models.User)
	if !ok {
		return fmt.Errorf("user not extracted")
	}
	sessions, err := v.core.Sessions.FindByAccount(user.AccountID)
	if err != nil {
		return err
	}
	var resp Sessions
	for _, session := range sessions {
		resp.Sessions = append(resp.Sessions, makeSession(session))
	}
	sortFunc(resp.Sessions, sessionGreater)
	return c.JSON(http.StatusOK, resp)
}

type resetPasswordForm struct {
	Login string `json:"login"`
}

const resetPasswordTokens = 2

func (v *View) resetUserPassword(c echo.Context) error {
	if v.mail == nil {
		return errorResponse{
			Code:    http.StatusNotFound,
			Message: localize(c, "Password reset is not available."),
		}
	}
	var form resetPasswordForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Invalid form."),
		}
	}
	ctx := getContext(c)
	user, err := v.core.Users.GetByLogin(ctx, form.Login)
	if err != nil {
		if err == sql.ErrNoRows {
			return errorResponse{
				Code:    http.StatusNotFound,
				Message: localize(c, "User not found."),
			}
		}
		return err
	}
	if len(user.Email) == 0 {
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "User has no confirmed email."),
		}
	}
	count, err := v.core.Tokens.GetCountTokens(
		ctx, user.AccountID, models.ResetPasswordToken, resetPasswordTokens,
	)
	if err != nil {
		return err
	}
	if count >= resetPasswordTokens {
		return errorResponse{
			Code:    http.StatusTooManyRequests,
			Message: localize(c, "Too many password reset requests."),
		}
	}
	token := models.Token{
		AccountID:  user.AccountID,
		Kind:       models.ResetPasswordToken,
		CreateTime: getNow(c).Unix(),
		ExpireTime: getNow(c).Add(24 * time.Hour).Unix(),
	}
	if err := token.GenerateSecret(); err != nil {
		return err
	}
	if err := v.core.Tokens.Create(ctx, &token); err != nil {
		return err
	}
	if err := v.mail.SendMail(
		string(user.Email),
		localize(c, "Password reset"),
		fmt.Sprintf("Token ID: %d, secret: %s", token.ID, token.Secret),
	); err != nil {
		c.Logger().Error("Unable to send password reset email", err)
	}
	return c.JSON(http.StatusOK, nil)
}

func (v *View) extractUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		login := c.Param("user")
		if err := syncStore(c, v.core.Users); err != nil {
			return err
		}
		user, err := getUserByParam(c, v.core.Users, login)
		if err == sql.ErrNoRows {
			return errorResponse{
				Code: http.StatusNotFound,
				Message: localize(
					c, "User \"{login}\" not found.",
					replaceField("login", login),
				),
			}
		} else if err != nil {
			c.Logger().Error(err, logs.Any("login", login))
			return err
		}
		c.Set(userKey, user)
		return next(c)
	}
}

func getUserByParam(
	c echo.Context, users *models.UserStore, login string,
) (models.User, error) {
	ctx := getContext(c)
	if id, err := strconv.ParseInt(login, 10, 64); err == nil {
		user, err := users.Get(ctx, id)
		if err != sql.ErrNoRows {
			return user, err
		}
	}
	return users.GetByLogin(ctx, login)
}

func sessionGreater(a, b Session) bool {
	return a.ID > b.ID
}
