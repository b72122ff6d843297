package core

import (
	"context"
	"reflect"
	"time"

	"github.com/hackdesk/hackdesk/internal/models"
)

// SetupAllStores prepares all stores.
func (c *Core) SetupAllStores() error {
	salt := ""
	if c.Config.Security != nil {
		salt = c.Config.Security.PasswordSalt
	}
	c.Settings = models.NewSettingStore(
		c.DB, "hackdesk_setting", "hackdesk_setting_event",
	)
	c.Files = models.NewFileStore(
		c.DB, "hackdesk_file", "hackdesk_file_event",
	)
	c.Roles = models.NewRoleStore(
		c.DB, "hackdesk_role", "hackdesk_role_event",
	)
	c.RoleEdges = models.NewRoleEdgeStore(
		c.DB, "hackdesk_role_edge", "hackdesk_role_edge_event",
	)
	c.Accounts = models.NewAccountStore(
		c.DB, "hackdesk_account", "hackdesk_account_event",
	)
	c.AccountRoles = models.NewAccountRoleStore(
		c.DB, "hackdesk_account_role", "hackdesk_account_role_event",
	)
	c.Sessions = models.NewSessionStore(
		c.DB, "hackdesk_session", "hackdesk_session_event",
	)
	c.Tokens = models.NewTokenStore(
		c.DB, "hackdesk_token", "hackdesk_token_event",
	)
	c.Users = models.NewUserStore(
		c.DB, "hackdesk_user", "hackdesk_user_event", salt,
	)
	c.Hackathons = models.NewHackathonStore(
		c.DB, "hackdesk_hackathon", "hackdesk_hackathon_event",
	)
	c.Rubrics = models.NewRubricStore(
		c.DB, "hackdesk_rubric", "hackdesk_rubric_event",
	)
	c.Judges = models.NewJudgeStore(
		c.DB, "hackdesk_judge", "hackdesk_judge_event",
	)
	c.Teams = models.NewTeamStore(
		c.DB, "hackdesk_team", "hackdesk_team_event",
	)
	c.TeamMembers = models.NewTeamMemberStore(
		c.DB, "hackdesk_team_member", "hackdesk_team_member_event",
	)
	c.Applications = models.NewApplicationStore(
		c.DB, "hackdesk_application", "hackdesk_application_event",
	)
	c.Projects = models.NewProjectStore(
		c.DB, "hackdesk_project", "hackdesk_project_event",
	)
	c.ProjectFiles = models.NewProjectFileStore(
		c.DB, "hackdesk_project_file", "hackdesk_project_file_event",
	)
	c.Scores = models.NewScoreStore(
		c.DB, "hackdesk_score", "hackdesk_score_event",
	)
	c.InviteAttempts = models.NewInviteAttemptStore(
		c.DB, "hackdesk_invite_attempt", "hackdesk_invite_attempt_event",
	)
	return nil
}

func (c *Core) startStores(start func(models.CachedStore, time.Duration)) {
	start(c.Settings, time.Second)
	start(c.Roles, time.Second)
	start(c.RoleEdges, time.Second)
	start(c.Accounts, time.Second)
	start(c.AccountRoles, time.Second)
	start(c.Sessions, time.Second)
	start(c.Users, time.Second)
	start(c.Hackathons, time.Second)
	start(c.Rubrics, time.Second)
	start(c.Judges, time.Second)
	start(c.Teams, time.Second)
	start(c.TeamMembers, time.Second)
	start(c.Applications, time.Second)
	start(c.Projects, time.Second)
	start(c.ProjectFiles, time.Second)
	start(c.Scores, time.Second)
}

func (c *Core) startStoreLoops() error {
	errs := make(chan error)
	count := 0
	c.startStores(func(s models.CachedStore, d time.Duration) {
		if isNilStore(s) {
			return
		}
		count++
		c.waiter.Add(1)
		go c.runStoreLoop(s, d, errs)
	})
	var err error
	for i := 0; i < count; i++ {
		if lastErr := <-errs; lastErr != nil {
			c.Logger().Error("Cannot init store", lastErr)
			err = lastErr
		}
	}
	return err
}

func (c *Core) runStoreLoop(
	s models.CachedStore, d time.Duration, errs chan<- error,
) {
	defer c.waiter.Done()
	err := s.Init(c.context)
	errs <- err
	if err != nil {
		return
	}
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-c.context.Done():
			return
		case <-ticker.C:
			if err := s.Sync(c.context); err != nil && err != context.Canceled {
				c.Logger().Error("Cannot sync store", err)
			}
		}
	}
}

func isNilStore(s models.CachedStore) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
