package api

import (
	"context"
	"time"

	"github.com/udovin/gosql"
	"golang.org/x/sync/errgroup"

	"github.com/hackdesk/hackdesk/internal/db"
	"github.com/hackdesk/hackdesk/internal/managers"
	"github.com/hackdesk/hackdesk/internal/models"
	"github.com/hackdesk/hackdesk/internal/pkg/logs"
)

func (v *View) StartDaemons() {
	v.core.StartTask("session_cleanup", v.sessionCleanupDaemon)
	v.core.StartTask("token_cleanup", v.tokenCleanupDaemon)
	v.core.StartTask("invite_attempt_cleanup", v.inviteAttemptCleanupDaemon)
	if v.files != nil {
		v.core.StartTask("file_cleanup", v.fileCleanupDaemon)
	}
	v.core.StartTask("leaderboard_warmup", v.leaderboardWarmupDaemon)
}

func (v *View) sessionCleanupDaemon(ctx context.Context) {
	cleanupTask := func() error {
		rows, err := v.core.Sessions.Find(ctx, db.FindQuery{
			Where: gosql.Column("expire_time").LessEqual(time.Now().Unix()),
		})
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			row := rows.Row()
			if err := v.core.Sessions.Delete(ctx, row.ID); err != nil {
				v.core.Logger().Warn(
					"Cannot remove expired session",
					logs.Any("id", row.ID),
					err,
				)
			}
			v.core.Logger().Info(
				"Removed expired session",
				logs.Any("id", row.ID),
				logs.Any("expire_time", row.ExpireTime),
			)
		}
		return rows.Err()
	}
	runHourly(ctx, func() {
		if err := cleanupTask(); err != nil {
			v.core.Logger().Warn("Sessions cleanup error", err)
		}
	})
}

func (v *View) tokenCleanupDaemon(ctx context.Context) {
	cleanupTask := func() error {
		rows, err := v.core.Tokens.Find(ctx, db.FindQuery{
			Where: gosql.Column("expire_time").LessEqual(time.Now().Unix()),
		})
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			row := rows.Row()
			if err := v.core.Tokens.Delete(ctx, row.ID); err != nil {
				v.core.Logger().Warn(
					"Cannot remove expired token",
					logs.Any("id", row.ID),
					err,
				)
			}
			v.core.Logger().Info(
				"Removed expired token",
				logs.Any("id", row.ID),
				logs.Any("expire_time", row.ExpireTime),
			)
		}
		return rows.Err()
	}
	runHourly(ctx, func() {
		if err := cleanupTask(); err != nil {
			v.core.Logger().Warn("Tokens cleanup error", err)
		}
	})
}

func (v *View) inviteAttemptCleanupDaemon(ctx context.Context) {
	cleanupTask := func() error {
		window := time.Now().Add(-24 * time.Hour).Unix()
		rows, err := v.core.InviteAttempts.Find(ctx, db.FindQuery{
			Where: gosql.Column("create_time").LessEqual(window),
		})
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			row := rows.Row()
			if err := v.core.InviteAttempts.Delete(ctx, row.ID); err != nil {
				v.core.Logger().Warn(
					"Cannot remove invite attempt",
					logs.Any("id", row.ID),
					err,
				)
			}
		}
		return rows.Err()
	}
	runHourly(ctx, func() {
		if err := cleanupTask(); err != nil {
			v.core.Logger().Warn("Invite attempts cleanup error", err)
		}
	})
}

// fileCleanupDaemon removes content of uploads that were never confirmed.
func (v *View) fileCleanupDaemon(ctx context.Context) {
	cleanupTask := func() error {
		rows, err := v.core.Files.Find(ctx, db.FindQuery{
			Where: gosql.Column("status").Equal(int64(models.PendingFile)).
				And(gosql.Column("expire_time").LessEqual(time.Now().Unix())),
		})
		if err != nil {
			return err
		}
		files, err := db.CollectRows(rows)
		if err != nil {
			return err
		}
		for _, file := range files {
			if err := v.files.DeleteFile(ctx, file.ID); err != nil {
				v.core.Logger().Warn(
					"Cannot remove expired file",
					logs.Any("id", file.ID),
					err,
				)
				continue
			}
			v.core.Logger().Info(
				"Removed expired file",
				logs.Any("id", file.ID),
			)
		}
		return nil
	}
	runHourly(ctx, func() {
		if err := cleanupTask(); err != nil {
			v.core.Logger().Warn("Files cleanup error", err)
		}
	})
}

// leaderboardWarmupDaemon keeps leaderboard cache of judged hackathons fresh.
func (v *View) leaderboardWarmupDaemon(ctx context.Context) {
	warmupTask := func() error {
		accountCtx, err := v.accounts.MakeContext(ctx, nil)
		if err != nil {
			return err
		}
		hackathons, err := v.core.Hackathons.All(ctx, 0, 0)
		if err != nil {
			return err
		}
		defer func() { _ = hackathons.Close() }()
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(4)
		for hackathons.Next() {
			hackathon := hackathons.Row()
			config, err := hackathon.GetConfig()
			if err != nil || !config.JudgingOpen {
				continue
			}
			group.Go(func() error {
				hackathonCtx, err := v.hackathons.BuildContext(
					accountCtx.Clone(groupCtx), hackathon,
				)
				if err != nil {
					return err
				}
				_, err = v.leaderboards.BuildLeaderboard(
					hackathonCtx, managers.BuildLeaderboardOptions{},
				)
				return err
			})
		}
		if err := hackathons.Err(); err != nil {
			_ = group.Wait()
			return err
		}
		return group.Wait()
	}
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := warmupTask(); err != nil {
				v.core.Logger().Warn("Leaderboard warmup error", err)
			}
		}
	}
}

func runHourly(ctx context.Context, task func()) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	task()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			task()
		}
	}
}
