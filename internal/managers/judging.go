package managers

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/udovin/gosql"

	"github.com/hackdesk/hackdesk/internal/core"
	"github.com/hackdesk/hackdesk/internal/db"
	"github.com/hackdesk/hackdesk/internal/models"
)

var (
	ErrJudgingClosed   = fmt.Errorf("judging is closed")
	ErrScoreOutOfRange = fmt.Errorf("score is out of range")
	ErrRubricNotFound  = fmt.Errorf("rubric not found")
	ErrScoreNotFound   = fmt.Errorf("score not found")
)

type JudgingManager struct {
	core    *core.Core
	scores  *models.ScoreStore
	rubrics *models.RubricStore
	judges  *models.JudgeStore
	teams   *models.TeamStore
}

func NewJudgingManager(c *core.Core) *JudgingManager {
	return &JudgingManager{
		core:    c,
		scores:  c.Scores,
		rubrics: c.Rubrics,
		judges:  c.Judges,
		teams:   c.Teams,
	}
}

// SubmitScore creates or replaces the judge's own score
// for given team and rubric.
func (m *JudgingManager) SubmitScore(
	ctx *HackathonContext, teamID, rubricID int64, value float64,
) (models.Score, error) {
	if ctx.Judge == nil {
		return models.Score{}, fmt.Errorf("account is not a judge")
	}
	if !ctx.HackathonConfig.JudgingOpen {
		return models.Score{}, ErrJudgingClosed
	}
	return m.upsertScore(ctx, ctx.Judge.ID, teamID, rubricID, value)
}

// OverrideScore replaces a score of any judge on behalf of an organizer.
func (m *JudgingManager) OverrideScore(
	ctx *HackathonContext, judgeID, teamID, rubricID int64, value float64,
) (models.Score, error) {
	judge, err := m.judges.Get(ctx, judgeID)
	if err != nil {
		return models.Score{}, err
	}
	if judge.HackathonID != ctx.Hackathon.ID {
		return models.Score{}, fmt.Errorf("judge %d not found", judgeID)
	}
	return m.upsertScore(ctx, judge.ID, teamID, rubricID, value)
}

func (m *JudgingManager) upsertScore(
	ctx *HackathonContext, judgeID, teamID, rubricID int64, value float64,
) (models.Score, error) {
	rubric, err := m.rubrics.Get(ctx, rubricID)
	if err != nil || rubric.HackathonID != ctx.Hackathon.ID {
		return models.Score{}, ErrRubricNotFound
	}
	if value < 0 || value > rubric.MaxScore {
		return models.Score{}, ErrScoreOutOfRange
	}
	team, err := m.teams.Get(ctx, teamID)
	if err != nil || team.HackathonID != ctx.Hackathon.ID {
		return models.Score{}, ErrTeamNotFound
	}
	score := models.Score{
		HackathonID: ctx.Hackathon.ID,
		TeamID:      teamID,
		JudgeID:     judgeID,
		RubricID:    rubricID,
		Value:       value,
		CreateTime:  models.GetNow(ctx).Unix(),
	}
	if err := m.core.WrapTx(ctx, func(ctx context.Context) error {
		prev, err := m.findScore(ctx, teamID, judgeID, rubricID)
		if err == nil {
			score.ID = prev.ID
			score.CreateTime = prev.CreateTime
			return m.scores.Update(ctx, score)
		}
		if err != sql.ErrNoRows {
			return err
		}
		return m.scores.Create(ctx, &score)
	}, sqlRepeatableRead); err != nil {
		return models.Score{}, err
	}
	return score, nil
}

// DeleteScore removes a score of any judge on behalf of an organizer.
func (m *JudgingManager) DeleteScore(ctx *HackathonContext, id int64) error {
	return m.core.WrapTx(ctx, func(txCtx context.Context) error {
		score, err := m.scores.FindOne(txCtx, db.FindQuery{
			Where: gosql.Column("id").Equal(id),
		})
		if err == sql.ErrNoRows {
			return ErrScoreNotFound
		}
		if err != nil {
			return err
		}
		if score.HackathonID != ctx.Hackathon.ID {
			return ErrScoreNotFound
		}
		return m.scores.Delete(txCtx, score.ID)
	}, sqlRepeatableRead)
}

func (m *JudgingManager) findScore(
	ctx context.Context, teamID, judgeID, rubricID int64,
) (models.Score, error) {
	return m.scores.FindOne(ctx, db.FindQuery{
		Where: gosql.Column("team_id").Equal(teamID).
			And(gosql.Column("judge_id").Equal(judgeID)).
			And(gosql.Column("rubric_id").Equal(rubricID)),
	})
}
