package managers

import (
	"database/sql"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/hackdesk/hackdesk/internal/core"
	"github.com/hackdesk/hackdesk/internal/db"
	"github.com/hackdesk/hackdesk/internal/models"
	"github.com/hackdesk/hackdesk/internal/perms"
)

// LeaderboardSheet contains scores of one judge for one team.
type LeaderboardSheet struct {
	Judge    models.Judge
	Scores   []models.Score
	Total    float64
	Complete bool
}

type LeaderboardRow struct {
	Team    models.Team
	Project *models.Project
	Sheets  []LeaderboardSheet
	// Total contains mean of complete sheet totals.
	Total float64
	// SheetCount contains amount of complete sheets.
	SheetCount int
	Place      int
}

type Leaderboard struct {
	Rows  []LeaderboardRow
	Stage HackathonStage
}

type LeaderboardManager struct {
	teams    *models.TeamStore
	rubrics  *models.RubricStore
	judges   *models.JudgeStore
	scores   *models.ScoreStore
	projects *models.ProjectStore
	settings *models.SettingStore
	cache    map[leaderboardCacheKey]*leaderboardCache
	mutex    sync.Mutex
}

func NewLeaderboardManager(core *core.Core) *LeaderboardManager {
	return &LeaderboardManager{
		teams:    core.Teams,
		rubrics:  core.Rubrics,
		judges:   core.Judges,
		scores:   core.Scores,
		projects: core.Projects,
		settings: core.Settings,
		cache:    map[leaderboardCacheKey]*leaderboardCache{},
	}
}

type BuildLeaderboardOptions struct {
	// OnlySubmitted drops teams without submitted project.
	OnlySubmitted bool
}

func (m *LeaderboardManager) BuildLeaderboard(
	ctx *HackathonContext, options BuildLeaderboardOptions,
) (*Leaderboard, error) {
	leaderboard, err := m.buildLeaderboard(ctx, options)
	if err == nil {
		leaderboard = m.processLeaderboard(ctx, options, leaderboard)
	}
	return leaderboard, err
}

func (m *LeaderboardManager) processLeaderboard(
	ctx *HackathonContext, options BuildLeaderboardOptions, leaderboard *Leaderboard,
) *Leaderboard {
	processed := Leaderboard{
		Stage: leaderboard.Stage,
	}
	observeFull := ctx.HasPermission(perms.ObserveFullLeaderboardRole)
	for _, row := range leaderboard.Rows {
		if options.OnlySubmitted && row.Project == nil {
			continue
		}
		if !observeFull {
			// Per judge details are visible only to organizers and judges.
			row.Sheets = nil
		}
		processed.Rows = append(processed.Rows, row)
	}
	calculatePlaces(processed.Rows)
	return &processed
}

func (m *LeaderboardManager) buildLeaderboard(
	ctx *HackathonContext, options BuildLeaderboardOptions,
) (*Leaderboard, error) {
	useCache, err := m.settings.GetBool("leaderboard.use_cache")
	if err != nil || !useCache.OrElse(true) {
		return m.doBuildLeaderboard(ctx, options)
	}
	key := leaderboardCacheKey{
		HackathonID: ctx.Hackathon.ID,
	}
	m.mutex.Lock()
	cache, ok := m.cache[key]
	if ok {
		select {
		case <-cache.Done:
			if cache.Error == nil && time.Since(cache.Time) < 15*time.Second {
				m.mutex.Unlock()
				return cache.Leaderboard, nil
			}
		default:
			m.mutex.Unlock()
			<-cache.Done
			return cache.Leaderboard, cache.Error
		}
	}
	done := make(chan struct{})
	defer close(done)
	cache = &leaderboardCache{Done: done, Time: ctx.Now}
	m.cache[key] = cache
	m.mutex.Unlock()
	cache.Leaderboard, cache.Error = m.doBuildLeaderboard(ctx, options)
	return cache.Leaderboard, cache.Error
}

type leaderboardCache struct {
	Done        <-chan struct{}
	Time        time.Time
	Leaderboard *Leaderboard
	Error       error
}

type leaderboardCacheKey struct {
	HackathonID int64
}

func (m *LeaderboardManager) doBuildLeaderboard(
	ctx *HackathonContext, options BuildLeaderboardOptions,
) (*Leaderboard, error) {
	rubricRows, err := m.rubrics.FindByHackathon(ctx, ctx.Hackathon.ID)
	if err != nil {
		return nil, err
	}
	rubrics, err := db.CollectRows(rubricRows)
	if err != nil {
		return nil, err
	}
	rubricByID := map[int64]models.Rubric{}
	for _, rubric := range rubrics {
		rubricByID[rubric.ID] = rubric
	}
	teamRows, err := m.teams.FindByHackathon(ctx, ctx.Hackathon.ID)
	if err != nil {
		return nil, err
	}
	teams, err := db.CollectRows(teamRows)
	if err != nil {
		return nil, err
	}
	judgeRows, err := m.judges.FindByHackathon(ctx, ctx.Hackathon.ID)
	if err != nil {
		return nil, err
	}
	judges, err := db.CollectRows(judgeRows)
	if err != nil {
		return nil, err
	}
	judgeByID := map[int64]models.Judge{}
	for _, judge := range judges {
		judgeByID[judge.ID] = judge
	}
	type sheetKey struct {
		TeamID  int64
		JudgeID int64
	}
	scoresBySheet := map[sheetKey][]models.Score{}
	if err := func() error {
		scores, err := m.scores.FindByHackathon(ctx, ctx.Hackathon.ID)
		if err != nil {
			return err
		}
		defer func() { _ = scores.Close() }()
		for scores.Next() {
			score := scores.Row()
			if _, ok := rubricByID[score.RubricID]; !ok {
				// Scores of deleted rubrics do not participate.
				continue
			}
			key := sheetKey{TeamID: score.TeamID, JudgeID: score.JudgeID}
			scoresBySheet[key] = append(scoresBySheet[key], score)
		}
		return scores.Err()
	}(); err != nil {
		return nil, err
	}
	leaderboard := Leaderboard{Stage: ctx.Stage}
	for _, team := range teams {
		row := LeaderboardRow{Team: team}
		if project, err := m.projects.GetByTeam(ctx, team.ID); err == nil {
			if project.Submitted() {
				row.Project = &project
			}
		} else if err != sql.ErrNoRows {
			return nil, err
		}
		var totalSum float64
		for _, judge := range judges {
			scores := scoresBySheet[sheetKey{TeamID: team.ID, JudgeID: judge.ID}]
			if len(scores) == 0 {
				continue
			}
			sheet := LeaderboardSheet{Judge: judge, Scores: scores}
			scoredRubrics := map[int64]struct{}{}
			for _, score := range scores {
				rubric := rubricByID[score.RubricID]
				sheet.Total += score.Value * rubric.Weight
				scoredRubrics[score.RubricID] = struct{}{}
			}
			// Sheet is complete only if judge scored every rubric.
			sheet.Complete = len(scoredRubrics) == len(rubrics)
			if sheet.Complete {
				totalSum += sheet.Total
				row.SheetCount++
			}
			row.Sheets = append(row.Sheets, sheet)
		}
		if row.SheetCount > 0 {
			row.Total = totalSum / float64(row.SheetCount)
		}
		leaderboard.Rows = append(leaderboard.Rows, row)
	}
	sort.SliceStable(leaderboard.Rows, func(i, j int) bool {
		return leaderboardRowLess(leaderboard.Rows[i], leaderboard.Rows[j])
	})
	return &leaderboard, nil
}

func leaderboardRowLess(lhs, rhs LeaderboardRow) bool {
	if lhs.Total != rhs.Total {
		return lhs.Total > rhs.Total
	}
	lhsSubmit := leaderboardSubmitTime(lhs)
	rhsSubmit := leaderboardSubmitTime(rhs)
	if lhsSubmit != rhsSubmit {
		return lhsSubmit < rhsSubmit
	}
	return lhs.Team.ID < rhs.Team.ID
}

func leaderboardSubmitTime(row LeaderboardRow) int64 {
	if row.Project == nil {
		return math.MaxInt64
	}
	return int64(row.Project.SubmitTime)
}

func calculatePlaces(rows []LeaderboardRow) {
	it := -1
	place := 1
	for i := range rows {
		rows[i].Place = place
		place++
		if it >= 0 && rows[it].Total == rows[i].Total {
			rows[i].Place = rows[it].Place
		}
		it = i
	}
}
