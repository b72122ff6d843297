package models

import (
	"context"

	"github.com/udovin/gosql"

	"github.com/hackdesk/hackdesk/internal/db"
)

// Score represents a score given by judge to team for one rubric.
type Score struct {
	baseObject
	// HackathonID contains ID of hackathon.
	HackathonID int64 `db:"hackathon_id"`
	// TeamID contains ID of team.
	TeamID int64 `db:"team_id"`
	// JudgeID contains ID of judge.
	JudgeID int64 `db:"judge_id"`
	// RubricID contains ID of rubric.
	RubricID int64 `db:"rubric_id"`
	// Value contains raw score value before applying weight.
	Value float64 `db:"value"`
	// CreateTime contains time when score was given.
	CreateTime int64 `db:"create_time"`
}

// Clone creates copy of score.
func (o Score) Clone() Score {
	return o
}

// ScoreEvent represents a score event.
type ScoreEvent struct {
	baseEvent
	Score
}

// Object returns event score.
func (e ScoreEvent) Object() Score {
	return e.Score
}

// SetObject sets event score.
func (e *ScoreEvent) SetObject(o Score) {
	e.Score = o
}

// ScoreStore represents store for scores.
type ScoreStore struct {
	cachedStore[Score, ScoreEvent, *Score, *ScoreEvent]
	byHackathon *btreeIndex[int64, Score, *Score]
	byTeamJudge *btreeIndex[pair[int64, int64], Score, *Score]
}

// FindByHackathon returns scores by hackathon ID.
func (s *ScoreStore) FindByHackathon(ctx context.Context, hackathonID ...int64) (db.Rows[Score], error) {
	s.mutex.RLock()
	return btreeIndexFind(
		s.byHackathon,
		s.objects.Iter(),
		s.mutex.RLocker(),
		hackathonID,
		0,
	), nil
}

// FindByTeamJudge returns scores by team and judge.
func (s *ScoreStore) FindByTeamJudge(
	ctx context.Context, teamID int64, judgeID int64,
) (db.Rows[Score], error) {
	s.mutex.RLock()
	return btreeIndexFind(
		s.byTeamJudge,
		s.objects.Iter(),
		s.mutex.RLocker(),
		[]pair[int64, int64]{makePair(teamID, judgeID)},
		0,
	), nil
}

// NewScoreStore creates a new instance of ScoreStore.
func NewScoreStore(
	db *gosql.DB, table, eventTable string,
) *ScoreStore {
	impl := &ScoreStore{
		byHackathon: newBTreeIndex(func(o Score) (int64, bool) { return o.HackathonID, true }, lessInt64),
		byTeamJudge: newBTreeIndex(func(o Score) (pair[int64, int64], bool) {
			return makePair(o.TeamID, o.JudgeID), true
		}, lessPairInt64),
	}
	impl.cachedStore = makeCachedStore[Score, ScoreEvent](
		db, table, eventTable, impl, impl.byHackathon, impl.byTeamJudge,
	)
	return impl
}
