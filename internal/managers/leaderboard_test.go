package managers

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/hackdesk/hackdesk/internal/models"
	"github.com/hackdesk/hackdesk/internal/perms"
)

func testCreateTeamWithLeader(
	tb testing.TB, hackathon models.Hackathon, name string, login string,
) models.Team {
	account, _ := testCreateUser(tb, login)
	teams := NewTeamManager(testCore)
	ctx := testHackathonContext(tb, &account, hackathon)
	team := models.Team{Name: name}
	if _, err := teams.CreateTeam(ctx, &team); err != nil {
		tb.Fatal("Error:", err)
	}
	testSyncStores(tb)
	return team
}

func testCreateJudge(
	tb testing.TB, hackathon models.Hackathon, login string,
) models.Judge {
	account, _ := testCreateUser(tb, login)
	judge := models.Judge{
		HackathonID: hackathon.ID,
		AccountID:   account.ID,
	}
	if err := testCore.Judges.Create(context.Background(), &judge); err != nil {
		tb.Fatal("Error:", err)
	}
	testSyncStores(tb)
	return judge
}

func testCreateRubric(
	tb testing.TB, hackathon models.Hackathon, title string, weight, maxScore float64,
) models.Rubric {
	rubric := models.Rubric{
		HackathonID: hackathon.ID,
		Title:       title,
		Weight:      weight,
		MaxScore:    maxScore,
	}
	if err := testCore.Rubrics.Create(context.Background(), &rubric); err != nil {
		tb.Fatal("Error:", err)
	}
	testSyncStores(tb)
	return rubric
}

func testCreateScore(
	tb testing.TB, hackathon models.Hackathon,
	team models.Team, judge models.Judge, rubric models.Rubric, value float64,
) {
	score := models.Score{
		HackathonID: hackathon.ID,
		TeamID:      team.ID,
		JudgeID:     judge.ID,
		RubricID:    rubric.ID,
		Value:       value,
	}
	if err := testCore.Scores.Create(context.Background(), &score); err != nil {
		tb.Fatal("Error:", err)
	}
	testSyncStores(tb)
}

func testDisableLeaderboardCache(tb testing.TB) {
	setting := models.Setting{
		Key:   "leaderboard.use_cache",
		Value: "false",
	}
	if err := testCore.Settings.Create(context.Background(), &setting); err != nil {
		tb.Fatal("Error:", err)
	}
	testSyncStores(tb)
}

func TestLeaderboardAggregation(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	testDisableLeaderboardCache(t)
	now := time.Now().Unix()
	hackathon := testCreateHackathon(t, "Aggregation", models.HackathonConfig{
		BeginTime:   models.NInt64(now - 3600),
		EndTime:     models.NInt64(now + 3600),
		JudgingOpen: true,
	})
	design := testCreateRubric(t, hackathon, "Design", 1, 10)
	impact := testCreateRubric(t, hackathon, "Impact", 2, 10)
	judge := testCreateJudge(t, hackathon, "judge1")
	partial := testCreateJudge(t, hackathon, "judge2")
	alpha := testCreateTeamWithLeader(t, hackathon, "Alpha", "alpha")
	beta := testCreateTeamWithLeader(t, hackathon, "Beta", "beta")
	// Complete sheet: 7*1 + 5*2 = 17.
	testCreateScore(t, hackathon, alpha, judge, design, 7)
	testCreateScore(t, hackathon, alpha, judge, impact, 5)
	// Incomplete sheet does not participate in total.
	testCreateScore(t, hackathon, alpha, partial, design, 10)
	// Complete sheet: 6*1 + 6*2 = 18.
	testCreateScore(t, hackathon, beta, judge, design, 6)
	testCreateScore(t, hackathon, beta, judge, impact, 6)
	leaderboards := NewLeaderboardManager(testCore)
	organizer, _ := testCreateUser(t, "organizer")
	ctx := testHackathonContext(t, &organizer, hackathon)
	ctx.Permissions.AddPermission(perms.ObserveFullLeaderboardRole)
	leaderboard, err := leaderboards.BuildLeaderboard(
		ctx, BuildLeaderboardOptions{},
	)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if len(leaderboard.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(leaderboard.Rows))
	}
	first := leaderboard.Rows[0]
	second := leaderboard.Rows[1]
	if first.Team.ID != beta.ID {
		t.Fatalf("Expected %q first, got %q", beta.Name, first.Team.Name)
	}
	if math.Abs(first.Total-18) > 1e-9 {
		t.Fatalf("Expected total 18, got %v", first.Total)
	}
	if first.Place != 1 {
		t.Fatalf("Expected place 1, got %d", first.Place)
	}
	if second.Team.ID != alpha.ID {
		t.Fatalf("Expected %q second, got %q", alpha.Name, second.Team.Name)
	}
	if math.Abs(second.Total-17) > 1e-9 {
		t.Fatalf("Expected total 17, got %v", second.Total)
	}
	if second.SheetCount != 1 {
		t.Fatalf("Expected 1 complete sheet, got %d", second.SheetCount)
	}
	if len(second.Sheets) != 2 {
		t.Fatalf("Expected 2 sheets, got %d", len(second.Sheets))
	}
	if second.Place != 2 {
		t.Fatalf("Expected place 2, got %d", second.Place)
	}
}

func TestLeaderboardSharedPlaces(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	testDisableLeaderboardCache(t)
	now := time.Now().Unix()
	hackathon := testCreateHackathon(t, "Shared places", models.HackathonConfig{
		BeginTime:   models.NInt64(now - 3600),
		EndTime:     models.NInt64(now + 3600),
		JudgingOpen: true,
	})
	rubric := testCreateRubric(t, hackathon, "Overall", 1, 10)
	judge := testCreateJudge(t, hackathon, "judge1")
	alpha := testCreateTeamWithLeader(t, hackathon, "Alpha", "alpha")
	beta := testCreateTeamWithLeader(t, hackathon, "Beta", "beta")
	gamma := testCreateTeamWithLeader(t, hackathon, "Gamma", "gamma")
	testCreateScore(t, hackathon, alpha, judge, rubric, 8)
	testCreateScore(t, hackathon, beta, judge, rubric, 8)
	testCreateScore(t, hackathon, gamma, judge, rubric, 5)
	leaderboards := NewLeaderboardManager(testCore)
	viewer, _ := testCreateUser(t, "viewer")
	ctx := testHackathonContext(t, &viewer, hackathon)
	leaderboard, err := leaderboards.BuildLeaderboard(
		ctx, BuildLeaderboardOptions{},
	)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if len(leaderboard.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(leaderboard.Rows))
	}
	if p := leaderboard.Rows[0].Place; p != 1 {
		t.Fatalf("Expected place 1, got %d", p)
	}
	if p := leaderboard.Rows[1].Place; p != 1 {
		t.Fatalf("Expected shared place 1, got %d", p)
	}
	if p := leaderboard.Rows[2].Place; p != 3 {
		t.Fatalf("Expected place 3, got %d", p)
	}
	// Ties with equal totals are ordered by team ID.
	if leaderboard.Rows[0].Team.ID > leaderboard.Rows[1].Team.ID {
		t.Fatal("Expected stable order for equal totals")
	}
	// Per judge details are hidden without full leaderboard access.
	for _, row := range leaderboard.Rows {
		if len(row.Sheets) != 0 {
			t.Fatal("Expected hidden sheets")
		}
	}
}

func TestLeaderboardOnlySubmitted(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	testDisableLeaderboardCache(t)
	now := time.Now().Unix()
	hackathon := testCreateHackathon(t, "Gallery", models.HackathonConfig{
		BeginTime: models.NInt64(now - 3600),
		EndTime:   models.NInt64(now + 3600),
	})
	alpha := testCreateTeamWithLeader(t, hackathon, "Alpha", "alpha")
	beta := testCreateTeamWithLeader(t, hackathon, "Beta", "beta")
	project := models.Project{
		HackathonID: hackathon.ID,
		TeamID:      alpha.ID,
		Title:       "Shipped",
		CreateTime:  now,
		SubmitTime:  models.NInt64(now),
	}
	if err := testCore.Projects.Create(context.Background(), &project); err != nil {
		t.Fatal("Error:", err)
	}
	draft := models.Project{
		HackathonID: hackathon.ID,
		TeamID:      beta.ID,
		Title:       "Draft",
		CreateTime:  now,
	}
	if err := testCore.Projects.Create(context.Background(), &draft); err != nil {
		t.Fatal("Error:", err)
	}
	testSyncStores(t)
	leaderboards := NewLeaderboardManager(testCore)
	viewer, _ := testCreateUser(t, "viewer")
	ctx := testHackathonContext(t, &viewer, hackathon)
	leaderboard, err := leaderboards.BuildLeaderboard(
		ctx, BuildLeaderboardOptions{OnlySubmitted: true},
	)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if len(leaderboard.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(leaderboard.Rows))
	}
	if leaderboard.Rows[0].Team.ID != alpha.ID {
		t.Fatalf("Expected %q, got %q", alpha.Name, leaderboard.Rows[0].Team.Name)
	}
}
