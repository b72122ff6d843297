package managers

import (
	"math"
	"testing"
	"time"

	"github.com/hackdesk/hackdesk/internal/models"
)

func TestJudgingManagerScenario(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	now := time.Now().Unix()
	hackathon := testCreateHackathon(t, "Judging", models.HackathonConfig{
		BeginTime:   models.NInt64(now - 3600),
		EndTime:     models.NInt64(now + 3600),
		JudgingOpen: true,
	})
	rubric := testCreateRubric(t, hackathon, "Design", 1, 10)
	team := testCreateTeamWithLeader(t, hackathon, "Alpha", "alpha")
	judgeAccount, _ := testCreateUser(t, "judge1")
	judge := models.Judge{
		HackathonID: hackathon.ID,
		AccountID:   judgeAccount.ID,
	}
	if err := testCore.Judges.Create(
		testAccountContext(t, &judgeAccount), &judge,
	); err != nil {
		t.Fatal("Error:", err)
	}
	testSyncStores(t)
	judging := NewJudgingManager(testCore)
	ctx := testHackathonContext(t, &judgeAccount, hackathon)
	if ctx.Judge == nil {
		t.Fatal("Expected judge in context")
	}
	score, err := judging.SubmitScore(ctx, team.ID, rubric.ID, 7)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if math.Abs(score.Value-7) > 1e-9 {
		t.Fatalf("Expected value 7, got %v", score.Value)
	}
	// Resubmission replaces the score instead of creating new one.
	updated, err := judging.SubmitScore(ctx, team.ID, rubric.ID, 9)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if updated.ID != score.ID {
		t.Fatalf("Expected score %d, got %d", score.ID, updated.ID)
	}
	if math.Abs(updated.Value-9) > 1e-9 {
		t.Fatalf("Expected value 9, got %v", updated.Value)
	}
	if _, err := judging.SubmitScore(
		ctx, team.ID, rubric.ID, 11,
	); err != ErrScoreOutOfRange {
		t.Fatalf("Expected %q, got %q", ErrScoreOutOfRange, err)
	}
	if _, err := judging.SubmitScore(
		ctx, team.ID, rubric.ID, -1,
	); err != ErrScoreOutOfRange {
		t.Fatalf("Expected %q, got %q", ErrScoreOutOfRange, err)
	}
	if _, err := judging.SubmitScore(
		ctx, team.ID, rubric.ID+100, 5,
	); err != ErrRubricNotFound {
		t.Fatalf("Expected %q, got %q", ErrRubricNotFound, err)
	}
	if _, err := judging.SubmitScore(
		ctx, team.ID+100, rubric.ID, 5,
	); err != ErrTeamNotFound {
		t.Fatalf("Expected %q, got %q", ErrTeamNotFound, err)
	}
	organizer, _ := testCreateUser(t, "organizer")
	organizerCtx := testHackathonContext(t, &organizer, hackathon)
	overridden, err := judging.OverrideScore(
		organizerCtx, judge.ID, team.ID, rubric.ID, 4,
	)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if overridden.ID != score.ID {
		t.Fatalf("Expected score %d, got %d", score.ID, overridden.ID)
	}
	if err := judging.DeleteScore(organizerCtx, overridden.ID); err != nil {
		t.Fatal("Error:", err)
	}
	if err := judging.DeleteScore(
		organizerCtx, overridden.ID,
	); err != ErrScoreNotFound {
		t.Fatalf("Expected %q, got %q", ErrScoreNotFound, err)
	}
}

func TestJudgingManagerClosed(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	now := time.Now().Unix()
	hackathon := testCreateHackathon(t, "Closed", models.HackathonConfig{
		BeginTime: models.NInt64(now - 3600),
		EndTime:   models.NInt64(now + 3600),
	})
	rubric := testCreateRubric(t, hackathon, "Design", 1, 10)
	team := testCreateTeamWithLeader(t, hackathon, "Alpha", "alpha")
	judge := testCreateJudge(t, hackathon, "judge1")
	judgeAccount, err := testCore.Accounts.Get(
		testCore.Context(), judge.AccountID,
	)
	if err != nil {
		t.Fatal("Error:", err)
	}
	judging := NewJudgingManager(testCore)
	ctx := testHackathonContext(t, &judgeAccount, hackathon)
	if _, err := judging.SubmitScore(
		ctx, team.ID, rubric.ID, 5,
	); err != ErrJudgingClosed {
		t.Fatalf("Expected %q, got %q", ErrJudgingClosed, err)
	}
}
