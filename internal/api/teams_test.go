package api

import (
	"math"
	"testing"
	"time"
)

func TestTeamJudgingScenario(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	organizer := testRegisterLogin(t, "organizer")
	testAddAccountRole(t, "organizer", "organizer_group")
	now := time.Now().Unix()
	hackathon, err := organizer.CreateHackathon(createHackathonForm{
		Title:       getPtr("Hack Night"),
		BeginTime:   getPtr(NInt64(now - 3600)),
		EndTime:     getPtr(NInt64(now + 3600)),
		MaxTeamSize: getPtr(2),
	})
	if err != nil {
		t.Fatal("Error:", err)
	}
	rubric, err := organizer.CreateRubric(hackathon.ID, createRubricForm{
		Title:    getPtr("Design"),
		Weight:   getPtr(1.0),
		MaxScore: getPtr(10.0),
	})
	if err != nil {
		t.Fatal("Error:", err)
	}
	if _, err := organizer.UpdateHackathon(
		hackathon.ID, updateHackathonForm{JudgingOpen: getPtr(true)},
	); err != nil {
		t.Fatal("Error:", err)
	}
	alpha := testRegisterLogin(t, "alpha")
	team, err := alpha.CreateTeam(hackathon.ID, createTeamForm{
		Name: getPtr("Alpha"),
	})
	if err != nil {
		t.Fatal("Error:", err)
	}
	if len(team.InviteCode) != 8 {
		t.Fatalf("Expected invite code, got %q", team.InviteCode)
	}
	beta := testRegisterLogin(t, "beta")
	member, err := beta.JoinTeam(hackathon.ID, joinTeamForm{
		InviteCode: team.InviteCode,
	})
	if err != nil {
		t.Fatal("Error:", err)
	}
	if member.TeamID != team.ID {
		t.Fatalf("Expected team %d, got %d", team.ID, member.TeamID)
	}
	gamma := testRegisterLogin(t, "gamma")
	if _, err := gamma.JoinTeam(hackathon.ID, joinTeamForm{
		InviteCode: team.InviteCode,
	}); err == nil {
		t.Fatal("Expected error for full team")
	}
	if _, err := gamma.JoinTeam(hackathon.ID, joinTeamForm{
		InviteCode: "AAAAAAAA",
	}); err == nil {
		t.Fatal("Expected error for unknown invite code")
	}
	judgeClient := testRegisterLogin(t, "judge")
	if _, err := organizer.CreateJudge(hackathon.ID, createJudgeForm{
		Login: getPtr("judge"),
	}); err != nil {
		t.Fatal("Error:", err)
	}
	score, err := judgeClient.SubmitScore(
		hackathon.ID, team.ID, submitScoreForm{
			RubricID: rubric.ID,
			Value:    7,
		},
	)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if math.Abs(score.Value-7) > 1e-9 {
		t.Fatalf("Expected value 7, got %v", score.Value)
	}
	// Out of range values are rejected.
	if _, err := judgeClient.SubmitScore(
		hackathon.ID, team.ID, submitScoreForm{
			RubricID: rubric.ID,
			Value:    11,
		},
	); err == nil {
		t.Fatal("Expected error for out of range value")
	}
	// Regular members cannot submit scores.
	if _, err := alpha.SubmitScore(
		hackathon.ID, team.ID, submitScoreForm{
			RubricID: rubric.ID,
			Value:    5,
		},
	); err == nil {
		t.Fatal("Expected error for non-judge")
	}
	guest := newTestClient()
	leaderboard, err := guest.ObserveLeaderboard(hackathon.ID)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if len(leaderboard.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(leaderboard.Rows))
	}
	row := leaderboard.Rows[0]
	if row.Team.ID != team.ID {
		t.Fatalf("Expected team %d, got %d", team.ID, row.Team.ID)
	}
	if math.Abs(row.Total-7) > 1e-9 {
		t.Fatalf("Expected total 7, got %v", row.Total)
	}
	if row.Place != 1 {
		t.Fatalf("Expected place 1, got %d", row.Place)
	}
	// Guests cannot see invite codes or per judge sheets.
	if row.Team.InviteCode != "" {
		t.Fatal("Expected hidden invite code")
	}
	if len(row.Sheets) != 0 {
		t.Fatal("Expected hidden sheets")
	}
	fullLeaderboard, err := organizer.ObserveLeaderboard(hackathon.ID)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if len(fullLeaderboard.Rows) != 1 || len(fullLeaderboard.Rows[0].Sheets) != 1 {
		t.Fatal("Expected sheets for organizer")
	}
}
