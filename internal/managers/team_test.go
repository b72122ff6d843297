package managers

import (
	"testing"
	"time"

	"github.com/hackdesk/hackdesk/internal/models"
)

func TestTeamManagerScenario(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	now := time.Now().Unix()
	hackathon := testCreateHackathon(t, "Team test", models.HackathonConfig{
		BeginTime:   models.NInt64(now - 3600),
		EndTime:     models.NInt64(now + 3600),
		MaxTeamSize: 2,
	})
	leaderAccount, _ := testCreateUser(t, "leader")
	memberAccount, _ := testCreateUser(t, "member")
	strangerAccount, _ := testCreateUser(t, "stranger")
	teams := NewTeamManager(testCore)
	leaderCtx := testHackathonContext(t, &leaderAccount, hackathon)
	team := models.Team{Name: "Rockets"}
	leader, err := teams.CreateTeam(leaderCtx, &team)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if leader.Kind != models.LeaderMember {
		t.Fatalf("Expected leader kind, got %v", leader.Kind)
	}
	if len(team.InviteCode) != models.InviteCodeLength {
		t.Fatalf("Invalid invite code: %q", team.InviteCode)
	}
	testSyncStores(t)
	if _, err := teams.CreateTeam(
		testHackathonContext(t, &leaderAccount, hackathon),
		&models.Team{Name: "Second"},
	); err != ErrAlreadyInTeam {
		t.Fatalf("Expected %v, got %v", ErrAlreadyInTeam, err)
	}
	memberCtx := testHackathonContext(t, &memberAccount, hackathon)
	// Codes of wrong length are rejected before any lookup.
	if _, err := teams.JoinByCode(
		memberCtx, "short", "127.0.0.1",
	); err != ErrInviteCodeInvalid {
		t.Fatalf("Expected %v, got %v", ErrInviteCodeInvalid, err)
	}
	if _, err := teams.JoinByCode(
		memberCtx, "AAAAAAAA", "127.0.0.1",
	); err != ErrTeamNotFound {
		t.Fatalf("Expected %v, got %v", ErrTeamNotFound, err)
	}
	member, err := teams.JoinByCode(memberCtx, team.InviteCode, "127.0.0.1")
	if err != nil {
		t.Fatal("Error:", err)
	}
	if member.Kind != models.RegularMember {
		t.Fatalf("Expected regular kind, got %v", member.Kind)
	}
	testSyncStores(t)
	strangerCtx := testHackathonContext(t, &strangerAccount, hackathon)
	if _, err := teams.JoinByCode(
		strangerCtx, team.InviteCode, "127.0.0.1",
	); err != ErrTeamFull {
		t.Fatalf("Expected %v, got %v", ErrTeamFull, err)
	}
	if err := teams.LeaveTeam(memberCtx, member); err != nil {
		t.Fatal("Error:", err)
	}
	testSyncStores(t)
	if _, err := testCore.Teams.Get(
		leaderCtx, team.ID,
	); err != nil {
		t.Fatal("Error:", err)
	}
	if err := teams.LeaveTeam(leaderCtx, leader); err != nil {
		t.Fatal("Error:", err)
	}
	testSyncStores(t)
	if _, err := testCore.TeamMembers.Get(
		leaderCtx, leader.ID,
	); err == nil {
		t.Fatal("Expected error")
	}
}

func TestTeamManagerJoinRateLimit(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	now := time.Now().Unix()
	hackathon := testCreateHackathon(t, "Limits", models.HackathonConfig{
		BeginTime: models.NInt64(now - 3600),
		EndTime:   models.NInt64(now + 3600),
	})
	account, _ := testCreateUser(t, "brute")
	teams := NewTeamManager(testCore)
	ctx := testHackathonContext(t, &account, hackathon)
	gotLimited := false
	for i := 0; i < 5; i++ {
		_, err := teams.JoinByCode(ctx, "AAAAAAAA", "127.0.0.1")
		if err == ErrTooManyAttempts {
			gotLimited = true
			break
		}
		if err != ErrTeamNotFound {
			t.Fatalf("Expected %v, got %v", ErrTeamNotFound, err)
		}
	}
	if !gotLimited {
		t.Fatal("Expected rate limit")
	}
}
