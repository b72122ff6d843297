package api

import (
	"context"
	"testing"
	"time"

	"github.com/hackdesk/hackdesk/internal/models"
)

func testAddAccountRole(tb testing.TB, login, role string) {
	ctx := context.Background()
	if err := testView.core.Users.Sync(ctx); err != nil {
		tb.Fatal("Error:", err)
	}
	user, err := testView.core.Users.GetByLogin(ctx, login)
	if err != nil {
		tb.Fatal("Error:", err)
	}
	groupRole, err := testView.core.Roles.GetByName(ctx, role)
	if err != nil {
		tb.Fatal("Error:", err)
	}
	accountRole := models.AccountRole{
		AccountID: user.AccountID,
		RoleID:    groupRole.ID,
	}
	if err := testView.core.AccountRoles.Create(ctx, &accountRole); err != nil {
		tb.Fatal("Error:", err)
	}
	if err := testView.core.AccountRoles.Sync(ctx); err != nil {
		tb.Fatal("Error:", err)
	}
}

func testRegisterLogin(tb testing.TB, login string) *testClient {
	client := newTestClient()
	if _, err := client.Register(registerUserForm{
		Login:    login,
		Email:    login + "@example.com",
		Password: "qwerty123",
	}); err != nil {
		tb.Fatal("Error:", err)
	}
	if _, err := client.Login(login, "qwerty123"); err != nil {
		tb.Fatal("Error:", err)
	}
	return client
}

func TestHackathonScenario(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	organizer := testRegisterLogin(t, "organizer")
	testAddAccountRole(t, "organizer", "organizer_group")
	now := time.Now().Unix()
	hackathon, err := organizer.CreateHackathon(createHackathonForm{
		Title:       getPtr("Hack the Planet"),
		BeginTime:   getPtr(NInt64(now - 3600)),
		EndTime:     getPtr(NInt64(now + 3600)),
		MaxTeamSize: getPtr(4),
	})
	if err != nil {
		t.Fatal("Error:", err)
	}
	if hackathon.Title != "Hack the Planet" {
		t.Fatalf("Expected title, got %q", hackathon.Title)
	}
	// Judging cannot open before any rubric exists.
	if _, err := organizer.CreateHackathon(createHackathonForm{
		Title:       getPtr("Invalid"),
		JudgingOpen: getPtr(true),
	}); err == nil {
		t.Fatal("Expected error for judging without rubric")
	}
	if _, err := organizer.UpdateHackathon(
		hackathon.ID, updateHackathonForm{JudgingOpen: getPtr(true)},
	); err == nil {
		t.Fatal("Expected error for judging without rubric")
	}
	if _, err := organizer.CreateRubric(hackathon.ID, createRubricForm{
		Title:    getPtr("Design"),
		Weight:   getPtr(1.0),
		MaxScore: getPtr(10.0),
	}); err != nil {
		t.Fatal("Error:", err)
	}
	if _, err := organizer.UpdateHackathon(
		hackathon.ID, updateHackathonForm{JudgingOpen: getPtr(true)},
	); err != nil {
		t.Fatal("Error:", err)
	}
	// End time cannot be before begin time.
	if _, err := organizer.UpdateHackathon(
		hackathon.ID, updateHackathonForm{
			EndTime: getPtr(NInt64(now - 7200)),
		},
	); err == nil {
		t.Fatal("Expected error for invalid time range")
	}
	guest := newTestClient()
	hackathons, err := guest.ObserveHackathons()
	if err != nil {
		t.Fatal("Error:", err)
	}
	if len(hackathons.Hackathons) != 2 {
		t.Fatalf("Expected 2 hackathons, got %d", len(hackathons.Hackathons))
	}
	participant := testRegisterLogin(t, "participant")
	observed, err := participant.ObserveHackathon(hackathon.ID)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if observed.State == nil || observed.State.Stage != "started" {
		t.Fatalf("Expected started stage, got %v", observed.State)
	}
}

func TestHackathonCreateRequiresPermission(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	client := testRegisterLogin(t, "regular")
	if _, err := client.CreateHackathon(createHackathonForm{
		Title: getPtr("Denied"),
	}); err == nil {
		t.Fatal("Expected error for missing permission")
	}
}
