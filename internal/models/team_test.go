package models

import (
	"context"
	"database/sql"
	"testing"

	"github.com/udovin/gosql"

	"github.com/hackdesk/hackdesk/internal/config"
)

var testDB *gosql.DB

func testSetup(tb testing.TB) {
	cfg := config.DB{
		Options: config.SQLiteOptions{Path: ":memory:"},
	}
	var err error
	testDB, err = cfg.Create()
	if err != nil {
		tb.Fatal("Error:", err)
	}
}

func testTeardown(tb testing.TB) {
	_ = testDB.Close()
}

func testCreateTeamTables(tb testing.TB) {
	for _, query := range []string{
		`CREATE TABLE "team" (` +
			`"id" integer PRIMARY KEY,` +
			`"hackathon_id" integer NOT NULL,` +
			`"name" varchar(255) NOT NULL,` +
			`"description" varchar(255),` +
			`"invite_code" varchar(255) NOT NULL,` +
			`"create_time" bigint NOT NULL)`,
		`CREATE TABLE "team_event" (` +
			`"event_id" integer PRIMARY KEY,` +
			`"event_kind" int8 NOT NULL,` +
			`"event_time" bigint NOT NULL,` +
			`"event_account_id" integer NULL,` +
			`"id" integer NOT NULL,` +
			`"hackathon_id" integer NOT NULL,` +
			`"name" varchar(255) NOT NULL,` +
			`"description" varchar(255),` +
			`"invite_code" varchar(255) NOT NULL,` +
			`"create_time" bigint NOT NULL)`,
	} {
		if _, err := testDB.Exec(query); err != nil {
			tb.Fatal("Error:", err)
		}
	}
}

func TestTeamInviteCode(t *testing.T) {
	var team Team
	if err := team.GenerateInviteCode(); err != nil {
		t.Fatal("Error:", err)
	}
	if len(team.InviteCode) != InviteCodeLength {
		t.Fatalf(
			"Expected code of length %d, got %q",
			InviteCodeLength, team.InviteCode,
		)
	}
	for _, r := range team.InviteCode {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			t.Fatalf("Invalid code symbol: %q", r)
		}
	}
	code := team.InviteCode
	if err := team.GenerateInviteCode(); err != nil {
		t.Fatal("Error:", err)
	}
	if team.InviteCode == code {
		t.Fatal("Expected new invite code")
	}
}

func TestTeamStore(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	testCreateTeamTables(t)
	store := NewTeamStore(testDB, "team", "team_event")
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatal("Error:", err)
	}
	teams := []Team{
		{HackathonID: 1, Name: "Alpha"},
		{HackathonID: 1, Name: "Beta"},
		{HackathonID: 2, Name: "Gamma"},
	}
	for i := range teams {
		if err := teams[i].GenerateInviteCode(); err != nil {
			t.Fatal("Error:", err)
		}
		if err := store.Create(ctx, &teams[i]); err != nil {
			t.Fatal("Error:", err)
		}
		if teams[i].ID == 0 {
			t.Fatal("Expected team ID")
		}
	}
	if err := store.Sync(ctx); err != nil {
		t.Fatal("Error:", err)
	}
	team, err := store.Get(ctx, teams[0].ID)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if team.Name != "Alpha" {
		t.Fatalf("Expected %q, got %q", "Alpha", team.Name)
	}
	team, err = store.GetByInviteCode(ctx, teams[1].InviteCode)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if team.ID != teams[1].ID {
		t.Fatalf("Expected team %d, got %d", teams[1].ID, team.ID)
	}
	if _, err := store.GetByInviteCode(ctx, "AAAAAAAA"); err != sql.ErrNoRows {
		t.Fatalf("Expected %v, got %v", sql.ErrNoRows, err)
	}
	rows, err := store.FindByHackathon(ctx, 1)
	if err != nil {
		t.Fatal("Error:", err)
	}
	var count int
	for rows.Next() {
		if rows.Row().HackathonID != 1 {
			t.Fatal("Expected hackathon 1")
		}
		count++
	}
	if err := rows.Close(); err != nil {
		t.Fatal("Error:", err)
	}
	if count != 2 {
		t.Fatalf("Expected 2 teams, got %d", count)
	}
	team = teams[2]
	team.Name = "Delta"
	if err := store.Update(ctx, team); err != nil {
		t.Fatal("Error:", err)
	}
	if err := store.Delete(ctx, teams[0].ID); err != nil {
		t.Fatal("Error:", err)
	}
	if err := store.Sync(ctx); err != nil {
		t.Fatal("Error:", err)
	}
	if _, err := store.Get(ctx, teams[0].ID); err != sql.ErrNoRows {
		t.Fatalf("Expected %v, got %v", sql.ErrNoRows, err)
	}
	team, err = store.Get(ctx, teams[2].ID)
	if err != nil {
		t.Fatal("Error:", err)
	}
	if team.Name != "Delta" {
		t.Fatalf("Expected %q, got %q", "Delta", team.Name)
	}
	// Deleted team invite code is removed from the index.
	if _, err := store.GetByInviteCode(
		ctx, teams[0].InviteCode,
	); err != sql.ErrNoRows {
		t.Fatalf("Expected %v, got %v", sql.ErrNoRows, err)
	}
}
