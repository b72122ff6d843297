package managers

import (
	"context"
	"testing"

	"github.com/hackdesk/hackdesk/internal/config"
	"github.com/hackdesk/hackdesk/internal/core"
	"github.com/hackdesk/hackdesk/internal/db"
	"github.com/hackdesk/hackdesk/internal/migrations"
	"github.com/hackdesk/hackdesk/internal/models"
)

var testCore *core.Core

func testSetup(tb testing.TB) {
	cfg := config.Config{
		DB: config.DB{
			Options: config.SQLiteOptions{Path: ":memory:"},
		},
		Security: &config.Security{
			PasswordSalt: "qwerty123",
		},
	}
	c, err := core.NewCore(cfg)
	if err != nil {
		tb.Fatal("Error:", err)
	}
	if err := c.SetupAllStores(); err != nil {
		tb.Fatal("Error:", err)
	}
	if err := db.ApplyMigrations(
		context.Background(), c.DB, "hackdesk", migrations.Schema,
	); err != nil {
		tb.Fatal("Error:", err)
	}
	if err := db.ApplyMigrations(
		context.Background(), c.DB, "hackdesk_data", migrations.Data,
	); err != nil {
		tb.Fatal("Error:", err)
	}
	if err := c.Start(); err != nil {
		tb.Fatal("Error:", err)
	}
	testCore = c
}

func testTeardown(tb testing.TB) {
	testCore.Stop()
	_ = testCore.DB.Close()
}

func testSyncStores(tb testing.TB) {
	stores := []models.CachedStore{
		testCore.Settings,
		testCore.Roles,
		testCore.RoleEdges,
		testCore.Accounts,
		testCore.AccountRoles,
		testCore.Users,
		testCore.Hackathons,
		testCore.Rubrics,
		testCore.Judges,
		testCore.Teams,
		testCore.TeamMembers,
		testCore.Applications,
		testCore.Projects,
		testCore.ProjectFiles,
		testCore.Scores,
	}
	for _, store := range stores {
		if err := store.Sync(context.Background()); err != nil {
			tb.Fatal("Error:", err)
		}
	}
}

func testCreateUser(tb testing.TB, login string) (models.Account, models.User) {
	account := models.Account{Kind: models.UserAccountKind}
	if err := testCore.Accounts.Create(context.Background(), &account); err != nil {
		tb.Fatal("Error:", err)
	}
	user := models.User{
		AccountID: account.ID,
		Login:     login,
		Status:    models.ActiveUser,
	}
	if err := testCore.Users.SetPassword(&user, "qwerty123"); err != nil {
		tb.Fatal("Error:", err)
	}
	if err := testCore.Users.Create(context.Background(), &user); err != nil {
		tb.Fatal("Error:", err)
	}
	testSyncStores(tb)
	return account, user
}

func testCreateHackathon(
	tb testing.TB, title string, hackathonConfig models.HackathonConfig,
) models.Hackathon {
	hackathon := models.Hackathon{Title: title}
	if err := hackathon.SetConfig(hackathonConfig); err != nil {
		tb.Fatal("Error:", err)
	}
	if err := testCore.Hackathons.Create(
		context.Background(), &hackathon,
	); err != nil {
		tb.Fatal("Error:", err)
	}
	testSyncStores(tb)
	return hackathon
}

func testAccountContext(tb testing.TB, account *models.Account) *AccountContext {
	accounts := NewAccountManager(testCore)
	ctx, err := accounts.MakeContext(context.Background(), account)
	if err != nil {
		tb.Fatal("Error:", err)
	}
	return ctx
}

func testHackathonContext(
	tb testing.TB, account *models.Account, hackathon models.Hackathon,
) *HackathonContext {
	hackathons := NewHackathonManager(testCore)
	ctx, err := hackathons.BuildContext(
		testAccountContext(tb, account), hackathon,
	)
	if err != nil {
		tb.Fatal("Error:", err)
	}
	return ctx
}
