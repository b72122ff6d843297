package api

import (
	"testing"
)

func TestRegisterUserScenario(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	client := newTestClient()
	user, err := client.Register(registerUserForm{
		Login:     "test",
		Email:     "test@example.com",
		Password:  "qwerty123",
		FirstName: getPtr("Test"),
		LastName:  getPtr("User"),
	})
	if err != nil {
		t.Fatal("Error:", err)
	}
	checkJSON(t, user, `{"id": 1, "login": "test"}`)
	// Without mail delivery new users are activated immediately.
	if _, err := client.Login("test", "qwerty123"); err != nil {
		t.Fatal("Error:", err)
	}
	status, err := client.Status()
	if err != nil {
		t.Fatal("Error:", err)
	}
	if status.User == nil {
		t.Fatal("Expected user in status")
	}
	if status.User.Login != "test" {
		t.Fatalf("Expected login %q, got %q", "test", status.User.Login)
	}
	if status.Session == nil {
		t.Fatal("Expected session in status")
	}
	if len(status.Permissions) == 0 {
		t.Fatal("Expected permissions in status")
	}
	observed, err := client.ObserveUser("test")
	if err != nil {
		t.Fatal("Error:", err)
	}
	if observed.ID != user.ID {
		t.Fatalf("Expected user %d, got %d", user.ID, observed.ID)
	}
	// Own email is visible.
	if observed.Email != "test@example.com" {
		t.Fatalf("Expected email, got %q", observed.Email)
	}
	if err := client.Logout(); err != nil {
		t.Fatal("Error:", err)
	}
	status, err = client.Status()
	if err != nil {
		t.Fatal("Error:", err)
	}
	if status.User != nil {
		t.Fatal("Expected guest status after logout")
	}
}

func TestRegisterUserValidation(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	client := newTestClient()
	for _, form := range []registerUserForm{
		{Login: "t", Email: "test@example.com", Password: "qwerty123"},
		{Login: "0test", Email: "test@example.com", Password: "qwerty123"},
		{Login: "test", Email: "invalid", Password: "qwerty123"},
		{Login: "test", Email: "test@example.com", Password: "123"},
	} {
		if _, err := client.Register(form); err == nil {
			t.Fatalf("Expected error for %v", form)
		}
	}
	if _, err := client.Register(registerUserForm{
		Login:    "test",
		Email:    "test@example.com",
		Password: "qwerty123",
	}); err != nil {
		t.Fatal("Error:", err)
	}
	if _, err := client.Register(registerUserForm{
		Login:    "test",
		Email:    "other@example.com",
		Password: "qwerty123",
	}); err == nil {
		t.Fatal("Expected error for duplicate login")
	}
}

func TestLoginInvalidPassword(t *testing.T) {
	testSetup(t)
	defer testTeardown(t)
	client := newTestClient()
	if _, err := client.Register(registerUserForm{
		Login:    "test",
		Email:    "test@example.com",
		Password: "qwerty123",
	}); err != nil {
		t.Fatal("Error:", err)
	}
	if _, err := client.Login("test", "wrong-password"); err == nil {
		t.Fatal("Expected error for invalid password")
	}
	if _, err := client.Login("unknown", "qwerty123"); err == nil {
		t.Fatal("Expected error for unknown login")
	}
}
