package models

import (
	"testing"
)

func TestUserPassword(t *testing.T) {
	store := NewUserStore(nil, "user", "user_event", "qwerty123")
	user := User{Login: "test"}
	if err := store.SetPassword(&user, "password123"); err != nil {
		t.Fatal("Error:", err)
	}
	if user.PasswordHash == "" || user.PasswordSalt == "" {
		t.Fatal("Expected password hash and salt")
	}
	if user.PasswordHash == "password123" {
		t.Fatal("Expected hashed password")
	}
	if !store.CheckPassword(user, "password123") {
		t.Fatal("Expected matching password")
	}
	if store.CheckPassword(user, "password124") {
		t.Fatal("Expected mismatched password")
	}
	other := User{Login: "other"}
	if err := store.SetPassword(&other, "password123"); err != nil {
		t.Fatal("Error:", err)
	}
	// Per user salt makes equal passwords produce different hashes.
	if other.PasswordHash == user.PasswordHash {
		t.Fatal("Expected different hashes")
	}
	otherStore := NewUserStore(nil, "user", "user_event", "other-salt")
	if otherStore.CheckPassword(user, "password123") {
		t.Fatal("Expected mismatch with different global salt")
	}
}
