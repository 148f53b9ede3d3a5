package sqlstore

import "testing"

func TestCreateUser(t *testing.T) {
	store := newTestStore(t)

	user := createTestUser(t, store, "Alice", "alice@example.com")
	if user.ID == 0 {
		t.Error("Expected non-zero user ID")
	}

	// Duplicate email must fail
	if err := store.CreateUser(user); err == nil {
		t.Error("Expected error for duplicate email")
	}
}

func TestGetUserByEmail(t *testing.T) {
	store := newTestStore(t)
	created := createTestUser(t, store, "Alice", "alice@example.com")

	user, err := store.GetUserByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if user.ID != created.ID || user.FullName != "Alice" {
		t.Errorf("Unexpected user: %+v", user)
	}

	if _, err := store.GetUserByEmail("nobody@example.com"); err == nil {
		t.Error("Expected error for unknown email")
	}
}

func TestUserExists(t *testing.T) {
	store := newTestStore(t)
	user := createTestUser(t, store, "Alice", "alice@example.com")

	exists, err := store.UserExists(user.ID)
	if err != nil {
		t.Fatalf("UserExists failed: %v", err)
	}
	if !exists {
		t.Error("Expected user to exist")
	}

	exists, err = store.UserExists(9999)
	if err != nil {
		t.Fatalf("UserExists failed: %v", err)
	}
	if exists {
		t.Error("Expected user 9999 to not exist")
	}
}

func TestUpdateProfile(t *testing.T) {
	store := newTestStore(t)
	user := createTestUser(t, store, "Alice", "alice@example.com")

	updated, err := store.UpdateProfile(user.ID, "Alice B", "http://pic")
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if updated.FullName != "Alice B" || updated.ProfilePic != "http://pic" {
		t.Errorf("Unexpected profile: %+v", updated)
	}

	// Empty fields leave existing values untouched
	updated, err = store.UpdateProfile(user.ID, "", "")
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if updated.FullName != "Alice B" || updated.ProfilePic != "http://pic" {
		t.Errorf("Expected unchanged profile, got: %+v", updated)
	}
}

func TestGetContacts(t *testing.T) {
	store := newTestStore(t)
	alice := createTestUser(t, store, "Alice", "alice@example.com")
	createTestUser(t, store, "Bob", "bob@example.com")
	createTestUser(t, store, "Carol", "carol@example.com")

	contacts, err := store.GetContacts(alice.ID)
	if err != nil {
		t.Fatalf("GetContacts failed: %v", err)
	}
	if len(contacts) != 2 {
		t.Fatalf("Expected 2 contacts, got %d", len(contacts))
	}
	for _, c := range contacts {
		if c.ID == alice.ID {
			t.Error("Contacts must not include the logged-in user")
		}
	}
}
