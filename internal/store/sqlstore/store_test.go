package sqlstore

import (
	"testing"

	"hichat/internal/models"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	return store
}

func createTestUser(t *testing.T, store *SQLStore, name, email string) *models.User {
	t.Helper()
	user := &models.User{FullName: name, Email: email, Password: "hashed"}
	if err := store.CreateUser(user); err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}
	return user
}
