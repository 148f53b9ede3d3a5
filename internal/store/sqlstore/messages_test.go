package sqlstore

import "testing"

func TestSaveMessage(t *testing.T) {
	store := newTestStore(t)
	alice := createTestUser(t, store, "Alice", "alice@example.com")
	bob := createTestUser(t, store, "Bob", "bob@example.com")

	msg, err := store.SaveMessage(alice.ID, bob.ID, "Hello", "")
	if err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}
	if msg.ID == 0 {
		t.Error("Expected non-zero message ID")
	}
	if msg.SenderID != alice.ID || msg.ReceiverID != bob.ID {
		t.Errorf("Unexpected message: %+v", msg)
	}
	if msg.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestGetConversation(t *testing.T) {
	store := newTestStore(t)
	alice := createTestUser(t, store, "Alice", "alice@example.com")
	bob := createTestUser(t, store, "Bob", "bob@example.com")
	carol := createTestUser(t, store, "Carol", "carol@example.com")

	store.SaveMessage(alice.ID, bob.ID, "hi bob", "")
	store.SaveMessage(bob.ID, alice.ID, "hi alice", "")
	store.SaveMessage(alice.ID, carol.ID, "hi carol", "")

	messages, err := store.GetConversation(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0].Text != "hi bob" || messages[1].Text != "hi alice" {
		t.Errorf("Messages out of order: %+v", messages)
	}

	// Same conversation from the other side
	messages, _ = store.GetConversation(bob.ID, alice.ID)
	if len(messages) != 2 {
		t.Errorf("Expected 2 messages from Bob's side, got %d", len(messages))
	}
}

func TestGetChatPartners(t *testing.T) {
	store := newTestStore(t)
	alice := createTestUser(t, store, "Alice", "alice@example.com")
	bob := createTestUser(t, store, "Bob", "bob@example.com")
	carol := createTestUser(t, store, "Carol", "carol@example.com")
	createTestUser(t, store, "Dave", "dave@example.com")

	store.SaveMessage(alice.ID, bob.ID, "hi", "")
	store.SaveMessage(carol.ID, alice.ID, "hey", "")
	store.SaveMessage(alice.ID, bob.ID, "again", "")

	partners, err := store.GetChatPartners(alice.ID)
	if err != nil {
		t.Fatalf("GetChatPartners failed: %v", err)
	}
	if len(partners) != 2 {
		t.Fatalf("Expected 2 chat partners, got %d", len(partners))
	}

	seen := map[int]bool{}
	for _, p := range partners {
		seen[p.ID] = true
	}
	if !seen[bob.ID] || !seen[carol.ID] {
		t.Errorf("Expected partners %d and %d, got %+v", bob.ID, carol.ID, partners)
	}
}
