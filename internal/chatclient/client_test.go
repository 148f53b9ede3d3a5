package chatclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"hichat/internal/auth"
	"hichat/internal/handlers"
	"hichat/internal/middleware"
	"hichat/internal/store/sqlstore"
	"hichat/internal/ws"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlstore.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	hub := ws.NewHub()
	go hub.Run()

	authHandler := &handlers.AuthHandler{Store: store, Tokens: tokens}
	msgHandler := &handlers.MessageHandler{Store: store, Hub: hub}
	requireAuth := middleware.Auth(tokens, store)

	r := mux.NewRouter()
	r.HandleFunc("/api/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/logout", authHandler.Logout).Methods("POST")
	r.Handle("/api/auth/check", requireAuth(http.HandlerFunc(authHandler.Check))).Methods("GET")

	messages := r.PathPrefix("/api/messages").Subrouter()
	messages.Use(requireAuth)
	messages.HandleFunc("/contacts", msgHandler.GetContacts).Methods("GET")
	messages.HandleFunc("/chats", msgHandler.GetChatPartners).Methods("GET")
	messages.HandleFunc("/send/{id:[0-9]+}", msgHandler.Send).Methods("POST")
	messages.HandleFunc("/{id:[0-9]+}", msgHandler.GetConversation).Methods("GET")

	r.Handle("/ws", &ws.Gate{Hub: hub, Store: store, Tokens: tokens})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func waitPresence(t *testing.T, presence chan []int, want ...int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case users := <-presence:
			if len(users) != len(want) {
				continue
			}
			match := true
			for i := range want {
				if users[i] != want[i] {
					match = false
					break
				}
			}
			if match {
				return
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for online set %v", want)
		}
	}
}

func TestAuthFlow(t *testing.T) {
	server := newTestServer(t)

	c := New(server.URL)
	user, err := c.Signup("Alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if user.ID == 0 || user.FullName != "Alice" {
		t.Errorf("Unexpected user: %+v", user)
	}

	// The session cookie from signup authenticates follow-up requests
	checked, err := c.CheckAuth()
	if err != nil {
		t.Fatalf("CheckAuth failed: %v", err)
	}
	if checked.ID != user.ID {
		t.Errorf("Expected identity %d, got %d", user.ID, checked.ID)
	}

	if err := c.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := c.CheckAuth(); err == nil {
		t.Error("Expected CheckAuth to fail after logout")
	}

	// And back in
	if _, err := New(server.URL).Login("alice@example.com", "password123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
}

func TestPresenceAndLiveDelivery(t *testing.T) {
	server := newTestServer(t)

	alice := New(server.URL)
	bob := New(server.URL)

	aliceUser, err := alice.Signup("Alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatal(err)
	}
	bobUser, err := bob.Signup("Bob", "bob@example.com", "password123")
	if err != nil {
		t.Fatal(err)
	}

	bobPresence := make(chan []int, 16)
	bob.OnPresence = func(users []int) { bobPresence <- users }
	if err := bob.Connect(); err != nil {
		t.Fatalf("Bob failed to connect: %v", err)
	}
	defer bob.Close()
	waitPresence(t, bobPresence, bobUser.ID)

	// Alice comes online too; both ids show up (sorted)
	if err := alice.Connect(); err != nil {
		t.Fatalf("Alice failed to connect: %v", err)
	}
	defer alice.Close()
	waitPresence(t, bobPresence, aliceUser.ID, bobUser.ID)

	// Bob has Alice's conversation open when her message arrives
	bobConv, err := bob.OpenConversation(aliceUser.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer bobConv.Close()

	aliceConv, err := alice.OpenConversation(bobUser.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer aliceConv.Close()

	if _, err := aliceConv.Send("hello bob", ""); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	waitFor(t, func() bool {
		msgs := bobConv.Messages()
		return len(msgs) == 1 && msgs[0].Text == "hello bob" && !msgs[0].Optimistic
	})

	// Alice's own copy was reconciled, not duplicated
	msgs := aliceConv.Messages()
	if len(msgs) != 1 || msgs[0].Optimistic {
		t.Errorf("Expected single confirmed message on sender side, got %+v", msgs)
	}

	// History agrees after the fact
	history, err := bob.History(aliceUser.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Text != "hello bob" {
		t.Errorf("Unexpected history: %+v", history)
	}
}

func TestOfflineRecipientFallsBackToHistory(t *testing.T) {
	server := newTestServer(t)

	alice := New(server.URL)
	carol := New(server.URL)

	alice.Signup("Alice", "alice@example.com", "password123")
	carolUser, err := carol.Signup("Carol", "carol@example.com", "password123")
	if err != nil {
		t.Fatal(err)
	}

	// Carol never connects; the send succeeds anyway
	aliceConv, err := alice.OpenConversation(carolUser.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := aliceConv.Send("are you there?", ""); err != nil {
		t.Fatalf("Send to offline recipient failed: %v", err)
	}

	// Carol picks it up on her next history fetch
	history, err := carol.History(alice.AuthUser().ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Text != "are you there?" {
		t.Errorf("Expected message in history, got %+v", history)
	}
}
