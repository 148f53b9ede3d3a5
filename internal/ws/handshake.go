package ws

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"hichat/internal/auth"
	"hichat/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Gate authenticates a connection attempt before it is admitted to the hub.
// The credential comes from the session cookie or a "token" query parameter;
// with AllowUserIDParam set, a plain "userId" query parameter is also
// accepted (for deployments without the cookie flow). A refused attempt
// never reaches the hub: no registry entry, no broadcast.
type Gate struct {
	Hub              *Hub
	Store            store.Store
	Tokens           *auth.TokenManager
	AllowUserIDParam bool
}

func (g *Gate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := g.authenticate(r)
	if err != nil {
		log.Printf("Socket connection rejected: %v", err)
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading connection: %v", err)
		return
	}

	client := &Client{
		hub:         g.Hub,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		userID:      userID,
		connID:      uuid.NewString(),
		connectedAt: time.Now(),
	}
	g.Hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (g *Gate) authenticate(r *http.Request) (int, error) {
	token := ""
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		token = cookie.Value
	}
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	var userID int
	switch {
	case token != "":
		id, err := g.Tokens.Verify(token)
		if err != nil {
			return 0, ErrInvalidToken
		}
		userID = id
	case g.AllowUserIDParam && r.URL.Query().Get("userId") != "":
		id, err := strconv.Atoi(r.URL.Query().Get("userId"))
		if err != nil || id <= 0 {
			return 0, ErrInvalidToken
		}
		userID = id
	default:
		return 0, ErrNoToken
	}

	exists, err := g.Store.UserExists(userID)
	if err != nil {
		// Unexpected store failure: refuse rather than half-admit.
		log.Printf("Error resolving user %d during handshake: %v", userID, err)
		return 0, ErrUserNotFound
	}
	if !exists {
		return 0, ErrUserNotFound
	}
	return userID, nil
}
