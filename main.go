package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"hichat/internal/auth"
	"hichat/internal/email"
	"hichat/internal/handlers"
	"hichat/internal/middleware"
	"hichat/internal/store/sqlstore"
	"hichat/internal/ws"
)

var (
	addr            = flag.String("addr", ":8080", "http service address")
	dbPath          = flag.String("db", "hichat.db", "sqlite database path")
	jwtSecret       = flag.String("jwt-secret", "super-secret-key-change-me-in-production", "session token signing secret")
	sessionTTL      = flag.Duration("session-ttl", 7*24*time.Hour, "session token lifetime")
	clientURL       = flag.String("client-url", "http://localhost:8080", "public URL used in emails")
	insecureUIDAuth = flag.Bool("insecure-uid-auth", false, "accept a plain userId query parameter on the websocket handshake")

	smtpHost = flag.String("smtp-host", "", "SMTP host (empty logs emails instead of sending)")
	smtpPort = flag.String("smtp-port", "587", "SMTP port")
	smtpUser = flag.String("smtp-user", "", "SMTP username")
	smtpPass = flag.String("smtp-pass", "", "SMTP password")
	smtpFrom = flag.String("smtp-from", "hi@hichat.local", "email From address")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize Database
	store, err := sqlstore.New(*dbPath)
	if err != nil {
		log.Fatal(err)
	}

	tokens := auth.NewTokenManager(*jwtSecret, *sessionTTL)

	// Initialize WebSocket Hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize Handlers
	authHandler := &handlers.AuthHandler{
		Store:     store,
		Tokens:    tokens,
		Email:     email.NewSender(*smtpHost, *smtpPort, *smtpUser, *smtpPass, *smtpFrom),
		ClientURL: *clientURL,
	}
	msgHandler := &handlers.MessageHandler{Store: store, Hub: hub}
	requireAuth := middleware.Auth(tokens, store)

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)

	// API Endpoints
	r.HandleFunc("/api/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/logout", authHandler.Logout).Methods("POST")
	r.Handle("/api/auth/check", requireAuth(http.HandlerFunc(authHandler.Check))).Methods("GET")
	r.Handle("/api/auth/update-profile", requireAuth(http.HandlerFunc(authHandler.UpdateProfile))).Methods("PUT")

	messages := r.PathPrefix("/api/messages").Subrouter()
	messages.Use(requireAuth)
	messages.HandleFunc("/contacts", msgHandler.GetContacts).Methods("GET")
	messages.HandleFunc("/chats", msgHandler.GetChatPartners).Methods("GET")
	messages.HandleFunc("/send/{id:[0-9]+}", msgHandler.Send).Methods("POST")
	messages.HandleFunc("/{id:[0-9]+}", msgHandler.GetConversation).Methods("GET")

	// WebSocket Endpoint
	r.Handle("/ws", &ws.Gate{
		Hub:              hub,
		Store:            store,
		Tokens:           tokens,
		AllowUserIDParam: *insecureUIDAuth,
	})

	log.Println("Starting server on", *addr)
	log.Fatal(http.ListenAndServe(*addr, r))
}
