package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"hichat/internal/middleware"
	"hichat/internal/models"
	"hichat/internal/store"
	"hichat/internal/ws"
)

type MessageHandler struct {
	Store store.Store
	Hub   *ws.Hub
}

type SendMessageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

func (h *MessageHandler) GetContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.Store.GetContacts(middleware.UserID(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeUsers(w, contacts)
}

func (h *MessageHandler) GetChatPartners(w http.ResponseWriter, r *http.Request) {
	partners, err := h.Store.GetChatPartners(middleware.UserID(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeUsers(w, partners)
}

func (h *MessageHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	partnerID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	messages, err := h.Store.GetConversation(middleware.UserID(r), partnerID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	json.NewEncoder(w).Encode(messages)
}

// Send persists the message, then hands it to the hub for live delivery.
// The 201 response confirms persistence independent of delivery.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	receiverID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}
	senderID := middleware.UserID(r)

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Text == "" && req.Image == "" {
		http.Error(w, "Text or image is required", http.StatusBadRequest)
		return
	}
	if senderID == receiverID {
		http.Error(w, "Cannot send messages to yourself", http.StatusBadRequest)
		return
	}
	exists, err := h.Store.UserExists(receiverID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "Receiver not found", http.StatusNotFound)
		return
	}

	msg, err := h.Store.SaveMessage(senderID, receiverID, req.Text, req.Image)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.Hub.Deliver(msg)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(msg)
}

func writeUsers(w http.ResponseWriter, users []models.User) {
	if users == nil {
		users = []models.User{}
	}
	json.NewEncoder(w).Encode(users)
}
