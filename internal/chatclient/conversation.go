package chatclient

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"hichat/internal/models"
)

// Message is a conversation entry. Optimistic entries exist only in client
// memory until the server confirms or rejects the send.
type Message struct {
	models.Message
	TempID     string `json:"-"`
	Optimistic bool   `json:"-"`
}

// Conversation is the client-side state of one open chat, identified by the
// partner's user ID.
type Conversation struct {
	client    *Client
	partnerID int
	sub       *Subscription

	mu       sync.Mutex
	messages []Message
}

// OpenConversation loads history and subscribes to live messages from the
// partner. Opening a conversation supersedes the previous one's live
// subscription.
func (c *Client) OpenConversation(partnerID int) (*Conversation, error) {
	if c.AuthUser() == nil {
		return nil, ErrNotAuthenticated
	}

	history, err := c.History(partnerID)
	if err != nil {
		return nil, err
	}

	conv := &Conversation{client: c, partnerID: partnerID}
	for _, msg := range history {
		conv.messages = append(conv.messages, Message{Message: msg})
	}
	conv.sub = c.Subscribe(partnerID, conv.appendLive)
	return conv, nil
}

func (conv *Conversation) PartnerID() int { return conv.partnerID }

// Close releases the live subscription.
func (conv *Conversation) Close() {
	conv.sub.Close()
}

func (conv *Conversation) appendLive(msg models.Message) {
	conv.mu.Lock()
	defer conv.mu.Unlock()
	conv.messages = append(conv.messages, Message{Message: msg})
}

// Send appends an optimistic entry before any network I/O, then issues the
// durable send. On success the optimistic entry is replaced in place by the
// server-confirmed message; on failure it is removed and the error
// returned. The send is not retried.
func (conv *Conversation) Send(text, image string) (*models.Message, error) {
	user := conv.client.AuthUser()
	if user == nil {
		return nil, ErrNotAuthenticated
	}

	tempID := uuid.NewString()
	conv.mu.Lock()
	conv.messages = append(conv.messages, Message{
		Message: models.Message{
			SenderID:   user.ID,
			ReceiverID: conv.partnerID,
			Text:       text,
			Image:      image,
			CreatedAt:  time.Now(),
		},
		TempID:     tempID,
		Optimistic: true,
	})
	conv.mu.Unlock()

	confirmed, err := conv.client.sendMessage(conv.partnerID, text, image)

	conv.mu.Lock()
	defer conv.mu.Unlock()
	idx := conv.findTemp(tempID)
	if err != nil {
		if idx >= 0 {
			conv.messages = append(conv.messages[:idx], conv.messages[idx+1:]...)
		}
		return nil, err
	}
	if idx >= 0 {
		conv.messages[idx] = Message{Message: *confirmed}
	} else {
		conv.messages = append(conv.messages, Message{Message: *confirmed})
	}
	return confirmed, nil
}

func (conv *Conversation) findTemp(tempID string) int {
	for i := range conv.messages {
		if conv.messages[i].TempID == tempID {
			return i
		}
	}
	return -1
}

// Messages returns a snapshot of the conversation, oldest first.
func (conv *Conversation) Messages() []Message {
	conv.mu.Lock()
	defer conv.mu.Unlock()
	out := make([]Message, len(conv.messages))
	copy(out, conv.messages)
	return out
}
