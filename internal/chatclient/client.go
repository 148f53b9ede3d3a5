package chatclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hichat/internal/models"
	"hichat/internal/ws"
)

// Reconnection is client-driven: bounded attempts, fixed backoff. Messages
// sent during the gap are recovered by the next history fetch, not
// backfilled here.
const (
	defaultReconnectAttempts = 5
	defaultReconnectDelay    = 2 * time.Second
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrAlreadyConnected = errors.New("already connected")
)

// Client talks to a Hi Chat server: REST for auth, history and sends, the
// websocket for presence and live inbound messages.
type Client struct {
	baseURL string
	http    *http.Client

	reconnectAttempts int
	reconnectDelay    time.Duration

	mu     sync.Mutex
	user   *models.User
	conn   *websocket.Conn
	gen    int
	sub    *Subscription
	closed bool

	// OnPresence, when set before Connect, receives every online-set update.
	OnPresence func([]int)
}

func New(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		http:              &http.Client{Jar: jar, Timeout: 10 * time.Second},
		reconnectAttempts: defaultReconnectAttempts,
		reconnectDelay:    defaultReconnectDelay,
	}
}

// AuthUser returns the logged-in user, or nil.
func (c *Client) AuthUser() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

func (c *Client) Signup(fullName, email, password string) (*models.User, error) {
	var user models.User
	err := c.postJSON("/api/auth/signup", map[string]string{
		"fullName": fullName,
		"email":    email,
		"password": password,
	}, &user)
	if err != nil {
		return nil, err
	}
	c.setUser(&user)
	return &user, nil
}

func (c *Client) Login(email, password string) (*models.User, error) {
	var user models.User
	err := c.postJSON("/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &user)
	if err != nil {
		return nil, err
	}
	c.setUser(&user)
	return &user, nil
}

func (c *Client) Logout() error {
	if err := c.postJSON("/api/auth/logout", nil, nil); err != nil {
		return err
	}
	c.setUser(nil)
	return nil
}

func (c *Client) CheckAuth() (*models.User, error) {
	var user models.User
	if err := c.getJSON("/api/auth/check", &user); err != nil {
		return nil, err
	}
	c.setUser(&user)
	return &user, nil
}

func (c *Client) Contacts() ([]models.User, error) {
	var users []models.User
	err := c.getJSON("/api/messages/contacts", &users)
	return users, err
}

func (c *Client) ChatPartners() ([]models.User, error) {
	var users []models.User
	err := c.getJSON("/api/messages/chats", &users)
	return users, err
}

func (c *Client) History(partnerID int) ([]models.Message, error) {
	var messages []models.Message
	err := c.getJSON("/api/messages/"+strconv.Itoa(partnerID), &messages)
	return messages, err
}

func (c *Client) sendMessage(receiverID int, text, image string) (*models.Message, error) {
	var msg models.Message
	err := c.postJSON(fmt.Sprintf("/api/messages/send/%d", receiverID), map[string]string{
		"text":  text,
		"image": image,
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Connect opens the live connection. The session cookie from login is
// presented during the handshake. Connecting while a connection is live
// returns ErrAlreadyConnected; Close first to replace it.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.user == nil {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	if c.conn != nil {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.mu.Unlock()

	conn, err := c.dial()
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		conn.Close()
		return ErrAlreadyConnected
	}
	c.conn = conn
	c.closed = false
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	go c.readLoop(conn, gen)
	return nil
}

// Close shuts down the live connection without logging out.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func (c *Client) dial() (*websocket.Conn, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	for _, cookie := range c.http.Jar.Cookies(base) {
		header.Add("Cookie", cookie.String())
	}

	endpoint := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(endpoint, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	return conn, nil
}

func (c *Client) readLoop(conn *websocket.Conn, gen int) {
	for {
		var ev event
		if err := conn.ReadJSON(&ev); err != nil {
			conn.Close()
			if c.stale(gen) {
				return
			}

			next, ok := c.reconnect(gen)
			if !ok {
				if !c.stale(gen) {
					log.Printf("Connection lost, giving up after %d attempts", c.reconnectAttempts)
				}
				return
			}
			c.mu.Lock()
			if c.closed || c.gen != gen {
				c.mu.Unlock()
				next.Close()
				return
			}
			c.conn = next
			c.mu.Unlock()
			conn = next
			continue
		}
		c.dispatch(ev)
	}
}

func (c *Client) reconnect(gen int) (*websocket.Conn, bool) {
	for attempt := 1; attempt <= c.reconnectAttempts; attempt++ {
		time.Sleep(c.reconnectDelay)
		if c.stale(gen) {
			return nil, false
		}
		conn, err := c.dial()
		if err != nil {
			log.Printf("Reconnect attempt %d/%d failed: %v", attempt, c.reconnectAttempts, err)
			continue
		}
		// Close may have raced the dial; never hand back a connection the
		// caller has already given up on.
		if c.stale(gen) {
			conn.Close()
			return nil, false
		}
		return conn, true
	}
	return nil, false
}

// stale reports whether the connection generation gen has been superseded
// by Close or a later Connect, so its loop must stop touching the client.
func (c *Client) stale(gen int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed || c.gen != gen
}

type event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (c *Client) dispatch(ev event) {
	switch ev.Event {
	case ws.EventOnlineUsers:
		var users []int
		if err := json.Unmarshal(ev.Data, &users); err != nil {
			return
		}
		if c.OnPresence != nil {
			c.OnPresence(users)
		}
	case ws.EventNewMessage:
		var msg models.Message
		if err := json.Unmarshal(ev.Data, &msg); err != nil {
			return
		}
		c.mu.Lock()
		sub := c.sub
		c.mu.Unlock()
		// Only messages from the subscribed partner are handled live;
		// the rest surface on the next history fetch.
		if sub != nil && msg.SenderID == sub.partnerID {
			sub.handler(msg)
		}
	}
}

// Subscription is the handle for the single live-message listener.
type Subscription struct {
	client    *Client
	partnerID int
	handler   func(models.Message)
}

// Subscribe registers the live-message listener for one conversation
// partner. A new subscription replaces the previous one, so switching
// conversations cannot accumulate listeners.
func (c *Client) Subscribe(partnerID int, handler func(models.Message)) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &Subscription{client: c, partnerID: partnerID, handler: handler}
	c.sub = s
	return s
}

// Close releases the subscription. Closing a handle that has already been
// superseded is a no-op.
func (s *Subscription) Close() {
	c := s.client
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub == s {
		c.sub = nil
	}
}

func (c *Client) setUser(user *models.User) {
	c.mu.Lock()
	c.user = user
	c.mu.Unlock()
}

func (c *Client) postJSON(path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	resp, err := c.http.Post(c.baseURL+path, "application/json", &buf)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func (c *Client) getJSON(path string, out interface{}) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
