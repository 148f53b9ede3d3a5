package sqlstore

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"hichat/internal/models"
)

type SQLStore struct {
	db *sql.DB
}

func New(dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer at a time; a single pooled connection also
	// keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLStore{db: db}
	if err := s.createTables(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) createTables() error {
	// Simplified for brevity, ideally use migrations
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		full_name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		profile_pic TEXT DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id INTEGER NOT NULL,
		receiver_id INTEGER NOT NULL,
		text TEXT DEFAULT '',
		image TEXT DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (sender_id) REFERENCES users(id),
		FOREIGN KEY (receiver_id) REFERENCES users(id)
	);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *SQLStore) CreateUser(user *models.User) error {
	result, err := s.db.Exec(
		"INSERT INTO users (full_name, email, password, profile_pic) VALUES (?, ?, ?, ?)",
		user.FullName, user.Email, user.Password, user.ProfilePic)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = int(id)
	return nil
}

func (s *SQLStore) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(
		"SELECT id, full_name, email, password, profile_pic FROM users WHERE email = ?",
		email).Scan(&user.ID, &user.FullName, &user.Email, &user.Password, &user.ProfilePic)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLStore) GetUserByID(id int) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(
		"SELECT id, full_name, email, password, profile_pic FROM users WHERE id = ?",
		id).Scan(&user.ID, &user.FullName, &user.Email, &user.Password, &user.ProfilePic)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLStore) UserExists(id int) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(1) FROM users WHERE id = ?", id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLStore) UpdateProfile(id int, fullName, profilePic string) (*models.User, error) {
	_, err := s.db.Exec(
		"UPDATE users SET full_name = COALESCE(NULLIF(?, ''), full_name), profile_pic = COALESCE(NULLIF(?, ''), profile_pic) WHERE id = ?",
		fullName, profilePic, id)
	if err != nil {
		return nil, err
	}
	return s.GetUserByID(id)
}

// GetContacts returns every user except the logged-in one.
func (s *SQLStore) GetContacts(excludeUserID int) ([]models.User, error) {
	rows, err := s.db.Query(
		"SELECT id, full_name, email, profile_pic FROM users WHERE id != ? ORDER BY full_name",
		excludeUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

// GetChatPartners returns the distinct users the given user has exchanged
// messages with.
func (s *SQLStore) GetChatPartners(userID int) ([]models.User, error) {
	rows, err := s.db.Query(`
		SELECT id, full_name, email, profile_pic FROM users WHERE id IN (
			SELECT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END
			FROM messages WHERE sender_id = ? OR receiver_id = ?
		) ORDER BY full_name`,
		userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.FullName, &user.Email, &user.ProfilePic); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *SQLStore) SaveMessage(senderID, receiverID int, text, image string) (*models.Message, error) {
	createdAt := time.Now().UTC()
	result, err := s.db.Exec(
		"INSERT INTO messages (sender_id, receiver_id, text, image, created_at) VALUES (?, ?, ?, ?, ?)",
		senderID, receiverID, text, image, createdAt)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Message{
		ID:         int(id),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Image:      image,
		CreatedAt:  createdAt,
	}, nil
}

// GetConversation returns all messages between two users, oldest first.
func (s *SQLStore) GetConversation(userID, partnerID int) ([]models.Message, error) {
	rows, err := s.db.Query(`
		SELECT id, sender_id, receiver_id, text, image, created_at FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at, id`,
		userID, partnerID, partnerID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Text, &msg.Image, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
