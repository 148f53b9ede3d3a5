package store

import "hichat/internal/models"

type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id int) (*models.User, error)
	UserExists(id int) (bool, error)
	UpdateProfile(id int, fullName, profilePic string) (*models.User, error)
	GetContacts(excludeUserID int) ([]models.User, error)
	GetChatPartners(userID int) ([]models.User, error)

	// Message operations
	SaveMessage(senderID, receiverID int, text, image string) (*models.Message, error)
	GetConversation(userID, partnerID int) ([]models.Message, error)
}
