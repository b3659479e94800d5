package repositories

import (
	"errors"
	"time"

	"metalhub_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrChatNotFound = errors.New("chat not found")
)

type ChatRepository interface {
	Create(db *gorm.DB, chat *models.Chat) error
	FindByID(db *gorm.DB, id string) (*models.Chat, error)
	FindByListingAndBuyer(db *gorm.DB, listingID, buyerID string) (*models.Chat, error)
	// FindByUser returns chats where the user is buyer or seller, most recent activity first.
	FindByUser(db *gorm.DB, userID string) ([]models.Chat, error)
	TouchLastMessage(db *gorm.DB, chatID string, at time.Time) error
	CountByListings(db *gorm.DB, listingIDs []string) (map[string]int64, error)

	CreateMessage(db *gorm.DB, message *models.Message) error
	// RecentMessages returns the newest limit messages in ascending order.
	RecentMessages(db *gorm.DB, chatID string, limit int) ([]models.Message, error)
	LastMessages(db *gorm.DB, chatIDs []string) (map[string]models.Message, error)
}

type chatRepository struct{}

func NewChatRepository() ChatRepository {
	return &chatRepository{}
}

func (r *chatRepository) Create(db *gorm.DB, chat *models.Chat) error {
	return db.Omit("Messages", "Listing").Create(chat).Error
}

func (r *chatRepository) FindByID(db *gorm.DB, id string) (*models.Chat, error) {
	return r.findOne(db.Preload("Listing").Preload("Listing.Images", imagesByUpload), "id = ?", id)
}

func (r *chatRepository) FindByListingAndBuyer(db *gorm.DB, listingID, buyerID string) (*models.Chat, error) {
	return r.findOne(db, "listing_id = ? AND buyer_id = ?", listingID, buyerID)
}

func (r *chatRepository) findOne(db *gorm.DB, query string, args ...interface{}) (*models.Chat, error) {
	var chat models.Chat
	if err := db.Where(query, args...).First(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepository) FindByUser(db *gorm.DB, userID string) ([]models.Chat, error) {
	var chats []models.Chat
	err := db.Preload("Listing").Preload("Listing.Images", imagesByUpload).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("last_message_at DESC").
		Find(&chats).Error
	return chats, err
}

func (r *chatRepository) TouchLastMessage(db *gorm.DB, chatID string, at time.Time) error {
	result := db.Model(&models.Chat{}).Where("id = ?", chatID).Update("last_message_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrChatNotFound
	}
	return nil
}

func (r *chatRepository) CountByListings(db *gorm.DB, listingIDs []string) (map[string]int64, error) {
	return countGroupedByListing(db.Model(&models.Chat{}), listingIDs)
}

func (r *chatRepository) CreateMessage(db *gorm.DB, message *models.Message) error {
	return db.Create(message).Error
}

func (r *chatRepository) RecentMessages(db *gorm.DB, chatID string, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := db.Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *chatRepository) LastMessages(db *gorm.DB, chatIDs []string) (map[string]models.Message, error) {
	last := make(map[string]models.Message, len(chatIDs))
	if len(chatIDs) == 0 {
		return last, nil
	}
	var messages []models.Message
	err := db.Raw(`SELECT DISTINCT ON (chat_id) * FROM messages
		WHERE chat_id IN ? ORDER BY chat_id, created_at DESC`, chatIDs).
		Scan(&messages).Error
	if err != nil {
		return nil, err
	}
	for _, m := range messages {
		last[m.ChatID] = m
	}
	return last, nil
}
