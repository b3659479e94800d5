package services

import (
	"context"
	"errors"
	"time"

	"metalhub_backend/internal/logger"
	"metalhub_backend/internal/models"
	"metalhub_backend/internal/repositories"
	"metalhub_backend/internal/services/dto"
	"metalhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const chatHistoryLimit = 50

const EventNewMessage = "message.new"

// ChatEvent is pushed to the counterpart of a chat message.
type ChatEvent struct {
	Type    string          `json:"type"`
	ChatID  string          `json:"chatId"`
	Message *models.Message `json:"message"`
}

// ChatNotifier pushes events to connected users.
type ChatNotifier interface {
	NotifyUser(userID string, event interface{})
}

type ChatService interface {
	// CreateChat returns the existing chat for (listing, caller) or opens one.
	CreateChat(ctx context.Context, db *gorm.DB, buyerID string, req *dto.CreateChatRequest) (*models.Chat, error)
	GetChat(ctx context.Context, db *gorm.DB, userID, chatID string) (*models.Chat, error)
	ListChats(ctx context.Context, db *gorm.DB, userID string) ([]dto.ChatSummary, error)
	SendMessage(ctx context.Context, db *gorm.DB, senderID, chatID string, req *dto.SendMessageRequest) (*models.Message, error)
}

type ChatServiceImpl struct {
	chatRepo    repositories.ChatRepository
	listingRepo repositories.ListingRepository
	notifier    ChatNotifier
	now         func() time.Time
}

func NewChatService(
	chatRepo repositories.ChatRepository,
	listingRepo repositories.ListingRepository,
	notifier ChatNotifier,
) ChatService {
	return &ChatServiceImpl{
		chatRepo:    chatRepo,
		listingRepo: listingRepo,
		notifier:    notifier,
		now:         time.Now,
	}
}

func (s *ChatServiceImpl) CreateChat(ctx context.Context, db *gorm.DB, buyerID string, req *dto.CreateChatRequest) (*models.Chat, error) {
	db = db.WithContext(ctx)

	listing, err := s.listingRepo.FindByID(db, req.ListingID)
	if err != nil {
		return nil, handleChatError(err)
	}
	if listing.SellerID == buyerID {
		return nil, apperrors.ErrChatWithSelf
	}

	chat, err := s.chatRepo.FindByListingAndBuyer(db, req.ListingID, buyerID)
	switch {
	case err == nil:
		return s.GetChat(ctx, db, buyerID, chat.ID)
	case !errors.Is(err, repositories.ErrChatNotFound):
		return nil, apperrors.DatabaseError(err)
	}

	chat = &models.Chat{
		ListingID:     listing.ID,
		BuyerID:       buyerID,
		SellerID:      listing.SellerID,
		LastMessageAt: s.now(),
	}
	if err := s.chatRepo.Create(db, chat); err != nil {
		// Lost a race on the (listing, buyer) unique index.
		if existing, findErr := s.chatRepo.FindByListingAndBuyer(db, req.ListingID, buyerID); findErr == nil {
			return s.GetChat(ctx, db, buyerID, existing.ID)
		}
		return nil, apperrors.DatabaseError(err)
	}

	if req.InitialMessage != "" {
		if _, err := s.SendMessage(ctx, db, buyerID, chat.ID, &dto.SendMessageRequest{Message: req.InitialMessage}); err != nil {
			return nil, err
		}
	}
	return s.GetChat(ctx, db, buyerID, chat.ID)
}

func (s *ChatServiceImpl) GetChat(ctx context.Context, db *gorm.DB, userID, chatID string) (*models.Chat, error) {
	db = db.WithContext(ctx)

	chat, err := s.chatRepo.FindByID(db, chatID)
	if err != nil {
		return nil, handleChatError(err)
	}
	if !chat.HasParticipant(userID) {
		return nil, apperrors.ErrChatAccessDenied
	}

	messages, err := s.chatRepo.RecentMessages(db, chatID, chatHistoryLimit)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	chat.Messages = messages
	trimListingImages(chat.Listing)
	return chat, nil
}

func (s *ChatServiceImpl) ListChats(ctx context.Context, db *gorm.DB, userID string) ([]dto.ChatSummary, error) {
	db = db.WithContext(ctx)

	chats, err := s.chatRepo.FindByUser(db, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	ids := make([]string, 0, len(chats))
	for _, c := range chats {
		ids = append(ids, c.ID)
	}
	last, err := s.chatRepo.LastMessages(db, ids)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	summaries := make([]dto.ChatSummary, 0, len(chats))
	for _, c := range chats {
		trimListingImages(c.Listing)
		summary := dto.ChatSummary{Chat: c}
		if m, ok := last[c.ID]; ok {
			summary.LastMessage = &m
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *ChatServiceImpl) SendMessage(ctx context.Context, db *gorm.DB, senderID, chatID string, req *dto.SendMessageRequest) (*models.Message, error) {
	message := &models.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  req.Message,
	}

	var chat *models.Chat
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		chat, err = s.chatRepo.FindByID(tx, chatID)
		if err != nil {
			return err
		}
		if !chat.HasParticipant(senderID) {
			return apperrors.ErrChatAccessDenied
		}
		if err := s.chatRepo.CreateMessage(tx, message); err != nil {
			return err
		}
		return s.chatRepo.TouchLastMessage(tx, chatID, s.now())
	})
	if err != nil {
		return nil, handleChatError(err)
	}

	if s.notifier != nil {
		s.notifier.NotifyUser(chat.Counterpart(senderID), ChatEvent{
			Type:    EventNewMessage,
			ChatID:  chatID,
			Message: message,
		})
	}
	logger.CtxDebug(ctx, "chat message sent", "chat_id", chatID)
	return message, nil
}

func trimListingImages(l *models.Listing) {
	if l != nil && len(l.Images) > 1 {
		l.Images = l.Images[:1]
	}
}

func handleChatError(err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repositories.ErrChatNotFound):
		return apperrors.ErrChatNotFound
	case errors.Is(err, repositories.ErrListingNotFound):
		return apperrors.ErrListingNotFound
	}
	return apperrors.DatabaseError(err)
}
