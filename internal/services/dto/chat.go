package dto

import "metalhub_backend/internal/models"

type CreateChatRequest struct {
	ListingID      string `json:"listingId" validate:"required,uuid"`
	InitialMessage string `json:"initialMessage" validate:"max=4000"`
}

type SendMessageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

type ChatSummary struct {
	models.Chat
	LastMessage *models.Message `json:"lastMessage,omitempty"`
}
