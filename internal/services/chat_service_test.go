package services

import (
	"context"
	"testing"

	"metalhub_backend/internal/services/dto"
	"metalhub_backend/internal/testutil"
	"metalhub_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatFixture() (ChatService, *recordingChatNotifier) {
	notifier := &recordingChatNotifier{}
	svc := NewChatService(newFakeChatRepo(), newFakeListingRepo(approvedListing("l1", "seller", true)), notifier)
	return svc, notifier
}

func TestChatService_CreateChatIsIdempotent(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	svc, notifier := newChatFixture()
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()

	chat, err := svc.CreateChat(ctx, db, "buyer", &dto.CreateChatRequest{ListingID: "l1", InitialMessage: "Is 50 MT available?"})
	require.NoError(t, err)
	assert.Equal(t, "seller", chat.SellerID)
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, "Is 50 MT available?", chat.Messages[0].Content)

	again, err := svc.CreateChat(ctx, db, "buyer", &dto.CreateChatRequest{ListingID: "l1"})
	require.NoError(t, err)
	assert.Equal(t, chat.ID, again.ID)

	pushed := notifier.pushed()
	require.Len(t, pushed, 1)
	assert.Equal(t, "seller", pushed[0].userID)
	event, ok := pushed[0].event.(ChatEvent)
	require.True(t, ok)
	assert.Equal(t, EventNewMessage, event.Type)
	assert.Equal(t, chat.ID, event.ChatID)
}

func TestChatService_CreateChatGuards(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	svc, _ := newChatFixture()
	ctx := context.Background()

	_, err := svc.CreateChat(ctx, db, "seller", &dto.CreateChatRequest{ListingID: "l1"})
	assert.ErrorIs(t, err, apperrors.ErrChatWithSelf)

	_, err = svc.CreateChat(ctx, db, "buyer", &dto.CreateChatRequest{ListingID: "missing"})
	assert.ErrorIs(t, err, apperrors.ErrListingNotFound)
}

func TestChatService_ParticipantsOnly(t *testing.T) {
	db, mock := testutil.NewMockDB(t)
	svc, notifier := newChatFixture()
	ctx := context.Background()

	chat, err := svc.CreateChat(ctx, db, "buyer", &dto.CreateChatRequest{ListingID: "l1"})
	require.NoError(t, err)

	_, err = svc.GetChat(ctx, db, "stranger", chat.ID)
	assert.ErrorIs(t, err, apperrors.ErrChatAccessDenied)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.SendMessage(ctx, db, "stranger", chat.ID, &dto.SendMessageRequest{Message: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrChatAccessDenied)

	mock.ExpectBegin()
	mock.ExpectCommit()
	msg, err := svc.SendMessage(ctx, db, "seller", chat.ID, &dto.SendMessageRequest{Message: "Yes, ex-works Pune"})
	require.NoError(t, err)
	assert.Equal(t, "seller", msg.SenderID)

	pushed := notifier.pushed()
	require.Len(t, pushed, 1)
	assert.Equal(t, "buyer", pushed[0].userID)

	summaries, err := svc.ListChats(ctx, db, "buyer")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.NotNil(t, summaries[0].LastMessage)
	assert.Equal(t, "Yes, ex-works Pune", summaries[0].LastMessage.Content)

	none, err := svc.ListChats(ctx, db, "stranger")
	require.NoError(t, err)
	assert.Empty(t, none)
}
