package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bantuin/pkg/errors"
)

func TestFindOrCreateChatIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.chatUC.FindOrCreateChat(context.Background(), "alice", "bob", "req-1")
	require.NoError(t, err)

	// Reversed participant order still lands on the same conversation.
	second, err := env.chatUC.FindOrCreateChat(context.Background(), "bob", "alice", "req-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// A different request gets its own conversation.
	other, err := env.chatUC.FindOrCreateChat(context.Background(), "alice", "bob", "req-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestFindOrCreateChatRejectsSelf(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.chatUC.FindOrCreateChat(context.Background(), "alice", "alice", "req-1")
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestSendMessageTracksUnreadCounts(t *testing.T) {
	env := newTestEnv(t)

	chat, err := env.chatUC.FindOrCreateChat(context.Background(), "alice", "bob", "req-1")
	require.NoError(t, err)

	_, err = env.chatUC.SendMessage(context.Background(), "alice", SendMessageInput{
		ChatID: chat.ID,
		Text:   "hello",
	})
	require.NoError(t, err)

	stored, err := env.chatRepo.GetByID(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UnreadCount["bob"])
	assert.Equal(t, 0, stored.UnreadCount["alice"])
	assert.Equal(t, "hello", stored.LastMessage)

	require.NoError(t, env.chatUC.MarkChatAsRead(context.Background(), "bob", chat.ID))

	stored, err = env.chatRepo.GetByID(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.UnreadCount["bob"])

	for _, message := range env.chatRepo.messagesFor(chat.ID) {
		assert.True(t, message.Read)
	}
}

func TestSendMessageRequiresParticipant(t *testing.T) {
	env := newTestEnv(t)

	chat, err := env.chatUC.FindOrCreateChat(context.Background(), "alice", "bob", "req-1")
	require.NoError(t, err)

	_, err = env.chatUC.SendMessage(context.Background(), "carol", SendMessageInput{
		ChatID: chat.ID,
		Text:   "let me in",
	})
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestSettledChatRefusesOfficialMessages(t *testing.T) {
	env := newTestEnv(t)

	chat, err := env.chatUC.FindOrCreateChat(context.Background(), "alice", "bob", "req-1")
	require.NoError(t, err)
	require.NoError(t, env.chatUC.CompleteChat(context.Background(), chat.ID))

	_, err = env.chatUC.SendMessage(context.Background(), "alice", SendMessageInput{
		ChatID:            chat.ID,
		Text:              "one more engagement",
		IsOfficialRequest: true,
	})
	assert.True(t, errors.Is(err, "CONFLICT"))

	// Plain conversation between the pair continues.
	_, err = env.chatUC.SendMessage(context.Background(), "alice", SendMessageInput{
		ChatID: chat.ID,
		Text:   "thanks again",
	})
	require.NoError(t, err)
}

func TestCompleteChatIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	chat, err := env.chatUC.FindOrCreateChat(context.Background(), "alice", "bob", "req-1")
	require.NoError(t, err)

	require.NoError(t, env.chatUC.CompleteChat(context.Background(), chat.ID))
	require.NoError(t, env.chatUC.CompleteChat(context.Background(), chat.ID))

	stored, err := env.chatRepo.GetByID(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted)
}

func TestMuteChat(t *testing.T) {
	env := newTestEnv(t)

	chat, err := env.chatUC.FindOrCreateChat(context.Background(), "alice", "bob", "req-1")
	require.NoError(t, err)

	require.NoError(t, env.chatUC.MuteChat(context.Background(), "bob", chat.ID, true))

	stored, err := env.chatRepo.GetByID(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.True(t, stored.MutedBy["bob"])

	require.NoError(t, env.chatUC.MuteChat(context.Background(), "bob", chat.ID, false))

	stored, err = env.chatRepo.GetByID(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.False(t, stored.MutedBy["bob"])
}
