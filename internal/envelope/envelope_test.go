package envelope

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/MYC-A/MoveUp/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeToMap(t *testing.T, env Envelope) map[string]any {
	t.Helper()
	data, err := Encode(env)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestEncode_PersonalWireFields(t *testing.T) {
	msg := &domain.Message{ID: 9, SenderID: 1, RecipientID: 2, Content: "hi", IsRead: true}

	out := encodeToMap(t, NewPersonal(msg))

	assert.ElementsMatch(t, []string{"type", "sender_id", "recipient_id", "content", "is_read"}, keys(out))
	assert.Equal(t, "personal", out["type"])
	assert.Equal(t, 1.0, out["sender_id"])
	assert.Equal(t, 2.0, out["recipient_id"])
	assert.Equal(t, "hi", out["content"])
	assert.Equal(t, false, out["is_read"], "personal envelopes are always unread on delivery")
}

func TestEncode_GroupWireFields(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	msg := &domain.GroupMessage{ID: 4, GroupChatID: 7, SenderID: 1, SenderName: "Anna", Content: "run at 7?", CreatedAt: created}

	out := encodeToMap(t, NewGroup(msg, 3))

	assert.ElementsMatch(t, []string{"type", "group_chat_id", "sender_id", "sender_name", "content", "created_at", "is_read"}, keys(out))
	assert.Equal(t, "group", out["type"])
	assert.Equal(t, 7.0, out["group_chat_id"])
	assert.Equal(t, "Anna", out["sender_name"])
	assert.Equal(t, "2025-03-01T10:30:00Z", out["created_at"])
	assert.Equal(t, false, out["is_read"])
}

func TestNewGroup_ReadOnlyForSender(t *testing.T) {
	msg := &domain.GroupMessage{GroupChatID: 7, SenderID: 1}

	assert.True(t, NewGroup(msg, 1).IsRead)
	assert.False(t, NewGroup(msg, 2).IsRead)
}

func TestEncode_LikeWireFields(t *testing.T) {
	out := encodeToMap(t, NewLike(&domain.LikeResult{PostID: 42, UserID: 5, Liked: true, LikesCount: 3}))

	assert.ElementsMatch(t, []string{"type", "post_id", "likes_count", "liked", "user_id"}, keys(out))
	assert.Equal(t, "like", out["type"])
	assert.Equal(t, 42.0, out["post_id"])
	assert.Equal(t, 3.0, out["likes_count"])
	assert.Equal(t, true, out["liked"])
	assert.Equal(t, 5.0, out["user_id"])
}

func TestEncode_CommentWireFields(t *testing.T) {
	c := &domain.Comment{
		ID:              11,
		PostID:          42,
		UserID:          5,
		Content:         "nice pace",
		CreatedAt:       time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		UserDisplayName: "Boris",
	}

	out := encodeToMap(t, NewComment(c))

	assert.ElementsMatch(t, []string{"type", "post_id", "comment"}, keys(out))
	assert.Equal(t, "comment", out["type"])

	body, ok := out["comment"].(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"id", "user_id", "content", "created_at", "user_display_name", "user"}, keys(body))
	assert.Equal(t, 11.0, body["id"])
	assert.Equal(t, "Boris", body["user_display_name"])
	assert.Equal(t, map[string]any{"username": "Boris"}, body["user"])
}

func TestDecode_RestoresVariant(t *testing.T) {
	original := Like{PostID: 42, LikesCount: 10, Liked: false, UserID: 8}
	data, err := Encode(original)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	like, ok := decoded.(Like)
	require.True(t, ok, "expected Like, got %T", decoded)
	assert.Equal(t, original, like)
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"photo","post_id":1}`))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDecode_MissingType(t *testing.T) {
	_, err := Decode([]byte(`{"post_id":1}`))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]byte(`{"type":`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownType)
}
