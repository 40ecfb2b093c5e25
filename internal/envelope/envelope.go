// Package envelope defines the messages pushed over live-update channels.
//
// An Envelope is one of Personal, Group, Like or Comment. The set is closed:
// the unexported marker method keeps other packages from adding variants, and
// Encode/Decode switch over every variant explicitly.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MYC-A/MoveUp/internal/domain"
)

// Type is the "type" tag carried by every envelope on the wire.
type Type string

const (
	TypePersonal Type = "personal"
	TypeGroup    Type = "group"
	TypeLike     Type = "like"
	TypeComment  Type = "comment"
)

// ErrUnknownType is returned when encoding or decoding an envelope whose type
// is not one of the four known kinds.
var ErrUnknownType = errors.New("unknown envelope type")

// Envelope is one of Personal, Group, Like or Comment. The set is closed.
type Envelope interface {
	Kind() Type
	isEnvelope()
}

// Personal carries a direct message to its recipient.
type Personal struct {
	SenderID    domain.UserID `json:"sender_id"`
	RecipientID domain.UserID `json:"recipient_id"`
	Content     string        `json:"content"`
	IsRead      bool          `json:"is_read"`
}

// Group carries a group chat message to one participant. IsRead is true only
// in the sender's own copy.
type Group struct {
	GroupChatID domain.GroupChatID `json:"group_chat_id"`
	SenderID    domain.UserID      `json:"sender_id"`
	SenderName  string             `json:"sender_name"`
	Content     string             `json:"content"`
	CreatedAt   time.Time          `json:"created_at"`
	IsRead      bool               `json:"is_read"`
}

// Like reports a toggled like and the post's new like count.
type Like struct {
	PostID     domain.PostID `json:"post_id"`
	LikesCount int64         `json:"likes_count"`
	Liked      bool          `json:"liked"`
	UserID     domain.UserID `json:"user_id"`
}

// Comment announces a new comment on a post.
type Comment struct {
	PostID  domain.PostID `json:"post_id"`
	Comment CommentBody   `json:"comment"`
}

// CommentBody is the comment as the web client renders it.
type CommentBody struct {
	ID              int64         `json:"id"`
	UserID          domain.UserID `json:"user_id"`
	Content         string        `json:"content"`
	CreatedAt       time.Time     `json:"created_at"`
	UserDisplayName string        `json:"user_display_name"`
	// User repeats the display name in the nested form the web client reads.
	User CommentAuthor `json:"user"`
}

// CommentAuthor names the commenter.
type CommentAuthor struct {
	Username string `json:"username"`
}

func (Personal) Kind() Type { return TypePersonal }
func (Group) Kind() Type    { return TypeGroup }
func (Like) Kind() Type     { return TypeLike }
func (Comment) Kind() Type  { return TypeComment }

func (Personal) isEnvelope() {}
func (Group) isEnvelope()    {}
func (Like) isEnvelope()     {}
func (Comment) isEnvelope()  {}

// NewPersonal builds the envelope for a freshly stored personal message.
func NewPersonal(msg *domain.Message) Personal {
	return Personal{
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		Content:     msg.Content,
		IsRead:      false,
	}
}

// NewGroup builds the copy of a group message addressed to one participant.
func NewGroup(msg *domain.GroupMessage, participant domain.UserID) Group {
	return Group{
		GroupChatID: msg.GroupChatID,
		SenderID:    msg.SenderID,
		SenderName:  msg.SenderName,
		Content:     msg.Content,
		CreatedAt:   msg.CreatedAt,
		IsRead:      participant == msg.SenderID,
	}
}

func NewLike(res *domain.LikeResult) Like {
	return Like{
		PostID:     res.PostID,
		LikesCount: res.LikesCount,
		Liked:      res.Liked,
		UserID:     res.UserID,
	}
}

func NewComment(c *domain.Comment) Comment {
	return Comment{
		PostID: c.PostID,
		Comment: CommentBody{
			ID:              c.ID,
			UserID:          c.UserID,
			Content:         c.Content,
			CreatedAt:       c.CreatedAt,
			UserDisplayName: c.UserDisplayName,
			User:            CommentAuthor{Username: c.UserDisplayName},
		},
	}
}

// Encode renders the wire JSON of env with its type tag.
func Encode(env Envelope) ([]byte, error) {
	var wire any
	switch e := env.(type) {
	case Personal:
		wire = struct {
			Type Type `json:"type"`
			Personal
		}{TypePersonal, e}
	case Group:
		wire = struct {
			Type Type `json:"type"`
			Group
		}{TypeGroup, e}
	case Like:
		wire = struct {
			Type Type `json:"type"`
			Like
		}{TypeLike, e}
	case Comment:
		wire = struct {
			Type Type `json:"type"`
			Comment
		}{TypeComment, e}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, env)
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s envelope: %w", env.Kind(), err)
	}
	return data, nil
}

// Decode parses wire JSON produced by Encode.
func Decode(data []byte) (Envelope, error) {
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to parse envelope: %w", err)
	}

	switch head.Type {
	case TypePersonal:
		return decodeAs[Personal](data)
	case TypeGroup:
		return decodeAs[Group](data)
	case TypeLike:
		return decodeAs[Like](data)
	case TypeComment:
		return decodeAs[Comment](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, head.Type)
	}
}

func decodeAs[T Envelope](data []byte) (Envelope, error) {
	var env T
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse %s envelope: %w", env.Kind(), err)
	}
	return env, nil
}
