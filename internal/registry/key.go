package registry

import (
	"strconv"
	"strings"

	"github.com/MYC-A/MoveUp/internal/domain"
)

// Key identifies the audience a connection subscribes to.
type Key string

// FeedKey is shared by every client watching the post feed.
const FeedKey Key = "feed"

func UserKey(id domain.UserID) Key {
	return Key("user:" + strconv.FormatInt(int64(id), 10))
}

func PostKey(id domain.PostID) Key {
	return Key("post:" + strconv.FormatInt(int64(id), 10))
}

// Kind returns the key's audience class ("user", "post" or "feed"), used as a
// low-cardinality metric label.
func (k Key) Kind() string {
	if kind, _, ok := strings.Cut(string(k), ":"); ok {
		return kind
	}
	return string(k)
}

func (k Key) String() string { return string(k) }
