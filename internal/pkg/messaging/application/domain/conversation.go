package messaging

import (
	"fmt"
	"strings"
	"time"
)

// Conversation is a two-party thread. At most one conversation exists per
// unordered participant pair; PairKey is the uniqueness key.
type Conversation struct {
	ID            string    `db:"id"`
	ParticipantA  string    `db:"participant_a"` // lower half of the canonical pair
	ParticipantB  string    `db:"participant_b"` // upper half of the canonical pair
	LastMessageID *string   `db:"last_message_id"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// PairKey returns the canonical key for a two-party conversation: both ids
// lowercased and in sorted order. Lowercasing keeps the sort consistent
// with uuid value ordering, which compares the canonical lowercase text.
// Either argument order and any id casing yield the same key.
func PairKey(a, b string) (string, string) {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if b < a {
		a, b = b, a
	}
	return a, b
}

// PairKeyString flattens the canonical pair into a single lookup string.
func PairKeyString(a, b string) string {
	lo, hi := PairKey(a, b)
	return fmt.Sprintf("%s:%s", lo, hi)
}

// HasParticipant tells whether userID is one of the two members.
func (c *Conversation) HasParticipant(userID string) bool {
	if c == nil {
		return false
	}
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// OtherParticipant returns the member that is not userID, or empty when
// userID is not a member at all.
func (c *Conversation) OtherParticipant(userID string) string {
	switch {
	case c == nil:
		return ""
	case c.ParticipantA == userID:
		return c.ParticipantB
	case c.ParticipantB == userID:
		return c.ParticipantA
	}
	return ""
}
