package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
	repository "github.com/KJsquare9/chat/internal/pkg/messaging/persistence/repository/port"
)

// ConversationStore is the in-memory ConversationRepository. Find-or-create
// runs under one mutex, matching the atomic-upsert guarantee of the SQL
// adapter.
type ConversationStore struct {
	mu     sync.RWMutex
	byPair map[string]*messaging.Conversation
	byID   map[string]*messaging.Conversation

	users    *UserStore    // for the other-participant projection
	messages *MessageStore // for the last-message preview; may be nil
}

func NewConversationStore(users *UserStore, messages *MessageStore) *ConversationStore {
	return &ConversationStore{
		byPair:   make(map[string]*messaging.Conversation),
		byID:     make(map[string]*messaging.Conversation),
		users:    users,
		messages: messages,
	}
}

var _ repository.ConversationRepository = (*ConversationStore)(nil)

func (s *ConversationStore) FindOrCreateByPair(ctx context.Context, a, b string) (*messaging.Conversation, error) {
	key := messaging.PairKeyString(a, b)

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.byPair[key]; ok {
		c.UpdatedAt = time.Now().UTC()
		copied := *c
		return &copied, nil
	}

	lo, hi := messaging.PairKey(a, b)
	now := time.Now().UTC()
	c := &messaging.Conversation{
		ID:           uuid.NewString(),
		ParticipantA: lo,
		ParticipantB: hi,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byPair[key] = c
	s.byID[c.ID] = c
	copied := *c
	return &copied, nil
}

func (s *ConversationStore) GetByID(ctx context.Context, id string) (*messaging.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, messaging.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *ConversationStore) SetLastMessage(ctx context.Context, conversationID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[conversationID]
	if !ok {
		return messaging.ErrNotFound
	}
	id := messageID
	c.LastMessageID = &id
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *ConversationStore) ListByParticipant(ctx context.Context, userID string) ([]repository.ConversationSummary, error) {
	s.mu.RLock()
	var convs []messaging.Conversation
	for _, c := range s.byID {
		if c.HasParticipant(userID) {
			convs = append(convs, *c)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})

	summaries := make([]repository.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		sum := repository.ConversationSummary{Conversation: c}
		otherID := c.OtherParticipant(userID)
		sum.Other = messaging.UserRef{ID: otherID}
		if s.users != nil {
			if ref, err := s.users.GetRef(ctx, otherID); err == nil {
				sum.Other = *ref
			}
		}
		sum.LastMessage = s.lastMessage(c.LastMessageID)
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

func (s *ConversationStore) lastMessage(id *string) *messaging.Message {
	if id == nil || s.messages == nil {
		return nil
	}
	if m, ok := s.messages.Get(*id); ok {
		return &m
	}
	return nil
}
