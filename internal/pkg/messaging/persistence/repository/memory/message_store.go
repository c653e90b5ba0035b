package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
	repository "github.com/KJsquare9/chat/internal/pkg/messaging/persistence/repository/port"
)

// MessageStore is the in-memory MessageRepository. The single mutex gives
// the same atomicity for the bulk mark-read that the SQL adapter gets from
// one UPDATE statement.
type MessageStore struct {
	mu       sync.RWMutex
	byConv   map[string][]*messaging.Message
	messages map[string]*messaging.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		byConv:   make(map[string][]*messaging.Message),
		messages: make(map[string]*messaging.Message),
	}
}

var _ repository.MessageRepository = (*MessageStore)(nil)

func (s *MessageStore) Save(ctx context.Context, m messaging.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = uuid.NewString()
	stored := m
	s.messages[stored.ID] = &stored
	s.byConv[stored.ConversationID] = append(s.byConv[stored.ConversationID], &stored)
	return stored.ID, nil
}

func (s *MessageStore) ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]messaging.Message, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.byConv[conversationID]
	sorted := make([]*messaging.Message, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	if offset >= len(sorted) {
		return nil, nil
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}
	out := make([]messaging.Message, 0, end-offset)
	for _, m := range sorted[offset:end] {
		out = append(out, *m)
	}
	return out, nil
}

func (s *MessageStore) CountByConversation(ctx context.Context, conversationID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byConv[conversationID]), nil
}

func (s *MessageStore) MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for _, m := range s.byConv[conversationID] {
		if m.ReceiverID == readerID && m.Status != messaging.MessageStatusRead {
			m.Status = messaging.MessageStatusRead
			changed++
		}
	}
	return changed, nil
}

// Get returns a copy of a stored message, for tests.
func (s *MessageStore) Get(id string) (messaging.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return messaging.Message{}, false
	}
	return *m, true
}
