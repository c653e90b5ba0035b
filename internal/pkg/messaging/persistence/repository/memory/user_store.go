package memory

import (
	"context"
	"sync"

	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
	repository "github.com/KJsquare9/chat/internal/pkg/messaging/persistence/repository/port"
)

type userRecord struct {
	FullName           string
	FCMToken           string
	AllowNotifications bool
}

// UserStore is the in-memory UserRepository, used by tests and the memory
// storage mode.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*userRecord
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*userRecord)}
}

var _ repository.UserRepository = (*UserStore)(nil)

// Put seeds or replaces a user record.
func (s *UserStore) Put(id, fullName, fcmToken string, allowNotifications bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = &userRecord{
		FullName:           fullName,
		FCMToken:           fcmToken,
		AllowNotifications: allowNotifications,
	}
}

func (s *UserStore) GetRef(ctx context.Context, userID string) (*messaging.UserRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, messaging.ErrNotFound
	}
	return &messaging.UserRef{ID: userID, FullName: u.FullName}, nil
}

func (s *UserStore) GetPushTarget(ctx context.Context, userID string) (*messaging.PushTarget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, messaging.ErrNotFound
	}
	return &messaging.PushTarget{FCMToken: u.FCMToken, AllowNotifications: u.AllowNotifications}, nil
}

func (s *UserStore) SetPushToken(ctx context.Context, userID, token string) error {
	return s.update(userID, func(u *userRecord) { u.FCMToken = token })
}

func (s *UserStore) ClearPushToken(ctx context.Context, userID string) error {
	return s.update(userID, func(u *userRecord) { u.FCMToken = "" })
}

func (s *UserStore) SetAllowNotifications(ctx context.Context, userID string, allow bool) error {
	return s.update(userID, func(u *userRecord) { u.AllowNotifications = allow })
}

func (s *UserStore) update(userID string, fn func(*userRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return messaging.ErrNotFound
	}
	fn(u)
	return nil
}
