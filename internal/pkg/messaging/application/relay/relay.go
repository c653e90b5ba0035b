// Package relay is the orchestrating core of the messaging system: it
// accepts inbound send/typing/read-receipt events, validates and persists
// them through the store ports, and routes outbound events to live
// sessions or the push queue when the recipient is offline.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	cacheport "github.com/KJsquare9/chat/internal/infrastructure/cache/port"
	qport "github.com/KJsquare9/chat/internal/infrastructure/queue/port"
	"github.com/KJsquare9/chat/internal/infrastructure/realtime"
	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
	repository "github.com/KJsquare9/chat/internal/pkg/messaging/persistence/repository/port"
)

// ErrPersistence indicates a store failure inside the relay. It is the only
// relay error that is not a validation/authorization rejection.
var ErrPersistence = errors.New("relay: persistence error")

const senderRefTTL = 10 * time.Minute

// Config wires the relay's collaborators. Queue and Cache are optional:
// without a queue push dispatch is skipped (and logged), without a cache
// every sender projection is read from the user store.
type Config struct {
	Conversations repository.ConversationRepository
	Messages      repository.MessageRepository
	Users         repository.UserRepository
	Registry      realtime.Registry
	Queue         qport.Client
	Cache         cacheport.Cache
	Logger        *zap.Logger
}

// Relay handles one logical relay process. All methods are safe for
// concurrent use; events for different conversations run fully in parallel
// and atomicity lives in the store operations, not here.
type Relay struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	users         repository.UserRepository
	registry      realtime.Registry
	queue         qport.Client
	cache         cacheport.Cache
	logger        *zap.Logger
}

func New(cfg Config) *Relay {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		conversations: cfg.Conversations,
		messages:      cfg.Messages,
		users:         cfg.Users,
		registry:      cfg.Registry,
		queue:         cfg.Queue,
		cache:         cfg.Cache,
		logger:        logger,
	}
}

// senderRef resolves the sender-identity projection for outbound events,
// going through the cache on the hot path. Lookup failure degrades to a
// bare id, matching what clients already know.
func (r *Relay) senderRef(ctx context.Context, senderID string) messaging.UserRef {
	key := "user:ref:" + senderID

	if r.cache != nil {
		if raw, err := r.cache.Get(ctx, key); err == nil {
			var ref messaging.UserRef
			if json.Unmarshal([]byte(raw), &ref) == nil {
				return ref
			}
		}
	}

	ref, err := r.users.GetRef(ctx, senderID)
	if err != nil {
		if !errors.Is(err, messaging.ErrNotFound) {
			r.logger.Warn("sender lookup failed", zap.String("sender", senderID), zap.Error(err))
		}
		return messaging.UserRef{ID: senderID}
	}

	if r.cache != nil {
		if raw, err := json.Marshal(ref); err == nil {
			if err := r.cache.Set(ctx, key, string(raw), senderRefTTL); err != nil {
				r.logger.Debug("sender ref cache write failed", zap.Error(err))
			}
		}
	}
	return *ref
}
