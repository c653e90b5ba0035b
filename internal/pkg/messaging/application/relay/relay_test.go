package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	qport "github.com/KJsquare9/chat/internal/infrastructure/queue/port"
	"github.com/KJsquare9/chat/internal/infrastructure/realtime"
	messaging "github.com/KJsquare9/chat/internal/pkg/messaging/application/domain"
	"github.com/KJsquare9/chat/internal/pkg/messaging/application/relay"
	"github.com/KJsquare9/chat/internal/pkg/messaging/application/task"
	"github.com/KJsquare9/chat/internal/pkg/messaging/events"
	"github.com/KJsquare9/chat/internal/pkg/messaging/persistence/repository/memory"
)

// fakeSession captures everything broadcast to it.
type fakeSession struct {
	id string

	mu       sync.Mutex
	payloads [][]byte
}

func (s *fakeSession) SessionID() string { return s.id }

func (s *fakeSession) Send(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(p))
	copy(cp, p)
	s.payloads = append(s.payloads, cp)
	return nil
}

func (s *fakeSession) frames() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.payloads))
	copy(out, s.payloads)
	return out
}

// recordingQueue captures enqueued tasks without a broker.
type recordingQueue struct {
	mu    sync.Mutex
	tasks []qport.Task
}

func (q *recordingQueue) Enqueue(ctx context.Context, t qport.Task, opts ...qport.EnqueueOption) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, t)
	return fmt.Sprintf("task-%d", len(q.tasks)), nil
}

func (q *recordingQueue) Close() error { return nil }

func (q *recordingQueue) all() []qport.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]qport.Task, len(q.tasks))
	copy(out, q.tasks)
	return out
}

type testEnv struct {
	relay         *relay.Relay
	users         *memory.UserStore
	messages      *memory.MessageStore
	conversations *memory.ConversationStore
	registry      *realtime.MemoryRegistry
	queue         *recordingQueue
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := memory.NewUserStore()
	users.Put("alice", "Alice Almeida", "alice-token", true)
	users.Put("bob", "Bob Braga", "bob-token", true)
	users.Put("carol", "Carol Costa", "", false)

	msgs := memory.NewMessageStore()
	convs := memory.NewConversationStore(users, msgs)
	reg := realtime.NewMemoryRegistry()
	queue := &recordingQueue{}

	return &testEnv{
		relay: relay.New(relay.Config{
			Conversations: convs,
			Messages:      msgs,
			Users:         users,
			Registry:      reg,
			Queue:         queue,
		}),
		users:         users,
		messages:      msgs,
		conversations: convs,
		registry:      reg,
		queue:         queue,
	}
}

func textInput(sender, receiver, text string) relay.SendInput {
	return relay.SendInput{SenderID: sender, ReceiverID: receiver, Text: &text}
}

func TestSendMessageResolvesCanonicalConversation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.relay.SendMessage(ctx, textInput("alice", "bob", "hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := env.relay.SendMessage(ctx, textInput("bob", "alice", "hi back"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Either direction lands in the same conversation.
	if first.Message.ConversationID != second.Message.ConversationID {
		t.Fatalf("expected one conversation for the pair, got %q and %q",
			first.Message.ConversationID, second.Message.ConversationID)
	}

	count, err := env.messages.CountByConversation(ctx, first.Message.ConversationID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 messages persisted, got %d", count)
	}
}

func TestSendMessageRejectsWithoutSideEffects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	blank := "   "
	_, err := env.relay.SendMessage(ctx, relay.SendInput{SenderID: "alice", ReceiverID: "bob", Text: &blank})
	if !errors.Is(err, messaging.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	_, err = env.relay.SendMessage(ctx, textInput("alice", "alice", "note to self"))
	if !errors.Is(err, messaging.ErrSelfMessage) {
		t.Fatalf("expected ErrSelfMessage, got %v", err)
	}

	// Nothing was persisted and nothing was routed.
	convs, err := env.conversations.ListByParticipant(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(convs) != 0 {
		t.Fatalf("expected no conversations, got %d", len(convs))
	}
	if got := len(env.queue.all()); got != 0 {
		t.Fatalf("expected no push tasks, got %d", got)
	}
}

func TestSendMessageRejectsNonParticipantConversation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seeded, err := env.relay.SendMessage(ctx, textInput("bob", "carol", "private"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	convID := seeded.Message.ConversationID

	_, err = env.relay.SendMessage(ctx, relay.SendInput{
		SenderID:       "alice",
		ReceiverID:     "bob",
		ConversationID: convID,
		Text:           strptr("let me in"),
	})
	if !errors.Is(err, messaging.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}

	count, err := env.messages.CountByConversation(ctx, convID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected only the seeded message, got %d", count)
	}

	_, err = env.relay.SendMessage(ctx, relay.SendInput{
		SenderID:       "alice",
		ReceiverID:     "bob",
		ConversationID: "no-such-conversation",
		Text:           strptr("hello?"),
	})
	if !errors.Is(err, messaging.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSendMessageDeliversToOnlineReceiver(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bobPhone := &fakeSession{id: "bob-phone"}
	bobLaptop := &fakeSession{id: "bob-laptop"}
	env.registry.Register("bob", bobPhone)
	env.registry.Register("bob", bobLaptop)

	res, err := env.relay.SendMessage(ctx, textInput("alice", "bob", "hello online"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Message.Status != messaging.MessageStatusSent {
		t.Fatalf("expected status sent, got %q", res.Message.Status)
	}
	if res.Sender.FullName != "Alice Almeida" {
		t.Fatalf("expected sender projection populated, got %+v", res.Sender)
	}

	for _, sess := range []*fakeSession{bobPhone, bobLaptop} {
		frames := sess.frames()
		if len(frames) != 1 {
			t.Fatalf("expected one frame on %s, got %d", sess.id, len(frames))
		}
		var ev events.ReceiveMessage
		if err := json.Unmarshal(frames[0], &ev); err != nil {
			t.Fatalf("bad frame on %s: %v", sess.id, err)
		}
		if ev.Event != events.TypeReceiveMessage {
			t.Fatalf("expected %q, got %q", events.TypeReceiveMessage, ev.Event)
		}
		if ev.Message.ID != res.Message.ID || ev.Message.SenderID != "alice" {
			t.Fatalf("frame does not match persisted message: %+v", ev.Message)
		}
		if ev.Message.Sender.FullName != "Alice Almeida" {
			t.Fatalf("expected sender ref in frame, got %+v", ev.Message.Sender)
		}
	}

	// Online delivery never touches the push queue.
	if got := len(env.queue.all()); got != 0 {
		t.Fatalf("expected no push tasks for online receiver, got %d", got)
	}
}

func TestSendMessageQueuesPushForOfflineReceiver(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.relay.SendMessage(ctx, textInput("alice", "bob", "are you there?")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tasks := env.queue.all()
	if len(tasks) != 1 {
		t.Fatalf("expected exactly one push task, got %d", len(tasks))
	}
	if tasks[0].Type != task.PushNotifyTaskType {
		t.Fatalf("expected %q, got %q", task.PushNotifyTaskType, tasks[0].Type)
	}
	var p task.PushNotifyPayload
	if err := json.Unmarshal(tasks[0].Payload, &p); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if p.ReceiverID != "bob" || p.SenderID != "alice" || p.Body != "are you there?" {
		t.Fatalf("unexpected payload: %+v", p)
	}
	if p.ConversationID == "" {
		t.Fatal("expected conversation id in payload")
	}
}

func TestSendMessageSynthesizesMediaPushBody(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.relay.SendMessage(ctx, relay.SendInput{
		SenderID:   "alice",
		ReceiverID: "bob",
		Type:       messaging.MessageTypeImage,
		MediaURL:   strptr("https://cdn.example/pic.jpg"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tasks := env.queue.all()
	if len(tasks) != 1 {
		t.Fatalf("expected one push task, got %d", len(tasks))
	}
	var p task.PushNotifyPayload
	if err := json.Unmarshal(tasks[0].Payload, &p); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if p.Body != "Sent you a image" {
		t.Fatalf("expected synthesized body, got %q", p.Body)
	}
}

func TestMarkAsReadNotifiesOtherParticipantOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.relay.SendMessage(ctx, textInput("alice", "bob", "one"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := env.relay.SendMessage(ctx, textInput("alice", "bob", "two")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	convID := first.Message.ConversationID

	aliceSess := &fakeSession{id: "alice-phone"}
	env.registry.Register("alice", aliceSess)

	changed, err := env.relay.MarkAsRead(ctx, relay.MarkAsReadInput{ReaderID: "bob", ConversationID: convID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed != 2 {
		t.Fatalf("expected 2 messages transitioned, got %d", changed)
	}

	frames := aliceSess.frames()
	if len(frames) != 1 {
		t.Fatalf("expected one read receipt, got %d", len(frames))
	}
	var ev events.MessagesRead
	if err := json.Unmarshal(frames[0], &ev); err != nil {
		t.Fatalf("bad frame: %v", err)
	}
	if ev.Event != events.TypeMessagesRead || ev.ConversationID != convID || ev.ReaderID != "bob" {
		t.Fatalf("unexpected read receipt: %+v", ev)
	}

	// Second call is a no-op: zero transitions, no further notification.
	changed, err = env.relay.MarkAsRead(ctx, relay.MarkAsReadInput{ReaderID: "bob", ConversationID: convID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed != 0 {
		t.Fatalf("expected idempotent second call, got %d transitions", changed)
	}
	if got := len(aliceSess.frames()); got != 1 {
		t.Fatalf("expected no extra receipt, got %d frames", got)
	}
}

func TestMarkAsReadAuthorization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seeded, err := env.relay.SendMessage(ctx, textInput("alice", "bob", "hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = env.relay.MarkAsRead(ctx, relay.MarkAsReadInput{ReaderID: "carol", ConversationID: seeded.Message.ConversationID})
	if !errors.Is(err, messaging.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}

	_, err = env.relay.MarkAsRead(ctx, relay.MarkAsReadInput{ReaderID: "bob", ConversationID: "missing"})
	if !errors.Is(err, messaging.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = env.relay.MarkAsRead(ctx, relay.MarkAsReadInput{ReaderID: "", ConversationID: seeded.Message.ConversationID})
	if !errors.Is(err, messaging.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTypingForwardsOnlyToParticipants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seeded, err := env.relay.SendMessage(ctx, textInput("alice", "bob", "hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	convID := seeded.Message.ConversationID

	bobSess := &fakeSession{id: "bob-phone"}
	env.registry.Register("bob", bobSess)

	env.relay.Typing(ctx, relay.TypingInput{SenderID: "alice", ConversationID: convID, ReceiverID: "bob"})
	env.relay.StopTyping(ctx, relay.TypingInput{SenderID: "alice", ConversationID: convID, ReceiverID: "bob"})

	// Spoofed signal from an outsider is dropped silently.
	env.relay.Typing(ctx, relay.TypingInput{SenderID: "carol", ConversationID: convID, ReceiverID: "bob"})
	// Malformed signal is dropped silently.
	env.relay.Typing(ctx, relay.TypingInput{SenderID: "alice", ReceiverID: "bob"})

	frames := bobSess.frames()
	if len(frames) != 2 {
		t.Fatalf("expected typing and stopTyping only, got %d frames", len(frames))
	}
	var start, stop events.TypingSignal
	if err := json.Unmarshal(frames[0], &start); err != nil {
		t.Fatalf("bad frame: %v", err)
	}
	if err := json.Unmarshal(frames[1], &stop); err != nil {
		t.Fatalf("bad frame: %v", err)
	}
	if start.Event != events.TypeTyping || stop.Event != events.TypeStopTyping {
		t.Fatalf("unexpected events: %q then %q", start.Event, stop.Event)
	}
	if start.SenderID != "alice" || start.ConversationID != convID {
		t.Fatalf("unexpected typing signal: %+v", start)
	}
}

// failingSession models a session whose transport write always fails.
type failingSession struct {
	id string
}

func (s *failingSession) SessionID() string { return s.id }
func (s *failingSession) Send([]byte) error { return errors.New("write failed") }

func TestSendMessageSucceedsWhenDeliveryFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.registry.Register("bob", &failingSession{id: "bob-broken"})

	res, err := env.relay.SendMessage(ctx, textInput("alice", "bob", "hello?"))
	if err != nil {
		t.Fatalf("delivery failure must not fail the send, got %v", err)
	}

	// The message is durable despite the dead session.
	if _, ok := env.messages.Get(res.Message.ID); !ok {
		t.Fatal("expected message persisted")
	}
	// Bob counts as online, so the push path must not fire either.
	if got := len(env.queue.all()); got != 0 {
		t.Fatalf("expected no push tasks, got %d", got)
	}
}

func TestSendMessagePersistsAfterCallerCancel(t *testing.T) {
	env := newTestEnv(t)

	// A connection closing mid-send surfaces as a canceled caller context;
	// persistence must still complete.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := env.relay.SendMessage(ctx, textInput("alice", "bob", "still here"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := env.messages.Get(res.Message.ID); !ok {
		t.Fatal("expected message persisted despite canceled context")
	}
	count, err := env.messages.CountByConversation(context.Background(), res.Message.ConversationID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one persisted message, got %d", count)
	}
}

func TestSendMessageUnknownSenderDegradesToBareRef(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.relay.SendMessage(ctx, textInput("ghost", "bob", "boo"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Sender.ID != "ghost" || res.Sender.FullName != "" {
		t.Fatalf("expected bare sender ref, got %+v", res.Sender)
	}
}

func strptr(s string) *string { return &s }
