package task_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	qport "github.com/KJsquare9/chat/internal/infrastructure/queue/port"
	"github.com/KJsquare9/chat/internal/pkg/messaging/application/task"
)

// fakeServer keeps registered handlers callable in-process.
type fakeServer struct {
	handlers map[string]qport.Handler
}

func newFakeServer() *fakeServer {
	return &fakeServer{handlers: make(map[string]qport.Handler)}
}

func (s *fakeServer) Register(taskType string, h qport.Handler) { s.handlers[taskType] = h }
func (s *fakeServer) Run(ctx context.Context) error             { return nil }
func (s *fakeServer) Stop(ctx context.Context) error            { return nil }

func (s *fakeServer) dispatch(ctx context.Context, t qport.Task) error {
	return s.handlers[t.Type](ctx, t)
}

type notifyCall struct {
	receiverID, senderID, body, conversationID string
}

type fakeGateway struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (g *fakeGateway) Notify(ctx context.Context, receiverID, senderID, body, conversationID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, notifyCall{receiverID, senderID, body, conversationID})
	return nil
}

func TestPushNotifyTaskRoundTrip(t *testing.T) {
	srv := newFakeServer()
	gw := &fakeGateway{}
	task.RegisterPushNotifyTask(srv, gw)

	payload := task.PushNotifyPayload{
		ReceiverID:     "bob",
		SenderID:       "alice",
		Body:           "hello",
		ConversationID: "c1",
	}
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = srv.dispatch(context.Background(), qport.Task{Type: task.PushNotifyTaskType, Payload: b})
	if err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}

	if len(gw.calls) != 1 {
		t.Fatalf("expected one gateway call, got %d", len(gw.calls))
	}
	got := gw.calls[0]
	if got.receiverID != "bob" || got.senderID != "alice" || got.body != "hello" || got.conversationID != "c1" {
		t.Fatalf("unexpected call: %+v", got)
	}
}

func TestPushNotifyTaskRejectsBadPayload(t *testing.T) {
	srv := newFakeServer()
	gw := &fakeGateway{}
	task.RegisterPushNotifyTask(srv, gw)

	err := srv.dispatch(context.Background(), qport.Task{Type: task.PushNotifyTaskType, Payload: []byte("{not json")})
	if err == nil {
		t.Fatal("expected decode error")
	}
	if len(gw.calls) != 0 {
		t.Fatalf("expected no gateway call, got %d", len(gw.calls))
	}
}
