package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/Chiragbhatt711/ai-jarvis/internal/compose"
	"github.com/Chiragbhatt711/ai-jarvis/internal/history"
	"github.com/Chiragbhatt711/ai-jarvis/internal/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeComposer records its input and returns a canned message list.
type fakeComposer struct {
	lastHistory []compose.Turn
	evidence    compose.Evidence
	err         error
	calls       int
}

func (f *fakeComposer) Compose(ctx context.Context, userMessage string, flags compose.Flags, hist []compose.Turn) ([]compose.Message, compose.Evidence, error) {
	f.calls++
	f.lastHistory = hist
	if f.err != nil {
		return nil, compose.Evidence{}, f.err
	}
	msgs := []compose.Message{{Role: compose.RoleSystem, Content: "system"}}
	for _, t := range hist {
		msgs = append(msgs, compose.Message{Role: t.Role, Content: t.Text})
	}
	msgs = append(msgs, compose.Message{Role: compose.RoleUser, Content: userMessage})
	return msgs, f.evidence, nil
}

// fakeGateway returns canned replies and records every message list.
type fakeGateway struct {
	replies []string
	err     error
	calls   [][]compose.Message
}

func (f *fakeGateway) Complete(ctx context.Context, msgs []compose.Message) (string, error) {
	f.calls = append(f.calls, msgs)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "ok", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func newService(t *testing.T, store history.Store, composer Composer, gateway Gateway) *Service {
	t.Helper()
	if store == nil {
		store = history.NewMemory()
	}
	if composer == nil {
		composer = &fakeComposer{}
	}
	if gateway == nil {
		gateway = &fakeGateway{}
	}
	s, err := New(Config{
		Store:    store,
		Composer: composer,
		Gateway:  gateway,
		Logger:   log.NewNop(),
		Now:      func() time.Time { return time.Date(2025, time.March, 3, 15, 4, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestRespondBuiltinCommand(t *testing.T) {
	store := history.NewMemory()
	composer := &fakeComposer{}
	gateway := &fakeGateway{}
	s := newService(t, store, composer, gateway)

	res, err := s.Respond(context.Background(), uuid.Nil, "open youtube", compose.Flags{})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if res.Type != "open_url" || res.URL != "https://www.youtube.com" {
		t.Errorf("result = %+v", res)
	}

	// Commands never reach the model or the log.
	if composer.calls != 0 || len(gateway.calls) != 0 {
		t.Errorf("composer calls = %d, gateway calls = %d, want 0", composer.calls, len(gateway.calls))
	}
	chats, _ := store.ListChats(context.Background())
	if len(chats) != 0 {
		t.Errorf("chats = %+v, want none", chats)
	}
}

func TestRespondFullPipeline(t *testing.T) {
	store := history.NewMemory()
	composer := &fakeComposer{}
	gateway := &fakeGateway{replies: []string{"It equals 4.", "Quick math"}}
	s := newService(t, store, composer, gateway)
	ctx := context.Background()

	res, err := s.Respond(ctx, uuid.Nil, "what does 2+2 equal?", compose.Flags{})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if res.ChatID == uuid.Nil {
		t.Fatal("no chat created")
	}
	if res.Message != "It equals 4." || res.Type != TypeChat {
		t.Errorf("result = %+v", res)
	}

	// The verbatim user message and the reply are persisted as a pair.
	turns, err := store.Turns(ctx, res.ChatID)
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[0].Role != compose.RoleUser || turns[0].Text != "what does 2+2 equal?" {
		t.Errorf("turns[0] = %+v", turns[0])
	}
	if turns[1].Role != compose.RoleAssistant || turns[1].Text != "It equals 4." {
		t.Errorf("turns[1] = %+v", turns[1])
	}

	// The first exchange titles the chat via a second model call.
	chat, err := store.Chat(ctx, res.ChatID)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if chat.Title != "Quick math" {
		t.Errorf("title = %q", chat.Title)
	}
	if len(gateway.calls) != 2 {
		t.Fatalf("gateway calls = %d, want 2 (answer + title)", len(gateway.calls))
	}
}

func TestRespondHistoryFlowsToComposer(t *testing.T) {
	store := history.NewMemory()
	composer := &fakeComposer{}
	gateway := &fakeGateway{replies: []string{"first", "title", "second"}}
	s := newService(t, store, composer, gateway)
	ctx := context.Background()

	res, err := s.Respond(ctx, uuid.Nil, "first question", compose.Flags{})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	if _, err := s.Respond(ctx, res.ChatID, "second question", compose.Flags{}); err != nil {
		t.Fatalf("second Respond: %v", err)
	}

	// The second exchange composes over the stored first pair.
	if len(composer.lastHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(composer.lastHistory))
	}
	if composer.lastHistory[0].Text != "first question" || composer.lastHistory[1].Text != "first" {
		t.Errorf("history = %+v", composer.lastHistory)
	}

	// Title generated for the first exchange only: answer+title+answer.
	if len(gateway.calls) != 3 {
		t.Errorf("gateway calls = %d, want 3", len(gateway.calls))
	}
}

func TestRespondUnknownChat(t *testing.T) {
	gateway := &fakeGateway{}
	s := newService(t, history.NewMemory(), nil, gateway)

	_, err := s.Respond(context.Background(), uuid.New(), "tell me a story", compose.Flags{})
	if !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	// The stale id is rejected before any completion is spent.
	if len(gateway.calls) != 0 {
		t.Errorf("gateway calls = %d, want 0", len(gateway.calls))
	}
}

func TestRespondGatewayFailure(t *testing.T) {
	store := history.NewMemory()
	wantErr := errors.New("upstream exploded")
	s := newService(t, store, nil, &fakeGateway{err: wantErr})
	ctx := context.Background()

	chat, err := store.CreateChat(ctx)
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}

	if _, err := s.Respond(ctx, chat.ID, "tell me a story", compose.Flags{}); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}

	// Nothing persisted on failure.
	turns, _ := store.Turns(ctx, chat.ID)
	if len(turns) != 0 {
		t.Errorf("turns = %+v, want none", turns)
	}
}

func TestRespondComposerFailureSkipsGateway(t *testing.T) {
	wantErr := errors.New("embedding backend down")
	gateway := &fakeGateway{}
	s := newService(t, nil, &fakeComposer{err: wantErr}, gateway)

	_, err := s.Respond(context.Background(), uuid.Nil, "deep question", compose.Flags{DeepSearch: true})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if len(gateway.calls) != 0 {
		t.Errorf("gateway calls = %d, want 0", len(gateway.calls))
	}
}

func TestRespondTitleFailureIsBestEffort(t *testing.T) {
	store := history.NewMemory()
	// First call (the answer) succeeds, second (the title) fails.
	gateway := &titleFailingGateway{}
	s := newService(t, store, nil, gateway)

	res, err := s.Respond(context.Background(), uuid.Nil, "tell me a joke", compose.Flags{})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	chat, err := store.Chat(context.Background(), res.ChatID)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if chat.Title != "" {
		t.Errorf("title = %q, want empty", chat.Title)
	}
}

type titleFailingGateway struct {
	calls int
}

func (g *titleFailingGateway) Complete(ctx context.Context, msgs []compose.Message) (string, error) {
	g.calls++
	if g.calls > 1 {
		return "", errors.New("no title for you")
	}
	return "the answer", nil
}

func TestRespondEmptyMessage(t *testing.T) {
	s := newService(t, nil, nil, nil)
	if _, err := s.Respond(context.Background(), uuid.Nil, "   ", compose.Flags{}); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestRespondTitleTruncatesLongInput(t *testing.T) {
	store := history.NewMemory()
	gateway := &recordingGateway{reply: "ok"}
	s := newService(t, store, nil, gateway)

	// Multi-byte runes sit on the cut point; truncation must not split one.
	long := strings.Repeat("為什麼呢？", 50)
	if _, err := s.Respond(context.Background(), uuid.Nil, long, compose.Flags{}); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	titleCall := gateway.calls[len(gateway.calls)-1]
	input := titleCall[len(titleCall)-1].Content
	if len(input) > titleMaxInput {
		t.Errorf("title input length = %d, want <= %d", len(input), titleMaxInput)
	}
	if !utf8.ValidString(input) {
		t.Errorf("title input is not valid UTF-8: %q", input)
	}
}

type recordingGateway struct {
	reply string
	calls [][]compose.Message
}

func (g *recordingGateway) Complete(ctx context.Context, msgs []compose.Message) (string, error) {
	g.calls = append(g.calls, msgs)
	return g.reply, nil
}
