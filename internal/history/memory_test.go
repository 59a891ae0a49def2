package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Chiragbhatt711/ai-jarvis/internal/compose"
)

func TestMemoryChatLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	chat, err := store.CreateChat(ctx)
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if chat.ID == uuid.Nil {
		t.Fatal("chat id is nil")
	}
	if chat.Title != "" {
		t.Errorf("new chat title = %q, want empty", chat.Title)
	}

	got, err := store.Chat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.ID != chat.ID {
		t.Errorf("Chat returned %v, want %v", got.ID, chat.ID)
	}

	if err := store.DeleteChat(ctx, chat.ID); err != nil {
		t.Fatalf("DeleteChat: %v", err)
	}
	if _, err := store.Chat(ctx, chat.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Chat after delete = %v, want ErrNotFound", err)
	}
	if err := store.DeleteChat(ctx, chat.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteChat = %v, want ErrNotFound", err)
	}
}

func TestMemoryTurns(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	t.Run("unknown chat reads as empty", func(t *testing.T) {
		turns, err := store.Turns(ctx, uuid.New())
		if err != nil {
			t.Fatalf("Turns: %v", err)
		}
		if len(turns) != 0 {
			t.Errorf("turns = %+v, want empty", turns)
		}
	})

	t.Run("appends preserve order", func(t *testing.T) {
		chat, err := store.CreateChat(ctx)
		if err != nil {
			t.Fatalf("CreateChat: %v", err)
		}

		base := time.Now().UTC()
		pairs := []compose.Turn{
			{Role: compose.RoleUser, Text: "hi", CreatedAt: base},
			{Role: compose.RoleAssistant, Text: "hello", CreatedAt: base.Add(time.Second)},
		}
		if err := store.AppendTurns(ctx, chat.ID, pairs); err != nil {
			t.Fatalf("AppendTurns: %v", err)
		}
		if err := store.AppendTurns(ctx, chat.ID, []compose.Turn{
			{Role: compose.RoleUser, Text: "what's 2+2?", CreatedAt: base.Add(2 * time.Second)},
		}); err != nil {
			t.Fatalf("AppendTurns: %v", err)
		}

		turns, err := store.Turns(ctx, chat.ID)
		if err != nil {
			t.Fatalf("Turns: %v", err)
		}
		want := []string{"hi", "hello", "what's 2+2?"}
		if len(turns) != len(want) {
			t.Fatalf("got %d turns, want %d", len(turns), len(want))
		}
		for i, text := range want {
			if turns[i].Text != text {
				t.Errorf("turns[%d].Text = %q, want %q", i, turns[i].Text, text)
			}
		}
	})

	t.Run("append to unknown chat fails", func(t *testing.T) {
		err := store.AppendTurns(ctx, uuid.New(), []compose.Turn{{Role: compose.RoleUser, Text: "x"}})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestMemorySetTitle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	chat, err := store.CreateChat(ctx)
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}

	if err := store.SetTitle(ctx, chat.ID, "First question"); err != nil {
		t.Fatalf("SetTitle: %v", err)
	}
	// First write wins; a second title is silently dropped.
	if err := store.SetTitle(ctx, chat.ID, "Renamed"); err != nil {
		t.Fatalf("second SetTitle: %v", err)
	}

	got, err := store.Chat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.Title != "First question" {
		t.Errorf("title = %q, want %q", got.Title, "First question")
	}

	if err := store.SetTitle(ctx, uuid.New(), "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetTitle unknown chat = %v, want ErrNotFound", err)
	}
}

func TestMemoryListChats(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	base := time.Unix(1000, 0).UTC()
	clock := base
	store.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	first, _ := store.CreateChat(ctx)
	second, _ := store.CreateChat(ctx)

	// Touch the first chat so it becomes the most recently updated.
	if err := store.AppendTurns(ctx, first.ID, []compose.Turn{{Role: compose.RoleUser, Text: "hi"}}); err != nil {
		t.Fatalf("AppendTurns: %v", err)
	}

	chats, err := store.ListChats(ctx)
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("got %d chats, want 2", len(chats))
	}
	if chats[0].ID != first.ID || chats[1].ID != second.ID {
		t.Errorf("order = [%v %v], want [%v %v]", chats[0].ID, chats[1].ID, first.ID, second.ID)
	}
}
