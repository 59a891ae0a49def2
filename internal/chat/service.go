// Package chat orchestrates one conversational exchange: builtin command
// dispatch, prompt composition, model completion, and persistence.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Chiragbhatt711/ai-jarvis/internal/command"
	"github.com/Chiragbhatt711/ai-jarvis/internal/compose"
	"github.com/Chiragbhatt711/ai-jarvis/internal/history"
)

// Result type tags. Builtin commands carry their own type.
const (
	TypeChat = "chat"
)

// Title generation parameters, applied to the first exchange of a chat.
const (
	titleTimeout  = 5 * time.Second
	titleMaxInput = 200
)

// Composer builds the prompt message list, satisfied by
// *compose.Composer.
type Composer interface {
	Compose(ctx context.Context, userMessage string, flags compose.Flags, history []compose.Turn) ([]compose.Message, compose.Evidence, error)
}

// Gateway produces a completion for a message list, satisfied by
// *llm.Client.
type Gateway interface {
	Complete(ctx context.Context, messages []compose.Message) (string, error)
}

// Result is one answered exchange.
type Result struct {
	ChatID   uuid.UUID        `json:"chat_id"`
	Message  string           `json:"message"`
	Type     string           `json:"type"`
	URL      string           `json:"url,omitempty"`
	Evidence compose.Evidence `json:"evidence,omitzero"`
}

// Config holds Service construction parameters.
type Config struct {
	Store    history.Store
	Composer Composer
	Gateway  Gateway
	Logger   *slog.Logger

	// Now supplies the clock for builtin time/date replies. Defaults to
	// time.Now.
	Now func() time.Time
}

func (cfg Config) validate() error {
	if cfg.Store == nil {
		return errors.New("store is required")
	}
	if cfg.Composer == nil {
		return errors.New("composer is required")
	}
	if cfg.Gateway == nil {
		return errors.New("gateway is required")
	}
	return nil
}

// Service answers user messages. Safe for concurrent use.
type Service struct {
	store    history.Store
	composer Composer
	gateway  Gateway
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:    cfg.Store,
		composer: cfg.Composer,
		gateway:  cfg.Gateway,
		logger:   logger,
		now:      now,
	}, nil
}

// Respond answers one user message.
//
// Builtin commands are answered locally and never touch the model or the
// conversation log. Everything else goes through the full pipeline: load
// history, compose the prompt, complete, persist the user/assistant pair.
// A nil chatID starts a new conversation.
func (s *Service) Respond(ctx context.Context, chatID uuid.UUID, message string, flags compose.Flags) (Result, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Result{}, errors.New("empty message")
	}

	if kind, ok := command.Detect(message); ok {
		reply := kind.Respond(s.now())
		s.logger.Debug("builtin command", "kind", kind)
		return Result{
			ChatID:  chatID,
			Message: reply.Message,
			Type:    reply.Type,
			URL:     reply.URL,
		}, nil
	}

	if chatID == uuid.Nil {
		chat, err := s.store.CreateChat(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("creating chat: %w", err)
		}
		chatID = chat.ID
	} else if _, err := s.store.Chat(ctx, chatID); err != nil {
		// Fail before composing: a stale id must not cost a completion.
		return Result{}, fmt.Errorf("loading chat: %w", err)
	}

	turns, err := s.store.Turns(ctx, chatID)
	if err != nil {
		return Result{}, fmt.Errorf("loading history: %w", err)
	}

	msgs, evidence, err := s.composer.Compose(ctx, message, flags, turns)
	if err != nil {
		return Result{}, fmt.Errorf("composing prompt: %w", err)
	}

	answer, err := s.gateway.Complete(ctx, msgs)
	if err != nil {
		return Result{}, fmt.Errorf("completing: %w", err)
	}

	now := s.now().UTC()
	pair := []compose.Turn{
		{Role: compose.RoleUser, Text: message, CreatedAt: now},
		{Role: compose.RoleAssistant, Text: answer, CreatedAt: now},
	}
	if err := s.store.AppendTurns(ctx, chatID, pair); err != nil {
		return Result{}, fmt.Errorf("persisting turns: %w", err)
	}

	// The first stored exchange names the chat. Best effort: a failed
	// title never fails the exchange.
	if len(turns) == 0 {
		s.generateTitle(ctx, chatID, message)
	}

	return Result{
		ChatID:   chatID,
		Message:  answer,
		Type:     TypeChat,
		Evidence: evidence,
	}, nil
}

// generateTitle asks the model for a short conversation title and stores
// it. The title is written at most once per chat; SetTitle keeps the
// first value.
func (s *Service) generateTitle(ctx context.Context, chatID uuid.UUID, message string) {
	ctx, cancel := context.WithTimeout(ctx, titleTimeout)
	defer cancel()

	input := message
	if len(input) > titleMaxInput {
		// Cut on a rune boundary so the prompt stays valid UTF-8.
		cut := titleMaxInput
		for cut > 0 && !utf8.RuneStart(input[cut]) {
			cut--
		}
		input = input[:cut]
	}

	title, err := s.gateway.Complete(ctx, []compose.Message{
		{Role: compose.RoleSystem, Content: "Generate a very short title (at most five words) for a conversation that starts with the following message. Reply with the title only."},
		{Role: compose.RoleUser, Content: input},
	})
	if err != nil {
		s.logger.Warn("title generation failed", "chat_id", chatID, "error", err)
		return
	}
	title = strings.Trim(strings.TrimSpace(title), `"`)
	if title == "" {
		return
	}

	if err := s.store.SetTitle(ctx, chatID, title); err != nil {
		s.logger.Warn("storing title failed", "chat_id", chatID, "error", err)
	}
}
