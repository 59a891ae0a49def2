// Package compose assembles the prompt sent to the language model.
//
// The Composer is the orchestrator of the retrieval-augmented generation
// pipeline: given a new user message and mode flags it decides which
// evidence sources to pull from, builds the evidence-augmented user turn,
// and produces the full ordered message list (system instructions, prior
// turns, augmented turn). It owns no state of its own; the only side
// effect is growth of the shared semantic index during deep search.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Chiragbhatt711/ai-jarvis/internal/embed"
	"github.com/Chiragbhatt711/ai-jarvis/internal/index"
	"github.com/Chiragbhatt711/ai-jarvis/internal/websearch"
)

// Defaults for the deep-search flow and history window.
const (
	// DefaultSystemPrompt is the assistant persona. Fixed per deployment,
	// never user-controllable.
	DefaultSystemPrompt = "You are Jarvis, a helpful assistant."

	// DefaultHistoryWindow is the sliding window of most recent turns kept
	// in the prompt. History beyond the window is dropped oldest-first;
	// the persisted log is never touched.
	DefaultHistoryWindow = 100

	// DefaultDeepFetchLimit caps how many snippets one deep lookup may
	// feed into the semantic index.
	DefaultDeepFetchLimit = 20

	// DefaultDeepRetrieveLimit is how many nearest entries are folded back
	// into the prompt after the index query.
	DefaultDeepRetrieveLimit = 15
)

// Searcher is the evidence-collector dependency, satisfied by
// *websearch.Client. Both methods degrade to empty results, never error.
type Searcher interface {
	Shallow(ctx context.Context, query string) []websearch.Page
	Deep(ctx context.Context, query string, maxResults int) []string
}

// Evidence records what was folded into the augmented turn, so callers can
// surface sources to the user.
type Evidence struct {
	Pages    []websearch.Page `json:"pages,omitempty"`
	Snippets []string         `json:"snippets,omitempty"`
}

// Config holds Composer construction parameters.
type Config struct {
	Searcher Searcher
	Embedder embed.Embedder
	Index    *index.Index
	Logger   *slog.Logger

	SystemPrompt      string // empty selects DefaultSystemPrompt
	HistoryWindow     int    // <= 0 selects DefaultHistoryWindow
	DeepFetchLimit    int    // <= 0 selects DefaultDeepFetchLimit
	DeepRetrieveLimit int    // <= 0 selects DefaultDeepRetrieveLimit
}

func (cfg Config) validate() error {
	if cfg.Searcher == nil {
		return errors.New("searcher is required")
	}
	if cfg.Embedder == nil {
		return errors.New("embedder is required")
	}
	if cfg.Index == nil {
		return errors.New("index is required")
	}
	return nil
}

// Composer builds prompt message lists. It is stateless across requests
// and safe for concurrent use; the injected index carries the only shared
// mutable state.
type Composer struct {
	searcher     Searcher
	embedder     embed.Embedder
	idx          *index.Index
	logger       *slog.Logger
	systemPrompt string
	window       int
	fetchLimit   int
	retrieveLim  int
}

// New creates a Composer.
func New(cfg Config) (*Composer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	window := cfg.HistoryWindow
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	fetchLimit := cfg.DeepFetchLimit
	if fetchLimit <= 0 {
		fetchLimit = DefaultDeepFetchLimit
	}
	retrieveLim := cfg.DeepRetrieveLimit
	if retrieveLim <= 0 {
		retrieveLim = DefaultDeepRetrieveLimit
	}
	return &Composer{
		searcher:     cfg.Searcher,
		embedder:     cfg.Embedder,
		idx:          cfg.Index,
		logger:       logger,
		systemPrompt: systemPrompt,
		window:       window,
		fetchLimit:   fetchLimit,
		retrieveLim:  retrieveLim,
	}, nil
}

// Compose builds the ordered message list for one request.
//
// The returned list is always [system, ...history, augmented user turn].
// Web search and deep search each rewrite the user turn when they produce
// evidence; deep search runs second, so when both flags are set its
// rewrite wins. Evidence-collector failures degrade to an unaugmented
// turn; embedding failures abort the request with embed.ErrEmbedding.
//
// Deep search grows the shared index before querying it, so the current
// request's own freshly fetched snippets compete for retrieval. That
// growth is not rolled back if a later stage fails: the index is advisory
// memory, not a source of truth.
func (c *Composer) Compose(ctx context.Context, userMessage string, flags Flags, history []Turn) ([]Message, Evidence, error) {
	augmented := userMessage
	var ev Evidence

	if flags.WebSearch {
		pages := c.searcher.Shallow(ctx, userMessage)
		if len(pages) > 0 {
			augmented = formatWebTurn(userMessage, pages)
			ev.Pages = pages
		}
		c.logger.Debug("web augmentation", "results", len(pages))
	}

	if flags.DeepSearch {
		retrieved, err := c.deepSearch(ctx, userMessage)
		if err != nil {
			return nil, Evidence{}, err
		}
		if len(retrieved) > 0 {
			augmented = formatDeepTurn(userMessage, retrieved)
			ev.Snippets = retrieved
		}
		c.logger.Debug("deep augmentation", "retrieved", len(retrieved), "index_size", c.idx.Len())
	}

	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{
		Role:    RoleSystem,
		Content: c.systemPrompt + "\n" + DetectStyle(userMessage).Instruction(),
	})
	for _, t := range windowed(history, c.window) {
		switch t.Role {
		case RoleUser, RoleAssistant:
			msgs = append(msgs, Message{Role: t.Role, Content: t.Text})
		default:
			// Persisted logs hold only user/assistant turns; anything else
			// is skipped rather than forwarded upstream.
			c.logger.Warn("skipping turn with unexpected role", "role", t.Role)
		}
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: augmented})

	return msgs, ev, nil
}

// deepSearch seeds the index with fresh snippets, then queries it with the
// user message. Returns the retrieved texts, nearest first.
func (c *Composer) deepSearch(ctx context.Context, userMessage string) ([]string, error) {
	snippets := c.searcher.Deep(ctx, userMessage, c.fetchLimit)
	if len(snippets) > 0 {
		vectors, err := c.embedder.Embed(ctx, snippets)
		if err != nil {
			return nil, fmt.Errorf("embedding snippets: %w", err)
		}
		if err := c.idx.Add(vectors, snippets); err != nil {
			return nil, fmt.Errorf("indexing snippets: %w", err)
		}
	}

	// The index may hold entries from earlier requests even when this
	// lookup came back empty, so the query always runs unless it would be
	// pointless.
	if c.idx.Len() == 0 {
		return nil, nil
	}

	queryVectors, err := c.embedder.Embed(ctx, []string{userMessage})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	retrieved, err := c.idx.Search(queryVectors[0], c.retrieveLim)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	return retrieved, nil
}

// windowed returns the most recent n turns.
func windowed(history []Turn, n int) []Turn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// formatWebTurn rewrites the user turn with numbered shallow results and
// an instruction to use them.
func formatWebTurn(question string, pages []websearch.Page) string {
	var b strings.Builder
	b.WriteString(question)
	b.WriteString("\n\nWeb search results:\n")
	for i, p := range pages {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, p.Title, p.Link)
	}
	b.WriteString("\nAnswer the question using the web search results above.")
	return b.String()
}

// formatDeepTurn rewrites the user turn with the retrieved passages.
func formatDeepTurn(question string, retrieved []string) string {
	var b strings.Builder
	b.WriteString("Answer the question in detail using the research notes below.\n\n")
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nResearch notes:\n")
	b.WriteString(strings.Join(retrieved, "\n"))
	b.WriteString("\n\nExplain your answer step by step.")
	return b.String()
}
