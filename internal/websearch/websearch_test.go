package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Chiragbhatt711/ai-jarvis/internal/log"
)

const shallowHTML = `<html><body>
<div class="result">
  <a class="result__a" href="/l/?uddg=https%3A%2F%2Fen.wikipedia.org%2Fwiki%2FParis">Paris - Wikipedia</a>
</div>
<div class="result">
  <a class="result__a" href="https://www.britannica.com/place/Paris">Paris | History</a>
</div>
<div class="result">
  <a class="result__a" href="">no link, skipped</a>
</div>
</body></html>`

func TestShallow(t *testing.T) {
	t.Run("parses results in upstream order", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("q"); got != "capital of France" {
				t.Errorf("query = %q", got)
			}
			_, _ = w.Write([]byte(shallowHTML))
		}))
		defer srv.Close()

		c := New(Config{ShallowBaseURL: srv.URL}, log.NewNop())
		pages := c.Shallow(context.Background(), "capital of France")

		if len(pages) != 2 {
			t.Fatalf("got %d pages, want 2: %+v", len(pages), pages)
		}
		if pages[0].Title != "Paris - Wikipedia" {
			t.Errorf("pages[0].Title = %q", pages[0].Title)
		}
		if pages[0].Link != "https://en.wikipedia.org/wiki/Paris" {
			t.Errorf("redirect not unwrapped: %q", pages[0].Link)
		}
		if pages[1].Link != "https://www.britannica.com/place/Paris" {
			t.Errorf("pages[1].Link = %q", pages[1].Link)
		}
	})

	t.Run("upstream error degrades to empty", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "backend down", http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := New(Config{ShallowBaseURL: srv.URL}, log.NewNop())
		if pages := c.Shallow(context.Background(), "anything"); len(pages) != 0 {
			t.Errorf("pages = %+v, want empty", pages)
		}
	})

	t.Run("unreachable host degrades to empty", func(t *testing.T) {
		c := New(Config{
			ShallowBaseURL: "http://127.0.0.1:1",
			Timeout:        200 * time.Millisecond,
		}, log.NewNop())
		if pages := c.Shallow(context.Background(), "anything"); len(pages) != 0 {
			t.Errorf("pages = %+v, want empty", pages)
		}
	})

	t.Run("blank query is a no-op", func(t *testing.T) {
		c := New(Config{ShallowBaseURL: "http://127.0.0.1:1"}, log.NewNop())
		if pages := c.Shallow(context.Background(), "   "); pages != nil {
			t.Errorf("pages = %+v, want nil", pages)
		}
	})
}

const searxJSON = `{"results": [
  {"title": "Go scheduler", "url": "https://example.com/1", "content": "How goroutines are scheduled."},
  {"title": "GMP model", "url": "https://example.com/2", "content": "Machine, processor, goroutine."},
  {"title": "", "url": "https://example.com/3", "content": ""},
  {"title": "Work stealing", "url": "https://example.com/4", "content": "Idle Ps steal runnable Gs."},
  {"title": "", "url": "https://example.com/5", "content": "Body without a title."},
  {"title": "Title without a body", "url": "https://example.com/6", "content": ""}
]}`

func TestDeep(t *testing.T) {
	t.Run("returns capped title+body snippets", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("format"); got != "json" {
				t.Errorf("format = %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(searxJSON))
		}))
		defer srv.Close()

		c := New(Config{SearxBaseURL: srv.URL}, log.NewNop())
		snippets := c.Deep(context.Background(), "go scheduler", 2)

		if len(snippets) != 2 {
			t.Fatalf("got %d snippets, want 2: %v", len(snippets), snippets)
		}
		if snippets[0] != "Go scheduler. How goroutines are scheduled." {
			t.Errorf("snippets[0] = %q", snippets[0])
		}
	})

	t.Run("skips blank results without consuming the cap", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(searxJSON))
		}))
		defer srv.Close()

		c := New(Config{SearxBaseURL: srv.URL}, log.NewNop())
		snippets := c.Deep(context.Background(), "go scheduler", 10)

		if len(snippets) != 5 {
			t.Fatalf("got %d snippets, want 5: %v", len(snippets), snippets)
		}
	})

	t.Run("half-empty results carry no orphaned separator", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(searxJSON))
		}))
		defer srv.Close()

		c := New(Config{SearxBaseURL: srv.URL}, log.NewNop())
		snippets := c.Deep(context.Background(), "go scheduler", 10)

		if snippets[3] != "Body without a title." {
			t.Errorf("snippets[3] = %q", snippets[3])
		}
		if snippets[4] != "Title without a body" {
			t.Errorf("snippets[4] = %q", snippets[4])
		}
	})

	t.Run("malformed body degrades to empty", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>not json</html>"))
		}))
		defer srv.Close()

		c := New(Config{SearxBaseURL: srv.URL}, log.NewNop())
		if snippets := c.Deep(context.Background(), "q", 5); len(snippets) != 0 {
			t.Errorf("snippets = %v, want empty", snippets)
		}
	})

	t.Run("no configured instance is a no-op", func(t *testing.T) {
		c := New(Config{}, log.NewNop())
		if snippets := c.Deep(context.Background(), "q", 5); snippets != nil {
			t.Errorf("snippets = %v, want nil", snippets)
		}
	})
}
