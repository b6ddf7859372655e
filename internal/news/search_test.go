package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Zavosh/ClearVote2.0/internal/model"
)

func TestResolveRedirect(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{
			"redirect link",
			"//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fstory&rut=abc",
			"https://example.com/story",
		},
		{"plain link", "https://example.com/story", "https://example.com/story"},
		{"empty", "", ""},
		{"redirect without destination", "//duckduckgo.com/l/?uddg=", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveRedirect(tt.href); got != tt.want {
				t.Errorf("resolveRedirect(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

func TestDomainOf(t *testing.T) {
	tests := []struct {
		rawURL string
		want   string
	}{
		{"https://www.example.com/story", "example.com"},
		{"https://news.example.org/a/b", "news.example.org"},
		{"not a url", "Unknown"},
	}

	for _, tt := range tests {
		if got := domainOf(tt.rawURL); got != tt.want {
			t.Errorf("domainOf(%q) = %q, want %q", tt.rawURL, got, tt.want)
		}
	}
}

const resultMarkup = `
<html><body>
<div class="result">
	<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fai-bill">Smith pushes artificial intelligence transparency bill</a>
	<div class="result__snippet">The senator's machine learning disclosure measure cleared committee.</div>
</div>
<div class="result">
	<a class="result__a" href="https://example.org/budget">Budget talks stall in committee</a>
	<div class="result__snippet">Negotiations continued late into the evening.</div>
</div>
<div class="result">
	<a class="result__a" href="https://duckduckgo.com/internal">Untracked internal link</a>
</div>
</body></html>`

func TestDuckDuckGoSearcher_ParseResults(t *testing.T) {
	s := NewDuckDuckGoSearcher(http.DefaultClient, "test-agent", 10, "California legislature")

	articles := s.parseResults(resultMarkup)

	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles (internal link dropped), got %d", len(articles))
	}

	first := articles[0]
	if first.URL != "https://example.com/ai-bill" {
		t.Errorf("Expected redirect resolved, got %q", first.URL)
	}
	if first.Source != "example.com" {
		t.Errorf("Expected source example.com, got %q", first.Source)
	}
	if !first.NeedsScraping {
		t.Error("Expected snippet-only result to need scraping")
	}
	if len(first.Topics) == 0 || first.Topics[0] != "AI" {
		t.Errorf("Expected AI topic from title+snippet, got %v", first.Topics)
	}
	if !strings.Contains(first.Description, "cleared committee") {
		t.Errorf("Unexpected snippet: %q", first.Description)
	}
}

func TestDuckDuckGoSearcher_MaxResults(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, `<div class="result"><a class="result__a" href="https://example.com/%d">Story number %d about the legislature</a></div>`, i, i)
	}
	b.WriteString("</body></html>")

	s := NewDuckDuckGoSearcher(http.DefaultClient, "test-agent", 5, "")
	if got := s.parseResults(b.String()); len(got) != 5 {
		t.Errorf("Expected results capped at 5, got %d", len(got))
	}
}

func TestDuckDuckGoSearcher_Search(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, resultMarkup)
	}))
	defer server.Close()

	s := NewDuckDuckGoSearcher(server.Client(), "test-agent", 10, "California legislature")
	s.endpoint = server.URL

	articles, err := s.Search(context.Background(), "Jane Smith")
	if err != nil {
		t.Fatalf("Expected search to succeed, got %v", err)
	}
	if len(articles) != 2 {
		t.Errorf("Expected 2 articles, got %d", len(articles))
	}
	if !strings.Contains(gotQuery, "Jane+Smith+California+legislature") {
		t.Errorf("Expected subject and region in query, got %q", gotQuery)
	}
}

func TestMultiSearcher(t *testing.T) {
	ok := searcherFunc(func(ctx context.Context, name string) ([]model.Article, error) {
		return []model.Article{{Title: "Shared story about the privacy bill", URL: "https://a.example.com"}}, nil
	})
	dup := searcherFunc(func(ctx context.Context, name string) ([]model.Article, error) {
		return []model.Article{{Title: "Shared story about the privacy bill", URL: "https://b.example.com"}}, nil
	})
	failing := searcherFunc(func(ctx context.Context, name string) ([]model.Article, error) {
		return nil, fmt.Errorf("provider down")
	})

	t.Run("merges and dedupes", func(t *testing.T) {
		m := NewMultiSearcher(ok, dup)
		articles, err := m.Search(context.Background(), "Jane Smith")
		if err != nil {
			t.Fatalf("Expected search to succeed, got %v", err)
		}
		if len(articles) != 1 {
			t.Errorf("Expected duplicate titles merged, got %d articles", len(articles))
		}
	})

	t.Run("partial failure is tolerated", func(t *testing.T) {
		m := NewMultiSearcher(failing, ok)
		articles, err := m.Search(context.Background(), "Jane Smith")
		if err != nil {
			t.Fatalf("Expected partial results, got %v", err)
		}
		if len(articles) != 1 {
			t.Errorf("Expected 1 article, got %d", len(articles))
		}
	})

	t.Run("total failure errors", func(t *testing.T) {
		m := NewMultiSearcher(failing)
		if _, err := m.Search(context.Background(), "Jane Smith"); err == nil {
			t.Error("Expected error when every provider fails")
		}
	})
}

// searcherFunc adapts a function to the Searcher interface.
type searcherFunc func(ctx context.Context, subjectName string) ([]model.Article, error)

func (f searcherFunc) Search(ctx context.Context, subjectName string) ([]model.Article, error) {
	return f(ctx, subjectName)
}

func TestDedupeArticles(t *testing.T) {
	long := strings.Repeat("x", 60)
	articles := []model.Article{
		{Title: "Story one about housing"},
		{Title: "STORY ONE about housing"}, // case-insensitive duplicate
		{Title: ""},                        // untitled dropped
		{Title: long + " tail A"},
		{Title: long + " tail B"}, // same 50-char prefix
		{Title: "Story two about water"},
	}

	got := DedupeArticles(articles)
	if len(got) != 3 {
		t.Fatalf("Expected 3 unique articles, got %d", len(got))
	}
}
