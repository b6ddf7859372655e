package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Zavosh/ClearVote2.0/internal/model"
	"github.com/Zavosh/ClearVote2.0/internal/worker"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Smith pushes privacy bill through committee</title></head>
<body>
<article>
<h1>Smith pushes privacy bill through committee</h1>
<p>SACRAMENTO - State Sen. Jane Smith advanced her data privacy bill through
the judiciary committee on Tuesday after months of negotiation with industry
groups and consumer advocates.</p>
<p>Smith said "every Californian deserves control over their own personal data"
during the hearing, drawing applause from the gallery.</p>
<p>The measure now heads to the appropriations committee, where similar bills
have stalled in previous sessions over enforcement costs.</p>
</article>
</body>
</html>`

func newTestScraper() *Scraper {
	return NewScraper(ScraperConfig{
		Timeout:     5 * time.Second,
		UserAgent:   "test-agent",
		ScrapeDelay: 0,
		Limiter:     worker.NewLimiter(1000, 10),
	})
}

func TestScraper_Scrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articlePage)
	}))
	defer server.Close()

	result := newTestScraper().Scrape(context.Background(), server.URL+"/story")

	if !result.Success {
		t.Fatalf("Expected successful scrape, got %+v", result)
	}
	if !strings.Contains(result.Content, "judiciary committee") {
		t.Errorf("Expected article text, got %q", result.Content)
	}
	if !strings.Contains(result.Title, "privacy bill") {
		t.Errorf("Expected title extracted, got %q", result.Title)
	}
}

func TestScraper_FailuresDegrade(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer server.Close()

		if result := newTestScraper().Scrape(context.Background(), server.URL); result.Success {
			t.Errorf("Expected failed scrape for 404, got %+v", result)
		}
	})

	t.Run("thin content", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html><body><p>Too short.</p></body></html>")
		}))
		defer server.Close()

		if result := newTestScraper().Scrape(context.Background(), server.URL); result.Success {
			t.Errorf("Expected failed scrape for thin page, got %+v", result)
		}
	})

	t.Run("unreachable host", func(t *testing.T) {
		scraper := NewScraper(ScraperConfig{
			Timeout:   200 * time.Millisecond,
			UserAgent: "test-agent",
			Limiter:   worker.NewLimiter(1000, 10),
		})
		if result := scraper.Scrape(context.Background(), "http://127.0.0.1:1/nothing"); result.Success {
			t.Errorf("Expected failed scrape, got %+v", result)
		}
	})
}

func TestScraper_EnrichArticles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articlePage)
	}))
	defer server.Close()

	longSnippet := strings.Repeat("Already has plenty of article text from the provider. ", 12)
	articles := []model.Article{
		{
			Title:         "Search snippet only",
			Content:       "A short snippet.",
			URL:           server.URL + "/story",
			NeedsScraping: true,
		},
		{
			Title:   "Full content from provider",
			Content: longSnippet,
			URL:     server.URL + "/other",
		},
		{
			Title:         "Unreachable story",
			URL:           "http://127.0.0.1:1/nothing",
			NeedsScraping: true,
		},
	}

	enriched := newTestScraper().EnrichArticles(context.Background(), articles)

	if len(enriched) != 3 {
		t.Fatalf("Expected 3 articles back, got %d", len(enriched))
	}

	scraped := enriched[0]
	if !scraped.WasScraped {
		t.Error("Expected snippet article to be scraped")
	}
	if !strings.Contains(scraped.Content, "judiciary committee") {
		t.Errorf("Expected full text, got %q", scraped.Content)
	}
	if scraped.NeedsScraping {
		t.Error("Expected NeedsScraping cleared after the attempt")
	}

	full := enriched[1]
	if full.WasScraped {
		t.Error("Expected article with full content to be left alone")
	}

	failed := enriched[2]
	if failed.WasScraped {
		t.Error("Expected failed scrape to keep search metadata only")
	}
	if failed.Title != "Unreachable story" {
		t.Errorf("Expected original title kept, got %q", failed.Title)
	}
}

func TestCleanAuthor(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"By Jane Reporter", "Jane Reporter"},
		{"  by  Jane   Reporter ", "Jane Reporter"},
		{"Jane Reporter", "Jane Reporter"},
		{strings.Repeat("a", 150), strings.Repeat("a", 100)},
		{"", ""},
	}

	for _, tt := range tests {
		if got := cleanAuthor(tt.input); got != tt.want {
			t.Errorf("cleanAuthor(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCleanWhitespace(t *testing.T) {
	in := "  one\n\ttwo   three \r\n four  "
	want := "one two three four"
	if got := cleanWhitespace(in); got != want {
		t.Errorf("cleanWhitespace(%q) = %q, want %q", in, got, want)
	}
}
