package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Zavosh/ClearVote2.0/internal/model"
	"golang.org/x/net/html"
)

// Searcher finds recent news articles mentioning a subject. Implementations
// return whatever metadata the provider exposes; thin results are flagged
// NeedsScraping so the scraper fills in the full text.
type Searcher interface {
	Search(ctx context.Context, subjectName string) ([]model.Article, error)
}

// DuckDuckGoSearcher searches DuckDuckGo's HTML endpoint. It needs no API
// key and returns direct article URLs behind a redirect parameter.
type DuckDuckGoSearcher struct {
	httpClient *http.Client
	userAgent  string
	maxResults int
	region     string
	endpoint   string
	tagger     *TopicTagger
}

// NewDuckDuckGoSearcher creates a new DuckDuckGo searcher. The region string
// is appended to every query to scope results (e.g. "California legislature").
func NewDuckDuckGoSearcher(httpClient *http.Client, userAgent string, maxResults int, region string) *DuckDuckGoSearcher {
	if maxResults <= 0 {
		maxResults = 15
	}
	return &DuckDuckGoSearcher{
		httpClient: httpClient,
		userAgent:  userAgent,
		maxResults: maxResults,
		region:     region,
		endpoint:   "https://html.duckduckgo.com/html",
		tagger:     NewTopicTagger(),
	}
}

// Search queries DuckDuckGo and parses the result list.
func (s *DuckDuckGoSearcher) Search(ctx context.Context, subjectName string) ([]model.Article, error) {
	query := url.QueryEscape(fmt.Sprintf("%s %s", subjectName, s.region))
	endpoint := fmt.Sprintf("%s/?q=%s&t=h_&iar=news&ia=news", s.endpoint, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2_000_000))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return s.parseResults(string(body)), nil
}

// parseResults walks the result markup and extracts title, snippet, and the
// real article URL from DuckDuckGo's redirect links.
func (s *DuckDuckGoSearcher) parseResults(page string) []model.Article {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil
	}

	var articles []model.Article

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(articles) >= s.maxResults {
			return
		}
		if n.Type == html.ElementNode && hasClass(n, "result") {
			title, href := findResultLink(n)
			snippet := findSnippet(n)
			articleURL := resolveRedirect(href)

			if articleURL != "" && !strings.Contains(articleURL, "duckduckgo.com") && title != "" {
				articles = append(articles, model.Article{
					Title:         title,
					Description:   snippet,
					Content:       snippet,
					URL:           articleURL,
					Source:        domainOf(articleURL),
					Topics:        s.tagger.Tag(title + " " + snippet),
					NeedsScraping: true,
				})
			}
			return // Result blocks do not nest
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return articles
}

// findResultLink returns the title text and href of the result's title anchor.
func findResultLink(n *html.Node) (title, href string) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__a") {
			title = strings.TrimSpace(textContent(n))
			href = attrValue(n, "href")
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return title, href
}

// findSnippet returns the text of the result's snippet node.
func findSnippet(n *html.Node) string {
	var snippet string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if snippet != "" {
			return
		}
		if n.Type == html.ElementNode && hasClass(n, "result__snippet") {
			snippet = strings.TrimSpace(textContent(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return snippet
}

// resolveRedirect extracts the destination URL from DuckDuckGo's uddg
// redirect parameter. Plain URLs pass through unchanged.
func resolveRedirect(href string) string {
	if href == "" {
		return ""
	}
	if !strings.Contains(href, "uddg=") {
		return href
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if dest := parsed.Query().Get("uddg"); dest != "" {
		return dest
	}
	return ""
}

// domainOf extracts a source name from an article URL.
func domainOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "Unknown"
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}

// hasClass reports whether the node's class attribute contains the class.
func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

// attrValue returns the value of the named attribute, or "".
func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent concatenates all text nodes under n.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

// MultiSearcher merges results from several providers, deduplicating by
// title prefix so the same story from two providers counts once.
type MultiSearcher struct {
	searchers []Searcher
}

// NewMultiSearcher creates a searcher over the given providers
func NewMultiSearcher(searchers ...Searcher) *MultiSearcher {
	return &MultiSearcher{searchers: searchers}
}

// Search queries every provider in order. A provider failure skips that
// provider; search is a best-effort boundary and never fails the run as long
// as one provider answered.
func (m *MultiSearcher) Search(ctx context.Context, subjectName string) ([]model.Article, error) {
	var merged []model.Article
	var lastErr error
	failures := 0

	for _, s := range m.searchers {
		articles, err := s.Search(ctx, subjectName)
		if err != nil {
			failures++
			lastErr = err
			continue
		}
		merged = append(merged, articles...)
	}

	if failures == len(m.searchers) && lastErr != nil {
		return nil, fmt.Errorf("all search providers failed: %w", lastErr)
	}

	return DedupeArticles(merged), nil
}

// DedupeArticles removes articles whose titles share a 50-character
// case-insensitive prefix with an earlier article.
func DedupeArticles(articles []model.Article) []model.Article {
	seen := make(map[string]bool)
	var unique []model.Article

	for _, a := range articles {
		key := strings.ToLower(a.Title)
		if len(key) > 50 {
			key = key[:50]
		}
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, a)
	}

	return unique
}
