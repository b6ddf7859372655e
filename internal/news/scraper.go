package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/Zavosh/ClearVote2.0/internal/cache"
	"github.com/Zavosh/ClearVote2.0/internal/model"
	"github.com/Zavosh/ClearVote2.0/internal/util"
	"github.com/Zavosh/ClearVote2.0/internal/worker"
)

// maxContentLen bounds stored article text.
const maxContentLen = 10000

// minContentLen is the threshold below which a scrape counts as failed.
const minContentLen = 100

// ScraperConfig configures the article scraper.
type ScraperConfig struct {
	Timeout       time.Duration
	UserAgent     string
	MaxBodyBytes  int64
	RespectRobots bool
	ScrapeDelay   time.Duration // Pause between fetches, on top of the limiter
	Cache         cache.Cache   // Optional; nil disables caching
	Limiter       *worker.Limiter
	Verbose       bool
}

// Scraper fetches article pages and extracts their readable text. Scraping
// is a best-effort boundary: every failure degrades to an unsuccessful
// ScrapeResult, never an error to the caller.
type Scraper struct {
	httpClient *http.Client
	config     ScraperConfig
	robots     *util.RobotsChecker
}

// NewScraper creates a new article scraper
func NewScraper(cfg ScraperConfig) *Scraper {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 2_000_000
	}
	if cfg.Limiter == nil {
		cfg.Limiter = worker.NewLimiter(1, 2)
	}

	var robots *util.RobotsChecker
	if cfg.RespectRobots {
		robots = util.NewRobotsChecker(cfg.UserAgent, cfg.Timeout)
	}

	return &Scraper{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		config: cfg,
		robots: robots,
	}
}

// Scrape fetches a URL and extracts title, byline, publish date, and body
// text. The result's Success flag is false when too little content was
// recovered.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) model.ScrapeResult {
	if cached, ok := s.cachedResult(rawURL); ok {
		return cached
	}

	crawlDelay := time.Duration(0)
	if s.robots != nil {
		allowed, delay, err := s.robots.CanFetch(ctx, rawURL)
		if err == nil && !allowed {
			if s.config.Verbose {
				fmt.Fprintf(os.Stderr, "robots.txt disallows %s\n", rawURL)
			}
			return model.ScrapeResult{}
		}
		crawlDelay = delay
	}

	if err := s.config.Limiter.WaitWithDelay(ctx, rawURL, crawlDelay+s.config.ScrapeDelay); err != nil {
		return model.ScrapeResult{}
	}

	body, err := s.fetch(ctx, rawURL)
	if err != nil {
		if s.config.Verbose {
			fmt.Fprintf(os.Stderr, "scrape failed for %s: %v\n", rawURL, err)
		}
		return model.ScrapeResult{}
	}

	result := s.extract(body, rawURL)
	s.cacheResult(rawURL, result)
	return result
}

// fetch retrieves the raw page with a size limit.
func (s *Scraper) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", s.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.config.MaxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return string(body), nil
}

// extract pulls readable text and metadata from the page. Readability is
// tried first; pages it cannot parse fall back to visible-text extraction.
func (s *Scraper) extract(page, rawURL string) model.ScrapeResult {
	parsedURL, _ := url.Parse(rawURL)

	var result model.ScrapeResult

	article, err := readability.FromReader(strings.NewReader(page), parsedURL)
	if err == nil {
		result.Title = strings.TrimSpace(article.Title)
		result.Author = cleanAuthor(article.Byline)
		result.Content = article.TextContent
		if article.PublishedTime != nil {
			result.PublishedDate = article.PublishedTime.Format(time.RFC3339)
		}
	}

	if len(result.Content) < 200 {
		if text := visibleText(page); len(text) > len(result.Content) {
			result.Content = text
		}
	}

	result.Content = cleanWhitespace(result.Content)
	if len(result.Content) > maxContentLen {
		result.Content = result.Content[:maxContentLen]
	}
	result.Success = len(result.Content) > minContentLen

	return result
}

// EnrichArticles scrapes full text for articles whose search result carried
// only a snippet. Failed scrapes keep the search-result metadata; nothing
// here aborts the run.
func (s *Scraper) EnrichArticles(ctx context.Context, articles []model.Article) []model.Article {
	enriched := make([]model.Article, 0, len(articles))

	for _, article := range articles {
		if !article.NeedsScraping && len(article.Content) >= 500 {
			enriched = append(enriched, article)
			continue
		}

		if s.config.Verbose {
			fmt.Fprintf(os.Stderr, "scraping %s\n", article.URL)
		}

		scraped := s.Scrape(ctx, article.URL)
		if scraped.Success {
			if scraped.Title != "" {
				article.Title = scraped.Title
			}
			if scraped.Author != "" {
				article.Author = scraped.Author
			}
			if scraped.PublishedDate != "" {
				article.PublishedAt = scraped.PublishedDate
			}
			article.Content = scraped.Content
			article.WasScraped = true
		}
		article.NeedsScraping = false
		enriched = append(enriched, article)
	}

	return enriched
}

// cachedResult returns a previously scraped result for the URL, if any.
func (s *Scraper) cachedResult(rawURL string) (model.ScrapeResult, bool) {
	if s.config.Cache == nil {
		return model.ScrapeResult{}, false
	}
	data, found := s.config.Cache.Get(cache.CacheKey(rawURL))
	if !found {
		return model.ScrapeResult{}, false
	}
	var result model.ScrapeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return model.ScrapeResult{}, false
	}
	return result, true
}

// cacheResult stores a scrape result. Only successful scrapes are cached so
// transient failures get retried on the next run.
func (s *Scraper) cacheResult(rawURL string, result model.ScrapeResult) {
	if s.config.Cache == nil || !result.Success {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = s.config.Cache.Set(cache.CacheKey(rawURL), data, 0)
}

// visibleText extracts text nodes from HTML, skipping scripts and styles.
func visibleText(page string) string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return ""
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "nav", "footer", "header", "aside":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return buf.String()
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// cleanWhitespace collapses runs of whitespace to single spaces.
func cleanWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// cleanAuthor normalizes a byline: strips a leading "by", collapses
// whitespace, and bounds the length.
func cleanAuthor(author string) string {
	author = strings.TrimSpace(author)
	lower := strings.ToLower(author)
	if strings.HasPrefix(lower, "by ") {
		author = strings.TrimSpace(author[3:])
	}
	author = cleanWhitespace(author)
	if len(author) > 100 {
		author = author[:100]
	}
	return author
}
