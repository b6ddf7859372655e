package model

// Article is one news search result about a subject. Search providers fill
// whatever fields they have; missing content is scraped afterwards.
type Article struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Content       string   `json:"content,omitempty"`
	URL           string   `json:"url"`
	Source        string   `json:"source,omitempty"` // Publisher name or domain
	PublishedAt   string   `json:"published_at,omitempty"`
	Author        string   `json:"author,omitempty"`
	Topics        []string `json:"topics,omitempty"`
	NeedsScraping bool     `json:"needs_scraping"` // Content is a snippet, fetch the full text
	WasScraped    bool     `json:"was_scraped"`    // Full text was successfully scraped
}

// ScrapeResult contains the outcome of scraping one article URL.
// Success is false when too little content was recovered; the caller keeps
// whatever metadata it already had and carries on.
type ScrapeResult struct {
	Title         string `json:"title,omitempty"`
	Author        string `json:"author,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
	Content       string `json:"content,omitempty"`
	Success       bool   `json:"success"`
}
