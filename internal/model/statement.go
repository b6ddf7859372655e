package model

// Statement represents a candidate piece of evidence attributed to a subject:
// a direct quote or a contextual excerpt pulled from a news article.
type Statement struct {
	ID            int64    `json:"id"`
	SubjectID     int64    `json:"subject_id"`
	Content       string   `json:"content"`                  // The quote or excerpt text
	SourceURL     string   `json:"source_url,omitempty"`     // Article URL
	SourceName    string   `json:"source_name,omitempty"`    // Publisher name or domain
	ArticleTitle  string   `json:"article_title,omitempty"`  // Title of the source article
	Author        string   `json:"author,omitempty"`         // Article byline, if known
	PublishedDate string   `json:"published_date,omitempty"` // As reported by the source
	SourceType    string   `json:"source_type,omitempty"`    // "scraped" or "api"
	IsDirectQuote bool     `json:"is_direct_quote"`          // False for contextual excerpts
	Topics        []string `json:"topics,omitempty"`         // Coarse tagger labels

	// Semantic metadata, attached once by the enricher.
	PolicyArea string   `json:"policy_area,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Positions  []string `json:"positions,omitempty"`
	Enriched   bool     `json:"enriched"` // Whether enrichment has run for this statement
}

// Subject is the person whose statements and votes are compared.
type Subject struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`     // Full name as used in news searches
	Chamber  string `json:"chamber"`  // e.g. "senate", "assembly"
	District string `json:"district,omitempty"`
	Party    string `json:"party,omitempty"`
}

// Metadata is the durable semantic record the enricher attaches to a statement.
type Metadata struct {
	StatementID int64    `json:"statement_id"`
	PolicyArea  string   `json:"policy_area,omitempty"`
	Topics      []string `json:"topics"`
	Keywords    []string `json:"keywords"`
	Positions   []string `json:"positions"`
	Success     bool     `json:"success"` // False when the enrichment call failed
}

// EmptyMetadata returns an empty-but-valid record for a statement. Used when
// an enrichment batch fails: siblings must never be blocked or corrupted.
func EmptyMetadata(statementID int64, success bool) Metadata {
	return Metadata{
		StatementID: statementID,
		Topics:      []string{},
		Keywords:    []string{},
		Positions:   []string{},
		Success:     success,
	}
}
