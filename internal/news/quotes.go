package news

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Zavosh/ClearVote2.0/internal/model"
)

// Candidate is one attributable statement extracted from article text.
type Candidate struct {
	Content       string // The quote or excerpt text
	IsDirectQuote bool   // False for contextual excerpts
	Pattern       string // Which attribution pattern matched
}

// speechVerbs is the fixed vocabulary of verbs that anchor quote attribution.
const speechVerbs = `(?:said|stated|announced|declared|explained|added|noted|wrote|told|argued|emphasized|replied|responded|continued|mentioned|suggested|claimed|insisted|acknowledged|admitted|warned|predicted|promised|vowed|maintained|asserted|contended|tweeted|posted)`

// attributionPattern is one attribution form. Template placeholders:
// %[1]s is the subject name alternation, %[2]s the speech-verb vocabulary.
// QuoteIndex names the capture group holding the quote text, so new forms
// can be added without touching the extraction loop.
type attributionPattern struct {
	Name       string
	Template   string
	QuoteIndex int
}

// attributionPatterns covers the attribution forms seen in news prose.
var attributionPatterns = []attributionPattern{
	// "Quote" said/stated Name (most common news format)
	{"quote_verb_name", `"([^"]{20,500})"[^.]*?%[2]s\s+%[1]s`, 1},
	// "Quote," Name said/stated
	{"quote_name_verb", `"([^"]{20,500}),"\s*%[1]s\s+%[2]s`, 1},
	// Name said/stated "Quote" (attribution before quote)
	{"name_verb_quote", `%[1]s\s+%[2]s[^"]{0,50}"([^"]{20,500})"`, 1},
	// Name: "Quote" (colon format often used in interviews)
	{"name_colon_quote", `%[1]s:\s*"([^"]{20,500})"`, 1},
	// According to Name, "Quote"
	{"according_to", `according to %[1]s[^"]{0,30}"([^"]{20,500})"`, 1},
	// In a statement/tweet, Name said "Quote"
	{"in_a_statement", `in a (?:statement|press release|tweet|post|letter|memo|speech|interview)[^"]{0,60}%[1]s[^"]{0,40}"([^"]{20,500})"`, 1},
	// Name replied/responded: "Quote"
	{"replied", `%[1]s\s+(?:replied|responded)[^"]{0,30}"([^"]{20,500})"`, 1},
}

// quoteNormalizer collapses typographic quotation variants to straight
// quotes. The attribution patterns are quote-mark-anchored and must not miss
// quotes due to typographic variance.
var quoteNormalizer = strings.NewReplacer(
	"\u201C", `"`, "\u201D", `"`, "\u201E", `"`, "\u201F", `"`,
	"\u2033", `"`, "\u2036", `"`,
	"\u2018", `'`, "\u2019", `'`, "\u201A", `'`, "\u201B", `'`,
	"\u2032", `'`, "\u2035", `'`,
	"\u00AB", `"`, "\u00BB", `"`,
)

// NormalizeQuotes converts curly quotes and guillemets to straight quotes
// for consistent pattern matching.
func NormalizeQuotes(text string) string {
	return quoteNormalizer.Replace(text)
}

// QuoteExtractor extracts statements attributed to a named subject from
// article text.
type QuoteExtractor struct {
	minQuoteLen   int
	maxQuoteLen   int
	minMentions   int // Surname mentions required for the contextual fallback
	minContextLen int // Text length required for the contextual fallback
	maxExcerptLen int
}

// NewQuoteExtractor creates a new quote extractor
func NewQuoteExtractor() *QuoteExtractor {
	return &QuoteExtractor{
		minQuoteLen:   20,
		maxQuoteLen:   1000,
		minMentions:   2,
		minContextLen: 200,
		maxExcerptLen: 1000,
	}
}

// Extract returns statement candidates attributed to the subject, in the
// order the attribution patterns matched them. If no direct quote is found
// but the text mentions the subject's surname enough, a single contextual
// excerpt is returned instead.
func (e *QuoteExtractor) Extract(text, subjectName string) []Candidate {
	if len(text) < 50 || subjectName == "" {
		return nil
	}

	normalized := NormalizeQuotes(text)
	namePattern := buildNamePattern(subjectName)

	var candidates []Candidate
	for _, ap := range attributionPatterns {
		expr := fmt.Sprintf(`(?i)`+ap.Template, namePattern, speechVerbs)
		re, err := regexp.Compile(expr)
		if err != nil {
			continue
		}

		for _, match := range re.FindAllStringSubmatch(normalized, -1) {
			if ap.QuoteIndex >= len(match) {
				continue
			}
			quote := strings.TrimSpace(match[ap.QuoteIndex])
			if len(quote) < e.minQuoteLen || len(quote) > e.maxQuoteLen {
				continue
			}
			if isNearDuplicate(candidates, quote) {
				continue
			}
			candidates = append(candidates, Candidate{
				Content:       quote,
				IsDirectQuote: true,
				Pattern:       ap.Name,
			})
		}
	}

	if len(candidates) > 0 {
		return candidates
	}

	return e.contextFallback(normalized, subjectName)
}

// contextFallback treats the whole article as contextual evidence when the
// subject's surname appears often enough. The candidate carries lower
// evidentiary weight downstream via IsDirectQuote=false.
func (e *QuoteExtractor) contextFallback(text, subjectName string) []Candidate {
	lastName := surname(subjectName)
	if lastName == "" || len(text) <= e.minContextLen {
		return nil
	}

	mentions := strings.Count(strings.ToLower(text), strings.ToLower(lastName))
	if mentions < e.minMentions {
		return nil
	}

	excerpt := text
	if len(excerpt) > e.maxExcerptLen {
		excerpt = excerpt[:e.maxExcerptLen]
	}

	return []Candidate{{
		Content:       strings.TrimSpace(excerpt),
		IsDirectQuote: false,
		Pattern:       "context",
	}}
}

// buildNamePattern builds an alternation covering the full name, the surname
// alone, and common honorific + surname forms, with regex metacharacters in
// the name escaped.
func buildNamePattern(subjectName string) string {
	safeFull := regexp.QuoteMeta(subjectName)
	safeLast := regexp.QuoteMeta(surname(subjectName))

	return fmt.Sprintf(
		`(?:%s|%s|Sen\.?\s*%s|Senator\s*%s|Assemblymember\s*%s|Asm\.?\s*%s|State\s+Sen\.?\s*%s)`,
		safeFull, safeLast, safeLast, safeLast, safeLast, safeLast, safeLast,
	)
}

// surname returns the last whitespace-separated part of a full name.
func surname(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// isNearDuplicate reports whether the quote is already covered by an
// existing candidate. Two spans count as the same quote when one is a
// near-superstring of the other within a 1.5x length ratio; this collapses
// overlapping captures from different patterns into a single candidate.
func isNearDuplicate(existing []Candidate, quote string) bool {
	for _, c := range existing {
		if c.Content == quote {
			return true
		}
		if strings.Contains(c.Content, quote) && float64(len(c.Content)) < float64(len(quote))*1.5 {
			return true
		}
		if strings.Contains(quote, c.Content) && float64(len(quote)) < float64(len(c.Content))*1.5 {
			return true
		}
	}
	return false
}

// ProcessArticles turns articles into statements for a subject. Articles
// with direct quotes yield one statement per quote; articles without quotes
// yield at most one contextual statement.
func (e *QuoteExtractor) ProcessArticles(articles []model.Article, subject model.Subject) []model.Statement {
	var statements []model.Statement

	for _, article := range articles {
		var parts []string
		for _, p := range []string{article.Title, article.Description, article.Content} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		fullContent := strings.Join(parts, "\n\n")

		sourceType := "api"
		if article.WasScraped {
			sourceType = "scraped"
		}

		for _, cand := range e.Extract(fullContent, subject.Name) {
			statements = append(statements, model.Statement{
				SubjectID:     subject.ID,
				Content:       cand.Content,
				SourceURL:     article.URL,
				SourceName:    article.Source,
				ArticleTitle:  article.Title,
				Author:        article.Author,
				PublishedDate: article.PublishedAt,
				SourceType:    sourceType,
				IsDirectQuote: cand.IsDirectQuote,
				Topics:        article.Topics,
			})
		}
	}

	return statements
}
