package news

import "strings"

// topicRule defines one taxonomy entry: a label and the keywords that vote
// for it.
type topicRule struct {
	Label    string
	Keywords []string
}

// topicTaxonomy is the fixed coarse-topic taxonomy. Keyword lists favor
// multi-word phrases so that single matches stay specific.
var topicTaxonomy = []topicRule{
	{"AI", []string{"artificial intelligence", "machine learning", "ai model", "ai system", "neural network", "deep learning", "ai technology", "ai development"}},
	{"Technology", []string{"technology regulation", "tech policy", "digital infrastructure", "internet governance", "cybersecurity"}},
	{"Privacy", []string{"privacy protection", "data protection", "personal data", "surveillance", "data privacy", "privacy rights"}},
	{"Transparency", []string{"transparency requirement", "government transparency", "public records", "disclosure requirement", "open government"}},
	{"Human Trafficking", []string{"human trafficking", "sex trafficking", "labor trafficking", "trafficking victims", "exploitation"}},
	{"Housing", []string{"housing policy", "affordable housing", "homeless", "homelessness", "rent control", "housing crisis"}},
	{"Healthcare", []string{"healthcare policy", "health insurance", "medical care", "healthcare system", "health coverage"}},
	{"Education", []string{"education policy", "school funding", "university", "student loan", "education system"}},
	{"Environment", []string{"climate change", "environmental policy", "green energy", "renewable energy", "emissions reduction", "climate policy"}},
	{"Labor", []string{"labor rights", "worker rights", "union", "wage policy", "employment law", "workplace regulation"}},
	{"Criminal Justice", []string{"criminal justice", "police reform", "prison reform", "sentencing", "law enforcement"}},
	{"Immigration", []string{"immigration policy", "immigration reform", "border policy", "asylum policy", "immigration law"}},
}

// minSpecificKeywordLen is the length at which a single keyword hit counts as
// specific enough on its own.
const minSpecificKeywordLen = 10

// TopicTagger assigns coarse topic labels to free text by keyword matching.
// It runs synchronously with no external dependency, so it can be applied to
// statements and bills alike.
type TopicTagger struct {
	rules []topicRule
}

// NewTopicTagger creates a tagger over the fixed taxonomy
func NewTopicTagger() *TopicTagger {
	return &TopicTagger{rules: topicTaxonomy}
}

// Tag returns the topic labels present in the text. A topic is emitted on
// two or more keyword hits, or on exactly one hit when that keyword is long
// enough to be specific — a precision/recall trade-off that keeps
// single-signal matches from flooding downstream filtering.
func (t *TopicTagger) Tag(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var topics []string
	for _, rule := range t.rules {
		matches := 0
		hasSpecific := false
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				matches++
				if len(kw) >= minSpecificKeywordLen {
					hasSpecific = true
				}
			}
		}

		if matches >= 2 || (matches == 1 && hasSpecific) {
			topics = append(topics, rule.Label)
		}
	}

	return topics
}
