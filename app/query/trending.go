package query

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultTrendingWindowHours = 24
	DefaultTrendingLimit       = 10

	minKeywordLength = 4
)

var stopwords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true, "against": true, "also": true, "among": true,
	"amid": true, "announce": true, "announced": true, "announces": true, "because": true, "been": true,
	"before": true, "being": true, "between": true, "both": true, "could": true, "does": true, "during": true,
	"each": true, "early": true, "first": true, "from": true, "further": true, "have": true, "having": true,
	"here": true, "into": true, "just": true, "last": true, "latest": true, "like": true, "made": true,
	"make": true, "many": true, "more": true, "most": true, "much": true, "must": true, "news": true,
	"next": true, "only": true, "other": true, "over": true, "said": true, "says": true, "same": true,
	"should": true, "since": true, "some": true, "still": true, "such": true, "than": true, "that": true,
	"their": true, "them": true, "then": true, "there": true, "these": true, "they": true, "this": true,
	"those": true, "through": true, "today": true, "under": true, "until": true, "update": true, "upon": true,
	"very": true, "week": true, "were": true, "what": true, "when": true, "where": true, "which": true,
	"while": true, "will": true, "with": true, "within": true, "without": true, "would": true, "year": true,
	"years": true, "your": true,
}

// Trending ranks keywords by how many recent items mention them. Items
// without a usable publish date are ignored.
func (e *Engine) Trending(ctx context.Context, windowHours, limit int) ([]Topic, error) {
	if windowHours <= 0 {
		windowHours = DefaultTrendingWindowHours
	}
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}

	items, err := e.items(ctx, "")
	if err != nil {
		return nil, err
	}

	cutoff := e.cache.Now().Add(-time.Duration(windowHours) * time.Hour)
	counts := make(map[string]*Topic)

	for _, item := range items {
		if item.PublishedAt.IsZero() || item.PublishedAt.Before(cutoff) {
			continue
		}

		for keyword := range keywords(item.Title + " " + item.Description) {
			topic, ok := counts[keyword]
			if !ok {
				topic = &Topic{Keyword: keyword, Relevance: item.Relevance}
				counts[keyword] = topic
			}
			topic.Count++
			if item.Relevance.Rank() > topic.Relevance.Rank() {
				topic.Relevance = item.Relevance
			}
		}
	}

	topics := make([]Topic, 0, len(counts))
	for _, topic := range counts {
		topics = append(topics, *topic)
	}

	sort.Slice(topics, func(i, j int) bool {
		a, b := topics[i], topics[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Relevance.Rank() != b.Relevance.Rank() {
			return a.Relevance.Rank() > b.Relevance.Rank()
		}
		return a.Keyword < b.Keyword
	})

	if len(topics) > limit {
		topics = topics[:limit]
	}
	return topics, nil
}

// keywords returns the distinct candidate keywords of text, case-folded and
// stripped of diacritics.
func keywords(text string) map[string]struct{} {
	folded := cases.Fold().String(text)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if plain, _, err := transform.String(t, folded); err == nil {
		folded = plain
	}

	tokens := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})

	out := make(map[string]struct{})
	for _, token := range tokens {
		token = strings.Trim(token, "-")
		if utf8.RuneCountInString(token) < minKeywordLength || stopwords[token] || isNumeric(token) {
			continue
		}
		out[token] = struct{}{}
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}
