// Package stats computes the summary statistics stored with every snapshot.
package stats

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pevans/feedsnap/article"
)

const (
	// TopTopics is the number of trending topics reported.
	TopTopics = 10
	// FreshWindow is how recently an article must be published to count as
	// fresh.
	FreshWindow = 2 * time.Hour
	// minTokenLength is the shortest token counted as a topic, exclusive.
	minTokenLength = 3
)

// TopicCount is a trending word and how often it appeared.
type TopicCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Stats holds the statistics derived from a deduplicated article list.
type Stats struct {
	CategoryCounts map[string]int `json:"categoryCounts"`
	TrendingTopics []TopicCount   `json:"trendingTopics"`
	FreshContent   int            `json:"freshContent"`
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "as": true, "is": true, "was": true, "are": true,
	"were": true, "this": true, "that": true, "will": true, "be": true,
	"has": true, "have": true, "can": true, "could": true,
}

var nonWordPattern = regexp.MustCompile(`[^a-z0-9\s]`)

// IsStopWord reports whether word is excluded from trending topics.
func IsStopWord(word string) bool {
	return stopWords[word]
}

// Compute derives every statistic for articles as of now.
func Compute(articles []article.Article, now time.Time) Stats {
	return Stats{
		CategoryCounts: CategoryCounts(articles),
		TrendingTopics: TrendingTopics(articles, TopTopics),
		FreshContent:   FreshCount(articles, now),
	}
}

// CategoryCounts returns the number of articles per category.
func CategoryCounts(articles []article.Article) map[string]int {
	counts := make(map[string]int)
	for _, a := range articles {
		counts[a.Category]++
	}
	return counts
}

// Tokenize lower-cases text, drops every character other than a-z, 0-9 and
// whitespace, and returns the tokens that may count as topics.
func Tokenize(text string) []string {
	text = nonWordPattern.ReplaceAllString(strings.ToLower(text), "")

	var tokens []string
	for _, word := range strings.Fields(text) {
		if len(word) <= minTokenLength || stopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// TrendingTopics counts topic tokens across article titles and descriptions
// and returns the n most frequent, most frequent first. Equal counts are
// ordered alphabetically.
func TrendingTopics(articles []article.Article, n int) []TopicCount {
	counts := make(map[string]int)
	for _, a := range articles {
		for _, word := range Tokenize(a.Title + " " + a.Description) {
			counts[word]++
		}
	}

	topics := make([]TopicCount, 0, len(counts))
	for word, count := range counts {
		topics = append(topics, TopicCount{Word: word, Count: count})
	}

	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Count != topics[j].Count {
			return topics[i].Count > topics[j].Count
		}
		return topics[i].Word < topics[j].Word
	})

	if len(topics) > n {
		topics = topics[:n]
	}
	return topics
}

// FreshCount returns how many articles were published less than FreshWindow
// before now. Articles with unparseable dates are never fresh.
func FreshCount(articles []article.Article, now time.Time) int {
	fresh := 0
	for _, a := range articles {
		published, ok := article.ParseDate(a.PubDate)
		if !ok {
			continue
		}
		if now.Sub(published) < FreshWindow {
			fresh++
		}
	}
	return fresh
}
