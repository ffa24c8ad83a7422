package aggregator

import (
	"sort"
	"time"

	"github.com/pevans/feedsnap/article"
)

// Flatten concatenates the articles of every result in feed order.
func Flatten(results []FeedResult) []article.Article {
	total := 0
	for _, r := range results {
		total += len(r.Articles)
	}

	articles := make([]article.Article, 0, total)
	for _, r := range results {
		articles = append(articles, r.Articles...)
	}
	return articles
}

// Dedupe keeps the first article for every link and drops later ones. Links
// are compared exactly as published.
func Dedupe(articles []article.Article) []article.Article {
	seen := make(map[string]bool, len(articles))
	unique := make([]article.Article, 0, len(articles))

	for _, a := range articles {
		if seen[a.Link] {
			continue
		}
		seen[a.Link] = true
		unique = append(unique, a)
	}

	return unique
}

// SortByDate orders articles newest first, in place. Articles with an
// unparseable pubDate count as published at the Unix epoch; ties keep their
// relative order.
func SortByDate(articles []article.Article) {
	published := make([]time.Time, len(articles))
	for i, a := range articles {
		published[i] = a.Published()
	}

	sort.Stable(byDate{articles: articles, published: published})
}

type byDate struct {
	articles  []article.Article
	published []time.Time
}

func (s byDate) Len() int { return len(s.articles) }

func (s byDate) Less(i, j int) bool { return s.published[i].After(s.published[j]) }

func (s byDate) Swap(i, j int) {
	s.articles[i], s.articles[j] = s.articles[j], s.articles[i]
	s.published[i], s.published[j] = s.published[j], s.published[i]
}

// Merge flattens, deduplicates and sorts collected results.
func Merge(results []FeedResult) []article.Article {
	articles := Dedupe(Flatten(results))
	SortByDate(articles)
	return articles
}
