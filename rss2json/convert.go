package rss2json

import (
	"github.com/pevans/feedsnap/article"
	"github.com/pevans/feedsnap/sources"
	"github.com/pevans/feedsnap/textnorm"
)

// RawItemToArticle normalizes one raw item into an Article attributed to the
// given feed. The link and publication date are carried over unchanged.
func RawItemToArticle(raw article.RawItem, feed sources.Descriptor) article.Article {
	title := textnorm.Clean(raw.Title)
	description := textnorm.Clean(raw.Description)

	return article.Article{
		Title:           title,
		Link:            raw.Link,
		Description:     textnorm.SmartTruncate(description, textnorm.DefaultMaxLength),
		FullDescription: description,
		PubDate:         raw.PubDate,
		Source:          feed.Name,
		Category:        feed.Category,
		ReadingTime:     textnorm.EstimateReadingTime(description),
		Characteristics: textnorm.Characteristics(title, description),
		ContentLength:   textnorm.Length(description),
	}
}

// ItemsToArticles converts every raw item of a feed, preserving order.
func ItemsToArticles(items []article.RawItem, feed sources.Descriptor) []article.Article {
	articles := make([]article.Article, 0, len(items))
	for _, item := range items {
		articles = append(articles, RawItemToArticle(item, feed))
	}
	return articles
}
