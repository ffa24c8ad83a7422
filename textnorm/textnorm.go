// Package textnorm cleans and measures the free text carried by feed items.
// Every function is total over strings.
package textnorm

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pevans/feedsnap/article"
)

// DefaultMaxLength is the description length used for snapshot summaries.
const DefaultMaxLength = 200

// WordsPerMinute is the reading speed assumed by EstimateReadingTime.
const WordsPerMinute = 200

// Reading time bounds, in minutes.
const (
	MinReadingTime = 1
	MaxReadingTime = 10
)

// LongReadThreshold is the description length above which an article is
// tagged as a long read.
const LongReadThreshold = 300

const ellipsis = "..."

var (
	cdataPattern  = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
	entityPattern = regexp.MustCompile(`&(?:[a-zA-Z][a-zA-Z0-9]*|#[0-9]+|#[xX][0-9a-fA-F]+);`)

	dataPattern     = regexp.MustCompile(`[0-9]{2,}|%`)
	breakingPattern = regexp.MustCompile(`(?i)breaking|urgent|alert|immediate|just in|now|update`)
	techPattern     = regexp.MustCompile(`(?i)AI|tech|software|startup|programming|code|api|app`)
)

// Clean strips CDATA wrappers (keeping their content), removes markup tags,
// turns every entity reference into a space and collapses whitespace.
// Entities are not decoded.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = cdataPattern.ReplaceAllString(text, "$1")
	text = tagPattern.ReplaceAllString(text, "")
	text = entityPattern.ReplaceAllString(text, " ")

	return strings.Join(strings.Fields(text), " ")
}

// SmartTruncate shortens text to at most max characters. It prefers to end
// on a sentence boundary found in the last 40% of the window; otherwise it
// cuts at a word boundary and appends an ellipsis. Text that already fits is
// returned unchanged.
func SmartTruncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max <= len(ellipsis) {
		return string(runes[:max])
	}

	// Sentence boundary: ". ", "? " or "! " inside the window
	if idx := lastSentenceEnd(runes[:max]); float64(idx) > 0.6*float64(max) {
		return string(runes[:idx+2])
	}

	// Word boundary, leaving room for the ellipsis
	window := runes[:max-len(ellipsis)]
	if idx := lastSpace(window); idx >= 0 {
		return string(window[:idx]) + ellipsis
	}

	return string(window) + ellipsis
}

// lastSentenceEnd returns the index of the last sentence terminator that is
// followed by a space, or -1.
func lastSentenceEnd(runes []rune) int {
	for i := len(runes) - 2; i >= 0; i-- {
		if runes[i+1] != ' ' {
			continue
		}
		switch runes[i] {
		case '.', '?', '!':
			return i
		}
	}
	return -1
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

// EstimateReadingTime returns the minutes needed to read text at
// WordsPerMinute, clamped to [MinReadingTime, MaxReadingTime].
func EstimateReadingTime(text string) int {
	words := len(strings.Fields(text))
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))

	if minutes < MinReadingTime {
		return MinReadingTime
	}
	if minutes > MaxReadingTime {
		return MaxReadingTime
	}
	return minutes
}

// Characteristics derives the tag set for a cleaned title and description.
// Tags are returned in canonical order; the result is never nil.
func Characteristics(title, description string) []article.Characteristic {
	tags := make([]article.Characteristic, 0, 4)

	if dataPattern.MatchString(title) {
		tags = append(tags, article.Data)
	}
	if breakingPattern.MatchString(title) {
		tags = append(tags, article.Breaking)
	}
	if utf8.RuneCountInString(description) > LongReadThreshold {
		tags = append(tags, article.LongRead)
	}
	if techPattern.MatchString(title + " " + description) {
		tags = append(tags, article.Tech)
	}

	return tags
}

// Length returns the length of text in characters.
func Length(text string) int {
	return utf8.RuneCountInString(text)
}
