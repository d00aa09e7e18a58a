package enrich

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const maxTaglineLength = 200

// Each field is extracted by an ordered list of strategies; the first one
// returning a non-empty value wins, and an empty result leaves whatever the
// record already had. Keeping the strategies as data makes each one testable
// on its own.
type extractor func(doc *goquery.Document, rawHTML string) string

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

var acceleratorPattern = regexp.MustCompile(`(?i)\b(y combinator|yc [sw]\d{2}|techstars|500 global|500 startups|antler|seedcamp)\b`)

var websiteExtractors = []extractor{
	metaContent(`meta[property="og:url"]`),
	attrOf(`a[data-test="website-link"]`, "href"),
	func(doc *goquery.Document, _ string) string {
		return doc.Find(`a[rel="canonical"]`).AttrOr("href", "")
	},
}

var taglineExtractors = []extractor{
	metaContent(`meta[property="og:description"]`),
	metaContent(`meta[name="description"]`),
	readabilityExcerpt,
}

var launchYearExtractors = []extractor{
	func(doc *goquery.Document, _ string) string {
		datetime := doc.Find("time[datetime]").First().AttrOr("datetime", "")
		return yearPattern.FindString(datetime)
	},
	func(doc *goquery.Document, _ string) string {
		var year string
		doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := s.Text()
			if idx := strings.Index(strings.ToLower(text), "launched in"); idx >= 0 {
				if m := yearPattern.FindString(text[idx:]); m != "" {
					year = m
					return false
				}
			}
			return true
		})
		return year
	},
}

var acceleratorExtractors = []extractor{
	func(doc *goquery.Document, _ string) string {
		badge := doc.Find(`[class*="badge"], [class*="accelerator"]`).First().Text()
		return acceleratorPattern.FindString(badge)
	},
	func(_ *goquery.Document, rawHTML string) string {
		return acceleratorPattern.FindString(rawHTML)
	},
}

var profileURLExtractors = []extractor{
	attrOf(`a[href*="linkedin.com/in/"]`, "href"),
	attrOf(`a[href*="twitter.com/"]`, "href"),
}

var repoURLExtractors = []extractor{
	attrOf(`a[href*="github.com/"]`, "href"),
	attrOf(`a[href*="gitlab.com/"]`, "href"),
}

var imageURLExtractors = []extractor{
	metaContent(`meta[property="og:image"]`),
	attrOf(`img[class*="logo"]`, "src"),
	attrOf(`link[rel="apple-touch-icon"]`, "href"),
}

func metaContent(selector string) extractor {
	return func(doc *goquery.Document, _ string) string {
		return strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
	}
}

func attrOf(selector, attr string) extractor {
	return func(doc *goquery.Document, _ string) string {
		return strings.TrimSpace(doc.Find(selector).First().AttrOr(attr, ""))
	}
}

func readabilityExcerpt(_ *goquery.Document, rawHTML string) string {
	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return ""
	}

	excerpt := strings.TrimSpace(article.Excerpt)
	if excerpt == "" {
		excerpt = strings.TrimSpace(article.TextContent)
	}
	if len(excerpt) > maxTaglineLength {
		excerpt = strings.TrimSpace(excerpt[:maxTaglineLength])
	}
	return excerpt
}

func firstNonEmpty(doc *goquery.Document, rawHTML string, extractors []extractor) string {
	for _, fn := range extractors {
		if value := fn(doc, rawHTML); value != "" {
			return value
		}
	}
	return ""
}

// extractTopics collects topic tags; strategies are tried in order and the
// first yielding any tags wins.
func extractTopics(doc *goquery.Document) []string {
	if topics := splitTopics(doc.Find(`meta[name="keywords"]`).AttrOr("content", "")); len(topics) > 0 {
		return topics
	}

	var topics []string
	seen := make(map[string]bool)
	doc.Find(`a[href*="/topics/"], a[href*="/tags/"]`).Each(func(_ int, s *goquery.Selection) {
		topic := strings.TrimSpace(s.Text())
		if topic != "" && !seen[strings.ToLower(topic)] {
			seen[strings.ToLower(topic)] = true
			topics = append(topics, topic)
		}
	})
	return topics
}

func splitTopics(raw string) []string {
	var topics []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			topics = append(topics, part)
		}
	}
	return topics
}
