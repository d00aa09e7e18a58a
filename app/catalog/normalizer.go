package catalog

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	minTitleLength       = 3
	minDescriptionLength = 10
	maxMakerNameLength   = 80
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	// Ordered: more specific phrasings first so "created by X" is not
	// swallowed by the bare "by X" pattern.
	makerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bcreated\s+by\s+([^.,;\n|]+)`),
		regexp.MustCompile(`(?i)\bmaker:\s*([^.,;\n|]+)`),
		regexp.MustCompile(`(?i)\bby\s+([^.,;\n|]+)`),
		regexp.MustCompile(`(?i)\bfrom\s+([^.,;\n|]+)`),
	}

	// Footer boilerplate some feeds append to every entry.
	footerPattern = regexp.MustCompile(`(?i)\s*discussion\s*\|\s*link\s*$`)

	placeholderDescriptions = map[string]bool{
		"comments":         true,
		"read more":        true,
		"(no description)": true,
		"no description":   true,
	}
)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Run canonicalizes a raw feed entry. It returns an error for entries that
// cannot form a valid record (missing title or link, too-short title,
// unparsable URL); the caller drops those and continues with the batch.
func (n *Normalizer) Run(entry RawEntry, category string) (*NormalizedEntry, error) {
	title := strings.TrimSpace(stripTags(entry.Title))
	if title == "" {
		return nil, fmt.Errorf("entry has no title")
	}
	if len(title) < minTitleLength {
		return nil, fmt.Errorf("title too short: %q", title)
	}

	if strings.TrimSpace(entry.Link) == "" {
		return nil, fmt.Errorf("entry has no link")
	}

	link, err := NormalizeLink(entry.Link)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize link %q: %w", entry.Link, err)
	}

	description := cleanDescription(entry.Description)
	if description == "" && entry.Content != "" {
		description = cleanDescription(entry.Content)
	}

	maker := extractMakerName(entry, description)

	return &NormalizedEntry{
		Link:        link,
		Title:       title,
		Description: description,
		MakerName:   maker,
		Category:    category,
		PublishedAt: entry.PublishedAt,
	}, nil
}

// NormalizeLink reduces a URL to scheme+host+path with the trailing slash and
// query string dropped. The result is the record's identity key.
func NormalizeLink(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("URL missing scheme or host: %q", raw)
	}

	path := strings.TrimSuffix(u.Path, "/")

	return u.Scheme + "://" + u.Host + path, nil
}

func extractMakerName(entry RawEntry, description string) string {
	if name := cleanMakerName(entry.Author); name != "" {
		return name
	}

	for _, pattern := range makerPatterns {
		if m := pattern.FindStringSubmatch(description); m != nil {
			if name := cleanMakerName(m[1]); name != "" {
				return name
			}
		}
	}

	return ""
}

func cleanMakerName(raw string) string {
	name := stripTags(raw)
	name = strings.NewReplacer("@", "", "#", "").Replace(name)
	name = whitespacePattern.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	if len(name) > maxMakerNameLength {
		name = strings.TrimSpace(name[:maxMakerNameLength])
	}

	return name
}

func cleanDescription(raw string) string {
	text := stripTags(raw)
	text = footerPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if len(text) < minDescriptionLength {
		return ""
	}
	if placeholderDescriptions[strings.ToLower(text)] {
		return ""
	}

	return text
}

func stripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}
