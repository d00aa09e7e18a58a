package feed

import (
	"testing"
)

func TestParseRSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Launch Feed</title>
    <link>https://example.com</link>
    <description>New product launches</description>
    <item>
      <title>Acme Tool</title>
      <link>https://example.com/posts/acme</link>
      <description>A CLI that does things. Created by Jane Doe.</description>
      <pubDate>Mon, 03 Jun 2024 10:00:00 GMT</pubDate>
      <author>jane@example.com (Jane Doe)</author>
      <category>Developer Tools</category>
      <category>Productivity</category>
    </item>
    <item>
      <title>Beta App</title>
      <link>https://example.com/posts/beta</link>
      <description>Another launch</description>
      <pubDate>Mon, 03 Jun 2024 11:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	entries, err := parser.Run([]byte(rssData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got: %d", len(entries))
	}

	entry := entries[0]
	if entry.Title != "Acme Tool" {
		t.Errorf("Expected title 'Acme Tool', got: %s", entry.Title)
	}
	if entry.Link != "https://example.com/posts/acme" {
		t.Errorf("Expected link 'https://example.com/posts/acme', got: %s", entry.Link)
	}
	if entry.Author != "Jane Doe" {
		t.Errorf("Expected author 'Jane Doe', got: %s", entry.Author)
	}
	if len(entry.Categories) != 2 {
		t.Errorf("Expected 2 categories, got: %d", len(entry.Categories))
	}
	if entry.PublishedAt.IsZero() {
		t.Error("Expected published time to be set")
	}

	if entries[1].Author != "" {
		t.Errorf("Expected empty author for second entry, got: %s", entries[1].Author)
	}
}

func TestParseAtom(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Launches</title>
  <link href="https://example.com"/>
  <updated>2024-06-03T12:00:00Z</updated>
  <id>urn:uuid:1234567890</id>
  <entry>
    <title>Acme Tool</title>
    <link href="https://example.com/posts/acme"/>
    <id>urn:uuid:entry-1</id>
    <updated>2024-06-03T10:00:00Z</updated>
    <author>
      <name>Jane Doe</name>
    </author>
    <content type="html">Launch announcement</content>
  </entry>
</feed>`

	parser := NewParser()
	entries, err := parser.Run([]byte(atomData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got: %d", len(entries))
	}

	entry := entries[0]
	if entry.Author != "Jane Doe" {
		t.Errorf("Expected author 'Jane Doe', got: %s", entry.Author)
	}
	if entry.Content != "Launch announcement" {
		t.Errorf("Expected content to be mapped, got: %s", entry.Content)
	}
	// Atom entries without a published date fall back to updated.
	if entry.PublishedAt.IsZero() {
		t.Error("Expected published time to fall back to updated")
	}
}

func TestParseDublinCoreCreator(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    <title>Launches</title>
    <link>https://example.com</link>
    <description>Feed</description>
    <item>
      <title>Acme Tool</title>
      <link>https://example.com/posts/acme</link>
      <dc:creator>Jane Doe</dc:creator>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	entries, err := parser.Run([]byte(rssData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got: %d", len(entries))
	}
	if entries[0].Author != "Jane Doe" {
		t.Errorf("Expected dc:creator author 'Jane Doe', got: %s", entries[0].Author)
	}
}

func TestParseInvalidFeed(t *testing.T) {
	parser := NewParser()

	if _, err := parser.Run([]byte("not a feed")); err == nil {
		t.Error("Expected error for invalid feed data")
	}
}
