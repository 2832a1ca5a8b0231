package feed

import (
	"fmt"
	"strings"
	"testing"
)

var testSource = Source{Name: "Test Source", URL: "https://example.com/feed", Category: CategoryPharmaceutical}

func TestParseRSS(t *testing.T) {
	parser := NewParser()

	rssData := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel>
	<title>Test Feed</title>
	<link>https://example.com</link>
	<description>A test feed</description>
	<item>
		<title>Pfizer wins approval</title>
		<link>https://example.com/item1</link>
		<description>Test description</description>
		<pubDate>Wed, 01 Feb 2023 10:00:00 +0000</pubDate>
		<dc:creator>Jane Doe</dc:creator>
	</item>
	<item>
		<title>Second item</title>
		<link>https://example.com/item2</link>
	</item>
</channel>
</rss>`

	entries := parser.Run([]byte(rssData), testSource)

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got: %d", len(entries))
	}

	entry := entries[0]
	if entry["title"] != "Pfizer wins approval" {
		t.Errorf("Expected title 'Pfizer wins approval', got: %s", entry["title"])
	}
	if entry["link"] != "https://example.com/item1" {
		t.Errorf("Expected link 'https://example.com/item1', got: %s", entry["link"])
	}
	if entry["description"] != "Test description" {
		t.Errorf("Expected description 'Test description', got: %s", entry["description"])
	}
	if entry["published"] != "Wed, 01 Feb 2023 10:00:00 +0000" {
		t.Errorf("Expected published date to be kept verbatim, got: %s", entry["published"])
	}
	if entry["dc:creator"] != "Jane Doe" {
		t.Errorf("Expected dc:creator 'Jane Doe', got: %s", entry["dc:creator"])
	}
}

func TestParseAtom(t *testing.T) {
	parser := NewParser()

	atomData := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Test Atom Feed</title>
	<link href="https://example.com"/>
	<id>https://example.com</id>
	<updated>2023-01-01T12:00:00Z</updated>
	<entry>
		<title>Test Entry</title>
		<link href="https://example.com/entry1"/>
		<id>https://example.com/entry1</id>
		<updated>2023-01-01T12:00:00Z</updated>
		<summary>Test summary</summary>
		<author><name>John Roe</name></author>
	</entry>
</feed>`

	entries := parser.Run([]byte(atomData), testSource)

	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got: %d", len(entries))
	}

	entry := entries[0]
	if entry["title"] != "Test Entry" {
		t.Errorf("Expected title 'Test Entry', got: %s", entry["title"])
	}
	if entry["link"] != "https://example.com/entry1" {
		t.Errorf("Expected link 'https://example.com/entry1', got: %s", entry["link"])
	}
	if entry["updated"] != "2023-01-01T12:00:00Z" {
		t.Errorf("Expected updated '2023-01-01T12:00:00Z', got: %s", entry["updated"])
	}
	if entry["author"] != "John Roe" {
		t.Errorf("Expected author 'John Roe', got: %s", entry["author"])
	}
}

func TestParseBareChannel(t *testing.T) {
	parser := NewParser()

	data := `<?xml version="1.0" encoding="UTF-8"?>
<channel xmlns:dc="http://purl.org/dc/elements/1.1/">
	<title>Bare</title>
	<item>
		<title>Only item</title>
		<link>https://example.com/only</link>
		<dc:date>2024-03-05T08:00:00Z</dc:date>
	</item>
</channel>`

	entries := parser.Run([]byte(data), testSource)

	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry from a single-item envelope, got: %d", len(entries))
	}
	if entries[0]["title"] != "Only item" {
		t.Errorf("Expected title 'Only item', got: %s", entries[0]["title"])
	}
	if entries[0]["dc:date"] != "2024-03-05T08:00:00Z" {
		t.Errorf("Expected dc:date to be keyed with its prefix, got: %v", entries[0])
	}
}

func TestParseEnvelopePrefersAlternateLink(t *testing.T) {
	data := `<channel>
	<item>
		<title>Linked</title>
		<link rel="enclosure" href="https://example.com/file.pdf"/>
		<link rel="alternate" href="https://example.com/page"/>
	</item>
	<item>
		<title>Second</title>
	</item>
</channel>`

	entries, err := decodeEnvelope([]byte(data))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got: %d", len(entries))
	}
	if entries[0]["link"] != "https://example.com/page" {
		t.Errorf("Expected alternate link, got: %s", entries[0]["link"])
	}
}

func TestParseInvalidFeed(t *testing.T) {
	parser := NewParser()

	for _, input := range []string{"", "   ", "invalid xml", "<html><body>not a feed</body></html>"} {
		entries := parser.Run([]byte(input), testSource)
		if entries == nil {
			t.Errorf("Expected empty slice for %q, got nil", input)
		}
		if len(entries) != 0 {
			t.Errorf("Expected no entries for %q, got: %d", input, len(entries))
		}
	}
}

func TestParseCapsEntries(t *testing.T) {
	parser := NewParser()

	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>Many</title>`)
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "<item><title>Item %d</title><link>https://example.com/%d</link></item>", i, i)
	}
	b.WriteString("</channel></rss>")

	entries := parser.Run([]byte(b.String()), testSource)

	if len(entries) != MaxItemsPerSource {
		t.Fatalf("Expected %d entries, got: %d", MaxItemsPerSource, len(entries))
	}
	if entries[0]["title"] != "Item 0" || entries[9]["title"] != "Item 9" {
		t.Errorf("Expected the first entries in feed order, got: %s ... %s", entries[0]["title"], entries[9]["title"])
	}
}

func TestParseFeedburnerOrigLink(t *testing.T) {
	parser := NewParser()

	rssData := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:feedburner="http://rssnamespace.org/feedburner/ext/1.0">
<channel>
	<title>Proxied</title>
	<item>
		<title>Proxied item</title>
		<link>https://feeds.example.com/~r/abc</link>
		<feedburner:origLink>https://example.com/real</feedburner:origLink>
	</item>
</channel>
</rss>`

	entries := parser.Run([]byte(rssData), testSource)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got: %d", len(entries))
	}
	if entries[0]["feedburner:origLink"] != "https://example.com/real" {
		t.Errorf("Expected feedburner:origLink, got: %v", entries[0])
	}
}

func TestQualifiedName(t *testing.T) {
	tests := []struct {
		space, local, want string
	}{
		{"", "item", "item"},
		{"http://purl.org/dc/elements/1.1/", "creator", "dc:creator"},
		{"http://www.w3.org/2005/Atom", "entry", "entry"},
		{"https://unknown.example.com/ns", "thing", "thing"},
		{"media", "content", "media:content"},
	}

	for _, tt := range tests {
		if got := qualifiedName(tt.space, tt.local); got != tt.want {
			t.Errorf("qualifiedName(%q, %q) = %q, want %q", tt.space, tt.local, got, tt.want)
		}
	}
}
