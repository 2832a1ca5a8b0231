package feed

import (
	"bytes"
	"cmp"
	"errors"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

const MaxItemsPerSource = 10

// Parser turns feed markup into raw entries. It never fails: unreadable
// input yields an empty slice.
type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte, src Source) []RawEntry {
	if len(bytes.TrimSpace(data)) == 0 {
		slog.Debug("Empty feed body", "source", src.Name)
		return []RawEntry{}
	}

	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err == nil {
		return capEntries(p.entriesFromFeed(parsed))
	}

	if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
		slog.Debug("Feed type not detected, decoding envelope", "source", src.Name)
	} else {
		slog.Debug("Feed parse failed, decoding envelope", "source", src.Name, "error", err)
	}

	entries, err := decodeEnvelope(data)
	if err != nil {
		slog.Debug("Envelope decode failed", "source", src.Name, "error", err)
		return []RawEntry{}
	}

	return capEntries(entries)
}

func (p *Parser) entriesFromFeed(parsed *gofeed.Feed) []RawEntry {
	entries := make([]RawEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, p.normalizeItem(item))
	}
	return entries
}

func (p *Parser) normalizeItem(item *gofeed.Item) RawEntry {
	entry := RawEntry{}
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			entry[key] = value
		}
	}

	set("title", item.Title)
	set("description", item.Description)
	set("content:encoded", item.Content)
	set("link", item.Link)
	if item.Link == "" && len(item.Links) > 0 {
		set("link", item.Links[0])
	}
	set("published", item.Published)
	set("updated", item.Updated)

	if len(item.Authors) > 0 && item.Authors[0] != nil {
		set("author", cmp.Or(item.Authors[0].Name, item.Authors[0].Email))
	} else if item.Author != nil {
		set("author", cmp.Or(item.Author.Name, item.Author.Email))
	}

	if dc := item.DublinCoreExt; dc != nil {
		set("dc:title", firstOf(dc.Title))
		set("dc:creator", firstOf(dc.Creator))
		set("dc:date", firstOf(dc.Date))
	}

	set("feedburner:origLink", extensionValue(item.Extensions, "feedburner", "origLink"))

	return entry
}

func extensionValue(exts ext.Extensions, prefix, name string) string {
	if exts == nil {
		return ""
	}
	values := exts[prefix][name]
	if len(values) == 0 {
		return ""
	}
	return values[0].Value
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func capEntries(entries []RawEntry) []RawEntry {
	if len(entries) > MaxItemsPerSource {
		return entries[:MaxItemsPerSource]
	}
	return entries
}
