package feed

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// NoTitleSentinel is the placeholder some feeds emit for untitled entries.
const NoTitleSentinel = "No title"

type Classifier struct {
	now func() time.Time
}

func NewClassifier() *Classifier {
	return &Classifier{now: time.Now}
}

// NewClassifierWithClock is used by tests to pin the default publish time.
func NewClassifierWithClock(now func() time.Time) *Classifier {
	return &Classifier{now: now}
}

// Run turns one raw entry into an item. ok is false when the entry has no
// usable title and must be dropped.
func (c *Classifier) Run(entry RawEntry, src Source) (Item, bool) {
	title := CleanText(entry.First("title", "dc:title"))
	if title == "" || title == NoTitleSentinel {
		slog.Debug("Entry skipped", "source", src.Name, "reason", "missing title")
		return Item{}, false
	}

	item := Item{
		Title:       title,
		Description: CleanText(entry.First("description", "summary", "content:encoded", "content")),
		Link:        strings.TrimSpace(entry.First("link", "feedburner:origLink")),
		Author:      CleanText(entry.First("author", "dc:creator")),
		Category:    src.Category,
		Source:      src.Name,
	}
	item.PublishedAt, item.PublishedRaw = c.resolvePublished(entry)

	original := item.Title + " " + item.Description
	item.ExtractedInfo = Extract(src.Category, strings.ToLower(original), original)
	item.Relevance = RelevanceFor(item.ExtractedInfo)

	return item, true
}

// RunAll classifies entries, drops skipped ones and orders the rest
// most-recent first. Items with an unparsable date keep their feed position
// after all dated items.
func (c *Classifier) RunAll(entries []RawEntry, src Source) []Item {
	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		if item, ok := c.Run(entry, src); ok {
			items = append(items, item)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].PublishedAt, items[j].PublishedAt
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.After(b)
	})

	return items
}

func (c *Classifier) resolvePublished(entry RawEntry) (time.Time, string) {
	raw := strings.TrimSpace(entry.First("pubDate", "published", "updated", "dc:date"))
	if raw == "" {
		now := c.now().UTC()
		return now, now.Format(time.RFC3339)
	}

	parsed, err := dateparse.ParseAny(raw)
	if err != nil {
		slog.Debug("Unparsable publish date", "value", raw, "error", err)
		return time.Time{}, raw
	}
	return parsed.UTC(), raw
}
