package query

import (
	"time"

	"github.com/lysyi3m/pharma-pulse/app/feed"
)

type SourceStatus struct {
	Name        string        `json:"name"`
	URL         string        `json:"url"`
	Category    feed.Category `json:"category"`
	Description string        `json:"description"`
	LastUpdated *time.Time    `json:"lastUpdated"`
	Status      string        `json:"status"`
	ItemCount   int           `json:"itemCount"`
	Error       string        `json:"error,omitempty"`
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Topic struct {
	Keyword   string         `json:"keyword"`
	Count     int            `json:"count"`
	Relevance feed.Relevance `json:"relevance"`
}
