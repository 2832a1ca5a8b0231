package feed

import (
	"encoding/json"
	"fmt"
	"time"
)

type Category string

const (
	CategoryPharmaceutical Category = "pharmaceutical"
	CategoryPatents        Category = "patents"
	CategoryClinicalTrials Category = "clinicalTrials"
	CategoryRegulatory     Category = "regulatory"
	CategoryFinancial      Category = "financial"
)

// Categories returns every category in canonical order.
func Categories() []Category {
	return []Category{
		CategoryPharmaceutical,
		CategoryPatents,
		CategoryClinicalTrials,
		CategoryRegulatory,
		CategoryFinancial,
	}
}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

type Relevance string

const (
	RelevanceLow    Relevance = "low"
	RelevanceMedium Relevance = "medium"
	RelevanceHigh   Relevance = "high"
)

// Rank orders relevance tiers, higher is more urgent.
func (r Relevance) Rank() int {
	switch r {
	case RelevanceHigh:
		return 3
	case RelevanceMedium:
		return 2
	case RelevanceLow:
		return 1
	default:
		return 0
	}
}

type Severity string

const (
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Catalog types

type Source struct {
	Name             string   `yaml:"name" json:"name"`
	URL              string   `yaml:"url" json:"url"`
	Category         Category `yaml:"category" json:"category"`
	Description      string   `yaml:"description" json:"description"`
	UpdateIntervalMs int64    `yaml:"update_interval_ms" json:"updateIntervalMs"`
	Priority         string   `yaml:"priority,omitempty" json:"priority,omitempty"`
}

// Feed processing types

// RawEntry holds one feed entry as plain text fields keyed by the element
// name the feed used (title, dc:title, content:encoded, ...).
type RawEntry map[string]string

// First returns the first non-blank value among keys.
func (e RawEntry) First(keys ...string) string {
	for _, k := range keys {
		if v, ok := e[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

type Item struct {
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Link          string        `json:"link"`
	PublishedAt   time.Time     `json:"publishedAt"`
	PublishedRaw  string        `json:"publishedRaw,omitempty"`
	Author        string        `json:"author,omitempty"`
	Category      Category      `json:"category"`
	Source        string        `json:"source"`
	ExtractedInfo ExtractedInfo `json:"extractedInfo"`
	Relevance     Relevance     `json:"relevance"`
}

// ExtractedInfo is tagged by category: exactly one variant is set.
type ExtractedInfo struct {
	Pharmaceutical *PharmaceuticalInfo
	Patents        *PatentInfo
	ClinicalTrials *ClinicalTrialInfo
	Regulatory     *RegulatoryInfo
	Financial      *FinancialInfo
}

type PharmaceuticalInfo struct {
	Type       string   `json:"type"`
	Companies  []string `json:"companies"`
	Drugs      []string `json:"drugs"`
	Regulatory bool     `json:"regulatory"`
}

type PatentInfo struct {
	Type        string   `json:"type"`
	PatentTypes []string `json:"patentTypes"`
	Legal       bool     `json:"legal"`
}

type ClinicalTrialInfo struct {
	Type        string   `json:"type"`
	Phases      []string `json:"phases"`
	Conditions  []string `json:"conditions"`
	Companies   []string `json:"companies"`
	TrialStatus string   `json:"trialStatus"`
	Severity    Severity `json:"severity"`
}

type RegulatoryInfo struct {
	Type               string   `json:"type"`
	RegulatoryAgencies []string `json:"regulatoryAgencies"`
	Compliance         bool     `json:"compliance"`
	Companies          []string `json:"companies"`
	Severity           Severity `json:"severity"`
}

type FinancialInfo struct {
	Type         string `json:"type"`
	MarketImpact string `json:"marketImpact"`
}

func (x ExtractedInfo) Type() string {
	switch {
	case x.Pharmaceutical != nil:
		return x.Pharmaceutical.Type
	case x.Patents != nil:
		return x.Patents.Type
	case x.ClinicalTrials != nil:
		return x.ClinicalTrials.Type
	case x.Regulatory != nil:
		return x.Regulatory.Type
	case x.Financial != nil:
		return x.Financial.Type
	}
	return ""
}

// Severity is empty for categories that carry no severity signal.
func (x ExtractedInfo) Severity() Severity {
	switch {
	case x.ClinicalTrials != nil:
		return x.ClinicalTrials.Severity
	case x.Regulatory != nil:
		return x.Regulatory.Severity
	}
	return ""
}

func (x ExtractedInfo) MarshalJSON() ([]byte, error) {
	switch {
	case x.Pharmaceutical != nil:
		return json.Marshal(x.Pharmaceutical)
	case x.Patents != nil:
		return json.Marshal(x.Patents)
	case x.ClinicalTrials != nil:
		return json.Marshal(x.ClinicalTrials)
	case x.Regulatory != nil:
		return json.Marshal(x.Regulatory)
	case x.Financial != nil:
		return json.Marshal(x.Financial)
	}
	return []byte("null"), nil
}

// Cache types

type Snapshot struct {
	Source      string    `json:"source"`
	Category    Category  `json:"category"`
	Description string    `json:"description"`
	LastUpdated time.Time `json:"lastUpdated"`
	Items       []Item    `json:"items"`
	Error       string    `json:"error,omitempty"`
}

func (s Snapshot) clone() Snapshot {
	if s.Items != nil {
		items := make([]Item, len(s.Items))
		copy(items, s.Items)
		s.Items = items
	}
	return s
}
