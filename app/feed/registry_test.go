package feed

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadRegistryDefault(t *testing.T) {
	registry, err := LoadRegistry("")
	if err != nil {
		t.Fatalf("Failed to load default catalog: %v", err)
	}

	if registry.Len() == 0 {
		t.Fatal("Expected the default catalog to contain sources")
	}

	for _, c := range Categories() {
		if len(registry.ByCategory(c)) == 0 {
			t.Errorf("Expected at least one source for category %s", c)
		}
	}

	for _, src := range registry.Sources() {
		if src.UpdateIntervalMs <= 0 {
			t.Errorf("Expected positive update interval for %s, got %d", src.Name, src.UpdateIntervalMs)
		}
	}
}

func TestLoadRegistryFromFile(t *testing.T) {
	tempDir := t.TempDir()

	content := `
sources:
  - name: "First"
    url: "https://example.com/first.xml"
    category: "financial"
    description: "First feed"
  - name: "Second"
    url: "https://example.com/second.xml"
    category: "patents"
    update_interval_ms: 60000
  - name: "Third"
    url: "https://example.com/third.xml"
    category: "financial"
`

	path := filepath.Join(tempDir, "sources.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	registry, err := LoadRegistry(path)
	if err != nil {
		t.Fatal(err)
	}

	if registry.Len() != 3 {
		t.Fatalf("Expected 3 sources, got %d", registry.Len())
	}

	financial := registry.ByCategory(CategoryFinancial)
	if len(financial) != 2 || financial[0].Name != "First" || financial[1].Name != "Third" {
		t.Errorf("Expected financial sources in declaration order, got %v", financial)
	}

	first, err := registry.Lookup("First")
	if err != nil {
		t.Fatal(err)
	}
	if first.UpdateIntervalMs != DefaultUpdateIntervalMs {
		t.Errorf("Expected default update interval %d, got %d", DefaultUpdateIntervalMs, first.UpdateIntervalMs)
	}

	second, _ := registry.Lookup("Second")
	if second.UpdateIntervalMs != 60000 {
		t.Errorf("Expected update interval 60000, got %d", second.UpdateIntervalMs)
	}

	if len(registry.ByCategory(CategoryRegulatory)) != 0 {
		t.Error("Expected no regulatory sources")
	}
}

func TestRegistryLookupMissing(t *testing.T) {
	registry, err := NewRegistry(nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = registry.Lookup("nope")
	if !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("Expected ErrSourceNotFound, got: %v", err)
	}
}

func TestNewRegistryInvalid(t *testing.T) {
	tests := []struct {
		name    string
		sources []Source
		want    string
	}{
		{
			name:    "missing url",
			sources: []Source{{Name: "A", Category: CategoryFinancial}},
			want:    "url is required",
		},
		{
			name:    "missing name",
			sources: []Source{{URL: "https://example.com", Category: CategoryFinancial}},
			want:    "name is required",
		},
		{
			name:    "unknown category",
			sources: []Source{{Name: "A", URL: "https://example.com", Category: "gossip"}},
			want:    "unknown category",
		},
		{
			name:    "negative interval",
			sources: []Source{{Name: "A", URL: "https://example.com", Category: CategoryPatents, UpdateIntervalMs: -1}},
			want:    "non-negative",
		},
		{
			name: "duplicate name",
			sources: []Source{
				{Name: "A", URL: "https://example.com/1", Category: CategoryPatents},
				{Name: "A", URL: "https://example.com/2", Category: CategoryFinancial},
			},
			want: "duplicate source name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.sources)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestRegistrySourcesIsCopy(t *testing.T) {
	registry, err := NewRegistry([]Source{{Name: "A", URL: "https://example.com", Category: CategoryPatents}})
	if err != nil {
		t.Fatal(err)
	}

	sources := registry.Sources()
	sources[0].Name = "changed"

	if _, err := registry.Lookup("A"); err != nil {
		t.Errorf("Expected registry to be unaffected by caller mutation: %v", err)
	}
	if registry.Sources()[0].Name != "A" {
		t.Error("Expected registry to be unaffected by caller mutation")
	}
}
