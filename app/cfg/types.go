package cfg

import "time"

type Cfg struct {
	// Server configuration
	Port    string
	BaseUrl string

	// Ingestion configuration
	SourcesFile     string
	WorkerCount     int
	RefreshInterval time.Duration
	FetchTimeout    time.Duration
	MaxRedirects    int
	CacheTTL        time.Duration
	UserAgent       string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
