package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Server configuration
	Port    string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://pulse.example.com)"`

	// Ingestion configuration
	SourcesFile     string        `long:"sources-file" env:"SOURCES_FILE" description:"YAML catalog of feed sources (built-in catalog when empty)"`
	WorkerCount     int           `long:"worker-count" env:"WORKER_COUNT" default:"8" description:"Number of sources fetched concurrently"`
	RefreshInterval time.Duration `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"30m" description:"Interval between full refresh cycles"`
	FetchTimeout    time.Duration `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"15s" description:"Timeout for a single feed request"`
	MaxRedirects    int           `long:"max-redirects" env:"MAX_REDIRECTS" default:"5" description:"Maximum redirects followed per feed request"`
	CacheTTL        time.Duration `long:"cache-ttl" env:"CACHE_TTL" default:"30m" description:"How long a cached snapshot is served without refetching"`
	UserAgent       string        `long:"user-agent" env:"USER_AGENT" description:"User agent string for feed requests (browser identity when empty)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses args instead of the process arguments. A nil slice means
// os.Args.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validate(&raw); err != nil {
		return nil, err
	}

	cfg := &Cfg{
		Port:            raw.Port,
		BaseUrl:         cmp.Or(raw.BaseUrl, "http://localhost:"+raw.Port),
		SourcesFile:     raw.SourcesFile,
		WorkerCount:     raw.WorkerCount,
		RefreshInterval: raw.RefreshInterval,
		FetchTimeout:    raw.FetchTimeout,
		MaxRedirects:    raw.MaxRedirects,
		CacheTTL:        raw.CacheTTL,
		UserAgent:       raw.UserAgent,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func validate(raw *rawCfg) error {
	positive := map[string]int64{
		"worker-count":     int64(raw.WorkerCount),
		"refresh-interval": int64(raw.RefreshInterval),
		"fetch-timeout":    int64(raw.FetchTimeout),
		"max-redirects":    int64(raw.MaxRedirects),
		"cache-ttl":        int64(raw.CacheTTL),
	}

	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("invalid configuration: %s must be positive", name)
		}
	}

	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
