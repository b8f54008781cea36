package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every configuration knob that influences a run. All values
// originate from Viper so the pipeline can be configured via files, env vars,
// or CLI flags.
type Config struct {
	SitemapURL    string
	StartURL      string
	Includes      []string
	Excludes      []string
	MaxPages      int
	UserAgent     string
	FetchTimeout  time.Duration
	PoliteDelay   time.Duration
	Concurrency   int
	RenderTimeout time.Duration
	ArtifactDir   string
	OutputPath    string
	KeepArtifacts bool
	Development   bool
}

// LoadConfig constructs a Config by reading from Viper.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		SitemapURL:    v.GetString("discovery.sitemap_url"),
		StartURL:      v.GetString("discovery.start_url"),
		Includes:      splitCSV(v.GetString("discovery.include")),
		Excludes:      splitCSV(v.GetString("discovery.exclude")),
		MaxPages:      v.GetInt("discovery.max_pages"),
		UserAgent:     v.GetString("discovery.user_agent"),
		FetchTimeout:  v.GetDuration("discovery.fetch_timeout"),
		PoliteDelay:   v.GetDuration("discovery.polite_delay"),
		Concurrency:   v.GetInt("render.concurrency"),
		RenderTimeout: v.GetDuration("render.timeout"),
		ArtifactDir:   v.GetString("render.artifact_dir"),
		OutputPath:    v.GetString("output.path"),
		KeepArtifacts: v.GetBool("output.keep_artifacts"),
		Development:   v.GetBool("log.development"),
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.SitemapURL == "" && c.StartURL == "" {
		return fmt.Errorf("either discovery.sitemap_url or discovery.start_url must be set")
	}
	if c.SitemapURL != "" && c.StartURL != "" {
		return fmt.Errorf("discovery.sitemap_url and discovery.start_url are mutually exclusive")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output.path must be set")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("discovery.user_agent must be set")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("discovery.max_pages must be > 0")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("discovery.fetch_timeout must be > 0")
	}
	if c.PoliteDelay < 0 {
		return fmt.Errorf("discovery.polite_delay must be >= 0")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("render.concurrency must be > 0")
	}
	if c.RenderTimeout <= 0 {
		return fmt.Errorf("render.timeout must be > 0")
	}
	if c.ArtifactDir == "" {
		return fmt.Errorf("render.artifact_dir must be set")
	}
	return nil
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
