package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"toonzip/parser"
	"toonzip/sites"
)

const (
	appName        = "toonzip"
	configFileName = "config.yaml"

	// DefaultUserAgent is a fixed desktop Chrome identity shared by the
	// browser sessions and the image fetcher.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	DefaultGroupSize = 3
)

// Timings groups every wait the pipeline performs. Zero values are allowed
// (tests run with all delays at zero); negative values are clamped to zero.
type Timings struct {
	ListingSettle     time.Duration `yaml:"listing_settle"`     // After loading the listing page
	PageSettle        time.Duration `yaml:"page_settle"`        // After switching pagination pages
	EpisodeSettle     time.Duration `yaml:"episode_settle"`     // After loading an episode page
	ScrollDelay       time.Duration `yaml:"scroll_delay"`       // Between scroll steps
	ImageDelay        time.Duration `yaml:"image_delay"`        // Between image downloads
	WaitTimeout       time.Duration `yaml:"wait_timeout"`       // Element/staleness waits
	NavigationTimeout time.Duration `yaml:"navigation_timeout"` // Page loads
	ImageTimeout      time.Duration `yaml:"image_timeout"`      // Single image GET
}

// Config is the on-disk and in-memory configuration for a run.
type Config struct {
	Output      string        `yaml:"output"`       // Parent directory of comic folders and archives
	GroupSize   int           `yaml:"group_size"`   // Episodes downloaded concurrently per group
	Fresh       bool          `yaml:"fresh"`        // Purge an existing comic folder instead of resuming
	ConvertJPEG bool          `yaml:"convert_jpeg"` // Re-encode PNG/GIF/WebP images to JPEG
	Debug       bool          `yaml:"debug"`
	Headless    bool          `yaml:"headless"`
	UserAgent   string        `yaml:"user_agent"`
	Timings     Timings       `yaml:"timings"`
	Selectors   sites.Profile `yaml:"selectors"`
}

// Options carries command line overrides. Zero values leave the config
// untouched.
type Options struct {
	ConfigPath  string
	Output      string
	GroupSize   int
	Fresh       bool
	ConvertJPEG bool
	Debug       bool
}

// DefaultTimings returns the waits used against the live site.
func DefaultTimings() Timings {
	return Timings{
		ListingSettle:     5 * time.Second,
		PageSettle:        2 * time.Second,
		EpisodeSettle:     3 * time.Second,
		ScrollDelay:       2 * time.Second,
		ImageDelay:        500 * time.Millisecond,
		WaitTimeout:       10 * time.Second,
		NavigationTimeout: 60 * time.Second,
		ImageTimeout:      30 * time.Second,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Output:    ".",
		GroupSize: DefaultGroupSize,
		Headless:  true,
		UserAgent: DefaultUserAgent,
		Timings:   DefaultTimings(),
		Selectors: sites.Default(),
	}
}

// Load reads the YAML config at path. An empty path means the default
// location under ~/.config/toonzip. A missing file is not an error: the
// defaults are returned instead.
func Load(path string) (*Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("[Config] No config file at %s, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	// Unmarshal over the defaults so omitted keys keep their default value
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

// LoadMerged loads the config named by opts (or the default one) and applies
// the command line overrides on top.
func LoadMerged(opts Options) (*Config, error) {
	cfg, err := Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	cfg.Merge(opts)
	return cfg, nil
}

// Save writes the config as YAML, creating the parent directory if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		path = defaultPath
	}

	data, err := c.YAML()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating directory %s: %w", filepath.Dir(path), err)
	}

	return os.WriteFile(path, data, 0644)
}

// YAML encodes the config in its file format.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("error encoding config: %w", err)
	}
	return data, nil
}

// Merge applies non-zero overrides from opts.
func (c *Config) Merge(o Options) {
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.GroupSize != 0 {
		c.GroupSize = o.GroupSize
	}
	if o.Fresh {
		c.Fresh = true
	}
	if o.ConvertJPEG {
		c.ConvertJPEG = true
	}
	if o.Debug {
		c.Debug = true
	}

	c.normalize()
}

// OutputDir returns the output directory with ~ expanded.
func (c *Config) OutputDir() (string, error) {
	dir, err := parser.ExpandPath(c.Output)
	if err != nil {
		return "", fmt.Errorf("cannot expand output directory %q: %w", c.Output, err)
	}
	return dir, nil
}

func (c *Config) normalize() {
	if c.Output == "" {
		c.Output = "."
	}
	if c.GroupSize < 1 {
		c.GroupSize = 1
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}

	t := &c.Timings
	for _, d := range []*time.Duration{
		&t.ListingSettle, &t.PageSettle, &t.EpisodeSettle, &t.ScrollDelay,
		&t.ImageDelay, &t.WaitTimeout, &t.NavigationTimeout, &t.ImageTimeout,
	} {
		if *d < 0 {
			*d = 0
		}
	}

	c.Selectors = c.Selectors.WithDefaults()
}

// DefaultConfigPath returns ~/.config/toonzip/config.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Dir returns ~/.config/toonzip, creating it when missing.
func Dir() (string, error) {
	configDirectory, expandError := parser.ExpandPath("~/.config/" + appName)
	if expandError != nil {
		return "", fmt.Errorf("cannot verify local configuration directory: %w", expandError)
	}

	_, err := os.Stat(configDirectory)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(configDirectory, 0755); err != nil {
			return "", fmt.Errorf("error creating directory %s: %w", configDirectory, err)
		}
		log.Printf("[Config] Directory %s created", configDirectory)
	} else if err != nil {
		return "", fmt.Errorf("error checking directory %s: %w", configDirectory, err)
	}

	return configDirectory, nil
}
