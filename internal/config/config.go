package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/cclinedev/ccline/internal/pricing"
)

// Config holds all ccline configuration.
type Config struct {
	General  GeneralConfig    `toml:"general"`
	Quota    QuotaConfig      `toml:"quota"`
	Segments SegmentsConfig   `toml:"segments"`
	Pricing  PricingOverrides `toml:"pricing"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	ClaudeDir string `toml:"claude_dir,omitempty"`
	Theme     string `toml:"theme"`
}

// QuotaConfig holds claude.ai quota API settings.
type QuotaConfig struct {
	SessionKey string `toml:"session_key,omitempty"`
	BaseURL    string `toml:"base_url,omitempty"`
}

// SegmentsConfig toggles individual statusline segments.
type SegmentsConfig struct {
	Model    bool `toml:"model"`
	Cost     bool `toml:"cost"`
	Tokens   bool `toml:"tokens"`
	BurnRate bool `toml:"burn_rate"`
	Agents   bool `toml:"agents"`
	Quota    bool `toml:"quota"`
}

// PricingOverrides allows user-defined pricing for specific models.
type PricingOverrides struct {
	Overrides map[string]ModelPricingOverride `toml:"overrides,omitempty"`
}

// ModelPricingOverride holds per-model pricing overrides.
type ModelPricingOverride struct {
	InputPerMTok      *float64 `toml:"input_per_mtok,omitempty"`
	OutputPerMTok     *float64 `toml:"output_per_mtok,omitempty"`
	CacheWritePerMTok *float64 `toml:"cache_write_per_mtok,omitempty"`
	CacheReadPerMTok  *float64 `toml:"cache_read_per_mtok,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Theme: "flexoki-dark",
		},
		Segments: SegmentsConfig{
			Model:    true,
			Cost:     true,
			Tokens:   true,
			BurnRate: true,
			Agents:   true,
			Quota:    true,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ccline")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ccline")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory. State files
// (burn-rate state, quota cache, the agent usage database, debug logs)
// live here.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "ccline")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "ccline")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// SessionKey returns the claude.ai session key from env var or config,
// in that order.
func SessionKey(cfg Config) string {
	if key := os.Getenv("CLAUDE_SESSION_KEY"); key != "" {
		return key
	}
	return cfg.Quota.SessionKey
}

// ApplyPricing installs user pricing overrides into the pricing table.
func ApplyPricing(cfg Config) {
	for model, o := range cfg.Pricing.Overrides {
		pricing.Override(model, o.InputPerMTok, o.OutputPerMTok, o.CacheWritePerMTok, o.CacheReadPerMTok)
	}
}
