package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	"github.com/tikzkit/tikzkit/pkg/latex"
	"github.com/tikzkit/tikzkit/pkg/tikz"
)

// Config holds user defaults loaded from the config file. Flags always
// override config values; config values override built-in defaults.
type Config struct {
	// Compiler is the LaTeX compiler binary (default pdflatex).
	Compiler string `toml:"compiler"`

	// ImageMagick is the ImageMagick-compatible executable used by the
	// standalone convert mechanism (default convert).
	ImageMagick string `toml:"imagemagick"`

	// Format is the default output format.
	Format string `toml:"format"`

	// Encoding is the default charset for the generated .tex file.
	Encoding string `toml:"encoding"`

	// Preamble is prepended to every document's preamble block.
	Preamble string `toml:"preamble"`

	// Addr is the default listen address for tikzkit serve.
	Addr string `toml:"addr"`

	// RedisURL, when set, selects the Redis cache backend for serve.
	RedisURL string `toml:"redis_url"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Compiler:    latex.DefaultBinary,
		ImageMagick: tikz.DefaultImageMagick,
		Format:      tikz.DefaultFormat,
		Encoding:    tikz.DefaultEncoding,
		Addr:        ":8080",
	}
}

// ConfigPath returns the config file location
// ($XDG_CONFIG_HOME/tikzkit/config.toml).
func ConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// LoadConfig reads the TOML config at path, layering it over the
// built-in defaults. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if cfg.Compiler == "" {
		cfg.Compiler = latex.DefaultBinary
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return cfg, nil
}
