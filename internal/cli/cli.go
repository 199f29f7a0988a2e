// Package cli implements the tikzkit command-line interface.
package cli

import (
	"io"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tikzkit/tikzkit/pkg/buildinfo"
	"github.com/tikzkit/tikzkit/pkg/cache"
	"github.com/tikzkit/tikzkit/pkg/latex"
	"github.com/tikzkit/tikzkit/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "tikzkit"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *Config
}

// New creates a new CLI instance with a default logger and the on-disk
// configuration (falling back to defaults when no config file exists).
func New(w io.Writer, level log.Level) *CLI {
	c := &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
	cfg, err := LoadConfig(ConfigPath())
	if err != nil {
		c.Logger.Warn("ignoring unreadable config file", "path", ConfigPath(), "err", err)
		cfg = DefaultConfig()
	}
	c.Config = cfg
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "tikzkit",
		Short:        "Tikzkit renders TikZ snippets to images",
		Long:         `Tikzkit assembles TikZ/LaTeX snippets into standalone documents, compiles them with a LaTeX toolchain, and converts the result to PNG, SVG or JPEG.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.doctorCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) *pipeline.Runner {
	artifacts, err := newCache(noCache)
	if err != nil {
		c.Logger.Warn("cache unavailable, rendering without it", "err", err)
		artifacts = cache.NewNullCache()
	}
	compiler := latex.NewRunner(c.Config.Compiler, c.Logger)
	return pipeline.NewRunner(artifacts, nil, compiler, c.Logger)
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(cacheDir())
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the artifact cache directory (~/.cache/tikzkit/ by
// XDG convention).
func cacheDir() string {
	return filepath.Join(xdg.CacheHome, appName)
}
