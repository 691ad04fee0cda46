// Package cli implements the amrraster command-line interface.
//
// The commands turn the AMR output of a shallow-flow solver into products
// on a uniform raster:
//   - create-raster-series: write every frame into one CF NetCDF time series
//   - render-frames: write one PNG per frame
//   - info: list the frames of a solution directory
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// is attached to the command context and retrieved with loggerFromContext.
//
// # Case settings
//
// A case directory may hold an amrraster.toml (see package config) whose
// values apply when the corresponding flag is not given.
package cli

import (
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/amrraster/pkg/buildinfo"
	"github.com/matzehuels/amrraster/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display and NetCDF provenance.
	appName = "amrraster"
)

// Log levels accepted by New and SetLogLevel.
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
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:   appName,
		Short: "amrraster converts AMR flow solutions to uniform rasters",
		Long: `amrraster reads the adaptive-mesh output of a Clawpack/GeoClaw shallow-flow
simulation, samples one refinement level onto a uniform raster and writes it
as a CF-compliant NetCDF time series or as a sequence of PNG frames.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every frame at debug level")

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.createSeriesCommand())
	root.AddCommand(c.renderFramesCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner() *pipeline.Runner {
	return pipeline.NewRunner(c.Logger)
}

// =============================================================================
// Paths
// =============================================================================

// caseName returns the base name of a case directory, resolving "." and
// trailing separators.
func caseName(caseDir string) string {
	if abs, err := filepath.Abs(caseDir); err == nil {
		return filepath.Base(abs)
	}
	return filepath.Base(filepath.Clean(caseDir))
}

// resolvePath interprets a relative path as relative to the case directory.
func resolvePath(caseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(caseDir, path)
}
