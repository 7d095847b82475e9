// Command deckforge inspects and edits slide decks from the shell.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tsawler/deckforge"
	"github.com/tsawler/deckforge/config"
	"github.com/tsawler/deckforge/deckerr"
	"github.com/tsawler/deckforge/internal/logging"
)

var (
	colorPass  = color.New(color.FgGreen, color.Bold)
	colorFail  = color.New(color.FgRed, color.Bold)
	colorWarn  = color.New(color.FgYellow)
	colorLabel = color.New(color.FgCyan)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		colorFail.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode distinguishes the failures scripts most often retry on.
func exitCode(err error) int {
	switch deckerr.KindOf(err) {
	case deckerr.LockUnavailable:
		return 3
	case deckerr.ConsistencyViolation:
		return 4
	}
	return 1
}

// app holds the global flags and what PersistentPreRunE derives from them.
type app struct {
	configPath string
	logLevel   string
	jsonOut    bool

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default(), logger: logging.Discard()}

	root := &cobra.Command{
		Use:   "deckforge",
		Short: "Inspect and edit slide decks by position, size and grid cell",
		Long: `deckforge places shapes on slides using percentages, absolute lengths,
named anchors or spreadsheet-style grid cells, and guards every write with a
file lock and a checksum check.

Examples:
  deckforge info deck.pptx
  deckforge resolve --canvas 1280x720 --position '{"left":"50%","top":"50%"}'
  deckforge set-geometry deck.pptx --slide 1 --shape 3 --position '{"grid":"B2:D4"}'
  deckforge contrast 0070C0 FFFFFF`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "",
		"Config file (default $"+config.EnvPath+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides the config file)")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false,
		"Output as JSON for scripting")

	root.AddCommand(
		a.infoCmd(),
		a.fingerprintCmd(),
		a.checksumCmd(),
		a.resolveCmd(),
		a.contrastCmd(),
		a.setGeometryCmd(),
		a.moveSlideCmd(),
		a.lockCmd(),
		a.configCmd(),
	)
	return root
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		path = os.Getenv(config.EnvPath)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
	}

	logger, err := logging.New(cfg.Logging(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	logger.Debug("loaded configuration", "path", path)
	return nil
}

// editor returns a configured editor for path.
func (a *app) editor(path string) *deckforge.Editor {
	return deckforge.Edit(path).Config(a.cfg).Logger(a.logger)
}

// emit writes v as indented JSON with --json, otherwise calls human.
func (a *app) emit(cmd *cobra.Command, v any, human func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if a.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	human(w)
	return nil
}

func label(w io.Writer, name string) {
	colorLabel.Fprintf(w, "%-12s", name+":")
}
