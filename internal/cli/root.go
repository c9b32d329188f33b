package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	frameannotator "github.com/menta2k/frame-annotator"
	"github.com/menta2k/frame-annotator/internal/config"
	"github.com/menta2k/frame-annotator/internal/logging"
	"github.com/menta2k/frame-annotator/pkg/types"
)

// Options holds the global flags shared by every command
type Options struct {
	ConfigPath string
	Debug      bool
}

// RootCmd builds the command tree
func RootCmd() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:     "annotate",
		Short:   "Bounding-box annotation for video frames and photo sets",
		Version: frameannotator.GetVersion(),
		Long: `annotate extracts frames from a video or imports photos into an output
directory, then draws and edits boxes on them. Each frame gets a
labels/<frame>.txt file with one normalized box per line, and
session_info.json keeps the label vocabulary and the current position.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", config.GetConfigPath(), "config file (.json or .yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "verbose console logging")

	rootCmd.AddCommand(ImportCmd(opts))
	rootCmd.AddCommand(ExtractCmd(opts))
	rootCmd.AddCommand(StatusCmd(opts))
	rootCmd.AddCommand(LabelsCmd(opts))
	rootCmd.AddCommand(ValidateCmd(opts))
	rootCmd.AddCommand(RenderCmd(opts))
	rootCmd.AddCommand(ShellCmd(opts))

	return rootCmd
}

// newAnnotator loads the config and logger for a command run
func newAnnotator(opts *Options) (*frameannotator.Annotator, *zap.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(opts.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	fa, err := frameannotator.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return fa, logger, nil
}

func okf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgGreen).Sprint("OK"), fmt.Sprintf(format, args...))
}

func warnf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgYellow).Sprint("WARN"), fmt.Sprintf(format, args...))
}

func failf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgRed).Sprint("ERROR"), fmt.Sprintf(format, args...))
}

func printWarnings(w io.Writer, warnings []types.Warning) {
	for _, wr := range warnings {
		warnf(w, "%s", wr.String())
	}
}
