package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/saigopal/ocrbench/version"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "ocrbench",
	Short: "OCR accuracy benchmark across remote and local engines",
	Long: `ocrbench runs a corpus of documents with known ground truth through
two OCR backends and scores each backend's output.

Engines:
  - remote: an asynchronous document-parse service (create/upload/start/
    poll/download job protocol)
  - tesseract: the local Tesseract engine via gosseract

Scoring is recall-based word accuracy: the fraction of ground-truth words
recovered anywhere in the engine output after normalization.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.ocrbench/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn, error",
	)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the process logger from the --log-level flag.
func newLogger() *slog.Logger {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
