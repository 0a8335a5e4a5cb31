package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/gophersatwork/issuecache"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	path    string
	verbose bool
)

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .issuecache.yml in the project)")
	rootCmd.PersistentFlags().StringVar(&path, "path", ".", "project root")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")

	rootCmd.AddCommand(analyzeCmd, watchCmd, showCmd, clearCmd, initCmd)

	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		handleError(err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "issuecache",
	Short: "Analyze Go files and keep their issues in a bounded live cache",
	Long: `issuecache analyzes the imports of Go files against architectural rules and
keeps the most recently touched results in memory, spilling the rest to a
durable store.`,
	SilenceUsage: true,
}

// handleError logs the failure with whatever context the error carries
func handleError(err error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	info, found := issuecache.GetErrorInfo(err)
	if !found {
		logger.Error("Command failed", "error", err)
		return
	}

	logger.Error("Command failed", "error_type", info.Type, "error", info.Error())
	if info.File != "" {
		logger.Error("File information", "file", info.File)
	}
	if info.Details != "" {
		logger.Error("Additional details", "details", info.Details)
	}
}

// setupLogFile creates the .issuecache directory in the user's home and
// returns a handle to the log file inside it
func setupLogFile() (*os.File, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dir := issuecache.JoinPaths(home, ".issuecache")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	logFile := issuecache.JoinPaths(dir, "issuecache.log")
	return os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// newLogger writes to the log file, falling back to stderr
func newLogger() (*slog.Logger, func()) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	file, err := setupLogFile()
	if err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		logger.Warn("Failed to set up log file, falling back to stderr", "error", err)
		return logger, func() {}
	}
	return slog.New(slog.NewTextHandler(file, opts)), func() { _ = file.Close() }
}
