package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gophersatwork/issuecache"
	"github.com/gophersatwork/issuecache/analysis"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	noFlush     bool
	format      string
	debounce    time.Duration
	forceInit   bool
	showDetails bool
	showContext int
)

func init() {
	analyzeCmd.Flags().BoolVar(&noFlush, "no-flush", false, "keep results in memory only instead of flushing them to the store")
	analyzeCmd.Flags().StringVar(&format, "format", formatText, "output format (text, json)")
	watchCmd.Flags().DurationVar(&debounce, "debounce", 100*time.Millisecond, "delay before re-analyzing changed files")
	showCmd.Flags().BoolVar(&showDetails, "details", false, "print issue details")
	showCmd.Flags().IntVar(&showContext, "context", 0, "print this many source lines around each issue")
	initCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing config file")
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the project once and store the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		if format != formatText && format != formatJSON {
			return issuecache.WithDetails(issuecache.NewConfigError(fmt.Sprintf("unsupported output format: %s", format), nil),
				"Use text or json")
		}

		e, err := newEnv()
		if err != nil {
			return err
		}
		defer e.close()

		p, err := e.pipeline()
		if err != nil {
			return err
		}

		start := time.Now()
		report, err := p.Run(cmd.Context(), e.root)
		if err != nil {
			return err
		}

		if !noFlush {
			if err := e.cache.FlushAll(); err != nil {
				return err
			}
		}

		if format == formatJSON {
			return writeJSONReport(cmd.OutOrStdout(), e.root, report)
		}
		printReport(cmd.OutOrStdout(), e.root, report, time.Since(start))
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-analyze files as they change until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		defer e.close()

		p, err := e.pipeline()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		w := analysis.NewWatcher(p, analysis.WatchConfig{
			DebounceTime: debounce,
			Logger:       e.logger,
			OnChange: func(changes []analysis.Change) {
				printChanges(out, e.root, changes)
			},
		})

		printWatching(out, e.root)
		report, err := w.Start(ctx, e.root)
		if report != nil {
			printStats(out, e.cache.Stats(), e.cache.Len(), e.cache.Capacity())
		}
		return err
	},
}

var showCmd = &cobra.Command{
	Use:   "show [file...]",
	Short: "Print issues kept in the durable store",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		defer e.close()

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			keys, err := e.backend.Keys()
			if err != nil {
				return issuecache.NewStoreError("failed to list stored files", err)
			}
			args = keys
		} else {
			for i, file := range args {
				key, ok := e.keyFor(file)
				if !ok {
					return issuecache.WithFile(issuecache.NewConfigError("file is outside the project root", nil), file)
				}
				args[i] = key
			}
		}

		source := newSourceCache(e.fs)
		for _, key := range args {
			issues, found, err := e.backend.Load(key)
			if err != nil {
				return issuecache.NewStoreError(fmt.Sprintf("failed to load issues for %s", key), err)
			}
			if !found {
				printMissing(out, key)
				continue
			}
			printIssues(out, key, issues, issueFormat{
				details: showDetails,
				context: showContext,
				source:  source,
				path:    issuecache.JoinPaths(e.root, key),
			})
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear [file...]",
	Short: "Clear stored issues for the given files, or for the whole project",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		defer e.close()

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			if err := e.cache.Clear(); err != nil {
				return err
			}
			printSuccess(out, "Cleared all issues")
			return nil
		}

		for _, file := range args {
			abs, err := filepath.Abs(file)
			if err != nil {
				return issuecache.WithFile(issuecache.NewFSError("failed to resolve file", err), file)
			}
			if err := e.cache.ClearFile(e.ws.File(abs)); err != nil {
				return err
			}
			printSuccess(out, "Cleared issues for "+file)
		}
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .issuecache.yml to the project root",
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()
		target := filepath.Join(path, ".issuecache.yml")
		if cfgFile != "" {
			target = cfgFile
		}
		return writeDefaultConfig(fs, target, forceInit, func(msg string) {
			printSuccess(cmd.OutOrStdout(), msg)
		})
	},
}

// writeDefaultConfig marshals the default configuration to target
func writeDefaultConfig(fs afero.Fs, target string, force bool, done func(string)) error {
	exists, err := afero.Exists(fs, target)
	if err != nil {
		return issuecache.WithFile(issuecache.NewFSError("failed to check config file", err), target)
	}
	if exists && !force {
		return issuecache.WithDetails(issuecache.WithFile(issuecache.NewConfigError("config file already exists", nil), target),
			"Use --force to overwrite it")
	}

	cfg := issuecache.DefaultConfig()
	cfg.Rules = []issuecache.Rule{{
		Path:       "internal",
		Prohibited: []issuecache.ProhibitedPkg{{Name: "cmd", Cause: "internal packages must not depend on commands"}},
	}}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return issuecache.NewConfigError("failed to encode default config", err)
	}
	if err := afero.WriteFile(fs, target, data, 0o644); err != nil {
		return issuecache.WithFile(issuecache.NewFSError("failed to write config file", err), target)
	}

	done("Wrote " + target)
	return nil
}
