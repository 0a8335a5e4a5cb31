package main

import (
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/gophersatwork/issuecache"
	"github.com/gophersatwork/issuecache/analysis"
	"github.com/gophersatwork/issuecache/persistence"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// env bundles everything a command needs, built from the global flags
type env struct {
	fs      afero.Fs
	root    string
	cfg     issuecache.Config
	logger  *slog.Logger
	backend persistence.Backend
	ws      *issuecache.Workspace
	cache   *issuecache.LiveIssueCache

	closeLog func()
}

func newEnv() (*env, error) {
	logger, closeLog := newLogger()
	e := &env{fs: afero.NewOsFs(), logger: logger, closeLog: closeLog}

	root, err := filepath.Abs(path)
	if err != nil {
		e.close()
		return nil, issuecache.WithFile(issuecache.NewFSError("failed to resolve project root", err), path)
	}
	e.root = issuecache.NormalizePath(root)

	cfg, err := issuecache.LoadConfig(e.fs, e.root, cfgFile)
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			e.close()
			return nil, err
		}
		logger.Info("No config file found, using defaults", "root", e.root)
		cfg = issuecache.DefaultConfig()
	}
	e.cfg = cfg

	backend, err := persistence.Open(cfg, e.fs, e.root, logger)
	if err != nil {
		e.close()
		return nil, err
	}
	e.backend = backend

	e.ws = issuecache.NewWorkspace(e.fs, e.root)
	cache, err := issuecache.New(e.ws, backend,
		issuecache.WithCapacity(cfg.Capacity),
		issuecache.WithLogger(logger),
	)
	if err != nil {
		e.close()
		return nil, err
	}
	e.cache = cache

	return e, nil
}

func (e *env) pipeline() (*analysis.Pipeline, error) {
	var fingerprints *analysis.Fingerprints
	if e.cfg.Incremental {
		dir := e.cfg.FingerprintDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(e.root, dir)
		}
		fp, err := analysis.NewFingerprints(dir, e.fs)
		if err != nil {
			return nil, err
		}
		fingerprints = fp
		e.logger.Info("Using incremental analysis", "fingerprint_dir", dir)
	}

	analyzer := analysis.NewAnalyzer(e.cfg, e.ws, e.logger, fingerprints)
	return analysis.NewPipeline(e.ws, e.cache, analyzer, e.cfg.Workers, e.logger), nil
}

// keyFor resolves a command-line file argument to its store key
func (e *env) keyFor(file string) (string, bool) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", false
	}
	return issuecache.RelPath(e.root, abs)
}

func (e *env) close() {
	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			e.logger.Warn("Failed to close store", "error", err)
		}
	}
	e.closeLog()
}
