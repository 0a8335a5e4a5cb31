package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/gophersatwork/issuecache"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// FileResult is the outcome of analyzing a single file.
type FileResult struct {
	Path   string
	Issues issuecache.Issues
}

// Trigger records what caused an analysis.
type Trigger int

const (
	// TriggerAll is a full run over every file below a path
	TriggerAll Trigger = iota
	// TriggerChangedFiles is a watch batch covering only the files that changed
	TriggerChangedFiles
)

func (t Trigger) String() string {
	switch t {
	case TriggerAll:
		return "all files"
	case TriggerChangedFiles:
		return "changed files"
	default:
		return fmt.Sprintf("Trigger(%d)", int(t))
	}
}

// Report summarizes a pipeline run.
type Report struct {
	Trigger Trigger
	Files   []FileResult // sorted by path
	Skipped []string     // files that could not be read or parsed
}

// IssueCount returns the total number of issues across all files.
func (r *Report) IssueCount() int {
	total := 0
	for _, f := range r.Files {
		total += f.Issues.Len()
	}
	return total
}

// Pipeline analyzes workspace files and stores the results in a cache.
type Pipeline struct {
	ws       *issuecache.Workspace
	cache    *issuecache.LiveIssueCache
	analyzer *Analyzer
	workers  int
	logger   *slog.Logger
}

// NewPipeline wires an analyzer to a cache. workers < 1 means one worker per
// CPU.
func NewPipeline(ws *issuecache.Workspace, cache *issuecache.LiveIssueCache, analyzer *Analyzer, workers int, logger *slog.Logger) *Pipeline {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		ws:       ws,
		cache:    cache,
		analyzer: analyzer,
		workers:  workers,
		logger:   logger,
	}
}

// Cache returns the cache results are saved to.
func (p *Pipeline) Cache() *issuecache.LiveIssueCache {
	return p.cache
}

// Workspace returns the workspace files are resolved in.
func (p *Pipeline) Workspace() *issuecache.Workspace {
	return p.ws
}

// Run analyzes every Go file below path concurrently. Files that fail to
// parse are skipped; a cache failure aborts the run.
func (p *Pipeline) Run(ctx context.Context, path string) (*Report, error) {
	files, err := p.collectFiles(path)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Analyzing files", "path", path, "count", len(files), "workers", p.workers)

	var (
		mu     sync.Mutex
		report = &Report{Trigger: TriggerAll, Files: make([]FileResult, 0, len(files))}
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			issues, err := p.AnalyzeFile(file)
			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if issuecache.IsStoreError(err) {
					return err
				}
				p.logger.Error("Could not analyze file", "path", file, "error", err)
				report.Skipped = append(report.Skipped, file)
				return nil
			}
			report.Files = append(report.Files, FileResult{Path: file, Issues: issues})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(report.Files, func(i, j int) bool { return report.Files[i].Path < report.Files[j].Path })
	sort.Strings(report.Skipped)
	return report, nil
}

// AnalyzeFile analyzes a single file and saves its issues in the cache.
func (p *Pipeline) AnalyzeFile(path string) (issuecache.Issues, error) {
	issues, err := p.analyzer.Analyze(path)
	if err != nil {
		return issuecache.Issues{}, err
	}

	if err := p.cache.Save(p.ws.File(path), issues); err != nil {
		return issuecache.Issues{}, err
	}
	return issuecache.NewIssues(issues), nil
}

// Forget drops a file that was deleted or moved away.
func (p *Pipeline) Forget(path string) error {
	handle := p.ws.Invalidate(path)
	if handle == nil {
		return nil
	}
	return p.cache.ClearFile(handle)
}

// collectFiles walks path and returns every Go file, skipping hidden
// directories and vendor.
func (p *Pipeline) collectFiles(path string) ([]string, error) {
	var files []string
	err := afero.Walk(p.ws.Fs(), path, func(file string, info os.FileInfo, err error) error {
		if err != nil {
			return issuecache.WithDetails(issuecache.WithFile(issuecache.NewFSError("error accessing path", err), file),
				"Check if the path exists and you have permission to access it")
		}

		if info.IsDir() {
			if file != path && (strings.HasPrefix(info.Name(), ".") || info.Name() == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}

		if isGoFile(info) {
			files = append(files, issuecache.NormalizePath(file))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// isGoFile checks if the file is a Go source file
func isGoFile(info os.FileInfo) bool {
	return !info.IsDir() && strings.HasSuffix(info.Name(), ".go")
}
