// Package analysis produces per-file issues and feeds them into a
// LiveIssueCache.
package analysis

import (
	"fmt"
	"go/parser"
	"go/token"
	"log/slog"
	"strings"
	"sync"

	"github.com/gophersatwork/issuecache"
	"github.com/spf13/afero"
	"golang.org/x/mod/modfile"
)

// ImportSpec represents an import with its source location
type ImportSpec struct {
	Path     string
	Position issuecache.Position
}

// Analyzer checks the imports of Go files against the configured rules.
type Analyzer struct {
	cfg          issuecache.Config
	ws           *issuecache.Workspace
	logger       *slog.Logger
	fingerprints *Fingerprints

	moduleOnce sync.Once
	moduleName string
	ruleset    string
	matchers   []*ruleMatcher
}

// NewAnalyzer creates an analyzer for the files of ws. fingerprints may be
// nil to always parse files.
func NewAnalyzer(cfg issuecache.Config, ws *issuecache.Workspace, logger *slog.Logger, fingerprints *Fingerprints) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{
		cfg:          cfg,
		ws:           ws,
		logger:       logger,
		fingerprints: fingerprints,
	}
}

// Analyze returns the issues found in the Go file at path.
func (a *Analyzer) Analyze(path string) ([]issuecache.Issue, error) {
	matchers := a.ruleMatchers()

	if a.fingerprints != nil {
		if cached, ok := a.fingerprints.Lookup(path, a.ruleset); ok {
			a.logger.Debug("Reusing fingerprinted issues", "path", path, "count", cached.Len())
			return cached.Slice(), nil
		}
	}

	a.logger.Debug("Analyzing file", "path", path)

	imports, err := a.imports(path)
	if err != nil {
		return nil, err
	}

	rel, ok := issuecache.RelPath(a.ws.Root(), path)
	if !ok {
		rel = issuecache.NormalizePath(path)
	}
	dir := issuecache.DirPath(rel)

	issues := make([]issuecache.Issue, 0)
	for _, m := range matchers {
		if !m.appliesTo(dir) {
			continue
		}
		for _, imp := range imports {
			if issue, found := m.check(imp); found {
				issues = append(issues, issue)
			}
		}
	}

	if a.fingerprints != nil {
		if err := a.fingerprints.Record(path, a.ruleset, issuecache.NewIssues(issues)); err != nil {
			// fingerprints only save work; a failed write must not fail analysis
			a.logger.Warn("Failed to record fingerprint", "path", path, "error", err)
		}
	}

	return issues, nil
}

// imports extracts all imports from a file with their source positions
func (a *Analyzer) imports(path string) ([]ImportSpec, error) {
	content, err := afero.ReadFile(a.ws.Fs(), path)
	if err != nil {
		return nil, issuecache.WithDetails(issuecache.WithFile(issuecache.NewFSError("failed to read Go file", err), path),
			"Make sure the file exists and is readable")
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, parser.ImportsOnly)
	if err != nil {
		return nil, issuecache.WithDetails(issuecache.WithFile(issuecache.NewParseError("failed to parse Go file", err), path),
			"Make sure the file is a valid Go source file")
	}

	imports := make([]ImportSpec, 0, len(file.Imports))
	for _, s := range file.Imports {
		pos := fset.Position(s.Path.Pos())
		end := fset.Position(s.Path.End())
		imports = append(imports, ImportSpec{
			Path: strings.Trim(s.Path.Value, `"`),
			Position: issuecache.Position{
				Line:      pos.Line,
				Column:    pos.Column,
				EndLine:   end.Line,
				EndColumn: end.Column,
			},
		})
	}
	return imports, nil
}

func (a *Analyzer) ruleMatchers() []*ruleMatcher {
	a.moduleOnce.Do(func() {
		a.moduleName = a.readModuleName()
		a.ruleset = Ruleset(a.cfg.Rules, a.moduleName)
		for _, rule := range a.cfg.Rules {
			a.matchers = append(a.matchers, newRuleMatcher(rule, a.moduleName))
		}
	})
	return a.matchers
}

// readModuleName returns the module path declared in the project's go.mod,
// or "" when it cannot be read.
func (a *Analyzer) readModuleName() string {
	modfilePath := a.cfg.Modfile
	if modfilePath == "" {
		modfilePath = "go.mod"
	}
	if !issuecache.IsAbsPath(modfilePath) {
		modfilePath = issuecache.JoinPaths(a.ws.Root(), modfilePath)
	}

	data, err := afero.ReadFile(a.ws.Fs(), modfilePath)
	if err != nil {
		a.logger.Debug("No module file found", "path", modfilePath, "error", err)
		return ""
	}
	return modfile.ModulePath(data)
}

type prohibitedInfo struct {
	cause    string
	severity issuecache.Severity
}

// ruleMatcher encapsulates the logic for matching imports against a rule
type ruleMatcher struct {
	rule          issuecache.Rule
	rulePath      string
	allowedSet    map[string]bool
	prohibitedMap map[string]prohibitedInfo
}

func newRuleMatcher(rule issuecache.Rule, moduleName string) *ruleMatcher {
	m := &ruleMatcher{
		rule:          rule,
		rulePath:      issuecache.NormalizePath(rule.Path),
		allowedSet:    make(map[string]bool),
		prohibitedMap: make(map[string]prohibitedInfo),
	}

	// Paths without a dot are module-relative as well as literal.
	for _, allowed := range rule.Allowed {
		m.allowedSet[allowed] = true
		if moduleName != "" && !strings.Contains(allowed, ".") {
			m.allowedSet[moduleName+"/"+allowed] = true
		}
	}
	for _, prohibited := range rule.Prohibited {
		info := prohibitedInfo{cause: prohibited.Cause, severity: prohibited.GetSeverity()}
		m.prohibitedMap[prohibited.Name] = info
		if moduleName != "" && !strings.Contains(prohibited.Name, ".") {
			m.prohibitedMap[moduleName+"/"+prohibited.Name] = info
		}
	}
	return m
}

func (m *ruleMatcher) appliesTo(dir string) bool {
	return issuecache.IsSubPath(m.rulePath, dir)
}

func (m *ruleMatcher) check(imp ImportSpec) (issuecache.Issue, bool) {
	if info, ok := m.prohibitedMap[imp.Path]; ok {
		details := "This import is explicitly prohibited"
		if info.cause != "" {
			details += " with cause: " + info.cause
		}
		return issuecache.Issue{
			Rule:     m.rule.Path,
			Message:  fmt.Sprintf("import %q is prohibited", imp.Path),
			Details:  details,
			Severity: info.severity,
			Position: imp.Position,
		}, true
	}

	if len(m.allowedSet) > 0 && !m.allowedSet[imp.Path] {
		return issuecache.Issue{
			Rule:     m.rule.Path,
			Message:  fmt.Sprintf("import %q is not allowed", imp.Path),
			Details:  "This import is not in the allowed list for this package",
			Severity: issuecache.SeverityError,
			Position: imp.Position,
		}, true
	}

	return issuecache.Issue{}, false
}
