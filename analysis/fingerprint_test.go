package analysis

import (
	"testing"

	"github.com/gophersatwork/issuecache"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFingerprints(t *testing.T, ws *issuecache.Workspace) *Fingerprints {
	t.Helper()

	require.NoError(t, ws.Fs().MkdirAll("/cache/fingerprints", 0o755))
	fp, err := NewFingerprints("/cache/fingerprints", ws.Fs())
	require.NoError(t, err)
	return fp
}

func TestFingerprints_LookupRecord(t *testing.T) {
	ws := newTestWorkspace(t, testFiles)
	fp := newTestFingerprints(t, ws)
	path := "/project/internal/db/db.go"

	_, ok := fp.Lookup(path, "r1")
	assert.False(t, ok)

	recorded := issuecache.NewIssues([]issuecache.Issue{{Rule: "internal", Message: "recorded"}})
	require.NoError(t, fp.Record(path, "r1", recorded))

	issues, ok := fp.Lookup(path, "r1")
	require.True(t, ok)
	assert.Equal(t, recorded, issues)

	t.Run("other ruleset misses", func(t *testing.T) {
		_, ok := fp.Lookup(path, "r2")
		assert.False(t, ok)
	})

	t.Run("content change misses", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(ws.Fs(), path, []byte("package db\n"), 0o644))
		_, ok := fp.Lookup(path, "r1")
		assert.False(t, ok)
	})
}

func TestRuleset(t *testing.T) {
	rules := []issuecache.Rule{{Path: "internal", Prohibited: []issuecache.ProhibitedPkg{{Name: "fmt"}}}}
	base := Ruleset(rules, "example.com/project")

	tests := []struct {
		name   string
		rules  []issuecache.Rule
		module string
		same   bool
	}{
		{"identical input", []issuecache.Rule{{Path: "internal", Prohibited: []issuecache.ProhibitedPkg{{Name: "fmt"}}}}, "example.com/project", true},
		{"rule removed", nil, "example.com/project", false},
		{"severity changed", []issuecache.Rule{{Path: "internal", Prohibited: []issuecache.ProhibitedPkg{{Name: "fmt", Severity: "warning"}}}}, "example.com/project", false},
		{"module renamed", rules, "example.com/other", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ruleset(tt.rules, tt.module)
			if tt.same {
				assert.Equal(t, base, got)
			} else {
				assert.NotEqual(t, base, got)
			}
		})
	}
}

func TestAnalyzer_RuleChangeInvalidatesFingerprints(t *testing.T) {
	files := map[string]string{
		"/project/a.go": "package a\n\nimport \"fmt\"\n\nvar _ = fmt.Sprint\n",
	}
	ws := newTestWorkspace(t, files)
	fp := newTestFingerprints(t, ws)

	strict := issuecache.DefaultConfig()
	strict.Rules = []issuecache.Rule{{Path: ".", Prohibited: []issuecache.ProhibitedPkg{{Name: "fmt"}}}}
	issues, err := NewAnalyzer(strict, ws, nil, fp).Analyze("/project/a.go")
	require.NoError(t, err)
	require.Len(t, issues, 1)

	// same fingerprint dir, rules edited in place
	relaxed := issuecache.DefaultConfig()
	issues, err = NewAnalyzer(relaxed, ws, nil, fp).Analyze("/project/a.go")
	require.NoError(t, err)
	assert.Empty(t, issues)

	issues, err = NewAnalyzer(strict, ws, nil, fp).Analyze("/project/a.go")
	require.NoError(t, err)
	assert.Len(t, issues, 1)
}

func TestAnalyzer_ReusesFingerprints(t *testing.T) {
	ws := newTestWorkspace(t, testFiles)
	fp := newTestFingerprints(t, ws)
	analyzer := NewAnalyzer(testConfig(), ws, nil, fp)
	path := "/project/internal/db/db.go"

	first, err := analyzer.Analyze(path)
	require.NoError(t, err)
	require.Len(t, first, 2)

	cached, ok := fp.Lookup(path, analyzer.ruleset)
	require.True(t, ok)
	assert.Equal(t, issuecache.NewIssues(first), cached)

	second, err := analyzer.Analyze(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
