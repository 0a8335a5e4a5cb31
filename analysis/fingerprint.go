package analysis

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/gophersatwork/granular"
	"github.com/gophersatwork/issuecache"
	"github.com/gophersatwork/issuecache/persistence"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	fingerprintField = "issues"
	rulesetField     = "ruleset"
)

// Fingerprints remembers analysis results by file content. A file whose
// content is unchanged since its last analysis under the same ruleset gets
// its previous issues back without being parsed again.
type Fingerprints struct {
	gCache *granular.Cache
	fs     afero.Fs
}

// NewFingerprints opens the fingerprint cache in dir.
func NewFingerprints(dir string, fs afero.Fs) (*Fingerprints, error) {
	opts := []granular.Option{}
	if fs != nil {
		opts = append(opts, granular.WithFs(fs))
	}

	cache, err := granular.New(dir, opts...)
	if err != nil {
		return nil, issuecache.NewFSError("failed to create fingerprint cache", err)
	}

	return &Fingerprints{gCache: cache, fs: fs}, nil
}

// Ruleset digests everything besides file content that decides which issues
// a file gets: the rules and the module path they are resolved against.
func Ruleset(rules []issuecache.Rule, moduleName string) string {
	data, err := yaml.Marshal(rules)
	if err != nil {
		data = fmt.Appendf(nil, "%#v", rules)
	}

	h := xxhash.New()
	_, _ = h.Write(data)
	_, _ = h.WriteString("\x00" + moduleName)
	return strconv.FormatUint(h.Sum64(), 16)
}

func (f *Fingerprints) key(path string) granular.Key {
	return granular.Key{Inputs: []granular.Input{granular.FileInput{
		Path: issuecache.NormalizePath(path),
		Fs:   f.fs,
	}}}
}

// Lookup returns the issues recorded for the current content of path under
// ruleset. An entry recorded under another ruleset is a miss.
func (f *Fingerprints) Lookup(path, ruleset string) (issuecache.Issues, bool) {
	result, found, err := f.gCache.Get(f.key(path))
	if err != nil || !found {
		return issuecache.Issues{}, false
	}
	if result.Metadata[rulesetField] != ruleset {
		return issuecache.Issues{}, false
	}

	encoded, ok := result.Metadata[fingerprintField]
	if !ok {
		return issuecache.Issues{}, true
	}

	issues, err := persistence.UnmarshalIssues([]byte(encoded))
	if err != nil {
		return issuecache.Issues{}, false
	}
	return issues, true
}

// Record stores issues for the current content of path under ruleset.
func (f *Fingerprints) Record(path, ruleset string, issues issuecache.Issues) error {
	res := granular.Result{
		Metadata: map[string]string{
			rulesetField:     ruleset,
			fingerprintField: string(persistence.MarshalIssues(issues)),
		},
	}
	if err := f.gCache.Store(f.key(path), res); err != nil {
		return fmt.Errorf("failed to store fingerprint: %w", err)
	}
	return nil
}
