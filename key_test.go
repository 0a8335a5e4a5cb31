package issuecache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveKey(t *testing.T) {
	tests := map[string]struct {
		root   string
		handle FileHandle
		key    string
		ok     bool
	}{
		"file below root": {
			root:   "/project",
			handle: &testHandle{path: "/project/pkg/a.go", valid: true},
			key:    "pkg/a.go",
			ok:     true,
		},
		"file directly in root": {
			root:   "/project",
			handle: &testHandle{path: "/project/main.go", valid: true},
			key:    "main.go",
			ok:     true,
		},
		"unclean path": {
			root:   "/project/",
			handle: &testHandle{path: "/project/./pkg/../a.go", valid: true},
			key:    "a.go",
			ok:     true,
		},
		"root itself": {
			root:   "/project",
			handle: &testHandle{path: "/project", valid: true},
		},
		"outside root": {
			root:   "/project",
			handle: &testHandle{path: "/elsewhere/a.go", valid: true},
		},
		"sibling with shared prefix": {
			root:   "/project",
			handle: &testHandle{path: "/project-old/a.go", valid: true},
		},
		"invalid handle": {
			root:   "/project",
			handle: &testHandle{path: "/project/a.go", valid: false},
		},
		"nil handle": {
			root: "/project",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			key, ok := ResolveKey(tt.root, tt.handle)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestKeyResolverFunc(t *testing.T) {
	var called FileHandle
	resolver := KeyResolverFunc(func(h FileHandle) (string, bool) {
		called = h
		return "fixed", true
	})

	h := newHandle("a.go")
	key, ok := resolver.ResolveKey(h)

	assert.True(t, ok)
	assert.Equal(t, "fixed", key)
	assert.Same(t, h, called)
}
