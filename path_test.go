package issuecache

import (
	"runtime"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Unix path",
			input:    "/usr/local/bin",
			expected: "/usr/local/bin",
		},
		{
			name:     "Windows path",
			input:    "C:\\Program Files\\App",
			expected: "C:/Program Files/App",
		},
		{
			name:     "Mixed separators",
			input:    "path/to\\file.txt",
			expected: "path/to/file.txt",
		},
		{
			name:     "Redundant elements",
			input:    "/project/./pkg//a.go",
			expected: "/project/pkg/a.go",
		},
		{
			name:     "Empty path",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizePath(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestJoinPaths(t *testing.T) {
	tests := []struct {
		name     string
		elements []string
		expected string
	}{
		{
			name:     "Join Unix paths",
			elements: []string{"usr", "local", "bin"},
			expected: "usr/local/bin",
		},
		{
			name:     "Join with empty element",
			elements: []string{"path", "", "file.txt"},
			expected: "path/file.txt",
		},
		{
			name:     "Join with absolute path",
			elements: []string{"/root", "dir", "file.txt"},
			expected: "/root/dir/file.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := JoinPaths(tt.elements...)
			if result != tt.expected {
				t.Errorf("JoinPaths(%v) = %q, want %q", tt.elements, result, tt.expected)
			}
		})
	}
}

func TestIsSubPath(t *testing.T) {
	tests := []struct {
		name       string
		parentPath string
		childPath  string
		expected   bool
	}{
		{
			name:       "Direct child",
			parentPath: "parent",
			childPath:  "parent/child",
			expected:   true,
		},
		{
			name:       "Nested child",
			parentPath: "parent",
			childPath:  "parent/child/grandchild",
			expected:   true,
		},
		{
			name:       "Not a child",
			parentPath: "parent",
			childPath:  "other/path",
			expected:   false,
		},
		{
			name:       "Shared name prefix",
			parentPath: "/project",
			childPath:  "/projects/a.go",
			expected:   false,
		},
		{
			name:       "Empty parent",
			parentPath: "",
			childPath:  "any/path",
			expected:   true,
		},
		{
			name:       "Same path",
			parentPath: "path/to/dir",
			childPath:  "path/to/dir",
			expected:   true,
		},
		{
			name:       "Path with relative components",
			parentPath: "path/to/dir",
			childPath:  "path/to/dir/../dir/file.txt",
			expected:   true,
		},
		{
			name:       "Path with relative components going up",
			parentPath: "path/to/dir",
			childPath:  "path/to/dir/../../other",
			expected:   false,
		},
		{
			name:       "Current directory as parent",
			parentPath: ".",
			childPath:  "any/path",
			expected:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsSubPath(tt.parentPath, tt.childPath)
			if result != tt.expected {
				t.Errorf("IsSubPath(%q, %q) = %v, want %v", tt.parentPath, tt.childPath, result, tt.expected)
			}
		})
	}
}

func TestRelPath(t *testing.T) {
	tests := []struct {
		name       string
		parentPath string
		childPath  string
		expected   string
		ok         bool
	}{
		{
			name:       "File in root",
			parentPath: "/project",
			childPath:  "/project/main.go",
			expected:   "main.go",
			ok:         true,
		},
		{
			name:       "Nested file",
			parentPath: "/project/",
			childPath:  "/project/internal/db/store.go",
			expected:   "internal/db/store.go",
			ok:         true,
		},
		{
			name:       "Windows separators",
			parentPath: "C:\\project",
			childPath:  "C:\\project\\pkg\\a.go",
			expected:   "pkg/a.go",
			ok:         true,
		},
		{
			name:       "Root itself",
			parentPath: "/project",
			childPath:  "/project",
			ok:         false,
		},
		{
			name:       "Outside root",
			parentPath: "/project",
			childPath:  "/tmp/a.go",
			ok:         false,
		},
		{
			name:       "Escapes root",
			parentPath: "/project",
			childPath:  "/project/../secret.go",
			ok:         false,
		},
		{
			name:       "Relative child of current directory",
			parentPath: ".",
			childPath:  "pkg/a.go",
			expected:   "pkg/a.go",
			ok:         true,
		},
		{
			name:       "Parent reference from current directory",
			parentPath: ".",
			childPath:  "../a.go",
			ok:         false,
		},
		{
			name:       "Empty child",
			parentPath: "/project",
			childPath:  "",
			ok:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := RelPath(tt.parentPath, tt.childPath)
			if ok != tt.ok || result != tt.expected {
				t.Errorf("RelPath(%q, %q) = (%q, %v), want (%q, %v)", tt.parentPath, tt.childPath, result, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestDirPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Unix path",
			input:    "/usr/local/bin/app",
			expected: "/usr/local/bin",
		},
		{
			name:     "Relative path",
			input:    "dir/file.txt",
			expected: "dir",
		},
		{
			name:     "File in root",
			input:    "/file.txt",
			expected: "/",
		},
		{
			name:     "Bare file name",
			input:    "main.go",
			expected: ".",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DirPath(tt.input)
			if result != tt.expected {
				t.Errorf("DirPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsAbsPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{
			name:     "Absolute path",
			path:     "/usr/local/bin",
			expected: true,
		},
		{
			name:     "Relative path",
			path:     "dir/file.txt",
			expected: false,
		},
		{
			name:     "Current directory",
			path:     ".",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsAbsPath(tt.path)
			if result != tt.expected {
				t.Errorf("IsAbsPath(%q) = %v, want %v", tt.path, result, tt.expected)
			}
		})
	}
}

// TestPlatformSpecificBehavior checks the helpers against the separators of
// the current platform.
func TestPlatformSpecificBehavior(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Run("Windows DirPath", func(t *testing.T) {
			path := "C:\\Users\\user\\Documents\\file.txt"
			dir := DirPath(path)
			expected := "C:/Users/user/Documents"
			if dir != expected {
				t.Errorf("DirPath(%q) = %q, want %q", path, dir, expected)
			}
		})

		t.Run("Windows RelPath", func(t *testing.T) {
			rel, ok := RelPath("C:\\Users\\user", "C:\\Users\\user\\Documents\\a.go")
			if !ok || rel != "Documents/a.go" {
				t.Errorf("RelPath = (%q, %v), want (%q, true)", rel, ok, "Documents/a.go")
			}
		})
		return
	}

	t.Run("Unix DirPath", func(t *testing.T) {
		path := "/home/user/documents/file.txt"
		dir := DirPath(path)
		expected := "/home/user/documents"
		if dir != expected {
			t.Errorf("DirPath(%q) = %q, want %q", path, dir, expected)
		}
	})

	t.Run("Unix IsSubPath", func(t *testing.T) {
		parent := "/home/user"
		child := "/home/user/documents"
		if !IsSubPath(parent, child) {
			t.Errorf("IsSubPath(%q, %q) = false, want true", parent, child)
		}
	})
}
