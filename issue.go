package issuecache

import (
	"fmt"
	"iter"
	"slices"
)

// Position represents a location in a source file
type Position struct {
	Line      int `json:"line"`                 // 1-indexed line number
	Column    int `json:"column"`               // 1-indexed column number
	EndLine   int `json:"end_line,omitempty"`   // For multi-line ranges
	EndColumn int `json:"end_column,omitempty"` // For multi-line ranges
}

// IsValid returns true if the position has valid line/column
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0
}

// Severity represents the importance level of an issue
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityHint    Severity = "hint"
)

// String implements the Stringer interface for Severity
func (s Severity) String() string {
	return string(s)
}

// ParseSeverity converts a string to a Severity level
func ParseSeverity(s string) Severity {
	switch s {
	case "warning", "warn":
		return SeverityWarning
	case "info", "information":
		return SeverityInfo
	case "hint", "suggestion":
		return SeverityHint
	default:
		return SeverityError
	}
}

// Issue is a single finding produced by an analyzer for one file.
type Issue struct {
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
	Details  string   `json:"details,omitempty"`
	Severity Severity `json:"severity,omitempty"`
	Position Position `json:"position"`
}

// String renders the issue on a single line.
func (i Issue) String() string {
	if i.Position.IsValid() {
		return fmt.Sprintf("%d:%d %s [%s] %s", i.Position.Line, i.Position.Column, i.Severity, i.Rule, i.Message)
	}
	return fmt.Sprintf("%s [%s] %s", i.Severity, i.Rule, i.Message)
}

// Issues is a read-only snapshot of the issues found in one file.
//
// The zero value is an empty collection. A snapshot never shares its backing
// array with the caller, so mutating the source slice after NewIssues, or the
// result of Slice, leaves the snapshot untouched.
type Issues struct {
	items []Issue
}

// NewIssues copies src into a new snapshot.
func NewIssues(src []Issue) Issues {
	if len(src) == 0 {
		return Issues{}
	}
	return Issues{items: slices.Clone(src)}
}

// Len returns the number of issues in the snapshot.
func (s Issues) Len() int {
	return len(s.items)
}

// IsEmpty returns true if there are no issues
func (s Issues) IsEmpty() bool {
	return len(s.items) == 0
}

// At returns the i-th issue. It panics if i is out of range.
func (s Issues) At(i int) Issue {
	return s.items[i]
}

// All iterates over the issues in insertion order.
func (s Issues) All() iter.Seq2[int, Issue] {
	return func(yield func(int, Issue) bool) {
		for i, issue := range s.items {
			if !yield(i, issue) {
				return
			}
		}
	}
}

// Slice returns a copy of the issues.
func (s Issues) Slice() []Issue {
	return slices.Clone(s.items)
}

// CountBySeverity returns how many issues carry each severity.
func (s Issues) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, issue := range s.items {
		counts[issue.Severity]++
	}
	return counts
}
