package issuecache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input    string
		expected Severity
	}{
		{"error", SeverityError},
		{"warning", SeverityWarning},
		{"warn", SeverityWarning},
		{"info", SeverityInfo},
		{"information", SeverityInfo},
		{"hint", SeverityHint},
		{"suggestion", SeverityHint},
		{"", SeverityError},
		{"bogus", SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSeverity(tt.input))
		})
	}
}

func TestIssue_String(t *testing.T) {
	issue := Issue{Rule: "imports", Message: "import \"unsafe\" is prohibited", Severity: SeverityWarning, Position: Position{Line: 3, Column: 2}}
	assert.Equal(t, "3:2 warning [imports] import \"unsafe\" is prohibited", issue.String())

	issue.Position = Position{}
	assert.Equal(t, "warning [imports] import \"unsafe\" is prohibited", issue.String())
}

func TestIssues(t *testing.T) {
	t.Run("zero value is empty", func(t *testing.T) {
		var issues Issues
		assert.True(t, issues.IsEmpty())
		assert.Equal(t, 0, issues.Len())
		assert.Empty(t, issues.Slice())
	})

	t.Run("empty input equals zero value", func(t *testing.T) {
		assert.Equal(t, Issues{}, NewIssues(nil))
		assert.Equal(t, Issues{}, NewIssues([]Issue{}))
	})

	t.Run("snapshot is isolated from its source", func(t *testing.T) {
		src := []Issue{{Message: "one"}, {Message: "two"}}
		issues := NewIssues(src)
		src[0].Message = "changed"

		assert.Equal(t, "one", issues.At(0).Message)

		out := issues.Slice()
		out[1].Message = "changed"
		assert.Equal(t, "two", issues.At(1).Message)
	})

	t.Run("iteration preserves order and stops early", func(t *testing.T) {
		issues := NewIssues([]Issue{{Message: "a"}, {Message: "b"}, {Message: "c"}})

		var seen []string
		for i, issue := range issues.All() {
			seen = append(seen, issue.Message)
			if i == 1 {
				break
			}
		}
		assert.Equal(t, []string{"a", "b"}, seen)
	})

	t.Run("count by severity", func(t *testing.T) {
		issues := NewIssues([]Issue{
			{Severity: SeverityError},
			{Severity: SeverityWarning},
			{Severity: SeverityError},
		})
		counts := issues.CountBySeverity()
		require.Len(t, counts, 2)
		assert.Equal(t, 2, counts[SeverityError])
		assert.Equal(t, 1, counts[SeverityWarning])
	})
}
