package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/gophersatwork/issuecache"
	"github.com/gophersatwork/issuecache/analysis"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgBlue, color.Bold)
	hintColor    = color.New(color.FgHiBlack, color.Bold)
	fileColor    = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	ruleColor    = color.New(color.FgYellow)
)

func severityColor(s issuecache.Severity) *color.Color {
	switch s {
	case issuecache.SeverityWarning:
		return warningColor
	case issuecache.SeverityInfo:
		return infoColor
	case issuecache.SeverityHint:
		return hintColor
	default:
		return errorColor
	}
}

func displayPath(root, path string) string {
	if rel, ok := issuecache.RelPath(root, path); ok {
		return rel
	}
	return path
}

// issueFormat controls what printIssues renders below each issue.
type issueFormat struct {
	details bool
	context int          // source lines around each issue, 0 for none
	source  *sourceCache // read when context > 0
	path    string       // file the issues were found in
}

func printIssues(w io.Writer, file string, issues issuecache.Issues, format issueFormat) {
	fmt.Fprintf(w, "%s %s\n", fileColor.Sprint(file), color.HiBlackString("(%d issues)", issues.Len()))
	for _, issue := range issues.All() {
		pos := ""
		if issue.Position.IsValid() {
			pos = fmt.Sprintf("%d:%d ", issue.Position.Line, issue.Position.Column)
		}
		fmt.Fprintf(w, "  %s%s %s %s\n",
			color.HiBlackString("%s", pos),
			severityColor(issue.Severity).Sprint(issue.Severity),
			issue.Message,
			ruleColor.Sprintf("[%s]", issue.Rule),
		)
		if format.details && issue.Details != "" {
			fmt.Fprintf(w, "      %s %s\n", color.HiBlackString("Details:"), issue.Details)
		}
		if format.context > 0 && format.source != nil {
			lines, err := format.source.around(format.path, issue.Position, format.context)
			if err != nil {
				fmt.Fprintf(w, "      %s\n", color.HiBlackString("(source unavailable: %v)", err))
				continue
			}
			printSource(w, lines)
		}
	}
}

func printMissing(w io.Writer, key string) {
	fmt.Fprintf(w, "%s %s\n", fileColor.Sprint(key), color.HiBlackString("(not stored)"))
}

func printReport(w io.Writer, root string, report *analysis.Report, elapsed time.Duration) {
	for _, f := range report.Files {
		if f.Issues.IsEmpty() {
			continue
		}
		printIssues(w, displayPath(root, f.Path), f.Issues, issueFormat{})
	}
	for _, skipped := range report.Skipped {
		fmt.Fprintf(w, "%s %s\n", warningColor.Sprint("skipped"), displayPath(root, skipped))
	}

	total := report.IssueCount()
	summary := fmt.Sprintf("Analyzed %d files (%s) in %s, %d issues", len(report.Files), report.Trigger, elapsed.Round(time.Millisecond), total)
	if total == 0 {
		fmt.Fprintln(w, successColor.Sprint(summary))
		return
	}
	fmt.Fprintln(w, errorColor.Sprint(summary))
}

func printWatching(w io.Writer, root string) {
	fmt.Fprintln(w, color.New(color.FgCyan).Sprintf("Watching %s (Ctrl+C to stop)", root))
}

func printChanges(w io.Writer, root string, changes []analysis.Change) {
	fmt.Fprintln(w, color.HiBlackString("[%s]", time.Now().Format("15:04:05")))
	for _, change := range changes {
		name := displayPath(root, change.Path)
		switch {
		case change.Err != nil:
			fmt.Fprintf(w, "%s %s: %v\n", errorColor.Sprint("failed"), name, change.Err)
		case change.Kind == analysis.ChangeRemoved:
			fmt.Fprintf(w, "%s %s\n", hintColor.Sprint("removed"), name)
		case change.Issues.IsEmpty():
			fmt.Fprintf(w, "%s %s\n", successColor.Sprint("clean"), name)
		default:
			printIssues(w, name, change.Issues, issueFormat{})
		}
	}
}

func printStats(w io.Writer, stats issuecache.CacheStats, live, capacity int) {
	fmt.Fprintf(w, "%s %d/%d live, %d hits, %d misses, %d evicted, %d persisted\n",
		color.HiBlackString("cache:"), live, capacity, stats.Hits, stats.Misses, stats.Evictions, stats.Persisted)
}

func printSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, successColor.Sprint(msg))
}
