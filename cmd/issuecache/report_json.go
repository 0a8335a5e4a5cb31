package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/gophersatwork/issuecache"
	"github.com/gophersatwork/issuecache/analysis"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type jsonReport struct {
	Summary   jsonSummary     `json:"summary"`
	Issues    []jsonIssue     `json:"issues"`
	Rules     []jsonRuleCount `json:"rules"`
	Skipped   []string        `json:"skipped,omitempty"`
	Timestamp string          `json:"timestamp"`
}

type jsonSummary struct {
	Trigger         string                      `json:"trigger"`
	TotalIssues     int                         `json:"total_issues"`
	FilesAnalyzed   int                         `json:"files_analyzed"`
	FilesWithIssues int                         `json:"files_with_issues"`
	BySeverity      map[issuecache.Severity]int `json:"by_severity"`
	Status          string                      `json:"status"`
}

type jsonIssue struct {
	File     string              `json:"file"`
	Rule     string              `json:"rule"`
	Severity issuecache.Severity `json:"severity"`
	Message  string              `json:"message"`
	Details  string              `json:"details,omitempty"`
	Position issuecache.Position `json:"position"`
}

type jsonRuleCount struct {
	Name   string `json:"name"`
	Issues int    `json:"issues"`
}

// buildJSONReport converts a pipeline report, using root-relative file names.
func buildJSONReport(root string, report *analysis.Report, now time.Time) jsonReport {
	out := jsonReport{
		Issues:    make([]jsonIssue, 0, report.IssueCount()),
		Rules:     make([]jsonRuleCount, 0),
		Timestamp: now.UTC().Format(time.RFC3339),
		Summary: jsonSummary{
			Trigger:       report.Trigger.String(),
			FilesAnalyzed: len(report.Files),
			BySeverity:    make(map[issuecache.Severity]int),
		},
	}

	ruleCount := make(map[string]int)
	for _, f := range report.Files {
		if f.Issues.IsEmpty() {
			continue
		}
		out.Summary.FilesWithIssues++
		for severity, n := range f.Issues.CountBySeverity() {
			out.Summary.BySeverity[severity] += n
		}
		file := displayPath(root, f.Path)
		for _, issue := range f.Issues.All() {
			ruleCount[issue.Rule]++
			out.Issues = append(out.Issues, jsonIssue{
				File:     file,
				Rule:     issue.Rule,
				Severity: issue.Severity,
				Message:  issue.Message,
				Details:  issue.Details,
				Position: issue.Position,
			})
		}
	}
	for _, skipped := range report.Skipped {
		out.Skipped = append(out.Skipped, displayPath(root, skipped))
	}

	for rule, count := range ruleCount {
		out.Rules = append(out.Rules, jsonRuleCount{Name: rule, Issues: count})
	}
	sort.Slice(out.Rules, func(i, j int) bool { return out.Rules[i].Name < out.Rules[j].Name })

	out.Summary.TotalIssues = len(out.Issues)
	out.Summary.Status = "passed"
	if out.Summary.TotalIssues > 0 {
		out.Summary.Status = "failed"
	}
	return out
}

func writeJSONReport(w io.Writer, root string, report *analysis.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(buildJSONReport(root, report, time.Now())); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
