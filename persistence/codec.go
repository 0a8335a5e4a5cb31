package persistence

import (
	"errors"
	"fmt"
	"math"

	"github.com/gophersatwork/issuecache"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// recordVersion is written at the start of every stored record.
const recordVersion uint64 = 1

var (
	// ErrCorruptRecord is returned when stored bytes cannot be decoded
	ErrCorruptRecord = errors.New("corrupt issue record")
	// ErrUnsupportedVersion is returned for records written by a newer format
	ErrUnsupportedVersion = errors.New("unsupported issue record version")
)

// MarshalIssues serializes issues using MUS format with varint encoding.
func MarshalIssues(issues issuecache.Issues) []byte {
	buf := make([]byte, issuesSize(issues))
	n := marshalIssuesTo(issues, buf)
	return buf[:n]
}

// UnmarshalIssues deserializes issues written by MarshalIssues.
func UnmarshalIssues(data []byte) (issuecache.Issues, error) {
	issues, _, err := unmarshalIssuesFrom(data)
	if err != nil {
		return issuecache.Issues{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return issues, nil
}

// marshalRecord encodes a self-describing record: version, key, issues.
func marshalRecord(key string, issues issuecache.Issues) []byte {
	size := varint.Uint64.Size(recordVersion)
	size += ord.SizeString(key, varint.PositiveInt)
	size += issuesSize(issues)

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(recordVersion, buf)
	n += ord.MarshalString(key, varint.PositiveInt, buf[n:])
	n += marshalIssuesTo(issues, buf[n:])
	return buf[:n]
}

// unmarshalRecord decodes a record written by marshalRecord.
func unmarshalRecord(data []byte) (string, issuecache.Issues, error) {
	version, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return "", issuecache.Issues{}, fmt.Errorf("%w: failed to read version: %v", ErrCorruptRecord, err)
	}
	if version != recordVersion {
		return "", issuecache.Issues{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	key, m, err := unmarshalString(data[n:])
	if err != nil {
		return "", issuecache.Issues{}, fmt.Errorf("%w: failed to read key: %v", ErrCorruptRecord, err)
	}
	n += m

	issues, _, err := unmarshalIssuesFrom(data[n:])
	if err != nil {
		return key, issuecache.Issues{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return key, issues, nil
}

// issuesSize calculates the exact size needed for MUS encoding
func issuesSize(issues issuecache.Issues) int {
	size := varint.Uint64.Size(uint64(issues.Len()))
	for _, issue := range issues.All() {
		size += issueSize(issue)
	}
	return size
}

func issueSize(issue issuecache.Issue) int {
	size := ord.SizeString(issue.Rule, varint.PositiveInt)
	size += ord.SizeString(issue.Message, varint.PositiveInt)
	size += ord.SizeString(issue.Details, varint.PositiveInt)
	size += ord.SizeString(string(issue.Severity), varint.PositiveInt)
	size += varint.Uint64.Size(uint64Of(issue.Position.Line))
	size += varint.Uint64.Size(uint64Of(issue.Position.Column))
	size += varint.Uint64.Size(uint64Of(issue.Position.EndLine))
	size += varint.Uint64.Size(uint64Of(issue.Position.EndColumn))
	return size
}

func marshalIssuesTo(issues issuecache.Issues, buf []byte) int {
	n := varint.Uint64.Marshal(uint64(issues.Len()), buf)
	for _, issue := range issues.All() {
		n += marshalIssueTo(issue, buf[n:])
	}
	return n
}

func marshalIssueTo(issue issuecache.Issue, buf []byte) int {
	n := ord.MarshalString(issue.Rule, varint.PositiveInt, buf)
	n += ord.MarshalString(issue.Message, varint.PositiveInt, buf[n:])
	n += ord.MarshalString(issue.Details, varint.PositiveInt, buf[n:])
	n += ord.MarshalString(string(issue.Severity), varint.PositiveInt, buf[n:])
	n += varint.Uint64.Marshal(uint64Of(issue.Position.Line), buf[n:])
	n += varint.Uint64.Marshal(uint64Of(issue.Position.Column), buf[n:])
	n += varint.Uint64.Marshal(uint64Of(issue.Position.EndLine), buf[n:])
	n += varint.Uint64.Marshal(uint64Of(issue.Position.EndColumn), buf[n:])
	return n
}

func unmarshalIssuesFrom(buf []byte) (issuecache.Issues, int, error) {
	length, n, err := varint.Uint64.Unmarshal(buf)
	if err != nil {
		return issuecache.Issues{}, n, fmt.Errorf("failed to unmarshal issues length: %w", err)
	}
	// every issue takes at least one byte per field
	if length > uint64(len(buf)) {
		return issuecache.Issues{}, n, fmt.Errorf("issue count %d exceeds buffer size %d", length, len(buf))
	}

	items := make([]issuecache.Issue, length)
	for i := range items {
		issue, m, err := unmarshalIssueFrom(buf[n:])
		if err != nil {
			return issuecache.Issues{}, n, fmt.Errorf("failed to unmarshal issue at index %d: %w", i, err)
		}
		items[i] = issue
		n += m
	}

	return issuecache.NewIssues(items), n, nil
}

func unmarshalIssueFrom(buf []byte) (issuecache.Issue, int, error) {
	var issue issuecache.Issue
	var n int

	strs := []*string{&issue.Rule, &issue.Message, &issue.Details}
	for _, dst := range strs {
		s, m, err := unmarshalString(buf[n:])
		if err != nil {
			return issue, n, err
		}
		*dst = s
		n += m
	}

	severity, m, err := unmarshalString(buf[n:])
	if err != nil {
		return issue, n, err
	}
	issue.Severity = issuecache.Severity(severity)
	n += m

	ints := []*int{&issue.Position.Line, &issue.Position.Column, &issue.Position.EndLine, &issue.Position.EndColumn}
	for _, dst := range ints {
		v, m, err := varint.Uint64.Unmarshal(buf[n:])
		if err != nil {
			return issue, n, fmt.Errorf("failed to unmarshal position: %w", err)
		}
		if v > math.MaxInt {
			return issue, n, fmt.Errorf("position %d out of range", v)
		}
		*dst = int(v)
		n += m
	}

	return issue, n, nil
}

// unmarshalString reads a string with a varint length prefix
func unmarshalString(data []byte) (string, int, error) {
	length, bytesRead, err := varint.PositiveInt.Unmarshal(data)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read string length: %w", err)
	}

	if length < 0 || len(data[bytesRead:]) < length {
		return "", bytesRead, fmt.Errorf("buffer too small for string of length %d", length)
	}

	return string(data[bytesRead : bytesRead+length]), bytesRead + length, nil
}

func uint64Of(v int) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}
