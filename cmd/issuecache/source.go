package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/gophersatwork/issuecache"
	"github.com/spf13/afero"
)

// sourceLine is one line of a file shown next to an issue.
type sourceLine struct {
	Number  int
	Content string
	Marked  bool // the line the issue points at
}

// sourceCache reads files once and serves the lines around issue positions.
type sourceCache struct {
	fs    afero.Fs
	files map[string][]string
}

func newSourceCache(fs afero.Fs) *sourceCache {
	return &sourceCache{fs: fs, files: make(map[string][]string)}
}

// around returns up to n lines before and after pos. It returns nothing for
// positions without a line.
func (c *sourceCache) around(path string, pos issuecache.Position, n int) ([]sourceLine, error) {
	if !pos.IsValid() {
		return nil, nil
	}

	lines, err := c.lines(path)
	if err != nil {
		return nil, err
	}

	start := max(1, pos.Line-n)
	end := min(len(lines), pos.Line+n)

	out := make([]sourceLine, 0, max(0, end-start+1))
	for i := start; i <= end; i++ {
		out = append(out, sourceLine{Number: i, Content: lines[i-1], Marked: i == pos.Line})
	}
	return out, nil
}

func (c *sourceCache) lines(path string) ([]string, error) {
	if lines, ok := c.files[path]; ok {
		return lines, nil
	}

	f, err := c.fs.Open(path)
	if err != nil {
		return nil, issuecache.WithFile(issuecache.NewFSError("failed to open source file", err), path)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, issuecache.WithFile(issuecache.NewFSError("failed to read source file", err), path)
	}

	c.files[path] = lines
	return lines, nil
}

// printSource writes lines with right-aligned numbers and a marker on the
// issue line.
func printSource(w io.Writer, lines []sourceLine) {
	if len(lines) == 0 {
		return
	}
	width := len(strconv.Itoa(lines[len(lines)-1].Number))

	for _, line := range lines {
		text := fmt.Sprintf("  %*d | %s", width, line.Number, line.Content)
		if line.Marked {
			text = errorColor.Sprintf("> %*d | %s", width, line.Number, line.Content)
		}
		fmt.Fprintf(w, "      %s\n", text)
	}
}
