// Package parsers reads the line-oriented rule sources used by rr-scope:
// regular expression lists, SURT prefix lists and address range lists.
package parsers

import (
	"bufio"
	"io"
	"strings"

	logpkg "github.com/haukened/rr-scope/internal/scope/common/log"
)

// maxLineBytes bounds a single source line. Regexes can legitimately be longer
// than bufio.Scanner's 64K default.
const maxLineBytes = 1 << 20

// EntryFunc receives one significant line. A returned error rejects that entry
// only: it is logged and scanning continues with the next line.
type EntryFunc func(lineNum int, line string) error

// ScanLines walks a line-oriented source and hands every significant line to emit.
//
// Behavior:
// - Lines starting with '#' are comments and are skipped
// - Blank (whitespace-only) lines are skipped
// - A UTF-8 BOM on the first line is removed
// - Lines are passed verbatim otherwise; no trimming, no inline comments
// - Entry errors are logged at warn and do not abort the scan
// - A read error aborts the scan and is returned
//
// The number of accepted entries is returned.
func ScanLines(r io.Reader, source string, logger logpkg.Logger, emit EntryFunc) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	logger.Debug(map[string]any{"source": source}, "scan_lines_start")
	lineNum, accepted := 0, 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}

		if isEmpty, isComment := classifyLine(line); isEmpty || isComment {
			if isEmpty {
				logger.Debug(map[string]any{"source": source, "line": lineNum}, "skip_empty")
			} else {
				logger.Debug(map[string]any{"source": source, "line": lineNum}, "skip_comment")
			}
			continue
		}

		if err := emit(lineNum, line); err != nil {
			logger.Warn(map[string]any{
				"source": source,
				"line":   lineNum,
				"entry":  line,
				"error":  err,
			}, "skip_invalid_entry")
			continue
		}
		accepted++
	}

	if err := scanner.Err(); err != nil {
		logger.Error(map[string]any{"source": source, "error": err}, "scan_lines_error")
		return accepted, err
	}
	logger.Debug(map[string]any{"source": source, "lines": lineNum, "accepted": accepted}, "scan_lines_done")
	return accepted, nil
}

// classifyLine reports whether line is blank or a whole-line comment.
func classifyLine(line string) (isEmpty, isComment bool) {
	if strings.TrimSpace(line) == "" {
		return true, false
	}
	return false, strings.HasPrefix(line, "#")
}

// ReadEntries collects every significant line from r, in order, without validation.
func ReadEntries(r io.Reader, source string, logger logpkg.Logger) ([]string, error) {
	out := make([]string, 0, 64)
	_, err := ScanLines(r, source, logger, func(_ int, line string) error {
		out = append(out, line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
