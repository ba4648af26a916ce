// Package corpus reads line-oriented text corpora: one generated sample or
// reference per line, optionally capped to the first n lines.
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// NoCap disables the line cap.
const NoCap = 0

// ReadLines returns up to nLine lines of the file at path with the line
// terminator ("\n" or "\r\n") removed. nLine <= 0 reads the whole file.
func ReadLines(path string, nLine int) ([]string, error) {
	var lines []string
	err := EachLine(path, nLine, func(_ int, line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// EachLine calls fn for each of the first nLine lines of the file with its
// zero-based index. Iteration stops at the first error returned by fn.
func EachLine(path string, nLine int, fn func(i int, line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening corpus %s: %w", path, err)
	}
	defer f.Close()
	return eachLine(f, nLine, fn)
}

// CountLines returns the number of lines in the file. A final line without
// a trailing newline counts as a line.
func CountLines(path string) (int, error) {
	n := 0
	err := EachLine(path, NoCap, func(int, string) error {
		n++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func eachLine(r io.Reader, nLine int, fn func(i int, line string) error) error {
	br := bufio.NewReader(r)
	for i := 0; nLine <= 0 || i < nLine; i++ {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			if cbErr := fn(i, line); cbErr != nil {
				return cbErr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading corpus line %d: %w", i+1, err)
		}
	}
	return nil
}
