package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Reader reads command lines. A line ending in a backslash continues on the
// next line.
type Reader struct {
	s   *bufio.Scanner
	out io.Writer
	// Continuation is printed before each continued line; empty disables it.
	Continuation string
}

func NewReader(in io.Reader, out io.Writer) *Reader {
	return &Reader{s: bufio.NewScanner(in), out: out, Continuation: "> "}
}

// Read returns the next line, or io.EOF once input is exhausted.
func (r *Reader) Read() (string, error) {
	var line strings.Builder
	started := false

	for r.s.Scan() {
		started = true
		text := r.s.Text()

		if strings.HasSuffix(text, `\`) {
			line.WriteString(strings.TrimSuffix(text, `\`))
			if r.Continuation != "" {
				fmt.Fprint(r.out, r.Continuation)
			}
			continue
		}

		line.WriteString(text)
		return line.String(), nil
	}

	if err := r.s.Err(); err != nil {
		return "", err
	}
	if started {
		return line.String(), nil
	}
	return "", io.EOF
}
