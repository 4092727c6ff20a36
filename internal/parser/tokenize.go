package parser

import (
	"slices"
	"strings"

	"tsh/internal/slice"
)

var delimiters = []byte{' ', '\t', '\n', '\r', '|', '&', '<', '>', '='}

// SplitBackground detects a trailing '&' that is not part of "&&" and strips
// it from the line.
func SplitBackground(line string) (string, bool) {
	b := []byte(line)
	end := slice.TrimRightSpaces(b)

	if end == 0 || b[end-1] != '&' || (end >= 2 && b[end-2] == '&') {
		return line, false
	}

	return string(slice.Remove(b, end-1, len(b))), true
}

// QuotesHandle scans one word starting at id. Single-quoted runs are taken
// verbatim with the quotes dropped.
func QuotesHandle(line []byte, id int) (string, bool, int, error) {
	var res strings.Builder
	var quoted bool
	start := -1

	for ; id < len(line); id++ {
		if start < 0 && slices.Contains(delimiters, line[id]) {
			break
		}

		if line[id] == '\'' {
			if start < 0 {
				start = id
				quoted = true
			} else {
				start = -1
			}
			continue
		}

		res.WriteByte(line[id])
	}

	if start >= 0 {
		return "", quoted, id, &CompileError{Pos: start, Token: "'", Err: ErrUnterminatedQuote}
	}

	return res.String(), quoted, id, nil
}

// Tokenize splits a line into words and operators. Longest match decides
// between '&'/'&&', '|'/'||' and '>'/'>>'.
func Tokenize(text string) ([]Token, error) {
	var res []Token
	line := []byte(text)

	for i := 0; i < len(line); {
		i = slice.TrimSpaces(line, i)
		if i == len(line) {
			break
		}

		op := func(kind Kind, width int) {
			res = append(res, Token{Kind: kind, Text: string(line[i : i+width]), Pos: i, End: i + width})
			i += width
		}
		twice := i+1 < len(line) && line[i+1] == line[i]

		switch line[i] {
		case '|':
			if twice {
				op(Or, 2)
			} else {
				op(Pipe, 1)
			}
		case '&':
			if twice {
				op(And, 2)
			} else {
				op(Amp, 1)
			}
		case '>':
			if twice {
				op(Append, 2)
			} else {
				op(Out, 1)
			}
		case '<':
			op(In, 1)
		case '=':
			op(Assign, 1)
		default:
			word, quoted, end, err := QuotesHandle(line, i)
			if err != nil {
				return nil, err
			}
			res = append(res, Token{Kind: Word, Text: word, Quoted: quoted, Pos: i, End: end})
			i = end
		}
	}

	return res, nil
}
