package parser

import (
	"errors"
	"fmt"
)

var (
	ErrUnterminatedQuote = errors.New("unterminated quote")
	ErrMissingFilename   = errors.New("missing file name")
	ErrMissingCommand    = errors.New("missing command")
	ErrMissingName       = errors.New("missing variable name")
	ErrUnexpectedToken   = errors.New("unexpected token")
)

// CompileError reports a malformed command line. Pos is the byte offset of
// the offending token in the source line.
type CompileError struct {
	Pos   int
	Token string
	Err   error
}

func (e *CompileError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("syntax error near '%s' (column %d): %v", e.Token, e.Pos+1, e.Err)
	}
	return fmt.Sprintf("syntax error (column %d): %v", e.Pos+1, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
