package parser

import "fmt"

type Kind int

const (
	Word Kind = iota
	Pipe
	In
	Out
	Append
	And
	Or
	Amp
	Assign
)

var kindNames = map[Kind]string{
	Word:   "word",
	Pipe:   "|",
	In:     "<",
	Out:    ">",
	Append: ">>",
	And:    "&&",
	Or:     "||",
	Amp:    "&",
	Assign: "=",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is one lexical unit of a command line. Pos and End are byte offsets
// into the line the token was read from.
type Token struct {
	Kind   Kind
	Text   string
	Quoted bool
	Pos    int
	End    int
}

func (t Token) String() string {
	if t.Kind == Word {
		return fmt.Sprintf("%q", t.Text)
	}
	return t.Kind.String()
}

// adjacent reports whether next starts exactly where t ends.
func (t Token) adjacent(next Token) bool {
	return t.End == next.Pos
}
