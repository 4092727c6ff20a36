package parser

import (
	"os"
	"strings"
)

// AliasLookup resolves an alias name to its program and fixed arguments.
type AliasLookup interface {
	Lookup(name string) (program string, args []string, ok bool)
}

// VarLookup resolves shell variables. It is consulted only when the OS
// environment has no variable of the same name.
type VarLookup interface {
	Lookup(name string) (string, bool)
}

type EndpointKind int

const (
	Inherit EndpointKind = iota
	PipeFrom
	PipeTo
	File
)

// Endpoint is where a stage reads its stdin from or writes its stdout to.
// For File endpoints, Token indexes the file name token in the compiled line.
type Endpoint struct {
	Kind   EndpointKind
	Path   string
	Append bool
	Token  int
}

type Stage struct {
	Program string
	Argv    []string
	Stdin   Endpoint
	Stdout  Endpoint
}

// Cond gates a group on the exit status of the group before it.
type Cond int

const (
	Always Cond = iota
	IfSuccess
	IfFailure
)

func (c Cond) String() string {
	switch c {
	case IfSuccess:
		return "&&"
	case IfFailure:
		return "||"
	default:
		return ""
	}
}

// Group is a pipeline: stages joined by '|', launched as one job.
type Group struct {
	Cond   Cond
	Stages []Stage
}

type Assignment struct {
	Name  string
	Value string
}

func (a Assignment) String() string {
	return a.Name + "=" + a.Value
}

// Program is the compiled form of one command line.
type Program struct {
	Groups []Group
	// Argv holds every expanded word of every stage, in order.
	Argv []string
	Env  []Assignment
	// Sources maps a token index to its byte offset in the source line.
	Sources []int
}

// Line is a parsed command line ready for the launcher.
type Line struct {
	Text       string
	Background bool
	Program    *Program
}

type Compiler struct {
	Aliases AliasLookup
	Vars    VarLookup
	Getenv  func(string) (string, bool)
}

// Parse detects background execution, tokenizes and compiles a line.
func (c *Compiler) Parse(text string) (*Line, error) {
	text = strings.TrimRight(text, "\r\n")
	stripped, bg := SplitBackground(text)

	tokens, err := Tokenize(stripped)
	if err != nil {
		return nil, err
	}

	prog, err := c.Compile(tokens)
	if err != nil {
		return nil, err
	}

	return &Line{Text: strings.TrimSpace(text), Background: bg, Program: prog}, nil
}

type compilation struct {
	*Compiler
	tokens []Token
	prog   *Program
	group  Group
	stage  Stage
}

// Compile turns tokens into pipeline groups. An empty token sequence compiles
// to a program with no groups.
func (c *Compiler) Compile(tokens []Token) (*Program, error) {
	cc := &compilation{Compiler: c, tokens: tokens, prog: &Program{}}

	for _, tok := range tokens {
		cc.prog.Sources = append(cc.prog.Sources, tok.Pos)
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		switch tok.Kind {
		case Pipe:
			if cc.stage.Program == "" {
				return nil, &CompileError{Pos: tok.Pos, Token: tok.Text, Err: ErrMissingCommand}
			}
			if cc.stage.Stdout.Kind == Inherit {
				cc.stage.Stdout = Endpoint{Kind: PipeTo}
			}
			cc.flushStage()
			cc.stage = Stage{Stdin: Endpoint{Kind: PipeFrom}}
		case And, Or:
			if cc.stage.Program == "" {
				return nil, &CompileError{Pos: tok.Pos, Token: tok.Text, Err: ErrMissingCommand}
			}
			cc.flushStage()
			cc.flushGroup()
			if tok.Kind == And {
				cc.group.Cond = IfSuccess
			} else {
				cc.group.Cond = IfFailure
			}
		case In, Out, Append:
			if i+1 >= len(tokens) || tokens[i+1].Kind != Word {
				return nil, &CompileError{Pos: tok.Pos, Token: tok.Text, Err: ErrMissingFilename}
			}
			i++
			end := Endpoint{Kind: File, Path: c.expandWord(tokens[i]), Append: tok.Kind == Append, Token: i}
			if tok.Kind == In {
				cc.stage.Stdin = end
			} else {
				cc.stage.Stdout = end
			}
		case Amp:
			return nil, &CompileError{Pos: tok.Pos, Token: tok.Text, Err: ErrUnexpectedToken}
		case Assign:
			if cc.stage.Program == "" {
				return nil, &CompileError{Pos: tok.Pos, Token: tok.Text, Err: ErrMissingName}
			}
			i = cc.argument(i)
		case Word:
			if cc.stage.Program == "" {
				if next, ok := cc.assignment(i); ok {
					i = next
					continue
				}
				i = cc.command(i)
				continue
			}
			i = cc.argument(i)
		}
	}

	switch {
	case cc.stage.Program != "":
		cc.flushStage()
		cc.flushGroup()
	case cc.stage.Stdin.Kind != Inherit || cc.stage.Stdout.Kind != Inherit || cc.group.Cond != Always:
		var pos int
		if len(tokens) > 0 {
			pos = tokens[len(tokens)-1].End
		}
		return nil, &CompileError{Pos: pos, Err: ErrMissingCommand}
	}

	return cc.prog, nil
}

func (cc *compilation) flushStage() {
	cc.group.Stages = append(cc.group.Stages, cc.stage)
	cc.prog.Argv = append(cc.prog.Argv, cc.stage.Argv...)
	cc.stage = Stage{}
}

func (cc *compilation) flushGroup() {
	cc.prog.Groups = append(cc.prog.Groups, cc.group)
	cc.group = Group{}
}

// assignment consumes "NAME = value" at i.
func (cc *compilation) assignment(i int) (int, bool) {
	tok := cc.tokens[i]
	if tok.Quoted || !isName(tok.Text) || i+1 >= len(cc.tokens) || cc.tokens[i+1].Kind != Assign {
		return i, false
	}

	next := i + 1
	var value string
	if next+1 < len(cc.tokens) && cc.tokens[next+1].Kind == Word {
		var parts []string
		next, parts = cc.joined(next + 1)
		value = strings.Join(parts, "")
	}

	cc.prog.Env = append(cc.prog.Env, Assignment{Name: tok.Text, Value: value})
	return next, true
}

// command resolves the first word of a stage: alias, then $NAME, then the
// literal word.
func (cc *compilation) command(i int) int {
	tok := cc.tokens[i]

	if !tok.Quoted && cc.Aliases != nil {
		if program, args, ok := cc.Aliases.Lookup(tok.Text); ok {
			cc.stage.Program = program
			cc.stage.Argv = append([]string{program}, args...)
			return i
		}
	}

	next, parts := cc.joined(i)
	var fields []string
	if next == i {
		fields = cc.expandFields(tok)
	} else {
		fields = []string{strings.Join(parts, "")}
	}
	if len(fields) == 0 {
		fields = []string{tok.Text}
	}

	cc.stage.Program = fields[0]
	cc.stage.Argv = append(cc.stage.Argv, fields...)
	return next
}

func (cc *compilation) argument(i int) int {
	next, parts := cc.joined(i)
	if next == i && cc.tokens[i].Kind == Word {
		cc.stage.Argv = append(cc.stage.Argv, cc.expandFields(cc.tokens[i])...)
		return i
	}

	cc.stage.Argv = append(cc.stage.Argv, strings.Join(parts, ""))
	return next
}

// joined collects the run of touching word and '=' tokens starting at i, so
// "--opt=value" stays a single argument. It returns the index of the last
// token consumed.
func (cc *compilation) joined(i int) (int, []string) {
	parts := []string{cc.expandWord(cc.tokens[i])}

	for i+1 < len(cc.tokens) {
		next := cc.tokens[i+1]
		if (next.Kind != Word && next.Kind != Assign) || !cc.tokens[i].adjacent(next) {
			break
		}
		i++
		parts = append(parts, cc.expandWord(next))
	}

	return i, parts
}

func (c *Compiler) lookup(name string) (string, bool) {
	getenv := c.Getenv
	if getenv == nil {
		getenv = os.LookupEnv
	}

	if val, ok := getenv(name); ok {
		return val, true
	}
	if c.Vars != nil {
		return c.Vars.Lookup(name)
	}
	return "", false
}

func (c *Compiler) expandWord(tok Token) string {
	if tok.Kind != Word || tok.Quoted || len(tok.Text) < 2 || tok.Text[0] != '$' {
		return tok.Text
	}

	if val, ok := c.lookup(tok.Text[1:]); ok {
		return val
	}
	return tok.Text
}

// expandFields expands $NAME and splits the result on whitespace.
func (c *Compiler) expandFields(tok Token) []string {
	val := c.expandWord(tok)
	if val == tok.Text {
		return []string{val}
	}
	return strings.Fields(val)
}

func isName(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}

	return true
}
