// Package shell runs the read, compile, launch and wait loop.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/afero"

	"tsh/internal/builtin"
	"tsh/internal/config"
	"tsh/internal/execute"
	"tsh/internal/jobs"
	"tsh/internal/parser"
	"tsh/internal/prompt"
	"tsh/internal/store"
)

var errorColor = color.New(color.FgRed)

type Options struct {
	Config *config.Configuration
	Fs     afero.Fs
	Logger *slog.Logger

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
	// Interactive enables terminal handoff to foreground jobs.
	Interactive bool
}

type Shell struct {
	cfg      *config.Configuration
	fs       afero.Fs
	logger   *slog.Logger
	jobs     *jobs.Table
	reaper   *jobs.Reaper
	launcher *execute.Launcher
	compiler *parser.Compiler
	aliases  *store.Aliases
	vars     *store.Variables
	env      *builtin.Env
	in       *prompt.Reader
	out      io.Writer
	errOut   io.Writer

	exiting  bool
	exitCode int
}

func New(opts Options) (*Shell, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var terminal *jobs.Terminal
	if opts.Interactive {
		terminal = jobs.NewTerminal(opts.Stdin)
	}

	table := jobs.NewTable()
	s := &Shell{
		cfg:     cfg,
		fs:      fsys,
		logger:  logger,
		jobs:    table,
		reaper:  jobs.NewReaper(table, opts.Stdout, logger),
		aliases: store.NewAliases(),
		vars:    store.NewVariables(),
		in:      prompt.NewReader(opts.Stdin, opts.Stdout),
		out:     opts.Stdout,
		errOut:  opts.Stderr,
	}
	if !cfg.EmitPrompt {
		s.in.Continuation = ""
	}

	s.launcher = &execute.Launcher{
		Jobs:     table,
		Terminal: terminal,
		Stdin:    opts.Stdin,
		Stdout:   opts.Stdout,
		Stderr:   opts.Stderr,
		Errors:   opts.Stderr,
		Logger:   logger,
	}
	s.compiler = &parser.Compiler{Aliases: s.aliases, Vars: s.vars}
	s.env = &builtin.Env{
		Jobs:     table,
		Launcher: s.launcher,
		Aliases:  s.aliases,
		Vars:     s.vars,
		Stdout:   opts.Stdout,
		Stderr:   opts.Stderr,
		Exit: func(code int) {
			s.exiting = true
			s.exitCode = code
		},
	}
	s.reaper.OnIdleInterrupt = func() {
		fmt.Fprintln(s.out)
		s.printPrompt()
	}

	defs, err := cfg.AliasDefinitions()
	if err != nil {
		return nil, err
	}
	for _, def := range defs {
		s.aliases.Define(def.Name, def.Program, def.Args)
	}
	for name, value := range cfg.Variables {
		s.vars.Define(name, value)
	}

	return s, nil
}

func (s *Shell) Jobs() *jobs.Table {
	return s.jobs
}

func (s *Shell) Aliases() *store.Aliases {
	return s.aliases
}

func (s *Shell) Variables() *store.Variables {
	return s.vars
}

func (s *Shell) printPrompt() {
	if s.cfg.EmitPrompt {
		prompt.Out(s.out, s.cfg.PromptTemplate())
	}
}

// Start launches the reaper. It stops when ctx is cancelled.
func (s *Shell) Start(ctx context.Context) {
	s.reaper.Start(ctx)
}

// LoadRC evaluates the startup file. A missing file is not an error.
func (s *Shell) LoadRC() error {
	path := s.cfg.RCPath(os.Getenv("HOME"))
	if path == "" {
		return nil
	}

	lines, err := config.ReadRC(s.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("no startup file", slog.String("path", path))
		return nil
	}
	if err != nil {
		return err
	}

	for _, line := range lines {
		s.Eval(line)
		if s.exiting {
			break
		}
	}
	return nil
}

// Run reads and evaluates lines until end of input or an exit builtin, and
// returns the shell's exit code.
func (s *Shell) Run(ctx context.Context) int {
	s.Start(ctx)

	if err := s.LoadRC(); err != nil {
		errorColor.Fprintln(s.errOut, err)
	}

	for !s.exiting {
		s.printPrompt()

		line, err := s.in.Read()
		if err == io.EOF {
			if s.cfg.EmitPrompt {
				fmt.Fprintln(s.out)
			}
			return 0
		}
		if err != nil {
			s.logger.Error("reading input failed", slog.String("error", err.Error()))
			return 1
		}

		s.Eval(line)
	}

	return s.exitCode
}

// Eval runs one command line. It returns once no job is in the foreground.
func (s *Shell) Eval(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	s.logger.Debug("eval", slog.String("line", text))

	line, err := s.compiler.Parse(text)
	if err != nil {
		errorColor.Fprintf(s.errOut, "tsh: %v\n", err)
		return
	}
	prog := line.Program
	s.logger.Debug("compiled",
		slog.Any("argv", prog.Argv),
		slog.Any("env", prog.Env),
		slog.Int("groups", len(prog.Groups)),
		slog.Bool("background", line.Background),
	)

	if len(prog.Groups) == 0 {
		builtin.Assign(s.env, prog.Env)
		return
	}

	if len(prog.Groups) == 1 && len(prog.Groups[0].Stages) == 1 {
		stage := prog.Groups[0].Stages[0]
		if b, ok := builtin.Lookup(stage.Program); ok {
			b.Main(s.env, stage.Argv)
			return
		}
	}

	s.launcher.Run(line)
}

// Exiting reports whether an exit builtin ran, and with which code.
func (s *Shell) Exiting() (bool, int) {
	return s.exiting, s.exitCode
}
