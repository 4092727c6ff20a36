// Package builtin implements the commands the shell runs itself instead of
// launching a process.
package builtin

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"tsh/internal/execute"
	"tsh/internal/jobs"
	"tsh/internal/store"
)

// All holds every registered builtin by name.
var All = make(map[string]Builtin)

type Builtin interface {
	Main(env *Env, args []string) int
}

type Func func(env *Env, args []string) int

func (f Func) Main(env *Env, args []string) int {
	return f(env, args)
}

var _ Builtin = (Func)(nil)

// Env is what a builtin may touch.
type Env struct {
	Jobs     *jobs.Table
	Launcher *execute.Launcher
	Aliases  *store.Aliases
	Vars     *store.Variables
	Stdout   io.Writer
	Stderr   io.Writer
	// Exit asks the shell to terminate with code once the builtin returns.
	Exit func(code int)
}

var errorColor = color.New(color.FgRed)

func (env *Env) errorf(format string, args ...interface{}) {
	errorColor.Fprintf(env.Stderr, format+"\n", args...)
}

func Lookup(name string) (Builtin, bool) {
	b, ok := All[name]
	return b, ok
}

// Names lists the registered builtins in order.
func Names() []string {
	var names []string
	for k := range All {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func Help(env *Env, args []string) int {
	fmt.Fprintln(env.Stdout, "Builtins:")
	for _, name := range Names() {
		fmt.Fprintln(env.Stdout, "  "+name)
	}
	return 0
}

func init() {
	All["help"] = Func(Help)
}
