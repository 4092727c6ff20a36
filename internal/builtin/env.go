package builtin

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"tsh/internal/parser"
)

// Quit terminates the shell, with status 0 unless a code is given.
func Quit(env *Env, args []string) int {
	code := 0
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			env.errorf("%s: numeric argument required: %s", args[0], args[1])
			return 1
		}
		code = n
	}

	env.Exit(code)
	return code
}

// Cd changes the working directory, to HOME when no directory is given.
func Cd(env *Env, args []string) int {
	switch len(args) {
	case 1:
		home, ok := os.LookupEnv("HOME")
		if !ok {
			env.errorf("User's home not set!")
			return 1
		}
		args = append(args, home)
		fallthrough
	case 2:
		if err := os.Chdir(args[1]); err != nil {
			env.errorf("%s: no such file or directory: %s", args[0], args[1])
			return 1
		}
	default:
		env.errorf("%s: too many arguments", args[0])
		return 1
	}
	return 0
}

// splitAssignment accepts both "NAME = value..." and "NAME=value...".
func splitAssignment(args []string) (string, []string, bool) {
	switch {
	case len(args) >= 2 && args[1] == "=":
		return args[0], args[2:], true
	case len(args) >= 1 && strings.Contains(args[0], "="):
		name, value, _ := strings.Cut(args[0], "=")
		rest := args[1:]
		if value != "" {
			rest = append([]string{value}, rest...)
		}
		return name, rest, true
	}
	return "", nil, false
}

// Alias lists aliases, or defines one as "alias name = program args...".
func Alias(env *Env, args []string) int {
	if len(args) == 1 {
		for _, alias := range env.Aliases.List() {
			fmt.Fprintln(env.Stdout, strings.Join(append([]string{alias.Name, "=", alias.Program}, alias.Args...), " "))
		}
		return 0
	}

	name, rest, ok := splitAssignment(args[1:])
	switch {
	case !ok:
		env.errorf("Equal sign (=) needed for alias.")
		return 1
	case name == "" || len(rest) == 0:
		env.errorf("Not enough arguments for alias.")
		return 1
	}

	env.Aliases.Define(name, rest[0], rest[1:])
	return 0
}

// Export sets an environment variable inherited by launched processes.
func Export(env *Env, args []string) int {
	name, rest, ok := splitAssignment(args[1:])
	if !ok || name == "" {
		env.errorf("usage: %s NAME = value", args[0])
		return 1
	}

	if err := os.Setenv(name, strings.Join(rest, " ")); err != nil {
		env.errorf("%s: %v", args[0], err)
		return 1
	}
	return 0
}

// Vars lists shell variables.
func Vars(env *Env, args []string) int {
	for _, v := range env.Vars.List() {
		fmt.Fprintf(env.Stdout, "%s = %s\n", v.Name, v.Value)
	}
	return 0
}

// Assign defines shell variables from a line holding only assignments.
func Assign(env *Env, assigns []parser.Assignment) {
	for _, a := range assigns {
		env.Vars.Define(a.Name, a.Value)
	}
}

func init() {
	All["quit"] = Func(Quit)
	All["exit"] = Func(Quit)
	All["cd"] = Func(Cd)
	All["alias"] = Func(Alias)
	All["export"] = Func(Export)
	All["vars"] = Func(Vars)
}
