// Package store holds the alias table and shell variables consulted by the
// pipeline compiler.
package store

import (
	"sort"
	"sync"
)

type Alias struct {
	Name    string
	Program string
	Args    []string
}

type Aliases struct {
	mu      sync.RWMutex
	entries map[string]Alias
}

func NewAliases() *Aliases {
	return &Aliases{entries: make(map[string]Alias)}
}

func (a *Aliases) Define(name, program string, args []string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries[name] = Alias{Name: name, Program: program, Args: append([]string(nil), args...)}
}

func (a *Aliases) Lookup(name string) (string, []string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	alias, ok := a.entries[name]
	if !ok {
		return "", nil, false
	}
	return alias.Program, append([]string(nil), alias.Args...), true
}

// List returns every alias sorted by name.
func (a *Aliases) List() []Alias {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]Alias, 0, len(a.entries))
	for _, alias := range a.entries {
		out = append(out, alias)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type Variable struct {
	Name  string
	Value string
}

type Variables struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewVariables() *Variables {
	return &Variables{entries: make(map[string]string)}
}

func (v *Variables) Define(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.entries[name] = value
}

func (v *Variables) Lookup(name string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	val, ok := v.entries[name]
	return val, ok
}

// List returns every variable sorted by name.
func (v *Variables) List() []Variable {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]Variable, 0, len(v.entries))
	for name, value := range v.entries {
		out = append(out, Variable{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
