package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAliases(t *testing.T) {
	a := NewAliases()

	_, _, ok := a.Lookup("ll")
	assert.False(t, ok)

	args := []string{"-l"}
	a.Define("ll", "ls", args)
	a.Define("g", "git", nil)
	args[0] = "mutated"

	program, got, ok := a.Lookup("ll")
	assert.True(t, ok)
	assert.Equal(t, "ls", program)
	assert.Equal(t, []string{"-l"}, got, "Define copies its arguments")

	a.Define("ll", "ls", []string{"-la"})
	assert.Equal(t, []Alias{
		{Name: "g", Program: "git"},
		{Name: "ll", Program: "ls", Args: []string{"-la"}},
	}, a.List())
}

func TestVariables(t *testing.T) {
	v := NewVariables()

	_, ok := v.Lookup("EDITOR")
	assert.False(t, ok)

	v.Define("EDITOR", "vi")
	v.Define("EMPTY", "")
	v.Define("EDITOR", "ed")

	val, ok := v.Lookup("EDITOR")
	assert.True(t, ok)
	assert.Equal(t, "ed", val)

	val, ok = v.Lookup("EMPTY")
	assert.True(t, ok)
	assert.Equal(t, "", val)

	assert.Equal(t, []Variable{{"EDITOR", "ed"}, {"EMPTY", ""}}, v.List())
}
