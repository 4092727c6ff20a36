package config

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/anmitsu/go-shlex"
	"github.com/go-playground/validator/v10"
	"sigs.k8s.io/yaml"

	"tsh/internal/prompt"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const ConfigurationName = "config.yaml"

type Configuration struct {
	Prompt     string            `json:"prompt" validate:"required"`
	EmitPrompt bool              `json:"emit_prompt"`
	ShowPath   bool              `json:"show_path"`
	Verbose    bool              `json:"verbose"`
	RCFile     string            `json:"rc_file"`
	Aliases    map[string]string `json:"aliases" validate:"dive,keys,required,endkeys,required"`
	Variables  map[string]string `json:"variables" validate:"dive,keys,required,endkeys,omitempty"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// PromptTemplate is the prompt in effect after show_path is applied.
func (c *Configuration) PromptTemplate() string {
	if c.ShowPath {
		return prompt.PathPrompt
	}
	return c.Prompt
}

// RCPath resolves a leading ~ in rc_file against home.
func (c *Configuration) RCPath(home string) string {
	switch {
	case c.RCFile == "":
		return ""
	case c.RCFile == "~":
		return home
	case strings.HasPrefix(c.RCFile, "~/"):
		if home == "" {
			return ""
		}
		return filepath.Join(home, c.RCFile[2:])
	default:
		return c.RCFile
	}
}

type AliasDefinition struct {
	Name    string
	Program string
	Args    []string
}

// AliasDefinitions splits each configured alias into program and arguments,
// sorted by name.
func (c *Configuration) AliasDefinitions() ([]AliasDefinition, error) {
	var out []AliasDefinition
	for name, command := range c.Aliases {
		words, err := shlex.Split(command, true)
		if err != nil {
			return nil, fmt.Errorf("alias %q: %w", name, err)
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("alias %q: empty command", name)
		}
		out = append(out, AliasDefinition{Name: name, Program: words[0], Args: words[1:]})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// Default returns a fresh copy of the built-in configuration.
func Default() *Configuration {
	return defaultConfig()
}
