package config

import (
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"tsh/internal/prompt"
)

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[string]interface{})
	assert.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	knownFields := make(map[string]bool)
	rt := reflect.TypeOf(Configuration{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}
	}

	for k := range rawConfig {
		_, ok := knownFields[k]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	cfg := defaultConfig()
	assert.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, prompt.DefaultPrompt, cfg.Prompt)
	assert.True(t, cfg.EmitPrompt)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/tsh.yaml", []byte(`
emit_prompt: false
aliases:
  ll: ls -l
  greet: "echo 'hello world'"
variables:
  EDITOR: vi
`), 0644))

	cfg, err := Load(fs, "/etc/tsh.yaml")
	require.NoError(t, err)

	assert.False(t, cfg.EmitPrompt)
	assert.Equal(t, prompt.DefaultPrompt, cfg.Prompt, "unset fields keep their defaults")
	assert.Equal(t, map[string]string{"EDITOR": "vi"}, cfg.Variables)

	defs, err := cfg.AliasDefinitions()
	require.NoError(t, err)
	assert.Equal(t, []AliasDefinition{
		{Name: "greet", Program: "echo", Args: []string{"hello world"}},
		{Name: "ll", Program: "ls", Args: []string{"-l"}},
	}, defs)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"unknown-field": "colour: red\n",
		"empty-prompt":  "prompt: \"\"\n",
		"empty-alias":   "aliases:\n  ll: \"\"\n",
	}

	for tn, contents := range cases {
		t.Run(tn, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "config.yaml", []byte(contents), 0644))

			_, err := Load(fs, "config.yaml")
			assert.Error(t, err)
		})
	}

	t.Run("missing", func(t *testing.T) {
		_, err := Load(afero.NewMemMapFs(), "nope.yaml")
		assert.Error(t, err)
	})
}

func TestRCPath(t *testing.T) {
	cases := map[string]struct {
		rcFile string
		home   string
		want   string
	}{
		"default":   {"~/.rshrc", "/home/ada", "/home/ada/.rshrc"},
		"no-home":   {"~/.rshrc", "", ""},
		"absolute":  {"/etc/rshrc", "/home/ada", "/etc/rshrc"},
		"disabled":  {"", "/home/ada", ""},
		"bare-home": {"~", "/home/ada", "/home/ada"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			cfg := &Configuration{RCFile: tc.rcFile}
			assert.Equal(t, tc.want, cfg.RCPath(tc.home))
		})
	}
}

func TestPromptTemplate(t *testing.T) {
	cfg := Default()
	assert.Equal(t, prompt.DefaultPrompt, cfg.PromptTemplate())

	cfg.ShowPath = true
	assert.Equal(t, prompt.PathPrompt, cfg.PromptTemplate())
}

func TestReadRC(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/home/ada/.rshrc", []byte("# aliases\nalias ll = ls -l\n\n  EDITOR = vi  \n"), 0644))

	lines, err := ReadRC(fs, "/home/ada/.rshrc")
	require.NoError(t, err)
	assert.Equal(t, []string{"alias ll = ls -l", "EDITOR = vi"}, lines)
}
