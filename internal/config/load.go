package config

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load reads the configuration at path over the defaults and validates it.
// An empty path yields the defaults.
func Load(fs afero.Fs, path string) (*Configuration, error) {
	out := defaultConfig()
	if path == "" {
		return out, nil
	}

	configContents, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	if err := yaml.UnmarshalStrict(configContents, out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadRC returns the command lines of the startup file at path. Blank lines
// and lines starting with '#' are skipped.
func ReadRC(fs afero.Fs, path string) ([]string, error) {
	contents, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	var lines []string
	s := bufio.NewScanner(bytes.NewReader(contents))
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, s.Err()
}
