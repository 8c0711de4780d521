// Package manifest reads the dependency manifest: the categorized external
// asset paths (bundled script dependencies, stylesheets, fonts) the pipeline
// pulls into the build output.
package manifest

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest lists the externally sourced assets a build consumes.
type Manifest struct {
	// Scripts are module dependencies handed to the bundler.
	Scripts []string `yaml:"scripts"`
	// Styles are stylesheet paths concatenated into the vendor stylesheet.
	Styles []string `yaml:"styles"`
	// Fonts are font file paths copied into the output font directory.
	Fonts []string `yaml:"fonts"`
}

// Load reads and parses the manifest at path. The file is re-read on every
// call: watch-triggered rebuilds must observe edits to it.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return &m, nil
}
