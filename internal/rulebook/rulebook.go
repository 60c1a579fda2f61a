// Package rulebook loads the static visit quota configuration.
package rulebook

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"lessonvisit/pkg/schema"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultRulebook []byte

// Default returns the built-in rulebook.
func Default() (*schema.Rulebook, error) {
	rb, err := Parse(defaultRulebook)
	if err != nil {
		return nil, fmt.Errorf("default rulebook: %w", err)
	}
	return rb, nil
}

// Load reads a rulebook from path. An empty path selects the built-in rulebook.
func Load(path string) (*schema.Rulebook, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rulebook: %w", err)
	}
	rb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rulebook %s: %w", path, err)
	}
	return rb, nil
}

// Parse decodes and checks a YAML rulebook. Unknown keys are rejected.
func Parse(data []byte) (*schema.Rulebook, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var rb schema.Rulebook
	if err := dec.Decode(&rb); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse rulebook: empty document")
		}
		return nil, fmt.Errorf("parse rulebook: %w", err)
	}
	if err := schema.ValidateRulebook(&rb); err != nil {
		return nil, err
	}
	return &rb, nil
}

// Marshal renders a rulebook as YAML.
func Marshal(rb *schema.Rulebook) ([]byte, error) {
	data, err := yaml.Marshal(rb)
	if err != nil {
		return nil, fmt.Errorf("marshal rulebook: %w", err)
	}
	return data, nil
}
