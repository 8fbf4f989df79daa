// Package rubric holds the versioned matching instructions sent to the
// completion service as the system turn.
package rubric

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rubric.yaml
var defaultRubric []byte

type Rubric struct {
	Version string `yaml:"version"`
	Name    string `yaml:"name"`
	System  string `yaml:"system"`
}

func (r *Rubric) Validate() error {
	if strings.TrimSpace(r.Version) == "" {
		return fmt.Errorf("rubric: version is required")
	}
	if strings.TrimSpace(r.System) == "" {
		return fmt.Errorf("rubric: system prompt is empty")
	}
	return nil
}

// Checksum identifies the exact prompt text that produced a run.
func (r *Rubric) Checksum() string {
	sum := sha256.Sum256([]byte(r.System))
	return hex.EncodeToString(sum[:])[:12]
}

// Parse decodes and validates a rubric document.
func Parse(data []byte) (*Rubric, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("rubric: document is empty")
	}
	var r Rubric
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("rubric: decode: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.System = strings.TrimSpace(r.System)
	return &r, nil
}

// Default returns the rubric compiled into the binary.
func Default() *Rubric {
	r, err := Parse(defaultRubric)
	if err != nil {
		panic(err)
	}
	return r
}

// Load reads the rubric at path, or the built-in one when path is empty.
func Load(path string) (*Rubric, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rubric: read %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}
