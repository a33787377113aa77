// Package manifest models the cbproj.toml project file written by
// `cobalt init`. The manifest never touches the compile/run pipeline; it
// only describes a project for tooling.
package manifest

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest's fixed file name inside a project directory.
const FileName = "cbproj.toml"

// Project is the required [project] table.
type Project struct {
	Name       string `toml:"name"`
	Version    string `toml:"version"`
	Main       string `toml:"main"`
	Repository string `toml:"repository,omitempty"`
	License    string `toml:"license,omitempty"`
	Private    bool   `toml:"private"`
}

// Bin describes an additional binary entry point.
type Bin struct {
	Name  string `toml:"name"`
	Entry string `toml:"entry"`
}

// Dependency pins a dependency version.
type Dependency struct {
	Version string `toml:"version"`
}

// Author identifies a project author.
type Author struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// CBProj is the root of a cbproj.toml document.
type CBProj struct {
	Project      Project               `toml:"project"`
	Bin          []Bin                 `toml:"bin,omitempty"`
	Dependencies map[string]Dependency `toml:"dependencies,omitempty"`
	Authors      []Author              `toml:"authors,omitempty"`
}

// Write serializes the manifest as TOML and writes it to path in one shot.
func (p *CBProj) Write(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return fmt.Errorf("encoding %s: %w", FileName, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", FileName, err)
	}
	return nil
}

// Load reads and decodes a cbproj.toml file.
func Load(path string) (*CBProj, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}
	var p CBProj
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", FileName, err)
	}
	return &p, nil
}
