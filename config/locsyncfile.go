package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Settings file schema
// ---------------------------------------------------------------------------

// File is the .locsync.yaml / .locsync.toml structure. Unset fields keep
// the defaults.
type File struct {
	// Master is the master file location: a path relative to the project
	// root, an absolute path or a bucket URL.
	Master string `yaml:"master,omitempty" toml:"master"`
	// Delimiter is the field separator of delimited masters.
	Delimiter string `yaml:"delimiter,omitempty" toml:"delimiter"`
	// BOM writes a byte-order mark at the start of delimited masters.
	BOM *bool `yaml:"bom,omitempty" toml:"bom"`
	// Comment keeps a comment column in the master.
	Comment *bool `yaml:"comment,omitempty" toml:"comment"`
	// Timestamp keeps a timestamp column, stamped on every change.
	Timestamp *bool `yaml:"timestamp,omitempty" toml:"timestamp"`
	// AutoExport exports a bundle after add-key.
	AutoExport *bool `yaml:"auto_export,omitempty" toml:"auto_export"`
	// Extension of locale files, without the dot (default "js").
	Extension string `yaml:"extension,omitempty" toml:"extension"`
	// ProjectConfig is the SPFx config.json to read bundles from when
	// Bundles is empty (default: discovered under the root).
	ProjectConfig string `yaml:"project_config,omitempty" toml:"project_config"`
	// Bundles lists the resource bundles explicitly.
	Bundles []Bundle `yaml:"bundles,omitempty" toml:"bundles"`
}

// Bundle is a named set of locale files sharing one directory.
type Bundle struct {
	// Name is the bundle column label in the master.
	Name string `yaml:"name" toml:"name"`
	// Dir holds the locale files, relative to the project root.
	Dir string `yaml:"dir" toml:"dir"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Settings file names, in lookup order.
const (
	FileNameYAML = ".locsync.yaml"
	FileNameTOML = ".locsync.toml"
)

// LoadFile loads the settings file of rootDir, preferring YAML over TOML.
// It returns nil and an empty path when neither exists.
func LoadFile(rootDir string) (*File, string, error) {
	for _, name := range []string{FileNameYAML, FileNameTOML} {
		path := filepath.Join(rootDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, "", fmt.Errorf("reading %s: %w", path, err)
		}

		var f File
		if name == FileNameYAML {
			err = yaml.Unmarshal(data, &f)
		} else {
			err = toml.Unmarshal(data, &f)
		}
		if err != nil {
			return nil, "", fmt.Errorf("parsing %s: %w", path, err)
		}
		if err := validateBundles(f.Bundles); err != nil {
			return nil, "", fmt.Errorf("%s: %w", path, err)
		}
		return &f, path, nil
	}
	return nil, "", nil
}

func validateBundles(bundles []Bundle) error {
	seen := make(map[string]bool, len(bundles))
	for i, b := range bundles {
		if b.Name == "" {
			return fmt.Errorf("%w: bundle #%d has no name", ErrInvalidBundle, i+1)
		}
		if b.Dir == "" {
			return fmt.Errorf("%w: bundle %q has no dir", ErrInvalidBundle, b.Name)
		}
		if seen[b.Name] {
			return fmt.Errorf("%w: bundle %q declared twice", ErrInvalidBundle, b.Name)
		}
		seen[b.Name] = true
	}
	return nil
}

// apply copies the fields set in f over c.
func (f *File) apply(c *Config) {
	if f.Master != "" {
		c.Master = f.Master
	}
	if f.Delimiter != "" {
		c.Delimiter = f.Delimiter
	}
	if f.BOM != nil {
		c.BOM = *f.BOM
	}
	if f.Comment != nil {
		c.Comment = *f.Comment
	}
	if f.Timestamp != nil {
		c.Timestamp = *f.Timestamp
	}
	if f.AutoExport != nil {
		c.AutoExport = *f.AutoExport
	}
	if f.Extension != "" {
		c.Extension = f.Extension
	}
	if f.ProjectConfig != "" {
		c.ProjectConfig = f.ProjectConfig
	}
	if len(f.Bundles) > 0 {
		c.Bundles = append([]Bundle(nil), f.Bundles...)
	}
}
