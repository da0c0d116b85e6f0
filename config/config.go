// Package config resolves locsync settings for a project.
//
// Settings are layered, later sources winning:
//
//	defaults
//	.locsync.yaml or .locsync.toml in the project root
//	.env in the project root
//	LOCSYNC_* environment variables
//	command-line flags
//
// Bundles come from the settings file when it declares any; otherwise they
// are read from the localizedResources of the SPFx config/config.json.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultMaster    = "locales.csv"
	DefaultDelimiter = ";"
	DefaultExtension = "js"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LOCSYNC_"

// Config is the resolved configuration threaded through every operation.
type Config struct {
	Master        string
	Delimiter     string
	BOM           bool
	Comment       bool
	Timestamp     bool
	AutoExport    bool
	Extension     string
	ProjectConfig string
	Bundles       []Bundle

	// SettingsFile is the settings file that was loaded, if any.
	SettingsFile string
	// Project is the detected SPFx solution when bundles came from it.
	Project *Project
}

// Overrides are optional values set by the environment or by flags. Nil
// fields leave the configuration alone.
type Overrides struct {
	Master        *string `env:"MASTER"`
	Delimiter     *string `env:"DELIMITER"`
	BOM           *bool   `env:"BOM"`
	Comment       *bool   `env:"COMMENT"`
	Timestamp     *bool   `env:"TIMESTAMP"`
	AutoExport    *bool   `env:"AUTO_EXPORT"`
	Extension     *string `env:"EXTENSION"`
	ProjectConfig *string `env:"PROJECT_CONFIG"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Master:    DefaultMaster,
		Delimiter: DefaultDelimiter,
		Extension: DefaultExtension,
	}
}

// Load resolves the configuration of the project at rootDir. flags are
// applied last.
func Load(rootDir string, flags Overrides) (*Config, error) {
	c := Default()

	f, path, err := LoadFile(rootDir)
	if err != nil {
		return nil, err
	}
	if f != nil {
		f.apply(c)
		c.SettingsFile = path
	}

	envOverrides, err := LoadEnv(rootDir)
	if err != nil {
		return nil, err
	}
	envOverrides.apply(c)
	flags.apply(c)

	c.Extension = strings.TrimPrefix(c.Extension, ".")
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if len(c.Bundles) == 0 {
		if err := c.detectBundles(rootDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadEnv reads LOCSYNC_* overrides from the process environment and from
// rootDir/.env. Variables already set in the process win over .env.
func LoadEnv(rootDir string) (Overrides, error) {
	vars := make(map[string]string)

	dotenv := filepath.Join(rootDir, ".env")
	if _, err := os.Stat(dotenv); err == nil {
		file, err := godotenv.Read(dotenv)
		if err != nil {
			return Overrides{}, fmt.Errorf("reading %s: %w", dotenv, err)
		}
		for k, v := range file {
			vars[k] = v
		}
	}
	for k, v := range env.ToMap(os.Environ()) {
		vars[k] = v
	}

	var o Overrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix, Environment: vars}); err != nil {
		return Overrides{}, fmt.Errorf("parsing %s* environment: %w", EnvPrefix, err)
	}
	return o, nil
}

func (o Overrides) apply(c *Config) {
	if o.Master != nil {
		c.Master = *o.Master
	}
	if o.Delimiter != nil {
		c.Delimiter = *o.Delimiter
	}
	if o.BOM != nil {
		c.BOM = *o.BOM
	}
	if o.Comment != nil {
		c.Comment = *o.Comment
	}
	if o.Timestamp != nil {
		c.Timestamp = *o.Timestamp
	}
	if o.AutoExport != nil {
		c.AutoExport = *o.AutoExport
	}
	if o.Extension != nil {
		c.Extension = *o.Extension
	}
	if o.ProjectConfig != nil {
		c.ProjectConfig = *o.ProjectConfig
	}
}

func (c *Config) detectBundles(rootDir string) error {
	p, err := DetectProject(rootDir, c.ProjectConfig)
	if err != nil {
		return err
	}
	if len(p.Bundles) == 0 {
		return fmt.Errorf("%w: %s declares no localizedResources", ErrNoBundles, p.ConfigPath)
	}

	// Bundle dirs are relative to the solution; make them relative to rootDir.
	prefix := ""
	if absRoot, err := filepath.Abs(rootDir); err == nil {
		if rel, err := filepath.Rel(absRoot, p.Root); err == nil && rel != "." {
			prefix = rel
		}
	}
	for _, b := range p.Bundles {
		c.Bundles = append(c.Bundles, Bundle{Name: b.Name, Dir: filepath.Join(prefix, filepath.FromSlash(b.Dir))})
	}
	c.Project = p
	return nil
}

// Validate checks the delimiter and the bundle list.
func (c *Config) Validate() error {
	if _, err := ParseDelimiter(c.Delimiter); err != nil {
		return err
	}
	if c.Extension == "" {
		return fmt.Errorf("config: empty locale file extension")
	}
	return validateBundles(c.Bundles)
}

// Delim returns the delimiter as a rune. The configuration must have been
// validated.
func (c *Config) Delim() rune {
	r, _ := ParseDelimiter(c.Delimiter)
	return r
}

// ParseDelimiter accepts a single character, or "tab" / `\t` for a tab.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, s)
	}
	return r, nil
}

// Select returns the named bundle, or every bundle for "" and "all".
func (c *Config) Select(name string) ([]Bundle, error) {
	if name == "" || strings.EqualFold(name, "all") {
		if len(c.Bundles) == 0 {
			return nil, ErrNoBundles
		}
		return c.Bundles, nil
	}
	b, err := c.Bundle(name)
	if err != nil {
		return nil, err
	}
	return []Bundle{b}, nil
}

// Bundle returns the bundle called name.
func (c *Config) Bundle(name string) (Bundle, error) {
	for _, b := range c.Bundles {
		if b.Name == name {
			return b, nil
		}
	}
	for _, b := range c.Bundles {
		if strings.EqualFold(b.Name, name) {
			return b, nil
		}
	}
	return Bundle{}, fmt.Errorf("%w: %q", ErrUnknownBundle, name)
}

// BundleNames lists the configured bundle names in order.
func (c *Config) BundleNames() []string {
	names := make([]string, len(c.Bundles))
	for i, b := range c.Bundles {
		names[i] = b.Name
	}
	return names
}
