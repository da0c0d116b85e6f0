package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// ---------------------------------------------------------------------------
// SharePoint Framework project detection
// ---------------------------------------------------------------------------

// ProjectConfigPath is where an SPFx solution keeps its build config.
var ProjectConfigPath = filepath.Join("config", "config.json")

// skipDirs contains directory names never searched for the project config.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"lib":          true,
	"dist":         true,
	"temp":         true,
	"release":      true,
}

// Project holds what was detected from an SPFx solution.
type Project struct {
	// Name and Version come from package.json next to the config directory,
	// falling back to the directory name and "0.0.0".
	Name    string
	Version string
	// ConfigPath is the absolute path of config/config.json.
	ConfigPath string
	// Root is the solution directory containing config/.
	Root string
	// Bundles are the localized resources of the solution, in file order.
	Bundles []Bundle
}

// FindProjectConfig returns the first config/config.json under rootDir.
// rootDir/config/config.json wins over nested solutions.
func FindProjectConfig(rootDir string) (string, error) {
	direct := filepath.Join(rootDir, ProjectConfigPath)
	if info, err := os.Stat(direct); err == nil && !info.IsDir() {
		return direct, nil
	}

	var found string
	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			if path != rootDir && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == "config.json" && filepath.Base(filepath.Dir(path)) == "config" {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scanning %s: %w", rootDir, err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: no %s under %s", ErrNoBundles, ProjectConfigPath, rootDir)
	}
	return found, nil
}

// DetectProject reads the SPFx config at configPath, or the one found
// under rootDir when configPath is empty.
func DetectProject(rootDir, configPath string) (*Project, error) {
	if configPath == "" {
		var err error
		if configPath, err = FindProjectConfig(rootDir); err != nil {
			return nil, err
		}
	} else if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(rootDir, configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrNoBundles, configPath)
		}
		return nil, fmt.Errorf("reading %s: %w", configPath, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parsing %s: invalid JSON", configPath)
	}

	abs, err := filepath.Abs(configPath)
	if err != nil {
		abs = configPath
	}
	p := &Project{
		ConfigPath: abs,
		Root:       filepath.Dir(filepath.Dir(abs)),
		Bundles:    LocalizedResources(data),
	}
	p.Name, p.Version = packageInfo(p.Root)
	return p, nil
}

// LocalizedResources lists the bundles of an SPFx config.json in document
// order. Resources resolved from node_modules belong to other packages and
// are left out. The bundle directory is the resource path up to its last
// slash, with the compiled lib/ tree mapped back to src/.
func LocalizedResources(configJSON []byte) []Bundle {
	var bundles []Bundle
	gjson.GetBytes(configJSON, "localizedResources").ForEach(func(key, value gjson.Result) bool {
		path := value.String()
		if strings.Contains(path, "node_modules") {
			return true
		}
		bundles = append(bundles, Bundle{Name: key.String(), Dir: ResourceDir(path)})
		return true
	})
	return bundles
}

// ResourceDir maps a localizedResources value such as
// "lib/webparts/hello/loc/{locale}.js" to its source directory
// "src/webparts/hello/loc".
func ResourceDir(resource string) string {
	dir := resource
	if i := strings.LastIndex(dir, "/"); i >= 0 {
		dir = dir[:i]
	}
	if rest, ok := strings.CutPrefix(dir, "lib/"); ok {
		dir = "src/" + rest
	}
	return dir
}

// packageInfo reads name and version from package.json in dir.
func packageInfo(dir string) (name, version string) {
	name, version = filepath.Base(dir), "0.0.0"

	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil || !gjson.ValidBytes(data) {
		return name, version
	}
	if v := gjson.GetBytes(data, "name"); v.String() != "" {
		name = v.String()
	}
	if v := gjson.GetBytes(data, "version"); v.String() != "" {
		version = v.String()
	}
	return name, version
}
