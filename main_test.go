package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressBar(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })

	tests := []struct {
		name    string
		percent int
		width   int
		want    string
	}{
		{name: "clamps below zero", percent: -10, width: 4, want: "░░░░   0%"},
		{name: "mid range", percent: 50, width: 4, want: "██░░  50%"},
		{name: "clamps above hundred", percent: 120, width: 4, want: "████ 100%"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, progressBar(tc.percent, tc.width), tc.name)
	}
}

func TestLangHelpers(t *testing.T) {
	assert.Equal(t, len("zh-hans-cn"), langColumnWidth([]string{"en-us", "zh-hans-cn", "de-de"}))

	cell := langCell("de-de", 6)
	assert.Contains(t, cell, "\U0001F1E9\U0001F1EA")
	assert.Contains(t, cell, "de-de ")

	assert.Equal(t, "   zz-zz", langCell("zz-zz", 5))
}

func TestRootCommands(t *testing.T) {
	var names []string
	for _, c := range newRootCmd().Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"export", "import", "add-key", "lookup", "status", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestFlagOverrides(t *testing.T) {
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetArgs([]string{"--master", "custom.xlsx", "--bom", "version"})
	require.NoError(t, root.Execute())

	sub, _, err := root.Find([]string{"version"})
	require.NoError(t, err)

	o := flagOverrides(sub)
	require.NotNil(t, o.Master)
	assert.Equal(t, "custom.xlsx", *o.Master)
	require.NotNil(t, o.BOM)
	assert.True(t, *o.BOM)
	assert.Nil(t, o.Delimiter)
}

func run(t *testing.T, args ...string) {
	t.Helper()
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetArgs(args)
	require.NoError(t, root.Execute(), "locsync %s", strings.Join(args, " "))
}

func TestCommandsEndToEnd(t *testing.T) {
	old := out
	out = io.Discard
	t.Cleanup(func() { out = old })

	dir := t.TempDir()
	locDir := filepath.Join(dir, "src", "loc")
	require.NoError(t, os.MkdirAll(locDir, 0755))

	settings := "master: i18n/locales.csv\nbundles:\n  - name: HelloWorld\n    dir: src/loc\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".locsync.yaml"), []byte(settings), 0644))
	en := "define([], function() {\n  return {\n    Title: \"Hello\"\n  }\n});"
	require.NoError(t, os.WriteFile(filepath.Join(locDir, "en-us.js"), []byte(en), 0644))

	run(t, "--root", dir, "export")
	data, err := os.ReadFile(filepath.Join(dir, "i18n", "locales.csv"))
	require.NoError(t, err, "master not written")
	assert.Contains(t, string(data), "Title;Hello;x")

	run(t, "--root", dir, "add-key", "HelloWorld", "Body", "Text")
	run(t, "--root", dir, "lookup", "HelloWorld", "Body")
	run(t, "--root", dir, "export", "HelloWorld")
	run(t, "--root", dir, "import", "all")
	run(t, "--root", dir, "status")

	got, err := os.ReadFile(filepath.Join(locDir, "en-us.js"))
	require.NoError(t, err)
	assert.Equal(t, "define([], function() {\n  return {\n    Body: \"Text\",\n    Title: \"Hello\"\n  }\n});", string(got))
}

func TestStatusWithSpreadsheetMaster(t *testing.T) {
	old := out
	out = io.Discard
	t.Cleanup(func() { out = old })

	dir := t.TempDir()
	locDir := filepath.Join(dir, "src", "loc")
	require.NoError(t, os.MkdirAll(locDir, 0755))

	settings := "master: locales.xlsx\nbundles:\n  - name: HelloWorld\n    dir: src/loc\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".locsync.yaml"), []byte(settings), 0644))
	en := "define([], function() {\n  return {\n    Title: \"Hello\"\n  }\n});"
	require.NoError(t, os.WriteFile(filepath.Join(locDir, "en-us.js"), []byte(en), 0644))

	run(t, "--root", dir, "export")
	run(t, "--root", dir, "status")
	run(t, "--root", dir, "import")
	assert.FileExists(t, filepath.Join(dir, "locales.xlsx"))
}
