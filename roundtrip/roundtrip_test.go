package roundtrip_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/minios-linux/locsync/config"
	"github.com/minios-linux/locsync/extract"
	"github.com/minios-linux/locsync/lockfile"
	"github.com/minios-linux/locsync/roundtrip"
	"github.com/minios-linux/locsync/schema"
	"github.com/minios-linux/locsync/storage"
	"github.com/minios-linux/locsync/table"
)

const bundleName = "HelloWorld"

const declarations = `declare interface IHelloWorldStrings {
  Title: string;
}

declare module 'HelloWorldStrings' {
  const strings: IHelloWorldStrings;
  export = strings;
}
`

func localeFile(entries ...string) string {
	s := "define([], function() {\n  return {\n"
	for i, e := range entries {
		s += "    " + e
		if i < len(entries)-1 {
			s += ","
		}
		s += "\n"
	}
	return s + "  }\n});"
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func newSyncer(t *testing.T, master string) (*roundtrip.Syncer, string) {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		Master:    master,
		Delimiter: ";",
		Extension: "js",
		Bundles:   []config.Bundle{{Name: bundleName, Dir: filepath.Join("src", "loc")}},
	}
	s, err := roundtrip.New(cfg, root, zerolog.Nop())
	require.NoError(t, err)
	s.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s, filepath.Join(root, "src", "loc")
}

func loadGrid(t *testing.T, s *roundtrip.Syncer) [][]string {
	t.Helper()
	tb, err := storage.Load(context.Background(), s.MasterLocation(), table.Options{Delimiter: ';'})
	require.NoError(t, err)
	defer storage.Close(tb)
	return tb.Grid()
}

func TestExportCreatesMaster(t *testing.T) {
	s, dir := newSyncer(t, "locales.csv")
	writeFile(t, filepath.Join(dir, "en-us.js"), localeFile(`Description: "World"`, `Title: "Hello"`))
	writeFile(t, filepath.Join(dir, "de-de.js"), localeFile(`Title: "Hallo"`))
	writeFile(t, filepath.Join(dir, "mystrings.d.ts"), declarations)

	res, err := s.Export(context.Background(), s.Config.Bundles[0])
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Len(t, res.Files, 2)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Updated)
	assert.Empty(t, res.Conflicts)

	assert.Equal(t, [][]string{
		{"key", "de-de", "en-us", bundleName},
		{"Description", "", "World", "x"},
		{"Title", "Hallo", "Hello", "x"},
	}, loadGrid(t, s))

	bundles, files := s.Lock.Stats()
	assert.Equal(t, 1, bundles)
	assert.Equal(t, 2, files)
	assert.FileExists(t, filepath.Join(s.Root, lockfile.LockFileName))
}

func TestExportKeepsMasterOnConflict(t *testing.T) {
	s, dir := newSyncer(t, "locales.csv")
	writeFile(t, s.MasterLocation(), "key;en-us;Other\nTitle;Old;x\n")
	writeFile(t, filepath.Join(dir, "en-us.js"), localeFile(`Title: "New"`, `Zeta: "Z"`))

	res, err := s.Export(context.Background(), s.Config.Bundles[0])
	require.NoError(t, err)

	assert.False(t, res.Created)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "Title", res.Conflicts[0].Key)
	assert.Equal(t, "Old", res.Conflicts[0].Existing)
	assert.Equal(t, "New", res.Conflicts[0].Incoming)

	assert.Equal(t, [][]string{
		{"key", "en-us", "Other", bundleName},
		{"Title", "Old", "x", "x"},
		{"Zeta", "Z", "", "x"},
	}, loadGrid(t, s))
}

func TestExportSkipsFilesWithoutPairs(t *testing.T) {
	s, dir := newSyncer(t, "locales.csv")
	writeFile(t, filepath.Join(dir, "en-us.js"), localeFile(`Title: "Hello"`))
	writeFile(t, filepath.Join(dir, "fr-fr.js"), "// nothing here\n")

	res, err := s.Export(context.Background(), s.Config.Bundles[0])
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "fr-fr.js")}, res.Skipped)
	assert.Equal(t, [][]string{
		{"key", "en-us", "fr-fr", bundleName},
		{"Title", "Hello", "", "x"},
	}, loadGrid(t, s))
}

func TestExportSkipsUnreadableFiles(t *testing.T) {
	s, dir := newSyncer(t, "locales.csv")
	writeFile(t, filepath.Join(dir, "en-us.js"), localeFile(`Title: "Hello"`))
	writeFile(t, filepath.Join(dir, "de-de.js"), localeFile(`Title: "Hallo"`))
	broken := filepath.Join(dir, "fr-fr.js")
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone.js"), broken))

	res, err := s.Export(context.Background(), s.Config.Bundles[0])
	require.NoError(t, err)

	assert.Equal(t, []string{broken}, res.Skipped)
	assert.Equal(t, []string{filepath.Join(dir, "de-de.js"), filepath.Join(dir, "en-us.js")}, res.Files)
	assert.Equal(t, [][]string{
		{"key", "de-de", "en-us", "fr-fr", bundleName},
		{"Title", "Hallo", "Hello", "", "x"},
	}, loadGrid(t, s))
}

func TestExportNamesNewSheetAfterBundle(t *testing.T) {
	s, dir := newSyncer(t, "locales.xlsx")
	writeFile(t, filepath.Join(dir, "en-us.js"), localeFile(`Title: "Hello"`))

	res, err := s.Export(context.Background(), s.Config.Bundles[0])
	require.NoError(t, err)
	require.True(t, res.Created)

	f, err := excelize.OpenFile(s.MasterLocation())
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{bundleName}, f.GetSheetList())

	assert.Equal(t, [][]string{
		{"key", "en-us", bundleName},
		{"Title", "Hello", "x"},
	}, loadGrid(t, s))
}

func TestExportWithoutLocaleFiles(t *testing.T) {
	s, dir := newSyncer(t, "locales.csv")
	require.NoError(t, os.MkdirAll(dir, 0755))

	_, err := s.Export(context.Background(), s.Config.Bundles[0])
	assert.ErrorIs(t, err, roundtrip.ErrNoLocaleFiles)
}

func TestExportTimestamp(t *testing.T) {
	s, dir := newSyncer(t, "locales.csv")
	s.Config.Timestamp = true
	writeFile(t, filepath.Join(dir, "en-us.js"), localeFile(`Title: "Hello"`))

	_, err := s.Export(context.Background(), s.Config.Bundles[0])
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"key", "en-us", bundleName, "timestamp"},
		{"Title", "Hello", "x", "2024-05-01T12:00:00"},
	}, loadGrid(t, s))
}

func TestImportWritesLocaleFilesAndDeclarations(t *testing.T) {
	s, dir := newSyncer(t, "locales.csv")
	writeFile(t, s.MasterLocation(), "key;en-us;de-de;HelloWorld;Other\n"+
		"Alpha;EN-A;;x;x\n"+
		"Title;EN-T;DE-T;x;\n"+
		"Zeta;EN-Z;DE-Z;;x\n")
	writeFile(t, filepath.Join(dir, "mystrings.d.ts"), declarations)

	res, err := s.Import(context.Background(), s.Config.Bundles, false)
	require.NoError(t, err)

	assert.Len(t, res.Written, 2)
	assert.Equal(t, 1, res.Declared)

	assert.Equal(t, "define([], function() {\n  return {\n    Alpha: \"EN-A\",\n    Title: \"EN-T\"\n  }\n});",
		readFile(t, filepath.Join(dir, "en-us.js")))
	assert.Equal(t, "define([], function() {\n  return {\n    Alpha: \"\",\n    Title: \"DE-T\"\n  }\n});",
		readFile(t, filepath.Join(dir, "de-de.js")))

	assert.Equal(t, `declare interface IHelloWorldStrings {
  Alpha: string;
  Title: string;
}

declare module 'HelloWorldStrings' {
  const strings: IHelloWorldStrings;
  export = strings;
}
`, readFile(t, filepath.Join(dir, "mystrings.d.ts")))
}

func TestImportSkipsAmbiguousDeclarations(t *testing.T) {
	s, dir := newSyncer(t, "locales.csv")
	writeFile(t, s.MasterLocation(), "key;en-us;HelloWorld\nAlpha;A;x\nTitle;T;x\n")
	first := filepath.Join(dir, "mystrings.d.ts")
	second := filepath.Join(dir, "other.d.ts")
	writeFile(t, first, declarations)
	writeFile(t, second, declarations)

	res, err := s.Import(context.Background(), s.Config.Bundles, false)
	require.NoError(t, err)

	assert.Zero(t, res.Declared)
	assert.Equal(t, declarations, readFile(t, first))
	assert.Equal(t, declarations, readFile(t, second))

	assert.Equal(t, []string{filepath.Join(dir, "en-us.js")}, res.Written)
	assert.Equal(t, localeFile(`Alpha: "A"`, `Title: "T"`), readFile(t, filepath.Join(dir, "en-us.js")))
}

func TestImportSkipsEditedFiles(t *testing.T) {
	s, dir := newSyncer(t, "locales.csv")
	writeFile(t, s.MasterLocation(), "key;en-us;HelloWorld\nTitle;Hello;x\n")

	path := filepath.Join(dir, "en-us.js")
	s.Lock.Record(bundleName, path, "as synced")
	writeFile(t, path, "edited by hand")

	res, err := s.Import(context.Background(), s.Config.Bundles, false)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, res.Skipped)
	assert.Equal(t, "edited by hand", readFile(t, path))

	res, err = s.Import(context.Background(), s.Config.Bundles, true)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, res.Written)
	assert.Equal(t, localeFile(`Title: "Hello"`), readFile(t, path))

	res, err = s.Import(context.Background(), s.Config.Bundles, false)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, res.Unchanged)
}

func TestImportWithoutMaster(t *testing.T) {
	s, _ := newSyncer(t, "locales.csv")

	_, err := s.Import(context.Background(), s.Config.Bundles, false)
	assert.ErrorIs(t, err, roundtrip.ErrMasterNotFound)
}

func TestRoundTripThroughBucket(t *testing.T) {
	s, dir := newSyncer(t, "mem://roundtrip/locales.xlsx")
	original := localeFile(`Greeting: "Say \"hi\""`, `Title: "Hello"`)
	writeFile(t, filepath.Join(dir, "en-us.js"), original)

	_, err := s.Export(context.Background(), s.Config.Bundles[0])
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "en-us.js")))
	_, err = s.Import(context.Background(), s.Config.Bundles, false)
	require.NoError(t, err)

	got := readFile(t, filepath.Join(dir, "en-us.js"))
	assert.Equal(t, extract.Pairs(original), extract.Pairs(got))
	assert.Equal(t, "Say \"hi\"", extract.Pairs(got)[0].Value)
}

func TestAddKey(t *testing.T) {
	s, dir := newSyncer(t, "locales.csv")
	en := filepath.Join(dir, "en-us.js")
	de := filepath.Join(dir, "de-de.js")
	decl := filepath.Join(dir, "mystrings.d.ts")
	writeFile(t, en, localeFile(`Description: "World"`, `Title: "Hello"`))
	writeFile(t, de, localeFile(`Title: "Hallo"`, `Zeta: "Z"`))
	writeFile(t, decl, declarations)

	res, err := s.AddKey(context.Background(), bundleName, "Zeta", "Last")
	require.NoError(t, err)

	assert.Equal(t, []string{en, decl}, res.Updated)
	assert.Equal(t, []string{de}, res.Skipped)
	assert.Nil(t, res.Export)

	assert.Equal(t, "define([], function() {\n  return {\n    Description: \"World\",\n    Title: \"Hello\",\n    Zeta: \"Last\",\n  }\n});",
		readFile(t, en))
	assert.Contains(t, readFile(t, decl), "  Title: string;\n  Zeta: string;\n}")

	values, err := s.Lookup(bundleName, "Zeta")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"en-us": "Last", "de-de": "Z"}, values)
}

func TestAddKeyAutoExport(t *testing.T) {
	s, dir := newSyncer(t, "locales.csv")
	s.Config.AutoExport = true
	writeFile(t, filepath.Join(dir, "en-us.js"), localeFile(`Title: "Hello"`))

	res, err := s.AddKey(context.Background(), bundleName, "Body", "Text")
	require.NoError(t, err)
	require.NotNil(t, res.Export)
	assert.Equal(t, 2, res.Export.Inserted)

	grid := loadGrid(t, s)
	require.Len(t, grid, 3)
	assert.Equal(t, []string{"Body", "Text", "x"}, grid[1])
}

func TestAddKeyRejectsInvalidInput(t *testing.T) {
	s, dir := newSyncer(t, "locales.csv")
	writeFile(t, filepath.Join(dir, "en-us.js"), localeFile(`Title: "Hello"`))

	_, err := s.AddKey(context.Background(), bundleName, "not a key", "x")
	assert.ErrorIs(t, err, roundtrip.ErrInvalidKey)

	_, err = s.AddKey(context.Background(), "Missing", "Key", "x")
	assert.ErrorIs(t, err, config.ErrUnknownBundle)
}

func TestRenderLocale(t *testing.T) {
	got := roundtrip.RenderLocale([]schema.Record{
		{Key: "Title", Label: "Hello"},
		{Key: "with space", Label: "line\nbreak"},
	})
	assert.Equal(t, "define([], function() {\n  return {\n    Title: \"Hello\",\n    \"with space\": \"line\\nbreak\"\n  }\n});", got)

	pairs := extract.Pairs(got)
	require.Len(t, pairs, 2)
	assert.Equal(t, "with space", pairs[1].Key)
	assert.Equal(t, "line\nbreak", pairs[1].Value)
}

func TestMasterLocation(t *testing.T) {
	s, _ := newSyncer(t, "i18n/locales.csv")
	assert.Equal(t, filepath.Join(s.Root, "i18n", "locales.csv"), s.MasterLocation())

	s.Config.Master = "s3://bucket/locales.csv"
	assert.Equal(t, "s3://bucket/locales.csv", s.MasterLocation())
}
