// locsync keeps a translation master file in sync with the locale files of
// SharePoint Framework solutions.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/minios-linux/locsync/config"
	"github.com/minios-linux/locsync/extract"
	"github.com/minios-linux/locsync/i18n"
	"github.com/minios-linux/locsync/langmeta"
	"github.com/minios-linux/locsync/roundtrip"
	"github.com/minios-linux/locsync/schema"
	"github.com/minios-linux/locsync/storage"
	"github.com/minios-linux/locsync/table"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	headingColor = color.New(color.FgBlue, color.Bold)
	okColor      = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
)

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir   string
	master    string
	delimiter string
	bom       bool
	verbose   bool
)

// out receives command reports; logs go to stderr through zerolog.
var out io.Writer = os.Stderr

func setupLogging(verbose bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "locsync",
		Short: i18n.T("Synchronize a translation master file with SPFx locale files"),
		Long: `locsync keeps a master file (CSV, TSV or XLSX) in sync with the locale
files of a SharePoint Framework solution, in both directions.

Bundles are read from .locsync.yaml (or .locsync.toml) in the project root,
or from the localizedResources of config/config.json.

Commands:
  export      Merge locale files into the master file
  import      Regenerate locale files from the master file
  add-key     Add a key to every locale file of a bundle
  lookup      Show the value of a key in every locale
  status      Show configuration, master schema and sync state`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(verbose)
		},
	}

	// Global persistent flags, inherited by all subcommands
	pf := root.PersistentFlags()
	pf.StringVar(&rootDir, "root", ".", i18n.T("Project root directory"))
	pf.StringVar(&master, "master", "", i18n.T("Master file path or bucket URL (default locales.csv)"))
	pf.StringVar(&delimiter, "delimiter", "", i18n.T("Field delimiter of delimited master files"))
	pf.BoolVar(&bom, "bom", false, i18n.T("Write a UTF-8 byte-order mark to delimited master files"))
	pf.BoolVarP(&verbose, "verbose", "v", false, i18n.T("Enable debug logging"))

	root.AddCommand(
		newExportCmd(),
		newImportCmd(),
		newAddKeyCmd(),
		newLookupCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	setupLogging(false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg(i18n.T("locsync failed"))
		os.Exit(1)
	}
}

// flagOverrides returns the configuration overrides of the global flags
// that were set on the command line.
func flagOverrides(cmd *cobra.Command) config.Overrides {
	var o config.Overrides
	flags := cmd.Flags()
	if flags.Changed("master") {
		o.Master = &master
	}
	if flags.Changed("delimiter") {
		o.Delimiter = &delimiter
	}
	if flags.Changed("bom") {
		o.BOM = &bom
	}
	return o
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(rootDir, flagOverrides(cmd))
	if err != nil {
		return nil, err
	}
	if cfg.SettingsFile != "" {
		log.Debug().Str("file", cfg.SettingsFile).Msg("settings loaded")
	}
	if cfg.Project != nil {
		log.Debug().Str("config", cfg.Project.ConfigPath).Int("bundles", len(cfg.Bundles)).Msg("bundles detected from project config")
	}
	return cfg, nil
}

func newSyncer(cmd *cobra.Command) (*roundtrip.Syncer, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return roundtrip.New(cfg, rootDir, log.Logger)
}

func bundleArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// ---------------------------------------------------------------------------
// export
// ---------------------------------------------------------------------------

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [bundle|all]",
		Short: i18n.T("Merge locale files into the master file"),
		Long: `Read every locale file of the selected bundles and merge the keys into
the master file. The master file is created when missing. Values already in
the master win over differing values in locale files; every such conflict
is reported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSyncer(cmd)
			if err != nil {
				return err
			}
			bundles, err := s.Config.Select(bundleArg(args))
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), s, bundles)
		},
	}
}

func runExport(ctx context.Context, s *roundtrip.Syncer, bundles []config.Bundle) error {
	failed := 0
	for _, b := range bundles {
		res, err := s.Export(ctx, b)
		if err != nil {
			log.Error().Err(err).Str("bundle", b.Name).Msg(i18n.T("export failed"))
			failed++
			continue
		}
		okColor.Fprintf(out, i18n.T("Exported %s: %d inserted, %d updated")+"\n", b.Name, res.Inserted, res.Updated)
		if n := len(res.Conflicts); n > 0 {
			warnColor.Fprintf(out, "  "+i18n.N("%d conflict, master value kept", "%d conflicts, master values kept", n)+"\n", n)
		}
		if n := len(res.Skipped); n > 0 {
			warnColor.Fprintf(out, "  "+i18n.N("%d file skipped", "%d files skipped", n)+"\n", n)
		}
	}
	if failed > 0 {
		return fmt.Errorf(i18n.N("%d bundle failed", "%d bundles failed", failed), failed)
	}
	return nil
}

// ---------------------------------------------------------------------------
// import
// ---------------------------------------------------------------------------

func newImportCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import [bundle|all]",
		Short: i18n.T("Regenerate locale files from the master file"),
		Long: `Write one locale file per locale for every selected bundle, holding the
keys marked for that bundle in the master file, and declare new keys in the
bundle's type-declaration file.

Locale files edited since the last export or import are left alone unless
--force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSyncer(cmd)
			if err != nil {
				return err
			}
			bundles, err := s.Config.Select(bundleArg(args))
			if err != nil {
				return err
			}

			res, err := s.Import(cmd.Context(), bundles, force)
			if err != nil {
				return err
			}
			okColor.Fprintf(out, i18n.N("Imported %d locale file", "Imported %d locale files", len(res.Written))+"\n", len(res.Written))
			if n := len(res.Unchanged); n > 0 {
				fmt.Fprintf(out, "  "+i18n.N("%d file unchanged", "%d files unchanged", n)+"\n", n)
			}
			if res.Declared > 0 {
				fmt.Fprintf(out, "  "+i18n.N("%d key declared", "%d keys declared", res.Declared)+"\n", res.Declared)
			}
			if n := len(res.Skipped); n > 0 {
				warnColor.Fprintf(out, "  "+i18n.N("%d file skipped", "%d files skipped", n)+"\n", n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, i18n.T("Overwrite locale files edited since the last sync"))
	return cmd
}

// ---------------------------------------------------------------------------
// add-key
// ---------------------------------------------------------------------------

func newAddKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-key <bundle> <key> <value>",
		Short: i18n.T("Add a key to every locale file of a bundle"),
		Long: `Insert "key: value" at its sorted position into every locale file of the
bundle and declare the key in the bundle's type-declaration file. Files that
already define the key are left alone. With auto_export enabled, the bundle
is exported afterwards.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSyncer(cmd)
			if err != nil {
				return err
			}
			res, err := s.AddKey(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			for _, f := range res.Updated {
				okColor.Fprintf(out, i18n.T("Key %s added to %s")+"\n", args[1], relPath(f))
			}
			if res.Export != nil {
				okColor.Fprintf(out, i18n.T("Exported %s: %d inserted, %d updated")+"\n", res.Export.Bundle, res.Export.Inserted, res.Export.Updated)
			}
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// lookup
// ---------------------------------------------------------------------------

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <bundle> <key>",
		Short: i18n.T("Show the value of a key in every locale"),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSyncer(cmd)
			if err != nil {
				return err
			}
			values, err := s.Lookup(args[0], args[1])
			if err != nil {
				return err
			}
			if len(values) == 0 {
				warnColor.Fprintf(out, i18n.T("No translations found for %s")+"\n", args[1])
				return nil
			}

			locales := make([]string, 0, len(values))
			for l := range values {
				locales = append(locales, l)
			}
			sort.Strings(locales)
			width := langColumnWidth(locales)
			for _, l := range locales {
				fmt.Fprintf(out, "  %s  %s\n", langCell(l, width), values[l])
			}
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// status (read-only)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: i18n.T("Show configuration, master schema and sync state"),
		Long: `Show the resolved configuration, the bundles with their locale files,
the locales and bundles of the master file and the lock file summary.
Does not modify any files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSyncer(cmd)
			if err != nil {
				return err
			}
			return runStatus(cmd.Context(), s)
		},
	}
}

func runStatus(ctx context.Context, s *roundtrip.Syncer) error {
	cfg := s.Config

	headingColor.Fprintf(out, "\n%s\n", i18n.T("Project"))
	fmt.Fprintln(out, strings.Repeat("─", 60))
	absRoot, _ := filepath.Abs(s.Root)
	fmt.Fprintf(out, "  %-12s %s\n", i18n.T("Root:"), absRoot)
	if cfg.Project != nil {
		fmt.Fprintf(out, "  %-12s %s %s\n", i18n.T("Solution:"), cfg.Project.Name, cfg.Project.Version)
		fmt.Fprintf(out, "  %-12s %s\n", i18n.T("Config:"), cfg.Project.ConfigPath)
	}
	if cfg.SettingsFile != "" {
		fmt.Fprintf(out, "  %-12s %s\n", i18n.T("Settings:"), cfg.SettingsFile)
	}
	fmt.Fprintf(out, "  %-12s %s\n", i18n.T("Master:"), s.MasterLocation())
	fmt.Fprintf(out, "  %-12s %q\n", i18n.T("Delimiter:"), string(cfg.Delim()))

	headingColor.Fprintf(out, "\n%s\n", i18n.T("Bundles"))
	fmt.Fprintln(out, strings.Repeat("─", 60))
	for _, b := range cfg.Bundles {
		files, err := extract.FindLocaleFiles(s.Dir(b), cfg.Extension)
		if err != nil {
			warnColor.Fprintf(out, "  %-20s %s  (%s)\n", b.Name, b.Dir, i18n.T("missing"))
			continue
		}
		fmt.Fprintf(out, "  %-20s %s  %s\n", b.Name, b.Dir, fmt.Sprintf(i18n.N("%d locale file", "%d locale files", len(files)), len(files)))
	}

	headingColor.Fprintf(out, "\n%s\n", i18n.T("Master file"))
	fmt.Fprintln(out, strings.Repeat("─", 60))
	t, err := storage.Load(ctx, s.MasterLocation(), table.Options{Delimiter: cfg.Delim(), BOM: cfg.BOM})
	switch {
	case errors.Is(err, storage.ErrNotFound):
		fmt.Fprintf(out, "  %s\n", i18n.T("Not created yet. Run 'locsync export' to create it."))
	case err != nil:
		return err
	default:
		defer storage.Close(t)
		if err := showMasterStats(t); err != nil {
			return err
		}
	}

	headingColor.Fprintf(out, "\n%s\n", i18n.T("Lock file"))
	fmt.Fprintln(out, strings.Repeat("─", 60))
	fmt.Fprintf(out, "  %s\n\n", s.Lock.Summary())
	return nil
}

func showMasterStats(t table.Store) error {
	sch, err := schema.Resolve(t)
	if err != nil {
		return err
	}
	total := 0
	for row := 1; row < t.RowCount(); row++ {
		if strings.TrimSpace(t.Value(row, sch.Key)) != "" {
			total++
		}
	}
	fmt.Fprintf(out, "  %s\n\n", fmt.Sprintf(i18n.N("%d key", "%d keys", total), total))

	names := make([]string, len(sch.Locales))
	for i, l := range sch.Locales {
		names[i] = l.Name
	}
	width := langColumnWidth(names)
	for _, l := range sch.Locales {
		translated := 0
		for row := 1; row < t.RowCount(); row++ {
			if strings.TrimSpace(t.Value(row, sch.Key)) != "" && t.Value(row, l.Index) != "" {
				translated++
			}
		}
		percent := 0
		if total > 0 {
			percent = translated * 100 / total
		}
		fmt.Fprintf(out, "  %s  %s  %d/%d\n", langCell(l.Name, width), progressBar(percent, 20), translated, total)
	}

	fmt.Fprintln(out)
	counts := schema.Keys(t, sch)
	for _, b := range sch.Bundles {
		fmt.Fprintf(out, "  %-20s %s\n", b.Name, fmt.Sprintf(i18n.N("%d key", "%d keys", counts[b.Name]), counts[b.Name]))
	}
	return nil
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "locsync version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit:    %s\n", commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Output helpers
// ---------------------------------------------------------------------------

// progressBar renders percent as a bar of width cells followed by the
// percentage, red below 50%, yellow below 100%, green when complete.
func progressBar(percent, width int) string {
	percent = max(0, min(100, percent))
	filled := percent * width / 100

	c := color.New(color.FgRed)
	switch {
	case percent >= 100:
		c = color.New(color.FgGreen)
	case percent >= 50:
		c = color.New(color.FgYellow)
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return c.Sprint(bar) + fmt.Sprintf(" %3d%%", percent)
}

func langColumnWidth(locales []string) int {
	width := 0
	for _, l := range locales {
		width = max(width, len(l))
	}
	return width
}

// langCell renders a locale as "<flag> <tag padded to width> <name>".
func langCell(locale string, width int) string {
	meta := langmeta.Resolve(locale)
	flag := meta.Flag
	if flag == "" {
		flag = "  "
	}
	cell := fmt.Sprintf("%s %-*s", flag, width, locale)
	if meta.Name != locale {
		cell += " " + meta.Name
	}
	return cell
}

// relPath shortens path relative to the project root for display.
func relPath(path string) string {
	if rel, err := filepath.Rel(rootDir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
