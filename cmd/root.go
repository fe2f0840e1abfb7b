/*
Copyright © 2024 Jake Rogers <code@supportoss.org>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/JakeTRogers/importBuddy/checker"
	"github.com/JakeTRogers/importBuddy/loader"
	"github.com/JakeTRogers/importBuddy/logger"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configName = ".importBuddy"
	configType = "yaml"
)

var (
	colorEnabled               bool
	saveEnabled                bool
	parentPackage              string
	submodules                 []string
	loaderName                 string
	pythonInterpreter          string
	pythonPath                 []string
	pluginDir                  string
	timeout                    time.Duration
	outputFormat               string
	v                          = viper.New()
	l                          = logger.GetLogger()
	replaceHyphenWithCamelCase = false
)

// errSubmodulesFailed is returned by the root command when at least one
// submodule failed to load, so Execute exits non-zero.
var errSubmodulesFailed = errors.New("submodules failed to load")

// outputFormats lists the accepted values of --output.
var outputFormats = []string{"plain", "table", "yaml", "json"}

// loaderNames lists the accepted values of --loader.
var loaderNames = []string{"python", "plugin", "static"}

// getConfigPath returns the directory holding the config file.
func getConfigPath() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}

// initializeConfig initializes the configuration for the root command.
// It sets up the configuration file path, reads the config file if it exists,
// creates a new config file if it doesn't exist, and binds command flags to environment variables.
func initializeConfig(cmd *cobra.Command) error {
	verboseCount, _ := cmd.Flags().GetCount("verbose")
	logger.SetLogLevel(verboseCount)
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	configPath := getConfigPath()
	l.Debug().Str("configPath", configPath).Send()
	v.AddConfigPath(configPath)

	// Attempt to read the config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Create config file if it doesn't exist
			if err := v.SafeWriteConfig(); err != nil {
				l.Error().Err(err).Send()
			} else {
				l.Info().Str("configFile", filepath.Join(configPath, configName+"."+configType)).Msg("New config file created:")
			}
		} else {
			// Config file was found but another error was produced
			l.Error().Str("viper", err.Error()).Send()
		}
	}

	// Flags bind to environment variables with a prefix, e.g. --plugin-dir binds to IMPORTBUDDY_PLUGIN_DIR.
	v.SetEnvPrefix("IMPORTBUDDY")

	// Environment variables can't have dashes in them, so bind them to their equivalent keys with underscores
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.AutomaticEnv()

	// Bind the current command's flags to viper
	bindFlags(cmd, v)

	return nil
}

// bindFlags binds the command flags to the corresponding values in the viper configuration.
// A value from the config file or environment is applied only when the flag was not set on the command line.
// If the value is an array, each element is added to the flag.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		configName := f.Name
		// Since viper does case-insensitive comparisons, we only need to remove the hyphens for camelCase.
		if replaceHyphenWithCamelCase {
			configName = strings.ReplaceAll(f.Name, "-", "")
		}

		l.Trace().Str("flag", f.Name).Str("configName", configName).Msg("Binding flag to viper config:")
		if !f.Changed && v.IsSet(configName) {
			val := v.Get(configName)
			if arr, ok := val.([]interface{}); ok {
				for _, v := range arr {
					if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v)); err != nil {
						l.Error().Str("viper", err.Error()).Send()
					}
				}
			} else {
				for _, s := range flagValues(f, val) {
					if err := cmd.Flags().Set(f.Name, s); err != nil {
						l.Error().Str("viper", err.Error()).Send()
					}
				}
			}
		}
	})
}

// flagValues returns the values to set on f for a config value that is not a
// list. An environment variable always arrives as one string, so repeatable
// flags take it as a whitespace separated list.
func flagValues(f *pflag.Flag, val interface{}) []string {
	if vals, ok := val.([]string); ok {
		return vals
	}
	s := fmt.Sprintf("%v", val)
	if f.Value.Type() == "stringArray" {
		return strings.Fields(s)
	}
	return []string{s}
}

// deduplicateSlice removes duplicate elements from a string slice, keeping the first occurrence of each.
func deduplicateSlice(s []string) []string {
	var result []string
	seen := make(map[string]bool, len(s))
	for _, v := range s {
		if seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}

// contains reports whether s holds value.
func contains(s []string, value string) bool {
	for _, v := range s {
		if v == value {
			return true
		}
	}
	return false
}

// newLoader builds the loader selected by --loader.
func newLoader(name string) (loader.Loader, error) {
	switch name {
	case "python":
		p := loader.NewPython(pythonInterpreter)
		p.PythonPath = pythonPath
		l.Debug().Str("interpreter", p.Interpreter).Strs("pythonPath", p.PythonPath).Msg("using python loader")
		return p, nil
	case "plugin":
		if pluginDir == "" {
			return nil, errors.New("--plugin-dir is required with --loader plugin")
		}
		l.Debug().Str("dir", pluginDir).Msg("using plugin loader")
		return loader.NewPlugin(pluginDir), nil
	case "static":
		available := v.GetStringSlice("static.available")
		l.Debug().Strs("available", available).Msg("using static loader")
		return loader.NewStatic(available...), nil
	default:
		return nil, errors.Errorf("unknown loader %q, expected one of %s", name, strings.Join(loaderNames, ", "))
	}
}

// validateSettings checks flag values, after config and environment have been
// applied, before any submodule is attempted.
func validateSettings(cmd *cobra.Command, args []string) error {
	if !contains(outputFormats, outputFormat) {
		return errors.Errorf("unknown output format %q, expected one of %s", outputFormat, strings.Join(outputFormats, ", "))
	}
	if !contains(loaderNames, loaderName) {
		return errors.Errorf("unknown loader %q, expected one of %s", loaderName, strings.Join(loaderNames, ", "))
	}
	if timeout < 0 {
		return errors.Errorf("timeout must not be negative, got %s", timeout)
	}

	// fall back to the canonical list, then drop repeats so the checker sees unique names
	if len(submodules) == 0 {
		submodules = append([]string{}, submodulesAll...)
	}
	for i, name := range submodules {
		submodules[i] = strings.TrimSpace(name)
	}
	submodules = deduplicateSlice(submodules)

	return nil
}

// saveUserPreferences writes the current selections to the config file.
func saveUserPreferences() {
	v.Set("package", parentPackage)
	v.Set("name", submodules)
	v.Set("loader", loaderName)
	v.Set("output", outputFormat)
	v.Set("color", colorEnabled)
	if err := v.WriteConfig(); err != nil {
		l.Error().Str("viper", err.Error()).Send()
	}
}

// runChecks builds the loader and checker from the flags and runs every check.
func runChecks(ctx context.Context, opts ...checker.Option) (*checker.Report, error) {
	ld, err := newLoader(loaderName)
	if err != nil {
		return nil, err
	}
	opts = append([]checker.Option{checker.WithTimeout(timeout)}, opts...)
	return checker.New(ld, opts...).CheckAll(ctx, parentPackage, submodules)
}

// runRoot executes the root command.
func runRoot(cmd *cobra.Command, args []string) error {
	for k, v := range v.AllSettings() {
		l.Debug().Str(k, fmt.Sprintf("%v", v)).Msg("viper:")
	}

	if saveEnabled {
		saveUserPreferences()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := runChecks(ctx)
	if err != nil {
		return err
	}

	// past this point a failure is a report, not a usage problem
	cmd.SilenceUsage = true
	if err := printReport(cmd.OutOrStdout(), report, outputFormat, colorEnabled); err != nil {
		return err
	}
	return reportError(report)
}

// reportError maps a report to the command's result.
func reportError(report *checker.Report) error {
	if report.OK {
		return nil
	}
	return errors.Wrapf(errSubmodulesFailed, "%d of %d", len(report.Failed()), len(report.Results))
}

// formatSummary returns the one-line summary printed after the results.
func formatSummary(report *checker.Report) string {
	loaded, total := report.Counts()
	return fmt.Sprintf("%d/%d submodules loaded from %s", loaded, total, report.Package)
}

// formatResultLine returns the PASS/FAIL line for a single result.
func formatResultLine(res checker.Result) string {
	if res.OK() {
		return fmt.Sprintf("PASS %s", res.Name)
	}
	return fmt.Sprintf("FAIL %s: %s", res.Name, res.Detail)
}

// printReport renders report to w in the given format.
func printReport(w io.Writer, report *checker.Report, format string, colorEnabled bool) error {
	switch format {
	case "plain":
		for _, res := range report.Results {
			fmt.Fprintln(w, formatResultLine(res))
		}
		fmt.Fprintln(w, formatSummary(report))
	case "table":
		printReportTable(w, report, colorEnabled)
	case "yaml":
		out, err := report.YAML()
		if err != nil {
			return errors.Wrap(err, "encoding report as yaml")
		}
		_, err = w.Write(out)
		return err
	case "json":
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return errors.Wrap(err, "encoding report as json")
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	default:
		return errors.Errorf("unknown output format %q", format)
	}
	return nil
}

// configureColoredTable applies the colored table style.
func configureColoredTable(t table.Writer) {
	t.SetStyle(table.StyleColoredBlackOnBlueWhite)
	t.Style().Title.Colors = text.Colors{text.BgHiBlue, text.FgHiWhite}
	t.Style().Color.RowAlternate = text.Colors{text.Color(30), text.Color(47)}
}

// configurePlainTable applies the uncolored table style.
func configurePlainTable(t table.Writer) {
	t.SetStyle(table.StyleRounded)
	t.Style().Options.DoNotColorBordersAndSeparators = true
	t.Style().Options.SeparateColumns = true
	t.Style().Options.SeparateRows = false
}

// formatStatus renders a status cell, colored when enabled.
func formatStatus(res checker.Result, colorEnabled bool) string {
	label := "PASS"
	colors := text.Colors{text.FgHiGreen, text.Bold}
	if !res.OK() {
		label = "FAIL"
		colors = text.Colors{text.FgHiRed, text.Bold}
	}
	if !colorEnabled {
		return label
	}
	return colors.Sprint(label)
}

// printReportTable renders the report as a table with one row per submodule
// and the summary as caption.
func printReportTable(w io.Writer, report *checker.Report, colorEnabled bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	if colorEnabled {
		configureColoredTable(t)
	} else {
		configurePlainTable(t)
	}
	t.Style().Title.Align = text.AlignCenter
	t.SetTitle("Submodules of %s", report.Package)
	t.AppendHeader(table.Row{"#", "Submodule", "Status", "Detail"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: 80},
	})

	for i, res := range report.Results {
		t.AppendRow(table.Row{i + 1, res.Name, formatStatus(res, colorEnabled), res.Detail})
	}
	t.SetCaption(formatSummary(report))

	t.Render()
}

// completeSubmodule offers the canonical names for --name.
func completeSubmodule(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return submodulesAll, cobra.ShellCompDirectiveNoFileComp
}

// persistentPreRunE binds cobra and viper for every command.
func persistentPreRunE(cmd *cobra.Command, args []string) error {
	return initializeConfig(cmd)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "importBuddy",
	Version: "v1.0.0",
	Short:   "Check that every submodule of a binding package can be loaded",
	Long: `importBuddy attempts to load each submodule of a package, by default the submodules of the OpenCMISS Zinc Python
binding (opencmiss.zinc), and prints PASS or FAIL for each one. Every submodule is attempted even when an earlier one
fails, so a single run shows everything that is broken. The exit code is 0 only when every submodule loaded.

Submodules are loaded through a loader:

  - python: imports parent.name in a fresh interpreter (default)
  - plugin: opens <plugin-dir>/parent/name.so as a Go plugin and runs its Init symbol
  - static: treats the names in the static.available config key as loadable

Settings can be stored in the configuration file with --save:

  - Linux/Mac: $HOME/.config/.importBuddy.yaml
  - Windows: %APPDATA%\.importBuddy.yaml

Examples:

  # Check every Zinc submodule with python3:
  $ importBuddy

  # Check a few submodules using a specific interpreter and PYTHONPATH:
  $ importBuddy --python /opt/venv/bin/python --python-path /opt/zinc/lib -n context -n field -n region

  # Show results as a table, or as YAML for scripts:
  $ importBuddy --output table --color
  $ importBuddy --output yaml

  # Watch the checks run interactively:
  $ importBuddy interactive

Learn More:
  To submit feature requests, bugs, or to check for new versions, visit https://github.com/JakeTRogers/importBuddy`,
	Args:              cobra.NoArgs,
	PersistentPreRunE: persistentPreRunE,
	PreRunE:           validateSettings,
	RunE:              runRoot,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`{{printf "importBuddy %s\n" .Version}}`)
	rootCmd.PersistentFlags().CountP("verbose", "v", "``increase logging verbosity, 1=warn, 2=info, 3=debug, 4=trace")
	addCheckFlags(rootCmd.Flags())
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "plain", "``output format: "+strings.Join(outputFormats, ", "))
	rootCmd.Flags().BoolVarP(&colorEnabled, "color", "c", false, "enable colorized table output. If previously enabled, use --color=false to disable it.")
	rootCmd.Flags().BoolVar(&saveEnabled, "save", false, "save package, names, loader and output settings to the config file")
	if err := rootCmd.RegisterFlagCompletionFunc("name", completeSubmodule); err != nil {
		l.Error().Err(err).Send()
	}

	rootCmd.AddCommand(NewListCmd())
	rootCmd.AddCommand(NewInteractiveCmd())
}

// addCheckFlags registers the flags that select what is checked and how.
func addCheckFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&parentPackage, "package", "p", defaultPackage, "``parent package whose submodules are checked")
	fs.StringArrayVarP(&submodules, "name", "n", []string{}, "``submodule name to check. Can be used multiple times. Defaults to every Zinc submodule.")
	fs.StringVarP(&loaderName, "loader", "l", "python", "``how submodules are loaded: "+strings.Join(loaderNames, ", "))
	fs.StringVar(&pythonInterpreter, "python", "python3", "``python interpreter used by the python loader")
	fs.StringArrayVar(&pythonPath, "python-path", []string{}, "``directory prepended to PYTHONPATH. Can be used multiple times.")
	fs.StringVar(&pluginDir, "plugin-dir", "", "``root directory of the plugin loader")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "``time allowed for each load attempt, 0 disables the limit")
}
