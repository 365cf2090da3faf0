package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/quantmind-br/tslib-build/internal/app"
	"github.com/quantmind-br/tslib-build/internal/bundler"
	"github.com/quantmind-br/tslib-build/internal/config"
	"github.com/quantmind-br/tslib-build/internal/domain"
	"github.com/quantmind-br/tslib-build/internal/utils"
	"github.com/quantmind-br/tslib-build/pkg/version"
)

// EnvPrefix is the environment prefix for command line settings
const EnvPrefix = "TSLIB_BUILD"

var (
	cfgFile string
	verbose bool
	log     *utils.Logger

	// Dependencies for testing
	osStat       = os.Stat
	execLookPath = exec.LookPath
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tslib-build",
	Short: "Build a publishable TypeScript library package",
	Long: `tslib-build compiles a library from ./src into dual CommonJS and ES module
outputs with esbuild, then writes a trimmed package.json with an exports map,
per-subpath package.json files, the license and the readme into the build
directory.

Build settings are read from ts-lib-build.config.json in the project root.`,
	Version:       version.Current().Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("dir", "C", ".", "Project directory containing package.json")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Build config file (default is <dir>/"+config.ConfigFileName+")")
	rootCmd.PersistentFlags().StringP("out", "o", "", "Build directory (overrides the configured buildDir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("log-format", "pretty", "Log format (pretty, json)")

	// Build flags
	rootCmd.Flags().Bool("pack", false, "Write a <name>-<version>.tgz of the build directory")
	rootCmd.Flags().BoolP("quiet", "q", false, "Hide the progress bar")

	// Bind flags to viper
	_ = viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("dir"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("pack", rootCmd.Flags().Lookup("pack"))
	_ = viper.BindPFlag("quiet", rootCmd.Flags().Lookup("quiet"))

	// Add subcommands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func newLogger() *utils.Logger {
	return utils.NewLogger(utils.LoggerOptions{
		Format:  viper.GetString("log_format"),
		Verbose: verbose,
	})
}

func buildOptions(cmd *cobra.Command) app.BuildOptions {
	out, _ := cmd.Flags().GetString("out")
	return app.BuildOptions{
		ProjectDir: viper.GetString("project"),
		BuildDir:   out,
		ConfigFile: cfgFile,
		Pack:       viper.GetBool("pack"),
	}
}

func run(cmd *cobra.Command, args []string) error {
	log = newLogger()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			log.Info().Msg("Shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	var progressOut io.Writer = cmd.ErrOrStderr()
	if viper.GetBool("quiet") || verbose {
		progressOut = nil
	}

	builder := app.NewBuilder(app.BuilderOptions{
		Logger:         log,
		Stdout:         cmd.OutOrStdout(),
		ProgressOutput: progressOut,
	})

	_, err := builder.Build(ctx, buildOptions(cmd))
	return err
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved build configuration",
	Long:  "Merges the defaults, the config file, the environment and the command line, and prints the result as YAML.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log = newLogger()
		builder := app.NewBuilder(app.BuilderOptions{Logger: log})

		m, cfg, err := builder.Resolve(buildOptions(cmd))
		if err != nil {
			return err
		}

		return writeConfig(cmd.OutOrStdout(), m.Name, cfg)
	},
}

// resolvedConfig is the document printed by the config command
type resolvedConfig struct {
	Package string         `yaml:"package"`
	Exports []string       `yaml:"exports"`
	Config  *config.Config `yaml:"config"`
}

func writeConfig(w io.Writer, name string, cfg *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(resolvedConfig{
		Package: name,
		Exports: domain.ExportKeys(cfg.Entries()),
		Config:  cfg,
	}); err != nil {
		return err
	}
	return enc.Close()
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the project and system dependencies",
	Long:  "Verifies that the project can be built: manifest, config file, entry sources and the TypeScript compiler.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log = utils.NewNopLogger()
		out := cmd.OutOrStdout()
		opts := buildOptions(cmd)

		projectDir, err := filepath.Abs(opts.ProjectDir)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, "Checking project...")
		allPassed := true

		builder := app.NewBuilder(app.BuilderOptions{Logger: log})
		m, cfg, err := builder.Resolve(opts)

		// Check 1: package.json and config file
		fmt.Fprint(out, "  package.json: ")
		switch {
		case err == nil:
			fmt.Fprintf(out, "OK (%s)\n", m.Name)
		case domain.IsConfigError(err):
			fmt.Fprintln(out, "OK")
		default:
			fmt.Fprintf(out, "FAILED (%v)\n", err)
			allPassed = false
		}

		fmt.Fprint(out, "  Config file: ")
		configPath := config.ConfigFilePath(projectDir, opts.ConfigFile)
		switch {
		case domain.IsConfigError(err):
			fmt.Fprintf(out, "FAILED (%v)\n", err)
			allPassed = false
		case checkFile(configPath):
			fmt.Fprintf(out, "OK (%s)\n", configPath)
		default:
			fmt.Fprintln(out, "WARN (not found, using defaults)")
		}

		// Check 2: entry sources
		if cfg != nil {
			for _, e := range cfg.Entries() {
				fmt.Fprintf(out, "  Entry %s: ", e.Key)
				if src := findEntrySource(projectDir, e.Locator); src != "" {
					fmt.Fprintf(out, "OK (%s)\n", src)
				} else {
					fmt.Fprintf(out, "FAILED (no %s.* source)\n", e.Locator)
					allPassed = false
				}
			}
		}

		// Check 3: TypeScript compiler
		fmt.Fprint(out, "  TypeScript compiler: ")
		if tsc, err := bundler.FindTSC(projectDir, execLookPath); err == nil {
			fmt.Fprintf(out, "OK (%s)\n", tsc)
		} else {
			fmt.Fprintln(out, "NOT FOUND (declarations will fail for TypeScript entries)")
		}

		// Check 4: Write permissions for the project dir
		fmt.Fprint(out, "  Write permissions: ")
		if checkWritePermissions(projectDir) {
			fmt.Fprintln(out, "OK")
		} else {
			fmt.Fprintln(out, "FAILED")
			allPassed = false
		}

		fmt.Fprintln(out)
		if allPassed {
			fmt.Fprintln(out, "All critical checks passed!")
		} else {
			fmt.Fprintln(out, "Some checks failed. Please resolve the issues above.")
		}
		return nil
	},
}

// entryExts are the source extensions esbuild resolves by default
var entryExts = []string{".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}

// findEntrySource returns the source file behind an entry locator, relative to projectDir
func findEntrySource(projectDir, locator string) string {
	for _, ext := range entryExts {
		rel := filepath.FromSlash(locator + ext)
		if checkFile(filepath.Join(projectDir, rel)) {
			return filepath.ToSlash(filepath.Clean(rel))
		}
	}
	return ""
}

func checkFile(path string) bool {
	info, err := osStat(path)
	return err == nil && !info.IsDir()
}

// checkWritePermissions checks if we can write to dir
func checkWritePermissions(dir string) bool {
	f, err := os.CreateTemp(dir, ".tslib-build-write-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Current())
	},
}
