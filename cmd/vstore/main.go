package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vstore/internal/config"
	"github.com/vango-dev/vstore/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦  ╦┌─┐┌┬┐┌─┐┬─┐┌─┐
  ╚╗╔╝└─┐ │ │ │├┬┘├┤
   ╚╝ └─┘ ┴ └─┘┴└─└─┘
`

// cfg is loaded before any subcommand runs.
var cfg = config.New()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "vstore",
		Short: "External state stores for component trees",
		Long: `vstore is a minimal external state store with hook adapters.

Stores hold a value, notify subscribers on change and plug into a
component scheduler through two adapters:

  • UseSyncStore: snapshot comparison with a tearing check
  • UseStore: a component-local copy kept by one subscription

The vstore command runs a demo, an HTTP inspector and a benchmark.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return unknownCommand(cmd, args[0])
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			slog.SetDefault(cfg.Logger(os.Stderr))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Config file (default: vstore.json or vstore.yaml in the working directory)")

	rootCmd.AddCommand(
		demoCmd(),
		inspectCmd(),
		benchCmd(),
		versionCmd(),
	)

	return rootCmd
}

// unknownCommand reports a command name the root command does not know,
// suggesting the closest match.
func unknownCommand(cmd *cobra.Command, name string) error {
	err := errors.New(errors.CodeUnknownCommand).
		WithDetail(fmt.Sprintf("%q is not a vstore command.", name))
	if suggestions := cmd.SuggestionsFor(name); len(suggestions) > 0 {
		return err.WithSuggestion(fmt.Sprintf("Did you mean %q?", suggestions[0]))
	}
	return err.WithSuggestion("Run vstore --help to list the available commands.")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(".")
}

// printBanner prints the vstore ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
