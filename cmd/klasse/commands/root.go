// cmd/klasse/commands/root.go
package commands

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "klasse",
	Short:         "Inspect JVM class files and their SSA lifting",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(liftCmd)
	rootCmd.AddCommand(pathsCmd)
}

// colorize wraps s in an ANSI style when stdout is a terminal.
func colorize(style, s string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return s
	}
	return style + s + "\x1b[0m"
}

func heading(s string) string { return colorize("\x1b[1m", s) }
func dim(s string) string     { return colorize("\x1b[2m", s) }

func fail(err error) error {
	fmt.Fprintf(os.Stderr, "klasse: %v\n", err)
	return err
}
