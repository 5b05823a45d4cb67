package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"guardlint/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "guardlint",
	Short: "Header guard checker and fixer for C/C++ sources",
	Long:  `guardlint preprocesses C/C++ translation units and reports header guards that are missing, misnamed, or lacking an #endif comment, with automatic fixes.`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics per unit")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
