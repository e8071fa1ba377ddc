// Package main implements the cinder CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cinder/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "cinder",
	Short: "Cinder IR optimizer and toolchain",
	Long:  `Cinder optimizes, verifies and prints serialized IR modules`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(optCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// colorEnabled resolves the --color flag against the output terminal.
func colorEnabled(cmd *cobra.Command) bool {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false
	}
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stdout)
	}
}
