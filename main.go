package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"KeyPacer/config"
	"KeyPacer/hotkey"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "keypacer",
	Short: "Press a key at an adjustable pace",
	Long: `KeyPacer presses a key (Page Down by default) over and over, waiting a
tunable interval between presses and stopping after a round budget.

The pace is adjusted at runtime with global numpad hotkeys; run
"keypacer bindings" to list them.`,
	SilenceUsage: true,
	RunE:         runPacer,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start pacing (the default command)",
	RunE:  runPacer,
}

var bindingsCmd = &cobra.Command{
	Use:   "bindings",
	Short: "List the global hotkeys and the command each one triggers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "HOTKEY\tCOMMAND")
		for _, b := range hotkey.DefaultBindings() {
			fmt.Fprintf(w, "%s\t%s\n", b, b.Command)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Configuration file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Log key presses instead of sending them")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(bindingsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
