package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"conciliador/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "conciliador",
	Short: "Conciliador - reconcile AFIP and Tango invoice exports",
	Long: `Conciliador compares an AFIP invoice export against a Tango export,
matching invoices by comprobante number and CUIT, checking the monetary
fields under a configurable tolerance, and writing two annotated Excel
artifacts plus a per-invoice summary.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
