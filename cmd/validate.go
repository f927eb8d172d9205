package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"conciliador/internal/config"
	"conciliador/internal/logger"
	"conciliador/internal/reconcile"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Reconcile an AFIP export against a Tango export",
	Long: `Reconcile an AFIP invoice export (origin) against a Tango export
(destination).

Both files are read only; the results are written as two new workbooks in
the output directory: a marked-up copy of the destination where mismatched
cells are highlighted, and an origin table with an appended status column
and row coloring.

Column mappings, comparison tolerances and default sheet names come from
config.yaml (searched next to the binary and in the working directory
unless --config points elsewhere).`,
	Example: `  # Reconcile with the configured default sheets
  conciliador validate --origen data/origen.xlsx --destino data/destino.xlsx

  # Override sheets and output directory
  conciliador validate --origen origen.xlsx --destino destino.xlsx \
    --origen-sheet Sheet1 --destino-sheet Hoja1 --output-dir outputs`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().String("origen", "", "Path to the AFIP export (required)")
	validateCmd.Flags().String("destino", "", "Path to the Tango export (required)")
	validateCmd.Flags().String("origen-sheet", "", "Origin sheet name (default: from config)")
	validateCmd.Flags().String("destino-sheet", "", "Destination sheet name (default: from config)")
	validateCmd.Flags().String("output-dir", "outputs", "Directory for the annotated artifacts")
	validateCmd.Flags().String("config", "", "Explicit config.yaml path")

	_ = validateCmd.MarkFlagRequired("origen")
	_ = validateCmd.MarkFlagRequired("destino")
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("validate")

	origenPath, _ := cmd.Flags().GetString("origen")
	destinoPath, _ := cmd.Flags().GetString("destino")
	origenSheet, _ := cmd.Flags().GetString("origen-sheet")
	destinoSheet, _ := cmd.Flags().GetString("destino-sheet")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	log.Info().
		Str("origen", origenPath).
		Str("destino", destinoPath).
		Str("output_dir", outputDir).
		Msg("Starting validation")

	result, err := reconcile.Run(context.Background(), cfg, reconcile.Options{
		OrigenPath:   origenPath,
		DestinoPath:  destinoPath,
		OrigenSheet:  origenSheet,
		DestinoSheet: destinoSheet,
		OutputDir:    outputDir,
	})
	if err != nil {
		return err
	}

	for _, msg := range result.Mensajes {
		fmt.Println(msg)
	}
	fmt.Printf("✅ Archivo de salida (destino): %s\n", result.DestinoValidado)
	fmt.Printf("✅ Archivo de salida (origen) : %s\n", result.OrigenValidado)
	if result.Faltantes > 0 {
		fmt.Printf("⚠️ Hay %d factura(s) de AFIP sin coincidencia en Tango.\n", result.Faltantes)
	} else {
		fmt.Println("✅ Todas las facturas de AFIP existen al menos una vez en Tango.")
	}

	return nil
}
