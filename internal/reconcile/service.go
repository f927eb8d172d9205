package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"conciliador/internal/config"
	"conciliador/internal/logger"
)

// Options are the per-run inputs of the pipeline. Sheets default to the
// configured ones when empty; OutputDir defaults to "outputs".
type Options struct {
	OrigenPath   string
	DestinoPath  string
	OrigenSheet  string
	DestinoSheet string
	OutputDir    string
}

// Result is what a run produces: both artifact paths, the count of origin
// invoices missing from the destination, and the per-invoice messages.
type Result struct {
	DestinoValidado string
	OrigenValidado  string
	Faltantes       int
	Mensajes        []string
}

// Run executes the whole pipeline: load and canonicalize both exports,
// reconcile, write both annotated artifacts. Each run builds fresh tables
// and results; nothing is shared across invocations.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Result, error) {
	const op = "reconcile.Run"
	log := logger.WithComponent("reconcile")

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	origenSheet := opts.OrigenSheet
	if origenSheet == "" {
		origenSheet = cfg.OrigenSheet
	}
	destinoSheet := opts.DestinoSheet
	if destinoSheet == "" {
		destinoSheet = cfg.DestinoSheet
	}
	outDir := opts.OutputDir
	if outDir == "" {
		outDir = "outputs"
	}

	log.Info().
		Str("origen", opts.OrigenPath).
		Str("destino", opts.DestinoPath).
		Str("origen_sheet", origenSheet).
		Str("destino_sheet", destinoSheet).
		Msg("Starting reconciliation run")

	origen, err := LoadAFIP(opts.OrigenPath, origenSheet, cfg.Mapping.AFIP)
	if err != nil {
		return nil, fmt.Errorf("%s: origin load failed: %w", op, err)
	}
	destino, err := LoadTango(opts.DestinoPath, destinoSheet, cfg.Mapping.Tango)
	if err != nil {
		return nil, fmt.Errorf("%s: destination load failed: %w", op, err)
	}

	destIndex := Index(destino)
	results, messages := Reconcile(origen, destIndex, cfg.Columns)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: failed to create output directory %q: %w", op, outDir, err)
	}

	palette := DefaultPalette()

	destinoOut := filepath.Join(outDir, filepath.Base(cfg.OutputFile))
	destinoWritten, err := MarkDestination(results, opts.DestinoPath, destinoSheet, cfg.Mapping.Tango, cfg.Columns, destinoOut, palette)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	origenOut := filepath.Join(outDir, "origen_validado.xlsx")
	origenWritten, err := WriteOrigenValidado(opts.OrigenPath, origenSheet, cfg.Mapping.AFIP, destIndex, cfg.Columns, origenOut, palette)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := &Result{
		DestinoValidado: destinoWritten,
		OrigenValidado:  origenWritten,
		Faltantes:       CountOmitted(results),
		Mensajes:        messages,
	}

	log.Info().
		Int("invoices", len(origen)).
		Int("faltantes", res.Faltantes).
		Msg("Reconciliation run completed")
	return res, nil
}
