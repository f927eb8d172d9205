// Package config loads the YAML document describing how the AFIP and Tango
// exports map onto the canonical invoice schema, plus the comparison policy.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"conciliador/internal/logger"
	"conciliador/internal/normalize"
)

// ErrConfigNotFound is returned when no config.yaml exists at any candidate
// location.
var ErrConfigNotFound = errors.New("config.yaml not found")

// DefaultBuildPattern formats letter, point of sale and sequence number into
// the canonical invoice number (e.g. A000100000916).
const DefaultBuildPattern = "%s%04d%08d"

// Config is the full configuration document.
type Config struct {
	OrigenSheet  string   `yaml:"origen_sheet"`
	DestinoSheet string   `yaml:"destino_sheet"`
	OutputFile   string   `yaml:"output_file"`
	Mapping      Mapping  `yaml:"mapping"`
	Columns      []Column `yaml:"columns"`
}

// Mapping groups the per-source column resolution keys.
type Mapping struct {
	AFIP  AFIPMapping  `yaml:"afip"`
	Tango TangoMapping `yaml:"tango"`
}

// AFIPMapping resolves the origin export. Keys may be header names or
// column letters. The invoice number is derived from tipo + pv + num via
// BuildPattern rather than read from a single column.
type AFIPMapping struct {
	Tipo         string   `yaml:"tipo"`
	PV           string   `yaml:"pv"`
	Num          string   `yaml:"num"`
	CUIT         string   `yaml:"cuit"`
	ExchangeRate string   `yaml:"exchange_rate"`
	BuildPattern string   `yaml:"build_pattern"`
	Importes     Importes `yaml:"importes"`
}

// TangoMapping resolves the destination export, which carries the invoice
// number directly.
type TangoMapping struct {
	NCompColumn string   `yaml:"n_comp_column"`
	CUIT        string   `yaml:"cuit"`
	Importes    Importes `yaml:"importes"`
}

// Importes maps the four monetary fields.
type Importes struct {
	Exento string `yaml:"exento"`
	Neto   string `yaml:"neto"`
	IVA    string `yaml:"iva"`
	Total  string `yaml:"total"`
}

// Column is one compared field with its coercion kind and numeric tolerance.
type Column struct {
	Name      string         `yaml:"name"`
	Type      normalize.Kind `yaml:"type"`
	Tolerance float64        `yaml:"tolerance"`
}

// DefaultColumns is the comparison set used when the document omits
// `columns`: the four monetary fields at one-cent tolerance.
func DefaultColumns() []Column {
	return []Column{
		{Name: "IMP_EXENTO", Type: normalize.KindNumber, Tolerance: 0.01},
		{Name: "IMP_NETO", Type: normalize.KindNumber, Tolerance: 0.01},
		{Name: "IMP_IVA", Type: normalize.KindNumber, Tolerance: 0.01},
		{Name: "IMP_TOTAL", Type: normalize.KindNumber, Tolerance: 0.01},
	}
}

// Load reads config.yaml from the first existing candidate location:
// the explicit path when given, then the executable's directory, then the
// working directory. Validation happens before any spreadsheet is touched.
func Load(explicit string) (*Config, error) {
	const op = "config.Load"
	log := logger.WithComponent("config")

	var candidates []string
	if explicit != "" {
		candidates = append(candidates, explicit)
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "config.yaml"))
	}
	candidates = append(candidates, "config.yaml")

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		cfg, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %q: %w", op, path, err)
		}
		log.Debug().Str("path", path).Msg("Configuration loaded")
		return cfg, nil
	}
	return nil, fmt.Errorf("%s: %w (searched: %v)", op, ErrConfigNotFound, candidates)
}

// Parse unmarshals and validates a configuration document, applying
// defaults for everything the document may omit.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.OrigenSheet == "" {
		c.OrigenSheet = "Sheet1"
	}
	if c.DestinoSheet == "" {
		c.DestinoSheet = "Hoja1"
	}
	if c.OutputFile == "" {
		c.OutputFile = "destino_validado.xlsx"
	}
	if c.Mapping.AFIP.BuildPattern == "" {
		c.Mapping.AFIP.BuildPattern = DefaultBuildPattern
	}
	if c.Mapping.Tango.NCompColumn == "" {
		c.Mapping.Tango.NCompColumn = "N_COMP"
	}
	if c.Mapping.Tango.CUIT == "" {
		c.Mapping.Tango.CUIT = "IDENTIFTRI"
	}
	t := &c.Mapping.Tango.Importes
	if t.Exento == "" {
		t.Exento = "IMP_EXENTO"
	}
	if t.Neto == "" {
		t.Neto = "IMP_NETO"
	}
	if t.IVA == "" {
		t.IVA = "IMP_IVA"
	}
	if t.Total == "" {
		t.Total = "IMP_TOTAL"
	}
	if len(c.Columns) == 0 {
		c.Columns = DefaultColumns()
	}
	for i := range c.Columns {
		if c.Columns[i].Type == "" {
			c.Columns[i].Type = normalize.KindString
		}
	}
}

func (c *Config) validate() error {
	var missing []string
	if c.Mapping.AFIP.Tipo == "" {
		missing = append(missing, "mapping.afip.tipo")
	}
	if c.Mapping.AFIP.PV == "" {
		missing = append(missing, "mapping.afip.pv")
	}
	if c.Mapping.AFIP.Num == "" {
		missing = append(missing, "mapping.afip.num")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required mapping keys: %v", missing)
	}
	for _, col := range c.Columns {
		if col.Name == "" {
			return fmt.Errorf("columns entries require a name")
		}
		if col.Tolerance < 0 {
			return fmt.Errorf("column %q has negative tolerance", col.Name)
		}
	}
	return nil
}

// Tolerances flattens the column set into a name→tolerance map.
func (c *Config) Tolerances() map[string]float64 {
	out := make(map[string]float64, len(c.Columns))
	for _, col := range c.Columns {
		out[col.Name] = col.Tolerance
	}
	return out
}

// LoggerConfigFromEnv builds the logger configuration from LOG_* variables,
// defaulting to console output on stdout at info level.
func LoggerConfigFromEnv() logger.LogConfig {
	return logger.LogConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Format:     getEnv("LOG_FORMAT", "console"),
		TimeFormat: getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		Output:     getEnv("LOG_OUTPUT", "stdout"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
