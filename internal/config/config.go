package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/recon/internal/aggregate"
	"github.com/cleared-dev/recon/internal/schema"
)

// FileName is the project configuration file created by `recon init`.
const FileName = "recon.yaml"

// Config represents the top-level recon.yaml configuration.
type Config struct {
	Workflows []Workflow    `json:"workflows" yaml:"workflows"`
	Output    OutputConfig  `json:"output" yaml:"output"`
	Insight   InsightConfig `json:"insight" yaml:"insight"`
}

// Workflow is one named reconciliation: which source ledger is checked
// against which reference ledger, and how their uploads are read.
type Workflow struct {
	Name        string            `json:"name" yaml:"name"`
	Label       string            `json:"label" yaml:"label"`
	GroupBy     aggregate.GroupBy `json:"group_by" yaml:"group_by"`
	Recalculate bool              `json:"recalculate" yaml:"recalculate"`
	Source      schema.Profile    `json:"source" yaml:"source"`
	Reference   schema.Profile    `json:"reference" yaml:"reference"`
	Mappings    Mappings          `json:"mappings,omitempty" yaml:"mappings,omitempty"`
}

// Mappings stores column mappings remembered for recurring uploads.
type Mappings struct {
	Source    schema.Mapping `json:"source,omitempty" yaml:"source,omitempty"`
	Reference schema.Mapping `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// OutputConfig holds defaults for where and how results are written.
type OutputConfig struct {
	Dir    string `json:"dir" yaml:"dir"`
	Format string `json:"format" yaml:"format"` // table, json, yaml
}

// InsightConfig configures the optional narrative analysis.
type InsightConfig struct {
	Model       string  `json:"model" yaml:"model"`
	Temperature float32 `json:"temperature" yaml:"temperature"`
}

// Load reads a recon.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks workflow names and profiles.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Workflows))
	for _, w := range c.Workflows {
		if w.Name == "" {
			return fmt.Errorf("workflow with empty name")
		}
		if seen[w.Name] {
			return fmt.Errorf("duplicate workflow %q", w.Name)
		}
		seen[w.Name] = true

		if _, err := aggregate.ParseGroupBy(string(w.GroupBy)); err != nil {
			return fmt.Errorf("workflow %s: %w", w.Name, err)
		}
		if err := w.Source.Validate(); err != nil {
			return fmt.Errorf("workflow %s: %w", w.Name, err)
		}
		if err := w.Reference.Validate(); err != nil {
			return fmt.Errorf("workflow %s: %w", w.Name, err)
		}
	}
	return nil
}

// Workflow looks up a workflow by name.
func (c *Config) Workflow(name string) (Workflow, error) {
	for _, w := range c.Workflows {
		if w.Name == name {
			return w, nil
		}
	}
	names := make([]string, len(c.Workflows))
	for i, w := range c.Workflows {
		names[i] = w.Name
	}
	sort.Strings(names)
	return Workflow{}, fmt.Errorf("unknown workflow %q (configured: %v)", name, names)
}

// Default returns a Config with the Supply Chain and SAP workflows.
func Default() *Config {
	return &Config{
		Workflows: []Workflow{
			{
				Name:        "sc",
				Label:       "Supply Chain receipts vs validation",
				GroupBy:     aggregate.GroupByTransaction,
				Recalculate: true,
				Source: schema.Profile{
					Side: "SC",
					Fields: []schema.Field{
						{Name: "kode_outlet", Label: "Outlet code"},
						{Name: "no_penerimaan", Label: "Receipt number"},
						{Name: "tgl_penerimaan", Label: "Receipt date"},
						{Name: "jml_neto", Label: "Net amount"},
					},
					Outlet: "kode_outlet",
					Key:    "no_penerimaan",
					Date:   "tgl_penerimaan",
					Amount: "jml_neto",
				},
				Reference: validationProfile("no_transaksi", "Transaction number"),
			},
			{
				Name:        "sap",
				Label:       "SAP postings vs validation",
				GroupBy:     aggregate.GroupByTransaction,
				Recalculate: true,
				Source: schema.Profile{
					Side: "SAP",
					Fields: []schema.Field{
						{Name: "profit_center", Label: "Profit center"},
						{Name: "doc_id", Label: "Document id"},
						{Name: "posting_date", Label: "Posting date"},
						{Name: "kredit", Label: "Credit"},
					},
					Outlet: "profit_center",
					Key:    "doc_id",
					Date:   "posting_date",
					Amount: "kredit",
				},
				Reference: validationProfile("document_id", "Document id"),
			},
		},
		Output: OutputConfig{
			Dir:    "exports",
			Format: "table",
		},
		Insight: InsightConfig{
			Model:       "gemini-2.5-flash",
			Temperature: 0.2,
		},
	}
}

func validationProfile(key, label string) schema.Profile {
	return schema.Profile{
		Side: "validation",
		Fields: []schema.Field{
			{Name: "kode_outlet", Label: "Outlet code"},
			{Name: key, Label: label},
			{Name: "tanggal", Label: "Date"},
			{Name: "dpp", Label: "Tax base (DPP)"},
		},
		Outlet:    "kode_outlet",
		Key:       key,
		Date:      "tanggal",
		Amount:    "dpp",
		Alternate: "total",
	}
}
