package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/recon/internal/buildinfo"
	"github.com/cleared-dev/recon/internal/config"
	"github.com/cleared-dev/recon/internal/logging"
	"github.com/cleared-dev/recon/internal/output"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v        *viper.Viper
	settings config.Settings
	log      zerolog.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{v: config.NewViper(), log: logging.Nop}

	rootCmd := &cobra.Command{
		Use:     "recon",
		Short:   "Reconcile a source ledger against a validation ledger",
		Version: buildinfo.Summary(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "project directory containing recon.yaml")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.String("log-format", "auto", "log format (auto, json, console)")
	flags.Bool("no-color", false, "disable colored logs")
	for _, name := range []string{"dir", "log-level", "log-format", "no-color"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(
		newInitCommand(a),
		newWorkflowsCommand(a),
		newRunCommand(a),
		newBatchCommand(a),
		newSummarizeCommand(a),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	dir := a.v.GetString("dir")
	config.LoadEnvFiles(dir)
	a.settings = config.LoadSettings(a.v)

	format := a.settings.LogFormat
	if format == "auto" {
		format = ""
	}
	a.log = logging.New(os.Stderr, logging.Options{
		Level:   a.settings.LogLevel,
		Format:  format,
		NoColor: a.settings.NoColor,
	})
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.log))
	return nil
}

// loadConfig reads the project's recon.yaml.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.settings.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no %s in %s (run `recon init` first)", config.FileName, a.settings.Dir)
	}
	return cfg, err
}

// format picks the output format: flag, then RECON_FORMAT, then recon.yaml.
func (a *app) format(flag string, cfg *config.Config) (output.Format, error) {
	for _, s := range []string{flag, a.settings.Format} {
		if s == "" {
			continue
		}
		return output.ParseFormat(s)
	}
	if cfg != nil && cfg.Output.Format != "" {
		f, err := output.ParseFormat(cfg.Output.Format)
		if err != nil {
			return "", fmt.Errorf("%s output.format: %w", config.FileName, err)
		}
		return output.DetectFormat(f), nil
	}
	return output.DetectFormat(""), nil
}

// outDir picks the export directory: flag, then RECON_OUT, then recon.yaml.
// Relative paths are resolved against the project directory.
func (a *app) outDir(flag string, cfg *config.Config) string {
	dir := flag
	if dir == "" {
		dir = a.settings.OutDir
	}
	if dir == "" && cfg != nil {
		dir = cfg.Output.Dir
	}
	if dir == "" {
		dir = "exports"
	}
	if flag == "" && !filepath.IsAbs(dir) {
		dir = filepath.Join(a.settings.Dir, dir)
	}
	return dir
}
