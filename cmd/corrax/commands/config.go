package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/corraxdev/corrax/internal/config"
)

// configSnapshot is the YAML-serializable view of a ValidatedConfig's
// effective settings, built from its accessor methods since the
// underlying struct's fields are deliberately unexported.
type configSnapshot struct {
	Preset      config.Preset             `yaml:"preset"`
	Profile     config.PerformanceProfile `yaml:"performance_profile"`
	Taint       config.TaintConfig        `yaml:"taint"`
	PTA         config.PTAConfig          `yaml:"pta"`
	Clone       config.CloneConfig        `yaml:"clone"`
	Chunking    config.ChunkingConfig     `yaml:"chunking"`
	Lexical     config.LexicalConfig      `yaml:"lexical"`
	Parallel    config.ParallelConfig     `yaml:"parallel"`
	Cache       config.CacheConfig        `yaml:"cache"`
	Repomap     config.RepomapConfig      `yaml:"repomap"`
	Provenance  map[string]config.Source  `yaml:"provenance,omitempty"`
	Warnings    []string                  `yaml:"warnings,omitempty"`
}

func snapshotOf(vc *config.ValidatedConfig) configSnapshot {
	warnings := make([]string, 0, len(vc.Warnings()))
	for _, w := range vc.Warnings() {
		warnings = append(warnings, w.String())
	}

	return configSnapshot{
		Preset:     vc.Preset(),
		Profile:    vc.PerformanceProfile(),
		Taint:      vc.EffectiveTaint(),
		PTA:        vc.EffectivePTA(),
		Clone:      vc.EffectiveClone(),
		Chunking:   vc.EffectiveChunking(),
		Lexical:    vc.EffectiveLexical(),
		Parallel:   vc.EffectiveParallel(),
		Cache:      vc.EffectiveCache(),
		Repomap:    vc.EffectiveRepomap(),
		Provenance: vc.Provenance().Summary(),
		Warnings:   warnings,
	}
}

type configFlags struct {
	preset     string
	configPath string
}

// NewConfigCommand builds the `corrax config` command group: show prints
// the effective, merged configuration a run would use; validate does
// the same merge, returns any error, prints each non-fatal warning to
// stderr, and prints "config valid" on success.
func NewConfigCommand() *cobra.Command {
	flags := &configFlags{}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate corrax's effective configuration",
	}

	cmd.PersistentFlags().StringVar(&flags.preset, "preset", "balanced", "analysis preset: fast, balanced, thorough, custom")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a declarative config document")

	cmd.AddCommand(newConfigShowCommand(flags))
	cmd.AddCommand(newConfigValidateCommand(flags))

	return cmd
}

func newConfigShowCommand(flags *configFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(_ *cobra.Command, _ []string) error {
			vc, err := loadConfig(parsePreset(flags.preset), flags.configPath)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)

			defer enc.Close()

			if err := enc.Encode(snapshotOf(vc)); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}

			return nil
		},
	}
}

func newConfigValidateCommand(flags *configFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration without running analysis",
		RunE: func(_ *cobra.Command, _ []string) error {
			vc, err := loadConfig(parsePreset(flags.preset), flags.configPath)
			if err != nil {
				return err
			}

			for _, w := range vc.Warnings() {
				fmt.Fprintln(os.Stderr, "warning:", w.String())
			}

			fmt.Println("config valid")

			return nil
		},
	}
}
