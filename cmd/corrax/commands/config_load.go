package commands

import (
	"fmt"

	"github.com/corraxdev/corrax/internal/config"
)

// loadConfig layers preset defaults, an optional declarative file, and
// environment overrides into a ValidatedConfig, the same precedence
// order internal/config's builder documents: preset < file < env <
// builder calls.
func loadConfig(preset config.Preset, documentPath string) (*config.ValidatedConfig, error) {
	builder := config.NewBuilder(preset)

	if documentPath != "" {
		doc, err := config.LoadDocument(documentPath)
		if err != nil {
			return nil, fmt.Errorf("load config document: %w", err)
		}

		fileOverride, err := doc.ToOverride()
		if err != nil {
			return nil, fmt.Errorf("apply config document: %w", err)
		}

		builder = builder.WithFileOverrides(fileOverride)
	}

	envOverride, err := config.EnvOverride()
	if err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	builder = builder.WithEnvOverrides(envOverride)

	validated, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build config: %w", err)
	}

	return validated, nil
}

func parsePreset(name string) config.Preset {
	switch name {
	case "fast":
		return config.PresetFast
	case "thorough":
		return config.PresetThorough
	case "custom":
		return config.PresetCustom
	default:
		return config.PresetBalanced
	}
}
