package ai

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type GenParams struct {
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	MaxTokens   int     `yaml:"max_tokens"`
	JSON        bool    `yaml:"json"`
}

//go:embed params.yaml
var paramsYAML []byte

type paramsFile struct {
	Defaults GenParams            `yaml:"defaults"`
	Features map[string]GenParams `yaml:"features"`
}

// ParamSet holds per feature generation parameters. Features without an entry
// fall back to the defaults. An override file replaces entries wholesale, so
// an override must spell out every field it cares about.
type ParamSet struct {
	defaults GenParams
	features map[string]GenParams
}

func LoadParams(overridePath string) (*ParamSet, error) {
	var file paramsFile
	if err := yaml.Unmarshal(paramsYAML, &file); err != nil {
		return nil, fmt.Errorf("error parsing builtin params: %w", err)
	}

	if overridePath != "" {
		data, err := os.ReadFile(overridePath)
		if err != nil {
			return nil, fmt.Errorf("error reading params override %s: %w", overridePath, err)
		}

		var override paramsFile
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("error parsing params override %s: %w", overridePath, err)
		}

		if override.Defaults != (GenParams{}) {
			file.Defaults = override.Defaults
		}
		for feature, params := range override.Features {
			if file.Features == nil {
				file.Features = make(map[string]GenParams)
			}
			file.Features[feature] = params
		}
	}

	return &ParamSet{defaults: file.Defaults, features: file.Features}, nil
}

func (p *ParamSet) For(feature string) GenParams {
	if params, ok := p.features[feature]; ok {
		return params
	}
	return p.defaults
}
