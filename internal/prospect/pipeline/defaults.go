package pipeline

import (
	_ "embed"
	"fmt"

	"prospectai_backend/internal/prospect/domain"

	"gopkg.in/yaml.v3"
)

//go:embed default_pipeline.yaml
var defaultPipelineYAML []byte

type stageTemplate struct {
	Name     string           `yaml:"name"`
	Order    int              `yaml:"order"`
	Role     domain.StageRole `yaml:"role"`
	Fixed    bool             `yaml:"fixed"`
	Disabled bool             `yaml:"disabled"`
}

type pipelineTemplate struct {
	Stages []stageTemplate `yaml:"stages"`
}

// DefaultStages builds a fresh copy of the default funnel, assigning ids
// with newID.
func DefaultStages(newID func() string) ([]domain.Stage, error) {
	return parseTemplate(defaultPipelineYAML, newID)
}

func parseTemplate(raw []byte, newID func() string) ([]domain.Stage, error) {
	var tpl pipelineTemplate
	if err := yaml.Unmarshal(raw, &tpl); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline template: %w", err)
	}
	if len(tpl.Stages) == 0 {
		return nil, fmt.Errorf("pipeline template has no stages")
	}

	stages := make([]domain.Stage, 0, len(tpl.Stages))
	for _, st := range tpl.Stages {
		stages = append(stages, domain.Stage{
			ID:        newID(),
			Name:      st.Name,
			Order:     st.Order,
			IsFixed:   st.Fixed,
			IsEnabled: !st.Disabled,
			Role:      st.Role,
		})
	}
	return stages, nil
}
