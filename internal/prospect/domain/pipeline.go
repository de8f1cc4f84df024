package domain

import (
	"fmt"
	"sort"

	"prospectai_backend/platform/apperr"

	"github.com/google/uuid"
)

// Pipeline is the validated, ordered stage configuration of one company.
// Values are immutable; the With* methods return a modified copy.
type Pipeline struct {
	TenantID uuid.UUID
	stages   []Stage
}

// NewPipeline resolves missing roles by name, sorts stages by order and
// checks the structural rules every company pipeline must satisfy.
func NewPipeline(tenantID uuid.UUID, stages []Stage) (*Pipeline, error) {
	resolved := make([]Stage, len(stages))
	copy(resolved, stages)
	for i := range resolved {
		if resolved[i].Role == "" {
			resolved[i].Role = RoleForName(resolved[i].Name)
		}
	}
	sortStages(resolved)

	p := &Pipeline{TenantID: tenantID, stages: resolved}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func sortStages(stages []Stage) {
	sort.SliceStable(stages, func(i, j int) bool {
		if stages[i].Order != stages[j].Order {
			return stages[i].Order < stages[j].Order
		}
		return stages[i].Name < stages[j].Name
	})
}

func (p *Pipeline) validate() error {
	ids := make(map[string]struct{}, len(p.stages))
	names := make(map[string]struct{}, len(p.stages))
	roleCount := make(map[StageRole]int)

	for _, s := range p.stages {
		if s.ID == "" {
			return apperr.ConstraintViolation("stage id is required")
		}
		if _, dup := ids[s.ID]; dup {
			return apperr.ConstraintViolation(fmt.Sprintf("duplicate stage id %q", s.ID))
		}
		ids[s.ID] = struct{}{}

		key := FoldName(s.Name)
		if key == "" {
			return apperr.ConstraintViolation("stage name is required")
		}
		if _, dup := names[key]; dup {
			return apperr.ConstraintViolation(fmt.Sprintf("a stage named %q already exists", s.Name))
		}
		names[key] = struct{}{}

		if !s.Role.IsValid() {
			return apperr.ConstraintViolation(fmt.Sprintf("stage %q has unknown role %q", s.Name, s.Role))
		}
		roleCount[s.Role]++
	}

	for _, role := range []StageRole{RoleEntry, RoleTerminal, RoleHolding} {
		if roleCount[role] != 1 {
			return apperr.ConstraintViolation(fmt.Sprintf("pipeline must have exactly one %s stage", role))
		}
	}
	for _, role := range []StageRole{RoleFirstAttempt, RoleScheduling} {
		if roleCount[role] > 1 {
			return apperr.ConstraintViolation(fmt.Sprintf("pipeline can have at most one %s stage", role))
		}
	}
	return nil
}

// Stages returns the stages sorted by order.
func (p *Pipeline) Stages() []Stage {
	out := make([]Stage, len(p.stages))
	copy(out, p.stages)
	return out
}

// Stage looks a stage up by id.
func (p *Pipeline) Stage(id string) (Stage, bool) {
	for _, s := range p.stages {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

// ByRole returns the first stage with the given role.
func (p *Pipeline) ByRole(role StageRole) (Stage, bool) {
	for _, s := range p.stages {
		if s.Role == role {
			return s, true
		}
	}
	return Stage{}, false
}

// Entry returns the stage new leads start in.
func (p *Pipeline) Entry() Stage {
	s, _ := p.ByRole(RoleEntry)
	return s
}

// Terminal returns the stage of finished leads.
func (p *Pipeline) Terminal() Stage {
	s, _ := p.ByRole(RoleTerminal)
	return s
}

// Holding returns the stage manually reassigned leads are parked in.
func (p *Pipeline) Holding() Stage {
	s, _ := p.ByRole(RoleHolding)
	return s
}

// EffectiveStage is the stage a lead is worked from. A lead parked in the
// holding stage is handled by its new owner as if it had just arrived.
func (p *Pipeline) EffectiveStage(stageID string) (Stage, bool) {
	s, ok := p.Stage(stageID)
	if !ok {
		return Stage{}, false
	}
	if s.Role == RoleHolding {
		return p.Entry(), true
	}
	return s, true
}

// ActionableStages lists the stages a lead in currentStageID may move to:
// enabled, strictly later in the funnel, never the holding stage, ascending.
func (p *Pipeline) ActionableStages(currentStageID string) []Stage {
	current, ok := p.EffectiveStage(currentStageID)
	if !ok {
		return []Stage{}
	}

	out := make([]Stage, 0, len(p.stages))
	for _, s := range p.stages {
		if !s.IsEnabled || s.Role == RoleHolding {
			continue
		}
		if s.Order > current.Order {
			out = append(out, s)
		}
	}
	return out
}

// IsWorkStage reports whether stageID is an enabled stage where a lead is
// actively worked (anything but entry, terminal and holding).
func (p *Pipeline) IsWorkStage(stageID string) bool {
	s, ok := p.Stage(stageID)
	return ok && s.IsEnabled && s.Role.IsWork()
}

func (p *Pipeline) indexOf(id string) int {
	for i, s := range p.stages {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (p *Pipeline) rebuild(stages []Stage) (*Pipeline, error) {
	return NewPipeline(p.TenantID, stages)
}

// WithStageAdded appends a custom stage after the last stage below the
// closing block.
func (p *Pipeline) WithStageAdded(id, name string) (*Pipeline, Stage, error) {
	maxOrder := 0
	for _, s := range p.stages {
		if s.Order < ReservedOrder && s.Order > maxOrder {
			maxOrder = s.Order
		}
	}
	if maxOrder+1 >= ReservedOrder {
		return nil, Stage{}, apperr.ConstraintViolation("no free position left before the closing stages")
	}
	if err := checkReservedName(name, RoleStandard); err != nil {
		return nil, Stage{}, err
	}

	stage := Stage{
		ID:        id,
		Name:      name,
		Order:     maxOrder + 1,
		IsFixed:   false,
		IsEnabled: true,
		Role:      RoleStandard,
	}
	next, err := p.rebuild(append(p.Stages(), stage))
	if err != nil {
		return nil, Stage{}, err
	}
	return next, stage, nil
}

// checkReservedName rejects a canonical stage name on a stage of another
// role, so a later role backfill can never resolve it wrongly.
func checkReservedName(name string, role StageRole) error {
	reserved := RoleForName(name)
	if reserved != RoleStandard && reserved != role {
		return apperr.ConstraintViolation(fmt.Sprintf("%q is reserved for the %s stage", name, reserved))
	}
	return nil
}

func (p *Pipeline) mutable(id string) (int, error) {
	idx := p.indexOf(id)
	if idx < 0 {
		return -1, apperr.NotFound("stage not found")
	}
	if p.stages[idx].IsFixed {
		return -1, apperr.ConstraintViolation(fmt.Sprintf("stage %q is fixed and cannot be changed", p.stages[idx].Name))
	}
	return idx, nil
}

// WithStageRenamed renames a custom stage. The role is kept, so renaming
// never changes how the engine treats the stage.
func (p *Pipeline) WithStageRenamed(id, name string) (*Pipeline, error) {
	idx, err := p.mutable(id)
	if err != nil {
		return nil, err
	}
	if err := checkReservedName(name, p.stages[idx].Role); err != nil {
		return nil, err
	}
	stages := p.Stages()
	stages[idx].Name = name
	return p.rebuild(stages)
}

// WithStageEnabled enables or disables a custom stage.
func (p *Pipeline) WithStageEnabled(id string, enabled bool) (*Pipeline, error) {
	idx, err := p.mutable(id)
	if err != nil {
		return nil, err
	}
	stages := p.Stages()
	stages[idx].IsEnabled = enabled
	return p.rebuild(stages)
}

// WithStageRemoved deletes a custom stage that no lead references.
func (p *Pipeline) WithStageRemoved(id string, leadCount int) (*Pipeline, error) {
	idx, err := p.mutable(id)
	if err != nil {
		return nil, err
	}
	if leadCount > 0 {
		return nil, apperr.ConstraintViolation(fmt.Sprintf("cannot delete stage: %d leads are still in it", leadCount)).
			WithDetails(map[string]int{"leadCount": leadCount})
	}
	stages := p.Stages()
	stages = append(stages[:idx], stages[idx+1:]...)
	return p.rebuild(stages)
}
