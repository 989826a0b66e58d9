package pipeline

import (
	"context"
	"errors"

	"github.com/viant/conveyor/model/container"
)

// Branch represents a switch case
type Branch struct {
	condition Condition
	unit      Unit
}

// Case creates branch run when condition succeeds
func Case(condition Condition, units ...Unit) *Branch {
	return &Branch{condition: condition, unit: unitOf(units)}
}

// Otherwise creates default branch
func Otherwise(units ...Unit) *Branch {
	return &Branch{unit: unitOf(units)}
}

// SwitchUnit runs the first branch whose condition succeeds
type SwitchUnit struct {
	*unit
	cases     []*Branch
	otherwise *Branch
}

// Switch creates a branching unit; conditions are evaluated in order
func Switch(branches ...*Branch) *SwitchUnit {
	return newSwitch("Switch", branches)
}

func newSwitch(name string, branches []*Branch) *SwitchUnit {
	ret := &SwitchUnit{}
	for _, branch := range branches {
		if branch.condition == nil {
			ret.otherwise = branch
			continue
		}
		ret.cases = append(ret.cases, branch)
	}
	ret.unit = &unit{name: name, body: ret.run}
	return ret
}

func (s *SwitchUnit) branches() []*Branch {
	ret := append([]*Branch(nil), s.cases...)
	if s.otherwise != nil {
		ret = append(ret, s.otherwise)
	}
	return ret
}

// Case returns a copy with a branch added
func (s *SwitchUnit) Case(condition Condition, units ...Unit) *SwitchUnit {
	return newSwitch(s.name, append(s.branches(), Case(condition, units...)))
}

// Otherwise returns a copy with the default branch replaced
func (s *SwitchUnit) Otherwise(units ...Unit) *SwitchUnit {
	return newSwitch(s.name, append(s.branches(), Otherwise(units...)))
}

func (s *SwitchUnit) run(ctx context.Context, in *container.Container) (*container.Container, error) {
	var evaluated []string
	for _, branch := range s.cases {
		evaluated = append(evaluated, branch.condition.Name())
		_, err := invoke(ctx, branch.condition, in)
		if err != nil {
			if errors.Is(err, ErrConditionNotMet) {
				continue
			}
			return nil, err
		}
		return s.runBranch(ctx, branch, in)
	}
	if s.otherwise != nil {
		return s.runBranch(ctx, s.otherwise, in)
	}
	return nil, &BranchError{Unit: s.name, Conditions: evaluated}
}

func (s *SwitchUnit) runBranch(ctx context.Context, branch *Branch, in *container.Container) (*container.Container, error) {
	result, err := invoke(ctx, branch.unit, in)
	if err != nil {
		return nil, err
	}
	return result.Container, nil
}

// IfThen runs units only when condition succeeds, otherwise the input is passed through
func IfThen(condition Condition, units ...Unit) *SwitchUnit {
	return newSwitch("IfThen", []*Branch{Case(condition, units...), Otherwise()})
}
