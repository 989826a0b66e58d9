package pipeline

import (
	"context"

	"github.com/viant/conveyor/model/container"
)

const sequenceName = "Sequence"

// Group represents units run strictly in order
type Group struct {
	*unit
	units     []Unit
	anonymous bool
}

// Units returns grouped units
func (g *Group) Units() []Unit {
	return append([]Unit(nil), g.units...)
}

// Sequence creates anonymous group; nested anonymous groups are flattened so
// any grouping of the same units behaves identically
func Sequence(units ...Unit) *Group {
	var flat []Unit
	for _, u := range units {
		if group, ok := u.(*Group); ok && group.anonymous {
			flat = append(flat, group.units...)
			continue
		}
		if u != nil {
			flat = append(flat, u)
		}
	}
	return newGroup(sequenceName, true, flat)
}

// Named creates named group, it is recorded under its name and never flattened
func Named(name string, units ...Unit) *Group {
	return newGroup(name, false, units)
}

func newGroup(name string, anonymous bool, units []Unit) *Group {
	ret := &Group{units: units, anonymous: anonymous}
	ret.unit = &unit{name: name, system: anonymous, body: ret.run}
	return ret
}

// Then returns a new anonymous group with units appended
func (g *Group) Then(units ...Unit) *Group {
	return Sequence(append([]Unit{g}, units...)...)
}

func (g *Group) run(ctx context.Context, in *container.Container) (*container.Container, error) {
	return runAll(ctx, g.units, in)
}

func runAll(ctx context.Context, units []Unit, in *container.Container) (*container.Container, error) {
	out := in
	for _, u := range units {
		if out.Exited() {
			break
		}
		result, err := invoke(ctx, u, out)
		if err != nil {
			return nil, err
		}
		out = result.Container
	}
	return out, nil
}

// unitOf returns the only unit or an anonymous sequence of units
func unitOf(units []Unit) Unit {
	if len(units) == 1 && units[0] != nil {
		return units[0]
	}
	return Sequence(units...)
}
