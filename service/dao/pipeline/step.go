package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/viant/conveyor/internal/yml"
	"github.com/viant/conveyor/runtime/evaluator"
	rpipeline "github.com/viant/conveyor/runtime/pipeline"
)

const returnStep = "return"

var expressions = evaluator.New()

func invalid(node *yml.Node, format string, args ...interface{}) error {
	return fmt.Errorf("line %d: %w: %v", node.Line, ErrInvalidStep, fmt.Sprintf(format, args...))
}

func (s *Service) parseSteps(node *yml.Node) ([]rpipeline.Unit, error) {
	if node.IsScalar() || node.IsMapping() {
		step, err := s.parseStep(node)
		if err != nil {
			return nil, err
		}
		return []rpipeline.Unit{step}, nil
	}
	if !node.IsSequence() {
		return nil, invalid(node, "steps should be a sequence")
	}
	var ret []rpipeline.Unit
	err := node.Items(func(_ int, item *yml.Node) error {
		step, err := s.parseStep(item)
		if err != nil {
			return err
		}
		ret = append(ret, step)
		return nil
	})
	return ret, err
}

func (s *Service) parseBody(node *yml.Node, key string) (rpipeline.Unit, error) {
	body := node.Lookup(key)
	if body == nil {
		return nil, invalid(node, "missing %v", key)
	}
	steps, err := s.parseSteps(body)
	if err != nil {
		return nil, err
	}
	return rpipeline.Sequence(steps...), nil
}

func (s *Service) parseStep(node *yml.Node) (rpipeline.Unit, error) {
	if node.IsScalar() {
		return s.unitRef(node, node.Value)
	}
	if !node.IsMapping() {
		return nil, invalid(node, "step should be a name or a mapping")
	}
	for _, key := range node.Keys() {
		switch strings.ToLower(key) {
		case "unit":
			return s.parseUnit(node)
		case "set":
			values, ok := node.Lookup(key).Interface().(map[string]interface{})
			if !ok {
				return nil, invalid(node, "set should be a mapping")
			}
			return rpipeline.AddValues(values), nil
		case "alias":
			return pairs(node.Lookup(key), rpipeline.Alias)
		case "rename":
			return pairs(node.Lookup(key), rpipeline.Rename)
		case "without":
			keys, err := node.Lookup(key).Strings()
			if err != nil {
				return nil, err
			}
			return rpipeline.Without(keys...), nil
		case "when":
			return s.parseWhen(node)
		case "switch":
			return s.parseSwitch(node.Lookup(key))
		case "retry":
			return s.parseRetry(node.Lookup(key))
		case "isolate":
			return s.parseIsolate(node)
		case "finish":
			body, err := s.parseBody(node, key)
			if err != nil {
				return nil, err
			}
			return rpipeline.Finish(body), nil
		case "group":
			body, err := s.parseBody(node, "do")
			if err != nil {
				return nil, err
			}
			return rpipeline.Named(node.Lookup(key).Value, body), nil
		case "for":
			return s.parseFor(node.Lookup(key))
		case "onsubfield":
			spec := node.Lookup(key)
			field := spec.Lookup("field")
			if field == nil {
				return nil, invalid(spec, "onSubfield requires field")
			}
			body, err := s.parseBody(spec, "do")
			if err != nil {
				return nil, err
			}
			return rpipeline.OnSubfield(field.Value, body), nil
		}
	}
	return nil, invalid(node, "unsupported step: %v", strings.Join(node.Keys(), ", "))
}

func (s *Service) unitRef(node *yml.Node, name string) (rpipeline.Unit, error) {
	if strings.EqualFold(name, returnStep) {
		return rpipeline.Return(), nil
	}
	ret, ok := s.registry.Unit(name)
	if !ok {
		return nil, fmt.Errorf("line %d: %w: %v", node.Line, ErrUnknownUnit, name)
	}
	return ret, nil
}

func (s *Service) parseUnit(node *yml.Node) (rpipeline.Unit, error) {
	ret, err := s.unitRef(node, node.Lookup("unit").Value)
	if err != nil {
		return nil, err
	}
	var opts []rpipeline.GuardOption
	if inputs := node.Lookup("inputs"); inputs != nil {
		mapping, err := inputs.StringMap()
		if err != nil {
			return nil, err
		}
		for _, outer := range sortedKeys(mapping) {
			opts = append(opts, rpipeline.InputAs(outer, mapping[outer]))
		}
	}
	if outputs := node.Lookup("outputs"); outputs != nil {
		mapping, err := outputs.StringMap()
		if err != nil {
			return nil, err
		}
		for _, inner := range sortedKeys(mapping) {
			opts = append(opts, rpipeline.OutputAs(inner, mapping[inner]))
		}
	}
	if len(opts) == 0 {
		return ret, nil
	}
	return rpipeline.Guard(ret, opts...), nil
}

func pairs(node *yml.Node, fn func(a, b string) rpipeline.Unit) (rpipeline.Unit, error) {
	mapping, err := node.StringMap()
	if err != nil {
		return nil, err
	}
	var units []rpipeline.Unit
	for _, key := range sortedKeys(mapping) {
		units = append(units, fn(key, mapping[key]))
	}
	return rpipeline.Sequence(units...), nil
}

func sortedKeys(values map[string]string) []string {
	ret := make([]string, 0, len(values))
	for key := range values {
		ret = append(ret, key)
	}
	sort.Strings(ret)
	return ret
}

// condition resolves registered condition name, optionally negated with !, or an expression
func (s *Service) condition(node *yml.Node) (rpipeline.Condition, error) {
	text := strings.TrimSpace(node.Value)
	if text == "" {
		return nil, invalid(node, "empty condition")
	}
	if strings.HasPrefix(text, "!") {
		if ret, ok := s.registry.Condition(strings.TrimSpace(text[1:])); ok {
			return ret.Not(), nil
		}
	}
	if ret, ok := s.registry.Condition(text); ok {
		return ret, nil
	}
	if _, err := expressions.Compile(text); err != nil {
		return nil, invalid(node, "invalid condition %q: %v", text, err)
	}
	return rpipeline.Expr(text), nil
}

func (s *Service) parseWhen(node *yml.Node) (rpipeline.Unit, error) {
	condition, err := s.condition(node.Lookup("when"))
	if err != nil {
		return nil, err
	}
	then, err := s.parseBody(node, "then")
	if err != nil {
		return nil, err
	}
	if node.Lookup("else") == nil {
		return rpipeline.IfThen(condition, then), nil
	}
	otherwise, err := s.parseBody(node, "else")
	if err != nil {
		return nil, err
	}
	return rpipeline.Switch(rpipeline.Case(condition, then), rpipeline.Otherwise(otherwise)), nil
}

func (s *Service) parseSwitch(node *yml.Node) (rpipeline.Unit, error) {
	if !node.IsSequence() {
		return nil, invalid(node, "switch should be a sequence of branches")
	}
	var branches []*rpipeline.Branch
	err := node.Items(func(_ int, item *yml.Node) error {
		if item.Lookup("otherwise") != nil {
			body, err := s.parseBody(item, "otherwise")
			if err != nil {
				return err
			}
			branches = append(branches, rpipeline.Otherwise(body))
			return nil
		}
		when := item.Lookup("when")
		if when == nil {
			return invalid(item, "branch requires when or otherwise")
		}
		condition, err := s.condition(when)
		if err != nil {
			return err
		}
		body, err := s.parseBody(item, "then")
		if err != nil {
			return err
		}
		branches = append(branches, rpipeline.Case(condition, body))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rpipeline.Switch(branches...), nil
}

func (s *Service) parseRetry(node *yml.Node) (rpipeline.Unit, error) {
	if !node.IsMapping() {
		return nil, invalid(node, "retry should be a mapping")
	}
	body, err := s.parseBody(node, "do")
	if err != nil {
		return nil, err
	}
	var opts []rpipeline.RetryOption
	if value := node.Lookup("maxAttempts"); value != nil {
		attempts, ok := value.Interface().(int)
		if !ok || attempts <= 0 {
			return nil, invalid(value, "maxAttempts should be a positive integer")
		}
		opts = append(opts, rpipeline.MaxAttempts(attempts))
	}
	if value := node.Lookup("delay"); value != nil {
		delay, err := time.ParseDuration(value.Value)
		if err != nil {
			return nil, invalid(value, "invalid delay: %v", err)
		}
		opts = append(opts, rpipeline.Delay(delay))
	}
	if value := node.Lookup("untilTrue"); value != nil {
		opts = append(opts, rpipeline.UntilTrue(value.Value))
	}
	return rpipeline.Retry(body, opts...), nil
}

func (s *Service) parseIsolate(node *yml.Node) (rpipeline.Unit, error) {
	steps, err := s.parseSteps(node.Lookup("isolate"))
	if err != nil {
		return nil, err
	}
	var opts []rpipeline.SideEffectOption
	if blocking := node.Lookup("blocking"); blocking != nil && blocking.Interface() == true {
		opts = append(opts, rpipeline.Blocking())
	}
	return rpipeline.Isolate(steps, opts...), nil
}

func (s *Service) parseFor(node *yml.Node) (rpipeline.Unit, error) {
	if !node.IsMapping() {
		return nil, invalid(node, "for should be a mapping")
	}
	each, as := node.Lookup("each"), node.Lookup("as")
	if each == nil || as == nil {
		return nil, invalid(node, "for requires each and as")
	}
	body, err := s.parseBody(node, "do")
	if err != nil {
		return nil, err
	}
	loop := rpipeline.For(as.Value, rpipeline.FromKey(each.Value), body)
	if aggregate := node.Lookup("aggregate"); aggregate != nil {
		field, into := aggregate.Lookup("field"), aggregate.Lookup("into")
		if field == nil || into == nil {
			return nil, invalid(aggregate, "aggregate requires field and into")
		}
		loop = loop.Aggregate(field.Value, into.Value)
	}
	if skipNil := node.Lookup("skipNil"); skipNil != nil && skipNil.Interface() == true {
		loop = loop.SkipNil()
	}
	return loop, nil
}
